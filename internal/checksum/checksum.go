// Package checksum provides a pass-through writer used to fingerprint
// streamed archives.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
)

// Writer forwards writes to an underlying writer while accumulating a
// SHA-256 digest and a byte count.
type Writer struct {
	dst io.Writer
	h   hash.Hash
	n   int64
}

// NewWriter wraps dst.
func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst, h: sha256.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	n, err := w.dst.Write(p)
	if n > 0 {
		_, _ = w.h.Write(p[:n])
		w.n += int64(n)
	}
	return n, err
}

// Sum returns the hex digest of everything written so far.
func (w *Writer) Sum() string {
	return hex.EncodeToString(w.h.Sum(nil))
}

// Bytes returns the number of bytes written so far.
func (w *Writer) Bytes() int64 {
	return w.n
}
