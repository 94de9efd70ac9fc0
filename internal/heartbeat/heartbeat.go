// Package heartbeat manages the operator's free-text heartbeat blob and
// its last-run marker file.
package heartbeat

import (
	"fmt"
	"os"
	"time"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/fsutil"
)

// Store reads and overwrites the heartbeat content. The marker file is
// touched by the external heartbeat runner, not by this process; only its
// mtime is consulted here.
type Store struct {
	file   string
	marker string
	now    func() time.Time
}

// NewStore creates a heartbeat store over the given content and marker
// file paths.
func NewStore(file, marker string) *Store {
	return &Store{file: file, marker: marker, now: time.Now}
}

// Read returns the raw heartbeat text and the unix time of the last
// runner pass. A missing content file reads as empty; a missing marker
// reads as "now" so the dashboard shows a quiet state, not an alarm.
func (s *Store) Read() (string, int64) {
	raw := ""
	if data, err := os.ReadFile(s.file); err == nil {
		raw = string(data)
	}
	last := s.now().Unix()
	if info, err := os.Stat(s.marker); err == nil {
		last = info.ModTime().Unix()
	}
	return raw, last
}

// Update overwrites the heartbeat content wholesale via tmp, fsync, and
// rename so a concurrent reader never observes a torn file.
func (s *Store) Update(content string) error {
	if err := fsutil.WriteFileAtomic(s.file, []byte(content), 0o644); err != nil {
		return fmt.Errorf("heartbeat: %w", err)
	}
	return nil
}
