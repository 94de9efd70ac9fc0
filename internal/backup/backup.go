// Package backup streams a zip archive of the workspace plus a fixed
// allow-list of system configuration files.
package backup

import (
	"archive/zip"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/DanielLetto2020/Letto-Dashboard/internal/checksum"
)

// skipDirs mirrors the tree walker's noise list: VCS metadata and
// dependency caches never belong in a backup.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"venv":         true,
	".venv":        true,
	"dist":         true,
}

// Archiver zips the workspace. Include holds absolute paths of extra
// system files stored under system/ in the archive.
type Archiver struct {
	root     string
	allowDot string
	include  []string
	log      *slog.Logger
}

// NewArchiver creates an archiver over the workspace root.
func NewArchiver(root, allowDot string, include []string, log *slog.Logger) *Archiver {
	return &Archiver{root: root, allowDot: allowDot, include: include, log: log}
}

// WriteTo streams the archive to w. Once bytes are on the wire a failure
// cannot be turned into a clean error response, so write errors abort the
// stream and are returned for logging only.
func (a *Archiver) WriteTo(w io.Writer) error {
	cw := checksum.NewWriter(w)
	zw := zip.NewWriter(cw)

	err := filepath.WalkDir(a.root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			// Unreadable subtree: skip it, keep the rest of the backup.
			a.log.Warn("backup: skipping unreadable entry", slog.String("path", path))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		name := d.Name()
		if path != a.root && strings.HasPrefix(name, ".") && name != a.allowDot {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if skipDirs[name] {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(a.root, path)
		if err != nil {
			return nil
		}
		if err := a.addFile(zw, path, filepath.ToSlash(rel)); err != nil {
			// A file vanishing between readdir and open should not kill
			// the whole backup.
			a.log.Warn("backup: file skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("backup: walk: %w", err)
	}

	for _, path := range a.include {
		if err := a.addFile(zw, path, "system/"+filepath.Base(path)); err != nil {
			// Allow-listed system files are optional extras.
			a.log.Warn("backup: system file skipped",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("backup: finalize archive: %w", err)
	}
	a.log.Info("backup: archive written",
		slog.Int64("bytes", cw.Bytes()),
		slog.String("sha256", cw.Sum()))
	return nil
}

func (a *Archiver) addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("header %s: %w", path, err)
	}
	header.Name = name
	header.Method = zip.Deflate

	dst, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create entry %s: %w", name, err)
	}
	if _, err := io.Copy(dst, f); err != nil {
		return fmt.Errorf("copy %s: %w", name, err)
	}
	return nil
}
