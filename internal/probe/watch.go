package probe

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WatchFile watches the directory containing path and invokes onChange
// whenever path itself is written, created, renamed, or removed, until ctx
// is cancelled. The parent directory is watched (not the file) so the
// callback still fires after an atomic rename-over.
func WatchFile(ctx context.Context, path string, log *slog.Logger, onChange func()) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	dir := filepath.Dir(path)
	if err := w.Add(dir); err != nil {
		return err
	}
	log.Info("watcher: started", slog.String("file", path))

	for {
		select {
		case <-ctx.Done():
			log.Info("watcher: stopped", slog.String("file", path))
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				log.Debug("watcher: change", slog.String("op", ev.Op.String()))
				onChange()
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("watcher: error", slog.String("error", err.Error()))
		}
	}
}
