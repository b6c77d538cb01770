package session

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/maauso/mediamanip/internal/apperr"
)

// Change is a filesystem event on the open document.
type Change struct {
	Path string
	// Removed is set when the file was deleted or renamed away.
	Removed bool
}

// Watch reports changes to the current document's file until ctx is done.
// The directory is watched rather than the file so that editors which
// replace files by rename are seen. The document itself is never touched.
func (s *Session) Watch(ctx context.Context) (<-chan Change, error) {
	d := s.doc
	if d == nil {
		return nil, apperr.ErrNoDocument
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(d.Path)); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	changes := make(chan Change, 1)
	go func() {
		defer close(changes)
		defer func() { _ = w.Close() }()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != d.Path {
					continue
				}
				var c Change
				switch {
				case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
					c = Change{Path: d.Path, Removed: true}
				case event.Has(fsnotify.Write), event.Has(fsnotify.Create):
					c = Change{Path: d.Path}
				default:
					continue
				}
				select {
				case changes <- c:
				case <-ctx.Done():
					return
				}

			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				s.logger.Warn("watcher error", slog.String("path", d.Path), slog.String("error", err.Error()))
			}
		}
	}()
	return changes, nil
}
