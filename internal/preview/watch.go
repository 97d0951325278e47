package preview

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"git.home.luguber.info/inful/sitegraph/internal/logfields"
)

// debounceWindow coalesces editor write bursts into one rebuild.
const debounceWindow = 300 * time.Millisecond

// watch rebuilds the site whenever the outline or a content file changes.
// Rebuild failures are logged; the last good result keeps serving.
func (s *Server) watch(ctx context.Context) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if err := watcher.Add(filepath.Dir(s.cfg.Outline)); err != nil {
		watcher.Close()
		return nil, err
	}
	if err := addRecursive(watcher, s.cfg.ContentDir); err != nil {
		watcher.Close()
		return nil, err
	}

	go s.watchLoop(ctx, watcher)
	return watcher, nil
}

func (s *Server) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	var timer *time.Timer
	pending := make(chan struct{}, 1)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// New directories must be watched before files land in them.
			if event.Op.Has(fsnotify.Create) {
				_ = addRecursive(watcher, event.Name)
			}
			if timer == nil {
				timer = time.AfterFunc(debounceWindow, func() {
					select {
					case pending <- struct{}{}:
					default:
					}
				})
			} else {
				timer.Reset(debounceWindow)
			}
		case <-pending:
			timer = nil
			slog.Info("content changed, rebuilding")
			if err := s.rebuild(ctx); err != nil {
				slog.Error("rebuild failed, keeping previous result", logfields.Error(err))
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("watch error", logfields.Error(err))
		}
	}
}

// addRecursive watches dir and every directory below it. Non-directories are
// ignored (their parent directory watch covers them).
func addRecursive(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		return watcher.Add(path)
	})
}
