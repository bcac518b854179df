package auth

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watch invalidates the cached profile whenever the credentials file is written,
// created, renamed or removed. It watches the parent directory because editors and
// `aws configure` replace the file by rename. Watch returns once the watcher is
// running; the returned channel closes after ctx is done and the watcher has stopped.
func (p *SharedFileProvider) Watch(ctx context.Context, logger *zap.Logger) (<-chan struct{}, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	dir := filepath.Dir(p.Filename)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	target := filepath.Clean(p.Filename)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != target {
					continue
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
					continue
				}
				p.Invalidate()
				logger.Debug("credentials file changed",
					zap.String("file", ev.Name), zap.String("op", ev.Op.String()))
			case werr, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("credentials watcher error", zap.Error(werr))
			}
		}
	}()

	logger.Debug("watching credentials file", zap.String("file", target))
	return done, nil
}
