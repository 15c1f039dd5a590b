package bounds

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settleDelay lets an editor or deploy finish writing before we reread.
const settleDelay = 500 * time.Millisecond

// Watch reloads the cache whenever the dataset file changes, until ctx is
// done. The parent directory is watched so that atomic replace-by-rename is
// seen too.
func (c *Cache) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create bounds watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(c.path)
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	c.logger.Info("watching bounds dataset", "path", target)

	timer := time.NewTimer(settleDelay)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c.logger.Debug("bounds dataset changed", "op", event.Op.String())
			timer.Reset(settleDelay)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Warn("bounds watcher error", "error", err)

		case <-timer.C:
			if err := c.Reload(); err != nil {
				c.logger.Warn("bounds reload after file change failed", "error", err)
			}
		}
	}
}
