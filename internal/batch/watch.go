package batch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

// DefaultSettle is how long a new file must stay unchanged before it is
// picked up.
const DefaultSettle = 2 * time.Second

// Watch transcribes media files that appear under dir until ctx is done.
// Subdirectories are watched as well, including ones created or moved in
// later; media already inside such a directory is scheduled too. A file
// is processed once no write has been seen for settle, so copies in progress
// are not uploaded half-written. onItem, when set, sees every processed item.
func (r *Runner) Watch(ctx context.Context, dir string, settle time.Duration, onItem func(Item)) error {
	logger := zerolog.Ctx(ctx)
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := addTree(watcher, dir); err != nil {
		return err
	}
	logger.Info().Str("dir", dir).Msg("watching for media")

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(settle / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := addTree(watcher, event.Name); err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("watch subdirectory failed")
					}
					// A directory moved in whole brings files that never fire Create.
					existing, err := Discover([]string{event.Name}, r.IsMedia)
					if err != nil {
						logger.Warn().Err(err).Str("dir", event.Name).Msg("scan subdirectory failed")
					}
					for _, path := range existing {
						pending[path] = time.Now()
					}
					continue
				}
			}
			if r.IsMedia != nil && !r.IsMedia(event.Name) {
				continue
			}
			pending[event.Name] = time.Now()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case now := <-ticker.C:
			var ready []string
			for path, last := range pending {
				if now.Sub(last) >= settle {
					ready = append(ready, path)
					delete(pending, path)
				}
			}
			if len(ready) == 0 {
				continue
			}
			summary := r.Process(ctx, ready)
			if onItem != nil {
				for _, item := range summary.Items {
					onItem(item)
				}
			}
		}
	}
}

// addTree watches dir and every directory below it.
func addTree(watcher *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := watcher.Add(path); err != nil {
			return fmt.Errorf("watch dir %q: %w", path, err)
		}
		return nil
	})
}
