// Package batch discovers media files and transcribes them with a bounded
// number of concurrent jobs. A failing file is recorded and never stops its
// siblings.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/xifan2333/subcue/internal/pipeline"
	"github.com/xifan2333/subcue/pkgs/caption"
)

// Transcriber processes a single media file.
type Transcriber interface {
	Transcribe(ctx context.Context, mediaPath string) (pipeline.Outcome, error)
}

// Status is the result of one file in a batch.
type Status string

const (
	StatusDone    Status = "done"
	StatusCached  Status = "cached"
	StatusSkipped Status = "skipped"
	StatusLocked  Status = "locked"
	StatusFailed  Status = "failed"
)

// Item is one file of a batch.
type Item struct {
	Media    string
	Status   Status
	Output   string
	Captions int
	Elapsed  time.Duration
	Err      error
}

// Summary collects the items of a run in discovery order.
type Summary struct {
	Items []Item
}

// Count returns how many items ended with status.
func (s *Summary) Count(status Status) int {
	n := 0
	for _, item := range s.Items {
		if item.Status == status {
			n++
		}
	}
	return n
}

// Err joins every item failure, or returns nil.
func (s *Summary) Err() error {
	var errs []error
	for _, item := range s.Items {
		if item.Status == StatusFailed {
			errs = append(errs, fmt.Errorf("%s: %w", item.Media, item.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner transcribes discovered media.
type Runner struct {
	Transcriber Transcriber
	// Workers bounds concurrent jobs. Values below one mean one.
	Workers int
	// IsMedia selects files to transcribe.
	IsMedia func(path string) bool
	// Force transcribes files whose caption file already exists.
	Force bool
}

// Discover walks roots and returns the media files in lexical order. Files
// named explicitly are filtered the same way as files found in directories.
// Missing roots are reported after the walk; the files that were found are
// still returned.
func Discover(roots []string, isMedia func(string) bool) ([]string, error) {
	var (
		found []string
		errs  []error
		seen  = make(map[string]struct{})
	)
	add := func(path string) {
		if isMedia != nil && !isMedia(path) {
			return
		}
		if _, ok := seen[path]; ok {
			return
		}
		seen[path] = struct{}{}
		found = append(found, path)
	}

	for _, root := range roots {
		info, err := os.Stat(root)
		if err != nil {
			errs = append(errs, fmt.Errorf("media path %s: %w", root, err))
			continue
		}
		if !info.IsDir() {
			add(filepath.Clean(root))
			continue
		}
		err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				return nil
			}
			if d.Name() == ".DS_Store" {
				return nil
			}
			add(path)
			return nil
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("walk %s: %w", root, err))
		}
	}
	sort.Strings(found)
	return found, errors.Join(errs...)
}

// Run discovers media under roots and transcribes every file that has no
// caption file yet. The returned error covers discovery only; per-file
// failures are in the summary.
func (r *Runner) Run(ctx context.Context, roots []string) (*Summary, error) {
	paths, discoverErr := Discover(roots, r.IsMedia)
	summary := r.Process(ctx, paths)
	return summary, discoverErr
}

// Process transcribes paths with at most Workers jobs in flight.
func (r *Runner) Process(ctx context.Context, paths []string) *Summary {
	logger := zerolog.Ctx(ctx)
	summary := &Summary{Items: make([]Item, len(paths))}

	workers := r.Workers
	if workers < 1 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	var mu sync.Mutex
	for i, path := range paths {
		g.Go(func() error {
			item := r.processOne(gctx, path)
			mu.Lock()
			summary.Items[i] = item
			mu.Unlock()

			event := logger.Info()
			if item.Status == StatusFailed {
				event = logger.Error().Err(item.Err)
			}
			event.Str("media", path).Str("status", string(item.Status)).Msg("media processed")
			return nil
		})
	}
	_ = g.Wait()
	return summary
}

// processOne holds an exclusive lock on the media file for the duration of
// the job, so two processes never transcribe the same file.
func (r *Runner) processOne(ctx context.Context, path string) Item {
	item := Item{Media: path, Output: caption.OutputPath(path, ".json")}
	if err := ctx.Err(); err != nil {
		item.Status = StatusFailed
		item.Err = err
		return item
	}
	if !r.Force {
		if _, err := os.Stat(item.Output); err == nil {
			item.Status = StatusSkipped
			return item
		}
	}

	lockPath := path + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		item.Status = StatusFailed
		item.Err = fmt.Errorf("acquire lock: %w", err)
		return item
	}
	if !ok {
		item.Status = StatusLocked
		return item
	}
	defer func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}()

	outcome, err := r.Transcriber.Transcribe(ctx, path)
	item.Elapsed = outcome.Elapsed
	if err != nil {
		item.Status = StatusFailed
		item.Err = err
		return item
	}
	item.Output = outcome.Output
	item.Captions = outcome.Captions
	item.Status = StatusDone
	if outcome.Cached {
		item.Status = StatusCached
	}
	return item
}
