package sourcemap

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"
)

// WatchOptions tunes the index freshness poller.
type WatchOptions struct {
	// Interval is the polling frequency. Default: 5s.
	Interval time.Duration
	// Debounce is the quiet period after a change before the rescan
	// fires; more changes during the window reset the timer. Default: 1s.
	Debounce time.Duration
	Logger   *slog.Logger
}

func (o *WatchOptions) defaults() {
	if o.Interval <= 0 {
		o.Interval = 5 * time.Second
	}
	if o.Debounce <= 0 {
		o.Debounce = time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Watcher keeps an IndexFinder fresh by polling the project tree for a
// version token (file count combined with the newest mtime) and
// rescanning after changes settle. Polling rather than inotify: dev
// servers rewrite large trees in bursts, and a debounced poll survives
// watch-descriptor exhaustion that kills inotify on big node projects.
type Watcher struct {
	finder *IndexFinder
	opts   WatchOptions

	version atomic.Int64
	scans   atomic.Int64
}

// NewWatcher creates a watcher for the finder's project root.
func NewWatcher(finder *IndexFinder, opts WatchOptions) *Watcher {
	opts.defaults()
	return &Watcher{finder: finder, opts: opts}
}

// Run polls until ctx is cancelled. An initial rescan fires immediately.
func (w *Watcher) Run(ctx context.Context) {
	if err := w.finder.Rescan(ctx); err != nil {
		w.opts.Logger.Warn("sourcemap: initial rescan", "error", err)
	}
	w.version.Store(w.token(ctx))

	ticker := time.NewTicker(w.opts.Interval)
	defer ticker.Stop()

	var debounce *time.Timer
	var debounceC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return

		case <-ticker.C:
			tok := w.token(ctx)
			if tok == w.version.Load() {
				continue
			}
			w.version.Store(tok)
			if debounce == nil {
				debounce = time.NewTimer(w.opts.Debounce)
				debounceC = debounce.C
			} else {
				debounce.Reset(w.opts.Debounce)
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil
			if err := w.finder.Rescan(ctx); err != nil {
				w.opts.Logger.Warn("sourcemap: rescan", "error", err)
				continue
			}
			w.scans.Add(1)
		}
	}
}

// Scans returns how many change-triggered rescans have completed.
func (w *Watcher) Scans() int64 { return w.scans.Load() }

// token derives a cheap change indicator from the tree: file count mixed
// with the maximum mtime. Collisions are possible but only delay a rescan
// by one change, never corrupt anything.
func (w *Watcher) token(ctx context.Context) int64 {
	var count, maxMtime int64
	_ = filepath.WalkDir(w.finder.root, func(p string, entry fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if entry.IsDir() {
			if skipDirs[entry.Name()] {
				return fs.SkipDir
			}
			return nil
		}
		count++
		if info, err := entry.Info(); err == nil {
			if m := info.ModTime().Unix(); m > maxMtime {
				maxMtime = m
			}
		}
		if count >= maxIndexFiles {
			return fs.SkipAll
		}
		return nil
	})
	return count<<32 ^ maxMtime
}
