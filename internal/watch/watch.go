// Package watch reports changes to documentation trees.
// Bursts of file events are coalesced into one callback after a quiet period.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before a change is reported.
const DefaultDebounce = 100 * time.Millisecond

// DefaultExtensions are the file extensions that trigger a change.
var DefaultExtensions = []string{".md", ".markdown", ".html", ".htm", ".star", ".yaml", ".yml"}

// Config configures a Watcher.
type Config struct {
	// Dirs are watched recursively. Missing directories are skipped with a warning.
	Dirs []string
	// Extensions filters events by file extension. Empty uses DefaultExtensions.
	Extensions []string
	// Debounce is the quiet period. Zero uses DefaultDebounce.
	Debounce time.Duration
	Logger   *slog.Logger
}

// Watcher watches directory trees for document changes.
type Watcher struct {
	cfg    Config
	logger *slog.Logger
}

// New creates a Watcher.
func New(cfg Config) *Watcher {
	if len(cfg.Extensions) == 0 {
		cfg.Extensions = DefaultExtensions
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Watcher{cfg: cfg, logger: logger}
}

// Run watches until ctx is done. After each burst of relevant events it calls
// onChange with the sorted, de-duplicated paths that changed. Calls never
// overlap; events arriving during a call are reported by the next one.
func (w *Watcher) Run(ctx context.Context, onChange func(ctx context.Context, changed []string)) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	for _, dir := range w.cfg.Dirs {
		if err := watchDirRecursive(fsw, dir); err != nil {
			w.logger.Warn("failed to watch directory", "dir", dir, "error", err)
		}
	}

	b := newBatcher(w.cfg.Debounce, func(changed []string) {
		if ctx.Err() != nil {
			return
		}
		w.logger.Debug("documents changed", "files", changed)
		onChange(ctx, changed)
	})
	defer b.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watchDirRecursive(fsw, event.Name); err != nil {
						w.logger.Warn("failed to watch new directory", "dir", event.Name, "error", err)
					}
					continue
				}
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if !w.relevant(event.Name) {
				continue
			}

			b.add(event.Name)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return slices.Contains(w.cfg.Extensions, ext)
}

// watchDirRecursive adds a directory and all subdirectories to the watcher.
// Hidden directories are skipped.
func watchDirRecursive(fsw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}

// batcher coalesces paths until no new path arrives for delay, then fires
// once with the sorted batch. Fires never overlap and none starts after stop.
type batcher struct {
	delay time.Duration
	fire  func(changed []string)

	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	done    bool

	running sync.Mutex
}

func newBatcher(delay time.Duration, fire func(changed []string)) *batcher {
	return &batcher{delay: delay, fire: fire, pending: make(map[string]struct{})}
}

func (b *batcher) add(name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.done {
		return
	}
	b.pending[name] = struct{}{}
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.delay, b.flush)
}

func (b *batcher) flush() {
	b.running.Lock()
	defer b.running.Unlock()

	b.mu.Lock()
	if b.done {
		b.mu.Unlock()
		return
	}
	changed := make([]string, 0, len(b.pending))
	for p := range b.pending {
		changed = append(changed, p)
	}
	clear(b.pending)
	b.mu.Unlock()

	if len(changed) == 0 {
		return
	}
	slices.Sort(changed)
	b.fire(changed)
}

// stop cancels any scheduled fire and waits for an in-flight one.
func (b *batcher) stop() {
	b.mu.Lock()
	b.done = true
	if b.timer != nil {
		b.timer.Stop()
	}
	b.mu.Unlock()

	b.running.Lock()
	b.running.Unlock() //nolint:staticcheck // SA2001: barrier
}
