// Package watch rebuilds on source changes and, optionally, on a fixed interval.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/docpartials/internal/logfields"
)

// DefaultDebounce is used when Options.Debounce is zero.
const DefaultDebounce = 300 * time.Millisecond

// BuildFunc runs one complete build.
type BuildFunc func(ctx context.Context) error

// Options configures a Watcher.
type Options struct {
	// Root is watched recursively.
	Root string
	// Ignore lists directories whose events never trigger a rebuild,
	// typically the output directory.
	Ignore []string
	// Debounce delays a rebuild until events settle.
	Debounce time.Duration
	// Every schedules additional rebuilds; zero disables them.
	Every  time.Duration
	Logger *slog.Logger
}

// Watcher serializes rebuilds triggered by file events and the scheduler.
type Watcher struct {
	opts   Options
	build  BuildFunc
	logger *slog.Logger

	requests chan struct{}

	mu    sync.Mutex
	timer *time.Timer
}

// New creates a watcher that calls build for every rebuild.
func New(opts Options, build BuildFunc) *Watcher {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	ignore := make([]string, 0, len(opts.Ignore))
	for _, dir := range opts.Ignore {
		if abs, err := filepath.Abs(dir); err == nil {
			ignore = append(ignore, abs)
		}
	}
	opts.Ignore = ignore
	return &Watcher{
		opts:     opts,
		build:    build,
		logger:   opts.Logger,
		requests: make(chan struct{}, 1),
	}
}

// Run builds once and then rebuilds on change until ctx is canceled.
// Requests arriving while a build runs collapse into a single follow-up build.
func (w *Watcher) Run(ctx context.Context) error {
	root, err := filepath.Abs(w.opts.Root)
	if err != nil {
		return fmt.Errorf("resolve watch root: %w", err)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	defer func() { _ = fsw.Close() }()
	if err := w.addDirsRecursive(fsw, root); err != nil {
		return err
	}

	if w.opts.Every > 0 {
		scheduler, err := w.schedule()
		if err != nil {
			return err
		}
		defer func() {
			if err := scheduler.Shutdown(); err != nil {
				w.logger.Warn("Scheduler shutdown failed", logfields.Error(err))
			}
		}()
	}

	w.logger.Info("Watching for changes",
		slog.String("root", root),
		slog.Duration("debounce", w.opts.Debounce),
		slog.Duration("every", w.opts.Every))

	done := make(chan struct{})
	go func() {
		defer close(done)
		w.rebuild(ctx)
		for {
			select {
			case <-ctx.Done():
				return
			case <-w.requests:
				w.rebuild(ctx)
			}
		}
	}()

	defer func() {
		w.mu.Lock()
		if w.timer != nil {
			w.timer.Stop()
		}
		w.mu.Unlock()
		<-done
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handleEvent(fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Watcher error", logfields.Error(err))
		}
	}
}

func (w *Watcher) schedule() (gocron.Scheduler, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	_, err = s.NewJob(
		gocron.DurationJob(w.opts.Every),
		gocron.NewTask(w.request),
		gocron.WithName("periodic-rebuild"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create periodic rebuild job: %w", err)
	}
	s.Start()
	return s, nil
}

func (w *Watcher) handleEvent(fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if w.ignored(ev.Name) || shouldIgnoreEvent(ev.Name) {
		return
	}
	if ev.Op&fsnotify.Create == fsnotify.Create {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			_ = w.addDirsRecursive(fsw, ev.Name)
		}
	}
	w.logger.Debug("File change detected", slog.String("path", ev.Name), slog.String("op", ev.Op.String()))
	w.trigger()
}

// trigger (re)starts the debounce timer.
func (w *Watcher) trigger() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.opts.Debounce, w.request)
}

func (w *Watcher) request() {
	select {
	case w.requests <- struct{}{}:
	default:
	}
}

func (w *Watcher) rebuild(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := w.build(ctx); err != nil {
		w.logger.Warn("Rebuild failed", logfields.Error(err))
	}
}

func (w *Watcher) addDirsRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("watch %s: %w", root, err)
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && (w.ignored(path) || strings.HasPrefix(d.Name(), ".")) {
			return filepath.SkipDir
		}
		if err := fsw.Add(path); err != nil {
			w.logger.Warn("watch add failed", slog.String("dir", path), logfields.Error(err))
		}
		return nil
	})
}

func (w *Watcher) ignored(path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	for _, dir := range w.opts.Ignore {
		if abs == dir || strings.HasPrefix(abs, dir+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// shouldIgnoreEvent filters hidden, editor swap and OS metadata files.
func shouldIgnoreEvent(path string) bool {
	base := filepath.Base(path)
	switch {
	case strings.HasPrefix(base, "."):
		return true
	case strings.HasSuffix(base, "~"), strings.HasSuffix(base, ".swp"), strings.HasSuffix(base, ".swx"):
		return true
	case strings.HasPrefix(base, "#") && strings.HasSuffix(base, "#"):
		return true
	case base == "Thumbs.db":
		return true
	}
	return false
}
