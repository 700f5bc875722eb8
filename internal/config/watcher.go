package config

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler receives freshly loaded settings after the watched file
// changes.
type Handler func(Settings)

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithDebounce sets how long the watcher waits after the last write
// before reloading. Editors often write config files in several
// bursts; debouncing collapses them into one reload.
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithWatcherLogger sets the logger for reload diagnostics.
func WithWatcherLogger(logger *slog.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = logger
	}
}

// Watcher reloads a settings file when it changes on disk and passes
// the result to a handler. The containing directory is watched, not
// the file itself, so atomic rename-into-place saves are seen.
type Watcher struct {
	path     string
	handler  Handler
	debounce time.Duration
	logger   *slog.Logger

	fsw    *fsnotify.Watcher
	done   chan struct{}
	wg     sync.WaitGroup
	closed sync.Once
}

// NewWatcher starts watching path. The handler is called with the
// reloaded settings; a file that fails to load or validate is logged
// and skipped, keeping the previous settings in effect.
func NewWatcher(path string, handler Handler, opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		path:     abs,
		handler:  handler,
		debounce: 200 * time.Millisecond,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	w.fsw, err = fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := w.fsw.Add(filepath.Dir(abs)); err != nil {
		w.fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}

	w.wg.Add(1)
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer w.wg.Done()

	var timer *time.Timer
	var pending <-chan time.Time
	for {
		select {
		case <-w.done:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if event.Name != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			w.reload()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("config watch error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) reload() {
	settings, err := Load(w.path)
	if err != nil {
		w.logger.Warn("config reload skipped",
			slog.String("path", w.path), slog.Any("error", err))
		return
	}
	w.logger.Info("config reloaded", slog.String("path", w.path))
	w.handler(settings)
}

// Close stops the watcher. No handler calls happen after Close
// returns.
func (w *Watcher) Close() error {
	var err error
	w.closed.Do(func() {
		close(w.done)
		err = w.fsw.Close()
		w.wg.Wait()
	})
	return err
}
