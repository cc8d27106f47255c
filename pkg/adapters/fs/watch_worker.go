package fs

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/aretw0/lifecycle/pkg/core/worker"
	"github.com/bep/debounce"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/tickline/pkg/core"
)

// DebounceInterval coalesces bursts of writes (temp file, rename, chmod)
// into one event per cache entry.
const DebounceInterval = 50 * time.Millisecond

// Watch emits core.EventCacheChanged for cache entries whose base name
// matches pattern ("*" for everything). The channel is closed once ctx is
// done and the watcher has stopped.
func (r *Repository) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, &core.ValidationError{Field: "pattern", Reason: fmt.Sprintf("invalid glob %q", pattern)}
	}

	events := make(chan core.Event)
	w := newWatchWorker(r, pattern, events)
	if err := w.Start(ctx); err != nil {
		return nil, err
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err := w.Stop(stopCtx)
		close(events)
		return err
	}, lifecycle.WithErrorHandler(func(err error) {
		r.reportError(fmt.Errorf("stop watcher: %w", err))
	}))
	return events, nil
}

func (r *Repository) reportError(err error) {
	if r.config.ErrorHandler != nil {
		r.config.ErrorHandler(err)
		return
	}
	r.config.Logger.Error("watcher failure", "error", err)
}

type watchWorker struct {
	*worker.BaseWorker
	repo    *Repository
	pattern string
	events  chan<- core.Event
	watcher *fsnotify.Watcher
	cancel  context.CancelFunc

	debounced func(func())
	pendingMu sync.Mutex
	pending   map[string]struct{}
	closed    bool
}

func newWatchWorker(repo *Repository, pattern string, events chan<- core.Event) *watchWorker {
	return &watchWorker{
		BaseWorker: worker.NewBaseWorker("cache-watcher"),
		repo:       repo,
		pattern:    pattern,
		events:     events,
		pending:    make(map[string]struct{}),
	}
}

func (w *watchWorker) Start(ctx context.Context) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	status := w.State().Status
	if status != worker.StatusCreated && status != worker.StatusPending {
		return fmt.Errorf("watcher already started (status: %s)", status)
	}

	if err := w.repo.ensureCacheDir(); err != nil {
		return err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(w.repo.CacheDir()); err != nil {
		_ = watcher.Close()
		return core.IOError("watch cache directory", err)
	}

	w.watcher = watcher
	w.debounced = debounce.New(DebounceInterval)
	w.repo.setWatcherActive(true)

	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.SetStatus(worker.StatusRunning)
	return w.StartFunc(runCtx, w.run)
}

func (w *watchWorker) Stop(ctx context.Context) error {
	if w.cancel != nil {
		w.StopRequested = true
		w.cancel()
	}

	return w.BaseWorker.Stop(ctx)
}

func (w *watchWorker) State() worker.State {
	return w.ExportState(func(s *worker.State) {
		s.Metadata = map[string]string{
			worker.MetadataType: string(worker.TypeGoroutine),
		}
	})
}

// accept filters out temp files, staging directories and entries outside
// the pattern.
func (w *watchWorker) accept(event fsnotify.Event) bool {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, TempFilePrefix) {
		return false
	}
	if event.Op == fsnotify.Chmod {
		return false
	}
	ok, err := doublestar.Match(w.pattern, name)
	return err == nil && ok
}

// enqueue records the entry and (re)arms the debouncer. When it fires, every
// entry touched during the burst is flushed once, in name order.
func (w *watchWorker) enqueue(ctx context.Context, name string) {
	w.pendingMu.Lock()
	w.pending[name] = struct{}{}
	w.pendingMu.Unlock()

	w.debounced(func() { w.flush(ctx) })
}

func (w *watchWorker) flush(ctx context.Context) {
	w.pendingMu.Lock()
	if w.closed {
		w.pendingMu.Unlock()
		return
	}
	names := make([]string, 0, len(w.pending))
	for name := range w.pending {
		names = append(names, name)
	}
	w.pending = make(map[string]struct{})
	w.pendingMu.Unlock()

	sort.Strings(names)
	for _, name := range names {
		w.send(ctx, core.Event{
			Type:      core.EventCacheChanged,
			ID:        name,
			Timestamp: time.Now().Unix(),
		})
	}
}

// send delivers an event, protecting against channel closure during shutdown.
func (w *watchWorker) send(ctx context.Context, e core.Event) {
	defer func() {
		// Recover from panic if channel was closed (worker stopping)
		_ = recover()
	}()
	select {
	case w.events <- e:
	case <-ctx.Done():
	}
}

// run is the main event loop for the watcher worker.
func (w *watchWorker) run(ctx context.Context) (err error) {
	logger := w.repo.config.Logger
	defer func() {
		if recovered := recover(); recovered != nil {
			panicErr := fmt.Errorf("watcher panic: %v", recovered)
			if logger.Enabled(ctx, slog.LevelDebug) {
				logger.Error("watcher panic", "error", panicErr, "stack", string(debug.Stack()))
			} else {
				logger.Error("watcher panic", "error", panicErr)
			}
			err = panicErr
		}
	}()
	defer w.repo.setWatcherActive(false)
	defer w.watcher.Close()
	defer func() {
		w.pendingMu.Lock()
		w.closed = true
		w.pendingMu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			logger.Debug("event received", "name", event.Name, "op", event.Op.String())
			if w.accept(event) {
				w.enqueue(ctx, filepath.Base(event.Name))
			}

		case wErr, ok := <-w.watcher.Errors:
			if !ok {
				if w.StopRequested || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.repo.reportError(wErr)
		}
	}
}
