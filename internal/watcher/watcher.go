// Package watcher keeps a scanned tree current: after the initial traversal
// has drained, filesystem events for the same root are filtered exactly like
// scan results and queued through the same pipeline.
package watcher

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/joe/treescan/internal/scanengine"
	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

// DefaultDebounceDelay coalesces the create/write bursts editors and
// downloads produce for a single file.
const DefaultDebounceDelay = 100 * time.Millisecond

// Option configures a Watcher.
type Option func(*Watcher)

// WithLatch attaches a latch signalled once per queued entry.
func WithLatch(l *latch.SealableLatch) Option {
	return func(w *Watcher) { w.latch = l }
}

// WithMonitor attaches a progress monitor notified once per queued entry.
func WithMonitor(m scanengine.Monitor) Option {
	return func(w *Watcher) { w.monitor = m }
}

// WithLogger sets the watcher's logger.
func WithLogger(log *slog.Logger) Option {
	return func(w *Watcher) { w.log = log }
}

// WithDebounceDelay overrides the per-path event coalescing delay.
func WithDebounceDelay(delay time.Duration) Option {
	return func(w *Watcher) { w.debounceDelay = delay }
}

// Watcher watches a directory tree and queues entries for files that appear
// or change after the initial scan. Files are accepted or rejected by the
// same filter set a scan of the root would use, so watch mode never
// surfaces paths a rescan would hide.
type Watcher struct {
	watcher *fsnotify.Watcher
	root    string
	filters *scanengine.FilterSet
	factory entry.Factory
	queue   *pathqueue.Queue
	latch   *latch.SealableLatch
	monitor scanengine.Monitor
	log     *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	queued atomic.Int64

	mu            sync.Mutex
	debounceDelay time.Duration
	debounceMap   map[string]*time.Timer
	closed        bool
}

// New starts watching root recursively. Events are filtered, turned into
// entries by factory, and put on queue. Close releases the watch.
func New(
	root string,
	filters *scanengine.FilterSet,
	factory entry.Factory,
	queue *pathqueue.Queue,
	opts ...Option,
) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	w := &Watcher{
		watcher:       fsw,
		root:          filepath.Clean(root),
		filters:       filters,
		factory:       factory,
		queue:         queue,
		log:           slog.Default(),
		ctx:           ctx,
		cancel:        cancel,
		debounceDelay: DefaultDebounceDelay,
		debounceMap:   make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := w.addRecursive(w.root); err != nil {
		cancel()
		fsw.Close()

		return nil, err
	}

	go w.processEvents()

	return w, nil
}

// Root returns the directory being watched.
func (w *Watcher) Root() string {
	return w.root
}

// Queued returns the number of entries this watcher has queued so far.
func (w *Watcher) Queued() int64 {
	return w.queued.Load()
}

// Close stops the watcher and cancels pending debounce timers. Close is
// idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}

	w.closed = true

	for _, timer := range w.debounceMap {
		timer.Stop()
	}

	w.debounceMap = nil
	w.mu.Unlock()

	w.cancel()

	return w.watcher.Close()
}

// addRecursive adds dir and every non-excluded subdirectory to the watch.
// Excluded directories are pruned just like a scan prunes them.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}

			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != w.root && w.filters.Excluded(path) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			if os.IsPermission(err) {
				return nil
			}

			return err
		}

		return nil
	})
}

func (w *Watcher) processEvents() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}

			w.log.Warn("watch error", "path", w.root, "error", err)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	path := event.Name

	if w.filters.Excluded(path) {
		return
	}

	// New directories join the watch so files created inside them are seen.
	if event.Has(fsnotify.Create) {
		info, err := os.Stat(path)
		if err == nil && info.IsDir() {
			if err := w.addRecursive(path); err != nil {
				w.log.Warn("watch error", "path", path, "error", err)
			}

			return
		}
	}

	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// A download or editor save fires several events for one file; only the
	// last one within the delay window produces an entry.
	w.debounce(path)
}

func (w *Watcher) debounce(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return
	}

	if timer, exists := w.debounceMap[path]; exists {
		timer.Stop()
	}

	w.debounceMap[path] = time.AfterFunc(w.debounceDelay, func() {
		w.mu.Lock()
		delete(w.debounceMap, path)
		closed := w.closed
		w.mu.Unlock()

		if !closed {
			w.enqueue(path)
		}
	})
}

func (w *Watcher) enqueue(path string) {
	info, err := os.Lstat(path)
	if err != nil || !info.Mode().IsRegular() {
		return
	}

	if !w.filters.Accept(path) {
		return
	}

	e, err := w.factory.Create(path)
	if err != nil {
		w.log.Warn("skipping unreadable entry", "path", path, "error", err)

		return
	}

	if err := w.queue.Put(w.ctx, e); err != nil {
		return
	}

	w.queued.Add(1)

	if w.latch != nil {
		w.latch.Signal()
	}

	if w.monitor != nil {
		w.monitor.Notify(e)
	}
}
