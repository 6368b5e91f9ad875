// Package scanengine implements asynchronous, filtered directory-tree
// scanning into a bounded queue.
//
// Each call to Scan puts a traversal job on an unbounded queue and executes
// it in serial on a single worker. This makes sense as it is usually the
// filesystem which is the bottleneck and not the CPU, so parallelizing one
// scanner's traversals would only contend the same disk. Scan itself is
// non-blocking, which allows producer-consumer setups where files are
// processed as they are discovered.
//
// Accepted files are put in the target queue synchronously: when the queue
// is bounded, only as space becomes available. The queue should be bounded
// to keep memory flat under a slow consumer, with enough capacity to form a
// useful buffer.
//
// A Scanner is safe for concurrent use.
package scanengine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joe/treescan/internal/config"
	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/filesystem"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

// UnlimitedDepth is the default recursion limit.
const UnlimitedDepth = math.MaxInt

var (
	ErrScanCancelled = errors.New("scan cancelled")
	ErrAwaitTimeout  = errors.New("timed out awaiting scan completion")
	ErrScannerClosed = errors.New("scanner closed")
	ErrInvalidDepth  = errors.New("max depth must be zero or positive")
)

// Monitor receives one notification per queued entry. Notify is
// fire-and-forget: implementations must not block, or they stall the
// traversal.
type Monitor interface {
	Notify(e *entry.Entry)
}

// settings is the filter configuration snapshot captured per job at
// submission time, so reconfiguring the scanner never races a running job.
type settings struct {
	includes     []PathMatcher
	excludes     []PathMatcher
	ignoreHidden bool
	ignoreSystem bool
	follow       bool
	maxDepth     int
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithLatch attaches a latch signalled once per queued entry. The scanner
// never seals it; sealing is the orchestrator's responsibility.
func WithLatch(l *latch.SealableLatch) Option {
	return func(s *Scanner) { s.latch = l }
}

// WithMonitor attaches a progress monitor notified once per queued entry.
func WithMonitor(m Monitor) Option {
	return func(s *Scanner) { s.monitor = m }
}

// WithLogger sets the scanner's logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Scanner) { s.log = log }
}

// WithFS pins every scan to one filesystem instead of resolving each root
// (useful for tests and for scanners dedicated to an open SFTP connection).
func WithFS(fsys filesystem.FS) Option {
	return func(s *Scanner) { s.fsys = fsys }
}

// Scanner schedules directory-tree scans. All results go straight to the
// shared bounded queue from a single worker goroutine.
type Scanner struct {
	factory entry.Factory
	queue   *pathqueue.Queue
	latch   *latch.SealableLatch
	monitor Monitor
	log     *slog.Logger
	fsys    filesystem.FS

	mu           sync.Mutex
	includes     []PathMatcher
	excludes     []PathMatcher
	ignoreHidden bool
	ignoreSystem bool
	follow       bool
	maxDepth     int

	jobs      *jobQueue
	pending   *pendingJobs
	total     atomic.Int64
	closeOnce sync.Once
}

// New creates a Scanner feeding queue through factory and starts its worker.
// By default hidden files and OS-generated files are ignored, symlinks are
// not followed, and depth is unbounded.
func New(factory entry.Factory, queue *pathqueue.Queue, opts ...Option) *Scanner {
	s := &Scanner{
		factory:      factory,
		queue:        queue,
		log:          slog.Default(),
		ignoreHidden: true,
		ignoreSystem: true,
		maxDepth:     UnlimitedDepth,
		jobs:         newJobQueue(),
		pending:      newPendingJobs(),
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.work()

	return s
}

// Configure applies a set of named options. Unknown names are ignored;
// malformed values are configuration errors raised here, never deferred to
// scan time. Options left unset keep their previous values. Returns the
// scanner for chaining.
func (s *Scanner) Configure(opts *config.Options) (*Scanner, error) {
	if v, ok := opts.Get(config.OptIncludeHiddenFiles); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", config.OptIncludeHiddenFiles, err)
		}

		s.SetIgnoreHiddenFiles(!b)
	}

	if v, ok := opts.Get(config.OptIncludeOSFiles); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", config.OptIncludeOSFiles, err)
		}

		s.SetIgnoreSystemFiles(!b)
	}

	if v, ok := opts.Get(config.OptFollowSymlinks); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", config.OptFollowSymlinks, err)
		}

		s.SetFollowSymlinks(b)
	}

	if v, ok := opts.Get(config.OptMaxDepth); ok {
		d, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("option %s: %w", config.OptMaxDepth, err)
		}

		if d < 0 {
			return nil, fmt.Errorf("option %s: %w", config.OptMaxDepth, ErrInvalidDepth)
		}

		s.SetMaxDepth(d)
	}

	for _, p := range opts.Values(config.OptIncludePattern) {
		if err := s.Include(p); err != nil {
			return nil, err
		}
	}

	for _, p := range opts.Values(config.OptExcludePattern) {
		if err := s.Exclude(p); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Include adds a glob pattern for matching files. Once any include pattern
// is set, files matching none of them are ignored; directories are still
// descended into.
func (s *Scanner) Include(pattern string) error {
	m, err := NewGlobMatcher(pattern)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.includes = append(s.includes, m)

	return nil
}

// Exclude adds a glob pattern for excluding files and directories.
// An excluded directory is pruned from recursion entirely.
func (s *Scanner) Exclude(pattern string) error {
	m, err := NewGlobMatcher(pattern)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.excludes = append(s.excludes, m)

	return nil
}

// SetFollowSymlinks sets whether symlinks are followed during traversal.
func (s *Scanner) SetFollowSymlinks(follow bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.follow = follow
}

// FollowSymlinks reports whether symlinks will be followed.
func (s *Scanner) FollowSymlinks() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.follow
}

// SetIgnoreHiddenFiles sets whether hidden files are ignored. Dotfile names
// are always checked when ignoring; the DOS hidden attribute is checked only
// on filesystems that support it, which keeps behavior predictable across
// mounted foreign volumes.
func (s *Scanner) SetIgnoreHiddenFiles(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ignoreHidden = ignore
}

// IgnoreHiddenFiles reports whether hidden files will be ignored.
func (s *Scanner) IgnoreHiddenFiles() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ignoreHidden
}

// SetIgnoreSystemFiles sets whether OS-generated files are ignored.
func (s *Scanner) SetIgnoreSystemFiles(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ignoreSystem = ignore
}

// IgnoreSystemFiles reports whether OS-generated files will be ignored.
func (s *Scanner) IgnoreSystemFiles() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ignoreSystem
}

// SetMaxDepth limits recursion: depth 0 scans only the root's own listing.
// Negative values mean unbounded.
func (s *Scanner) SetMaxDepth(depth int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if depth < 0 {
		depth = UnlimitedDepth
	}

	s.maxDepth = depth
}

// MaxDepth returns the current recursion limit.
func (s *Scanner) MaxDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.maxDepth
}

// Latch returns the attached latch, or nil.
func (s *Scanner) Latch() *latch.SealableLatch {
	return s.latch
}

// Queued returns the total number of entries queued over the lifetime of
// this scanner. Safe to call while a job is running.
func (s *Scanner) Queued() int64 {
	return s.total.Load()
}

// Scan queues a traversal of root and returns its handle immediately.
// The handle can be awaited with a timeout or cancelled. The filter
// configuration is snapshotted now; later reconfiguration does not affect
// this job.
func (s *Scanner) Scan(root string) *Job {
	j := newJob(root, s.snapshot())

	s.log.Info("queuing scan", "path", root)
	s.pending.add()

	if !s.jobs.push(j) {
		s.pending.done()
		j.finish("", ErrScannerClosed)
	}

	return j
}

// ScanAll queues one job per root, in order. The single worker still runs
// them strictly sequentially, so two roots' traversals never interleave.
func (s *Scanner) ScanAll(roots []string) []*Job {
	jobs := make([]*Job, 0, len(roots))
	for _, root := range roots {
		jobs = append(jobs, s.Scan(root))
	}

	return jobs
}

// AwaitTermination blocks until every submitted job has reached a terminal
// state, or the timeout elapses. A non-positive timeout waits forever.
func (s *Scanner) AwaitTermination(timeout time.Duration) error {
	idle := s.pending.idleCh()

	if timeout > 0 {
		select {
		case <-idle:
			return nil
		case <-time.After(timeout):
			return ErrAwaitTimeout
		}
	}

	<-idle

	return nil
}

// Close stops accepting new scans and shuts the worker down after the jobs
// already queued have run. Close is idempotent.
func (s *Scanner) Close() {
	s.closeOnce.Do(s.jobs.close)
}

// Filters builds the filter set current settings would give a job on fsys.
// Exposed so auxiliary feeders (the watch mode) classify paths exactly like
// a scan would.
func (s *Scanner) Filters(fsys filesystem.FS) *FilterSet {
	return buildFilters(s.snapshot(), fsys)
}

func (s *Scanner) snapshot() settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := settings{
		includes:     make([]PathMatcher, len(s.includes)),
		excludes:     make([]PathMatcher, len(s.excludes)),
		ignoreHidden: s.ignoreHidden,
		ignoreSystem: s.ignoreSystem,
		follow:       s.follow,
		maxDepth:     s.maxDepth,
	}
	copy(snap.includes, s.includes)
	copy(snap.excludes, s.excludes)

	return snap
}

// buildFilters derives a job's matchers from its settings snapshot. Dotfile
// names are always excluded when hiding; the attribute matcher is added only
// if the target filesystem reports support, so hidden-file behavior stays
// consistent regardless of which filesystem is scanned.
func buildFilters(snap settings, fsys filesystem.FS) *FilterSet {
	filters := &FilterSet{}

	if snap.ignoreHidden {
		filters.Exclude(HiddenNameMatcher{})

		if fsys.SupportsHiddenAttribute() {
			filters.Exclude(NewHiddenAttributeMatcher(fsys))
		}
	}

	if snap.ignoreSystem {
		filters.Exclude(SystemFileMatcher{})
	}

	for _, m := range snap.excludes {
		filters.Exclude(m)
	}

	for _, m := range snap.includes {
		filters.Include(m)
	}

	return filters
}

// work is the single worker loop: jobs run one at a time, in submission
// order. A failed job never takes the worker down with it.
func (s *Scanner) work() {
	for {
		j, ok := s.jobs.pop()
		if !ok {
			return
		}

		s.runJob(j)
	}
}

func (s *Scanner) runJob(j *Job) {
	defer s.pending.done()

	if j.ctx.Err() != nil {
		s.log.Info("scan cancelled before start", "path", j.root)
		j.finish("", ErrScanCancelled)

		return
	}

	fsys, path, closer, err := s.resolve(j.root)
	if err != nil {
		s.log.Error("scan failed", "path", j.root, "error", err)
		j.finish("", err)

		return
	}

	if closer != nil {
		defer closer()
	}

	if j.snap.follow {
		fsys = filesystem.Follow(fsys)
	}

	// The factory stats through whichever filesystem this job resolved to.
	factory := s.factory
	if rebinder, ok := factory.(entry.Rebinder); ok {
		factory = rebinder.ForFS(fsys)
	}

	v := &visitor{
		fsys:     fsys,
		root:     path,
		filters:  buildFilters(j.snap, fsys),
		maxDepth: j.snap.maxDepth,
		queue:    s.queue,
		factory:  factory,
		latch:    s.latch,
		monitor:  s.monitor,
		queued:   &s.total,
		log:      s.log,
	}

	start := time.Now()

	switch err := v.run(j.ctx); {
	case errors.Is(err, context.Canceled):
		s.log.Info("scan cancelled", "path", j.root)
		j.finish("", ErrScanCancelled)
	case err != nil:
		s.log.Error("scan failed", "path", j.root, "error", err)
		j.finish("", err)
	default:
		s.log.Info("scan complete", "path", j.root, "duration", time.Since(start))
		j.finish(j.root, nil)
	}
}

// resolve picks the filesystem for a root: the pinned one if set, otherwise
// local paths and sftp:// URLs are resolved per job, so a slow connection
// never blocks Scan itself.
func (s *Scanner) resolve(root string) (filesystem.FS, string, func(), error) {
	if s.fsys != nil {
		return s.fsys, root, nil, nil
	}

	return filesystem.Resolve(root)
}
