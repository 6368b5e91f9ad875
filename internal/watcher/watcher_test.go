package watcher

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega"

	"github.com/joe/treescan/internal/scanengine"
	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/filesystem"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

func newTestWatcher(t *testing.T, dir string, filters *scanengine.FilterSet, opts ...Option) (*Watcher, *pathqueue.Queue) {
	t.Helper()

	queue, err := pathqueue.New(64)
	if err != nil {
		t.Fatal(err)
	}

	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts = append([]Option{
		WithLogger(quiet),
		WithDebounceDelay(10 * time.Millisecond),
	}, opts...)

	factory := entry.NewFSFactory(filesystem.Local(), false)

	w, err := New(dir, filters, factory, queue, opts...)
	if err != nil {
		t.Fatal(err)
	}

	t.Cleanup(func() { _ = w.Close() })

	return w, queue
}

func defaultFilters() *scanengine.FilterSet {
	filters := &scanengine.FilterSet{}
	filters.Exclude(scanengine.HiddenNameMatcher{})
	filters.Exclude(scanengine.SystemFileMatcher{})

	return filters
}

func TestWatcherQueuesNewFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	w, queue := newTestWatcher(t, dir, defaultFilters())

	path := filepath.Join(dir, "a.txt")
	g.Expect(os.WriteFile(path, []byte("x"), 0o644)).To(Succeed())

	g.Eventually(queue.Len, "5s").Should(Equal(1))

	e, ok := queue.TryTake()
	g.Expect(ok).To(BeTrue())
	g.Expect(e.Path).To(Equal(path))
	g.Expect(w.Queued()).To(Equal(int64(1)))
}

func TestWatcherCoalescesWriteBursts(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	_, queue := newTestWatcher(t, dir, defaultFilters())

	path := filepath.Join(dir, "burst.txt")
	for range 5 {
		g.Expect(os.WriteFile(path, []byte("more"), 0o644)).To(Succeed())
	}

	g.Eventually(queue.Len, "5s").Should(Equal(1))
	g.Consistently(queue.Len, "200ms").Should(Equal(1))
}

func TestWatcherFiltersHiddenAndSystemFiles(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	_, queue := newTestWatcher(t, dir, defaultFilters())

	g.Expect(os.WriteFile(filepath.Join(dir, ".hidden"), []byte("x"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "Thumbs.db"), []byte("x"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "seen.txt"), []byte("x"), 0o644)).To(Succeed())

	g.Eventually(queue.Len, "5s").Should(Equal(1))
	g.Consistently(queue.Len, "200ms").Should(Equal(1))

	e, ok := queue.TryTake()
	g.Expect(ok).To(BeTrue())
	g.Expect(filepath.Base(e.Path)).To(Equal("seen.txt"))
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	_, queue := newTestWatcher(t, dir, defaultFilters())

	sub := filepath.Join(dir, "sub")
	g.Expect(os.Mkdir(sub, 0o755)).To(Succeed())

	// Give the watch a moment to pick up the new directory before writing
	// into it.
	time.Sleep(200 * time.Millisecond)

	g.Expect(os.WriteFile(filepath.Join(sub, "b.txt"), []byte("x"), 0o644)).To(Succeed())

	g.Eventually(queue.Len, "5s").Should(Equal(1))
}

func TestWatcherSignalsLatch(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	l := latch.New()
	w, _ := newTestWatcher(t, dir, defaultFilters(), WithLatch(l))

	g.Expect(os.WriteFile(filepath.Join(dir, "a.txt"), []byte("x"), 0o644)).To(Succeed())

	g.Eventually(func() int64 { return w.Queued() }, "5s").Should(Equal(int64(1)))
	g.Expect(l.Await()).To(BeTrue())
}

func TestWatcherRespectsIncludePatterns(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	pdf, err := scanengine.NewGlobMatcher("**/*.pdf")
	if err != nil {
		t.Fatal(err)
	}

	filters := defaultFilters()
	filters.Include(pdf)

	dir := t.TempDir()
	_, queue := newTestWatcher(t, dir, filters)

	g.Expect(os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)).To(Succeed())
	g.Expect(os.WriteFile(filepath.Join(dir, "report.pdf"), []byte("x"), 0o644)).To(Succeed())

	g.Eventually(queue.Len, "5s").Should(Equal(1))
	g.Consistently(queue.Len, "200ms").Should(Equal(1))

	e, ok := queue.TryTake()
	g.Expect(ok).To(BeTrue())
	g.Expect(filepath.Base(e.Path)).To(Equal("report.pdf"))
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	dir := t.TempDir()
	w, _ := newTestWatcher(t, dir, defaultFilters())

	g.Expect(w.Close()).To(Succeed())
	g.Expect(w.Close()).To(Succeed())
}
