package scanengine

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"

	krfs "github.com/kr/fs"

	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/filesystem"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

// visitor performs one depth-first traversal of a root, applying the job's
// filter set and pushing accepted files into the shared queue. The only
// blocking point is the queue put; cancellation is honored between node
// visits and while blocked on the queue.
type visitor struct {
	fsys     filesystem.FS
	root     string
	filters  *FilterSet
	maxDepth int

	queue   *pathqueue.Queue
	factory entry.Factory
	latch   *latch.SealableLatch
	monitor Monitor
	queued  *atomic.Int64
	log     *slog.Logger
}

// run walks the whole subtree. It returns nil after the full traversal, the
// context error on cancellation, or the first I/O error raised while listing
// a directory or reading attributes. Entries already enqueued stay in the
// queue either way.
func (v *visitor) run(ctx context.Context) error {
	walker := krfs.WalkFS(v.root, v.fsys)

	for walker.Step() {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := walker.Err(); err != nil {
			return fmt.Errorf("walk %s: %w", walker.Path(), err)
		}

		if err := v.visit(ctx, walker); err != nil {
			return err
		}
	}

	return nil
}

func (v *visitor) visit(ctx context.Context, walker *krfs.Walker) error {
	path := walker.Path()
	info := walker.Stat()
	depth := v.depth(path)

	if depth > v.maxDepth {
		if info.IsDir() {
			walker.SkipDir()
		}

		return nil
	}

	if v.filters.Excluded(path) {
		if info.IsDir() {
			walker.SkipDir()
		}

		return nil
	}

	if info.IsDir() {
		// The directory itself produces no entry. Its children sit one
		// level deeper; prune when they would exceed the limit.
		if depth+1 > v.maxDepth {
			walker.SkipDir()
		}

		return nil
	}

	// Unfollowed symlinks, sockets, devices and the like are never
	// reported.
	if !info.Mode().IsRegular() {
		return nil
	}

	if !v.filters.Included(path) {
		return nil
	}

	e, err := v.factory.Create(path)
	if err != nil {
		// Scoped to this path: report and move on.
		v.log.Warn("skipping unreadable entry", "path", path, "error", err)
		return nil
	}

	if err := v.queue.Put(ctx, e); err != nil {
		return err
	}

	v.queued.Add(1)

	if v.latch != nil {
		v.latch.Signal()
	}

	if v.monitor != nil {
		v.monitor.Notify(e)
	}

	return nil
}

// depth is the number of directory levels between the root and the node:
// direct children of the root are depth 0, so maxDepth 0 visits only the
// root's own listing. The root itself sits above the scale.
func (v *visitor) depth(path string) int {
	if path == v.root {
		return -1
	}

	sep := v.fsys.Separator()
	rel := strings.TrimPrefix(strings.TrimPrefix(path, v.root), sep)

	return strings.Count(rel, sep)
}
