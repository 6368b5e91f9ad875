package scanengine

import (
	"context"
	"sync"
	"time"
)

// Job is the cancellable, awaitable handle returned by Scan. It reaches
// exactly one terminal state: completed with the root path, failed with a
// cause, or cancelled.
type Job struct {
	root   string
	snap   settings
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	mu     sync.Mutex
	result string
	err    error
}

func newJob(root string, snap settings) *Job {
	ctx, cancel := context.WithCancel(context.Background())

	return &Job{
		root:   root,
		snap:   snap,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}
}

// Root returns the root path this job scans.
func (j *Job) Root() string {
	return j.root
}

// Cancel requests cancellation. A job that has not started never runs; a
// running job stops between node visits. Cancel after completion is a no-op.
func (j *Job) Cancel() {
	j.cancel()
}

// Done returns a channel closed when the job reaches a terminal state.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Result blocks until the job completes and returns the scanned root path,
// or the failure cause, or ErrScanCancelled.
func (j *Job) Result() (string, error) {
	return j.Wait(0)
}

// Wait is Result with a timeout; a non-positive timeout waits forever.
// ErrAwaitTimeout reports that the job is still pending, not a job failure.
func (j *Job) Wait(timeout time.Duration) (string, error) {
	if timeout > 0 {
		select {
		case <-j.done:
		case <-time.After(timeout):
			return "", ErrAwaitTimeout
		}
	} else {
		<-j.done
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	return j.result, j.err
}

// finish records the terminal state. Called exactly once, by the worker.
func (j *Job) finish(result string, err error) {
	j.mu.Lock()
	j.result = result
	j.err = err
	j.mu.Unlock()

	close(j.done)
	j.cancel()
}

// jobQueue is the unbounded submission queue feeding the single worker.
// Pushing never blocks; the worker drains strictly in submission order.
type jobQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	jobs   []*Job
	closed bool
}

func newJobQueue() *jobQueue {
	q := &jobQueue{}
	q.cond = sync.NewCond(&q.mu)

	return q
}

// push appends a job. It reports false once the queue is closed.
func (q *jobQueue) push(j *Job) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.jobs = append(q.jobs, j)
	q.cond.Signal()

	return true
}

// pop blocks for the next job; remaining jobs are still drained after close.
// Returns false when the queue is closed and empty.
func (q *jobQueue) pop() (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.jobs) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.jobs) == 0 {
		return nil, false
	}

	j := q.jobs[0]
	q.jobs = q.jobs[1:]

	return j, true
}

func (q *jobQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	q.closed = true
	q.cond.Broadcast()
}

// pendingJobs tracks submitted-but-unfinished jobs so AwaitTermination can
// block until the scanner goes idle.
type pendingJobs struct {
	mu   sync.Mutex
	n    int
	idle chan struct{}
}

func newPendingJobs() *pendingJobs {
	idle := make(chan struct{})
	close(idle)

	return &pendingJobs{idle: idle}
}

func (p *pendingJobs) add() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.n++
	if p.n == 1 {
		p.idle = make(chan struct{})
	}
}

func (p *pendingJobs) done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.n--
	if p.n == 0 {
		close(p.idle)
	}
}

// idleCh returns a channel closed while no jobs are pending.
func (p *pendingJobs) idleCh() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.idle
}
