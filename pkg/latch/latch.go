// Package latch provides a sealable latch for producer/consumer completion
// signaling.
//
// A SealableLatch counts outstanding wake-up signals from producers. Once the
// orchestrator knows that no producer will ever signal again, it seals the
// latch; consumers blocked in Await are released and can distinguish
// "temporarily empty" from "finished forever."
package latch

import "sync"

// SealableLatch is a counting signal with an irreversible terminal state.
// The zero value is not usable; construct with New.
type SealableLatch struct {
	mu     sync.Mutex
	cond   *sync.Cond
	count  int64
	sealed bool
}

// New returns an open latch with no pending signals.
func New() *SealableLatch {
	l := &SealableLatch{}
	l.cond = sync.NewCond(&l.mu)

	return l
}

// Signal registers one wake-up and releases a single waiter.
// Signals sent after Seal are discarded.
func (l *SealableLatch) Signal() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.sealed {
		return
	}

	l.count++
	l.cond.Signal()
}

// Await blocks until a signal is available or the latch is sealed with no
// signals left. It consumes one signal and returns true, or returns false
// when the latch is sealed and drained - the actual termination condition.
func (l *SealableLatch) Await() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for l.count == 0 && !l.sealed {
		l.cond.Wait()
	}

	if l.count > 0 {
		l.count--
		return true
	}

	return false
}

// Seal marks the latch as finished: no more signals will ever arrive.
// Sealing is irreversible and wakes every waiter.
func (l *SealableLatch) Seal() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.sealed = true
	l.cond.Broadcast()
}

// Sealed reports whether the latch has been sealed.
func (l *SealableLatch) Sealed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.sealed
}
