package latch_test

import (
	"sync"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/treescan/pkg/latch"
)

// TestLatch_SignalThenAwait verifies that a pending signal is consumed
// without blocking.
func TestLatch_SignalThenAwait(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	l := latch.New()
	l.Signal()
	l.Signal()

	g.Expect(l.Await()).To(BeTrue())
	g.Expect(l.Await()).To(BeTrue())
}

// TestLatch_AwaitBlocksUntilSignal verifies that Await blocks while the latch
// is open and empty, and wakes when a signal arrives.
func TestLatch_AwaitBlocksUntilSignal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	l := latch.New()
	got := make(chan bool, 1)

	go func() {
		got <- l.Await()
	}()

	// The waiter should still be blocked.
	g.Consistently(got, 50*time.Millisecond).ShouldNot(Receive())

	l.Signal()
	g.Eventually(got).Should(Receive(BeTrue()))
}

// TestLatch_SealReleasesWaiters verifies that sealing wakes all waiters with
// the termination result.
func TestLatch_SealReleasesWaiters(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	l := latch.New()
	results := make(chan bool, 3)

	for range 3 {
		go func() {
			results <- l.Await()
		}()
	}

	l.Seal()

	for range 3 {
		g.Eventually(results).Should(Receive(BeFalse()))
	}
	g.Expect(l.Sealed()).To(BeTrue())
}

// TestLatch_PendingSignalsSurviveSeal verifies that signals sent before
// sealing are still consumable afterwards, and only then does Await report
// termination.
func TestLatch_PendingSignalsSurviveSeal(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	l := latch.New()
	l.Signal()
	l.Signal()
	l.Seal()

	g.Expect(l.Await()).To(BeTrue())
	g.Expect(l.Await()).To(BeTrue())
	g.Expect(l.Await()).To(BeFalse())
}

// TestLatch_SignalAfterSealIsDiscarded verifies the seal is terminal.
func TestLatch_SignalAfterSealIsDiscarded(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	l := latch.New()
	l.Seal()
	l.Signal()

	g.Expect(l.Await()).To(BeFalse())
}

// TestLatch_ConcurrentProducersAndConsumers verifies every signal is consumed
// exactly once under concurrency.
func TestLatch_ConcurrentProducersAndConsumers(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	const (
		producers  = 4
		perProduce = 250
	)

	l := latch.New()

	var produced sync.WaitGroup
	for range producers {
		produced.Add(1)
		go func() {
			defer produced.Done()
			for range perProduce {
				l.Signal()
			}
		}()
	}

	consumed := make(chan int, 1)
	go func() {
		n := 0
		for l.Await() {
			n++
		}
		consumed <- n
	}()

	produced.Wait()
	l.Seal()

	g.Eventually(consumed).Should(Receive(Equal(producers * perProduce)))
}
