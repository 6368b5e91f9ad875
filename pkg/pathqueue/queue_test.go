package pathqueue_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/pathqueue"
)

func TestQueue_RejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, err := pathqueue.New(0)
	g.Expect(err).To(MatchError(pathqueue.ErrInvalidCapacity))

	_, err = pathqueue.New(-3)
	g.Expect(err).To(MatchError(pathqueue.ErrInvalidCapacity))
}

func TestQueue_PutTakeOrder(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q, err := pathqueue.New(4)
	g.Expect(err).ShouldNot(HaveOccurred())

	ctx := context.Background()
	paths := []string{"a.txt", "b.txt", "c.txt"}
	for _, p := range paths {
		g.Expect(q.Put(ctx, &entry.Entry{Path: p})).To(Succeed())
	}

	g.Expect(q.Len()).To(Equal(3))
	g.Expect(q.Cap()).To(Equal(4))

	for _, p := range paths {
		e, err := q.Take(ctx)
		g.Expect(err).ShouldNot(HaveOccurred())
		g.Expect(e.Path).To(Equal(p))
	}
}

// TestQueue_PutBlocksWhenFull verifies the backpressure contract: a producer
// stays blocked until a consumer frees capacity.
func TestQueue_PutBlocksWhenFull(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q, err := pathqueue.New(1)
	g.Expect(err).ShouldNot(HaveOccurred())

	ctx := context.Background()
	g.Expect(q.Put(ctx, &entry.Entry{Path: "first"})).To(Succeed())

	done := make(chan error, 1)
	go func() {
		done <- q.Put(ctx, &entry.Entry{Path: "second"})
	}()

	g.Consistently(done, 50*time.Millisecond).ShouldNot(Receive())

	e, err := q.Take(ctx)
	g.Expect(err).ShouldNot(HaveOccurred())
	g.Expect(e.Path).To(Equal("first"))

	g.Eventually(done).Should(Receive(Succeed()))
}

// TestQueue_PutCancelled verifies a blocked producer is released by context
// cancellation and the queue never exceeds capacity.
func TestQueue_PutCancelled(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q, err := pathqueue.New(1)
	g.Expect(err).ShouldNot(HaveOccurred())

	g.Expect(q.Put(context.Background(), &entry.Entry{Path: "only"})).To(Succeed())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- q.Put(ctx, &entry.Entry{Path: "blocked"})
	}()

	cancel()
	g.Eventually(done).Should(Receive(MatchError(context.Canceled)))
	g.Expect(q.Len()).To(Equal(1))
}

func TestQueue_TryTake(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	q, err := pathqueue.New(2)
	g.Expect(err).ShouldNot(HaveOccurred())

	_, ok := q.TryTake()
	g.Expect(ok).To(BeFalse())

	g.Expect(q.Put(context.Background(), &entry.Entry{Path: "x"})).To(Succeed())

	e, ok := q.TryTake()
	g.Expect(ok).To(BeTrue())
	g.Expect(e.Path).To(Equal("x"))
}
