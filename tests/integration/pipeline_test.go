//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/gomega" //nolint:revive // Dot import is idiomatic for Gomega matchers

	"github.com/joe/treescan/internal/scanengine"
	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/filesystem"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

// TestIntegration_ScanToConsumer runs the full pipeline: scanner, bounded
// queue, latch-driven consumer. The queue is deliberately smaller than the
// tree so backpressure is exercised.
func TestIntegration_ScanToConsumer(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	for i := range 50 {
		name := filepath.Join(dir, fmt.Sprintf("file%02d.txt", i))
		g.Expect(os.WriteFile(name, []byte("x"), 0o644)).To(Succeed())
	}

	queue, err := pathqueue.New(8)
	g.Expect(err).NotTo(HaveOccurred())

	pending := latch.New()
	factory := entry.NewFSFactory(filesystem.Local(), false)

	scanner := scanengine.New(factory, queue, scanengine.WithLatch(pending))
	defer scanner.Close()

	var consumed []string

	done := make(chan struct{})

	go func() {
		defer close(done)

		for pending.Await() {
			e, err := queue.Take(context.Background())
			if err != nil {
				return
			}

			consumed = append(consumed, e.Path)
		}
	}()

	_, err = scanner.Scan(dir).Wait(30 * time.Second)
	g.Expect(err).NotTo(HaveOccurred())

	pending.Seal()

	g.Eventually(done, "10s").Should(BeClosed())
	g.Expect(consumed).To(HaveLen(50))
	g.Expect(scanner.Queued()).To(Equal(int64(50)))
}

// TestIntegration_ContentTypeDetection verifies MIME sniffing survives the
// whole pipeline.
func TestIntegration_ContentTypeDetection(t *testing.T) {
	g := NewWithT(t)

	dir := t.TempDir()
	g.Expect(os.WriteFile(filepath.Join(dir, "page.html"), []byte("<html><body>hi</body></html>"), 0o644)).To(Succeed())

	queue, err := pathqueue.New(4)
	g.Expect(err).NotTo(HaveOccurred())

	factory := entry.NewFSFactory(filesystem.Local(), true)

	scanner := scanengine.New(factory, queue)
	defer scanner.Close()

	_, err = scanner.Scan(dir).Wait(30 * time.Second)
	g.Expect(err).NotTo(HaveOccurred())

	e, ok := queue.TryTake()
	g.Expect(ok).To(BeTrue())
	g.Expect(e.ContentType).To(HavePrefix("text/html"))
}
