// Package main is the entry point for the treescan application.
package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term" //nolint:depguard // Required for TTY detection

	"github.com/joe/treescan/internal/config"
	"github.com/joe/treescan/internal/scanengine"
	"github.com/joe/treescan/internal/tui"
	"github.com/joe/treescan/internal/watcher"
	"github.com/joe/treescan/pkg/entry"
	"github.com/joe/treescan/pkg/errors"
	"github.com/joe/treescan/pkg/filesystem"
	"github.com/joe/treescan/pkg/latch"
	"github.com/joe/treescan/pkg/pathqueue"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		enriched := errors.NewEnricher().Enrich(err, "")
		fmt.Fprintf(os.Stderr, "Error: %v\n", enriched)

		if suggestions := errors.FormatSuggestions(enriched); suggestions != "" {
			fmt.Fprintf(os.Stderr, "Try these solutions:\n%s\n", suggestions)
		}

		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	log := newLogger(cfg)

	queue, err := pathqueue.New(cfg.QueueSize)
	if err != nil {
		return err
	}

	pending := latch.New()
	factory := entry.NewFSFactory(filesystem.Local(), cfg.DetectTypes)

	// Watch mode streams indefinitely, which rules out the progress screen.
	interactive := !cfg.Plain && !cfg.Watch && term.IsTerminal(int(os.Stdout.Fd()))

	opts := []scanengine.Option{
		scanengine.WithLatch(pending),
		scanengine.WithLogger(log),
	}

	var bridge *tui.MonitorBridge
	if interactive {
		bridge = tui.NewMonitorBridge()
		opts = append(opts, scanengine.WithMonitor(bridge))
	}

	scanner := scanengine.New(factory, queue, opts...)
	defer scanner.Close()

	if _, err := scanner.Configure(cfg.ScannerOptions()); err != nil {
		return err
	}

	// One signal per entry: the consumer exits exactly when the latch is
	// sealed and every queued entry has been taken.
	consumed := make(chan struct{})

	go func() {
		defer close(consumed)

		for pending.Await() {
			e, err := queue.Take(context.Background())
			if err != nil {
				return
			}

			if !interactive {
				fmt.Println(e.Path)
			}
		}
	}()

	jobs := scanner.ScanAll(cfg.Roots)

	if interactive {
		if err := runProgress(cfg, scanner, bridge); err != nil {
			return err
		}

		// The TUI may quit before the scans do. Cancelling a finished job
		// is a no-op.
		for _, j := range jobs {
			j.Cancel()
		}

		if err := scanner.AwaitTermination(0); err != nil {
			return err
		}
	} else if err := scanner.AwaitTermination(0); err != nil {
		return err
	}

	if cfg.Watch {
		if err := watch(cfg, scanner, pending, factory, queue, log); err != nil {
			return err
		}
	}

	pending.Seal()
	<-consumed

	return firstFailure(jobs)
}

// runProgress drives the TUI while a background goroutine waits for the
// scans to finish.
func runProgress(cfg *config.Config, scanner *scanengine.Scanner, bridge *tui.MonitorBridge) error {
	go func() {
		err := scanner.AwaitTermination(0)
		bridge.Done(err)
	}()

	p := tea.NewProgram(tui.NewModel(cfg.Roots, bridge))

	_, err := p.Run()
	bridge.Close()

	return err
}

// watch keeps feeding newly created files from every local root until
// interrupted.
func watch(
	cfg *config.Config,
	scanner *scanengine.Scanner,
	pending *latch.SealableLatch,
	factory entry.Factory,
	queue *pathqueue.Queue,
	log *slog.Logger,
) error {
	filters := scanner.Filters(filesystem.Local())

	var watchers []*watcher.Watcher

	for _, root := range cfg.Roots {
		parsed, err := filesystem.ParsePath(root)
		if err != nil {
			return err
		}

		if parsed.IsRemote {
			log.Warn("watch mode skips remote roots", "root", root)

			continue
		}

		w, err := watcher.New(parsed.LocalPath, filters, factory, queue,
			watcher.WithLatch(pending),
			watcher.WithLogger(log),
		)
		if err != nil {
			return err
		}

		watchers = append(watchers, w)
		log.Info("watching", "root", parsed.LocalPath)
	}

	defer func() {
		for _, w := range watchers {
			_ = w.Close()
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	return nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// firstFailure reports the first job that failed. Cancelled jobs are not
// failures; the user asked for them to stop.
func firstFailure(jobs []*scanengine.Job) error {
	for _, j := range jobs {
		_, err := j.Result()
		if err != nil && !stderrors.Is(err, scanengine.ErrScanCancelled) {
			return fmt.Errorf("scan %s: %w", j.Root(), err)
		}
	}

	return nil
}
