package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/joe/treescan/pkg/entry"
)

// EntryQueuedMsg reports one entry accepted by the scan.
type EntryQueuedMsg struct {
	Entry *entry.Entry
}

// ScanDoneMsg reports that every submitted scan has terminated.
type ScanDoneMsg struct {
	Err error
}

// MonitorBridge adapts scan progress notifications to bubble tea messages.
// It implements scanengine.Monitor and provides a channel for TUI
// consumption. Notify and Done run on the scan side while Close runs on the
// UI side, so the closed check and the send hold the same lock.
type MonitorBridge struct {
	mu        sync.Mutex
	eventChan chan tea.Msg
	closed    bool
}

// NewMonitorBridge creates a new monitor bridge.
func NewMonitorBridge() *MonitorBridge {
	return &MonitorBridge{
		eventChan: make(chan tea.Msg, 100), // Buffer to prevent blocking the scan worker
	}
}

// Notify implements scanengine.Monitor. It wraps the entry in EntryQueuedMsg
// and sends to the channel without ever blocking the traversal.
func (b *MonitorBridge) Notify(e *entry.Entry) {
	b.send(EntryQueuedMsg{Entry: e})
}

// Done signals that all scans have terminated. Like Notify it never blocks:
// the TUI may already have quit with a full buffer.
func (b *MonitorBridge) Done(err error) {
	b.send(ScanDoneMsg{Err: err})
}

func (b *MonitorBridge) send(msg tea.Msg) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}

	select {
	case b.eventChan <- msg:
	default:
		// Channel full, message dropped
	}
}

// ListenCmd returns a tea.Cmd that blocks until a message is received.
// Use this in Init() or after processing a message to continue listening.
func (b *MonitorBridge) ListenCmd() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-b.eventChan
		if !ok {
			return nil // Channel closed
		}

		return msg
	}
}

// Close closes the event channel. Call this when done with the bridge;
// notifications arriving afterwards are discarded.
func (b *MonitorBridge) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.closed {
		b.closed = true
		close(b.eventChan)
	}
}
