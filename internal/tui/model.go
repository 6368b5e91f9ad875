// Package tui renders live scan progress: a spinner, running totals, and
// the most recently queued paths.
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// recentPathCount is how many recently queued paths stay on screen.
const recentPathCount = 5

// unexported styles.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	countStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	summaryStyle = lipgloss.NewStyle().Bold(true)
)

// Model is the bubble tea model for scan progress.
type Model struct {
	bridge  *MonitorBridge
	spinner spinner.Model
	roots   []string
	queued  int64
	recent  []string
	done    bool
	err     error
	width   int
}

// NewModel creates a progress model fed by bridge.
func NewModel(roots []string, bridge *MonitorBridge) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return Model{
		bridge:  bridge,
		spinner: s,
		roots:   roots,
	}
}

// Queued returns the number of entries seen so far (for testing).
func (m Model) Queued() int64 {
	return m.queued
}

// Err returns the terminal error, if any (for testing).
func (m Model) Err() error {
	return m.err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.bridge.ListenCmd())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}

		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width

		return m, nil

	case EntryQueuedMsg:
		m.queued++
		m.recent = append(m.recent, msg.Entry.Path)

		if len(m.recent) > recentPathCount {
			m.recent = m.recent[len(m.recent)-recentPathCount:]
		}

		return m, m.bridge.ListenCmd()

	case ScanDoneMsg:
		m.done = true
		m.err = msg.Err

		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)

		return m, cmd
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return errorStyle.Render("✗ scan failed: "+m.err.Error()) + "\n"
		}

		return summaryStyle.Render(fmt.Sprintf("✓ queued %d files", m.queued)) + "\n"
	}

	header := fmt.Sprintf("%s %s  %s files queued",
		m.spinner.View(),
		titleStyle.Render(fmt.Sprintf("scanning %d root(s)", len(m.roots))),
		countStyle.Render(fmt.Sprintf("%d", m.queued)),
	)

	view := header + "\n"
	for _, p := range m.recent {
		view += pathStyle.Render("  "+truncatePath(p, m.width)) + "\n"
	}

	return view
}

// truncatePath keeps the tail of long paths visible, which is the part that
// distinguishes them.
func truncatePath(path string, width int) string {
	if width <= 0 || len(path) <= width-4 {
		return path
	}

	keep := width - 7
	if keep < 1 {
		return "…"
	}

	return "…" + path[len(path)-keep:]
}
