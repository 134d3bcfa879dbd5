// Package ui renders install progress when the launcher runs attached to
// a terminal.
package ui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00D9FF"))

	spinnerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFA500"))

	bytesStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	doneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#0FD976"))

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// ProgressMsg carries a download progress update into the model.
type ProgressMsg struct {
	Downloaded int64
	Total      int64
}

// DoneMsg ends the program; a non-nil Err switches the final line to a
// failure marker.
type DoneMsg struct {
	Err error
}

type tickMsg time.Time

// Model is a single-line spinner with a byte counter, shown while a
// serve-d archive downloads and unpacks.
type Model struct {
	label      string
	frame      int
	downloaded int64
	total      int64
	done       bool
	err        error
}

// NewModel creates a progress model with the given status label.
func NewModel(label string) Model {
	return Model{label: label}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.frame = (m.frame + 1) % len(spinnerFrames)
		return m, tick()
	case ProgressMsg:
		m.downloaded = msg.Downloaded
		m.total = msg.Total
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.done {
		if m.err != nil {
			return failStyle.Render("✗ "+m.label) + "\n"
		}
		return doneStyle.Render("✓ "+m.label) + "\n"
	}

	line := spinnerStyle.Render(spinnerFrames[m.frame]) + " " + labelStyle.Render(m.label)
	if m.downloaded > 0 {
		line += " " + bytesStyle.Render(progressCounter(m.downloaded, m.total))
	}
	return line + "\n"
}

func tick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func progressCounter(downloaded, total int64) string {
	if total > 0 {
		return fmt.Sprintf("(%s / %s)", humanBytes(downloaded), humanBytes(total))
	}
	return fmt.Sprintf("(%s)", humanBytes(downloaded))
}

func humanBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
