package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yungbote/regdraft-backend/internal/streamclient"
)

const (
	tailLines    = 12
	maxBarWidth  = 72
	viewPaddingX = 2
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	textStyle    = lipgloss.NewStyle().PaddingLeft(1).BorderStyle(lipgloss.NormalBorder()).BorderLeft(true).BorderForeground(lipgloss.Color("238"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	warnStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	errStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	containerPad = lipgloss.NewStyle().Padding(1, viewPaddingX)
)

// stream is the slice of *streamclient.Consumer the view needs.
type stream interface {
	Snapshot() streamclient.Snapshot
	Cancel()
}

// snapshotMsg carries the consumer state read after a wake.
type snapshotMsg streamclient.Snapshot

type model struct {
	run          stream
	wake         <-chan struct{}
	submissionID string

	snap    streamclient.Snapshot
	spinner spinner.Model
	bar     progress.Model
}

func newModel(r stream, wake <-chan struct{}, submissionID string) model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = titleStyle
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(40))
	return model{
		run:          r,
		wake:         wake,
		submissionID: submissionID,
		snap:         r.Snapshot(),
		spinner:      s,
		bar:          bar,
	}
}

// waitForChange blocks until the consumer signals a change, then reads the
// latest snapshot. Coalesced wakes only ever skip intermediate states.
func waitForChange(r stream, wake <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		<-wake
		return snapshotMsg(r.Snapshot())
	}
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForChange(m.run, m.wake))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.run.Cancel()
			m.snap = m.run.Snapshot()
			if m.snap.State.Terminal() {
				return m, tea.Quit
			}
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.bar.Width = min(max(msg.Width-2*viewPaddingX, 10), maxBarWidth)
		return m, nil

	case snapshotMsg:
		m.snap = streamclient.Snapshot(msg)
		if m.snap.State.Terminal() {
			return m, tea.Quit
		}
		return m, waitForChange(m.run, m.wake)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Draft generation"))
	b.WriteString(mutedStyle.Render("  " + m.submissionID))
	b.WriteString("\n\n")

	switch m.snap.State {
	case streamclient.StateCompleted:
		b.WriteString(okStyle.Render("✓ completed"))
	case streamclient.StateError:
		b.WriteString(errStyle.Render("✗ " + errorText(m.snap)))
	case streamclient.StateCancelled:
		b.WriteString(warnStyle.Render("cancelled"))
	default:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(statusLine(m.snap))
	}
	b.WriteString("\n")
	b.WriteString(m.bar.ViewAs(float64(m.snap.Percent) / 100))
	b.WriteString("\n")

	if summary := complianceLine(m.snap); summary != "" {
		b.WriteString("\n")
		b.WriteString(summary)
		b.WriteString("\n")
	}
	if tail := textTail(m.snap.Text, tailLines); tail != "" {
		b.WriteString("\n")
		b.WriteString(textStyle.Render(tail))
		b.WriteString("\n")
	}
	if !m.snap.State.Terminal() {
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("q to cancel"))
	}
	return containerPad.Render(b.String())
}

func statusLine(s streamclient.Snapshot) string {
	if s.Message != "" {
		return s.Message
	}
	return string(s.State)
}

func errorText(s streamclient.Snapshot) string {
	switch {
	case s.Message != "":
		return s.Message
	case s.Err != nil:
		return s.Err.Error()
	}
	return "generation failed"
}

func complianceLine(s streamclient.Snapshot) string {
	if s.ComplianceScore == nil {
		return ""
	}
	line := fmt.Sprintf("compliance score %d/100", *s.ComplianceScore)
	if s.Compliant == nil {
		return line
	}
	if *s.Compliant {
		return okStyle.Render(line + " · compliant")
	}
	return warnStyle.Render(line + " · below threshold")
}

// textTail returns the last n lines of the draft so far.
func textTail(text string, n int) string {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
