// Package ui renders the conversation in the terminal and turns key presses
// into controller commands.
package ui

import (
	"fmt"
	"strings"

	"audible-assistant/conversation"
	"audible-assistant/text_to_speech"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const levelWidth = 32

// Controller is the part of the conversation machine the UI drives.
type Controller interface {
	StartCapture()
	FinishCapture()
	Cancel()
	SelectVoice(v text_to_speech.Voice)
	Snapshot() conversation.Snapshot
	Updates() <-chan conversation.Snapshot
}

type snapshotMsg conversation.Snapshot

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	replyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	badgeStyle  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("0"))

	modeColors = map[conversation.Mode]lipgloss.Color{
		conversation.ModeIdle:       lipgloss.Color("250"),
		conversation.ModeRecording:  lipgloss.Color("9"),
		conversation.ModeProcessing: lipgloss.Color("11"),
		conversation.ModePlaying:    lipgloss.Color("10"),
		conversation.ModeError:      lipgloss.Color("13"),
	}
)

type Model struct {
	ctrl     Controller
	snapshot conversation.Snapshot
	viewport viewport.Model
	ready    bool
}

func New(ctrl Controller) Model {
	return Model{
		ctrl:     ctrl,
		snapshot: ctrl.Snapshot(),
	}
}

func (m Model) Init() tea.Cmd {
	return waitForSnapshot(m.ctrl.Updates())
}

func waitForSnapshot(updates <-chan conversation.Snapshot) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}

		return snapshotMsg(s)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)

	case tea.WindowSizeMsg:
		headerHeight := lipgloss.Height(m.headerView())
		footerHeight := lipgloss.Height(m.footerView())

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-headerHeight-footerHeight)
			m.viewport.YPosition = headerHeight
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}

		m.refresh()

	case snapshotMsg:
		m.snapshot = conversation.Snapshot(msg)
		m.refresh()

		return m, waitForSnapshot(m.ctrl.Updates())
	}

	return m, nil
}

// handleKey maps a key to a controller command. Commands run off the update
// loop and their effect arrives as the next snapshot.
func (m Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	ctrl := m.ctrl
	s := m.snapshot

	switch {
	case key.Matches(msg, keys.Quit):
		return tea.Quit
	case key.Matches(msg, keys.Talk):
		switch {
		case s.CanStart():
			return run(ctrl.StartCapture)
		case s.Mode == conversation.ModeRecording:
			return run(ctrl.FinishCapture)
		}
	case key.Matches(msg, keys.Cancel):
		if s.Mode != conversation.ModeIdle {
			return run(ctrl.Cancel)
		}
	case key.Matches(msg, keys.Voice):
		// The voice only changes between turns.
		if s.Idle() {
			next := s.Voice.Next()
			return run(func() { ctrl.SelectVoice(next) })
		}
	}

	return nil
}

func run(fn func()) tea.Cmd {
	return func() tea.Msg {
		fn()
		return nil
	}
}

func (m *Model) refresh() {
	if !m.ready {
		return
	}

	m.viewport.SetContent(m.transcriptView())
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	body := m.transcriptView()
	if m.ready {
		body = m.viewport.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left, m.headerView(), body, m.footerView())
}

func (m Model) headerView() string {
	s := m.snapshot

	badge := badgeStyle.Background(modeColors[s.Mode]).Render(strings.ToUpper(s.Mode.String()))
	title := titleStyle.Render("audible assistant")
	voice := dimStyle.Render("voice: " + string(s.Voice))

	lines := []string{
		lipgloss.JoinHorizontal(lipgloss.Center, title, " ", badge, " ", voice),
		levelBar(s.Level),
	}

	if s.Mode == conversation.ModeError && s.Error != "" {
		lines = append(lines, errorStyle.Render(s.Error))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...) + "\n"
}

func (m Model) transcriptView() string {
	if len(m.snapshot.Transcript) == 0 {
		return dimStyle.Render("Press space and start talking.")
	}

	var b strings.Builder

	for _, e := range m.snapshot.Transcript {
		b.WriteString(promptStyle.Render("you: "+e.Prompt) + "\n")

		if e.Replied {
			b.WriteString(replyStyle.Render("assistant: "+e.Reply) + "\n")
		} else {
			b.WriteString(dimStyle.Render("assistant: ...") + "\n")
		}

		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) footerView() string {
	var help []string

	for _, b := range keys.bindings() {
		h := b.Help()
		help = append(help, fmt.Sprintf("%s %s", h.Key, h.Desc))
	}

	return "\n" + dimStyle.Render(strings.Join(help, " • "))
}

func levelBar(level float64) string {
	filled := int(level*levelWidth + 0.5)
	if filled < 0 {
		filled = 0
	}

	if filled > levelWidth {
		filled = levelWidth
	}

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", levelWidth-filled) + "]"
}
