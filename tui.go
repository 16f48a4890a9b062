package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"hark/log"
	"hark/orchestrator"
)

// TUI message types
type statusMsg struct {
	mode   orchestrator.Mode
	status orchestrator.Status
}
type usageMsg struct{ usage orchestrator.Usage }
type sentenceMsg struct{ text string }
type tickMsg time.Time

const maxReplyLines = 6

type uiInfo struct {
	engine     string
	device     string
	transcribe string
	assist     string
}

type tuiModel struct {
	info          uiInfo
	width, height int

	mode     orchestrator.Mode
	status   orchestrator.Status
	since    time.Time
	now      time.Time
	sessions int
	last     *orchestrator.Usage
	reply    []string
}

var (
	recStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	procStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	idleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	helpStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	boldHelp   = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	replyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	panelStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("238")).Padding(0, 1)
)

func tuiTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		}

	case tickMsg:
		m.now = time.Time(msg)
		return m, tuiTick()

	case statusMsg:
		if msg.status == orchestrator.Recording {
			m.since = time.Now()
			if msg.mode == orchestrator.Assistant {
				m.reply = nil
			}
		}
		m.mode, m.status = msg.mode, msg.status

	case usageMsg:
		if msg.usage.Outcome != orchestrator.OutcomeStartFailed {
			m.sessions++
		}
		u := msg.usage
		m.last = &u

	case sentenceMsg:
		m.reply = append(m.reply, msg.text)
		if len(m.reply) > maxReplyLines {
			m.reply = m.reply[len(m.reply)-maxReplyLines:]
		}
	}
	return m, nil
}

func (m tuiModel) statusLine() string {
	switch m.status {
	case orchestrator.Recording:
		elapsed := m.now.Sub(m.since)
		if elapsed < 0 {
			elapsed = 0
		}
		return recStyle.Render(fmt.Sprintf("● REC %s %.1fs", m.mode, elapsed.Seconds()))
	case orchestrator.Processing:
		return procStyle.Render("◌ " + m.mode.String() + ": processing")
	}
	return idleStyle.Render("○ STANDBY")
}

func (m tuiModel) lastLine() string {
	if m.last == nil {
		return idleStyle.Render("No sessions yet")
	}
	u := m.last
	head := fmt.Sprintf("#%d %s: %s", m.sessions, u.Mode, u.Outcome)
	switch u.Outcome {
	case orchestrator.OutcomeInjected, orchestrator.OutcomeAssistant:
		return okStyle.Render(head) + dimStyle.Render(fmt.Sprintf("  %d words, %.1fs audio",
			u.CleanedWords, u.Duration.Seconds()))
	case orchestrator.OutcomeBlank:
		return warnStyle.Render(head + " (no speech detected)")
	}
	line := warnStyle.Render(head)
	if u.Err != nil {
		line += dimStyle.Render("  " + u.Err.Error())
	}
	return line
}

func (m tuiModel) View() string {
	if m.width == 0 {
		return "Loading..."
	}
	wrap := m.width - 6
	if wrap < 20 {
		wrap = 20
	}

	lines := []string{
		m.statusLine(),
		dimStyle.Render(fmt.Sprintf("[%s | mic: %s]", m.info.engine, m.info.device)),
		"",
		m.lastLine(),
	}
	if len(m.reply) > 0 {
		lines = append(lines, "")
		for _, l := range wrapText(strings.Join(m.reply, " "), wrap) {
			lines = append(lines, replyStyle.Render(l))
		}
	}
	lines = append(lines, "",
		boldHelp.Render(m.info.transcribe)+helpStyle.Render(" to dictate  ")+
			boldHelp.Render(m.info.assist)+helpStyle.Render(" to ask"),
		helpStyle.Render("hark "+version+"  (q to quit)"),
	)
	return panelStyle.Width(m.width - 2).Render(strings.Join(lines, "\n"))
}

func wrapText(text string, width int) []string {
	if len(text) == 0 {
		return []string{""}
	}
	if width <= 0 {
		width = 1
	}

	var lines []string
	for len(text) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if text[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, text[:splitAt])
		text = strings.TrimLeft(text[splitAt:], " ")
	}
	if len(text) > 0 {
		lines = append(lines, text)
	}
	return lines
}

// tuiUI feeds orchestrator events into a Bubble Tea program. It is an
// orchestrator.Observer; a nil *tuiUI means the terminal UI is off.
type tuiUI struct {
	program *tea.Program
}

func newUI(enabled bool, info uiInfo) *tuiUI {
	if !enabled {
		return nil
	}
	return &tuiUI{program: tea.NewProgram(tuiModel{info: info}, tea.WithAltScreen())}
}

// run blocks until the program exits and then calls stop, so quitting the
// UI shuts hark down.
func (u *tuiUI) run(stop func()) {
	if _, err := u.program.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
	}
	stop()
}

func (u *tuiUI) quit() { u.program.Quit() }

func (u *tuiUI) StatusChanged(mode orchestrator.Mode, status orchestrator.Status) {
	u.program.Send(statusMsg{mode: mode, status: status})
}

func (u *tuiUI) SessionUsage(usage orchestrator.Usage) {
	u.program.Send(usageMsg{usage: usage})
}

func (u *tuiUI) sentence(s string) {
	u.program.Send(sentenceMsg{text: s})
}
