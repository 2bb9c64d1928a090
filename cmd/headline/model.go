package main

import (
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Zachkp/portfolio/internal/typewriter"
)

const blinkInterval = 530 * time.Millisecond

var (
	colorAccent = lipgloss.Color("#7D56F4")
	colorGray   = lipgloss.Color("#6C6C6C")

	titleStyle    = lipgloss.NewStyle().Foreground(colorGray).Italic(true)
	headlineStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	cursorStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	phaseStyle    = lipgloss.NewStyle().Foreground(colorGray)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray).Faint(true)
)

// frameMsg carries an engine snapshot into the program.
type frameMsg typewriter.State

type blinkMsg struct{}

func blink() tea.Cmd {
	return tea.Tick(blinkInterval, func(time.Time) tea.Msg {
		return blinkMsg{}
	})
}

type previewModel struct {
	name     string
	state    typewriter.State
	once     bool
	cursorOn bool
	width    int
	height   int
}

func newPreviewModel(name string, initial typewriter.State, once bool) previewModel {
	return previewModel{name: name, state: initial, once: once, cursorOn: true}
}

func (m previewModel) Init() tea.Cmd {
	return blink()
}

func (m previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case frameMsg:
		m.state = typewriter.State(msg)
		if m.once && m.state.Phase == typewriter.Terminal {
			return m, tea.Quit
		}
	case blinkMsg:
		m.cursorOn = !m.cursorOn
		return m, blink()
	}
	return m, nil
}

func (m previewModel) View() string {
	cursor := " "
	if m.cursorOn && m.state.Phase != typewriter.Terminal {
		cursor = cursorStyle.Render("▌")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("headline: " + m.name))
	b.WriteString("\n\n")
	b.WriteString(headlineStyle.Render(m.state.Text) + cursor)
	b.WriteString("\n\n")
	b.WriteString(phaseStyle.Render(m.state.Phase.String()))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q to quit"))

	if m.width == 0 || m.height == 0 {
		return b.String() + "\n"
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
