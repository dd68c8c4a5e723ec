//go:build !gui

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/metcalfc/filetext/internal/state"
)

var (
	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Padding(0, 1)

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666")).
			Italic(true)

	percentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)
)

// Status line on top, controls on the bottom.
const chromeHeight = 2

type model struct {
	doc      *document
	viewport viewport.Model
	lines    int // rendered line count at the current width
	ready    bool
	quitting bool
}

func newModel(doc *document) model {
	return model{doc: doc}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "Q", "esc", "ctrl+c":
			m.doc.saveLine(m.viewport.YOffset, m.lines)
			m.quitting = true
			return m, tea.Quit

		case "g", "home":
			m.viewport.GotoTop()
			return m, nil

		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil

		case "r", "R":
			m.doc.clearLine()
			m.viewport.GotoTop()
			return m, nil
		}

	case tea.WindowSizeMsg:
		height := msg.Height - chromeHeight
		if height < 1 {
			height = 1
		}
		content := wrapText(m.doc.text, msg.Width)
		lines := strings.Count(content, "\n") + 1
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(content)
			m.viewport.SetYOffset(m.doc.savedLine(lines))
			m.ready = true
		} else {
			// Keep the same relative place after re-wrapping.
			offset := state.ViewState{Line: m.viewport.YOffset, Lines: m.lines}.Offset(lines)
			m.viewport.Width = msg.Width
			m.viewport.Height = height
			m.viewport.SetContent(content)
			m.viewport.SetYOffset(offset)
		}
		m.lines = lines
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "\n  Loading..."
	}

	status := statusStyle.Render(m.doc.summary())
	percent := percentStyle.Render(fmt.Sprintf("%3.f%%", m.viewport.ScrollPercent()*100))
	controls := controlsStyle.Render("↑/↓ PgUp/PgDn: scroll  g/G: top/bottom  R: forget position  Q: quit")

	return status + "\n" + m.viewport.View() + "\n" + percent + " " + controls
}

// wrapText soft-wraps text to width columns.
func wrapText(text string, width int) string {
	if width < 1 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func main() {
	doc := mustLoad(parseArgs())

	p := tea.NewProgram(newModel(doc), tea.WithAltScreen(), tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
