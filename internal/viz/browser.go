package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	stateMenu = iota
	stateView
)

// Choice is one entry of the browser menu.
type Choice struct {
	ID     string
	Label  string
	Detail string
}

// Opener builds the viewer for a chosen entry.
type Opener func(Choice) (Model, error)

// Browser lists stored runs and opens the champion of the selected one.
type Browser struct {
	state   int
	cursor  int
	choices []Choice
	open    Opener
	err     error
	viewer  Model
}

func NewBrowser(choices []Choice, open Opener) Browser {
	return Browser{choices: choices, open: open}
}

func (b Browser) Init() tea.Cmd { return nil }

func (b Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if b.state == stateView {
		if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
			b.state = stateMenu
			return b, nil
		}
		next, cmd := b.viewer.Update(msg)
		b.viewer = next.(Model)
		return b, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return b, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return b, tea.Quit
	case "up", "k":
		if b.cursor > 0 {
			b.cursor--
		}
	case "down", "j":
		if b.cursor < len(b.choices)-1 {
			b.cursor++
		}
	case "enter", " ":
		if len(b.choices) == 0 {
			return b, nil
		}
		viewer, err := b.open(b.choices[b.cursor])
		if err != nil {
			b.err = err
			return b, nil
		}
		b.err = nil
		b.viewer = viewer
		b.state = stateView
		return b, viewer.Init()
	}
	return b, nil
}

func (b Browser) View() string {
	if b.state == stateView {
		return b.viewer.View()
	}

	var (
		out      strings.Builder
		title    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
		sub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
		pointer  = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
		selected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
		detail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
		idle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
		keyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
	)

	out.WriteString("\n\n    " + title.Render("EVOSIM") + "\n    " + sub.Render("stored runs") +
		"\n    " + sub.Render("─────────────────────────") + "\n\n")
	if len(b.choices) == 0 {
		out.WriteString("    " + sub.Render("no runs yet, try evosim evolve") + "\n")
	}
	for i, c := range b.choices {
		if i == b.cursor {
			out.WriteString(fmt.Sprintf("    %s %s  %s\n", pointer.Render("▸"),
				selected.Render(fmt.Sprintf("%-28s", c.Label)), detail.Render(c.Detail)))
		} else {
			out.WriteString(fmt.Sprintf("    %s  %s\n", idle.Render(fmt.Sprintf("  %-28s", c.Label)), idle.Render(c.Detail)))
		}
	}
	if b.err != nil {
		out.WriteString("\n    " + lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444")).Render(b.err.Error()) + "\n")
	}
	out.WriteString("\n    " + keyStyle.Render("j/k") + sub.Render(" navigate  ") +
		keyStyle.Render("enter") + sub.Render(" watch  ") +
		keyStyle.Render("esc") + sub.Render(" back  ") +
		keyStyle.Render("q") + sub.Render(" quit") + "\n")
	return out.String()
}
