package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/evosim/internal/creature"
	"github.com/san-kum/evosim/internal/metrics"
	"github.com/san-kum/evosim/internal/vec"
)

const (
	width           = 72
	height          = 22
	frameRate       = 30
	historyCapacity = 600
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model plays a creature's behavior in a terminal and shows its progress.
type Model struct {
	sim     *creature.Simulator
	subject creature.Creature
	settled creature.Creature
	title   string
	origin  vec.Vec3

	canvas *Canvas
	camera *Camera
	wire   *Wireframe

	running  bool
	speed    float64
	showHelp bool
	theme    int
	styles   Styles

	history  *metrics.History
	distance []float64
}

// NewModel settles c and prepares it for playback. History, when not nil,
// is plotted next to the creature.
func NewModel(sim *creature.Simulator, c creature.Creature, title string, history *metrics.History) Model {
	sim.Settle(&c)

	m := Model{
		sim:      sim,
		subject:  c,
		settled:  c,
		title:    title,
		origin:   c.Centroid(),
		canvas:   NewCanvas(width, height),
		camera:   NewCamera(),
		wire:     NewWireframe(),
		running:  true,
		speed:    1,
		styles:   NewStyles(Themes[0]),
		history:  history,
		distance: make([]float64, 0, historyCapacity),
	}
	m.camera.Follow(m.origin, 1)
	m.draw()
	return m
}

func (m Model) Init() tea.Cmd {
	return tick()
}

// Update handles input events and advances the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "f":
			m.speed = min(8, m.speed*2)
		case "s":
			m.speed = max(0.125, m.speed/2)
		case "t":
			m.theme = (m.theme + 1) % len(Themes)
			m.styles = NewStyles(Themes[m.theme])
		case "?":
			m.showHelp = !m.showHelp
		case "left", "h":
			m.camera.RotateY(-0.1)
		case "right", "l":
			m.camera.RotateY(0.1)
		case "up", "k":
			m.camera.RotateX(0.1)
		case "down", "j":
			m.camera.RotateX(-0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		}
		m.draw()
	case TickMsg:
		if m.running {
			m.step(1.0 / frameRate)
		}
		m.draw()
		return m, tick()
	}
	return m, nil
}

func (m *Model) step(dt float64) {
	m.sim.Animate(&m.subject, dt*m.speed)
	if len(m.distance) == historyCapacity {
		m.distance = append(m.distance[:0], m.distance[1:]...)
	}
	m.distance = append(m.distance, m.Distance())
	m.camera.Follow(m.subject.Centroid(), 0.1)
}

func (m *Model) reset() {
	m.subject = m.settled
	m.distance = m.distance[:0]
	m.camera.Follow(m.origin, 1)
}

// Distance is how far the centroid has moved along +X since playback
// started.
func (m Model) Distance() float64 {
	return m.subject.Centroid().X - m.origin.X
}

// Creature returns the creature in its current animated state.
func (m Model) Creature() creature.Creature { return m.subject }

func (m *Model) draw() {
	m.canvas.Clear()
	m.wire.Clear()
	m.wire.AddGround(m.camera.Target, 3, 0.5)
	m.wire.AddCreature(&m.subject)
	Render3D(m.canvas, m.wire, m.camera)
}

// View renders the TUI interface.
func (m Model) View() string {
	st := m.styles
	c := &m.subject
	p := m.sim.Params()

	var s strings.Builder
	s.WriteString(st.Header.Render(strings.ToUpper(m.title)) + "\n")

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(fmt.Sprintf("%s  x%g\n\n", st.Active.Render(status), m.speed))

	row := func(label, value string) {
		s.WriteString(st.Label.Render(label) + st.Value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", c.Clock))
	row("Distance", fmt.Sprintf("%+.3f", m.Distance()))
	if c.Clock > 0 {
		row("Pace", fmt.Sprintf("%+.3f/period", m.Distance()/c.Clock*p.BehaviorTime))
	}
	if c.Evaluated() {
		row("Fitness", fmt.Sprintf("%.4f", c.Fitness))
	}
	row("Body", fmt.Sprintf("%d nodes, %d muscles", c.NumNodes, c.NumMuscles))

	contracting := 0
	for _, mu := range c.AllMuscles() {
		if mu.Contracting {
			contracting++
		}
	}
	grounded, exhausted := 0, false
	for i := range c.AllNodes() {
		switch m.sim.NodeState(c, i) {
		case creature.Grounded:
			grounded++
		case creature.Exhausted:
			exhausted = true
		}
	}
	row("Contracting", fmt.Sprintf("%d", contracting))
	row("Grounded", fmt.Sprintf("%d", grounded))

	energy := st.ProgressBar(c.Energy/p.MaxEnergy, 16)
	if exhausted {
		energy += " " + st.Bad.Render("exhausted")
	}
	s.WriteString(st.Label.Render("Energy") + energy + "\n\n")
	s.WriteString(st.Sparkline(m.distance, 40) + "\n")

	if m.history != nil && m.history.Len() > 1 {
		chart := asciigraph.Plot(m.history.Distance(),
			asciigraph.Height(5), asciigraph.Width(34), asciigraph.Caption("best distance / generation"))
		s.WriteString(st.Graph.Render(chart) + "\n")
	}

	s.WriteString(st.Help.Render("─────────────────────\nSP:Pause R:Reset Q:Quit\nF/S:Speed T:Theme ?:Help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top,
		st.Canvas.Render(m.canvas.String()),
		st.Panel.Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart from rest pose   ║
║  F / S    - Faster / slower          ║
║  Arrows   - Orbit camera             ║
║  + / -    - Zoom                     ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝`

// Run starts the viewer on the alternate screen and blocks until it quits.
func Run(m tea.Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
