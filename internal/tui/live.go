// Package tui renders the live thumbstick signal in the terminal.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/mlange-42/arche/ecs"

	"github.com/ayusman/thumbstick/internal/scene"
	"github.com/ayusman/thumbstick/internal/signal"
)

const (
	historyCapacity = 120
	padSize         = 11
	cursorSpeed     = 1.0
)

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(12)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	activeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88")).Bold(true)
	resetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true)
	padStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444466"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	statsStyle  = lipgloss.NewStyle().Padding(0, 2)
)

type TickMsg time.Time

// boundEntity is a named scene entity moved at its own speed.
type boundEntity struct {
	name   string
	speed  float64
	entity ecs.Entity
}

// Model polls a signal provider each tick and moves a cursor entity, plus
// any bound entities, through a scene with it.
type Model struct {
	provider scene.SignalProvider
	title    string
	tick     time.Duration

	world    *ecs.World
	scene    *scene.Scene
	movement *scene.MovementSystem
	cursor   ecs.Entity
	bound    []boundEntity

	current  signal.Signal
	history  []float64
	last     time.Time
	paused   bool
	showHelp bool
}

// NewModel returns a live view over provider. gain is the scene movement
// constant.
func NewModel(provider scene.SignalProvider, title string, tick time.Duration, gain float64) (Model, error) {
	if tick <= 0 {
		tick = 33 * time.Millisecond
	}
	w := ecs.NewWorld()
	sc := scene.New(&w)
	cursor := w.NewEntity()
	if err := sc.Attach(cursor, cursorSpeed); err != nil {
		return Model{}, err
	}
	mv, err := scene.NewMovementSystem(sc, provider, gain)
	if err != nil {
		return Model{}, err
	}

	return Model{
		provider: provider,
		title:    title,
		tick:     tick,
		world:    &w,
		scene:    sc,
		movement: mv,
		cursor:   cursor,
		history:  make([]float64, 0, historyCapacity),
	}, nil
}

func (m Model) Init() tea.Cmd {
	return m.nextTick()
}

func (m Model) nextTick() tea.Cmd {
	return tea.Tick(m.tick, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.resetPositions()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		m.step(time.Time(msg))
		return m, m.nextTick()
	}
	return m, nil
}

func (m *Model) step(now time.Time) {
	if m.paused {
		m.last = now
		return
	}
	m.current = m.provider.Signal()
	if len(m.history) == historyCapacity {
		copy(m.history, m.history[1:])
		m.history = m.history[:historyCapacity-1]
	}
	m.history = append(m.history, m.current.Magnitude)

	if !m.last.IsZero() {
		m.movement.Update(now.Sub(m.last).Seconds())
	}
	m.last = now
}

// Bind adds a named entity that the signal moves at speed.
func (m *Model) Bind(name string, speed float64) error {
	e := m.world.NewEntity()
	if err := m.scene.Attach(e, speed); err != nil {
		m.world.RemoveEntity(e)
		return err
	}
	m.bound = append(m.bound, boundEntity{name: name, speed: speed, entity: e})
	return nil
}

// Bound returns the position of the entity bound under name.
func (m Model) Bound(name string) (scene.Position, bool) {
	for _, b := range m.bound {
		if b.name == name {
			return m.scene.Position(b.entity)
		}
	}
	return scene.Position{}, false
}

// resetPositions moves the cursor and every bound entity back to the
// origin.
func (m *Model) resetPositions() {
	m.cursor = m.respawn(m.cursor, cursorSpeed)
	for i := range m.bound {
		m.bound[i].entity = m.respawn(m.bound[i].entity, m.bound[i].speed)
	}
}

func (m *Model) respawn(e ecs.Entity, speed float64) ecs.Entity {
	m.world.RemoveEntity(e)
	e = m.world.NewEntity()
	_ = m.scene.Attach(e, speed)
	return e
}

// Cursor returns the cursor entity's position.
func (m Model) Cursor() scene.Position {
	p, _ := m.scene.Position(m.cursor)
	return p
}

// History returns the recorded magnitudes, oldest first.
func (m Model) History() []float64 {
	return m.history
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.title)) + "\n")

	state := resetStyle.Render("RESET")
	if m.current.Active {
		state = activeStyle.Render("ACTIVE")
	}
	if m.paused {
		state += " " + resetStyle.Render("(paused)")
	}

	var stats strings.Builder
	stats.WriteString(labelStyle.Render("State") + state + "\n")
	stats.WriteString(labelStyle.Render("Magnitude") + valueStyle.Render(fmt.Sprintf("%.3f %s", m.current.Magnitude, bar(m.current.Magnitude, 20))) + "\n")
	d := m.current.Direction
	stats.WriteString(labelStyle.Render("Direction") + valueStyle.Render(fmt.Sprintf("(%+.3f, %+.3f, %+.3f)", d.X, d.Y, d.Z)) + "\n")
	c := m.Cursor()
	stats.WriteString(labelStyle.Render("Cursor") + valueStyle.Render(fmt.Sprintf("(%+.2f, %+.2f, %+.2f)", c.X, c.Y, c.Z)) + "\n")
	for _, b := range m.bound {
		p, _ := m.scene.Position(b.entity)
		stats.WriteString(labelStyle.Render(b.name) + valueStyle.Render(fmt.Sprintf("(%+.2f, %+.2f, %+.2f) x%.1f", p.X, p.Y, p.Z, b.speed)) + "\n")
	}

	s.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		padStyle.Render(pad(m.current)),
		statsStyle.Render(stats.String()),
	) + "\n")

	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5), asciigraph.Width(60),
			asciigraph.LowerBound(0), asciigraph.UpperBound(1),
			asciigraph.Caption("Magnitude"))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	if m.showHelp {
		s.WriteString(helpStyle.Render("space pause · r reset positions · q quit"))
	} else {
		s.WriteString(helpStyle.Render("? help"))
	}
	return s.String()
}

// pad draws the stick position projected on the X/Y plane.
func pad(sig signal.Signal) string {
	grid := make([][]rune, padSize)
	for i := range grid {
		grid[i] = []rune(strings.Repeat("·", padSize))
	}
	mid := padSize / 2
	grid[mid][mid] = '+'

	if sig.Active {
		n := math.Hypot(sig.Direction.X, sig.Direction.Y)
		if n > 0 {
			r := sig.Magnitude * float64(mid)
			col := mid + int(math.Round(sig.Direction.X/n*r))
			row := mid - int(math.Round(sig.Direction.Y/n*r))
			grid[row][col] = '●'
		} else {
			grid[mid][mid] = '●'
		}
	}

	lines := make([]string, padSize)
	for i, row := range grid {
		lines[i] = string(row)
	}
	return strings.Join(lines, "\n")
}

func bar(v float64, width int) string {
	n := int(math.Round(math.Max(0, math.Min(1, v)) * float64(width)))
	return strings.Repeat("█", n) + strings.Repeat("░", width-n)
}

// Run blocks until the user quits the live view.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
