// Package tui is a live terminal viewer: a 60 Hz tick drives world.Step and
// the keyboard drives a pointer that can grab, drag and throw bodies.
package tui

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/scenario"
	"github.com/san-kum/rigidsim/internal/viz"
)

const (
	frameRate       = 60
	historyCapacity = 180
	cursorStep      = 0.25
	viewSpan        = 12.0
)

type TickMsg time.Time

// BuildFunc creates a fresh scene; it runs at start and on every reset.
type BuildFunc func() (*scenario.Env, error)

type Model struct {
	name    string
	profile string
	build   BuildFunc

	env     *scenario.Env
	err     error
	cursor  mgl64.Vec3
	paused  bool
	history []float64

	width, height int
}

func NewModel(name, profile string, build BuildFunc) Model {
	m := Model{
		name:    name,
		profile: profile,
		build:   build,
		width:   80,
		height:  24,
	}
	m.reset()
	return m
}

func (m Model) Init() tea.Cmd { return tick() }

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case tea.KeyMsg:
		return m.handleKey(msg)
	case TickMsg:
		if m.env != nil && !m.paused {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.reset()
	case "p":
		m.paused = !m.paused
	case "left", "h":
		m.moveCursor(mgl64.Vec3{-cursorStep, 0, 0})
	case "right", "l":
		m.moveCursor(mgl64.Vec3{cursorStep, 0, 0})
	case "up", "k":
		m.moveCursor(mgl64.Vec3{0, cursorStep, 0})
	case "down", "j":
		m.moveCursor(mgl64.Vec3{0, -cursorStep, 0})
	case " ":
		m.toggleGrab()
	case "t":
		if m.env != nil && m.env.Drag.Active() {
			m.env.Drag.End(nil)
		}
	}
	return m, nil
}

func (m *Model) reset() {
	m.env, m.err = m.build()
	m.cursor = mgl64.Vec3{0, 2, 0}
	m.history = m.history[:0]
}

func (m *Model) step() {
	m.env.World.Step(1.0 / frameRate)

	h := m.watched()
	if b, ok := m.env.World.Body(h); ok {
		m.history = append(m.history, b.Position.Y())
		if len(m.history) > historyCapacity {
			m.history = m.history[1:]
		}
	}
}

// watched is the body whose height is charted: the grabbed one, else the
// first tracked body.
func (m *Model) watched() dynamo.Handle {
	if m.env.Drag.Active() {
		return m.env.Drag.Target()
	}
	if len(m.env.Tracked) > 0 {
		return m.env.Tracked[0]
	}
	return 0
}

func (m *Model) moveCursor(d mgl64.Vec3) {
	m.cursor = m.cursor.Add(d)
	if m.env != nil && m.env.Drag.Active() {
		m.env.Drag.Update(m.cursor)
	}
}

func (m *Model) toggleGrab() {
	if m.env == nil {
		return
	}
	if m.env.Drag.Active() {
		m.env.Drag.End(&mgl64.Vec3{})
		return
	}
	h, hit, ok := m.pick()
	if !ok {
		return
	}
	m.env.Drag.Begin(h, hit)
}

// pick returns the closest dynamic body whose silhouette contains the cursor
// in the side view. The hit keeps the body's depth.
func (m *Model) pick() (dynamo.Handle, mgl64.Vec3, bool) {
	var (
		best dynamo.Handle
		hit  mgl64.Vec3
		dist = math.Inf(1)
	)
	for _, h := range m.env.World.Handles() {
		b, _ := m.env.World.Body(h)
		if b.Static() {
			continue
		}
		d := mgl64.Vec3{m.cursor.X() - b.Position.X(), m.cursor.Y() - b.Position.Y(), 0}.Len()
		if d <= b.Shape.BoundingRadius() && d < dist {
			best, dist = h, d
			hit = mgl64.Vec3{m.cursor.X(), m.cursor.Y(), b.Position.Z()}
		}
	}
	return best, hit, best != 0
}

func (m Model) View() string {
	if m.err != nil {
		return viz.StatusError.Render("scene failed: "+m.err.Error()) + "\n"
	}

	cw := max(m.width-6, 40)
	ch := max(m.height-14, 8)
	canvas := viz.NewCanvas(cw, ch)
	proj := viz.FitProjection(canvas, viewSpan)
	for _, h := range m.env.World.Handles() {
		b, _ := m.env.World.Body(h)
		if h == m.env.Drag.Anchor() {
			continue
		}
		proj.DrawBody(canvas, b)
	}
	proj.Cursor(canvas, m.cursor)

	var s strings.Builder
	s.WriteString(viz.Title.Render(strings.ToUpper(m.name)) + "  " + m.status() + "\n")
	s.WriteString(viz.Scene.Render(canvas.String()))

	stats := m.env.World.Stats()
	sleeping := 0
	for _, st := range m.env.World.States() {
		if st.Sleeping {
			sleeping++
		}
	}
	s.WriteString(viz.Row("profile", m.profile) + "  " + viz.Row("time", fmt.Sprintf("%.2fs", m.env.World.Time())) + "\n")
	s.WriteString(viz.Row("sleeping", fmt.Sprintf("%d/%d", sleeping, m.env.World.Len())) + "  " +
		viz.Row("instabilities", fmt.Sprintf("%d", stats.Instabilities)) + "\n")

	if len(m.history) > 1 {
		s.WriteString(viz.Plot(m.history, "height (m)", min(cw-10, 60), 3) + "\n")
	}

	s.WriteString(viz.KeyHint.Render("arrows/hjkl move  space grab/release  t throw  p pause  r reset  q quit") + "\n")
	return s.String()
}

func (m Model) status() string {
	switch {
	case m.env.Drag.Active():
		return viz.StatusWarn.Render(fmt.Sprintf("dragging #%d", m.env.Drag.Target()))
	case m.paused:
		return viz.StatusWarn.Render("paused")
	case m.env.World.Stats().Frozen > 0:
		return viz.StatusError.Render("frozen bodies")
	}
	return viz.StatusOK.Render("running")
}

// Run starts the viewer full screen and blocks until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
