package viz

import (
	"fmt"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/metrics"
)

const (
	width           = 60
	height          = 24
	historyCapacity = 300
	darkThreshold   = 0.6
)

type TickMsg time.Time

type (
	eventMsg      engine.Event
	frameReadyMsg struct{}
	startMsg      struct{ err error }
)

// Model is the live view of one engine. It is the engine's frame consumer:
// frames are taken only while the view is not paused.
type Model struct {
	eng    *engine.Engine
	name   string
	events chan engine.Event
	done   chan struct{}
	unsub  func()

	canvas   *Canvas
	state    engine.State
	frame    *engine.Frame
	frames   int
	paused   bool
	waiting  bool
	series   map[string]*metrics.Series
	keys     []string
	selected int
	spin     int
	showHelp bool
	err      error
}

func NewModel(eng *engine.Engine) Model {
	m := Model{
		eng:    eng,
		name:   eng.Generator().Name(),
		events: make(chan engine.Event, 64),
		done:   make(chan struct{}),
		canvas: NewCanvas(width, height),
		state:  eng.State(),
		series: make(map[string]*metrics.Series),
	}
	events, done := m.events, m.done
	m.unsub = eng.Subscribe(func(ev engine.Event) {
		select {
		case events <- ev:
		case <-done:
		}
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.start(false), m.waitEvent(), m.waitFrame(), tick())
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) start(restart bool) tea.Cmd {
	eng := m.eng
	return func() tea.Msg {
		if restart {
			return startMsg{err: eng.Restart()}
		}
		return startMsg{err: eng.Start()}
	}
}

func (m Model) waitEvent() tea.Cmd {
	events, done := m.events, m.done
	return func() tea.Msg {
		select {
		case ev := <-events:
			return eventMsg(ev)
		case <-done:
			return nil
		}
	}
}

func (m Model) waitFrame() tea.Cmd {
	ready, done := m.eng.Frames(), m.done
	return func() tea.Msg {
		select {
		case <-ready:
			return frameReadyMsg{}
		case <-done:
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit()
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
			if !m.paused && m.waiting {
				m.waiting = false
				m.take()
				return m, m.waitFrame()
			}
		case "s":
			m.err = nil
			return m, m.start(true)
		case "c":
			m.eng.Cancel()
		case "t":
			NextTheme()
		case "tab":
			if len(m.keys) > 0 {
				m.selected = (m.selected + 1) % len(m.keys)
			}
		case "?":
			m.showHelp = !m.showHelp
		}
	case startMsg:
		m.err = msg.err
		if msg.err == nil {
			m.frames = 0
			for _, s := range m.series {
				s.Reset()
			}
		}
	case eventMsg:
		m.state = msg.State
		if msg.State.Phase == engine.FinishedReady && msg.Frame != nil && msg.Frame != m.frame {
			m.show(msg.Frame)
		}
		return m, m.waitEvent()
	case frameReadyMsg:
		if m.paused {
			m.waiting = true
			return m, nil
		}
		m.take()
		return m, m.waitFrame()
	case TickMsg:
		m.spin++
		return m, tick()
	}
	return m, nil
}

func (m *Model) quit() {
	select {
	case <-m.done:
		return
	default:
	}
	close(m.done)
	m.unsub()
	m.eng.Cancel()
}

func (m *Model) take() {
	if f, ok := m.eng.Take(); ok {
		m.show(f)
	}
}

func (m *Model) show(f *engine.Frame) {
	m.frame = f
	m.frames++
	m.canvas.DrawImage(f.Image, darkThreshold)
	for k := range f.Metrics {
		s, ok := m.series[k]
		if !ok {
			s = metrics.NewSeries(k, historyCapacity)
			m.series[k] = s
			m.keys = append(m.keys, k)
			sort.Strings(m.keys)
		}
		s.Observe(f)
	}
}

func (m Model) View() string {
	var s strings.Builder

	head := GradientText(strings.ToUpper("genlab · "+m.name), CurrentTheme.Title, CurrentTheme.Accent)
	s.WriteString(head + "\n\n")

	status := m.state.Status
	if m.paused {
		status = "PAUSED · " + status
	}
	if m.state.Phase == engine.Running && !m.paused {
		status = AnimatedSpinner(m.spin) + " " + status
	}
	s.WriteString(phaseStyle(m.state, m.paused).Render(status) + "\n")
	if p, ok := statusPercent(m.state.Status); ok && m.state.Phase == engine.Running {
		s.WriteString(ProgressBar(p, 30) + "\n")
	}
	if m.err != nil {
		s.WriteString(lipgloss.NewStyle().Foreground(CurrentTheme.Error).Render(m.err.Error()) + "\n")
	}
	s.WriteString("\n")

	s.WriteString(labelStyle.Render("Phase") + value().Render(m.state.Phase.String()) + "\n")
	s.WriteString(labelStyle.Render("Frames") + value().Render(fmt.Sprintf("%d", m.frames)) + "\n")
	if m.frame != nil {
		s.WriteString(labelStyle.Render("Label") + value().Render(m.frame.Label) + "\n")
		if m.frame.Image != nil {
			b := m.frame.Image.Bounds()
			s.WriteString(labelStyle.Render("Size") + value().Render(fmt.Sprintf("%dx%d", b.Dx(), b.Dy())) + "\n")
		}
	}

	if len(m.keys) > 0 {
		s.WriteString("\n" + title().Render("METRICS") + "\n")
		for i, k := range m.keys {
			v, _ := m.series[k].Last()
			line := fmt.Sprintf("%-10s %.4g", k, v)
			if i == m.selected {
				s.WriteString(accent().Render("> "+line) + "\n")
			} else {
				s.WriteString("  " + muted().Render(line) + "\n")
			}
		}
		if vals := m.series[m.keys[m.selected]].Values(); len(vals) > 1 {
			chart := asciigraph.Plot(vals, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption(m.keys[m.selected]))
			s.WriteString(graphStyle.Foreground(CurrentTheme.Accent).Render(chart) + "\n")
		}
	}

	s.WriteString("\n" + Separator(36) + "\n")
	s.WriteString(muted().Render("SP:Pause S:Start C:Cancel\nT:Theme  Tab:Metric ?:Help Q:Quit"))

	canvasView := canvasStyle.Render(m.canvas.String())
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume frames      ║
║  S        - Start or restart         ║
║  C        - Cancel generation        ║
║  Tab      - Cycle plotted metric     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
║  Q        - Quit                     ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// RunLive shows eng until the user quits, then closes it.
func RunLive(eng *engine.Engine) error {
	defer eng.Close()
	_, err := tea.NewProgram(NewModel(eng), tea.WithAltScreen()).Run()
	return err
}
