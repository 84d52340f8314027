package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/genlab/internal/config"
	"github.com/san-kum/genlab/internal/engine"
	"github.com/san-kum/genlab/internal/experiment"
	"github.com/san-kum/genlab/internal/logging"
)

const (
	stateMenu = iota
	statePreset
	stateLive
)

const currentConfig = "(current config)"

// picker chooses a generator, then a preset, then runs it live.
type picker struct {
	state    int
	cursor   int
	registry *experiment.Registry
	base     *config.Config
	gens     []string
	selected string
	presets  []string
	err      error
	live     Model
	eng      *engine.Engine
}

// NewInteractiveApp lists the registry's generators.
func NewInteractiveApp(registry *experiment.Registry, base *config.Config) tea.Model {
	return picker{
		state:    stateMenu,
		registry: registry,
		base:     base,
		gens:     registry.List(),
	}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateLive {
		if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
			m.live.quit()
			m.eng.Close()
			m.state = statePreset
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	if k, ok := msg.(tea.KeyMsg); ok {
		switch m.state {
		case stateMenu:
			return m.menuKey(k)
		case statePreset:
			return m.presetKey(k)
		}
	}
	return m, nil
}

func (m picker) menuKey(msg tea.KeyMsg) (picker, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.gens)-1 {
			m.cursor++
		}
	case "enter", " ":
		m.selected = m.gens[m.cursor]
		m.presets = append([]string{currentConfig}, config.ListPresets(config.Section(m.selected))...)
		m.state, m.cursor, m.err = statePreset, 0, nil
	}
	return m, nil
}

func (m picker) presetKey(msg tea.KeyMsg) (picker, tea.Cmd) {
	switch msg.String() {
	case "q", "esc":
		m.state, m.cursor = stateMenu, 0
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ", "s":
		cmd, err := m.launch(m.presets[m.cursor])
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, cmd
	}
	return m, nil
}

func (m *picker) launch(preset string) (tea.Cmd, error) {
	cfg := m.base
	if preset != currentConfig {
		if cfg = config.GetPreset(config.Section(m.selected), preset); cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s", preset)
		}
	}
	gen, err := m.registry.Get(m.selected, cfg)
	if err != nil {
		return nil, err
	}
	logging.Logger().Debug("live run", "generator", m.selected, "preset", preset)
	m.eng = engine.New(gen)
	m.live = NewModel(m.eng)
	m.state = stateLive
	return m.live.Init(), nil
}

func (m picker) View() string {
	switch m.state {
	case stateMenu:
		return m.viewList("GENLAB", "generative art workbench", m.gens, m.registry.Describe)
	case statePreset:
		return m.viewList(strings.ToUpper(m.selected), m.registry.Describe(m.selected), m.presets, func(string) string { return "" })
	case stateLive:
		return m.live.View() + "\n" + muted().Render("esc: back to presets")
	}
	return ""
}

func (m picker) viewList(head, sub string, items []string, about func(string) string) string {
	var b strings.Builder
	b.WriteString("\n\n    " + title().Render(head) + "\n    " + muted().Render(sub) + "\n    " + muted().Render("─────────────────────────") + "\n\n")
	for i, name := range items {
		desc := about(name)
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", accent().Render("▸"), value().Bold(true).Render(fmt.Sprintf("%-22s", name)), accent().Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", muted().Render(fmt.Sprintf("%-22s", name)), muted().Render(desc)))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + phaseStyle(engine.State{Err: m.err}, false).Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + accent().Render("j/k") + muted().Render(" navigate  ") + accent().Render("enter") + muted().Render(" select  ") + accent().Render("q") + muted().Render(" back/quit") + "\n")
	return b.String()
}

func RunInteractive(registry *experiment.Registry, base *config.Config) error {
	_, err := tea.NewProgram(NewInteractiveApp(registry, base), tea.WithAltScreen()).Run()
	return err
}
