package viz

import "github.com/charmbracelet/lipgloss"

// Theme defines color scheme for the TUI
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Accent  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
	Error   lipgloss.Color
}

var (
	ThemePetri = Theme{
		Name:    "petri",
		Title:   lipgloss.Color("#7fd4a8"),
		Accent:  lipgloss.Color("#c3f0ca"),
		Text:    lipgloss.Color("#f0fff4"),
		Muted:   lipgloss.Color("#5b7f6a"),
		Running: lipgloss.Color("#55e07a"),
		Paused:  lipgloss.Color("#f2c14e"),
		Error:   lipgloss.Color("#ff5f57"),
	}

	ThemeSteel = Theme{
		Name:    "steel",
		Title:   lipgloss.Color("#4682b4"), // steelblue, like the hybrid cells
		Accent:  lipgloss.Color("#dc143c"),
		Text:    lipgloss.Color("#faebd7"),
		Muted:   lipgloss.Color("#6b7b8c"),
		Running: lipgloss.Color("#8fbc8f"),
		Paused:  lipgloss.Color("#ffa500"),
		Error:   lipgloss.Color("#dc143c"),
	}

	ThemePaper = Theme{
		Name:    "paper",
		Title:   lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Text:    lipgloss.Color("#e8e8e8"),
		Muted:   lipgloss.Color("#888888"),
		Running: lipgloss.Color("#00cc66"),
		Paused:  lipgloss.Color("#ffaa00"),
		Error:   lipgloss.Color("#ff3333"),
	}

	ThemeSpectrum = Theme{
		Name:    "spectrum",
		Title:   lipgloss.Color("#ff00ff"),
		Accent:  lipgloss.Color("#00ffff"),
		Text:    lipgloss.Color("#ffffff"),
		Muted:   lipgloss.Color("#666688"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffff00"),
		Error:   lipgloss.Color("#ff0044"),
	}

	CurrentTheme = ThemePetri

	Themes = []Theme{
		ThemePetri,
		ThemeSteel,
		ThemePaper,
		ThemeSpectrum,
	}
)

// GetTheme returns a theme by name, or the default one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemePetri
}

func SetTheme(name string) {
	CurrentTheme = GetTheme(name)
}

// NextTheme switches to the theme after the current one.
func NextTheme() {
	for i, t := range Themes {
		if t.Name == CurrentTheme.Name {
			CurrentTheme = Themes[(i+1)%len(Themes)]
			return
		}
	}
	CurrentTheme = Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
