package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the panels around the field. Particle colours come from the
// mode configuration and are not themed.
type Theme struct {
	Name    string
	Title   lipgloss.Color
	Accent  lipgloss.Color
	Border  lipgloss.Color
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Running lipgloss.Color
	Paused  lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeMidnight = Theme{
		Name:    "midnight",
		Title:   lipgloss.Color("#8b5cf6"),
		Accent:  lipgloss.Color("#3b82f6"),
		Border:  lipgloss.Color("#333344"),
		Text:    lipgloss.Color("#e5e7eb"),
		Muted:   lipgloss.Color("#6b7280"),
		Running: lipgloss.Color("#10b981"),
		Paused:  lipgloss.Color("#f59e0b"),
		Warning: lipgloss.Color("#ef4444"),
	}

	ThemePhosphor = Theme{
		Name:    "phosphor",
		Title:   lipgloss.Color("#00ff41"),
		Accent:  lipgloss.Color("#88ff88"),
		Border:  lipgloss.Color("#004400"),
		Text:    lipgloss.Color("#00cc33"),
		Muted:   lipgloss.Color("#006611"),
		Running: lipgloss.Color("#88ff88"),
		Paused:  lipgloss.Color("#ffff00"),
		Warning: lipgloss.Color("#ff0000"),
	}

	ThemeOcean = Theme{
		Name:    "ocean",
		Title:   lipgloss.Color("#00a8cc"),
		Accent:  lipgloss.Color("#ffd700"),
		Border:  lipgloss.Color("#1e3a5f"),
		Text:    lipgloss.Color("#e0f0ff"),
		Muted:   lipgloss.Color("#4488aa"),
		Running: lipgloss.Color("#00ff88"),
		Paused:  lipgloss.Color("#ffcc00"),
		Warning: lipgloss.Color("#ff4444"),
	}

	ThemeEmber = Theme{
		Name:    "ember",
		Title:   lipgloss.Color("#ff6b6b"),
		Accent:  lipgloss.Color("#feca57"),
		Border:  lipgloss.Color("#4a2c2a"),
		Text:    lipgloss.Color("#fff5f5"),
		Muted:   lipgloss.Color("#8b6b6c"),
		Running: lipgloss.Color("#5fd068"),
		Paused:  lipgloss.Color("#ffc048"),
		Warning: lipgloss.Color("#ff4757"),
	}

	Themes = []Theme{ThemeMidnight, ThemePhosphor, ThemeOcean, ThemeEmber}
)

// GetTheme returns the named theme, or midnight.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return ThemeMidnight
}

func NextTheme(current string) Theme {
	for i, t := range Themes {
		if t.Name == current {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
