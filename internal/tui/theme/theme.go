package theme

import "github.com/charmbracelet/lipgloss"

var (
	Crust    = lipgloss.Color("#11111b")
	Base     = lipgloss.Color("#1e1e2e")
	Mantle   = lipgloss.Color("#181825")
	Mauve    = lipgloss.Color("#cba6f7")
	Red      = lipgloss.Color("#f38ba8")
	Green    = lipgloss.Color("#a6e3a1")
	Yellow   = lipgloss.Color("#f9e2af")
	Blue     = lipgloss.Color("#89b4fa")
	Overlay0 = lipgloss.Color("#6c7086")
	Surface0 = lipgloss.Color("#313244")
	Surface1 = lipgloss.Color("#45475a")
	Surface2 = lipgloss.Color("#585b70")
	Lavender = lipgloss.Color("#b4befe")
	Text     = lipgloss.Color("#cdd6f4")
)

var Title = lipgloss.NewStyle().
	Bold(true).
	Foreground(Crust).
	Background(Mauve).
	Padding(0, 1)

var Panel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Surface2).
	Padding(0, 1)

var FocusedPanel = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Mauve).
	Padding(0, 1)

var Header = lipgloss.NewStyle().
	Bold(true).
	Foreground(Lavender)

var Dim = lipgloss.NewStyle().
	Foreground(Overlay0)

var StatusBar = lipgloss.NewStyle().
	Background(Surface0).
	Foreground(Text).
	Padding(0, 1)

var StatusKey = lipgloss.NewStyle().
	Background(Surface0).
	Foreground(Mauve).
	Bold(true)

var StatusDesc = lipgloss.NewStyle().
	Background(Surface0).
	Foreground(Overlay0)

var Selection = lipgloss.NewStyle().
	Background(Surface1).
	Foreground(Lavender).
	Bold(true)

var Code = lipgloss.NewStyle().
	Foreground(Lavender).
	Background(Surface0).
	Padding(0, 1)

// ForStatus picks the accent color for a session lifecycle state.
func ForStatus(status string) lipgloss.Style {
	switch status {
	case "converged":
		return lipgloss.NewStyle().Foreground(Green)
	case "exhausted":
		return lipgloss.NewStyle().Foreground(Yellow)
	case "aborted":
		return lipgloss.NewStyle().Foreground(Red)
	case "running":
		return lipgloss.NewStyle().Foreground(Blue)
	default:
		return lipgloss.NewStyle().Foreground(Text)
	}
}

// StatusGlyph is the one-character marker for a session lifecycle state.
func StatusGlyph(status string) string {
	switch status {
	case "converged":
		return "✓"
	case "exhausted":
		return "⚠"
	case "aborted":
		return "✗"
	case "running":
		return "▶"
	default:
		return "·"
	}
}

// ForSlack colors a slack figure, violations in red.
func ForSlack(slack *float64) lipgloss.Style {
	if slack == nil {
		return Dim
	}
	if *slack < 0 {
		return lipgloss.NewStyle().Foreground(Red).Bold(true)
	}
	return lipgloss.NewStyle().Foreground(Green)
}
