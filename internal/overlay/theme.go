package overlay

import "github.com/charmbracelet/lipgloss"

const (
	colorText     lipgloss.Color = "#cdd6f4"
	colorSubtext0 lipgloss.Color = "#a6adc8"
	colorSurface1 lipgloss.Color = "#45475a"
	colorBase     lipgloss.Color = "#1e1e2e"
	colorPink     lipgloss.Color = "#f5c2e7"
	colorGreen    lipgloss.Color = "#a6e3a1"
	colorPeach    lipgloss.Color = "#fab387"
)

const (
	colorAccent = colorPink
	colorFlash  = colorPeach
	colorDone   = colorGreen
)

var (
	titleStyle = lipgloss.NewStyle().Foreground(colorText).Bold(true)

	countdownStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true).
			Padding(1, 0)

	goalStyle = lipgloss.NewStyle().Foreground(colorSubtext0)

	hintStyle = lipgloss.NewStyle().Foreground(colorSubtext0).Italic(true)

	barFilledStyle = lipgloss.NewStyle().Foreground(colorAccent)
	barEmptyStyle  = lipgloss.NewStyle().Foreground(colorSurface1)

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorSurface1).
			Background(colorBase).
			Padding(1, 4).
			Align(lipgloss.Center)
)
