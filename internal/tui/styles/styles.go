// Package styles provides the colour theme and lipgloss styles of the shell.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme defines the colour palette.
type Theme struct {
	// Background is the window background.
	Background lipgloss.Color
	// Panel is the background of the tool and preview panes.
	Panel lipgloss.Color
	// Accent is the header and status bar colour.
	Accent lipgloss.Color
	// Highlight marks the selected tool and section headings.
	Highlight lipgloss.Color
	// Foreground is the default text colour.
	Foreground lipgloss.Color
	// Muted is for hints and secondary text.
	Muted lipgloss.Color
	// Success indicates completed operations.
	Success lipgloss.Color
	// Warning indicates degraded features.
	Warning lipgloss.Color
	// Error indicates failures.
	Error lipgloss.Color
}

// DefaultTheme returns the dark navy theme.
func DefaultTheme() *Theme {
	return &Theme{
		Background: lipgloss.Color("#1a1a2e"),
		Panel:      lipgloss.Color("#16213e"),
		Accent:     lipgloss.Color("#0f3460"),
		Highlight:  lipgloss.Color("#e94560"),
		Foreground: lipgloss.Color("#eaeaea"),
		Muted:      lipgloss.Color("#a0a0b0"),
		Success:    lipgloss.Color("#4caf50"),
		Warning:    lipgloss.Color("#ff9800"),
		Error:      lipgloss.Color("#e94560"),
	}
}

// Styles contains pre-configured lipgloss styles.
type Styles struct {
	theme *Theme

	Header   lipgloss.Style
	Subtitle lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Section  lipgloss.Style
	Selected lipgloss.Style
	Success  lipgloss.Style
	Warning  lipgloss.Style
	Error    lipgloss.Style

	// Panel frames the tool list and the preview.
	Panel lipgloss.Style
	// Input frames text inputs.
	Input lipgloss.Style
	// Modal frames blocking dialogs.
	Modal lipgloss.Style
	// ModalTitle is the heading inside a dialog.
	ModalTitle lipgloss.Style
	// StatusBar is the bottom line.
	StatusBar lipgloss.Style
	// Help renders key hints.
	Help lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	return &Styles{
		theme: theme,

		Header: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Accent).
			Padding(0, 1),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Normal: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Section: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Highlight),

		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Foreground).
			Background(theme.Highlight),

		Success: lipgloss.NewStyle().
			Foreground(theme.Success),

		Warning: lipgloss.NewStyle().
			Foreground(theme.Warning),

		Error: lipgloss.NewStyle().
			Foreground(theme.Error),

		Panel: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),

		Input: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Muted).
			Padding(0, 1),

		Modal: lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(theme.Highlight).
			Padding(1, 2),

		ModalTitle: lipgloss.NewStyle().
			Bold(true).
			Foreground(theme.Highlight).
			MarginBottom(1),

		StatusBar: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Background(theme.Accent).
			Padding(0, 1),

		Help: lipgloss.NewStyle().
			Foreground(theme.Muted),
	}
}

// DefaultStyles returns styles with the default theme.
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the theme used by these styles.
func (s *Styles) Theme() *Theme {
	return s.theme
}
