package cli

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color scheme for table output.
type Theme struct {
	Primary lipgloss.Color // Title and header color
	Dim     lipgloss.Color // Border color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title  lipgloss.Style
	Header lipgloss.Style
	Cell   lipgloss.Style
	Border lipgloss.Style
}

// NewStyles creates styles from a theme for output written to w. Colors are
// only emitted when w is a color-capable terminal.
func NewStyles(t Theme, w io.Writer) Styles {
	r := lipgloss.NewRenderer(w)
	return Styles{
		Title:  r.NewStyle().Bold(true).Foreground(t.Primary),
		Header: r.NewStyle().Bold(true).Foreground(t.Primary).Padding(0, 1),
		Cell:   r.NewStyle().Padding(0, 1),
		Border: r.NewStyle().Foreground(t.Dim),
	}
}
