package output

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles holds the terminal styles used by command output.
type Styles struct {
	Header1 lipgloss.Style
	Header2 lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	Path    lipgloss.Style
	Kind    lipgloss.Style
	Field   lipgloss.Style
	Excerpt lipgloss.Style

	StatusSuccess lipgloss.Style
	StatusFailed  lipgloss.Style
}

// NewStyles builds styles bound to a lipgloss renderer, so that colour is
// only emitted when that renderer's output supports it.
func NewStyles(r *lipgloss.Renderer) *Styles {
	return &Styles{
		Header1: r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		Header2: r.NewStyle().Bold(true).Foreground(lipgloss.Color("14")),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")),

		Success: r.NewStyle().Foreground(lipgloss.Color("10")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
		Warning: r.NewStyle().Foreground(lipgloss.Color("11")),
		Info:    r.NewStyle().Foreground(lipgloss.Color("12")),

		Path:    r.NewStyle().Bold(true).Underline(true),
		Kind:    r.NewStyle().Foreground(lipgloss.Color("13")),
		Field:   r.NewStyle().Foreground(lipgloss.Color("6")),
		Excerpt: r.NewStyle().Foreground(lipgloss.Color("3")),

		StatusSuccess: r.NewStyle().Foreground(lipgloss.Color("10")).SetString("✓"),
		StatusFailed:  r.NewStyle().Foreground(lipgloss.Color("9")).SetString("✗"),
	}
}
