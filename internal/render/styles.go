// Package render presents plans, step results and run outcomes on a terminal.
package render

import "github.com/charmbracelet/lipgloss"

// Semantic colors
var (
	colorSuccess = lipgloss.Color("#8BC34A")
	colorFailure = lipgloss.Color("#e53935")
	colorWarning = lipgloss.Color("#FFC107")
	colorInfo    = lipgloss.Color("#2196F3")
	colorMuted   = lipgloss.Color("#6b7280")
)

// Styles holds the lipgloss styles bound to one renderer
type Styles struct {
	Title   lipgloss.Style
	Bold    lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Failure lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style
	Header  lipgloss.Style
	Cell    lipgloss.Style
	Border  lipgloss.Style
	Panel   lipgloss.Style
}

// NewStyles builds styles for r. The renderer decides the color profile, so
// output to a pipe or file carries no escape codes.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title:   r.NewStyle().Bold(true).Foreground(colorInfo),
		Bold:    r.NewStyle().Bold(true),
		Muted:   r.NewStyle().Foreground(colorMuted),
		Success: r.NewStyle().Foreground(colorSuccess),
		Failure: r.NewStyle().Foreground(colorFailure).Bold(true),
		Warning: r.NewStyle().Foreground(colorWarning),
		Info:    r.NewStyle().Foreground(colorInfo),
		Header:  r.NewStyle().Bold(true).Padding(0, 1),
		Cell:    r.NewStyle().Padding(0, 1),
		Border:  r.NewStyle().Foreground(colorMuted),
		Panel:   r.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1),
	}
}

func (s Styles) panel(color lipgloss.Color) lipgloss.Style {
	return s.Panel.BorderForeground(color)
}
