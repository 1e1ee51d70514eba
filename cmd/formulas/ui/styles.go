// Package ui is the interactive formula form.
package ui

import "github.com/charmbracelet/lipgloss"

var (
	Primary     = lipgloss.Color("#101F38")
	Accent      = lipgloss.Color("#8BC34A")
	Muted       = lipgloss.Color("#6b7686")
	Destructive = lipgloss.Color("#e53935")
	Info        = lipgloss.Color("#2196F3")
	ResultFill  = lipgloss.Color("#e3f2fd")
	ResultEdge  = lipgloss.Color("#90caf9")
)

// Styles holds the styles the form renders with.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Focused lipgloss.Style
	Hint    lipgloss.Style
	Preview lipgloss.Style
	Result  lipgloss.Style
	Error   lipgloss.Style
	Status  lipgloss.Style
}

// DefaultStyles returns the form's default styles.
func DefaultStyles() Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(Accent).MarginBottom(1),
		Label:   lipgloss.NewStyle().Foreground(Muted),
		Focused: lipgloss.NewStyle().Foreground(Accent).Bold(true),
		Hint:    lipgloss.NewStyle().Foreground(Muted).Italic(true),
		Preview: lipgloss.NewStyle().Foreground(Info),
		Result: lipgloss.NewStyle().
			Bold(true).
			Foreground(Primary).
			Background(ResultFill).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ResultEdge).
			Padding(0, 2).
			Align(lipgloss.Center),
		Error:  lipgloss.NewStyle().Foreground(Destructive),
		Status: lipgloss.NewStyle().Foreground(Muted),
	}
}
