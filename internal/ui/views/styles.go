package views

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles contains all the style definitions for the UI
type Styles struct {
	Title       lipgloss.Style
	Prompt      lipgloss.Style
	Dim         lipgloss.Style
	Status      lipgloss.Style
	Help        lipgloss.Style
	Path        lipgloss.Style
	LineNumber  lipgloss.Style
	Highlight   lipgloss.Style
	SelectionBg lipgloss.Style
	Placeholder lipgloss.Style
	ErrorText   lipgloss.Style
	Scroll      lipgloss.Style
}

// NewStyles creates a new Styles instance with default values
func NewStyles() *Styles {
	return &Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")),
		Prompt:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Bold(true),
		Dim:         lipgloss.NewStyle().Faint(true),
		Status:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Help:        lipgloss.NewStyle().Faint(true),
		Path:        lipgloss.NewStyle().Foreground(lipgloss.Color("78")),
		LineNumber:  lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		Highlight:   lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true),
		SelectionBg: lipgloss.NewStyle().Background(lipgloss.Color("238")),
		Placeholder: lipgloss.NewStyle().Faint(true).Italic(true),
		ErrorText:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		Scroll:      lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true),
	}
}
