package status

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title    lipgloss.Style
	running  lipgloss.Style
	idle     lipgloss.Style
	schedule lipgloss.Style
	disabled lipgloss.Style
	label    lipgloss.Style
	entry    lipgloss.Style
	failed   lipgloss.Style
	empty    lipgloss.Style
	section  lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:    lipgloss.NewStyle().Bold(true),
		running:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		idle:     lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		schedule: lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		disabled: lipgloss.NewStyle().Faint(true),
		label:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		entry:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		failed:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		empty:    lipgloss.NewStyle().Faint(true),
		section:  lipgloss.NewStyle().MarginTop(1),
	}
}
