package kds

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title     lipgloss.Style
	header    lipgloss.Style
	order     lipgloss.Style
	selected  lipgloss.Style
	meta      lipgloss.Style
	item      lipgloss.Style
	itemDone  lipgloss.Style
	notes     lipgloss.Style
	warning   lipgloss.Style
	empty     lipgloss.Style
	footer    lipgloss.Style
	fresh     lipgloss.Style
	preparing lipgloss.Style
	ready     lipgloss.Style
	closed    lipgloss.Style
	late      lipgloss.Style
}

func newStyles() styles {
	return styles{
		title:     lipgloss.NewStyle().Bold(true),
		header:    lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
		order:     lipgloss.NewStyle().MarginTop(1).PaddingLeft(2),
		selected:  lipgloss.NewStyle().MarginTop(1).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("39")).PaddingLeft(1),
		meta:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		item:      lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		itemDone:  lipgloss.NewStyle().Faint(true).Strikethrough(true),
		notes:     lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("180")),
		warning:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
		empty:     lipgloss.NewStyle().Faint(true),
		footer:    lipgloss.NewStyle().MarginTop(1).Foreground(lipgloss.Color("241")),
		fresh:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
		preparing: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		ready:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("78")),
		closed:    lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		late:      lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")),
	}
}
