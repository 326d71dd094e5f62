package tui

import "github.com/charmbracelet/lipgloss"

type styles struct {
	title, notice, errText lipgloss.Style
	status, hint           lipgloss.Style
	filterLabel, active    lipgloss.Style
	overlay, overlayTitle  lipgloss.Style
	cursor, label, value   lipgloss.Style
	match                  lipgloss.Style
}

func newStyles() styles {
	base := lipgloss.NewStyle()
	return styles{
		title:        base.Bold(true).Foreground(lipgloss.Color("14")).Padding(0, 1),
		notice:       base.Foreground(lipgloss.Color("11")).Padding(0, 1),
		errText:      base.Foreground(lipgloss.Color("9")).Padding(0, 1),
		status:       base.Padding(0, 1),
		hint:         base.Faint(true).Padding(0, 1),
		filterLabel:  base.Faint(true),
		active:       base.Bold(true).Foreground(lipgloss.Color("10")),
		overlay:      base.Border(lipgloss.RoundedBorder()).Padding(0, 1),
		overlayTitle: base.Bold(true),
		cursor:       base.Bold(true).Foreground(lipgloss.Color("14")),
		label:        base.Faint(true).Width(18),
		value:        base,
		match:        base.Foreground(lipgloss.Color("0")).Background(lipgloss.Color("11")),
	}
}
