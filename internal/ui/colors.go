package ui

import "github.com/charmbracelet/lipgloss"

// Spotify brand colors plus the usual status hues.
const (
	green  = lipgloss.Color("#1DB954")
	mint   = lipgloss.Color("#04B575")
	red    = lipgloss.Color("#FF5F5F")
	orange = lipgloss.Color("#FFA500")
	grey   = lipgloss.Color("#626262")
)

var styles = newTheme()

// theme groups the styles used by the copy views.
type theme struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func newTheme() theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }

	return theme{
		title: fg(green).Bold(true).MarginBottom(1),
		ok:    fg(mint).Bold(true),
		err:   fg(red).Bold(true),
		warn:  fg(orange),
		help:  fg(grey).Italic(true),
		label: fg(grey).Width(10),
	}
}
