package main

import "github.com/charmbracelet/lipgloss"

var (
	accentColor = lipgloss.Color("#2DA44E")
	scoreColor  = lipgloss.Color("#F778BA")
	dimColor    = lipgloss.Color("#6E7681")
	errorColor  = lipgloss.Color("#CF222E")
	headerColor = lipgloss.Color("#0969DA")

	styleHeader = lipgloss.NewStyle().
			Foreground(headerColor).
			Bold(true)

	styleScore = lipgloss.NewStyle().
			Foreground(scoreColor).
			Bold(true)

	styleSuccess = lipgloss.NewStyle().
			Foreground(accentColor).
			Bold(true)

	styleDim = lipgloss.NewStyle().
			Foreground(dimColor)

	styleError = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true)
)

// column renders s padded or truncated to width cells.
func column(style lipgloss.Style, s string, width int) string {
	if lipgloss.Width(s) > width {
		r := []rune(s)
		for len(r) > 0 && lipgloss.Width(string(r))+1 > width {
			r = r[:len(r)-1]
		}
		s = string(r) + "…"
	}
	return style.Width(width).Render(s)
}
