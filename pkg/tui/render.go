package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// footerHeight is the number of rows reserved below the frame.
const footerHeight = 1

var (
	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4B5563"))

	footerKeyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280")).
			Bold(true)
)

// tuiRenderFrame centers the encoded frame rows in a width×height area.
// Rows wider than the area are cut without breaking escape sequences.
func tuiRenderFrame(rows []string, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	if len(rows) > height {
		rows = rows[:height]
	}

	clipped := make([]string, len(rows))
	for i, row := range rows {
		if ansi.StringWidth(row) > width {
			row = ansi.Truncate(row, width, "")
		}
		clipped[i] = row
	}

	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, strings.Join(clipped, "\n"))
}

// tuiRenderFooter renders the one-line hint bar, padded or truncated to
// exactly width columns.
func tuiRenderFooter(hint string, quit key.Binding, width int) string {
	if width <= 0 {
		return ""
	}

	help := quit.Help()
	line := footerKeyStyle.Render(help.Key) + footerStyle.Render(" "+help.Desc)
	if hint != "" {
		line = footerStyle.Render(hint+"  ·  ") + line
	}

	if ansi.StringWidth(line) > width {
		line = ansi.Truncate(line, width, "…")
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, line)
}
