package main

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	colorOK        = lipgloss.Color("#00B785")
	colorPending   = lipgloss.Color("#e08dff")
	colorFailed    = lipgloss.Color("#e1244c")
	colorHighlight = lipgloss.Color("#407FF8")
	colorMuted     = lipgloss.Color("#5D689C")
)

var (
	styleOK        = lipgloss.NewStyle().Foreground(colorOK).Bold(true)
	stylePending   = lipgloss.NewStyle().Foreground(colorPending).Bold(true)
	styleFailed    = lipgloss.NewStyle().Foreground(colorFailed).Bold(true)
	styleHighlight = lipgloss.NewStyle().Foreground(colorHighlight).Bold(true)
	styleNotSet    = lipgloss.NewStyle().Foreground(colorMuted)

	styleSnapshotKey = lipgloss.NewStyle().Width(28)
	styleListItem    = lipgloss.NewStyle().Padding(0, 2)

	styleCommand      = styleHighlight.Copy()
	styleCommandBlock = lipgloss.NewStyle().Margin(1, 0).PaddingLeft(2)
	styleParam        = lipgloss.NewStyle().Foreground(colorOK)
)

func summaryBox(failing bool) lipgloss.Style {
	border := colorOK
	if failing {
		border = colorFailed
	}
	return lipgloss.NewStyle().
		Padding(0, 1).
		Margin(1, 0).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Width(80)
}

var styleErrorFrame = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorFailed)
var styleErrorText = lipgloss.NewStyle().PaddingLeft(3).Foreground(colorFailed).Width(80).MaxWidth(80)

func renderError(err error) string {
	return styleErrorFrame.Render(lipgloss.JoinVertical(
		lipgloss.Left,
		styleFailed.Render("💥 COULD NOT QUERY THE MITTCHECK AGENT"),
		styleErrorText.Render(err.Error()),
		styleErrorText.Copy().MarginTop(1).Render("Check that the agent is running and that --api-address points to its status api."),
	))
}
