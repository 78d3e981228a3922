package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Profile-gradient palette
var (
	purple = lipgloss.Color("#833AB4")
	pink   = lipgloss.Color("#E1306C")
	orange = lipgloss.Color("#F77737")
	gold   = lipgloss.Color("#FCAF45")
	mint   = lipgloss.Color("#3DDC97")
	red    = lipgloss.Color("#ED4956")
	ink    = lipgloss.Color("#121212")
	paper  = lipgloss.Color("#DBDBDB")
	muted  = lipgloss.Color("#8E8E8E")
)

var (
	baseStyle = lipgloss.NewStyle().Foreground(paper)

	logoStyle = lipgloss.NewStyle().Foreground(pink).Bold(true).Padding(1, 0).Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(purple).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().Background(purple).Foreground(paper).Bold(true).Padding(0, 1)

	statsLabelStyle = lipgloss.NewStyle().Foreground(gold).Bold(true)
	statsValueStyle = lipgloss.NewStyle().Foreground(paper)

	successStyle = lipgloss.NewStyle().Foreground(mint).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(red).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(orange).Bold(true)

	postActiveStyle = lipgloss.NewStyle().Foreground(pink).Bold(true)
	postDoneStyle   = lipgloss.NewStyle().Foreground(muted)
	postFailedStyle = lipgloss.NewStyle().Foreground(red)

	logTimestampStyle = lipgloss.NewStyle().Foreground(muted)
	logMessageStyle   = lipgloss.NewStyle().Foreground(paper)

	helpStyle = lipgloss.NewStyle().Foreground(muted).Padding(1, 0, 0, 1).Background(ink)
)

// levelColors colours the log panel level labels
var levelColors = map[string]lipgloss.Color{
	"ERROR":   red,
	"WARN":    orange,
	"SUCCESS": mint,
	"INFO":    gold,
}

// StageStyle returns the style used for a stage label
func StageStyle(failed bool, done bool) lipgloss.Style {
	switch {
	case failed:
		return errorStyle
	case done:
		return successStyle
	default:
		return warningStyle
	}
}
