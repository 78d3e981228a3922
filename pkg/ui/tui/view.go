package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"igharvest/pkg/models"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderLogo())

	width := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left, m.renderStatsPanel(width), m.renderExportPanel(width))
	right := lipgloss.JoinVertical(lipgloss.Left, m.renderPostsPanel(width), m.renderLogsPanel(width))
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help, q to stop"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

func (m *Model) renderLogo() string {
	logo := `
╔═══════════════════════════════════════════╗
║  i g h a r v e s t                        ║
║  carousel-aware instagram media collector ║
╚═══════════════════════════════════════════╝`
	return logoStyle.Width(m.width).Render(logo)
}

// renderStatsPanel renders run statistics and the stage bar
func (m *Model) renderStatsPanel(width int) string {
	title := titleStyle.Render(" RUN ")
	elapsed := time.Since(m.sessionStartTime)

	stage := StageStyle(m.stage == models.StageFailed, m.stage == models.StageDone).Render(string(m.stage))
	if m.stage != models.StageDone && m.stage != models.StageFailed {
		stage = m.spinner.View() + " " + stage
	}

	stats := []string{
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Profile:"), statsValueStyle.Render(m.profile)),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Mode:"), statsValueStyle.Render(string(m.mode))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Stage:"), stage),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Elapsed:"), statsValueStyle.Render(formatDuration(elapsed))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Discovered:"), statsValueStyle.Render(fmt.Sprintf("%d / %d", m.discovered, m.target))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Posts:"), statsValueStyle.Render(fmt.Sprintf("%d / %d (%s)", m.postIndex, m.postTotal, FormatRate(m.postIndex, elapsed)))),
		fmt.Sprintf("%s %s", statsLabelStyle.Render("Media:"), statsValueStyle.Render(fmt.Sprintf("%d", m.media))),
	}
	if m.errors > 0 {
		stats = append(stats, errorStyle.Render(fmt.Sprintf("%d errors", m.errors)))
	}

	bar := m.progress
	bar.Width = max(width-8, 10)
	stats = append(stats, "", bar.ViewAs(m.Percent()))

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, stats...)),
	)
}

// renderPostsPanel lists the most recent posts
func (m *Model) renderPostsPanel(width int) string {
	title := titleStyle.Render(" POSTS ")
	if len(m.posts) == 0 {
		content := lipgloss.NewStyle().Foreground(muted).Render("No posts yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var items []string
	for _, p := range m.posts {
		switch p.State {
		case PostActive:
			items = append(items, postActiveStyle.Render(fmt.Sprintf("%s %d. %s", m.spinner.View(), p.Index, p.ID)))
		case PostDone:
			items = append(items, postDoneStyle.Render(fmt.Sprintf("✓ %d. %s +%d (%s)", p.Index, p.ID, p.Added, p.Duration.Round(time.Millisecond))))
		case PostFailed:
			items = append(items, postFailedStyle.Render(truncate(fmt.Sprintf("✗ %d. %s %s", p.Index, p.ID, p.Error), width-6)))
		}
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinVertical(lipgloss.Left, items...)),
	)
}

// renderExportPanel shows per-format export progress
func (m *Model) renderExportPanel(width int) string {
	title := titleStyle.Render(" EXPORT ")
	if len(m.exports) == 0 {
		content := lipgloss.NewStyle().Foreground(muted).Render("Waiting for the run to finish")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	var lines []string
	for _, e := range m.exports {
		line := fmt.Sprintf("%s %s", statsLabelStyle.Render(e.Format+":"),
			statsValueStyle.Render(fmt.Sprintf("%d/%d", e.Done, e.Total)))
		if e.Failed > 0 {
			line += " " + errorStyle.Render(fmt.Sprintf("%d failed", e.Failed))
		}
		lines = append(lines, line)
	}
	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	title := titleStyle.Render(" LOG ")

	start := max(len(m.logMessages)-10, 0)
	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := logTimestampStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := logMessageStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = lipgloss.NewStyle().Foreground(muted).Render("No logs yet...")
	}

	logsHeight := max(m.height-30, 5)
	return panelStyle.Width(width).Height(logsHeight).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

func (m *Model) renderHelp() string {
	var lines []string
	for _, b := range []key.Binding{keys.Quit, keys.Clear, keys.Help} {
		h := b.Help()
		lines = append(lines, fmt.Sprintf("  %-8s %s", statsLabelStyle.Render(h.Key), h.Desc))
	}
	lines = append(lines, "",
		fmt.Sprintf("  %s media collected, %s failed and recorded in the report",
			successStyle.Render("✓"), errorStyle.Render("✗")))
	return panelStyle.Width(m.width).Render(strings.Join(lines, "\n"))
}

func truncate(s string, n int) string {
	if n <= 3 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
