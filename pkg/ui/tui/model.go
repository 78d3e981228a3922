package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"igharvest/pkg/models"
)

// PostState represents where a post is in the run
type PostState int

const (
	PostActive PostState = iota
	PostDone
	PostFailed
)

// PostItem is one post shown in the posts panel
type PostItem struct {
	ID        string
	Index     int
	State     PostState
	Added     int
	Error     string
	StartTime time.Time
	Duration  time.Duration
}

// ExportItem tracks one export format
type ExportItem struct {
	Format string
	Done   int
	Failed int
	Total  int
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	progress progress.Model

	profile string
	mode    models.Mode
	stage   models.Stage

	discovered int
	target     int
	postIndex  int
	postTotal  int
	media      int
	errors     int

	posts    []*PostItem
	maxPosts int
	exports  []*ExportItem

	sessionStartTime time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	quitting       bool
	onQuit         func()
	logMessages    []LogMessage
	maxLogMessages int
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a new TUI model for one run
func NewModel(profile string, mode models.Mode) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(pink)

	p := progress.New(progress.WithDefaultGradient())
	p.Width = 40

	return Model{
		spinner:          s,
		progress:         p,
		profile:          profile,
		mode:             mode,
		stage:            models.StageIdle,
		maxPosts:         8,
		sessionStartTime: time.Now(),
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// SetStage records a stage transition
func (m *Model) SetStage(stage models.Stage) {
	m.stage = stage
}

// SetDiscovered records discovery progress
func (m *Model) SetDiscovered(found, target int) {
	m.discovered = found
	m.target = target
}

// StartPost marks a post as being extracted
func (m *Model) StartPost(id string, index, total int) {
	m.postIndex = index
	m.postTotal = total
	m.posts = append(m.posts, &PostItem{ID: id, Index: index, State: PostActive, StartTime: time.Now()})
	if len(m.posts) > m.maxPosts {
		m.posts = m.posts[len(m.posts)-m.maxPosts:]
	}
}

// FinishPost marks the most recent matching post as finished
func (m *Model) FinishPost(id string, added, media int, errMsg string) {
	m.media = media
	for i := len(m.posts) - 1; i >= 0; i-- {
		p := m.posts[i]
		if p.ID != id || p.State != PostActive {
			continue
		}
		p.Added = added
		p.Duration = time.Since(p.StartTime)
		if errMsg != "" {
			p.State = PostFailed
			p.Error = errMsg
		} else {
			p.State = PostDone
		}
		break
	}
	if errMsg != "" {
		m.errors++
	}
}

// UpdateExport records progress for one export format
func (m *Model) UpdateExport(format string, done, failed, total int) {
	for _, e := range m.exports {
		if e.Format == format {
			e.Done, e.Failed, e.Total = done, failed, total
			return
		}
	}
	m.exports = append(m.exports, &ExportItem{Format: format, Done: done, Failed: failed, Total: total})
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	color, ok := levelColors[level]
	if !ok {
		color = muted
	}

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    time.Now(),
		Level:   level,
		Message: message,
		Color:   color,
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}

// Percent returns overall progress for the current stage in [0,1]
func (m *Model) Percent() float64 {
	var done, total int
	switch m.stage {
	case models.StageDiscovering:
		done, total = m.discovered, m.target
	case models.StageExtracting:
		done, total = m.postIndex, m.postTotal
	case models.StageFinalizing, models.StageDone:
		if len(m.exports) > 0 {
			e := m.exports[len(m.exports)-1]
			done, total = e.Done+e.Failed, e.Total
		} else {
			return 1
		}
	}
	if total <= 0 {
		return 0
	}
	if done > total {
		done = total
	}
	return float64(done) / float64(total)
}

// FormatRate formats a count per minute
func FormatRate(count int, elapsed time.Duration) string {
	if elapsed <= 0 || count == 0 {
		return "0.0/min"
	}
	return fmt.Sprintf("%.1f/min", float64(count)/elapsed.Minutes())
}
