package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"igharvest/pkg/models"
)

// StageMsg reports a stage transition
type StageMsg struct {
	Stage models.Stage
}

// DiscoveredMsg reports grid discovery progress
type DiscoveredMsg struct {
	Found  int
	Target int
}

// PostStartMsg is sent before a post overlay is opened
type PostStartMsg struct {
	ID    string
	Index int
	Total int
}

// PostDoneMsg is sent once a post was processed. Error is empty on success.
type PostDoneMsg struct {
	ID    string
	Added int
	Media int
	Error string
}

type ExportMsg struct {
	Format string
	Done   int
	Failed int
	Total  int
}

type LogMsg struct {
	Level   string
	Message string
}

// TickMsg refreshes elapsed time and rates
type TickMsg time.Time

type keyMap struct {
	Quit  key.Binding
	Help  key.Binding
	Clear key.Binding
}

var keys = keyMap{
	Quit:  key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "stop after the current post")),
	Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle help")),
	Clear: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear the log panel")),
}

// Update applies one message to the model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case TickMsg:
		return m, tickCmd()
	case StageMsg:
		m.SetStage(msg.Stage)
		m.AddLogMessage("INFO", "Stage: "+string(msg.Stage))
	case DiscoveredMsg:
		m.SetDiscovered(msg.Found, msg.Target)
	case PostStartMsg:
		m.StartPost(msg.ID, msg.Index, msg.Total)
	case PostDoneMsg:
		m.FinishPost(msg.ID, msg.Added, msg.Media, msg.Error)
		if msg.Error != "" {
			m.AddLogMessage("ERROR", msg.ID+": "+msg.Error)
		}
	case ExportMsg:
		m.UpdateExport(msg.Format, msg.Done, msg.Failed, msg.Total)
	case LogMsg:
		m.AddLogMessage(msg.Level, msg.Message)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, keys.Quit):
		if !m.quitting {
			m.quitting = true
			m.AddLogMessage("WARN", "Stopping after the current post")
			if m.onQuit != nil {
				m.onQuit()
			}
		}
		return tea.Quit
	case key.Matches(msg, keys.Help):
		m.showHelp = !m.showHelp
	case key.Matches(msg, keys.Clear):
		m.logMessages = nil
	}
	return nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
