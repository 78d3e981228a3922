package tui

import (
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"igharvest/pkg/models"
	"igharvest/pkg/ui"
)

var _ ui.Reporter = (*TUI)(nil)

// TUI is a full-screen run view. It implements ui.Reporter, so it can be
// handed to the scraper and the exporter directly.
type TUI struct {
	program *tea.Program
	model   *Model
	exited  chan struct{}
	err     error
}

// Option configures the underlying program
type Option func(*[]tea.ProgramOption)

// WithIO runs the program on the given streams without the alternate screen
func WithIO(in io.Reader, out io.Writer) Option {
	return func(opts *[]tea.ProgramOption) {
		*opts = append(*opts, tea.WithInput(in), tea.WithOutput(out))
	}
}

// NewTUI creates a new TUI instance. onQuit runs when the user presses q,
// typically cancelling the run context.
func NewTUI(profile string, mode models.Mode, onQuit func(), opts ...Option) *TUI {
	model := NewModel(profile, mode)
	model.onQuit = onQuit

	var programOpts []tea.ProgramOption
	for _, o := range opts {
		o(&programOpts)
	}
	if len(programOpts) == 0 {
		programOpts = append(programOpts, tea.WithAltScreen())
	}

	return &TUI{
		program: tea.NewProgram(&model, programOpts...),
		model:   &model,
		exited:  make(chan struct{}),
	}
}

// Start runs the program in the background
func (t *TUI) Start() {
	go func() {
		_, t.err = t.program.Run()
		close(t.exited)
	}()
}

// Running reports whether the program still draws. It turns false once the
// user quits or Stop returns; messages sent after that are dropped.
func (t *TUI) Running() bool {
	select {
	case <-t.exited:
		return false
	default:
		return true
	}
}

// Stop quits the program and waits for the terminal to be restored. It is
// safe to call after the program already exited.
func (t *TUI) Stop() error {
	t.program.Quit()
	<-t.exited
	return t.err
}

// Send sends a message to the TUI
func (t *TUI) Send(msg tea.Msg) {
	if t.program != nil {
		t.program.Send(msg)
	}
}

func (t *TUI) StageChanged(stage models.Stage) {
	t.Send(StageMsg{Stage: stage})
}

func (t *TUI) PostsDiscovered(found, target int) {
	t.Send(DiscoveredMsg{Found: found, Target: target})
}

func (t *TUI) PostStarted(ref models.PostReference, index, total int) {
	t.Send(PostStartMsg{ID: ref.ID, Index: index, Total: total})
}

func (t *TUI) PostFinished(ref models.PostReference, added, media int, err error) {
	msg := PostDoneMsg{ID: ref.ID, Added: added, Media: media}
	if err != nil {
		msg.Error = err.Error()
	}
	t.Send(msg)
}

func (t *TUI) ExportProgress(format string, done, failed, total int) {
	t.Send(ExportMsg{Format: format, Done: done, Failed: failed, Total: total})
}

// Log sends a log message to the TUI
func (t *TUI) Log(level, format string, args ...interface{}) {
	t.Send(LogMsg{Level: level, Message: fmt.Sprintf(format, args...)})
}

// LogInfo logs an info message
func (t *TUI) LogInfo(format string, args ...interface{}) {
	t.Log("INFO", format, args...)
}

// LogSuccess logs a success message
func (t *TUI) LogSuccess(format string, args ...interface{}) {
	t.Log("SUCCESS", format, args...)
}

// LogWarning logs a warning message
func (t *TUI) LogWarning(format string, args ...interface{}) {
	t.Log("WARN", format, args...)
}

// LogError logs an error message
func (t *TUI) LogError(format string, args ...interface{}) {
	t.Log("ERROR", format, args...)
}
