package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"

	"igharvest/pkg/models"
)

func TestModel(t *testing.T) {
	model := NewModel("https://www.instagram.com/someone/", models.ModeSmart)

	model.SetStage(models.StageDiscovering)
	model.SetDiscovered(50, 200)
	if got := model.Percent(); got != 0.25 {
		t.Errorf("Expected 0.25 while discovering, got %f", got)
	}

	model.SetStage(models.StageExtracting)
	model.StartPost("POST001", 1, 4)
	model.FinishPost("POST001", 3, 3, "")
	model.StartPost("POST002", 2, 4)
	model.FinishPost("POST002", 0, 3, "overlay_open_timeout: no media")

	if len(model.posts) != 2 {
		t.Errorf("Expected 2 posts, got %d", len(model.posts))
	}
	if model.posts[0].State != PostDone || model.posts[0].Added != 3 {
		t.Errorf("Expected first post done with 3 added, got %+v", model.posts[0])
	}
	if model.posts[1].State != PostFailed {
		t.Errorf("Expected second post failed, got %v", model.posts[1].State)
	}
	if model.errors != 1 {
		t.Errorf("Expected 1 error, got %d", model.errors)
	}
	if got := model.Percent(); got != 0.5 {
		t.Errorf("Expected 0.5 while extracting, got %f", got)
	}

	model.SetStage(models.StageDone)
	model.UpdateExport("archive", 1, 0, 3)
	model.UpdateExport("archive", 2, 1, 3)
	if len(model.exports) != 1 {
		t.Errorf("Expected 1 export entry, got %d", len(model.exports))
	}
	assert.Equal(t, 1.0, model.Percent())

	model.AddLogMessage("INFO", "Test message")
	if len(model.logMessages) != 1 {
		t.Errorf("Expected 1 log message, got %d", len(model.logMessages))
	}
}

func TestModelKeepsRecentPosts(t *testing.T) {
	model := NewModel("p", models.ModeFull)
	for i := 1; i <= 12; i++ {
		model.StartPost("P", i, 12)
	}
	assert.Len(t, model.posts, model.maxPosts)
	assert.Equal(t, 12, model.posts[len(model.posts)-1].Index)
}

func TestUpdateMessages(t *testing.T) {
	model := NewModel("p", models.ModeFull)
	quit := 0
	model.onQuit = func() { quit++ }

	model.Update(StageMsg{Stage: models.StageExtracting})
	model.Update(PostStartMsg{ID: "A", Index: 1, Total: 1})
	model.Update(PostDoneMsg{ID: "A", Added: 2, Media: 2})
	model.Update(ExportMsg{Format: "text", Done: 2, Total: 2})
	model.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	assert.Equal(t, models.StageExtracting, model.stage)
	assert.Equal(t, 2, model.media)
	assert.Equal(t, 120, model.width)

	_, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.NotNil(t, cmd)
	model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	assert.Equal(t, 1, quit, "quit callback runs once")

	view := model.View()
	assert.True(t, strings.Contains(view, "POSTS"))
	assert.True(t, strings.Contains(view, "text:"))
}

func TestViewBeforeResize(t *testing.T) {
	model := NewModel("p", models.ModeQuick)
	assert.Equal(t, "Initializing...", model.View())
}

func TestFormatRate(t *testing.T) {
	tests := []struct {
		count    int
		elapsed  time.Duration
		expected string
	}{
		{0, time.Minute, "0.0/min"},
		{30, time.Minute, "30.0/min"},
		{15, 30 * time.Second, "30.0/min"},
		{5, 0, "0.0/min"},
	}

	for _, test := range tests {
		result := FormatRate(test.count, test.elapsed)
		if result != test.expected {
			t.Errorf("FormatRate(%d, %s) = %s, expected %s", test.count, test.elapsed, result, test.expected)
		}
	}
}

func TestTUIReportsThroughMessages(t *testing.T) {
	var in strings.Reader
	var out strings.Builder
	ui := NewTUI("p", models.ModeFull, nil, WithIO(&in, &out))
	ui.Start()

	ui.StageChanged(models.StageExtracting)
	ui.PostFinished(models.PostReference{ID: "X"}, 0, 0, errors.New("boom"))
	ui.LogInfo("hello %d", 1)

	assert.NoError(t, ui.Stop())
}

func TestTUIRunningUntilStopped(t *testing.T) {
	var in strings.Reader
	var out strings.Builder
	ui := NewTUI("p", models.ModeFull, nil, WithIO(&in, &out))
	ui.Start()
	assert.True(t, ui.Running())

	ui.ExportProgress("archive", 1, 0, 2)
	assert.NoError(t, ui.Stop())
	assert.False(t, ui.Running())
	assert.NoError(t, ui.Stop(), "stopping twice returns the same result")
}
