package ui

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"igharvest/pkg/config"
	"igharvest/pkg/models"
)

func sampleReport() *models.RunReport {
	r := models.NewRunReport(models.ModeSmart)
	r.Media.Add("https://cdn.example.com/a.jpg")
	r.Media.Add("https://cdn.example.com/b.jpg")
	r.Posts = []models.PostReference{{ID: "A"}, {ID: "B"}}
	r.RecordError(models.PostReference{ID: "B"}, "overlay_open_timeout", "overlay did not show media")
	return r
}

func TestPrintResults(t *testing.T) {
	var buf bytes.Buffer
	PrintResults(&buf, sampleReport())
	out := buf.String()

	assert.Contains(t, out, "   1. https://cdn.example.com/a.jpg")
	assert.Contains(t, out, "   2. https://cdn.example.com/b.jpg")
	assert.Contains(t, out, "single-image posts were skipped")
	assert.Contains(t, out, "B: overlay did not show media")
}

func TestPrintResultsFullModeHasNoSmartNote(t *testing.T) {
	r := models.NewRunReport(models.ModeFull)
	var buf bytes.Buffer
	PrintResults(&buf, r)
	assert.NotContains(t, buf.String(), "Smart mode")
}

func TestBar(t *testing.T) {
	tests := []struct {
		done, total, filled int
	}{
		{0, 10, 0},
		{5, 10, 10},
		{10, 10, 20},
		{15, 10, 20},
		{3, 0, 0},
	}
	for _, tt := range tests {
		got := Bar(tt.done, tt.total)
		if n := strings.Count(got, ProgressBar); n != tt.filled {
			t.Errorf("Bar(%d, %d) has %d filled cells, want %d", tt.done, tt.total, n, tt.filled)
		}
	}
}

func TestProgressDisplayCounts(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgressDisplay("example.user", false)
	p.SetOutput(&buf)

	p.StageChanged(models.StageExtracting)
	p.PostStarted(models.PostReference{ID: "A"}, 1, 2)
	p.PostFinished(models.PostReference{ID: "A"}, 3, 3, nil)
	p.PostStarted(models.PostReference{ID: "B"}, 2, 2)
	p.PostFinished(models.PostReference{ID: "B"}, 0, 3, errors.New("timeout"))

	st := p.Tracker()
	assert.Equal(t, 2, st.Processed)
	assert.Equal(t, 3, st.Media)
	assert.Equal(t, 1, st.Errors)
	assert.Contains(t, buf.String(), "2/2 posts")
}

type recordingSender struct{ titles []string }

func (r *recordingSender) Send(title, message string) error {
	r.titles = append(r.titles, title)
	return nil
}

func TestNotifierRunFinished(t *testing.T) {
	cfg := config.DefaultConfig().Notifications

	sender := &recordingSender{}
	var buf bytes.Buffer
	NewNotifier(cfg).WithSender(sender, &buf).RunFinished(sampleReport())
	assert.Equal(t, []string{"igharvest finished with errors"}, sender.titles)

	cfg.Enabled = false
	sender = &recordingSender{}
	NewNotifier(cfg).WithSender(sender, &buf).RunFinished(sampleReport())
	assert.Empty(t, sender.titles)

	cfg.Enabled = true
	failed := models.NewRunReport(models.ModeFull)
	failed.Fatal = "not on a profile page"
	sender = &recordingSender{}
	NewNotifier(cfg).WithSender(sender, &buf).RunFinished(failed)
	assert.Equal(t, []string{"igharvest failed"}, sender.titles)
}

func TestFormatHelpers(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.5 KB", FormatBytes(1536))
	assert.Equal(t, "45s", FormatDuration(45e9))
}

func TestPrintHelpers(t *testing.T) {
	var out, errOut bytes.Buffer
	Stdout, Stderr = &out, &errOut
	t.Cleanup(func() { Stdout, Stderr = os.Stdout, os.Stderr })

	PrintInfo("Items", "3 from list.txt")
	PrintWarning("Export archive", "nothing to export")
	PrintError("Error", errors.New("boom"))

	assert.Contains(t, out.String(), "Items")
	assert.Contains(t, out.String(), "3 from list.txt")
	assert.Contains(t, out.String(), "Export archive: nothing to export")
	assert.Contains(t, errOut.String(), "Error: boom")
	assert.NotContains(t, out.String(), "boom")
}
