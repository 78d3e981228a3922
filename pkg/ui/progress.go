package ui

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProgressBar   = "━"
	ProgressEmpty = "─"
	barWidth      = 20
)

// StatusTracker keeps the counters of one run
type StatusTracker struct {
	Stage      string
	Discovered int
	Target     int
	Processed  int
	Total      int
	Media      int
	Errors     int
	Current    string
	StartTime  time.Time

	ExportFormat string
	ExportDone   int
	ExportFailed int
	ExportTotal  int
}

// NewStatusTracker creates a new status tracker
func NewStatusTracker() *StatusTracker {
	return &StatusTracker{
		StartTime: time.Now(),
	}
}

// GetElapsedTime returns the elapsed time since tracking started
func (st *StatusTracker) GetElapsedTime() time.Duration {
	return time.Since(st.StartTime)
}

// GetPostRate returns processed posts per minute
func (st *StatusTracker) GetPostRate() float64 {
	elapsed := st.GetElapsedTime().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Processed) / elapsed
}

// Bar renders done/total as a fixed-width bar
func Bar(done, total int) string {
	filled := 0
	if total > 0 {
		filled = done * barWidth / total
	}
	filled = max(0, min(filled, barWidth))
	return strings.Repeat(ProgressBar, filled) + strings.Repeat(ProgressEmpty, barWidth-filled)
}

// Line renders the single status line for the current stage
func (st *StatusTracker) Line() string {
	switch st.Stage {
	case "discovering":
		return fmt.Sprintf("%s [%s] %d/%d posts", Magenta("[DISCOVERING]"), Bar(st.Discovered, st.Target), st.Discovered, st.Target)
	case "exporting":
		line := fmt.Sprintf("%s %s [%s] %d/%d", Magenta("[EXPORTING]"), st.ExportFormat, Bar(st.ExportDone+st.ExportFailed, st.ExportTotal), st.ExportDone+st.ExportFailed, st.ExportTotal)
		if st.ExportFailed > 0 {
			line += " • " + Red(fmt.Sprintf("%d failed", st.ExportFailed))
		}
		return line
	}
	line := fmt.Sprintf("%s [%s] %d/%d posts • %d media • %.1f/min",
		Green("[EXTRACTING]"), Bar(st.Processed, st.Total), st.Processed, st.Total, st.Media, st.GetPostRate())
	if st.Current != "" {
		line += " • " + st.Current
	}
	if st.Errors > 0 {
		line += " • " + Red(fmt.Sprintf("%d errors", st.Errors))
	}
	return line
}
