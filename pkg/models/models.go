package models

import (
	"time"

	"github.com/google/uuid"
)

// Mode selects how a run collects media
type Mode string

const (
	ModeSmart Mode = "smart" // multi-item posts only
	ModeFull  Mode = "full"
	ModeQuick Mode = "quick" // scroll and collect, no overlays
)

// ParseMode validates a mode name
func ParseMode(s string) (Mode, bool) {
	switch m := Mode(s); m {
	case ModeSmart, ModeFull, ModeQuick:
		return m, true
	}
	return "", false
}

// Stage is the orchestrator's run state
type Stage string

const (
	StageIdle        Stage = "idle"
	StageDiscovering Stage = "discovering"
	StageExtracting  Stage = "extracting"
	StageFinalizing  Stage = "finalizing"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// ErrorRecord is one per-post failure kept in the run report
type ErrorRecord struct {
	PostID  string `json:"post_id"`
	PostURL string `json:"post_url"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// RunReport accumulates everything a collection run produced
type RunReport struct {
	RunID      string          `json:"run_id"`
	Mode       Mode            `json:"mode"`
	Stage      Stage           `json:"stage"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	Discovered int             `json:"discovered"`
	Posts      []PostReference `json:"posts"`
	Media      *MediaSet       `json:"-"`
	Errors     []ErrorRecord   `json:"errors"`
	Skipped    []PostReference `json:"skipped,omitempty"`
	StopReason string          `json:"stop_reason,omitempty"`
	Fatal      string          `json:"fatal,omitempty"`
}

// NewRunReport creates a report for a run starting now
func NewRunReport(mode Mode) *RunReport {
	return &RunReport{
		RunID:     uuid.NewString(),
		Mode:      mode,
		Stage:     StageIdle,
		StartedAt: time.Now(),
		Media:     NewMediaSet(),
	}
}

// RecordError appends a per-post failure
func (r *RunReport) RecordError(post PostReference, errType, message string) {
	r.Errors = append(r.Errors, ErrorRecord{
		PostID:  post.ID,
		PostURL: post.URL,
		Type:    errType,
		Message: message,
	})
}

// URLs returns the aggregate media list in collection order
func (r *RunReport) URLs() []string {
	if r.Media == nil {
		return nil
	}
	return r.Media.Items()
}

// Duration returns how long the run took, or has taken so far
func (r *RunReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return time.Since(r.StartedAt)
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
