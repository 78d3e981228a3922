package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"igharvest/pkg/models"
)

// ProgressDisplay is the console Reporter: one redrawn status line, with
// per-post lines in debug mode
type ProgressDisplay struct {
	mu      sync.Mutex
	out     io.Writer
	profile string
	tracker *StatusTracker
	isDebug bool
}

// NewProgressDisplay creates a console display for a run against profile
func NewProgressDisplay(profile string, debug bool) *ProgressDisplay {
	return &ProgressDisplay{
		out:     os.Stderr,
		profile: profile,
		tracker: NewStatusTracker(),
		isDebug: debug,
	}
}

// SetOutput redirects the display
func (p *ProgressDisplay) SetOutput(w io.Writer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out = w
}

// Tracker returns a copy of the current counters
func (p *ProgressDisplay) Tracker() StatusTracker {
	p.mu.Lock()
	defer p.mu.Unlock()
	return *p.tracker
}

func (p *ProgressDisplay) StageChanged(stage models.Stage) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Stage = string(stage)
	if p.isDebug {
		fmt.Fprintf(p.out, "\n%s %s\n", Magenta("→"), stage)
	}
}

func (p *ProgressDisplay) PostsDiscovered(found, target int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Discovered, p.tracker.Target = found, target
	p.printProgress()
}

func (p *ProgressDisplay) PostStarted(ref models.PostReference, index, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Current = ref.ID
	p.tracker.Total = total
	if !p.isDebug {
		p.printProgress()
	}
}

func (p *ProgressDisplay) PostFinished(ref models.PostReference, added, media int, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Processed++
	p.tracker.Media = media
	p.tracker.Current = ""
	if err != nil {
		p.tracker.Errors++
	}

	if !p.isDebug {
		p.printProgress()
		return
	}
	if err != nil {
		fmt.Fprintf(p.out, "%s %s • %v\n", Red("✗"), ref.ID, err)
	} else {
		fmt.Fprintf(p.out, "%s %s • +%d • %s\n", Green("✓"), ref.ID, added, Dim(fmt.Sprintf("%d total", media)))
	}
}

func (p *ProgressDisplay) ExportProgress(format string, done, failed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.tracker.Stage = "exporting"
	p.tracker.ExportFormat = format
	p.tracker.ExportDone, p.tracker.ExportFailed, p.tracker.ExportTotal = done, failed, total
	p.printProgress()
}

func (p *ProgressDisplay) LogInfo(format string, args ...interface{}) {
	p.println(Cyan("•"), fmt.Sprintf(format, args...))
}

func (p *ProgressDisplay) LogSuccess(format string, args ...interface{}) {
	p.println(Green("✓"), fmt.Sprintf(format, args...))
}

func (p *ProgressDisplay) LogWarning(format string, args ...interface{}) {
	p.println(Yellow("⚠"), fmt.Sprintf(format, args...))
}

func (p *ProgressDisplay) LogError(format string, args ...interface{}) {
	p.println(Red("✗"), fmt.Sprintf(format, args...))
}

func (p *ProgressDisplay) println(prefix, msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "\n%s %s\n", prefix, msg)
}

// printProgress redraws the status line
func (p *ProgressDisplay) printProgress() {
	line := Cyan(p.profile) + " " + p.tracker.Line()
	fmt.Fprintf(p.out, "\r%s\r%s", strings.Repeat(" ", 120), line)
}

// Complete prints the run summary
func (p *ProgressDisplay) Complete(report *models.RunReport) {
	p.mu.Lock()
	defer p.mu.Unlock()

	elapsed := report.Duration()
	fmt.Fprintf(p.out, "\n\n%s Collected %d media from %d posts of %s\n",
		Green("✓"),
		report.Media.Len(),
		len(report.Posts),
		p.profile,
	)
	fmt.Fprintf(p.out, "  %s %s mode in %s\n", Dim("•"), report.Mode, FormatDuration(elapsed))
	if len(report.Errors) > 0 {
		fmt.Fprintf(p.out, "  %s %d posts failed\n", Dim("•"), len(report.Errors))
	}
	if report.StopReason != "" {
		fmt.Fprintf(p.out, "  %s stopped: %s\n", Dim("•"), report.StopReason)
	}
}

// FormatDuration formats a duration in a human-readable way
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	}
	return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
}

// FormatBytes formats bytes in a human-readable way
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

var _ Reporter = (*ProgressDisplay)(nil)
