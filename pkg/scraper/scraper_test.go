package scraper

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/internal/domtest"
	"igharvest/pkg/config"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/ui"
)

// testConfig keeps every wait in the millisecond range
func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Collection.ActionsPerMinute = 0
	cfg.Timing = config.TimingConfig{
		OpenTimeout:   50 * time.Millisecond,
		PollInterval:  2 * time.Millisecond,
		OpenSettle:    time.Millisecond,
		CloseSettle:   time.Millisecond,
		CloseAttempts: 2,
		StepSettle:    time.Millisecond,
	}
	return cfg
}

func newScraper(site *domtest.Site, cfg *config.Config) *Scraper {
	return New(site, site, cfg, logger.NewNopLogger())
}

func slides(id string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = domtest.SlideURL(id, i)
	}
	return out
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// recorder is a Reporter that keeps stages and can run a hook after each post
type recorder struct {
	ui.NopReporter
	mu        sync.Mutex
	stages    []models.Stage
	finished  []string
	afterPost func()
}

func (r *recorder) StageChanged(stage models.Stage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, stage)
}

func (r *recorder) PostFinished(ref models.PostReference, added, media int, err error) {
	r.mu.Lock()
	r.finished = append(r.finished, ref.ID)
	hook := r.afterPost
	r.mu.Unlock()
	if hook != nil {
		hook()
	}
}

func TestRunFullMode(t *testing.T) {
	site := domtest.NewSite(3, 1, 2)
	s := newScraper(site, testConfig())
	rec := &recorder{}
	s.SetReporter(rec)

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)

	assert.Equal(t, concat(slides("POST001", 3), slides("POST002", 1), slides("POST003", 2)), report.URLs())
	assert.Len(t, report.Posts, 3)
	assert.Equal(t, 3, report.Discovered)
	assert.Empty(t, report.Errors)
	assert.Equal(t, models.StageDone, report.Stage)
	assert.Equal(t, StopCompleted, report.StopReason)
	assert.False(t, report.FinishedAt.IsZero())
	assert.Equal(t, []models.Stage{
		models.StageDiscovering, models.StageExtracting, models.StageFinalizing, models.StageDone,
	}, rec.stages)
	assert.Equal(t, 3, site.Opens())
	assert.False(t, site.IsOpen())
}

func TestRunSmartModePreFilter(t *testing.T) {
	site := domtest.NewSite(3, 1, 2)
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeSmart)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST001", "POST003"}, ids(report.Posts))
	assert.Equal(t, concat(slides("POST001", 3), slides("POST003", 2)), report.URLs())
	assert.Equal(t, 2, site.Opens(), "single-item tiles are never opened")
}

func TestRunSmartModeWithoutPreFilter(t *testing.T) {
	site := domtest.NewSite(3, 1, 2)
	cfg := testConfig()
	cfg.Collection.SmartPreFilter = false
	s := newScraper(site, cfg)

	report, err := s.Run(context.Background(), models.ModeSmart)
	require.NoError(t, err)

	assert.Equal(t, []string{"POST002"}, ids(report.Skipped))
	assert.Equal(t, concat(slides("POST001", 3), slides("POST003", 2)), report.URLs())
	assert.Empty(t, report.Errors)
}

func TestRunQuickMode(t *testing.T) {
	site := domtest.NewSite(make([]int, 30)...)
	for i := range site.Posts {
		site.Posts[i].Slides = 1
	}
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeQuick)
	require.NoError(t, err)

	assert.Equal(t, 30, report.Media.Len())
	assert.Contains(t, report.URLs(), domtest.GridURL("POST030"))
	assert.NotContains(t, report.URLs(), "https://scontent.cdninstagram.com/v/t51.2885-19/profile_pic.jpg")
	assert.Zero(t, site.Opens())
}

func TestRunQuickModeCap(t *testing.T) {
	site := domtest.NewSite(1, 1, 1, 1, 1)
	cfg := testConfig()
	cfg.Collection.QuickMediaCap = 3
	s := newScraper(site, cfg)

	report, err := s.Run(context.Background(), models.ModeQuick)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Media.Len())
	assert.Equal(t, StopMediaCeiling, report.StopReason)
}

func TestRunPreconditionNotProfile(t *testing.T) {
	site := domtest.NewSite(2)
	site.OpenStale(0) // the page shows a post URL
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeFull)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypePrecondition))
	assert.Equal(t, models.StageFailed, report.Stage)
	assert.NotEmpty(t, report.Fatal)
	assert.Equal(t, 0, report.Media.Len())
}

func TestRunPreconditionNoPosts(t *testing.T) {
	site := domtest.NewSite()
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeFull)
	require.Error(t, err)
	assert.True(t, errs.IsType(err, errs.ErrorTypePrecondition))
	assert.Equal(t, models.StageFailed, report.Stage)
	assert.Empty(t, report.URLs())
}

func TestRunRecordsOpenTimeoutAndContinues(t *testing.T) {
	site := domtest.NewSite(2, 1, 1)
	site.Posts[1].NeverReady = true
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, "POST002", report.Errors[0].PostID)
	assert.Equal(t, string(errs.ErrorTypeOverlayOpenTimeout), report.Errors[0].Type)
	assert.Len(t, report.Posts, 3)
	assert.Equal(t, concat(slides("POST001", 2), slides("POST003", 1)), report.URLs())
}

func TestRunRecordsStuckOverlay(t *testing.T) {
	site := domtest.NewSite(1, 1)
	site.Stuck = true
	site.RemoveIgnored = true
	s := newScraper(site, testConfig())

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)

	require.Len(t, report.Errors, 1)
	assert.Equal(t, string(errs.ErrorTypeOverlayStuck), report.Errors[0].Type)
	assert.Equal(t, slides("POST001", 1), report.URLs())
}

func TestRunStopsAtMediaCeiling(t *testing.T) {
	site := domtest.NewSite(3, 3, 3)
	cfg := testConfig()
	cfg.Collection.MaxMedia = 4
	s := newScraper(site, cfg)

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)

	assert.Len(t, report.Posts, 2)
	assert.Equal(t, 4, report.Media.Len())
	assert.Equal(t, StopMediaCeiling, report.StopReason)
}

func TestRunCeilingSkipsPostDelay(t *testing.T) {
	site := domtest.NewSite(3, 3)
	cfg := testConfig()
	cfg.Collection.MaxMedia = 3
	cfg.Timing.PostDelayMin = 5 * time.Second
	cfg.Timing.PostDelayMax = 5 * time.Second
	s := newScraper(site, cfg)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	report, err := s.Run(ctx, models.ModeFull)
	require.NoError(t, err)

	assert.Equal(t, StopMediaCeiling, report.StopReason)
	assert.Len(t, report.Posts, 1)
	assert.Less(t, time.Since(start), time.Second)
}

type countingLimiter struct{ waits int }

func (l *countingLimiter) Allow() bool { return true }
func (l *countingLimiter) Reset()      {}
func (l *countingLimiter) Wait(ctx context.Context) error {
	l.waits++
	return ctx.Err()
}

func TestRunPacesOncePerPost(t *testing.T) {
	site := domtest.NewSite(3, 1, 2)
	s := newScraper(site, testConfig())
	lim := &countingLimiter{}
	s.limiter = lim

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)
	assert.Len(t, report.Posts, 3)
	assert.Equal(t, 3, lim.waits, "carousel advances are not rate limited")
}

func TestRunHonoursMaxPosts(t *testing.T) {
	site := domtest.NewSite(1, 1, 1, 1)
	cfg := testConfig()
	cfg.Collection.MaxPosts = 2
	s := newScraper(site, cfg)

	report, err := s.Run(context.Background(), models.ModeFull)
	require.NoError(t, err)
	assert.Len(t, report.Posts, 2)
	assert.Equal(t, 2, site.Opens())
}

func TestRunCancelledKeepsPartialResults(t *testing.T) {
	site := domtest.NewSite(2, 2, 2)
	s := newScraper(site, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.SetReporter(&recorder{afterPost: cancel})

	report, err := s.Run(ctx, models.ModeFull)
	require.NoError(t, err)

	assert.Equal(t, StopCancelled, report.StopReason)
	assert.Len(t, report.Posts, 1)
	assert.Equal(t, slides("POST001", 2), report.URLs())
	assert.False(t, site.IsOpen())
}

func TestDiscoverStopsAtTarget(t *testing.T) {
	tests := []struct {
		name  string
		posts int
		want  int
	}{
		{"exactly the target", 500, 500},
		{"more than the target", 600, 500},
		{"fewer than the target", 30, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			site := domtest.NewSite(make([]int, tt.posts)...)
			s := newScraper(site, testConfig())

			refs := s.Discover(context.Background(), models.ModeFull)

			assert.Len(t, refs, tt.want)
			seen := make(map[string]bool)
			for _, r := range refs {
				assert.False(t, seen[r.ID], "duplicate %s", r.ID)
				seen[r.ID] = true
			}
		})
	}
}

func TestDiscoverEndsAfterTwoIdleScrolls(t *testing.T) {
	site := domtest.NewSite(1, 1, 1)
	s := newScraper(site, testConfig())

	refs := s.Discover(context.Background(), models.ModeFull)

	assert.Len(t, refs, 3)
	assert.Equal(t, 3, site.CountActions("scroll-bottom"))
}

func ids(refs []models.PostReference) []string {
	var out []string
	for _, r := range refs {
		out = append(out, r.ID)
	}
	return out
}
