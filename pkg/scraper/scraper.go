package scraper

import (
	"context"
	"fmt"
	"time"

	"igharvest/pkg/carousel"
	"igharvest/pkg/collector"
	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/overlay"
	"igharvest/pkg/ratelimit"
	"igharvest/pkg/retry"
	"igharvest/pkg/ui"
)

// Stop reasons recorded on the run report
const (
	StopCompleted    = "completed"
	StopMediaCeiling = "run_aborted: media ceiling reached"
	StopCancelled    = "run_aborted: cancelled"
)

// Scraper orchestrates one collection run against an open profile page
type Scraper struct {
	doc        dom.Document
	loc        dom.Locator
	overlay    *overlay.Controller
	walker     *carousel.Walker
	classifier *carousel.Classifier
	collector  *collector.Collector
	limiter    ratelimit.Limiter
	config     *config.Config
	reporter   ui.Reporter
	logger     logger.Logger
}

// New wires the run components over doc and loc
func New(doc dom.Document, loc dom.Locator, cfg *config.Config, log logger.Logger) *Scraper {
	log = logger.OrDefault(log)
	col := collector.New(loc, doc, collector.OptionsFromConfig(cfg.Media, false), log)
	cls := carousel.NewClassifier(loc, cfg.Carousel)

	return &Scraper{
		doc:        doc,
		loc:        loc,
		overlay:    overlay.New(doc, loc, overlay.OptionsFromConfig(cfg.Timing), log),
		walker:     carousel.NewWalker(doc, loc, col, cls, carousel.OptionsFromConfig(cfg.Carousel, cfg.Timing), log),
		classifier: cls,
		collector:  col,
		limiter:    ratelimit.PerMinute(cfg.Collection.ActionsPerMinute),
		config:     cfg,
		reporter:   ui.NopReporter{},
		logger:     log.WithField("component", "scraper"),
	}
}

// SetReporter sets where progress is reported
func (s *Scraper) SetReporter(r ui.Reporter) {
	if r == nil {
		r = ui.NopReporter{}
	}
	s.reporter = r
}

// Run performs a full collection run. Per-post failures are recorded on the
// report; only precondition failures are returned as errors, together with a
// report that has an empty media set.
func (s *Scraper) Run(ctx context.Context, mode models.Mode) (*models.RunReport, error) {
	report := models.NewRunReport(mode)
	logger.LogComponentStart(s.logger, "run", map[string]interface{}{
		"run_id":    report.RunID,
		"mode":      string(mode),
		"max_posts": s.config.Collection.MaxPosts,
		"max_media": s.config.Collection.MaxMedia,
	})

	page, err := s.doc.URL(ctx)
	if err != nil {
		return s.fail(report, errs.Wrap(errs.ErrorTypePrecondition, err, "page URL unavailable"))
	}
	if !instagram.IsProfileURL(page) {
		return s.fail(report, errs.New(errs.ErrorTypePrecondition, "not on a profile page: %s", page))
	}

	if mode == models.ModeQuick {
		s.setStage(report, models.StageExtracting)
		s.quick(ctx, report)
		return s.finish(report), nil
	}

	s.setStage(report, models.StageDiscovering)
	refs := s.discover(ctx, report, mode)
	if ctx.Err() != nil && len(refs) == 0 {
		report.StopReason = StopCancelled
		return s.finish(report), nil
	}
	if len(refs) == 0 {
		return s.fail(report, errs.New(errs.ErrorTypePrecondition, "no posts found on %s", page))
	}

	s.setStage(report, models.StageExtracting)
	s.extract(ctx, report, refs)
	return s.finish(report), nil
}

// Discover scrolls the profile grid and returns unique post references for mode
func (s *Scraper) Discover(ctx context.Context, mode models.Mode) []models.PostReference {
	return s.discover(ctx, models.NewRunReport(mode), mode)
}

func (s *Scraper) discover(ctx context.Context, report *models.RunReport, mode models.Mode) []models.PostReference {
	c := s.config.Collection
	target := c.TargetPosts
	prefilter := false
	if mode == models.ModeSmart {
		target = c.SmartTargetPosts
		prefilter = c.SmartPreFilter
	}

	base, _ := s.doc.URL(ctx)
	_ = s.doc.ScrollToTop(ctx)
	lastHeight, _ := s.doc.ScrollHeight(ctx)

	seen := make(map[string]bool)
	var refs []models.PostReference
	noGrowth := 0

scrolling:
	for scroll := 0; scroll < c.MaxScrolls; scroll++ {
		links, err := s.loc.Find(ctx, dom.RolePostLink, nil)
		if err != nil && ctx.Err() != nil {
			break
		}

		fresh := 0
		for i := range links {
			ref, err := models.ParsePostReference(links[i].Attr("href"), base)
			if err != nil || seen[ref.ID] {
				continue
			}
			seen[ref.ID] = true
			fresh++
			report.Discovered++

			if prefilter && !s.classifier.Classify(ctx, &links[i]).Multi {
				continue
			}
			refs = append(refs, ref)
			if len(refs) >= target {
				break scrolling
			}
		}
		s.reporter.PostsDiscovered(len(refs), target)

		height, err := s.doc.ScrollToBottom(ctx)
		if err != nil {
			s.logger.WithError(err).Warn("Scroll failed, ending discovery")
			break
		}
		if err := retry.Pause(ctx, s.config.Timing.ScrollDelayMin, s.config.Timing.ScrollDelayMax); err != nil {
			break
		}

		if fresh == 0 && height <= lastHeight {
			noGrowth++
		} else {
			noGrowth = 0
		}
		lastHeight = height
		if noGrowth >= c.NoGrowthLimit {
			break
		}
	}

	s.reporter.PostsDiscovered(len(refs), target)
	_ = s.doc.ScrollToTop(context.WithoutCancel(ctx))

	s.logger.InfoWithFields("Discovery finished", map[string]interface{}{
		"run_id":     report.RunID,
		"discovered": report.Discovered,
		"accepted":   len(refs),
		"target":     target,
		"prefilter":  prefilter,
	})
	return refs
}

func (s *Scraper) extract(ctx context.Context, report *models.RunReport, refs []models.PostReference) {
	c := s.config.Collection
	limit := len(refs)
	if c.MaxPosts > 0 && c.MaxPosts < limit {
		limit = c.MaxPosts
	}

	for i, ref := range refs[:limit] {
		if ctx.Err() != nil {
			report.StopReason = StopCancelled
			return
		}
		if err := s.limiter.Wait(ctx); err != nil {
			report.StopReason = StopCancelled
			return
		}

		s.reporter.PostStarted(ref, i+1, limit)
		added, err := s.processPost(ctx, report, ref)
		report.Posts = append(report.Posts, ref)
		if err != nil {
			report.RecordError(ref, string(errs.TypeOf(err)), err.Error())
		}
		s.reporter.PostFinished(ref, added, report.Media.Len(), err)
		logger.LogPostResult(s.logger, ref.ID, i+1, limit, added, err)

		if c.MaxMedia > 0 && report.Media.Len() >= c.MaxMedia {
			break
		}
		if i < limit-1 {
			if err := retry.Pause(ctx, s.config.Timing.PostDelayMin, s.config.Timing.PostDelayMax); err != nil {
				report.StopReason = StopCancelled
				return
			}
		}
	}

	if c.MaxMedia > 0 && report.Media.Len() >= c.MaxMedia {
		report.Media.Truncate(c.MaxMedia)
		report.StopReason = StopMediaCeiling
	}
}

// processPost runs open, walk and close for one post and merges the result
func (s *Scraper) processPost(ctx context.Context, report *models.RunReport, ref models.PostReference) (int, error) {
	session, err := s.overlay.Open(ctx, ref)
	if err != nil {
		return 0, err
	}
	defer s.overlay.Close(ctx)

	res := s.walker.Walk(ctx, session)
	if report.Mode == models.ModeSmart && !res.State.Multi {
		report.Skipped = append(report.Skipped, ref)
		return 0, nil
	}

	added := report.Media.Merge(res.Media)
	if added == 0 {
		return 0, errs.New(errs.ErrorTypeNoMediaFound, "no new media (walk ended: %s)", res.Reason).ForPost(ref.ID)
	}
	return added, nil
}

// quick scrolls the whole page collecting media without opening any overlay
func (s *Scraper) quick(ctx context.Context, report *models.RunReport) {
	c := s.config.Collection
	col := s.collector.WithOptions(collector.OptionsFromConfig(s.config.Media, true))

	_ = s.doc.ScrollToTop(ctx)
	lastHeight, _ := s.doc.ScrollHeight(ctx)

	for scroll := 0; scroll < c.QuickMaxScrolls; scroll++ {
		if ctx.Err() != nil {
			report.StopReason = StopCancelled
			return
		}
		report.Media.Merge(col.Collect(ctx, nil))
		s.reporter.PostsDiscovered(report.Media.Len(), c.QuickMediaCap)
		if c.QuickMediaCap > 0 && report.Media.Len() >= c.QuickMediaCap {
			report.Media.Truncate(c.QuickMediaCap)
			report.StopReason = StopMediaCeiling
			return
		}

		height, err := s.doc.ScrollToBottom(ctx)
		if err != nil {
			break
		}
		if err := retry.Pause(ctx, s.config.Timing.QuickDelayMin, s.config.Timing.QuickDelayMax); err != nil {
			report.StopReason = StopCancelled
			return
		}
		if height <= lastHeight {
			break
		}
		lastHeight = height
	}
}

func (s *Scraper) setStage(report *models.RunReport, stage models.Stage) {
	logger.LogStage(s.logger, report.RunID, string(report.Stage), string(stage))
	report.Stage = stage
	s.reporter.StageChanged(stage)
}

func (s *Scraper) finish(report *models.RunReport) *models.RunReport {
	s.setStage(report, models.StageFinalizing)
	if report.StopReason == "" {
		report.StopReason = StopCompleted
	}
	report.FinishedAt = time.Now()
	s.setStage(report, models.StageDone)
	logger.LogComponentStop(s.logger, "run", fmt.Sprintf("%s: %d media, %d errors", report.StopReason, report.Media.Len(), len(report.Errors)))
	return report
}

func (s *Scraper) fail(report *models.RunReport, err *errs.Error) (*models.RunReport, error) {
	report.Fatal = err.Error()
	report.Media = models.NewMediaSet()
	report.FinishedAt = time.Now()
	s.setStage(report, models.StageFailed)
	s.reporter.LogError("%s", err.Error())
	s.logger.WithError(err).Error("Run failed")
	return report, err
}
