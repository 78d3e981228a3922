// Package carousel classifies an open post overlay as single or multi-item and
// steps through multi-item posts collecting media at every slide.
package carousel

import (
	"context"
	"sort"
	"time"

	"igharvest/pkg/collector"
	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/overlay"
	"igharvest/pkg/retry"
)

// StopReason says why a walk ended
type StopReason string

const (
	ReasonSingle           StopReason = "single_item"
	ReasonReachedEnd       StopReason = "reached_end"
	ReasonStalled          StopReason = "stalled"
	ReasonNoAdvanceControl StopReason = "advance_control_not_found"
	ReasonBudget           StopReason = "budget_exhausted"
	ReasonCancelled        StopReason = "cancelled"
)

// State is the transient per-session carousel state
type State struct {
	Multi    bool
	Signals  []Signal
	Index    int
	Total    int // 0 when unknown
	Stalls   int
	Attempts int
}

// Result is what one walk produced
type Result struct {
	Media  *models.MediaSet
	State  State
	Steps  []int // media count after each step
	Reason StopReason
}

// Options tune the walk
type Options struct {
	MaxAdvances    int
	StallLimit     int
	StepSettle     time.Duration
	ControlMaxSize float64
	EdgeMargin     float64
}

// OptionsFromConfig maps config onto walker options
func OptionsFromConfig(c config.CarouselConfig, t config.TimingConfig) Options {
	return Options{
		MaxAdvances:    c.MaxAdvances,
		StallLimit:     c.StallLimit,
		StepSettle:     t.StepSettle,
		ControlMaxSize: c.ControlMaxSize,
		EdgeMargin:     c.EdgeMargin,
	}
}

// Walker steps through an open overlay
type Walker struct {
	doc        dom.Document
	loc        dom.Locator
	collector  *collector.Collector
	classifier *Classifier
	opts       Options
	logger     logger.Logger
}

// NewWalker creates a walker
func NewWalker(doc dom.Document, loc dom.Locator, col *collector.Collector, cls *Classifier, opts Options, log logger.Logger) *Walker {
	if opts.StallLimit <= 0 {
		opts.StallLimit = 2
	}
	return &Walker{
		doc:        doc,
		loc:        loc,
		collector:  col,
		classifier: cls,
		opts:       opts,
		logger:     logger.OrDefault(log).WithField("component", "carousel"),
	}
}

// Walk collects the media of the session's post into session.Media. It never
// closes the overlay; the caller owns the session.
func (w *Walker) Walk(ctx context.Context, session *overlay.Session) Result {
	if session.Media == nil {
		session.Media = models.NewMediaSet()
	}
	scope := session.Overlay
	res := Result{Media: session.Media}

	session.Media.Merge(w.collector.Collect(ctx, &scope))
	if ctx.Err() != nil {
		res.Reason = ReasonCancelled
		return res
	}

	cls := w.classifier.Classify(ctx, &scope)
	res.State.Multi = cls.Multi
	res.State.Signals = cls.Fired
	if !cls.Multi {
		res.Reason = ReasonSingle
		w.done(session, res)
		return res
	}

	if idx, total, ok := w.classifier.Position(ctx, &scope); ok {
		res.State.Index, res.State.Total = idx, total
	}
	budget := w.opts.MaxAdvances
	if res.State.Total > 0 && res.State.Total-1 < budget {
		budget = res.State.Total - 1
	}

	for {
		if ctx.Err() != nil {
			res.Reason = ReasonCancelled
			break
		}
		if res.State.Total > 0 && res.State.Index >= res.State.Total-1 {
			res.Reason = ReasonReachedEnd
			break
		}
		if res.State.Attempts >= budget {
			res.Reason = ReasonBudget
			break
		}

		res.State.Attempts++
		added, how, err := w.step(ctx, scope, session.Media)
		if err != nil {
			res.Reason = ReasonCancelled
			break
		}
		if how == "" {
			res.Reason = ReasonNoAdvanceControl
			break
		}
		res.Steps = append(res.Steps, session.Media.Len())

		if added == 0 {
			res.State.Stalls++
		} else {
			res.State.Stalls = 0
			res.State.Index++
		}
		if idx, total, ok := w.classifier.Position(ctx, &scope); ok {
			res.State.Index, res.State.Total = idx, total
		}

		w.logger.DebugWithFields("carousel step", map[string]interface{}{
			"post_id": session.Post.ID,
			"via":     how,
			"added":   added,
			"index":   res.State.Index,
			"total":   res.State.Total,
			"stalls":  res.State.Stalls,
		})

		if res.State.Stalls >= w.opts.StallLimit {
			res.Reason = ReasonStalled
			break
		}
	}

	w.done(session, res)
	return res
}

func (w *Walker) done(session *overlay.Session, res Result) {
	w.logger.DebugWithFields("carousel walk finished", map[string]interface{}{
		"post_id":  session.Post.ID,
		"multi":    res.State.Multi,
		"signals":  res.State.Signals,
		"attempts": res.State.Attempts,
		"media":    res.Media.Len(),
		"reason":   string(res.Reason),
	})
}

// step advances once through the ordered fallbacks. how is empty when no
// fallback produced an advance.
func (w *Walker) step(ctx context.Context, scope dom.Node, media *models.MediaSet) (added int, how string, err error) {
	if control, ok := w.advanceControl(ctx, scope); ok {
		if err := w.doc.Click(ctx, control); err == nil {
			added, err := w.settleAndCollect(ctx, scope, media)
			return added, "control", err
		}
	}

	if err := w.doc.PressKey(ctx, dom.KeyArrowRight); err == nil {
		added, err := w.settleAndCollect(ctx, scope, media)
		if err != nil || added > 0 {
			return added, "key", err
		}
	}

	if target, ok := w.plausibleRegion(ctx, scope); ok {
		if err := w.doc.Click(ctx, target); err == nil {
			added, err := w.settleAndCollect(ctx, scope, media)
			if err != nil || added > 0 {
				return added, "region", err
			}
		}
	}
	return 0, "", ctx.Err()
}

func (w *Walker) settleAndCollect(ctx context.Context, scope dom.Node, media *models.MediaSet) (int, error) {
	if err := retry.Wait(ctx, w.opts.StepSettle); err != nil {
		return 0, err
	}
	return media.Merge(w.collector.Collect(ctx, &scope)), nil
}

// advanceControl returns the smallest next control that is not page-level navigation
func (w *Walker) advanceControl(ctx context.Context, scope dom.Node) (dom.Node, bool) {
	nodes, err := w.loc.Find(ctx, dom.RoleNextControl, &scope)
	if err != nil {
		return dom.Node{}, false
	}
	var ok []dom.Node
	for _, n := range nodes {
		if PlausibleControl(n, scope.Rect, w.opts.ControlMaxSize, w.opts.EdgeMargin) {
			ok = append(ok, n)
		}
	}
	if len(ok) == 0 {
		return dom.Node{}, false
	}
	sort.SliceStable(ok, func(i, j int) bool {
		return ok[i].Rect.Width*ok[i].Rect.Height < ok[j].Rect.Width*ok[j].Rect.Height
	})
	return ok[0], true
}

// plausibleRegion finds a small clickable in the right 30% of the overlay
// within its vertical middle band
func (w *Walker) plausibleRegion(ctx context.Context, scope dom.Node) (dom.Node, bool) {
	b := scope.Rect
	if b.Empty() {
		return dom.Node{}, false
	}
	nodes, err := w.loc.Find(ctx, dom.RoleClickable, &scope)
	if err != nil {
		return dom.Node{}, false
	}
	for _, n := range nodes {
		if instagram.IsCloseLabel(n) || instagram.IsPrevLabel(n) {
			continue
		}
		if !PlausibleControl(n, b, w.opts.ControlMaxSize, w.opts.EdgeMargin) {
			continue
		}
		x, y := n.Rect.Center()
		if x >= b.X+b.Width*0.7 && y >= b.Y+b.Height*0.3 && y <= b.Y+b.Height*0.7 {
			return n, true
		}
	}
	return dom.Node{}, false
}
