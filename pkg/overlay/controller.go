// Package overlay opens a post's overlay from the profile grid and closes it
// again through an ordered list of dismissal strategies.
package overlay

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	errs "igharvest/pkg/errors"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
	"igharvest/pkg/retry"
)

// State is the controller's view of the overlay
type State int

const (
	StateClosed State = iota
	StateOpening
	StateReady
)

func (s State) String() string {
	switch s {
	case StateOpening:
		return "opening"
	case StateReady:
		return "ready"
	default:
		return "closed"
	}
}

// Options holds the controller's waits
type Options struct {
	OpenTimeout   time.Duration
	PollInterval  time.Duration
	OpenSettle    time.Duration
	CloseSettle   time.Duration
	CloseAttempts int
	// CornerSize is the top-right region in which an unlabelled control counts as a close control
	CornerSize float64
	// EscapePresses is how many times the cancellation key is tried per round
	EscapePresses int
}

// OptionsFromConfig maps timing config onto controller options
func OptionsFromConfig(t config.TimingConfig) Options {
	return Options{
		OpenTimeout:   t.OpenTimeout,
		PollInterval:  t.PollInterval,
		OpenSettle:    t.OpenSettle,
		CloseSettle:   t.CloseSettle,
		CloseAttempts: t.CloseAttempts,
		CornerSize:    100,
		EscapePresses: 3,
	}
}

// Session is one open overlay
type Session struct {
	Post     models.PostReference
	Overlay  dom.Node
	OpenedAt time.Time
	Media    *models.MediaSet
}

// Controller is the only component that opens or closes overlays
type Controller struct {
	doc    dom.Document
	loc    dom.Locator
	opts   Options
	logger logger.Logger

	state   State
	current *Session
}

// New creates a controller
func New(doc dom.Document, loc dom.Locator, opts Options, log logger.Logger) *Controller {
	if opts.CloseAttempts <= 0 {
		opts.CloseAttempts = 1
	}
	if opts.EscapePresses <= 0 {
		opts.EscapePresses = 1
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = 100 * time.Millisecond
	}
	return &Controller{
		doc:    doc,
		loc:    loc,
		opts:   opts,
		logger: logger.OrDefault(log).WithField("component", "overlay"),
	}
}

// State returns the current state
func (c *Controller) State() State { return c.state }

// Current returns the open session, or nil
func (c *Controller) Current() *Session { return c.current }

// Open clicks ref's grid link and waits until the overlay shows media
func (c *Controller) Open(ctx context.Context, ref models.PostReference) (*Session, error) {
	if c.state == StateReady {
		return nil, errs.New(errs.ErrorTypeOverlayBusy, "overlay for %s is still open", c.current.Post.ID).ForPost(ref.ID)
	}

	if c.present(ctx) {
		c.logger.WithField("post_id", ref.ID).Warn("Stale overlay present, dismissing")
		c.closeRound(ctx, 1, true)
		if c.present(ctx) {
			return nil, errs.New(errs.ErrorTypeOverlayStuck, "a previous overlay could not be dismissed").ForPost(ref.ID)
		}
	}

	link, err := c.findLink(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := c.doc.ScrollIntoView(ctx, link); err != nil {
		c.logger.WithError(err).Debug("scroll into view failed")
	}
	if err := c.doc.Click(ctx, link); err != nil {
		return nil, errs.Wrap(errs.ErrorTypePostLinkNotFound, err, "post link could not be clicked").ForPost(ref.ID)
	}

	c.state = StateOpening
	c.current = &Session{Post: ref, OpenedAt: time.Now(), Media: models.NewMediaSet()}

	err = retry.Poll(ctx, c.opts.OpenTimeout, c.opts.PollInterval, func(ctx context.Context) (bool, error) {
		return c.ready(ctx), nil
	})
	if err != nil {
		c.Close(ctx)
		if errors.Is(err, retry.ErrPollTimeout) {
			return nil, errs.New(errs.ErrorTypeOverlayOpenTimeout, "overlay did not show media within %s", c.opts.OpenTimeout).ForPost(ref.ID)
		}
		return nil, errs.Wrap(errs.ErrorTypeRunAborted, err, "cancelled while opening").ForPost(ref.ID)
	}

	if err := retry.Wait(ctx, c.opts.OpenSettle); err != nil {
		c.Close(ctx)
		return nil, errs.Wrap(errs.ErrorTypeRunAborted, err, "cancelled while opening").ForPost(ref.ID)
	}

	overlay, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	if !ok {
		c.Close(ctx)
		return nil, errs.New(errs.ErrorTypeOverlayOpenTimeout, "overlay vanished while settling").ForPost(ref.ID)
	}
	c.current.Overlay = overlay
	c.state = StateReady

	c.logger.DebugWithFields("Overlay ready", map[string]interface{}{
		"post_id": ref.ID,
		"elapsed": time.Since(c.current.OpenedAt),
	})
	return c.current, nil
}

// present reports whether any overlay is in the document
func (c *Controller) present(ctx context.Context) bool {
	_, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	return ok
}

// ready reports whether an overlay holds at least one media element with a source
func (c *Controller) ready(ctx context.Context) bool {
	overlay, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	if !ok {
		return false
	}
	media, err := c.loc.Find(ctx, dom.RoleMediaElement, &overlay)
	if err != nil {
		return false
	}
	for _, m := range media {
		if strings.TrimSpace(m.Src) != "" || strings.TrimSpace(m.Attr("src")) != "" || len(dom.ParseBackgroundURLs(m.Background)) > 0 {
			return true
		}
	}
	return false
}

type linkMatcher struct {
	name  string
	match func(href string) bool
}

// findLink tries each matcher on the current grid, then once more after scrolling
func (c *Controller) findLink(ctx context.Context, ref models.PostReference) (dom.Node, error) {
	base, _ := c.doc.URL(ctx)
	resolve := func(href string) string {
		u, err := url.Parse(href)
		if err != nil {
			return href
		}
		if b, err := url.Parse(base); err == nil && !u.IsAbs() {
			u = b.ResolveReference(u)
		}
		return u.String()
	}

	matchers := []linkMatcher{
		{"exact", func(href string) bool { return resolve(href) == ref.URL }},
		{"contains", func(href string) bool {
			for _, kind := range []string{"/p/", "/reel/", "/tv/"} {
				if strings.Contains(href, kind+ref.ID+"/") || strings.HasSuffix(href, kind+ref.ID) {
					return true
				}
			}
			return false
		}},
		{"clean", func(href string) bool { return models.CleanLink(resolve(href)) == models.CleanLink(ref.URL) }},
	}

	for pass := 0; pass < 2; pass++ {
		if pass == 1 {
			if _, err := c.doc.ScrollToBottom(ctx); err != nil {
				break
			}
			if err := retry.Wait(ctx, c.opts.CloseSettle); err != nil {
				return dom.Node{}, errs.Wrap(errs.ErrorTypeRunAborted, err, "cancelled while locating post").ForPost(ref.ID)
			}
		}

		links, err := c.loc.Find(ctx, dom.RolePostLink, nil)
		if err != nil {
			continue
		}
		for _, m := range matchers {
			for _, l := range links {
				if href := l.Attr("href"); href != "" && m.match(href) {
					c.logger.DebugWithFields("Post link located", map[string]interface{}{
						"post_id":  ref.ID,
						"strategy": m.name,
						"scrolled": pass == 1,
					})
					return l, nil
				}
			}
		}
	}
	return dom.Node{}, errs.New(errs.ErrorTypePostLinkNotFound, "no link to %s on the page", ref.URL).ForPost(ref.ID)
}

// Close dismisses the overlay. It is a no-op when nothing is open and never fails;
// an overlay that survives every strategy is logged and caught by the next Open.
func (c *Controller) Close(ctx context.Context) {
	if c.state == StateClosed && c.current == nil {
		return
	}
	// dismissal must still run when the run was cancelled
	ctx = context.WithoutCancel(ctx)

	postID := ""
	if c.current != nil {
		postID = c.current.Post.ID
	}
	defer func() {
		c.state = StateClosed
		c.current = nil
	}()

	if !c.present(ctx) {
		return
	}
	for round := 1; round <= c.opts.CloseAttempts; round++ {
		if c.closeRound(ctx, round, round == c.opts.CloseAttempts) {
			return
		}
	}
	c.logger.WithField("post_id", postID).Warn("Overlay survived every close strategy")
}

type closeStrategy struct {
	name string
	run  func(ctx context.Context) error
}

// closeRound runs the strategies in order and reports whether the overlay is gone.
// History back and forced removal only run on the final round.
func (c *Controller) closeRound(ctx context.Context, round int, final bool) bool {
	strategies := []closeStrategy{
		{"close-control", c.clickCloseControl},
		{"escape", c.pressEscape},
		{"backdrop", c.clickBackdrop},
	}
	if final {
		strategies = append(strategies,
			closeStrategy{"history-back", c.historyBack},
			closeStrategy{"remove", c.removeOverlay},
		)
	}

	for _, s := range strategies {
		if err := s.run(ctx); err != nil {
			logger.LogCloseStrategy(c.logger, s.name, round, false)
			continue
		}
		_ = retry.Wait(ctx, c.opts.CloseSettle)
		if !c.present(ctx) {
			logger.LogCloseStrategy(c.logger, s.name, round, true)
			return true
		}
		logger.LogCloseStrategy(c.logger, s.name, round, false)
	}
	return false
}

var errNotApplicable = errors.New("strategy not applicable")

func (c *Controller) clickCloseControl(ctx context.Context) error {
	overlay, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	if !ok {
		return errNotApplicable
	}
	candidates, err := c.loc.Find(ctx, dom.RoleCloseControl, &overlay)
	if err != nil {
		return err
	}
	for _, n := range candidates {
		if IsDismissControl(n, overlay.Rect, c.opts.CornerSize) {
			return c.doc.Click(ctx, n)
		}
	}
	return errNotApplicable
}

func (c *Controller) pressEscape(ctx context.Context) error {
	for i := 0; i < c.opts.EscapePresses; i++ {
		if err := c.doc.PressKey(ctx, dom.KeyEscape); err != nil {
			return err
		}
		if i < c.opts.EscapePresses-1 {
			_ = retry.Wait(ctx, c.opts.CloseSettle/2)
			if !c.present(ctx) {
				return nil
			}
		}
	}
	return nil
}

// clickBackdrop clicks the first viewport corner outside the overlay
func (c *Controller) clickBackdrop(ctx context.Context) error {
	vp, err := c.doc.Viewport(ctx)
	if err != nil {
		return err
	}
	overlay, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	if !ok {
		return errNotApplicable
	}
	corners := [][2]float64{
		{10, 10},
		{vp.Width - 10, 10},
		{10, vp.Height - 10},
		{vp.Width - 10, vp.Height - 10},
	}
	r := overlay.Rect
	for _, p := range corners {
		inside := p[0] >= r.X && p[0] <= r.Right() && p[1] >= r.Y && p[1] <= r.Bottom()
		if !inside {
			return c.doc.ClickAt(ctx, p[0], p[1])
		}
	}
	return errNotApplicable
}

func (c *Controller) historyBack(ctx context.Context) error {
	current, err := c.doc.URL(ctx)
	if err != nil {
		return err
	}
	if !instagram.IsPostURL(current) {
		return errNotApplicable
	}
	return c.doc.Back(ctx)
}

func (c *Controller) removeOverlay(ctx context.Context) error {
	overlay, ok := dom.First(ctx, c.loc, dom.RoleOverlay, nil)
	if !ok {
		return errNotApplicable
	}
	return c.doc.Remove(ctx, overlay)
}

var (
	navigationTerms = []string{"next", "previous", "prev", "forward", "back", "go to", "siguiente", "anterior"}
	dismissTerms    = []string{"close", "cerrar", "fermer", "schließen"}
)

// IsDismissControl decides whether a close-control candidate really dismisses
// the overlay rather than navigating. Navigation labels are rejected first.
func IsDismissControl(n dom.Node, overlay dom.Rect, corner float64) bool {
	label := strings.ToLower(strings.TrimSpace(n.Label()))
	for _, t := range navigationTerms {
		if strings.Contains(label, t) {
			return false
		}
	}
	for _, t := range dismissTerms {
		if strings.Contains(label, t) {
			return true
		}
	}
	if label == "×" || label == "✕" {
		return true
	}
	if n.Rect.Empty() || overlay.Empty() {
		return false
	}
	return n.Rect.Right() >= overlay.Right()-corner && n.Rect.Y <= overlay.Y+corner
}

// String describes the controller state for logs
func (c *Controller) String() string {
	if c.current == nil {
		return fmt.Sprintf("overlay(%s)", c.state)
	}
	return fmt.Sprintf("overlay(%s, %s)", c.state, c.current.Post.ID)
}
