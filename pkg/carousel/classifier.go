package carousel

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"igharvest/pkg/config"
	"igharvest/pkg/dom"
)

// Signal names one independent multi-item indicator
type Signal string

const (
	SignalMarker         Signal = "marker"
	SignalPairedControls Signal = "paired-controls"
	SignalMultiMedia     Signal = "multi-media"
	SignalPagination     Signal = "pagination"
	SignalSlideTrack     Signal = "slide-track"
)

const (
	largeMediaSide = 200
	trackMinSide   = 300
	minDots        = 2
	maxDots        = 20
	maxPositionLen = 20
)

// Classification is the ensemble verdict and the signals that fired
type Classification struct {
	Multi bool
	Fired []Signal
}

// Classifier decides whether a scope holds a multi-item post. Any single
// enabled signal is enough.
type Classifier struct {
	loc            dom.Locator
	signals        []Signal
	controlMaxSize float64
	edgeMargin     float64
}

// NewClassifier creates a classifier using the configured signal set
func NewClassifier(loc dom.Locator, cfg config.CarouselConfig) *Classifier {
	names := cfg.Signals
	if len(names) == 0 {
		names = config.DefaultSignals
	}
	signals := make([]Signal, 0, len(names))
	for _, n := range names {
		signals = append(signals, Signal(n))
	}
	return &Classifier{
		loc:            loc,
		signals:        signals,
		controlMaxSize: cfg.ControlMaxSize,
		edgeMargin:     cfg.EdgeMargin,
	}
}

// Classify evaluates every enabled signal against scope (an overlay or a grid tile)
func (c *Classifier) Classify(ctx context.Context, scope *dom.Node) Classification {
	var out Classification
	for _, s := range c.signals {
		if c.fires(ctx, s, scope) {
			out.Fired = append(out.Fired, s)
		}
	}
	out.Multi = len(out.Fired) > 0
	return out
}

func (c *Classifier) fires(ctx context.Context, s Signal, scope *dom.Node) bool {
	switch s {
	case SignalMarker:
		return c.count(ctx, dom.RoleCarouselMarker, scope, nil) > 0

	case SignalPairedControls:
		var bounds dom.Rect
		if scope != nil {
			bounds = scope.Rect
		}
		plausible := func(n dom.Node) bool {
			return PlausibleControl(n, bounds, c.controlMaxSize, c.edgeMargin)
		}
		return c.count(ctx, dom.RoleNextControl, scope, plausible)+c.count(ctx, dom.RolePrevControl, scope, plausible) > 0

	case SignalMultiMedia:
		large := func(n dom.Node) bool {
			return n.Rect.Width > largeMediaSide && n.Rect.Height > largeMediaSide
		}
		return c.count(ctx, dom.RoleMediaElement, scope, large) >= 2

	case SignalPagination:
		n := c.count(ctx, dom.RolePaginationIndicator, scope, nil)
		return n >= minDots && n <= maxDots

	case SignalSlideTrack:
		track := func(n dom.Node) bool {
			return dom.ShiftsX(n.Transform) && n.Rect.Width > trackMinSide && n.Rect.Height > trackMinSide
		}
		return c.count(ctx, dom.RoleSlideTrack, scope, track) > 0
	}
	return false
}

func (c *Classifier) count(ctx context.Context, role dom.Role, scope *dom.Node, keep func(dom.Node) bool) int {
	nodes, err := c.loc.Find(ctx, role, scope)
	if err != nil {
		return 0
	}
	if keep == nil {
		return len(nodes)
	}
	n := 0
	for _, node := range nodes {
		if keep(node) {
			n++
		}
	}
	return n
}

// Position estimates the zero-based index and the total from pagination dots
// or an "i / n" text. ok is false when neither is derivable.
func (c *Classifier) Position(ctx context.Context, scope *dom.Node) (index, total int, ok bool) {
	if dots, err := c.loc.Find(ctx, dom.RolePaginationIndicator, scope); err == nil && len(dots) >= minDots && len(dots) <= maxDots {
		for i, d := range dots {
			if isActiveDot(d) {
				return i, len(dots), true
			}
		}
	}

	texts, err := c.loc.Find(ctx, dom.RolePositionText, scope)
	if err != nil {
		return 0, 0, false
	}
	for _, t := range texts {
		if cur, n, ok := ParsePosition(t.Text); ok {
			return cur - 1, n, true
		}
	}
	return 0, 0, false
}

func isActiveDot(n dom.Node) bool {
	if n.Attr("aria-selected") == "true" {
		return true
	}
	v := n.Attr("aria-current")
	return v != "" && v != "false"
}

var positionPattern = regexp.MustCompile(`(\d+)\s*(?:/|of)\s*(\d+)`)

// ParsePosition reads a one-based "i / n" or "i of n" indicator
func ParsePosition(text string) (current, total int, ok bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(text) >= maxPositionLen {
		return 0, 0, false
	}
	m := positionPattern.FindStringSubmatch(text)
	if m == nil {
		return 0, 0, false
	}
	current, _ = strconv.Atoi(m[1])
	total, _ = strconv.Atoi(m[2])
	if current < 1 || total < 1 || current > total {
		return 0, 0, false
	}
	return current, total, true
}

// PlausibleControl accepts small controls away from the left and right edges of
// bounds. Large or edge-hugging controls belong to page-level navigation.
func PlausibleControl(n dom.Node, bounds dom.Rect, maxSize, edgeMargin float64) bool {
	if n.Rect.Empty() {
		return false
	}
	if maxSize > 0 && (n.Rect.Width > maxSize || n.Rect.Height > maxSize) {
		return false
	}
	if bounds.Empty() {
		return true
	}
	return n.Rect.X-bounds.X >= edgeMargin && bounds.Right()-n.Rect.Right() >= edgeMargin
}
