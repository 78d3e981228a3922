// Package collector gathers media URLs from the page.
package collector

import (
	"context"
	"net/url"
	"strings"

	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	"igharvest/pkg/logger"
	"igharvest/pkg/models"
)

// Options are the acceptance filters applied to every candidate
type Options struct {
	// MinDimension is compared with the smaller rendered side, or the natural
	// size when the element has no layout box
	MinDimension float64
	DenyPatterns []string
	// AllowedHosts, when non-empty, requires the host to contain one entry
	AllowedHosts []string
}

// OptionsFromConfig builds options for normal or quick collection
func OptionsFromConfig(cfg config.MediaConfig, quick bool) Options {
	min := cfg.MinDimension
	if quick {
		min = cfg.QuickMinDimension
	}
	return Options{
		MinDimension: min,
		DenyPatterns: cfg.DenyPatterns,
		AllowedHosts: cfg.AllowedHosts,
	}
}

// PageURLer reports the current page URL for resolving relative sources
type PageURLer interface {
	URL(ctx context.Context) (string, error)
}

// Collector extracts media URLs from the elements a Locator reports
type Collector struct {
	loc    dom.Locator
	page   PageURLer
	opts   Options
	logger logger.Logger
}

// New creates a collector
func New(loc dom.Locator, page PageURLer, opts Options, log logger.Logger) *Collector {
	return &Collector{
		loc:    loc,
		page:   page,
		opts:   opts,
		logger: logger.OrDefault(log).WithField("component", "collector"),
	}
}

// WithOptions returns a copy using different filters
func (c *Collector) WithOptions(opts Options) *Collector {
	cp := *c
	cp.opts = opts
	return &cp
}

// Collect returns the accepted media under scope (nil for the whole page).
// It never fails: lookup errors and unusable elements are skipped.
func (c *Collector) Collect(ctx context.Context, scope *dom.Node) *models.MediaSet {
	set := models.NewMediaSet()

	nodes, err := c.loc.Find(ctx, dom.RoleMediaElement, scope)
	if err != nil {
		c.logger.WithError(err).Debug("media lookup failed")
		return set
	}

	base := c.baseURL(ctx)
	rejected := 0
	for _, n := range nodes {
		for _, raw := range c.sources(n) {
			resolved, ok := c.accept(raw, base)
			if !ok {
				rejected++
				continue
			}
			set.Add(resolved)
		}
	}

	c.logger.DebugWithFields("collected media", map[string]interface{}{
		"candidates": len(nodes),
		"accepted":   set.Len(),
		"rejected":   rejected,
	})
	return set
}

func (c *Collector) baseURL(ctx context.Context) *url.URL {
	if c.page == nil {
		return nil
	}
	raw, err := c.page.URL(ctx)
	if err != nil {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}

// sources returns the candidate URLs an element carries after the size rule
func (c *Collector) sources(n dom.Node) []string {
	var out []string
	switch n.Tag {
	case "img":
		if src := firstNonEmpty(n.Src, n.Attr("src")); src != "" && c.bigEnough(n) {
			out = append(out, src)
		}
	case "video", "source":
		if src := firstNonEmpty(n.Src, n.Attr("src")); src != "" {
			out = append(out, src)
		}
	}
	if bg := n.Background; bg != "" && c.bigEnough(n) {
		out = append(out, dom.ParseBackgroundURLs(bg)...)
	}
	return out
}

func (c *Collector) bigEnough(n dom.Node) bool {
	side := n.Rect.MinSide()
	if n.Rect.Empty() {
		side = n.NaturalWidth
		if n.NaturalHeight < side {
			side = n.NaturalHeight
		}
	}
	return side >= c.opts.MinDimension
}

// accept resolves raw against base and applies the scheme, deny and host rules
func (c *Collector) accept(raw string, base *url.URL) (string, bool) {
	raw = strings.TrimSpace(raw)
	lower := strings.ToLower(raw)
	if raw == "" || strings.HasPrefix(lower, "data:") || strings.HasPrefix(lower, "blob:") {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	if !u.IsAbs() {
		if base == nil {
			return "", false
		}
		u = base.ResolveReference(u)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}

	resolved := u.String()
	lowerResolved := strings.ToLower(resolved)
	for _, p := range c.opts.DenyPatterns {
		if p != "" && strings.Contains(lowerResolved, strings.ToLower(p)) {
			return "", false
		}
	}
	if len(c.opts.AllowedHosts) > 0 {
		host := strings.ToLower(u.Host)
		allowed := false
		for _, h := range c.opts.AllowedHosts {
			if h != "" && strings.Contains(host, strings.ToLower(h)) {
				allowed = true
				break
			}
		}
		if !allowed {
			return "", false
		}
	}
	return resolved, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}
