package carousel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"igharvest/internal/domtest"
	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	"igharvest/pkg/instagram"
	"igharvest/pkg/logger"
)

func TestParsePosition(t *testing.T) {
	tests := []struct {
		text    string
		current int
		total   int
		ok      bool
	}{
		{"2 / 5", 2, 5, true},
		{"1/3", 1, 3, true},
		{"3 of 4", 3, 4, true},
		{" 4 of 4 ", 4, 4, true},
		{"6 / 5", 0, 0, false},
		{"0 / 5", 0, 0, false},
		{"Liked by 1/3 of followers", 0, 0, false},
		{"photo", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			current, total, ok := ParsePosition(tt.text)
			if ok != tt.ok || current != tt.current || total != tt.total {
				t.Errorf("ParsePosition(%q) = %d, %d, %v; want %d, %d, %v",
					tt.text, current, total, ok, tt.current, tt.total, tt.ok)
			}
		})
	}
}

func TestPlausibleControl(t *testing.T) {
	bounds := domtest.OverlayRect
	tests := []struct {
		name string
		rect dom.Rect
		want bool
	}{
		{"small centered", domtest.NextRect, true},
		{"at right edge", domtest.PostNavRect, false},
		{"at left edge", domtest.PrevRect, false},
		{"too large", dom.Rect{X: 400, Y: 200, Width: 300, Height: 40}, false},
		{"hidden", dom.Rect{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PlausibleControl(dom.Node{Rect: tt.rect}, bounds, 100, 50)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyGridTiles(t *testing.T) {
	ctx := context.Background()
	site := domtest.NewSite(3, 1, 2)
	site.Posts[2].NoMarker = true
	cls := NewClassifier(site, config.DefaultConfig().Carousel)

	links, err := site.Find(ctx, dom.RolePostLink, nil)
	assert.NoError(t, err)
	assert.Len(t, links, 3)

	var multi []bool
	for i := range links {
		multi = append(multi, cls.Classify(ctx, &links[i]).Multi)
	}
	// the third tile is a carousel without a grid marker: a known false negative
	assert.Equal(t, []bool{true, false, false}, multi)
}

func TestClassifyOverlaySignals(t *testing.T) {
	ctx := context.Background()
	site := domtest.NewSite(3)
	site.ShowDots = true
	site.ShowTrack = true
	site.Preload = true
	site.OpenStale(0)
	overlay, _ := dom.First(ctx, site, dom.RoleOverlay, nil)

	got := NewClassifier(site, config.DefaultConfig().Carousel).Classify(ctx, &overlay)

	assert.True(t, got.Multi)
	assert.Equal(t, []Signal{SignalPairedControls, SignalMultiMedia, SignalPagination, SignalSlideTrack}, got.Fired)
}

func TestPositionFromIndicators(t *testing.T) {
	ctx := context.Background()
	site := domtest.NewSite(4)
	site.ShowPosition = true
	site.OpenStale(0)
	overlay, _ := dom.First(ctx, site, dom.RoleOverlay, nil)
	cls := NewClassifier(site, config.DefaultConfig().Carousel)

	idx, total, ok := cls.Position(ctx, &overlay)
	assert.True(t, ok)
	assert.Equal(t, 0, idx)
	assert.Equal(t, 4, total)

	site.ShowPosition = false
	_, _, ok = cls.Position(ctx, &overlay)
	assert.False(t, ok)
}

type trackPage struct{ track dom.Node }

func (p trackPage) Query(ctx context.Context, scope *dom.Node, css string) ([]dom.Node, error) {
	return []dom.Node{p.track}, nil
}

func TestClassifySlideTrackFromComputedStyle(t *testing.T) {
	cfg := config.DefaultConfig().Carousel
	cfg.Signals = []string{string(SignalSlideTrack)}
	page := trackPage{track: dom.Node{
		Handle:    "track",
		Tag:       "ul",
		Rect:      dom.Rect{Width: 1800, Height: 600},
		Transform: "matrix(1, 0, 0, 1, -600, 0)",
	}}
	cls := NewClassifier(instagram.NewLocator(page, logger.NewNopLogger()), cfg)

	got := cls.Classify(context.Background(), nil)
	assert.True(t, got.Multi)
	assert.Equal(t, []Signal{SignalSlideTrack}, got.Fired)

	page.track.Transform = "none"
	cls = NewClassifier(instagram.NewLocator(page, logger.NewNopLogger()), cfg)
	assert.False(t, cls.Classify(context.Background(), nil).Multi)
}
