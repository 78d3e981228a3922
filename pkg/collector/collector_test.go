package collector

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/internal/domtest"
	"igharvest/pkg/config"
	"igharvest/pkg/dom"
	"igharvest/pkg/logger"
)

type fixedURL string

func (f fixedURL) URL(ctx context.Context) (string, error) { return string(f), nil }

func defaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Media, false)
}

func img(handle, src string, w, h float64) dom.Node {
	return dom.Node{Handle: handle, Tag: "img", Src: src, Rect: dom.Rect{Width: w, Height: h}}
}

func TestCollectFilters(t *testing.T) {
	nodes := []dom.Node{
		img("big", "https://scontent.cdninstagram.com/v/a.jpg?sig=1", 600, 600),
		img("dup", "https://scontent.cdninstagram.com/v/a.jpg?sig=2", 600, 600),
		img("small", "https://scontent.cdninstagram.com/v/b.jpg", 149, 600),
		img("relative", "/v/c.jpg", 300, 300),
		img("data", "data:image/png;base64,AAAA", 600, 600),
		img("blob", "blob:https://www.instagram.com/123", 600, 600),
		img("denied", "https://scontent.cdninstagram.com/v/t51.2885-19/profile_pic.jpg", 600, 600),
		img("foreign", "https://tracker.example.com/pixel.jpg", 600, 600),
		{Handle: "natural", Tag: "img", Src: "https://scontent.cdninstagram.com/v/d.jpg", NaturalWidth: 1080, NaturalHeight: 1080},
		{Handle: "video", Tag: "video", Src: "https://scontent.cdninstagram.com/v/e.mp4"},
		{Handle: "source", Tag: "source", Attrs: map[string]string{"src": "https://scontent.cdninstagram.com/v/f.mp4"}},
		{Handle: "bg", Tag: "div", Background: `url("https://scontent.cdninstagram.com/v/g.jpg")`, Rect: dom.Rect{Width: 400, Height: 400}},
		{Handle: "bg-small", Tag: "div", Background: `url("https://scontent.cdninstagram.com/v/h.jpg")`, Rect: dom.Rect{Width: 40, Height: 40}},
		{Handle: "empty", Tag: "img"},
	}
	loc := domtest.StaticLocator{dom.RoleMediaElement: nodes}
	c := New(loc, fixedURL("https://www.instagram.com/example.user/"), defaultOptions(), logger.NewNopLogger())

	set := c.Collect(context.Background(), nil)

	assert.Equal(t, []string{
		"https://scontent.cdninstagram.com/v/a.jpg?sig=1",
		"https://www.instagram.com/v/c.jpg",
		"https://scontent.cdninstagram.com/v/d.jpg",
		"https://scontent.cdninstagram.com/v/e.mp4",
		"https://scontent.cdninstagram.com/v/f.mp4",
		"https://scontent.cdninstagram.com/v/g.jpg",
	}, set.Items())
}

func TestCollectResolvesRelativeAgainstPage(t *testing.T) {
	loc := domtest.StaticLocator{dom.RoleMediaElement: {img("rel", "/media/x.jpg", 300, 300)}}
	opts := defaultOptions()
	opts.AllowedHosts = nil
	c := New(loc, fixedURL("https://www.instagram.com/example.user/"), opts, logger.NewNopLogger())

	assert.Equal(t, []string{"https://www.instagram.com/media/x.jpg"}, c.Collect(context.Background(), nil).Items())
}

func TestCollectQuickThreshold(t *testing.T) {
	loc := domtest.StaticLocator{dom.RoleMediaElement: {img("mid", "https://scontent.cdninstagram.com/v/m.jpg", 120, 120)}}
	normal := New(loc, nil, defaultOptions(), logger.NewNopLogger())
	quick := normal.WithOptions(OptionsFromConfig(config.DefaultConfig().Media, true))

	assert.Equal(t, 0, normal.Collect(context.Background(), nil).Len())
	assert.Equal(t, 1, quick.Collect(context.Background(), nil).Len())
}

func TestCollectNeverFails(t *testing.T) {
	site := domtest.NewSite(1)
	site.FailRoles = map[dom.Role]error{dom.RoleMediaElement: errors.New("detached")}
	c := New(site, site, defaultOptions(), logger.NewNopLogger())

	set := c.Collect(context.Background(), nil)
	require.NotNil(t, set)
	assert.Equal(t, 0, set.Len())
}

func TestCollectOverlayScope(t *testing.T) {
	ctx := context.Background()
	site := domtest.NewSite(3)
	site.OpenStale(0)
	c := New(site, site, defaultOptions(), logger.NewNopLogger())

	overlay := dom.Node{Handle: "overlay"}
	set := c.Collect(ctx, &overlay)

	// the avatar is both too small and on the deny list
	assert.Equal(t, []string{domtest.SlideURL("POST001", 0)}, set.Items())
}
