package htmldoc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igharvest/pkg/dom"
)

const page = `<html><body data-scroll-height="3000" data-viewport="1024,768">
<div role="dialog" data-rect="100,50,800,600">
  <img src="https://cdn.example/a.jpg" data-rect="120,60,500,500" data-natural="1080,1350">
  <img srcset="https://cdn.example/b.jpg 640w, https://cdn.example/b-big.jpg 1080w" data-rect="0,0,10,10">
  <div style="background-image: url('https://cdn.example/c.jpg'); transform: translateX(-500px)">   slide
     three  </div>
</div>
<img src="https://cdn.example/outside.jpg">
</body></html>`

func newDoc(t *testing.T) *Document {
	d, err := New(strings.NewReader(page), "https://www.instagram.com/someone/")
	require.NoError(t, err)
	return d
}

func TestQuerySnapshotsElements(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	imgs, err := d.Query(ctx, nil, "img")
	require.NoError(t, err)
	require.Len(t, imgs, 3)

	assert.Equal(t, "img", imgs[0].Tag)
	assert.Equal(t, "https://cdn.example/a.jpg", imgs[0].Src)
	assert.Equal(t, dom.Rect{X: 120, Y: 60, Width: 500, Height: 500}, imgs[0].Rect)
	assert.Equal(t, 1080.0, imgs[0].NaturalWidth)
	assert.Equal(t, 1350.0, imgs[0].NaturalHeight)
	assert.Equal(t, "https://cdn.example/b.jpg", imgs[1].Src, "srcset falls back to its first candidate")
	assert.True(t, imgs[2].Rect.Empty())

	again, err := d.Query(ctx, nil, "img")
	require.NoError(t, err)
	assert.Equal(t, imgs[0].Handle, again[0].Handle, "handles are stable across queries")
}

func TestQueryScopedAndStyles(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	dialog, err := d.Query(ctx, nil, `[role="dialog"]`)
	require.NoError(t, err)
	require.Len(t, dialog, 1)

	imgs, err := d.Query(ctx, &dialog[0], "img")
	require.NoError(t, err)
	assert.Len(t, imgs, 2)

	divs, err := d.Query(ctx, &dialog[0], "div")
	require.NoError(t, err)
	require.Len(t, divs, 1)
	assert.Equal(t, []string{"https://cdn.example/c.jpg"}, dom.ParseBackgroundURLs(divs[0].Background))
	assert.Equal(t, "translateX(-500px)", divs[0].Transform)
	assert.Equal(t, "slide three", divs[0].Text)
}

func TestQuerySelectorGroup(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	nodes, err := d.Query(ctx, nil, `div[style*="transform"], img[srcset]`)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	assert.Equal(t, "img", nodes[0].Tag, "matches keep document order")
	assert.Equal(t, "div", nodes[1].Tag)
}

func TestQueryInvalidSelector(t *testing.T) {
	_, err := newDoc(t).Query(context.Background(), nil, "img[")
	assert.Error(t, err)
}

func TestRemoveDetachesAndStalesHandle(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	dialog, _ := d.Query(ctx, nil, `[role="dialog"]`)
	require.NoError(t, d.Remove(ctx, dialog[0]))

	imgs, err := d.Query(ctx, nil, "img")
	require.NoError(t, err)
	assert.Len(t, imgs, 1)

	assert.Error(t, d.Click(ctx, dialog[0]))
	_, err = d.Query(ctx, &dialog[0], "img")
	assert.Error(t, err)
}

func TestActionsAndPageState(t *testing.T) {
	ctx := context.Background()
	d := newDoc(t)

	imgs, _ := d.Query(ctx, nil, "img")
	require.NoError(t, d.Click(ctx, imgs[0]))
	require.NoError(t, d.ClickAt(ctx, 10, 20))
	require.NoError(t, d.PressKey(ctx, dom.KeyEscape))
	h, err := d.ScrollToBottom(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3000.0, h)
	assert.Equal(t, []string{"click:" + imgs[0].Handle, "click-at:10,20", "key:Escape", "scroll-bottom"}, d.Actions())

	vp, _ := d.Viewport(ctx)
	assert.Equal(t, dom.Rect{Width: 1024, Height: 768}, vp)
	u, _ := d.URL(ctx)
	assert.Equal(t, "https://www.instagram.com/someone/", u)
	assert.Error(t, d.Back(ctx))
}

func TestQueryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newDoc(t).Query(ctx, nil, "img")
	assert.ErrorIs(t, err, context.Canceled)
}
