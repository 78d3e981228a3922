// Package htmldoc implements dom.Document over a saved HTML page.
//
// A static page has no layout engine, so geometry comes from markup: an
// element's box is read from data-rect="x,y,w,h" and an image's intrinsic
// size from data-natural="w,h". Actions that would change a live page are
// recorded instead of performed, except Remove which detaches the element.
package htmldoc

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"golang.org/x/net/html"

	"igharvest/pkg/dom"
)

// maxText bounds the text captured per node
const maxText = 200

var _ dom.Document = (*Document)(nil)

// Document is a read-only page snapshot
type Document struct {
	doc     *goquery.Document
	pageURL string

	mu      sync.Mutex
	handles map[*html.Node]string
	nodes   map[string]*html.Node
	seq     int
	actions []string
}

// New parses HTML from r. pageURL is what URL reports.
func New(r io.Reader, pageURL string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return &Document{
		doc:     doc,
		pageURL: pageURL,
		handles: make(map[*html.Node]string),
		nodes:   make(map[string]*html.Node),
	}, nil
}

// Open parses an HTML file. The page URL is taken from
// <link rel="canonical"> when present.
func Open(path string) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	d, err := New(f, "")
	if err != nil {
		return nil, err
	}
	if href, ok := d.doc.Find(`link[rel="canonical"]`).Attr("href"); ok {
		d.pageURL = href
	} else {
		d.pageURL = "file://" + path
	}
	return d, nil
}

// Actions returns the recorded page actions, e.g. "click:n3" or "key:Escape"
func (d *Document) Actions() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.actions...)
}

func (d *Document) record(format string, args ...interface{}) {
	d.mu.Lock()
	d.actions = append(d.actions, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

// Query implements dom.Document
func (d *Document) Query(ctx context.Context, scope *dom.Node, css string) ([]dom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sel, err := cascadia.Compile(css)
	if err != nil {
		return nil, fmt.Errorf("invalid selector %q: %w", css, err)
	}

	root := d.doc.Selection
	if scope != nil {
		n, err := d.lookup(*scope)
		if err != nil {
			return nil, err
		}
		root = d.doc.FindNodes(n)
	}

	var out []dom.Node
	root.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, d.snapshot(s))
	})
	return out, nil
}

func (d *Document) lookup(n dom.Node) (*html.Node, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	node, ok := d.nodes[n.Handle]
	if !ok {
		return nil, fmt.Errorf("stale node handle %q", n.Handle)
	}
	return node, nil
}

func (d *Document) handle(n *html.Node) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if h, ok := d.handles[n]; ok {
		return h
	}
	d.seq++
	h := "n" + strconv.Itoa(d.seq)
	d.handles[n] = h
	d.nodes[h] = n
	return h
}

func (d *Document) snapshot(s *goquery.Selection) dom.Node {
	n := s.Nodes[0]
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		attrs[a.Key] = a.Val
	}

	text := strings.Join(strings.Fields(s.Text()), " ")
	if len(text) > maxText {
		text = text[:maxText]
	}

	node := dom.Node{
		Handle:     d.handle(n),
		Tag:        strings.ToLower(n.Data),
		Attrs:      attrs,
		Text:       text,
		Rect:       parseRect(attrs["data-rect"]),
		Src:        attrs["src"],
		Background: styleProperty(attrs["style"], "background-image"),
		Transform:  styleProperty(attrs["style"], "transform"),
	}
	if node.Src == "" && attrs["srcset"] != "" {
		node.Src = firstSrcsetURL(attrs["srcset"])
	}
	if nat := parseFloats(attrs["data-natural"]); len(nat) == 2 {
		node.NaturalWidth, node.NaturalHeight = nat[0], nat[1]
	}
	return node
}

// Click implements dom.Document
func (d *Document) Click(ctx context.Context, n dom.Node) error {
	if _, err := d.lookup(n); err != nil {
		return err
	}
	d.record("click:%s", n.Handle)
	return nil
}

func (d *Document) ClickAt(ctx context.Context, x, y float64) error {
	d.record("click-at:%.0f,%.0f", x, y)
	return nil
}

func (d *Document) PressKey(ctx context.Context, key dom.Key) error {
	d.record("key:%s", key)
	return nil
}

// Remove detaches the element from the tree
func (d *Document) Remove(ctx context.Context, n dom.Node) error {
	node, err := d.lookup(n)
	if err != nil {
		return err
	}
	if node.Parent != nil {
		node.Parent.RemoveChild(node)
	}
	d.mu.Lock()
	delete(d.nodes, n.Handle)
	delete(d.handles, node)
	d.mu.Unlock()
	d.record("remove:%s", n.Handle)
	return nil
}

func (d *Document) ScrollIntoView(ctx context.Context, n dom.Node) error {
	d.record("scroll-into-view:%s", n.Handle)
	return nil
}

// ScrollToBottom reports the height from data-scroll-height on body; a static
// page never grows
func (d *Document) ScrollToBottom(ctx context.Context) (float64, error) {
	d.record("scroll-bottom")
	return d.ScrollHeight(ctx)
}

func (d *Document) ScrollToTop(ctx context.Context) error {
	d.record("scroll-top")
	return nil
}

func (d *Document) ScrollHeight(ctx context.Context) (float64, error) {
	v := parseFloats(d.doc.Find("body").AttrOr("data-scroll-height", "0"))
	if len(v) == 0 {
		return 0, nil
	}
	return v[0], nil
}

// Viewport reads data-viewport="w,h" from body, defaulting to 1280x800
func (d *Document) Viewport(ctx context.Context) (dom.Rect, error) {
	if v := parseFloats(d.doc.Find("body").AttrOr("data-viewport", "")); len(v) == 2 {
		return dom.Rect{Width: v[0], Height: v[1]}, nil
	}
	return dom.Rect{Width: 1280, Height: 800}, nil
}

func (d *Document) URL(ctx context.Context) (string, error) {
	return d.pageURL, nil
}

func (d *Document) Back(ctx context.Context) error {
	return fmt.Errorf("static document has no history")
}

func parseFloats(s string) []float64 {
	if s == "" {
		return nil
	}
	var out []float64
	for _, part := range strings.Split(s, ",") {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil
		}
		out = append(out, f)
	}
	return out
}

func parseRect(s string) dom.Rect {
	v := parseFloats(s)
	if len(v) != 4 {
		return dom.Rect{}
	}
	return dom.Rect{X: v[0], Y: v[1], Width: v[2], Height: v[3]}
}

// styleProperty extracts one declaration from an inline style attribute
func styleProperty(style, name string) string {
	for _, decl := range strings.Split(style, ";") {
		key, value, ok := strings.Cut(decl, ":")
		if ok && strings.EqualFold(strings.TrimSpace(key), name) {
			return strings.TrimSpace(value)
		}
	}
	return ""
}

func firstSrcsetURL(srcset string) string {
	first, _, _ := strings.Cut(srcset, ",")
	fields := strings.Fields(first)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
