package dom

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Rect is an element's layout box in viewport coordinates
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (r Rect) Right() float64  { return r.X + r.Width }
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the box has no area
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// MinSide returns the smaller of width and height
func (r Rect) MinSide() float64 {
	if r.Width < r.Height {
		return r.Width
	}
	return r.Height
}

// Center returns the midpoint of the box
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Node is a read-only snapshot of one element taken at query time.
// Handle stays valid until the element leaves the document.
type Node struct {
	Handle        string            `json:"handle"`
	Tag           string            `json:"tag"`
	Attrs         map[string]string `json:"attrs"`
	Text          string            `json:"text"`
	Rect          Rect              `json:"rect"`
	NaturalWidth  float64           `json:"naturalWidth"`
	NaturalHeight float64           `json:"naturalHeight"`
	Src           string            `json:"src"`
	Background    string            `json:"background"`
	Transform     string            `json:"transform"`
}

// Attr returns an attribute value
func (n Node) Attr(name string) string {
	if n.Attrs == nil {
		return ""
	}
	return n.Attrs[name]
}

// Label returns the accessible label, falling back to title and text
func (n Node) Label() string {
	for _, v := range []string{n.Attr("aria-label"), n.Attr("title"), n.Text} {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Key is a keyboard key understood by Document.PressKey
type Key string

const (
	KeyEscape     Key = "Escape"
	KeyArrowRight Key = "ArrowRight"
	KeySpace      Key = "Space"
)

// Document is the live page the core drives. Implementations snapshot elements
// into Nodes; every action takes the handle of a previously returned Node.
type Document interface {
	// Query returns elements matching css under scope, or the whole document when scope is nil
	Query(ctx context.Context, scope *Node, css string) ([]Node, error)
	Click(ctx context.Context, n Node) error
	ClickAt(ctx context.Context, x, y float64) error
	PressKey(ctx context.Context, key Key) error
	Remove(ctx context.Context, n Node) error
	ScrollIntoView(ctx context.Context, n Node) error
	// ScrollToBottom scrolls the window to the end and returns the new scroll height
	ScrollToBottom(ctx context.Context) (float64, error)
	ScrollToTop(ctx context.Context) error
	ScrollHeight(ctx context.Context) (float64, error)
	Viewport(ctx context.Context) (Rect, error)
	URL(ctx context.Context) (string, error)
	Back(ctx context.Context) error
}

var backgroundURLPattern = regexp.MustCompile(`url\(\s*['"]?(.*?)['"]?\s*\)`)

// ParseBackgroundURLs extracts every url(...) from a background-image value
func ParseBackgroundURLs(css string) []string {
	if css == "" || css == "none" {
		return nil
	}
	var out []string
	for _, m := range backgroundURLPattern.FindAllStringSubmatch(css, -1) {
		if u := strings.TrimSpace(m[1]); u != "" {
			out = append(out, u)
		}
	}
	return out
}

// ShiftsX reports whether a transform value moves the element along the x axis.
// Inline styles keep their translate functions, computed styles arrive as
// matrix() or matrix3d() with the x offset at index 4 or 12.
func ShiftsX(transform string) bool {
	t := strings.ToLower(strings.TrimSpace(transform))
	switch {
	case t == "" || t == "none":
		return false
	case strings.Contains(t, "translatex"), strings.Contains(t, "translate3d"):
		return true
	case strings.HasPrefix(t, "matrix3d("):
		return matrixOffset(t[len("matrix3d("):], 16, 12)
	case strings.HasPrefix(t, "matrix("):
		return matrixOffset(t[len("matrix("):], 6, 4)
	}
	return false
}

func matrixOffset(args string, size, index int) bool {
	parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
	if len(parts) != size {
		return false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[index]), 64)
	return err == nil && v != 0
}
