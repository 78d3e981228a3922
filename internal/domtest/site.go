// Package domtest provides a scripted profile page for tests. Site implements
// both dom.Document and dom.Locator and behaves like a profile grid with a
// post overlay: clicking a post link opens it, the next control walks its
// slides and the close strategies dismiss it, subject to per-test quirks.
package domtest

import (
	"fmt"
	"strings"
	"sync"

	"igharvest/pkg/dom"
)

const (
	ProfileURL = "https://www.instagram.com/example.user/"
	cdn        = "https://scontent.cdninstagram.com/v/t51.29350-15/"
)

// Geometry shared with tests that reason about positions
var (
	OverlayRect   = dom.Rect{X: 140, Y: 40, Width: 1000, Height: 720}
	SlideRect     = dom.Rect{X: 140, Y: 40, Width: 600, Height: 600}
	NextRect      = dom.Rect{X: 700, Y: 320, Width: 32, Height: 32}
	PrevRect      = dom.Rect{X: 150, Y: 320, Width: 32, Height: 32}
	CloseRect     = dom.Rect{X: 1100, Y: 50, Width: 30, Height: 30}
	PostNavRect   = dom.Rect{X: 1095, Y: 380, Width: 40, Height: 40}
	HiddenNext    = dom.Rect{X: 900, Y: 380, Width: 40, Height: 40}
	ViewportRect  = dom.Rect{Width: 1280, Height: 800}
	tileSize      = 300.0
	tilesPerRow   = 3
	headerHeight  = 600.0
	defaultPageSz = 12
)

// Post is one grid entry
type Post struct {
	ID     string
	Slides int

	NeverReady bool // overlay opens but media never loads
	LinkHidden bool // no post link is ever rendered
	NoMarker   bool // multi-slide post without the grid carousel marker
}

// Site is the scripted page. Configure the exported fields before use.
type Site struct {
	Posts    []Post
	PageSize int // posts revealed per scroll, default 12

	// overlay quirks
	ShowDots        bool
	ShowPosition    bool
	ShowTrack       bool
	NoNextControl   bool // next control missing from the next-control role
	UnlabelledNext  bool // with NoNextControl: an unlabelled button still advances
	KeysIgnored     bool // ArrowRight does nothing
	EscapeIgnored   bool
	NoCloseButton   bool
	Stuck           bool // only forced removal closes the overlay
	RemoveIgnored   bool // forced removal has no effect either
	CloseResistance int  // number of close actions ignored before one works
	Preload         bool // next slide is rendered ahead of time
	StaleMedia      bool // slides advance but the first slide stays rendered
	CurrentURLOpen  bool // URL switches to the post URL while open

	FailRoles map[dom.Role]error

	mu       sync.Mutex
	visible  int
	scrolls  int
	open     *openPost
	actions  []string
	opens    int
	advances int
	closedBy map[string]int
}

type openPost struct {
	idx   int
	slide int
	ready bool
}

var (
	_ dom.Document = (*Site)(nil)
	_ dom.Locator  = (*Site)(nil)
)

// NewSite builds a site from posts given as slide counts
func NewSite(slides ...int) *Site {
	posts := make([]Post, len(slides))
	for i, n := range slides {
		posts[i] = Post{ID: fmt.Sprintf("POST%03d", i+1), Slides: n}
	}
	return &Site{Posts: posts, CurrentURLOpen: true}
}

// SlideURL is the media URL the site renders for a slide
func SlideURL(postID string, slide int) string {
	return fmt.Sprintf("%s%s_%d.jpg?stp=dst-jpg&_nc_sig=%s%d", cdn, postID, slide, postID, slide)
}

// GridURL is the media URL of a post's grid thumbnail
func GridURL(postID string) string {
	return fmt.Sprintf("%s%s_grid.jpg", cdn, postID)
}

// AvatarURL is the small author picture shown inside every overlay
const AvatarURL = "https://scontent.cdninstagram.com/v/t51.2885-19/avatar_s150x150.jpg"

func (s *Site) pageSize() int {
	if s.PageSize > 0 {
		return s.PageSize
	}
	return defaultPageSz
}

func (s *Site) visibleLocked() int {
	if s.visible == 0 {
		s.visible = min(s.pageSize(), len(s.Posts))
	}
	return s.visible
}

func (s *Site) record(format string, args ...interface{}) {
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

// Actions returns every action performed so far
func (s *Site) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

// CountActions counts actions with the given prefix
func (s *Site) CountActions(prefix string) int {
	n := 0
	for _, a := range s.Actions() {
		if strings.HasPrefix(a, prefix) {
			n++
		}
	}
	return n
}

// Opens returns how many times an overlay was opened
func (s *Site) Opens() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opens
}

// Advances returns how many slide advances happened
func (s *Site) Advances() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.advances
}

// ClosedBy returns how many closes each strategy achieved
func (s *Site) ClosedBy(strategy string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closedBy[strategy]
}

// IsOpen reports whether an overlay is present
func (s *Site) IsOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.open != nil
}

// OpenStale opens an overlay directly, as if left over from an earlier action
func (s *Site) OpenStale(idx int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.open = &openPost{idx: idx, ready: true}
}

// Slide returns the current slide of the open overlay, or -1
func (s *Site) Slide() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open == nil {
		return -1
	}
	return s.open.slide
}

func (s *Site) currentPost() *Post {
	if s.open == nil {
		return nil
	}
	return &s.Posts[s.open.idx]
}

func (s *Site) advance(how string) bool {
	p := s.currentPost()
	if p == nil || s.open.slide >= p.Slides-1 {
		return false
	}
	s.open.slide++
	s.advances++
	s.record("advance:%s:%d", how, s.open.slide)
	return true
}

func (s *Site) tryClose(strategy string) {
	if s.open == nil {
		return
	}
	if s.Stuck {
		return
	}
	if s.CloseResistance > 0 {
		s.CloseResistance--
		return
	}
	s.open = nil
	if s.closedBy == nil {
		s.closedBy = make(map[string]int)
	}
	s.closedBy[strategy]++
}
