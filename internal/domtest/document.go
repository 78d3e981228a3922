package domtest

import (
	"context"
	"fmt"
	"math"
	"strings"

	"igharvest/pkg/dom"
)

// Query is unused by the role-driven core; the fake answers roles directly
func (s *Site) Query(ctx context.Context, scope *dom.Node, css string) ([]dom.Node, error) {
	return nil, nil
}

// Click implements dom.Document
func (s *Site) Click(ctx context.Context, n dom.Node) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click:%s", n.Handle)

	kind, arg, _ := strings.Cut(n.Handle, ":")
	switch kind {
	case "post":
		for i, p := range s.Posts {
			if p.ID == arg && i < s.visibleLocked() && !p.LinkHidden {
				s.open = &openPost{idx: i, ready: !p.NeverReady}
				s.opens++
				return nil
			}
		}
		return fmt.Errorf("post link %s is not attached", arg)
	case "next", "hidden-next":
		s.advance("click")
	case "prev":
		if s.open != nil && s.open.slide > 0 {
			s.open.slide--
		}
	case "post-nav":
		// navigates to the following post, which a carousel walk must never do
		if s.open != nil && s.open.idx+1 < len(s.Posts) {
			s.open = &openPost{idx: s.open.idx + 1, ready: true}
		}
	case "close":
		s.tryClose("close-control")
	}
	return nil
}

// ClickAt closes the overlay when the point falls outside it
func (s *Site) ClickAt(ctx context.Context, x, y float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("click-at:%.0f,%.0f", x, y)
	if x < OverlayRect.X || x > OverlayRect.Right() || y < OverlayRect.Y || y > OverlayRect.Bottom() {
		s.tryClose("backdrop")
	}
	return nil
}

func (s *Site) PressKey(ctx context.Context, key dom.Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("key:%s", key)
	switch key {
	case dom.KeyEscape:
		if !s.EscapeIgnored {
			s.tryClose("escape")
		}
	case dom.KeyArrowRight:
		if !s.KeysIgnored {
			s.advance("key")
		}
	}
	return nil
}

// Remove detaches the overlay; any other node is ignored
func (s *Site) Remove(ctx context.Context, n dom.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("remove:%s", n.Handle)
	if n.Handle == "overlay" && s.open != nil && !s.RemoveIgnored {
		s.open = nil
		if s.closedBy == nil {
			s.closedBy = make(map[string]int)
		}
		s.closedBy["remove"]++
	}
	return nil
}

func (s *Site) ScrollIntoView(ctx context.Context, n dom.Node) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll-into-view:%s", n.Handle)
	return nil
}

// ScrollToBottom reveals the next page of posts
func (s *Site) ScrollToBottom(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll-bottom")
	s.scrolls++
	s.visible = min(s.visibleLocked()+s.pageSize(), len(s.Posts))
	return s.heightLocked(), nil
}

func (s *Site) ScrollToTop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("scroll-top")
	return nil
}

func (s *Site) ScrollHeight(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.heightLocked(), nil
}

func (s *Site) heightLocked() float64 {
	rows := math.Ceil(float64(s.visibleLocked()) / float64(tilesPerRow))
	return headerHeight + rows*tileSize
}

func (s *Site) Viewport(ctx context.Context) (dom.Rect, error) {
	return ViewportRect, nil
}

// URL is the post URL while an overlay is open, else the profile URL
func (s *Site) URL(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.open != nil && s.CurrentURLOpen {
		return "https://www.instagram.com/p/" + s.Posts[s.open.idx].ID + "/", nil
	}
	return ProfileURL, nil
}

func (s *Site) Back(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("back")
	s.tryClose("back")
	return nil
}
