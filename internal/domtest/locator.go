package domtest

import (
	"context"
	"fmt"
	"strings"

	"igharvest/pkg/dom"
)

// Find implements dom.Locator. Scope is nil, the overlay node or a post link.
func (s *Site) Find(ctx context.Context, role dom.Role, scope *dom.Node) ([]dom.Node, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.FailRoles[role]; err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case scope == nil:
		out := s.gridNodes(role, -1)
		if s.open != nil {
			out = append(out, s.overlayNodes(role)...)
		}
		return out, nil
	case scope.Handle == "overlay":
		if s.open == nil {
			return nil, nil
		}
		return s.overlayNodes(role), nil
	case strings.HasPrefix(scope.Handle, "post:"):
		id := strings.TrimPrefix(scope.Handle, "post:")
		for i, p := range s.Posts {
			if p.ID == id {
				return s.gridNodes(role, i), nil
			}
		}
		return nil, nil
	}
	return nil, fmt.Errorf("unknown scope %q", scope.Handle)
}

func tileRect(i int) dom.Rect {
	return dom.Rect{
		X:      40 + float64(i%tilesPerRow)*tileSize,
		Y:      headerHeight + float64(i/tilesPerRow)*tileSize,
		Width:  tileSize,
		Height: tileSize,
	}
}

// gridNodes answers roles on the profile grid. only >= 0 restricts to one tile.
func (s *Site) gridNodes(role dom.Role, only int) []dom.Node {
	var out []dom.Node
	if only < 0 && role == dom.RoleMediaElement {
		out = append(out, dom.Node{
			Handle: "profile-pic", Tag: "img", Src: "https://scontent.cdninstagram.com/v/t51.2885-19/profile_pic.jpg",
			Rect: dom.Rect{X: 40, Y: 20, Width: 150, Height: 150}, NaturalWidth: 320, NaturalHeight: 320,
		})
	}
	for i := 0; i < s.visibleLocked(); i++ {
		if only >= 0 && i != only {
			continue
		}
		p := s.Posts[i]
		switch role {
		case dom.RolePostLink:
			if !p.LinkHidden {
				out = append(out, dom.Node{
					Handle: "post:" + p.ID, Tag: "a",
					Attrs: map[string]string{"href": "/p/" + p.ID + "/"},
					Rect:  tileRect(i),
				})
			}
		case dom.RoleMediaElement:
			out = append(out, dom.Node{
				Handle: "grid:" + p.ID, Tag: "img", Src: GridURL(p.ID),
				Rect: tileRect(i), NaturalWidth: 1080, NaturalHeight: 1080,
			})
		case dom.RoleCarouselMarker:
			if p.Slides > 1 && !p.NoMarker {
				r := tileRect(i)
				out = append(out, dom.Node{
					Handle: "marker:" + p.ID, Tag: "svg",
					Attrs: map[string]string{"aria-label": "Carousel"},
					Rect:  dom.Rect{X: r.Right() - 30, Y: r.Y + 5, Width: 20, Height: 20},
				})
			}
		}
	}
	return out
}

func (s *Site) overlayNodes(role dom.Role) []dom.Node {
	p := s.Posts[s.open.idx]
	cur := s.open.slide
	multi := p.Slides > 1

	button := func(handle, label string, r dom.Rect) dom.Node {
		attrs := map[string]string{}
		if label != "" {
			attrs["aria-label"] = label
		}
		return dom.Node{Handle: handle, Tag: "button", Attrs: attrs, Rect: r}
	}
	postNav := button("post-nav", "Next", PostNavRect)
	next := button("next", "Next", NextRect)
	prev := button("prev", "Go back", PrevRect)
	closer := dom.Node{Handle: "close", Tag: "div", Attrs: map[string]string{"role": "button", "aria-label": "Close"}, Rect: CloseRect}

	hasNext := multi && cur < p.Slides-1

	switch role {
	case dom.RoleOverlay:
		return []dom.Node{{Handle: "overlay", Tag: "div", Attrs: map[string]string{"role": "dialog"}, Rect: OverlayRect}}

	case dom.RoleMediaElement:
		if !s.open.ready {
			return []dom.Node{{Handle: "placeholder", Tag: "img", Rect: SlideRect}}
		}
		shown := cur
		if s.StaleMedia {
			shown = 0
		}
		out := []dom.Node{slideNode(p.ID, shown)}
		if s.Preload && !s.StaleMedia && cur+1 < p.Slides {
			n := slideNode(p.ID, cur+1)
			n.Rect.X += SlideRect.Width
			out = append(out, n)
		}
		out = append(out, dom.Node{
			Handle: "avatar", Tag: "img", Src: AvatarURL,
			Rect: dom.Rect{X: 760, Y: 50, Width: 32, Height: 32}, NaturalWidth: 150, NaturalHeight: 150,
		})
		return out

	case dom.RoleNextControl:
		out := []dom.Node{postNav}
		if hasNext && !s.NoNextControl {
			out = append(out, next)
		}
		return out

	case dom.RolePrevControl:
		if multi && cur > 0 {
			return []dom.Node{prev}
		}

	case dom.RoleCloseControl:
		out := []dom.Node{postNav}
		if !s.NoCloseButton {
			out = append(out, closer)
		}
		return out

	case dom.RoleClickable:
		var out []dom.Node
		if !s.NoCloseButton {
			out = append(out, closer)
		}
		out = append(out, postNav)
		if hasNext && !s.NoNextControl {
			out = append(out, next)
		}
		if hasNext && s.NoNextControl && s.UnlabelledNext {
			out = append(out, button("hidden-next", "", HiddenNext))
		}
		if multi && cur > 0 {
			out = append(out, prev)
		}
		return out

	case dom.RolePaginationIndicator:
		if multi && s.ShowDots {
			var out []dom.Node
			for i := 0; i < p.Slides; i++ {
				out = append(out, dom.Node{
					Handle: fmt.Sprintf("dot:%d", i), Tag: "div",
					Attrs: map[string]string{"role": "tab", "aria-selected": fmt.Sprint(i == cur)},
					Rect:  dom.Rect{X: 420 + float64(i)*10, Y: 620, Width: 6, Height: 6},
				})
			}
			return out
		}

	case dom.RolePositionText:
		if multi && s.ShowPosition {
			return []dom.Node{{Handle: "position", Tag: "span", Text: fmt.Sprintf("%d / %d", cur+1, p.Slides)}}
		}

	case dom.RoleSlideTrack:
		if multi && s.ShowTrack {
			return []dom.Node{{
				Handle: "track", Tag: "ul",
				Transform: fmt.Sprintf("translateX(-%dpx)", cur*int(SlideRect.Width)),
				Rect:      dom.Rect{X: SlideRect.X, Y: SlideRect.Y, Width: SlideRect.Width * float64(p.Slides), Height: SlideRect.Height},
			}}
		}
	}
	return nil
}

func slideNode(postID string, slide int) dom.Node {
	return dom.Node{
		Handle: fmt.Sprintf("slide:%s:%d", postID, slide), Tag: "img",
		Src: SlideURL(postID, slide), Rect: SlideRect, NaturalWidth: 1080, NaturalHeight: 1350,
	}
}

// StaticLocator answers every query for a role with the same nodes, ignoring scope
type StaticLocator map[dom.Role][]dom.Node

func (l StaticLocator) Find(ctx context.Context, role dom.Role, scope *dom.Node) ([]dom.Node, error) {
	return l[role], nil
}
