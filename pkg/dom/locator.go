package dom

import "context"

// Role is a semantic element role resolved by a Locator
type Role string

const (
	RoleOverlay             Role = "overlay"
	RoleNextControl         Role = "next-control"
	RolePrevControl         Role = "prev-control"
	RoleCloseControl        Role = "close-control"
	RoleMediaElement        Role = "media-element"
	RolePaginationIndicator Role = "pagination-indicator"
	RolePositionText        Role = "position-text"
	RolePostLink            Role = "post-link"
	RoleCarouselMarker      Role = "carousel-marker"
	RoleSlideTrack          Role = "slide-track"
	RoleClickable           Role = "clickable"
)

// AllRoles lists every role in diagnostic order
var AllRoles = []Role{
	RoleOverlay,
	RolePostLink,
	RoleMediaElement,
	RoleNextControl,
	RolePrevControl,
	RoleCloseControl,
	RolePaginationIndicator,
	RolePositionText,
	RoleCarouselMarker,
	RoleSlideTrack,
	RoleClickable,
}

// Locator resolves a role to candidate elements, most confident first.
// A nil scope searches the whole document.
type Locator interface {
	Find(ctx context.Context, role Role, scope *Node) ([]Node, error)
}

// First returns the best candidate for role, if any
func First(ctx context.Context, l Locator, role Role, scope *Node) (Node, bool) {
	nodes, err := l.Find(ctx, role, scope)
	if err != nil || len(nodes) == 0 {
		return Node{}, false
	}
	return nodes[0], true
}

// Dedupe drops nodes whose handle was already seen, keeping order
func Dedupe(nodes []Node) []Node {
	seen := make(map[string]bool, len(nodes))
	out := nodes[:0]
	for _, n := range nodes {
		if seen[n.Handle] {
			continue
		}
		seen[n.Handle] = true
		out = append(out, n)
	}
	return out
}
