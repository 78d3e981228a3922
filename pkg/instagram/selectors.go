package instagram

import (
	"strings"
	"unicode"

	"igharvest/pkg/dom"
)

// Rule is one CSS selector plus an optional filter applied to its matches.
// Case-insensitive label checks live in the filter so the same rules work on
// every selector engine.
type Rule struct {
	CSS   string
	Match func(dom.Node) bool
}

// Chain is an ordered list of rules, most confident first
type Chain []Rule

var (
	nextWords  = []string{"next", "siguiente", "suivant", "weiter", "avanti"}
	prevWords  = []string{"previous", "prev", "go back", "anterior", "précédent", "zurück", "indietro"}
	closeWords = []string{"close", "cerrar", "fermer", "schließen", "chiudi", "fechar"}
	closeGlyph = []string{"×", "✕", "✖", "x"}
)

// labelHas reports whether the node's lowercased label contains any word
func labelHas(n dom.Node, words ...string) bool {
	label := strings.ToLower(n.Label())
	for _, w := range words {
		if strings.Contains(label, w) {
			return true
		}
	}
	return false
}

// IsNextLabel matches labels like "Next" or "Go to next media", never "Next post"
func IsNextLabel(n dom.Node) bool {
	return labelHas(n, nextWords...) && !labelHas(n, "post")
}

// IsPrevLabel matches labels like "Previous" or "Go back", never "Previous post"
func IsPrevLabel(n dom.Node) bool {
	return labelHas(n, prevWords...) && !labelHas(n, "post")
}

// IsCloseLabel matches multilingual close labels and bare close glyphs
func IsCloseLabel(n dom.Node) bool {
	if labelHas(n, closeWords...) {
		return true
	}
	label := strings.TrimSpace(n.Label())
	for _, g := range closeGlyph {
		if strings.EqualFold(label, g) {
			return true
		}
	}
	return false
}

func visible(n dom.Node) bool { return !n.Rect.Empty() }

func hasTransform(n dom.Node) bool { return dom.ShiftsX(n.Transform) }

// isPositionText accepts short texts that carry a number, e.g. "2 / 5"
func isPositionText(n dom.Node) bool {
	text := strings.TrimSpace(n.Text)
	if text == "" || len(text) >= 20 {
		return false
	}
	return strings.IndexFunc(text, unicode.IsDigit) >= 0
}

func labelContains(word string) func(dom.Node) bool {
	return func(n dom.Node) bool { return labelHas(n, word) }
}

// DefaultChains returns the selector chains for every role
func DefaultChains() map[dom.Role]Chain {
	return map[dom.Role]Chain{
		dom.RoleOverlay: {
			{CSS: `div[role="dialog"]`, Match: visible},
			{CSS: `[aria-modal="true"]`, Match: visible},
		},
		dom.RolePostLink: {
			{CSS: `article a[href*="/p/"]`},
			{CSS: `main a[href*="/p/"], [role="main"] a[href*="/p/"]`},
			{CSS: `a[href*="/p/"], a[href*="/reel/"]`},
		},
		dom.RoleMediaElement: {
			{CSS: `img`},
			{CSS: `video`},
			{CSS: `video source`},
			{CSS: `[style*="background-image"]`},
		},
		dom.RoleNextControl: {
			{CSS: `button[aria-label]`, Match: IsNextLabel},
			{CSS: `[role="button"][aria-label]`, Match: IsNextLabel},
			{CSS: `svg[aria-label]`, Match: IsNextLabel},
		},
		dom.RolePrevControl: {
			{CSS: `button[aria-label]`, Match: IsPrevLabel},
			{CSS: `[role="button"][aria-label]`, Match: IsPrevLabel},
			{CSS: `svg[aria-label]`, Match: IsPrevLabel},
		},
		dom.RoleCloseControl: {
			{CSS: `[aria-label="Close"]`},
			{CSS: `button, [role="button"], svg[aria-label]`, Match: IsCloseLabel},
			// unlabelled buttons; the overlay controller decides by position
			{CSS: `button, [role="button"]`},
		},
		dom.RolePaginationIndicator: {
			{CSS: `[role="tablist"] [role="tab"]`},
			{CSS: `div[style*="width: 6px"], div[style*="width: 8px"]`},
		},
		dom.RolePositionText: {
			{CSS: `[aria-live] span, [aria-live]`, Match: isPositionText},
			{CSS: `span`, Match: isPositionText},
		},
		dom.RoleCarouselMarker: {
			{CSS: `svg[aria-label="Carousel"]`},
			{CSS: `[aria-label]`, Match: labelContains("carousel")},
		},
		dom.RoleSlideTrack: {
			{CSS: `ul[style*="transform"], div[style*="transform"]`, Match: hasTransform},
		},
		dom.RoleClickable: {
			{CSS: `button, [role="button"]`, Match: visible},
		},
	}
}
