package instagram

import (
	"context"
	"fmt"

	"igharvest/pkg/dom"
	"igharvest/pkg/logger"
)

// Querier is the part of dom.Document the locator needs
type Querier interface {
	Query(ctx context.Context, scope *dom.Node, css string) ([]dom.Node, error)
}

// Locator resolves roles by running each rule of the role's chain and
// concatenating the filtered matches in rule order
type Locator struct {
	doc    Querier
	chains map[dom.Role]Chain
	logger logger.Logger
}

// NewLocator creates a locator with the default chains
func NewLocator(doc Querier, log logger.Logger) *Locator {
	return &Locator{
		doc:    doc,
		chains: DefaultChains(),
		logger: logger.OrDefault(log).WithField("component", "locator"),
	}
}

// WithChain replaces the chain for one role
func (l *Locator) WithChain(role dom.Role, chain Chain) *Locator {
	l.chains[role] = chain
	return l
}

// Find implements dom.Locator
func (l *Locator) Find(ctx context.Context, role dom.Role, scope *dom.Node) ([]dom.Node, error) {
	chain, ok := l.chains[role]
	if !ok {
		return nil, fmt.Errorf("no selector chain for role %q", role)
	}

	var out []dom.Node
	var lastErr error
	for _, rule := range chain {
		nodes, err := l.doc.Query(ctx, scope, rule.CSS)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// a selector some engines reject must not hide the rest of the chain
			l.logger.DebugWithFields("selector failed", map[string]interface{}{
				"role":     string(role),
				"selector": rule.CSS,
				"error":    err.Error(),
			})
			lastErr = err
			continue
		}
		for _, n := range nodes {
			if rule.Match == nil || rule.Match(n) {
				out = append(out, n)
			}
		}
	}

	out = dom.Dedupe(out)
	if len(out) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return out, nil
}

// Diagnose counts candidates for every role; used by the selftest command
func (l *Locator) Diagnose(ctx context.Context) map[dom.Role]int {
	counts := make(map[dom.Role]int, len(dom.AllRoles))
	var scope *dom.Node
	if overlay, ok := dom.First(ctx, l, dom.RoleOverlay, nil); ok {
		scope = &overlay
	}
	for _, role := range dom.AllRoles {
		s := scope
		if role == dom.RoleOverlay || role == dom.RolePostLink {
			s = nil
		}
		nodes, err := l.Find(ctx, role, s)
		if err != nil {
			counts[role] = -1
			continue
		}
		counts[role] = len(nodes)
	}
	return counts
}
