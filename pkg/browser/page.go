package browser

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"igharvest/pkg/dom"
	"igharvest/pkg/logger"
)

// handleAttr tags every element handed out as a Node so later actions can find it
const handleAttr = "data-igh"

var _ dom.Document = (*Page)(nil)

// snapshotJS returns one object per element matching css under the scope handle
const snapshotJS = `(attr, scope, css, maxText) => {
	const root = scope ? document.querySelector('[' + attr + '="' + scope + '"]') : document;
	if (!root) return [];
	window.__ighSeq = window.__ighSeq || 0;
	return Array.from(root.querySelectorAll(css)).map(el => {
		let id = el.getAttribute(attr);
		if (!id) {
			id = 'n' + (++window.__ighSeq);
			el.setAttribute(attr, id);
		}
		const attrs = {};
		for (const a of el.attributes) {
			if (a.name !== attr) attrs[a.name] = a.value;
		}
		const r = el.getBoundingClientRect();
		const cs = getComputedStyle(el);
		return {
			handle: id,
			tag: el.tagName.toLowerCase(),
			attrs: attrs,
			text: (el.innerText || el.textContent || '').trim().slice(0, maxText),
			rect: {x: r.x, y: r.y, width: r.width, height: r.height},
			naturalWidth: el.naturalWidth || el.videoWidth || 0,
			naturalHeight: el.naturalHeight || el.videoHeight || 0,
			src: el.currentSrc || el.src || '',
			background: cs.backgroundImage || '',
			transform: el.style.transform || (cs.transform === 'none' ? '' : cs.transform),
		};
	});
}`

const maxText = 200

// Page is a live tab implementing dom.Document
type Page struct {
	page   *rod.Page
	owned  bool
	logger logger.Logger
}

func newPage(p *rod.Page, owned bool, log logger.Logger) *Page {
	return &Page{page: p, owned: owned, logger: log}
}

// Rod exposes the underlying page
func (p *Page) Rod() *rod.Page {
	return p.page
}

// Close closes the tab if it was opened by this process
func (p *Page) Close() error {
	if !p.owned {
		return nil
	}
	return p.page.Close()
}

func (p *Page) eval(ctx context.Context, js string, args ...interface{}) (*proto.RuntimeRemoteObject, error) {
	res, err := p.page.Context(ctx).Eval(js, args...)
	if err != nil {
		return nil, fmt.Errorf("browser: eval: %w", err)
	}
	return res, nil
}

func (p *Page) Query(ctx context.Context, scope *dom.Node, css string) ([]dom.Node, error) {
	scopeID := ""
	if scope != nil {
		scopeID = scope.Handle
	}
	res, err := p.eval(ctx, snapshotJS, handleAttr, scopeID, css, maxText)
	if err != nil {
		return nil, err
	}
	var nodes []dom.Node
	if err := res.Value.Unmarshal(&nodes); err != nil {
		return nil, fmt.Errorf("browser: decode nodes: %w", err)
	}
	return nodes, nil
}

func (p *Page) element(ctx context.Context, n dom.Node) (*rod.Element, error) {
	els, err := p.page.Context(ctx).Elements(fmt.Sprintf(`[%s="%s"]`, handleAttr, n.Handle))
	if err != nil {
		return nil, fmt.Errorf("browser: lookup %s: %w", n.Handle, err)
	}
	if len(els) == 0 {
		return nil, fmt.Errorf("browser: element %s is no longer attached", n.Handle)
	}
	return els[0], nil
}

// Click sends a real mouse click, falling back to a scripted click when the
// element is covered or not interactable
func (p *Page) Click(ctx context.Context, n dom.Node) error {
	el, err := p.element(ctx, n)
	if err != nil {
		return err
	}
	err = el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	p.logger.WithField("handle", n.Handle).WithError(err).Debug("Mouse click failed, using scripted click")
	_, err = el.Context(ctx).Eval(`function() { this.click() }`)
	return err
}

func (p *Page) ClickAt(ctx context.Context, x, y float64) error {
	page := p.page.Context(ctx)
	if err := page.Mouse.MoveTo(proto.Point{X: x, Y: y}); err != nil {
		return fmt.Errorf("browser: move mouse: %w", err)
	}
	return page.Mouse.Click(proto.InputMouseButtonLeft, 1)
}

var keys = map[dom.Key]input.Key{
	dom.KeyEscape:     input.Escape,
	dom.KeyArrowRight: input.ArrowRight,
	dom.KeySpace:      input.Space,
}

func (p *Page) PressKey(ctx context.Context, key dom.Key) error {
	k, ok := keys[key]
	if !ok {
		return fmt.Errorf("browser: unsupported key %q", key)
	}
	return p.page.Context(ctx).Keyboard.Type(k)
}

func (p *Page) Remove(ctx context.Context, n dom.Node) error {
	_, err := p.eval(ctx, `(attr, id) => {
		const el = document.querySelector('[' + attr + '="' + id + '"]');
		if (el) el.remove();
	}`, handleAttr, n.Handle)
	return err
}

func (p *Page) ScrollIntoView(ctx context.Context, n dom.Node) error {
	_, err := p.eval(ctx, `(attr, id) => {
		const el = document.querySelector('[' + attr + '="' + id + '"]');
		if (!el) throw new Error('element ' + id + ' is no longer attached');
		el.scrollIntoView({block: 'center', inline: 'center'});
	}`, handleAttr, n.Handle)
	return err
}

func (p *Page) ScrollToBottom(ctx context.Context) (float64, error) {
	res, err := p.eval(ctx, `() => {
		const h = document.documentElement.scrollHeight;
		window.scrollTo(0, h);
		return document.documentElement.scrollHeight;
	}`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *Page) ScrollToTop(ctx context.Context) error {
	_, err := p.eval(ctx, `() => window.scrollTo(0, 0)`)
	return err
}

func (p *Page) ScrollHeight(ctx context.Context) (float64, error) {
	res, err := p.eval(ctx, `() => document.documentElement.scrollHeight`)
	if err != nil {
		return 0, err
	}
	return res.Value.Num(), nil
}

func (p *Page) Viewport(ctx context.Context) (dom.Rect, error) {
	res, err := p.eval(ctx, `() => ({x: 0, y: 0, width: window.innerWidth, height: window.innerHeight})`)
	if err != nil {
		return dom.Rect{}, err
	}
	var r dom.Rect
	if err := res.Value.Unmarshal(&r); err != nil {
		return dom.Rect{}, fmt.Errorf("browser: decode viewport: %w", err)
	}
	return r, nil
}

func (p *Page) URL(ctx context.Context) (string, error) {
	res, err := p.eval(ctx, `() => location.href`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *Page) Back(ctx context.Context) error {
	return p.page.Context(ctx).NavigateBack()
}
