// Package browser drives Chrome through the DevTools protocol and exposes an
// open tab as a dom.Document.
package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"igharvest/pkg/config"
	"igharvest/pkg/logger"
)

// Browser is a launched or attached Chrome instance
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	cfg      config.BrowserConfig
	attached bool
	logger   logger.Logger
}

// Launch starts Chrome, or connects to cfg.ControlURL when set so an already
// logged-in session is reused
func Launch(ctx context.Context, cfg config.BrowserConfig, log logger.Logger) (*Browser, error) {
	log = logger.OrDefault(log).WithField("component", "browser")
	b := &Browser{cfg: cfg, logger: log}

	wsURL := cfg.ControlURL
	if wsURL != "" {
		if !strings.HasPrefix(wsURL, "ws") {
			resolved, err := launcher.ResolveURL(wsURL)
			if err != nil {
				return nil, fmt.Errorf("browser: resolve %s: %w", wsURL, err)
			}
			wsURL = resolved
		}
		b.attached = true
		log.WithField("url", wsURL).Info("Attaching to running browser")
	} else {
		l := launcher.New().
			Headless(cfg.Headless).
			Set("disable-blink-features", "AutomationControlled").
			Context(ctx)
		if cfg.UserDataDir != "" {
			l = l.UserDataDir(cfg.UserDataDir)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		b.launcher = l
		log.InfoWithFields("Launched local browser", map[string]interface{}{
			"headless": cfg.Headless,
			"stealth":  cfg.Stealth,
		})
	}

	rb := rod.New().ControlURL(wsURL)
	if err := rb.Connect(); err != nil {
		b.cleanup()
		return nil, fmt.Errorf("browser: connect: %w", err)
	}
	b.browser = rb
	return b, nil
}

// Open navigates a new tab to pageURL and waits for it to load
func (b *Browser) Open(ctx context.Context, pageURL string) (*Page, error) {
	var (
		p   *rod.Page
		err error
	)
	if b.cfg.Stealth {
		p, err = stealth.Page(b.browser)
	} else {
		p, err = b.browser.Page(proto.TargetCreateTarget{})
	}
	if err != nil {
		return nil, fmt.Errorf("browser: create tab: %w", err)
	}

	timeout := b.cfg.NavigationTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := p.Context(navCtx).Navigate(pageURL); err != nil {
		p.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := p.Context(navCtx).WaitLoad(); err != nil {
		b.logger.WithField("url", pageURL).WithError(err).Warn("Wait for load timed out")
	}
	return newPage(p, true, b.logger), nil
}

// Active returns an existing tab whose URL satisfies match. Only useful when
// attached to the user's own browser.
func (b *Browser) Active(match func(url string) bool) (*Page, bool) {
	pages, err := b.browser.Pages()
	if err != nil {
		return nil, false
	}
	for _, p := range pages {
		info, err := p.Info()
		if err != nil {
			continue
		}
		if match(info.URL) {
			return newPage(p, false, b.logger), true
		}
	}
	return nil, false
}

// Attached reports whether Close leaves the browser running
func (b *Browser) Attached() bool {
	return b.attached
}

// Close shuts a launched browser down. An attached browser is only disconnected.
func (b *Browser) Close() error {
	return b.cleanup()
}

func (b *Browser) cleanup() error {
	var err error
	if b.browser != nil && !b.attached {
		err = b.browser.Close()
	}
	b.browser = nil
	if b.launcher != nil {
		b.launcher.Cleanup()
		b.launcher = nil
	}
	return err
}
