// internal/browser/rod.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// RodLauncher starts Chrome through go-rod's launcher.
type RodLauncher struct {
	config Config
	logger utils.Logger
}

// NewRodLauncher creates a rod-backed launcher
func NewRodLauncher(config Config, opts ...LauncherOption) *RodLauncher {
	o := buildLauncherOptions(opts)
	return &RodLauncher{config: config, logger: o.logger.WithField("engine", EngineRod)}
}

func (l *RodLauncher) Engine() string { return EngineRod }

func (l *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	ln := launcher.New().
		Context(ctx).
		Headless(l.config.Headless).
		Set("no-sandbox").
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if l.config.ExecPath != "" {
		ln = ln.Bin(l.config.ExecPath)
	}
	if l.config.DisableImages {
		ln = ln.Set("blink-settings", "imagesEnabled=false")
	}

	u, err := ln.Launch()
	if err != nil {
		return nil, &ResourceError{Op: "launch", Cause: err}
	}

	// The browser must not inherit the launch context.
	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		ln.Kill()
		return nil, &ResourceError{Op: "connect", Cause: err}
	}

	l.logger.Debugf("rod browser connected at %s", u)

	rb := &rodBrowser{browser: b, launcher: ln, config: l.config}
	rb.healthy.Store(true)
	return rb, nil
}

type rodBrowser struct {
	browser   *rod.Browser
	launcher  *launcher.Launcher
	config    Config
	healthy   atomic.Bool
	closeOnce sync.Once
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	p, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if ctx.Err() == nil {
			b.healthy.Store(false)
		}
		return nil, &ResourceError{Op: "new page", Cause: err}
	}
	// detach from the acquisition context
	p = p.Context(context.Background())

	if b.config.UserAgent != "" {
		if err := p.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: b.config.UserAgent}); err != nil {
			_ = p.Close()
			return nil, &ResourceError{Op: "new page", Cause: err}
		}
	}
	if b.config.ViewportWidth > 0 && b.config.ViewportHeight > 0 {
		err := p.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             b.config.ViewportWidth,
			Height:            b.config.ViewportHeight,
			DeviceScaleFactor: 1,
		})
		if err != nil {
			_ = p.Close()
			return nil, &ResourceError{Op: "new page", Cause: err}
		}
	}

	return &rodPage{page: p}, nil
}

func (b *rodBrowser) Healthy() bool { return b.healthy.Load() }

func (b *rodBrowser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.healthy.Store(false)
		if cerr := b.browser.Close(); cerr != nil {
			err = &ResourceError{Op: "close", Cause: cerr}
		}
		b.launcher.Kill()
		b.launcher.Cleanup()
	})
	return err
}

type rodPage struct {
	page   *rod.Page
	closed atomic.Bool
}

func (p *rodPage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	if p.closed.Load() {
		return ErrPageClosed
	}

	pg := p.page.Context(ctx)
	if opts.Timeout > 0 {
		pg = pg.Timeout(opts.Timeout)
		defer pg.CancelTimeout()
	}

	event := proto.PageLifecycleEventNameNetworkIdle
	if opts.WaitUntil == WaitLoad {
		event = proto.PageLifecycleEventNameLoad
	}

	wait := pg.WaitNavigation(event)
	if err := pg.Navigate(url); err != nil {
		return rodNavigationError(ctx, url, opts.Timeout, err)
	}
	wait()

	if err := pg.GetContext().Err(); err != nil {
		return rodNavigationError(ctx, url, opts.Timeout, err)
	}
	return nil
}

func rodNavigationError(ctx context.Context, url string, timeout time.Duration, err error) error {
	if ctx.Err() != nil {
		return &NavigationError{URL: url, Cause: ctx.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NavigationError{URL: url, Cause: fmt.Errorf("timed out after %s waiting for page", timeout)}
	}
	return &NavigationError{URL: url, Cause: err}
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *rodPage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}

	pg := p.page.Context(ctx)
	if timeout > 0 {
		pg = pg.Timeout(timeout)
		defer pg.CancelTimeout()
	}

	el, err := pg.Element(selector)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return "", fmt.Errorf("text lookup %s: %w", selector, err)
	}

	text, err := el.Text()
	if err != nil {
		return "", fmt.Errorf("text lookup %s: %w", selector, err)
	}
	return text, nil
}

func (p *rodPage) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.page.Close(); err != nil {
		return &ResourceError{Op: "close page", Cause: err}
	}
	return nil
}
