// internal/browser/playwright.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	pw "github.com/playwright-community/playwright-go"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// PlaywrightLauncher starts Chromium through the Playwright driver.
// The driver must already be installed (playwright install chromium).
type PlaywrightLauncher struct {
	config Config
	logger utils.Logger
}

// NewPlaywrightLauncher creates a playwright-backed launcher
func NewPlaywrightLauncher(config Config, opts ...LauncherOption) *PlaywrightLauncher {
	o := buildLauncherOptions(opts)
	return &PlaywrightLauncher{config: config, logger: o.logger.WithField("engine", EnginePlaywright)}
}

func (l *PlaywrightLauncher) Engine() string { return EnginePlaywright }

func (l *PlaywrightLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResourceError{Op: "launch", Cause: err}
	}

	instance, err := pw.Run()
	if err != nil {
		return nil, &ResourceError{Op: "launch", Cause: fmt.Errorf("could not start playwright: %w", err)}
	}

	launchOptions := pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(l.config.Headless),
		Args:     []string{"--no-sandbox", "--disable-dev-shm-usage"},
	}
	if l.config.ExecPath != "" {
		launchOptions.ExecutablePath = pw.String(l.config.ExecPath)
	}
	if l.config.DisableImages {
		launchOptions.Args = append(launchOptions.Args, "--blink-settings=imagesEnabled=false")
	}

	b, err := instance.Chromium.Launch(launchOptions)
	if err != nil {
		_ = instance.Stop()
		return nil, &ResourceError{Op: "launch", Cause: fmt.Errorf("could not launch chromium: %w", err)}
	}

	l.logger.Debugf("playwright chromium %s started", b.Version())

	return &playwrightBrowser{instance: instance, browser: b, config: l.config}, nil
}

type playwrightBrowser struct {
	instance  *pw.Playwright
	browser   pw.Browser
	config    Config
	broken    atomic.Bool
	closeOnce sync.Once
}

func (b *playwrightBrowser) NewPage(ctx context.Context) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResourceError{Op: "new page", Cause: err}
	}

	opts := pw.BrowserNewPageOptions{}
	if b.config.UserAgent != "" {
		opts.UserAgent = pw.String(b.config.UserAgent)
	}
	if b.config.ViewportWidth > 0 && b.config.ViewportHeight > 0 {
		opts.Viewport = &pw.Size{Width: b.config.ViewportWidth, Height: b.config.ViewportHeight}
	}

	p, err := b.browser.NewPage(opts)
	if err != nil {
		b.broken.Store(true)
		return nil, &ResourceError{Op: "new page", Cause: err}
	}
	return &playwrightPage{page: p}, nil
}

func (b *playwrightBrowser) Healthy() bool {
	return !b.broken.Load() && b.browser.IsConnected()
}

func (b *playwrightBrowser) Close() error {
	var errs []error
	b.closeOnce.Do(func() {
		b.broken.Store(true)
		if err := b.browser.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := b.instance.Stop(); err != nil {
			errs = append(errs, err)
		}
	})
	if len(errs) > 0 {
		return &ResourceError{Op: "close", Cause: errors.Join(errs...)}
	}
	return nil
}

type playwrightPage struct {
	page   pw.Page
	closed atomic.Bool
}

// timeoutMs clamps timeout to ctx's deadline. Playwright calls take no context.
func timeoutMs(ctx context.Context, timeout time.Duration) *float64 {
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout <= 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if timeout <= 0 {
		return nil
	}
	return pw.Float(float64(timeout.Milliseconds()))
}

func (p *playwrightPage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	if p.closed.Load() {
		return ErrPageClosed
	}
	if err := ctx.Err(); err != nil {
		return &NavigationError{URL: url, Cause: err}
	}

	waitUntil := pw.WaitUntilStateNetworkidle
	if opts.WaitUntil == WaitLoad {
		waitUntil = pw.WaitUntilStateLoad
	}

	_, err := p.page.Goto(url, pw.PageGotoOptions{
		WaitUntil: waitUntil,
		Timeout:   timeoutMs(ctx, opts.Timeout),
	})
	if err != nil {
		if errors.Is(err, pw.ErrTimeout) {
			return &NavigationError{URL: url, Cause: fmt.Errorf("timed out after %s waiting for page", opts.Timeout)}
		}
		return &NavigationError{URL: url, Cause: err}
	}
	return nil
}

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}
	html, err := p.page.Content()
	if err != nil {
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *playwrightPage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := p.page.Locator(selector).First().InnerText(pw.LocatorInnerTextOptions{
		Timeout: timeoutMs(ctx, timeout),
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		if errors.Is(err, pw.ErrTimeout) {
			return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
		}
		return "", fmt.Errorf("text lookup %s: %w", selector, err)
	}
	return text, nil
}

func (p *playwrightPage) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	if err := p.page.Close(); err != nil {
		return &ResourceError{Op: "close page", Cause: err}
	}
	return nil
}
