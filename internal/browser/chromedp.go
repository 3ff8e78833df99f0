// internal/browser/chromedp.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// ChromeLauncher starts Chrome instances through chromedp.
type ChromeLauncher struct {
	config Config
	logger utils.Logger
}

// NewChromeLauncher creates a chromedp-backed launcher
func NewChromeLauncher(config Config, opts ...LauncherOption) *ChromeLauncher {
	o := buildLauncherOptions(opts)
	return &ChromeLauncher{config: config, logger: o.logger.WithField("engine", EngineChromedp)}
}

// Engine returns the engine name.
func (l *ChromeLauncher) Engine() string { return EngineChromedp }

func (l *ChromeLauncher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.DisableGPU,
		chromedp.NoSandbox, // Required for Docker environments
		chromedp.Flag("headless", l.config.Headless),
	)

	if l.config.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(l.config.ExecPath))
	}
	if l.config.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(l.config.UserAgent))
	}
	if l.config.ViewportWidth > 0 && l.config.ViewportHeight > 0 {
		opts = append(opts, chromedp.WindowSize(l.config.ViewportWidth, l.config.ViewportHeight))
	}
	if l.config.DisableImages {
		opts = append(opts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	return opts
}

// Launch starts a browser process. The process outlives ctx; ctx only bounds startup.
func (l *ChromeLauncher) Launch(ctx context.Context) (Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, &ResourceError{Op: "launch", Cause: err}
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), l.allocatorOptions()...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(l.logger.Debugf))

	started := make(chan error, 1)
	go func() { started <- chromedp.Run(browserCtx) }()

	select {
	case err := <-started:
		if err != nil {
			browserCancel()
			allocCancel()
			return nil, &ResourceError{Op: "launch", Cause: err}
		}
	case <-ctx.Done():
		browserCancel()
		allocCancel()
		return nil, &ResourceError{Op: "launch", Cause: ctx.Err()}
	}

	l.logger.Debug("chrome started")

	b := &chromeBrowser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		config:      l.config,
		logger:      l.logger,
	}
	b.healthy.Store(true)
	return b, nil
}

type chromeBrowser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	config      Config
	logger      utils.Logger
	healthy     atomic.Bool
	closeOnce   sync.Once
}

func (b *chromeBrowser) NewPage(ctx context.Context) (Page, error) {
	if b.ctx.Err() != nil {
		b.healthy.Store(false)
		return nil, &ResourceError{Op: "new page", Cause: b.ctx.Err()}
	}

	tabCtx, tabCancel := chromedp.NewContext(b.ctx)

	var mainFrame cdp.FrameID
	init := []chromedp.Action{
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			mainFrame = tree.Frame.ID
			return nil
		}),
	}
	if b.config.ViewportWidth > 0 && b.config.ViewportHeight > 0 {
		init = append(init, chromedp.EmulateViewport(int64(b.config.ViewportWidth), int64(b.config.ViewportHeight)))
	}

	// The first Run on a fresh tab context creates the target, so it must
	// not carry a deadline of its own.
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(tabCtx, init...) }()

	select {
	case err := <-done:
		if err != nil {
			tabCancel()
			b.healthy.Store(false)
			return nil, &ResourceError{Op: "new page", Cause: err}
		}
	case <-ctx.Done():
		tabCancel()
		return nil, &ResourceError{Op: "new page", Cause: ctx.Err()}
	}

	return &chromePage{ctx: tabCtx, cancel: tabCancel, mainFrame: mainFrame}, nil
}

func (b *chromeBrowser) Healthy() bool {
	return b.healthy.Load() && b.ctx.Err() == nil
}

func (b *chromeBrowser) Close() error {
	var err error
	b.closeOnce.Do(func() {
		b.healthy.Store(false)
		if cerr := chromedp.Cancel(b.ctx); cerr != nil && !errors.Is(cerr, context.Canceled) {
			err = &ResourceError{Op: "close", Cause: cerr}
		}
		b.cancel()
		b.allocCancel()
	})
	return err
}

type chromePage struct {
	ctx       context.Context
	cancel    context.CancelFunc
	mainFrame cdp.FrameID
	closed    atomic.Bool
}

// bounded derives a context from the tab that also ends when the caller's
// ctx does, optionally with a timeout.
func (p *chromePage) bounded(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(p.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (p *chromePage) Navigate(ctx context.Context, url string, opts NavigateOptions) error {
	if p.closed.Load() {
		return ErrPageClosed
	}

	runCtx, cancel := p.bounded(ctx, opts.Timeout)
	defer cancel()

	idle := make(chan struct{})
	if opts.WaitUntil != WaitLoad {
		var (
			mu       sync.Mutex
			loaderID cdp.LoaderID
			once     sync.Once
		)
		chromedp.ListenTarget(runCtx, func(ev interface{}) {
			e, ok := ev.(*page.EventLifecycleEvent)
			if !ok || (p.mainFrame != "" && e.FrameID != p.mainFrame) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			switch e.Name {
			case "init":
				loaderID = e.LoaderID
			case "networkIdle":
				if loaderID != "" && e.LoaderID == loaderID {
					once.Do(func() { close(idle) })
				}
			}
		})
	} else {
		close(idle)
	}

	if err := chromedp.Run(runCtx, chromedp.Navigate(url)); err != nil {
		return p.navigationError(ctx, url, opts.Timeout, err)
	}

	select {
	case <-idle:
		return nil
	case <-runCtx.Done():
		return p.navigationError(ctx, url, opts.Timeout, runCtx.Err())
	}
}

func (p *chromePage) navigationError(ctx context.Context, url string, timeout time.Duration, err error) error {
	if p.ctx.Err() != nil {
		return &ResourceError{Op: "navigate", Cause: ErrPageClosed}
	}
	if ctx.Err() != nil {
		return &NavigationError{URL: url, Cause: ctx.Err()}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &NavigationError{URL: url, Cause: fmt.Errorf("timed out after %s waiting for page", timeout)}
	}
	return &NavigationError{URL: url, Cause: err}
}

func (p *chromePage) Content(ctx context.Context) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}

	runCtx, cancel := p.bounded(ctx, 0)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		if p.ctx.Err() != nil {
			return "", ErrPageClosed
		}
		return "", fmt.Errorf("failed to get HTML: %w", err)
	}
	return html, nil
}

func (p *chromePage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	if p.closed.Load() {
		return "", ErrPageClosed
	}

	runCtx, cancel := p.bounded(ctx, timeout)
	defer cancel()

	var text string
	err := chromedp.Run(runCtx, chromedp.Text(selector, &text, chromedp.ByQuery))
	if err == nil {
		return text, nil
	}

	switch {
	case p.ctx.Err() != nil:
		return "", ErrPageClosed
	case ctx.Err() != nil:
		return "", ctx.Err()
	case errors.Is(err, context.DeadlineExceeded):
		return "", fmt.Errorf("%w: %s", ErrElementNotFound, selector)
	default:
		return "", fmt.Errorf("text lookup %s: %w", selector, err)
	}
}

func (p *chromePage) Close() error {
	if p.closed.Swap(true) {
		return nil
	}
	p.cancel()
	return nil
}
