// internal/browser/types.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// Supported engines.
const (
	EngineChromedp   = "chromedp"
	EngineRod        = "rod"
	EnginePlaywright = "playwright"
)

// WaitUntil selects the page state that ends a navigation.
type WaitUntil string

const (
	// WaitNetworkIdle waits until the page has had no network activity for a short window.
	WaitNetworkIdle WaitUntil = "networkidle"
	// WaitLoad waits for the load event only.
	WaitLoad WaitUntil = "load"
)

// Config defines browser automation configuration
type Config struct {
	Engine            string        `yaml:"engine" json:"engine"`
	Headless          bool          `yaml:"headless" json:"headless"`
	ExecPath          string        `yaml:"exec_path,omitempty" json:"exec_path,omitempty"`
	UserAgent         string        `yaml:"user_agent,omitempty" json:"user_agent,omitempty"`
	ViewportWidth     int           `yaml:"viewport_width" json:"viewport_width"`
	ViewportHeight    int           `yaml:"viewport_height" json:"viewport_height"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout" json:"navigation_timeout"`
	WaitUntil         WaitUntil     `yaml:"wait_until" json:"wait_until"`
	DisableImages     bool          `yaml:"disable_images" json:"disable_images"`
	Pool              PoolConfig    `yaml:"pool" json:"pool"`
}

// PoolConfig bounds how many browsers run and how long they live.
type PoolConfig struct {
	MaxBrowsers    int           `yaml:"max_browsers" json:"max_browsers"`
	MaxUses        int           `yaml:"max_uses" json:"max_uses"`
	AcquireTimeout time.Duration `yaml:"acquire_timeout" json:"acquire_timeout"`
	LaunchAttempts int           `yaml:"launch_attempts" json:"launch_attempts"`
	LaunchBackoff  time.Duration `yaml:"launch_backoff" json:"launch_backoff"`
}

// DefaultConfig returns default browser configuration
func DefaultConfig() Config {
	return Config{
		Engine:            EngineChromedp,
		Headless:          true,
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		NavigationTimeout: 30 * time.Second,
		WaitUntil:         WaitNetworkIdle,
		Pool: PoolConfig{
			MaxBrowsers:    4,
			MaxUses:        20,
			AcquireTimeout: 30 * time.Second,
			LaunchAttempts: 2,
			LaunchBackoff:  500 * time.Millisecond,
		},
	}
}

// NavigateOptions controls a single navigation.
type NavigateOptions struct {
	Timeout   time.Duration
	WaitUntil WaitUntil
}

// Page is one tab, owned by a single session.
type Page interface {
	// Navigate loads url and waits for opts.WaitUntil within opts.Timeout.
	Navigate(ctx context.Context, url string, opts NavigateOptions) error

	// Content returns the rendered document HTML.
	Content(ctx context.Context) (string, error)

	// Text returns the text of the first element matching the CSS selector,
	// waiting at most timeout for it to appear. A miss wraps ErrElementNotFound.
	Text(ctx context.Context, selector string, timeout time.Duration) (string, error)

	// Close closes the tab. Closing twice is a no-op.
	Close() error
}

// Browser is a running browser instance.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	// Healthy reports whether the instance can still serve pages.
	Healthy() bool
	Close() error
}

// Launcher starts browser instances for one engine.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
	Engine() string
}

var (
	// ErrElementNotFound is returned by Page.Text when the selector matches nothing in time.
	ErrElementNotFound = errors.New("element not found")
	// ErrPageClosed is returned by operations on a closed page.
	ErrPageClosed = errors.New("page is closed")
	// ErrPoolClosed is returned by Acquire after Close.
	ErrPoolClosed = errors.New("browser pool is closed")
)

// NavigationError reports a failed or timed out navigation.
type NavigationError struct {
	URL   string
	Cause error
}

func (e *NavigationError) Error() string {
	return fmt.Sprintf("navigation to %s failed: %v", e.URL, e.Cause)
}

func (e *NavigationError) Unwrap() error { return e.Cause }

// ResourceError reports a failure to launch, open or tear down a browser or page.
type ResourceError struct {
	Op    string
	Cause error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("browser %s failed: %v", e.Op, e.Cause)
}

func (e *ResourceError) Unwrap() error { return e.Cause }

// IsNavigation reports whether err wraps a NavigationError.
func IsNavigation(err error) bool {
	var ne *NavigationError
	return errors.As(err, &ne)
}

// IsResource reports whether err wraps a ResourceError.
func IsResource(err error) bool {
	var re *ResourceError
	return errors.As(err, &re)
}

type launcherOptions struct {
	logger utils.Logger
}

// LauncherOption customises a Launcher.
type LauncherOption func(*launcherOptions)

// WithLogger sets the logger used for engine diagnostics.
func WithLogger(logger utils.Logger) LauncherOption {
	return func(o *launcherOptions) { o.logger = logger }
}

func buildLauncherOptions(opts []LauncherOption) launcherOptions {
	o := launcherOptions{logger: utils.NewComponentLogger("browser")}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewLauncher returns the launcher for cfg.Engine.
func NewLauncher(cfg Config, opts ...LauncherOption) (Launcher, error) {
	switch cfg.Engine {
	case "", EngineChromedp:
		return NewChromeLauncher(cfg, opts...), nil
	case EngineRod:
		return NewRodLauncher(cfg, opts...), nil
	case EnginePlaywright:
		return NewPlaywrightLauncher(cfg, opts...), nil
	default:
		return nil, fmt.Errorf("unknown browser engine %q", cfg.Engine)
	}
}

// PoolStats contains browser pool statistics
type PoolStats struct {
	MaxBrowsers int   `json:"max_browsers"`
	InUse       int   `json:"in_use"`
	Idle        int   `json:"idle"`
	Created     int64 `json:"created"`
	Discarded   int64 `json:"discarded"`
	LaunchFails int64 `json:"launch_failures"`
}
