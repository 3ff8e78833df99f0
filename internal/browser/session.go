// internal/browser/session.go
package browser

import (
	"context"
	"errors"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

// SessionFunc runs against a page that has finished navigating.
type SessionFunc func(ctx context.Context, page Page) error

// SessionManager scopes one page to one unit of work. The page is closed and
// its browser released on every exit path.
type SessionManager interface {
	WithSession(ctx context.Context, url string, opts NavigateOptions, fn SessionFunc) error
}

// PooledSessionManager opens sessions on browsers from a BrowserPool.
type PooledSessionManager struct {
	pool     *BrowserPool
	defaults NavigateOptions
	logger   utils.Logger
}

// NewPooledSessionManager creates a session manager. Zero fields in the
// options passed to WithSession fall back to defaults.
func NewPooledSessionManager(pool *BrowserPool, defaults NavigateOptions, logger utils.Logger) *PooledSessionManager {
	if defaults.WaitUntil == "" {
		defaults.WaitUntil = WaitNetworkIdle
	}
	if logger == nil {
		logger = utils.NewComponentLogger("browser_session")
	}
	return &PooledSessionManager{pool: pool, defaults: defaults, logger: logger}
}

// WithSession acquires a browser, opens a page, navigates to url and runs fn.
func (m *PooledSessionManager) WithSession(ctx context.Context, url string, opts NavigateOptions, fn SessionFunc) (err error) {
	if opts.Timeout <= 0 {
		opts.Timeout = m.defaults.Timeout
	}
	if opts.WaitUntil == "" {
		opts.WaitUntil = m.defaults.WaitUntil
	}

	lease, err := m.pool.Acquire(ctx)
	if err != nil {
		return err
	}

	var page Page
	defer func() {
		if page != nil {
			if cerr := page.Close(); cerr != nil {
				m.logger.Warnf("closing page: %v", cerr)
				if err == nil {
					err = cerr
				}
			}
		}
		discard := IsResource(err) || errors.Is(err, ErrPageClosed)
		if rerr := lease.Release(discard); rerr != nil {
			m.logger.Warnf("releasing browser: %v", rerr)
		}
	}()

	page, err = lease.Browser().NewPage(ctx)
	if err != nil {
		page = nil
		return err
	}

	log := m.logger.WithField("url", url)
	log.Debugf("navigating (wait_until=%s, timeout=%s)", opts.WaitUntil, opts.Timeout)

	if err = page.Navigate(ctx, url, opts); err != nil {
		return err
	}

	return fn(ctx, page)
}

// Pool returns the underlying pool.
func (m *PooledSessionManager) Pool() *BrowserPool { return m.pool }

// Close closes the pool.
func (m *PooledSessionManager) Close() error { return m.pool.Close() }
