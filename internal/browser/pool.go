// internal/browser/pool.go
package browser

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/sync/semaphore"

	"github.com/valpere/SocialScrapexter/internal/utils"
)

type pooledBrowser struct {
	Browser
	uses int
}

// BrowserPool keeps up to MaxBrowsers browser instances. Each instance serves
// one session at a time and is retired after MaxUses sessions.
type BrowserPool struct {
	launcher Launcher
	config   PoolConfig
	logger   utils.Logger
	sem      *semaphore.Weighted

	mu     sync.Mutex
	idle   []*pooledBrowser
	inUse  int
	closed bool

	created     atomic.Int64
	discarded   atomic.Int64
	launchFails atomic.Int64
}

// NewBrowserPool creates a new browser pool
func NewBrowserPool(launcher Launcher, config PoolConfig, logger utils.Logger) *BrowserPool {
	if config.MaxBrowsers <= 0 {
		config.MaxBrowsers = 4 // Default pool size
	}
	if config.MaxUses <= 0 {
		config.MaxUses = 1
	}
	if config.LaunchAttempts <= 0 {
		config.LaunchAttempts = 1
	}
	if logger == nil {
		logger = utils.NewComponentLogger("browser_pool")
	}

	return &BrowserPool{
		launcher: launcher,
		config:   config,
		logger:   logger,
		sem:      semaphore.NewWeighted(int64(config.MaxBrowsers)),
	}
}

// Lease is exclusive use of one pooled browser. Release must be called exactly once.
type Lease struct {
	pool     *BrowserPool
	browser  *pooledBrowser
	released atomic.Bool
}

// Browser returns the leased browser.
func (l *Lease) Browser() Browser { return l.browser.Browser }

// Release hands the browser back. A discarded browser is closed instead of reused.
func (l *Lease) Release(discard bool) error {
	if l.released.Swap(true) {
		return nil
	}
	return l.pool.release(l.browser, discard)
}

// Acquire waits for a free slot, honouring ctx and the acquire timeout, and
// returns a warm browser or launches a new one.
func (p *BrowserPool) Acquire(ctx context.Context) (*Lease, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, &ResourceError{Op: "acquire", Cause: ErrPoolClosed}
	}

	acquireCtx := ctx
	if p.config.AcquireTimeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, p.config.AcquireTimeout)
		defer cancel()
	}

	if err := p.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return nil, &ResourceError{Op: "acquire", Cause: ctx.Err()}
		}
		return nil, &ResourceError{Op: "acquire", Cause: fmt.Errorf("no browser available within %s", p.config.AcquireTimeout)}
	}

	pb, err := p.takeIdle()
	if err != nil {
		p.sem.Release(1)
		return nil, err
	}

	if pb == nil {
		b, err := p.launch(ctx)
		if err != nil {
			p.sem.Release(1)
			return nil, err
		}
		pb = &pooledBrowser{Browser: b}
	}

	pb.uses++

	p.mu.Lock()
	p.inUse++
	p.mu.Unlock()

	return &Lease{pool: p, browser: pb}, nil
}

// takeIdle pops a healthy idle browser, closing unhealthy ones on the way.
func (p *BrowserPool) takeIdle() (*pooledBrowser, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, &ResourceError{Op: "acquire", Cause: ErrPoolClosed}
		}
		n := len(p.idle)
		if n == 0 {
			p.mu.Unlock()
			return nil, nil
		}
		pb := p.idle[n-1]
		p.idle = p.idle[:n-1]
		p.mu.Unlock()

		if pb.Healthy() {
			return pb, nil
		}
		p.logger.Warn("discarding unhealthy idle browser")
		p.discard(pb)
	}
}

func (p *BrowserPool) launch(ctx context.Context) (Browser, error) {
	var lastErr error
	b, err := retry.DoWithData(
		func() (Browser, error) {
			b, err := p.launcher.Launch(ctx)
			if err != nil {
				lastErr = err
				p.launchFails.Add(1)
			}
			return b, err
		},
		retry.Context(ctx),
		retry.Attempts(uint(p.config.LaunchAttempts)),
		retry.Delay(p.config.LaunchBackoff),
		retry.MaxJitter(p.config.LaunchBackoff/2+time.Millisecond),
		retry.RetryIf(func(error) bool { return ctx.Err() == nil }),
		retry.OnRetry(func(n uint, err error) {
			p.logger.WithFields(map[string]interface{}{
				"attempt": n + 1,
				"engine":  p.launcher.Engine(),
			}).Warnf("browser launch failed, retrying: %v", err)
		}),
	)
	if err != nil {
		if lastErr == nil {
			lastErr = err
		}
		if IsResource(lastErr) {
			return nil, lastErr
		}
		return nil, &ResourceError{Op: "launch", Cause: lastErr}
	}

	p.created.Add(1)
	p.logger.Debugf("launched %s browser", p.launcher.Engine())
	return b, nil
}

func (p *BrowserPool) release(pb *pooledBrowser, discard bool) error {
	defer p.sem.Release(1)

	p.mu.Lock()
	p.inUse--
	keep := !p.closed && !discard && pb.uses < p.config.MaxUses && pb.Healthy()
	if keep {
		p.idle = append(p.idle, pb)
	}
	p.mu.Unlock()

	if keep {
		return nil
	}
	return p.discard(pb)
}

func (p *BrowserPool) discard(pb *pooledBrowser) error {
	p.discarded.Add(1)
	if err := pb.Close(); err != nil {
		p.logger.Warnf("closing browser: %v", err)
		return err
	}
	return nil
}

// Stats returns a snapshot of the pool state.
func (p *BrowserPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PoolStats{
		MaxBrowsers: p.config.MaxBrowsers,
		InUse:       p.inUse,
		Idle:        len(p.idle),
		Created:     p.created.Load(),
		Discarded:   p.discarded.Load(),
		LaunchFails: p.launchFails.Load(),
	}
}

// Engine returns the launcher's engine name.
func (p *BrowserPool) Engine() string { return p.launcher.Engine() }

// Close closes idle browsers and refuses further acquisitions. Leased
// browsers are closed when released.
func (p *BrowserPool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	idle := p.idle
	p.idle = nil
	p.mu.Unlock()

	var firstErr error
	for _, pb := range idle {
		if err := p.discard(pb); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
