// internal/social/service.go
package social

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/valpere/SocialScrapexter/internal/browser"
	scrapeerrors "github.com/valpere/SocialScrapexter/internal/errors"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

// DefaultScrapeTimeout bounds a whole GetMetrics call.
const DefaultScrapeTimeout = 60 * time.Second

// Service validates metrics requests and runs the platform extractor inside
// a browser session.
type Service struct {
	sessions      browser.SessionManager
	registry      atomic.Pointer[extractor.Registry]
	breakers      *scrapeerrors.Service
	cache         Cache
	recorder      Recorder
	observer      Observer
	navigation    browser.NavigateOptions
	scrapeTimeout time.Duration
	logger        utils.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables result caching.
func WithCache(c Cache) Option { return func(s *Service) { s.cache = c } }

// WithRecorder enables snapshot recording.
func WithRecorder(r Recorder) Option { return func(s *Service) { s.recorder = r } }

// WithObserver reports outcomes, typically to Prometheus.
func WithObserver(o Observer) Option { return func(s *Service) { s.observer = o } }

// WithBreakers enables per-platform circuit breakers.
func WithBreakers(b *scrapeerrors.Service) Option { return func(s *Service) { s.breakers = b } }

// WithNavigation sets the navigation options passed to every session.
func WithNavigation(opts browser.NavigateOptions) Option {
	return func(s *Service) { s.navigation = opts }
}

// WithScrapeTimeout bounds each call. Zero or negative disables the bound.
func WithScrapeTimeout(d time.Duration) Option { return func(s *Service) { s.scrapeTimeout = d } }

// WithLogger sets the logger.
func WithLogger(l utils.Logger) Option { return func(s *Service) { s.logger = l } }

// NewService creates a metrics service.
func NewService(sessions browser.SessionManager, registry *extractor.Registry, opts ...Option) *Service {
	s := &Service{
		sessions:      sessions,
		scrapeTimeout: DefaultScrapeTimeout,
		logger:        utils.NewComponentLogger("social"),
	}
	s.registry.Store(registry)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRegistry swaps the extractor registry, e.g. after a configuration
// reload. Requests already running keep the extractor they started with.
func (s *Service) SetRegistry(registry *extractor.Registry) {
	s.registry.Store(registry)
}

// Platforms returns the supported platform names.
func (s *Service) Platforms() []string {
	return s.registry.Load().Platforms()
}

// GetMetrics scrapes the profile at req.URL. Validation failures return a
// *errors.ValidationError before any browser work; every later failure is an
// *errors.ScrapeError.
func (s *Service) GetMetrics(ctx context.Context, req Request) (Result, error) {
	start := time.Now()

	platform, url, ext, err := s.validate(req)
	if err != nil {
		s.observe(platform, OutcomeInvalid, start)
		return Result{}, err
	}

	log := s.logger.WithFields(map[string]interface{}{
		"platform": platform,
		"url":      url,
	})

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, platform, url)
		switch {
		case err != nil:
			log.Warnf("cache lookup failed: %v", err)
		case ok:
			log.Debug("cache hit")
			s.observe(platform, OutcomeCacheHit, start)
			return cached, nil
		}
	}

	var breaker *scrapeerrors.CircuitBreaker
	if s.breakers != nil {
		breaker = s.breakers.Breaker(platform)
		if !breaker.CanExecute() {
			s.observe(platform, OutcomeUnavailable, start)
			return Result{}, scrapeerrors.NewScrapeError(scrapeerrors.KindUnavailable, platform, url, breaker.OpenError())
		}
	}

	if s.scrapeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.scrapeTimeout)
		defer cancel()
	}

	var result Result
	err = s.sessions.WithSession(ctx, url, s.navigation, func(ctx context.Context, page browser.Page) error {
		r, err := ext.Extract(ctx, page)
		if err != nil {
			return &extractionFailure{err: err}
		}
		result = r
		return nil
	})
	if err != nil {
		se := s.classify(ctx, platform, url, err)
		// Only the browser environment trips the breaker. Navigation and
		// extraction failures depend on the URL the caller sent.
		switch {
		case se.Kind != scrapeerrors.KindResource:
			breaker.RecordSuccess()
		case ctx.Err() != nil:
			breaker.Release()
		default:
			breaker.RecordFailure()
		}
		log.WithField("kind", string(se.Kind)).Warnf("scrape failed: %v", se.Cause)
		s.observe(platform, outcomeFor(se.Kind), start)
		return Result{}, se
	}
	breaker.RecordSuccess()

	result = result.Clamp()
	took := time.Since(start)

	if s.cache != nil {
		if err := s.cache.Set(ctx, platform, url, result); err != nil {
			log.Warnf("cache store failed: %v", err)
		}
	}
	if s.recorder != nil {
		if err := s.recorder.Record(ctx, platform, url, result, took); err != nil {
			log.Warnf("recording snapshot failed: %v", err)
		}
	}

	log.WithFields(map[string]interface{}{
		"followers": result.Followers,
		"following": result.Following,
		"posts":     result.Posts,
		"took":      took.String(),
	}).Info("scraped social metrics")
	s.observe(platform, OutcomeSuccess, start)

	return result, nil
}

func (s *Service) validate(req Request) (string, string, extractor.Extractor, error) {
	platform := extractor.NormalizePlatform(req.Platform)
	url := strings.TrimSpace(req.URL)

	if platform == "" || url == "" {
		return platform, url, nil, scrapeerrors.NewValidationError("platform", "platform and url are required")
	}
	lower := strings.ToLower(url)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return platform, url, nil, scrapeerrors.NewValidationError("url", "Invalid URL")
	}
	ext, ok := s.registry.Load().Get(platform)
	if !ok {
		return platform, url, nil, scrapeerrors.NewValidationError("platform", "Unsupported platform")
	}
	return platform, url, ext, nil
}

type extractionFailure struct {
	err error
}

func (e *extractionFailure) Error() string { return e.err.Error() }

func (e *extractionFailure) Unwrap() error { return e.err }

func (s *Service) classify(ctx context.Context, platform, url string, err error) *scrapeerrors.ScrapeError {
	kind := scrapeerrors.KindResource
	var ef *extractionFailure
	switch {
	case browser.IsResource(err):
		kind = scrapeerrors.KindResource
	case browser.IsNavigation(err):
		kind = scrapeerrors.KindNavigation
	case errors.As(err, &ef):
		kind = scrapeerrors.KindExtraction
	}

	cause := err
	if ef != nil {
		cause = ef.err
	}
	if errors.Is(err, context.DeadlineExceeded) && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		cause = fmt.Errorf("scrape timed out after %s: %w", s.scrapeTimeout, cause)
	}
	return scrapeerrors.NewScrapeError(kind, platform, url, cause)
}

func outcomeFor(kind scrapeerrors.Kind) string {
	switch kind {
	case scrapeerrors.KindNavigation:
		return OutcomeNavigation
	case scrapeerrors.KindExtraction:
		return OutcomeExtraction
	case scrapeerrors.KindUnavailable:
		return OutcomeUnavailable
	default:
		return OutcomeResource
	}
}

func (s *Service) observe(platform, outcome string, start time.Time) {
	if s.observer == nil {
		return
	}
	if _, ok := s.registry.Load().Get(platform); !ok {
		platform = "unknown"
	}
	s.observer.ObserveScrape(platform, outcome, time.Since(start))
}
