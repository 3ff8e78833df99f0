// cmd/socialscrapexter/app.go - wires configuration into running components
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/cache"
	"github.com/valpere/SocialScrapexter/internal/config"
	scrapeerrors "github.com/valpere/SocialScrapexter/internal/errors"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/monitoring"
	"github.com/valpere/SocialScrapexter/internal/social"
	"github.com/valpere/SocialScrapexter/internal/store"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

type app struct {
	cfg      *config.Config
	logger   utils.Logger
	sessions *browser.PooledSessionManager
	service  *social.Service
	breakers *scrapeerrors.Service
	cache    *cache.Cache
	store    *store.MongoStore
	metrics  *monitoring.MetricsManager
	health   *monitoring.HealthManager
}

// loadConfig reads the file if one is given and falls back to defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func configureLogging(cfg *config.Config, verbose bool) {
	level := utils.ParseLogLevel(cfg.Logging.Level)
	if verbose {
		level = utils.DebugLevel
	}
	utils.Configure(os.Stderr, level, cfg.Logging.Format)
}

// newApp builds every component the configuration enables. Browsers are
// launched lazily on the first request.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:    cfg,
		logger: utils.NewComponentLogger("app"),
	}

	launcher, err := browser.NewLauncher(cfg.Browser, browser.WithLogger(utils.NewComponentLogger("browser")))
	if err != nil {
		return nil, fmt.Errorf("failed to create browser launcher: %w", err)
	}
	pool := browser.NewBrowserPool(launcher, cfg.Browser.Pool, utils.NewComponentLogger("pool"))

	nav := browser.NavigateOptions{
		Timeout:   cfg.Browser.NavigationTimeout,
		WaitUntil: cfg.Browser.WaitUntil,
	}
	a.sessions = browser.NewPooledSessionManager(pool, nav, utils.NewComponentLogger("session"))
	a.breakers = scrapeerrors.NewService(cfg.Breaker)

	opts := []social.Option{
		social.WithBreakers(a.breakers),
		social.WithNavigation(nav),
		social.WithScrapeTimeout(cfg.ScrapeTimeout),
	}

	a.health = monitoring.NewHealthManager(monitoring.HealthConfig{
		Version:          version,
		DetailedResponse: true,
	})
	a.health.RegisterCheck(monitoring.BrowserPoolHealthCheck(pool.Stats))
	a.health.RegisterCheck(monitoring.BreakerHealthCheck(a.breakers.GetCircuitBreakerStats))
	a.health.RegisterCheck(monitoring.GoroutineHealthCheck(10000))

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache, utils.NewComponentLogger("cache"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.cache = c
		opts = append(opts, social.WithCache(c))
		a.health.RegisterCheck(monitoring.PingHealthCheck("redis", false, c.Ping))
	}

	if cfg.Store.Enabled {
		s, err := store.NewMongoStore(ctx, cfg.Store, utils.NewComponentLogger("store"))
		if err != nil {
			a.Close()
			return nil, err
		}
		a.store = s
		opts = append(opts, social.WithRecorder(s))
		a.health.RegisterCheck(monitoring.PingHealthCheck("mongodb", false, s.Ping))
	}

	if cfg.Metrics.Enabled {
		a.metrics = monitoring.NewMetricsManager(monitoring.MetricsConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableGoMetrics:      true,
			EnableProcessMetrics: true,
		})
		a.metrics.RegisterPoolStats(pool.Stats)
		opts = append(opts, social.WithObserver(a.metrics))
	}

	a.service = social.NewService(a.sessions, extractor.NewRegistry(cfg.Platforms), opts...)
	return a, nil
}

// reload applies the parts of a new configuration that can change at runtime.
func (a *app) reload(cfg *config.Config) {
	configureLogging(cfg, verbose)
	a.service.SetRegistry(extractor.NewRegistry(cfg.Platforms))
	a.logger.Infof("configuration reloaded; platforms: %v", a.service.Platforms())
}

// Close releases browsers and backend connections.
func (a *app) Close() {
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Warnf("closing browser pool: %v", err)
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warnf("closing cache: %v", err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(context.Background()); err != nil {
			a.logger.Warnf("closing store: %v", err)
		}
	}
}
