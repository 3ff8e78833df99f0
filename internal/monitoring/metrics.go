// internal/monitoring/metrics.go
package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

// MetricsManager manages Prometheus metrics for SocialScrapexter
type MetricsManager struct {
	registry *prometheus.Registry

	// HTTP metrics
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight prometheus.Gauge
	rateLimitHits    prometheus.Counter

	// Scrape metrics
	scrapesTotal   *prometheus.CounterVec
	scrapeDuration *prometheus.HistogramVec

	namespace string
	subsystem string
}

// MetricsConfig configuration for metrics
type MetricsConfig struct {
	Namespace            string            `json:"namespace"`
	Subsystem            string            `json:"subsystem"`
	Labels               map[string]string `json:"labels"`
	EnableGoMetrics      bool              `json:"enable_go_metrics"`
	EnableProcessMetrics bool              `json:"enable_process_metrics"`
}

// NewMetricsManager creates a metrics manager with its own registry, so
// several managers can coexist in one process.
func NewMetricsManager(config MetricsConfig) *MetricsManager {
	if config.Namespace == "" {
		config.Namespace = "socialscrapexter"
	}

	registry := prometheus.NewRegistry()
	if config.EnableGoMetrics {
		registry.MustRegister(collectors.NewGoCollector())
	}
	if config.EnableProcessMetrics {
		registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	}

	mm := &MetricsManager{
		registry:  registry,
		namespace: config.Namespace,
		subsystem: config.Subsystem,
	}

	var reg prometheus.Registerer = registry
	if len(config.Labels) > 0 {
		reg = prometheus.WrapRegistererWith(prometheus.Labels(config.Labels), registry)
	}
	mm.initializeMetrics(promauto.With(reg))

	return mm
}

func (mm *MetricsManager) initializeMetrics(factory promauto.Factory) {
	mm.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests served",
		},
		[]string{"method", "route", "status_code"},
	)

	mm.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	mm.requestsInFlight = factory.NewGauge(
		prometheus.GaugeOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being served",
		},
	)

	mm.rateLimitHits = factory.NewCounter(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of requests rejected by the rate limiter",
		},
	)

	mm.scrapesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "scrapes_total",
			Help:      "Total number of metrics requests by platform and outcome",
		},
		[]string{"platform", "outcome"},
	)

	// Scrapes include fixed post-load delays of several seconds.
	mm.scrapeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: mm.namespace,
			Subsystem: mm.subsystem,
			Name:      "scrape_duration_seconds",
			Help:      "Metrics request duration in seconds",
			Buckets:   []float64{0.01, 0.5, 1, 2.5, 5, 10, 15, 20, 30, 45, 60},
		},
		[]string{"platform"},
	)
}

// RecordRequest records one served HTTP request.
func (mm *MetricsManager) RecordRequest(method, route string, statusCode int, duration time.Duration) {
	mm.requestsTotal.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	mm.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (mm *MetricsManager) IncRequestsInFlight() { mm.requestsInFlight.Inc() }

func (mm *MetricsManager) DecRequestsInFlight() { mm.requestsInFlight.Dec() }

func (mm *MetricsManager) RecordRateLimitHit() { mm.rateLimitHits.Inc() }

// ObserveScrape records the outcome of one metrics request.
func (mm *MetricsManager) ObserveScrape(platform, outcome string, took time.Duration) {
	mm.scrapesTotal.WithLabelValues(platform, outcome).Inc()
	mm.scrapeDuration.WithLabelValues(platform).Observe(took.Seconds())
}

// RegisterPoolStats exposes browser pool statistics as gauges read on every
// scrape of the metrics endpoint.
func (mm *MetricsManager) RegisterPoolStats(stats func() browser.PoolStats) {
	gauge := func(name, help string, value func(browser.PoolStats) float64) {
		mm.registry.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: mm.namespace,
				Subsystem: "browser_pool",
				Name:      name,
				Help:      help,
			},
			func() float64 { return value(stats()) },
		))
	}

	gauge("max_browsers", "Configured upper bound of live browsers",
		func(s browser.PoolStats) float64 { return float64(s.MaxBrowsers) })
	gauge("in_use", "Browsers currently serving a session",
		func(s browser.PoolStats) float64 { return float64(s.InUse) })
	gauge("idle", "Warm browsers waiting for a session",
		func(s browser.PoolStats) float64 { return float64(s.Idle) })
	gauge("created", "Browsers launched since start",
		func(s browser.PoolStats) float64 { return float64(s.Created) })
	gauge("discarded", "Browsers closed after retirement or failure",
		func(s browser.PoolStats) float64 { return float64(s.Discarded) })
	gauge("launch_failures", "Browser launches that failed after retries",
		func(s browser.PoolStats) float64 { return float64(s.LaunchFails) })
}

// Registry returns the registry backing this manager.
func (mm *MetricsManager) Registry() *prometheus.Registry {
	return mm.registry
}

// MetricsHandler returns an HTTP handler for metrics endpoint
func (mm *MetricsManager) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(mm.registry, promhttp.HandlerOpts{})
}
