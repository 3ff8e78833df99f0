// internal/monitoring/health.go
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name      string                                      `json:"name"`
	CheckFunc func(ctx context.Context) HealthCheckResult `json:"-"`
	Timeout   time.Duration                               `json:"-"`
	Critical  bool                                        `json:"critical"`
}

// HealthCheckResult represents the result of a health check
type HealthCheckResult struct {
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Error     error                  `json:"-"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Duration  time.Duration          `json:"duration"`
}

// checkState is the latest result of a check as served over HTTP.
type checkState struct {
	Status    HealthStatus           `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Error     string                 `json:"error,omitempty"`
	Critical  bool                   `json:"critical"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	LastCheck time.Time              `json:"last_check"`
	Duration  string                 `json:"duration"`
}

// HealthConfig configuration for health monitoring
type HealthConfig struct {
	CheckInterval    time.Duration `json:"check_interval"`
	DefaultTimeout   time.Duration `json:"default_timeout"`
	DetailedResponse bool          `json:"detailed_response"`
	Version          string        `json:"version"`
}

// SystemHealth represents overall system health information
type SystemHealth struct {
	Status    HealthStatus          `json:"status"`
	Timestamp time.Time             `json:"timestamp"`
	Version   string                `json:"version,omitempty"`
	Uptime    string                `json:"uptime"`
	Checks    map[string]checkState `json:"checks,omitempty"`
	Summary   HealthSummary         `json:"summary"`
	System    SystemMetrics         `json:"system"`
}

// HealthSummary provides a summary of health checks
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Degraded  int `json:"degraded"`
	Unknown   int `json:"unknown"`
	Critical  int `json:"critical"`
}

// SystemMetrics provides system-level metrics
type SystemMetrics struct {
	GoroutineCount int    `json:"goroutine_count"`
	AllocatedBytes uint64 `json:"allocated_bytes"`
	SystemBytes    uint64 `json:"system_bytes"`
	NumGC          uint32 `json:"num_gc"`
}

// HealthManager runs registered checks periodically and serves their
// latest results.
type HealthManager struct {
	mu      sync.RWMutex
	checks  map[string]*HealthCheck
	results map[string]HealthCheckResult
	config  HealthConfig
	started time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
}

// NewHealthManager creates a new health manager
func NewHealthManager(config HealthConfig) *HealthManager {
	if config.CheckInterval == 0 {
		config.CheckInterval = 30 * time.Second
	}
	if config.DefaultTimeout == 0 {
		config.DefaultTimeout = 5 * time.Second
	}

	return &HealthManager{
		checks:  make(map[string]*HealthCheck),
		results: make(map[string]HealthCheckResult),
		config:  config,
		started: time.Now(),
		stopCh:  make(chan struct{}),
	}
}

// RegisterCheck registers a new health check
func (hm *HealthManager) RegisterCheck(check *HealthCheck) {
	if check.Timeout == 0 {
		check.Timeout = hm.config.DefaultTimeout
	}

	hm.mu.Lock()
	hm.checks[check.Name] = check
	hm.mu.Unlock()
}

// Start runs all checks immediately and then every CheckInterval until ctx
// is done or Stop is called.
func (hm *HealthManager) Start(ctx context.Context) {
	ticker := time.NewTicker(hm.config.CheckInterval)

	go func() {
		defer ticker.Stop()
		hm.RunChecks(ctx)

		for {
			select {
			case <-ticker.C:
				hm.RunChecks(ctx)
			case <-hm.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the health monitoring
func (hm *HealthManager) Stop() {
	hm.stopOnce.Do(func() { close(hm.stopCh) })
}

// RunChecks runs every registered check concurrently and stores the results.
func (hm *HealthManager) RunChecks(ctx context.Context) {
	hm.mu.RLock()
	checks := make([]*HealthCheck, 0, len(hm.checks))
	for _, check := range hm.checks {
		checks = append(checks, check)
	}
	hm.mu.RUnlock()

	var wg sync.WaitGroup
	for _, check := range checks {
		wg.Add(1)
		go func(c *HealthCheck) {
			defer wg.Done()
			result := runCheck(ctx, c)

			hm.mu.Lock()
			hm.results[c.Name] = result
			hm.mu.Unlock()
		}(check)
	}
	wg.Wait()
}

func runCheck(ctx context.Context, check *HealthCheck) HealthCheckResult {
	start := time.Now()

	checkCtx, cancel := context.WithTimeout(ctx, check.Timeout)
	defer cancel()

	var result HealthCheckResult
	if check.CheckFunc != nil {
		result = check.CheckFunc(checkCtx)
	} else {
		result = HealthCheckResult{
			Status:  HealthStatusUnknown,
			Message: "No check function defined",
		}
	}

	result.LastCheck = start
	result.Duration = time.Since(start)
	return result
}

// GetHealth returns the overall health status
func (hm *HealthManager) GetHealth() SystemHealth {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	health := SystemHealth{
		Timestamp: time.Now(),
		Version:   hm.config.Version,
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		System:    systemMetrics(),
	}
	if hm.config.DetailedResponse {
		health.Checks = make(map[string]checkState, len(hm.checks))
	}

	summary := HealthSummary{}
	overall := HealthStatusHealthy

	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		check := hm.checks[name]
		result, ok := hm.results[name]
		if !ok {
			result = HealthCheckResult{Status: HealthStatusUnknown, Message: "not checked yet"}
		}

		summary.Total++
		if check.Critical {
			summary.Critical++
		}

		switch result.Status {
		case HealthStatusHealthy:
			summary.Healthy++
		case HealthStatusUnhealthy:
			summary.Unhealthy++
			if check.Critical {
				overall = HealthStatusUnhealthy
			} else if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		case HealthStatusDegraded:
			summary.Degraded++
			if overall == HealthStatusHealthy {
				overall = HealthStatusDegraded
			}
		default:
			summary.Unknown++
		}

		if health.Checks != nil {
			state := checkState{
				Status:    result.Status,
				Message:   result.Message,
				Critical:  check.Critical,
				Metadata:  result.Metadata,
				LastCheck: result.LastCheck,
				Duration:  result.Duration.String(),
			}
			if result.Error != nil {
				state.Error = result.Error.Error()
			}
			health.Checks[name] = state
		}
	}

	health.Status = overall
	health.Summary = summary
	return health
}

// GetReadiness reports whether the service can take traffic: degraded is
// ready, unhealthy is not.
func (hm *HealthManager) GetReadiness() SystemHealth {
	health := hm.GetHealth()
	if health.Status != HealthStatusUnhealthy {
		health.Status = HealthStatusHealthy
	}
	return health
}

// GetLiveness reports the process as alive as long as it can answer.
func (hm *HealthManager) GetLiveness() SystemHealth {
	return SystemHealth{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now(),
		Version:   hm.config.Version,
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		System:    systemMetrics(),
	}
}

func systemMetrics() SystemMetrics {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return SystemMetrics{
		GoroutineCount: runtime.NumGoroutine(),
		AllocatedBytes: m.Alloc,
		SystemBytes:    m.Sys,
		NumGC:          m.NumGC,
	}
}

// HealthHandler returns HTTP handlers for health endpoints
func (hm *HealthManager) HealthHandler() http.HandlerFunc {
	return healthHandler(hm.GetHealth)
}

// ReadinessHandler returns HTTP handler for readiness endpoint
func (hm *HealthManager) ReadinessHandler() http.HandlerFunc {
	return healthHandler(hm.GetReadiness)
}

// LivenessHandler returns HTTP handler for liveness endpoint
func (hm *HealthManager) LivenessHandler() http.HandlerFunc {
	return healthHandler(hm.GetLiveness)
}

func healthHandler(get func() SystemHealth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := get()

		w.Header().Set("Content-Type", "application/json")
		if health.Status == HealthStatusUnhealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		} else {
			w.WriteHeader(http.StatusOK)
		}

		_ = json.NewEncoder(w).Encode(health)
	}
}

// PingHealthCheck wraps a connectivity check such as a Redis or MongoDB ping.
func PingHealthCheck(name string, critical bool, ping func(ctx context.Context) error) *HealthCheck {
	return &HealthCheck{
		Name:     name,
		Critical: critical,
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			if err := ping(ctx); err != nil {
				return HealthCheckResult{
					Status:  HealthStatusUnhealthy,
					Message: fmt.Sprintf("%s unreachable", name),
					Error:   err,
				}
			}
			return HealthCheckResult{
				Status:  HealthStatusHealthy,
				Message: fmt.Sprintf("%s reachable", name),
			}
		},
	}
}

// BrowserPoolHealthCheck reports the pool as degraded while every browser
// slot is busy and as unhealthy when launches fail with nothing running.
func BrowserPoolHealthCheck(stats func() browser.PoolStats) *HealthCheck {
	return &HealthCheck{
		Name:     "browser_pool",
		Critical: true,
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			s := stats()
			metadata := map[string]interface{}{
				"max_browsers":    s.MaxBrowsers,
				"in_use":          s.InUse,
				"idle":            s.Idle,
				"created":         s.Created,
				"discarded":       s.Discarded,
				"launch_failures": s.LaunchFails,
			}

			switch {
			case s.LaunchFails > 0 && s.Created == 0:
				return HealthCheckResult{
					Status:   HealthStatusUnhealthy,
					Message:  "no browser could be launched",
					Metadata: metadata,
				}
			case s.MaxBrowsers > 0 && s.InUse >= s.MaxBrowsers:
				return HealthCheckResult{
					Status:   HealthStatusDegraded,
					Message:  fmt.Sprintf("all %d browsers busy", s.MaxBrowsers),
					Metadata: metadata,
				}
			}
			return HealthCheckResult{
				Status:   HealthStatusHealthy,
				Message:  fmt.Sprintf("%d of %d browsers busy", s.InUse, s.MaxBrowsers),
				Metadata: metadata,
			}
		},
	}
}

// BreakerHealthCheck reports the per-platform circuit breakers. Any open
// breaker degrades the service; the stats are returned as metadata.
func BreakerHealthCheck(stats func() map[string]interface{}) *HealthCheck {
	return &HealthCheck{
		Name: "circuit_breakers",
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			all := stats()
			var open []string
			for name, s := range all {
				if m, ok := s.(map[string]interface{}); ok && m["state"] == "open" {
					open = append(open, name)
				}
			}
			sort.Strings(open)

			if len(open) > 0 {
				return HealthCheckResult{
					Status:   HealthStatusDegraded,
					Message:  fmt.Sprintf("circuit open for %s", strings.Join(open, ", ")),
					Metadata: all,
				}
			}
			return HealthCheckResult{
				Status:   HealthStatusHealthy,
				Message:  fmt.Sprintf("%d breakers closed", len(all)),
				Metadata: all,
			}
		},
	}
}

// GoroutineHealthCheck creates a goroutine count health check
func GoroutineHealthCheck(maxGoroutines int) *HealthCheck {
	return &HealthCheck{
		Name: "goroutines",
		CheckFunc: func(ctx context.Context) HealthCheckResult {
			count := runtime.NumGoroutine()
			metadata := map[string]interface{}{
				"goroutine_count": count,
				"max_allowed":     maxGoroutines,
			}

			if count > maxGoroutines {
				return HealthCheckResult{
					Status:   HealthStatusDegraded,
					Message:  fmt.Sprintf("High goroutine count: %d", count),
					Metadata: metadata,
				}
			}
			return HealthCheckResult{
				Status:   HealthStatusHealthy,
				Message:  fmt.Sprintf("Goroutine count normal: %d", count),
				Metadata: metadata,
			}
		},
	}
}
