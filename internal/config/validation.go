// internal/config/validation.go - validation with detailed error messages
package config

import (
	"fmt"
	"strings"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/extractor"
	"github.com/valpere/SocialScrapexter/internal/utils"
)

// ValidationError represents a detailed validation error
type ValidationError struct {
	Field   string `json:"field"`
	Value   string `json:"value"`
	Message string `json:"message"`
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ve.Field, ve.Message)
}

// ValidationResult holds validation results
type ValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Warnings []string          `json:"warnings"`
}

func (r *ValidationResult) addError(field string, value interface{}, message string) {
	r.Valid = false
	r.Errors = append(r.Errors, ValidationError{
		Field:   field,
		Value:   fmt.Sprintf("%v", value),
		Message: message,
	})
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate returns an error listing every invalid setting.
func (c *Config) Validate() error {
	result := c.ValidateDetailed()
	if len(result.Errors) == 0 {
		return nil
	}

	msgs := make([]string, len(result.Errors))
	for i, e := range result.Errors {
		msgs[i] = e.Error()
	}
	return fmt.Errorf("%d validation error(s): %s", len(msgs), strings.Join(msgs, "; "))
}

// ValidateDetailed checks the configuration and also collects warnings.
func (c *Config) ValidateDetailed() *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]ValidationError, 0),
		Warnings: make([]string, 0),
	}

	c.validateServer(result)
	c.validateBrowser(result)
	c.validatePlatforms(result)
	c.validateBackends(result)
	c.validateLogging(result)

	return result
}

func (c *Config) validateServer(result *ValidationResult) {
	if c.Server.Address == "" {
		result.addError("server.address", "", "listen address is required")
	}
	if c.Server.RateLimit < 0 {
		result.addError("server.rate_limit", c.Server.RateLimit, "must not be negative")
	}
	if c.Server.RateLimit > 0 && c.Server.RateBurst < 1 {
		result.addError("server.rate_burst", c.Server.RateBurst, "must be at least 1 when rate limiting is enabled")
	}
	if c.Server.WriteTimeout > 0 && c.ScrapeTimeout > c.Server.WriteTimeout {
		result.addWarning("scrape_timeout (%s) exceeds server.write_timeout (%s); slow scrapes will be cut off",
			c.ScrapeTimeout, c.Server.WriteTimeout)
	}
}

func (c *Config) validateBrowser(result *ValidationResult) {
	b := c.Browser
	switch b.Engine {
	case browser.EngineChromedp, browser.EngineRod, browser.EnginePlaywright:
	default:
		result.addError("browser.engine", b.Engine, "must be one of chromedp, rod, playwright")
	}

	switch b.WaitUntil {
	case browser.WaitNetworkIdle, browser.WaitLoad:
	default:
		result.addError("browser.wait_until", b.WaitUntil, "must be networkidle or load")
	}

	if b.NavigationTimeout < 0 {
		result.addError("browser.navigation_timeout", b.NavigationTimeout, "must not be negative")
	}
	if b.ViewportWidth < 0 || b.ViewportHeight < 0 {
		result.addError("browser.viewport", fmt.Sprintf("%dx%d", b.ViewportWidth, b.ViewportHeight), "must not be negative")
	}
	if b.Pool.MaxBrowsers < 1 {
		result.addError("browser.pool.max_browsers", b.Pool.MaxBrowsers, "must be at least 1")
	}
	if b.Pool.MaxUses < 1 {
		result.addError("browser.pool.max_uses", b.Pool.MaxUses, "must be at least 1")
	}
	if b.Pool.LaunchAttempts < 1 {
		result.addError("browser.pool.launch_attempts", b.Pool.LaunchAttempts, "must be at least 1")
	}
	if b.Pool.MaxBrowsers > 32 {
		result.addWarning("browser.pool.max_browsers=%d; each browser uses several hundred MB", b.Pool.MaxBrowsers)
	}
	if !b.Headless {
		result.addWarning("browser.headless is false; a display is required")
	}
}

func (c *Config) validatePlatforms(result *ValidationResult) {
	known := extractor.DefaultOptions()
	enabled := 0
	for name, opts := range c.Platforms {
		if _, ok := known[name]; !ok {
			result.addError("platforms."+name, name, "unknown platform")
			continue
		}
		if opts.Delay < 0 {
			result.addError("platforms."+name+".delay", opts.Delay, "must not be negative")
		}
		if opts.LookupTimeout < 0 {
			result.addError("platforms."+name+".lookup_timeout", opts.LookupTimeout, "must not be negative")
		}
		if !opts.Disabled {
			enabled++
		}
		if c.ScrapeTimeout > 0 && opts.Delay >= c.ScrapeTimeout {
			result.addWarning("platforms.%s.delay (%s) is not shorter than scrape_timeout (%s)", name, opts.Delay, c.ScrapeTimeout)
		}
	}
	if enabled == 0 {
		result.addError("platforms", "", "at least one platform must be enabled")
	}
	if c.ScrapeTimeout < 0 {
		result.addError("scrape_timeout", c.ScrapeTimeout, "must not be negative")
	}
}

func (c *Config) validateBackends(result *ValidationResult) {
	if c.Breaker.MaxFailures < 0 {
		result.addError("breaker.max_failures", c.Breaker.MaxFailures, "must not be negative")
	}
	if c.Cache.Enabled {
		if c.Cache.Addr == "" {
			result.addError("cache.addr", "", "required when the cache is enabled")
		}
		if c.Cache.TTL <= 0 {
			result.addError("cache.ttl", c.Cache.TTL, "must be positive")
		}
	}
	if c.Store.Enabled {
		if !strings.HasPrefix(c.Store.URI, "mongodb://") && !strings.HasPrefix(c.Store.URI, "mongodb+srv://") {
			result.addError("store.uri", "<redacted>", "must be a mongodb:// or mongodb+srv:// URI")
		}
		if c.Store.Database == "" || c.Store.Collection == "" {
			result.addError("store", "", "database and collection are required when the store is enabled")
		}
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		result.addError("metrics.path", c.Metrics.Path, "must start with /")
	}
}

func (c *Config) validateLogging(result *ValidationResult) {
	level := strings.ToLower(c.Logging.Level)
	if utils.ParseLogLevel(level) == utils.InfoLevel && level != "info" {
		result.addError("logging.level", c.Logging.Level, "must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		result.addError("logging.format", c.Logging.Format, "must be text or json")
	}
}
