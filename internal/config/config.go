// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/extractor"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := base()
	applyDefaults(cfg)
	return cfg
}

// base holds the defaults that a zero value cannot express.
func base() *Config {
	return &Config{
		Browser: browser.DefaultConfig(),
		Metrics: MetricsConfig{Enabled: true},
	}
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	// Check if file exists
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes. Keys missing from the
// document keep their defaults.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := expandEnvironmentVariables(string(data))

	config := base()
	if err := yaml.Unmarshal([]byte(expanded), config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}

	applyDefaults(config)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// LoadFromReader loads configuration from an io.Reader
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %w", err)
	}

	return LoadFromBytes(data)
}

// GenerateTemplate returns a commented starter configuration.
func GenerateTemplate() string {
	return templateYAML
}

const templateYAML = `# socialscrapexter configuration
server:
  address: ":8080"
  read_timeout: 15s
  write_timeout: 90s
  shutdown_timeout: 30s
  rate_limit: 2        # requests per second, 0 disables
  rate_burst: 5

browser:
  engine: chromedp     # chromedp | rod | playwright
  headless: true
  viewport_width: 1920
  viewport_height: 1080
  navigation_timeout: 30s
  wait_until: networkidle   # networkidle | load
  pool:
    max_browsers: 4
    max_uses: 20       # 1 launches a fresh browser per request
    acquire_timeout: 30s
    launch_attempts: 2
    launch_backoff: 500ms

platforms:
  instagram: { delay: 3s }
  facebook:  { delay: 5s }
  twitter:   { delay: 7s, lookup_timeout: 5s }
  linkedin:  { delay: 3s }

scrape_timeout: 60s

breaker:
  max_failures: 5      # 0 disables
  reset_timeout: 1m

cache:
  enabled: false
  addr: "${REDIS_ADDR:-localhost:6379}"
  ttl: 15m
  prefix: "socialscrapexter:"

store:
  enabled: false
  uri: "${MONGO_URI:-mongodb://localhost:27017}"
  database: socialscrapexter
  collection: snapshots
  timeout: 10s

metrics:
  enabled: true
  path: /metrics
  namespace: socialscrapexter

logging:
  level: info          # debug | info | warn | error
  format: text         # text | json
`

// Helper functions

var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// expandEnvironmentVariables substitutes ${VAR} and ${VAR:-default}.
func expandEnvironmentVariables(content string) string {
	return envPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(m[1]); ok && value != "" {
			return value
		}
		return m[2]
	})
}

// applyDefaults applies default values to the configuration
func applyDefaults(config *Config) {
	if config.Server.Address == "" {
		config.Server.Address = ":8080"
	}
	if config.Server.ReadTimeout == 0 {
		config.Server.ReadTimeout = 15 * time.Second
	}
	if config.Server.WriteTimeout == 0 {
		config.Server.WriteTimeout = 90 * time.Second
	}
	if config.Server.ShutdownTimeout == 0 {
		config.Server.ShutdownTimeout = 30 * time.Second
	}
	if config.Server.RateLimit > 0 && config.Server.RateBurst == 0 {
		config.Server.RateBurst = 5
	}

	defaults := browser.DefaultConfig()
	if config.Browser.Engine == "" {
		config.Browser.Engine = defaults.Engine
	}
	if config.Browser.ViewportWidth == 0 {
		config.Browser.ViewportWidth = defaults.ViewportWidth
	}
	if config.Browser.ViewportHeight == 0 {
		config.Browser.ViewportHeight = defaults.ViewportHeight
	}
	if config.Browser.NavigationTimeout == 0 {
		config.Browser.NavigationTimeout = defaults.NavigationTimeout
	}
	if config.Browser.WaitUntil == "" {
		config.Browser.WaitUntil = defaults.WaitUntil
	}
	if config.Browser.Pool.MaxBrowsers == 0 {
		config.Browser.Pool.MaxBrowsers = defaults.Pool.MaxBrowsers
	}
	if config.Browser.Pool.MaxUses == 0 {
		config.Browser.Pool.MaxUses = defaults.Pool.MaxUses
	}
	if config.Browser.Pool.AcquireTimeout == 0 {
		config.Browser.Pool.AcquireTimeout = defaults.Pool.AcquireTimeout
	}
	if config.Browser.Pool.LaunchAttempts == 0 {
		config.Browser.Pool.LaunchAttempts = defaults.Pool.LaunchAttempts
	}
	if config.Browser.Pool.LaunchBackoff == 0 {
		config.Browser.Pool.LaunchBackoff = defaults.Pool.LaunchBackoff
	}

	// Canonical keys win over aliases such as "x".
	platforms := make(map[string]extractor.Options, len(config.Platforms))
	for name, opts := range config.Platforms {
		key := extractor.NormalizePlatform(name)
		if _, taken := platforms[key]; taken && key != name {
			continue
		}
		platforms[key] = opts
	}
	config.Platforms = platforms

	for name, def := range extractor.DefaultOptions() {
		opts, ok := config.Platforms[name]
		if !ok {
			config.Platforms[name] = def
			continue
		}
		if opts.Delay == 0 {
			opts.Delay = def.Delay
		}
		if opts.LookupTimeout == 0 {
			opts.LookupTimeout = def.LookupTimeout
		}
		config.Platforms[name] = opts
	}

	if config.ScrapeTimeout == 0 {
		config.ScrapeTimeout = 60 * time.Second
	}

	if config.Breaker.ResetTimeout == 0 {
		config.Breaker.ResetTimeout = time.Minute
	}

	if config.Cache.Addr == "" {
		config.Cache.Addr = "localhost:6379"
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = 15 * time.Minute
	}
	if config.Cache.Prefix == "" {
		config.Cache.Prefix = "socialscrapexter:"
	}

	if config.Store.URI == "" {
		config.Store.URI = "mongodb://localhost:27017"
	}
	if config.Store.Database == "" {
		config.Store.Database = "socialscrapexter"
	}
	if config.Store.Collection == "" {
		config.Store.Collection = "snapshots"
	}
	if config.Store.Timeout == 0 {
		config.Store.Timeout = 10 * time.Second
	}

	if config.Metrics.Path == "" {
		config.Metrics.Path = "/metrics"
	}
	if config.Metrics.Namespace == "" {
		config.Metrics.Namespace = "socialscrapexter"
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}
	if config.Logging.Format == "" {
		config.Logging.Format = "text"
	}
}
