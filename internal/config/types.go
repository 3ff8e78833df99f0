// internal/config/types.go
package config

import (
	"time"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/errors"
	"github.com/valpere/SocialScrapexter/internal/extractor"
)

// Config is the complete service configuration.
type Config struct {
	Server    ServerConfig                 `yaml:"server" json:"server"`
	Browser   browser.Config               `yaml:"browser" json:"browser"`
	Platforms map[string]extractor.Options `yaml:"platforms,omitempty" json:"platforms,omitempty"`

	// ScrapeTimeout bounds one metrics request end to end.
	ScrapeTimeout time.Duration `yaml:"scrape_timeout" json:"scrape_timeout"`

	Breaker errors.CircuitBreakerConfig `yaml:"breaker" json:"breaker"`
	Cache   CacheConfig                 `yaml:"cache" json:"cache"`
	Store   StoreConfig                 `yaml:"store" json:"store"`
	Metrics MetricsConfig               `yaml:"metrics" json:"metrics"`
	Logging LoggingConfig               `yaml:"logging" json:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Address         string        `yaml:"address" json:"address"`
	ReadTimeout     time.Duration `yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" json:"shutdown_timeout"`
	// RateLimit is requests per second across all clients; 0 disables limiting.
	RateLimit   float64  `yaml:"rate_limit" json:"rate_limit"`
	RateBurst   int      `yaml:"rate_burst" json:"rate_burst"`
	CORSOrigins []string `yaml:"cors_origins,omitempty" json:"cors_origins,omitempty"`
}

// CacheConfig configures the Redis result cache.
type CacheConfig struct {
	Enabled  bool          `yaml:"enabled" json:"enabled"`
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password,omitempty" json:"-"`
	DB       int           `yaml:"db" json:"db"`
	TTL      time.Duration `yaml:"ttl" json:"ttl"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
}

// StoreConfig configures the MongoDB snapshot store.
type StoreConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	URI        string        `yaml:"uri" json:"-"`
	Database   string        `yaml:"database" json:"database"`
	Collection string        `yaml:"collection" json:"collection"`
	Timeout    time.Duration `yaml:"timeout" json:"timeout"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" json:"enabled"`
	Path      string `yaml:"path" json:"path"`
	Namespace string `yaml:"namespace" json:"namespace"`
}

// LoggingConfig configures the root logger.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
}
