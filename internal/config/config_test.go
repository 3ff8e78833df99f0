// internal/config/config_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/valpere/SocialScrapexter/internal/browser"
	"github.com/valpere/SocialScrapexter/internal/extractor"
)

func TestLoadFromBytes(t *testing.T) {
	configYAML := `
server:
  address: ":9090"
browser:
  engine: rod
  pool:
    max_browsers: 2
platforms:
  twitter:
    delay: 2s
scrape_timeout: 45s
`

	config, err := LoadFromBytes([]byte(configYAML))
	if err != nil {
		t.Fatalf("LoadFromBytes failed: %v", err)
	}

	if config.Server.Address != ":9090" {
		t.Errorf("expected address ':9090', got %q", config.Server.Address)
	}
	if config.Browser.Engine != browser.EngineRod {
		t.Errorf("expected rod engine, got %q", config.Browser.Engine)
	}
	if config.Browser.Pool.MaxBrowsers != 2 {
		t.Errorf("expected 2 browsers, got %d", config.Browser.Pool.MaxBrowsers)
	}
	if config.ScrapeTimeout != 45*time.Second {
		t.Errorf("expected 45s scrape timeout, got %s", config.ScrapeTimeout)
	}

	// untouched keys keep their defaults
	if !config.Browser.Headless {
		t.Error("headless should default to true")
	}
	if config.Browser.Pool.MaxUses != 20 {
		t.Errorf("expected default max_uses 20, got %d", config.Browser.Pool.MaxUses)
	}
	if config.Platforms[extractor.Twitter].Delay != 2*time.Second {
		t.Errorf("twitter delay = %s", config.Platforms[extractor.Twitter].Delay)
	}
	if config.Platforms[extractor.Twitter].LookupTimeout != 5*time.Second {
		t.Errorf("twitter lookup timeout should keep its default, got %s", config.Platforms[extractor.Twitter].LookupTimeout)
	}
	if config.Platforms[extractor.Facebook].Delay != 5*time.Second {
		t.Errorf("facebook delay = %s", config.Platforms[extractor.Facebook].Delay)
	}
	if !config.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("logging:\n  level: debug\n  format: json\n"), 0644); err != nil {
		t.Fatalf("failed to write temp file: %v", err)
	}

	config, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if config.Logging.Level != "debug" || config.Logging.Format != "json" {
		t.Errorf("unexpected logging config %+v", config.Logging)
	}

	if _, err := LoadFromFile(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	if _, err := LoadFromFile(""); err == nil {
		t.Error("expected error for empty filename")
	}
}

func TestDefault(t *testing.T) {
	config := Default()
	if err := config.Validate(); err != nil {
		t.Fatalf("default configuration should be valid: %v", err)
	}
	if config.Browser.Engine != browser.EngineChromedp {
		t.Errorf("default engine = %s", config.Browser.Engine)
	}
	if config.ScrapeTimeout != 60*time.Second {
		t.Errorf("default scrape timeout = %s", config.ScrapeTimeout)
	}
	if len(config.Platforms) != 4 {
		t.Errorf("expected 4 platforms, got %d", len(config.Platforms))
	}
}

func TestGenerateTemplate(t *testing.T) {
	config, err := LoadFromBytes([]byte(GenerateTemplate()))
	if err != nil {
		t.Fatalf("generated template should be valid: %v", err)
	}
	if config.Breaker.MaxFailures != 5 {
		t.Errorf("expected breaker max_failures 5, got %d", config.Breaker.MaxFailures)
	}
	if config.Cache.Enabled || config.Store.Enabled {
		t.Error("template should leave optional backends disabled")
	}
}
