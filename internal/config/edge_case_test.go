// internal/config/edge_case_test.go
package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/valpere/SocialScrapexter/internal/extractor"
)

func TestLoadFromBytesEdgeCases(t *testing.T) {
	tests := []struct {
		name        string
		content     string
		expectError bool
		errorMsg    string
	}{
		{name: "empty bytes", content: "", expectError: true, errorMsg: "cannot be empty"},
		{name: "whitespace only", content: "  \n\t", expectError: true, errorMsg: "cannot be empty"},
		{name: "malformed yaml", content: "server: [", expectError: true, errorMsg: "failed to parse"},
		{name: "bad duration", content: "scrape_timeout: soon", expectError: true, errorMsg: "failed to parse"},
		{name: "unknown engine", content: "browser:\n  engine: lynx", expectError: true, errorMsg: "browser.engine"},
		{name: "bad wait_until", content: "browser:\n  wait_until: domcontentloaded", expectError: true, errorMsg: "browser.wait_until"},
		{name: "negative max_browsers", content: "browser:\n  pool:\n    max_browsers: -1", expectError: true, errorMsg: "max_browsers"},
		{name: "unknown platform", content: "platforms:\n  myspace:\n    delay: 1s", expectError: true, errorMsg: "unknown platform"},
		{name: "negative delay", content: "platforms:\n  instagram:\n    delay: -1s", expectError: true, errorMsg: "platforms.instagram.delay"},
		{
			name:        "all platforms disabled",
			content:     "platforms:\n  instagram: {disabled: true}\n  facebook: {disabled: true}\n  twitter: {disabled: true}\n  linkedin: {disabled: true}",
			expectError: true,
			errorMsg:    "at least one platform",
		},
		{name: "bad log level", content: "logging:\n  level: chatty", expectError: true, errorMsg: "logging.level"},
		{name: "bad log format", content: "logging:\n  format: xml", expectError: true, errorMsg: "logging.format"},
		{name: "store with bad uri", content: "store:\n  enabled: true\n  uri: postgres://x", expectError: true, errorMsg: "store.uri"},
		{name: "rate limit without burst is defaulted", content: "server:\n  rate_limit: 3"},
		{name: "platform alias key", content: "platforms:\n  X:\n    delay: 1s"},
		{name: "explicit log level", content: "logging:\n  level: WARN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromBytes([]byte(tt.content))
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error but got none")
				}
				if !strings.Contains(err.Error(), tt.errorMsg) {
					t.Errorf("expected error containing %q, got %q", tt.errorMsg, err.Error())
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestPlatformKeysAreNormalised(t *testing.T) {
	config, err := LoadFromBytes([]byte("platforms:\n  X:\n    delay: 1s\n  Instagram:\n    disabled: true\n"))
	if err != nil {
		t.Fatal(err)
	}
	if config.Platforms[extractor.Twitter].Delay != time.Second {
		t.Errorf("x alias not applied to twitter: %+v", config.Platforms)
	}
	if !config.Platforms[extractor.Instagram].Disabled {
		t.Error("instagram should be disabled")
	}
	if _, ok := config.Platforms["x"]; ok {
		t.Error("alias key should not survive normalisation")
	}
}

func TestValidateDetailedWarnings(t *testing.T) {
	config := Default()
	config.ScrapeTimeout = 2 * time.Minute
	config.Server.WriteTimeout = 30 * time.Second
	config.Browser.Headless = false

	result := config.ValidateDetailed()
	if !result.Valid {
		t.Fatalf("expected valid config, got %v", result.Errors)
	}
	if len(result.Warnings) < 2 {
		t.Errorf("expected warnings for timeouts and headful mode, got %v", result.Warnings)
	}
}

func TestEnvironmentVariableEdgeCases(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		yaml     string
		expected string
	}{
		{
			name:     "defined variable",
			envVars:  map[string]string{"SS_REDIS": "redis.internal:6380"},
			yaml:     "cache:\n  addr: ${SS_REDIS}",
			expected: "redis.internal:6380",
		},
		{
			name:     "undefined variable with default",
			yaml:     "cache:\n  addr: ${SS_UNDEFINED_ADDR:-cache:6379}",
			expected: "cache:6379",
		},
		{
			name:     "empty variable uses default",
			envVars:  map[string]string{"SS_EMPTY": ""},
			yaml:     "cache:\n  addr: ${SS_EMPTY:-fallback:6379}",
			expected: "fallback:6379",
		},
		{
			name:     "undefined variable without default falls back to built-in default",
			yaml:     "cache:\n  addr: ${SS_UNDEFINED_ADDR}",
			expected: "localhost:6379",
		},
		{
			name:     "variable inside a larger value",
			envVars:  map[string]string{"SS_HOST": "10.0.0.5"},
			yaml:     "cache:\n  addr: \"${SS_HOST}:6379\"",
			expected: "10.0.0.5:6379",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			config, err := LoadFromBytes([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if config.Cache.Addr != tt.expected {
				t.Errorf("cache.addr = %q, want %q", config.Cache.Addr, tt.expected)
			}
		})
	}
}

func TestConfigWatcher_Reload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("scrape_timeout: 30s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	watcher, err := NewConfigWatcher(path, nil)
	if err != nil {
		t.Skipf("file watching unavailable: %v", err)
	}
	defer watcher.Close()

	reloaded := make(chan *Config, 4)
	watcher.OnChange(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})

	// an invalid edit is ignored
	if err := os.WriteFile(path, []byte("browser:\n  engine: lynx\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("scrape_timeout: 10s\n"), 0644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(5 * time.Second)
	for {
		select {
		case c := <-reloaded:
			if c.ScrapeTimeout == 10*time.Second {
				return
			}
		case <-deadline:
			t.Fatal("configuration change not delivered")
		}
	}
}
