// internal/errors/service_test.go
package errors

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"
)

// Test configuration constants
const (
	TestCircuitBreakerResetTimeout = 100 * time.Millisecond
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, http.StatusOK},
		{"validation", NewValidationError("platform", "Unsupported platform: myspace"), http.StatusBadRequest},
		{"wrapped validation", fmt.Errorf("request: %w", NewValidationError("url", "bad url")), http.StatusBadRequest},
		{"navigation", NewScrapeError(KindNavigation, "instagram", "https://x", fmt.Errorf("timeout")), http.StatusInternalServerError},
		{"resource", NewScrapeError(KindResource, "instagram", "https://x", fmt.Errorf("no chrome")), http.StatusInternalServerError},
		{"unavailable", NewScrapeError(KindUnavailable, "instagram", "https://x", fmt.Errorf("open")), http.StatusServiceUnavailable},
		{"plain", fmt.Errorf("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.want {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestScrapeError_MessageAndUnwrap(t *testing.T) {
	cause := fmt.Errorf("net::ERR_NAME_NOT_RESOLVED")
	err := NewScrapeError(KindNavigation, "facebook", "https://facebook.com/x", cause)

	if err.Error() != cause.Error() {
		t.Errorf("expected cause message, got %q", err.Error())
	}
	if err.Unwrap() != cause {
		t.Error("Unwrap did not return the cause")
	}

	se, ok := AsScrape(fmt.Errorf("outer: %w", err))
	if !ok || se.Kind != KindNavigation || se.Platform != "facebook" {
		t.Errorf("AsScrape failed on wrapped error: %+v %v", se, ok)
	}
	if _, ok := AsScrape(fmt.Errorf("plain")); ok {
		t.Error("AsScrape matched a plain error")
	}
}

func TestValidationError_Message(t *testing.T) {
	err := NewValidationError("platform", "Unsupported platform: myspace")
	if err.Error() != "Unsupported platform: myspace" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !IsValidation(err) {
		t.Error("IsValidation returned false")
	}
}

func TestService_GetExitCode(t *testing.T) {
	service := NewService(CircuitBreakerConfig{})

	tests := []struct {
		err  error
		want int
	}{
		{nil, 0},
		{NewValidationError("url", "bad"), 6},
		{NewScrapeError(KindNavigation, "", "", fmt.Errorf("x")), 3},
		{NewScrapeError(KindUnavailable, "", "", fmt.Errorf("x")), 3},
		{NewScrapeError(KindExtraction, "", "", fmt.Errorf("x")), 4},
		{NewScrapeError(KindResource, "", "", fmt.Errorf("x")), 1},
		{fmt.Errorf("failed to load config: yaml: line 3"), 2},
		{fmt.Errorf("something else"), 1},
	}

	for _, tt := range tests {
		if got := service.GetExitCode(tt.err); got != tt.want {
			t.Errorf("GetExitCode(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestService_FormatErrorForCLI(t *testing.T) {
	service := NewService(CircuitBreakerConfig{})
	err := NewScrapeError(KindNavigation, "twitter", "https://x.com/a", fmt.Errorf("navigation timed out"))

	out := service.FormatErrorForCLI(err)
	if !strings.Contains(out, "Navigation Failed") {
		t.Errorf("expected title in output: %s", out)
	}
	if strings.Contains(out, "Technical details") {
		t.Errorf("technical details shown without verbose: %s", out)
	}

	out = service.WithVerbose(true).FormatErrorForCLI(err)
	if !strings.Contains(out, "navigation timed out") {
		t.Errorf("expected cause in verbose output: %s", out)
	}
	if !strings.Contains(out, "Suggestions:") {
		t.Errorf("expected suggestions: %s", out)
	}
}

func TestService_BreakerPerName(t *testing.T) {
	service := NewService(CircuitBreakerConfig{MaxFailures: 1, ResetTimeout: time.Minute})

	ig := service.Breaker("instagram")
	if service.Breaker("instagram") != ig {
		t.Error("expected the same breaker for the same name")
	}

	ig.RecordFailure()
	if ig.CanExecute() {
		t.Error("instagram breaker should be open")
	}
	if !service.Breaker("facebook").CanExecute() {
		t.Error("facebook breaker should be independent")
	}

	stats := service.GetCircuitBreakerStats()
	if len(stats) != 2 {
		t.Errorf("expected 2 breakers in stats, got %d", len(stats))
	}
	igStats, ok := stats["instagram"].(map[string]interface{})
	if !ok || igStats["state"] != "open" {
		t.Errorf("expected open instagram breaker in stats, got %v", stats["instagram"])
	}
}
