// internal/errors/service.go - breaker registry and user-facing error formatting
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"sync"
)

// Service keeps one circuit breaker per platform and turns errors into
// CLI-friendly messages and exit codes.
type Service struct {
	breakerConfig   CircuitBreakerConfig
	circuitBreakers map[string]*CircuitBreaker
	showTechnical   bool
	mu              sync.RWMutex
}

// NewService creates an error service. A zero breaker config disables breakers.
func NewService(config CircuitBreakerConfig) *Service {
	return &Service{
		breakerConfig:   config,
		circuitBreakers: make(map[string]*CircuitBreaker),
	}
}

// WithVerbose enables technical error details
func (s *Service) WithVerbose(verbose bool) *Service {
	s.mu.Lock()
	s.showTechnical = verbose
	s.mu.Unlock()
	return s
}

// Breaker returns the breaker for name, creating it on first use.
func (s *Service) Breaker(name string) *CircuitBreaker {
	s.mu.RLock()
	cb, ok := s.circuitBreakers[name]
	s.mu.RUnlock()
	if ok {
		return cb
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if cb, ok := s.circuitBreakers[name]; ok {
		return cb
	}
	cb = NewCircuitBreaker(name, s.breakerConfig)
	s.circuitBreakers[name] = cb
	return cb
}

// GetCircuitBreakerStats returns stats for every breaker created so far.
func (s *Service) GetCircuitBreakerStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{}, len(s.circuitBreakers))
	for name, cb := range s.circuitBreakers {
		stats[name] = cb.GetStats()
	}
	return stats
}

// GetUserFriendlyError converts an error into a title, message and suggestions.
func (s *Service) GetUserFriendlyError(err error) (title, message string, suggestions []string) {
	if err == nil {
		return "", "", nil
	}

	var ve *ValidationError
	if stderrors.As(err, &ve) {
		return "Invalid Request", ve.Message,
			[]string{
				"Supported platforms: instagram, facebook, twitter (x), linkedin",
				"The URL must start with http:// or https://",
			}
	}

	if se, ok := AsScrape(err); ok {
		switch se.Kind {
		case KindNavigation:
			return "Navigation Failed",
				"The browser could not load the profile page in time.",
				[]string{
					"Check the profile URL opens in a normal browser",
					"Increase browser.navigation_timeout in the configuration",
					"The platform may be blocking automated browsers",
				}
		case KindResource:
			return "Browser Unavailable",
				"A headless browser could not be started or closed.",
				[]string{
					"Make sure Chrome/Chromium is installed and on PATH",
					"Lower browser.pool.max_browsers if the host is short on memory",
					"For the playwright engine run the playwright driver install",
				}
		case KindUnavailable:
			return "Platform Temporarily Disabled",
				"Too many consecutive failures for this platform; requests are paused.",
				[]string{
					"Wait for breaker.reset_timeout to pass",
					"Check whether the platform changed its markup or blocks scraping",
				}
		case KindExtraction:
			return "Extraction Failed",
				"The page loaded but its metrics could not be read.",
				[]string{
					"The platform layout may have changed",
				}
		}
	}

	errStr := strings.ToLower(err.Error())

	if strings.Contains(errStr, "yaml") || strings.Contains(errStr, "config") {
		return "Configuration Error",
			"The configuration file is invalid.",
			[]string{
				"Check YAML indentation (use spaces, not tabs)",
				"Run 'socialscrapexter template' for a valid starting point",
			}
	}

	return "Unexpected Error",
		"An unexpected error occurred during the operation.",
		[]string{
			"Try running the command again",
			"Check your configuration file",
		}
}

// GetExitCode returns appropriate exit code for error
func (s *Service) GetExitCode(err error) int {
	if err == nil {
		return 0
	}

	if IsValidation(err) {
		return 6
	}
	if se, ok := AsScrape(err); ok {
		switch se.Kind {
		case KindNavigation, KindUnavailable:
			return 3
		case KindExtraction:
			return 4
		default:
			return 1
		}
	}

	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "config") || strings.Contains(errStr, "yaml") {
		return 2
	}
	return 1
}

// FormatErrorForCLI renders err for terminal output.
func (s *Service) FormatErrorForCLI(err error) string {
	title, message, suggestions := s.GetUserFriendlyError(err)

	output := fmt.Sprintf("Error: %s\n%s\n", title, message)

	s.mu.RLock()
	verbose := s.showTechnical
	s.mu.RUnlock()
	if verbose {
		output += fmt.Sprintf("\nTechnical details: %s\n", err.Error())
	}

	if len(suggestions) > 0 {
		output += "\nSuggestions:\n"
		for _, suggestion := range suggestions {
			output += fmt.Sprintf("  - %s\n", suggestion)
		}
	}

	return output
}
