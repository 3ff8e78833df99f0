// internal/social/types.go
package social

import (
	"context"
	"time"

	"github.com/valpere/SocialScrapexter/internal/extractor"
)

// Request asks for the metrics of one public profile.
type Request struct {
	Platform string `json:"platform"`
	URL      string `json:"url"`
}

// Result is the metrics triple returned to callers.
type Result = extractor.Result

// Cache stores recent results per platform and URL.
type Cache interface {
	Get(ctx context.Context, platform, url string) (Result, bool, error)
	Set(ctx context.Context, platform, url string, result Result) error
}

// Recorder persists successful scrapes.
type Recorder interface {
	Record(ctx context.Context, platform, url string, result Result, took time.Duration) error
}

// Observer receives one call per GetMetrics outcome.
type Observer interface {
	ObserveScrape(platform, outcome string, took time.Duration)
}

// Outcomes reported to the Observer.
const (
	OutcomeSuccess     = "success"
	OutcomeCacheHit    = "cache_hit"
	OutcomeInvalid     = "invalid"
	OutcomeUnavailable = "unavailable"
	OutcomeNavigation  = "navigation_error"
	OutcomeResource    = "resource_error"
	OutcomeExtraction  = "extraction_error"
)
