package api

import (
	"context"

	"github.com/valpere/SocialScrapexter/internal/social"
	"github.com/valpere/SocialScrapexter/internal/store"
)

// Re-export types from internal packages for public API
type MetricsRequest = social.Request
type MetricsResponse = social.Result
type Snapshot = store.Snapshot

// MetricsService is the part of social.Service the API serves.
type MetricsService interface {
	GetMetrics(ctx context.Context, req social.Request) (social.Result, error)
	Platforms() []string
}

// HistoryStore returns recorded snapshots.
type HistoryStore interface {
	History(ctx context.Context, platform, url string, limit int) ([]store.Snapshot, error)
}

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// PlatformsResponse lists the platforms the service can scrape.
type PlatformsResponse struct {
	Platforms []string `json:"platforms"`
}

// HistoryResponse holds recent snapshots for one profile or platform.
type HistoryResponse struct {
	Platform  string           `json:"platform"`
	URL       string           `json:"url,omitempty"`
	Snapshots []store.Snapshot `json:"snapshots"`
}
