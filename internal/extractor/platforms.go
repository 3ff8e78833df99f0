// internal/extractor/platforms.go
package extractor

import (
	"context"
	"fmt"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

type metric uint8

const (
	metricFollowers metric = 1 << iota
	metricFollowing
	metricPosts
)

// TextExtractor waits for client-side rendering, then matches count labels
// in the page text. Metrics it is not configured for stay 0.
type TextExtractor struct {
	platform string
	options  Options
	metrics  metric
}

// NewInstagram reads followers, following and posts.
func NewInstagram(opts Options) *TextExtractor {
	return &TextExtractor{platform: Instagram, options: opts, metrics: metricFollowers | metricFollowing | metricPosts}
}

// NewFacebook reads followers and posts. Following is not public on Facebook.
func NewFacebook(opts Options) *TextExtractor {
	return &TextExtractor{platform: Facebook, options: opts, metrics: metricFollowers | metricPosts}
}

// NewLinkedIn reads followers only.
func NewLinkedIn(opts Options) *TextExtractor {
	return &TextExtractor{platform: LinkedIn, options: opts, metrics: metricFollowers}
}

func (e *TextExtractor) Platform() string { return e.platform }

func (e *TextExtractor) Extract(ctx context.Context, page browser.Page) (Result, error) {
	if err := wait(ctx, e.options.Delay); err != nil {
		return Result{}, err
	}

	html, err := page.Content(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("reading %s page: %w", e.platform, err)
	}

	return e.ExtractHTML(html), nil
}

// ExtractHTML applies the label patterns to already rendered HTML.
func (e *TextExtractor) ExtractHTML(html string) Result {
	haystack := Haystack(html)

	var r Result
	if e.metrics&metricFollowers != 0 {
		r.Followers = matchCount(followersPattern, haystack)
	}
	if e.metrics&metricFollowing != 0 {
		r.Following = matchCount(followingPattern, haystack)
	}
	if e.metrics&metricPosts != 0 {
		r.Posts = matchCount(postsPattern, haystack)
	}
	return r
}
