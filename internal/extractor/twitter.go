// internal/extractor/twitter.go
package extractor

import (
	"context"
	"errors"
	"fmt"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

// Profile links whose nested text carries the count.
const (
	twitterFollowersSelector = `a[href$="/verified_followers"], a[href$="/followers"]`
	twitterFollowingSelector = `a[href$="/following"]`
	twitterPostsSelector     = `a[href$="/posts"]`
)

// TwitterExtractor reads counts from the profile header links on X/Twitter.
// If any link cannot be found the whole result is zero.
type TwitterExtractor struct {
	options Options
}

func NewTwitter(opts Options) *TwitterExtractor {
	return &TwitterExtractor{options: opts}
}

func (e *TwitterExtractor) Platform() string { return Twitter }

func (e *TwitterExtractor) Extract(ctx context.Context, page browser.Page) (Result, error) {
	if err := wait(ctx, e.options.Delay); err != nil {
		return Result{}, err
	}

	var r Result
	lookups := []struct {
		selector string
		dst      *int64
	}{
		{twitterFollowersSelector, &r.Followers},
		{twitterFollowingSelector, &r.Following},
		{twitterPostsSelector, &r.Posts},
	}

	for _, l := range lookups {
		text, err := page.Text(ctx, l.selector, e.options.LookupTimeout)
		if err != nil {
			if errors.Is(err, browser.ErrElementNotFound) {
				return Result{}, nil
			}
			return Result{}, fmt.Errorf("twitter lookup %s: %w", l.selector, err)
		}
		*l.dst = ParseCompact(text)
	}
	return r, nil
}
