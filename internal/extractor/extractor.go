// internal/extractor/extractor.go
package extractor

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

// Platform names.
const (
	Instagram = "instagram"
	Facebook  = "facebook"
	Twitter   = "twitter"
	LinkedIn  = "linkedin"
)

// Result is the metrics triple for one profile. A metric the page does not
// show is 0.
type Result struct {
	Posts     int64 `json:"posts" bson:"posts"`
	Followers int64 `json:"followers" bson:"followers"`
	Following int64 `json:"following" bson:"following"`
}

// Clamp replaces negative fields with 0.
func (r Result) Clamp() Result {
	if r.Posts < 0 {
		r.Posts = 0
	}
	if r.Followers < 0 {
		r.Followers = 0
	}
	if r.Following < 0 {
		r.Following = 0
	}
	return r
}

// Extractor reads metrics from a page that has finished navigating.
type Extractor interface {
	Platform() string
	Extract(ctx context.Context, page browser.Page) (Result, error)
}

// Options tunes a platform's extractor.
type Options struct {
	Disabled bool          `yaml:"disabled" json:"disabled"`
	Delay    time.Duration `yaml:"delay" json:"delay"`
	// LookupTimeout bounds each element lookup (structured extractors only).
	LookupTimeout time.Duration `yaml:"lookup_timeout,omitempty" json:"lookup_timeout,omitempty"`
}

// DefaultOptions returns the per-platform render delays.
func DefaultOptions() map[string]Options {
	return map[string]Options{
		Instagram: {Delay: 3 * time.Second},
		Facebook:  {Delay: 5 * time.Second},
		Twitter:   {Delay: 7 * time.Second, LookupTimeout: 5 * time.Second},
		LinkedIn:  {Delay: 3 * time.Second},
	}
}

var aliases = map[string]string{
	"x": Twitter,
}

// NormalizePlatform lower-cases and trims name and resolves aliases.
func NormalizePlatform(name string) string {
	p := strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := aliases[p]; ok {
		return canonical
	}
	return p
}

// Registry maps platform names to extractors.
type Registry struct {
	extractors map[string]Extractor
}

// NewRegistry builds the extractors for every enabled platform. Missing
// entries in opts use DefaultOptions; a zero delay in a present entry is kept.
func NewRegistry(opts map[string]Options) *Registry {
	merged := DefaultOptions()
	for name, o := range opts {
		merged[NormalizePlatform(name)] = o
	}

	r := &Registry{extractors: make(map[string]Extractor)}
	for name, o := range merged {
		if o.Disabled {
			continue
		}
		switch name {
		case Instagram:
			r.Register(NewInstagram(o))
		case Facebook:
			r.Register(NewFacebook(o))
		case Twitter:
			r.Register(NewTwitter(o))
		case LinkedIn:
			r.Register(NewLinkedIn(o))
		}
	}
	return r
}

// Register adds or replaces an extractor.
func (r *Registry) Register(e Extractor) {
	r.extractors[e.Platform()] = e
}

// Get returns the extractor for platform, accepting aliases.
func (r *Registry) Get(platform string) (Extractor, bool) {
	e, ok := r.extractors[NormalizePlatform(platform)]
	return e, ok
}

// Platforms returns the supported platform names, sorted.
func (r *Registry) Platforms() []string {
	names := make([]string, 0, len(r.extractors))
	for name := range r.extractors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// wait blocks for d or until ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
