package extractor

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/valpere/SocialScrapexter/internal/browser"
)

type stubPage struct {
	html    string
	texts   map[string]string
	textErr error
	calls   []string
}

func (p *stubPage) Navigate(context.Context, string, browser.NavigateOptions) error { return nil }

func (p *stubPage) Content(context.Context) (string, error) { return p.html, nil }

func (p *stubPage) Text(ctx context.Context, selector string, timeout time.Duration) (string, error) {
	p.calls = append(p.calls, selector)
	if p.textErr != nil {
		return "", p.textErr
	}
	if text, ok := p.texts[selector]; ok {
		return text, nil
	}
	return "", fmt.Errorf("%w: %s", browser.ErrElementNotFound, selector)
}

func (p *stubPage) Close() error { return nil }

func TestTextExtractors(t *testing.T) {
	tests := []struct {
		name      string
		extractor *TextExtractor
		html      string
		want      Result
	}{
		{
			name:      "instagram body text",
			extractor: NewInstagram(Options{}),
			html:      `<html><body><header><span>1,234 followers · 567 following · 89 posts</span></header></body></html>`,
			want:      Result{Posts: 89, Followers: 1234, Following: 567},
		},
		{
			name:      "instagram og description",
			extractor: NewInstagram(Options{}),
			html: `<html><head><meta property="og:description" content="1.2M Followers, 300 Following, 1,024 Posts - See Instagram photos"></head>` +
				`<body><div>Log in to see more</div></body></html>`,
			want: Result{Posts: 1024, Followers: 1200000, Following: 300},
		},
		{
			name:      "instagram login wall",
			extractor: NewInstagram(Options{}),
			html:      `<html><body><div>Log in to Instagram</div></body></html>`,
			want:      Result{},
		},
		{
			name:      "facebook ignores following",
			extractor: NewFacebook(Options{}),
			html:      `<html><body><a>12K followers</a> <a>50 following</a> <span>340 posts</span></body></html>`,
			want:      Result{Posts: 340, Followers: 12000},
		},
		{
			name:      "linkedin followers only",
			extractor: NewLinkedIn(Options{}),
			html:      `<html><body><div class="org-top-card">Acme · 3.4K followers · 120 posts</div></body></html>`,
			want:      Result{Followers: 3400},
		},
		{
			name:      "non-breaking space",
			extractor: NewLinkedIn(Options{}),
			html:      "<html><body><p>1,234\u00a0followers</p></body></html>",
			want:      Result{Followers: 1234},
		},
		{
			name:      "fullwidth digits",
			extractor: NewLinkedIn(Options{}),
			html:      "<html><body><p>１２３ followers</p></body></html>",
			want:      Result{Followers: 123},
		},
		{
			name:      "singular labels",
			extractor: NewInstagram(Options{}),
			html:      `<html><body>1 post 1 follower 0 following</body></html>`,
			want:      Result{Posts: 1, Followers: 1},
		},
		{
			name:      "script text is ignored in favour of visible text",
			extractor: NewLinkedIn(Options{}),
			html:      `<html><body><script>var x = "9 followers";</script><p>42 followers</p></body></html>`,
			want:      Result{Followers: 42},
		},
		{
			name:      "raw html fallback",
			extractor: NewLinkedIn(Options{}),
			html:      `<div data-count="77 followers"></div>`,
			want:      Result{Followers: 77},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.extractor.Extract(context.Background(), &stubPage{html: tt.html})
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Extract() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTextExtractor_DelayHonoursContext(t *testing.T) {
	e := NewInstagram(Options{Delay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := e.Extract(ctx, &stubPage{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Error("delay ignored context deadline")
	}
}

func TestTextExtractor_WaitsDelay(t *testing.T) {
	e := NewLinkedIn(Options{Delay: 30 * time.Millisecond})

	start := time.Now()
	if _, err := e.Extract(context.Background(), &stubPage{}); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Errorf("extraction returned after %s, before the render delay", elapsed)
	}
}

func TestTwitterExtractor(t *testing.T) {
	t.Run("all links present", func(t *testing.T) {
		page := &stubPage{texts: map[string]string{
			twitterFollowersSelector: "1.2M Followers",
			twitterFollowingSelector: "345 Following",
			twitterPostsSelector:     "12.5K posts",
		}}

		got, err := NewTwitter(Options{}).Extract(context.Background(), page)
		if err != nil {
			t.Fatal(err)
		}
		want := Result{Posts: 12500, Followers: 1200000, Following: 345}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing link degrades to zero", func(t *testing.T) {
		page := &stubPage{texts: map[string]string{
			twitterFollowersSelector: "1.2M Followers",
			twitterFollowingSelector: "345 Following",
		}}

		got, err := NewTwitter(Options{}).Extract(context.Background(), page)
		if err != nil {
			t.Fatalf("expected lookup miss to be swallowed, got %v", err)
		}
		if got != (Result{}) {
			t.Errorf("expected all-zero result, got %+v", got)
		}
	})

	t.Run("closed page propagates", func(t *testing.T) {
		page := &stubPage{textErr: browser.ErrPageClosed}

		_, err := NewTwitter(Options{}).Extract(context.Background(), page)
		if !errors.Is(err, browser.ErrPageClosed) {
			t.Errorf("expected ErrPageClosed, got %v", err)
		}
		if len(page.calls) != 1 {
			t.Errorf("expected to stop after first failed lookup, got %d calls", len(page.calls))
		}
	})

	t.Run("cancellation propagates", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewTwitter(Options{Delay: time.Second}).Extract(ctx, &stubPage{})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	})
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(nil)

	if diff := cmp.Diff([]string{Facebook, Instagram, LinkedIn, Twitter}, r.Platforms()); diff != "" {
		t.Errorf("Platforms() mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"x", "X", " Twitter ", "twitter"} {
		e, ok := r.Get(name)
		if !ok || e.Platform() != Twitter {
			t.Errorf("Get(%q) = %v, %v; want twitter extractor", name, e, ok)
		}
	}

	if _, ok := r.Get("myspace"); ok {
		t.Error("unexpected extractor for unsupported platform")
	}

	r = NewRegistry(map[string]Options{"Facebook": {Disabled: true}})
	if _, ok := r.Get(Facebook); ok {
		t.Error("disabled platform should not be registered")
	}
	if _, ok := r.Get(Instagram); !ok {
		t.Error("defaults should still register instagram")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	want := map[string]time.Duration{
		Instagram: 3 * time.Second,
		Facebook:  5 * time.Second,
		Twitter:   7 * time.Second,
		LinkedIn:  3 * time.Second,
	}
	for platform, delay := range want {
		if opts[platform].Delay != delay {
			t.Errorf("%s delay = %s, want %s", platform, opts[platform].Delay, delay)
		}
	}
}

func TestResult_Clamp(t *testing.T) {
	got := Result{Posts: -1, Followers: 5, Following: -10}.Clamp()
	if got != (Result{Followers: 5}) {
		t.Errorf("Clamp() = %+v", got)
	}
}
