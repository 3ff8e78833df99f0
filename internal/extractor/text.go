// internal/extractor/text.go
package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"
)

// number with an optional K/M suffix, as rendered next to a count label
const countToken = `(\d[\d,.]*(?:\s?[kKmM])?)`

var (
	followersPattern = regexp.MustCompile(`(?i)` + countToken + `\s*followers?\b`)
	followingPattern = regexp.MustCompile(`(?i)` + countToken + `\s*following\b`)
	postsPattern     = regexp.MustCompile(`(?i)` + countToken + `\s*posts?\b`)
)

// Haystack builds the text the label patterns are matched against: the page
// description meta tags, then the visible body text, then the raw HTML. The
// result is NFKC-normalised so non-breaking spaces and fullwidth digits match.
func Haystack(html string) string {
	var parts []string

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err == nil {
		doc.Find(`meta[property="og:description"], meta[name="description"], meta[name="twitter:description"]`).
			Each(func(_ int, s *goquery.Selection) {
				if content, ok := s.Attr("content"); ok && strings.TrimSpace(content) != "" {
					parts = append(parts, content)
				}
			})

		body := doc.Find("body").Clone()
		body.Find("script, style, noscript, template").Remove()
		if text := strings.Join(strings.Fields(body.Text()), " "); text != "" {
			parts = append(parts, text)
		}
	}

	parts = append(parts, html)
	return norm.NFKC.String(strings.Join(parts, "\n"))
}

// matchCount returns the first count labelled by pattern, or 0.
func matchCount(pattern *regexp.Regexp, haystack string) int64 {
	m := pattern.FindStringSubmatch(haystack)
	if m == nil {
		return 0
	}
	return ParseCompact(m[1])
}
