// internal/extractor/compact.go
package extractor

import (
	"regexp"
	"strconv"
	"strings"
)

var compactPattern = regexp.MustCompile(`(?i)^(\d+)(?:\.(\d+))?\s*([km]\b)?`)

// ParseCompact converts display counts such as "1,234", "1.2K" or "3.4M" to
// an integer. Malformed input yields 0; the result is never negative.
func ParseCompact(text string) int64 {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ",", "")

	m := compactPattern.FindStringSubmatch(s)
	if m == nil {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		return n
	}

	whole, frac := m[1], m[2]
	scale := 0
	switch strings.ToLower(m[3]) {
	case "k":
		scale = 3
	case "m":
		scale = 6
	}

	// Scale the digit string instead of multiplying a float so that
	// "1.2K" is exactly 1200.
	digits := whole + frac
	shift := scale - len(frac)
	if shift >= 0 {
		digits += strings.Repeat("0", shift)
	} else {
		digits = digits[:len(digits)+shift]
	}
	if digits == "" {
		return 0
	}

	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
