package extractor

import "testing"

func TestParseCompact(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"1,234", 1234},
		{"1.2K", 1200},
		{"1.2k", 1200},
		{"3.4M", 3400000},
		{"3.4 m", 3400000},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"xyz", 0},
		{"89", 89},
		{" 42 ", 42},
		{"12,345,678", 12345678},
		{"1.5", 1},
		{"1.25K", 1250},
		{"1.2345K", 1234},
		{"2M", 2000000},
		{"0", 0},
		{"1,234 Followers", 1234},
		{"5 Members", 5},
		{"99999999999999999999", 0},
		{"9999999999999999M", 0},
		{"abc123", 0},
		{"followers 12", 0},
		{"-5", 0},
		{"+5", 5},
		{"1.2KB", 1},
		{"4K followers", 4000},
	}

	for _, tt := range tests {
		if got := ParseCompact(tt.in); got != tt.want {
			t.Errorf("ParseCompact(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func FuzzParseCompact(f *testing.F) {
	for _, seed := range []string{"1,234", "1.2K", "3.4M", "", "abc", "1..2k", "k", ".5M"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		if n := ParseCompact(s); n < 0 {
			t.Errorf("ParseCompact(%q) = %d, want non-negative", s, n)
		}
	})
}
