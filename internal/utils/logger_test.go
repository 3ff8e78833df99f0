package utils

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
	}{
		{"debug", DebugLevel},
		{"DEBUG", DebugLevel},
		{"warn", WarnLevel},
		{"warning", WarnLevel},
		{"error", ErrorLevel},
		{"info", InfoLevel},
		{"", InfoLevel},
		{"verbose", InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLogLevel(tt.in); got != tt.want {
			t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, WarnLevel, "text")

	logger.Info("should not appear")
	logger.Warn("visible warning")

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Errorf("info message written below warn level: %s", out)
	}
	if !strings.Contains(out, "visible warning") {
		t.Errorf("expected warning in output, got: %s", out)
	}
}

func TestLogger_WithFieldsJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerWithOutput(&buf, DebugLevel, "json")

	logger.WithField("component", "browser").
		WithFields(map[string]interface{}{"platform": "instagram"}).
		Infof("scraped %d pages", 3)

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line, got %q: %v", buf.String(), err)
	}

	if entry["msg"] != "scraped 3 pages" {
		t.Errorf("unexpected msg: %v", entry["msg"])
	}
	if entry["component"] != "browser" {
		t.Errorf("expected component field, got %v", entry["component"])
	}
	if entry["platform"] != "instagram" {
		t.Errorf("expected platform field, got %v", entry["platform"])
	}
}

func TestLogger_WithFieldDoesNotMutateParent(t *testing.T) {
	var buf bytes.Buffer
	parent := NewLoggerWithOutput(&buf, InfoLevel, "text")
	_ = parent.WithField("request_id", "abc")

	parent.Info("parent line")
	if strings.Contains(buf.String(), "request_id") {
		t.Errorf("child field leaked into parent: %s", buf.String())
	}
}

func TestConfigure_AppliesToExistingLoggers(t *testing.T) {
	var before, after bytes.Buffer
	Configure(&before, InfoLevel, "text")
	t.Cleanup(func() { Configure(nil, InfoLevel, "text") })

	logger := NewComponentLogger("social")
	logger.Debug("hidden at info")
	if before.Len() != 0 {
		t.Fatalf("debug line written at info level: %q", before.String())
	}

	Configure(&after, DebugLevel, "json")
	logger.Debug("visible after reload")

	if strings.Contains(before.String(), "visible after reload") {
		t.Errorf("line written to the old sink: %q", before.String())
	}
	var entry map[string]interface{}
	if err := json.Unmarshal(after.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON line on the new sink, got %q: %v", after.String(), err)
	}
	if entry["msg"] != "visible after reload" || entry["component"] != "social" {
		t.Errorf("unexpected entry: %v", entry)
	}
}
