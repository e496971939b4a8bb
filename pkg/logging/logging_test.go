package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestLogLevel_String(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected string
	}{
		{LevelDebug, "DEBUG"},
		{LevelInfo, "INFO"},
		{LevelWarn, "WARN"},
		{LevelError, "ERROR"},
		{LogLevel(999), "UNKNOWN"},
	}

	for _, test := range tests {
		result := test.level.String()
		if result != test.expected {
			t.Errorf("LogLevel(%d).String() = %s, expected %s", test.level, result, test.expected)
		}
	}
}

func TestLogLevel_SlogLevel(t *testing.T) {
	tests := []struct {
		level    LogLevel
		expected slog.Level
	}{
		{LevelDebug, slog.LevelDebug},
		{LevelInfo, slog.LevelInfo},
		{LevelWarn, slog.LevelWarn},
		{LevelError, slog.LevelError},
		{LogLevel(999), slog.LevelInfo}, // Default for unknown
	}

	for _, test := range tests {
		result := test.level.SlogLevel()
		if result != test.expected {
			t.Errorf("LogLevel(%d).SlogLevel() = %v, expected %v", test.level, result, test.expected)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"debug":   LevelDebug,
		"INFO":    LevelInfo,
		"warning": LevelWarn,
		" error ": LevelError,
		"bogus":   LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatText, &buf)

	Info("test-subsystem", "test message %d", 42)

	output := buf.String()
	if !strings.Contains(output, "test message 42") {
		t.Errorf("expected formatted message in output, got %q", output)
	}
	if !strings.Contains(output, "test-subsystem") {
		t.Errorf("expected subsystem in output, got %q", output)
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelWarn, FormatText, &buf)

	Debug("sub", "debug line")
	Info("sub", "info line")
	Warn("sub", "warn line")

	output := buf.String()
	if strings.Contains(output, "debug line") || strings.Contains(output, "info line") {
		t.Errorf("expected debug/info to be filtered, got %q", output)
	}
	if !strings.Contains(output, "warn line") {
		t.Errorf("expected warn line, got %q", output)
	}
}

func TestErrorIncludesErr(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelDebug, FormatJSON, &buf)

	Error("Auth", errors.New("boom"), "refresh failed")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v (%q)", err, buf.String())
	}
	if entry["error"] != "boom" {
		t.Errorf("expected error attr boom, got %v", entry["error"])
	}
	if entry["subsystem"] != "Auth" {
		t.Errorf("expected subsystem Auth, got %v", entry["subsystem"])
	}
}

func TestAudit(t *testing.T) {
	var buf bytes.Buffer
	Init(LevelInfo, FormatJSON, &buf)

	Audit("token_stored", "token persisted", "server", "https://mdm.example.com")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("expected JSON log line: %v", err)
	}
	if entry["event"] != "token_stored" {
		t.Errorf("expected event token_stored, got %v", entry["event"])
	}
	if !strings.HasPrefix(entry["msg"].(string), "SECURITY_AUDIT:") {
		t.Errorf("expected SECURITY_AUDIT prefix, got %v", entry["msg"])
	}
}

func TestFromContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("req_id", "abc")

	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info("hello")

	if !strings.Contains(buf.String(), "req_id=abc") {
		t.Errorf("expected request-scoped attrs, got %q", buf.String())
	}

	if FromContext(context.Background()) == nil {
		t.Error("expected fallback logger")
	}
}
