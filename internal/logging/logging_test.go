// ABOUTME: Tests for logging setup
// ABOUTME: Checks level parsing and handler selection
package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"verbose", slog.LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("unexpected error state: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestSetupJSONWithComponent(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	if err := Setup("info", "json", &buf); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	L("engine").Debug("hidden")
	L("engine").Info("started", "sources", 2)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record above debug, got %d: %q", len(lines), buf.String())
	}

	var record map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &record); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if record[KeyComponent] != "engine" {
		t.Errorf("expected component engine, got %v", record[KeyComponent])
	}
	if record["sources"] != float64(2) {
		t.Errorf("expected sources=2, got %v", record["sources"])
	}
}

func TestSetupRejectsUnknownFormat(t *testing.T) {
	if err := Setup("info", "xml", nil); err == nil {
		t.Error("expected error for unknown format")
	}
}
