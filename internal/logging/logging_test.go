package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{" error ", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseLevel(tt.input); got != tt.want {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNewHandlerJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, "info", "json"))

	logger.Info("Catalog loaded", "books", 3)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
	}
	if entry["msg"] != "Catalog loaded" {
		t.Errorf("Expected msg 'Catalog loaded', got %v", entry["msg"])
	}
	if entry["books"] != float64(3) {
		t.Errorf("Expected books 3, got %v", entry["books"])
	}
}

func TestNewHandlerLevel(t *testing.T) {
	var buf bytes.Buffer
	handler := NewHandler(&buf, "warn", "text")

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("Expected info to be disabled at warn level")
	}
	if !handler.Enabled(context.Background(), slog.LevelWarn) {
		t.Error("Expected warn to be enabled at warn level")
	}

	slog.New(handler).Warn("Description vocabulary is empty")
	if !strings.Contains(buf.String(), "level=WARN") {
		t.Errorf("Expected text output, got %q", buf.String())
	}
}
