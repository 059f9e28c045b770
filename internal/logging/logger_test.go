package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := parseLevel(tt.in); got != tt.want {
				t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOperationID(t *testing.T) {
	ctx := context.Background()
	if got := OperationID(ctx); got != "" {
		t.Errorf("OperationID(empty) = %q, want empty", got)
	}

	ctx = WithOperationID(ctx, "op-123")
	if got := OperationID(ctx); got != "op-123" {
		t.Errorf("OperationID = %q, want op-123", got)
	}
}

func TestFromContext_AddsOperationID(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "info", "text")

	ctx := WithOperationID(context.Background(), "op-abc")
	FromContext(ctx).Info("hello")
	WithFields(context.Background(), "table", "numbers").Info("plain")

	out := buf.String()
	if !strings.Contains(out, "op_id=op-abc") {
		t.Errorf("expected op_id in output, got %q", out)
	}
	if !strings.Contains(out, "table=numbers") {
		t.Errorf("expected table field in output, got %q", out)
	}
	if strings.Count(out, "op_id=") != 1 {
		t.Errorf("op_id should appear once, got %q", out)
	}
}

func TestSetupWriter_JSON(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	SetupWriter(&buf, "warn", "json")

	slog.Info("dropped")
	slog.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Errorf("info line should be filtered at warn level: %q", out)
	}
	if !strings.Contains(out, `"msg":"kept"`) {
		t.Errorf("expected JSON warn line, got %q", out)
	}
}
