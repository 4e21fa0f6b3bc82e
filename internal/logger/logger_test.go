package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", true)
	l.Debug("hello", "component", "test")

	out := buf.String()
	if !strings.Contains(out, `"msg":"hello"`) || !strings.Contains(out, `"component":"test"`) {
		t.Fatalf("unexpected output: %s", out)
	}
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn", false)
	l.Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("info written at warn level: %s", buf.String())
	}
}

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", false).With("request_id", "r1")
	ctx := IntoContext(context.Background(), l)

	FromContext(ctx).Info("scoped")
	if !strings.Contains(buf.String(), "request_id=r1") {
		t.Fatalf("context logger not used: %s", buf.String())
	}
	if FromContext(context.Background()) == nil {
		t.Fatal("expected process logger fallback")
	}
}
