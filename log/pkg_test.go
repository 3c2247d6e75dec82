package log

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func withDefault(t *testing.T, opts ...Option) *bytes.Buffer {
	t.Helper()

	original := Default()
	t.Cleanup(func() { SetDefault(original) })

	var buf bytes.Buffer

	SetDefault(Make(&buf, append([]Option{WithLevel(LevelTrace), WithFormat(FormatJSON), WithPretty(false)}, opts...)...))

	return &buf
}

func TestPackage_LogFunctions_UseDefaultLogger(t *testing.T) {
	buf := withDefault(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		fn    func()
		level string
	}{
		{"Trace", func() { Trace("msg", slog.String("key", "value")) }, "TRACE"},
		{"Debug", func() { Debug("msg", slog.String("key", "value")) }, "DEBUG"},
		{"Info", func() { Info("msg", slog.String("key", "value")) }, "INFO"},
		{"Warn", func() { Warn("msg", slog.String("key", "value")) }, "WARN"},
		{"Error", func() { Error("msg", slog.String("key", "value")) }, "ERROR"},
		{"TraceContext", func() { TraceContext(ctx, "msg", slog.String("key", "value")) }, "TRACE"},
		{"DebugContext", func() { DebugContext(ctx, "msg", slog.String("key", "value")) }, "DEBUG"},
		{"InfoContext", func() { InfoContext(ctx, "msg", slog.String("key", "value")) }, "INFO"},
		{"WarnContext", func() { WarnContext(ctx, "msg", slog.String("key", "value")) }, "WARN"},
		{"ErrorContext", func() { ErrorContext(ctx, "msg", slog.String("key", "value")) }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()
			tt.fn()

			entry := decode(t, buf.Bytes())
			if entry["level"] != tt.level || entry["msg"] != "msg" || entry["key"] != "value" {
				t.Errorf("unexpected entry %v", entry)
			}
		})
	}
}

func TestPackage_Config_WrapsDefault(t *testing.T) {
	buf := withDefault(t)

	Config(WithLevel(LevelError))
	Warn("dropped")
	Error("kept")

	if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestPackage_With(t *testing.T) {
	buf := withDefault(t)

	With(Template("page")).Info("scoped")

	if got := decode(t, buf.Bytes())[KeyTemplate]; got != "page" {
		t.Errorf("expected template attribute, got %v", got)
	}
}

func TestPackage_CallerIsLogSite(t *testing.T) {
	buf := withDefault(t, WithCaller(true))

	Info("here")

	source, _ := decode(t, buf.Bytes())["source"].(map[string]any)
	if file, _ := source["file"].(string); !strings.HasSuffix(file, "pkg_test.go") {
		t.Errorf("expected source in pkg_test.go, got %v", source)
	}
}
