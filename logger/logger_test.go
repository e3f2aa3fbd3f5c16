package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func jsonLogger(level string) (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: level, Format: "json"}, "apiguard", &buf)
	return l, &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	line := strings.TrimSpace(buf.String())
	if line == "" {
		t.Fatal("expected a log line")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(strings.Split(line, "\n")[0]), &m); err != nil {
		t.Fatalf("invalid json log line %q: %v", line, err)
	}
	return m
}

func TestNewDefault(t *testing.T) {
	l := NewDefault("test-svc")
	if l == nil {
		t.Fatal("expected non-nil logger")
	}
	if l.service != "test-svc" {
		t.Errorf("expected service 'test-svc', got %q", l.service)
	}
}

func TestNewWithWriter_JSONFields(t *testing.T) {
	l, buf := jsonLogger("debug")
	l.WithComponent("dispatcher").Debug("request completed", Fields(FieldStatus, 200, FieldMethod, "GET"))

	m := decodeLine(t, buf)
	if m["message"] != "request completed" {
		t.Errorf("unexpected message %v", m["message"])
	}
	if m[FieldComponent] != "dispatcher" {
		t.Errorf("expected component field, got %v", m[FieldComponent])
	}
	if m[FieldStatus] != float64(200) || m[FieldMethod] != "GET" {
		t.Errorf("unexpected fields %v", m)
	}
	if m["service"] != "apiguard" {
		t.Errorf("expected service field, got %v", m["service"])
	}
}

func TestNewWithWriter_LevelFilter(t *testing.T) {
	l, buf := jsonLogger("warn")
	l.Debug("hidden")
	l.Info("hidden")
	if buf.Len() != 0 {
		t.Errorf("expected nothing below warn, got %q", buf.String())
	}
	l.Warn("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Error("expected warn line")
	}
}

func TestNewInvalidLevel(t *testing.T) {
	l, buf := jsonLogger("invalid-level")
	l.Info("still logs at info")
	if !strings.Contains(buf.String(), "still logs at info") {
		t.Error("expected info fallback level")
	}
}

func TestNewNop(t *testing.T) {
	l := NewNop()
	l.Error("dropped", Fields("k", "v"))
	if l.Enabled(zerolog.ErrorLevel) {
		t.Error("nop logger must not be enabled")
	}
}

func TestEnabled(t *testing.T) {
	l, _ := jsonLogger("info")
	if l.Enabled(zerolog.DebugLevel) {
		t.Error("debug should be disabled at info")
	}
	if !l.Enabled(zerolog.ErrorLevel) {
		t.Error("error should be enabled at info")
	}
}

func TestWithContext_RequestID(t *testing.T) {
	l, buf := jsonLogger("info")
	ctx := ContextWithRequestID(context.Background(), "req-42")
	l.WithContext(ctx).Info("hello")

	m := decodeLine(t, buf)
	if m[FieldRequestID] != "req-42" {
		t.Errorf("expected request id, got %v", m[FieldRequestID])
	}
	if id, ok := RequestIDFromContext(ctx); !ok || id != "req-42" {
		t.Errorf("unexpected %q %v", id, ok)
	}
	if _, ok := RequestIDFromContext(context.Background()); ok {
		t.Error("expected no id in empty context")
	}
}

func TestWithError(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithError(errors.New("boom")).Error("failed")
	m := decodeLine(t, buf)
	if m["error"] != "boom" {
		t.Errorf("expected error field, got %v", m["error"])
	}
}

func TestWithFields(t *testing.T) {
	l, buf := jsonLogger("info")
	l.WithFields(map[string]interface{}{"key": "value"}).Info("x")
	if decodeLine(t, buf)["key"] != "value" {
		t.Error("expected key field")
	}
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&Config{Level: "info", Format: "console", NoColor: true}, "apiguard", &buf)
	l.Warn("careful")
	out := buf.String()
	if !strings.Contains(out, "[API][WRN]") || !strings.Contains(out, "careful") {
		t.Errorf("unexpected console output %q", out)
	}
}

func TestInit(t *testing.T) {
	Init(Config{Level: "info", Format: "json", ServiceName: "svc"})
	gl := GetGlobalLogger()
	if gl == nil || gl.service != "svc" {
		t.Fatal("expected global logger to be set after Init")
	}
}

func TestGetGlobalLoggerDefault(t *testing.T) {
	globalLogger = nil
	if GetGlobalLogger() == nil {
		t.Fatal("expected default global logger to be created")
	}
}

func TestConfigApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	if cfg.Level != "info" || cfg.Format != "console" || cfg.Output != "stdout" || !cfg.Timestamp {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"valid", Config{Level: "debug", Format: "json", Output: "stdout"}, false},
		{"disabled", Config{Level: "disabled", Format: "console", Output: "stderr"}, false},
		{"bad level", Config{Level: "loud", Format: "json", Output: "stdout"}, true},
		{"bad format", Config{Level: "info", Format: "xml", Output: "stdout"}, true},
		{"bad output", Config{Level: "info", Format: "json", Output: "file"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestFields(t *testing.T) {
	m := Fields("a", 1, "b", "two", 3, "ignored", "dangling")
	if len(m) != 2 || m["a"] != 1 || m["b"] != "two" {
		t.Errorf("unexpected %v", m)
	}
}

func TestErrorAndDurationFields(t *testing.T) {
	ef := ErrorFields("send", errors.New("x"))
	if ef[FieldOperation] != "send" || ef[FieldError] != "x" {
		t.Errorf("unexpected %v", ef)
	}
	df := DurationFields("send", 1500*time.Millisecond)
	if df[FieldDuration] != int64(1500) {
		t.Errorf("unexpected %v", df)
	}
}
