package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLevel(tt.name)
			if err != nil {
				t.Fatalf("ParseLevel(%q) error: %v", tt.name, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}

	if _, err := ParseLevel("verbose"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestInitText(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: slog.LevelInfo, Format: "text", Output: &buf}); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer Init(Config{Level: slog.LevelError, Output: &bytes.Buffer{}})

	Debug("hidden")
	LogAllocation("f", "linear-scan", 3, 1, 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message should be filtered at info level, got %q", out)
	}
	for _, want := range []string{"allocation complete", "function=f", "spills=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got %q", want, out)
		}
	}
}

func TestInitJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(Config{Level: slog.LevelDebug, Format: "json", Output: &buf}); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer Init(Config{Level: slog.LevelError, Output: &bytes.Buffer{}})

	With("component", "regalloc").Debug("spill", "value", 7)

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	if rec["msg"] != "spill" || rec["component"] != "regalloc" {
		t.Errorf("unexpected record %v", rec)
	}
}

func TestInitUnknownFormat(t *testing.T) {
	if err := Init(Config{Format: "xml"}); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != slog.LevelWarn || cfg.Format != "text" || cfg.Output == nil {
		t.Errorf("unexpected default config %+v", cfg)
	}
}

func TestWarnAndError(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.Output = &buf
	if err := Init(cfg); err != nil {
		t.Fatalf("Init error: %v", err)
	}
	defer Init(Config{Level: slog.LevelError, Output: &bytes.Buffer{}})

	Info("hidden")
	Warn("careful", "k", 3)
	Error("broken", "function", "f")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info should be filtered at the default level, got %q", out)
	}
	for _, want := range []string{"level=WARN msg=careful k=3", "level=ERROR msg=broken function=f"} {
		if !strings.Contains(out, want) {
			t.Errorf("output should contain %q, got %q", want, out)
		}
	}
}
