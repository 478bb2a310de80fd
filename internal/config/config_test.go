package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/verte-zerg/neuroscreen/internal/model"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("missing file must not error: %v", err)
	}
	if cfg.Stroop.Trials != nil || cfg.Log.Level != nil {
		t.Fatalf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfigSections(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	data := `
[stroop]
trials = 12
palette = ["RED", "BLUE"]

[facial]
interval-ms = 250

[server]
addr = ":9000"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Stroop.Trials == nil || *cfg.Stroop.Trials != 12 {
		t.Fatalf("unexpected trials: %v", cfg.Stroop.Trials)
	}
	if cfg.Stroop.Palette == nil || len(*cfg.Stroop.Palette) != 2 {
		t.Fatalf("unexpected palette: %v", cfg.Stroop.Palette)
	}
	if cfg.Stroop.DelayMs != nil {
		t.Fatalf("unset keys must stay nil")
	}
	if cfg.Facial.IntervalMs == nil || *cfg.Facial.IntervalMs != 250 {
		t.Fatalf("unexpected interval: %v", cfg.Facial.IntervalMs)
	}
	if *cfg.Server.Addr != ":9000" || *cfg.Log.Level != "debug" {
		t.Fatalf("unexpected server/log: %+v %+v", cfg.Server, cfg.Log)
	}
}

func TestLoadConfigRejectsUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte("[stroop]\nwords = 3\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadConfig(path); err == nil || !strings.Contains(err.Error(), "stroop.words") {
		t.Fatalf("expected unknown key error, got %v", err)
	}
}

func TestEnsureFileWritesTemplateOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := EnsureFile(path); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if _, err := LoadConfig(path); err != nil {
		t.Fatalf("template must decode: %v", err)
	}
	if err := os.WriteFile(path, []byte("[log]\nlevel = \"warn\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := EnsureFile(path); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	got, _ := os.ReadFile(path)
	if !strings.Contains(string(got), "warn") {
		t.Fatalf("existing file must be kept")
	}
}

func TestDefaultPathsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")
	t.Setenv("XDG_STATE_HOME", "/state")
	if got := DefaultConfigPath(); got != filepath.Join("/cfg", "neuroscreen", "config.toml") {
		t.Fatalf("unexpected config path %s", got)
	}
	if got := DefaultDBPath(); got != filepath.Join("/data", "neuroscreen", "neuroscreen.db") {
		t.Fatalf("unexpected db path %s", got)
	}
	if got := DefaultLogDir(); got != filepath.Join("/state", "neuroscreen", "logs") {
		t.Fatalf("unexpected log dir %s", got)
	}
}

func TestValidator(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(model.Config{Trials: 20, DelayMs: 500}); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	err := v.Validate(model.Config{Trials: 0, DelayMs: -1})
	if err == nil {
		t.Fatalf("expected validation error")
	}
	if !strings.Contains(err.Error(), "Trials") || !strings.Contains(err.Error(), "DelayMs") {
		t.Fatalf("error must name both fields: %v", err)
	}
	if err := v.Validate(model.FacialConfig{IntervalMs: 1000, DurationMs: 500}); err == nil {
		t.Fatalf("duration shorter than interval must be rejected")
	}
}
