package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mimamori/mimamori/internal/config"
)

const baseConfig = `
shutdown_timeout = "30s"
version = "0.1.0"

[server]
host = "0.0.0.0"
port = 8080

[database]
name = "mimamori"
user = "mimamori"
password = "mimamori"

[storage]
connection_string = "conn"

[api]
base_path = "/api"

[api.pagination]
default_page_size = 25
max_page_size = 50

[bps]
mode = "rule"
window_days = 14

[scan]
lookback_days = 5
concurrency = 3

[scheduler]
enabled = true
tick = "15s"

[notify]
channel = "#night-watch"
`

const overlayConfig = `
[server]
port = 9090

[bps]
window_days = 7
`

// Minimum fields for validation to pass. Everything else defaults.
const minimalConfig = `
[database]
name = "mimamori"
user = "mimamori"

[storage]
connection_string = "conn"
`

func writeConfig(t *testing.T, dir, filename, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, filename), []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", filename, err)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	orig, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { os.Chdir(orig) })
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 8080 {
		t.Errorf("server port: got %d, want 8080", cfg.Server.Port)
	}
	if cfg.BPS.Mode != config.BPSModeRule {
		t.Errorf("bps mode: got %q, want rule", cfg.BPS.Mode)
	}
	if cfg.BPS.WindowDays != 14 {
		t.Errorf("bps window_days: got %d, want 14", cfg.BPS.WindowDays)
	}
	if cfg.Scan.LookbackDays != 5 {
		t.Errorf("scan lookback_days: got %d, want 5", cfg.Scan.LookbackDays)
	}
	if !cfg.Scheduler.Enabled {
		t.Error("scheduler should be enabled")
	}
	if got := cfg.Scheduler.TickDuration(); got != 15*time.Second {
		t.Errorf("scheduler tick: got %s, want 15s", got)
	}
	if cfg.Notify.Channel != "#night-watch" {
		t.Errorf("notify channel: got %q", cfg.Notify.Channel)
	}
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", baseConfig)
	writeConfig(t, dir, "config.staging.toml", overlayConfig)
	chdir(t, dir)
	t.Setenv(config.EnvAppEnv, "staging")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Server.Port != 9090 {
		t.Errorf("overlay port: got %d, want 9090", cfg.Server.Port)
	}
	if cfg.BPS.WindowDays != 7 {
		t.Errorf("overlay window_days: got %d, want 7", cfg.BPS.WindowDays)
	}
	// Fields the overlay does not touch stay at base values.
	if cfg.Database.Name != "mimamori" {
		t.Errorf("database name: got %q, want mimamori", cfg.Database.Name)
	}
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.BPS.Mode != config.BPSModeRule {
		t.Errorf("default bps mode: got %q, want rule", cfg.BPS.Mode)
	}
	if cfg.BPS.WindowDays != 30 {
		t.Errorf("default window_days: got %d, want 30", cfg.BPS.WindowDays)
	}
	if cfg.Scan.Concurrency != 5 {
		t.Errorf("default scan concurrency: got %d, want 5", cfg.Scan.Concurrency)
	}
	if cfg.Scheduler.Enabled {
		t.Error("scheduler should default off")
	}
	if cfg.API.BasePath != "/api" {
		t.Errorf("default base path: got %q", cfg.API.BasePath)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig)
	chdir(t, dir)
	t.Setenv(config.EnvBPSWindowDays, "60")
	t.Setenv(config.EnvScanConcurrency, "2")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.BPS.WindowDays != 60 {
		t.Errorf("env window_days: got %d, want 60", cfg.BPS.WindowDays)
	}
	if cfg.Scan.Concurrency != 2 {
		t.Errorf("env concurrency: got %d, want 2", cfg.Scan.Concurrency)
	}
}

func TestLoadInvalidBPSMode(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "config.toml", minimalConfig+"\n[bps]\nmode = \"oracle\"\n")
	chdir(t, dir)

	_, err := config.Load()
	if err == nil {
		t.Fatal("expected error for unknown bps mode")
	}
	if !strings.Contains(err.Error(), "mode") {
		t.Errorf("error should mention mode: %v", err)
	}
}
