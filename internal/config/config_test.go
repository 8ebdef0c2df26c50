package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_EnvFileNotFound(t *testing.T) {
	t.Setenv("ENV_NAME", "nonexistent")

	origWd, _ := os.Getwd()
	os.Chdir(findProjectRoot(t))
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for missing env file, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Errorf("Load() error = %v, want message about config file not found", err)
	}
}

// TestLoad_ProjectDevConfig verifies the checked-in config/dev.yaml loads.
func TestLoad_ProjectDevConfig(t *testing.T) {
	origWd, _ := os.Getwd()
	os.Chdir(findProjectRoot(t))
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort == "" || cfg.IconURL == "" {
		t.Errorf("Load() did not populate config from config/dev.yaml: %+v", cfg)
	}
	if cfg.CacheBackend != "in_memory" {
		t.Errorf("CacheBackend = %q, want in_memory", cfg.CacheBackend)
	}
}

func TestLoad_Defaults(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "server:\n  port: \"9000\"\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ServerPort != "9000" {
		t.Errorf("ServerPort = %q, want 9000", cfg.ServerPort)
	}
	if cfg.IconURL != DefaultIconURL {
		t.Errorf("IconURL = %q, want default", cfg.IconURL)
	}
	if cfg.IconSize != 100 {
		t.Errorf("IconSize = %d, want 100", cfg.IconSize)
	}
	if cfg.InputMaxLength != 64 {
		t.Errorf("InputMaxLength = %d, want 64", cfg.InputMaxLength)
	}
	if cfg.IconRefreshCron != "" {
		t.Errorf("IconRefreshCron = %q, want empty (disabled)", cfg.IconRefreshCron)
	}
	if cfg.IconBreakerFailures != 3 {
		t.Errorf("IconBreakerFailures = %d, want 3", cfg.IconBreakerFailures)
	}
	if cfg.OverloadWindow != time.Minute || cfg.OverloadThresholdPct != 50 {
		t.Errorf("overload = %v/%d%%, want 1m/50%%", cfg.OverloadWindow, cfg.OverloadThresholdPct)
	}
}

func TestLoad_OverloadThresholdAbove100(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "reliability:\n  overload_threshold_pct: 150\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "overload_threshold_pct") {
		t.Errorf("Load() error = %v, want message about overload_threshold_pct", err)
	}
}

func TestLoad_InvalidDurationFallsBackToDefault(t *testing.T) {
	yaml := `
icon:
  timeout: "2s"
  cache_ttl: "invalid"
`
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, yaml)
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IconCacheTTL != 24*time.Hour {
		t.Errorf("IconCacheTTL = %v, want 24h default", cfg.IconCacheTTL)
	}
	if cfg.IconTimeout != 2*time.Second {
		t.Errorf("IconTimeout = %v, want 2s", cfg.IconTimeout)
	}
}

func TestLoad_ValidationFailsWhenIconTimeoutZero(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "icon:\n  timeout: \"0s\"\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error when icon timeout is zero, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "icon.timeout") {
		t.Errorf("Load() error = %v, want message about icon.timeout", err)
	}
}

// TestLoad_StartupTimeoutRaisedToIconTimeout verifies the startup budget covers one download.
func TestLoad_StartupTimeoutRaisedToIconTimeout(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "icon:\n  timeout: \"20s\"\n  startup_timeout: \"5s\"\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IconStartupTimeout != 20*time.Second {
		t.Errorf("IconStartupTimeout = %v, want 20s", cfg.IconStartupTimeout)
	}
}

func TestLoad_InvalidCacheBackend(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "cache:\n  backend: \"etcd\"\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	_, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for unknown cache backend, got nil")
	}
	if !strings.Contains(err.Error(), "cache.backend") {
		t.Errorf("Load() error = %v, want message about cache.backend", err)
	}
}

func TestLoad_InvalidConfigYAML(t *testing.T) {
	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "not: valid: yaml: [[[")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err == nil {
		t.Fatal("Load() expected error for invalid config YAML, got nil")
	}
	if cfg != nil {
		t.Fatalf("Load() expected nil config on error, got %+v", cfg)
	}
	if !strings.Contains(err.Error(), "parse") {
		t.Errorf("Load() error = %v, want message about parse", err)
	}
}

// TestLoad_EnvOverrides verifies TRACKER_* variables win over the YAML file.
func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TRACKER_CACHE_BACKEND", "Redis")
	t.Setenv("TRACKER_REDIS_ADDR", "cache:6380")
	t.Setenv("TRACKER_PORT", "7070")
	t.Setenv("TRACKER_ICON_REFRESH_CRON", "@hourly")

	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "server:\n  port: \"9000\"\ncache:\n  backend: \"memcached\"\n")
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.CacheBackend != "redis" {
		t.Errorf("CacheBackend = %q, want redis", cfg.CacheBackend)
	}
	if cfg.RedisAddr != "cache:6380" {
		t.Errorf("RedisAddr = %q, want cache:6380", cfg.RedisAddr)
	}
	if cfg.ServerPort != "7070" {
		t.Errorf("ServerPort = %q, want 7070", cfg.ServerPort)
	}
	if cfg.IconRefreshCron != "@hourly" {
		t.Errorf("IconRefreshCron = %q, want @hourly", cfg.IconRefreshCron)
	}
}

// TestLoad_DotEnvFile verifies variables from .env are applied as overrides.
func TestLoad_DotEnvFile(t *testing.T) {
	os.Unsetenv("TRACKER_ICON_URL")
	t.Cleanup(func() { os.Unsetenv("TRACKER_ICON_URL") })

	origWd, _ := os.Getwd()
	dir := t.TempDir()
	writeEnvFile(t, dir, "server:\n  port: \"9000\"\n")
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("TRACKER_ICON_URL=http://icons.local/sun.png\n"), 0644); err != nil {
		t.Fatalf("write .env: %v", err)
	}
	os.Chdir(dir)
	defer os.Chdir(origWd)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.IconURL != "http://icons.local/sun.png" {
		t.Errorf("IconURL = %q, want value from .env", cfg.IconURL)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		def  time.Duration
		want time.Duration
	}{
		{"", time.Second, time.Second},
		{"  ", time.Second, time.Second},
		{"250ms", time.Second, 250 * time.Millisecond},
		{"bogus", time.Second, time.Second},
		{"0s", time.Second, time.Second},
		{"-5s", time.Second, time.Second},
	}
	for _, tt := range tests {
		if got := parseDuration(tt.in, tt.def); got != tt.want {
			t.Errorf("parseDuration(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func writeEnvFile(t *testing.T, dir, content string) {
	t.Helper()
	configDir := filepath.Join(dir, "config")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("mkdir config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "dev.yaml"), []byte(content), 0644); err != nil {
		t.Fatalf("write config file: %v", err)
	}
}

func findProjectRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "config", "dev.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("config/dev.yaml not found (run tests from project root)")
		}
		dir = parent
	}
}
