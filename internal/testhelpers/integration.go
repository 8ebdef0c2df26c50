//go:build integration
// +build integration

package testhelpers

import (
	"os"
	"testing"
)

// IntegrationTestConfig holds backend addresses for integration tests.
type IntegrationTestConfig struct {
	MemcachedAddr string
	RedisAddr     string
	IconURL       string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips the test unless INTEGRATION_BACKENDS is set, so a bare
// `go test -tags integration` on a laptop without servers stays green.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	t.Helper()
	if os.Getenv("INTEGRATION_BACKENDS") == "" {
		t.Skip("INTEGRATION_BACKENDS not set, skipping integration test")
	}

	cfg := IntegrationTestConfig{
		MemcachedAddr: os.Getenv("TRACKER_MEMCACHED_ADDRS"),
		RedisAddr:     os.Getenv("TRACKER_REDIS_ADDR"),
		IconURL:       os.Getenv("TRACKER_ICON_URL"),
	}
	if cfg.MemcachedAddr == "" {
		cfg.MemcachedAddr = "localhost:11211"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	if cfg.IconURL == "" {
		cfg.IconURL = "https://www.iconfinder.com/data/icons/weather-forecast-19/64/weather_19-512.png"
	}
	return cfg
}
