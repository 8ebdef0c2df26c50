//go:build integration
// +build integration

package cache

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/kjstillabower/weather-tracker/internal/testhelpers"
)

// TestRedisCache_GetSet_Integration verifies that RedisCache stores and
// retrieves values when a redis server is available.
func TestRedisCache_GetSet_Integration(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	c := NewRedisCache(cfg.RedisAddr, "", 0)
	defer c.Close()

	ctx := context.Background()
	if err := c.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}
	val := []byte("icon-bytes")
	if err := c.Set(ctx, "icon-test", val, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "icon-test")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok || !bytes.Equal(got, val) {
		t.Errorf("Get() = %q, %v; want %q, true", got, ok, val)
	}
}

// TestRedisCache_Get_Miss_Integration verifies redis.Nil is reported as a miss.
func TestRedisCache_Get_Miss_Integration(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)
	c := NewRedisCache(cfg.RedisAddr, "", 0)
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Skipf("Get failed (redis may not be running): %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}
