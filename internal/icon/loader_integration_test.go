//go:build integration
// +build integration

package icon

import (
	"context"
	"testing"
	"time"

	"github.com/kjstillabower/weather-tracker/internal/cache"
	"github.com/kjstillabower/weather-tracker/internal/testhelpers"
)

// TestLoader_Load_RealIcon_Integration downloads the configured icon through
// the breaker and a redis cache, then expects the second load from cache.
func TestLoader_Load_RealIcon_Integration(t *testing.T) {
	cfg := testhelpers.GetIntegrationConfig(t)

	rc := cache.NewRedisCache(cfg.RedisAddr, "", 0)
	defer rc.Close()
	ctx := context.Background()
	if err := rc.Ping(ctx); err != nil {
		t.Skipf("redis not reachable: %v", err)
	}

	fetcher := NewBreakerFetcher(
		BreakerConfig{ConsecutiveFailures: 3, OpenTimeout: time.Minute},
		NewHTTPFetcher(5*time.Second, 2, 200*time.Millisecond, time.Second),
	)
	l := NewLoader(fetcher, rc, cfg.IconURL, 100, time.Minute, nil)

	first := l.Load(ctx)
	if first.IsPlaceholder() {
		t.Skip("icon host unreachable, loader fell back to placeholder")
	}
	second := l.Load(ctx)
	if second.Source != SourceCached {
		t.Errorf("second load Source = %q, want cached", second.Source)
	}
}
