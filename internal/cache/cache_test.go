package cache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

// TestInMemoryCache_GetSet verifies that Set stores values and Get retrieves
// them correctly.
func TestInMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	val := []byte("\x89PNG-icon")
	if err := c.Set(ctx, "icon", val, time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, ok, err := c.Get(ctx, "icon")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if !ok {
		t.Fatal("Get() ok = false, want true")
	}
	if !bytes.Equal(got, val) {
		t.Errorf("Get() = %q, want %q", got, val)
	}
}

// TestInMemoryCache_StoresCopy verifies callers cannot mutate cached bytes.
func TestInMemoryCache_StoresCopy(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()

	val := []byte("abc")
	_ = c.Set(ctx, "k", val, time.Minute)
	val[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Errorf("Get() = %q after mutating input, want abc", got)
	}
	got[1] = 'y'
	again, _, _ := c.Get(ctx, "k")
	if string(again) != "abc" {
		t.Errorf("Get() = %q after mutating output, want abc", again)
	}
}

// TestInMemoryCache_Get_Miss verifies that Get returns ok=false when
// the requested key does not exist in cache.
func TestInMemoryCache_Get_Miss(t *testing.T) {
	c := NewInMemoryCache()

	_, ok, err := c.Get(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for miss")
	}
}

// TestInMemoryCache_Get_Expired verifies that Get returns ok=false for expired
// entries and removes them from cache on access.
func TestInMemoryCache_Get_Expired(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.Set(ctx, "icon", []byte("x"), time.Second); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	now = now.Add(2 * time.Second)

	_, ok, err := c.Get(ctx, "icon")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok {
		t.Error("Get() ok = true, want false for expired entry")
	}
	if _, exists := c.data["icon"]; exists {
		t.Error("Expired entry should be deleted from cache")
	}
}

func TestInMemoryCache_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := NewInMemoryCache()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); !errors.Is(err, context.Canceled) {
		t.Errorf("Set() error = %v, want context.Canceled", err)
	}
	if _, _, err := c.Get(ctx, "k"); !errors.Is(err, context.Canceled) {
		t.Errorf("Get() error = %v, want context.Canceled", err)
	}
}

type failingCache struct{ err error }

func (f failingCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.err
}

func (f failingCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return f.err
}

// TestInstrumented_PassesThrough verifies the decorator returns the wrapped
// cache's results unchanged.
func TestInstrumented_PassesThrough(t *testing.T) {
	ctx := context.Background()
	c := NewInstrumented(NewInMemoryCache(), "in_memory")

	if _, ok, err := c.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("Get() on empty = ok %v err %v, want miss", ok, err)
	}
	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, ok, err := c.Get(ctx, "k")
	if err != nil || !ok || string(got) != "v" {
		t.Errorf("Get() = %q, %v, %v; want v, true, nil", got, ok, err)
	}

	boom := errors.New("boom")
	bad := NewInstrumented(failingCache{err: boom}, "redis")
	if _, _, err := bad.Get(ctx, "k"); !errors.Is(err, boom) {
		t.Errorf("Get() error = %v, want boom", err)
	}
	if err := bad.Set(ctx, "k", nil, time.Minute); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want boom", err)
	}
}

func TestParseAddrs(t *testing.T) {
	got := parseAddrs(" a:1 , ,b:2,")
	if len(got) != 2 || got[0] != "a:1" || got[1] != "b:2" {
		t.Errorf("parseAddrs() = %v, want [a:1 b:2]", got)
	}
}

func TestExpirationSeconds(t *testing.T) {
	tests := []struct {
		ttl  time.Duration
		want int32
	}{
		{0, 3600},
		{-time.Second, 3600},
		{90 * time.Second, 90},
		{24 * time.Hour, 86400},
		{31 * 24 * time.Hour, 3600},
	}
	for _, tt := range tests {
		if got := expirationSeconds(tt.ttl); got != tt.want {
			t.Errorf("expirationSeconds(%v) = %d, want %d", tt.ttl, got, tt.want)
		}
	}
}
