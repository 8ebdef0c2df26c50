package cache

import (
	"context"
	"time"

	"github.com/kjstillabower/weather-tracker/internal/observability"
)

// Instrumented decorates a Cache with per-operation counters labelled by backend.
type Instrumented struct {
	next    Cache
	backend string
}

// NewInstrumented wraps next; backend is used as the metric label.
func NewInstrumented(next Cache, backend string) *Instrumented {
	return &Instrumented{next: next, backend: backend}
}

func (c *Instrumented) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, ok, err := c.next.Get(ctx, key)
	result := "miss"
	switch {
	case err != nil:
		result = "error"
	case ok:
		result = "hit"
	}
	observability.CacheOperationsTotal.WithLabelValues(c.backend, "get", result).Inc()
	return v, ok, err
}

func (c *Instrumented) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.next.Set(ctx, key, value, ttl)
	result := "success"
	if err != nil {
		result = "error"
	}
	observability.CacheOperationsTotal.WithLabelValues(c.backend, "set", result).Inc()
	return err
}
