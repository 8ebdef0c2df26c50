package icon

import (
	"context"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/kjstillabower/weather-tracker/internal/observability"
)

// BreakerConfig controls when the icon breaker opens and how long it stays open.
type BreakerConfig struct {
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
}

// BreakerFetcher short-circuits downloads while the icon host keeps failing,
// so scheduled refreshes fall straight back to the current icon.
type BreakerFetcher struct {
	cb      *gobreaker.CircuitBreaker
	wrapped Fetcher
}

func NewBreakerFetcher(cfg BreakerConfig, wrapped Fetcher) *BreakerFetcher {
	settings := gobreaker.Settings{
		Name:        "icon",
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			observability.IconBreakerTransitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
		},
	}
	return &BreakerFetcher{
		cb:      gobreaker.NewCircuitBreaker(settings),
		wrapped: wrapped,
	}
}

func (b *BreakerFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	result, err := b.cb.Execute(func() (interface{}, error) {
		return b.wrapped.Fetch(ctx, url)
	})
	if err != nil {
		return nil, fmt.Errorf("icon host unavailable: %w", err)
	}
	body, ok := result.([]byte)
	if !ok {
		return nil, fmt.Errorf("icon fetcher returned unexpected result")
	}
	return body, nil
}

// State reports the breaker state ("closed", "open", "half-open") for health output.
func (b *BreakerFetcher) State() string {
	return b.cb.State().String()
}
