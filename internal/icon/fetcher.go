package icon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/kjstillabower/weather-tracker/internal/observability"
)

// maxIconBytes bounds the download so a misconfigured URL cannot exhaust memory.
const maxIconBytes = 5 << 20

var (
	ErrNotFound        = errors.New("icon not found")
	ErrUpstreamFailure = errors.New("upstream failure")
	ErrRateLimited     = errors.New("rate limited")
	ErrTooLarge        = errors.New("icon too large")
)

// Fetcher downloads raw icon bytes.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPFetcher is a Fetcher with per-attempt timeout and exponential backoff.
type HTTPFetcher struct {
	client         *http.Client
	timeout        time.Duration
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
}

// NewHTTPFetcher returns an HTTPFetcher. retryAttempts is the total number of
// attempts, so 1 disables retries.
func NewHTTPFetcher(timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration) *HTTPFetcher {
	if retryAttempts <= 0 {
		retryAttempts = 1
	}
	return &HTTPFetcher{
		client:         &http.Client{Timeout: timeout},
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt < f.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.IconFetchRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(f.calculateBackoff(attempt)):
			}
		}

		body, err := f.get(ctx, url)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return nil, err
		}
	}

	return nil, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "image/png, image/jpeg, image/gif")

	resp, err := f.client.Do(req)
	if err != nil {
		observability.IconFetchDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("request timeout: %w", err)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	observability.IconFetchDuration.WithLabelValues(statusLabel(resp.StatusCode)).Observe(time.Since(start).Seconds())

	if err := handleErrorResponse(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxIconBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if len(body) > maxIconBytes {
		return nil, ErrTooLarge
	}
	return body, nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

func (f *HTTPFetcher) calculateBackoff(attempt int) time.Duration {
	delay := float64(f.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(f.retryMaxDelay) {
		delay = float64(f.retryMaxDelay)
	}

	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

func handleErrorResponse(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return fmt.Errorf("unexpected status: HTTP %d", resp.StatusCode)
	}
	return nil
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	}
	return "error"
}
