package icon

import (
	"context"
	"errors"
	"strings"

	"github.com/sony/gobreaker"
)

// ErrorCategory is a stable label for icon load failures in logs.
type ErrorCategory string

const (
	ErrorCategoryTimeout     ErrorCategory = "timeout"
	ErrorCategoryNetwork     ErrorCategory = "network"
	ErrorCategoryNotFound    ErrorCategory = "not_found"
	ErrorCategoryRateLimited ErrorCategory = "rate_limited"
	ErrorCategoryUpstream5xx ErrorCategory = "upstream_5xx"
	ErrorCategoryBreakerOpen ErrorCategory = "breaker_open"
	ErrorCategoryDecode      ErrorCategory = "decode"
	ErrorCategoryUnknown     ErrorCategory = "unknown"
)

// CategorizeError maps an icon load error to an ErrorCategory.
func CategorizeError(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return ErrorCategoryTimeout
	}
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrorCategoryBreakerOpen
	}
	if errors.Is(err, ErrNotFound) {
		return ErrorCategoryNotFound
	}
	if errors.Is(err, ErrRateLimited) {
		return ErrorCategoryRateLimited
	}
	if errors.Is(err, ErrUpstreamFailure) {
		return ErrorCategoryUpstream5xx
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "timeout"):
		return ErrorCategoryTimeout
	case strings.Contains(errStr, "decode"):
		return ErrorCategoryDecode
	case strings.Contains(errStr, "connection") || strings.Contains(errStr, "no such host") || strings.Contains(errStr, "http request failed"):
		return ErrorCategoryNetwork
	}
	return ErrorCategoryUnknown
}
