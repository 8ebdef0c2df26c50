package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-tracker/internal/icon"
	"github.com/kjstillabower/weather-tracker/internal/lifecycle"
	"github.com/kjstillabower/weather-tracker/internal/observability"
	"github.com/kjstillabower/weather-tracker/internal/service"
	"github.com/kjstillabower/weather-tracker/internal/tracker"
	"github.com/kjstillabower/weather-tracker/internal/traffic"
	"github.com/kjstillabower/weather-tracker/internal/validation"
)

// HealthConfig holds optional dependency checks for the health handler.
type HealthConfig struct {
	// CacheBackend names the icon cache backend in health output.
	CacheBackend string
	// CachePing, when set, is called to check cache reachability (memcached, redis).
	CachePing func(ctx context.Context) error
	// BreakerState, when set, reports the icon download breaker state.
	BreakerState func() string
	// Traffic, when set, enables the overloaded status: the share of
	// rate-limited requests within OverloadWindow reaches OverloadThresholdPct.
	Traffic              *traffic.Window
	OverloadWindow       time.Duration
	OverloadThresholdPct int
}

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	service          *service.TrackerService
	icons            *icon.Holder
	iconSize         int
	healthConfig     *HealthConfig
	logger           *zap.Logger
	healthStatusMu   sync.Mutex
	healthStatusPrev string
}

// NewHandler returns a new Handler.
func NewHandler(
	trackerService *service.TrackerService,
	icons *icon.Holder,
	iconSize int,
	healthConfig *HealthConfig,
	logger *zap.Logger,
) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		service:      trackerService,
		icons:        icons,
		iconSize:     iconSize,
		healthConfig: healthConfig,
		logger:       logger,
	}
}

// cityRequest is the JSON add/update body. Numbers may be sent as JSON
// numbers or strings; both go through the same validation as the form.
type cityRequest struct {
	City        textOrNumber `json:"city"`
	Temperature textOrNumber `json:"temperature"`
	Humidity    textOrNumber `json:"humidity"`
	Condition   textOrNumber `json:"condition"`
}

type textOrNumber string

func (v *textOrNumber) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*v = textOrNumber(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*v = textOrNumber(n.String())
	return nil
}

// PostCityJSON handles POST /api/cities.
func (h *Handler) PostCityJSON(w http.ResponseWriter, r *http.Request) {
	var body cityRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input: malformed JSON body")
		return
	}

	rec, err := h.service.AddOrUpdate(r.Context(), service.Input{
		City:        string(body.City),
		Temperature: string(body.Temperature),
		Humidity:    string(body.Humidity),
		Condition:   string(body.Condition),
	})
	if err != nil {
		if errors.Is(err, validation.ErrInvalidInput) {
			writeError(w, r, http.StatusBadRequest, "INVALID_INPUT", "Invalid input: "+err.Error())
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// ListCitiesJSON handles GET /api/cities.
func (h *Handler) ListCitiesJSON(w http.ResponseWriter, r *http.Request) {
	records := h.service.ListAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"cities": records,
		"count":  len(records),
	})
}

// GetCityJSON handles GET /api/cities/{city}.
func (h *Handler) GetCityJSON(w http.ResponseWriter, r *http.Request) {
	query := mux.Vars(r)["city"]
	rec, err := h.service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, tracker.ErrCityNotFound) {
			writeError(w, r, http.StatusNotFound, "CITY_NOT_FOUND",
				fmt.Sprintf("No weather data available for %s.", validation.NormalizeName(query)))
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// AverageJSON handles GET /api/average.
func (h *Handler) AverageJSON(w http.ResponseWriter, r *http.Request) {
	avg, n, err := h.service.AverageTemperature(r.Context())
	if err != nil {
		if errors.Is(err, tracker.ErrNoData) {
			writeError(w, r, http.StatusNotFound, "NO_DATA", "No weather data available to calculate average temperature.")
			return
		}
		writeInternalError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"averageTemperature": avg,
		"count":              n,
	})
}

// healthResult holds the computed health status and metadata for logging.
type healthResult struct {
	status     string
	statusCode int
	reason     string
	checks     map[string]string
}

// GetHealth handles GET /health.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	result := h.computeHealthStatus(r.Context())

	h.healthStatusMu.Lock()
	prev := h.healthStatusPrev
	if prev != "" && prev != result.status {
		h.logger.Info("health status transition",
			zap.String("previous_status", prev),
			zap.String("current_status", result.status),
			zap.String("reason", result.reason))
	}
	h.healthStatusPrev = result.status
	h.healthStatusMu.Unlock()

	resp := map[string]interface{}{
		"status":    result.status,
		"service":   observability.ServiceName,
		"version":   "dev",
		"checks":    result.checks,
		"cities":    h.service.CityCount(),
		"uptime":    lifecycle.Uptime(time.Now()).Truncate(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	writeJSON(w, result.statusCode, resp)
}

// computeHealthStatus evaluates, in order: shutting-down, overloaded, cache reachability.
// The icon is decorative, so a placeholder icon or an open breaker is reported
// in checks without changing the status.
func (h *Handler) computeHealthStatus(ctx context.Context) healthResult {
	checks := map[string]string{"tracker": "healthy"}

	ic := h.icons.Get()
	checks["icon"] = string(ic.Source)
	if h.healthConfig != nil && h.healthConfig.BreakerState != nil {
		checks["iconBreaker"] = h.healthConfig.BreakerState()
	}

	if lifecycle.IsShuttingDown() {
		return healthResult{"shutting-down", http.StatusServiceUnavailable, "signal", checks}
	}

	if h.overloaded() {
		return healthResult{"overloaded", http.StatusServiceUnavailable, "rate_limit_denials", checks}
	}

	if h.healthConfig != nil && h.healthConfig.CachePing != nil {
		if err := h.healthConfig.CachePing(ctx); err != nil {
			checks["cache"] = "unhealthy"
			return healthResult{"degraded", http.StatusOK, "cache_unreachable", checks}
		}
		checks["cache"] = "healthy"
	} else if h.healthConfig != nil && h.healthConfig.CacheBackend != "" {
		checks["cache"] = h.healthConfig.CacheBackend
	}
	return healthResult{"healthy", http.StatusOK, "", checks}
}

func (h *Handler) overloaded() bool {
	hc := h.healthConfig
	if hc == nil || hc.Traffic == nil || hc.OverloadWindow <= 0 || hc.OverloadThresholdPct <= 0 {
		return false
	}
	c := hc.Traffic.Counts(hc.OverloadWindow)
	if c.Denied == 0 {
		return false
	}
	return c.Denied*100 >= hc.OverloadThresholdPct*c.Total()
}

// writeJSON writes a JSON response with the specified HTTP status code.
// Sets Content-Type header to application/json and encodes the provided value.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes an error response in the standard error format with code, message,
// and requestId (correlation ID) if available in request context.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{
			"code":      code,
			"message":   message,
			"requestId": correlationID(r),
		},
	})
}

// writeInternalError writes a 500 and logs the underlying error.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	requestLogger(r, nil).Error("request failed", zap.Error(err))
	writeError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal error")
}

func correlationID(r *http.Request) string {
	if v, ok := r.Context().Value("correlation_id").(string); ok {
		return v
	}
	return ""
}

// requestLogger returns the request-scoped logger, else fallback, else a no-op logger.
func requestLogger(r *http.Request, fallback *zap.Logger) *zap.Logger {
	if l, ok := r.Context().Value("logger").(*zap.Logger); ok && l != nil {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return zap.NewNop()
}
