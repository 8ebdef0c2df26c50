package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestMetrics_Usable verifies that all Prometheus metrics can be used without
// panic, ensuring label dimensions match usage across http, service, icon and cache packages.
func TestMetrics_Usable(t *testing.T) {
	HTTPRequestsTotal.WithLabelValues("GET", "/api/cities/{city}", "2xx").Inc()
	HTTPRequestDuration.WithLabelValues("GET", "/api/cities/{city}").Observe(0.01)
	RecordTrackerOperation("search", "not_found")
	IconLoadsTotal.WithLabelValues("placeholder").Inc()
	IconFetchDuration.WithLabelValues("success").Observe(0.2)
	IconFetchRetriesTotal.Inc()
	IconBreakerTransitionsTotal.WithLabelValues("closed", "open").Inc()
	CacheOperationsTotal.WithLabelValues("in_memory", "get", "hit").Inc()
	RateLimitDeniedTotal.Inc()
}

// TestMetricsHandler_ServesPrometheusFormat verifies that MetricsHandler serves
// Prometheus text exposition format including the cities gauge.
func TestMetricsHandler_ServesPrometheusFormat(t *testing.T) {
	RegisterCitiesGauge(func() int { return 3 })
	RecordTrackerOperation("add_or_update", "success")

	handler := MetricsHandler()
	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("MetricsHandler status = %d, want 200", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "trackerOperationsTotal") {
		t.Error("MetricsHandler response should contain trackerOperationsTotal")
	}
	if !strings.Contains(body, "trackerCitiesStored 3") {
		t.Error("MetricsHandler response should contain trackerCitiesStored 3")
	}
}
