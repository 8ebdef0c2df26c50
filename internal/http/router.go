package http

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/weather-tracker/internal/observability"
	"github.com/kjstillabower/weather-tracker/internal/traffic"
)

// RouterConfig controls the middleware applied to tracker routes.
type RouterConfig struct {
	RequestTimeout time.Duration
	RateLimiter    *rate.Limiter   // nil disables rate limiting
	Traffic        *traffic.Window // nil disables outcome tracking
}

// NewRouter wires the HTML form, JSON API, icon, health and metrics routes.
// Health and metrics bypass rate limiting so probes keep working under load.
func NewRouter(h *Handler, logger *zap.Logger, cfg RouterConfig) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods(http.MethodGet)
	router.Handle("/metrics", observability.MetricsHandler())

	app := router.NewRoute().Subrouter()
	app.Use(TrafficMiddleware(cfg.Traffic))
	app.Use(RateLimitMiddleware(cfg.RateLimiter))
	if cfg.RequestTimeout > 0 {
		app.Use(TimeoutMiddleware(cfg.RequestTimeout))
	}

	app.HandleFunc("/", h.Index).Methods(http.MethodGet)
	app.HandleFunc("/cities", h.PostCity).Methods(http.MethodPost)
	app.HandleFunc("/cities", h.ListCities).Methods(http.MethodGet)
	app.HandleFunc("/search", h.Search).Methods(http.MethodGet)
	app.HandleFunc("/average", h.Average).Methods(http.MethodGet)
	app.HandleFunc("/icon.png", h.Icon).Methods(http.MethodGet)

	api := app.PathPrefix("/api").Subrouter()
	api.HandleFunc("/cities", h.PostCityJSON).Methods(http.MethodPost)
	api.HandleFunc("/cities", h.ListCitiesJSON).Methods(http.MethodGet)
	api.HandleFunc("/cities/{city}", h.GetCityJSON).Methods(http.MethodGet)
	api.HandleFunc("/average", h.AverageJSON).Methods(http.MethodGet)

	return router
}
