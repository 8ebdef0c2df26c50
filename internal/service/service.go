package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-tracker/internal/models"
	"github.com/kjstillabower/weather-tracker/internal/observability"
	"github.com/kjstillabower/weather-tracker/internal/tracker"
	"github.com/kjstillabower/weather-tracker/internal/validation"
)

// Input is a raw add/update request as typed into the form.
type Input struct {
	City        string
	Temperature string
	Humidity    string
	Condition   string
}

// TrackerService validates user input and runs it against a Tracker. It is
// the only layer that turns raw text into records; handlers only render
// what it returns.
type TrackerService struct {
	tracker   *tracker.Tracker
	maxLength int
}

// NewTrackerService creates a TrackerService over t. maxLength bounds city and
// condition names in runes (0 disables the bound).
func NewTrackerService(t *tracker.Tracker, maxLength int) *TrackerService {
	observability.RegisterCitiesGauge(t.Len)
	return &TrackerService{tracker: t, maxLength: maxLength}
}

// loggerFromContext extracts a zap.Logger from request context if present.
// Returns nil if logger is not found or context is invalid.
func loggerFromContext(ctx context.Context) *zap.Logger {
	if v := ctx.Value("logger"); v != nil {
		if l, ok := v.(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return nil
}

// AddOrUpdate validates in and upserts the resulting record. Invalid input
// wraps validation.ErrInvalidInput and leaves the tracker unchanged.
func (s *TrackerService) AddOrUpdate(ctx context.Context, in Input) (models.WeatherRecord, error) {
	logger := loggerFromContext(ctx)

	r, err := validation.ValidateReading(in.City, in.Temperature, in.Humidity, in.Condition, s.maxLength)
	if err != nil {
		observability.RecordTrackerOperation("add", "invalid")
		if logger != nil {
			logger.Debug("rejected weather input", zap.Error(err))
		}
		return models.WeatherRecord{}, err
	}

	rec := s.tracker.AddOrUpdate(r.City, r.Temperature, r.Humidity, r.Condition)
	observability.RecordTrackerOperation("add", "success")
	if logger != nil {
		logger.Debug("weather data stored",
			zap.String("city", rec.City),
			zap.Float64("temperature", rec.Temperature),
			zap.Float64("humidity", rec.Humidity),
			zap.String("condition", rec.Condition))
	}
	return rec, nil
}

// Search looks up the record for query, normalized the same way as stored
// city names. Returns tracker.ErrCityNotFound if absent.
func (s *TrackerService) Search(ctx context.Context, query string) (models.WeatherRecord, error) {
	city := validation.NormalizeName(query)
	rec, err := s.tracker.Get(city)
	if err != nil {
		if errors.Is(err, tracker.ErrCityNotFound) {
			observability.RecordTrackerOperation("search", "not_found")
		} else {
			observability.RecordTrackerOperation("search", "error")
		}
		return models.WeatherRecord{}, fmt.Errorf("search %q: %w", city, err)
	}
	observability.RecordTrackerOperation("search", "success")
	return rec, nil
}

// ListAll returns every record in insertion order. Never nil.
func (s *TrackerService) ListAll(ctx context.Context) []models.WeatherRecord {
	records := s.tracker.List()
	if len(records) == 0 {
		observability.RecordTrackerOperation("list", "empty")
	} else {
		observability.RecordTrackerOperation("list", "success")
	}
	return records
}

// AverageTemperature returns the mean temperature across all cities and the
// number of cities it covers. Returns tracker.ErrNoData when nothing is stored.
func (s *TrackerService) AverageTemperature(ctx context.Context) (float64, int, error) {
	avg, err := s.tracker.AverageTemperature()
	if err != nil {
		observability.RecordTrackerOperation("average", "empty")
		return 0, 0, err
	}
	observability.RecordTrackerOperation("average", "success")
	return avg, s.tracker.Len(), nil
}

// CityCount returns how many cities have a stored record.
func (s *TrackerService) CityCount() int {
	return s.tracker.Len()
}
