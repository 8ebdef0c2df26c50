package tracker

import (
	"errors"
	"sync"
	"time"

	"github.com/kjstillabower/weather-tracker/internal/models"
)

// ErrCityNotFound is returned by Get when no record is stored for the city.
var ErrCityNotFound = errors.New("city not found")

// ErrNoData is returned by AverageTemperature when no records are stored.
var ErrNoData = errors.New("no weather data")

// Tracker holds weather records keyed by city name. Records are never removed;
// adding an existing city overwrites its record in place.
// Safe for concurrent use.
type Tracker struct {
	mu      sync.RWMutex
	records map[string]models.WeatherRecord
	order   []string // cities in first-insertion order
	now     func() time.Time
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{
		records: make(map[string]models.WeatherRecord),
		now:     time.Now,
	}
}

// AddOrUpdate stores the reading for city, replacing any previous record.
// No validation is done here; callers pass normalized values.
func (t *Tracker) AddOrUpdate(city string, temperature, humidity float64, condition string) models.WeatherRecord {
	rec := models.WeatherRecord{
		City:        city,
		Temperature: temperature,
		Humidity:    humidity,
		Condition:   condition,
		UpdatedAt:   t.now(),
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.records[city]; !ok {
		t.order = append(t.order, city)
	}
	t.records[city] = rec
	return rec
}

// Get returns the record for city or ErrCityNotFound.
func (t *Tracker) Get(city string) (models.WeatherRecord, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[city]
	if !ok {
		return models.WeatherRecord{}, ErrCityNotFound
	}
	return rec, nil
}

// List returns a copy of all records in insertion order.
func (t *Tracker) List() []models.WeatherRecord {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]models.WeatherRecord, 0, len(t.order))
	for _, city := range t.order {
		out = append(out, t.records[city])
	}
	return out
}

// AverageTemperature returns the arithmetic mean of all stored temperatures,
// or ErrNoData when nothing is stored.
func (t *Tracker) AverageTemperature() (float64, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.records) == 0 {
		return 0, ErrNoData
	}
	var sum float64
	for _, rec := range t.records {
		sum += rec.Temperature
	}
	return sum / float64(len(t.records)), nil
}

// Len returns the number of stored cities.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}
