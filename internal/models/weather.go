package models

import "time"

// WeatherRecord is the reading stored for one city. City and Condition are
// already normalized by the time a record reaches the tracker.
type WeatherRecord struct {
	City        string    `json:"city"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	Condition   string    `json:"condition"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
