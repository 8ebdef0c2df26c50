package http

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kjstillabower/weather-tracker/internal/models"
)

// DialogKind selects how a dialog is styled.
type DialogKind string

const (
	DialogInfo    DialogKind = "info"
	DialogWarning DialogKind = "warning"
	DialogError   DialogKind = "error"
)

// Dialog is a modal message rendered over the form page.
type Dialog struct {
	Kind  DialogKind
	Title string
	Body  string
}

// Lines splits Body for rendering one paragraph per line.
func (d Dialog) Lines() []string {
	return strings.Split(d.Body, "\n")
}

func successDialog(city string) Dialog {
	return Dialog{DialogInfo, "Success", fmt.Sprintf("Weather data for %s added/updated successfully!", city)}
}

func invalidInputDialog(err error) Dialog {
	return Dialog{DialogError, "Error", "Invalid input: " + err.Error()}
}

func notFoundDialog(city string) Dialog {
	return Dialog{DialogWarning, "Not Found", fmt.Sprintf("No weather data available for %s.", city)}
}

func allCitiesDialog(records []models.WeatherRecord) Dialog {
	if len(records) == 0 {
		return Dialog{DialogInfo, "No Data", "No weather data available!"}
	}
	lines := make([]string, 0, len(records))
	for _, rec := range records {
		lines = append(lines, fmt.Sprintf("%s: %s°C, %s%%, %s",
			rec.City, formatNumber(rec.Temperature), formatNumber(rec.Humidity), rec.Condition))
	}
	return Dialog{DialogInfo, "All Cities", strings.Join(lines, "\n")}
}

func averageDialog(avg float64) Dialog {
	return Dialog{DialogInfo, "Average Temperature", fmt.Sprintf("Average Temperature Across All Cities: %.2f°C", avg)}
}

func noAverageDialog() Dialog {
	return Dialog{DialogInfo, "No Data", "No weather data available to calculate average temperature."}
}

// detailView is the per-city window shown for a successful search.
type detailView struct {
	Title       string
	Temperature string
	Humidity    string
	Condition   string
	UpdatedAt   string
}

func newDetailView(rec models.WeatherRecord) *detailView {
	return &detailView{
		Title:       "Weather in " + rec.City,
		Temperature: "Temperature: " + formatNumber(rec.Temperature) + "°C",
		Humidity:    "Humidity: " + formatNumber(rec.Humidity) + "%",
		Condition:   "Condition: " + rec.Condition,
		UpdatedAt:   rec.UpdatedAt.UTC().Format("2006-01-02 15:04:05 UTC"),
	}
}

// formatNumber prints whole numbers with a trailing ".0" (10 -> "10.0") and
// everything else with the shortest exact representation.
func formatNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
