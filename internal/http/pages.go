package http

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-tracker/internal/service"
	"github.com/kjstillabower/weather-tracker/internal/tracker"
	"github.com/kjstillabower/weather-tracker/internal/validation"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/page.html"))

// formValues echoes the add/update inputs back into the page.
type formValues struct {
	City        string
	Temperature string
	Humidity    string
	Condition   string
}

type pageData struct {
	Form     formValues
	Search   string
	IconSize int
	Dialog   *Dialog
	Detail   *detailView
}

// renderPage executes the page template into a buffer first so a template
// failure still produces a clean 500.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, status int, data pageData) {
	data.IconSize = h.iconSize
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		requestLogger(r, h.logger).Error("render page failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// Index handles GET /.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.renderPage(w, r, http.StatusOK, pageData{})
}

// PostCity handles POST /cities from the add/update form.
func (h *Handler) PostCity(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderPage(w, r, http.StatusBadRequest, pageData{Dialog: ptr(invalidInputDialog(errors.New("malformed form")))})
		return
	}
	form := formValues{
		City:        r.PostFormValue("city"),
		Temperature: r.PostFormValue("temperature"),
		Humidity:    r.PostFormValue("humidity"),
		Condition:   r.PostFormValue("condition"),
	}

	rec, err := h.service.AddOrUpdate(r.Context(), service.Input(form))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, validation.ErrInvalidInput) {
			status = http.StatusBadRequest
		}
		h.renderPage(w, r, status, pageData{Form: form, Dialog: ptr(invalidInputDialog(err))})
		return
	}
	h.renderPage(w, r, http.StatusOK, pageData{Form: form, Dialog: ptr(successDialog(rec.City))})
}

// Search handles GET /search?city=.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("city")
	rec, err := h.service.Search(r.Context(), query)
	if err != nil {
		if errors.Is(err, tracker.ErrCityNotFound) {
			h.renderPage(w, r, http.StatusNotFound, pageData{
				Search: query,
				Dialog: ptr(notFoundDialog(validation.NormalizeName(query))),
			})
			return
		}
		requestLogger(r, h.logger).Error("search failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, http.StatusOK, pageData{Search: query, Detail: newDetailView(rec)})
}

// ListCities handles GET /cities.
func (h *Handler) ListCities(w http.ResponseWriter, r *http.Request) {
	records := h.service.ListAll(r.Context())
	h.renderPage(w, r, http.StatusOK, pageData{Dialog: ptr(allCitiesDialog(records))})
}

// Average handles GET /average. An empty tracker is informational, not an error.
func (h *Handler) Average(w http.ResponseWriter, r *http.Request) {
	avg, _, err := h.service.AverageTemperature(r.Context())
	if err != nil {
		if errors.Is(err, tracker.ErrNoData) {
			h.renderPage(w, r, http.StatusOK, pageData{Dialog: ptr(noAverageDialog())})
			return
		}
		requestLogger(r, h.logger).Error("average failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	h.renderPage(w, r, http.StatusOK, pageData{Dialog: ptr(averageDialog(avg))})
}

// Icon handles GET /icon.png.
func (h *Handler) Icon(w http.ResponseWriter, r *http.Request) {
	ic := h.icons.Get()
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(ic.PNG)))
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Icon-Source", string(ic.Source))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(ic.PNG)
}

func ptr[T any](v T) *T {
	return &v
}
