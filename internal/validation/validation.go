package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// ErrInvalidInput is wrapped by every error returned from this package.
var ErrInvalidInput = errors.New("invalid input")

// ErrEmpty is returned when a required field is empty or whitespace-only after trim.
var ErrEmpty = errors.New("cannot be empty")

// ErrNotANumber is returned when a numeric field does not parse as a finite float.
var ErrNotANumber = errors.New("must be a number")

// ErrTooLong is returned when a text field exceeds the maximum length.
var ErrTooLong = errors.New("is too long")

// FieldError reports which form field was rejected and why.
type FieldError struct {
	Field  string
	Reason error
}

func (e *FieldError) Error() string {
	return e.Field + " " + e.Reason.Error()
}

// Unwrap lets errors.Is match both ErrInvalidInput and the specific reason.
func (e *FieldError) Unwrap() []error {
	return []error{ErrInvalidInput, e.Reason}
}

// Reading is a validated, normalized add/update request.
type Reading struct {
	City        string
	Temperature float64
	Humidity    float64
	Condition   string
}

// Capitalize upper-cases the first rune and lower-cases the rest ("nEW york" -> "New york").
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// NormalizeName trims surrounding whitespace and capitalizes. Used for both
// stored city names and search queries so lookups agree with upserts.
func NormalizeName(s string) string {
	return Capitalize(strings.TrimSpace(s))
}

// ParseNumber parses a form value as a finite float64.
func ParseNumber(field, s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &FieldError{Field: field, Reason: ErrNotANumber}
	}
	return v, nil
}

// ValidateReading normalizes and checks the four add/update inputs.
// Numbers are checked before the text fields. maxLen bounds city and
// condition in runes; 0 disables the bound.
func ValidateReading(city, temperature, humidity, condition string, maxLen int) (Reading, error) {
	temp, err := ParseNumber("temperature", temperature)
	if err != nil {
		return Reading{}, err
	}
	hum, err := ParseNumber("humidity", humidity)
	if err != nil {
		return Reading{}, err
	}

	r := Reading{
		City:        NormalizeName(city),
		Temperature: temp,
		Humidity:    hum,
		Condition:   NormalizeName(condition),
	}
	if err := checkText("city", r.City, maxLen); err != nil {
		return Reading{}, err
	}
	if err := checkText("condition", r.Condition, maxLen); err != nil {
		return Reading{}, err
	}
	return r, nil
}

func checkText(field, s string, maxLen int) error {
	if s == "" {
		return &FieldError{Field: field, Reason: ErrEmpty}
	}
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		return &FieldError{Field: field, Reason: ErrTooLong}
	}
	return nil
}
