package models

import (
	"database/sql"
	"time"
)

// MonthLabels is the fixed ordered list offered by the start month selector.
// A label's position plus one is its calendar month.
var MonthLabels = []string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio", "Julio",
	"Agosto", "Setiembre", "Octubre", "Noviembre", "Diciembre",
}

// MonthFromLabel maps a selector label to 1-12.
func MonthFromLabel(label string) (int, bool) {
	for i, l := range MonthLabels {
		if l == label {
			return i + 1, true
		}
	}
	return 0, false
}

const (
	MinStartYear     = 1900
	MaxStartYear     = 2100
	DefaultStartYear = 2025
	DefaultHorizon   = 12

	// MaxHorizonMonths matches how far past its start a model can predict.
	MaxHorizonMonths = 100_000
)

type ForecastRequest struct {
	StartYear     int `json:"start_year"`
	StartMonth    int `json:"start_month"` // 1-12
	HorizonMonths int `json:"horizon_months"`
}

// DefaultRequest holds the values the form shows before any submission.
func DefaultRequest() ForecastRequest {
	return ForecastRequest{
		StartYear:     DefaultStartYear,
		StartMonth:    1,
		HorizonMonths: DefaultHorizon,
	}
}

// MonthLabel returns the selector label for StartMonth, or "" when out of range.
func (r ForecastRequest) MonthLabel() string {
	if r.StartMonth < 1 || r.StartMonth > len(MonthLabels) {
		return ""
	}
	return MonthLabels[r.StartMonth-1]
}

type ForecastPoint struct {
	Date     time.Time `json:"date"`
	Forecast float64   `json:"forecast"`
	Lower    float64   `json:"lower"`
	Upper    float64   `json:"upper"`
}

// ForecastResult is ordered chronologically, one point per month.
type ForecastResult []ForecastPoint

type ForecastRun struct {
	ID            int64
	RequestedAt   time.Time
	StartYear     int
	StartMonth    int
	HorizonMonths int
	Source        string // form, api, chart or image
	Status        string // "ok" or "error"
	Error         sql.NullString
	DurationMS    int64
	FirstForecast sql.NullFloat64
	LastForecast  sql.NullFloat64
}
