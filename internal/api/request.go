package api

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lox/tempcast/internal/forecast"
	"github.com/lox/tempcast/internal/metrics"
	"github.com/lox/tempcast/internal/models"
)

// Request sources, as recorded in metrics and history.
const (
	sourceForm  = "form"
	sourceAPI   = "api"
	sourceChart = "chart"
	sourceImage = "image"
)

// parseRequest reads start_year, start_month and months. Missing fields take
// the form defaults. start_month accepts a selector label or 1-12.
func parseRequest(values url.Values) (models.ForecastRequest, error) {
	req := models.DefaultRequest()

	if v := strings.TrimSpace(values.Get("start_year")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, &forecast.RequestError{Cause: fmt.Errorf("start year %q is not a whole number", v)}
		}
		req.StartYear = n
	}

	if v := strings.TrimSpace(values.Get("months")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, &forecast.RequestError{Cause: fmt.Errorf("months to predict %q is not a whole number", v)}
		}
		req.HorizonMonths = n
	}

	if v := strings.TrimSpace(values.Get("start_month")); v != "" {
		m, ok := models.MonthFromLabel(v)
		if !ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, &forecast.RequestError{Cause: fmt.Errorf("unknown start month %q", v)}
			}
			m = n
		}
		req.StartMonth = m
	}

	return req, nil
}

// runForecast parses values and runs the forecast, recording the outcome.
// Any error returned is a *forecast.RequestError.
func (s *Server) runForecast(source string, values url.Values) (models.ForecastRequest, models.ForecastResult, error) {
	began := time.Now()

	req, err := parseRequest(values)
	var result models.ForecastResult
	if err == nil {
		result, err = s.adapter.Forecast(req)
	}
	elapsed := time.Since(began)

	status := "ok"
	if err != nil {
		status = "error"
		s.log.Debugw("forecast failed", "source", source, "error", err)
	} else {
		metrics.ForecastMonths.Observe(float64(len(result)))
	}
	metrics.ForecastRequestsTotal.WithLabelValues(source, status).Inc()
	metrics.ForecastLatency.WithLabelValues(source).Observe(elapsed.Seconds())

	s.recordRun(source, began, req, result, err, elapsed)
	return req, result, err
}

func (s *Server) recordRun(source string, at time.Time, req models.ForecastRequest, result models.ForecastResult, err error, elapsed time.Duration) {
	if s.store == nil {
		return
	}

	run := models.ForecastRun{
		RequestedAt:   at,
		StartYear:     req.StartYear,
		StartMonth:    req.StartMonth,
		HorizonMonths: req.HorizonMonths,
		Source:        source,
		Status:        "ok",
		DurationMS:    elapsed.Milliseconds(),
	}
	if err != nil {
		run.Status = "error"
		run.Error.String, run.Error.Valid = err.Error(), true
	}
	if len(result) > 0 {
		run.FirstForecast.Float64, run.FirstForecast.Valid = result[0].Forecast, true
		run.LastForecast.Float64, run.LastForecast.Valid = result[len(result)-1].Forecast, true
	}

	if _, err := s.store.InsertForecastRun(run); err != nil {
		s.log.Warnw("record forecast run", "error", err)
	}
}
