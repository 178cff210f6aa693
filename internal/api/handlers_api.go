package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/goccy/go-json"
)

type ForecastResponse struct {
	StartYear     int              `json:"start_year"`
	StartMonth    int              `json:"start_month"`
	HorizonMonths int              `json:"horizon_months"`
	Confidence    float64          `json:"confidence"`
	Rows          []ForecastRowDTO `json:"rows"`
}

type ForecastRowDTO struct {
	Date     string  `json:"date"`
	Forecast float64 `json:"forecast"`
	Lower    float64 `json:"lower"`
	Upper    float64 `json:"upper"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// handleAPIForecast returns unrounded rows for the same inputs the form takes.
func (s *Server) handleAPIForecast(w http.ResponseWriter, r *http.Request) {
	req, result, err := s.runForecast(sourceAPI, r.URL.Query())
	if err != nil {
		s.writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error()})
		return
	}

	resp := ForecastResponse{
		StartYear:     req.StartYear,
		StartMonth:    req.StartMonth,
		HorizonMonths: req.HorizonMonths,
		Confidence:    s.model.Confidence(),
		Rows:          make([]ForecastRowDTO, len(result)),
	}
	for i, p := range result {
		resp.Rows[i] = ForecastRowDTO{
			Date:     p.Date.Format("2006-01-02"),
			Forecast: p.Forecast,
			Lower:    p.Lower,
			Upper:    p.Upper,
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAPIModel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.model.Summary())
}

type HistoryEntry struct {
	ID            int64     `json:"id"`
	RequestedAt   time.Time `json:"requested_at"`
	StartYear     int       `json:"start_year"`
	StartMonth    int       `json:"start_month"`
	HorizonMonths int       `json:"horizon_months"`
	Source        string    `json:"source"`
	Status        string    `json:"status"`
	Error         *string   `json:"error,omitempty"`
	DurationMS    int64     `json:"duration_ms"`
	FirstForecast *float64  `json:"first_forecast,omitempty"`
	LastForecast  *float64  `json:"last_forecast,omitempty"`
}

func (s *Server) handleAPIHistory(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "forecast history is disabled"})
		return
	}

	limit := historyLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	runs, err := s.store.GetRecentRuns(limit)
	if err != nil {
		s.log.Errorw("get recent runs", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	entries := make([]HistoryEntry, 0, len(runs))
	for _, run := range runs {
		e := HistoryEntry{
			ID:            run.ID,
			RequestedAt:   run.RequestedAt,
			StartYear:     run.StartYear,
			StartMonth:    run.StartMonth,
			HorizonMonths: run.HorizonMonths,
			Source:        run.Source,
			Status:        run.Status,
			DurationMS:    run.DurationMS,
		}
		if run.Error.Valid {
			e.Error = &run.Error.String
		}
		if run.FirstForecast.Valid {
			e.FirstForecast = &run.FirstForecast.Float64
		}
		if run.LastForecast.Valid {
			e.LastForecast = &run.LastForecast.Float64
		}
		entries = append(entries, e)
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warnw("write json response", "error", err)
	}
}
