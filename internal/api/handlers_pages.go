package api

import (
	"fmt"
	"net/http"

	"github.com/goccy/go-json"
)

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, s.newIndexData(defaultForm()))
}

// handleForecast is the submit action. The form is always rendered again with
// the submitted values, followed by either the result table or the error.
func (s *Server) handleForecast(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	data := s.newIndexData(formFromValues(r.PostForm))
	req, result, err := s.runForecast(sourceForm, r.PostForm)
	if err != nil {
		data.State = ShowingError
		data.Message = fmt.Sprintf("Ha ocurrido un error: %s. Por favor, revisa tus inputs y modelo.", err)
		s.render(w, data)
		return
	}

	query := requestQuery(req)
	data.State = ShowingResult
	data.Result = result
	data.Message = fmt.Sprintf("Se pronosticó exitosamente la temperatura para %d meses!", len(result))
	data.ChartURL = "/chart?" + query
	data.ImageURL = "/forecast.png?" + query
	s.render(w, data)
}

// handleReset discards whatever the page showed and starts over.
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, data IndexData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, "index.html", data); err != nil {
		s.log.Errorw("template error", "template", "index.html", "error", err)
	}
}

type HealthStatus struct {
	Status  string         `json:"status"`
	Model   ModelHealth    `json:"model"`
	History *HistoryHealth `json:"history,omitempty"`
	Errors  []string       `json:"errors,omitempty"`
}

type ModelHealth struct {
	Name  string `json:"name"`
	Order string `json:"order"`
	NObs  int    `json:"nobs"`
}

type HistoryHealth struct {
	Runs   int `json:"runs"`
	Failed int `json:"failed"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	summary := s.model.Summary()
	health := HealthStatus{
		Status: "ok",
		Model: ModelHealth{
			Name:  summary.Name,
			Order: summary.Order,
			NObs:  summary.NObs,
		},
	}

	if s.store != nil {
		if err := s.store.Ping(); err != nil {
			health.Errors = append(health.Errors, "history: "+err.Error())
		} else if stats, err := s.store.GetRunStats(); err != nil {
			health.Errors = append(health.Errors, "history: "+err.Error())
		} else {
			health.History = &HistoryHealth{Runs: stats.Total, Failed: stats.Failed}
		}
	}

	if len(health.Errors) > 0 {
		health.Status = "degraded"
	}

	w.Header().Set("Content-Type", "application/json")
	if health.Status != "ok" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.log.Warnw("health: write response", "error", err)
	}
}
