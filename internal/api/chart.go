package api

import (
	"fmt"
	"net/http"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/lox/tempcast/internal/models"
)

// forecastChart plots the forecast with both interval bounds, one x label
// per month.
func forecastChart(title string, result models.ForecastResult) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: title,
			Width:     "100%",
			Height:    "360px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: fmt.Sprintf("%d meses", len(result)),
		}),
	)

	labels := make([]string, 0, len(result))
	forecast := make([]opts.LineData, 0, len(result))
	lower := make([]opts.LineData, 0, len(result))
	upper := make([]opts.LineData, 0, len(result))
	for _, p := range result {
		labels = append(labels, p.Date.Format("2006-01"))
		forecast = append(forecast, opts.LineData{Value: p.Forecast})
		lower = append(lower, opts.LineData{Value: p.Lower})
		upper = append(upper, opts.LineData{Value: p.Upper})
	}

	line.SetXAxis(labels).
		AddSeries("Pronóstico", forecast).
		AddSeries("IC inferior", lower).
		AddSeries("IC superior", upper)
	return line
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	_, result, err := s.runForecast(sourceChart, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := forecastChart(pageTitle, result).Render(w); err != nil {
		s.log.Errorw("render chart", "error", err)
	}
}
