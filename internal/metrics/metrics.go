package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForecastRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempcast_forecast_requests_total",
			Help: "Total forecast requests by source and outcome",
		},
		[]string{"source", "status"},
	)

	ForecastLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tempcast_forecast_latency_seconds",
			Help:    "Forecast computation latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"},
	)

	ForecastMonths = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "tempcast_forecast_months",
			Help:    "Months requested per successful forecast",
			Buckets: []float64{1, 3, 6, 12, 24, 36, 60, 120},
		},
	)

	ModelSyncAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tempcast_model_sync_attempts_total",
			Help: "Model artifact download attempts",
		},
		[]string{"status"},
	)

	ModelInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "tempcast_model_info",
			Help: "Loaded model, value is the number of observations",
		},
		[]string{"name", "order"},
	)
)
