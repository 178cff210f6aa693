package api

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lox/tempcast/internal/forecast"
	"github.com/lox/tempcast/internal/imagegen"
	"github.com/lox/tempcast/internal/sarima"
	"github.com/lox/tempcast/internal/store"
)

const (
	imageCacheTTL  = 10 * time.Minute
	imageCacheSize = 64
	historyLimit   = 50
)

type Server struct {
	model   *sarima.Model
	adapter *forecast.Adapter
	store   *store.Store // nil when history is disabled
	port    string
	log     *zap.SugaredLogger
	tmpl    *template.Template
	images  *imagegen.Cache

	renderImage func(imagegen.ImageData) ([]byte, error)
}

func NewServer(model *sarima.Model, st *store.Store, port string, log *zap.SugaredLogger) *Server {
	return &Server{
		model:   model,
		adapter: forecast.NewAdapter(model),
		store:   st,
		port:    port,
		log:     log,
		tmpl:    newTemplates(),
		images:  imagegen.NewCache(imageCacheTTL, imageCacheSize),

		renderImage: imagegen.GenerateForecastImage,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /forecast", s.handleForecast)
	mux.HandleFunc("POST /reset", s.handleReset)
	mux.HandleFunc("GET /chart", s.handleChart)
	mux.HandleFunc("GET /forecast.png", s.handleForecastImage)
	mux.HandleFunc("GET /api/forecast", s.handleAPIForecast)
	mux.HandleFunc("GET /api/model", s.handleAPIModel)
	mux.HandleFunc("GET /api/history", s.handleAPIHistory)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              ":" + s.port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	s.log.Infow("listening", "addr", server.Addr, "model", s.model.Name())
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}
