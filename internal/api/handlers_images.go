package api

import (
	"fmt"
	"net/http"

	"github.com/lox/tempcast/internal/imagegen"
)

// handleForecastImage serves the result table as a PNG, cached per request.
// A cache hit skips the forecast entirely.
func (s *Server) handleForecastImage(w http.ResponseWriter, r *http.Request) {
	if req, err := parseRequest(r.URL.Query()); err == nil {
		if data, ok := s.images.Get(requestQuery(req)); ok {
			serveImage(w, data)
			return
		}
	}

	req, result, err := s.runForecast(sourceImage, r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	key := requestQuery(req)
	data, err := s.renderImage(imagegen.ImageData{
		Title:    pageTitle,
		Subtitle: fmt.Sprintf("%d meses desde %s · %s", len(result), result[0].Date.Format("2006-01"), s.model.Order()),
		Result:   result,
	})
	if err != nil {
		s.log.Errorw("generate forecast image", "key", key, "error", err)
		http.Error(w, "Image generation failed", http.StatusInternalServerError)
		return
	}
	s.images.Set(key, data)
	serveImage(w, data)
}

func serveImage(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=600")
	w.Write(data)
}
