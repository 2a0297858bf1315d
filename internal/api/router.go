// Package api serves built series over HTTP.
package api

import (
	"context"
	"net/http"
	"time"

	"nse-scraper/internal/model"
	"nse-scraper/internal/series"
)

// LatestReader returns the last published snapshot of a series.
type LatestReader interface {
	Latest(ctx context.Context, tf model.TimeFrame, symbol string) (model.ConsolidatedSeries, error)
}

// Handler holds the collaborators behind the API routes.
type Handler struct {
	Live    model.BarSource // NSE
	Archive model.BarSource // optional
	Latest  LatestReader    // optional
	Builder *series.Builder

	// DefaultRange is the preset used when a request has no from date.
	DefaultRange string

	Now func() time.Time

	// OnRequest is called after each request with the route and status code.
	OnRequest func(route string, code int)
}

// NewRouter sets up HTTP routes for the API server.
func NewRouter(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("/api/v1/health", h.observe("/api/v1/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}))

	mux.HandleFunc("/api/v1/series", h.observe("/api/v1/series", h.handleSeries))
	mux.HandleFunc("/api/v1/series.csv", h.observe("/api/v1/series.csv", h.handleSeriesCSV))
	mux.HandleFunc("/api/v1/latest", h.observe("/api/v1/latest", h.handleLatest))

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.code = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) observe(route string, fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "method not allowed")
			h.record(route, http.StatusMethodNotAllowed)
			return
		}
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		fn(rec, r)
		h.record(route, rec.code)
	}
}

func (h *Handler) record(route string, code int) {
	if h.OnRequest != nil {
		h.OnRequest(route, code)
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// setCORS sets CORS headers for REST endpoints.
func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
}
