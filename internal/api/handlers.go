package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nse-scraper/internal/export"
	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
	"nse-scraper/internal/store/redis"
	"nse-scraper/pkg/nse"
)

type seriesQuery struct {
	Symbol     string
	TimeFrame  model.TimeFrame
	From, To   time.Time
	Indicators bool
	Source     string
}

func (h *Handler) parseSeriesQuery(r *http.Request) (seriesQuery, error) {
	q := r.URL.Query()
	sq := seriesQuery{
		Symbol: strings.ToUpper(strings.TrimSpace(q.Get("symbol"))),
		Source: strings.ToLower(q.Get("source")),
	}
	if sq.Symbol == "" {
		return sq, errors.New("symbol is required")
	}

	var err error
	if tf := q.Get("timeframe"); tf != "" {
		if sq.TimeFrame, err = model.ParseTimeFrame(tf); err != nil {
			return sq, err
		}
	}

	if from := q.Get("from"); from != "" {
		sq.From, sq.To, err = markethours.ParseRange(from, q.Get("to"), h.now())
	} else {
		preset := q.Get("range")
		if preset == "" {
			preset = h.DefaultRange
		}
		if preset == "" {
			preset = "month"
		}
		sq.From, sq.To, err = markethours.PresetRange(preset, h.now())
	}
	if err != nil {
		return sq, err
	}

	if v := q.Get("indicators"); v != "" {
		if sq.Indicators, err = strconv.ParseBool(v); err != nil {
			return sq, fmt.Errorf("indicators: %w", err)
		}
	}

	switch sq.Source {
	case "", "nse":
		sq.Source = "nse"
	case "archive":
		if h.Archive == nil {
			return sq, errors.New("archive source is not configured")
		}
	default:
		return sq, fmt.Errorf("unknown source %q", sq.Source)
	}
	return sq, nil
}

func (h *Handler) buildSeries(w http.ResponseWriter, r *http.Request) (model.ConsolidatedSeries, bool) {
	sq, err := h.parseSeriesQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return model.ConsolidatedSeries{}, false
	}

	src := h.Live
	if sq.Source == "archive" {
		src = h.Archive
	}

	hist, err := src.DailyBars(r.Context(), sq.Symbol, sq.From, sq.To)
	if err != nil {
		code := upstreamStatus(err)
		slog.Warn("[api] fetch failed", "symbol", sq.Symbol, "source", sq.Source, "error", err)
		writeError(w, code, err.Error())
		return model.ConsolidatedSeries{}, false
	}
	if hist.Symbol == "" {
		hist.Symbol = sq.Symbol
	}
	return h.Builder.Build(hist, sq.TimeFrame, sq.Indicators), true
}

// upstreamStatus maps a source error to the status returned to the caller.
func upstreamStatus(err error) int {
	var apiErr *nse.APIError
	switch {
	case errors.Is(err, nse.ErrInvalidSymbol):
		return http.StatusBadRequest
	case errors.Is(err, nse.ErrCircuitOpen):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

// GET /api/v1/series?symbol=&timeframe=&range=|from=&to=&indicators=&source=
func (h *Handler) handleSeries(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSeries(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// GET /api/v1/series.csv (same parameters; indicators are ignored)
func (h *Handler) handleSeriesCSV(w http.ResponseWriter, r *http.Request) {
	s, ok := h.buildSeries(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(&s)))
	if err := export.WriteBars(w, s.Data); err != nil {
		slog.Warn("[api] csv write failed", "symbol", s.Symbol, "error", err)
	}
}

// GET /api/v1/latest?symbol=&timeframe=
func (h *Handler) handleLatest(w http.ResponseWriter, r *http.Request) {
	if h.Latest == nil {
		writeError(w, http.StatusNotImplemented, "publishing is disabled")
		return
	}
	q := r.URL.Query()
	sym := strings.ToUpper(strings.TrimSpace(q.Get("symbol")))
	if sym == "" {
		writeError(w, http.StatusBadRequest, "symbol is required")
		return
	}
	tf := model.Daily
	if v := q.Get("timeframe"); v != "" {
		var err error
		if tf, err = model.ParseTimeFrame(v); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	s, err := h.Latest.Latest(r.Context(), tf, sym)
	if errors.Is(err, redis.ErrNotCached) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
