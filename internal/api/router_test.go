package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
	"nse-scraper/internal/series"
	"nse-scraper/internal/store/redis"
	"nse-scraper/pkg/nse"
)

type stubSource struct {
	err      error
	gotFrom  time.Time
	gotTo    time.Time
	gotSym   string
	numCalls int
}

func (s *stubSource) DailyBars(_ context.Context, symbol string, from, to time.Time) (model.History, error) {
	s.numCalls++
	s.gotSym, s.gotFrom, s.gotTo = symbol, from, to
	if s.err != nil {
		return model.History{}, s.err
	}
	var bars []model.DailyBar
	for i := 0; i < 30; i++ {
		c := 100 + float64(i)
		bars = append(bars, model.DailyBar{
			Date: model.FormatDate(from.AddDate(0, 0, i)), Open: c - 0.5, High: c + 1, Low: c - 1, Close: c,
			Volume: 1000, Value: 100000,
		})
	}
	return model.History{Data: bars}, nil
}

type stubLatest struct{}

func (stubLatest) Latest(_ context.Context, tf model.TimeFrame, symbol string) (model.ConsolidatedSeries, error) {
	if symbol != "SBIN" {
		return model.ConsolidatedSeries{}, redis.ErrNotCached
	}
	return model.ConsolidatedSeries{Symbol: symbol, TimeFrame: tf}, nil
}

var now = time.Date(2026, time.October, 14, 18, 0, 0, 0, markethours.IST)

func newTestHandler(live *stubSource) (*Handler, map[string]int) {
	codes := map[string]int{}
	h := &Handler{
		Live:      live,
		Builder:   series.NewBuilder(),
		Latest:    stubLatest{},
		Now:       func() time.Time { return now },
		OnRequest: func(route string, code int) { codes[fmt.Sprintf("%s %d", route, code)]++ },
	}
	return h, codes
}

func get(t *testing.T, mux http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler(&stubSource{})
	rec := get(t, NewRouter(h), "/api/v1/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestSeries_WeeklyWithIndicators(t *testing.T) {
	live := &stubSource{}
	h, codes := newTestHandler(live)
	rec := get(t, NewRouter(h), "/api/v1/series?symbol=sbin&timeframe=weekly&from=01-01-2024&to=30-01-2024&indicators=true")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var s model.ConsolidatedSeries
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	assert.Equal(t, "SBIN", s.Symbol)
	assert.Equal(t, model.Weekly, s.TimeFrame)
	assert.Len(t, s.Data, 5)
	require.Len(t, s.Indicators, 30)
	v, ok := s.Indicators[19].SMA20.Get()
	assert.True(t, ok)
	assert.InDelta(t, 109.5, v, 1e-9)
	assert.False(t, s.Indicators[18].SMA20.Valid())

	assert.Equal(t, "SBIN", live.gotSym)
	assert.Equal(t, "01-01-2024", model.FormatDate(live.gotFrom))
	assert.Equal(t, 1, codes["/api/v1/series 200"])
}

func TestSeries_DefaultRange(t *testing.T) {
	live := &stubSource{}
	h, _ := newTestHandler(live)
	h.DefaultRange = "week"
	rec := get(t, NewRouter(h), "/api/v1/series?symbol=TCS")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "07-10-2026", model.FormatDate(live.gotFrom))
	assert.Equal(t, "14-10-2026", model.FormatDate(live.gotTo))
}

func TestSeries_BadRequests(t *testing.T) {
	h, codes := newTestHandler(&stubSource{})
	mux := NewRouter(h)

	for _, target := range []string{
		"/api/v1/series",
		"/api/v1/series?symbol=SBIN&timeframe=hourly",
		"/api/v1/series?symbol=SBIN&from=31-02-2024",
		"/api/v1/series?symbol=SBIN&range=decade",
		"/api/v1/series?symbol=SBIN&indicators=maybe",
		"/api/v1/series?symbol=SBIN&source=archive",
		"/api/v1/series?symbol=SBIN&source=ftp",
	} {
		rec := get(t, mux, target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), `"error"`, target)
	}
	assert.Equal(t, 7, codes["/api/v1/series 400"])
}

func TestSeries_UpstreamErrors(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nse.ErrCircuitOpen, http.StatusServiceUnavailable},
		{fmt.Errorf("x: %w", nse.ErrInvalidSymbol), http.StatusBadRequest},
		{&nse.APIError{StatusCode: 404}, http.StatusNotFound},
		{&nse.APIError{StatusCode: 500}, http.StatusBadGateway},
	}
	for _, c := range cases {
		h, _ := newTestHandler(&stubSource{err: c.err})
		rec := get(t, NewRouter(h), "/api/v1/series?symbol=SBIN")
		assert.Equal(t, c.want, rec.Code, c.err.Error())
	}
}

func TestSeries_ArchiveSource(t *testing.T) {
	live, archive := &stubSource{}, &stubSource{}
	h, _ := newTestHandler(live)
	h.Archive = archive
	rec := get(t, NewRouter(h), "/api/v1/series?symbol=SBIN&source=archive")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, live.numCalls)
	assert.Equal(t, 1, archive.numCalls)
}

func TestSeriesCSV(t *testing.T) {
	h, _ := newTestHandler(&stubSource{})
	rec := get(t, NewRouter(h), "/api/v1/series.csv?symbol=SBIN&timeframe=monthly&from=01-01-2024&to=30-01-2024")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "SBIN_monthly_01-01-2024_30-01-2024.csv")

	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Date,Open,High,Low,Close,Volume,Value", lines[0])
	assert.Equal(t, "1-2024,99.5,130,99,129,30000,3000000", lines[1])
}

func TestLatest(t *testing.T) {
	h, _ := newTestHandler(&stubSource{})
	mux := NewRouter(h)

	rec := get(t, mux, "/api/v1/latest?symbol=sbin&timeframe=weekly")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"timeFrame":"weekly"`)

	assert.Equal(t, http.StatusNotFound, get(t, mux, "/api/v1/latest?symbol=TCS").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, mux, "/api/v1/latest").Code)

	h.Latest = nil
	assert.Equal(t, http.StatusNotImplemented, get(t, mux, "/api/v1/latest?symbol=SBIN").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(&stubSource{})
	rec := httptest.NewRecorder()
	NewRouter(h).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/series?symbol=SBIN", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
