package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/batch"
	"nse-scraper/internal/model"
)

type stubStore struct {
	err error
}

func (s *stubStore) DailyBars(context.Context, string, time.Time, time.Time) (model.History, error) {
	if s.err != nil {
		return model.History{}, s.err
	}
	return model.History{Data: []model.DailyBar{{Date: "01-01-2024"}}}, nil
}

func (s *stubStore) UpsertBars(_ context.Context, _ string, bars []model.DailyBar) (int, error) {
	return len(bars), s.err
}

func (s *stubStore) PublishSeries(context.Context, model.ConsolidatedSeries) error { return s.err }

func (s *stubStore) Close() error { return nil }

func TestInstrumentSource(t *testing.T) {
	m := NewMetrics(nil)
	health := NewHealthStatus()

	src := m.InstrumentSource("archive", &stubStore{}, health)
	_, err := src.DailyBars(context.Background(), "SBIN", time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("archive", "ok")))
	assert.False(t, health.LastFetchAt().IsZero())

	bad := m.InstrumentSource("nse", &stubStore{err: errors.New("503")}, nil)
	_, err = bad.DailyBars(context.Background(), "SBIN", time.Time{}, time.Time{})
	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchesTotal.WithLabelValues("nse", "error")))
}

func TestInstrumentArchiveAndPublisher(t *testing.T) {
	m := NewMetrics(nil)

	a := m.InstrumentArchive(&stubStore{})
	n, err := a.UpsertBars(context.Background(), "SBIN", make([]model.DailyBar, 3))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.ArchiveUpserts))

	p := m.InstrumentPublisher(&stubStore{err: errors.New("down")})
	assert.Error(t, p.PublishSeries(context.Background(), model.ConsolidatedSeries{}))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PublishTotal.WithLabelValues("error")))
}

func TestObserveOutcomeAndRequest(t *testing.T) {
	m := NewMetrics(nil)
	m.ObserveOutcome(batch.Outcome{})
	m.ObserveOutcome(batch.Outcome{Err: errors.New("x")})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchJobsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BatchJobsTotal.WithLabelValues("error")))

	m.ObserveRequest("/api/v1/series", 200)
	m.ObserveRequest("/api/v1/series", 404)
	m.ObserveRequest("/api/v1/series", 502)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/series", "4xx")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues("/api/v1/series", "5xx")))
}
