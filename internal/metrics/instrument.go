package metrics

import (
	"context"
	"time"

	"nse-scraper/internal/batch"
	"nse-scraper/internal/model"
)

// ObserveOutcome records one batch job. It matches batch.Runner.OnOutcome.
func (m *Metrics) ObserveOutcome(o batch.Outcome) {
	result := "ok"
	if o.Err != nil {
		result = "error"
	}
	m.BatchJobsTotal.WithLabelValues(result).Inc()
}

// ObserveRequest records one API request.
func (m *Metrics) ObserveRequest(route string, code int) {
	m.HTTPRequests.WithLabelValues(route, statusLabel(code)).Inc()
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

type instrumentedSource struct {
	name   string
	src    model.BarSource
	m      *Metrics
	health *HealthStatus
}

// InstrumentSource wraps src so every fetch is timed under name. Successful
// fetches update health's last-fetch time when health is non-nil.
func (m *Metrics) InstrumentSource(name string, src model.BarSource, health *HealthStatus) model.BarSource {
	return &instrumentedSource{name: name, src: src, m: m, health: health}
}

func (s *instrumentedSource) DailyBars(ctx context.Context, symbol string, from, to time.Time) (model.History, error) {
	start := time.Now()
	h, err := s.src.DailyBars(ctx, symbol, from, to)
	s.m.ObserveFetch(s.name, time.Since(start), err)
	if err == nil && s.health != nil {
		s.health.SetLastFetchAt(time.Now())
	}
	return h, err
}

type instrumentedArchive struct {
	model.BarArchive
	m *Metrics
}

// InstrumentArchive counts rows upserted into a.
func (m *Metrics) InstrumentArchive(a model.BarArchive) model.BarArchive {
	return &instrumentedArchive{BarArchive: a, m: m}
}

func (a *instrumentedArchive) UpsertBars(ctx context.Context, symbol string, bars []model.DailyBar) (int, error) {
	n, err := a.BarArchive.UpsertBars(ctx, symbol, bars)
	a.m.ArchiveUpserts.Add(float64(n))
	return n, err
}

type instrumentedPublisher struct {
	model.SeriesPublisher
	m *Metrics
}

// InstrumentPublisher counts publish results on p.
func (m *Metrics) InstrumentPublisher(p model.SeriesPublisher) model.SeriesPublisher {
	return &instrumentedPublisher{SeriesPublisher: p, m: m}
}

func (p *instrumentedPublisher) PublishSeries(ctx context.Context, s model.ConsolidatedSeries) error {
	err := p.SeriesPublisher.PublishSeries(ctx, s)
	p.m.ObservePublish(err)
	return err
}
