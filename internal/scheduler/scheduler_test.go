package scheduler

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/batch"
	"nse-scraper/internal/markethours"
	"nse-scraper/internal/model"
	"nse-scraper/internal/notification"
	"nse-scraper/internal/series"
)

type captureNotifier struct {
	alerts []notification.Alert
}

func (c *captureNotifier) Send(_ context.Context, a notification.Alert) error {
	c.alerts = append(c.alerts, a)
	return nil
}

type stubSource struct {
	mu   sync.Mutex
	seen []string
}

func (s *stubSource) DailyBars(_ context.Context, symbol string, from, to time.Time) (model.History, error) {
	s.mu.Lock()
	s.seen = append(s.seen, symbol)
	s.mu.Unlock()
	if symbol == "FAIL" {
		return model.History{}, errors.New("unavailable")
	}
	return model.History{Symbol: symbol, Data: []model.DailyBar{
		{Date: model.FormatDate(from), Open: 1, High: 1, Low: 1, Close: 1, Volume: 1},
		{Date: model.FormatDate(to), Open: 2, High: 2, Low: 2, Close: 2, Volume: 2},
	}}, nil
}

type stubPublisher struct {
	mu  sync.Mutex
	got int
}

func (p *stubPublisher) PublishSeries(context.Context, model.ConsolidatedSeries) error {
	p.mu.Lock()
	p.got++
	p.mu.Unlock()
	return nil
}

func (p *stubPublisher) Close() error { return nil }

// Wednesday 14 Oct 2026, after close.
var wed = time.Date(2026, time.October, 14, 16, 30, 0, 0, markethours.IST)

func newRefresh(src model.BarSource) *Refresh {
	return &Refresh{
		Runner:     &batch.Runner{Source: src, Builder: series.NewBuilder(), Workers: 2},
		Symbols:    []string{"SBIN", "FAIL"},
		TimeFrames: []model.TimeFrame{model.Daily, model.Weekly},
		Range:      "week",
		Now:        func() time.Time { return wed },
	}
}

func TestRunOnce(t *testing.T) {
	src := &stubSource{}
	pub := &stubPublisher{}
	dir := t.TempDir()

	r := newRefresh(src)
	r.Publisher = pub
	r.OutputDir = dir

	var reports []Report
	r.OnRun = func(rep Report) { reports = append(reports, rep) }

	rep, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, rep.Jobs)
	assert.Equal(t, 2, rep.Failed)
	assert.Equal(t, 2, rep.Published)
	assert.Equal(t, 2, rep.Files)
	assert.Len(t, reports, 1)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestRunOnce_AlertsOnFailures(t *testing.T) {
	n := &captureNotifier{}
	r := newRefresh(&stubSource{})
	r.Notifier = n

	_, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, n.alerts, 1)
	assert.Equal(t, notification.AlertWarning, n.alerts[0].Level)
	assert.Contains(t, n.alerts[0].Message, "2 of 4 job(s) failed")
	assert.Contains(t, n.alerts[0].Message, "FAIL/daily")

	r.Symbols = []string{"FAIL"}
	_, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, n.alerts, 2)
	assert.Equal(t, notification.AlertCritical, n.alerts[1].Level)

	r.Symbols = []string{"SBIN"}
	_, err = r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Len(t, n.alerts, 2, "no alert for a clean run")
}

func TestRunOnce_SkipsHoliday(t *testing.T) {
	src := &stubSource{}
	r := newRefresh(src)
	r.TradingDaysOnly = true
	r.Now = func() time.Time { return time.Date(2026, time.October, 2, 17, 0, 0, 0, markethours.IST) } // Gandhi Jayanti

	rep, err := r.RunOnce(context.Background())
	require.NoError(t, err)
	assert.True(t, rep.Skipped)
	assert.Empty(t, src.seen)
}

func TestRunOnce_BadPreset(t *testing.T) {
	r := newRefresh(&stubSource{})
	r.Range = "fortnight"
	_, err := r.RunOnce(context.Background())
	assert.ErrorIs(t, err, markethours.ErrUnknownPreset)
}

func TestScheduler_Register(t *testing.T) {
	s := New(context.Background())
	require.NoError(t, s.Register("0 16 * * 1-5", newRefresh(&stubSource{})))
	assert.Equal(t, 1, s.Entries())

	err := s.Register("every day", newRefresh(&stubSource{}))
	assert.Error(t, err)
	assert.Equal(t, 1, s.Entries())

	s.Start()
	next := s.Next()
	s.Stop()
	require.False(t, next.IsZero())
	ist := next.In(markethours.IST)
	assert.Equal(t, 16, ist.Hour())
	assert.True(t, markethours.IsWeekday(ist))
}
