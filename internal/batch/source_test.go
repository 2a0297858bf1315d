package batch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nse-scraper/internal/model"
	"nse-scraper/internal/series"
)

type memArchive struct {
	rows map[string]int
	err  error
}

func (m *memArchive) DailyBars(context.Context, string, time.Time, time.Time) (model.History, error) {
	return model.History{}, nil
}

func (m *memArchive) UpsertBars(_ context.Context, symbol string, bars []model.DailyBar) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	if m.rows == nil {
		m.rows = map[string]int{}
	}
	m.rows[symbol] += len(bars)
	return len(bars), nil
}

func (m *memArchive) Close() error { return nil }

type memPublisher struct {
	got  []string
	fail string
}

func (p *memPublisher) PublishSeries(_ context.Context, s model.ConsolidatedSeries) error {
	if s.Symbol == p.fail {
		return errors.New("down")
	}
	p.got = append(p.got, s.StreamKey())
	return nil
}

func (p *memPublisher) Close() error { return nil }

func TestArchivingSource_Upserts(t *testing.T) {
	arch := &memArchive{}
	src := &ArchivingSource{Source: &fakeSource{}, Archive: arch}

	h, err := src.DailyBars(context.Background(), "SBIN", jan1, jan14)
	require.NoError(t, err)
	assert.Len(t, h.Data, 14)
	assert.Equal(t, 14, arch.rows["SBIN"])
}

func TestArchivingSource_ArchiveErrorIsNotFatal(t *testing.T) {
	src := &ArchivingSource{Source: &fakeSource{}, Archive: &memArchive{err: errors.New("disk full")}}
	h, err := src.DailyBars(context.Background(), "SBIN", jan1, jan1)
	require.NoError(t, err)
	assert.Len(t, h.Data, 1)
}

func TestArchivingSource_FetchErrorSkipsArchive(t *testing.T) {
	arch := &memArchive{}
	src := &ArchivingSource{Source: &fakeSource{fail: map[string]error{"X": errors.New("503")}}, Archive: arch}
	_, err := src.DailyBars(context.Background(), "X", jan1, jan1)
	assert.Error(t, err)
	assert.Empty(t, arch.rows)
}

func TestPublish(t *testing.T) {
	r := &Runner{Source: &fakeSource{fail: map[string]error{"BAD": errors.New("x")}}, Builder: series.NewBuilder()}
	out := r.Run(context.Background(), SymbolJobs([]string{"SBIN", "BAD", "TCS"}, model.Monthly, jan1, jan14, false))

	pub := &memPublisher{fail: "TCS"}
	n, err := Publish(context.Background(), pub, out)
	assert.Equal(t, 1, n)
	assert.ErrorContains(t, err, "TCS")
	assert.Equal(t, []string{"series:monthly:SBIN"}, pub.got)
}
