// Package series builds a ConsolidatedSeries from a fetched daily history:
// it sorts once, resamples to the requested time frame and optionally attaches
// the indicator table.
package series

import (
	"time"

	"nse-scraper/internal/indicator"
	"nse-scraper/internal/marketdata/resample"
	"nse-scraper/internal/model"
)

// Stats describes one Build call.
type Stats struct {
	Symbol     string
	TimeFrame  model.TimeFrame
	BarsIn     int
	BucketsOut int
	Skipped    int
	Duration   time.Duration
}

// Builder is safe for concurrent use as long as OnBuild is.
type Builder struct {
	// OnBuild, when set, is called after every build.
	OnBuild func(Stats)
}

// NewBuilder returns a Builder with no hook.
func NewBuilder() *Builder { return &Builder{} }

// Build resamples h to tf. The caller's bar slice is left untouched.
func (b *Builder) Build(h model.History, tf model.TimeFrame, withIndicators bool) model.ConsolidatedSeries {
	start := time.Now()

	bars := make([]model.DailyBar, len(h.Data))
	copy(bars, h.Data)
	model.SortBars(bars)

	out := model.ConsolidatedSeries{
		Symbol:    h.Symbol,
		TimeFrame: tf,
	}
	if n := len(bars); n > 0 {
		out.FromDate = bars[0].Date
		out.ToDate = bars[n-1].Date
	}

	res := resample.Resample(bars, tf)
	out.Data = res.Bars
	out.Skipped = res.Skipped
	if out.Data == nil {
		out.Data = []model.ResampledBar{}
	}

	if withIndicators {
		// bars is already sorted; Enrich re-sorts its own copy.
		out.Indicators = indicator.Rows(indicator.Enrich(bars))
	}

	if b != nil && b.OnBuild != nil {
		b.OnBuild(Stats{
			Symbol:     h.Symbol,
			TimeFrame:  tf,
			BarsIn:     len(bars),
			BucketsOut: len(out.Data),
			Skipped:    out.Skipped,
			Duration:   time.Since(start),
		})
	}
	return out
}
