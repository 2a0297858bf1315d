// Package resample groups a sorted daily series into daily, weekly or monthly
// buckets. A single bucket is "open" at any time; each bar either extends it,
// or closes it and opens the next. The open bucket is flushed at end of input.
package resample

import (
	"strconv"
	"time"

	"nse-scraper/internal/model"
)

// weekSpan is the rolling width of a weekly bucket, measured from the bar
// that opened it (not a Monday-aligned calendar week).
const weekSpan = 7 * 24 * time.Hour

// Result is the output of one resampling pass.
type Result struct {
	Bars []model.ResampledBar
	// Skipped counts bars dropped because their date label did not parse.
	Skipped int
}

// Resample buckets bars by tf. bars must already be sorted ascending by date.
func Resample(bars []model.DailyBar, tf model.TimeFrame) Result {
	switch tf {
	case model.Weekly:
		return group(bars, weekly{})
	case model.Monthly:
		return group(bars, monthly{})
	default:
		return Result{Bars: Daily(bars)}
	}
}

// Daily copies each bar into its own bucket, label verbatim.
func Daily(bars []model.DailyBar) []model.ResampledBar {
	out := make([]model.ResampledBar, 0, len(bars))
	for i := range bars {
		rb := fromBar(&bars[i], bars[i].Date)
		if t, err := bars[i].Time(); err == nil {
			rb.Start = t
		}
		out = append(out, rb)
	}
	return out
}

// bucketing decides bucket membership for one granularity.
type bucketing interface {
	// anchor returns the bucket key time for a bar opening a new bucket.
	anchor(date time.Time) time.Time
	// sameBucket reports whether date still belongs to the bucket at anchor.
	sameBucket(anchor, date time.Time) bool
	// label returns the display label for a bucket opened by bar.
	label(bar *model.DailyBar, anchor time.Time) string
}

type weekly struct{}

func (weekly) anchor(date time.Time) time.Time { return date }
func (weekly) sameBucket(anchor, date time.Time) bool {
	return date.Sub(anchor) < weekSpan
}
func (weekly) label(bar *model.DailyBar, _ time.Time) string { return bar.Date }

type monthly struct{}

func (monthly) anchor(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, time.UTC)
}
func (monthly) sameBucket(anchor, date time.Time) bool {
	return date.Year() == anchor.Year() && date.Month() == anchor.Month()
}
func (monthly) label(_ *model.DailyBar, anchor time.Time) string {
	return strconv.Itoa(int(anchor.Month())) + "-" + strconv.Itoa(anchor.Year())
}

// bucketState is the grouping accumulator. open=false is NoOpenBucket;
// open=true is OpenBucket(bar, anchor).
type bucketState struct {
	open   bool
	anchor time.Time
	bar    model.ResampledBar
}

func group(bars []model.DailyBar, b bucketing) Result {
	var (
		res Result
		st  bucketState
	)

	for i := range bars {
		day := &bars[i]
		date, err := day.Time()
		if err != nil {
			res.Skipped++
			continue
		}

		switch {
		case !st.open:
			st = start(day, date, b)
		case b.sameBucket(st.anchor, date):
			extend(&st.bar, day)
		default:
			res.Bars = append(res.Bars, st.bar)
			st = start(day, date, b)
		}
	}

	// FlushOnEnd: the last bucket is emitted even if it is short.
	if st.open {
		res.Bars = append(res.Bars, st.bar)
	}
	return res
}

// start opens a new bucket seeded from day.
func start(day *model.DailyBar, date time.Time, b bucketing) bucketState {
	anchor := b.anchor(date)
	rb := fromBar(day, b.label(day, anchor))
	rb.Start = anchor
	return bucketState{open: true, anchor: anchor, bar: rb}
}

// extend merges day into an open bucket. Open is never touched.
func extend(rb *model.ResampledBar, day *model.DailyBar) {
	if day.High > rb.High {
		rb.High = day.High
	}
	if day.Low < rb.Low {
		rb.Low = day.Low
	}
	rb.Close = day.Close
	rb.Volume += day.Volume
	rb.Value += day.Value
}

func fromBar(day *model.DailyBar, label string) model.ResampledBar {
	return model.ResampledBar{
		Date:   label,
		Open:   day.Open,
		High:   day.High,
		Low:    day.Low,
		Close:  day.Close,
		Volume: day.Volume,
		Value:  day.Value,
	}
}
