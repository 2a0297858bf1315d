package resample

import (
	"reflect"
	"testing"
	"time"

	"nse-scraper/internal/model"
)

// makeBar creates a daily bar for the given date.
func makeBar(date time.Time, open, high, low, close_ float64, vol uint64, value float64) model.DailyBar {
	return model.DailyBar{
		Date:   model.FormatDate(date),
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close_,
		Volume: vol,
		Value:  value,
	}
}

// rampSeries returns n consecutive calendar days starting at start with
// closes 100, 101, ... and constant volume/value.
func rampSeries(start time.Time, n int) []model.DailyBar {
	bars := make([]model.DailyBar, n)
	for i := 0; i < n; i++ {
		c := 100 + float64(i)
		bars[i] = makeBar(start.AddDate(0, 0, i), c-0.5, c+1, c-1, c, 1000, 100000)
	}
	return bars
}

var monday = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func TestDaily_Identity(t *testing.T) {
	bars := rampSeries(monday, 10)
	res := Resample(bars, model.Daily)

	if len(res.Bars) != len(bars) {
		t.Fatalf("expected %d buckets, got %d", len(bars), len(res.Bars))
	}
	for i, rb := range res.Bars {
		b := bars[i]
		if rb.Date != b.Date || rb.Open != b.Open || rb.High != b.High || rb.Low != b.Low ||
			rb.Close != b.Close || rb.Volume != b.Volume || rb.Value != b.Value {
			t.Errorf("bucket %d differs from bar: %+v vs %+v", i, rb, b)
		}
	}
	if res.Skipped != 0 {
		t.Errorf("expected 0 skipped, got %d", res.Skipped)
	}
}

func TestDaily_Idempotent(t *testing.T) {
	bars := rampSeries(monday, 15)
	first := Resample(bars, model.Daily)
	second := Resample(bars, model.Daily)
	if !reflect.DeepEqual(first, second) {
		t.Error("daily resample is not deterministic")
	}
}

func TestWeekly_BoundaryAtSevenDays(t *testing.T) {
	// Day 1..7 (offsets 0..6) share a bucket; day 8 (offset 7) opens a new one.
	res := Resample(rampSeries(monday, 8), model.Weekly)
	if len(res.Bars) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(res.Bars))
	}
	if res.Bars[0].Volume != 7000 {
		t.Errorf("first bucket volume = %d, want 7000", res.Bars[0].Volume)
	}
	if res.Bars[1].Date != model.FormatDate(monday.AddDate(0, 0, 7)) {
		t.Errorf("second bucket starts at %s", res.Bars[1].Date)
	}

	res = Resample(rampSeries(monday, 7), model.Weekly)
	if len(res.Bars) != 1 {
		t.Fatalf("7 consecutive days should be one bucket, got %d", len(res.Bars))
	}
}

func TestWeekly_RollingNotCalendarAligned(t *testing.T) {
	// Start on a Thursday: the bucket runs Thu..Wed, not Thu..Sun.
	thu := time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC)
	res := Resample(rampSeries(thu, 7), model.Weekly)
	if len(res.Bars) != 1 {
		t.Fatalf("expected 1 rolling bucket, got %d", len(res.Bars))
	}
}

func TestWeekly_GapOpensNewBucket(t *testing.T) {
	bars := []model.DailyBar{
		makeBar(monday, 10, 11, 9, 10, 1, 1),
		makeBar(monday.AddDate(0, 0, 3), 10, 12, 8, 11, 1, 1),
		makeBar(monday.AddDate(0, 0, 20), 20, 21, 19, 20, 1, 1),
	}
	res := Resample(bars, model.Weekly)
	if len(res.Bars) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(res.Bars))
	}
	// The third bar anchors its own bucket.
	if !res.Bars[1].Start.Equal(monday.AddDate(0, 0, 20)) {
		t.Errorf("second bucket anchor = %v", res.Bars[1].Start)
	}
}

func TestWeekly_Aggregation(t *testing.T) {
	bars := []model.DailyBar{
		makeBar(monday, 100, 105, 98, 103, 10, 1000),
		makeBar(monday.AddDate(0, 0, 1), 103, 110, 101, 108, 20, 2000),
		makeBar(monday.AddDate(0, 0, 2), 108, 109, 95, 96, 30, 3000.5),
	}
	res := Resample(bars, model.Weekly)
	if len(res.Bars) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(res.Bars))
	}
	c := res.Bars[0]
	if c.Open != 100 {
		t.Errorf("expected open=100, got %v", c.Open)
	}
	if c.High != 110 {
		t.Errorf("expected high=110, got %v", c.High)
	}
	if c.Low != 95 {
		t.Errorf("expected low=95, got %v", c.Low)
	}
	if c.Close != 96 {
		t.Errorf("expected close=96, got %v", c.Close)
	}
	if c.Volume != 60 {
		t.Errorf("expected volume=60, got %d", c.Volume)
	}
	if c.Value != 6000.5 {
		t.Errorf("expected value=6000.5, got %v", c.Value)
	}
	if c.Date != "01-01-2024" {
		t.Errorf("expected label of first bar, got %s", c.Date)
	}
}

func TestWeekly_ThirtyDayScenario(t *testing.T) {
	res := Resample(rampSeries(monday, 30), model.Weekly)
	if len(res.Bars) != 5 {
		t.Fatalf("expected 5 buckets, got %d", len(res.Bars))
	}
	for i, c := range res.Bars {
		wantVol, wantVal := uint64(7000), 700000.0
		if i == 4 {
			wantVol, wantVal = 2000, 200000
		}
		if c.Volume != wantVol {
			t.Errorf("bucket %d: volume = %d, want %d", i, c.Volume, wantVol)
		}
		if c.Value != wantVal {
			t.Errorf("bucket %d: value = %v, want %v", i, c.Value, wantVal)
		}
	}
}

func TestMonthly_Buckets(t *testing.T) {
	jan30 := time.Date(2024, time.January, 30, 0, 0, 0, 0, time.UTC)
	res := Resample(rampSeries(jan30, 5), model.Monthly) // 30 Jan .. 3 Feb
	if len(res.Bars) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(res.Bars))
	}
	if res.Bars[0].Date != "1-2024" || res.Bars[1].Date != "2-2024" {
		t.Errorf("labels = %s, %s", res.Bars[0].Date, res.Bars[1].Date)
	}
	if res.Bars[0].Volume != 2000 || res.Bars[1].Volume != 3000 {
		t.Errorf("volumes = %d, %d", res.Bars[0].Volume, res.Bars[1].Volume)
	}
	if res.Bars[0].Close != 101 || res.Bars[1].Open != 101.5 {
		t.Errorf("close/open across boundary = %v, %v", res.Bars[0].Close, res.Bars[1].Open)
	}
	wantStart := time.Date(2024, time.February, 1, 0, 0, 0, 0, time.UTC)
	if !res.Bars[1].Start.Equal(wantStart) {
		t.Errorf("monthly anchor = %v, want %v", res.Bars[1].Start, wantStart)
	}
}

func TestMonthly_SameMonthDifferentYear(t *testing.T) {
	bars := []model.DailyBar{
		makeBar(time.Date(2023, time.March, 10, 0, 0, 0, 0, time.UTC), 1, 1, 1, 1, 1, 1),
		makeBar(time.Date(2024, time.March, 10, 0, 0, 0, 0, time.UTC), 1, 1, 1, 1, 1, 1),
	}
	res := Resample(bars, model.Monthly)
	if len(res.Bars) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(res.Bars))
	}
	if res.Bars[0].Date != "3-2023" || res.Bars[1].Date != "3-2024" {
		t.Errorf("labels = %s, %s", res.Bars[0].Date, res.Bars[1].Date)
	}
}

func TestGrouping_SkipsUnparsableDates(t *testing.T) {
	bars := rampSeries(monday, 3)
	bars = append([]model.DailyBar{{Date: "not-a-date", Volume: 999}}, bars...)
	bars = append(bars, model.DailyBar{Date: "31-02-2024", Volume: 999})

	for _, tf := range []model.TimeFrame{model.Weekly, model.Monthly} {
		res := Resample(bars, tf)
		if res.Skipped != 2 {
			t.Errorf("%s: expected 2 skipped, got %d", tf, res.Skipped)
		}
		if len(res.Bars) != 1 || res.Bars[0].Volume != 3000 {
			t.Errorf("%s: skipped bars leaked into buckets: %+v", tf, res.Bars)
		}
	}
}

func TestEmptyInput(t *testing.T) {
	for _, tf := range []model.TimeFrame{model.Daily, model.Weekly, model.Monthly} {
		res := Resample(nil, tf)
		if len(res.Bars) != 0 || res.Skipped != 0 {
			t.Errorf("%s: expected empty result, got %+v", tf, res)
		}
	}
}

func TestBucketInvariants(t *testing.T) {
	// Mixed series with varying ranges; check OHLC invariants per bucket.
	var bars []model.DailyBar
	for i := 0; i < 60; i++ {
		c := 100 + float64((i*37)%23)
		bars = append(bars, makeBar(monday.AddDate(0, 0, i), c-1, c+2+float64(i%3), c-3, c, uint64(i+1), float64(i)*10))
	}

	for _, tf := range []model.TimeFrame{model.Weekly, model.Monthly} {
		res := Resample(bars, tf)
		var vol uint64
		for _, c := range res.Bars {
			if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
				t.Errorf("%s bucket %s violates low<=open,close<=high: %+v", tf, c.Date, c)
			}
			vol += c.Volume
		}
		if vol != 60*61/2 {
			t.Errorf("%s: total volume %d, want %d", tf, vol, 60*61/2)
		}
	}
}
