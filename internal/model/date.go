package model

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DateLayout is the DD-MM-YYYY layout used by the NSE historical API.
const DateLayout = "02-01-2006"

// ErrInvalidDate is returned when a label is not a real day-month-year date.
var ErrInvalidDate = errors.New("invalid date")

// ParseDate parses a "DD-MM-YYYY" label into a UTC calendar date.
// Components may be unpadded ("5-1-2024"). The label must have exactly three
// numeric parts and name a date that exists (31-02-2024 is rejected).
func ParseDate(label string) (time.Time, error) {
	parts := strings.Split(label, "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, label)
	}

	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || day < 1 || month < 1 || month > 12 {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, label)
	}

	// time.Date normalises overflow (31 Feb -> 2 Mar), so round-trip the fields.
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || int(t.Month()) != month || t.Year() != year {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, label)
	}
	return t, nil
}

// FormatDate renders t as a DD-MM-YYYY label.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// SortBars sorts bars ascending by calendar date in place. The sort is stable;
// bars whose label does not parse are ordered before every dated bar.
func SortBars(bars []DailyBar) {
	keys := make([]sortKey, len(bars))
	for i := range bars {
		t, err := ParseDate(bars[i].Date)
		keys[i] = sortKey{t: t, ok: err == nil}
	}
	sort.Stable(byDate{bars: bars, keys: keys})
}

type sortKey struct {
	t  time.Time
	ok bool
}

func (a sortKey) less(b sortKey) bool {
	if a.ok != b.ok {
		return !a.ok
	}
	return a.t.Before(b.t)
}

// byDate sorts bars and their precomputed keys together.
type byDate struct {
	bars []DailyBar
	keys []sortKey
}

func (s byDate) Len() int           { return len(s.bars) }
func (s byDate) Less(i, j int) bool { return s.keys[i].less(s.keys[j]) }
func (s byDate) Swap(i, j int) {
	s.bars[i], s.bars[j] = s.bars[j], s.bars[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
