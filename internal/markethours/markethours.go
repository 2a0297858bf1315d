// Package markethours knows the NSE trading calendar: session hours in IST,
// exchange holidays and the preset look-back ranges offered by the CLI.
package markethours

import (
	"fmt"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30).
var IST = time.FixedZone("IST", 5*3600+30*60)

// Market hours in IST
const (
	OpenHour    = 9
	OpenMinute  = 15
	CloseHour   = 15
	CloseMinute = 30
)

// IsMarketOpen returns true if t falls within NSE trading hours
// (9:15 AM – 3:30 PM IST, Mon–Fri, excluding holidays).
func IsMarketOpen(t time.Time) bool {
	ist := t.In(IST)
	if !IsTradingDay(ist) {
		return false
	}
	hm := ist.Hour()*60 + ist.Minute()
	return hm >= OpenHour*60+OpenMinute && hm < CloseHour*60+CloseMinute
}

// IsWeekday returns true if t is Mon–Fri.
func IsWeekday(t time.Time) bool {
	wd := t.Weekday()
	return wd >= time.Monday && wd <= time.Friday
}

// IsTradingDay returns true if the calendar date of t is a weekday and not
// a holiday. The date is taken as-is from t's own location, so both IST
// timestamps and the UTC-midnight dates used for bar labels work.
func IsTradingDay(t time.Time) bool {
	return IsWeekday(t) && !IsHoliday(t)
}

// TradingDaysBetween counts trading days in the inclusive date range
// [from, to]. Returns 0 if to is before from.
func TradingDaysBetween(from, to time.Time) int {
	d := dateOf(from)
	end := dateOf(to)
	n := 0
	for !d.After(end) {
		if IsTradingDay(d) {
			n++
		}
		d = d.AddDate(0, 0, 1)
	}
	return n
}

// Today returns the current IST calendar date at UTC midnight, matching
// the dates produced by model.ParseDate.
func Today(now time.Time) time.Time {
	ist := now.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, time.UTC)
}

// TodayClose returns today's market close time (3:30 PM IST).
func TodayClose(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), CloseHour, CloseMinute, 0, 0, IST)
}

// SessionIncomplete reports whether a bar for today's date would still be
// changing: the market is open or has yet to open on a trading day.
func SessionIncomplete(now time.Time) bool {
	ist := now.In(IST)
	return IsTradingDay(ist) && ist.Before(TodayClose(ist))
}

// StatusString returns a human-readable market status.
func StatusString(t time.Time) string {
	if IsMarketOpen(t) {
		d := TodayClose(t).Sub(t.In(IST))
		return fmt.Sprintf("Market Open, closes in %s", fmtDur(d))
	}
	return "Market Closed"
}

func fmtDur(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh%dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
