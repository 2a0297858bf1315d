package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimeFrame is the bucket width of a resampled series.
type TimeFrame int

const (
	Daily TimeFrame = iota
	Weekly
	Monthly
)

// ErrUnknownTimeFrame is returned by ParseTimeFrame for unrecognised input.
var ErrUnknownTimeFrame = errors.New("unknown time frame")

func (tf TimeFrame) String() string {
	switch tf {
	case Daily:
		return "daily"
	case Weekly:
		return "weekly"
	case Monthly:
		return "monthly"
	default:
		return "unknown"
	}
}

// ParseTimeFrame accepts "daily", "weekly", "monthly" (any case) or the
// interactive menu codes "1", "2", "3".
func ParseTimeFrame(s string) (TimeFrame, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "daily", "d":
		return Daily, nil
	case "2", "weekly", "w":
		return Weekly, nil
	case "3", "monthly", "m":
		return Monthly, nil
	}
	return Daily, fmt.Errorf("%w: %q", ErrUnknownTimeFrame, s)
}

// MarshalText lets TimeFrame appear as its name in JSON.
func (tf TimeFrame) MarshalText() ([]byte, error) {
	return []byte(tf.String()), nil
}

// UnmarshalText parses a time frame name.
func (tf *TimeFrame) UnmarshalText(b []byte) error {
	v, err := ParseTimeFrame(string(b))
	if err != nil {
		return err
	}
	*tf = v
	return nil
}

// ResampledBar is one daily, weekly or monthly bucket.
type ResampledBar struct {
	// Date is the display label: the bar date for daily, the first bar's date
	// for weekly, "<month>-<year>" for monthly.
	Date string `json:"date"`
	// Start is the bucket anchor. For monthly buckets it is the first of the
	// month, so consumers needing a real date do not have to parse Date.
	Start  time.Time `json:"start"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume uint64    `json:"volume"`
	Value  float64   `json:"value"`
}

// IndicatorSet holds the per-bar indicator readings.
type IndicatorSet struct {
	SMA20           Value `json:"sma_20"`
	SMA50           Value `json:"sma_50"`
	SMA200          Value `json:"sma_200"`
	EMA12           Value `json:"ema_12"`
	EMA26           Value `json:"ema_26"`
	MACD            Value `json:"macd"`
	MACDSignal      Value `json:"macd_signal"`
	MACDHistogram   Value `json:"macd_histogram"`
	RSI14           Value `json:"rsi_14"`
	BollingerUpper  Value `json:"bollinger_upper"`
	BollingerMiddle Value `json:"bollinger_middle"`
	BollingerLower  Value `json:"bollinger_lower"`
}

// IndicatorRow is an IndicatorSet keyed by the date of the bar it belongs to.
type IndicatorRow struct {
	Date string `json:"date"`
	IndicatorSet
}

// ConsolidatedSeries is the result of resampling one instrument's history.
type ConsolidatedSeries struct {
	Symbol     string         `json:"symbol"`
	TimeFrame  TimeFrame      `json:"timeFrame"`
	FromDate   string         `json:"fromDate"`
	ToDate     string         `json:"toDate"`
	Data       []ResampledBar `json:"data"`
	Indicators []IndicatorRow `json:"indicators"`
	// Skipped counts bars dropped from grouping because their date label did
	// not parse.
	Skipped int `json:"skipped"`
}

// StreamKey returns the Redis stream key: "series:{tf}:{symbol}".
func (s *ConsolidatedSeries) StreamKey() string {
	return "series:" + s.TimeFrame.String() + ":" + s.Symbol
}

// JSON returns the JSON-encoded series.
func (s *ConsolidatedSeries) JSON() []byte {
	b, _ := json.Marshal(s)
	return b
}
