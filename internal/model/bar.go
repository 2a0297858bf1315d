package model

import (
	"encoding/json"
	"time"
)

// DailyBar is one trading day for a single instrument as returned by the NSE
// historical equity API. Prices are in rupees.
type DailyBar struct {
	Date      string  `json:"CH_TIMESTAMP"` // DD-MM-YYYY
	Open      float64 `json:"CH_OPENING_PRICE"`
	High      float64 `json:"CH_TRADE_HIGH_PRICE"`
	Low       float64 `json:"CH_TRADE_LOW_PRICE"`
	Close     float64 `json:"CH_CLOSING_PRICE"`
	Last      float64 `json:"CH_LAST_TRADED_PRICE"`
	PrevClose float64 `json:"CH_PREVIOUS_CLS_PRICE"`
	Volume    uint64  `json:"CH_TOT_TRADED_QTY"`
	Value     float64 `json:"CH_TOT_TRADED_VAL"`
	YearHigh  float64 `json:"CH_52WEEK_HIGH_PRICE"`
	YearLow   float64 `json:"CH_52WEEK_LOW_PRICE"`

	// Indicators is filled by the indicator engine; zero until then.
	Indicators IndicatorSet `json:"-"`
}

// Time parses the bar's date label.
func (b *DailyBar) Time() (time.Time, error) {
	return ParseDate(b.Date)
}

// History is the envelope returned by the historical data endpoint.
type History struct {
	Symbol string     `json:"symbol"`
	Data   []DailyBar `json:"data"`
}

// JSON returns the JSON-encoded history (ignoring errors, the type has no
// unencodable fields).
func (h *History) JSON() []byte {
	b, _ := json.Marshal(h)
	return b
}
