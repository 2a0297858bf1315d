// Package indicator computes technical indicators over a daily close series.
//
// SMA, EMA, SMMA and RSI are streaming primitives fed one close at a time.
// The batch functions in this package drive them over a whole series and
// return one model.Value per input bar, absent until the indicator is ready.
package indicator

import "nse-scraper/internal/model"

// Indicator is the interface for the streaming indicators.
type Indicator interface {
	// Name returns the indicator name (e.g., "SMA", "RSI").
	Name() string

	// Update feeds the next close price and recalculates.
	Update(price float64)

	// Value returns the current calculated value. Returns 0 if not enough data.
	Value() float64

	// Ready returns true when enough data has been accumulated.
	Ready() bool
}

// Run feeds closes through ind and records its value at every index where
// it is ready.
func Run(ind Indicator, closes []float64) []model.Value {
	out := make([]model.Value, len(closes))
	for i, c := range closes {
		ind.Update(c)
		if ind.Ready() {
			out[i] = model.Some(ind.Value())
		}
	}
	return out
}
