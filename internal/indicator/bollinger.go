package indicator

import (
	"math"

	"nse-scraper/internal/model"
)

// Bands holds the Bollinger envelope columns.
type Bands struct {
	Upper  []model.Value
	Middle []model.Value
	Lower  []model.Value
}

// Bollinger computes bands of k population standard deviations around the
// trailing period mean. Each window is recomputed from the closes directly.
func Bollinger(closes []float64, period int, k float64) Bands {
	n := len(closes)
	out := Bands{
		Upper:  make([]model.Value, n),
		Middle: make([]model.Value, n),
		Lower:  make([]model.Value, n),
	}
	if period <= 0 {
		return out
	}

	for i := period - 1; i < n; i++ {
		window := closes[i+1-period : i+1]

		var sum float64
		for _, c := range window {
			sum += c
		}
		mean := sum / float64(period)

		var sq float64
		for _, c := range window {
			d := c - mean
			sq += d * d
		}
		width := k * math.Sqrt(sq/float64(period))

		out.Middle[i] = model.Some(mean)
		out.Upper[i] = model.Some(mean + width)
		out.Lower[i] = model.Some(mean - width)
	}
	return out
}
