package indicator

import "nse-scraper/internal/model"

const (
	macdFast   = 12
	macdSlow   = 26
	macdSignal = 9

	// macdStart is the first index carrying a MACD reading. The slow EMA is
	// already defined at macdSlow-1, but the line starts one bar later.
	macdStart = macdSlow
)

// MACDLines holds the three MACD columns, each aligned to the input closes.
type MACDLines struct {
	MACD      []model.Value
	Signal    []model.Value
	Histogram []model.Value
}

// MACD derives the MACD line from precomputed fast and slow EMA columns, then
// smooths it with a 9-period EMA seeded by the simple mean of the first nine
// MACD readings.
func MACD(fast, slow []model.Value) MACDLines {
	n := len(fast)
	out := MACDLines{
		MACD:      make([]model.Value, n),
		Signal:    make([]model.Value, n),
		Histogram: make([]model.Value, n),
	}

	signal := NewEMA(macdSignal)
	for i := macdStart; i < n; i++ {
		f, okF := fast[i].Get()
		s, okS := slow[i].Get()
		if !okF || !okS {
			continue
		}
		m := f - s
		out.MACD[i] = model.Some(m)

		signal.Update(m)
		if !signal.Ready() {
			continue
		}
		sig := signal.Value()
		out.Signal[i] = model.Some(sig)
		out.Histogram[i] = model.Some(m - sig)
	}
	return out
}
