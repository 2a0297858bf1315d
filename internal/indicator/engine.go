package indicator

import "nse-scraper/internal/model"

// Periods used by the engine.
const (
	SMAShort  = 20
	SMAMedium = 50
	SMALong   = 200

	RSIPeriod = 14

	BollingerPeriod = 20
	BollingerK      = 2.0
)

// Columns holds every indicator column for one close series. Each slice has
// the same length as the closes it was computed from.
type Columns struct {
	SMA20, SMA50, SMA200 []model.Value
	EMA12, EMA26         []model.Value
	MACD                 MACDLines
	RSI14                []model.Value
	Bollinger            Bands
}

// Len returns the number of rows covered by the columns.
func (c *Columns) Len() int { return len(c.SMA20) }

// At returns the indicator set for row i.
func (c *Columns) At(i int) model.IndicatorSet {
	return model.IndicatorSet{
		SMA20:           c.SMA20[i],
		SMA50:           c.SMA50[i],
		SMA200:          c.SMA200[i],
		EMA12:           c.EMA12[i],
		EMA26:           c.EMA26[i],
		MACD:            c.MACD.MACD[i],
		MACDSignal:      c.MACD.Signal[i],
		MACDHistogram:   c.MACD.Histogram[i],
		RSI14:           c.RSI14[i],
		BollingerUpper:  c.Bollinger.Upper[i],
		BollingerMiddle: c.Bollinger.Middle[i],
		BollingerLower:  c.Bollinger.Lower[i],
	}
}

// Compute runs every indicator over closes. Each indicator gets fresh state,
// so columns are independent of one another except MACD, which is derived
// from the two EMA columns.
func Compute(closes []float64) Columns {
	c := Columns{
		SMA20:     Run(NewSMA(SMAShort), closes),
		SMA50:     Run(NewSMA(SMAMedium), closes),
		SMA200:    Run(NewSMA(SMALong), closes),
		EMA12:     Run(NewEMA(macdFast), closes),
		EMA26:     Run(NewEMA(macdSlow), closes),
		RSI14:     Run(NewRSI(RSIPeriod), closes),
		Bollinger: Bollinger(closes, BollingerPeriod, BollingerK),
	}
	c.MACD = MACD(c.EMA12, c.EMA26)
	return c
}

// Closes extracts the close column from bars.
func Closes(bars []model.DailyBar) []float64 {
	out := make([]float64, len(bars))
	for i := range bars {
		out[i] = bars[i].Close
	}
	return out
}

// Enrich returns a date-sorted copy of bars with Indicators populated by
// position. The input slice is not modified.
func Enrich(bars []model.DailyBar) []model.DailyBar {
	out := make([]model.DailyBar, len(bars))
	copy(out, bars)
	model.SortBars(out)

	cols := Compute(Closes(out))
	for i := range out {
		out[i].Indicators = cols.At(i)
	}
	return out
}

// Rows pairs each enriched bar's indicators with its date label.
func Rows(enriched []model.DailyBar) []model.IndicatorRow {
	rows := make([]model.IndicatorRow, len(enriched))
	for i := range enriched {
		rows[i] = model.IndicatorRow{Date: enriched[i].Date, IndicatorSet: enriched[i].Indicators}
	}
	return rows
}
