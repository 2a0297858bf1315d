package indicator

// saturatedRS is used in place of avgGain/avgLoss when avgLoss is zero, so a
// loss-free window reads 100 - 100/101 (about 99.0099) rather than 100.
const saturatedRS = 100.0

// RSI calculates the Relative Strength Index using Wilder's smoothing method.
// Average gain and loss are SMMAs of the per-bar gain and loss series; the
// first value appears once period changes (period+1 prices) have been seen.
type RSI struct {
	period    int
	count     int
	prevClose float64
	avgGain   *SMMA
	avgLoss   *SMMA
	current   float64
}

// NewRSI creates a new RSI indicator with the given period (typically 14).
func NewRSI(period int) *RSI {
	return &RSI{
		period:  period,
		avgGain: NewSMMA(period),
		avgLoss: NewSMMA(period),
	}
}

func (r *RSI) Name() string { return "RSI" }

func (r *RSI) Update(price float64) {
	r.count++

	if r.count == 1 {
		// first close only seeds prevClose
		r.prevClose = price
		return
	}

	delta := price - r.prevClose
	r.prevClose = price

	gain, loss := 0.0, 0.0
	if delta >= 0 {
		gain = delta
	} else {
		loss = -delta
	}
	r.avgGain.Update(gain)
	r.avgLoss.Update(loss)

	if !r.avgLoss.Ready() {
		return
	}

	rs := saturatedRS
	if al := r.avgLoss.Value(); al != 0 {
		rs = r.avgGain.Value() / al
	}
	r.current = 100.0 - (100.0 / (1.0 + rs))
}

func (r *RSI) Value() float64 { return r.current }
func (r *RSI) Ready() bool    { return r.count > r.period }
