package indicator

// EMA is the exponential moving average. It starts from the SMA of the first
// period closes and then moves by k = 2/(period+1) of each new deviation.
type EMA struct {
	seed
	k   float64
	ema float64
}

func NewEMA(period int) *EMA {
	return &EMA{seed: seed{period: period}, k: 2 / float64(period+1)}
}

func (e *EMA) Name() string { return "EMA" }

func (e *EMA) Update(price float64) {
	if e.add(price) {
		e.ema += (price - e.ema) * e.k
		return
	}
	if e.justFull() {
		e.ema = e.mean()
	}
}

func (e *EMA) Value() float64 { return e.ema }
func (e *EMA) Ready() bool    { return e.full() }

func (e *EMA) Reset() {
	e.reset()
	e.ema = 0
}
