package indicator

// SMMA is Wilder's smoothed moving average, used by RSI for the average gain
// and loss. Seeded like EMA, then smma = (smma*(period-1) + price) / period.
type SMMA struct {
	seed
	smma float64
}

func NewSMMA(period int) *SMMA {
	return &SMMA{seed: seed{period: period}}
}

func (s *SMMA) Name() string { return "SMMA" }

func (s *SMMA) Update(price float64) {
	if s.add(price) {
		p := float64(s.period)
		s.smma = (s.smma*(p-1) + price) / p
		return
	}
	if s.justFull() {
		s.smma = s.mean()
	}
}

func (s *SMMA) Value() float64 { return s.smma }
func (s *SMMA) Ready() bool    { return s.full() }

func (s *SMMA) Reset() {
	s.reset()
	s.smma = 0
}
