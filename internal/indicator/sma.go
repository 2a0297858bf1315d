package indicator

// SMA is the simple moving average over the last period closes, kept as a
// ring of the window plus its running sum.
type SMA struct {
	period int
	window []float64
	next   int
	seen   int
	sum    float64
}

func NewSMA(period int) *SMA {
	return &SMA{period: period, window: make([]float64, period)}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(price float64) {
	// once the ring is full the slot at next holds the close leaving the window
	s.sum += price - s.window[s.next]
	s.window[s.next] = price
	s.next++
	if s.next == s.period {
		s.next = 0
	}
	s.seen++
}

// Value is 0 until Ready.
func (s *SMA) Value() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(s.period)
}

func (s *SMA) Ready() bool { return s.seen >= s.period }

func (s *SMA) Reset() {
	clear(s.window)
	s.next, s.seen, s.sum = 0, 0, 0
}
