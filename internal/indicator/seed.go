package indicator

// seed accumulates the first period prices of a recursive average. Its mean
// is the starting value for EMA and SMMA.
type seed struct {
	period int
	n      int
	sum    float64
}

// add folds price into the seed and reports whether the seed was already
// complete before this call. The caller owns smoothing once it returns true.
func (s *seed) add(price float64) (complete bool) {
	if s.n >= s.period {
		return true
	}
	s.n++
	s.sum += price
	return false
}

func (s *seed) full() bool     { return s.n >= s.period }
func (s *seed) mean() float64  { return s.sum / float64(s.period) }
func (s *seed) justFull() bool { return s.n == s.period }
func (s *seed) reset()         { s.n, s.sum = 0, 0 }
