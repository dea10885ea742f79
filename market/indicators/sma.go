package indicators

import "fmt"

// SMA is a simple moving average over the last n values, kept in a ring.
type SMA struct {
	n    int
	buf  []float64
	next int
	seen int
	sum  float64

	name string
}

func NewSMA(period int) *SMA {
	if period <= 0 {
		panic("SMA period must be > 0")
	}
	return &SMA{
		n:    period,
		buf:  make([]float64, period),
		name: fmt.Sprintf("SMA(%d)", period),
	}
}

func (s *SMA) Name() string { return s.name }
func (s *SMA) Warmup() int  { return s.n }
func (s *SMA) Ready() bool  { return s.seen >= s.n }

// Float64 returns the current average, or 0 before the window is full.
func (s *SMA) Float64() float64 {
	if !s.Ready() {
		return 0
	}
	return s.sum / float64(s.n)
}

func (s *SMA) Reset() {
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.next = 0
	s.seen = 0
	s.sum = 0
}

func (s *SMA) Update(x float64) {
	s.sum += x - s.buf[s.next]
	s.buf[s.next] = x
	s.next = (s.next + 1) % s.n
	if s.seen < s.n {
		s.seen++
	}
}
