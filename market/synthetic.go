package market

import (
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Synthetic generates a seeded random walk of bars for offline experiments.
// The same Seed always yields the same bars.
type Synthetic struct {
	Seed       int64
	Start      time.Time     // open time of the first bar
	Interval   time.Duration // bar spacing, default 1m
	StartPrice float64       // default 20000
	Sigma      float64       // per-bar return stddev, default 0.001
	Wick       float64       // max relative wick beyond open/close, default 0.002
	MaxVolume  float64       // volume drawn from [0, MaxVolume), default 10
}

func (s Synthetic) withDefaults() Synthetic {
	if s.Interval <= 0 {
		s.Interval = time.Minute
	}
	if s.StartPrice <= 0 {
		s.StartPrice = 20000
	}
	if s.Sigma <= 0 {
		s.Sigma = 0.001
	}
	if s.Wick <= 0 {
		s.Wick = 0.002
	}
	if s.MaxVolume <= 0 {
		s.MaxVolume = 10
	}
	if s.Start.IsZero() {
		s.Start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return s
}

// Generate returns n bars. Each bar opens at the previous close.
func (s Synthetic) Generate(n int) ([]Bar, error) {
	if n < 0 {
		return nil, fmt.Errorf("synthetic: n must be >= 0, got %d", n)
	}
	s = s.withDefaults()
	rng := rand.New(rand.NewSource(s.Seed))

	bars := make([]Bar, 0, n)
	price := s.StartPrice
	for i := 0; i < n; i++ {
		open := price
		close := open * (1 + rng.NormFloat64()*s.Sigma)
		if close <= 0 {
			close = open
		}
		high := math.Max(open, close) * (1 + rng.Float64()*s.Wick)
		low := math.Min(open, close) * (1 - rng.Float64()*s.Wick)

		bars = append(bars, Bar{
			Time:   s.Start.Add(time.Duration(i) * s.Interval),
			Open:   open,
			High:   high,
			Low:    low,
			Close:  close,
			Volume: rng.Float64() * s.MaxVolume,
		})
		price = close
	}
	return bars, nil
}
