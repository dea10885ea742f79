package market

import (
	"math"
	"time"

	"github.com/rustyeddy/papertrader/internal/core"
)

// Bar is one OHLCV sample for a fixed interval. Bars are values and are
// never mutated once read.
type Bar struct {
	Time time.Time

	Open  float64
	High  float64
	Low   float64
	Close float64

	Volume float64
}

// Validate checks a single bar in isolation.
func (b Bar) Validate() error {
	for _, v := range []float64{b.Open, b.High, b.Low, b.Close, b.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return core.Errorf(core.ErrInvalidInput, "bar %s: non-finite value", b.Time.Format(time.RFC3339))
		}
		if v < 0 {
			return core.Errorf(core.ErrInvalidInput, "bar %s: negative price or volume", b.Time.Format(time.RFC3339))
		}
	}
	if b.High < b.Low {
		return core.Errorf(core.ErrInvalidInput, "bar %s: high %.8f below low %.8f",
			b.Time.Format(time.RFC3339), b.High, b.Low)
	}
	return nil
}

// ValidateBars checks every bar and that timestamps strictly increase, which
// also rules out two bars sharing a timestamp.
func ValidateBars(bars []Bar) error {
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return core.Errorf(core.ErrInvalidInput, "bar %d: %v", i, err)
		}
		if i > 0 && !b.Time.After(bars[i-1].Time) {
			return core.Errorf(core.ErrInvalidInput, "bar %d: timestamp %s not after %s",
				i, b.Time.Format(time.RFC3339), bars[i-1].Time.Format(time.RFC3339))
		}
	}
	return nil
}

// Closes returns the close prices of bars.
func Closes(bars []Bar) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = b.Close
	}
	return out
}
