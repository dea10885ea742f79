package strategies

import (
	"fmt"

	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/indicators"
)

// Scalping follows the EMA trend on bars with above-average volume:
// long while fast > slow and RSI is above the oversold line, exit while
// fast < slow and RSI is below the overbought line.
type Scalping struct {
	fast *indicators.EMA
	slow *indicators.EMA
	rsi  *indicators.RSI
	vol  *indicators.SMA

	overbought float64
	oversold   float64

	name string
}

// NewScalping reads ema_fast (5), ema_slow (20), rsi_period (14),
// rsi_overbought (70), rsi_oversold (30) and volume_ma (10).
func NewScalping(p Params) (*Scalping, error) {
	fast, err := p.period("ema_fast", 5)
	if err != nil {
		return nil, err
	}
	slow, err := p.period("ema_slow", 20)
	if err != nil {
		return nil, err
	}
	rsiP, err := p.period("rsi_period", 14)
	if err != nil {
		return nil, err
	}
	volP, err := p.period("volume_ma", 10)
	if err != nil {
		return nil, err
	}
	overbought := p.get("rsi_overbought", 70)
	oversold := p.get("rsi_oversold", 30)
	if oversold < 0 || overbought > 100 || oversold >= overbought {
		return nil, core.Errorf(core.ErrInvalidParameter,
			"scalping requires 0 <= rsi_oversold < rsi_overbought <= 100, got %v / %v", oversold, overbought)
	}

	return &Scalping{
		fast:       indicators.NewEMA(fast),
		slow:       indicators.NewEMA(slow),
		rsi:        indicators.NewRSI(rsiP),
		vol:        indicators.NewSMA(volP),
		overbought: overbought,
		oversold:   oversold,
		name:       fmt.Sprintf("SCALPING(%d,%d,%d,%d)", fast, slow, rsiP, volP),
	}, nil
}

func (s *Scalping) Name() string { return s.name }

func (s *Scalping) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.rsi.Reset()
	s.vol.Reset()
}

func (s *Scalping) Update(b market.Bar) Signal {
	s.fast.Update(b.Close)
	s.slow.Update(b.Close)
	s.rsi.Update(b.Close)
	s.vol.Update(b.Volume)

	if !s.rsi.Ready() || !s.vol.Ready() {
		return Flat
	}
	if b.Volume <= s.vol.Float64() {
		return Flat
	}

	fv, sv, r := s.fast.Float64(), s.slow.Float64(), s.rsi.Float64()
	switch {
	case fv > sv && r > s.oversold:
		return LongEntry
	case fv < sv && r < s.overbought:
		return Exit
	default:
		return Flat
	}
}
