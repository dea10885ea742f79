package strategies

import (
	"fmt"

	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/indicators"
)

// EMACross enters long when a fast EMA crosses above a slow EMA and exits
// when it crosses back below. It signals only on the cross event, not on
// every bar while the EMAs stay crossed.
type EMACross struct {
	fast *indicators.EMA
	slow *indicators.EMA

	// -1 fast below slow, 0 unknown/not ready, +1 fast above slow
	prevRel int
	name    string

	// require |fast-slow| >= minSpread (price units) to signal; 0 disables
	minSpread float64

	// entries also need ADX >= adxMin when adx is set
	adx    *indicators.ADX
	adxMin float64
}

// NewEMACross reads "fast" (default 20), "slow" (default 50) and
// "min_spread". A positive "adx_min" filters entries on trend strength,
// using an ADX over "adx_period" bars (default 14).
func NewEMACross(p Params) (*EMACross, error) {
	fast, err := p.period("fast", 20)
	if err != nil {
		return nil, err
	}
	slow, err := p.period("slow", 50)
	if err != nil {
		return nil, err
	}
	if fast >= slow {
		return nil, core.Errorf(core.ErrInvalidParameter, "ema_cross requires fast < slow, got %d >= %d", fast, slow)
	}

	x := &EMACross{
		fast:      indicators.NewEMA(fast),
		slow:      indicators.NewEMA(slow),
		minSpread: p.get("min_spread", 0),
		name:      fmt.Sprintf("EMA_CROSS(%d,%d)", fast, slow),
	}

	if adxMin := p.get("adx_min", 0); adxMin > 0 {
		period, err := p.period("adx_period", 14)
		if err != nil {
			return nil, err
		}
		x.adx = indicators.NewADX(period)
		x.adxMin = adxMin
		x.name = fmt.Sprintf("EMA_CROSS(%d,%d,ADX(%d)>=%g)", fast, slow, period, adxMin)
	}
	return x, nil
}

func (x *EMACross) Name() string { return x.name }

func (x *EMACross) Reset() {
	x.fast.Reset()
	x.slow.Reset()
	if x.adx != nil {
		x.adx.Reset()
	}
	x.prevRel = 0
}

func (x *EMACross) Ready() bool {
	return x.fast.Ready() && x.slow.Ready()
}

func (x *EMACross) Update(b market.Bar) Signal {
	x.fast.Update(b.Close)
	x.slow.Update(b.Close)
	if x.adx != nil {
		x.adx.Update(b)
	}

	if !x.Ready() {
		return Flat
	}

	fv := x.fast.Float64()
	sv := x.slow.Float64()
	if x.minSpread > 0 && abs(fv-sv) < x.minSpread {
		return Flat
	}

	rel := relation(fv, sv)

	// First ready bar sets the baseline and never fires.
	if x.prevRel == 0 {
		x.prevRel = rel
		return Flat
	}

	prev := x.prevRel
	x.prevRel = rel
	switch {
	case prev == -1 && rel == +1:
		if x.adx != nil && (!x.adx.Ready() || x.adx.Float64() < x.adxMin) {
			return Flat
		}
		return LongEntry
	case prev == +1 && rel == -1:
		return Exit
	default:
		return Flat
	}
}
