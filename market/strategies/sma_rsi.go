package strategies

import (
	"fmt"

	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/indicators"
)

// SMARSI enters on a fast/slow SMA cross up OR an oversold RSI, and exits on
// a cross down OR an overbought RSI. When both fire on one bar, exit wins.
type SMARSI struct {
	fast *indicators.SMA
	slow *indicators.SMA
	rsi  *indicators.RSI

	buyBelow  float64
	sellAbove float64

	prevRel  int
	havePrev bool
	name     string
}

// NewSMARSI reads fast_sma (10), slow_sma (30), rsi_period (14),
// rsi_buy_below (35) and rsi_sell_above (65).
func NewSMARSI(p Params) (*SMARSI, error) {
	fast, err := p.period("fast_sma", 10)
	if err != nil {
		return nil, err
	}
	slow, err := p.period("slow_sma", 30)
	if err != nil {
		return nil, err
	}
	rsiP, err := p.period("rsi_period", 14)
	if err != nil {
		return nil, err
	}
	buy := p.get("rsi_buy_below", 35)
	sell := p.get("rsi_sell_above", 65)
	if buy < 0 || sell > 100 || buy >= sell {
		return nil, core.Errorf(core.ErrInvalidParameter,
			"sma_rsi requires 0 <= rsi_buy_below < rsi_sell_above <= 100, got %v / %v", buy, sell)
	}

	return &SMARSI{
		fast:      indicators.NewSMA(fast),
		slow:      indicators.NewSMA(slow),
		rsi:       indicators.NewRSI(rsiP),
		buyBelow:  buy,
		sellAbove: sell,
		name:      fmt.Sprintf("SMA_RSI(%d,%d,%d)", fast, slow, rsiP),
	}, nil
}

func (s *SMARSI) Name() string { return s.name }

func (s *SMARSI) Reset() {
	s.fast.Reset()
	s.slow.Reset()
	s.rsi.Reset()
	s.prevRel = 0
	s.havePrev = false
}

func (s *SMARSI) Update(b market.Bar) Signal {
	s.fast.Update(b.Close)
	s.slow.Update(b.Close)
	s.rsi.Update(b.Close)

	var crossUp, crossDown bool
	if s.fast.Ready() && s.slow.Ready() {
		rel := relation(s.fast.Float64(), s.slow.Float64())
		if s.havePrev {
			crossUp = rel > 0 && s.prevRel <= 0
			crossDown = rel < 0 && s.prevRel >= 0
		}
		s.prevRel = rel
		s.havePrev = true
	}

	var rsiBuy, rsiSell bool
	if s.rsi.Ready() {
		v := s.rsi.Float64()
		rsiBuy = v < s.buyBelow
		rsiSell = v > s.sellAbove
	}

	switch {
	case crossDown || rsiSell:
		return Exit
	case crossUp || rsiBuy:
		return LongEntry
	default:
		return Flat
	}
}
