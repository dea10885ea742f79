package risk

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/rustyeddy/papertrader/internal/core"
)

// SizeDecimals is the precision order sizes are truncated to.
const SizeDecimals = 6

// Sizer turns account equity and an entry price into an order size and
// advisory stop levels. It holds no state beyond its percentages.
type Sizer struct {
	MaxPositionPct float64
	StopLossPct    float64
	TakeProfitPct  float64
}

func NewSizer(maxPositionPct, stopLossPct, takeProfitPct float64) (*Sizer, error) {
	if !finite(maxPositionPct) || maxPositionPct <= 0 || maxPositionPct > 1 {
		return nil, core.Errorf(core.ErrInvalidParameter, "max_position_pct must be in (0, 1], got %v", maxPositionPct)
	}
	if !finite(stopLossPct) || stopLossPct < 0 || stopLossPct >= 1 {
		return nil, core.Errorf(core.ErrInvalidParameter, "stop_loss_pct must be in [0, 1), got %v", stopLossPct)
	}
	if !finite(takeProfitPct) || takeProfitPct < 0 {
		return nil, core.Errorf(core.ErrInvalidParameter, "take_profit_pct must be >= 0, got %v", takeProfitPct)
	}
	return &Sizer{
		MaxPositionPct: maxPositionPct,
		StopLossPct:    stopLossPct,
		TakeProfitPct:  takeProfitPct,
	}, nil
}

// PositionSize returns equity*MaxPositionPct/price truncated toward zero to
// SizeDecimals places. Equity <= 0 yields 0.
func (s *Sizer) PositionSize(equity, price float64) (float64, error) {
	if !finite(price) || price <= 0 {
		return 0, core.Errorf(core.ErrInvalidParameter, "price must be > 0, got %v", price)
	}
	if !finite(equity) {
		return 0, core.Errorf(core.ErrInvalidParameter, "equity must be finite, got %v", equity)
	}
	if equity <= 0 {
		return 0, nil
	}

	size := equity * s.MaxPositionPct / price

	// decimal.NewFromFloat uses the shortest representation of size, so a
	// value like 0.3 truncates to 0.3 rather than 0.299999.
	truncated, _ := decimal.NewFromFloat(size).Truncate(SizeDecimals).Float64()
	return truncated, nil
}

// Stops returns the stop loss and take profit levels for a long entry.
func (s *Sizer) Stops(entry float64) (stopLoss, takeProfit float64, err error) {
	if !finite(entry) || entry <= 0 {
		return 0, 0, core.Errorf(core.ErrInvalidParameter, "entry price must be > 0, got %v", entry)
	}
	return entry * (1 - s.StopLossPct), entry * (1 + s.TakeProfitPct), nil
}

// PlannedRisk is the cash lost if a position of units entered at entry is
// stopped out at stop.
func PlannedRisk(units, entry, stop float64) float64 {
	return units * math.Abs(entry-stop)
}

// RR is the reward to risk multiple of a stop/target pair.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
