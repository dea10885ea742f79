package sim

import (
	"math"

	"github.com/rustyeddy/papertrader/market"
)

// Reason says why a trade happened.
type Reason string

const (
	ReasonSignal     Reason = "signal"
	ReasonStopLoss   Reason = "stop_loss"
	ReasonTakeProfit Reason = "take_profit"
)

// CheckExit reports whether bar b touches a long position's stop loss (low
// at or below it) or take profit (high at or above it). When a bar spans
// both levels the stop wins, since the intrabar path is unknown.
//
// A level is filled at the level itself unless the bar opens through it: a
// gap below the stop fills at the open, as does a gap above the target.
func CheckExit(b market.Bar, stopLoss, takeProfit *float64) (price float64, reason Reason, hit bool) {
	if hitStopLoss(stopLoss, b.Low) {
		return math.Min(b.Open, *stopLoss), ReasonStopLoss, true
	}
	if hitTakeProfit(takeProfit, b.High) {
		return math.Max(b.Open, *takeProfit), ReasonTakeProfit, true
	}
	return 0, "", false
}

func hitStopLoss(stop *float64, low float64) bool {
	return stop != nil && low <= *stop
}

func hitTakeProfit(target *float64, high float64) bool {
	return target != nil && high >= *target
}
