package sim

import "github.com/rustyeddy/papertrader/broker"

// UnrealizedPL is the open profit of a long position marked at price,
// before exit fees.
func UnrealizedPL(p broker.Position, price float64) float64 {
	if p.Size <= 0 {
		return 0
	}
	return p.Size * (price - p.AvgEntryPrice)
}

// MarkToMarket values an account at price: cash plus position size times price.
func MarkToMarket(acct broker.Account, price float64) float64 {
	return acct.Equity + acct.Position.Size*price
}
