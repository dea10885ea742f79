package broker

import "context"

// Broker is the single capability the simulator needs from an execution
// venue: fill a market order and report the account. Paper and live
// venues are adapters behind this interface.
type Broker interface {
	GetAccount(ctx context.Context) (Account, error)
	CreateMarketOrder(ctx context.Context, req MarketOrderRequest) (Fill, error)
}

type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

func (s Side) Valid() bool { return s == Buy || s == Sell }

// Position is the single long position. AvgEntryPrice is 0 when Size is 0.
type Position struct {
	Size          float64
	AvgEntryPrice float64
}

// Account is cash equity plus the open position. Equity does not include
// the position's market value.
type Account struct {
	Equity   float64
	Position Position
}

type MarketOrderRequest struct {
	Side       Side
	Price      float64
	Size       float64
	StopLoss   *float64
	TakeProfit *float64
}

// Fill is an executed market order. ID increases by one per fill, starting at 1.
type Fill struct {
	ID         int64
	Side       Side
	Price      float64
	Size       float64
	Fee        float64
	StopLoss   *float64
	TakeProfit *float64
}

// Notional is price times size.
func (f Fill) Notional() float64 { return f.Price * f.Size }

// CashDelta is the change in account equity caused by the fill.
func (f Fill) CashDelta() float64 {
	if f.Side == Buy {
		return -(f.Notional() + f.Fee)
	}
	return f.Notional() - f.Fee
}
