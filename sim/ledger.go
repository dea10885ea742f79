package sim

import (
	"context"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/internal/logger"
)

// Ledger is the paper broker. It owns cash equity, the single long position
// and the fill history, and it is the only thing that mutates them.
//
// Buys that cost more than the available equity are clamped to the largest
// affordable size; the fee is recomputed from the clamped size. Sells larger
// than the position zero it rather than going short.
type Ledger struct {
	mu     sync.Mutex
	equity float64
	pos    broker.Position
	feePct float64
	nextID int64
	fills  []broker.Fill
	fees   float64

	log *zap.Logger
}

var _ broker.Broker = (*Ledger)(nil)

func NewLedger(startingEquity, feePct float64, log *zap.Logger) (*Ledger, error) {
	if !finite(startingEquity) || startingEquity < 0 {
		return nil, core.Errorf(core.ErrInvalidParameter, "starting equity must be >= 0, got %v", startingEquity)
	}
	if !finite(feePct) || feePct < 0 || feePct >= 1 {
		return nil, core.Errorf(core.ErrInvalidParameter, "fee_pct must be in [0, 1), got %v", feePct)
	}
	return &Ledger{
		equity: startingEquity,
		feePct: feePct,
		nextID: 1,
		log:    logger.OrNop(log),
	}, nil
}

func (l *Ledger) GetAccount(_ context.Context) (broker.Account, error) {
	return l.Account(), nil
}

func (l *Ledger) Account() broker.Account {
	l.mu.Lock()
	defer l.mu.Unlock()
	return broker.Account{Equity: l.equity, Position: l.pos}
}

func (l *Ledger) Equity() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.equity
}

func (l *Ledger) Position() broker.Position {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pos
}

// Fees is the sum of all fees charged so far.
func (l *Ledger) Fees() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fees
}

// Fills returns a copy of the fill history in execution order.
func (l *Ledger) Fills() []broker.Fill {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]broker.Fill, len(l.fills))
	copy(out, l.fills)
	return out
}

func (l *Ledger) CreateMarketOrder(_ context.Context, req broker.MarketOrderRequest) (broker.Fill, error) {
	return l.Market(req.Side, req.Price, req.Size, req.StopLoss, req.TakeProfit)
}

// Market executes a market order at price. Invalid arguments return an
// ErrInvalidParameter error and leave the ledger untouched; insufficient
// funds never error. A zero size order still produces a fill.
func (l *Ledger) Market(side broker.Side, price, size float64, stopLoss, takeProfit *float64) (broker.Fill, error) {
	if !side.Valid() {
		return broker.Fill{}, core.Errorf(core.ErrInvalidParameter, "market: unknown side %q", side)
	}
	if !finite(price) || price <= 0 {
		return broker.Fill{}, core.Errorf(core.ErrInvalidParameter, "market: price must be > 0, got %v", price)
	}
	if !finite(size) || size < 0 {
		return broker.Fill{}, core.Errorf(core.ErrInvalidParameter, "market: size must be >= 0, got %v", size)
	}

	l.mu.Lock()

	requested := size
	fee := math.Abs(price*size) * l.feePct

	switch side {
	case broker.Buy:
		if price*size+fee > l.equity {
			size = math.Max(0, l.equity/(price*(1+l.feePct)))
			fee = math.Abs(price*size) * l.feePct
		}

		newSize := l.pos.Size + size
		if newSize > 0 {
			l.pos.AvgEntryPrice = (l.pos.AvgEntryPrice*l.pos.Size + price*size) / newSize
		}
		l.pos.Size = newSize

		l.equity -= price*size + fee
		if l.equity < 0 {
			// rounding dust from the clamp
			l.equity = 0
		}

	case broker.Sell:
		l.pos.Size -= size
		if l.pos.Size <= 0 {
			l.pos.Size = 0
			l.pos.AvgEntryPrice = 0
		}
		l.equity += price*size - fee
	}

	fill := broker.Fill{
		ID:         l.nextID,
		Side:       side,
		Price:      price,
		Size:       size,
		Fee:        fee,
		StopLoss:   stopLoss,
		TakeProfit: takeProfit,
	}
	l.nextID++
	l.fees += fee
	l.fills = append(l.fills, fill)

	acct := broker.Account{Equity: l.equity, Position: l.pos}

	l.mu.Unlock()

	fields := []zap.Field{
		zap.Int64("id", fill.ID),
		zap.String("side", string(side)),
		zap.Float64("price", price),
		zap.Float64("size", size),
		zap.Float64("fee", fee),
		zap.Float64("equity", acct.Equity),
		zap.Float64("position", acct.Position.Size),
	}
	if size != requested {
		fields = append(fields, zap.Float64("requested", requested))
		l.log.Debug("fill clamped to equity", fields...)
	} else {
		l.log.Debug("fill", fields...)
	}
	return fill, nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
