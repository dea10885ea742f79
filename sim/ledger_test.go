package sim

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/internal/core"
)

func newLedger(t *testing.T, equity, fee float64) *Ledger {
	t.Helper()
	l, err := NewLedger(equity, fee, nil)
	require.NoError(t, err)
	return l
}

func TestNewLedger_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewLedger(-1, 0, nil)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = NewLedger(math.NaN(), 0, nil)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = NewLedger(100, 1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	_, err = NewLedger(100, -0.1, nil)
	assert.ErrorIs(t, err, core.ErrInvalidParameter)

	l, err := NewLedger(0, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, l.Equity())
}

func TestLedger_RoundTripNoFee(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000, 0)

	buy, err := l.Market(broker.Buy, 100, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), buy.ID)
	assert.InDelta(t, 9000, l.Equity(), 1e-9)
	assert.InDelta(t, 10, l.Position().Size, 1e-12)
	assert.InDelta(t, 100, l.Position().AvgEntryPrice, 1e-12)

	sell, err := l.Market(broker.Sell, 110, 10, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(2), sell.ID)
	assert.InDelta(t, 10100, l.Equity(), 1e-9)
	assert.Equal(t, broker.Position{}, l.Position())
}

func TestLedger_FeeCharged(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000, 0.001)

	f, err := l.Market(broker.Buy, 100, 10, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f.Fee, 1e-12)
	assert.InDelta(t, 10000-1000-1, l.Equity(), 1e-9)

	f, err = l.Market(broker.Sell, 100, 10, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, f.Fee, 1e-12)
	assert.InDelta(t, 10000-2, l.Equity(), 1e-9)
	assert.InDelta(t, 2.0, l.Fees(), 1e-12)
}

func TestLedger_BuyClampedToEquity(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 1000, 0.01)

	f, err := l.Market(broker.Buy, 100, 50, nil, nil)
	require.NoError(t, err)

	want := 1000 / (100 * 1.01)
	assert.InDelta(t, want, f.Size, 1e-9)
	assert.InDelta(t, f.Price*f.Size*0.01, f.Fee, 1e-9)
	assert.GreaterOrEqual(t, l.Equity(), 0.0)
	assert.InDelta(t, 0, l.Equity(), 1e-9)
	assert.InDelta(t, want, l.Position().Size, 1e-9)
}

func TestLedger_BuyWithNoEquity(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 0, 0.001)

	f, err := l.Market(broker.Buy, 100, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f.Size)
	assert.Equal(t, 0.0, f.Fee)
	assert.Equal(t, 0.0, l.Equity())
	assert.Equal(t, 0.0, l.Position().Size)
}

func TestLedger_ZeroSizeStillFills(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 500, 0.001)

	f, err := l.Market(broker.Buy, 100, 0, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.ID)
	assert.Equal(t, 500.0, l.Equity())
	assert.Len(t, l.Fills(), 1)
}

func TestLedger_AverageEntry(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 10000, 0)

	_, err := l.Market(broker.Buy, 100, 1, nil, nil)
	require.NoError(t, err)
	_, err = l.Market(broker.Buy, 130, 2, nil, nil)
	require.NoError(t, err)

	assert.InDelta(t, 3, l.Position().Size, 1e-12)
	assert.InDelta(t, 120, l.Position().AvgEntryPrice, 1e-9)

	// partial sell keeps the average
	_, err = l.Market(broker.Sell, 140, 1, nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 2, l.Position().Size, 1e-12)
	assert.InDelta(t, 120, l.Position().AvgEntryPrice, 1e-9)
}

func TestLedger_OverSellFloorsPosition(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 1000, 0)

	_, err := l.Market(broker.Buy, 100, 1, nil, nil)
	require.NoError(t, err)

	f, err := l.Market(broker.Sell, 100, 3, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f.Size)
	assert.Equal(t, broker.Position{}, l.Position())
	assert.InDelta(t, 900+300, l.Equity(), 1e-9)
}

func TestLedger_InvalidOrdersLeaveStateUnchanged(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 1000, 0.001)
	before := l.Account()

	cases := []struct {
		side        broker.Side
		price, size float64
	}{
		{"hold", 100, 1},
		{broker.Buy, 0, 1},
		{broker.Buy, -5, 1},
		{broker.Buy, math.Inf(1), 1},
		{broker.Sell, 100, -1},
		{broker.Sell, 100, math.NaN()},
	}
	for _, c := range cases {
		_, err := l.Market(c.side, c.price, c.size, nil, nil)
		assert.ErrorIs(t, err, core.ErrInvalidParameter)
	}

	assert.Equal(t, before, l.Account())
	assert.Empty(t, l.Fills())

	f, err := l.Market(broker.Buy, 100, 1, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), f.ID)
}

func TestLedger_StopsRecordedOnFill(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 1000, 0)
	sl, tp := 98.0, 104.0

	f, err := l.CreateMarketOrder(context.Background(), broker.MarketOrderRequest{
		Side: broker.Buy, Price: 100, Size: 1, StopLoss: &sl, TakeProfit: &tp,
	})
	require.NoError(t, err)
	require.NotNil(t, f.StopLoss)
	require.NotNil(t, f.TakeProfit)
	assert.Equal(t, 98.0, *f.StopLoss)
	assert.Equal(t, 104.0, *f.TakeProfit)

	acct, err := l.GetAccount(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 900, acct.Equity, 1e-9)
	assert.InDelta(t, 1000, MarkToMarket(acct, 100), 1e-9)
}

func TestLedger_CashDeltasReconcile(t *testing.T) {
	t.Parallel()

	l := newLedger(t, 5000, 0.002)
	orders := []struct {
		side        broker.Side
		price, size float64
	}{
		{broker.Buy, 100, 10},
		{broker.Buy, 105, 100},
		{broker.Sell, 110, 5},
		{broker.Sell, 90, 20},
	}
	for _, o := range orders {
		_, err := l.Market(o.side, o.price, o.size, nil, nil)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, l.Equity(), 0.0)
		assert.GreaterOrEqual(t, l.Position().Size, 0.0)
	}

	sum := 5000.0
	for _, f := range l.Fills() {
		sum += f.CashDelta()
	}
	assert.InDelta(t, sum, l.Equity(), 1e-6)
}
