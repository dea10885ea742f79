package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rustyeddy/papertrader/broker"
)

func buy(price, size, fee float64) broker.Fill {
	return broker.Fill{Side: broker.Buy, Price: price, Size: size, Fee: fee}
}

func sell(price, size, fee float64) broker.Fill {
	return broker.Fill{Side: broker.Sell, Price: price, Size: size, Fee: fee}
}

func TestRoundTrips_Empty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TradeStats{}, RoundTrips(nil))
}

func TestRoundTrips_WinsAndLosses(t *testing.T) {
	t.Parallel()

	st := RoundTrips([]broker.Fill{
		buy(100, 10, 1), sell(110, 10, 1), // +98
		buy(100, 10, 0), sell(95, 10, 0), // -50
		buy(100, 5, 0), sell(100, 5, 0), // 0
	})

	assert.Equal(t, 3, st.RoundTrips)
	assert.Equal(t, 1, st.Wins)
	assert.Equal(t, 1, st.Losses)
	assert.InDelta(t, 100.0/3, st.WinRate, 1e-9)
	assert.InDelta(t, 98, st.GrossProfit, 1e-9)
	assert.InDelta(t, 50, st.GrossLoss, 1e-9)
	assert.InDelta(t, 48, st.NetPL, 1e-9)
	assert.InDelta(t, 1.96, st.ProfitFactor, 1e-9)
	assert.InDelta(t, 98, st.AvgWin, 1e-9)
	assert.InDelta(t, 50, st.AvgLoss, 1e-9)
	assert.InDelta(t, 2, st.TotalFees, 1e-9)
	assert.False(t, st.Open)
}

func TestRoundTrips_ScaleInAndPartialExit(t *testing.T) {
	t.Parallel()

	st := RoundTrips([]broker.Fill{
		buy(100, 1, 0),
		buy(120, 1, 0),
		sell(130, 1, 0),
		sell(130, 1, 0),
	})

	assert.Equal(t, 1, st.RoundTrips)
	assert.InDelta(t, 40, st.NetPL, 1e-9)
}

func TestRoundTrips_OpenAtEnd(t *testing.T) {
	t.Parallel()

	st := RoundTrips([]broker.Fill{buy(100, 1, 0), sell(110, 1, 0), buy(100, 1, 0)})
	assert.Equal(t, 1, st.RoundTrips)
	assert.True(t, st.Open)
	assert.Zero(t, st.ProfitFactor)
}

func TestRoundTrips_ZeroSizeBuyIgnored(t *testing.T) {
	t.Parallel()

	st := RoundTrips([]broker.Fill{buy(100, 0, 0), sell(100, 1, 0)})
	assert.Zero(t, st.RoundTrips)
	assert.False(t, st.Open)
}
