package binance

import (
	"context"
	"testing"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateKline(t *testing.T) {
	t.Parallel()

	k := &gobinance.Kline{
		OpenTime: 1704067200000,
		Open:     "42000.10",
		High:     "42100.00",
		Low:      "41950.50",
		Close:    "42050.25",
		Volume:   "12.345",
	}

	b, err := translateKline(k)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), b.Time)
	assert.Equal(t, 42000.10, b.Open)
	assert.Equal(t, 42100.00, b.High)
	assert.Equal(t, 41950.50, b.Low)
	assert.Equal(t, 42050.25, b.Close)
	assert.Equal(t, 12.345, b.Volume)
}

func TestTranslateKline_Errors(t *testing.T) {
	t.Parallel()

	_, err := translateKline(nil)
	assert.Error(t, err)

	_, err = translateKline(&gobinance.Kline{Open: "1", High: "x", Low: "1", Close: "1", Volume: "1"})
	assert.ErrorContains(t, err, "parsing high")
}

func TestToBars_KeepsOrder(t *testing.T) {
	t.Parallel()

	ks := []*gobinance.Kline{
		{OpenTime: 1000, Open: "1", High: "2", Low: "1", Close: "2", Volume: "1"},
		{OpenTime: 61000, Open: "2", High: "3", Low: "2", Close: "3", Volume: "1"},
	}
	bars, err := toBars(ks)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 3.0, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestFetch_RejectsBadLimit(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	_, err := s.Fetch(context.Background(), "BTCUSDT", "1m", 0)
	assert.Error(t, err)
	_, err = s.Fetch(context.Background(), "BTCUSDT", "1m", maxLimit+1)
	assert.Error(t, err)
}

func TestFetchRange_RejectsBadInterval(t *testing.T) {
	t.Parallel()

	s := New(Config{})
	now := time.Now()
	_, err := s.FetchRange(context.Background(), "BTCUSDT", "bogus", now.Add(-time.Hour), now)
	assert.Error(t, err)
}
