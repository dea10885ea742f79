package journal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := TradeRecord{
		RunID:      "01HZX3ABCDEFGH",
		Seq:        3,
		Time:       time.Date(2024, 3, 15, 10, 30, 45, 0, time.UTC),
		Side:       "sell",
		Price:      20100.5,
		Size:       0.1,
		FilledSize: 0.1,
		Fee:        1.005,
		Reason:     "take_profit",
	}

	result := FormatTradeOrg(trade)

	assert.Contains(t, result, "** Trade 3: SELL (01HZX3AB)")
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":RUN_ID: 01HZX3ABCDEFGH")
	assert.Contains(t, result, ":TIME: 2024-03-15T10:30:45Z")
	assert.Contains(t, result, ":PRICE: 20100.50000")
	assert.Contains(t, result, ":SIZE: 0.100000")
	assert.Contains(t, result, ":FEE: 1.0050")
	assert.Contains(t, result, ":REASON: take_profit")
	assert.Contains(t, result, ":END:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	trades := []TradeRecord{
		{RunID: "R", Seq: 1, Side: "buy"},
		{RunID: "R", Seq: 2, Side: "sell"},
	}

	result := FormatTradesOrg(trades)
	parts := strings.Split(result, "\n\n\n")
	assert.Len(t, parts, 2)

	assert.Empty(t, FormatTradesOrg(nil))
	assert.NotContains(t, FormatTradesOrg(trades[:1]), "\n\n\n")
}

func TestShortID(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "short", shortID("short"))
	assert.Equal(t, "12345678", shortID("12345678"))
	assert.Equal(t, "01HZX3AB", shortID("01HZX3ABCDEFGH"))
	assert.Equal(t, "", shortID(""))
}

func TestWriteBacktestOrg(t *testing.T) {
	t.Parallel()

	r := sampleRun("RUN-1", time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC))
	r.OrgPath = filepath.Join(t.TempDir(), "run.org")

	require.NoError(t, r.WriteBacktestOrg(nil))

	data, err := os.ReadFile(r.OrgPath)
	require.NoError(t, err)
	s := string(data)

	assert.Contains(t, s, "* BACKTEST: sma_rsi BTCUSDT 1m")
	assert.Contains(t, s, ":RETURN_PCT:  0.50")
	assert.Contains(t, s, ":PROFIT_FAC:  1.50")
	assert.Contains(t, s, `{"fee_pct":0.0005}`)
	assert.Contains(t, s, "- first")
	assert.NotContains(t, s, "** Trade Log")
}

func TestWriteBacktestOrgNoPath(t *testing.T) {
	t.Parallel()

	r := sampleRun("RUN-1", time.Now())
	assert.Error(t, r.WriteBacktestOrg(nil))
}
