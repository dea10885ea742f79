package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
)

// execute runs the root command with args. Flag values persist between
// calls on the shared command tree, so each command is exercised once.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--env-file", ""))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestGrid(t *testing.T) {
	base := config.DefaultEngine()

	assert.Equal(t, []config.Engine{base}, grid(base, nil, nil, nil))

	g := grid(base, []float64{0.1, 0.5}, []float64{0.01, 0.02, 0.03}, nil)
	require.Len(t, g, 6)
	assert.Equal(t, 0.1, g[0].MaxPositionPct)
	assert.Equal(t, 0.01, g[0].StopLossPct)
	assert.Equal(t, 0.5, g[5].MaxPositionPct)
	assert.Equal(t, 0.03, g[5].StopLossPct)
	for _, e := range g {
		assert.Equal(t, base.TakeProfitPct, e.TakeProfitPct)
		assert.Equal(t, base.StartingEquity, e.StartingEquity)
	}
}

func TestDatasetName(t *testing.T) {
	assert.Equal(t, "bars.csv", datasetName(config.DataConfig{Source: "csv", Path: "bars.csv"}))
	assert.Equal(t, "synthetic:seed=7", datasetName(config.DataConfig{Source: "synthetic", Seed: 7}))
	assert.Equal(t, "binance:BTCUSDT", datasetName(config.DataConfig{Source: "binance", Symbol: "BTCUSDT"}))
}

func TestOpenJournal(t *testing.T) {
	j, sq, err := openJournal(config.JournalConfig{Type: "none"})
	require.NoError(t, err)
	assert.Nil(t, j)
	assert.Nil(t, sq)

	_, _, err = openJournal(config.JournalConfig{Type: "kafka"})
	assert.Error(t, err)

	j, sq, err = openJournal(config.JournalConfig{Type: "sqlite", DBPath: filepath.Join(t.TempDir(), "j.sqlite")})
	require.NoError(t, err)
	require.NotNil(t, sq)
	assert.NoError(t, j.Close())
}

func TestCLIWorkflow(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "papertrader.yaml")
	barsPath := filepath.Join(dir, "bars.csv")
	dbPath := filepath.Join(dir, "runs.sqlite")
	orgPath := filepath.Join(dir, "run.org")
	promPath := filepath.Join(dir, "papertrader.prom")

	t.Run("version", func(t *testing.T) {
		out, err := execute(t, "version")
		require.NoError(t, err)
		assert.Contains(t, out, "papertrader version "+version)
	})

	t.Run("config init", func(t *testing.T) {
		out, err := execute(t, "config", "init", "-o", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Created default configuration")
		assert.FileExists(t, cfgPath)
	})

	t.Run("config validate", func(t *testing.T) {
		out, err := execute(t, "config", "validate", "-f", cfgPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Configuration valid")
		assert.Contains(t, out, "Strategy: sma_rsi")
	})

	t.Run("data synth", func(t *testing.T) {
		out, err := execute(t, "data", "synth", "--bars", "400", "--seed", "3", "-o", barsPath)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 400 bars")

		bars, err := market.LoadBarsCSV(barsPath)
		require.NoError(t, err)
		assert.Len(t, bars, 400)
	})

	t.Run("backtest", func(t *testing.T) {
		out, err := execute(t, "backtest",
			"-d", barsPath,
			"--strategy", "ema_cross",
			"--param", "fast=5", "--param", "slow=20",
			"--max-position", "0.5",
			"--db", dbPath,
			"--org", orgPath,
			"--metrics-file", promPath,
		)
		require.NoError(t, err)
		assert.Contains(t, out, "Backtest Result")
		assert.Contains(t, out, "Org Report:")

		org, err := os.ReadFile(orgPath)
		require.NoError(t, err)
		assert.Contains(t, string(org), "* BACKTEST: ema_cross")

		prom, err := os.ReadFile(promPath)
		require.NoError(t, err)
		assert.Contains(t, string(prom), "papertrader_runs_total")
	})

	t.Run("backtest rejects bad param", func(t *testing.T) {
		// backtest flags are already changed, so only the invalid value differs.
		_, err := execute(t, "backtest", "-d", barsPath, "--max-position", "2", "--db", dbPath)
		assert.Error(t, err)
	})

	var runID string
	t.Run("journal runs", func(t *testing.T) {
		j, err := journal.NewSQLite(dbPath)
		require.NoError(t, err)
		runs, err := j.ListBacktestRuns(context.Background(), 0)
		require.NoError(t, err)
		require.NoError(t, j.Close())
		require.Len(t, runs, 1)
		runID = runs[0].RunID
		assert.Equal(t, "ema_cross", runs[0].Strategy)
		assert.Equal(t, barsPath, runs[0].Dataset)

		out, err := execute(t, "journal", "runs", "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, runID)
	})

	t.Run("journal show", func(t *testing.T) {
		out, err := execute(t, "journal", "show", runID, "--db", dbPath)
		require.NoError(t, err)
		assert.Contains(t, out, "* BACKTEST: ema_cross")
		assert.Contains(t, out, "** Performance Summary")
	})

	t.Run("journal show unknown run", func(t *testing.T) {
		_, err := execute(t, "journal", "show", "nope", "--db", dbPath)
		assert.Error(t, err)
	})

	t.Run("journal trades", func(t *testing.T) {
		_, err := execute(t, "journal", "trades", runID, "--db", dbPath)
		require.NoError(t, err)
	})

	t.Run("sweep", func(t *testing.T) {
		sweepDB := filepath.Join(dir, "sweep.sqlite")
		out, err := execute(t, "sweep",
			"--source", "synthetic", "--bars", "300", "--seed", "9",
			"--max-position", "0.1,0.2",
			"--stop-loss", "0.01,0.02",
			"--db", sweepDB,
		)
		require.NoError(t, err)
		assert.NotEmpty(t, out)

		j, err := journal.NewSQLite(sweepDB)
		require.NoError(t, err)
		defer j.Close()
		runs, err := j.ListBacktestRuns(context.Background(), 0)
		require.NoError(t, err)
		assert.Len(t, runs, 4)
	})
}
