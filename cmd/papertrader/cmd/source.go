package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/binance"
)

// loadBars reads bars from the configured source.
func loadBars(ctx context.Context, d config.DataConfig) ([]market.Bar, error) {
	switch d.Source {
	case "csv":
		return market.LoadBarsCSV(d.Path)

	case "synthetic":
		iv, err := market.ParseInterval(d.Interval)
		if err != nil {
			return nil, err
		}
		return market.Synthetic{Seed: d.Seed, Interval: iv}.Generate(d.Bars)

	case "binance":
		src := binance.New(binance.Config{
			APIKey:    os.Getenv("BINANCE_API_KEY"),
			SecretKey: os.Getenv("BINANCE_SECRET_KEY"),
			Logger:    log,
		})
		if d.Bars <= 1000 {
			return src.Fetch(ctx, d.Symbol, d.Interval, d.Bars)
		}
		iv, err := market.ParseInterval(d.Interval)
		if err != nil {
			return nil, err
		}
		end := time.Now().Truncate(iv)
		return src.FetchRange(ctx, d.Symbol, d.Interval, end.Add(-iv*time.Duration(d.Bars)), end)

	default:
		return nil, fmt.Errorf("unknown data source %q", d.Source)
	}
}

func datasetName(d config.DataConfig) string {
	switch d.Source {
	case "csv":
		return d.Path
	case "synthetic":
		return fmt.Sprintf("synthetic:seed=%d", d.Seed)
	default:
		return d.Source + ":" + d.Symbol
	}
}

// openJournal builds the configured sinks. The SQLite journal is also
// returned on its own for run summaries; it is nil for other types.
func openJournal(jc config.JournalConfig) (journal.Journal, *journal.SQLite, error) {
	switch jc.Type {
	case "", "none":
		return nil, nil, nil
	case "csv":
		j, err := journal.NewCSV(jc.TradesFile, jc.EquityFile)
		if err != nil {
			return nil, nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil, nil
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open db: %w", err)
		}
		return j, j, nil
	default:
		return nil, nil, fmt.Errorf("unknown journal type %q", jc.Type)
	}
}
