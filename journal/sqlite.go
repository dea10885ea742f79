package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/papertrader/internal/core"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("journal: create schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, seq, time, side, price, size, filled_size, fee, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.Seq, t.Time.UTC(), t.Side, t.Price,
		t.Size, t.FilledSize, t.Fee, t.Reason,
	)
	return err
}

func (j *SQLite) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, step, time, cash, position_size, close, equity)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Step, e.Time.UTC(), e.Cash, e.PositionSize, e.Close, e.Equity,
	)
	return err
}

// RecordBacktest stores the run summary, replacing an earlier row with the
// same run ID.
func (j *SQLite) RecordBacktest(ctx context.Context, r BacktestRun) error {
	if r.RunID == "" {
		return core.Errorf(core.ErrInvalidParameter, "backtest run id is required")
	}
	_, err := j.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO backtest_runs
		(run_id, created, strategy, symbol, timeframe, dataset, config,
		 start_time, end_time, bars, trades, round_trips, wins, losses,
		 start_equity, end_equity, net_pl, return_pct, sharpe_like, max_dd_pct,
		 win_rate, profit_factor, fees, org_path, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Strategy, r.Symbol, r.Timeframe, r.Dataset, r.Config,
		r.Start.UTC(), r.End.UTC(), r.Bars, r.Trades, r.RoundTrips, r.Wins, r.Losses,
		r.StartEquity, r.EndEquity, r.NetPL, r.ReturnPct, r.SharpeLike, r.MaxDDPct,
		r.WinRate, r.ProfitFactor, r.Fees, r.OrgPath, strings.Join(r.Notes, "\n"),
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
