package journal

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/rustyeddy/papertrader/internal/core"
)

const runColumns = `run_id, created, strategy, symbol, timeframe, dataset, config,
	start_time, end_time, bars, trades, round_trips, wins, losses,
	start_equity, end_equity, net_pl, return_pct, sharpe_like, max_dd_pct,
	win_rate, profit_factor, fees, org_path, notes`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (BacktestRun, error) {
	var r BacktestRun
	var notes string
	err := s.Scan(
		&r.RunID, &r.Created, &r.Strategy, &r.Symbol, &r.Timeframe, &r.Dataset, &r.Config,
		&r.Start, &r.End, &r.Bars, &r.Trades, &r.RoundTrips, &r.Wins, &r.Losses,
		&r.StartEquity, &r.EndEquity, &r.NetPL, &r.ReturnPct, &r.SharpeLike, &r.MaxDDPct,
		&r.WinRate, &r.ProfitFactor, &r.Fees, &r.OrgPath, &notes,
	)
	if err != nil {
		return BacktestRun{}, err
	}
	if notes != "" {
		r.Notes = strings.Split(notes, "\n")
	}
	return r, nil
}

// GetBacktestRun returns a single run summary by ID.
func (j *SQLite) GetBacktestRun(ctx context.Context, runID string) (BacktestRun, error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)

	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return BacktestRun{}, core.Errorf(core.ErrNotFound, "backtest run %q", runID)
	}
	return r, err
}

// ListBacktestRuns returns the most recent runs first. limit <= 0 means all.
func (j *SQLite) ListBacktestRuns(ctx context.Context, limit int) ([]BacktestRun, error) {
	q := `SELECT ` + runColumns + ` FROM backtest_runs ORDER BY created DESC, run_id DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []BacktestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTradesByRunID returns a run's trade log in sequence order.
func (j *SQLite) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, seq, time, side, price, size, filled_size, fee, reason
		FROM trades
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.RunID,
			&rec.Seq,
			&rec.Time,
			&rec.Side,
			&rec.Price,
			&rec.Size,
			&rec.FilledSize,
			&rec.Fee,
			&rec.Reason,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListEquityByRunID returns a run's equity snapshots in step order.
func (j *SQLite) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT run_id, step, time, cash, position_size, close, equity
		FROM equity
		WHERE run_id = ?
		ORDER BY step ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.RunID,
			&e.Step,
			&e.Time,
			&e.Cash,
			&e.PositionSize,
			&e.Close,
			&e.Equity,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportBacktestOrg loads a run with its trades and renders the Org report.
func (j *SQLite) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	r, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}
	return FormatBacktestOrg(r, trades)
}
