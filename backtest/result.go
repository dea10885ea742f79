package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rustyeddy/papertrader/backtest/perf"
	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/sim"
)

// TradeRecord is one entry of the trade log. Size is what the runner asked
// for; FilledSize is what the ledger executed.
type TradeRecord struct {
	Time       time.Time
	Side       broker.Side
	Price      float64
	Size       float64
	FilledSize float64
	Fee        float64
	Reason     sim.Reason
	StopLoss   *float64
	TakeProfit *float64
}

// Result is everything a run produced.
type Result struct {
	RunID  string
	Config config.Engine

	Metrics perf.Metrics
	Stats   perf.TradeStats

	Trades []TradeRecord
	Equity []float64 // one mark-to-market value per bar
	Fills  []broker.Fill
	Fees   float64

	// Final is the account after the last bar; a position may remain open.
	Final broker.Account
	// OpenPL is the unrealized profit of Final's position at the last close.
	OpenPL float64

	Bars          int
	Annualization float64
	Start         time.Time
	End           time.Time
}

// RunMeta describes where a run's inputs came from.
type RunMeta struct {
	Strategy  string
	Params    map[string]float64
	Symbol    string
	Timeframe string
	Dataset   string
	OrgPath   string
	Notes     []string
}

// BacktestRun flattens r into the journal's run summary row.
func (r Result) BacktestRun(meta RunMeta) journal.BacktestRun {
	cfg, _ := json.Marshal(struct {
		Engine config.Engine      `json:"engine"`
		Params map[string]float64 `json:"params,omitempty"`
	}{r.Config, meta.Params})

	return journal.BacktestRun{
		RunID:        r.RunID,
		Created:      time.Now().UTC(),
		Timeframe:    meta.Timeframe,
		Dataset:      meta.Dataset,
		Symbol:       meta.Symbol,
		Strategy:     meta.Strategy,
		Config:       cfg,
		Start:        r.Start,
		End:          r.End,
		Bars:         r.Bars,
		Trades:       r.Metrics.NumTrades,
		RoundTrips:   r.Stats.RoundTrips,
		Wins:         r.Stats.Wins,
		Losses:       r.Stats.Losses,
		StartEquity:  r.Config.StartingEquity,
		EndEquity:    r.Metrics.FinalEquity,
		NetPL:        r.Metrics.FinalEquity - r.Config.StartingEquity,
		ReturnPct:    r.Metrics.TotalReturnPct,
		SharpeLike:   r.Metrics.SharpeLike,
		MaxDDPct:     r.Metrics.MaxDrawdownPct,
		WinRate:      r.Stats.WinRate,
		ProfitFactor: r.Stats.ProfitFactor,
		Fees:         r.Fees,
		OrgPath:      meta.OrgPath,
		Notes:        meta.Notes,
	}
}

// JournalTrades converts the trade log into journal records.
func (r Result) JournalTrades() []journal.TradeRecord {
	out := make([]journal.TradeRecord, len(r.Trades))
	for i, t := range r.Trades {
		out[i] = journal.TradeRecord{
			RunID:      r.RunID,
			Seq:        i + 1,
			Time:       t.Time,
			Side:       string(t.Side),
			Price:      t.Price,
			Size:       t.Size,
			FilledSize: t.FilledSize,
			Fee:        t.Fee,
			Reason:     string(t.Reason),
		}
	}
	return out
}

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)

	if r.Bars > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Period")
		fmt.Fprintln(w, "--------------------------------------------------")
		fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
		fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Bars:          %d\n", r.Bars)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Engine Configuration")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Fee:           %.4f%%\n", r.Config.FeePct*100)
	fmt.Fprintf(w, "Slippage:      %.4f%%\n", r.Config.SlippagePct*100)
	fmt.Fprintf(w, "Max Position:  %.2f%%\n", r.Config.MaxPositionPct*100)
	fmt.Fprintf(w, "Stop Loss:     %.2f%%\n", r.Config.StopLossPct*100)
	fmt.Fprintf(w, "Take Profit:   %.2f%%\n", r.Config.TakeProfitPct*100)
	fmt.Fprintf(w, "Enforce Stops: %t\n", r.Config.EnforceStops)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Metrics.NumTrades)
	fmt.Fprintf(w, "Round Trips:   %d\n", r.Stats.RoundTrips)
	fmt.Fprintf(w, "Wins:          %d\n", r.Stats.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Stats.Losses)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.Stats.WinRate)
	if r.Stats.Open {
		fmt.Fprintf(w, "Open Position: %.6f\n", r.Final.Position.Size)
		fmt.Fprintf(w, "Open P/L:      %.2f\n", r.OpenPL)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Equity:  %.2f\n", r.Config.StartingEquity)
	fmt.Fprintf(w, "Final Equity:  %.2f\n", r.Metrics.FinalEquity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.Metrics.FinalEquity-r.Config.StartingEquity)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.Metrics.TotalReturnPct)
	fmt.Fprintf(w, "Sharpe-like:   %.4f\n", r.Metrics.SharpeLike)
	fmt.Fprintf(w, "Max Drawdown:  %.2f%%\n", r.Metrics.MaxDrawdownPct)
	fmt.Fprintf(w, "Fees:          %.2f\n", r.Fees)

	if r.Stats.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.Stats.ProfitFactor)
	}

	fmt.Fprintln(w)
}

// PrintSweep prints one line per result.
func PrintSweep(w io.Writer, rs []Result) {
	fmt.Fprintf(w, "%-28s %8s %8s %8s %10s %10s %8s %6s\n",
		"run", "maxpos", "sl", "tp", "final", "return%", "maxdd%", "trades")
	for _, r := range rs {
		fmt.Fprintf(w, "%-28s %8.4f %8.4f %8.4f %10.2f %10.2f %8.2f %6d\n",
			r.RunID, r.Config.MaxPositionPct, r.Config.StopLossPct, r.Config.TakeProfitPct,
			r.Metrics.FinalEquity, r.Metrics.TotalReturnPct, r.Metrics.MaxDrawdownPct, r.Metrics.NumTrades)
	}
}
