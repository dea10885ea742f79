package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/config"
)

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run a parameter sweep over the risk settings",
	Long: `Sweep runs one backtest per combination of the listed risk settings,
in parallel, over the same bars and signals.

Example:
  papertrader sweep --source synthetic --bars 5000 \
    --max-position 0.1,0.2,0.5 --stop-loss 0.01,0.02 --enforce-stops`,
	RunE: runSweep,
}

var (
	swMaxPosition []float64
	swStopLoss    []float64
	swTakeProfit  []float64
)

func init() {
	rootCmd.AddCommand(sweepCmd)
	addRunFlags(sweepCmd)

	f := sweepCmd.Flags()
	f.Float64SliceVar(&swMaxPosition, "max-position", nil, "max position fractions to try")
	f.Float64SliceVar(&swStopLoss, "stop-loss", nil, "stop loss fractions to try")
	f.Float64SliceVar(&swTakeProfit, "take-profit", nil, "take profit fractions to try")
}

// grid expands base over every combination of the given values. An empty
// list keeps the base value.
func grid(base config.Engine, maxPos, sl, tp []float64) []config.Engine {
	orBase := func(xs []float64, v float64) []float64 {
		if len(xs) == 0 {
			return []float64{v}
		}
		return xs
	}

	var out []config.Engine
	for _, m := range orBase(maxPos, base.MaxPositionPct) {
		for _, s := range orBase(sl, base.StopLossPct) {
			for _, t := range orBase(tp, base.TakeProfitPct) {
				e := base
				e.MaxPositionPct = m
				e.StopLossPct = s
				e.TakeProfitPct = t
				out = append(out, e)
			}
		}
	}
	return out
}

func runSweep(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := prepare(cmd, nil)
	if err != nil {
		return err
	}
	defer p.close()

	in, err := p.signals(ctx)
	if err != nil {
		return err
	}

	cfgs := grid(p.cfg.Engine, swMaxPosition, swStopLoss, swTakeProfit)
	results, err := backtest.Sweep(ctx, in.bars, in.signals, cfgs, p.opts...)
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}

	backtest.PrintSweep(cmd.OutOrStdout(), results)

	if p.sqlite != nil {
		for _, res := range results {
			if err := p.sqlite.RecordBacktest(ctx, res.BacktestRun(p.meta)); err != nil {
				return fmt.Errorf("record run: %w", err)
			}
		}
	}
	return p.writeMetrics()
}
