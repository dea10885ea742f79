package cmd

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/backtest"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/metrics"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/strategies"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Run a backtest of one strategy over one bar series",
	Long: `Backtest generates signals with a registered strategy and steps them
through a paper ledger, one bar at a time.

Example:
  papertrader backtest --data data/btcusdt-1m.csv --strategy sma_rsi --param fast_sma=5
  papertrader backtest --source synthetic --bars 5000 --seed 7 --db runs.sqlite --org run.org`,
	RunE: runBacktest,
}

var (
	btSource   string
	btData     string
	btSymbol   string
	btInterval string
	btBars     int
	btSeed     int64

	btStrategy string
	btParams   map[string]string

	btEquity       float64
	btFee          float64
	btSlippage     float64
	btMaxPosition  float64
	btStopLoss     float64
	btTakeProfit   float64
	btEnforceStops bool

	btDB        string
	btTradesCSV string
	btEquityCSV string
	btOrg       string
	btMetrics   string
)

// addRunFlags registers the flags shared by backtest and sweep.
func addRunFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVar(&btSource, "source", "", "bar source: csv, synthetic or binance")
	f.StringVarP(&btData, "data", "d", "", "bar CSV path (implies --source csv)")
	f.StringVar(&btSymbol, "symbol", "", "symbol for binance bars")
	f.StringVar(&btInterval, "interval", "", "bar interval, e.g. 1m, 1h")
	f.IntVar(&btBars, "bars", 0, "number of synthetic or binance bars")
	f.Int64Var(&btSeed, "seed", 0, "synthetic random seed")

	f.StringVarP(&btStrategy, "strategy", "s", "", "strategy name ("+strings.Join(strategies.Names(), ", ")+")")
	f.StringToStringVarP(&btParams, "param", "p", nil, "strategy parameter, key=value (repeatable)")

	f.Float64Var(&btEquity, "equity", 0, "starting equity")
	f.Float64Var(&btFee, "fee", 0, "fee fraction per fill")
	f.Float64Var(&btSlippage, "slippage", 0, "slippage fraction applied to trade prices")
	f.BoolVar(&btEnforceStops, "enforce-stops", false, "exit when a bar touches the stop or target")

	f.StringVar(&btDB, "db", "", "SQLite journal path")
	f.StringVar(&btTradesCSV, "trades-csv", "", "CSV trade log path (with --equity-csv)")
	f.StringVar(&btEquityCSV, "equity-csv", "", "CSV equity curve path (with --trades-csv)")
	f.StringVar(&btMetrics, "metrics-file", "", "write Prometheus metrics to this textfile")
}

func init() {
	rootCmd.AddCommand(backtestCmd)
	addRunFlags(backtestCmd)

	f := backtestCmd.Flags()
	f.Float64Var(&btMaxPosition, "max-position", 0, "fraction of equity per entry")
	f.Float64Var(&btStopLoss, "stop-loss", 0, "stop distance as a fraction of entry")
	f.Float64Var(&btTakeProfit, "take-profit", 0, "target distance as a fraction of entry")
	f.StringVar(&btOrg, "org", "", "write an Org-mode report to this path")
}

// runConfig merges the changed flags of c over the loaded config. tweak
// applies command specific flags before validation.
func runConfig(c *cobra.Command, tweak func(*config.Config)) (config.Config, error) {
	out := *cfg
	f := c.Flags()

	if f.Changed("source") {
		out.Data.Source = btSource
	}
	if f.Changed("data") {
		out.Data.Source = "csv"
		out.Data.Path = btData
	}
	if f.Changed("symbol") {
		out.Data.Symbol = btSymbol
	}
	if f.Changed("interval") {
		out.Data.Interval = btInterval
	}
	if f.Changed("bars") {
		out.Data.Bars = btBars
	}
	if f.Changed("seed") {
		out.Data.Seed = btSeed
	}

	if f.Changed("strategy") {
		out.Strategy.Name = btStrategy
		out.Strategy.Params = nil
	}
	if f.Changed("param") {
		params := make(map[string]float64, len(out.Strategy.Params)+len(btParams))
		for k, v := range out.Strategy.Params {
			params[k] = v
		}
		for k, v := range btParams {
			x, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return config.Config{}, fmt.Errorf("param %s: %w", k, err)
			}
			params[k] = x
		}
		out.Strategy.Params = params
	}

	e := &out.Engine
	if f.Changed("equity") {
		e.StartingEquity = btEquity
	}
	if f.Changed("fee") {
		e.FeePct = btFee
	}
	if f.Changed("slippage") {
		e.SlippagePct = btSlippage
	}
	if f.Changed("enforce-stops") {
		e.EnforceStops = btEnforceStops
	}
	if tweak != nil {
		tweak(&out)
	}

	if f.Changed("db") {
		out.Journal = config.JournalConfig{Type: "sqlite", DBPath: btDB}
	}
	if f.Changed("trades-csv") || f.Changed("equity-csv") {
		out.Journal = config.JournalConfig{Type: "csv", TradesFile: btTradesCSV, EquityFile: btEquityCSV}
	}

	if err := out.Validate(); err != nil {
		return config.Config{}, err
	}
	return out, nil
}

// prepared holds what backtest and sweep share once flags are resolved.
type prepared struct {
	cfg     config.Config
	meta    backtest.RunMeta
	opts    []backtest.Option
	sqlite  *journal.SQLite
	metrics *metrics.Registry
	closers []func() error
}

func (p *prepared) close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			log.Warn("close", zap.Error(err))
		}
	}
}

func prepare(c *cobra.Command, tweak func(*config.Config)) (*prepared, error) {
	rc, err := runConfig(c, tweak)
	if err != nil {
		return nil, err
	}

	p := &prepared{
		cfg: rc,
		meta: backtest.RunMeta{
			Strategy:  rc.Strategy.Name,
			Params:    rc.Strategy.Params,
			Symbol:    rc.Data.Symbol,
			Timeframe: rc.Data.Interval,
			Dataset:   datasetName(rc.Data),
		},
		opts: []backtest.Option{backtest.WithLogger(log)},
	}

	j, sq, err := openJournal(rc.Journal)
	if err != nil {
		return nil, err
	}
	if j != nil {
		p.opts = append(p.opts, backtest.WithJournal(j))
		p.closers = append(p.closers, j.Close)
	}
	p.sqlite = sq

	if btMetrics != "" {
		p.metrics = metrics.NewRegistry()
		p.opts = append(p.opts, backtest.WithObserver(p.metrics))
	}
	return p, nil
}

type loaded struct {
	bars    []market.Bar
	signals []strategies.Signal
}

func (p *prepared) signals(ctx context.Context) (*loaded, error) {
	bars, err := loadBars(ctx, p.cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("load bars: %w", err)
	}
	s, err := strategies.New(p.cfg.Strategy.Name, p.cfg.Strategy.Params)
	if err != nil {
		return nil, err
	}
	sigs := strategies.Generate(s, bars)

	log.Info("bars loaded",
		zap.String("dataset", p.meta.Dataset),
		zap.Int("bars", len(bars)),
		zap.String("strategy", s.Name()),
	)
	return &loaded{bars: bars, signals: sigs}, nil
}

func (p *prepared) writeMetrics() error {
	if p.metrics == nil {
		return nil
	}
	if err := p.metrics.WriteTextfile(btMetrics); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}

func runBacktest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := prepare(cmd, func(c *config.Config) {
		f := cmd.Flags()
		if f.Changed("max-position") {
			c.Engine.MaxPositionPct = btMaxPosition
		}
		if f.Changed("stop-loss") {
			c.Engine.StopLossPct = btStopLoss
		}
		if f.Changed("take-profit") {
			c.Engine.TakeProfitPct = btTakeProfit
		}
	})
	if err != nil {
		return err
	}
	defer p.close()

	in, err := p.signals(ctx)
	if err != nil {
		return err
	}

	runner, err := backtest.NewRunner(p.cfg.Engine, p.opts...)
	if err != nil {
		return err
	}
	res, err := runner.Run(ctx, in.bars, in.signals)
	if err != nil {
		return fmt.Errorf("backtest: %w", err)
	}

	backtest.PrintResult(cmd.OutOrStdout(), res)

	meta := p.meta
	meta.OrgPath = btOrg
	run := res.BacktestRun(meta)

	if p.sqlite != nil {
		if err := p.sqlite.RecordBacktest(ctx, run); err != nil {
			return fmt.Errorf("record run: %w", err)
		}
	}
	if btOrg != "" {
		if err := run.WriteBacktestOrg(res.JournalTrades()); err != nil {
			return fmt.Errorf("org report: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Org Report:    %s\n", btOrg)
	}
	return p.writeMetrics()
}
