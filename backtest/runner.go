package backtest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/papertrader/backtest/perf"
	"github.com/rustyeddy/papertrader/broker"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/internal/logger"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/strategies"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/rustyeddy/papertrader/sim"
)

// Observer receives every fill of a run and a summary once it ends.
type Observer interface {
	ObserveFill(f broker.Fill, acct broker.Account)
	ObserveRun(runID string, bars int, elapsed time.Duration, err error)
}

// BrokerFactory builds the execution venue for one run. Each Run calls it
// once, so the venue must start from cfg.StartingEquity.
type BrokerFactory func(cfg config.Engine, log *zap.Logger) (broker.Broker, error)

// PaperBroker is the default BrokerFactory: a fresh sim.Ledger.
func PaperBroker(cfg config.Engine, log *zap.Logger) (broker.Broker, error) {
	l, err := sim.NewLedger(cfg.StartingEquity, cfg.FeePct, log)
	if err != nil {
		return nil, err
	}
	return l, nil
}

// Option configures a Runner.
type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.log = logger.OrNop(l) }
}

// WithJournal writes every trade record and equity snapshot to j.
func WithJournal(j journal.Journal) Option {
	return func(r *Runner) { r.journal = j }
}

func WithObserver(o Observer) Option {
	return func(r *Runner) { r.observer = o }
}

// WithBroker replaces the paper ledger with the venue f builds.
func WithBroker(f BrokerFactory) Option {
	return func(r *Runner) { r.newBroker = f }
}

// WithRunID fixes the run ID. By default each Run gets a fresh ULID.
func WithRunID(runID string) Option {
	return func(r *Runner) { r.runID = runID }
}

// Runner steps a bar series and its signals through a fresh broker, a
// paper ledger unless WithBroker says otherwise. A Runner holds no per-run
// state, so one Runner may serve many runs.
type Runner struct {
	cfg       config.Engine
	sizer     *risk.Sizer
	newBroker BrokerFactory

	log      *zap.Logger
	journal  journal.Journal
	observer Observer
	runID    string
}

func NewRunner(cfg config.Engine, opts ...Option) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	sizer, err := risk.NewSizer(cfg.MaxPositionPct, cfg.StopLossPct, cfg.TakeProfitPct)
	if err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, err)
	}

	r := &Runner{
		cfg:       cfg,
		sizer:     sizer,
		newBroker: PaperBroker,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Runner) Config() config.Engine { return r.cfg }

// RunStrategy generates signals with s and runs them.
func (r *Runner) RunStrategy(ctx context.Context, bars []market.Bar, s strategies.Strategy) (Result, error) {
	return r.Run(ctx, bars, strategies.Generate(s, bars))
}

// Run executes the backtest loop. For each bar i:
//  1. with enforce_stops, exit an open position whose stop or target the bar touched
//  2. FLAT and LongEntry: buy the sizer's size at close*(1+slippage)
//  3. LONG and Exit: sell the whole position at close*(1+slippage)
//  4. snapshot cash + position*close
//
// Open positions are not liquidated after the last bar.
func (r *Runner) Run(ctx context.Context, bars []market.Bar, signals []strategies.Signal) (res Result, err error) {
	runID := r.runID
	if runID == "" {
		runID = id.New()
	}
	log := r.log.With(zap.String("run_id", runID))

	began := time.Now()
	defer func() {
		if r.observer != nil {
			r.observer.ObserveRun(runID, len(bars), time.Since(began), err)
		}
	}()

	if len(bars) != len(signals) {
		return Result{}, core.Errorf(core.ErrInvalidInput,
			"%d bars but %d signals", len(bars), len(signals))
	}
	if err := market.ValidateBars(bars); err != nil {
		return Result{}, err
	}

	venue, err := r.newBroker(r.cfg, log)
	if err != nil {
		return Result{}, core.WrapError(core.ErrConfigInvalid, err)
	}
	acct, err := venue.GetAccount(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("backtest: account: %w", err)
	}

	st := &runState{
		Runner: r,
		ctx:    ctx,
		runID:  runID,
		log:    log,
		broker: venue,
		acct:   acct,
		equity: make([]float64, 0, len(bars)),
	}

	log.Info("backtest start",
		zap.Int("bars", len(bars)),
		zap.Float64("starting_equity", r.cfg.StartingEquity),
		zap.Bool("enforce_stops", r.cfg.EnforceStops),
	)

	for i, b := range bars {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if err := st.step(i, b, signals[i]); err != nil {
			return Result{}, err
		}
	}

	ann := r.cfg.AnnualizationFactor
	if ann <= 0 {
		ann = perf.AnnualizationFactor(bars)
	}

	res = Result{
		RunID:         runID,
		Config:        r.cfg,
		Metrics:       perf.Analyze(st.equity, len(st.trades), r.cfg.StartingEquity, ann),
		Stats:         perf.RoundTrips(st.fills),
		Trades:        st.trades,
		Equity:        st.equity,
		Fills:         st.fills,
		Fees:          st.fees,
		Bars:          len(bars),
		Annualization: ann,
	}
	if len(bars) > 0 {
		res.Start = bars[0].Time
		res.End = bars[len(bars)-1].Time
		res.OpenPL = sim.UnrealizedPL(st.acct.Position, bars[len(bars)-1].Close)
	}
	res.Final = st.acct

	log.Info("backtest done",
		zap.Int("trades", res.Metrics.NumTrades),
		zap.Float64("final_equity", res.Metrics.FinalEquity),
		zap.Float64("return_pct", res.Metrics.TotalReturnPct),
		zap.Float64("max_dd_pct", res.Metrics.MaxDrawdownPct),
		zap.Duration("elapsed", time.Since(began)),
	)
	return res, nil
}

// runState is the mutable state of one Run.
type runState struct {
	*Runner
	ctx    context.Context
	runID  string
	log    *zap.Logger
	broker broker.Broker

	// account as of the last fill
	acct  broker.Account
	fills []broker.Fill
	fees  float64

	trades []TradeRecord
	equity []float64

	// levels of the open position, used when stops are enforced
	entryIdx   int
	stopLoss   *float64
	takeProfit *float64
}

func (st *runState) long() bool {
	return st.acct.Position.Size > 0
}

// order executes req and refreshes the account.
func (st *runState) order(req broker.MarketOrderRequest) (broker.Fill, error) {
	fill, err := st.broker.CreateMarketOrder(st.ctx, req)
	if err != nil {
		return broker.Fill{}, err
	}
	acct, err := st.broker.GetAccount(st.ctx)
	if err != nil {
		return broker.Fill{}, fmt.Errorf("backtest: account: %w", err)
	}

	st.acct = acct
	st.fills = append(st.fills, fill)
	st.fees += fill.Fee
	if st.observer != nil {
		st.observer.ObserveFill(fill, acct)
	}
	return fill, nil
}

func (st *runState) step(i int, b market.Bar, sig strategies.Signal) error {
	if st.cfg.EnforceStops && st.long() && i > st.entryIdx {
		if px, reason, hit := sim.CheckExit(b, st.stopLoss, st.takeProfit); hit {
			if err := st.closePosition(b, px, reason); err != nil {
				return err
			}
		}
	}

	switch {
	case sig == strategies.LongEntry && !st.long():
		if err := st.openPosition(i, b); err != nil {
			return err
		}
	case sig == strategies.Exit && st.long():
		px := b.Close * (1 + st.cfg.SlippagePct)
		if err := st.closePosition(b, px, sim.ReasonSignal); err != nil {
			return err
		}
	}

	acct := st.acct
	mark := sim.MarkToMarket(acct, b.Close)
	st.equity = append(st.equity, mark)

	if st.journal != nil {
		err := st.journal.RecordEquity(journal.EquitySnapshot{
			RunID:        st.runID,
			Step:         i,
			Time:         b.Time,
			Cash:         acct.Equity,
			PositionSize: acct.Position.Size,
			Close:        b.Close,
			Equity:       mark,
		})
		if err != nil {
			return fmt.Errorf("backtest: journal equity: %w", err)
		}
	}
	return nil
}

func (st *runState) openPosition(i int, b market.Bar) error {
	px := b.Close * (1 + st.cfg.SlippagePct)

	size, err := st.sizer.PositionSize(st.acct.Equity, px)
	if err != nil {
		return err
	}
	sl, tp, err := st.sizer.Stops(px)
	if err != nil {
		return err
	}

	fill, err := st.order(broker.MarketOrderRequest{
		Side: broker.Buy, Price: px, Size: size, StopLoss: &sl, TakeProfit: &tp,
	})
	if err != nil {
		return err
	}

	st.entryIdx = i
	st.stopLoss = fill.StopLoss
	st.takeProfit = fill.TakeProfit
	st.log.Debug("entry",
		zap.Float64("planned_risk", risk.PlannedRisk(fill.Size, px, sl)),
		zap.Float64("rr", risk.RR(px, sl, tp)),
	)

	return st.record(TradeRecord{
		Time:       b.Time,
		Side:       broker.Buy,
		Price:      px,
		Size:       size,
		FilledSize: fill.Size,
		Fee:        fill.Fee,
		Reason:     sim.ReasonSignal,
		StopLoss:   fill.StopLoss,
		TakeProfit: fill.TakeProfit,
	})
}

func (st *runState) closePosition(b market.Bar, px float64, reason sim.Reason) error {
	size := st.acct.Position.Size

	fill, err := st.order(broker.MarketOrderRequest{Side: broker.Sell, Price: px, Size: size})
	if err != nil {
		return err
	}

	st.stopLoss, st.takeProfit = nil, nil

	return st.record(TradeRecord{
		Time:       b.Time,
		Side:       broker.Sell,
		Price:      px,
		Size:       size,
		FilledSize: fill.Size,
		Fee:        fill.Fee,
		Reason:     reason,
	})
}

func (st *runState) record(t TradeRecord) error {
	st.trades = append(st.trades, t)
	st.log.Debug("trade",
		zap.Int("seq", len(st.trades)),
		zap.String("side", string(t.Side)),
		zap.Float64("price", t.Price),
		zap.Float64("size", t.Size),
		zap.Float64("filled", t.FilledSize),
		zap.String("reason", string(t.Reason)),
	)

	if st.journal == nil {
		return nil
	}
	err := st.journal.RecordTrade(journal.TradeRecord{
		RunID:      st.runID,
		Seq:        len(st.trades),
		Time:       t.Time,
		Side:       string(t.Side),
		Price:      t.Price,
		Size:       t.Size,
		FilledSize: t.FilledSize,
		Fee:        t.Fee,
		Reason:     string(t.Reason),
	})
	if err != nil {
		return fmt.Errorf("backtest: journal trade: %w", err)
	}
	return nil
}
