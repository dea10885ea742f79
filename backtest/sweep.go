package backtest

import (
	"context"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/internal/id"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/market"
	"github.com/rustyeddy/papertrader/market/strategies"
)

// Sweep runs one backtest per engine config over the same bars and
// signals. Runs execute concurrently on independent brokers; results come
// back in cfgs order. The first failing run cancels the rest.
func Sweep(ctx context.Context, bars []market.Bar, signals []strategies.Signal, cfgs []config.Engine, opts ...Option) ([]Result, error) {
	var mu sync.Mutex
	runners := make([]*Runner, len(cfgs))
	for i, cfg := range cfgs {
		r, err := NewRunner(cfg, opts...)
		if err != nil {
			return nil, err
		}
		r.runID = id.New()
		if r.journal != nil {
			r.journal = &lockedJournal{j: r.journal, mu: &mu}
		}
		runners[i] = r
	}

	results := make([]Result, len(cfgs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, r := range runners {
		i, r := i, r
		g.Go(func() error {
			res, err := r.Run(ctx, bars, signals)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// lockedJournal serializes writes from concurrent runs into one sink.
type lockedJournal struct {
	j  journal.Journal
	mu *sync.Mutex
}

func (l *lockedJournal) RecordTrade(t journal.TradeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.j.RecordTrade(t)
}

func (l *lockedJournal) RecordEquity(e journal.EquitySnapshot) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.j.RecordEquity(e)
}

func (l *lockedJournal) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.j.Close()
}
