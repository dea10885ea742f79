package journal

import (
	"errors"
	"time"
)

// TradeRecord is one entry of a run's trade log: a triggered buy or sell.
// Size is what was requested, FilledSize what the ledger executed after
// affordability clamping.
type TradeRecord struct {
	RunID      string
	Seq        int
	Time       time.Time
	Side       string
	Price      float64
	Size       float64
	FilledSize float64
	Fee        float64
	Reason     string
}

// EquitySnapshot is the mark-to-market state after one bar.
type EquitySnapshot struct {
	RunID        string
	Step         int
	Time         time.Time
	Cash         float64
	PositionSize float64
	Close        float64
	Equity       float64
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

type multi []Journal

// Multi fans every record out to all journals. Errors from each sink are
// joined; a failing sink does not stop the others.
func Multi(js ...Journal) Journal {
	out := make(multi, 0, len(js))
	for _, j := range js {
		if j != nil {
			out = append(out, j)
		}
	}
	return out
}

func (m multi) RecordTrade(t TradeRecord) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordTrade(t))
	}
	return errors.Join(errs...)
}

func (m multi) RecordEquity(e EquitySnapshot) error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.RecordEquity(e))
	}
	return errors.Join(errs...)
}

func (m multi) Close() error {
	var errs []error
	for _, j := range m {
		errs = append(errs, j.Close())
	}
	return errors.Join(errs...)
}
