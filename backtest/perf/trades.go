package perf

import "github.com/rustyeddy/papertrader/broker"

// TradeStats summarizes closed round trips: flat to long and back to flat.
type TradeStats struct {
	RoundTrips int
	Wins       int
	Losses     int
	WinRate    float64 // percent

	GrossProfit  float64
	GrossLoss    float64 // positive
	NetPL        float64
	ProfitFactor float64 // 0 when there are no losses
	AvgWin       float64
	AvgLoss      float64
	TotalFees    float64

	// Open is true when the last trip had not closed by the end of the run.
	Open bool
}

// RoundTrips replays fills and groups them into trips. A trip's P/L is the
// sum of its fills' cash deltas, so fees on both legs count.
func RoundTrips(fills []broker.Fill) TradeStats {
	var st TradeStats

	var (
		pos    float64
		tripPL float64
		inTrip bool
	)

	for _, f := range fills {
		st.TotalFees += f.Fee

		switch f.Side {
		case broker.Buy:
			if f.Size <= 0 {
				if inTrip {
					tripPL += f.CashDelta()
				}
				continue
			}
			if !inTrip {
				inTrip = true
				tripPL = 0
			}
			pos += f.Size
			tripPL += f.CashDelta()

		case broker.Sell:
			if !inTrip {
				continue
			}
			tripPL += f.CashDelta()
			pos -= f.Size
			if pos > 0 {
				continue
			}
			pos = 0
			inTrip = false
			st.add(tripPL)
		}
	}

	st.Open = inTrip
	if st.RoundTrips > 0 {
		st.WinRate = float64(st.Wins) / float64(st.RoundTrips) * 100
	}
	if st.Wins > 0 {
		st.AvgWin = st.GrossProfit / float64(st.Wins)
	}
	if st.Losses > 0 {
		st.AvgLoss = st.GrossLoss / float64(st.Losses)
	}
	if st.GrossLoss > 0 {
		st.ProfitFactor = st.GrossProfit / st.GrossLoss
	}
	return st
}

func (st *TradeStats) add(pl float64) {
	st.RoundTrips++
	st.NetPL += pl
	switch {
	case pl > 0:
		st.Wins++
		st.GrossProfit += pl
	case pl < 0:
		st.Losses++
		st.GrossLoss -= pl
	}
}
