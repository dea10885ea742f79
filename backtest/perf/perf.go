// Package perf derives performance metrics from an equity curve and the
// fill history of a run.
package perf

import (
	"math"

	"github.com/rustyeddy/papertrader/market"
)

// Epsilon keeps the Sharpe-like ratio finite for a flat return series.
const Epsilon = 1e-12

// MinuteBarsPerYear is the fallback when the bar frequency is unknown.
const MinuteBarsPerYear = 252 * 24 * 60

type Metrics struct {
	FinalEquity    float64
	TotalReturnPct float64
	SharpeLike     float64
	MaxDrawdownPct float64
	NumTrades      int
}

// Analyze computes metrics for curve. numTrades is the length of the trade
// log, not the fill count. An empty curve reports startingEquity as the
// final equity and zero everywhere else.
func Analyze(curve []float64, numTrades int, startingEquity, annualization float64) Metrics {
	m := Metrics{
		FinalEquity: startingEquity,
		NumTrades:   numTrades,
	}
	if len(curve) == 0 {
		return m
	}
	m.FinalEquity = curve[len(curve)-1]

	if len(curve) >= 2 && curve[0] != 0 {
		m.TotalReturnPct = (curve[len(curve)-1]/curve[0] - 1) * 100
	}

	rets := Returns(curve)
	if len(rets) > 2 {
		mean, std := meanStd(rets)
		m.SharpeLike = mean / (std + Epsilon) * math.Sqrt(annualization)
	}

	m.MaxDrawdownPct = MaxDrawdown(curve) * 100
	return m
}

// Returns are the step returns of curve. A step from zero equity counts as 0.
func Returns(curve []float64) []float64 {
	if len(curve) < 2 {
		return nil
	}
	out := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1]
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (curve[i]-prev)/prev)
	}
	return out
}

// MaxDrawdown is the largest fractional decline from a running peak. The
// peak moves before the step's drawdown is taken, so a new high is 0.
func MaxDrawdown(curve []float64) float64 {
	peak := math.Inf(-1)
	maxDD := 0.0
	for _, v := range curve {
		if v > peak {
			peak = v
		}
		dd := 0.0
		if peak > 0 {
			dd = (peak - v) / peak
		}
		if dd > maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// meanStd returns the mean and population standard deviation.
func meanStd(xs []float64) (mean, std float64) {
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))

	var ss float64
	for _, x := range xs {
		d := x - mean
		ss += d * d
	}
	return mean, math.Sqrt(ss / float64(len(xs)))
}

// AnnualizationFactor converts the median bar spacing into bars per
// trading year (252 days). With fewer than two bars it assumes minute bars.
func AnnualizationFactor(bars []market.Bar) float64 {
	iv := market.InferInterval(bars)
	if iv <= 0 {
		return MinuteBarsPerYear
	}
	return 252 * 86400 / iv.Seconds()
}
