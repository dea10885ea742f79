package indicators

import "fmt"

// RSI is the relative strength index with Wilder smoothing. The first
// average gain/loss is the mean of the first n changes; later values are
// smoothed as avg = (avg*(n-1) + x) / n.
type RSI struct {
	n int

	prev    float64
	hasPrev bool
	changes int

	avgGain float64
	avgLoss float64

	name string
}

func NewRSI(period int) *RSI {
	if period <= 0 {
		panic("RSI period must be > 0")
	}
	return &RSI{n: period, name: fmt.Sprintf("RSI(%d)", period)}
}

func (r *RSI) Name() string { return r.name }
func (r *RSI) Warmup() int  { return r.n + 1 }
func (r *RSI) Ready() bool  { return r.changes >= r.n }

func (r *RSI) Reset() {
	*r = RSI{n: r.n, name: r.name}
}

func (r *RSI) Update(x float64) {
	if !r.hasPrev {
		r.prev = x
		r.hasPrev = true
		return
	}

	change := x - r.prev
	r.prev = x

	gain, loss := 0.0, 0.0
	if change > 0 {
		gain = change
	} else {
		loss = -change
	}

	r.changes++
	n := float64(r.n)
	if r.changes <= r.n {
		r.avgGain += gain / n
		r.avgLoss += loss / n
		return
	}
	r.avgGain = (r.avgGain*(n-1) + gain) / n
	r.avgLoss = (r.avgLoss*(n-1) + loss) / n
}

// Float64 returns the RSI in [0, 100], or 50 before warmup completes.
func (r *RSI) Float64() float64 {
	if !r.Ready() {
		return 50
	}
	if r.avgLoss == 0 {
		if r.avgGain == 0 {
			return 50
		}
		return 100
	}
	rs := r.avgGain / r.avgLoss
	return 100 - 100/(1+rs)
}
