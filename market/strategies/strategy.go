package strategies

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rustyeddy/papertrader/internal/core"
	"github.com/rustyeddy/papertrader/market"
)

// Signal is the per-bar instruction a strategy hands the simulator.
// Values other than the three constants are legal and mean "do nothing".
type Signal int

const (
	Exit      Signal = -1
	Flat      Signal = 0
	LongEntry Signal = 1
)

func (s Signal) String() string {
	switch s {
	case LongEntry:
		return "LONG_ENTRY"
	case Exit:
		return "EXIT"
	case Flat:
		return "FLAT"
	default:
		return fmt.Sprintf("SIGNAL(%d)", int(s))
	}
}

// Strategy consumes closed bars one at a time and returns the signal for
// that bar. Implementations only look at bars already seen.
type Strategy interface {
	Name() string
	Reset()
	Update(b market.Bar) Signal
}

// Params are numeric strategy settings keyed by name, e.g. "fast_sma".
type Params map[string]float64

func (p Params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

func (p Params) period(key string, def int) (int, error) {
	v := p.get(key, float64(def))
	if v < 1 || v != float64(int(v)) {
		return 0, core.Errorf(core.ErrInvalidParameter, "%s must be a positive integer, got %v", key, v)
	}
	return int(v), nil
}

// Factory builds a strategy from params.
type Factory func(Params) (Strategy, error)

var registry = map[string]Factory{
	"noop":      func(Params) (Strategy, error) { return Noop{}, nil },
	"sma_rsi":   func(p Params) (Strategy, error) { return NewSMARSI(p) },
	"scalping":  func(p Params) (Strategy, error) { return NewScalping(p) },
	"ema_cross": func(p Params) (Strategy, error) { return NewEMACross(p) },
}

// Register adds or replaces a named strategy factory. It is not safe to call
// concurrently with New.
func Register(name string, f Factory) {
	registry[strings.ToLower(name)] = f
}

// New builds the strategy registered under name.
func New(name string, p Params) (Strategy, error) {
	f, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, core.Errorf(core.ErrUnknownStrategy, "%q (supported: %s)", name, strings.Join(Names(), ", "))
	}
	return f(p)
}

// Names lists registered strategies in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Generate resets s and returns one signal per bar.
func Generate(s Strategy, bars []market.Bar) []Signal {
	s.Reset()
	out := make([]Signal, len(bars))
	for i, b := range bars {
		out[i] = s.Update(b)
	}
	return out
}
