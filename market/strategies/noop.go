package strategies

import "github.com/rustyeddy/papertrader/market"

// Noop never trades. It is the baseline for comparing other strategies.
type Noop struct{}

func (Noop) Name() string             { return "noop" }
func (Noop) Reset()                   {}
func (Noop) Update(market.Bar) Signal { return Flat }
