package journal

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
	"time"
)

// BacktestRun mirrors the backtest_runs table.
type BacktestRun struct {
	RunID     string
	Created   time.Time
	Timeframe string
	Dataset   string

	Symbol   string
	Strategy string
	Config   []byte // engine and strategy config as JSON

	Start time.Time
	End   time.Time
	Bars  int

	// Trades counts trade log entries; RoundTrips counts closed flat-long-flat cycles.
	Trades     int
	RoundTrips int
	Wins       int
	Losses     int

	StartEquity float64
	EndEquity   float64

	NetPL        float64
	ReturnPct    float64
	SharpeLike   float64
	MaxDDPct     float64
	WinRate      float64 // percent
	ProfitFactor float64
	Fees         float64

	OrgPath string
	Notes   []string
}

var backtestOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"orgTrades": FormatTradesOrgTable,
}

var backtestOrg = template.Must(template.New("backtest").Funcs(backtestOrgFuncs).Parse(BacktestOrgTemplate))

// FormatBacktestOrg renders the run summary and its trade log as Org.
func FormatBacktestOrg(r BacktestRun, trades []TradeRecord) (string, error) {
	buf := new(bytes.Buffer)
	err := backtestOrg.Execute(buf, struct {
		BacktestRun
		TradeLog []TradeRecord
	}{r, trades})
	if err != nil {
		return "", fmt.Errorf("journal: render backtest org: %w", err)
	}
	return buf.String(), nil
}

// WriteBacktestOrg renders the report to r.OrgPath.
func (r *BacktestRun) WriteBacktestOrg(trades []TradeRecord) error {
	if r.OrgPath == "" {
		return fmt.Errorf("journal: org path is empty")
	}
	s, err := FormatBacktestOrg(*r, trades)
	if err != nil {
		return err
	}
	return os.WriteFile(r.OrgPath, []byte(s), 0644)
}

const BacktestOrgTemplate = `
* BACKTEST: {{.Strategy}} {{if .Symbol}}{{.Symbol}}{{else}}(symbol?){{end}} {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:PROPERTIES:
:RUN_ID:      {{if .RunID}}{{.RunID}}{{else}}(run-id?){{end}}
:STRATEGY:    {{.Strategy}}
:TIMEFRAME:   {{if .Timeframe}}{{.Timeframe}}{{else}}(timeframe?){{end}}
:SYMBOL:      {{.Symbol}}
:DATASET:     {{if .Dataset}}{{.Dataset}}{{else}}(dataset?){{end}}
:START_DATE:  {{.Start.Format "2006-01-02"}}
:END_DATE:    {{.End.Format "2006-01-02"}}
:BARS:        {{.Bars}}
:START_EQ:    {{printf "%.2f" .StartEquity}}
:END_EQ:      {{printf "%.2f" .EndEquity}}
:NET_PL:      {{printf "%.2f" .NetPL}}
:RETURN_PCT:  {{printf "%.2f" .ReturnPct}}
:SHARPE:      {{printf "%.4f" .SharpeLike}}
:MAX_DD_PCT:  {{printf "%.2f" .MaxDDPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{printf "%.2f" .WinRate}}
:PROFIT_FAC:  {{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}
:FEES:        {{printf "%.2f" .Fees}}
:CREATED:     [{{(orTime .Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Configuration
#+begin_src json
{{printf "%s" .Config}}
#+end_src

** Performance Summary
- Net P/L:          *{{printf "%.2f" .NetPL}}*
- Return:           *{{printf "%.2f" .ReturnPct}}%*
- Sharpe-like:      *{{printf "%.4f" .SharpeLike}}*
- Max Drawdown:     *{{printf "%.2f" .MaxDDPct}}%*
- Win Rate:         *{{printf "%.2f" .WinRate}}%*
- Profit Factor:    *{{if ne .ProfitFactor 0.0}}{{printf "%.2f" .ProfitFactor}}{{else}}(profit-factor?){{end}}*

** Trade Distribution
| Outcome     | Count |
|-------------+-------|
| Wins        | {{.Wins}} |
| Losses      | {{.Losses}} |
| Round trips | {{.RoundTrips}} |
| Log entries | {{.Trades}} |

{{- if .TradeLog }}

** Trade Log
{{ orgTrades .TradeLog }}
{{- end }}

{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`
