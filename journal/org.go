package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org heading with a
// PROPERTIES drawer, suitable for pasting into a trading journal.
func FormatTradeOrg(t TradeRecord) string {
	heading := fmt.Sprintf("** Trade %d: %s (%s)", t.Seq, strings.ToUpper(t.Side), shortID(t.RunID))

	var b strings.Builder
	b.WriteString(heading)
	b.WriteString("\n")
	b.WriteString(":PROPERTIES:\n")
	b.WriteString(fmt.Sprintf(":RUN_ID: %s\n", t.RunID))
	b.WriteString(fmt.Sprintf(":SEQ: %d\n", t.Seq))
	b.WriteString(fmt.Sprintf(":TIME: %s\n", t.Time.UTC().Format(time.RFC3339)))
	b.WriteString(fmt.Sprintf(":SIDE: %s\n", t.Side))
	b.WriteString(fmt.Sprintf(":PRICE: %.5f\n", t.Price))
	b.WriteString(fmt.Sprintf(":SIZE: %.6f\n", t.Size))
	b.WriteString(fmt.Sprintf(":FILLED: %.6f\n", t.FilledSize))
	b.WriteString(fmt.Sprintf(":FEE: %.4f\n", t.Fee))
	b.WriteString(fmt.Sprintf(":REASON: %s\n", t.Reason))
	b.WriteString(":END:\n")

	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	var b strings.Builder
	for i, t := range trades {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(FormatTradeOrg(t))
	}
	return b.String()
}

// FormatTradesOrgTable renders the trade log as an Org table.
func FormatTradesOrgTable(trades []TradeRecord) string {
	var b strings.Builder
	b.WriteString("| # | Time | Side | Price | Size | Filled | Fee | Reason |\n")
	b.WriteString("|---+------+------+-------+------+--------+-----+--------|\n")
	for _, t := range trades {
		fmt.Fprintf(&b, "| %d | %s | %s | %.5f | %.6f | %.6f | %.4f | %s |\n",
			t.Seq, t.Time.UTC().Format(time.RFC3339), t.Side,
			t.Price, t.Size, t.FilledSize, t.Fee, t.Reason)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[:8]
}
