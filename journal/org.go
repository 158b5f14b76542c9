package journal

import (
	"fmt"
	"strings"
	"time"
)

// FormatTradeOrg renders a TradeRecord as an Org-mode block with the facts in a
// PROPERTIES drawer.
func FormatTradeOrg(t TradeRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "** Trade: %s %s (%s)\n", t.Pair, t.Side, shortID(t.TradeID))
	b.WriteString(":PROPERTIES:\n")
	fmt.Fprintf(&b, ":TRADE_ID: %s\n", t.TradeID)
	fmt.Fprintf(&b, ":PAIR: %s\n", t.Pair)
	fmt.Fprintf(&b, ":SIDE: %s\n", t.Side)
	fmt.Fprintf(&b, ":ENTRY_PRICE: %.5f\n", t.EntryPrice)
	fmt.Fprintf(&b, ":EXIT_PRICE: %.5f\n", t.ExitPrice)
	fmt.Fprintf(&b, ":OPEN_TIME: %s\n", t.OpenTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":CLOSE_TIME: %s\n", t.CloseTime.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, ":PROFIT: %.2f\n", t.Profit)
	fmt.Fprintf(&b, ":REASON: %s\n", t.Reason)
	b.WriteString(":END:\n")
	return b.String()
}

// FormatTradesOrg renders multiple trades separated by blank lines.
func FormatTradesOrg(trades []TradeRecord) string {
	if len(trades) == 0 {
		return "No trades."
	}
	blocks := make([]string, len(trades))
	for i, t := range trades {
		blocks[i] = FormatTradeOrg(t)
	}
	return strings.Join(blocks, "\n")
}

func shortID(full string) string {
	if len(full) <= 8 {
		return full
	}
	return full[len(full)-8:]
}
