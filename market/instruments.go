// market/instruments.go
package market

import (
	"fmt"
	"strings"
)

// Pair identifies a tradable currency pair, e.g. "EUR/USD".
type Pair string

const (
	EURUSD Pair = "EUR/USD"
	GBPUSD Pair = "GBP/USD"
	USDJPY Pair = "USD/JPY"
	AUDUSD Pair = "AUD/USD"
	USDCAD Pair = "USD/CAD"
	NZDUSD Pair = "NZD/USD"
)

// Pairs lists every supported pair in signal priority order.
var Pairs = []Pair{EURUSD, GBPUSD, USDJPY, AUDUSD, USDCAD, NZDUSD}

type InstrumentMeta struct {
	Name          Pair
	BaseCurrency  string
	QuoteCurrency string
}

var Instruments = map[Pair]InstrumentMeta{
	EURUSD: {Name: EURUSD, BaseCurrency: "EUR", QuoteCurrency: "USD"},
	GBPUSD: {Name: GBPUSD, BaseCurrency: "GBP", QuoteCurrency: "USD"},
	USDJPY: {Name: USDJPY, BaseCurrency: "USD", QuoteCurrency: "JPY"},
	AUDUSD: {Name: AUDUSD, BaseCurrency: "AUD", QuoteCurrency: "USD"},
	USDCAD: {Name: USDCAD, BaseCurrency: "USD", QuoteCurrency: "CAD"},
	NZDUSD: {Name: NZDUSD, BaseCurrency: "NZD", QuoteCurrency: "USD"},
}

func (p Pair) String() string { return string(p) }

// Valid reports whether p is one of the supported pairs.
func (p Pair) Valid() bool {
	_, ok := Instruments[p]
	return ok
}

// ParsePair accepts "EUR/USD", "EUR_USD" or "eurusd" and returns the canonical pair.
func ParsePair(s string) (Pair, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", "", "/", "", "-", "").Replace(norm)
	if len(norm) == 6 {
		p := Pair(norm[:3] + "/" + norm[3:])
		if p.Valid() {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown pair %q", s)
}
