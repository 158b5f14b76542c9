package sim

import (
	"time"

	"github.com/rustyeddy/fxdash/market"
)

// Position is an open simulated exposure. Entry never changes after open.
type Position struct {
	ID       string      `json:"id"`
	Pair     market.Pair `json:"pair"`
	Side     market.Side `json:"side"`
	Entry    float64     `json:"entry"`
	Current  float64     `json:"current"`
	Profit   float64     `json:"profit"`
	OpenedAt time.Time   `json:"opened_at"`
}

// Mark moves the position to price and recomputes its profit for units.
func (p *Position) Mark(price, units float64) {
	p.Current = price
	p.Profit = market.Profit(p.Side, p.Entry, price, units)
}
