package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rustyeddy/fxdash/market"
)

// OpenRequest describes a position to open, from a signal or explicit parameters.
type OpenRequest struct {
	Pair  market.Pair `json:"pair"`
	Side  market.Side `json:"side"`
	Entry float64     `json:"entry"`
}

// RequestFromSignal opens at the signal's entry in the signal's direction.
func RequestFromSignal(s Signal) OpenRequest {
	return OpenRequest{Pair: s.Pair, Side: s.Action, Entry: s.Entry}
}

func (r OpenRequest) Validate() error {
	if !r.Pair.Valid() {
		return fmt.Errorf("open: unknown pair %q", r.Pair)
	}
	if !r.Side.Valid() {
		return fmt.Errorf("open: unknown side %q", r.Side)
	}
	if math.IsNaN(r.Entry) || math.IsInf(r.Entry, 0) || r.Entry <= 0 {
		return errors.New("open: entry must be a positive price")
	}
	return nil
}

// Ledger is the ordered set of open positions.
type Ledger struct {
	positions []Position
}

// Open appends a position marked at its entry with zero profit.
func (l *Ledger) Open(req OpenRequest, id string, at time.Time) Position {
	p := Position{
		ID:       id,
		Pair:     req.Pair,
		Side:     req.Side,
		Entry:    req.Entry,
		Current:  req.Entry,
		OpenedAt: at,
	}
	l.positions = append(l.positions, p)
	return p
}

// Close removes the position with id. It reports false when no such position exists.
func (l *Ledger) Close(id string) (Position, bool) {
	for i, p := range l.positions {
		if p.ID != id {
			continue
		}
		l.positions = append(l.positions[:i:i], l.positions[i+1:]...)
		return p, true
	}
	return Position{}, false
}

func (l Ledger) Get(id string) (Position, bool) {
	for _, p := range l.positions {
		if p.ID == id {
			return p, true
		}
	}
	return Position{}, false
}

// Revalue walks every position by uniform(-step, +step) in insertion order.
func (l *Ledger) Revalue(r Rand, step, units float64) {
	for i := range l.positions {
		p := &l.positions[i]
		p.Mark(p.Current+uniform(r, step), units)
	}
}

// Positions returns a copy in insertion order.
func (l Ledger) Positions() []Position {
	out := make([]Position, len(l.positions))
	copy(out, l.positions)
	return out
}

func (l Ledger) Len() int { return len(l.positions) }

func (l Ledger) TotalProfit() float64 {
	var total float64
	for _, p := range l.positions {
		total += p.Profit
	}
	return total
}

func (l Ledger) clone() Ledger {
	return Ledger{positions: l.Positions()}
}
