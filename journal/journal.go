package journal

import (
	"time"

	"github.com/rustyeddy/fxdash/market"
)

// TradeRecord is a closed position.
type TradeRecord struct {
	TradeID    string
	Pair       market.Pair
	Side       market.Side
	EntryPrice float64
	ExitPrice  float64
	OpenTime   time.Time
	CloseTime  time.Time
	Profit     float64
	Reason     string
}

// EquitySnapshot is the dashboard summary at one tick.
type EquitySnapshot struct {
	Time          time.Time
	Balance       float64
	TotalProfit   float64
	OpenPositions int
	WinRate       int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordTrade(TradeRecord) error     { return nil }
func (Nop) RecordEquity(EquitySnapshot) error { return nil }
func (Nop) Close() error                      { return nil }

// Memory keeps records in slices. It is not safe for concurrent use.
type Memory struct {
	Trades []TradeRecord
	Equity []EquitySnapshot
	Closed bool
}

func (m *Memory) RecordTrade(rec TradeRecord) error {
	m.Trades = append(m.Trades, rec)
	return nil
}

func (m *Memory) RecordEquity(rec EquitySnapshot) error {
	m.Equity = append(m.Equity, rec)
	return nil
}

func (m *Memory) Close() error {
	m.Closed = true
	return nil
}
