package sim

import (
	"math"
	"time"
)

// Summary is derived from State on demand and never stored.
type Summary struct {
	Balance      float64   `json:"balance"`
	TotalProfit  float64   `json:"total_profit"`
	ReturnPct    float64   `json:"return_pct"`
	WinRate      int       `json:"win_rate"`
	ActiveTrades int       `json:"active_trades"`
	SignalCount  int       `json:"signal_count"`
	Analyzing    bool      `json:"analyzing"`
	AutoExecute  bool      `json:"auto_execute"`
	LastAnalysis time.Time `json:"last_analysis"`
}

// WinRate is the whole-number percentage of positions in profit, 0 when empty.
func WinRate(positions []Position) int {
	if len(positions) == 0 {
		return 0
	}
	wins := 0
	for _, p := range positions {
		if p.Profit > 0 {
			wins++
		}
	}
	return int(math.Round(float64(wins) / float64(len(positions)) * 100))
}

func Summarize(s State) Summary {
	total := s.Ledger.TotalProfit()
	sum := Summary{
		Balance:      s.Params.BaseBalance + total,
		TotalProfit:  total,
		WinRate:      WinRate(s.Ledger.positions),
		ActiveTrades: s.Ledger.Len(),
		SignalCount:  len(s.Signals),
		Analyzing:    s.Phase == Analyzing,
		AutoExecute:  s.AutoExecute,
		LastAnalysis: s.LastAnalysis,
	}
	if s.Params.BaseBalance != 0 {
		sum.ReturnPct = total / s.Params.BaseBalance * 100
	}
	return sum
}
