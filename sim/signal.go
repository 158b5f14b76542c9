package sim

import (
	"fmt"
	"math"

	"github.com/rustyeddy/fxdash/market"
)

// Signal is a generated recommendation that has not been acted on.
type Signal struct {
	Pair       market.Pair `json:"pair"`
	Action     market.Side `json:"action"`
	Confidence int         `json:"confidence"`
	Entry      float64     `json:"entry"`
	StopLoss   float64     `json:"stop_loss"`
	TakeProfit float64     `json:"take_profit"`
	Reason     string      `json:"reason"`
}

// SignalsPerRun is the batch size of one analysis run, one signal per pair.
const SignalsPerRun = 3

// SignalParams controls how a batch of signals is drawn.
type SignalParams struct {
	Pairs          []market.Pair
	BasePrice      float64
	EntrySpread    float64 // entry = base ± EntrySpread
	ConfidenceMin  float64
	ConfidenceMax  float64 // exclusive
	HighConfidence float64 // rationale switches wording above this
	StopOffset     float64
	TakeOffset     float64
}

func DefaultSignalParams() SignalParams {
	return SignalParams{
		Pairs:          append([]market.Pair(nil), market.Pairs[:SignalsPerRun]...),
		BasePrice:      market.BasePrice,
		EntrySpread:    0.01,
		ConfidenceMin:  65,
		ConfidenceMax:  95,
		HighConfidence: 80,
		StopOffset:     0.0050,
		TakeOffset:     0.0150,
	}
}

// GenerateSignals draws one signal per configured pair, in order. Each signal
// consumes three draws: direction, entry, confidence.
func GenerateSignals(r Rand, p SignalParams) []Signal {
	out := make([]Signal, 0, len(p.Pairs))
	for _, pair := range p.Pairs {
		side := market.Sell
		if r.Float64() > 0.5 {
			side = market.Buy
		}
		entry := p.BasePrice + uniform(r, p.EntrySpread)
		raw := p.ConfidenceMin + r.Float64()*(p.ConfidenceMax-p.ConfidenceMin)

		// Stop sits on the losing side of entry, target on the winning side.
		sign := side.Sign()
		out = append(out, Signal{
			Pair:       pair,
			Action:     side,
			Confidence: int(math.Floor(raw)),
			Entry:      market.RoundPrice(entry),
			StopLoss:   market.RoundPrice(entry - sign*p.StopOffset),
			TakeProfit: market.RoundPrice(entry + sign*p.TakeOffset),
			Reason:     rationale(side, raw > p.HighConfidence),
		})
	}
	return out
}

func rationale(side market.Side, high bool) string {
	momentum := "Bearish"
	if side == market.Buy {
		momentum = "Bullish"
	}
	pressure := "selling"
	if high {
		pressure = "buying"
	}
	return fmt.Sprintf("%s momentum detected. Strong %s pressure with favorable risk/reward ratio.", momentum, pressure)
}

// BestSignal returns the highest-confidence signal. Ties go to the earliest.
func BestSignal(signals []Signal) (Signal, bool) {
	if len(signals) == 0 {
		return Signal{}, false
	}
	best := signals[0]
	for _, s := range signals[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best, true
}
