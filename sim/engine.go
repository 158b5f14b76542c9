package sim

import (
	"time"

	"github.com/google/uuid"
	"github.com/rustyeddy/fxdash/market"
)

// Params are the fixed simulation constants.
type Params struct {
	BaseBalance float64
	BasePrice   float64
	PriceJitter float64 // chart sample = base ± PriceJitter
	WalkStep    float64 // per-tick position move = ± WalkStep
	LotSize     float64
	WindowSize  int
	Signals     SignalParams
}

func DefaultParams() Params {
	return Params{
		BaseBalance: 10_000,
		BasePrice:   market.BasePrice,
		PriceJitter: 0.005,
		WalkStep:    0.00025,
		LotSize:     market.LotSize,
		WindowSize:  21,
		Signals:     DefaultSignalParams(),
	}
}

// Phase is the signal generator state.
type Phase int

const (
	Idle Phase = iota
	Analyzing
)

func (p Phase) String() string {
	if p == Analyzing {
		return "ANALYZING"
	}
	return "IDLE"
}

// State is the whole dashboard. Step never mutates its input.
type State struct {
	Params       Params
	Prices       PriceWindow
	Ledger       Ledger
	Signals      []Signal
	Phase        Phase
	AutoExecute  bool
	RunID        string
	LastAnalysis time.Time
}

func NewState(p Params) State {
	return State{Params: p, Prices: NewPriceWindow(p.WindowSize)}
}

func (s State) Clone() State {
	c := s
	c.Prices = s.Prices.clone()
	c.Ledger = s.Ledger.clone()
	if s.Signals != nil {
		c.Signals = append([]Signal(nil), s.Signals...)
	}
	return c
}

func (s State) Summary() Summary { return Summarize(s) }

// Env carries the capabilities a transition may draw on.
type Env struct {
	Rand     Rand
	NewID    func() string
	NewRunID func() string
}

// NewEnv fills NewRunID with random UUIDs.
func NewEnv(r Rand, newID func() string) Env {
	return Env{Rand: r, NewID: newID, NewRunID: uuid.NewString}
}

// Step applies ev to s and returns the next state plus what happened.
// Rejected or no-op events return s unchanged and no effects.
func Step(s State, ev Event, env Env) (State, []Effect) {
	p := s.Params

	switch ev := ev.(type) {
	case Tick:
		next := s.Clone()
		sample := NextSample(env.Rand, p.BasePrice, p.PriceJitter, ev.At)
		next.Prices.Push(sample)
		next.Ledger.Revalue(env.Rand, p.WalkStep, p.LotSize)
		return next, []Effect{Ticked{Sample: sample}}

	case RunAnalysis:
		if s.Phase == Analyzing {
			return s, nil
		}
		next := s.Clone()
		next.Signals = nil
		next.Phase = Analyzing
		next.RunID = env.NewRunID()
		return next, []Effect{AnalysisStarted{RunID: next.RunID}}

	case AnalysisElapsed:
		if s.Phase != Analyzing || ev.RunID != s.RunID {
			return s, nil
		}
		next := s.Clone()
		next.Signals = GenerateSignals(env.Rand, p.Signals)
		next.Phase = Idle
		next.LastAnalysis = ev.At
		fx := []Effect{AnalysisCompleted{RunID: s.RunID, Signals: append([]Signal(nil), next.Signals...)}}
		if next.AutoExecute {
			if best, ok := BestSignal(next.Signals); ok {
				pos := next.Ledger.Open(RequestFromSignal(best), env.NewID(), ev.At)
				fx = append(fx, PositionOpened{Position: pos, Auto: true})
			}
		}
		return next, fx

	case ToggleAutoExecute:
		next := s.Clone()
		next.AutoExecute = !s.AutoExecute
		return next, nil

	case SetAutoExecute:
		next := s.Clone()
		next.AutoExecute = ev.Enabled
		return next, nil

	case OpenPosition:
		if ev.Request.Validate() != nil {
			return s, nil
		}
		next := s.Clone()
		pos := next.Ledger.Open(ev.Request, env.NewID(), ev.At)
		return next, []Effect{PositionOpened{Position: pos}}

	case ExecuteSignal:
		if ev.Index < 0 || ev.Index >= len(s.Signals) {
			return s, nil
		}
		next := s.Clone()
		pos := next.Ledger.Open(RequestFromSignal(s.Signals[ev.Index]), env.NewID(), ev.At)
		return next, []Effect{PositionOpened{Position: pos}}

	case ClosePosition:
		if _, ok := s.Ledger.Get(ev.ID); !ok {
			return s, nil
		}
		next := s.Clone()
		pos, _ := next.Ledger.Close(ev.ID)
		return next, []Effect{PositionClosed{Position: pos, At: ev.At}}
	}

	return s, nil
}

// Apply steps through evs in order, collecting every effect.
func Apply(s State, env Env, evs ...Event) (State, []Effect) {
	var all []Effect
	for _, ev := range evs {
		var fx []Effect
		s, fx = Step(s, ev, env)
		all = append(all, fx...)
	}
	return s, all
}
