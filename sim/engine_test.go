package sim

import (
	"fmt"
	"testing"
	"time"

	"github.com/rustyeddy/fxdash/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(r Rand) Env {
	n, runs := 0, 0
	return Env{
		Rand: r,
		NewID: func() string {
			n++
			return fmt.Sprintf("P%d", n)
		},
		NewRunID: func() string {
			runs++
			return fmt.Sprintf("run-%d", runs)
		},
	}
}

func effectsOf[T Effect](fx []Effect) []T {
	var out []T
	for _, e := range fx {
		if v, ok := e.(T); ok {
			out = append(out, v)
		}
	}
	return out
}

func TestOpenThenCloseBeforeTick(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())

	s, fx := Step(s, OpenPosition{Request: OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.085}, At: t0}, env)
	opened := effectsOf[PositionOpened](fx)
	require.Len(t, opened, 1)
	assert.Equal(t, "P1", opened[0].Position.ID)
	assert.False(t, opened[0].Auto)

	s, fx = Step(s, ClosePosition{ID: "P1", At: t0}, env)
	closed := effectsOf[PositionClosed](fx)
	require.Len(t, closed, 1)
	assert.Equal(t, "P1", closed[0].Position.ID)

	assert.Zero(t, s.Ledger.Len())
	assert.Zero(t, s.Summary().TotalProfit)
	assert.Equal(t, 10_000.0, s.Summary().Balance)
}

func TestCloseUnknownIsNoop(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())
	s, _ = Step(s, OpenPosition{Request: OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.085}, At: t0}, env)

	next, fx := Step(s, ClosePosition{ID: "missing", At: t0}, env)
	assert.Empty(t, fx)
	assert.Equal(t, 1, next.Ledger.Len())
}

func TestTickRevaluesBuyScenario(t *testing.T) {
	t.Parallel()

	// First draw feeds the chart sample, second moves the position +0.0002.
	env := testEnv(NewSequence(0.5, 0.9))
	s := NewState(DefaultParams())
	s, _ = Step(s, OpenPosition{Request: OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.08500}, At: t0}, env)

	s, fx := Step(s, Tick{At: t0.Add(2 * time.Second)}, env)
	require.Len(t, effectsOf[Ticked](fx), 1)

	pos := s.Ledger.Positions()[0]
	assert.InDelta(t, 1.08520, pos.Current, 1e-9)
	assert.InDelta(t, (pos.Current-pos.Entry)*100000, pos.Profit, 1e-9)
	assert.Equal(t, 20.00, market.RoundCash(pos.Profit))
	assert.Equal(t, 100, s.Summary().WinRate)
}

func TestTickRevaluesSellPosition(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5, 0.1))
	s := NewState(DefaultParams())
	s, _ = Step(s, OpenPosition{Request: OpenRequest{Pair: market.GBPUSD, Side: market.Sell, Entry: 1.25000}, At: t0}, env)
	s, _ = Step(s, Tick{At: t0.Add(2 * time.Second)}, env)

	pos := s.Ledger.Positions()[0]
	assert.InDelta(t, 1.24980, pos.Current, 1e-9)
	assert.InDelta(t, (pos.Entry-pos.Current)*100000, pos.Profit, 1e-9)
	assert.Equal(t, 1.25000, pos.Entry)
}

func TestTickWithNoPositions(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())

	for i := 0; i < 25; i++ {
		s, _ = Step(s, Tick{At: t0.Add(time.Duration(i) * 2 * time.Second)}, env)
	}
	assert.Equal(t, 21, s.Prices.Len())
	assert.Zero(t, s.Ledger.Len())

	first := s.Prices.Samples()[0]
	assert.Equal(t, t0.Add(8*time.Second), first.Time)
}

func TestStepDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5, 0.9))
	s := NewState(DefaultParams())
	s, _ = Step(s, OpenPosition{Request: OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.085}, At: t0}, env)

	before := s.Clone()
	_, _ = Step(s, Tick{At: t0}, env)
	_, _ = Step(s, ClosePosition{ID: "P1", At: t0}, env)

	assert.Equal(t, before, s)
}

func TestAnalysisLifecycle(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.9, 0.5, 0.5))
	s := NewState(DefaultParams())
	s.Signals = []Signal{{Pair: market.NZDUSD}}

	s, fx := Step(s, RunAnalysis{At: t0}, env)
	started := effectsOf[AnalysisStarted](fx)
	require.Len(t, started, 1)
	assert.Equal(t, "run-1", started[0].RunID)
	assert.Equal(t, Analyzing, s.Phase)
	assert.Empty(t, s.Signals, "stale signals must be cleared at once")
	assert.True(t, s.Summary().Analyzing)

	again, fx := Step(s, RunAnalysis{At: t0.Add(time.Second)}, env)
	assert.Empty(t, fx)
	assert.Equal(t, "run-1", again.RunID)

	stale, fx := Step(s, AnalysisElapsed{RunID: "run-0", At: t0}, env)
	assert.Empty(t, fx)
	assert.Equal(t, Analyzing, stale.Phase)

	done := t0.Add(2 * time.Second)
	s, fx = Step(s, AnalysisElapsed{RunID: "run-1", At: done}, env)
	completed := effectsOf[AnalysisCompleted](fx)
	require.Len(t, completed, 1)
	assert.Len(t, completed[0].Signals, 3)
	assert.Empty(t, effectsOf[PositionOpened](fx))

	assert.Equal(t, Idle, s.Phase)
	assert.Len(t, s.Signals, 3)
	assert.Equal(t, done, s.LastAnalysis)

	// A late duplicate elapse must not produce a second batch.
	s2, fx := Step(s, AnalysisElapsed{RunID: "run-1", At: done}, env)
	assert.Empty(t, fx)
	assert.Equal(t, s.Signals, s2.Signals)
}

func TestTickWhileAnalyzing(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())
	s, _ = Step(s, OpenPosition{Request: OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.085}, At: t0}, env)
	s, _ = Step(s, RunAnalysis{At: t0}, env)
	require.Equal(t, Analyzing, s.Phase)

	for i := 1; i <= 3; i++ {
		var fx []Effect
		s, fx = Step(s, Tick{At: t0.Add(time.Duration(i) * 500 * time.Millisecond)}, env)
		assert.Len(t, effectsOf[Ticked](fx), 1)
	}

	assert.Equal(t, Analyzing, s.Phase, "ticks leave the analysis running")
	assert.Equal(t, "run-1", s.RunID)
	assert.Equal(t, 3, s.Prices.Len())
	assert.Empty(t, s.Signals)

	s, fx := Step(s, AnalysisElapsed{RunID: "run-1", At: t0.Add(2 * time.Second)}, env)
	assert.Equal(t, Idle, s.Phase)
	assert.Len(t, effectsOf[AnalysisCompleted](fx), 1)
	assert.Len(t, s.Signals, SignalsPerRun)
	assert.Equal(t, 3, s.Prices.Len())
}

func TestAutoExecuteOpensBestSignal(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(
		0.9, 0.5, 0.9, // EUR/USD BUY 92
		0.1, 0.5, 0.9, // GBP/USD SELL 92 (tie, loses)
		0.9, 0.5, 0.1, // USD/JPY BUY 68
	))
	s := NewState(DefaultParams())
	s, _ = Step(s, SetAutoExecute{Enabled: true}, env)

	s, _ = Step(s, RunAnalysis{At: t0}, env)
	s, fx := Step(s, AnalysisElapsed{RunID: s.RunID, At: t0.Add(2 * time.Second)}, env)

	opened := effectsOf[PositionOpened](fx)
	require.Len(t, opened, 1)
	assert.True(t, opened[0].Auto)
	assert.Equal(t, market.EURUSD, opened[0].Position.Pair)
	assert.Equal(t, market.Buy, opened[0].Position.Side)
	assert.Equal(t, s.Signals[0].Entry, opened[0].Position.Entry)
	assert.Equal(t, 1, s.Ledger.Len())
}

func TestToggleAutoExecute(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())

	s, _ = Step(s, ToggleAutoExecute{}, env)
	assert.True(t, s.AutoExecute)
	s, _ = Step(s, ToggleAutoExecute{}, env)
	assert.False(t, s.AutoExecute)
}

func TestExecuteSignal(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.1, 0.5, 0.5))
	s := NewState(DefaultParams())
	s, _ = Apply(s, env, RunAnalysis{At: t0}, AnalysisElapsed{RunID: "run-1", At: t0})
	require.Len(t, s.Signals, 3)

	s, fx := Step(s, ExecuteSignal{Index: 1, At: t0}, env)
	opened := effectsOf[PositionOpened](fx)
	require.Len(t, opened, 1)
	assert.Equal(t, s.Signals[1].Pair, opened[0].Position.Pair)
	assert.Equal(t, market.Sell, opened[0].Position.Side)
	assert.Len(t, s.Signals, 3, "executing does not consume the signal")

	_, fx = Step(s, ExecuteSignal{Index: 3, At: t0}, env)
	assert.Empty(t, fx)
	_, fx = Step(s, ExecuteSignal{Index: -1, At: t0}, env)
	assert.Empty(t, fx)
}

func TestOpenPositionRejectsInvalidRequest(t *testing.T) {
	t.Parallel()

	env := testEnv(NewSequence(0.5))
	s := NewState(DefaultParams())

	next, fx := Step(s, OpenPosition{Request: OpenRequest{Pair: "XAU/USD", Side: market.Buy, Entry: 1}}, env)
	assert.Empty(t, fx)
	assert.Zero(t, next.Ledger.Len())
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "IDLE", Idle.String())
	assert.Equal(t, "ANALYZING", Analyzing.String())
}
