package dashboard

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rustyeddy/fxdash/journal"
	"github.com/rustyeddy/fxdash/market"
	"github.com/rustyeddy/fxdash/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lockedJournal is a journal.Memory that can be read while the loop runs.
type lockedJournal struct {
	mu  sync.Mutex
	mem journal.Memory
}

func (j *lockedJournal) RecordTrade(t journal.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mem.RecordTrade(t)
}

func (j *lockedJournal) RecordEquity(e journal.EquitySnapshot) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.mem.RecordEquity(e)
}

func (j *lockedJournal) Close() error { return nil }

func (j *lockedJournal) trades() []journal.TradeRecord {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.TradeRecord(nil), j.mem.Trades...)
}

func (j *lockedJournal) equity() []journal.EquitySnapshot {
	j.mu.Lock()
	defer j.mu.Unlock()
	return append([]journal.EquitySnapshot(nil), j.mem.Equity...)
}

type fakeClock interface {
	clockwork.Clock
	Advance(d time.Duration)
}

type harness struct {
	ctl     *Controller
	clock   fakeClock
	journal *lockedJournal
	cancel  context.CancelFunc
	exited  chan error
}

func start(t *testing.T, mutate func(*Options)) *harness {
	t.Helper()

	var clock fakeClock = clockwork.NewFakeClockAt(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	jr := &lockedJournal{}
	n, runs := 0, 0
	opts := Options{
		Clock:         clock,
		Rand:          sim.NewSequence(0.5),
		NewID:         func() string { n++; return fmt.Sprintf("P%d", n) },
		NewRunID:      func() string { runs++; return fmt.Sprintf("run-%d", runs) },
		Journal:       jr,
		TickInterval:  time.Hour,
		AnalysisDelay: 2 * time.Second,
	}
	if mutate != nil {
		mutate(&opts)
	}

	ctx, cancel := context.WithCancel(context.Background())
	h := &harness{ctl: New(sim.DefaultParams(), opts), clock: clock, journal: jr, cancel: cancel, exited: make(chan error, 1)}
	go func() { h.exited <- h.ctl.Run(ctx) }()
	t.Cleanup(h.stop)

	// The first reply means the loop is running with its ticker armed.
	_, err := h.ctl.Snapshot(context.Background())
	require.NoError(t, err)
	return h
}

func (h *harness) stop() {
	h.cancel()
	<-h.ctl.Done()
}

func (h *harness) snapshot(t *testing.T) Snapshot {
	t.Helper()
	s, err := h.ctl.Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func TestTickAppendsPriceAndRecordsEquity(t *testing.T) {
	t.Parallel()

	h := start(t, func(o *Options) { o.TickInterval = 2 * time.Second })

	h.clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return len(h.snapshot(t).Prices) == 1 }, time.Second, 5*time.Millisecond)

	s := h.snapshot(t)
	assert.InDelta(t, market.BasePrice, s.Prices[0].Price, 1e-12)
	assert.Equal(t, h.clock.Now(), s.Prices[0].Time)

	eq := h.journal.equity()
	require.Len(t, eq, 1)
	assert.Equal(t, 10000.0, eq[0].Balance)
	assert.Equal(t, 0, eq[0].OpenPositions)
}

func TestAnalysisCompletesOnlyAfterDelay(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	ctx := context.Background()

	started, err := h.ctl.RunAnalysis(ctx)
	require.NoError(t, err)
	assert.True(t, started)

	started, err = h.ctl.RunAnalysis(ctx)
	require.NoError(t, err)
	assert.False(t, started, "second request while analyzing is suppressed")

	h.clock.Advance(time.Second)
	s := h.snapshot(t)
	assert.Equal(t, "ANALYZING", s.Phase)
	assert.True(t, s.Summary.Analyzing)
	assert.Empty(t, s.Signals)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return h.snapshot(t).Phase == "IDLE" }, time.Second, 5*time.Millisecond)

	s = h.snapshot(t)
	require.Len(t, s.Signals, 3)
	assert.Equal(t, market.EURUSD, s.Signals[0].Pair)
	assert.Equal(t, 3, s.Summary.SignalCount)
	assert.Equal(t, h.clock.Now(), s.Summary.LastAnalysis)
	assert.Empty(t, s.Positions)
}

func TestTicksContinueDuringAnalysis(t *testing.T) {
	t.Parallel()

	h := start(t, func(o *Options) { o.TickInterval = 500 * time.Millisecond })

	started, err := h.ctl.RunAnalysis(context.Background())
	require.NoError(t, err)
	require.True(t, started)

	for i := 1; i <= 3; i++ {
		h.clock.Advance(500 * time.Millisecond)
		want := i
		require.Eventually(t, func() bool { return len(h.snapshot(t).Prices) == want }, time.Second, 5*time.Millisecond)
	}

	s := h.snapshot(t)
	assert.Equal(t, "ANALYZING", s.Phase)
	assert.Len(t, s.Prices, 3)
	assert.Empty(t, s.Signals)

	h.clock.Advance(500 * time.Millisecond)
	require.Eventually(t, func() bool {
		s := h.snapshot(t)
		return s.Phase == "IDLE" && len(s.Signals) == 3
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, len(h.snapshot(t).Prices), 3)
}

func TestZeroAnalysisDelayUsesDefault(t *testing.T) {
	t.Parallel()

	h := start(t, func(o *Options) { o.AnalysisDelay = 0 })

	_, err := h.ctl.RunAnalysis(context.Background())
	require.NoError(t, err)

	h.clock.Advance(time.Second)
	assert.Equal(t, "ANALYZING", h.snapshot(t).Phase)

	h.clock.Advance(time.Second)
	require.Eventually(t, func() bool { return h.snapshot(t).Phase == "IDLE" }, time.Second, 5*time.Millisecond)
}

func TestAutoExecuteOpensBestSignal(t *testing.T) {
	t.Parallel()

	h := start(t, func(o *Options) { o.AutoExecute = true })

	_, err := h.ctl.RunAnalysis(context.Background())
	require.NoError(t, err)
	h.clock.Advance(2 * time.Second)

	require.Eventually(t, func() bool { return len(h.snapshot(t).Positions) == 1 }, time.Second, 5*time.Millisecond)

	s := h.snapshot(t)
	// Every draw is 0.5, so all signals tie and the first one wins.
	assert.Equal(t, s.Signals[0].Pair, s.Positions[0].Pair)
	assert.Equal(t, s.Signals[0].Entry, s.Positions[0].Entry)
	assert.Equal(t, "P1", s.Positions[0].ID)
}

func TestToggleAndSetAutoExecute(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	ctx := context.Background()

	on, err := h.ctl.ToggleAutoExecute(ctx)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = h.ctl.ToggleAutoExecute(ctx)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, h.ctl.SetAutoExecute(ctx, true))
	assert.True(t, h.snapshot(t).Summary.AutoExecute)
}

func TestOpenAndCloseJournalsTrade(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	ctx := context.Background()

	_, err := h.ctl.Open(ctx, sim.OpenRequest{Pair: "XXX/YYY", Side: market.Buy, Entry: 1})
	assert.Error(t, err)

	pos, err := h.ctl.Open(ctx, sim.OpenRequest{Pair: market.EURUSD, Side: market.Buy, Entry: 1.085})
	require.NoError(t, err)
	assert.Equal(t, "P1", pos.ID)
	assert.Equal(t, 1.085, pos.Current)
	assert.Zero(t, pos.Profit)
	assert.Len(t, h.snapshot(t).Positions, 1)

	closed, err := h.ctl.Close(ctx, pos.ID)
	require.NoError(t, err)
	assert.True(t, closed)

	closed, err = h.ctl.Close(ctx, pos.ID)
	require.NoError(t, err)
	assert.False(t, closed)

	s := h.snapshot(t)
	assert.Empty(t, s.Positions)
	assert.Zero(t, s.Summary.TotalProfit)

	trades := h.journal.trades()
	require.Len(t, trades, 1)
	assert.Equal(t, "P1", trades[0].TradeID)
	assert.Equal(t, CloseReason, trades[0].Reason)
	assert.Equal(t, 1.085, trades[0].ExitPrice)
}

func TestExecuteSignal(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	ctx := context.Background()

	_, ok, err := h.ctl.ExecuteSignal(ctx, 0)
	require.NoError(t, err)
	assert.False(t, ok, "no signals yet")

	_, err = h.ctl.RunAnalysis(ctx)
	require.NoError(t, err)
	h.clock.Advance(2 * time.Second)
	require.Eventually(t, func() bool { return len(h.snapshot(t).Signals) == 3 }, time.Second, 5*time.Millisecond)

	sig := h.snapshot(t).Signals[2]
	pos, ok, err := h.ctl.ExecuteSignal(ctx, 2)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sig.Pair, pos.Pair)
	assert.Equal(t, sig.Action, pos.Side)

	pos, err = h.ctl.Execute(ctx, sig)
	require.NoError(t, err)
	assert.Equal(t, "P2", pos.ID)
	assert.Len(t, h.snapshot(t).Positions, 2)
}

func TestSubscribeSeesLatestSnapshot(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	ch, cancel := h.ctl.Subscribe()
	defer cancel()

	_, err := h.ctl.ToggleAutoExecute(context.Background())
	require.NoError(t, err)
	_, err = h.ctl.ToggleAutoExecute(context.Background())
	require.NoError(t, err)

	s := <-ch
	assert.False(t, s.Summary.AutoExecute, "only the latest snapshot is kept")

	h.stop()
	_, open := <-ch
	assert.False(t, open)
}

func TestRequestsAfterStop(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	h.stop()
	require.NoError(t, <-h.exited)

	_, err := h.ctl.Snapshot(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	_, err = h.ctl.RunAnalysis(context.Background())
	assert.ErrorIs(t, err, ErrStopped)

	ch, _ := h.ctl.Subscribe()
	_, open := <-ch
	assert.False(t, open)
}

func TestStopCancelsPendingAnalysis(t *testing.T) {
	t.Parallel()

	h := start(t, nil)
	_, err := h.ctl.RunAnalysis(context.Background())
	require.NoError(t, err)

	h.stop()
	h.clock.Advance(time.Minute)
	assert.Empty(t, h.journal.equity())
}
