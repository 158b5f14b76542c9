// Package dashboard runs the simulation on a single goroutine and serves
// snapshots and actions to the presentation layers.
package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rustyeddy/fxdash/journal"
	"github.com/rustyeddy/fxdash/pkg/id"
	"github.com/rustyeddy/fxdash/pkg/logger"
	"github.com/rustyeddy/fxdash/sim"
)

// ErrStopped is returned by requests made after Run has returned.
var ErrStopped = errors.New("dashboard: controller stopped")

// CloseReason is recorded in the journal for user-initiated closes.
const CloseReason = "ManualClose"

const (
	DefaultTickInterval  = 2 * time.Second
	DefaultAnalysisDelay = 2 * time.Second
)

// Options configures a Controller. Zero durations mean the defaults.
type Options struct {
	Clock         clockwork.Clock
	Rand          sim.Rand
	NewID         func() string
	NewRunID      func() string
	Journal       journal.Journal
	TickInterval  time.Duration
	AnalysisDelay time.Duration
	AutoExecute   bool
}

func (o *Options) defaults() {
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Rand == nil {
		o.Rand = sim.NewRand(0)
	}
	if o.NewID == nil {
		gen := id.NewGenerator(o.Clock.Now)
		o.NewID = gen.New
	}
	if o.Journal == nil {
		o.Journal = journal.Nop{}
	}
	if o.TickInterval <= 0 {
		o.TickInterval = DefaultTickInterval
	}
	if o.AnalysisDelay <= 0 {
		o.AnalysisDelay = DefaultAnalysisDelay
	}
}

// Snapshot is a copy of the whole dashboard as seen by presentation.
type Snapshot struct {
	Summary   sim.Summary    `json:"summary"`
	Phase     string         `json:"phase"`
	Prices    []sim.Sample   `json:"prices"`
	Signals   []sim.Signal   `json:"signals"`
	Positions []sim.Position `json:"positions"`
}

func snapshotOf(s sim.State) Snapshot {
	signals := s.Signals
	if signals == nil {
		signals = []sim.Signal{}
	} else {
		signals = append([]sim.Signal(nil), signals...)
	}
	return Snapshot{
		Summary:   s.Summary(),
		Phase:     s.Phase.String(),
		Prices:    s.Prices.Samples(),
		Signals:   signals,
		Positions: s.Ledger.Positions(),
	}
}

type result struct {
	snap Snapshot
	fx   []sim.Effect
}

// command is one request to the loop. A nil event only reads the snapshot.
type command struct {
	ev    sim.Event
	reply chan result
}

// Controller owns a sim.State. All mutations happen on the goroutine running Run.
type Controller struct {
	opts  Options
	env   sim.Env
	state sim.State

	cmds chan command
	done chan struct{}
	once sync.Once

	subMu  sync.Mutex
	subs   map[chan Snapshot]struct{}
	closed bool

	// owned by Run
	timer clockwork.Timer
	runID string
}

func New(p sim.Params, opts Options) *Controller {
	opts.defaults()
	env := sim.NewEnv(opts.Rand, opts.NewID)
	if opts.NewRunID != nil {
		env.NewRunID = opts.NewRunID
	}

	state := sim.NewState(p)
	state.AutoExecute = opts.AutoExecute

	return &Controller{
		opts:  opts,
		env:   env,
		state: state,
		cmds:  make(chan command),
		done:  make(chan struct{}),
		subs:  make(map[chan Snapshot]struct{}),
	}
}

// Run drives ticks, analysis timers and requests until ctx is done. It may
// be called once.
func (c *Controller) Run(ctx context.Context) error {
	ticker := c.opts.Clock.NewTicker(c.opts.TickInterval)
	defer func() {
		ticker.Stop()
		c.stopTimer()
		c.shutdown()
	}()

	logger.Infof("dashboard started tick=%s analysis_delay=%s auto_execute=%t",
		c.opts.TickInterval, c.opts.AnalysisDelay, c.state.AutoExecute)

	for {
		var timerC <-chan time.Time
		if c.timer != nil {
			timerC = c.timer.Chan()
		}

		select {
		case <-ctx.Done():
			logger.Infof("dashboard stopped")
			return nil

		case <-ticker.Chan():
			c.apply(sim.Tick{At: c.opts.Clock.Now()})

		case <-timerC:
			c.timer = nil
			c.apply(sim.AnalysisElapsed{RunID: c.runID, At: c.opts.Clock.Now()})

		case cmd := <-c.cmds:
			var fx []sim.Effect
			if cmd.ev != nil {
				fx = c.apply(cmd.ev)
			}
			cmd.reply <- result{snap: snapshotOf(c.state), fx: fx}
		}
	}
}

func (c *Controller) apply(ev sim.Event) []sim.Effect {
	next, fx := sim.Step(c.state, ev, c.env)
	c.state = next
	for _, e := range fx {
		c.handle(e)
	}
	c.publish(snapshotOf(c.state))
	return fx
}

func (c *Controller) handle(e sim.Effect) {
	switch e := e.(type) {
	case sim.Ticked:
		sum := c.state.Summary()
		err := c.opts.Journal.RecordEquity(journal.EquitySnapshot{
			Time:          e.Sample.Time,
			Balance:       sum.Balance,
			TotalProfit:   sum.TotalProfit,
			OpenPositions: sum.ActiveTrades,
			WinRate:       sum.WinRate,
		})
		if err != nil {
			logger.Warnf("journal equity: %v", err)
		}

	case sim.AnalysisStarted:
		c.stopTimer()
		c.runID = e.RunID
		c.timer = c.opts.Clock.NewTimer(c.opts.AnalysisDelay)
		logger.Debugf("analysis %s started", e.RunID)

	case sim.AnalysisCompleted:
		logger.Infof("analysis %s produced %d signals", e.RunID, len(e.Signals))

	case sim.PositionOpened:
		p := e.Position
		logger.Infof("opened %s %s %s at %.5f auto=%t", p.ID, p.Side, p.Pair, p.Entry, e.Auto)

	case sim.PositionClosed:
		p := e.Position
		err := c.opts.Journal.RecordTrade(journal.TradeRecord{
			TradeID:    p.ID,
			Pair:       p.Pair,
			Side:       p.Side,
			EntryPrice: p.Entry,
			ExitPrice:  p.Current,
			OpenTime:   p.OpenedAt,
			CloseTime:  e.At,
			Profit:     p.Profit,
			Reason:     CloseReason,
		})
		if err != nil {
			logger.Warnf("journal trade %s: %v", p.ID, err)
		}
		logger.Infof("closed %s profit=%.2f", p.ID, p.Profit)
	}
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Subscribe returns a channel that always holds the most recent snapshot
// after a state change. Older undelivered snapshots are dropped. The channel
// is closed when Run returns or cancel is called.
func (c *Controller) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	c.subMu.Lock()
	defer c.subMu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	c.subs[ch] = struct{}{}

	cancel := func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (c *Controller) publish(s Snapshot) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for ch := range c.subs {
		select {
		case <-ch:
		default:
		}
		ch <- s
	}
}

func (c *Controller) shutdown() {
	c.once.Do(func() {
		close(c.done)
		c.subMu.Lock()
		for ch := range c.subs {
			close(ch)
		}
		c.subs = map[chan Snapshot]struct{}{}
		c.closed = true
		c.subMu.Unlock()
	})
}

// Done is closed once Run has returned.
func (c *Controller) Done() <-chan struct{} { return c.done }

func (c *Controller) do(ctx context.Context, ev sim.Event) (result, error) {
	cmd := command{ev: ev, reply: make(chan result, 1)}
	select {
	case c.cmds <- cmd:
	case <-c.done:
		return result{}, ErrStopped
	case <-ctx.Done():
		return result{}, ctx.Err()
	}

	select {
	case r := <-cmd.reply:
		return r, nil
	case <-ctx.Done():
		return result{}, ctx.Err()
	}
}

func (c *Controller) Snapshot(ctx context.Context) (Snapshot, error) {
	r, err := c.do(ctx, nil)
	return r.snap, err
}

// RunAnalysis starts an analysis run. It reports false if one is already
// in progress.
func (c *Controller) RunAnalysis(ctx context.Context) (bool, error) {
	r, err := c.do(ctx, sim.RunAnalysis{At: c.opts.Clock.Now()})
	if err != nil {
		return false, err
	}
	for _, e := range r.fx {
		if _, ok := e.(sim.AnalysisStarted); ok {
			return true, nil
		}
	}
	return false, nil
}

// ToggleAutoExecute flips the policy and returns the new value.
func (c *Controller) ToggleAutoExecute(ctx context.Context) (bool, error) {
	r, err := c.do(ctx, sim.ToggleAutoExecute{})
	return r.snap.Summary.AutoExecute, err
}

func (c *Controller) SetAutoExecute(ctx context.Context, enabled bool) error {
	_, err := c.do(ctx, sim.SetAutoExecute{Enabled: enabled})
	return err
}

// Open opens a position from explicit parameters.
func (c *Controller) Open(ctx context.Context, req sim.OpenRequest) (sim.Position, error) {
	if err := req.Validate(); err != nil {
		return sim.Position{}, err
	}
	r, err := c.do(ctx, sim.OpenPosition{Request: req, At: c.opts.Clock.Now()})
	if err != nil {
		return sim.Position{}, err
	}
	pos, _ := opened(r.fx)
	return pos, nil
}

// Execute opens a position at the signal's entry in the signal's direction.
func (c *Controller) Execute(ctx context.Context, s sim.Signal) (sim.Position, error) {
	return c.Open(ctx, sim.RequestFromSignal(s))
}

// ExecuteSignal opens the index'th signal of the current batch. It reports
// false if there is no such signal.
func (c *Controller) ExecuteSignal(ctx context.Context, index int) (sim.Position, bool, error) {
	r, err := c.do(ctx, sim.ExecuteSignal{Index: index, At: c.opts.Clock.Now()})
	if err != nil {
		return sim.Position{}, false, err
	}
	pos, ok := opened(r.fx)
	return pos, ok, nil
}

// Close removes the position. It reports false if id was not open.
func (c *Controller) Close(ctx context.Context, id string) (bool, error) {
	r, err := c.do(ctx, sim.ClosePosition{ID: id, At: c.opts.Clock.Now()})
	if err != nil {
		return false, err
	}
	for _, e := range r.fx {
		if _, ok := e.(sim.PositionClosed); ok {
			return true, nil
		}
	}
	return false, nil
}

func opened(fx []sim.Effect) (sim.Position, bool) {
	for _, e := range fx {
		if po, ok := e.(sim.PositionOpened); ok {
			return po.Position, true
		}
	}
	return sim.Position{}, false
}
