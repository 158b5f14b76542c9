package sim

import "time"

// Event is an input to Step.
type Event interface{ event() }

// Tick advances the price window and revalues every position.
type Tick struct{ At time.Time }

// RunAnalysis clears signals and enters ANALYZING. Ignored while analyzing.
type RunAnalysis struct{ At time.Time }

// AnalysisElapsed ends the analysis run RunID once its delay has passed.
type AnalysisElapsed struct {
	RunID string
	At    time.Time
}

type ToggleAutoExecute struct{}

type SetAutoExecute struct{ Enabled bool }

// OpenPosition opens a position from explicit parameters.
type OpenPosition struct {
	Request OpenRequest
	At      time.Time
}

// ExecuteSignal opens a position for the Index'th signal of the current batch.
type ExecuteSignal struct {
	Index int
	At    time.Time
}

type ClosePosition struct {
	ID string
	At time.Time
}

func (Tick) event()              {}
func (RunAnalysis) event()       {}
func (AnalysisElapsed) event()   {}
func (ToggleAutoExecute) event() {}
func (SetAutoExecute) event()    {}
func (OpenPosition) event()      {}
func (ExecuteSignal) event()     {}
func (ClosePosition) event()     {}

// Effect reports something Step did that the caller may need to act on.
type Effect interface{ effect() }

type Ticked struct{ Sample Sample }

// AnalysisStarted asks the caller to deliver AnalysisElapsed{RunID} after the delay.
type AnalysisStarted struct{ RunID string }

type AnalysisCompleted struct {
	RunID   string
	Signals []Signal
}

type PositionOpened struct {
	Position Position
	Auto     bool
}

type PositionClosed struct {
	Position Position
	At       time.Time
}

func (Ticked) effect()            {}
func (AnalysisStarted) effect()   {}
func (AnalysisCompleted) effect() {}
func (PositionOpened) effect()    {}
func (PositionClosed) effect()    {}
