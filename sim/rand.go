package sim

import (
	"math/rand"
	"time"
)

// Rand is the source of every simulated draw. Float64 must return values in [0, 1).
type Rand interface {
	Float64() float64
}

// NewRand returns a math/rand source. A zero seed is replaced by the current time.
func NewRand(seed int64) *rand.Rand {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return rand.New(rand.NewSource(seed))
}

// uniform draws from (-halfWidth, +halfWidth).
func uniform(r Rand, halfWidth float64) float64 {
	return (r.Float64() - 0.5) * 2 * halfWidth
}

// Sequence replays a fixed list of draws, wrapping around at the end.
type Sequence struct {
	vals []float64
	next int
}

func NewSequence(vals ...float64) *Sequence {
	if len(vals) == 0 {
		vals = []float64{0.5}
	}
	return &Sequence{vals: vals}
}

func (s *Sequence) Float64() float64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

// Drawn reports how many values have been consumed.
func (s *Sequence) Drawn() int { return s.next }
