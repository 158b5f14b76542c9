package sim

import "time"

// Sample is one synthetic quote for the chart.
type Sample struct {
	Time  time.Time `json:"time"`
	Price float64   `json:"price"`
}

// NextSample draws base + uniform(-jitter, +jitter).
func NextSample(r Rand, base, jitter float64, at time.Time) Sample {
	return Sample{Time: at, Price: base + uniform(r, jitter)}
}

// PriceWindow keeps the most recent samples, evicting the oldest first.
type PriceWindow struct {
	size    int
	samples []Sample
}

func NewPriceWindow(size int) PriceWindow {
	if size < 1 {
		size = 1
	}
	return PriceWindow{size: size, samples: make([]Sample, 0, size)}
}

func (w *PriceWindow) Push(s Sample) {
	if w.size < 1 {
		w.size = 1
	}
	if len(w.samples) >= w.size {
		n := copy(w.samples, w.samples[len(w.samples)-w.size+1:])
		w.samples = w.samples[:n]
	}
	w.samples = append(w.samples, s)
}

// Samples returns a copy, oldest first.
func (w PriceWindow) Samples() []Sample {
	out := make([]Sample, len(w.samples))
	copy(out, w.samples)
	return out
}

func (w PriceWindow) Len() int  { return len(w.samples) }
func (w PriceWindow) Size() int { return w.size }

func (w PriceWindow) Last() (Sample, bool) {
	if len(w.samples) == 0 {
		return Sample{}, false
	}
	return w.samples[len(w.samples)-1], true
}

func (w PriceWindow) clone() PriceWindow {
	c := PriceWindow{size: w.size, samples: make([]Sample, len(w.samples), w.size)}
	copy(c.samples, w.samples)
	return c
}
