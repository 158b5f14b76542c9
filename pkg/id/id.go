// Package id hands out time-sortable position identifiers.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator produces ULIDs that stay lexicographically increasing even when
// several are minted inside the same millisecond.
type Generator struct {
	mu   sync.Mutex
	now  func() time.Time
	mono io.Reader
}

// NewGenerator returns a generator seeded from crypto/rand. A nil now uses
// time.Now.
func NewGenerator(now func() time.Time) *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewSeeded(now, seed)
}

// NewSeeded returns a generator with deterministic entropy.
func NewSeeded(now func() time.Time, seed int64) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{
		now:  now,
		mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
	}
}

// New returns the next identifier.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.mono)
	if err != nil {
		// Only reachable if entropy is exhausted within one millisecond.
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(nil)

// New returns an identifier from the process-wide generator.
func New() string { return std.New() }
