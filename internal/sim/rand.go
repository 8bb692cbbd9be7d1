package sim

import (
	"math/rand"
	"time"
)

// Rand is the random source driving the price walk. Injected so ticks are
// deterministic and reproducible in tests.
type Rand interface {
	Float64() float64
}

// NewRand returns a time-seeded source for production use.
func NewRand() Rand {
	return rand.New(rand.NewSource(time.Now().UnixNano()))
}
