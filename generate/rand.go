package generate

import "math/rand/v2"

// Rand is the source of randomness used when colours are randomized
type Rand interface {
	// IntN returns a value in [0, n)
	IntN(n int) int
}

// NewRand returns a deterministic random source for the given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

type globalRand struct{}

func (globalRand) IntN(n int) int {
	return rand.IntN(n)
}

// DefaultRand draws from the process wide generator
var DefaultRand Rand = globalRand{}
