package sampler

import "math/rand/v2"

// Rand is the random source consumed by Sample: one uniform draw in
// [0.0, 1.0). Draws of exactly 0 are retried where a logarithm follows.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a deterministic generator seeded with seed. Two passes over
// the same stream with the same k and seed produce the same sample.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// DefaultRand returns the process-wide generator. It is safe for concurrent
// use and needs no locking by the caller.
func DefaultRand() Rand { return globalRand{} }

type globalRand struct{}

func (globalRand) Float64() float64 { return rand.Float64() }
