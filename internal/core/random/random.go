// Package random provides the seeded pseudo-random sources used to draw the
// per-enrollment reference number. Sources are plain values passed to the
// assignment engine; nothing in this package holds global state.
package random

import (
	"fmt"
	"math"
	"math/rand/v2"
)

// Source produces uniformly distributed float64 values in [0, 1).
type Source interface {
	Float64() float64
}

// Generator names accepted by New.
const (
	GeneratorMT19937 = "mt19937"
	GeneratorPCG     = "pcg"
)

// New returns a Source for the named generator seeded with seed.
// An empty name selects the MT19937 generator, which takes 32-bit seeds only.
func New(generator string, seed uint64) (Source, error) {
	switch generator {
	case "", GeneratorMT19937:
		if seed > math.MaxUint32 {
			return nil, fmt.Errorf("seed %d exceeds %d for %s", seed, uint64(math.MaxUint32), GeneratorMT19937)
		}
		return NewMT19937(uint32(seed)), nil
	case GeneratorPCG:
		return NewPCG(seed), nil
	default:
		return nil, fmt.Errorf("unknown random generator %q (want %s or %s)", generator, GeneratorMT19937, GeneratorPCG)
	}
}

// PCG wraps math/rand/v2's PCG generator.
type PCG struct {
	r *rand.Rand
}

// NewPCG returns a PCG source seeded with seed.
func NewPCG(seed uint64) *PCG {
	return &PCG{r: rand.New(rand.NewPCG(seed, seed))}
}

// Float64 returns the next value in [0, 1).
func (p *PCG) Float64() float64 {
	return p.r.Float64()
}
