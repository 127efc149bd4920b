package simulation

import (
	"math"
	"math/rand/v2"
)

// Rand is the randomness every generator draws from. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
}

// NewRand returns a PCG-backed source. A zero seed picks a random one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = rand.Uint64()
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Chance reports true with the given probability in [0,1].
func Chance(rnd Rand, probability float64) bool {
	return rnd.Float64() < probability
}

func between(rnd Rand, lo, hi float64) float64 {
	return rnd.Float64()*(hi-lo) + lo
}

// pick returns an index in [0,n).
func pick(rnd Rand, n int) int {
	i := int(math.Floor(rnd.Float64() * float64(n)))
	return clampInt(i, 0, n-1)
}

func fluctuate(value, percentage float64, rnd Rand) float64 {
	return value + value*between(rnd, -percentage, percentage)/100
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Clamp exposes the percentage clamp used by generators.
func Clamp(v, lo, hi float64) float64 { return clamp(v, lo, hi) }
