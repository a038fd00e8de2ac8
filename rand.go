package main

import (
	"math"
)

// Rand is the only source of randomness in the simulation. It has an explicit
// seed so that every run is reproducible: the same seed must always produce
// the same tree and the same alignments, on any machine, at any parallelism.
// Nothing in the simulation is allowed to touch the global math/rand functions
// or crypto/rand, because that would silently break replays and the regression
// tests.
//
// Rand holds its entire state by value, on purpose. Copying a Rand forks the
// stream: the copy and the original produce identical numbers from the point
// of the copy onwards. This is useful when a part of the simulation wants to
// look ahead without disturbing the main stream. It also means the generator
// is fully under my control: a Go version bump cannot change the numbers a
// seed produces, which would invalidate every recorded run.
//
// The generator itself is splitmix64. It is not cryptographic and doesn't
// need to be; it is fast, tiny and passes the statistical tests that matter
// for a simulation.
type Rand struct {
	state uint64
}

func NewRand(seed int64) Rand {
	return Rand{state: uint64(seed)}
}

func (r *Rand) next() uint64 {
	r.state += 0x9e3779b97f4a7c15
	z := r.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// RInt returns a random integer in the interval [min, max]. Both ends
// inclusive, because that is how I think about ranges when writing
// simulations, even if it's not how Go's stdlib thinks about them.
func (r *Rand) RInt(min, max int64) int64 {
	if min > max {
		panic("RInt: min > max")
	}
	return min + int64(r.next()%uint64(max-min+1))
}

// RFloat returns a random float in the interval [min, max).
func (r *Rand) RFloat(min, max float64) float64 {
	return min + r.RFloat01()*(max-min)
}

// RFloat01 returns a random float in the interval [0, 1).
func (r *Rand) RFloat01() float64 {
	return float64(r.next()>>11) / (1 << 53)
}

// RExp returns a random value from an exponential distribution with the given
// mean, by inversion.
func (r *Rand) RExp(mean float64) float64 {
	return -mean * math.Log(1-r.RFloat01())
}

// RNorm returns a random value from the standard normal distribution, by the
// polar (Marsaglia) method. One of the two values the method produces is
// thrown away; caching it would make the stream depend on the call history in
// a way that is harder to reason about when copying generators.
func (r *Rand) RNorm() float64 {
	for {
		u := r.RFloat(-1, 1)
		v := r.RFloat(-1, 1)
		s := u*u + v*v
		if s > 0 && s < 1 {
			return u * math.Sqrt(-2*math.Log(s)/s)
		}
	}
}

// RGamma returns a random value from a gamma distribution with the given
// shape and scale, by the Marsaglia-Tsang squeeze method. For shape < 1 it
// draws for shape+1 and multiplies by U^(1/shape).
func (r *Rand) RGamma(shape, scale float64) float64 {
	if shape < 1 {
		u := r.RFloat01()
		return r.RGamma(shape+1, scale) * math.Pow(u, 1/shape)
	}

	d := shape - 1.0/3.0
	c := 1.0 / math.Sqrt(9.0*d)
	for {
		x := r.RNorm()
		v := 1.0 + c*x
		if v <= 0 {
			continue
		}
		v = v * v * v
		u := r.RFloat01()
		if u < 1.0-0.0331*x*x*x*x {
			return d * v * scale
		}
		if math.Log(u) < 0.5*x*x+d*(1.0-v+math.Log(v)) {
			return d * v * scale
		}
	}
}

// The global generator is a convenience for tests and throwaway experiments.
// The simulation itself always carries its own Rand.
var globalRand = NewRand(0)

func RSeed(seed int64) {
	globalRand = NewRand(seed)
}

func RInt(min, max int64) int64 {
	return globalRand.RInt(min, max)
}

func RFloat01() float64 {
	return globalRand.RFloat01()
}
