package main

import (
	"fmt"
	"math"
)

// Rate heterogeneity across sites
// -------------------------------
//
// Real sites don't all evolve at the same speed. The standard way to model
// that is a gamma distribution over rate multipliers, discretized into a few
// categories (Yang's discrete gamma), plus an optional proportion of sites
// that never change at all. A site's rate multiplies the branch length
// wherever the transition matrix is computed; nothing else in the simulation
// knows about rates.

type RateParams struct {
	// Alpha is the gamma shape. 0 disables gamma rates entirely.
	Alpha float64
	// NumCategories is the number of discrete gamma categories.
	NumCategories int64
	// PInvariant is the proportion of invariant sites, in [0, 1).
	PInvariant float64
}

// DiscreteGammaRates returns the rate of each category: the median of each of
// the k equal-probability slices of Gamma(alpha, 1/alpha), rescaled so the
// category mean is exactly 1. Medians instead of means keep the computation
// inside the quantile function; after rescaling the difference between the
// two variants is well below what a simulation can feel.
func DiscreteGammaRates(alpha float64, k int64) []float64 {
	if alpha <= 0 || k < 1 {
		Check(fmt.Errorf("invalid gamma rates: alpha %f, %d categories",
			alpha, k))
	}
	rates := make([]float64, k)
	sum := 0.0
	for i := int64(0); i < k; i++ {
		p := (2.0*float64(i) + 1.0) / (2.0 * float64(k))
		rates[i] = gammaQuantile(p, alpha, 1.0/alpha)
		sum += rates[i]
	}
	for i := range rates {
		rates[i] *= float64(k) / sum
	}
	return rates
}

// DrawSiteRates draws the rate multiplier of every site: 0 for invariant
// sites, otherwise a uniformly chosen gamma category. The non-invariant rates
// are scaled by 1/(1-PInvariant), which keeps the expected rate over all
// sites at 1 so that branch lengths keep meaning substitutions per site.
func DrawSiteRates(r *Rand, params RateParams, numSites int64) []float64 {
	if params.PInvariant < 0 || params.PInvariant >= 1 {
		Check(fmt.Errorf("invalid proportion of invariant sites: %f",
			params.PInvariant))
	}

	var catRates []float64
	if params.Alpha > 0 {
		catRates = DiscreteGammaRates(params.Alpha, params.NumCategories)
	}

	scale := 1.0 / (1.0 - params.PInvariant)
	rates := make([]float64, numSites)
	for i := range rates {
		if params.PInvariant > 0 && r.RFloat01() < params.PInvariant {
			rates[i] = 0
			continue
		}
		if catRates == nil {
			rates[i] = scale
		} else {
			rates[i] = catRates[r.RInt(0, params.NumCategories-1)] * scale
		}
	}
	return rates
}

// gammaQuantile inverts the gamma CDF by bisection. Slow and safe; it runs a
// handful of times per dataset, not per site.
func gammaQuantile(p, shape, scale float64) float64 {
	lo, hi := 0.0, 1.0
	for gammaP(shape, hi/scale) < p {
		hi *= 2
		if hi > 1e10 {
			break
		}
	}
	for i := 0; i < 200; i++ {
		mid := (lo + hi) / 2
		if gammaP(shape, mid/scale) < p {
			lo = mid
		} else {
			hi = mid
		}
	}
	return (lo + hi) / 2
}

// gammaP is the regularized lower incomplete gamma function P(a, x): the
// series expansion for small x, the continued fraction for large x.
func gammaP(a, x float64) float64 {
	if x < 0 || a <= 0 {
		Check(fmt.Errorf("gammaP: invalid arguments a %f x %f", a, x))
	}
	if x == 0 {
		return 0
	}
	if x < a+1 {
		return gammaSeries(a, x)
	}
	return 1 - gammaContinuedFraction(a, x)
}

func gammaSeries(a, x float64) float64 {
	lg, _ := math.Lgamma(a)
	ap := a
	sum := 1.0 / a
	del := sum
	for i := 0; i < 500; i++ {
		ap++
		del *= x / ap
		sum += del
		if math.Abs(del) < math.Abs(sum)*1e-15 {
			break
		}
	}
	return sum * math.Exp(-x+a*math.Log(x)-lg)
}

func gammaContinuedFraction(a, x float64) float64 {
	lg, _ := math.Lgamma(a)
	tiny := 1e-300
	b := x + 1 - a
	c := 1 / tiny
	d := 1 / b
	h := d
	for i := 1; i < 500; i++ {
		an := -float64(i) * (float64(i) - a)
		b += 2
		d = an*d + b
		if math.Abs(d) < tiny {
			d = tiny
		}
		c = b + an/c
		if math.Abs(c) < tiny {
			c = tiny
		}
		d = 1 / d
		del := d * c
		h *= del
		if math.Abs(del-1) < 1e-15 {
			break
		}
	}
	return math.Exp(-x+a*math.Log(x)-lg) * h
}
