package analysis

import (
	"math"
	"sort"
)

// DefaultQuantile is the cap used by Normalize01 when callers pass 0.
const DefaultQuantile = 0.90

// Quantile computes the q-quantile of xs using linear interpolation between
// closest ranks (the standard percentile definition). Alternate interpolation
// schemes produce different boundary values, so this method is pinned.
func Quantile(xs []float64, q float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	cp := append([]float64(nil), xs...)
	sort.Float64s(cp)
	if q <= 0 {
		return cp[0]
	}
	if q >= 1 {
		return cp[len(cp)-1]
	}
	pos := q * float64(len(cp)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return cp[lo]
	}
	frac := pos - float64(lo)
	return cp[lo]*(1-frac) + cp[hi]*frac
}

// Normalize01 maps a raw series to [0,1] using percentile-capped min-max
// scaling. The value at the given quantile becomes the cap: everything is
// clipped to [0, cap] and divided by it, so a single extreme outlier cannot
// push the rest of the series toward zero. A non-positive cap (constant-zero
// column) yields an all-zero result.
func Normalize01(xs []float64, quantile float64) []float64 {
	if quantile <= 0 {
		quantile = DefaultQuantile
	}
	out := make([]float64, len(xs))
	if len(xs) == 0 {
		return out
	}
	hi := Quantile(xs, quantile)
	if hi <= 0 {
		return out
	}
	for i, v := range xs {
		out[i] = clip(v, 0, hi) / hi
	}
	return out
}

// NormalizeAgainst scales a single value against a cohort baseline series
// using the same percentile cap as Normalize01.
func NormalizeAgainst(x float64, baseline []float64, quantile float64) float64 {
	if quantile <= 0 {
		quantile = DefaultQuantile
	}
	if len(baseline) == 0 {
		return 0
	}
	hi := Quantile(baseline, quantile)
	if hi <= 0 {
		return 0
	}
	return clip(x, 0, hi) / hi
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Clip bounds x to [lo, hi].
func Clip(x, lo, hi float64) float64 { return clip(x, lo, hi) }
