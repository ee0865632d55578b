package chart

import (
	"math"

	"github.com/mkucko/chartscope/internal/candle"
)

// Bounds is the price-axis range derived from a visible slice.
type Bounds struct {
	Min float64
	Max float64
}

// Range returns Max - Min.
func (b Bounds) Range() float64 {
	return b.Max - b.Min
}

// flatThreshold is the relative range below which a slice is treated as flat
// and given a synthetic band, so the axis never collapses to zero height.
const flatThreshold = 1e-4

// ComputeBounds derives price-axis bounds from a slice. Open and close
// participate alongside high/low so body-only renders stay inside the axis.
// A livePrice > 0 is folded in so the current quote is always representable;
// pass 0 (or NaN) for no live price.
//
// Degenerate input falls back to {0, 1}. A flat slice gets a ±0.5% band
// around its midpoint; otherwise both ends are padded by 10% of the raw
// range.
func ComputeBounds(cs []candle.Candle, livePrice float64) Bounds {
	min := math.Inf(1)
	max := math.Inf(-1)

	fold := func(v float64) {
		if !isUsablePrice(v) {
			return
		}
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	for _, c := range cs {
		fold(c.Open)
		fold(c.Close)
		fold(c.Low)
		fold(c.High)
	}
	fold(livePrice)

	if !isUsablePrice(min) || !isUsablePrice(max) || min > max {
		return Bounds{Min: 0, Max: 1}
	}

	rng := max - min
	mid := (max + min) / 2
	if mid <= 0 {
		return Bounds{Min: 0, Max: 1}
	}

	if rng/mid < flatThreshold {
		// Flat slice: synthesize a ±0.5% band around the midpoint.
		return Bounds{Min: mid * 0.995, Max: mid * 1.005}
	}

	pad := rng * 0.1
	return Bounds{Min: min - pad, Max: max + pad}
}

func isUsablePrice(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
