package chart

import "github.com/mkucko/chartscope/internal/candle"

// Downsample reduces cs to at most max candles by merging consecutive groups
// into synthetic aggregates: first open, highest high, lowest low, last
// close, summed volume, first timestamp. The final group may be ragged and
// is still emitted, so total volume and price extremes survive exactly.
//
// This is a display-only transform; cs is never mutated. When cs already
// fits (or max is non-positive) it is returned unchanged.
func Downsample(cs []candle.Candle, max int) []candle.Candle {
	if max <= 0 || len(cs) <= max {
		return cs
	}

	groupSize := (len(cs) + max - 1) / max
	out := make([]candle.Candle, 0, (len(cs)+groupSize-1)/groupSize)

	for start := 0; start < len(cs); start += groupSize {
		end := start + groupSize
		if end > len(cs) {
			end = len(cs)
		}
		group := cs[start:end]

		agg := candle.Candle{
			Time:   group[0].Time,
			Open:   group[0].Open,
			High:   group[0].High,
			Low:    group[0].Low,
			Close:  group[len(group)-1].Close,
			Volume: 0,
		}
		for _, c := range group {
			if c.High > agg.High {
				agg.High = c.High
			}
			if c.Low < agg.Low {
				agg.Low = c.Low
			}
			agg.Volume += c.Volume
		}
		out = append(out, agg)
	}
	return out
}
