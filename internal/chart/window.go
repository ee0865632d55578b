// Package chart implements the temporal viewport engine: deciding which slice
// of an ordered candle series is visible, reducing it to a renderable density,
// deriving price-axis bounds, and translating pan/zoom gestures into window
// movements.
package chart

import (
	"sort"

	"github.com/mkucko/chartscope/internal/candle"
)

// SliceRange returns the candles whose timestamps fall in [from, to],
// widened by one candle on each side when available so partially visible
// edge candles still render.
//
// Candles must be ascending by Time. The result is a subslice of cs, not a
// copy. A zero from/to pair is the uninitialized-viewport sentinel and
// yields nil. Both searches are binary; this runs on every pan tick and must
// stay sub-linear.
func SliceRange(cs []candle.Candle, from, to int64) []candle.Candle {
	if len(cs) == 0 || (from == 0 && to == 0) || from > to {
		return nil
	}

	// First index with Time >= from.
	lo := sort.Search(len(cs), func(i int) bool {
		return cs[i].Time >= from
	})
	// First index with Time > to; hi-1 is the last candle inside the window.
	hi := sort.Search(len(cs), func(i int) bool {
		return cs[i].Time > to
	})

	if lo > 0 {
		lo--
	}
	if hi < len(cs) {
		hi++
	}
	if lo >= hi {
		return nil
	}
	return cs[lo:hi]
}
