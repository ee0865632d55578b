package chart

import (
	"testing"

	"github.com/mkucko/chartscope/internal/candle"
)

func TestDownsampleIdentityWhenSmall(t *testing.T) {
	cs := minuteCandles(100, 0)
	got := Downsample(cs, 200)
	if len(got) != 100 {
		t.Fatalf("expected unchanged slice, got %d candles", len(got))
	}
}

func TestDownsampleGroupSize(t *testing.T) {
	// 450 candles into a 200 cap: groupSize 3, 150 aggregates.
	cs := minuteCandles(450, 0)
	got := Downsample(cs, 200)
	if len(got) != 150 {
		t.Fatalf("expected 150 aggregates, got %d", len(got))
	}
}

func TestDownsampleRaggedLastGroup(t *testing.T) {
	// 451 candles, groupSize 3: 150 full groups plus one single-candle group.
	cs := minuteCandles(451, 0)
	got := Downsample(cs, 200)
	if len(got) != 151 {
		t.Fatalf("expected 151 aggregates, got %d", len(got))
	}
	if got[len(got)-1].Time != cs[450].Time {
		t.Error("ragged final group lost its candle")
	}
}

func TestDownsampleAggregation(t *testing.T) {
	cs := []candle.Candle{
		{Time: 0, Open: 10, High: 12, Low: 9, Close: 11, Volume: 1},
		{Time: 60_000, Open: 11, High: 15, Low: 10, Close: 14, Volume: 2},
		{Time: 120_000, Open: 14, High: 14, Low: 8, Close: 9, Volume: 3},
		{Time: 180_000, Open: 9, High: 10, Low: 7, Close: 8, Volume: 4},
	}

	got := Downsample(cs, 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 aggregates, got %d", len(got))
	}

	first := got[0]
	if first.Time != 0 || first.Open != 10 || first.High != 15 || first.Low != 9 || first.Close != 14 || first.Volume != 3 {
		t.Errorf("bad first aggregate: %+v", first)
	}

	second := got[1]
	if second.Time != 120_000 || second.Open != 14 || second.High != 14 || second.Low != 7 || second.Close != 8 || second.Volume != 7 {
		t.Errorf("bad second aggregate: %+v", second)
	}
}

func TestDownsamplePreservesTotalVolume(t *testing.T) {
	for _, n := range []int{1, 7, 200, 333, 450, 1000} {
		cs := minuteCandles(n, 0)
		var want float64
		for _, c := range cs {
			want += c.Volume
		}

		got := Downsample(cs, 150)
		var sum float64
		for _, c := range got {
			sum += c.Volume
		}
		if sum != want {
			t.Errorf("n=%d: volume %f after downsample, want %f", n, sum, want)
		}
		if len(got) > 150 {
			t.Errorf("n=%d: %d candles exceeds cap", n, len(got))
		}
	}
}

func TestDownsampleDoesNotMutateInput(t *testing.T) {
	cs := minuteCandles(10, 0)
	orig := make([]candle.Candle, len(cs))
	copy(orig, cs)

	Downsample(cs, 3)
	for i := range cs {
		if cs[i] != orig[i] {
			t.Fatalf("input candle %d mutated", i)
		}
	}
}
