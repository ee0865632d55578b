package chart

import (
	"math"
	"testing"

	"github.com/mkucko/chartscope/internal/candle"
)

func TestComputeBoundsEmpty(t *testing.T) {
	b := ComputeBounds(nil, 0)
	if b.Min != 0 || b.Max != 1 {
		t.Errorf("expected fallback {0,1}, got %+v", b)
	}
}

func TestComputeBoundsPadding(t *testing.T) {
	cs := []candle.Candle{
		{Open: 100, High: 110, Low: 90, Close: 105},
	}
	b := ComputeBounds(cs, 0)
	// Raw range 20, padded by 10% on both ends.
	if math.Abs(b.Min-88) > 1e-9 || math.Abs(b.Max-112) > 1e-9 {
		t.Errorf("expected {88,112}, got %+v", b)
	}
}

func TestComputeBoundsIncludesBodies(t *testing.T) {
	// A slice where open/close sit outside high/low would be malformed, but
	// bodies must participate so body-only renders stay inside the axis.
	cs := []candle.Candle{
		{Open: 80, High: 110, Low: 90, Close: 120},
	}
	b := ComputeBounds(cs, 0)
	if b.Min > 80 || b.Max < 120 {
		t.Errorf("bodies escaped the bounds: %+v", b)
	}
}

func TestComputeBoundsFlat(t *testing.T) {
	cs := make([]candle.Candle, 5)
	for i := range cs {
		cs[i] = candle.Candle{Open: 1, High: 1, Low: 1, Close: 1}
	}
	b := ComputeBounds(cs, 0)
	if math.Abs(b.Min-0.995) > 1e-9 || math.Abs(b.Max-1.005) > 1e-9 {
		t.Errorf("expected synthetic band {0.995,1.005}, got %+v", b)
	}
}

func TestComputeBoundsLivePrice(t *testing.T) {
	cs := []candle.Candle{
		{Open: 100, High: 110, Low: 90, Close: 105},
	}

	// Live price above the slice extends the top.
	b := ComputeBounds(cs, 150)
	if b.Max < 150 {
		t.Errorf("live price 150 not contained: %+v", b)
	}

	// Live price inside the slice changes nothing.
	inside := ComputeBounds(cs, 100)
	plain := ComputeBounds(cs, 0)
	if inside != plain {
		t.Errorf("inside live price altered bounds: %+v vs %+v", inside, plain)
	}

	// Zero and NaN mean "no live price".
	if ComputeBounds(cs, 0) != ComputeBounds(cs, math.NaN()) {
		t.Error("zero and NaN live prices should be equivalent")
	}
}

func TestComputeBoundsIgnoresJunk(t *testing.T) {
	cs := []candle.Candle{
		{Open: math.NaN(), High: math.Inf(1), Low: -5, Close: 0},
		{Open: 100, High: 110, Low: 90, Close: 105},
	}
	b := ComputeBounds(cs, 0)
	if math.IsNaN(b.Min) || math.IsNaN(b.Max) || math.IsInf(b.Min, 0) || math.IsInf(b.Max, 0) {
		t.Fatalf("non-finite bounds: %+v", b)
	}
	if b.Min <= 0 {
		t.Errorf("negative junk leaked into bounds: %+v", b)
	}
}

func TestComputeBoundsAllJunk(t *testing.T) {
	cs := []candle.Candle{
		{Open: math.NaN(), High: -1, Low: 0, Close: math.Inf(-1)},
	}
	b := ComputeBounds(cs, -3)
	if b.Min != 0 || b.Max != 1 {
		t.Errorf("expected fallback {0,1}, got %+v", b)
	}
}

func TestComputeBoundsOrdering(t *testing.T) {
	slices := [][]candle.Candle{
		nil,
		{{Open: 1, High: 1, Low: 1, Close: 1}},
		{{Open: 100, High: 110, Low: 90, Close: 105}},
		minuteCandles(50, 0),
	}
	for i, cs := range slices {
		b := ComputeBounds(cs, 0)
		if !(b.Min <= b.Max) {
			t.Errorf("slice %d: min %f > max %f", i, b.Min, b.Max)
		}
		if b.Range() < 0 {
			t.Errorf("slice %d: negative range", i)
		}
	}
}
