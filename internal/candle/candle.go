package candle

import (
	"fmt"
	"math/rand"
)

// DefaultIntervalMs is assumed when a series is too short to derive one.
const DefaultIntervalMs int64 = 60_000

const hourMs int64 = 3_600_000

// Candle is a single OHLCV sample. Time is the bucket start in unix milliseconds.
type Candle struct {
	Time   int64
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Series is a read-only ordered view over candles with identity tracking.
//
// Candles must be ascending by Time with strictly increasing timestamps.
// A Series is never mutated after construction; Extend and UpdateLast return
// new views sharing as much backing storage as possible.
type Series struct {
	candles     []Candle
	fingerprint string
}

// NewSeries wraps candles in a Series, taking ownership of the slice.
// Use it when a fresh dataset is swapped in (new symbol or timeframe); a
// new identity fingerprint is derived from the data. Extend and UpdateLast
// keep the existing fingerprint instead, since they extend the same
// logical series.
func NewSeries(cs []Candle) *Series {
	return &Series{
		candles:     cs,
		fingerprint: Identity(cs),
	}
}

// Identity derives a series fingerprint from the first, middle and last
// timestamps truncated to the hour, combined into one comparable key.
// Returns "" for an empty series. Two datasets with equal fingerprints are
// treated as the same logical series; this is a coarse heuristic, not a
// cryptographic identity, and collisions across genuinely different
// datasets sampled in the same hour buckets are accepted.
func Identity(cs []Candle) string {
	if len(cs) == 0 {
		return ""
	}
	first := cs[0].Time / hourMs
	mid := cs[len(cs)/2].Time / hourMs
	last := cs[len(cs)-1].Time / hourMs
	return fmt.Sprintf("%d:%d:%d", first, mid, last)
}

// Fingerprint returns the identity key, or "" for an empty series.
func (s *Series) Fingerprint() string {
	if s == nil {
		return ""
	}
	return s.fingerprint
}

// Len returns the number of candles.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

// At returns the candle at index i.
func (s *Series) At(i int) Candle {
	return s.candles[i]
}

// Candles returns the backing slice. Callers must treat it as read-only.
func (s *Series) Candles() []Candle {
	if s == nil {
		return nil
	}
	return s.candles
}

// MinTime returns the oldest timestamp, or 0 for an empty series.
func (s *Series) MinTime() int64 {
	if s.Len() == 0 {
		return 0
	}
	return s.candles[0].Time
}

// MaxTime returns the newest timestamp, or 0 for an empty series.
func (s *Series) MaxTime() int64 {
	if s.Len() == 0 {
		return 0
	}
	return s.candles[len(s.candles)-1].Time
}

// AvgInterval returns the mean spacing between candles in milliseconds.
// Falls back to DefaultIntervalMs when the series has fewer than two candles.
func (s *Series) AvgInterval() int64 {
	n := s.Len()
	if n <= 1 {
		return DefaultIntervalMs
	}
	iv := (s.MaxTime() - s.MinTime()) / int64(n-1)
	if iv <= 0 {
		return DefaultIntervalMs
	}
	return iv
}

// Extend returns a new Series with older candles prepended and newer candles
// appended. Incoming candles overlapping the current time range are dropped,
// so re-fetching a page that straddles the seam is harmless.
func (s *Series) Extend(older, newer []Candle) *Series {
	if s.Len() == 0 {
		merged := make([]Candle, 0, len(older)+len(newer))
		merged = append(merged, older...)
		merged = append(merged, newer...)
		return NewSeries(merged)
	}

	head := older
	for len(head) > 0 && head[len(head)-1].Time >= s.MinTime() {
		head = head[:len(head)-1]
	}
	tail := newer
	for len(tail) > 0 && tail[0].Time <= s.MaxTime() {
		tail = tail[1:]
	}
	if len(head) == 0 && len(tail) == 0 {
		return s
	}

	merged := make([]Candle, 0, len(head)+len(s.candles)+len(tail))
	merged = append(merged, head...)
	merged = append(merged, s.candles...)
	merged = append(merged, tail...)
	// Same logical series: the identity survives the extension.
	return &Series{candles: merged, fingerprint: s.fingerprint}
}

// UpdateLast folds a live candle into the series: same bucket replaces the
// final candle, a newer bucket appends, anything older is ignored.
func (s *Series) UpdateLast(c Candle) *Series {
	n := s.Len()
	if n == 0 {
		return NewSeries([]Candle{c})
	}
	last := s.candles[n-1]
	switch {
	case c.Time == last.Time:
		cs := make([]Candle, n)
		copy(cs, s.candles)
		cs[n-1] = c
		return &Series{candles: cs, fingerprint: s.fingerprint}
	case c.Time > last.Time:
		cs := make([]Candle, n, n+1)
		copy(cs, s.candles)
		return &Series{candles: append(cs, c), fingerprint: s.fingerprint}
	default:
		return s
	}
}

// Synthetic generates a deterministic random-walk series for demo mode and
// tests.
func Synthetic(seed int64, n int, startMs, intervalMs int64, basePrice float64) []Candle {
	rng := rand.New(rand.NewSource(seed))
	cs := make([]Candle, 0, n)
	price := basePrice

	for i := 0; i < n; i++ {
		change := (rng.Float64() - 0.5) * 0.02 * price
		open := price
		price += change
		cl := price

		high := open
		if cl > high {
			high = cl
		}
		high += rng.Float64() * 0.005 * price

		low := open
		if cl < low {
			low = cl
		}
		low -= rng.Float64() * 0.005 * price

		cs = append(cs, Candle{
			Time:   startMs + int64(i)*intervalMs,
			Open:   open,
			High:   high,
			Low:    low,
			Close:  cl,
			Volume: 100 + rng.Float64()*900,
		})
	}
	return cs
}
