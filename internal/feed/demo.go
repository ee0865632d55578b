package feed

import (
	"context"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mkucko/chartscope/internal/candle"
)

// DemoStream synthesizes a random-walk candle feed so the app works with no
// network. Buckets are compressed in wall time: a new candle closes every
// CandleEvery regardless of the nominal interval, which keeps the live-edge
// behavior visible while testing gestures.
type DemoStream struct {
	// IntervalMs is the nominal candle spacing in series time.
	IntervalMs int64
	// CandleEvery is how often a bucket closes in wall time.
	CandleEvery time.Duration
	// Seed fixes the random walk.
	Seed int64

	rng   *rand.Rand
	price float64
	last  candle.Candle
}

// NewDemoStream creates a demo feed continuing from the end of history.
func NewDemoStream(intervalMs int64, seed int64) *DemoStream {
	return &DemoStream{
		IntervalMs:  intervalMs,
		CandleEvery: 2 * time.Second,
		Seed:        seed,
	}
}

// History generates the initial dataset: n candles ending near now.
func (d *DemoStream) History(n int) []candle.Candle {
	start := time.Now().UnixMilli() - int64(n)*d.IntervalMs
	start -= start % d.IntervalMs

	cs := candle.Synthetic(d.Seed, n, start, d.IntervalMs, 100)
	d.rng = rand.New(rand.NewSource(d.Seed + 1))
	d.price = cs[len(cs)-1].Close
	d.last = cs[len(cs)-1]
	return cs
}

// Listen emits in-progress revisions and closed buckets until the context
// is cancelled. History must be called first.
func (d *DemoStream) Listen(ctx context.Context) <-chan Update {
	out := make(chan Update, 16)

	go func() {
		defer close(out)

		revise := time.NewTicker(d.CandleEvery / 4)
		defer revise.Stop()
		closeBucket := time.NewTicker(d.CandleEvery)
		defer closeBucket.Stop()

		current := d.nextCandle()
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("demo stream stopped")
				return
			case <-revise.C:
				current = d.reviseCandle(current)
				select {
				case out <- Update{Candle: current}:
				case <-ctx.Done():
					return
				}
			case <-closeBucket.C:
				select {
				case out <- Update{Candle: current, Closed: true}:
				case <-ctx.Done():
					return
				}
				d.last = current
				d.price = current.Close
				current = d.nextCandle()
			}
		}
	}()

	return out
}

func (d *DemoStream) nextCandle() candle.Candle {
	return candle.Candle{
		Time:   d.last.Time + d.IntervalMs,
		Open:   d.price,
		High:   d.price,
		Low:    d.price,
		Close:  d.price,
		Volume: 0,
	}
}

func (d *DemoStream) reviseCandle(c candle.Candle) candle.Candle {
	move := (d.rng.Float64() - 0.5) * 0.01 * c.Close
	c.Close += move
	if c.Close > c.High {
		c.High = c.Close
	}
	if c.Close < c.Low {
		c.Low = c.Close
	}
	c.Volume += d.rng.Float64() * 50
	return c
}
