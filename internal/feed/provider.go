package feed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mkucko/chartscope/internal/candle"
	"github.com/mkucko/chartscope/internal/store"
)

// Provider supplies candle data for one market at a time: the initial
// dataset, older history pages, and a live update stream.
type Provider interface {
	// Initial returns the newest limit candles for a market.
	Initial(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error)
	// Older returns up to limit candles strictly before beforeMs, ascending.
	Older(ctx context.Context, symbol, interval string, beforeMs int64, limit int) ([]candle.Candle, error)
	// Stream opens a live update channel. The returned cancel func tears
	// the stream down.
	Stream(ctx context.Context, symbol, interval string) (<-chan Update, context.CancelFunc, error)
}

// LiveProvider serves data from the exchange with a sqlite cache in front
// of the history endpoint: pages already seen are not re-fetched.
type LiveProvider struct {
	History   *HistoryClient
	Store     *store.CandleStore
	StreamURL string
}

// Initial fetches the newest candles from the exchange and caches them,
// falling back to the cache when the network is unavailable.
func (p *LiveProvider) Initial(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	cs, err := p.History.Klines(ctx, symbol, interval, 0, limit)
	if err != nil {
		log.Warn().Err(err).Msg("initial fetch failed, trying cache")
		cached, cacheErr := p.Store.LoadRecent(symbol, interval, limit)
		if cacheErr != nil || len(cached) == 0 {
			return nil, fmt.Errorf("initial candles: %w", err)
		}
		return cached, nil
	}
	if err := p.Store.SaveBatch(symbol, interval, cs); err != nil {
		log.Warn().Err(err).Msg("caching initial candles failed")
	}
	return cs, nil
}

// Older serves a history page from cache when it is complete, otherwise
// from the exchange, writing fetched pages back to the cache.
func (p *LiveProvider) Older(ctx context.Context, symbol, interval string, beforeMs int64, limit int) ([]candle.Candle, error) {
	cached, err := p.Store.LoadBefore(symbol, interval, beforeMs, limit)
	if err == nil && len(cached) >= limit {
		return cached, nil
	}
	if err != nil {
		log.Warn().Err(err).Msg("cache read failed")
	}

	cs, err := p.History.Klines(ctx, symbol, interval, beforeMs, limit)
	if err != nil {
		if len(cached) > 0 {
			// A short cached page is better than nothing while offline.
			return cached, nil
		}
		return nil, fmt.Errorf("older candles: %w", err)
	}
	if err := p.Store.SaveBatch(symbol, interval, cs); err != nil {
		log.Warn().Err(err).Msg("caching history page failed")
	}
	return cs, nil
}

// Stream connects the kline websocket for the market.
func (p *LiveProvider) Stream(ctx context.Context, symbol, interval string) (<-chan Update, context.CancelFunc, error) {
	ctx, cancel := context.WithCancel(ctx)

	ks := NewKlineStream(p.StreamURL, symbol, interval)
	if err := ks.Connect(ctx); err != nil {
		cancel()
		return nil, nil, err
	}

	updates := ks.Listen(ctx)
	stop := func() {
		cancel()
		ks.Close()
	}
	return updates, stop, nil
}

// DemoProvider serves synthetic data with unlimited history, so the whole
// gesture surface works offline.
type DemoProvider struct {
	IntervalMs int64
	Seed       int64

	stream *DemoStream
}

// Initial generates the starting dataset.
func (p *DemoProvider) Initial(ctx context.Context, symbol, interval string, limit int) ([]candle.Candle, error) {
	p.stream = NewDemoStream(p.IntervalMs, p.Seed)
	return p.stream.History(limit), nil
}

// Older generates another synthetic page ending just before beforeMs.
func (p *DemoProvider) Older(ctx context.Context, symbol, interval string, beforeMs int64, limit int) ([]candle.Candle, error) {
	start := beforeMs - int64(limit)*p.IntervalMs
	return candle.Synthetic(p.Seed+beforeMs, limit, start, p.IntervalMs, 100), nil
}

// Stream emits the synthetic live feed.
func (p *DemoProvider) Stream(ctx context.Context, symbol, interval string) (<-chan Update, context.CancelFunc, error) {
	if p.stream == nil {
		p.stream = NewDemoStream(p.IntervalMs, p.Seed)
		p.stream.History(1)
	}
	ctx, cancel := context.WithCancel(ctx)
	return p.stream.Listen(ctx), cancel, nil
}
