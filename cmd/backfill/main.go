package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkucko/chartscope/internal/config"
	"github.com/mkucko/chartscope/internal/feed"
	"github.com/mkucko/chartscope/internal/store"
)

// Backfill pages backwards through the exchange's kline history and fills
// the local candle store, so the chart can lazy-load offline.
func main() {
	configPath := flag.String("config", "chartscope.yaml", "path to config file")
	symbol := flag.String("symbol", "", "symbol to backfill (defaults to config)")
	interval := flag.String("interval", "", "candle interval (defaults to config)")
	batches := flag.Int("batches", 10, "number of pages to fetch")
	batchSize := flag.Int("batch-size", 1000, "candles per page")
	flag.Parse()

	log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *symbol == "" {
		*symbol = cfg.Symbol
	}
	if *interval == "" {
		*interval = cfg.Interval
	}
	if *symbol == "" {
		log.Fatal().Msg("no symbol given and none configured")
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("open candle store")
	}
	defer st.Close()

	client := feed.NewHistoryClient(cfg.Feed.RestURL)
	ctx := context.Background()

	var total int
	var before int64 // 0 asks for the newest page
	for i := 0; i < *batches; i++ {
		cs, err := client.Klines(ctx, *symbol, *interval, before, *batchSize)
		if err != nil {
			log.Fatal().Err(err).Int("batch", i).Msg("fetch klines")
		}
		if len(cs) == 0 {
			log.Info().Msg("reached the beginning of history")
			break
		}
		if err := st.SaveBatch(*symbol, *interval, cs); err != nil {
			log.Fatal().Err(err).Msg("save batch")
		}

		total += len(cs)
		before = cs[0].Time
		log.Info().
			Int("batch", i+1).
			Int("candles", len(cs)).
			Time("oldest", time.UnixMilli(cs[0].Time)).
			Msg("saved page")
	}

	log.Info().Int("total", total).Str("symbol", *symbol).Str("interval", *interval).Msg("backfill complete")
}
