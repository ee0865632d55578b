package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mkucko/chartscope/internal/config"
	"github.com/mkucko/chartscope/internal/feed"
	"github.com/mkucko/chartscope/internal/store"
	"github.com/mkucko/chartscope/tui"
)

func main() {
	configPath := flag.String("config", "chartscope.yaml", "path to config file")
	demo := flag.Bool("demo", false, "use a synthetic offline feed")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	closeLog, err := setupLogging(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	provider, closeStore, err := buildProvider(cfg, *demo)
	if err != nil {
		fmt.Fprintf(os.Stderr, "startup: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	symbol := cfg.Symbol
	if symbol == "" {
		symbol = "DEMO"
	}
	model := tui.NewModel(provider, cfg.ChartConfig(), symbol, cfg.Interval)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())

	log.Info().Str("symbol", symbol).Str("interval", cfg.Interval).Msg("starting chartscope")
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "chartscope: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging routes zerolog to the configured file. Stdout belongs to the
// TUI, so without a log path everything is discarded.
func setupLogging(cfg *config.Config) (func(), error) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || cfg.Log.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Log.Path == "" {
		log.Logger = zerolog.New(io.Discard)
		return func() {}, nil
	}

	f, err := os.OpenFile(cfg.Log.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return func() { f.Close() }, nil
}

// buildProvider wires either the live Binance-backed provider or the
// synthetic demo feed. An empty symbol implies demo mode.
func buildProvider(cfg *config.Config, demo bool) (feed.Provider, func(), error) {
	if demo || cfg.Symbol == "" {
		p := &feed.DemoProvider{
			IntervalMs: cfg.IntervalDuration().Milliseconds(),
			Seed:       1,
		}
		return p, func() {}, nil
	}

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open candle store: %w", err)
	}

	p := &feed.LiveProvider{
		History:   feed.NewHistoryClient(cfg.Feed.RestURL),
		Store:     st,
		StreamURL: cfg.Feed.StreamURL,
	}
	return p, func() { st.Close() }, nil
}
