// Package config loads application configuration from a YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mkucko/chartscope/internal/chart"
)

// Config holds all application configuration.
type Config struct {
	// Symbol is the trading pair to chart (e.g. "BTCUSDT"). Empty selects
	// demo mode with a synthetic series.
	Symbol string `yaml:"symbol"`
	// Interval is the candle interval (e.g. "1m", "5m", "1h").
	Interval string `yaml:"interval" validate:"required,oneof=1m 3m 5m 15m 30m 1h 2h 4h 1d"`

	Feed struct {
		StreamURL string `yaml:"stream_url" validate:"required,url"`
		RestURL   string `yaml:"rest_url" validate:"required,url"`
	} `yaml:"feed"`

	Database struct {
		Path string `yaml:"path" validate:"required"`
	} `yaml:"database"`

	Log struct {
		Path  string `yaml:"path"`
		Level string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error"`
	} `yaml:"log"`

	Chart struct {
		TargetVisibleCandles   int     `yaml:"target_visible_candles" validate:"omitempty,gt=1"`
		MaxRenderCandles       int     `yaml:"max_render_candles" validate:"omitempty,gt=0"`
		MinWindowFraction      float64 `yaml:"min_window_fraction" validate:"omitempty,gt=0,lte=1"`
		MaxWindowFraction      float64 `yaml:"max_window_fraction" validate:"omitempty,gt=0,lte=1"`
		BoundaryBufferFraction float64 `yaml:"boundary_buffer_fraction" validate:"omitempty,gt=0,lt=1"`
		PanThrottleMs          int     `yaml:"pan_throttle_ms" validate:"omitempty,gt=0"`
		DragThrottleMs         int     `yaml:"drag_throttle_ms" validate:"omitempty,gt=0"`
	} `yaml:"chart"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides, defaults, and validation. A missing file is not an error; the
// defaults describe a working demo-mode setup.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// Environment variable overrides
	if v := os.Getenv("CHARTSCOPE_SYMBOL"); v != "" {
		cfg.Symbol = v
	}
	if v := os.Getenv("CHARTSCOPE_INTERVAL"); v != "" {
		cfg.Interval = v
	}
	if v := os.Getenv("CHARTSCOPE_STREAM_URL"); v != "" {
		cfg.Feed.StreamURL = v
	}
	if v := os.Getenv("CHARTSCOPE_REST_URL"); v != "" {
		cfg.Feed.RestURL = v
	}
	if v := os.Getenv("CHARTSCOPE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("CHARTSCOPE_LOG_PATH"); v != "" {
		cfg.Log.Path = v
	}
	if v := os.Getenv("CHARTSCOPE_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}

	// Defaults
	if cfg.Interval == "" {
		cfg.Interval = "1m"
	}
	if cfg.Feed.StreamURL == "" {
		cfg.Feed.StreamURL = "wss://stream.binance.com:9443/stream"
	}
	if cfg.Feed.RestURL == "" {
		cfg.Feed.RestURL = "https://api.binance.com"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "chartscope.db"
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = "chartscope.log"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// ChartConfig maps the chart section onto the engine's Config, leaving
// unset fields to the engine defaults.
func (c *Config) ChartConfig() chart.Config {
	cc := chart.DefaultConfig()
	if v := c.Chart.TargetVisibleCandles; v > 0 {
		cc.TargetVisibleCandles = v
	}
	if v := c.Chart.MaxRenderCandles; v > 0 {
		cc.MaxRenderCandles = v
	}
	if v := c.Chart.MinWindowFraction; v > 0 {
		cc.MinWindowFraction = v
	}
	if v := c.Chart.MaxWindowFraction; v > 0 {
		cc.MaxWindowFraction = v
	}
	if v := c.Chart.BoundaryBufferFraction; v > 0 {
		cc.BoundaryBufferFraction = v
	}
	if v := c.Chart.PanThrottleMs; v > 0 {
		cc.PanThrottle = time.Duration(v) * time.Millisecond
	}
	if v := c.Chart.DragThrottleMs; v > 0 {
		cc.DragThrottle = time.Duration(v) * time.Millisecond
	}
	return cc
}

// IntervalDuration converts the configured interval to a duration.
func (c *Config) IntervalDuration() time.Duration {
	switch c.Interval {
	case "1m":
		return time.Minute
	case "3m":
		return 3 * time.Minute
	case "5m":
		return 5 * time.Minute
	case "15m":
		return 15 * time.Minute
	case "30m":
		return 30 * time.Minute
	case "1h":
		return time.Hour
	case "2h":
		return 2 * time.Hour
	case "4h":
		return 4 * time.Hour
	case "1d":
		return 24 * time.Hour
	default:
		return time.Minute
	}
}
