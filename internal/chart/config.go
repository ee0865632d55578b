package chart

import "time"

// Config holds tuning parameters for the viewport engine.
type Config struct {
	// TargetVisibleCandles is the window size applied on initialize and reset.
	TargetVisibleCandles int
	// MaxRenderCandles caps the visible slice length after density limiting.
	MaxRenderCandles int
	// MinWindowFraction is the smallest window length as a fraction of the
	// full dataset span (zoom-in limit).
	MinWindowFraction float64
	// MaxWindowFraction is the largest window length as a fraction of the
	// full dataset span (zoom-out limit).
	MaxWindowFraction float64
	// BoundaryBufferFraction is how close to the oldest edge, as a fraction
	// of the window length, the viewport may get before more history is
	// requested.
	BoundaryBufferFraction float64
	// PanThrottle is the minimum spacing between wheel pan/zoom steps.
	PanThrottle time.Duration
	// DragThrottle is the minimum spacing between drag pan steps.
	DragThrottle time.Duration
	// CandlesPerWheelTick is how many candles one wheel notch pans by.
	CandlesPerWheelTick int
	// ZoomInFactor and ZoomOutFactor scale the window length per zoom step.
	ZoomInFactor  float64
	ZoomOutFactor float64
	// SpeedPanScale multiplies the speed-ball velocity curve.
	SpeedPanScale float64
	// SpeedPanTick is the interval between speed-ball pan applications.
	SpeedPanTick time.Duration
}

// DefaultConfig returns a Config with reasonable defaults.
func DefaultConfig() Config {
	return Config{
		TargetVisibleCandles:   200,
		MaxRenderCandles:       300,
		MinWindowFraction:      0.02,
		MaxWindowFraction:      1.0,
		BoundaryBufferFraction: 0.05,
		PanThrottle:            50 * time.Millisecond,
		DragThrottle:           33 * time.Millisecond,
		CandlesPerWheelTick:    3,
		ZoomInFactor:           0.8,
		ZoomOutFactor:          1.25,
		SpeedPanScale:          40,
		SpeedPanTick:           100 * time.Millisecond,
	}
}

// normalized backfills non-positive fields from the defaults.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.TargetVisibleCandles <= 0 {
		c.TargetVisibleCandles = def.TargetVisibleCandles
	}
	if c.MaxRenderCandles <= 0 {
		c.MaxRenderCandles = def.MaxRenderCandles
	}
	if c.MinWindowFraction <= 0 {
		c.MinWindowFraction = def.MinWindowFraction
	}
	if c.MaxWindowFraction <= 0 || c.MaxWindowFraction > 1 {
		c.MaxWindowFraction = def.MaxWindowFraction
	}
	if c.BoundaryBufferFraction <= 0 {
		c.BoundaryBufferFraction = def.BoundaryBufferFraction
	}
	if c.PanThrottle <= 0 {
		c.PanThrottle = def.PanThrottle
	}
	if c.DragThrottle <= 0 {
		c.DragThrottle = def.DragThrottle
	}
	if c.CandlesPerWheelTick <= 0 {
		c.CandlesPerWheelTick = def.CandlesPerWheelTick
	}
	if c.ZoomInFactor <= 0 || c.ZoomInFactor >= 1 {
		c.ZoomInFactor = def.ZoomInFactor
	}
	if c.ZoomOutFactor <= 1 {
		c.ZoomOutFactor = def.ZoomOutFactor
	}
	if c.SpeedPanScale <= 0 {
		c.SpeedPanScale = def.SpeedPanScale
	}
	if c.SpeedPanTick <= 0 {
		c.SpeedPanTick = def.SpeedPanTick
	}
	return c
}
