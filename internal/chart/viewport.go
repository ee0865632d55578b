package chart

import (
	"github.com/mkucko/chartscope/internal/candle"
)

// panEpsilonMs is the smallest window movement worth applying. Sub-epsilon
// pans are dropped to avoid render thrash from sub-pixel drags.
const panEpsilonMs int64 = 1000

// Viewport is the currently visible timestamp range, From <= To. A zero
// viewport means uninitialized (empty series).
type Viewport struct {
	From int64
	To   int64
}

// Len returns the window length in milliseconds.
func (v Viewport) Len() int64 {
	return v.To - v.From
}

// IsZero reports whether the viewport is the uninitialized sentinel.
func (v Viewport) IsZero() bool {
	return v.From == 0 && v.To == 0
}

// Controller owns the viewport. All mutation goes through Pan, ZoomAt,
// Reset and SetSeries; both bounds always lie within the series extrema
// while the series is non-empty.
//
// The pinned flag distinguishes "tracking the live edge" from "browsing
// history": set on initialize and reset, cleared by any pan or zoom that
// actually moves the window, and consulted when new candles append on the
// right.
type Controller struct {
	cfg    Config
	series *candle.Series
	vp     Viewport
	pinned bool
}

// NewController creates a Controller with no series attached.
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg.normalized()}
}

// Config returns the controller's normalized configuration.
func (c *Controller) Config() Config {
	return c.cfg
}

// Viewport returns the current window.
func (c *Controller) Viewport() Viewport {
	return c.vp
}

// Series returns the currently attached series (may be nil).
func (c *Controller) Series() *candle.Series {
	return c.series
}

// Pinned reports whether the right edge is tracking the newest candle.
func (c *Controller) Pinned() bool {
	return c.pinned
}

// WindowLen returns the current window length in milliseconds.
func (c *Controller) WindowLen() int64 {
	return c.vp.Len()
}

// SetSeries attaches a series snapshot. A fingerprint change (including
// empty-to-value and value-to-different-value) reinitializes the window;
// the same fingerprint means the series was extended in place and the
// user's window is preserved. Returns true when a reinitialize happened,
// so callers can cancel in-flight gestures.
//
// On prepend the window stays put: it is timestamp-valued, so the same
// {from, to} still denotes the same logical candles and never jumps onto
// the newly inserted ones. On append, only a pinned window slides right to
// keep the newest candle in view.
func (c *Controller) SetSeries(s *candle.Series) bool {
	prev := c.series
	c.series = s

	if s.Len() == 0 {
		c.vp = Viewport{}
		return prev.Fingerprint() != ""
	}

	if prev.Fingerprint() != s.Fingerprint() {
		c.initialize()
		return true
	}

	if c.pinned && s.MaxTime() > c.vp.To {
		winLen := c.vp.Len()
		c.vp.To = s.MaxTime()
		c.vp.From = c.vp.To - winLen
	}
	c.clamp()
	return false
}

// Reset re-derives the initial window for the current series
// unconditionally (double-click / keyboard reset).
func (c *Controller) Reset() {
	if c.series.Len() == 0 {
		c.vp = Viewport{}
		return
	}
	c.initialize()
}

// initialize sets the window to the newest TargetVisibleCandles candles and
// pins the right edge to live. The only transition allowed to change the
// window length arbitrarily.
func (c *Controller) initialize() {
	s := c.series
	to := s.MaxTime()
	winLen := int64(c.cfg.TargetVisibleCandles-1) * s.AvgInterval()
	from := to - winLen
	if from < s.MinTime() {
		from = s.MinTime()
	}
	c.vp = Viewport{From: from, To: to}
	c.pinned = true
}

// Pan shifts the window by deltaMs and clamps it to the series extrema.
// Returns false when the shift was reduced by clamping (a boundary was hit)
// or when the resulting movement is below the epsilon; gesture code uses
// the return value for boundary feedback.
func (c *Controller) Pan(deltaMs int64) bool {
	if c.series.Len() == 0 || c.vp.IsZero() {
		return false
	}

	winLen := c.vp.Len()
	from := c.vp.From + deltaMs
	to := c.vp.To + deltaMs

	min, max := c.series.MinTime(), c.series.MaxTime()
	if from < min {
		from = min
		to = from + winLen
	}
	if to > max {
		to = max
		from = to - winLen
		if from < min {
			from = min
		}
	}

	actual := from - c.vp.From
	if abs64(actual) < panEpsilonMs {
		return false
	}

	c.vp = Viewport{From: from, To: to}
	c.pinned = false
	return actual == deltaMs
}

// ZoomAt scales the window length by factor around an anchor point.
// anchorRatio identifies where in the window the zoom is centered: 0 is the
// left edge, 1 the right (typically the pointer position). The anchor's
// absolute timestamp stays fixed; the result is boundary-clamped as in Pan.
// Returns true when the window changed.
func (c *Controller) ZoomAt(factor, anchorRatio float64) bool {
	if c.series.Len() == 0 || c.vp.IsZero() || factor <= 0 {
		return false
	}
	if anchorRatio < 0 {
		anchorRatio = 0
	} else if anchorRatio > 1 {
		anchorRatio = 1
	}

	min, max := c.series.MinTime(), c.series.MaxTime()
	full := max - min
	if full <= 0 {
		return false
	}

	minLen := int64(c.cfg.MinWindowFraction * float64(full))
	if floor := 2 * c.series.AvgInterval(); minLen < floor {
		minLen = floor
	}
	maxLen := int64(c.cfg.MaxWindowFraction * float64(full))
	if maxLen <= 0 || maxLen > full {
		maxLen = full
	}
	if minLen > maxLen {
		minLen = maxLen
	}

	cur := c.vp.Len()
	newLen := int64(float64(cur) * factor)
	if newLen < minLen {
		newLen = minLen
	} else if newLen > maxLen {
		newLen = maxLen
	}

	anchorTs := c.vp.From + int64(anchorRatio*float64(cur))
	from := anchorTs - int64(anchorRatio*float64(newLen))
	to := from + newLen

	if from < min {
		from = min
		to = from + newLen
	}
	if to > max {
		to = max
		from = to - newLen
		if from < min {
			from = min
		}
	}

	next := Viewport{From: from, To: to}
	if next == c.vp {
		return false
	}
	c.vp = next
	c.pinned = false
	return true
}

// AtOldestEdge reports whether the left bound sits at the oldest candle,
// within one average interval.
func (c *Controller) AtOldestEdge() bool {
	if c.series.Len() == 0 || c.vp.IsZero() {
		return false
	}
	return c.vp.From <= c.series.MinTime()+c.series.AvgInterval()
}

// AtNewestEdge reports whether the right bound sits at the newest candle,
// within one average interval.
func (c *Controller) AtNewestEdge() bool {
	if c.series.Len() == 0 || c.vp.IsZero() {
		return false
	}
	return c.vp.To >= c.series.MaxTime()-c.series.AvgInterval()
}

// VisibleSlice resolves and density-limits the candles for the current
// window.
func (c *Controller) VisibleSlice() []candle.Candle {
	if c.series.Len() == 0 {
		return nil
	}
	sl := SliceRange(c.series.Candles(), c.vp.From, c.vp.To)
	return Downsample(sl, c.cfg.MaxRenderCandles)
}

// clamp pulls the window back inside the series extrema, preserving the
// window length where possible.
func (c *Controller) clamp() {
	if c.series.Len() == 0 || c.vp.IsZero() {
		return
	}
	min, max := c.series.MinTime(), c.series.MaxTime()
	winLen := c.vp.Len()
	if winLen > max-min {
		winLen = max - min
	}
	if c.vp.From < min {
		c.vp.From = min
		c.vp.To = min + winLen
	}
	if c.vp.To > max {
		c.vp.To = max
		c.vp.From = max - winLen
		if c.vp.From < min {
			c.vp.From = min
		}
	}
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
