package chart

import (
	"math"
	"time"

	"github.com/mkucko/chartscope/internal/candle"
)

// GestureKind identifies a pointer gesture for mutual exclusion.
type GestureKind int

const (
	GestureNone GestureKind = iota
	GestureDrag
	GestureSpeed
)

// speedDeadZone is the handle offset below which the speed ball is idle.
const speedDeadZone = 0.1

// speedExponent shapes the offset-to-velocity curve: dragging the handle
// further accelerates the pan superlinearly.
const speedExponent = 2.5

// Arbiter enforces one active pointer gesture at a time. Wheel events are
// instantaneous and do not acquire.
type Arbiter struct {
	active GestureKind
}

// Acquire claims the arbiter for a gesture. Re-acquiring the currently
// active kind succeeds, so adapters are re-entrant-safe.
func (a *Arbiter) Acquire(k GestureKind) bool {
	if a.active == GestureNone || a.active == k {
		a.active = k
		return true
	}
	return false
}

// Release frees the arbiter if k currently holds it.
func (a *Arbiter) Release(k GestureKind) {
	if a.active == k {
		a.active = GestureNone
	}
}

// ForceRelease unconditionally frees the arbiter. Called when the series
// identity changes under an in-progress gesture.
func (a *Arbiter) ForceRelease() {
	a.active = GestureNone
}

// Active returns the gesture currently holding the arbiter.
func (a *Arbiter) Active() GestureKind {
	return a.active
}

// throttle gates repeated events to a minimum spacing. The clock is
// injectable for tests.
type throttle struct {
	every time.Duration
	last  time.Time
	now   func() time.Time
}

func newThrottle(every time.Duration) throttle {
	return throttle{every: every, now: time.Now}
}

func (t *throttle) ready() bool {
	n := t.now()
	if !t.last.IsZero() && n.Sub(t.last) < t.every {
		return false
	}
	t.last = n
	return true
}

// WheelPan translates wheel notches into horizontal pans.
type WheelPan struct {
	ctrl *Controller
	gate throttle
}

// NewWheelPan creates a wheel-pan adapter over ctrl.
func NewWheelPan(ctrl *Controller) *WheelPan {
	return &WheelPan{
		ctrl: ctrl,
		gate: newThrottle(ctrl.Config().PanThrottle),
	}
}

// Scroll pans by direction * CandlesPerWheelTick candles. direction > 0 pans
// toward newer data. Returns false when throttled or when the pan hit a
// boundary.
func (w *WheelPan) Scroll(direction int) bool {
	if direction == 0 || !w.gate.ready() {
		return false
	}
	s := w.ctrl.Series()
	if s.Len() == 0 {
		return false
	}
	step := int64(w.ctrl.Config().CandlesPerWheelTick) * s.AvgInterval()
	if direction < 0 {
		step = -step
	}
	return w.ctrl.Pan(step)
}

// WheelZoom translates modifier-held wheel notches into anchored zooms.
type WheelZoom struct {
	ctrl *Controller
	gate throttle
}

// NewWheelZoom creates a wheel-zoom adapter over ctrl.
func NewWheelZoom(ctrl *Controller) *WheelZoom {
	return &WheelZoom{
		ctrl: ctrl,
		gate: newThrottle(ctrl.Config().PanThrottle),
	}
}

// Scroll zooms in (direction > 0) or out around pointerRatio.
func (z *WheelZoom) Scroll(direction int, pointerRatio float64) bool {
	if direction == 0 || !z.gate.ready() {
		return false
	}
	cfg := z.ctrl.Config()
	factor := cfg.ZoomOutFactor
	if direction > 0 {
		factor = cfg.ZoomInFactor
	}
	return z.ctrl.ZoomAt(factor, pointerRatio)
}

// DragPan maps horizontal pointer drags onto pans: dragging a full container
// width moves the window by one window length.
type DragPan struct {
	ctrl *Controller
	arb  *Arbiter
	gate throttle

	active     bool
	startRatio float64
	startVP    Viewport
}

// NewDragPan creates a drag-pan adapter over ctrl, coordinated by arb.
func NewDragPan(ctrl *Controller, arb *Arbiter) *DragPan {
	return &DragPan{
		ctrl: ctrl,
		arb:  arb,
		gate: newThrottle(ctrl.Config().DragThrottle),
	}
}

// Press begins a drag at xRatio (horizontal pointer position as a fraction
// of the container width), snapshotting the current window.
func (d *DragPan) Press(xRatio float64) bool {
	if d.ctrl.Viewport().IsZero() || !d.arb.Acquire(GestureDrag) {
		return false
	}
	d.active = true
	d.startRatio = xRatio
	d.startVP = d.ctrl.Viewport()
	return true
}

// Move pans so the content follows the pointer. Returns false when inactive,
// throttled, or clamped at a boundary.
func (d *DragPan) Move(xRatio float64) bool {
	if !d.active || d.arb.Active() != GestureDrag {
		d.Cancel()
		return false
	}
	if !d.gate.ready() {
		return false
	}
	deltaRatio := xRatio - d.startRatio
	target := d.startVP.From - int64(deltaRatio*float64(d.startVP.Len()))
	return d.ctrl.Pan(target - d.ctrl.Viewport().From)
}

// Release ends the drag.
func (d *DragPan) Release() {
	if d.active {
		d.active = false
		d.arb.Release(GestureDrag)
	}
}

// Cancel aborts the drag without touching the arbiter slot of another
// gesture.
func (d *DragPan) Cancel() {
	d.active = false
	d.arb.Release(GestureDrag)
}

// Dragging reports whether a drag is in progress.
func (d *DragPan) Dragging() bool {
	return d.active
}

// SpeedPan is the speed-ball gesture: a held handle whose offset from
// center maps to a pan velocity re-applied on a fixed tick, so the feel is
// frame-rate independent and dragging further accelerates exponentially.
type SpeedPan struct {
	ctrl   *Controller
	arb    *Arbiter
	active bool
	offset float64
}

// NewSpeedPan creates a speed-ball adapter over ctrl, coordinated by arb.
func NewSpeedPan(ctrl *Controller, arb *Arbiter) *SpeedPan {
	return &SpeedPan{ctrl: ctrl, arb: arb}
}

// Press grabs the handle.
func (s *SpeedPan) Press() bool {
	if s.ctrl.Viewport().IsZero() || !s.arb.Acquire(GestureSpeed) {
		return false
	}
	s.active = true
	s.offset = 0
	return true
}

// SetOffset positions the handle; o is clamped to [-1, 1].
func (s *SpeedPan) SetOffset(o float64) {
	if !s.active {
		return
	}
	if o < -1 {
		o = -1
	} else if o > 1 {
		o = 1
	}
	s.offset = o
}

// Offset returns the current handle position.
func (s *SpeedPan) Offset() float64 {
	return s.offset
}

// Held reports whether the handle is grabbed.
func (s *SpeedPan) Held() bool {
	return s.active
}

// Tick applies one velocity step. It is driven by the caller's fixed timer,
// not by pointer-move events. moved reports whether the window shifted;
// boundary reports that the pan was rejected or cut short at a dataset
// edge, which the UI surfaces as a distinct handle color.
func (s *SpeedPan) Tick() (moved, boundary bool) {
	if !s.active || s.arb.Active() != GestureSpeed {
		return false, false
	}
	mag := math.Abs(s.offset)
	if mag < speedDeadZone {
		return false, false
	}
	sr := s.ctrl.Series()
	if sr.Len() == 0 {
		return false, false
	}

	step := float64(sr.AvgInterval()) * math.Pow(mag, speedExponent) * s.ctrl.Config().SpeedPanScale
	delta := int64(step)
	if s.offset < 0 {
		delta = -delta
	}

	before := s.ctrl.Viewport()
	ok := s.ctrl.Pan(delta)
	moved = s.ctrl.Viewport() != before
	return moved, !ok
}

// Release drops the handle and recenters it.
func (s *SpeedPan) Release() {
	if s.active {
		s.active = false
		s.offset = 0
		s.arb.Release(GestureSpeed)
	}
}

// ShouldLoadMore reports whether the viewport is close enough to the oldest
// candle that older history should be requested: from has entered the
// leading bufferFraction of the window length above the dataset minimum.
// Suppressing duplicate requests while a load is in flight is the caller's
// responsibility; the engine never fetches data itself.
func ShouldLoadMore(vp Viewport, s *candle.Series, bufferFraction float64) bool {
	if s.Len() == 0 || vp.IsZero() || bufferFraction <= 0 {
		return false
	}
	buffer := int64(bufferFraction * float64(vp.Len()))
	return vp.From <= s.MinTime()+buffer
}
