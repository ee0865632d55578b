package chart

import (
	"testing"
	"time"

	"github.com/mkucko/chartscope/internal/candle"
)

// fakeClock lets throttles be stepped deterministically.
type fakeClock struct {
	t time.Time
}

func (f *fakeClock) now() time.Time {
	return f.t
}

func (f *fakeClock) advance(d time.Duration) {
	f.t = f.t.Add(d)
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1_700_000_000, 0)}
}

func TestArbiterMutualExclusion(t *testing.T) {
	var a Arbiter

	if !a.Acquire(GestureDrag) {
		t.Fatal("first acquire should succeed")
	}
	if a.Acquire(GestureSpeed) {
		t.Error("second gesture acquired while drag active")
	}
	if !a.Acquire(GestureDrag) {
		t.Error("re-acquiring the active gesture should succeed")
	}

	// Releasing the wrong kind changes nothing.
	a.Release(GestureSpeed)
	if a.Active() != GestureDrag {
		t.Error("wrong-kind release cleared the arbiter")
	}

	a.Release(GestureDrag)
	if !a.Acquire(GestureSpeed) {
		t.Error("acquire after release should succeed")
	}

	a.ForceRelease()
	if a.Active() != GestureNone {
		t.Error("force release did not clear the arbiter")
	}
}

func TestWheelPanThrottle(t *testing.T) {
	c := newTestController(1000, 0)
	c.Pan(-100 * 60_000) // leave room on both sides

	w := NewWheelPan(c)
	clk := newFakeClock()
	w.gate.now = clk.now

	if !w.Scroll(-1) {
		t.Fatal("first scroll should pan")
	}
	if w.Scroll(-1) {
		t.Error("immediate second scroll should be throttled")
	}

	clk.advance(c.Config().PanThrottle)
	if !w.Scroll(-1) {
		t.Error("scroll after the throttle window should pan")
	}
}

func TestWheelPanDirectionAndStep(t *testing.T) {
	c := newTestController(1000, 0)
	c.Pan(-100 * 60_000)
	before := c.Viewport()

	w := NewWheelPan(c)
	clk := newFakeClock()
	w.gate.now = clk.now

	w.Scroll(1)
	step := int64(c.Config().CandlesPerWheelTick) * c.Series().AvgInterval()
	if c.Viewport().From != before.From+step {
		t.Errorf("expected pan of %d ms, got %d", step, c.Viewport().From-before.From)
	}

	clk.advance(time.Second)
	w.Scroll(-1)
	if c.Viewport() != before {
		t.Errorf("opposite scroll did not return: %+v vs %+v", c.Viewport(), before)
	}
}

func TestWheelZoom(t *testing.T) {
	c := newTestController(1000, 0)
	z := NewWheelZoom(c)
	clk := newFakeClock()
	z.gate.now = clk.now

	before := c.Viewport().Len()
	if !z.Scroll(1, 0.5) {
		t.Fatal("zoom in should succeed")
	}
	if c.Viewport().Len() >= before {
		t.Error("zoom in did not shrink the window")
	}

	clk.advance(time.Second)
	if !z.Scroll(-1, 0.5) {
		t.Fatal("zoom out should succeed")
	}
}

func TestDragPan(t *testing.T) {
	c := newTestController(1000, 0)
	c.Pan(-200 * 60_000)
	start := c.Viewport()

	var arb Arbiter
	d := NewDragPan(c, &arb)
	clk := newFakeClock()
	d.gate.now = clk.now

	if !d.Press(0.5) {
		t.Fatal("press should acquire the gesture")
	}
	if !d.Dragging() {
		t.Error("expected dragging state")
	}

	// Dragging right by 20% of the width moves the content 20% of the
	// window length into the past.
	clk.advance(time.Second)
	if !d.Move(0.7) {
		t.Fatal("move should pan")
	}
	want := start.From - int64(0.2*float64(start.Len()))
	if got := c.Viewport().From; abs64(got-want) > panEpsilonMs {
		t.Errorf("expected from near %d, got %d", want, got)
	}

	// Moves are relative to the press snapshot, not cumulative.
	clk.advance(time.Second)
	d.Move(0.5)
	if got := c.Viewport().From; abs64(got-start.From) > panEpsilonMs {
		t.Errorf("returning the pointer should restore the window: %d vs %d", got, start.From)
	}

	d.Release()
	if d.Dragging() {
		t.Error("release did not end the drag")
	}
	if arb.Active() != GestureNone {
		t.Error("release did not free the arbiter")
	}
}

func TestDragPanExclusion(t *testing.T) {
	c := newTestController(1000, 0)
	var arb Arbiter
	d := NewDragPan(c, &arb)
	s := NewSpeedPan(c, &arb)

	if !s.Press() {
		t.Fatal("speed press should succeed")
	}
	if d.Press(0.5) {
		t.Error("drag acquired while speed pan held")
	}
	s.Release()
	if !d.Press(0.5) {
		t.Error("drag should acquire after speed release")
	}
}

func TestSpeedPanDeadZone(t *testing.T) {
	c := newTestController(1000, 0)
	c.Pan(-100 * 60_000)
	var arb Arbiter
	s := NewSpeedPan(c, &arb)

	s.Press()
	s.SetOffset(0.05)
	if moved, _ := s.Tick(); moved {
		t.Error("dead-zone offset should not pan")
	}
}

func TestSpeedPanVelocityCurve(t *testing.T) {
	var arb Arbiter

	run := func(offset float64) int64 {
		c := newTestController(5000, 0)
		c.Pan(-2000 * 60_000)
		from := c.Viewport().From
		s := NewSpeedPan(c, &arb)
		s.Press()
		s.SetOffset(offset)
		s.Tick()
		s.Release()
		return from - c.Viewport().From
	}

	slow := run(-0.3)
	fast := run(-0.9)
	if slow <= 0 || fast <= 0 {
		t.Fatalf("negative offsets should pan into the past: slow=%d fast=%d", slow, fast)
	}
	// |o|^2.5 makes a 3x offset roughly 15x faster.
	if fast < slow*10 {
		t.Errorf("velocity curve too flat: slow=%d fast=%d", slow, fast)
	}
}

func TestSpeedPanBoundarySignal(t *testing.T) {
	c := newTestController(1000, 0)
	var arb Arbiter
	s := NewSpeedPan(c, &arb)

	// Window starts pinned at the newest edge; pushing right cannot move.
	s.Press()
	s.SetOffset(1.0)
	moved, boundary := s.Tick()
	if moved {
		t.Error("pan past the newest edge should not move")
	}
	if !boundary {
		t.Error("expected boundary signal at the newest edge")
	}
}

func TestSpeedPanReleaseRecenters(t *testing.T) {
	c := newTestController(1000, 0)
	var arb Arbiter
	s := NewSpeedPan(c, &arb)

	s.Press()
	s.SetOffset(-0.8)
	s.Release()
	if s.Held() {
		t.Error("release did not drop the handle")
	}
	if s.Offset() != 0 {
		t.Error("release did not recenter the handle")
	}
	if moved, _ := s.Tick(); moved {
		t.Error("tick after release should be inert")
	}
}

func TestShouldLoadMore(t *testing.T) {
	s := candle.NewSeries(minuteCandles(1000, 0))

	farFromEdge := Viewport{From: 500 * 60_000, To: 700 * 60_000}
	if ShouldLoadMore(farFromEdge, s, 0.05) {
		t.Error("should not load far from the oldest edge")
	}

	nearEdge := Viewport{From: 5 * 60_000, To: 205 * 60_000}
	if !ShouldLoadMore(nearEdge, s, 0.05) {
		t.Error("should load inside the boundary buffer")
	}

	atEdge := Viewport{From: 0, To: 200 * 60_000}
	if !ShouldLoadMore(atEdge, s, 0.05) {
		t.Error("should load at the oldest edge")
	}

	if ShouldLoadMore(Viewport{}, s, 0.05) {
		t.Error("zero viewport should never trigger a load")
	}
	if ShouldLoadMore(nearEdge, candle.NewSeries(nil), 0.05) {
		t.Error("empty series should never trigger a load")
	}
}
