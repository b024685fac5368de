package movement

import (
	"errors"
	gomath "math"
	"testing"
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/spatial"
	"github.com/Faultbox/topdown/pkg/math"
)

var worldBounds = collision.Rect{
	Min: math.Vec2{X: -256, Y: -256},
	Max: math.Vec2{X: 256, Y: 256},
}

func near(a, b float32) bool {
	return gomath.Abs(float64(a-b)) < 1e-3
}

func nearVec(a, b math.Vec2) bool {
	return near(a.X, b.X) && near(a.Y, b.Y)
}

// solidsAt places w x h solids centered on each point.
func solidsAt(t *testing.T, w, h float32, points ...math.Vec2) *spatial.Solids {
	t.Helper()
	s := spatial.NewSolids(worldBounds, 16)
	for i, p := range points {
		if err := s.Add(spatial.ID(i+1), collision.CenteredRect(w, h), p); err != nil {
			t.Fatalf("adding solid: %v", err)
		}
	}
	return s
}

type testMover struct {
	pos    math.Vec2
	z      float32
	motion Motion
}

func (tm *testMover) mover() Mover {
	return Mover{
		Position: &tm.pos,
		Z:        &tm.z,
		Walkbox:  collision.CenteredRect(2, 2),
		Motion:   &tm.motion,
	}
}

func newMover(velocity math.Vec2) *testMover {
	tm := &testMover{motion: NewMotion(velocity)}
	tm.motion.Velocity = velocity
	return tm
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"ray_test", " Faceplant ", "WHOLE_PIXEL", "no_collision"} {
		if _, err := ParseKind(s); err != nil {
			t.Errorf("ParseKind(%q) failed: %v", s, err)
		}
	}
	if _, err := ParseKind("teleport"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNew(t *testing.T) {
	for _, k := range Kinds {
		r, err := New(k, 0)
		if err != nil || r == nil {
			t.Errorf("New(%q) = %v, %v", k, r, err)
		}
	}
	if r, _ := New(KindRayTest, 0); r.(RayTest).ScanRadius != DefaultScanRadius {
		t.Error("zero scan radius should use the default")
	}
	if _, err := New("bogus", 10); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestNoCollision(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 10})
	tm := newMover(math.Vec2{X: 100})

	res := NoCollision{}.Resolve(tm.mover(), solids, time.Second)
	if res.Collided {
		t.Error("NoCollision never collides")
	}
	if tm.pos != (math.Vec2{X: 100}) || res.NewLocation != tm.pos {
		t.Errorf("expected to pass straight through, at %v", tm.pos)
	}
	if tm.motion.Velocity != (math.Vec2{}) {
		t.Error("planned velocity should be consumed")
	}
	if tm.motion.Result == nil || *tm.motion.Result != res {
		t.Error("Motion.Result should hold the result")
	}
}

// Entity at the origin with a 2x2 walkbox heads for a 2x2 solid at (10,0).
func TestFlushAgainstSolid(t *testing.T) {
	tests := []struct {
		kind  Kind
		speed float32
		wantX float32
	}{
		{KindRayTest, 100, 8},    // walkbox edge meets the solid at x=9
		{KindWholePixel, 100, 7}, // the step to 8 would touch the solid's edge
		{KindFaceplant, 10, 7},   // stops one unit short; 100 would tunnel
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			solids := solidsAt(t, 2, 2, math.Vec2{X: 10})
			r, err := New(tt.kind, DefaultScanRadius)
			if err != nil {
				t.Fatal(err)
			}
			tm := newMover(math.Vec2{X: tt.speed})

			res := r.Resolve(tm.mover(), solids, time.Second)
			if !res.Collided {
				t.Error("expected a collision")
			}
			if !nearVec(tm.pos, math.Vec2{X: tt.wantX}) {
				t.Errorf("position = %v, want x=%v", tm.pos, tt.wantX)
			}
			if res.NewLocation != tm.pos {
				t.Errorf("NewLocation %v does not match position %v", res.NewLocation, tm.pos)
			}
		})
	}
}

func TestRayTestSlides(t *testing.T) {
	solids := solidsAt(t, 2, 100, math.Vec2{X: 10})
	tm := newMover(math.Vec2{X: 20, Y: 20})

	res := RayTest{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if !res.Collided {
		t.Error("expected a collision")
	}
	if !nearVec(tm.pos, math.Vec2{X: 8, Y: 20}) {
		t.Errorf("expected to slide to (8,20), got %v", tm.pos)
	}
}

func TestRayTestNearestFirst(t *testing.T) {
	// Two solids in a row: only the nearer one should matter.
	solids := solidsAt(t, 2, 2, math.Vec2{X: 20}, math.Vec2{X: 10})
	tm := newMover(math.Vec2{X: 100})

	RayTest{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if !nearVec(tm.pos, math.Vec2{X: 8}) {
		t.Errorf("expected to stop at the nearer solid, got %v", tm.pos)
	}
}

func TestRayTestCorner(t *testing.T) {
	// Wall to the east and floor to the south, moving south-east into both.
	s := spatial.NewSolids(worldBounds, 16)
	s.Add(1, collision.CenteredRect(2, 40), math.Vec2{X: 10})
	s.Add(2, collision.CenteredRect(40, 2), math.Vec2{Y: -10})
	tm := newMover(math.Vec2{X: 30, Y: -30})

	res := RayTest{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), s, time.Second)
	if !res.Collided {
		t.Error("expected a collision")
	}
	if !nearVec(tm.pos, math.Vec2{X: 8, Y: -8}) {
		t.Errorf("expected to wedge into the corner at (8,-8), got %v", tm.pos)
	}
}

func TestRayTestMiss(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 10, Y: 30})
	tm := newMover(math.Vec2{X: 20})

	res := RayTest{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if res.Collided || tm.pos != (math.Vec2{X: 20}) {
		t.Errorf("expected a clean move, got %v %+v", tm.pos, res)
	}
}

func TestRayTestStandingStill(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 1.5})
	tm := newMover(math.Vec2{})
	tm.pos = math.Vec2{X: 0.25}

	res := RayTest{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if res.Collided || res.NewLocation != (math.Vec2{X: 0.25}) {
		t.Errorf("no movement should be no collision, got %+v", res)
	}
}

func TestWholePixelRemainder(t *testing.T) {
	solids := solidsAt(t, 2, 2)
	tm := newMover(math.Vec2{X: 0.6})
	wp := WholePixel{ScanRadius: DefaultScanRadius}

	wp.Resolve(tm.mover(), solids, time.Second)
	if tm.pos.X != 1 || !near(tm.motion.Remainder.X, -0.4) {
		t.Fatalf("after first tick: pos %v remainder %v", tm.pos, tm.motion.Remainder)
	}

	tm.motion.Velocity = math.Vec2{X: 0.6}
	wp.Resolve(tm.mover(), solids, time.Second)
	if tm.pos.X != 1 || !near(tm.motion.Remainder.X, 0.2) {
		t.Fatalf("after second tick: pos %v remainder %v", tm.pos, tm.motion.Remainder)
	}

	wp.Resolve(tm.mover(), solids, time.Second)
	if tm.motion.Remainder != (math.Vec2{}) {
		t.Errorf("stopping should drop the remainder, got %v", tm.motion.Remainder)
	}
}

func TestWholePixelNonFinite(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 10})
	wp := WholePixel{ScanRadius: DefaultScanRadius}

	for _, v := range []math.Vec2{
		{X: float32(gomath.Inf(1))},
		{Y: float32(gomath.Inf(-1))},
		{X: float32(gomath.NaN()), Y: 3},
	} {
		tm := newMover(v)
		tm.motion.Remainder = math.Vec2{X: 0.25}
		res := wp.Resolve(tm.mover(), solids, time.Second)
		if res.Collided || tm.pos != (math.Vec2{}) {
			t.Errorf("velocity %v: expected to stay put, got %v %+v", v, tm.pos, res)
		}
		if tm.motion.Remainder != (math.Vec2{}) {
			t.Errorf("velocity %v: remainder should be dropped, got %v", v, tm.motion.Remainder)
		}
	}
}

func TestWholePixelAxesIndependent(t *testing.T) {
	// Wall to the east; Y movement still goes through.
	solids := solidsAt(t, 2, 100, math.Vec2{X: 5})
	tm := newMover(math.Vec2{X: 10, Y: -6})

	res := WholePixel{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if !res.Collided {
		t.Error("expected a collision")
	}
	if tm.pos != (math.Vec2{X: 2, Y: -6}) {
		t.Errorf("expected (2,-6), got %v", tm.pos)
	}
}

func TestFaceplantNearestFirst(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 12}, math.Vec2{X: 10})
	tm := newMover(math.Vec2{X: 10})

	res := Faceplant{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if !res.Collided || !nearVec(tm.pos, math.Vec2{X: 7}) {
		t.Errorf("expected to stop before the nearer solid, got %v %+v", tm.pos, res)
	}
}

func TestFaceplantTunnelsAtSpeed(t *testing.T) {
	solids := solidsAt(t, 2, 2, math.Vec2{X: 10})
	tm := newMover(math.Vec2{X: 100})

	res := Faceplant{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if res.Collided || tm.pos != (math.Vec2{X: 100}) {
		t.Errorf("large steps pass through thin solids, got %v %+v", tm.pos, res)
	}
}

func TestFaceplantKeepsFractions(t *testing.T) {
	solids := solidsAt(t, 2, 2)
	tm := newMover(math.Vec2{X: 0.3, Y: 0.2})

	Faceplant{ScanRadius: DefaultScanRadius}.Resolve(tm.mover(), solids, time.Second)
	if !nearVec(tm.pos, math.Vec2{X: 0.3, Y: 0.2}) {
		t.Errorf("expected fractional move, got %v", tm.pos)
	}
	if tm.motion.Remainder != (math.Vec2{}) {
		t.Error("faceplant does not track a remainder")
	}
}

func TestResolveHeight(t *testing.T) {
	tm := newMover(math.Vec2{})
	tm.z = 10
	tm.motion.ZVelocity = -20

	if !ResolveHeight(tm.mover(), time.Second) {
		t.Error("expected a landing")
	}
	if tm.z != 0 || tm.motion.ZVelocity != 0 {
		t.Errorf("z = %v, z velocity = %v", tm.z, tm.motion.ZVelocity)
	}

	tm.motion.ZVelocity = 5
	if ResolveHeight(tm.mover(), time.Second) || tm.z != 5 {
		t.Errorf("rising should not land, z = %v", tm.z)
	}

	// Falling while already on the floor stays there without a landing.
	tm.z = 0
	tm.motion.ZVelocity = -4
	if ResolveHeight(tm.mover(), time.Second) || tm.z != 0 {
		t.Errorf("grounded fall should clamp quietly, z = %v", tm.z)
	}

	m := tm.mover()
	m.Z = nil
	tm.motion.ZVelocity = -100
	if ResolveHeight(m, time.Second) {
		t.Error("entity without height cannot land")
	}
}

func TestMotionFace(t *testing.T) {
	m := NewMotion(math.Vec2{})
	if m.Facing != 0 {
		t.Errorf("default facing should be east, got %v", m.Facing)
	}
	m.Face(math.Vec2{Y: 1})
	if !near(m.Facing, gomath.Pi/2) {
		t.Errorf("facing north should be Pi/2, got %v", m.Facing)
	}
	m.Face(math.Vec2{})
	if !near(m.Facing, gomath.Pi/2) {
		t.Error("zero input should keep facing")
	}
}
