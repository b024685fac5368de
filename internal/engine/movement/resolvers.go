package movement

import (
	"sort"
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// NoCollision moves by velocity*dt unconditionally.
type NoCollision struct{}

func (NoCollision) Resolve(m Mover, _ Neighborhood, dt time.Duration) Result {
	mvt := plan(m, dt)
	return commit(m, m.Position.Add(mvt), false)
}

// WholePixel rounds the planned movement (plus the carried remainder) to
// whole units and steps one unit at a time, X then Y, stopping an axis at
// the first step that would overlap a solid. The rounding remainder carries
// to the next tick and is dropped once the entity stops. A non-finite
// velocity stands still.
type WholePixel struct {
	ScanRadius float32
}

func (w WholePixel) Resolve(m Mover, solids Neighborhood, dt time.Duration) Result {
	intent := plan(m, dt)
	loc := *m.Position
	// Non-finite steps would never count down to zero.
	if intent.Length() == 0 || !intent.IsFinite() {
		m.Motion.Remainder = math.Vec2{}
		return commit(m, loc, false)
	}

	intent = intent.Add(m.Motion.Remainder)
	pixels := intent.Round()
	m.Motion.Remainder = intent.Sub(pixels)

	var boxes []collision.AbsBBox
	for _, s := range solids.Near(loc, w.ScanRadius+pixels.Length()) {
		boxes = append(boxes, s.Box)
	}
	blocked := func(at math.Vec2) bool {
		next := collision.FromRect(m.Walkbox, at)
		for _, b := range boxes {
			if b.Collide(next) {
				return true
			}
		}
		return false
	}

	collided := false
	step := pixels.Signum()
	for left := pixels.X; left != 0; left -= step.X {
		next := math.Vec2{X: loc.X + step.X, Y: loc.Y}
		if blocked(next) {
			collided = true
			break
		}
		loc = next
	}
	for left := pixels.Y; left != 0; left -= step.Y {
		next := math.Vec2{X: loc.X, Y: loc.Y + step.Y}
		if blocked(next) {
			collided = true
			break
		}
		loc = next
	}

	return commit(m, loc, collided)
}

// RayTest sweeps the walkbox along the planned movement. Each nearby solid is
// grown by the walkbox's extents and ray-tested from the entity's position;
// hits are then handled nearest first, each cancelling the part of the
// remaining movement that would push into it. Movement along a surface
// survives, so entities slide.
type RayTest struct {
	ScanRadius float32
}

type rayHit struct {
	box  collision.AbsBBox
	time float32
}

func (r RayTest) Resolve(m Mover, solids Neighborhood, dt time.Duration) Result {
	planned := plan(m, dt)
	start := *m.Position
	if planned.Length() == 0 {
		return commit(m, start, false)
	}

	var hits []rayHit
	for _, s := range solids.Near(start, r.ScanRadius) {
		expanded := s.Box.ExpandForRayTest(m.Walkbox)
		// Keep the expanded box: a nearer correction can change whether a
		// farther one is still hit.
		if c, ok := expanded.RayCollide(start, planned); ok {
			hits = append(hits, rayHit{box: expanded, time: c.NormalizedTime})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].time < hits[j].time })

	collided := false
	mvt := planned
	for _, h := range hits {
		c, ok := h.box.SegmentCollide(start, mvt)
		if !ok {
			continue
		}
		collided = true
		penalty := c.Normal.Mul(mvt.Abs()).Scale(1 - c.NormalizedTime)
		mvt = mvt.Add(penalty)
	}

	return commit(m, start.Add(mvt), collided)
}

// Faceplant clamps the planned movement against each nearby solid in order
// of distance, nearest first. It moves by fractional units and ignores the
// remainder.
type Faceplant struct {
	ScanRadius float32
}

func (f Faceplant) Resolve(m Mover, solids Neighborhood, dt time.Duration) Result {
	mvt := plan(m, dt)
	start := *m.Position
	if mvt.Length() == 0 {
		return commit(m, start, false)
	}

	near := solids.Near(start, f.ScanRadius)
	sort.SliceStable(near, func(i, j int) bool {
		return start.DistanceSquared(near[i].Loc) < start.DistanceSquared(near[j].Loc)
	})

	self := collision.FromRect(m.Walkbox, start)
	collided := false
	for _, s := range near {
		clamped := s.Box.Faceplant(self, mvt)
		if clamped != mvt {
			collided = true
			mvt = clamped
		}
	}

	return commit(m, start.Add(mvt), collided)
}
