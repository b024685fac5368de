package collision

import (
	"go.uber.org/zap"

	"github.com/Faultbox/topdown/internal/logger"
	"github.com/Faultbox/topdown/pkg/math"
)

// faceplantEpsilon is the gap left between two boxes after clamping.
const faceplantEpsilon = 1.0

// AbsBBox is a Rect located in world space. It is a value recomputed on every
// query and never stored across ticks.
type AbsBBox struct {
	Min math.Vec2
	Max math.Vec2
}

// Collision is the outcome of a ray or segment test.
type Collision struct {
	ContactPoint math.Vec2
	// Normal is one of the four axis unit vectors.
	Normal math.Vec2
	// NormalizedTime is the fraction of the displacement travelled at contact.
	NormalizedTime float32
}

// FromRect locates rect in world space at origin.
func FromRect(rect Rect, origin math.Vec2) AbsBBox {
	return AbsBBox{
		Min: rect.Min.Add(origin),
		Max: rect.Max.Add(origin),
	}
}

// Translate returns the box moved by mvt.
func (b AbsBBox) Translate(mvt math.Vec2) AbsBBox {
	return AbsBBox{Min: b.Min.Add(mvt), Max: b.Max.Add(mvt)}
}

// Center returns the midpoint of the box.
func (b AbsBBox) Center() math.Vec2 {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Collide reports whether two boxes overlap. Touching edges count.
func (b AbsBBox) Collide(other AbsBBox) bool {
	return b.OverlapsX(other) && b.OverlapsY(other)
}

// OverlapsX reports whether the boxes' projections on X intersect.
func (b AbsBBox) OverlapsX(other AbsBBox) bool {
	return !(b.Min.X > other.Max.X || b.Max.X < other.Min.X)
}

// OverlapsY reports whether the boxes' projections on Y intersect.
func (b AbsBBox) OverlapsY(other AbsBBox) bool {
	return !(b.Max.Y < other.Min.Y || b.Min.Y > other.Max.Y)
}

// ExpandForRayTest grows b by the opposite extents of moving, a rect defined
// relative to some origin point. A ray cast from that origin against the
// expanded box is equivalent to sweeping the whole moving rect against b.
func (b AbsBBox) ExpandForRayTest(moving Rect) AbsBBox {
	return AbsBBox{
		Min: b.Min.Sub(moving.Max),
		Max: b.Max.Sub(moving.Min),
	}
}

// RayCollide intersects the infinite ray start + t*displacement (t >= 0)
// with the box using the slab method. Degenerate inputs that produce NaN
// times, including a zero displacement, are misses.
func (b AbsBBox) RayCollide(start, displacement math.Vec2) (Collision, bool) {
	if displacement.IsZero() {
		return Collision{}, false
	}

	inv := math.Vec2{X: 1 / displacement.X, Y: 1 / displacement.Y}
	nearTimes := b.Min.Sub(start).Mul(inv)
	farTimes := b.Max.Sub(start).Mul(inv)
	leftAt, bottomAt := nearTimes.X, nearTimes.Y
	rightAt, topAt := farTimes.X, farTimes.Y

	if isNaN(leftAt) || isNaN(rightAt) || isNaN(bottomAt) || isNaN(topAt) {
		return Collision{}, false
	}

	// Order each axis's crossings by the direction of travel.
	nearX, farX, normalX := leftAt, rightAt, math.Vec2NegX
	if !(leftAt < rightAt) {
		nearX, farX, normalX = rightAt, leftAt, math.Vec2X
	}
	nearY, farY, normalY := bottomAt, topAt, math.Vec2NegY
	if !(bottomAt < topAt) {
		nearY, farY, normalY = topAt, bottomAt, math.Vec2Y
	}

	// The line misses the box body entirely.
	if nearX > farY || nearY > farX {
		return Collision{}, false
	}

	// Entry is the last near crossing, exit the first far one. Y wins ties.
	entry, normal := nearY, normalY
	if nearX > nearY {
		entry, normal = nearX, normalX
	}
	exit := min(farX, farY)

	// The box lies behind the ray's start.
	if exit <= 0 {
		return Collision{}, false
	}

	return Collision{
		ContactPoint:   start.Add(displacement.Scale(entry)),
		Normal:         normal,
		NormalizedTime: entry,
	}, true
}

// SegmentCollide is RayCollide restricted to the finite displacement: hits
// at or past its end are misses.
func (b AbsBBox) SegmentCollide(start, displacement math.Vec2) (Collision, bool) {
	c, ok := b.RayCollide(start, displacement)
	if !ok || c.NormalizedTime >= 1 {
		return Collision{}, false
	}
	return c, true
}

// Faceplant clamps other's proposed movement so it stops short of b, one
// axis at a time: X first, then Y against the X-clamped position. Boxes that
// already overlap are logged and left alone. Large movements can tunnel
// through thin boxes.
func (b AbsBBox) Faceplant(other AbsBBox, mvt math.Vec2) math.Vec2 {
	if mvt.IsZero() || !b.Collide(other.Translate(mvt)) {
		return mvt
	}

	if b.Collide(other) {
		logger.Named(logger.Collision).Warn("box already overlapping solid, leaving movement unclamped",
			zap.Any("mover", other),
			zap.Any("solid", b),
		)
		return mvt
	}

	res := mvt

	if b.Collide(other.Translate(math.Vec2{X: res.X})) {
		switch towardOf(mvt.X) {
		case towardMin:
			res.X = max(b.Max.X-other.Min.X+faceplantEpsilon, mvt.X)
		case towardMax:
			res.X = min(b.Min.X-other.Max.X-faceplantEpsilon, mvt.X)
		default:
			res.X = 0
		}
	}

	if b.Collide(other.Translate(res)) {
		switch towardOf(mvt.Y) {
		case towardMin:
			res.Y = max(b.Max.Y-other.Min.Y+faceplantEpsilon, mvt.Y)
		case towardMax:
			res.Y = min(b.Min.Y-other.Max.Y-faceplantEpsilon, mvt.Y)
		default:
			res.Y = 0
		}
	}

	return res
}

type toward int

const (
	towardStatic toward = iota
	towardMin
	towardMax
)

func towardOf(v float32) toward {
	switch {
	case v > 0:
		return towardMax
	case v < 0:
		return towardMin
	default:
		return towardStatic
	}
}

func isNaN(f float32) bool {
	return f != f
}
