// Package movement moves entities by their planned velocity and resolves the
// result against nearby solids, under one of several interchangeable
// policies.
package movement

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/spatial"
	"github.com/Faultbox/topdown/pkg/math"
)

// Planning speeds, in units per second.
const (
	SpeedRun      float32 = 60
	SpeedRoll     float32 = 180
	SpeedBonk     float32 = 60
	SpeedEnemyRun float32 = 40
)

// DefaultScanRadius comfortably exceeds one tick's travel plus the largest
// solid (16px tiles, sub-tile walkboxes).
const DefaultScanRadius float32 = 64

// ErrUnknownKind is returned for an unrecognized resolver name.
var ErrUnknownKind = errors.New("unknown movement resolver")

// Motion is what an entity is doing, spatially speaking.
type Motion struct {
	// Facing in radians, y-up, east is 0. It persists while standing still.
	Facing float32
	// Velocity planned for this tick. Resolvers consume it.
	Velocity math.Vec2
	// ZVelocity is kept apart since few things use it.
	ZVelocity float32
	// Remainder is the sub-unit movement carried between ticks by the
	// whole-pixel resolver.
	Remainder math.Vec2
	// Result of the last resolution.
	Result *Result
}

// NewMotion returns a Motion facing along initial, or east if it is zero.
func NewMotion(initial math.Vec2) Motion {
	var m Motion
	m.Face(initial)
	return m
}

// Face turns toward input. A zero input keeps the current facing.
func (m *Motion) Face(input math.Vec2) {
	if input.Length() > 0 {
		m.Facing = input.Angle()
	}
}

// Result is the outcome of one resolution.
type Result struct {
	Collided    bool
	NewLocation math.Vec2
}

// Mover is an entity handed to a resolver: its position, its walkbox
// relative to that position, and its motion record.
type Mover struct {
	Position *math.Vec2
	// Z is the height above the ground; nil for entities without one.
	Z       *float32
	Walkbox collision.Rect
	Motion  *Motion
}

// Neighborhood finds the solids near a point. Solids must not change while
// a resolution pass is running.
type Neighborhood interface {
	Near(p math.Vec2, radius float32) []spatial.Solid
}

// Resolver applies a mover's planned velocity for one tick, writing the new
// position and Motion.Result.
type Resolver interface {
	Resolve(m Mover, solids Neighborhood, dt time.Duration) Result
}

// Kind names a resolver policy in configuration.
type Kind string

const (
	KindNoCollision Kind = "no_collision"
	KindWholePixel  Kind = "whole_pixel"
	KindRayTest     Kind = "ray_test"
	KindFaceplant   Kind = "faceplant"
)

// Kinds lists every policy.
var Kinds = []Kind{KindNoCollision, KindWholePixel, KindRayTest, KindFaceplant}

// ParseKind resolves a configuration string, ignoring case and surrounding
// whitespace.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Kinds {
		if k == known {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// New builds the resolver for kind. A non-positive scanRadius uses
// DefaultScanRadius.
func New(kind Kind, scanRadius float32) (Resolver, error) {
	if scanRadius <= 0 {
		scanRadius = DefaultScanRadius
	}
	switch kind {
	case KindNoCollision:
		return NoCollision{}, nil
	case KindWholePixel:
		return WholePixel{ScanRadius: scanRadius}, nil
	case KindRayTest:
		return RayTest{ScanRadius: scanRadius}, nil
	case KindFaceplant:
		return Faceplant{ScanRadius: scanRadius}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// plan consumes the planned velocity and returns this tick's displacement.
func plan(m Mover, dt time.Duration) math.Vec2 {
	mvt := m.Motion.Velocity.Scale(float32(dt.Seconds()))
	m.Motion.Velocity = math.Vec2{}
	return mvt
}

// commit moves the entity and records the result.
func commit(m Mover, to math.Vec2, collided bool) Result {
	*m.Position = to
	res := Result{Collided: collided, NewLocation: to}
	m.Motion.Result = &res
	return res
}

// ResolveHeight applies ZVelocity without collision. Nothing coming down
// goes below the floor; only an entity that was airborne reports landing.
// ZVelocity is consumed.
func ResolveHeight(m Mover, dt time.Duration) (landed bool) {
	if m.Z == nil || m.Motion.ZVelocity == 0 {
		return false
	}
	falling := m.Motion.ZVelocity < 0
	z := *m.Z + m.Motion.ZVelocity*float32(dt.Seconds())
	m.Motion.ZVelocity = 0
	if z <= 0 && falling {
		landed = *m.Z > 0
		z = 0
	}
	*m.Z = z
	return landed
}
