// Package camera provides a 2D camera that trails a target.
package camera

import (
	"image"
	gomath "math"
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// FollowCamera eases toward a target and can be kept inside level bounds.
type FollowCamera struct {
	// Center is the world point shown in the middle of the view.
	Center math.Vec2

	// Scale is pixels per world unit.
	Scale    float32
	MinScale float32
	MaxScale float32

	// Stiffness is how quickly the camera closes the gap, per second.
	// 0 snaps to the target.
	Stiffness float32

	ZoomSensitivity float32
}

// NewFollowCamera creates a camera at the origin with the given scale.
func NewFollowCamera(scale float32) *FollowCamera {
	if scale <= 0 {
		scale = 1
	}
	return &FollowCamera{
		Scale:           scale,
		MinScale:        1,
		MaxScale:        16,
		Stiffness:       8,
		ZoomSensitivity: 0.25,
	}
}

// Follow moves the center toward target over dt.
func (c *FollowCamera) Follow(target math.Vec2, dt time.Duration) {
	if c.Stiffness <= 0 {
		c.Center = target
		return
	}
	t := 1 - float32(gomath.Exp(-float64(c.Stiffness)*dt.Seconds()))
	c.Center = c.Center.Add(target.Sub(c.Center).Scale(t))
}

// Snap jumps straight to target.
func (c *FollowCamera) Snap(target math.Vec2) {
	c.Center = target
}

// HandleZoom scales the view by delta steps; positive zooms in.
func (c *FollowCamera) HandleZoom(delta float32) {
	c.Scale += delta * c.Scale * c.ZoomSensitivity
	if c.Scale < c.MinScale {
		c.Scale = c.MinScale
	}
	if c.Scale > c.MaxScale {
		c.Scale = c.MaxScale
	}
}

// Visible returns the world rectangle a view of size pixels shows.
func (c *FollowCamera) Visible(size image.Point) collision.Rect {
	half := math.Vec2{X: float32(size.X), Y: float32(size.Y)}.Scale(0.5 / c.Scale)
	return collision.Rect{Min: c.Center.Sub(half), Max: c.Center.Add(half)}
}

// Clamp keeps the view inside bounds. An axis the view is wider than is
// centered instead.
func (c *FollowCamera) Clamp(bounds collision.Rect, size image.Point) {
	half := math.Vec2{X: float32(size.X), Y: float32(size.Y)}.Scale(0.5 / c.Scale)
	c.Center.X = clampAxis(c.Center.X, bounds.Min.X+half.X, bounds.Max.X-half.X)
	c.Center.Y = clampAxis(c.Center.Y, bounds.Min.Y+half.Y, bounds.Max.Y-half.Y)
}

func clampAxis(v, lo, hi float32) float32 {
	if lo > hi {
		return (lo + hi) / 2
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
