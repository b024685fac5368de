// Package collision provides axis-aligned box primitives and the ray, segment
// and clamping tests used to resolve movement against solids.
package collision

import (
	"github.com/Faultbox/topdown/pkg/math"
)

// Rect is an axis-aligned rectangle in some local coordinate frame.
// Min is never greater than Max on either axis; zero-area rects are legal.
type Rect struct {
	Min math.Vec2
	Max math.Vec2
}

// RectFromCorners builds a Rect from any two opposite corners.
func RectFromCorners(a, b math.Vec2) Rect {
	return Rect{Min: a.Min(b), Max: a.Max(b)}
}

// CenteredRect returns a width x height rect centered on the origin.
func CenteredRect(width, height float32) Rect {
	return Rect{
		Min: math.Vec2{X: -width / 2, Y: -height / 2},
		Max: math.Vec2{X: width / 2, Y: height / 2},
	}
}

// BottomCenteredRect returns a width x height rect standing on the origin.
func BottomCenteredRect(width, height float32) Rect {
	return Rect{
		Min: math.Vec2{X: -width / 2, Y: 0},
		Max: math.Vec2{X: width / 2, Y: height},
	}
}

// Width returns the horizontal extent.
func (r Rect) Width() float32 {
	return r.Max.X - r.Min.X
}

// Height returns the vertical extent.
func (r Rect) Height() float32 {
	return r.Max.Y - r.Min.Y
}

// Size returns the extent on both axes.
func (r Rect) Size() math.Vec2 {
	return r.Max.Sub(r.Min)
}

// Center returns the midpoint.
func (r Rect) Center() math.Vec2 {
	return r.Min.Add(r.Max).Scale(0.5)
}

// IsEmpty reports whether the rect has zero area.
func (r Rect) IsEmpty() bool {
	return r.Min.X >= r.Max.X || r.Min.Y >= r.Max.Y
}

// MoveOrigin re-expresses the rect relative to a new origin point.
func (r Rect) MoveOrigin(origin math.Vec2) Rect {
	return Rect{Min: r.Min.Sub(origin), Max: r.Max.Sub(origin)}
}

// FlipX mirrors the rect across the vertical axis.
func (r Rect) FlipX() Rect {
	return RectFromCorners(
		math.Vec2{X: -r.Min.X, Y: r.Min.Y},
		math.Vec2{X: -r.Max.X, Y: r.Max.Y},
	)
}

// FlipY mirrors the rect across the horizontal axis.
func (r Rect) FlipY() Rect {
	return RectFromCorners(
		math.Vec2{X: r.Min.X, Y: -r.Min.Y},
		math.Vec2{X: r.Max.X, Y: -r.Max.Y},
	)
}
