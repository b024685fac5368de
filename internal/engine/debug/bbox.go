// Package debug provides debug visualization utilities.
package debug

import (
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// Segment is a line between two points in world space.
type Segment struct {
	A, B math.Vec2
}

// BBoxOutlineSegmentCount is the number of segments in a box outline.
const BBoxOutlineSegmentCount = 4

// DefaultBBoxPadding is the default padding for selection boxes.
const DefaultBBoxPadding = 1.0

// BBoxOutline returns the four edges of a box, counter-clockwise from the
// bottom-left corner.
func BBoxOutline(b collision.AbsBBox) []Segment {
	bl := b.Min
	br := math.Vec2{X: b.Max.X, Y: b.Min.Y}
	tr := b.Max
	tl := math.Vec2{X: b.Min.X, Y: b.Max.Y}
	return []Segment{{bl, br}, {br, tr}, {tr, tl}, {tl, bl}}
}

// BBoxOutlineFromRect outlines a relative rect placed at origin.
// padding grows the box on all sides.
func BBoxOutlineFromRect(r collision.Rect, origin math.Vec2, padding float32) []Segment {
	b := collision.FromRect(r, origin)
	b.Min = b.Min.Sub(math.Splat(padding))
	b.Max = b.Max.Add(math.Splat(padding))
	return BBoxOutline(b)
}

// OriginCross returns a small plus sign centered on p.
func OriginCross(p math.Vec2, size float32) []Segment {
	h := size / 2
	return []Segment{
		{math.Vec2{X: p.X - h, Y: p.Y}, math.Vec2{X: p.X + h, Y: p.Y}},
		{math.Vec2{X: p.X, Y: p.Y - h}, math.Vec2{X: p.X, Y: p.Y + h}},
	}
}
