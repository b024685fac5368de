package debug

import (
	"image"
	"image/color"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// Overlay colors.
var (
	WalkboxColor = color.NRGBA{R: 0x40, G: 0xe0, B: 0x40, A: 0xff}
	HitboxColor  = color.NRGBA{R: 0xf0, G: 0x30, B: 0x30, A: 0xff}
	HurtboxColor = color.NRGBA{R: 0xf0, G: 0xd0, B: 0x20, A: 0xff}
	OriginColor  = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	SolidColor   = color.NRGBA{R: 0x80, G: 0x80, B: 0xff, A: 0xff}
	GridColor    = color.NRGBA{R: 0x50, G: 0x50, B: 0x50, A: 0xff}
)

// Layers selects what DrawColliders shows.
type Layers struct {
	Walkboxes bool
	Origins   bool
	Hitboxes  bool
}

// WorldView maps y-up world units onto a y-down canvas of the given size,
// centered on center, at scale pixels per unit.
func WorldView(size image.Point, center math.Vec2, scale float32) math.Affine2 {
	return math.ScaleTranslate2(
		math.Vec2{X: scale, Y: -scale},
		math.Vec2{
			X: float32(size.X)/2 - center.X*scale,
			Y: float32(size.Y)/2 + center.Y*scale,
		},
	)
}

// Canvas draws world-space debug geometry onto an image.
type Canvas struct {
	Img  *image.NRGBA
	View math.Affine2
}

// NewCanvas creates a canvas of the given size viewing center at scale.
func NewCanvas(size image.Point, center math.Vec2, scale float32) *Canvas {
	return &Canvas{
		Img:  image.NewNRGBA(image.Rectangle{Max: size}),
		View: WorldView(size, center, scale),
	}
}

// Segments draws each segment as a one-pixel line.
func (c *Canvas) Segments(segs []Segment, col color.NRGBA) {
	for _, s := range segs {
		a := c.View.TransformPoint(s.A).Round()
		b := c.View.TransformPoint(s.B).Round()
		c.line(int(a.X), int(a.Y), int(b.X), int(b.Y), col)
	}
}

// Box outlines an absolute box.
func (c *Canvas) Box(b collision.AbsBBox, col color.NRGBA) {
	c.Segments(BBoxOutline(b), col)
}

// Colliders draws an entity's boxes at pos.
func (c *Canvas) Colliders(pos math.Vec2, cl character.Colliders, layers Layers) {
	if layers.Walkboxes {
		c.Segments(BBoxOutlineFromRect(cl.Walkbox, pos, 0), WalkboxColor)
	}
	if layers.Hitboxes {
		if cl.Hitbox != nil {
			c.Segments(BBoxOutlineFromRect(*cl.Hitbox, pos, 0), HitboxColor)
		}
		if cl.Hurtbox != nil {
			c.Segments(BBoxOutlineFromRect(*cl.Hurtbox, pos, 0), HurtboxColor)
		}
	}
	if layers.Origins {
		c.Segments(OriginCross(pos, 3), OriginColor)
	}
}

// line is Bresenham's, clipped per pixel.
func (c *Canvas) line(x0, y0, x1, y1 int, col color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy
	for {
		if image.Pt(x0, y0).In(c.Img.Rect) {
			c.Img.SetNRGBA(x0, y0, col)
		}
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
