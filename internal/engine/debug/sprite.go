package debug

import (
	"image"

	"golang.org/x/image/draw"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/pkg/math"
)

// Sprite draws one atlas cell so that the sprite's anchor lands on pos,
// mirrored when the sprite is flipped.
func (c *Canvas) Sprite(pos math.Vec2, atlas *image.NRGBA, cell image.Rectangle, s character.Sprite) {
	if atlas == nil || cell.Empty() {
		return
	}
	size := math.Vec2{X: float32(cell.Dx()), Y: float32(cell.Dy())}
	center := pos.Sub(s.Anchor.Mul(size))
	topLeft := math.Vec2{X: center.X - size.X/2, Y: center.Y + size.Y/2}
	bottomRight := math.Vec2{X: center.X + size.X/2, Y: center.Y - size.Y/2}

	a := c.View.TransformPoint(topLeft).Round()
	b := c.View.TransformPoint(bottomRight).Round()
	dst := image.Rect(int(a.X), int(a.Y), int(b.X), int(b.Y))

	var src image.Image = atlas
	if s.FlipX {
		src = mirror(atlas, cell)
		cell = src.Bounds()
	}
	draw.NearestNeighbor.Scale(c.Img, dst, src, cell, draw.Over, nil)
}

// mirror copies cell of img, flipped horizontally, to a new image at the
// origin.
func mirror(img *image.NRGBA, cell image.Rectangle) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, cell.Dx(), cell.Dy()))
	for y := 0; y < cell.Dy(); y++ {
		for x := 0; x < cell.Dx(); x++ {
			out.SetNRGBA(cell.Dx()-1-x, y, img.NRGBAAt(cell.Min.X+x, cell.Min.Y+y))
		}
	}
	return out
}
