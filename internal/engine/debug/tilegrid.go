package debug

import (
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// TileMap is the view of a level the grid renderer needs.
type TileMap interface {
	Size() (w, h int)
	Solid(x, y int) bool
	// TileBox is the world-space box of the tile at column x, row y.
	TileBox(x, y int) collision.AbsBBox
}

// TileGridRenderer generates debug geometry for a level's tile grid.
type TileGridRenderer struct {
	tiles TileMap
}

// NewTileGridRenderer returns nil for a nil map.
func NewTileGridRenderer(tiles TileMap) *TileGridRenderer {
	if tiles == nil {
		return nil
	}
	return &TileGridRenderer{tiles: tiles}
}

// clamp limits a tile range to the map.
func (t *TileGridRenderer) clamp(minX, minY, maxX, maxY int) (int, int, int, int) {
	w, h := t.tiles.Size()
	minX = max(minX, 0)
	minY = max(minY, 0)
	maxX = min(maxX, w)
	maxY = min(maxY, h)
	return minX, minY, maxX, maxY
}

// GridLines returns the tile edges within the column range [minX, maxX) and
// row range [minY, maxY).
func (t *TileGridRenderer) GridLines(minX, minY, maxX, maxY int) []Segment {
	if t == nil {
		return nil
	}
	minX, minY, maxX, maxY = t.clamp(minX, minY, maxX, maxY)
	if minX >= maxX || minY >= maxY {
		return nil
	}

	first := t.tiles.TileBox(minX, minY)
	last := t.tiles.TileBox(maxX-1, maxY-1)
	area := collision.AbsBBox{Min: first.Min.Min(last.Min), Max: first.Max.Max(last.Max)}

	var segs []Segment
	for x := minX; x <= maxX; x++ {
		wx := area.Max.X
		if x < maxX {
			wx = t.tiles.TileBox(x, minY).Min.X
		}
		segs = append(segs, Segment{A: math.Vec2{X: wx, Y: area.Min.Y}, B: math.Vec2{X: wx, Y: area.Max.Y}})
	}
	for y := minY; y <= maxY; y++ {
		wy := area.Min.Y
		if y < maxY {
			wy = t.tiles.TileBox(minX, y).Max.Y
		}
		segs = append(segs, Segment{A: math.Vec2{X: area.Min.X, Y: wy}, B: math.Vec2{X: area.Max.X, Y: wy}})
	}
	return segs
}

// SolidBoxes returns the boxes of solid tiles within the range.
func (t *TileGridRenderer) SolidBoxes(minX, minY, maxX, maxY int) []collision.AbsBBox {
	if t == nil {
		return nil
	}
	minX, minY, maxX, maxY = t.clamp(minX, minY, maxX, maxY)
	var boxes []collision.AbsBBox
	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			if t.tiles.Solid(x, y) {
				boxes = append(boxes, t.tiles.TileBox(x, y))
			}
		}
	}
	return boxes
}

// Draw renders the whole grid and its solid tiles onto c.
func (t *TileGridRenderer) Draw(c *Canvas) {
	if t == nil {
		return
	}
	w, h := t.tiles.Size()
	c.Segments(t.GridLines(0, 0, w, h), GridColor)
	for _, b := range t.SolidBoxes(0, 0, w, h) {
		c.Box(b, SolidColor)
	}
}

// TileInfo describes a single tile.
type TileInfo struct {
	X, Y  int
	Solid bool
	Box   collision.AbsBBox
}

// GetTileInfo returns nil outside the map.
func (t *TileGridRenderer) GetTileInfo(x, y int) *TileInfo {
	if t == nil {
		return nil
	}
	w, h := t.tiles.Size()
	if x < 0 || y < 0 || x >= w || y >= h {
		return nil
	}
	return &TileInfo{X: x, Y: y, Solid: t.tiles.Solid(x, y), Box: t.tiles.TileBox(x, y)}
}
