package world

import (
	"github.com/Faultbox/topdown/internal/game/level"
	"github.com/Faultbox/topdown/pkg/math"
)

// Navigator steers characters between world points through a level's tile
// grid.
type Navigator struct {
	finder *PathFinder
	level  *level.Level
}

// NewNavigator returns a navigator over l's solid tiles.
func NewNavigator(l *level.Level) *Navigator {
	return &Navigator{finder: NewPathFinder(l), level: l}
}

// TileOf returns the tile containing p.
func (n *Navigator) TileOf(p math.Vec2) Tile {
	x, y := n.level.TileAt(p)
	return Tile{x, y}
}

// Center returns the world position of a tile's center.
func (n *Navigator) Center(t Tile) math.Vec2 {
	return n.level.TileBox(t.X, t.Y).Center()
}

// Path returns the tiles from the one holding from to the one holding to.
func (n *Navigator) Path(from, to math.Vec2) []Tile {
	return n.finder.FindPath(n.TileOf(from), n.TileOf(to))
}

// Steer returns the direction to walk from from toward to. Once both share a
// tile, or when no path exists, it heads straight for to. The second result
// is false when to cannot be reached.
func (n *Navigator) Steer(from, to math.Vec2) (math.Vec2, bool) {
	path := n.Path(from, to)
	if len(path) < 3 {
		return to.Sub(from), path != nil
	}
	return n.Center(path[1]).Sub(from), true
}
