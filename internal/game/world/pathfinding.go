package world

import (
	"container/heap"
)

// Grid is a tile map that blocks some of its cells.
type Grid interface {
	Size() (w, h int)
	Solid(x, y int) bool
}

// Tile is a column/row pair.
type Tile struct {
	X, Y int
}

type pathNode struct {
	tile   Tile
	g, f   float32
	parent *pathNode
	index  int
}

type openSet []*pathNode

func (h openSet) Len() int           { return len(h) }
func (h openSet) Less(i, j int) bool { return h[i].f < h[j].f }
func (h openSet) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *openSet) Push(x any) {
	n := x.(*pathNode)
	n.index = len(*h)
	*h = append(*h, n)
}

func (h *openSet) Pop() any {
	old := *h
	n := old[len(old)-1]
	old[len(old)-1] = nil
	n.index = -1
	*h = old[:len(old)-1]
	return n
}

const diagonalCost float32 = 1.414

// Straight steps come first so ties prefer them.
var neighbors = [8]Tile{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
}

// PathFinder runs A* over a Grid with 8-way movement. Diagonal steps may not
// cut a blocked corner.
type PathFinder struct {
	grid          Grid
	width, height int
}

// NewPathFinder returns a finder for grid, or nil for a nil grid.
func NewPathFinder(grid Grid) *PathFinder {
	if grid == nil {
		return nil
	}
	w, h := grid.Size()
	return &PathFinder{grid: grid, width: w, height: h}
}

// FindPath returns the tiles from start to goal, both included, or nil if
// goal cannot be reached.
func (pf *PathFinder) FindPath(start, goal Tile) []Tile {
	if pf == nil || !pf.inBounds(start) || !pf.Walkable(goal) {
		return nil
	}

	open := &openSet{}
	nodes := make(map[Tile]*pathNode)
	closed := make(map[Tile]bool)

	first := &pathNode{tile: start, f: octile(start, goal)}
	heap.Push(open, first)
	nodes[start] = first

	for budget := pf.width * pf.height; open.Len() > 0 && budget > 0; budget-- {
		current := heap.Pop(open).(*pathNode)
		if current.tile == goal {
			return current.path()
		}
		closed[current.tile] = true

		for i, d := range neighbors {
			next := Tile{current.tile.X + d.X, current.tile.Y + d.Y}
			if !pf.Walkable(next) || closed[next] {
				continue
			}
			cost := float32(1)
			if i >= 4 {
				if !pf.Walkable(Tile{current.tile.X + d.X, current.tile.Y}) ||
					!pf.Walkable(Tile{current.tile.X, current.tile.Y + d.Y}) {
					continue
				}
				cost = diagonalCost
			}

			g := current.g + cost
			n, seen := nodes[next]
			switch {
			case !seen:
				n = &pathNode{tile: next, g: g, f: g + octile(next, goal), parent: current}
				nodes[next] = n
				heap.Push(open, n)
			case g < n.g:
				n.f += g - n.g
				n.g = g
				n.parent = current
				heap.Fix(open, n.index)
			}
		}
	}
	return nil
}

// Walkable reports whether t is inside the grid and not solid.
func (pf *PathFinder) Walkable(t Tile) bool {
	return pf != nil && pf.inBounds(t) && !pf.grid.Solid(t.X, t.Y)
}

func (pf *PathFinder) inBounds(t Tile) bool {
	return t.X >= 0 && t.X < pf.width && t.Y >= 0 && t.Y < pf.height
}

func (n *pathNode) path() []Tile {
	var out []Tile
	for ; n != nil; n = n.parent {
		out = append(out, n.tile)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// octile is the 8-way distance ignoring obstacles.
func octile(a, b Tile) float32 {
	dx, dy := abs(a.X-b.X), abs(a.Y-b.Y)
	if dx < dy {
		dx, dy = dy, dx
	}
	return float32(dy)*diagonalCost + float32(dx-dy)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
