// Package level loads Tiled maps into solids and spawn points.
//
// Tiled measures pixels down from the top-left corner; levels use world
// units with y up, so a map occupies x in [0, width] and y in [-height, 0].
package level

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lafriks/go-tiled"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

// Map conventions.
const (
	SolidLayer    = "solid"  // every tile on this layer blocks
	SolidProperty = "solid"  // tileset tiles with solid=true block on any layer
	SolidObjects  = "solids" // object group of free-form blocking rects
	SpawnObjects  = "spawns" // object group of spawn points
)

// Solid is a blocking rect centered on Origin.
type Solid struct {
	Rect   collision.Rect
	Origin math.Vec2
}

// Box returns the solid's absolute box.
func (s Solid) Box() collision.AbsBBox {
	return collision.FromRect(s.Rect, s.Origin)
}

// Spawn is a named point where an entity of some kind starts.
type Spawn struct {
	Name string
	Kind string
	Pos  math.Vec2
	// Animation overrides the configured animation for this spawn.
	Animation string
}

// Level is a loaded map.
type Level struct {
	Name       string
	Width      int // in tiles
	Height     int
	TileWidth  int
	TileHeight int

	solid  []bool
	Solids []Solid
	Spawns []Spawn
}

// LoadFile loads a .tmx file from disk.
func LoadFile(path string) (*Level, error) {
	return Load(os.DirFS(filepath.Dir(path)), filepath.Base(path))
}

// Load parses a .tmx file from fsys. Tilesets referenced by the map are
// resolved within fsys too.
func Load(fsys fs.FS, tmxPath string) (*Level, error) {
	m, err := tiled.LoadFile(tmxPath, tiled.WithFileSystem(fsys))
	if err != nil {
		return nil, fmt.Errorf("load TMX %s: %w", tmxPath, err)
	}
	if m.Width <= 0 || m.Height <= 0 || m.TileWidth <= 0 || m.TileHeight <= 0 {
		return nil, fmt.Errorf("load TMX %s: empty map", tmxPath)
	}

	l := &Level{
		Name:       strings.TrimSuffix(filepath.Base(tmxPath), filepath.Ext(tmxPath)),
		Width:      m.Width,
		Height:     m.Height,
		TileWidth:  m.TileWidth,
		TileHeight: m.TileHeight,
		solid:      make([]bool, m.Width*m.Height),
	}

	for _, layer := range m.Layers {
		wholeLayer := layer.Name == SolidLayer
		for i, tile := range layer.Tiles {
			if i >= len(l.solid) || tile.IsNil() {
				continue
			}
			if wholeLayer || solidTile(tile) {
				l.solid[i] = true
			}
		}
	}
	for y := 0; y < l.Height; y++ {
		for x := 0; x < l.Width; x++ {
			if l.Solid(x, y) {
				b := l.TileBox(x, y)
				l.Solids = append(l.Solids, Solid{
					Rect:   collision.CenteredRect(float32(l.TileWidth), float32(l.TileHeight)),
					Origin: b.Center(),
				})
			}
		}
	}

	for _, og := range m.ObjectGroups {
		switch og.Name {
		case SolidObjects:
			for _, o := range og.Objects {
				if o.Width <= 0 || o.Height <= 0 {
					continue
				}
				l.Solids = append(l.Solids, Solid{
					Rect:   collision.CenteredRect(float32(o.Width), float32(o.Height)),
					Origin: objectCenter(o),
				})
			}
		case SpawnObjects:
			for _, o := range og.Objects {
				kind := o.Class
				if kind == "" {
					kind = o.Type //nolint:staticcheck // older maps use type=
				}
				l.Spawns = append(l.Spawns, Spawn{
					Name:      o.Name,
					Kind:      kind,
					Pos:       objectCenter(o),
					Animation: o.Properties.GetString("animation"),
				})
			}
		}
	}

	// Stable order for deterministic entity creation
	sort.SliceStable(l.Spawns, func(i, j int) bool {
		a, b := l.Spawns[i].Pos, l.Spawns[j].Pos
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return a.X < b.X
	})

	return l, nil
}

func solidTile(tile *tiled.LayerTile) bool {
	if tile.Tileset == nil {
		return false
	}
	t, err := tile.Tileset.GetTilesetTile(tile.ID)
	if err != nil {
		return false
	}
	return t.Properties.GetBool(SolidProperty)
}

// objectCenter converts a Tiled object's position to world space. Points
// stay where they are; rects use their center.
func objectCenter(o *tiled.Object) math.Vec2 {
	return math.Vec2{
		X: float32(o.X + o.Width/2),
		Y: -float32(o.Y + o.Height/2),
	}
}

// Size returns the map size in tiles.
func (l *Level) Size() (w, h int) {
	return l.Width, l.Height
}

// Solid reports whether the tile at column x, row y blocks movement.
func (l *Level) Solid(x, y int) bool {
	if x < 0 || y < 0 || x >= l.Width || y >= l.Height {
		return false
	}
	return l.solid[y*l.Width+x]
}

// TileBox returns the world box of the tile at column x, row y.
func (l *Level) TileBox(x, y int) collision.AbsBBox {
	tw, th := float32(l.TileWidth), float32(l.TileHeight)
	return collision.AbsBBox{
		Min: math.Vec2{X: float32(x) * tw, Y: -float32(y+1) * th},
		Max: math.Vec2{X: float32(x+1) * tw, Y: -float32(y) * th},
	}
}

// TileAt returns the tile containing a world point.
func (l *Level) TileAt(p math.Vec2) (x, y int) {
	fx := p.X / float32(l.TileWidth)
	fy := -p.Y / float32(l.TileHeight)
	return floor(fx), floor(fy)
}

// Bounds covers the map plus a margin of one tile on every side, so
// entities standing on the edge stay indexable.
func (l *Level) Bounds() collision.Rect {
	tw, th := float32(l.TileWidth), float32(l.TileHeight)
	return collision.Rect{
		Min: math.Vec2{X: -tw, Y: -float32(l.Height+1) * th},
		Max: math.Vec2{X: float32(l.Width+1) * tw, Y: th},
	}
}

// SpawnsOf returns the spawns of one kind, in load order.
func (l *Level) SpawnsOf(kind string) []Spawn {
	var out []Spawn
	for _, s := range l.Spawns {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

func floor(f float32) int {
	i := int(f)
	if f < 0 && float32(i) != f {
		i--
	}
	return i
}
