package debug

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/pkg/math"
)

func TestBBoxOutline(t *testing.T) {
	segs := BBoxOutlineFromRect(collision.CenteredRect(2, 2), math.Vec2{X: 10}, 1)
	if len(segs) != BBoxOutlineSegmentCount {
		t.Fatalf("expected %d segments, got %d", BBoxOutlineSegmentCount, len(segs))
	}
	if segs[0].A != (math.Vec2{X: 8, Y: -2}) || segs[1].B != (math.Vec2{X: 12, Y: 2}) {
		t.Errorf("unexpected outline %v", segs)
	}
	for i := range segs {
		if segs[i].B != segs[(i+1)%len(segs)].A {
			t.Errorf("outline not closed at edge %d", i)
		}
	}
}

func TestWorldView(t *testing.T) {
	v := WorldView(image.Pt(100, 50), math.Vec2{X: 10, Y: 10}, 2)
	if got := v.TransformPoint(math.Vec2{X: 10, Y: 10}); got != (math.Vec2{X: 50, Y: 25}) {
		t.Errorf("center maps to %v", got)
	}
	if got := v.TransformPoint(math.Vec2{X: 11, Y: 11}); got != (math.Vec2{X: 52, Y: 23}) {
		t.Errorf("y-up should map to y-down, got %v", got)
	}
}

func TestCanvasColliders(t *testing.T) {
	c := NewCanvas(image.Pt(32, 32), math.Vec2{}, 1)
	hit := collision.Rect{Min: math.Vec2{X: 5, Y: 5}, Max: math.Vec2{X: 8, Y: 8}}
	cl := character.Colliders{
		Walkbox: collision.CenteredRect(4, 4),
		Hitbox:  &hit,
	}

	c.Colliders(math.Vec2{}, cl, Layers{Walkboxes: true})
	if got := c.Img.NRGBAAt(14, 14); got != WalkboxColor {
		t.Errorf("walkbox corner = %v", got)
	}
	if got := c.Img.NRGBAAt(21, 11); got.A != 0 {
		t.Error("hitbox drawn with hitboxes off")
	}

	c.Colliders(math.Vec2{}, cl, Layers{Hitboxes: true, Origins: true})
	if got := c.Img.NRGBAAt(21, 11); got != HitboxColor {
		t.Errorf("hitbox corner = %v", got)
	}
	if got := c.Img.NRGBAAt(16, 16); got != OriginColor {
		t.Errorf("origin = %v", got)
	}
}

func TestCanvasClipsOffscreen(t *testing.T) {
	c := NewCanvas(image.Pt(8, 8), math.Vec2{}, 1)
	c.Box(collision.AbsBBox{Min: math.Vec2{X: -100, Y: -1}, Max: math.Vec2{X: 100, Y: 1}}, SolidColor)
	if got := c.Img.NRGBAAt(0, 3); got != SolidColor {
		t.Errorf("visible part of the edge missing, got %v", got)
	}
}

type gridMap struct {
	w, h  int
	solid map[[2]int]bool
}

func (g gridMap) Size() (int, int)    { return g.w, g.h }
func (g gridMap) Solid(x, y int) bool { return g.solid[[2]int{x, y}] }
func (g gridMap) TileBox(x, y int) collision.AbsBBox {
	return collision.AbsBBox{
		Min: math.Vec2{X: float32(x) * 16, Y: -float32(y+1) * 16},
		Max: math.Vec2{X: float32(x+1) * 16, Y: -float32(y) * 16},
	}
}

func TestTileGrid(t *testing.T) {
	g := NewTileGridRenderer(gridMap{w: 3, h: 2, solid: map[[2]int]bool{{1, 1}: true}})

	lines := g.GridLines(-5, -5, 10, 10)
	if len(lines) != 4+3 {
		t.Fatalf("expected 7 grid lines, got %d", len(lines))
	}
	if lines[3].A.X != 48 || lines[4].A.Y != 0 || lines[6].A.Y != -32 {
		t.Errorf("unexpected lines %v", lines)
	}

	boxes := g.SolidBoxes(0, 0, 3, 2)
	if len(boxes) != 1 || boxes[0].Min != (math.Vec2{X: 16, Y: -32}) {
		t.Errorf("SolidBoxes() = %v", boxes)
	}

	if info := g.GetTileInfo(1, 1); info == nil || !info.Solid {
		t.Errorf("GetTileInfo(1,1) = %+v", info)
	}
	if g.GetTileInfo(3, 0) != nil {
		t.Error("expected nil outside the map")
	}
	if NewTileGridRenderer(nil) != nil {
		t.Error("nil map should give a nil renderer")
	}
}

func TestScreenshotCapture(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "shots")
	sc := NewScreenshotCapture(dir, "frame")
	sc.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }

	pixels := make([]byte, 3*12)
	pixels[12+4] = 0xff // (1,1) red, padded rows
	pixels[12+7] = 0xff
	name, err := sc.CaptureFromPixels(pixels, 2, 3, 12)
	if err != nil {
		t.Fatalf("CaptureFromPixels failed: %v", err)
	}
	if filepath.Base(name) != "frame_2024-05-01_12-00-00.000.png" {
		t.Errorf("unexpected name %s", name)
	}

	f, err := os.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if r, _, _, a := img.At(1, 1).RGBA(); r != 0xffff || a != 0xffff {
		t.Errorf("pixel (1,1) = %v", img.At(1, 1))
	}

	if _, err := sc.CaptureFromPixels(pixels[:10], 2, 3, 12); err == nil {
		t.Error("expected a size mismatch error")
	}
}

func TestCanvasSprite(t *testing.T) {
	red := color.NRGBA{R: 0xff, A: 0xff}
	blue := color.NRGBA{B: 0xff, A: 0xff}
	atlas := image.NewNRGBA(image.Rect(0, 0, 5, 1))
	atlas.SetNRGBA(3, 0, red)
	atlas.SetNRGBA(4, 0, blue)
	cell := image.Rect(3, 0, 5, 1)

	// Origin at the sprite's top-left pixel.
	s := character.Sprite{Anchor: math.Vec2{X: -0.5, Y: 0.5}}
	c := NewCanvas(image.Pt(8, 8), math.Vec2{}, 2)
	c.Sprite(math.Vec2{}, atlas, cell, s)
	if got := c.Img.NRGBAAt(5, 5); got != red {
		t.Errorf("expected red at (5,5), got %v", got)
	}
	if got := c.Img.NRGBAAt(7, 4); got != blue {
		t.Errorf("expected blue at (7,4), got %v", got)
	}
	if got := c.Img.NRGBAAt(4, 6); got.A != 0 {
		t.Errorf("sprite drawn past its bottom edge: %v", got)
	}

	s.FlipX = true
	s.Anchor.X = 0.5
	c = NewCanvas(image.Pt(8, 8), math.Vec2{}, 2)
	c.Sprite(math.Vec2{}, atlas, cell, s)
	if got := c.Img.NRGBAAt(0, 4); got != blue {
		t.Errorf("flipped: expected blue at (0,4), got %v", got)
	}
	if got := c.Img.NRGBAAt(3, 5); got != red {
		t.Errorf("flipped: expected red at (3,5), got %v", got)
	}
}
