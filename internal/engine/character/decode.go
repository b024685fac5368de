package character

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"golang.org/x/image/draw"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/compass"
	"github.com/Faultbox/topdown/pkg/formats"
	"github.com/Faultbox/topdown/pkg/math"
)

// ErrUnknownDirection is returned when a tag name is not a direction.
var ErrUnknownDirection = compass.ErrUnknownDirection

// ErrTagRange is returned when a tag covers frames the file does not have.
var ErrTagRange = errors.New("tag frame range out of bounds")

// Marker layers. They should be hidden in the saved file.
const (
	OriginLayer  = "origin"
	WalkboxLayer = "walkbox"
	HitboxLayer  = "hitbox"
	HurtboxLayer = "hurtbox"
)

// atlasPadding is the transparent gap between frames in the strip.
const atlasPadding = 1

// Decoded is everything produced from one sprite sheet.
type Decoded struct {
	Animation *CharAnimation
	Texture   *image.NRGBA
	Layout    AtlasLayout
}

// DecodeBytes parses and decodes an Aseprite file.
func DecodeBytes(data []byte) (*Decoded, error) {
	ase, err := formats.ParseAseprite(data)
	if err != nil {
		return nil, fmt.Errorf("parsing sprite sheet: %w", err)
	}
	return Decode(ase)
}

// Decode builds a texture strip, its layout and a CharAnimation from a
// parsed file. Atlas cell i is source frame i.
//
// With no tags the whole file becomes one Neutral variant; otherwise each
// tag becomes a variant named by its direction, and an unrecognized tag
// name fails the decode. A tag reaching past the last frame fails too;
// overlapping tags are allowed.
func Decode(ase *formats.Aseprite) (*Decoded, error) {
	texture, layout := BuildAtlas(ase)

	variants := make(map[VariantName]*CharAnimationVariant)
	if len(ase.Tags) == 0 {
		v := DecodeVariant(ase, compass.Neutral, 0, len(ase.Frames)-1)
		variants[v.Name] = &v
	} else {
		for _, tag := range ase.Tags {
			name, err := compass.ParseDir(tag.Name)
			if err != nil {
				return nil, fmt.Errorf("tag %q: %w", tag.Name, err)
			}
			if tag.From < 0 || tag.From > tag.To || tag.To >= len(ase.Frames) {
				return nil, fmt.Errorf("tag %q frames %d..%d of %d: %w",
					tag.Name, tag.From, tag.To, len(ase.Frames), ErrTagRange)
			}
			v := DecodeVariant(ase, name, tag.From, tag.To)
			variants[name] = &v
		}
	}

	anim := &CharAnimation{
		ID:             uuid.New(),
		Variants:       variants,
		Directionality: classify(variants),
		Texture:        texture,
		Layout:         layout,
	}
	return &Decoded{Animation: anim, Texture: texture, Layout: layout}, nil
}

// DecodeVariant decodes the inclusive frame range from..to into a variant.
// The range must lie within the file's frames.
func DecodeVariant(ase *formats.Aseprite, name VariantName, from, to int) CharAnimationVariant {
	anchor := AnchorTransform(ase.Width(), ase.Height())
	variant := CharAnimationVariant{Name: name}

	for i := from; i <= to; i++ {
		duration := ase.Frames[i].Duration()
		variant.Duration += duration

		// Origin is never optional: no marker means the top-left corner.
		var origin math.Vec2
		if r := pixelRect(ase, OriginLayer, i); r != nil {
			origin = r.Min
		}

		variant.Frames = append(variant.Frames, CharAnimationFrame{
			Index:    i,
			Duration: duration,
			Origin:   origin,
			Anchor:   anchor.TransformPoint(origin),
			Walkbox:  markerRect(ase, WalkboxLayer, i, origin),
			Hitbox:   markerRect(ase, HitboxLayer, i, origin),
			Hurtbox:  markerRect(ase, HurtboxLayer, i, origin),
		})
	}
	return variant
}

// AnchorTransform maps a pixel point (top-left origin, y-down) of a w x h
// texture into anchor space (center origin, y-up, +-0.5).
func AnchorTransform(w, h int) math.Affine2 {
	return math.ScaleTranslate2(
		math.Vec2{X: 1 / float32(w), Y: -1 / float32(h)},
		math.Vec2{X: -0.5, Y: 0.5},
	)
}

// BuildAtlas copies every composited frame into a horizontal strip with a
// transparent column between neighbours.
func BuildAtlas(ase *formats.Aseprite) (*image.NRGBA, AtlasLayout) {
	w, h, n := ase.Width(), ase.Height(), len(ase.Frames)
	width := 0
	if n > 0 {
		width = w*n + (n-1)*atlasPadding
	}

	layout := AtlasLayout{
		Size:     image.Pt(width, h),
		CellSize: image.Pt(w, h),
		Columns:  n,
		Rows:     1,
		Padding:  image.Pt(atlasPadding, 0),
	}

	atlas := image.NewNRGBA(image.Rect(0, 0, width, h))
	for i := 0; i < n; i++ {
		draw.Draw(atlas, layout.Cell(i), ase.FrameImage(i), image.Point{}, draw.Src)
	}
	return atlas, layout
}

// classify picks the richest directionality the variants support.
func classify(variants map[VariantName]*CharAnimationVariant) Directionality {
	has := func(d VariantName) bool {
		_, ok := variants[d]
		return ok
	}
	switch {
	case has(compass.E) && has(compass.N) && has(compass.W) && has(compass.S):
		return DirectionalityFour
	case has(compass.E):
		return DirectionalityOneE
	default:
		return DirectionalityZero
	}
}

// markerRect returns a marker layer's box relative to origin, y-up.
func markerRect(ase *formats.Aseprite, layer string, frame int, origin math.Vec2) *collision.Rect {
	r := pixelRect(ase, layer, frame)
	if r == nil {
		return nil
	}
	moved := r.MoveOrigin(origin).FlipY()
	return &moved
}

// pixelRect returns the bounding box of a layer's opaque pixels on a frame,
// with Max at the last opaque pixel (inclusive), or nil if there are none.
func pixelRect(ase *formats.Aseprite, layer string, frame int) *collision.Rect {
	idx := ase.LayerIndex(layer)
	if idx < 0 {
		return nil
	}
	b, ok := ase.OpaqueBounds(idx, frame)
	if !ok {
		return nil
	}
	return &collision.Rect{
		Min: math.Vec2{X: float32(b.Min.X), Y: float32(b.Min.Y)},
		Max: math.Vec2{X: float32(b.Max.X - 1), Y: float32(b.Max.Y - 1)},
	}
}

// TotalDuration sums the source frame durations of the whole file.
func TotalDuration(ase *formats.Aseprite) time.Duration {
	var total time.Duration
	for i := range ase.Frames {
		total += ase.Frames[i].Duration()
	}
	return total
}
