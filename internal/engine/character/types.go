// Package character decodes layered sprite sheets into directional animations
// and plays them back per entity.
package character

import (
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/compass"
	"github.com/Faultbox/topdown/pkg/math"
)

// VariantName identifies a directional (or neutral) group of frames.
type VariantName = compass.Dir

// Directionality describes which directional variants an animation defines.
type Directionality int

const (
	// DirectionalityZero has a single neutral variant.
	DirectionalityZero Directionality = iota
	// DirectionalityOneE has an east variant, mirrored for west.
	DirectionalityOneE
	// DirectionalityFour has all four cardinal variants.
	DirectionalityFour
)

func (d Directionality) String() string {
	switch d {
	case DirectionalityZero:
		return "Zero"
	case DirectionalityOneE:
		return "OneE"
	case DirectionalityFour:
		return "Four"
	default:
		return fmt.Sprintf("Directionality(%d)", int(d))
	}
}

// CharAnimationFrame is one decoded frame. Points are in pixel space; the
// rectangles are relative to Origin and y-up.
type CharAnimationFrame struct {
	// Index into the atlas layout.
	Index    int
	Duration time.Duration
	// Origin in pixel coordinates, 0,0 at top left.
	Origin math.Vec2
	// Anchor is Origin normalized to the texture: 0,0 at the center,
	// -0.5,-0.5 at bottom left.
	Anchor  math.Vec2
	Walkbox *collision.Rect
	Hitbox  *collision.Rect
	Hurtbox *collision.Rect
}

// CharAnimationVariant is a named run of frames with its total duration.
type CharAnimationVariant struct {
	Name     VariantName
	Frames   []CharAnimationFrame
	Duration time.Duration
}

// RawFrameTime returns the source duration of a frame.
func (v *CharAnimationVariant) RawFrameTime(frame int) time.Duration {
	return v.Frames[frame].Duration
}

// ResolvedFrameTime returns a frame's duration after applying an override.
func (v *CharAnimationVariant) ResolvedFrameTime(frame int, o FrameTimeOverride) time.Duration {
	raw := v.RawFrameTime(frame)
	switch o.Kind {
	case OverrideMs:
		return time.Duration(o.Millis) * time.Millisecond
	case OverrideScale:
		return time.Duration(float64(raw) * float64(o.Factor))
	case OverrideTotalMs:
		total := uint64(v.Duration.Milliseconds())
		if total == 0 {
			return 0
		}
		// Integer division; the last frame may not land exactly on the total.
		millis := o.Millis * uint64(raw.Milliseconds()) / total
		return time.Duration(millis) * time.Millisecond
	default:
		return raw
	}
}

// OverrideKind selects how frame times are rewritten.
type OverrideKind int

const (
	OverrideNone    OverrideKind = iota // source frame times
	OverrideMs                          // every frame lasts Millis
	OverrideScale                       // source times multiplied by Factor
	OverrideTotalMs                     // Millis shared out by source time
)

// FrameTimeOverride rewrites an animation's frame timings, for example to
// stretch a motion to fit a fixed total duration.
type FrameTimeOverride struct {
	Kind   OverrideKind
	Millis uint64  // OverrideMs, OverrideTotalMs
	Factor float32 // OverrideScale
}

// NoOverride keeps the source frame times.
func NoOverride() FrameTimeOverride { return FrameTimeOverride{} }

// FixedMs gives every frame the same duration.
func FixedMs(millis uint64) FrameTimeOverride {
	return FrameTimeOverride{Kind: OverrideMs, Millis: millis}
}

// ScaledBy multiplies every frame's duration by factor.
func ScaledBy(factor float32) FrameTimeOverride {
	return FrameTimeOverride{Kind: OverrideScale, Factor: factor}
}

// TotalMs splits millis among the frames in proportion to their source
// durations.
func TotalMs(millis uint64) FrameTimeOverride {
	return FrameTimeOverride{Kind: OverrideTotalMs, Millis: millis}
}

// Playback is what happens after the last frame.
type Playback int

const (
	Loop Playback = iota // wrap to the first frame
	Once                 // hold the last frame
)

func (p Playback) String() string {
	if p == Once {
		return "Once"
	}
	return "Loop"
}

// AtlasLayout indexes equally sized cells in a texture, left to right then
// top to bottom.
type AtlasLayout struct {
	Size     image.Point // full texture size
	CellSize image.Point
	Columns  int
	Rows     int
	Padding  image.Point
}

// Len returns the number of cells.
func (l AtlasLayout) Len() int {
	return l.Columns * l.Rows
}

// Cell returns the pixel rectangle of cell i.
func (l AtlasLayout) Cell(i int) image.Rectangle {
	col, row := i%max(l.Columns, 1), i/max(l.Columns, 1)
	x := col * (l.CellSize.X + l.Padding.X)
	y := row * (l.CellSize.Y + l.Padding.Y)
	return image.Rect(x, y, x+l.CellSize.X, y+l.CellSize.Y)
}

// CharAnimation is an immutable decoded animation, safe to share between
// any number of entities.
type CharAnimation struct {
	ID             uuid.UUID
	Variants       map[VariantName]*CharAnimationVariant
	Directionality Directionality
	Texture        *image.NRGBA
	Layout         AtlasLayout
}

// Variant returns the named variant, or nil.
func (a *CharAnimation) Variant(name VariantName) *CharAnimationVariant {
	if a == nil {
		return nil
	}
	return a.Variants[name]
}

// defaultVariant picks the variant to show when the requested one is missing.
func (a *CharAnimation) defaultVariant() VariantName {
	for _, name := range []VariantName{compass.Neutral, compass.E, compass.S, compass.N, compass.W} {
		if _, ok := a.Variants[name]; ok {
			return name
		}
	}
	best := compass.Neutral
	found := false
	for name := range a.Variants {
		if !found || name < best {
			best, found = name, true
		}
	}
	return best
}
