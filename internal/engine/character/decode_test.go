package character

import (
	"errors"
	"image"
	"image/color"
	"testing"
	"time"

	"github.com/Faultbox/topdown/internal/engine/collision"
	"github.com/Faultbox/topdown/internal/engine/compass"
	"github.com/Faultbox/topdown/pkg/formats"
	"github.com/Faultbox/topdown/pkg/formats/asetest"
	"github.com/Faultbox/topdown/pkg/math"
)

var opaque = color.NRGBA{R: 10, G: 20, B: 30, A: 255}

func mustParse(t *testing.T, b *asetest.Builder) *formats.Aseprite {
	t.Helper()
	ase, err := formats.ParseAseprite(b.Bytes())
	if err != nil {
		t.Fatalf("ParseAseprite failed: %v", err)
	}
	return ase
}

// framesBuilder returns a w x h sheet with n 100ms frames on a "body" layer.
func framesBuilder(w, h, n int) (*asetest.Builder, int) {
	b := asetest.New(w, h)
	body := b.Layer("body")
	for i := 0; i < n; i++ {
		f := b.Frame(100)
		b.Dot(f, body, i%w, 0)
	}
	return b, body
}

func TestDecodeNoTagsIsNeutral(t *testing.T) {
	b, _ := framesBuilder(4, 2, 3)
	decoded, err := Decode(mustParse(t, b))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}

	anim := decoded.Animation
	if len(anim.Variants) != 1 {
		t.Fatalf("expected 1 variant, got %d", len(anim.Variants))
	}
	v := anim.Variant(compass.Neutral)
	if v == nil {
		t.Fatal("expected a Neutral variant")
	}
	if len(v.Frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(v.Frames))
	}
	for i, f := range v.Frames {
		if f.Index != i {
			t.Errorf("frame %d has atlas index %d", i, f.Index)
		}
	}
	if v.Duration != 300*time.Millisecond {
		t.Errorf("expected total 300ms, got %v", v.Duration)
	}
	if anim.Directionality != DirectionalityZero {
		t.Errorf("expected Zero, got %v", anim.Directionality)
	}
	if anim.Texture != decoded.Texture {
		t.Error("animation should share the decoded texture")
	}
}

func TestDecodeDirectionality(t *testing.T) {
	tests := []struct {
		name string
		tags []string
		want Directionality
	}{
		{"four cardinals", []string{"E", "N", "W", "S"}, DirectionalityFour},
		{"only east", []string{"E"}, DirectionalityOneE},
		{"east and north", []string{"E", "N"}, DirectionalityOneE},
		{"three without east", []string{"N", "W", "S"}, DirectionalityZero},
		{"lowercase names", []string{"e", "n", "w", "s"}, DirectionalityFour},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := framesBuilder(2, 2, len(tt.tags))
			for i, tag := range tt.tags {
				b.Tag(tag, i, i)
			}
			decoded, err := Decode(mustParse(t, b))
			if err != nil {
				t.Fatalf("Decode failed: %v", err)
			}
			if got := decoded.Animation.Directionality; got != tt.want {
				t.Errorf("Directionality = %v, want %v", got, tt.want)
			}
			if len(decoded.Animation.Variants) != len(tt.tags) {
				t.Errorf("expected %d variants, got %d", len(tt.tags), len(decoded.Animation.Variants))
			}
		})
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	b, _ := framesBuilder(2, 2, 2)
	b.Tag("E", 0, 0)
	b.Tag("jump", 1, 1)

	decoded, err := Decode(mustParse(t, b))
	if !errors.Is(err, ErrUnknownDirection) {
		t.Fatalf("expected ErrUnknownDirection, got %v", err)
	}
	if decoded != nil {
		t.Error("failed decode should not return a partial animation")
	}
}

func TestDecodeTagOutOfRange(t *testing.T) {
	tests := []struct {
		name     string
		from, to int
	}{
		{"past last frame", 0, 5},
		{"ends one past", 1, 2},
		{"reversed", 1, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, _ := framesBuilder(2, 2, 2)
			b.Tag("E", tt.from, tt.to)

			decoded, err := DecodeBytes(b.Bytes())
			if !errors.Is(err, ErrTagRange) {
				t.Fatalf("expected ErrTagRange, got %v", err)
			}
			if decoded != nil {
				t.Error("failed decode should not return a partial animation")
			}
		})
	}
}

func TestDecodeTagRanges(t *testing.T) {
	b, _ := framesBuilder(2, 2, 5)
	b.Tag("E", 0, 1)
	b.Tag("W", 2, 4)

	decoded, err := Decode(mustParse(t, b))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	w := decoded.Animation.Variant(compass.W)
	if w == nil || len(w.Frames) != 3 {
		t.Fatalf("expected W with 3 frames, got %+v", w)
	}
	if w.Frames[0].Index != 2 || w.Frames[2].Index != 4 {
		t.Errorf("W frames index into the wrong atlas cells: %d..%d", w.Frames[0].Index, w.Frames[2].Index)
	}
}

func TestDecodeBytesMalformed(t *testing.T) {
	_, err := DecodeBytes([]byte("not a sprite"))
	if !errors.Is(err, formats.ErrTruncatedAsepriteData) {
		t.Errorf("expected ErrTruncatedAsepriteData, got %v", err)
	}
}

func TestBuildAtlas(t *testing.T) {
	b := asetest.New(4, 2)
	body := b.Layer("body")
	for i := 0; i < 3; i++ {
		f := b.Frame(100)
		b.FillRect(f, body, image.Rect(0, 0, 4, 2), opaque)
	}

	tex, layout := BuildAtlas(mustParse(t, b))
	if got := tex.Bounds().Size(); got != image.Pt(14, 2) {
		t.Fatalf("expected 14x2 strip, got %v", got)
	}
	if layout.Len() != 3 {
		t.Errorf("expected 3 cells, got %d", layout.Len())
	}
	if got := layout.Cell(1); got != image.Rect(5, 0, 9, 2) {
		t.Errorf("Cell(1) = %v", got)
	}
	for _, x := range []int{4, 9} {
		if tex.NRGBAAt(x, 0).A != 0 {
			t.Errorf("padding column %d should be transparent", x)
		}
	}
	for _, x := range []int{0, 3, 5, 13} {
		if tex.NRGBAAt(x, 1) != opaque {
			t.Errorf("expected frame pixel at x=%d, got %v", x, tex.NRGBAAt(x, 1))
		}
	}
}

func TestBuildAtlasHiddenMarkers(t *testing.T) {
	b := asetest.New(2, 2)
	marker := b.HiddenLayer(WalkboxLayer)
	f := b.Frame(100)
	b.FillRect(f, marker, image.Rect(0, 0, 2, 2), opaque)

	tex, _ := BuildAtlas(mustParse(t, b))
	if tex.NRGBAAt(0, 0).A != 0 {
		t.Error("hidden marker layers must not reach the atlas")
	}
}

func TestDecodeMarkers(t *testing.T) {
	b := asetest.New(16, 16)
	b.Layer("body")
	origin := b.HiddenLayer(OriginLayer)
	walkbox := b.HiddenLayer(WalkboxLayer)
	hurtbox := b.HiddenLayer(HurtboxLayer)
	f := b.Frame(100)
	b.Dot(f, origin, 8, 14)
	b.FillRect(f, walkbox, image.Rect(5, 12, 11, 15), opaque)
	b.Dot(f, hurtbox, 8, 4)

	decoded, err := Decode(mustParse(t, b))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	frame := decoded.Animation.Variant(compass.Neutral).Frames[0]

	if frame.Origin != (math.Vec2{X: 8, Y: 14}) {
		t.Errorf("Origin = %v", frame.Origin)
	}
	if want := (math.Vec2{X: 0, Y: -0.375}); frame.Anchor != want {
		t.Errorf("Anchor = %v, want %v", frame.Anchor, want)
	}

	// Pixels 5..10 x 12..14 relative to (8,14), then y-up.
	wantWalk := collision.Rect{Min: math.Vec2{X: -3, Y: 0}, Max: math.Vec2{X: 2, Y: 2}}
	if frame.Walkbox == nil || *frame.Walkbox != wantWalk {
		t.Errorf("Walkbox = %v, want %v", frame.Walkbox, wantWalk)
	}

	// A single marker pixel is an empty rect, not a missing one.
	wantHurt := collision.Rect{Min: math.Vec2{X: 0, Y: 10}, Max: math.Vec2{X: 0, Y: 10}}
	if frame.Hurtbox == nil || *frame.Hurtbox != wantHurt {
		t.Errorf("Hurtbox = %v, want %v", frame.Hurtbox, wantHurt)
	}

	if frame.Hitbox != nil {
		t.Errorf("missing hitbox layer should decode to nil, got %v", frame.Hitbox)
	}
}

func TestDecodeMissingOrigin(t *testing.T) {
	b := asetest.New(4, 4)
	b.Layer("body")
	origin := b.HiddenLayer(OriginLayer)
	walkbox := b.HiddenLayer(WalkboxLayer)
	f0 := b.Frame(100)
	b.Dot(f0, origin, 2, 2)
	f1 := b.Frame(100)
	b.FillRect(f1, walkbox, image.Rect(1, 1, 3, 3), opaque)

	decoded, err := Decode(mustParse(t, b))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	frames := decoded.Animation.Variant(compass.Neutral).Frames

	if frames[0].Walkbox != nil {
		t.Error("frame without walkbox pixels should have no walkbox")
	}
	if frames[1].Origin != (math.Vec2{}) {
		t.Errorf("empty origin cel should default to zero, got %v", frames[1].Origin)
	}
	if want := (math.Vec2{X: -0.5, Y: 0.5}); frames[1].Anchor != want {
		t.Errorf("zero origin anchor = %v, want %v", frames[1].Anchor, want)
	}
	want := collision.Rect{Min: math.Vec2{X: 1, Y: -2}, Max: math.Vec2{X: 2, Y: -1}}
	if frames[1].Walkbox == nil || *frames[1].Walkbox != want {
		t.Errorf("Walkbox = %v, want %v", frames[1].Walkbox, want)
	}
}

func TestResolvedFrameTime(t *testing.T) {
	v := &CharAnimationVariant{
		Frames: []CharAnimationFrame{
			{Duration: 100 * time.Millisecond},
			{Duration: 300 * time.Millisecond},
		},
		Duration: 400 * time.Millisecond,
	}

	tests := []struct {
		name     string
		override FrameTimeOverride
		want     [2]time.Duration
	}{
		{"none", NoOverride(), [2]time.Duration{100 * time.Millisecond, 300 * time.Millisecond}},
		{"fixed", FixedMs(50), [2]time.Duration{50 * time.Millisecond, 50 * time.Millisecond}},
		{"scaled", ScaledBy(0.5), [2]time.Duration{50 * time.Millisecond, 150 * time.Millisecond}},
		{"total", TotalMs(40), [2]time.Duration{10 * time.Millisecond, 30 * time.Millisecond}},
		{"total rounds down", TotalMs(50), [2]time.Duration{12 * time.Millisecond, 37 * time.Millisecond}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for i := range tt.want {
				if got := v.ResolvedFrameTime(i, tt.override); got != tt.want[i] {
					t.Errorf("frame %d: got %v, want %v", i, got, tt.want[i])
				}
			}
		})
	}
}

func TestResolvedFrameTimeZeroTotal(t *testing.T) {
	v := &CharAnimationVariant{Frames: []CharAnimationFrame{{}}}
	if got := v.ResolvedFrameTime(0, TotalMs(100)); got != 0 {
		t.Errorf("expected 0 for a zero-length variant, got %v", got)
	}
}

func TestAtlasLayoutCell(t *testing.T) {
	l := AtlasLayout{CellSize: image.Pt(8, 8), Columns: 2, Rows: 2, Padding: image.Pt(1, 1)}
	if got := l.Cell(3); got != image.Rect(9, 9, 17, 17) {
		t.Errorf("Cell(3) = %v", got)
	}
}
