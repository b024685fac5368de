// Package asetest builds synthetic Aseprite files for tests and fixtures.
package asetest

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"image"
	"image/color"
)

// Values mirrored from the file format so this package stays importable from
// the parser's own tests.
const (
	// Visible is the layer flag for a visible layer.
	Visible uint16 = 1
	// Background is the layer flag for a background layer.
	Background uint16 = 8

	// GroupLayer is the layer type of a group.
	GroupLayer uint16 = 1
	tilemapLayer uint16 = 2

	// RGBA, Grayscale and Indexed are the supported color depths.
	RGBA      uint16 = 32
	Grayscale uint16 = 16
	Indexed   uint16 = 8

	celRaw        uint16 = 0
	celLinked     uint16 = 1
	celCompressed uint16 = 2
)

// Layer describes a layer to emit.
type Layer struct {
	Name       string
	Flags      uint16
	Type       uint16
	ChildLevel uint16
	Opacity    uint8
}

type cel struct {
	layer   int
	x, y    int
	w, h    int
	pixels  []byte
	opacity uint8
	zIndex  int16
	linked  int
}

type frame struct {
	durationMs uint16
	cels       []cel
}

type tag struct {
	name     string
	from, to int
}

// Builder accumulates layers, frames, cels and tags, then serializes them.
type Builder struct {
	Width, Height    int
	Depth            uint16
	TransparentIndex uint8
	// Compress stores image cels zlib-compressed instead of raw.
	Compress bool
	// OldPalette emits the palette as a legacy 0x0004 chunk.
	OldPalette bool
	// LayerOpacity sets the header flag that makes layer opacity meaningful.
	LayerOpacity bool

	layers  []Layer
	frames  []frame
	tags    []tag
	palette []color.NRGBA
}

// New returns a builder for a w x h RGBA sprite.
func New(w, h int) *Builder {
	return &Builder{Width: w, Height: h, Depth: RGBA}
}

// AddLayer appends a layer and returns its index. A zero Opacity means 255.
func (b *Builder) AddLayer(l Layer) int {
	if l.Opacity == 0 {
		l.Opacity = 255
	}
	b.layers = append(b.layers, l)
	return len(b.layers) - 1
}

// Layer appends a visible normal layer and returns its index.
func (b *Builder) Layer(name string) int {
	return b.AddLayer(Layer{Name: name, Flags: Visible})
}

// HiddenLayer appends an invisible normal layer and returns its index.
func (b *Builder) HiddenLayer(name string) int {
	return b.AddLayer(Layer{Name: name})
}

// Frame appends a frame and returns its index.
func (b *Builder) Frame(durationMs int) int {
	b.frames = append(b.frames, frame{durationMs: uint16(durationMs)})
	return len(b.frames) - 1
}

// Cel places a cel of stored pixels (in the builder's color depth) at x, y.
func (b *Builder) Cel(frameIdx, layer, x, y, w, h int, pixels []byte) {
	b.frames[frameIdx].cels = append(b.frames[frameIdx].cels, cel{
		layer: layer, x: x, y: y, w: w, h: h, pixels: pixels, opacity: 255, linked: -1,
	})
}

// CelWithOpacity is Cel with an explicit cel opacity and z-index.
func (b *Builder) CelWithOpacity(frameIdx, layer, x, y, w, h int, pixels []byte, opacity uint8, zIndex int16) {
	b.frames[frameIdx].cels = append(b.frames[frameIdx].cels, cel{
		layer: layer, x: x, y: y, w: w, h: h, pixels: pixels, opacity: opacity, zIndex: zIndex, linked: -1,
	})
}

// FillRect places an RGBA cel covering r filled with c.
func (b *Builder) FillRect(frameIdx, layer int, r image.Rectangle, c color.NRGBA) {
	w, h := r.Dx(), r.Dy()
	pixels := make([]byte, w*h*4)
	for i := 0; i < w*h; i++ {
		pixels[i*4], pixels[i*4+1], pixels[i*4+2], pixels[i*4+3] = c.R, c.G, c.B, c.A
	}
	b.Cel(frameIdx, layer, r.Min.X, r.Min.Y, w, h, pixels)
}

// Dot places a single opaque pixel at x, y.
func (b *Builder) Dot(frameIdx, layer, x, y int) {
	b.FillRect(frameIdx, layer, image.Rect(x, y, x+1, y+1), color.NRGBA{R: 255, A: 255})
}

// Link makes a layer's cel on frameIdx reuse the cel from target.
func (b *Builder) Link(frameIdx, layer, target int) {
	b.frames[frameIdx].cels = append(b.frames[frameIdx].cels, cel{layer: layer, linked: target})
}

// Tag names the inclusive frame range from..to.
func (b *Builder) Tag(name string, from, to int) {
	b.tags = append(b.tags, tag{name: name, from: from, to: to})
}

// Palette sets the palette used by indexed sprites.
func (b *Builder) Palette(colors ...color.NRGBA) {
	b.palette = colors
}

// Bytes serializes the file.
func (b *Builder) Bytes() []byte {
	var body bytes.Buffer
	for i, f := range b.frames {
		var chunks [][]byte
		if i == 0 {
			for _, l := range b.layers {
				chunks = append(chunks, b.layerChunk(l))
			}
			if len(b.palette) > 0 {
				if b.OldPalette {
					chunks = append(chunks, b.oldPaletteChunk())
				} else {
					chunks = append(chunks, b.paletteChunk())
				}
			}
			if len(b.tags) > 0 {
				chunks = append(chunks, b.tagsChunk())
			}
		}
		for _, c := range f.cels {
			chunks = append(chunks, b.celChunk(c))
		}
		writeFrame(&body, f.durationMs, chunks)
	}

	var out bytes.Buffer
	flags := uint32(0)
	if b.LayerOpacity {
		flags |= 1
	}
	w := func(v any) { binary.Write(&out, binary.LittleEndian, v) }
	w(uint32(128 + body.Len()))
	w(uint16(0xA5E0))
	w(uint16(len(b.frames)))
	w(uint16(b.Width))
	w(uint16(b.Height))
	w(b.Depth)
	w(flags)
	w(uint16(100))
	w([8]byte{})
	w(b.TransparentIndex)
	w([3]byte{})
	w(uint16(len(b.palette)))
	w(uint8(1))
	w(uint8(1))
	w(int16(0))
	w(int16(0))
	w(uint16(16))
	w(uint16(16))
	w([84]byte{})
	out.Write(body.Bytes())
	return out.Bytes()
}

func writeFrame(buf *bytes.Buffer, durationMs uint16, chunks [][]byte) {
	size := 16
	for _, c := range chunks {
		size += len(c)
	}
	w := func(v any) { binary.Write(buf, binary.LittleEndian, v) }
	w(uint32(size))
	w(uint16(0xF1FA))
	w(uint16(len(chunks)))
	w(durationMs)
	w([2]byte{})
	w(uint32(len(chunks)))
	for _, c := range chunks {
		buf.Write(c)
	}
}

func chunk(kind uint16, payload []byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(6+len(payload)))
	binary.Write(&buf, binary.LittleEndian, kind)
	buf.Write(payload)
	return buf.Bytes()
}

func writeString(buf *bytes.Buffer, s string) {
	binary.Write(buf, binary.LittleEndian, uint16(len(s)))
	buf.WriteString(s)
}

func (b *Builder) layerChunk(l Layer) []byte {
	var p bytes.Buffer
	w := func(v any) { binary.Write(&p, binary.LittleEndian, v) }
	w(l.Flags)
	w(l.Type)
	w(l.ChildLevel)
	w(uint16(0))
	w(uint16(0))
	w(uint16(0)) // blend mode: normal
	w(l.Opacity)
	w([3]byte{})
	writeString(&p, l.Name)
	if l.Type == tilemapLayer {
		w(uint32(0))
	}
	return chunk(0x2004, p.Bytes())
}

func (b *Builder) celChunk(c cel) []byte {
	var p bytes.Buffer
	w := func(v any) { binary.Write(&p, binary.LittleEndian, v) }
	w(uint16(c.layer))
	w(int16(c.x))
	w(int16(c.y))
	w(c.opacity)
	switch {
	case c.linked >= 0:
		w(celLinked)
		w(int16(0))
		w([5]byte{})
		w(uint16(c.linked))
	case b.Compress:
		w(celCompressed)
		w(c.zIndex)
		w([5]byte{})
		w(uint16(c.w))
		w(uint16(c.h))
		zw := zlib.NewWriter(&p)
		zw.Write(c.pixels)
		zw.Close()
	default:
		w(celRaw)
		w(c.zIndex)
		w([5]byte{})
		w(uint16(c.w))
		w(uint16(c.h))
		p.Write(c.pixels)
	}
	return chunk(0x2005, p.Bytes())
}

func (b *Builder) tagsChunk() []byte {
	var p bytes.Buffer
	w := func(v any) { binary.Write(&p, binary.LittleEndian, v) }
	w(uint16(len(b.tags)))
	w([8]byte{})
	for _, t := range b.tags {
		w(uint16(t.from))
		w(uint16(t.to))
		w(uint8(0))
		w(uint16(0))
		w([6]byte{})
		w([3]uint8{0, 0, 0})
		w(uint8(0))
		writeString(&p, t.name)
	}
	return chunk(0x2018, p.Bytes())
}

func (b *Builder) paletteChunk() []byte {
	var p bytes.Buffer
	w := func(v any) { binary.Write(&p, binary.LittleEndian, v) }
	w(uint32(len(b.palette)))
	w(uint32(0))
	w(uint32(len(b.palette) - 1))
	w([8]byte{})
	for _, c := range b.palette {
		w(uint16(0))
		w([4]uint8{c.R, c.G, c.B, c.A})
	}
	return chunk(0x2019, p.Bytes())
}

func (b *Builder) oldPaletteChunk() []byte {
	var p bytes.Buffer
	w := func(v any) { binary.Write(&p, binary.LittleEndian, v) }
	w(uint16(1))
	w(uint8(0))
	w(uint8(len(b.palette) % 256))
	for _, c := range b.palette {
		w([3]uint8{c.R, c.G, c.B})
	}
	return chunk(0x0004, p.Bytes())
}
