// Package formats provides parsers for sprite and animation file formats.
package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"sort"
	"time"

	"golang.org/x/image/draw"
)

// Aseprite format errors.
var (
	ErrInvalidAsepriteMagic  = errors.New("invalid Aseprite magic: expected 0xA5E0")
	ErrInvalidFrameMagic     = errors.New("invalid Aseprite frame magic: expected 0xF1FA")
	ErrTruncatedAsepriteData = errors.New("truncated Aseprite data")
	ErrUnsupportedColorDepth = errors.New("unsupported Aseprite color depth")
	ErrInvalidCel            = errors.New("invalid Aseprite cel")
)

const (
	asepriteMagic           = 0xA5E0
	asepriteFrameMagic      = 0xF1FA
	asepriteHeaderSize      = 128
	asepriteFrameHeaderSize = 16
	asepriteChunkHeaderSize = 6
)

// Chunk types understood by the parser. Everything else is skipped.
const (
	chunkOldPalette   = 0x0004
	chunkOldPalette64 = 0x0011
	chunkLayer        = 0x2004
	chunkCel          = 0x2005
	chunkTags         = 0x2018
	chunkPalette      = 0x2019
)

// Header flag: layer opacity values are meaningful.
const headerFlagLayerOpacity = 1

// ColorDepth is the pixel format of every cel in the file.
type ColorDepth uint16

// Supported color depths, in bits per pixel.
const (
	DepthIndexed   ColorDepth = 8
	DepthGrayscale ColorDepth = 16
	DepthRGBA      ColorDepth = 32
)

// BytesPerPixel returns the stored size of one pixel.
func (d ColorDepth) BytesPerPixel() int {
	return int(d) / 8
}

// AsepriteHeader is the fixed 128-byte file header.
type AsepriteHeader struct {
	FileSize         uint32
	Magic            uint16
	Frames           uint16
	Width            uint16
	Height           uint16
	ColorDepth       ColorDepth
	Flags            uint32
	Speed            uint16 // deprecated, frames carry their own duration
	_                [8]byte
	TransparentIndex uint8
	_                [3]byte
	NumColors        uint16
	PixelWidth       uint8
	PixelHeight      uint8
	GridX            int16
	GridY            int16
	GridWidth        uint16
	GridHeight       uint16
	_                [84]byte
}

// LayerFlags is the layer chunk's flag word.
type LayerFlags uint16

// Layer flag bits.
const (
	LayerVisible    LayerFlags = 1
	LayerEditable   LayerFlags = 2
	LayerLocked     LayerFlags = 4
	LayerBackground LayerFlags = 8
)

// LayerType distinguishes image layers from groups and tilemaps.
type LayerType uint16

const (
	LayerTypeNormal  LayerType = 0
	LayerTypeGroup   LayerType = 1
	LayerTypeTilemap LayerType = 2
)

// AsepriteLayer describes one layer. Layers are listed bottom to top.
type AsepriteLayer struct {
	Name         string
	Flags        LayerFlags
	Type         LayerType
	ChildLevel   uint16
	BlendMode    uint16
	Opacity      uint8
	TilesetIndex uint32
	Parent       int // index of the enclosing group, -1 at top level
}

// Visible reports the layer's own visibility flag, ignoring its parents.
func (l *AsepriteLayer) Visible() bool {
	return l.Flags&LayerVisible != 0
}

// CelType is how a cel's pixels are stored.
type CelType uint16

const (
	CelRaw               CelType = 0
	CelLinked            CelType = 1
	CelCompressed        CelType = 2
	CelCompressedTilemap CelType = 3
)

// AsepriteCel is one layer's image on one frame.
type AsepriteCel struct {
	Layer   int
	X, Y    int // position of the cel's top-left corner on the canvas
	Opacity uint8
	Type    CelType
	ZIndex  int
	Width   int
	Height  int
	Pixels  []byte // RGBA, 4 bytes per pixel; nil for linked and tilemap cels
	// LinkedFrame is the frame whose cel this one reuses, for CelLinked.
	LinkedFrame int

	raw []byte // stored pixels before color conversion
}

// Bounds returns the cel's rectangle in canvas coordinates.
func (c *AsepriteCel) Bounds() image.Rectangle {
	return image.Rect(c.X, c.Y, c.X+c.Width, c.Y+c.Height)
}

// AsepriteFrame is one animation frame.
type AsepriteFrame struct {
	DurationMs uint16
	Cels       []AsepriteCel
}

// Duration returns the frame's display time.
func (f *AsepriteFrame) Duration() time.Duration {
	return time.Duration(f.DurationMs) * time.Millisecond
}

// LoopDirection is a tag's playback direction.
type LoopDirection uint8

const (
	LoopForward         LoopDirection = 0
	LoopReverse         LoopDirection = 1
	LoopPingPong        LoopDirection = 2
	LoopPingPongReverse LoopDirection = 3
)

// AsepriteTag names an inclusive range of frames.
type AsepriteTag struct {
	Name      string
	From      int
	To        int
	Direction LoopDirection
	Repeat    int
	Color     [3]uint8
}

// Aseprite is a parsed .aseprite/.ase file.
type Aseprite struct {
	Header  AsepriteHeader
	Layers  []AsepriteLayer
	Frames  []AsepriteFrame
	Tags    []AsepriteTag
	Palette []color.NRGBA
}

// Width returns the canvas width in pixels.
func (a *Aseprite) Width() int {
	return int(a.Header.Width)
}

// Height returns the canvas height in pixels.
func (a *Aseprite) Height() int {
	return int(a.Header.Height)
}

// ParseAseprite parses an Aseprite file from raw bytes.
func ParseAseprite(data []byte) (*Aseprite, error) {
	if len(data) < asepriteHeaderSize {
		return nil, ErrTruncatedAsepriteData
	}

	ase := &Aseprite{}
	r := bytes.NewReader(data[:asepriteHeaderSize])
	if err := binary.Read(r, binary.LittleEndian, &ase.Header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedAsepriteData)
	}
	if ase.Header.Magic != asepriteMagic {
		return nil, ErrInvalidAsepriteMagic
	}
	switch ase.Header.ColorDepth {
	case DepthIndexed, DepthGrayscale, DepthRGBA:
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedColorDepth, ase.Header.ColorDepth)
	}

	ase.Frames = make([]AsepriteFrame, 0, ase.Header.Frames)
	offset := asepriteHeaderSize
	for i := 0; i < int(ase.Header.Frames); i++ {
		frame, size, err := ase.parseFrame(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("parsing frame %d: %w", i, err)
		}
		ase.Frames = append(ase.Frames, frame)
		offset += size
	}

	linkLayerParents(ase.Layers)
	if err := ase.resolvePixels(); err != nil {
		return nil, err
	}

	return ase, nil
}

// ParseAsepriteFile parses an Aseprite file from disk.
func ParseAsepriteFile(path string) (*Aseprite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading Aseprite file: %w", err)
	}
	return ParseAseprite(data)
}

type frameHeader struct {
	Size      uint32
	Magic     uint16
	OldChunks uint16
	Duration  uint16
	_         [2]byte
	NewChunks uint32
}

// parseFrame parses one frame and returns it with its size in bytes.
func (a *Aseprite) parseFrame(data []byte) (AsepriteFrame, int, error) {
	if len(data) < asepriteFrameHeaderSize {
		return AsepriteFrame{}, 0, fmt.Errorf("%w: reading frame header", ErrTruncatedAsepriteData)
	}

	var hdr frameHeader
	if err := binary.Read(bytes.NewReader(data[:asepriteFrameHeaderSize]), binary.LittleEndian, &hdr); err != nil {
		return AsepriteFrame{}, 0, fmt.Errorf("%w: reading frame header", ErrTruncatedAsepriteData)
	}
	if hdr.Magic != asepriteFrameMagic {
		return AsepriteFrame{}, 0, ErrInvalidFrameMagic
	}
	size := int(hdr.Size)
	if size < asepriteFrameHeaderSize || size > len(data) {
		return AsepriteFrame{}, 0, fmt.Errorf("%w: frame size %d", ErrTruncatedAsepriteData, size)
	}

	chunks := int(hdr.NewChunks)
	if chunks == 0 {
		chunks = int(hdr.OldChunks)
	}

	frame := AsepriteFrame{DurationMs: hdr.Duration}
	body := data[asepriteFrameHeaderSize:size]
	for c := 0; c < chunks && len(body) > 0; c++ {
		if len(body) < asepriteChunkHeaderSize {
			return AsepriteFrame{}, 0, fmt.Errorf("%w: reading chunk header", ErrTruncatedAsepriteData)
		}
		chunkSize := int(binary.LittleEndian.Uint32(body[0:4]))
		chunkType := binary.LittleEndian.Uint16(body[4:6])
		if chunkSize < asepriteChunkHeaderSize || chunkSize > len(body) {
			return AsepriteFrame{}, 0, fmt.Errorf("%w: chunk 0x%04X size %d", ErrTruncatedAsepriteData, chunkType, chunkSize)
		}
		payload := body[asepriteChunkHeaderSize:chunkSize]

		var err error
		switch chunkType {
		case chunkLayer:
			err = a.parseLayerChunk(payload)
		case chunkCel:
			var cel AsepriteCel
			cel, err = a.parseCelChunk(payload)
			if err == nil {
				frame.Cels = append(frame.Cels, cel)
			}
		case chunkTags:
			err = a.parseTagsChunk(payload)
		case chunkPalette:
			err = a.parsePaletteChunk(payload)
		case chunkOldPalette, chunkOldPalette64:
			// The newer palette chunk wins when both are present.
			if a.Palette == nil {
				err = a.parseOldPaletteChunk(payload, chunkType == chunkOldPalette64)
			}
		}
		if err != nil {
			return AsepriteFrame{}, 0, fmt.Errorf("chunk 0x%04X: %w", chunkType, err)
		}

		body = body[chunkSize:]
	}

	return frame, size, nil
}

type layerChunkHeader struct {
	Flags         uint16
	Type          uint16
	ChildLevel    uint16
	DefaultWidth  uint16
	DefaultHeight uint16
	BlendMode     uint16
	Opacity       uint8
	_             [3]byte
}

func (a *Aseprite) parseLayerChunk(data []byte) error {
	r := bytes.NewReader(data)
	var hdr layerChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: reading layer header", ErrTruncatedAsepriteData)
	}
	name, err := readAsepriteString(r)
	if err != nil {
		return fmt.Errorf("reading layer name: %w", err)
	}

	layer := AsepriteLayer{
		Name:       name,
		Flags:      LayerFlags(hdr.Flags),
		Type:       LayerType(hdr.Type),
		ChildLevel: hdr.ChildLevel,
		BlendMode:  hdr.BlendMode,
		Opacity:    hdr.Opacity,
		Parent:     -1,
	}
	if a.Header.Flags&headerFlagLayerOpacity == 0 {
		layer.Opacity = 255
	}
	if layer.Type == LayerTypeTilemap {
		if err := binary.Read(r, binary.LittleEndian, &layer.TilesetIndex); err != nil {
			return fmt.Errorf("%w: reading tileset index", ErrTruncatedAsepriteData)
		}
	}

	a.Layers = append(a.Layers, layer)
	return nil
}

type celChunkHeader struct {
	Layer   uint16
	X       int16
	Y       int16
	Opacity uint8
	Type    uint16
	ZIndex  int16
	_       [5]byte
}

func (a *Aseprite) parseCelChunk(data []byte) (AsepriteCel, error) {
	r := bytes.NewReader(data)
	var hdr celChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return AsepriteCel{}, fmt.Errorf("%w: reading cel header", ErrTruncatedAsepriteData)
	}

	cel := AsepriteCel{
		Layer:   int(hdr.Layer),
		X:       int(hdr.X),
		Y:       int(hdr.Y),
		Opacity: hdr.Opacity,
		Type:    CelType(hdr.Type),
		ZIndex:  int(hdr.ZIndex),
	}

	switch cel.Type {
	case CelLinked:
		var linked uint16
		if err := binary.Read(r, binary.LittleEndian, &linked); err != nil {
			return AsepriteCel{}, fmt.Errorf("%w: reading linked frame", ErrTruncatedAsepriteData)
		}
		cel.LinkedFrame = int(linked)
		return cel, nil

	case CelRaw, CelCompressed:
		var w, h uint16
		if err := binary.Read(r, binary.LittleEndian, &w); err != nil {
			return AsepriteCel{}, fmt.Errorf("%w: reading cel width", ErrTruncatedAsepriteData)
		}
		if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
			return AsepriteCel{}, fmt.Errorf("%w: reading cel height", ErrTruncatedAsepriteData)
		}
		cel.Width, cel.Height = int(w), int(h)
		want := cel.Width * cel.Height * a.Header.ColorDepth.BytesPerPixel()

		if cel.Type == CelRaw {
			cel.raw = make([]byte, want)
			if _, err := io.ReadFull(r, cel.raw); err != nil {
				return AsepriteCel{}, fmt.Errorf("%w: reading raw cel pixels", ErrTruncatedAsepriteData)
			}
			return cel, nil
		}

		zr, err := zlib.NewReader(r)
		if err != nil {
			return AsepriteCel{}, fmt.Errorf("%w: opening compressed pixels: %v", ErrInvalidCel, err)
		}
		defer zr.Close()
		cel.raw = make([]byte, want)
		if _, err := io.ReadFull(zr, cel.raw); err != nil {
			return AsepriteCel{}, fmt.Errorf("%w: inflating pixels: %v", ErrInvalidCel, err)
		}
		return cel, nil

	case CelCompressedTilemap:
		// Tilemaps are not rendered; keep the cel so layer indices line up.
		return cel, nil
	}

	return AsepriteCel{}, fmt.Errorf("%w: unknown cel type %d", ErrInvalidCel, cel.Type)
}

type tagEntryHeader struct {
	From      uint16
	To        uint16
	Direction uint8
	Repeat    uint16
	_         [6]byte
	Color     [3]uint8
	_         uint8
}

func (a *Aseprite) parseTagsChunk(data []byte) error {
	r := bytes.NewReader(data)
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return fmt.Errorf("%w: reading tag count", ErrTruncatedAsepriteData)
	}
	if _, err := r.Seek(8, io.SeekCurrent); err != nil {
		return fmt.Errorf("%w: skipping tag reserved bytes", ErrTruncatedAsepriteData)
	}

	for i := 0; i < int(count); i++ {
		var hdr tagEntryHeader
		if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
			return fmt.Errorf("%w: reading tag %d", ErrTruncatedAsepriteData, i)
		}
		name, err := readAsepriteString(r)
		if err != nil {
			return fmt.Errorf("reading tag %d name: %w", i, err)
		}
		a.Tags = append(a.Tags, AsepriteTag{
			Name:      name,
			From:      int(hdr.From),
			To:        int(hdr.To),
			Direction: LoopDirection(hdr.Direction),
			Repeat:    int(hdr.Repeat),
			Color:     hdr.Color,
		})
	}
	return nil
}

type paletteChunkHeader struct {
	Size  uint32
	First uint32
	Last  uint32
	_     [8]byte
}

func (a *Aseprite) parsePaletteChunk(data []byte) error {
	r := bytes.NewReader(data)
	var hdr paletteChunkHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("%w: reading palette header", ErrTruncatedAsepriteData)
	}
	if hdr.Last < hdr.First || hdr.Last >= 1<<16 || hdr.Size > 1<<16 {
		return fmt.Errorf("%w: palette range %d..%d of %d", ErrTruncatedAsepriteData, hdr.First, hdr.Last, hdr.Size)
	}

	a.growPalette(int(max(hdr.Size, hdr.Last+1)))
	for i := hdr.First; i <= hdr.Last; i++ {
		var entry struct {
			Flags      uint16
			R, G, B, A uint8
		}
		if err := binary.Read(r, binary.LittleEndian, &entry); err != nil {
			return fmt.Errorf("%w: reading palette entry %d", ErrTruncatedAsepriteData, i)
		}
		if entry.Flags&1 != 0 {
			if _, err := readAsepriteString(r); err != nil {
				return fmt.Errorf("reading palette entry %d name: %w", i, err)
			}
		}
		a.Palette[i] = color.NRGBA{R: entry.R, G: entry.G, B: entry.B, A: entry.A}
	}
	return nil
}

func (a *Aseprite) parseOldPaletteChunk(data []byte, sixBit bool) error {
	r := bytes.NewReader(data)
	var packets uint16
	if err := binary.Read(r, binary.LittleEndian, &packets); err != nil {
		return fmt.Errorf("%w: reading palette packet count", ErrTruncatedAsepriteData)
	}

	index := 0
	for p := 0; p < int(packets); p++ {
		var skip, count uint8
		if err := binary.Read(r, binary.LittleEndian, &skip); err != nil {
			return fmt.Errorf("%w: reading palette packet", ErrTruncatedAsepriteData)
		}
		if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
			return fmt.Errorf("%w: reading palette packet", ErrTruncatedAsepriteData)
		}
		index += int(skip)
		n := int(count)
		if n == 0 {
			n = 256
		}
		a.growPalette(index + n)
		for i := 0; i < n; i++ {
			var rgb [3]uint8
			if _, err := io.ReadFull(r, rgb[:]); err != nil {
				return fmt.Errorf("%w: reading palette color", ErrTruncatedAsepriteData)
			}
			if sixBit {
				for c := range rgb {
					rgb[c] = uint8(int(rgb[c]) * 255 / 63)
				}
			}
			a.Palette[index] = color.NRGBA{R: rgb[0], G: rgb[1], B: rgb[2], A: 255}
			index++
		}
	}
	return nil
}

func (a *Aseprite) growPalette(n int) {
	if n > len(a.Palette) {
		grown := make([]color.NRGBA, n)
		copy(grown, a.Palette)
		a.Palette = grown
	}
}

// readAsepriteString reads a WORD length followed by that many UTF-8 bytes.
func readAsepriteString(r *bytes.Reader) (string, error) {
	var n uint16
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return "", fmt.Errorf("%w: reading string length", ErrTruncatedAsepriteData)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", fmt.Errorf("%w: reading string", ErrTruncatedAsepriteData)
	}
	return string(buf), nil
}

// linkLayerParents fills in each layer's Parent from the child levels.
func linkLayerParents(layers []AsepriteLayer) {
	for i := range layers {
		layers[i].Parent = -1
		if layers[i].ChildLevel == 0 {
			continue
		}
		for j := i - 1; j >= 0; j-- {
			if layers[j].ChildLevel == layers[i].ChildLevel-1 {
				layers[i].Parent = j
				break
			}
		}
	}
}

// resolvePixels converts every stored cel to RGBA once the palette is known.
func (a *Aseprite) resolvePixels() error {
	for f := range a.Frames {
		for c := range a.Frames[f].Cels {
			cel := &a.Frames[f].Cels[c]
			if cel.Layer >= len(a.Layers) {
				return fmt.Errorf("%w: frame %d references layer %d of %d", ErrInvalidCel, f, cel.Layer, len(a.Layers))
			}
			if cel.Type == CelLinked && cel.LinkedFrame >= len(a.Frames) {
				return fmt.Errorf("%w: frame %d links to missing frame %d", ErrInvalidCel, f, cel.LinkedFrame)
			}
			if cel.raw == nil {
				continue
			}
			background := a.Layers[cel.Layer].Flags&LayerBackground != 0
			cel.Pixels = a.toRGBA(cel.raw, background)
			cel.raw = nil
		}
	}
	return nil
}

func (a *Aseprite) toRGBA(raw []byte, background bool) []byte {
	switch a.Header.ColorDepth {
	case DepthRGBA:
		return raw
	case DepthGrayscale:
		out := make([]byte, len(raw)*2)
		for i := 0; i+1 < len(raw); i += 2 {
			v, alpha := raw[i], raw[i+1]
			o := i * 2
			out[o], out[o+1], out[o+2], out[o+3] = v, v, v, alpha
		}
		return out
	default:
		out := make([]byte, len(raw)*4)
		for i, idx := range raw {
			if idx == a.Header.TransparentIndex && !background {
				continue
			}
			if int(idx) >= len(a.Palette) {
				continue
			}
			c := a.Palette[idx]
			o := i * 4
			out[o], out[o+1], out[o+2], out[o+3] = c.R, c.G, c.B, c.A
		}
		return out
	}
}

// LayerIndex returns the index of the first layer with the given name, or -1.
func (a *Aseprite) LayerIndex(name string) int {
	for i := range a.Layers {
		if a.Layers[i].Name == name {
			return i
		}
	}
	return -1
}

// LayerVisible reports whether a layer and all of its parent groups are visible.
func (a *Aseprite) LayerVisible(layer int) bool {
	for i := layer; i >= 0; i = a.Layers[i].Parent {
		if !a.Layers[i].Visible() {
			return false
		}
	}
	return true
}

// Cel returns the cel for a layer on a frame, following links, or nil if
// the layer is empty on that frame.
func (a *Aseprite) Cel(layer, frame int) *AsepriteCel {
	if frame < 0 || frame >= len(a.Frames) {
		return nil
	}
	// Links point at a frame that owns the pixels; guard against cycles anyway.
	for hops := 0; hops <= len(a.Frames); hops++ {
		var found *AsepriteCel
		cels := a.Frames[frame].Cels
		for i := range cels {
			if cels[i].Layer == layer {
				found = &cels[i]
				break
			}
		}
		if found == nil || found.Type != CelLinked {
			return found
		}
		frame = found.LinkedFrame
	}
	return nil
}

// CelImage renders a single layer's cel onto a transparent canvas-sized
// image, regardless of the layer's visibility. It returns nil when the layer
// has no pixels on that frame.
func (a *Aseprite) CelImage(layer, frame int) *image.NRGBA {
	cel := a.Cel(layer, frame)
	if cel == nil || cel.Pixels == nil {
		return nil
	}
	canvas := image.NewNRGBA(image.Rect(0, 0, a.Width(), a.Height()))
	draw.Draw(canvas, cel.Bounds(), cel.image(), image.Point{}, draw.Src)
	return canvas
}

// OpaqueBounds returns the bounding rectangle, in canvas coordinates, of the
// non-transparent pixels a layer has on a frame. Max is exclusive. ok is
// false when the layer has no visible pixels there.
func (a *Aseprite) OpaqueBounds(layer, frame int) (bounds image.Rectangle, ok bool) {
	cel := a.Cel(layer, frame)
	if cel == nil || cel.Pixels == nil {
		return image.Rectangle{}, false
	}
	canvas := image.Rect(0, 0, a.Width(), a.Height())
	for y := 0; y < cel.Height; y++ {
		for x := 0; x < cel.Width; x++ {
			if cel.Pixels[(y*cel.Width+x)*4+3] == 0 {
				continue
			}
			p := image.Pt(cel.X+x, cel.Y+y)
			if !p.In(canvas) {
				continue
			}
			px := image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))}
			if ok {
				bounds = bounds.Union(px)
			} else {
				bounds, ok = px, true
			}
		}
	}
	return bounds, ok
}

// FrameImage composites all visible image layers of a frame with normal
// blending. Other blend modes are treated as normal.
func (a *Aseprite) FrameImage(frame int) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, a.Width(), a.Height()))
	if frame < 0 || frame >= len(a.Frames) {
		return canvas
	}

	type drawable struct {
		cel   *AsepriteCel
		order int
	}
	var stack []drawable
	for layer := range a.Layers {
		if a.Layers[layer].Type != LayerTypeNormal || !a.LayerVisible(layer) {
			continue
		}
		cel := a.Cel(layer, frame)
		if cel == nil || cel.Pixels == nil {
			continue
		}
		stack = append(stack, drawable{cel: cel, order: layer + cel.ZIndex})
	}
	sort.SliceStable(stack, func(i, j int) bool {
		if stack[i].order != stack[j].order {
			return stack[i].order < stack[j].order
		}
		return stack[i].cel.ZIndex < stack[j].cel.ZIndex
	})

	for _, d := range stack {
		opacity := int(d.cel.Opacity) * int(a.Layers[d.cel.Layer].Opacity) / 255
		if opacity == 0 {
			continue
		}
		mask := image.NewUniform(color.Alpha{A: uint8(opacity)})
		draw.DrawMask(canvas, d.cel.Bounds(), d.cel.image(), image.Point{}, mask, image.Point{}, draw.Over)
	}
	return canvas
}

func (c *AsepriteCel) image() *image.NRGBA {
	return &image.NRGBA{
		Pix:    c.Pixels,
		Stride: c.Width * 4,
		Rect:   image.Rect(0, 0, c.Width, c.Height),
	}
}
