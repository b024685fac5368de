// anitool inspects and exports Aseprite character sheets.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/draw"

	"github.com/Faultbox/topdown/internal/engine/character"
	"github.com/Faultbox/topdown/pkg/formats"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "frames":
		cmdFrames(args)
	case "atlas":
		cmdAtlas(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`anitool - Aseprite character sheet utility

Usage:
  anitool <command> [options]

Commands:
  info <file.aseprite>                       Show layers, tags, variants and timing
  frames [-scale N] <file.aseprite> [dir]    Export every atlas cell as a PNG
  atlas [-scale N] <file.aseprite> [out.png] Export the texture strip

Examples:
  anitool info assets/walker.aseprite
  anitool frames -scale 4 assets/walker.aseprite ./frames
  anitool atlas assets/walker.aseprite walker.png`)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func load(path string) (*formats.Aseprite, *character.Decoded) {
	ase, err := formats.ParseAsepriteFile(path)
	if err != nil {
		fail("Error: %v", err)
	}
	decoded, err := character.Decode(ase)
	if err != nil {
		fail("Error: %v", err)
	}
	return ase, decoded
}

func cmdInfo(args []string) {
	if len(args) < 1 {
		fail("Usage: anitool info <file.aseprite>")
	}

	ase, decoded := load(args[0])
	anim := decoded.Animation

	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Canvas:     %dx%d (%d bpp)\n", ase.Width(), ase.Height(), ase.Header.ColorDepth)
	fmt.Printf("Frames:     %d\n", len(ase.Frames))
	fmt.Printf("Duration:   %v\n", character.TotalDuration(ase))
	fmt.Printf("Direction:  %v\n", anim.Directionality)
	fmt.Printf("Atlas:      %dx%d, %d cells of %dx%d\n",
		decoded.Layout.Size.X, decoded.Layout.Size.Y, decoded.Layout.Len(),
		decoded.Layout.CellSize.X, decoded.Layout.CellSize.Y)
	fmt.Println()

	fmt.Println("Layers:")
	for i, l := range ase.Layers {
		state := "visible"
		if !l.Visible() {
			state = "hidden"
		}
		indent := strings.Repeat("  ", int(l.ChildLevel))
		fmt.Printf("  %2d %s%-16s %s\n", i, indent, l.Name, state)
	}

	if len(ase.Tags) > 0 {
		fmt.Println()
		fmt.Println("Tags:")
		for _, t := range ase.Tags {
			fmt.Printf("  %-8s frames %d-%d\n", t.Name, t.From, t.To)
		}
	}

	fmt.Println()
	fmt.Println("Variants:")
	names := make([]character.VariantName, 0, len(anim.Variants))
	for name := range anim.Variants {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	for _, name := range names {
		v := anim.Variants[name]
		boxes := 0
		for _, f := range v.Frames {
			if f.Walkbox != nil {
				boxes++
			}
		}
		fmt.Printf("  %-8s %d frames, %v, %d walkboxes\n", name, len(v.Frames), v.Duration, boxes)
	}
}

func scaleFlag(fs *flag.FlagSet) *int {
	return fs.Int("scale", 1, "Nearest-neighbor scale factor")
}

func scaled(img image.Image, factor int) image.Image {
	if factor <= 1 {
		return img
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func cmdFrames(args []string) {
	fs := flag.NewFlagSet("frames", flag.ExitOnError)
	scale := scaleFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: anitool frames [-scale N] <file.aseprite> [dir]")
	}
	src := fs.Arg(0)
	dir := "."
	if fs.NArg() > 1 {
		dir = fs.Arg(1)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		fail("Error: %v", err)
	}

	_, decoded := load(src)
	base := strings.TrimSuffix(filepath.Base(src), filepath.Ext(src))
	for i := 0; i < decoded.Layout.Len(); i++ {
		cell := decoded.Texture.SubImage(decoded.Layout.Cell(i))
		out := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", base, i))
		if err := writePNG(out, scaled(cell, *scale)); err != nil {
			fail("Error: %v", err)
		}
		fmt.Printf("Wrote: %s\n", out)
	}
}

func cmdAtlas(args []string) {
	fs := flag.NewFlagSet("atlas", flag.ExitOnError)
	scale := scaleFlag(fs)
	fs.Parse(args)

	if fs.NArg() < 1 {
		fail("Usage: anitool atlas [-scale N] <file.aseprite> [out.png]")
	}
	src := fs.Arg(0)
	out := strings.TrimSuffix(src, filepath.Ext(src)) + ".png"
	if fs.NArg() > 1 {
		out = fs.Arg(1)
	}

	_, decoded := load(src)
	if err := writePNG(out, scaled(decoded.Texture, *scale)); err != nil {
		fail("Error: %v", err)
	}
	fmt.Printf("Wrote: %s (%d cells)\n", out, decoded.Layout.Len())
}
