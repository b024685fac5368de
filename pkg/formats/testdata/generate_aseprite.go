//go:build ignore

// This program generates a test Aseprite file for unit tests.
// Run with: go run generate_aseprite.go
package main

import (
	"image"
	"image/color"
	"log"
	"os"

	"github.com/Faultbox/topdown/pkg/formats/asetest"
)

func main() {
	// 16x16 walker with four directional tags of two frames each.
	b := asetest.New(16, 16)
	body := b.Layer("body")
	origin := b.HiddenLayer("origin")
	walkbox := b.HiddenLayer("walkbox")

	shades := []color.NRGBA{
		{R: 200, G: 60, B: 60, A: 255},
		{R: 60, G: 200, B: 60, A: 255},
		{R: 60, G: 60, B: 200, A: 255},
		{R: 200, G: 200, B: 60, A: 255},
	}
	for dir := 0; dir < 4; dir++ {
		for step := 0; step < 2; step++ {
			f := b.Frame(100)
			b.FillRect(f, body, image.Rect(4, 2+step, 12, 14+step), shades[dir])
			b.Dot(f, origin, 8, 14)
			b.FillRect(f, walkbox, image.Rect(5, 12, 11, 15), color.NRGBA{A: 255})
		}
	}
	b.Tag("E", 0, 1)
	b.Tag("N", 2, 3)
	b.Tag("W", 4, 5)
	b.Tag("S", 6, 7)

	if err := os.WriteFile("walker.aseprite", b.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}
}
