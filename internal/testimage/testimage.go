// Package testimage generates deterministic images for tests.
package testimage

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/eak1mov/go-deepzoom/raster"
)

// Pattern returns the color of the test pattern at (x, y).
func Pattern(x, y int) color.RGBA {
	return color.RGBA{R: uint8(x), G: uint8(y), B: uint8(x ^ y), A: 0xff}
}

// New returns a width x height RGB image filled with Pattern.
func New(width, height int) *raster.RGB {
	img := raster.NewRGB(image.Rect(0, 0, width, height))
	for y := range height {
		for x := range width {
			img.SetRGBA(x, y, Pattern(x, y))
		}
	}
	return img
}

// WritePNG writes a width x height pattern image to dir/name and returns its path.
func WritePNG(t testing.TB, dir, name string, width, height int) string {
	t.Helper()

	filePath := filepath.Join(dir, name)
	file, err := os.Create(filePath)
	if err != nil {
		t.Fatal(err)
	}
	defer file.Close()

	if err := png.Encode(file, New(width, height)); err != nil {
		t.Fatal(err)
	}
	return filePath
}
