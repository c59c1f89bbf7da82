// Package raster provides the RGB pixel buffer used to build a pyramid and the
// decode, resize, crop and encode operations on it.
package raster

import (
	"image"
	"image/color"
)

// RGB is an in-memory opaque image of 8-bit red, green and blue samples.
// Pixels are stored as R, G, B, 0xff so that the buffer can be handed to
// resamplers as an *image.RGBA without copying.
// The pixel at (x, y) starts at Pix[(y-Rect.Min.Y)*Stride + (x-Rect.Min.X)*4].
type RGB struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB returns a new black RGB image with the given bounds.
func NewRGB(r image.Rectangle) *RGB {
	pix := make([]uint8, 4*r.Dx()*r.Dy())
	for i := 3; i < len(pix); i += 4 {
		pix[i] = 0xff
	}
	return &RGB{
		Pix:    pix,
		Stride: 4 * r.Dx(),
		Rect:   r,
	}
}

func (p *RGB) ColorModel() color.Model { return color.RGBAModel }

func (p *RGB) Bounds() image.Rectangle { return p.Rect }

func (p *RGB) Width() int { return p.Rect.Dx() }

func (p *RGB) Height() int { return p.Rect.Dy() }

func (p *RGB) At(x, y int) color.Color {
	return p.RGBAAt(x, y)
}

func (p *RGB) RGBAAt(x, y int) color.RGBA {
	if !(image.Point{x, y}.In(p.Rect)) {
		return color.RGBA{}
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	return color.RGBA{s[0], s[1], s[2], 0xff}
}

// PixOffset returns the index of the first element of Pix that corresponds to
// the pixel at (x, y).
func (p *RGB) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*4
}

// Set stores c composited over black.
func (p *RGB) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	c1 := color.RGBAModel.Convert(c).(color.RGBA)
	p.SetRGBA(x, y, c1)
}

func (p *RGB) SetRGBA(x, y int, c color.RGBA) {
	if !(image.Point{x, y}.In(p.Rect)) {
		return
	}
	i := p.PixOffset(x, y)
	s := p.Pix[i : i+3 : i+3]
	s[0] = c.R
	s[1] = c.G
	s[2] = c.B
}

func (p *RGB) Opaque() bool { return true }

// Normalize returns p with its bounds moved so that they start at (0, 0).
// The returned image shares pixels with p.
func (p *RGB) Normalize() *RGB {
	return &RGB{Pix: p.Pix, Stride: p.Stride, Rect: p.Rect.Sub(p.Rect.Min)}
}

// FromImage converts any image into an RGB image with the same bounds.
// Transparent pixels are composited over black.
func FromImage(m image.Image) *RGB {
	if p, ok := m.(*RGB); ok {
		return p
	}

	b := m.Bounds()
	dst := NewRGB(b)

	switch src := m.(type) {
	case *image.RGBA:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := src.PixOffset(b.Min.X, y)
			di := dst.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.Pix[di+0] = src.Pix[si+0]
				dst.Pix[di+1] = src.Pix[si+1]
				dst.Pix[di+2] = src.Pix[si+2]
				si += 4
				di += 4
			}
		}
	case *image.YCbCr:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			di := dst.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				c := src.YCbCrAt(x, y)
				dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2] = color.YCbCrToRGB(c.Y, c.Cb, c.Cr)
				di += 4
			}
		}
	case *image.Gray:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			si := src.PixOffset(b.Min.X, y)
			di := dst.PixOffset(b.Min.X, y)
			for x := b.Min.X; x < b.Max.X; x++ {
				v := src.Pix[si]
				dst.Pix[di+0], dst.Pix[di+1], dst.Pix[di+2] = v, v, v
				si++
				di += 4
			}
		}
	default:
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				dst.SetRGBA(x, y, color.RGBAModel.Convert(m.At(x, y)).(color.RGBA))
			}
		}
	}

	return dst
}

// rgbaView returns an *image.RGBA sharing pixels with p.
func (p *RGB) rgbaView() *image.RGBA {
	return &image.RGBA{Pix: p.Pix, Stride: p.Stride, Rect: p.Rect}
}

// adoptRGBA takes ownership of m's pixels, forcing every pixel opaque.
func adoptRGBA(m *image.RGBA) *RGB {
	b := m.Rect
	for y := b.Min.Y; y < b.Max.Y; y++ {
		i := m.PixOffset(b.Min.X, y) + 3
		for x := b.Min.X; x < b.Max.X; x++ {
			m.Pix[i] = 0xff
			i += 4
		}
	}
	return &RGB{Pix: m.Pix, Stride: m.Stride, Rect: m.Rect}
}
