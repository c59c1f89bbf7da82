package raster_test

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"runtime"
	"testing"

	"github.com/eak1mov/go-deepzoom/internal/testimage"
	"github.com/eak1mov/go-deepzoom/raster"
	"github.com/stretchr/testify/require"
)

func TestFromImage(t *testing.T) {
	rect := image.Rect(0, 0, 4, 3)

	rgba := image.NewRGBA(rect)
	nrgba := image.NewNRGBA(rect)
	gray := image.NewGray(rect)
	for y := range 3 {
		for x := range 4 {
			rgba.SetRGBA(x, y, testimage.Pattern(x, y))
			nrgba.SetNRGBA(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 0xff})
			gray.SetGray(x, y, color.Gray{Y: uint8(10 * x)})
		}
	}
	nrgba.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 100, B: 50, A: 0})

	got := raster.FromImage(rgba)
	require.Equal(t, rect, got.Bounds())
	for y := range 3 {
		for x := range 4 {
			require.Equal(t, testimage.Pattern(x, y), got.RGBAAt(x, y))
		}
	}

	got = raster.FromImage(nrgba)
	require.Equal(t, color.RGBA{A: 0xff}, got.RGBAAt(0, 0), "transparent pixel over black")
	require.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 0xff}, got.RGBAAt(1, 1))

	got = raster.FromImage(gray)
	require.Equal(t, color.RGBA{R: 30, G: 30, B: 30, A: 0xff}, got.RGBAAt(3, 2))
}

func TestFromImageYCbCr(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, testimage.New(64, 48), &jpeg.Options{Quality: 100}))
	decoded, err := jpeg.Decode(&buf)
	require.NoError(t, err)
	_, ok := decoded.(*image.YCbCr)
	require.True(t, ok)

	got := raster.FromImage(decoded)
	require.Equal(t, 64, got.Width())
	require.Equal(t, 48, got.Height())

	r0, g0, b0, _ := decoded.At(10, 20).RGBA()
	c := got.RGBAAt(10, 20)
	require.InDelta(t, r0>>8, c.R, 1)
	require.InDelta(t, g0>>8, c.G, 1)
	require.InDelta(t, b0>>8, c.B, 1)
}

func TestResize(t *testing.T) {
	src := testimage.New(101, 37)
	for _, filter := range []raster.Filter{raster.Lanczos3, raster.Bilinear, raster.NearestNeighbor} {
		dst, err := raster.Resize(src, 51, 19, filter)
		require.NoError(t, err)
		require.Equal(t, image.Rect(0, 0, 51, 19), dst.Bounds(), "filter %v", filter)
		require.Len(t, dst.Pix, 51*19*4)
	}

	same, err := raster.Resize(src, 101, 37, raster.Lanczos3)
	require.NoError(t, err)
	require.Equal(t, src.Pix, same.Pix)
	same.SetRGBA(0, 0, color.RGBA{R: 1, A: 0xff})
	require.Equal(t, testimage.Pattern(0, 0), src.RGBAAt(0, 0), "same-size resize must copy")

	_, err = raster.Resize(src, 0, 10, raster.Lanczos3)
	require.ErrorIs(t, err, raster.ErrInvalidSize)

	_, err = raster.Resize(src, 10, 10, raster.Filter(42))
	require.ErrorIs(t, err, raster.ErrUnknownFilter)
}

func TestResizeUniform(t *testing.T) {
	src := raster.NewRGB(image.Rect(0, 0, 40, 40))
	for y := range 40 {
		for x := range 40 {
			src.SetRGBA(x, y, color.RGBA{R: 0x80, G: 0x40, B: 0x20, A: 0xff})
		}
	}
	dst, err := raster.Resize(src, 20, 20, raster.Lanczos3)
	require.NoError(t, err)
	for y := range 20 {
		for x := range 20 {
			c := dst.RGBAAt(x, y)
			require.InDelta(t, 0x80, c.R, 1)
			require.InDelta(t, 0x40, c.G, 1)
			require.InDelta(t, 0x20, c.B, 1)
		}
	}
	for i := 3; i < len(dst.Pix); i += 4 {
		require.Equal(t, uint8(0xff), dst.Pix[i], "resized pixels must stay opaque")
	}
}

func TestResizeReadsSourceInPlace(t *testing.T) {
	src := testimage.New(1000, 1000)
	before := bytes.Clone(src.Pix)

	var start, end runtime.MemStats
	runtime.ReadMemStats(&start)
	dst, err := raster.Resize(src, 500, 500, raster.Lanczos3)
	runtime.ReadMemStats(&end)
	require.NoError(t, err)

	// Result and one intermediate pass; no copy of the source.
	allocated := end.TotalAlloc - start.TotalAlloc
	require.Less(t, allocated, uint64(len(src.Pix)), "Resize allocated %d bytes", allocated)
	require.Equal(t, before, src.Pix, "source must not change")
	require.Equal(t, 500, dst.Width())
}

func TestNormalize(t *testing.T) {
	src := testimage.New(8, 4)
	src.Rect = src.Rect.Add(image.Pt(3, 5))

	norm := src.Normalize()
	require.Equal(t, image.Rect(0, 0, 8, 4), norm.Bounds())
	require.Equal(t, src.RGBAAt(3+2, 5+1), norm.RGBAAt(2, 1))

	norm.SetRGBA(0, 0, color.RGBA{R: 1, G: 2, B: 3, A: 0xff})
	require.Equal(t, color.RGBA{R: 1, G: 2, B: 3, A: 0xff}, src.RGBAAt(3, 5), "pixels are shared")
}

func TestParseFilter(t *testing.T) {
	for _, f := range []raster.Filter{
		raster.Lanczos3, raster.Lanczos2, raster.MitchellNetravali,
		raster.Bicubic, raster.Bilinear, raster.NearestNeighbor,
	} {
		parsed, err := raster.ParseFilter(f.String())
		require.NoError(t, err)
		require.Equal(t, f, parsed)
	}
	_, err := raster.ParseFilter("sinc")
	require.ErrorIs(t, err, raster.ErrUnknownFilter)
}

func TestCrop(t *testing.T) {
	src := testimage.New(600, 300)
	r := image.Rect(506, 0, 600, 300)

	dst, err := raster.Crop(src, r)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 94, 300), dst.Bounds())

	for _, p := range []image.Point{{506, 0}, {599, 299}, {550, 123}} {
		want := src.RGBAAt(p.X, p.Y)
		got := dst.RGBAAt(p.X-r.Min.X, p.Y-r.Min.Y)
		require.InDelta(t, want.R, got.R, 1, "at %v", p)
		require.InDelta(t, want.G, got.G, 1, "at %v", p)
		require.InDelta(t, want.B, got.B, 1, "at %v", p)
		require.Equal(t, uint8(0xff), got.A)
	}

	for _, bad := range []image.Rectangle{
		image.Rect(-2, -2, 510, 510),
		image.Rect(0, 0, 601, 10),
		image.Rect(10, 10, 10, 20),
	} {
		_, err := raster.Crop(src, bad)
		require.ErrorIs(t, err, raster.ErrInvalidRegion, "region %v", bad)
	}
}

func TestEncodeJPEG(t *testing.T) {
	tileImg, err := raster.Crop(testimage.New(512, 512), image.Rect(0, 0, 510, 510))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, raster.EncodeJPEG(&buf, tileImg, raster.DefaultQuality))

	config, format, err := image.DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Equal(t, "jpeg", format)
	require.Equal(t, 510, config.Width)
	require.Equal(t, 510, config.Height)

	require.ErrorIs(t, raster.EncodeJPEG(&buf, tileImg, 0), raster.ErrInvalidQuality)
	require.ErrorIs(t, raster.EncodeJPEG(&buf, tileImg, 101), raster.ErrInvalidQuality)
}

func TestDecodeFile(t *testing.T) {
	filePath := testimage.WritePNG(t, t.TempDir(), "pattern.png", 70, 30)

	config, format, err := raster.DecodeConfig(filePath)
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 70, config.Width)
	require.Equal(t, 30, config.Height)

	img, err := raster.DecodeFile(filePath)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 70, 30), img.Bounds())
	require.Equal(t, testimage.Pattern(69, 29), img.RGBAAt(69, 29))

	_, err = raster.DecodeFile(filePath + ".missing")
	require.Error(t, err)
}
