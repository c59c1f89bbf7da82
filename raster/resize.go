package raster

import (
	"errors"
	"fmt"
	"image"
	"slices"

	"github.com/disintegration/gift"
	"github.com/nfnt/resize"
)

var (
	ErrInvalidSize   = errors.New("deepzoom: invalid image size")
	ErrUnknownFilter = errors.New("deepzoom: unknown resampling filter")
	ErrInvalidRegion = errors.New("deepzoom: invalid crop region")
)

// Filter selects the resampling filter used by Resize.
type Filter int

const (
	Lanczos3 Filter = iota
	Lanczos2
	MitchellNetravali
	Bicubic
	Bilinear
	NearestNeighbor
)

var filterNames = map[Filter]string{
	Lanczos3:          "lanczos3",
	Lanczos2:          "lanczos2",
	MitchellNetravali: "mitchell",
	Bicubic:           "bicubic",
	Bilinear:          "bilinear",
	NearestNeighbor:   "nearest",
}

func (f Filter) String() string {
	if name, ok := filterNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Filter(%d)", int(f))
}

// ParseFilter returns the filter with the given name (e.g. "lanczos3").
func ParseFilter(name string) (Filter, error) {
	for f, n := range filterNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFilter, name)
}

func (f Filter) interpolation() (resize.InterpolationFunction, error) {
	switch f {
	case Lanczos3:
		return resize.Lanczos3, nil
	case Lanczos2:
		return resize.Lanczos2, nil
	case MitchellNetravali:
		return resize.MitchellNetravali, nil
	case Bicubic:
		return resize.Bicubic, nil
	case Bilinear:
		return resize.Bilinear, nil
	case NearestNeighbor:
		return resize.NearestNeighbor, nil
	}
	return 0, fmt.Errorf("%w: %v", ErrUnknownFilter, f)
}

// Resize returns a new image of exactly width x height pixels resampled from src.
// src is read in place; besides the result, the resampler holds one
// intermediate buffer of width x src.Height() pixels.
func Resize(src *RGB, width, height int, filter Filter) (*RGB, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	interp, err := filter.interpolation()
	if err != nil {
		return nil, err
	}

	if src.Width() == width && src.Height() == height {
		dup := *src.Normalize()
		dup.Pix = slices.Clone(dup.Pix)
		return &dup, nil
	}

	resized := resize.Resize(uint(width), uint(height), src.rgbaView(), interp)

	var dst *RGB
	if m, ok := resized.(*image.RGBA); ok {
		dst = adoptRGBA(m)
	} else {
		dst = FromImage(resized)
	}
	if dst.Width() != width || dst.Height() != height {
		return nil, fmt.Errorf("%w: resampler returned %v, want %dx%d", ErrInvalidSize, dst.Rect, width, height)
	}
	return dst.Normalize(), nil
}

// Crop copies the region r of src into a standalone buffer whose bounds start at (0, 0).
// The region must be non-empty and lie inside src.
func Crop(src *RGB, r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() || !r.In(src.Bounds()) {
		return nil, fmt.Errorf("%w: %v not inside %v", ErrInvalidRegion, r, src.Bounds())
	}

	g := gift.New(gift.Crop(r))
	g.SetParallelization(false)

	dst := image.NewRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src.rgbaView())
	return dst, nil
}
