package raster

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultQuality is the JPEG quality used for tiles when none is configured.
const DefaultQuality = 75

var ErrInvalidQuality = errors.New("deepzoom: invalid jpeg quality")

// Decode reads an image in any registered format and converts it to RGB.
func Decode(r io.Reader) (*RGB, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return nil, err
	}
	return FromImage(m), nil
}

// DecodeFile decodes the image stored at filePath.
func DecodeFile(filePath string) (*RGB, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, err := Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return img, nil
}

// DecodeConfig returns the dimensions and format name of the image stored at
// filePath without decoding its pixels.
func DecodeConfig(filePath string) (image.Config, string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return image.Config{}, "", err
	}
	defer file.Close()

	config, format, err := image.DecodeConfig(file)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode %s: %w", filePath, err)
	}
	return config, format, nil
}

// EncodeJPEG writes m to w as a baseline JPEG of the given quality (1..100).
func EncodeJPEG(w io.Writer, m image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		return fmt.Errorf("%w: %d", ErrInvalidQuality, quality)
	}
	return jpeg.Encode(w, m, &jpeg.Options{Quality: quality})
}
