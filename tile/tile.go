// Package tile provides common tile interfaces, types and tiling geometry.
package tile

import (
	"errors"
	"fmt"
	"image"
	"strconv"
	"strings"
)

const (
	// Size is the unmargined width and height of a tile in pixels.
	Size = 508
	// Overlap is the number of border pixels added on every side of a tile.
	Overlap = 2
	// SizeWithOverlap is the maximum stored width and height of a tile.
	SizeWithOverlap = Size + 2*Overlap
)

var ErrInvalidName = errors.New("deepzoom: invalid tile name")

// ID identifies a tile by its zoom level and the unmargined top-left pixel
// coordinate of the tile within that level.
type ID struct {
	Level int
	Left  int
	Top   int
}

func (t ID) Valid() bool {
	return t.Level >= 0 && t.Left >= 0 && t.Top >= 0 && t.Left%Size == 0 && t.Top%Size == 0
}

// Name returns the file name of the tile, e.g. "1016_508.jpg".
func (t ID) Name(ext string) string {
	return fmt.Sprintf("%d_%d.%s", t.Left, t.Top, ext)
}

func (t ID) String() string {
	return fmt.Sprintf("%d/%d_%d", t.Level, t.Left, t.Top)
}

// ParseName parses a tile file name produced by ID.Name into an ID at the given level.
func ParseName(level int, name string) (ID, error) {
	base, _, ok := strings.Cut(name, ".")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q has no extension", ErrInvalidName, name)
	}
	leftStr, topStr, ok := strings.Cut(base, "_")
	if !ok {
		return ID{}, fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	left, err := strconv.Atoi(leftStr)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	top, err := strconv.Atoi(topStr)
	if err != nil {
		return ID{}, fmt.Errorf("%w: %w", ErrInvalidName, err)
	}
	tileID := ID{Level: level, Left: left, Top: top}
	if !tileID.Valid() {
		return ID{}, fmt.Errorf("%w: %q is not on the tile grid", ErrInvalidName, name)
	}
	return tileID, nil
}

// Region returns the stored region of the tile with the given unmargined origin
// inside a level of the given dimensions: the tile square expanded by Overlap
// on every side and clipped to [0, width) x [0, height).
func Region(left, top, width, height int) image.Rectangle {
	left -= Overlap
	top -= Overlap

	right := min(left+SizeWithOverlap, width)
	bottom := min(top+SizeWithOverlap, height)

	left = max(0, left)
	top = max(0, top)

	return image.Rect(left, top, right, bottom)
}

// Grid returns the number of tile columns and rows covering a level.
func Grid(width, height int) (cols, rows int) {
	return (width + Size - 1) / Size, (height + Size - 1) / Size
}

// Count returns the number of tiles covering a level.
func Count(width, height int) int {
	cols, rows := Grid(width, height)
	return cols * rows
}

// Writer defines an interface for writing tiles to a pyramid.
type Writer interface {
	// WriteTile writes a single encoded tile.
	WriteTile(tileID ID, tileData []byte) error

	// Finalize completes the writing process: flushes buffers, writes the manifest.
	// It must be called before closing the Writer.
	Finalize() error
}

type Reader interface {
	// ReadTile reads a single tile from the pyramid.
	// If the tile does not exist, it returns an empty slice with no error.
	ReadTile(tileID ID) ([]byte, error)
}

type Visitor interface {
	// VisitTiles visits all tiles in the pyramid, calling the visitor for each.
	// Order of tiles is implementation-defined.
	VisitTiles(visitor func(ID, []byte) error) error
}
