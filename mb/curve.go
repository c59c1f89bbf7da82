package mb

import (
	"errors"
	"fmt"

	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/google/hilbert"
)

var ErrInvalidTile = errors.New("deepzoom: invalid tile")

// curve maps the tile grid of a level onto a Hilbert curve, so that tiles
// close to each other in the image are stored close to each other in the archive.
type curve struct {
	cols, rows int
	h          *hilbert.Hilbert
}

func newCurve(width, height int) (curve, error) {
	cols, rows := tile.Grid(width, height)
	n := 1
	for n < max(cols, rows) {
		n <<= 1
	}
	h, err := hilbert.NewHilbert(n)
	if err != nil {
		return curve{}, err
	}
	return curve{cols, rows, h}, nil
}

func (c curve) code(tileID tile.ID) (int, error) {
	if !tileID.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidTile, tileID)
	}
	col, row := tileID.Left/tile.Size, tileID.Top/tile.Size
	if col >= c.cols || row >= c.rows {
		return 0, fmt.Errorf("%w: %v outside %dx%d grid", ErrInvalidTile, tileID, c.cols, c.rows)
	}
	return c.h.MapInverse(col, row)
}
