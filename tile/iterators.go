package tile

import (
	"errors"
	"image"
	"iter"
)

var errVisitCancelled = errors.New("visit cancelled")

// Origins returns an iterator over the unmargined tile origins of a level,
// row by row from the top, left to right within a row.
// The sequence is lazy and may be iterated any number of times.
func Origins(width, height int) iter.Seq[image.Point] {
	return func(yield func(image.Point) bool) {
		for top := 0; top < height; top += Size {
			for left := 0; left < width; left += Size {
				if !yield(image.Pt(left, top)) {
					return
				}
			}
		}
	}
}

// IterTiles returns an iterator over all tiles in the pyramid.
// It yields tile IDs and their data. Iteration may panic on unrecoverable errors.
func IterTiles(r Visitor) iter.Seq2[ID, []byte] {
	return func(yield func(ID, []byte) bool) {
		err := r.VisitTiles(func(tileID ID, tileData []byte) error {
			if !yield(tileID, tileData) {
				return errVisitCancelled
			}
			return nil
		})
		if err != nil && err != errVisitCancelled {
			panic(err)
		}
	}
}
