// Package zoom plans the zoom levels of a deepzoom pyramid.
package zoom

import (
	"errors"
	"fmt"
)

// MinImageDim is the dimension threshold of the plan: levels are generated
// while either dimension is at least MinImageDim.
const MinImageDim = 1920

var ErrImageTooSmall = errors.New("deepzoom: image is too small")

// Level is a single zoom level of the pyramid.
// ID 0 is the coarsest level, the highest ID is the original resolution.
type Level struct {
	ID     int
	Width  int
	Height int
}

func (l Level) String() string {
	return fmt.Sprintf("level %d (%dx%d)", l.ID, l.Width, l.Height)
}

// Validate reports whether an image of the given dimensions can be converted.
func Validate(width, height int) error {
	if width < MinImageDim && height < MinImageDim {
		return fmt.Errorf("%w: %dx%d, need at least %d pixels on one side", ErrImageTooSmall, width, height, MinImageDim)
	}
	return nil
}

// Plan returns the zoom levels for an image of the given dimensions, ordered
// from the original resolution down to the smallest level. Each level halves
// the previous one (rounding up) on both axes independently.
func Plan(width, height int) []Level {
	var levels []Level
	for width >= MinImageDim || height >= MinImageDim {
		levels = append(levels, Level{Width: width, Height: height})
		width = (width + 1) / 2
		height = (height + 1) / 2
	}
	for i := range levels {
		levels[i].ID = len(levels) - i - 1
	}
	return levels
}
