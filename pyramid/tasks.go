package pyramid

import (
	"image"
	"iter"

	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/eak1mov/go-deepzoom/zoom"
)

// Task is a single tile to cut from a level: its ID and the stored
// (overlapped, clipped) region of the level buffer.
type Task struct {
	ID     tile.ID
	Region image.Rectangle
}

// Tasks returns the tiles of a level in write order. The sequence is lazy and restartable.
func Tasks(level zoom.Level) iter.Seq[Task] {
	return func(yield func(Task) bool) {
		for origin := range tile.Origins(level.Width, level.Height) {
			task := Task{
				ID:     tile.ID{Level: level.ID, Left: origin.X, Top: origin.Y},
				Region: tile.Region(origin.X, origin.Y, level.Width, level.Height),
			}
			if !yield(task) {
				return
			}
		}
	}
}
