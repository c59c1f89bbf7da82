package pyramid

import "github.com/eak1mov/go-deepzoom/zoom"

// Observer is notified about conversion progress. It must not affect the conversion.
type Observer interface {
	LevelStarted(level zoom.Level, tiles int)
	// TileWritten is called after the tile with the given zero-based index was written.
	TileWritten(level zoom.Level, index, total int)
	LevelFinished(level zoom.Level)
}

type NopObserver struct{}

func (NopObserver) LevelStarted(zoom.Level, int)     {}
func (NopObserver) TileWritten(zoom.Level, int, int) {}
func (NopObserver) LevelFinished(zoom.Level)         {}
