// Package dz provides API for reading and writing deepzoom pyramids stored as
// directories, where tiles are stored as individual files with paths like
// "/root/level/left_top.jpg" next to an "info.json" manifest.
package dz

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-deepzoom/zoom"
)

// ManifestName is the file name of the manifest at the pyramid root.
const ManifestName = "info.json"

var (
	ErrInvalidManifest = errors.New("deepzoom: invalid manifest")
	ErrIncomplete      = errors.New("deepzoom: incomplete pyramid")
)

// LevelInfo holds the dimensions of a single zoom level.
type LevelInfo struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Manifest lists the dimensions of every zoom level, coarsest level first:
// Manifest[i] describes the level stored in directory "i".
type Manifest []LevelInfo

// NewManifest builds a manifest from a zoom plan in any order.
func NewManifest(levels []zoom.Level) Manifest {
	manifest := make(Manifest, len(levels))
	for _, level := range levels {
		manifest[level.ID] = LevelInfo{Width: level.Width, Height: level.Height}
	}
	return manifest
}

// Levels returns the zoom levels described by the manifest, coarsest first.
func (m Manifest) Levels() []zoom.Level {
	levels := make([]zoom.Level, len(m))
	for i, info := range m {
		levels[i] = zoom.Level{ID: i, Width: info.Width, Height: info.Height}
	}
	return levels
}

func (m Manifest) Validate() error {
	if len(m) == 0 {
		return fmt.Errorf("%w: no levels", ErrInvalidManifest)
	}
	for i, info := range m {
		if info.Width <= 0 || info.Height <= 0 {
			return fmt.Errorf("%w: level %d has size %dx%d", ErrInvalidManifest, i, info.Width, info.Height)
		}
		if i == 0 {
			continue
		}
		prev := m[i-1]
		if info.Width < prev.Width || info.Height < prev.Height || info == prev {
			return fmt.Errorf("%w: level %d (%dx%d) is not finer than level %d (%dx%d)",
				ErrInvalidManifest, i, info.Width, info.Height, i-1, prev.Width, prev.Height)
		}
	}
	return nil
}

func (m Manifest) Marshal() ([]byte, error) {
	return json.MarshalIndent(m, "", "  ")
}

func UnmarshalManifest(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidManifest, err)
	}
	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	return manifest, nil
}

// ReadManifest reads and validates the manifest file at filePath.
func ReadManifest(filePath string) (Manifest, error) {
	data, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s not found", ErrIncomplete, filepath.Base(filePath))
	}
	if err != nil {
		return nil, err
	}
	return UnmarshalManifest(data)
}
