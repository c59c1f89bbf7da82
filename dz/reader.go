package dz

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/eak1mov/go-deepzoom/tile"
)

var tilePath = regexp.MustCompile(`^(?P<level>\d+)/(?P<left>\d+)_(?P<top>\d+)\.` + DefaultExtension + `$`)

// Reader implements tile.Reader and tile.Visitor interfaces for pyramids stored as directories.
type Reader struct {
	rootDir  string
	manifest Manifest
	namePath *regexp.Regexp
}

// NewReader creates a new Reader for the pyramid rooted at rootDir.
// A pyramid without a valid manifest is rejected with ErrIncomplete or ErrInvalidManifest.
func NewReader(rootDir string) (*Reader, error) {
	manifest, err := ReadManifest(filepath.Join(rootDir, ManifestName))
	if err != nil {
		return nil, err
	}

	return &Reader{rootDir, manifest, tilePath}, nil
}

func (r *Reader) ReadManifest() (Manifest, error) {
	return r.manifest, nil
}

func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	return r.ReadTileFile(tileID.Level, tileID.Name(DefaultExtension))
}

// ReadTileFile reads the tile file with the given name from a level directory.
// Missing tiles and names that would leave the level directory yield an empty slice.
func (r *Reader) ReadTileFile(level int, name string) ([]byte, error) {
	if level < 0 || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return make([]byte, 0), nil
	}
	filePath := filepath.Join(r.rootDir, strconv.Itoa(level), name)
	tileData, err := os.ReadFile(filePath)
	if os.IsNotExist(err) {
		return make([]byte, 0), nil
	}
	if err != nil {
		return nil, err
	}
	return tileData, nil
}

func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	return filepath.WalkDir(r.rootDir, func(filePath string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(r.rootDir, filePath)
		if err != nil {
			return err
		}

		matches := r.namePath.FindStringSubmatch(filepath.ToSlash(relPath))
		if matches == nil {
			return nil // manifest and foreign files
		}

		level, _ := strconv.Atoi(matches[r.namePath.SubexpIndex("level")])
		left, _ := strconv.Atoi(matches[r.namePath.SubexpIndex("left")])
		top, _ := strconv.Atoi(matches[r.namePath.SubexpIndex("top")])

		tileData, err := os.ReadFile(filePath)
		if err != nil {
			return err
		}

		return visitor(tile.ID{Level: level, Left: left, Top: top}, tileData)
	})
}
