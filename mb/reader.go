// Package mb provides API for reading and writing deepzoom pyramids packed
// into a single SQLite archive, modelled on the MBTiles layout: a metadata
// table holding the manifest and a tiles table holding encoded tiles.
//
// Note: User must properly initialize the sqlite3 library generic driver
// (e.g. import _ "github.com/mattn/go-sqlite3") before using this package.
package mb

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/tile"
)

// Reader implements tile.Reader and tile.Visitor interfaces for pyramid archives.
type Reader struct {
	db       *sql.DB
	stmt     *sql.Stmt
	manifest dz.Manifest
}

// NewReader opens the archive at filePath read-only and loads its manifest.
//
// The returned Reader must be closed after use to release database resources.
func NewReader(filePath string) (r *Reader, err error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", filePath))
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	var manifestData string
	err = db.QueryRow("SELECT value FROM metadata WHERE name = ?", dz.ManifestName).Scan(&manifestData)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: archive has no manifest", dz.ErrIncomplete)
	}
	if err != nil {
		return nil, err
	}
	manifest, err := dz.UnmarshalManifest([]byte(manifestData))
	if err != nil {
		return nil, err
	}

	stmt, err := db.Prepare("SELECT tile_data FROM tiles WHERE level = ? AND tile_left = ? AND tile_top = ?")
	if err != nil {
		return nil, err
	}

	return &Reader{db: db, stmt: stmt, manifest: manifest}, nil
}

func (r *Reader) Close() error {
	return errors.Join(r.stmt.Close(), r.db.Close())
}

func (r *Reader) ReadManifest() (dz.Manifest, error) {
	return r.manifest, nil
}

func (r *Reader) ReadMetadata() (map[string]string, error) {
	metadata := make(map[string]string)

	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, err
		}
		metadata[name] = value
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return metadata, nil
}

func (r *Reader) ReadTile(tileID tile.ID) ([]byte, error) {
	var tileData []byte
	if err := r.stmt.QueryRow(tileID.Level, tileID.Left, tileID.Top).Scan(&tileData); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return make([]byte, 0), nil
		}
		return nil, err
	}

	return tileData, nil
}

// ReadTileFile reads the tile with the given file name (e.g. "508_0.jpg").
// Names that do not denote a tile yield an empty slice.
func (r *Reader) ReadTileFile(level int, name string) ([]byte, error) {
	tileID, err := tile.ParseName(level, name)
	if err != nil || tileID.Name(dz.DefaultExtension) != name {
		return make([]byte, 0), nil
	}
	return r.ReadTile(tileID)
}

func (r *Reader) VisitTiles(visitor func(tile.ID, []byte) error) error {
	rows, err := r.db.Query("SELECT level, tile_left, tile_top, tile_data FROM tiles ORDER BY level, tile_code")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var tileID tile.ID
		var tileData []byte

		if err := rows.Scan(&tileID.Level, &tileID.Left, &tileID.Top, &tileData); err != nil {
			return err
		}

		if err := visitor(tileID, tileData); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return err
	}

	return nil
}
