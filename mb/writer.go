package mb

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/tile"
)

// Writer implements tile.Writer interface for pyramid archives.
type Writer struct {
	db           *sql.DB
	stmt         *sql.Stmt
	curves       map[int]curve
	manifestData []byte
	logger       *slog.Logger
}

type writerConfig struct {
	Metadata map[string]string
	Logger   *slog.Logger
}

type WriterOption func(*writerConfig)

func WithMetadata(metadata map[string]string) WriterOption {
	return func(c *writerConfig) { c.Metadata = metadata }
}

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new archive at filePath for a pyramid with the given manifest.
// It applies given options and initializes database for writing tiles.
// The manifest is stored by Finalize, so an archive left behind by a failed
// run is rejected by NewReader with dz.ErrIncomplete.
func NewWriter(filePath string, manifest dz.Manifest, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	manifestData, err := manifest.Marshal()
	if err != nil {
		return nil, err
	}

	curves := make(map[int]curve, len(manifest))
	for _, level := range manifest.Levels() {
		c, err := newCurve(level.Width, level.Height)
		if err != nil {
			return nil, err
		}
		curves[level.ID] = c
	}

	db, err := sql.Open("sqlite3", filePath)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			db.Close()
		}
	}()

	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT, value TEXT);
		CREATE TABLE tiles (
			level INTEGER,
			tile_left INTEGER,
			tile_top INTEGER,
			tile_code INTEGER,
			tile_data BLOB
		);
	`)
	if err != nil {
		return nil, err
	}

	metadata := map[string]string{
		"format":        dz.DefaultExtension,
		"tile_size":     fmt.Sprint(tile.Size),
		"tile_overlap":  fmt.Sprint(tile.Overlap),
	}
	for k, v := range config.Metadata {
		if _, reserved := metadata[k]; !reserved && k != dz.ManifestName {
			metadata[k] = v
		}
	}
	for k, v := range metadata {
		_, err = db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", k, v)
		if err != nil {
			return nil, err
		}
	}

	stmt, err := db.Prepare("INSERT INTO tiles (level, tile_left, tile_top, tile_code, tile_data) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}

	return &Writer{db, stmt, curves, manifestData, config.Logger}, nil
}

func (w *Writer) Close() error {
	return errors.Join(w.stmt.Close(), w.db.Close())
}

func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	c, ok := w.curves[tileID.Level]
	if !ok {
		return fmt.Errorf("%w: level %d not in manifest", ErrInvalidTile, tileID.Level)
	}
	code, err := c.code(tileID)
	if err != nil {
		return err
	}

	_, err = w.stmt.Exec(tileID.Level, tileID.Left, tileID.Top, code, tileData)
	return err
}

// Finalize indexes the tiles and stores the manifest.
func (w *Writer) Finalize() error {
	w.logger.Debug("deepzoom: creating index")
	if _, err := w.db.Exec("CREATE UNIQUE INDEX tile_index ON tiles (level, tile_left, tile_top)"); err != nil {
		return err
	}

	w.logger.Debug("deepzoom: write manifest")
	_, err := w.db.Exec("INSERT INTO metadata (name, value) VALUES (?, ?)", dz.ManifestName, string(w.manifestData))
	if err != nil {
		return err
	}

	w.logger.Debug("deepzoom: done!")
	return nil
}
