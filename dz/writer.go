package dz

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/eak1mov/go-deepzoom/tile"
)

// DefaultExtension is the file extension of tiles.
const DefaultExtension = "jpg"

var ErrFinalized = errors.New("deepzoom: writer already finalized")

// Writer implements tile.Writer interface for pyramids stored as directories.
type Writer struct {
	rootDir   string
	logger    *slog.Logger
	manifest  Manifest
	finalized bool
}

type writerConfig struct {
	Logger *slog.Logger
}

type WriterOption func(*writerConfig)

func WithLogger(logger *slog.Logger) WriterOption {
	return func(c *writerConfig) { c.Logger = logger }
}

// NewWriter creates a new Writer for the pyramid rooted at rootDir.
// An existing rootDir is removed with all its contents and created afresh.
func NewWriter(rootDir string, opts ...WriterOption) (*Writer, error) {
	config := writerConfig{
		Logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(&config)
	}

	if _, err := os.Stat(rootDir); err == nil {
		config.Logger.Info("deepzoom: removing existing pyramid", "path", rootDir)
		if err := os.RemoveAll(rootDir); err != nil {
			return nil, fmt.Errorf("remove existing pyramid: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("create pyramid: %w", err)
	}

	return &Writer{
		rootDir: rootDir,
		logger:  config.Logger,
	}, nil
}

func (w *Writer) levelDir(level int) string {
	return filepath.Join(w.rootDir, strconv.Itoa(level))
}

// WriteLevel creates the directory of the given zoom level.
func (w *Writer) WriteLevel(level int) error {
	if w.finalized {
		return ErrFinalized
	}
	w.logger.Debug("deepzoom: create level", "level", level)
	return os.Mkdir(w.levelDir(level), 0755)
}

// WriteTile writes a single encoded tile into its level directory,
// which must have been created with WriteLevel.
func (w *Writer) WriteTile(tileID tile.ID, tileData []byte) error {
	if w.finalized {
		return ErrFinalized
	}
	filePath := filepath.Join(w.levelDir(tileID.Level), tileID.Name(DefaultExtension))
	return os.WriteFile(filePath, tileData, 0644)
}

// SetManifest sets the manifest written by Finalize.
func (w *Writer) SetManifest(manifest Manifest) {
	w.manifest = manifest
}

// Finalize writes the manifest. The manifest is written to a temporary file
// and renamed into place, so a pyramid either has a complete info.json or none.
func (w *Writer) Finalize() error {
	if w.finalized {
		return ErrFinalized
	}
	if err := w.manifest.Validate(); err != nil {
		return err
	}
	data, err := w.manifest.Marshal()
	if err != nil {
		return err
	}

	w.logger.Debug("deepzoom: write manifest", "levels", len(w.manifest))
	tmp, err := os.CreateTemp(w.rootDir, ManifestName+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), filepath.Join(w.rootDir, ManifestName)); err != nil {
		return err
	}

	w.finalized = true
	w.logger.Debug("deepzoom: done!")
	return nil
}
