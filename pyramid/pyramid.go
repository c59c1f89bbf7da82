// Package pyramid converts a large image into a deepzoom tile pyramid.
//
// A conversion plans the zoom levels of the image, resamples the image down
// level by level, cuts every level into overlapping tiles and writes the tiles
// and the manifest. Conversion is sequential: tiles are written one at a time,
// finest level first, and the manifest is written last.
package pyramid

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/raster"
	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/eak1mov/go-deepzoom/zoom"
)

var ErrInvalidInput = errors.New("deepzoom: invalid input")

// LevelWriter receives the levels, tiles and manifest of a pyramid.
// dz.Writer is the canonical implementation.
type LevelWriter interface {
	tile.Writer

	WriteLevel(level int) error
	SetManifest(manifest dz.Manifest)
}

// Config holds the settings of a single conversion run.
type Config struct {
	Quality  int
	Filter   raster.Filter
	Logger   *slog.Logger
	Observer Observer
}

type Option func(*Config)

func WithQuality(quality int) Option {
	return func(c *Config) { c.Quality = quality }
}

func WithFilter(filter raster.Filter) Option {
	return func(c *Config) { c.Filter = filter }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Config) { c.Logger = logger }
}

func WithObserver(observer Observer) Option {
	return func(c *Config) { c.Observer = observer }
}

func newConfig(opts []Option) Config {
	config := Config{
		Quality:  raster.DefaultQuality,
		Filter:   raster.Lanczos3,
		Logger:   slog.New(slog.DiscardHandler),
		Observer: NopObserver{},
	}
	for _, opt := range opts {
		opt(&config)
	}
	return config
}

// Result describes a finished pyramid.
type Result struct {
	Path     string
	Manifest dz.Manifest
	Tiles    int
}

// Build writes the pyramid of img to w and returns its manifest.
//
// Levels are produced from the original resolution down, each by resampling
// the previous one; the previous buffer is released as soon as the next one
// exists. The manifest is set and w is finalized only after every tile has been
// written successfully.
func Build(img *raster.RGB, w LevelWriter, opts ...Option) (dz.Manifest, error) {
	config := newConfig(opts)

	if err := zoom.Validate(img.Width(), img.Height()); err != nil {
		return nil, err
	}
	if config.Quality < 1 || config.Quality > 100 {
		return nil, fmt.Errorf("%w: %d", raster.ErrInvalidQuality, config.Quality)
	}

	img = img.Normalize()

	plan := zoom.Plan(img.Width(), img.Height())
	config.Logger.Debug("deepzoom: planned levels", "levels", len(plan), "width", img.Width(), "height", img.Height())

	var buf bytes.Buffer
	for _, level := range plan {
		if img.Width() != level.Width || img.Height() != level.Height {
			config.Logger.Debug("deepzoom: resample", "level", level.ID, "width", level.Width, "height", level.Height)
			resized, err := raster.Resize(img, level.Width, level.Height, config.Filter)
			if err != nil {
				return nil, fmt.Errorf("resample %v: %w", level, err)
			}
			img = resized
		}

		if err := w.WriteLevel(level.ID); err != nil {
			return nil, fmt.Errorf("write %v: %w", level, err)
		}

		total := tile.Count(level.Width, level.Height)
		config.Observer.LevelStarted(level, total)

		index := 0
		for task := range Tasks(level) {
			crop, err := raster.Crop(img, task.Region)
			if err != nil {
				return nil, fmt.Errorf("crop tile %v: %w", task.ID, err)
			}
			buf.Reset()
			if err := raster.EncodeJPEG(&buf, crop, config.Quality); err != nil {
				return nil, fmt.Errorf("encode tile %v: %w", task.ID, err)
			}
			if err := w.WriteTile(task.ID, buf.Bytes()); err != nil {
				return nil, fmt.Errorf("write tile %v: %w", task.ID, err)
			}
			config.Observer.TileWritten(level, index, total)
			index++
		}

		config.Observer.LevelFinished(level)
	}

	manifest := dz.NewManifest(plan)
	w.SetManifest(manifest)
	if err := w.Finalize(); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	return manifest, nil
}

// Destination returns the pyramid directory for imagePath: a directory named
// after the image without its extension, inside destDir or, when destDir is
// empty, next to the image.
func Destination(imagePath, destDir string) string {
	if destDir == "" {
		destDir = filepath.Dir(imagePath)
	}
	name := filepath.Base(imagePath)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(destDir, name)
}

// Create converts the image at imagePath into a pyramid under destDir
// (see Destination). Input is validated before anything is written: a missing
// source or destination fails with ErrInvalidInput and an image smaller than
// zoom.MinImageDim on both sides fails with zoom.ErrImageTooSmall.
// An existing pyramid at the destination is replaced.
func Create(imagePath, destDir string, opts ...Option) (Result, error) {
	config := newConfig(opts)

	info, err := os.Stat(imagePath)
	if err != nil {
		return Result{}, fmt.Errorf("%w: source image %s does not exist", ErrInvalidInput, imagePath)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%w: source image %s is a directory", ErrInvalidInput, imagePath)
	}
	if destDir != "" {
		info, err := os.Stat(destDir)
		if err != nil {
			return Result{}, fmt.Errorf("%w: output path %s does not exist", ErrInvalidInput, destDir)
		}
		if !info.IsDir() {
			return Result{}, fmt.Errorf("%w: output path %s is not a directory", ErrInvalidInput, destDir)
		}
	}

	rootDir := Destination(imagePath, destDir)
	if filepath.Clean(rootDir) == filepath.Clean(imagePath) {
		return Result{}, fmt.Errorf("%w: pyramid path %s would replace the source image", ErrInvalidInput, rootDir)
	}

	imageConfig, format, err := raster.DecodeConfig(imagePath)
	if err != nil {
		return Result{}, err
	}
	if err := zoom.Validate(imageConfig.Width, imageConfig.Height); err != nil {
		return Result{}, err
	}

	config.Logger.Info("deepzoom: decoding image", "path", imagePath, "format", format,
		"width", imageConfig.Width, "height", imageConfig.Height)
	img, err := raster.DecodeFile(imagePath)
	if err != nil {
		return Result{}, err
	}

	writer, err := dz.NewWriter(rootDir, dz.WithLogger(config.Logger))
	if err != nil {
		return Result{}, err
	}

	manifest, err := Build(img, writer, opts...)
	if err != nil {
		return Result{}, err
	}

	result := Result{Path: rootDir, Manifest: manifest}
	for _, level := range manifest {
		result.Tiles += tile.Count(level.Width, level.Height)
	}
	return result, nil
}
