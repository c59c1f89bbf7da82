package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/mb"
	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type packCmd struct {
	inputPath  string
	outputPath string
}

func (c *packCmd) Name() string     { return "pack" }
func (c *packCmd) Synopsis() string { return "pack a pyramid directory into a single archive" }
func (c *packCmd) Usage() string {
	return "deepzoom pack -i <pyramid dir> -o <archive>\n"
}
func (c *packCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input pyramid directory")
	f.StringVar(&c.outputPath, "o", "", "Output archive path")
}

func (c *packCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err := packPyramid(c.inputPath, c.outputPath, func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// packPyramid copies the finished pyramid at rootDir into a new archive.
// The archive is removed if packing fails.
func packPyramid(rootDir, archivePath string, onTile func()) (err error) {
	if _, err := os.Stat(archivePath); err == nil {
		return fmt.Errorf("archive %s already exists", archivePath)
	}

	reader, err := dz.NewReader(rootDir)
	if err != nil {
		return err
	}
	manifest, err := reader.ReadManifest()
	if err != nil {
		return err
	}

	writer, err := mb.NewWriter(
		archivePath,
		manifest,
		mb.WithMetadata(map[string]string{"name": filepath.Base(rootDir)}),
		mb.WithLogger(slog.Default()),
	)
	if err != nil {
		os.Remove(archivePath)
		return err
	}
	defer func() {
		if closeErr := writer.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			os.Remove(archivePath)
		}
	}()

	err = reader.VisitTiles(func(tileID tile.ID, tileData []byte) error {
		onTile()
		return writer.WriteTile(tileID, tileData)
	})
	if err != nil {
		return err
	}
	return writer.Finalize()
}

type unpackCmd struct {
	inputPath  string
	outputPath string
}

func (c *unpackCmd) Name() string     { return "unpack" }
func (c *unpackCmd) Synopsis() string { return "extract an archive into a pyramid directory" }
func (c *unpackCmd) Usage() string {
	return "deepzoom unpack -i <archive> -o <pyramid dir>\n"
}
func (c *unpackCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input archive path")
	f.StringVar(&c.outputPath, "o", "", "Output pyramid directory (replaced if it exists)")
}

func (c *unpackCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err := unpackArchive(c.inputPath, c.outputPath, func() { bar.Add(1) })
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// unpackArchive writes the pyramid stored in the archive to rootDir.
func unpackArchive(archivePath, rootDir string, onTile func()) error {
	if _, err := os.Stat(archivePath); err != nil {
		return err
	}
	reader, err := mb.NewReader(archivePath)
	if err != nil {
		return err
	}
	defer reader.Close()

	manifest, err := reader.ReadManifest()
	if err != nil {
		return err
	}

	writer, err := dz.NewWriter(rootDir, dz.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	for _, level := range manifest.Levels() {
		if err := writer.WriteLevel(level.ID); err != nil {
			return err
		}
	}

	err = reader.VisitTiles(func(tileID tile.ID, tileData []byte) error {
		onTile()
		return writer.WriteTile(tileID, tileData)
	})
	if err != nil {
		return err
	}

	writer.SetManifest(manifest)
	return writer.Finalize()
}
