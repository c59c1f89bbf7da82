package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/index"
	"github.com/eak1mov/go-deepzoom/mb"
	"github.com/eak1mov/go-deepzoom/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type exportCmd struct {
	inputPath       string
	archive         bool
	outputIndexPath string
	outputTilesPath string
}

func (c *exportCmd) Name() string     { return "export_index" }
func (c *exportCmd) Synopsis() string { return "export tile index and data from a pyramid" }
func (c *exportCmd) Usage() string {
	return "deepzoom export_index -i <path> -o <path> -t <path> [-archive]\n"
}
func (c *exportCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input pyramid directory or archive")
	f.BoolVar(&c.archive, "archive", false, "Input is an archive (default for *.mbtiles)")
	f.StringVar(&c.outputIndexPath, "o", "", "Output index file path")
	f.StringVar(&c.outputTilesPath, "t", "", "Output tiles file path")
}

func openVisitor(archive bool, inputPath string) (tile.Visitor, error) {
	if !isArchive(archive, inputPath) {
		return dz.NewReader(inputPath)
	}
	if _, err := os.Stat(inputPath); err != nil {
		return nil, err
	}
	return mb.NewReader(inputPath)
}

func (c *exportCmd) export(reader tile.Visitor) (uint64, error) {
	indexFile, err := os.Create(c.outputIndexPath)
	if err != nil {
		return 0, err
	}
	defer indexFile.Close()

	tilesFile, err := os.Create(c.outputTilesPath)
	if err != nil {
		return 0, err
	}
	defer tilesFile.Close()

	var size uint64
	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = index.Export(reader, indexFile, tilesFile, func(item index.Item) {
		size += uint64(item.Length)
		bar.Add(1)
	})
	bar.Finish()
	fmt.Println()
	if err != nil {
		return 0, err
	}

	if err := tilesFile.Close(); err != nil {
		return 0, err
	}
	return size, indexFile.Close()
}

func (c *exportCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputPath == "" || c.outputIndexPath == "" || c.outputTilesPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	reader, err := openVisitor(c.archive, c.inputPath)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	size, err := c.export(reader)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("exported %s of tiles\n", humanize.Bytes(size))

	return subcommands.ExitSuccess
}

type importCmd struct {
	inputIndexPath string
	inputTilesPath string
	manifestPath   string
	outputPath     string
}

func (c *importCmd) Name() string     { return "import_index" }
func (c *importCmd) Synopsis() string { return "create a pyramid directory from exported tile index and data" }
func (c *importCmd) Usage() string {
	return "deepzoom import_index -i <path> -t <path> -m <info.json> -o <dir>\n"
}
func (c *importCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputIndexPath, "i", "", "Input index file path")
	f.StringVar(&c.inputTilesPath, "t", "", "Input tiles file path")
	f.StringVar(&c.manifestPath, "m", "", "Manifest of the exported pyramid")
	f.StringVar(&c.outputPath, "o", "", "Output pyramid directory (replaced if it exists)")
}

func importIndex(indexPath, tilesPath, manifestPath, rootDir string) error {
	manifest, err := dz.ReadManifest(manifestPath)
	if err != nil {
		return err
	}

	indexData, err := os.ReadFile(indexPath)
	if err != nil {
		return err
	}
	items, err := index.ReadAll(indexData)
	if err != nil {
		return err
	}

	tilesFile, err := os.Open(tilesPath)
	if err != nil {
		return err
	}
	defer tilesFile.Close()

	writer, err := dz.NewWriter(rootDir, dz.WithLogger(slog.Default()))
	if err != nil {
		return err
	}
	for _, level := range manifest.Levels() {
		if err := writer.WriteLevel(level.ID); err != nil {
			return err
		}
	}
	if err := index.Import(items, tilesFile, writer); err != nil {
		return err
	}

	writer.SetManifest(manifest)
	return writer.Finalize()
}

func (c *importCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if c.inputIndexPath == "" || c.inputTilesPath == "" || c.manifestPath == "" || c.outputPath == "" {
		f.Usage()
		return subcommands.ExitUsageError
	}

	if err := importIndex(c.inputIndexPath, c.inputTilesPath, c.manifestPath, c.outputPath); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
