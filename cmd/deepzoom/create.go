package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/eak1mov/go-deepzoom/pyramid"
	"github.com/eak1mov/go-deepzoom/raster"
	"github.com/eak1mov/go-deepzoom/zoom"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type createCmd struct {
	outputDir string
	quality   int
	filter    string
	verbose   bool
	quiet     bool
}

func (c *createCmd) Name() string     { return "create" }
func (c *createCmd) Synopsis() string { return "create a deepzoom pyramid from an image" }
func (c *createCmd) Usage() string {
	return "deepzoom create [-o <dir>] [-q <quality>] [-filter <name>] [-v] <image>\n"
}
func (c *createCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "o", "", "Output directory (default: next to the image)")
	f.IntVar(&c.quality, "q", raster.DefaultQuality, "JPEG quality of tiles (1-100)")
	f.StringVar(&c.filter, "filter", raster.Lanczos3.String(), "Resampling filter (lanczos3, lanczos2, mitchell, bicubic, bilinear, nearest)")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
	f.BoolVar(&c.quiet, "quiet", false, "Do not show progress")
}

// levelProgress renders one progress bar per zoom level.
type levelProgress struct {
	w   io.Writer
	bar *progressbar.ProgressBar
}

func (p *levelProgress) LevelStarted(level zoom.Level, tiles int) {
	p.bar = progressbar.NewOptions(tiles,
		progressbar.OptionSetWriter(p.w),
		progressbar.OptionSetDescription(level.String()),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
	)
}

func (p *levelProgress) TileWritten(zoom.Level, int, int) {
	p.bar.Add(1)
}

func (p *levelProgress) LevelFinished(zoom.Level) {
	p.bar.Finish()
	fmt.Fprintln(p.w)
}

func (c *createCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	imagePath := f.Arg(0)

	filter, err := raster.ParseFilter(c.filter)
	if err != nil {
		log.Println(err)
		return subcommands.ExitUsageError
	}

	if c.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}
	opts := []pyramid.Option{
		pyramid.WithQuality(c.quality),
		pyramid.WithFilter(filter),
		pyramid.WithLogger(slog.Default()),
	}
	if !c.quiet {
		opts = append(opts, pyramid.WithObserver(&levelProgress{w: os.Stderr}))
	}

	result, err := pyramid.Create(imagePath, c.outputDir, opts...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	size, err := dirSize(result.Path)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s: %d levels, %s tiles, %s\n",
		result.Path, len(result.Manifest), humanize.Comma(int64(result.Tiles)), humanize.Bytes(size))

	return subcommands.ExitSuccess
}

func dirSize(rootDir string) (uint64, error) {
	var size uint64
	err := filepath.WalkDir(rootDir, func(_ string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		size += uint64(info.Size())
		return nil
	})
	return size, err
}
