package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/eak1mov/go-deepzoom/dz"
	"github.com/eak1mov/go-deepzoom/mb"
	"github.com/eak1mov/go-deepzoom/server"
	"github.com/google/subcommands"
)

type serveCmd struct {
	addr    string
	archive bool
	verbose bool
}

func (c *serveCmd) Name() string     { return "serve" }
func (c *serveCmd) Synopsis() string { return "serve a pyramid over HTTP" }
func (c *serveCmd) Usage() string {
	return "deepzoom serve [-addr <addr>] [-archive] <pyramid dir | archive>\n"
}
func (c *serveCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.addr, "addr", ":3000", "Listen address")
	f.BoolVar(&c.archive, "archive", false, "Input is an archive (default for *.mbtiles)")
	f.BoolVar(&c.verbose, "v", false, "Verbose logging")
}

func isArchive(archive bool, path string) bool {
	return archive || strings.HasSuffix(path, ".mbtiles")
}

func (c *serveCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	if f.NArg() != 1 {
		f.Usage()
		return subcommands.ExitUsageError
	}
	inputPath := f.Arg(0)

	if c.verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	var source server.Source
	if isArchive(c.archive, inputPath) {
		if _, err := os.Stat(inputPath); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		reader, err := mb.NewReader(inputPath)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		defer reader.Close()
		source = reader
	} else {
		reader, err := dz.NewReader(inputPath)
		if err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
		source = reader
	}

	title := filepath.Base(filepath.Clean(inputPath))
	title = strings.TrimSuffix(title, filepath.Ext(title))

	s := server.New(source, title, server.WithLogger(slog.Default()), server.WithAccessLog(os.Stdout))
	if err := s.ListenAndServe(c.addr); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
