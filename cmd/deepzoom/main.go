package main

import (
	"context"
	"flag"
	"os"

	"github.com/google/subcommands"
	_ "github.com/mattn/go-sqlite3"
)

func main() {
	subcommands.Register(subcommands.HelpCommand(), "")
	subcommands.Register(subcommands.FlagsCommand(), "")
	subcommands.Register(&createCmd{}, "")
	subcommands.Register(&serveCmd{}, "")
	subcommands.Register(&packCmd{}, "archive")
	subcommands.Register(&unpackCmd{}, "archive")
	subcommands.Register(&exportCmd{}, "index")
	subcommands.Register(&importCmd{}, "index")

	flag.Parse()
	os.Exit(int(subcommands.Execute(context.Background())))
}
