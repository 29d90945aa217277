// Skirmish - an interactive chess analysis engine.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/velara/skirmish/internal/book"
	"github.com/velara/skirmish/internal/cli"
	"github.com/velara/skirmish/internal/engine"
	"github.com/velara/skirmish/internal/storage"
)

func main() {
	var (
		hashMB   = flag.Int("hash", 64, "transposition table size in MB")
		threads  = flag.Int("threads", 1, "search worker count")
		fen      = flag.String("fen", "", "initial position (default: the standard start)")
		bookPath = flag.String("book", "", "opening book file for the book command")
		store    = flag.Bool("store", false, "persist analysis results in the local database")
		storeDir = flag.String("storedir", "", "database directory (default: the per-OS data dir)")
	)
	flag.Parse()

	opts := cli.Options{Threads: *threads}

	if *bookPath != "" {
		b, err := book.Load(*bookPath)
		if err != nil {
			log.Fatalf("load book: %v", err)
		}
		opts.Book = b
	}

	if *store || *storeDir != "" {
		var (
			st  *storage.Store
			err error
		)
		if *storeDir != "" {
			st, err = storage.Open(*storeDir)
		} else {
			st, err = storage.OpenDefault()
		}
		if err != nil {
			log.Fatalf("open store: %v", err)
		}
		defer st.Close()
		opts.Store = st
	}

	shell := cli.New(engine.NewEngine(*hashMB), opts)
	if *fen != "" {
		if err := shell.SetPosition(*fen); err != nil {
			log.Fatalf("bad -fen: %v", err)
		}
	}
	shell.Run(os.Stdin)
}
