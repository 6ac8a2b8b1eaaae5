/*
main.go - Interactive CLI entry point

PURPOSE:
  Runs the bookstore sales ledger as an interactive text-menu program
  against the local SQLite file. The store is opened once at start, seeded
  idempotently, and closed on exit.

FLAGS:
  -db    SQLite database path (default: bookstore.db)
         Use ":memory:" for a throwaway session.
  -seed  Seed demonstration rows on start (default: true)
*/
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/bookstore-ledger/cli"
	"github.com/warp/bookstore-ledger/ledger"
	"github.com/warp/bookstore-ledger/store/sqlite"
)

func main() {
	dbPath := flag.String("db", "bookstore.db", "SQLite database path")
	seed := flag.Bool("seed", true, "seed demonstration rows on start")
	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	// Keep interactive output clean: only warnings and errors reach stderr.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(zerolog.WarnLevel)

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	ctx := context.Background()
	if *seed {
		if err := store.Seed(ctx); err != nil {
			log.Fatal().Err(err).Msg("failed to seed database")
		}
	}

	engine := ledger.NewEngine(store, log.Logger)
	if err := cli.New(engine, os.Stdin, os.Stdout).Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("session failed")
	}
}
