/*
main.go - HTTP server entry point

PURPOSE:
  Starts the bookstore sales ledger REST server. Opens the SQLite store once
  at process start, seeds the demonstration data, wires the engine behind
  the chi router, and shuts down gracefully on SIGINT/SIGTERM.

CONFIGURATION (environment, optionally via .env):
  BOOKSTORE_ADDR     Listen address (default :8080)
  BOOKSTORE_DB_PATH  SQLite database path (default bookstore.db,
                     use ":memory:" for in-memory)
  BOOKSTORE_SEED     Seed demonstration rows on start (default true)

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/warp/bookstore-ledger/api"
	"github.com/warp/bookstore-ledger/ledger"
	"github.com/warp/bookstore-ledger/store/sqlite"
)

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	cfg := LoadConfig()
	log.Info().
		Str("addr", cfg.Addr).
		Str("db", cfg.DBPath).
		Msg("starting bookstore ledger server")

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}
	defer store.Close()

	if cfg.SeedOnStart {
		if err := store.Seed(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to seed database")
		}
		log.Info().Msg("seeded demonstration data")
	}

	engine := ledger.NewEngine(store, log.Logger)
	router := api.NewRouter(api.NewHandler(engine))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server stopped")
}
