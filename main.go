package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/memory-game/assets"
	"github.com/robalobadob/memory-game/internal/catalog"
	"github.com/robalobadob/memory-game/internal/config"
	"github.com/robalobadob/memory-game/internal/database"
	"github.com/robalobadob/memory-game/internal/httpserver"
	"github.com/robalobadob/memory-game/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}
	if !cfg.Production {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	images, err := catalog.Load(cfg.CatalogFile)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load image catalog")
	}
	if err := cfg.Game(images).Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid game settings")
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("failed to open database")
	}
	defer db.Close()
	if err := database.Migrate(db, assets.Migrations()); err != nil {
		log.Fatal().Err(err).Msg("migrations failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := httpserver.New(cfg, images, store.NewMemoryStore(), db)
	log.Info().
		Str("port", cfg.Port).
		Int("images", len(images)).
		Int("turnLimit", cfg.TurnLimit).
		Dur("mismatchDelay", cfg.MismatchDelay).
		Msg("starting memory server")
	if err := srv.Start(ctx, ":"+cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	log.Info().Msg("server stopped")
}
