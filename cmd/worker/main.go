// Package main provides the check-in worker entry point.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm/logger"

	"github.com/thebtf/emocheck/internal/catalog"
	"github.com/thebtf/emocheck/internal/config"
	gormdb "github.com/thebtf/emocheck/internal/db/gorm"
	"github.com/thebtf/emocheck/internal/metrics"
	"github.com/thebtf/emocheck/internal/watcher"
	"github.com/thebtf/emocheck/internal/worker"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "Listen port (default: EMOCHECK_WORKER_PORT or 37880)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureAll(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.WorkerPort = *port
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	if *debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("Failed to load catalog")
	}

	gormLevel := logger.Silent
	if *debug {
		gormLevel = logger.Info
	}
	store, err := gormdb.NewStore(gormdb.Config{
		Driver:   cfg.DBDriver,
		DSN:      cfg.DatabaseDSN,
		MaxConns: cfg.MaxConns,
		LogLevel: gormLevel,
	})
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DBDriver).Msg("Failed to open database")
	}
	defer store.Close()

	svc, err := worker.New(worker.Options{
		Version:  Version,
		Config:   cfg,
		Catalog:  cat,
		Sessions: gormdb.NewSessionStore(store),
		Entries:  gormdb.NewEntryStore(store),
		Metrics:  metrics.New(),
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Settings or catalog changes stop the worker so a supervisor restarts it
	// with the new configuration.
	watched := []string{config.SettingsPath()}
	if cfg.CatalogPath != "" {
		watched = append(watched, cfg.CatalogPath)
	}
	w, err := watcher.New(watched, func(c watcher.Change) {
		log.Warn().Str("path", c.Path).Str("change", string(c.Kind)).Msg("Configuration changed, exiting for restart")
		cancel()
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create config watcher")
	} else if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start config watcher")
	} else {
		defer w.Stop()
	}

	log.Info().
		Str("version", Version).
		Str("driver", store.Driver()).
		Int("port", cfg.WorkerPort).
		Msg("Starting worker")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return svc.Start(gctx)
	})
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Worker failed")
		store.Close()
		os.Exit(1)
	}
}
