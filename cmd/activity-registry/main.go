// main is the entry point of the activity registry server.
//
// Startup sequence:
//  1. Load configuration from a YAML file
//  2. Initialise the logger
//  3. Open the store (memory or SQLite) and load the seed fixtures
//  4. Build the services and register the HTTP routes
//  5. Serve until an OS signal arrives, then shut down gracefully
//
// Running the server:
//
//	go run ./cmd/activity-registry --config=config/local.yaml
//
// or
//
//	CONFIG_PATH=config/local.yaml go run ./cmd/activity-registry
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/activity-registry/internal/config"
	"github.com/aanand-mishra/activity-registry/internal/http/routes"
	"github.com/aanand-mishra/activity-registry/internal/points"
	"github.com/aanand-mishra/activity-registry/internal/service"
	"github.com/aanand-mishra/activity-registry/internal/storage"
	"github.com/aanand-mishra/activity-registry/internal/storage/memory"
	"github.com/aanand-mishra/activity-registry/internal/storage/seed"
	"github.com/aanand-mishra/activity-registry/internal/storage/sqlite"
	"github.com/aanand-mishra/activity-registry/internal/validation"
)

func main() {
	cfg := config.MustLoad()

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)

	log.Info("starting activity-registry",
		slog.String("env", cfg.Env),
		slog.String("storage", cfg.StorageDriver),
	)

	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Error("failed to initialise storage", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	if !cfg.SkipSeed {
		data, err := seed.Load()
		if err == nil {
			err = seed.Apply(store, data)
		}
		if err != nil {
			log.Error("failed to seed storage", slog.String("error", err.Error()))
			os.Exit(1)
		}
		log.Info("storage seeded",
			slog.Int("students", len(data.Students)),
			slog.Int("activities", len(data.Activities)),
		)
	}

	svc := service.New(store, validation.New(), points.DefaultCatalog(), log)

	server := &http.Server{
		Addr:    cfg.HTTPServer.Addr,
		Handler: routes.New(svc),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))

		// ErrServerClosed is the normal result of Shutdown.
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}

// openStore returns the configured backend and a func releasing it.
func openStore(cfg *config.Config) (storage.Storage, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverSQLite:
		db, err := sqlite.New(cfg)
		if err != nil {
			return nil, nil, err
		}
		slog.Info("sqlite storage initialised", slog.String("path", cfg.StoragePath))
		return db, func() { db.Close() }, nil
	default:
		return memory.New(), func() {}, nil
	}
}

// setupLogger returns a *slog.Logger configured for the given environment.
//
// dev: human-readable text at DEBUG level.
// prod: JSON at INFO level, for log aggregators.
func setupLogger(env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}
