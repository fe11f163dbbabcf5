// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/netlytics/netlytics/internal/bus"
	"github.com/netlytics/netlytics/internal/config"
	"github.com/netlytics/netlytics/internal/listeners"
	"github.com/netlytics/netlytics/internal/logging"
	"github.com/netlytics/netlytics/internal/persistence/postgres"
	"github.com/netlytics/netlytics/internal/repository"
	httptransport "github.com/netlytics/netlytics/internal/transport/http"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	cfg := config.Load()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	logger := logging.NewLogger(cfg.Env)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	defer pool.Close()

	if cfg.AutoMigrate {
		if err := postgres.EnsureSchema(ctx, pool, logger); err != nil {
			log.Fatalf("schema migration failed: %v", err)
		}
	}

	recorder := repository.NewEventRecorder(pool, logger)
	eventRepo := repository.NewEventRepository(pool, logger)
	viewRepo := repository.NewViewRepository(pool, logger)

	eventBus := bus.New()
	listeners.RegisterAll(listeners.Deps{
		Bus:     eventBus,
		Tracker: recorder,
		Logger:  logger,
		Config:  cfg,
	})

	handler := httptransport.NewRouter(httptransport.Deps{
		Events:      eventRepo,
		Recorder:    recorder,
		Views:       viewRepo,
		Health:      postgres.NewSchemaHealthChecker(pool),
		Logger:      logger,
		AdminToken:  cfg.AdminToken,
		BeaconLimit: cfg.BeaconViewsPerMinute,
		Version:     Version,
		Commit:      Commit,
		BuildDate:   BuildDate,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("api listening",
			"addr", cfg.HTTPAddr,
			"version", Version,
			"commit", Commit,
			"build_date", BuildDate,
		)

		if err := srv.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
}
