/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the crew leave engine server: configuration,
  logging, store, service wiring, HTTP router, graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (config.yaml + env overrides)
  2. Build the zap logger
  3. Open the SQLite store
  4. Wire the leave service (store doubles as roster provider and audit log)
  5. Start the HTTP server with graceful shutdown

CONFIGURATION:
  See config/config.go for keys and environment overrides. The store path
  ":memory:" runs fully in-memory.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM: stop accepting connections, drain active requests
  (30s timeout), close the database.

SEE ALSO:
  - api/server.go: Router configuration
  - leave/service.go: Engine wiring
*/
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/skycruzer/fleet-management-v2-sub008/api"
	"github.com/skycruzer/fleet-management-v2-sub008/config"
	"github.com/skycruzer/fleet-management-v2-sub008/leave"
	"github.com/skycruzer/fleet-management-v2-sub008/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := buildLogger(cfg.Logger)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Fatal("failed to initialize database", zap.Error(err))
	}
	defer store.Close()

	periods, err := cfg.Engine.RosterPeriods()
	if err != nil {
		logger.Fatal("invalid roster period config", zap.Error(err))
	}

	svc := leave.NewService(store, store, leave.Options{
		MinimumRequired: cfg.Engine.MinimumRequired(),
		LateWindowDays:  cfg.Engine.LateRequestWindowDays,
		LockTimeout:     cfg.Engine.LockTimeout,
		LockRetries:     cfg.Engine.LockRetries,
		Periods:         periods,
		Audit:           store,
		Bids:            store,
		Logger:          logger,
	})

	handler := api.NewHandler(svc, store, logger)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.Server.Address()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func buildLogger(cfg config.LoggerConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	if cfg.Level != "" {
		level, err := zap.ParseAtomicLevel(cfg.Level)
		if err != nil {
			return nil, err
		}
		zc.Level = level
	}
	return zc.Build()
}
