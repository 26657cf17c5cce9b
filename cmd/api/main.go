// Package main implements the kashf API server: listing preview and confirm
// for operators, and the public registry search.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kashf-sd/kashf/engine/registry"
	"github.com/kashf-sd/kashf/engine/upload"
	"github.com/kashf-sd/kashf/pkg/metrics"
	"github.com/kashf-sd/kashf/pkg/natsutil"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("load config", "err", err)
		os.Exit(1)
	}

	if err := run(cfg, logger); err != nil {
		logger.Error("server exited with error", "err", err)
		os.Exit(1)
	}
}

func run(cfg Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Registry ---
	var store registry.Store = registry.NewMemoryStore()
	if cfg.Neo4j.URL != "" {
		neo, closeNeo, err := registry.Dial(ctx, cfg.Neo4j.URL, cfg.Neo4j.User, cfg.Neo4j.Pass, cfg.Neo4j.Database)
		if err != nil {
			return err
		}
		defer closeNeo(context.Background())
		store = neo
		logger.Info("registry on neo4j", "url", cfg.Neo4j.URL)
	} else {
		logger.Warn("NEO4J_URL not set, registry is in memory")
	}

	reg := metrics.New()
	opts := []upload.Option{upload.WithMetrics(reg), upload.WithLogger(logger)}

	// --- NATS (optional) ---
	if cfg.NATS.URL != "" {
		nc, err := natsutil.Connect(cfg.NATS.URL, "kashf-api", logger)
		if err != nil {
			return err
		}
		defer nc.Drain()
		opts = append(opts, upload.WithPublisher(upload.NewNATSPublisher(nc)))

		sub, err := registry.ServeSearch(nc, store)
		if err != nil {
			return err
		}
		defer sub.Unsubscribe()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      newServer(upload.New(store, opts...), store, reg, logger).routes(cfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// --- Graceful shutdown ---
	errCh := make(chan error, 1)
	go func() {
		logger.Info("api server starting", "port", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutCtx)
}
