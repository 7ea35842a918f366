package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campuskit.app/institution-service/common/arangodb"
	"campuskit.app/institution-service/common/id"
	"campuskit.app/institution-service/common/logger"
	"campuskit.app/institution-service/core/config"
	"campuskit.app/institution-service/internal/provisioning"
	"campuskit.app/institution-service/internal/store"
	"campuskit.app/institution-service/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load(config.ServiceTypeWorker)
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "reconciliation worker starting",
		"env", cfg.Env,
		"interval", cfg.Reconciler.Interval,
		"batch_size", cfg.Reconciler.BatchSize)

	// Different node ID than the server so snowflake IDs never collide
	if err := id.Init(2); err != nil {
		slog.ErrorContext(ctx, "failed to initialize id generator", "error", err)
		os.Exit(1)
	}

	arango, err := arangodb.New(ctx, arangodb.Config{
		URL:      cfg.ArangoDB.URL,
		Username: cfg.ArangoDB.Username,
		Password: cfg.ArangoDB.Password,
		Database: cfg.ArangoDB.Database,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to connect to arangodb", "error", err)
		os.Exit(1)
	}
	defer arango.Close()
	if err := arango.EnsureDatabase(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ensure database", "error", err)
		os.Exit(1)
	}
	if err := arango.EnsureCollections(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to ensure collections", "error", err)
		os.Exit(1)
	}
	slog.InfoContext(ctx, "arangodb connected", "database", cfg.ArangoDB.Database)

	users, err := provisioning.New(provisioning.Config{
		BaseURL: cfg.UserService.BaseURL,
		Timeout: cfg.UserService.Timeout,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to create user service client", "error", err)
		os.Exit(1)
	}

	stores := store.NewStores(arango.Database())

	reconciler := worker.NewReconciler(stores.OrphanedUsers(), users, worker.ReconcilerConfig{
		Interval:  cfg.Reconciler.Interval,
		BatchSize: cfg.Reconciler.BatchSize,
	})

	doneCh := make(chan struct{})
	go func() {
		reconciler.Run(ctx)
		close(doneCh)
	}()

	slog.InfoContext(ctx, "worker initialized and running")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down worker...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	stopped := make(chan struct{})
	go func() {
		reconciler.Stop()
		close(stopped)
	}()

	select {
	case <-shutdownCtx.Done():
		slog.WarnContext(ctx, "shutdown timeout exceeded")
	case <-stopped:
	}

	slog.InfoContext(ctx, "worker shutdown complete")
}
