package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/celerix-dev/celerix-apiforge/internal/api"
	"github.com/celerix-dev/celerix-apiforge/internal/cli"
	"github.com/celerix-dev/celerix-apiforge/internal/config"
	"github.com/celerix-dev/celerix-apiforge/internal/log"
	"github.com/celerix-dev/celerix-apiforge/internal/provider"
	"github.com/celerix-dev/celerix-apiforge/internal/service"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// RootCmd creates the daemon command.
func RootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "celerix-apiforged",
		Short: "Serve the Celerix API Forge HTTP API",
		Long: `celerix-apiforged accepts API definitions over HTTP, compiles them into
per-resource schemas and stores them in the configured backend.

Settings come from the configuration file and CELERIX_* environment variables.`,
		Version:      cli.Version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", fmt.Sprintf("Path to the configuration file (default $%s)", config.ConfigEnv))
	return cmd
}

func run(parent context.Context, configPath string) error {
	// 1. Configuration and logging
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := log.New(cfg.Log.Level)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("Starting Celerix API Forge daemon", zap.String("driver", cfg.Storage.Driver))

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open the record store
	store, err := provider.Open(ctx, cfg.Storage, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("Failed to close store", zap.Error(err))
			return
		}
		logger.Info("Persistence complete")
	}()

	// 3. Service and HTTP API
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	h := &api.Handler{
		Service: service.NewUserAPIService(store, logger),
		Logger:  log.Component(logger, "API"),
	}
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(h, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 4. Serve until a signal arrives
	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP API listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	// 5. Graceful shutdown: drain requests, then flush pending writes
	logger.Info("Shutdown signal received. Finalizing disk writes...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP shutdown failed: %w", err)
	}
	return nil
}
