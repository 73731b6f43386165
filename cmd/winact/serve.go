package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/noveris-inf/winact/internal/audit"
	"github.com/noveris-inf/winact/internal/auth"
	"github.com/noveris-inf/winact/internal/server"
	"github.com/noveris-inf/winact/internal/transport"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the audit HTTP API",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Logging)

	if err := cfg.ValidateServer(); err != nil {
		return err
	}

	runners, err := buildRunners(cfg)
	if err != nil {
		return err
	}

	authService, err := auth.NewService(
		cfg.Auth.JWTSecret,
		cfg.Auth.Username,
		cfg.Auth.Password,
		cfg.Auth.GetJWTExpiry(),
	)
	if err != nil {
		return err
	}

	ctx := cmd.Context()

	sources, cleanup, err := buildSources(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	retriever := transport.NewRetriever(logger, runners...)
	auditor := audit.New(retriever, logger)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      server.New(logger, authService, auditor, sources).Router(),
		ReadTimeout:  cfg.Server.GetReadTimeout(),
		WriteTimeout: cfg.Server.GetWriteTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info("Server stopped gracefully")
	return nil
}
