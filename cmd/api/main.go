package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinicdesk-go/internal/config"
	"github.com/clinicdesk/clinicdesk-go/internal/logging"
	"github.com/clinicdesk/clinicdesk-go/internal/repository"
	"github.com/clinicdesk/clinicdesk-go/internal/server"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "clinic-api",
		Short: "Development API server for the clinic client",
	}
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func runServer() error {
	envErr := godotenv.Load()

	cfg, err := config.LoadServer()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.LogLevel, cfg.IsDev(), os.Stdout)
	if envErr != nil {
		logger.Debug().Msg("no .env file found, using environment variables")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := repository.NewDB(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open database")
		return err
	}
	defer db.Close()
	logger.Info().Str("driver", cfg.DatabaseDriver).Msg("connected to database")

	srv := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: server.NewRouter(db, server.Options{
			JWTSecret:      cfg.JWTSecret,
			JWTExpiry:      cfg.JWTExpiry,
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			PatchDisabled:  cfg.PatchDisabledResources(),
			Logger:         logger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("server error")
			return err
		}
	case <-ctx.Done():
	}

	return shutdown(srv, logger)
}

func shutdown(srv *http.Server, logger zerolog.Logger) error {
	logger.Info().Msg("shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("server forced shutdown")
		return err
	}

	logger.Info().Msg("server stopped")
	return nil
}
