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

	"github.com/getsentry/sentry-go"
	"github.com/spf13/cobra"

	"jarvisomega.app/cloud/handlers"
	"jarvisomega.app/cloud/internal/config"
	"jarvisomega.app/cloud/internal/logger"
	"jarvisomega.app/cloud/internal/payments"
	"jarvisomega.app/cloud/internal/version"
	"jarvisomega.app/cloud/storage"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		logger.Error("Command failed", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "omega-cloud",
		Short:         "JARVIS Omega licensing and checkout API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to a .env file (default ./.env if present)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), envFile)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(envFile)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "omega-cloud", version.Resolve(cfg.VersionFile))
			return nil
		},
	})

	return root
}

func loadConfig(envFile string) (*config.Config, error) {
	if envFile != "" {
		return config.New(envFile)
	}
	return config.New()
}

func serve(ctx context.Context, envFile string) error {
	cfg, err := loadConfig(envFile)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if cfg.LogLevel != "" {
		level, err := logger.ParseLevel(cfg.LogLevel)
		if err != nil {
			logger.Warn("Ignoring LOG_LEVEL", map[string]interface{}{"error": err.Error()})
		} else {
			logger.SetLevel(level)
		}
	}

	serviceVersion := version.Resolve(cfg.VersionFile)

	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Release:          serviceVersion,
		TracesSampleRate: 1.0,
	}); err != nil {
		return fmt.Errorf("sentry.Init: %w", err)
	}
	defer sentry.Flush(2 * time.Second)

	repo, err := storage.New(cfg.LicenseFile)
	if err != nil {
		return fmt.Errorf("license table: %w", err)
	}

	if cfg.StripeSecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set, checkout requests will fail")
	}
	checkout := payments.NewStripeCheckout(cfg.StripeSecretKey, payments.StripeOptions{})

	server := handlers.NewHttpServer(cfg, repo, checkout, serviceVersion)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Omega cloud API starting", map[string]interface{}{
			"version": serviceVersion,
			"port":    cfg.Port,
			"prices":  len(cfg.Prices),
		})
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
