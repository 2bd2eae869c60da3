package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shintopc/UPI-voice-alert/internal/certs"
	"github.com/shintopc/UPI-voice-alert/internal/config"
	"github.com/shintopc/UPI-voice-alert/internal/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Receive notifications over HTTP and announce payments",
		Long: `Start the notification webhook, the read API and the announcement worker.

Forward payment app notifications as JSON to POST /api/v1/notifications:

  {"source_id": "com.phonepe.app", "title": "...", "body": "..."}

Prometheus metrics are served on /metrics. Set server.tls_dir to serve HTTPS
with a self-signed certificate kept in that directory; server.tls_hosts lists
the LAN names or addresses the phone connects to.`,
		RunE: runServe,
	}

	cmd.Flags().String("addr", server.DefaultAddr, "listen address")
	_ = viper.BindPFlag(config.KeyServerAddr, cmd.Flags().Lookup("addr"))

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	store, err := initStorage(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := store.Close(); closeErr != nil {
			slog.Error("Failed to close storage", "error", closeErr)
		}
	}()

	settings := config.NewSettings(nil)
	if _, err := settings.Settings(ctx); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	queue := buildQueue(settings)
	pipeline, err := buildPipeline(store, queue, settings)
	if err != nil {
		return fmt.Errorf("failed to build pipeline: %w", err)
	}

	tlsConfig, err := buildTLS()
	if err != nil {
		return fmt.Errorf("failed to prepare TLS certificate: %w", err)
	}

	addr := viper.GetString(config.KeyServerAddr)
	srv, err := server.New(server.Config{
		Pipeline:  pipeline,
		Announcer: queue,
		Store:     store,
		Settings:  settings,
		Logger:    slog.Default(),
		TLS:       tlsConfig,
		Addr:      addr,
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// From here on only settings reads viper, under its own lock.
	if err := settings.Watch(ctx, slog.Default()); err != nil {
		if !errors.Is(err, config.ErrNoConfigFile) {
			return fmt.Errorf("failed to watch config file: %w", err)
		}
		slog.Debug("No config file to watch, using defaults and environment")
	}

	errCh := make(chan error, 2)
	go func() { errCh <- queue.Run(ctx) }()
	go func() { errCh <- srv.Run(ctx) }()

	slog.Info("upialert is listening for payments", "addr", addr)

	// Whichever side stops first takes the other down with it.
	var firstErr error
	for i := 0; i < 2; i++ {
		if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) && firstErr == nil {
			firstErr = err
		}
		cancel()
	}
	return firstErr
}

// buildTLS returns nil unless a certificate directory is configured.
func buildTLS() (*tls.Config, error) {
	dir := viper.GetString(config.KeyServerTLSDir)
	if dir == "" {
		return nil, nil
	}

	manager := certs.NewFileManager(config.ExpandPath(dir), viper.GetStringSlice(config.KeyServerTLSHosts)...)
	tlsConfig, err := manager.TLSConfig()
	if err != nil {
		return nil, err
	}
	slog.Info("Serving HTTPS", "certificate", manager.CertFile())
	return tlsConfig, nil
}
