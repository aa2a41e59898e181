package main

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shineum/eml-studio/internal/server"
	"github.com/shineum/eml-studio/internal/store"
	studiotls "github.com/shineum/eml-studio/internal/tls"
)

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.serve(cmd.Context())
		},
	}
}

func (a *app) serve(parent context.Context) error {
	cfg := a.cfg

	var tlsConfig *tls.Config
	if cfg.TLS.Enabled {
		var err error
		tlsConfig, err = studiotls.LoadOrGenerateTLS(cfg.TLS.CertFile, cfg.TLS.KeyFile, cfg.TLS.Hosts)
		if err != nil {
			return fmt.Errorf("failed to setup TLS: %w", err)
		}
	}

	st, err := store.NewSQLiteStore(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	prov, err := selectProvider(ctx, cfg)
	if err != nil {
		return err
	}

	rw, err := selectRewriter(ctx, cfg)
	if err != nil {
		return err
	}
	if rw == nil {
		slog.Warn("no AI key configured, rewrite endpoint disabled")
	}

	srv := server.New(server.ServerConfig{
		ListenAddr:      cfg.HTTP.Listen,
		Store:           st,
		Provider:        prov,
		Rewriter:        rw,
		TLSConfig:       tlsConfig,
		AuthUsername:    cfg.HTTP.Username,
		AuthPassword:    cfg.HTTP.Password,
		ShutdownTimeout: cfg.HTTP.ShutdownTimeout,
		MaxBodyBytes:    cfg.HTTP.MaxBodyBytes,
	})

	slog.Info("starting eml-studio",
		"listen", cfg.HTTP.Listen,
		"store", cfg.Store.Path,
		"provider", prov.Name(),
		"auth_enabled", cfg.AuthEnabled(),
		"tls_enabled", tlsConfig != nil,
	)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	go func() {
		select {
		case sig := <-sigCh:
			slog.Info("received signal, initiating shutdown", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	// Blocks until the context is cancelled.
	if err := srv.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("eml-studio stopped")
	return nil
}
