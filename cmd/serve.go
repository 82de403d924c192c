package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/notenexus/internal/auth"
	"github.com/desertthunder/notenexus/internal/catalog"
	"github.com/desertthunder/notenexus/internal/server"
	"github.com/desertthunder/notenexus/internal/shared"
	"github.com/desertthunder/notenexus/internal/store"
	"github.com/desertthunder/notenexus/internal/web"
)

const defaultTimeout = 15 * time.Second

// Serve runs the HTTP API until SIGINT or SIGTERM. The store is closed after the server drains.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	config := r.Config()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return r.withStore(func(s *store.Store) error {
		handler, err := r.handler(s)
		if err != nil {
			return err
		}

		read, write, idle, shutdown := config.Server.Timeouts(defaultTimeout)
		addr := cmd.String("addr")
		if addr == "" {
			addr = config.Server.Addr()
		}

		srv := server.New(server.Options{
			Addr:            addr,
			ReadTimeout:     read,
			WriteTimeout:    write,
			IdleTimeout:     idle,
			ShutdownTimeout: shutdown,
		}, handler)

		stats := s.Stats()
		r.logger.Info("starting server", "addr", addr, "storage", config.Storage.Driver, "users", stats.TotalUsers)
		return server.Run(ctx, srv, shutdown, r.logger)
	})
}

// handler wires accounts, the catalog and metrics into the web router.
func (r *Runner) handler(s *store.Store) (http.Handler, error) {
	config := r.Config()
	if config.Auth.UsesTemplateSecret() {
		return nil, fmt.Errorf("%w: auth.jwt_secret is still the example value, set NEXUS_JWT_SECRET or edit the config", shared.ErrInvalidConfig)
	}

	tokens, err := auth.NewTokens(config.Auth.JWTSecret, config.Auth.TTL())
	if err != nil {
		return nil, fmt.Errorf("failed to configure tokens: %w", err)
	}

	return web.NewRouter(web.Deps{
		Store:          s,
		Accounts:       auth.NewAccounts(s, tokens, r.logger.WithPrefix("auth")),
		Catalog:        catalog.New(config.Catalog.Root, r.logger.WithPrefix("catalog")),
		Metrics:        server.NewMetrics("notenexus"),
		Logger:         r.logger,
		AllowedOrigins: config.Server.AllowedOrigins,
		RatePerMinute:  config.Auth.RatePerMinute,
		Burst:          config.Auth.Burst,
	})
}
