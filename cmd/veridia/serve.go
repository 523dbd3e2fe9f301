// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veridia Contributors

package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/veridia/veridia/internal/config"
	"github.com/veridia/veridia/internal/identity"
	identitypg "github.com/veridia/veridia/internal/identity/postgres"
	identityredis "github.com/veridia/veridia/internal/identity/redis"
	"github.com/veridia/veridia/internal/logging"
	"github.com/veridia/veridia/internal/notify"
	"github.com/veridia/veridia/internal/observability"
	"github.com/veridia/veridia/internal/store"
	"github.com/veridia/veridia/internal/transport/web"
	"github.com/veridia/veridia/pkg/errutil"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the identity service",
		Long: `Start the HTTP identity service: credential validation, sessions,
registration, password recovery, and the user directory.`,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}

	logging.SetDefault("veridia", version, cfg.Log.Format, cfg.Log.Level)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database.URL, logger)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient, err := identityredis.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		return err
	}
	defer redisClient.Close() //nolint:errcheck // close on shutdown path

	sessionStore, err := identityredis.NewSessionStore(redisClient)
	if err != nil {
		return err
	}

	accounts := identitypg.NewAccountRepository(pool)
	registrations := identitypg.NewRegistrationStore(pool)
	recoveryTokens := identitypg.NewRecoveryTokenRepository(pool)

	hasher := identity.NewArgon2idHasher()

	var notifier identity.Notifier
	if cfg.SMTP.Addr != "" {
		notifier, err = notify.NewSMTPNotifier(notify.SMTPConfig{
			Addr:     cfg.SMTP.Addr,
			From:     cfg.SMTP.From,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		}, logger)
		if err != nil {
			return err
		}
	} else {
		logger.Warn("smtp not configured, recovery tokens will be logged")
		notifier = notify.NewLogNotifier(logger)
	}

	validator, err := identity.NewCredentialValidator(accounts, hasher)
	if err != nil {
		return err
	}
	sessions, err := identity.NewSessionManager(sessionStore, cfg.Server.SessionTTL)
	if err != nil {
		return err
	}
	registration, err := identity.NewRegistrationCoordinator(registrations, hasher, identity.DefaultProfileID)
	if err != nil {
		return err
	}
	recovery, err := identity.NewRecoveryService(accounts, recoveryTokens, hasher, notifier)
	if err != nil {
		return err
	}
	directory, err := identity.NewDirectory(accounts)
	if err != nil {
		return err
	}

	obsServer := observability.NewServer(cfg.Observability.Addr, func() bool {
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pool.Ping(pingCtx) == nil && redisClient.Ping(pingCtx).Err() == nil
	})
	obsErrCh, err := obsServer.Start()
	if err != nil {
		return err
	}

	handler, err := web.NewHandler(validator, sessions, registration, recovery, directory,
		obsServer.Metrics(),
		web.CookieConfig{Name: cfg.Server.CookieName, Secure: cfg.Server.CookieSecure},
		logger,
	)
	if err != nil {
		return err
	}

	webServer, err := web.NewServer(cfg.Server.Addr, web.NewRouter(handler), logger)
	if err != nil {
		return err
	}
	webErrCh, err := webServer.Start()
	if err != nil {
		return err
	}

	// Periodic cleanup of expired recovery tokens.
	purgeDone := make(chan struct{})
	go func() {
		defer close(purgeDone)
		ticker := time.NewTicker(cfg.Recovery.PurgeInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := recovery.PurgeExpired(ctx); err != nil {
					errutil.LogError(logger, "recovery token purge failed", err)
				}
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-webErrCh:
		if err != nil {
			errutil.LogError(logger, "http server failed", err)
		}
	case err := <-obsErrCh:
		if err != nil {
			errutil.LogError(logger, "observability server failed", err)
		}
	}
	stop()
	<-purgeDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := webServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "http server shutdown failed", err)
	}
	if err := obsServer.Stop(shutdownCtx); err != nil {
		errutil.LogError(logger, "observability server shutdown failed", err)
	}

	logger.Info("shutdown complete")
	return nil
}
