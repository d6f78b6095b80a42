// Copyright 2026 The OpenTrusty Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/opentrusty/taskboard/internal/audit"
	"github.com/opentrusty/taskboard/internal/authz"
	"github.com/opentrusty/taskboard/internal/identity"
	"github.com/opentrusty/taskboard/internal/observability/logger"
	"github.com/opentrusty/taskboard/internal/observability/metrics"
	"github.com/opentrusty/taskboard/internal/observability/tracing"
	"github.com/opentrusty/taskboard/internal/oidc"
	"github.com/opentrusty/taskboard/internal/project"
	"github.com/opentrusty/taskboard/internal/session"
	"github.com/opentrusty/taskboard/internal/store/postgres"
	redisstore "github.com/opentrusty/taskboard/internal/store/redis"
	transportHTTP "github.com/opentrusty/taskboard/internal/transport/http"
	"github.com/opentrusty/taskboard/pkg/rbac"
	"github.com/spf13/cobra"
)

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve(cmd.Context(), migrate)
		},
	}
	cmd.Flags().BoolVar(&migrate, "migrate", false, "apply pending migrations before serving")
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	cfg := a.cfg
	slog.InfoContext(ctx, "starting taskboard", slog.String("version", cfg.Observability.ServiceVersion))

	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		Endpoint:       cfg.Observability.Endpoint,
		SamplingRate:   1.0,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize tracer: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracer.Shutdown(shutdownCtx); err != nil {
			slog.Error("failed to flush traces", logger.Error(err))
		}
	}()

	meter := metrics.New(metrics.Config{
		Enabled:     cfg.Observability.OTELEnabled,
		ServiceName: cfg.Observability.ServiceName,
	})

	// Storage
	db, err := a.openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()
	slog.InfoContext(ctx, "connected to database")

	if migrate {
		applied, err := db.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		slog.InfoContext(ctx, "migrations complete", slog.Int("applied", applied))
	}

	redisClient, err := redisstore.New(ctx, redisstore.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer redisClient.Close()

	// Services
	authorizer, err := rbac.NewAuthorizer(rbac.DefaultTable())
	if err != nil {
		return fmt.Errorf("invalid authorization rules: %w", err)
	}

	hasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)
	identityService, err := identity.NewService(postgres.NewUserRepository(db), hasher, meter,
		cfg.Security.LockoutMaxAttempts, cfg.Security.LockoutDuration)
	if err != nil {
		return err
	}

	authzService, err := authz.NewService(authorizer, authz.NewResolver(postgres.NewOwnerRepository(db)), meter)
	if err != nil {
		return err
	}

	tokens := session.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL,
		redisstore.NewRevocationStore(redisClient))

	deps := transportHTTP.Dependencies{
		Identity:    identityService,
		Projects:    project.NewService(postgres.NewProjectRepository(db)),
		Authz:       authzService,
		Tokens:      tokens,
		Health:      db,
		Audit:       audit.NewSlogLogger(a.log),
		FrontendURL: cfg.Google.FrontendURL,
	}

	if cfg.Google.Enabled {
		google, err := oidc.NewGoogleProvider(ctx, oidc.Config{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  cfg.Google.RedirectURL,
		})
		if err != nil {
			return err
		}
		deps.Google = google
		deps.States = redisstore.NewStateStore(redisClient, cfg.Google.StateTTL)
		slog.InfoContext(ctx, "google sign-in enabled")
	}

	bootstrapCtx, span := tracer.Start(ctx, "bootstrap_admin")
	err = identity.NewBootstrapService(identityService).Bootstrap(bootstrapCtx, cfg.Auth.BootstrapAdminEmail)
	span.End()
	if err != nil {
		slog.ErrorContext(ctx, "bootstrap failed", logger.Error(err))
	}

	// HTTP
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	var frontend fs.FS
	if cfg.Server.FrontendDir != "" {
		frontend = os.DirFS(cfg.Server.FrontendDir)
	}

	router := transportHTTP.NewRouter(transportHTTP.NewHandler(deps), rateLimiter, transportHTTP.RouterConfig{
		Production:     cfg.Server.Production,
		AuthPerMinute:  cfg.RateLimit.AuthPerMinute,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Metrics:        metrics.NewHTTPMetrics(),
		Frontend:       frontend,
	})

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting http server",
			logger.Component("server"),
			logger.Operation("listen"),
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}
