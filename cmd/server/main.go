// Package main is the entry point for the school admin hub server.
//
// The architecture follows Clean Architecture and DDD:
// - Domain: business model and repository contracts, no external dependencies
// - Application: commands and queries over tenant stores
// - Infrastructure: registry and tenant persistence, resolver, cache
// - Interface: HTTP endpoints
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/schoolhub/school-admin-hub/config"
	"github.com/schoolhub/school-admin-hub/internal/application/command"
	"github.com/schoolhub/school-admin-hub/internal/application/query"
	"github.com/schoolhub/school-admin-hub/internal/domain/tenant"
	"github.com/schoolhub/school-admin-hub/internal/infrastructure/persistence/postgres"
	rediscache "github.com/schoolhub/school-admin-hub/internal/infrastructure/persistence/redis"
	httpserver "github.com/schoolhub/school-admin-hub/internal/interface/http"
	"github.com/schoolhub/school-admin-hub/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(logger.Options{
		Output:    os.Stdout,
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.Observability.AddCaller,
	})
	if cfg.App.Debug {
		log = log.WithLevel(logger.LevelDebug)
	}

	log.Info("starting",
		logger.String("app", cfg.App.Name),
		logger.String("version", cfg.App.Version),
		logger.String("env", string(cfg.App.Environment)),
	)

	// Shared registry database.
	registryConn, err := postgres.NewConnection(ctx, cfg.Registry.URL, postgres.PoolSettings{
		MaxConns:        int32(cfg.Registry.MaxOpenConns),
		MinConns:        int32(cfg.Registry.MinIdleConns),
		MaxConnLifetime: cfg.Registry.ConnMaxLifetime,
		MaxConnIdleTime: cfg.Registry.ConnMaxIdleTime,
	})
	if err != nil {
		return fmt.Errorf("connect registry database: %w", err)
	}
	defer registryConn.Close()

	var registry tenant.Registry = postgres.NewRegistryRepo(registryConn)

	// Registry cache sits in front of the registry unless disabled for
	// development.
	if !cfg.Redis.Disabled {
		redisClient, err := rediscache.NewClient(ctx, rediscache.Config{
			Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:    cfg.Redis.Password,
			DB:          cfg.Redis.DB,
			PoolSize:    cfg.Redis.PoolSize,
			DialTimeout: cfg.Redis.DialTimeout,
			ReadTimeout: cfg.Redis.ReadTimeout,
			TenantTTL:   cfg.Redis.TTL,
		})
		if err != nil {
			return fmt.Errorf("connect redis: %w", err)
		}
		defer redisClient.Close()

		registry = rediscache.NewRegistryCache(registry, redisClient, cfg.Redis.TTL, log)
		log.Info("registry cache enabled")
	}

	// Resolver: school code to tenant store handle.
	dialer := postgres.NewTenantDialer(postgres.DialConfig{
		DSNTemplate: cfg.TenantDial.DSNTemplate,
		Pool: postgres.PoolSettings{
			MaxConns:        int32(cfg.TenantDial.MaxOpenConns),
			MinConns:        int32(cfg.TenantDial.MinIdleConns),
			MaxConnLifetime: cfg.TenantDial.ConnMaxLifetime,
			MaxConnIdleTime: cfg.TenantDial.ConnMaxIdleTime,
		},
	})
	resolver := postgres.NewResolver(registry, dialer, postgres.ResolverOptions{
		DialAttempts:  cfg.TenantDial.DialAttempts,
		DialBaseDelay: cfg.TenantDial.DialBaseDelay,
		DialMaxDelay:  cfg.TenantDial.DialMaxDelay,
		Log:           log,
	})
	defer resolver.Close()

	// Application services.
	reports := query.NewReports(resolver, log, 0)
	scoring := command.NewScoring(resolver, log)
	backfill := command.NewBackfill(registry, resolver, log)
	settings := command.NewSettings(registry, resolver, log)

	server := httpserver.NewServer(httpserver.Config{
		Host:         cfg.HTTP.Host,
		Port:         cfg.HTTP.Port,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}, httpserver.Dependencies{
		Reports:     reports,
		Scoring:     scoring,
		Backfill:    backfill,
		Settings:    settings,
		Invalidator: resolver,

		// Identity headers are unauthenticated; only a development server
		// without the auth collaborator may trust them.
		TrustIdentityHeaders: cfg.IsDevelopment(),

		Logger: log,
	})

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Start()
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", logger.Err(err))
	}

	log.Info("stopped")
	return nil
}
