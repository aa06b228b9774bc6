package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/JonMunkholm/LeadImport/internal/config"
	"github.com/JonMunkholm/LeadImport/internal/leadimport"
	"github.com/JonMunkholm/LeadImport/internal/logging"
	"github.com/JonMunkholm/LeadImport/internal/store"
	"github.com/JonMunkholm/LeadImport/internal/web"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	// Overload lets a local .env win over the shell environment
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_driver", cfg.Database.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)

	ctx := context.Background()

	leads, health, closeStore, err := openStore(ctx, cfg.Database)
	if err != nil {
		slog.Error("failed to open lead store", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	table := leadimport.DefaultTable
	if cfg.Import.MappingFile != "" {
		table, err = leadimport.LoadMappingTable(cfg.Import.MappingFile)
		if err != nil {
			slog.Error("failed to load mapping table", "path", cfg.Import.MappingFile, "error", err)
			os.Exit(1)
		}
		slog.Info("mapping table loaded", "path", cfg.Import.MappingFile, "headers", len(table))
	}

	service := leadimport.NewService(leads, leadimport.ServiceConfig{
		MaxConcurrent: cfg.Import.MaxConcurrent,
		MaxWait:       cfg.Import.MaxWaitTime,
		RunTimeout:    cfg.Import.Timeout,
		Retention:     cfg.Import.Retention,
		Table:         table,
		Logger:        logger,
	})

	var opts []web.Option
	if health != nil {
		opts = append(opts, web.WithHealthCheck(health))
	}
	server := web.NewServer(service, cfg, opts...)

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if active := service.LimiterStatus().Active; active > 0 {
			slog.Info("waiting for imports to complete", "active", active)
			if err := service.Wait(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// openStore connects the lead store selected by cfg.Driver.
func openStore(ctx context.Context, cfg config.DatabaseConfig) (leadimport.LeadStore, web.HealthCheck, func(), error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		poolConfig, err := pgxpool.ParseConfig(cfg.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse database URL: %w", err)
		}
		poolConfig.MaxConns = int32(cfg.MaxConns)
		poolConfig.MinConns = int32(cfg.MinConns)
		poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
		poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

		pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, fmt.Errorf("ping: %w", err)
		}

		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}

		if u, err := url.Parse(cfg.URL); err == nil {
			slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
		} else {
			slog.Info("connected to database")
		}
		return pg, pool.Ping, pool.Close, nil

	case config.DriverSQLite:
		db, err := store.OpenSQLite(ctx, cfg.URL)
		if err != nil {
			return nil, nil, nil, err
		}
		slog.Info("opened sqlite database", "path", cfg.URL)
		return db, db.Ping, func() { db.Close() }, nil

	case config.DriverMemory:
		slog.Warn("using in-memory lead store; leads are lost on restart")
		return store.NewMemory(), nil, func() {}, nil

	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
