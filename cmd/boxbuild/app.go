package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/creamcroissant/boxbuild/internal/bootstrap"
	"github.com/creamcroissant/boxbuild/internal/builder"
	"github.com/creamcroissant/boxbuild/internal/cache"
	"github.com/creamcroissant/boxbuild/internal/config"
	"github.com/creamcroissant/boxbuild/internal/helper"
	"github.com/creamcroissant/boxbuild/internal/packages"
	"github.com/creamcroissant/boxbuild/internal/repository/sqlite"
	"github.com/creamcroissant/boxbuild/internal/service"
	"github.com/creamcroissant/boxbuild/internal/support/logging"
)

// app bundles the wiring shared by the build and serve commands.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	store    *sqlite.Store
	cache    cache.Store
	packages *packages.Cache
	builds   service.ConfigBuildService
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	return cfg, logger, nil
}

// openApp loads configuration, opens the migrated database and wires the
// builder. reg receives build metrics; nil skips them.
func openApp(ctx context.Context, reg prometheus.Registerer) (*app, error) {
	cfg, logger, err := loadConfig()
	if err != nil {
		return nil, err
	}
	db, err := bootstrap.OpenMigrated(cfg.DB.Path)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logger,
		db:     db,
		store:  sqlite.NewStore(db),
		cache:  cache.NewStore(cache.Options{DefaultTTL: cache.NoExpiration, CleanupInterval: 5 * time.Minute, Prefix: "boxbuild"}),
	}

	sources := builder.Sources{
		Profiles: a.store.Profiles(),
		Groups:   a.store.Groups(),
		Rules:    a.store.Rules(),
		Settings: service.ConfigSettings{Config: cfg},
		Helpers:  helper.NewRegistry(cfg.Helper.Dir),
	}
	if cfg.Packages.ListPath != "" {
		a.packages = packages.NewCache(a.cache, packages.FileLoader{Path: cfg.Packages.ListPath}, packages.RetryConfig{
			MaxRetries: cfg.Packages.MaxRetries,
		}, logger)
		a.packages.Start(ctx)
		sources.UIDs = a.packages
	}

	var metrics *service.BuildMetrics
	if reg != nil && cfg.Metrics.Enabled {
		metrics = service.NewBuildMetrics(reg, cfg.Metrics.Namespace)
	}
	a.builds = service.NewConfigBuildService(builder.New(sources), a.store.Profiles(), metrics, logger)
	return a, nil
}

func (a *app) Close() error {
	return a.db.Close()
}
