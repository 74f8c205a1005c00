package cmd

import (
	"context"
	"fmt"
	"time"

	"marker-sync/core/config"
	"marker-sync/core/database"
	"marker-sync/core/location"
	"marker-sync/core/logger"
	"marker-sync/core/markerset"
	"marker-sync/core/reconcile"
	"marker-sync/core/storage"
	"marker-sync/feature/datafile"
	"marker-sync/feature/renderer/memstore"
	"marker-sync/feature/renderer/sqlstore"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// loadStore loads the configuration and builds the logger. The logger level
// follows settings.debug across reloads.
func loadStore() (*config.Store, *logger.Logger, error) {
	store, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	cfg := store.Snapshot()

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logg.SetDebug(cfg.Settings.Debug)
	store.OnChange(func(c config.Config) {
		logg.SetDebug(c.Settings.Debug)
	})
	return store, logg, nil
}

// newFetcher builds the document fetcher for the configured source driver.
// The storage client is nil for the dir driver.
func newFetcher(cfg config.Config) (datafile.Fetcher, storage.Client, error) {
	switch cfg.Source.Driver {
	case "dir", "":
		return datafile.NewDirFetcher(cfg.Source.Path), nil, nil
	case "bucket":
		client, err := storage.NewClient(cfg.Storage)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return datafile.NewBucketFetcher(client, cfg.Storage.Bucket, cfg.Source.Path), client, nil
	default:
		return nil, nil, fmt.Errorf("unsupported source driver %q", cfg.Source.Driver)
	}
}

// newSource builds the location source on top of fetcher.
func newSource(cfg config.Config, fetcher datafile.Fetcher, log *zap.Logger) *datafile.Source {
	return datafile.NewSource(fetcher, datafile.Config{
		SpawnFile:  cfg.Source.SpawnFile,
		WorldsFile: cfg.Source.WorldsFile,
		WarpsFile:  cfg.Source.WarpsFile,
		CacheTTL:   time.Duration(cfg.Source.CacheTTLSeconds) * time.Second,
	}, log)
}

// sourceDocuments lists the documents the source reads.
func sourceDocuments(cfg config.Config) []string {
	return []string{cfg.Source.SpawnFile, cfg.Source.WorldsFile, cfg.Source.WarpsFile}
}

// newProvider wraps the source with the configured spawn policies.
func newProvider(cfg config.Config, source location.Source, log *zap.Logger) *location.Provider {
	return location.NewProvider(source, log,
		location.WithDefaultWorld(cfg.Settings.DefaultWorld),
		location.WithFirstSpawnFallback(cfg.FirstSpawnMarker.FallbackToSpawn),
	)
}

// configuredMaps returns renderer.maps, or one map for the default world.
func configuredMaps(cfg config.Config) []markerset.RenderMap {
	maps := make([]markerset.RenderMap, 0, len(cfg.Renderer.Maps))
	for _, m := range cfg.Renderer.Maps {
		if m.ID == "" {
			continue
		}
		world := m.World
		if world == "" {
			world = m.ID
		}
		maps = append(maps, markerset.RenderMap{ID: m.ID, World: world, Name: m.Name})
	}
	if len(maps) == 0 {
		world := cfg.Settings.DefaultWorld
		maps = append(maps, markerset.RenderMap{ID: world, World: world, Name: world})
	}
	return maps
}

// newRenderer builds the marker store for the configured driver. The
// database is nil for the memory driver. Failures wrap
// reconcile.ErrRendererUnavailable.
func newRenderer(ctx context.Context, cfg config.Config, log *zap.Logger) (markerset.Renderer, *gorm.DB, error) {
	switch cfg.Renderer.Driver {
	case "memory":
		store, err := memstore.New(configuredMaps(cfg)...)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", reconcile.ErrRendererUnavailable, err)
		}
		return store, nil, nil
	case "sql", "":
		db, err := database.Connect(cfg.Database)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: %v", reconcile.ErrRendererUnavailable, err)
		}
		store := sqlstore.New(db, log)
		if err := store.Migrate(ctx); err != nil {
			return nil, db, fmt.Errorf("%w: %v", reconcile.ErrRendererUnavailable, err)
		}
		if len(cfg.Renderer.Maps) > 0 {
			if err := store.SeedMaps(ctx, configuredMaps(cfg)); err != nil {
				return nil, db, fmt.Errorf("%w: %v", reconcile.ErrRendererUnavailable, err)
			}
		}
		return store, db, nil
	default:
		return nil, nil, fmt.Errorf("%w: unsupported renderer driver %q", reconcile.ErrRendererUnavailable, cfg.Renderer.Driver)
	}
}
