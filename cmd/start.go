package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"marker-sync/core/config"
	"marker-sync/core/loader"
	"marker-sync/core/markerset"
	"marker-sync/core/metrics"
	"marker-sync/core/middleware/auth"
	"marker-sync/core/middleware/rayid"
	"marker-sync/core/middleware/requestlog"
	"marker-sync/core/middleware/requestmetrics"
	"marker-sync/core/reconcile"
	"marker-sync/core/scheduler"
	"marker-sync/feature/integrity"
	"marker-sync/feature/markers"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// shutdownTimeout bounds the final marker cleanup.
const shutdownTimeout = 10 * time.Second

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the marker sync daemon",
	Long: `Starts periodic marker updates, watches the config file and serves the
admin API (status, reload, toggle, metrics).`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		// 1. Load Configuration and Logger
		store, logg, err := loadStore()
		if err != nil {
			log.Fatalf("%v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg.Logger)
		cfg := store.Snapshot()

		// 2. Location Source (required)
		fetcher, storageClient, err := newFetcher(cfg)
		if err != nil {
			logg.Fatal("Failed to create location source", zap.Error(err))
		}
		source := newSource(cfg, fetcher, logg.Logger)
		if !source.Available(ctx) {
			logg.Fatal("Location source not found, integration disabled",
				zap.String("source", source.Name()),
				zap.Error(reconcile.ErrSourceUnavailable),
			)
		}
		logg.Info("Location source found", zap.String("source", source.Name()))
		provider := newProvider(cfg, source, logg.Logger)

		// 3. Engine
		collector := metrics.New()
		last := &markers.LastPass{}
		registry := markerset.NewRegistry(logg.Logger)
		engine := reconcile.NewEngine(provider, registry, store.Policy, logg.Logger,
			reconcile.WithObserver(collector),
			reconcile.WithObserver(last),
		)

		// 4. Map Renderer (optional)
		renderer, db, err := newRenderer(ctx, cfg, logg.Logger)
		if err != nil {
			logg.Warn("Map renderer not found, markers will not be displayed", zap.Error(err))
		} else if err := engine.OnRendererAvailable(ctx, renderer); err != nil {
			logg.Warn("Map renderer not available, markers will not be displayed", zap.Error(err))
		} else {
			logg.Info("Map renderer integration enabled")
		}

		// 5. Scheduler and Config Watch
		sched := scheduler.New(cfg.UpdateInterval(), func(ctx context.Context) {
			engine.Reconcile(ctx)
		}, logg.Logger, scheduler.WithPassTimeout(time.Minute))
		sched.Start(ctx)

		// With update-interval 0 there is no loop, and Trigger runs the pass
		// on the watcher's goroutine under the pass timeout.
		if err := store.Watch(func(config.Config) {
			logg.Info("Config file changed, updating markers")
			source.Invalidate()
			sched.Trigger()
		}); err != nil && !errors.Is(err, config.ErrNoConfigFile) {
			logg.Warn("Config file watch disabled", zap.Error(err))
		}

		// 6. HTTP Server
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We will log our own startup message
		})

		// RayID must be first to trace everything
		app.Use(rayid.New())
		app.Use(requestlog.New(logg.Logger))
		app.Use(requestmetrics.New(collector))
		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))
		if cfg.Server.ApiKey == "" {
			logg.Warn("server.api_key is empty, admin API is not protected")
		}

		mgr := loader.NewManager()
		svc := markers.NewService(store, sched, engine, registry, last, logg.Logger,
			markers.WithInvalidate(source.Invalidate),
		)
		mgr.Register(markers.NewFeature(svc, collector.Handler()))

		checkOpts := []integrity.Option{integrity.WithDatabase(db)}
		if storageClient != nil {
			checkOpts = append(checkOpts, integrity.WithStorage(storageClient, cfg.Storage.Bucket, cfg.Source.Path))
		}
		mgr.Register(integrity.NewFeature(
			integrity.NewService(fetcher, sourceDocuments(cfg), logg.Logger, checkOpts...),
		))
		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		go func() {
			logg.Info("Starting server", zap.String("address", cfg.Server.Address()))
			if err := app.Listen(cfg.Server.Address()); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 7. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down...")

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancelShutdown()
		shutdown(shutdownCtx, sched, engine, app, logg.Logger)
	},
}

// shutdown stops the loop, cleans up markers and closes the HTTP server, in
// that order.
func shutdown(
	ctx context.Context,
	sched interface{ Stop() },
	engine interface{ Shutdown(context.Context) },
	app interface{ Shutdown() error },
	log *zap.Logger,
) {
	sched.Stop()
	engine.Shutdown(ctx)
	if err := app.Shutdown(); err != nil {
		log.Warn("HTTP server shutdown failed", zap.Error(err))
	}
}

func init() {
	RootCmd.AddCommand(startCmd)
}
