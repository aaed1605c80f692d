package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/pitwall/internal/cache"
	"github.com/yourusername/pitwall/internal/dataset"
	"github.com/yourusername/pitwall/internal/health"
	"github.com/yourusername/pitwall/internal/metrics"
	"github.com/yourusername/pitwall/internal/models"
	"github.com/yourusername/pitwall/internal/schedule"
	"github.com/yourusername/pitwall/internal/scheduler"
	"github.com/yourusername/pitwall/internal/server"
	"github.com/yourusername/pitwall/internal/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Load every source and serve the JSON API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appLog.WithFields(logrus.Fields{
		"environment": cfg.App.Environment,
		"version":     Version,
	}).Info("pitwall starting")

	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
	}

	viewCache := newViewCache()
	datasetStore := dataset.NewStore(cfg.Dataset.Dir, appLog)
	engine := stats.NewEngine(stats.StoreSource(datasetStore), viewCache, cfg.Dataset.StartYear, appLog)
	scheduleStore := schedule.NewStore(cfg.Schedule.Dirs, appLog)

	datasetLoader := cache.NewLoader("dataset", 0, datasetStore.Load)
	scheduleLoader := cache.NewLoader("schedule", 0, func(ctx context.Context) error {
		return scheduleStore.Load(ctx, cfg.Schedule.Season)
	})

	aggregator := newAggregator()
	var newsLoader *cache.Loader
	if aggregator != nil {
		defer aggregator.Close()
		newsLoader = cache.NewLoader("news", cfg.CacheTTL(), aggregator.Load)
	}

	if err := datasetLoader.Load(ctx); err != nil {
		return fmt.Errorf("failed to load dataset from %s: %w", cfg.Dataset.Dir, err)
	}
	if err := scheduleLoader.Load(ctx); err != nil {
		return fmt.Errorf("failed to load %d schedule: %w", cfg.Schedule.Season, err)
	}
	if newsLoader != nil {
		if err := newsLoader.Load(ctx); err != nil {
			appLog.WithError(err).Warn("News feeds unavailable at startup")
		}
	}

	sched := scheduler.NewScheduler(appLog)
	sched.OnReload(snapshotInvalidator(datasetLoader.Name(), datasetStore, viewCache))
	for _, job := range []struct {
		expr   string
		loader *cache.Loader
	}{
		{cfg.Refresh.DatasetCron, datasetLoader},
		{cfg.Refresh.ScheduleCron, scheduleLoader},
		{cfg.Refresh.NewsCron, newsLoader},
	} {
		if job.loader == nil {
			continue
		}
		if err := sched.ScheduleReload(job.expr, job.loader); err != nil {
			return fmt.Errorf("failed to schedule %s reload: %w", job.loader.Name(), err)
		}
	}
	if len(sched.Jobs()) > 0 {
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer func() {
			if err := sched.Stop(); err != nil {
				appLog.WithError(err).Error("Failed to stop scheduler")
			}
		}()
	}

	healthHandler := health.NewHandler(health.Config{
		ServiceName: cfg.App.Name,
		Version:     Version,
		Commit:      GitCommit,
		Logger:      appLog,
		Checks: []health.Checker{
			health.CheckFunc("dataset", func(ctx context.Context) error {
				_, err := datasetStore.Snapshot()
				return err
			}),
			health.CheckFunc("schedule", func(ctx context.Context) error {
				if !scheduleStore.Loaded() {
					return models.ErrStoreNotLoaded
				}
				return nil
			}),
		},
	})
	healthHandler.SetReady(true)

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}

	srv := server.New(server.Options{
		Port:              cfg.Server.Port,
		ReadTimeout:       time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout:      time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		CountdownInterval: cfg.CountdownInterval(),
		MetricsPath:       metricsPath,
		Engine:            engine,
		Schedule:          scheduleStore,
		News:              aggregator,
		Health:            healthHandler,
		DatasetLoader:     datasetLoader,
		ScheduleLoader:    scheduleLoader,
		NewsLoader:        newsLoader,
		Logger:            appLog,
	})

	err := srv.Run(ctx)
	healthHandler.SetReady(false)
	appLog.Info("pitwall shut down")
	return err
}

// snapshotInvalidator drops cached views of the snapshot replaced by a dataset reload
func snapshotInvalidator(job string, store *dataset.Store, viewCache *cache.ViewCache) scheduler.ReloadHook {
	var (
		mu      sync.Mutex
		current = snapshotID(store)
	)
	return func(name string, err error) {
		if name != job || err != nil {
			return
		}
		mu.Lock()
		defer mu.Unlock()

		next := snapshotID(store)
		if next == current {
			return
		}
		dropped := viewCache.Invalidate(current)
		appLog.WithFields(logrus.Fields{
			"previous_snapshot": current,
			"snapshot":          next,
			"views_dropped":     dropped,
		}).Info("Dataset snapshot replaced")
		current = next
	}
}

func snapshotID(store *dataset.Store) uuid.UUID {
	snap, err := store.Snapshot()
	if err != nil {
		return uuid.Nil
	}
	return snap.ID()
}
