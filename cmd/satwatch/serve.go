package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/satwatch/satwatch/internal/api"
	"github.com/satwatch/satwatch/internal/auth"
	"github.com/satwatch/satwatch/internal/config"
	"github.com/satwatch/satwatch/internal/metrics"
	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/snapshot"
	"github.com/satwatch/satwatch/internal/storage"
	"github.com/satwatch/satwatch/internal/tle"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		return runServe(cfg)
	},
}

func runServe(cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)

	store := tle.NewStore()
	cache := tle.NewCache(cfg.TLE.CacheDir, cfg.TLE.CacheMaxFiles)

	// Attempt to load cached element sets so the service is useful offline.
	if data, ts, err := cache.LoadLatest(); err != nil {
		logger.Info("no element-set cache found, starting empty", "error", err)
	} else {
		sets, err := tle.Parse(bytes.NewReader(data), logger)
		if err != nil {
			logger.Warn("failed to parse cached element sets", "error", err)
		} else if len(sets) > 0 {
			store.Set(tle.NewDataset("cache", ts, sets))
			metrics.SetDatasetCount(len(sets))
			logger.Info("loaded element sets from cache",
				"count", len(sets),
				"cached_at", ts.Format(time.RFC3339),
			)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.TLE.FetchOnStart {
		if err := fetchAndStore(ctx, cfg, store, cache, logger); err != nil {
			logger.Warn("startup fetch failed, continuing with cached data", "error", err)
		}
	}

	var db *storage.Store
	if cfg.Database.DSN != "" {
		var err error
		if db, err = storage.New(cfg.Database.DSN); err != nil {
			return fmt.Errorf("connecting to database: %w", err)
		}
		defer db.Close()
		logger.Info("database connected")
	}

	pool := propagation.NewWorkerPool(cfg.Workers, logger)

	recorder := snapshot.NewRecorder(store, db, pool,
		time.Duration(cfg.Snapshot.IntervalSeconds)*time.Second, logger)
	go recorder.Start(ctx)

	// Keep the dataset age gauge current.
	go func() {
		ticker := time.NewTicker(10 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if age := store.AgeSeconds(); age >= 0 {
					metrics.SetDatasetAge(age)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	authCfg := auth.Config{Enabled: cfg.Auth.Enabled, Token: cfg.Auth.Token}
	defaults := api.PredictionDefaults{
		DurationMinutes: cfg.Prediction.DurationMinutes,
		StepSeconds:     cfg.Prediction.StepSeconds,
		MinElevationDeg: cfg.Prediction.MinElevationDeg,
	}
	srv := api.NewServer(cfg.HTTP.Addr, logger, authCfg, store, db, pool, defaults, cfg.HTTP.TrustProxy)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.HTTP.Addr,
			"auth_enabled", cfg.Auth.Enabled,
			"database_configured", db != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen error: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

// fetchAndStore downloads element sets, caches the raw text, and swaps the
// parsed dataset into the store. Shared by serve and fetch.
func fetchAndStore(ctx context.Context, cfg config.Config, store *tle.Store, cache *tle.Cache, logger *slog.Logger) error {
	store.Lock()
	defer store.Unlock()

	fetcher := tle.NewFetcher(cfg.TLE.SourceURL, logger, cfg.TLE.ExtraURLs...)
	data, err := fetcher.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetching element sets: %w", err)
	}

	fetchedAt := time.Now().UTC()
	if err := cache.Write(data, fetchedAt); err != nil {
		logger.Warn("failed to cache fetched element sets", "error", err)
	}

	sets, err := tle.Parse(bytes.NewReader(data), logger)
	if err != nil {
		return fmt.Errorf("parsing fetched element sets: %w", err)
	}
	if len(sets) == 0 {
		return fmt.Errorf("fetched data contains no element sets")
	}

	store.Set(tle.NewDataset(fetcher.SourceURL(), fetchedAt, sets))
	metrics.SetDatasetCount(len(sets))
	logger.Info("element-set dataset updated", "count", len(sets))
	return nil
}
