package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satwatch/satwatch/internal/config"
	"github.com/satwatch/satwatch/internal/tle"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download element sets and update the local cache",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.LogLevel)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		store := tle.NewStore()
		cache := tle.NewCache(cfg.TLE.CacheDir, cfg.TLE.CacheMaxFiles)
		if err := fetchAndStore(ctx, cfg, store, cache, logger); err != nil {
			return err
		}

		ds := store.Get()
		fmt.Printf("fetched %d element sets from %s\n", len(ds.Satellites), ds.Source)
		fmt.Printf("epoch range: %s .. %s\n",
			ds.EpochRange.Min.Format(time.RFC3339),
			ds.EpochRange.Max.Format(time.RFC3339),
		)
		return nil
	},
}
