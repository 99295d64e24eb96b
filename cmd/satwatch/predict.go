package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/satwatch/satwatch/internal/passes"
	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/tle"
	"github.com/satwatch/satwatch/internal/transform"
)

var predictCmd = &cobra.Command{
	Use:   "predict",
	Short: "Predict visibility passes from a TLE file without running the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		noradID, _ := cmd.Flags().GetInt("norad")
		lat, _ := cmd.Flags().GetFloat64("lat")
		lon, _ := cmd.Flags().GetFloat64("lon")
		duration, _ := cmd.Flags().GetInt("duration")
		step, _ := cmd.Flags().GetInt("step")
		minEl, _ := cmd.Flags().GetFloat64("min-elevation")

		if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			return fmt.Errorf("lat must be in [-90,90] and lon in [-180,180]")
		}

		f, err := os.Open(file)
		if err != nil {
			return fmt.Errorf("opening TLE file: %w", err)
		}
		defer f.Close()

		logger := newLogger("warn")
		sets, err := tle.Parse(f, logger)
		if err != nil {
			return fmt.Errorf("parsing TLE file: %w", err)
		}
		if len(sets) == 0 {
			return fmt.Errorf("no element sets found in %s", file)
		}

		set := sets[0]
		if noradID != 0 {
			ds := tle.NewDataset(file, time.Now(), sets)
			found, ok := ds.Find(noradID)
			if !ok {
				return fmt.Errorf("NORAD %d not found in %s", noradID, file)
			}
			set = found
		}

		prop, err := propagation.New(set)
		if err != nil {
			return fmt.Errorf("initializing orbital model: %w", err)
		}

		obs := transform.NewObserver(lat, lon)
		start := time.Now().UTC()
		windows, err := passes.Predict(context.Background(), prop, obs, start, duration, step, minEl)
		if err != nil {
			return fmt.Errorf("predicting passes: %w", err)
		}

		fmt.Printf("%s (NORAD %d), observer %.4f,%.4f, next %d min:\n",
			set.Name, set.NORADID, lat, lon, duration)
		if len(windows) == 0 {
			fmt.Println("no passes above threshold")
			return nil
		}
		for i, w := range windows {
			fmt.Printf("%2d. %s -> %s  max elevation %5.1f°\n",
				i+1,
				w.Start.Format("2006-01-02 15:04:05"),
				w.End.Format("15:04:05"),
				w.MaxElevationDeg,
			)
		}
		return nil
	},
}

func init() {
	predictCmd.Flags().String("file", "", "path to a TLE file")
	predictCmd.Flags().Int("norad", 0, "NORAD id to select (defaults to the first set in the file)")
	predictCmd.Flags().Float64("lat", 0, "observer latitude in degrees")
	predictCmd.Flags().Float64("lon", 0, "observer longitude in degrees")
	predictCmd.Flags().Int("duration", 120, "scan duration in minutes")
	predictCmd.Flags().Int("step", 15, "scan step in seconds")
	predictCmd.Flags().Float64("min-elevation", 10.0, "minimum elevation in degrees")
	predictCmd.MarkFlagRequired("file")
	predictCmd.MarkFlagRequired("lat")
	predictCmd.MarkFlagRequired("lon")
}
