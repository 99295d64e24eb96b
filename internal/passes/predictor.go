// Package passes predicts the time windows during which a satellite is
// visible above a minimum elevation from a ground location.
//
// The scan is a fixed-step sweep: window boundaries carry sampling error of
// up to one step. That approximation is part of the contract — boundaries
// are not refined by interpolation or root-finding.
package passes

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/tle"
	"github.com/satwatch/satwatch/internal/transform"
)

// Propagator produces inertial states at offsets from an element epoch.
// Implementations must be safe for concurrent calls.
type Propagator interface {
	Epoch() time.Time
	PropagateMinutes(minutesSinceEpoch float64) (propagation.State, error)
}

// PassWindow is one contiguous visibility interval.
type PassWindow struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	MaxElevationDeg float64   `json:"max_elevation_deg"`
}

// sampleState tracks whether the scan is inside a visibility window.
type sampleState struct {
	inView     bool
	startedAt  time.Time
	runningMax float64
}

// Predict scans [start, start+durationMinutes] at stepSeconds intervals and
// returns the visibility windows over the observer, in chronological order.
//
// A sample whose elevation equals minElevationDeg counts as visible. A
// window still open at the end of the scan is closed at the scan end rather
// than dropped. Any propagator failure aborts the whole run: a single bad
// sample means the orbital model may be unusable for the entire interval.
func Predict(ctx context.Context, prop Propagator, obs transform.Observer, start time.Time, durationMinutes, stepSeconds int, minElevationDeg float64) ([]PassWindow, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %d minutes", durationMinutes)
	}
	if stepSeconds <= 0 {
		return nil, fmt.Errorf("step must be positive, got %d seconds", stepSeconds)
	}

	end := start.Add(time.Duration(durationMinutes) * time.Minute)
	step := time.Duration(stepSeconds) * time.Second
	epoch := prop.Epoch()

	var windows []PassWindow
	var state sampleState

	for t := start; !t.After(end); t = t.Add(step) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		st, err := prop.PropagateMinutes(t.Sub(epoch).Minutes())
		if err != nil {
			return nil, fmt.Errorf("propagating at %s: %w", t.Format(time.RFC3339), err)
		}

		ecef := transform.ECIToECEF(st.Position, transform.GMST(t))
		elevation := transform.LookAngles(obs, ecef).ElevationDeg

		switch {
		case elevation >= minElevationDeg:
			if !state.inView {
				state = sampleState{inView: true, startedAt: t, runningMax: elevation}
			} else if elevation > state.runningMax {
				state.runningMax = elevation
			}
		case state.inView:
			windows = append(windows, PassWindow{
				Start:           state.startedAt,
				End:             t,
				MaxElevationDeg: state.runningMax,
			})
			state = sampleState{}
		}
	}

	if state.inView {
		windows = append(windows, PassWindow{
			Start:           state.startedAt,
			End:             end,
			MaxElevationDeg: state.runningMax,
		})
	}

	return windows, nil
}

// Request holds the parameters for a multi-satellite prediction run.
type Request struct {
	Observer        transform.Observer
	Sets            []tle.ElementSet
	Start           time.Time
	DurationMinutes int
	StepSeconds     int
	MinElevationDeg float64
}

// Result holds one satellite's predicted windows, or the error that aborted
// its run. Errors are per-satellite; one bad orbit does not fail the batch.
type Result struct {
	NORADID int
	Name    string
	Windows []PassWindow
	Err     error
}

// PredictAll runs Predict for every element set in the request. Each
// satellite is processed in its own goroutine, bounded by a semaphore; runs
// share no mutable state.
func PredictAll(ctx context.Context, req Request) []Result {
	results := make([]Result, len(req.Sets))
	sem := make(chan struct{}, runtime.NumCPU())
	var wg sync.WaitGroup

	for i, set := range req.Sets {
		wg.Add(1)
		go func(idx int, s tle.ElementSet) {
			defer wg.Done()

			res := Result{NORADID: s.NORADID, Name: s.Name}
			defer func() { results[idx] = res }()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				res.Err = ctx.Err()
				return
			}

			prop, err := propagation.New(s)
			if err != nil {
				res.Err = err
				return
			}
			res.Windows, res.Err = Predict(ctx, prop, req.Observer, req.Start, req.DurationMinutes, req.StepSeconds, req.MinElevationDeg)
		}(i, set)
	}

	wg.Wait()
	return results
}
