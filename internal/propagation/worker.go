package propagation

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/satwatch/satwatch/internal/metrics"
	"github.com/satwatch/satwatch/internal/tle"
)

// propagateJob is a unit of work for the worker pool.
type propagateJob struct {
	set        tle.ElementSet
	targetTime time.Time
}

// propagateResult is the output of a single satellite propagation.
type propagateResult struct {
	state   SatelliteState
	err     error
	noradID int
}

// WorkerPool manages a fixed number of goroutines for parallel
// whole-constellation propagation.
type WorkerPool struct {
	workers int
	logger  *slog.Logger
}

// NewWorkerPool creates a worker pool with the given number of workers.
func NewWorkerPool(workers int, logger *slog.Logger) *WorkerPool {
	if workers < 1 {
		workers = 1
	}
	return &WorkerPool{
		workers: workers,
		logger:  logger,
	}
}

// PropagateBatch propagates all element sets to the target time. Satellites
// that fail are logged and skipped; the batch itself never fails. Returns
// the successful states plus success and error counts.
func (wp *WorkerPool) PropagateBatch(ctx context.Context, sets []tle.ElementSet, targetTime time.Time) ([]SatelliteState, int, int) {
	if len(sets) == 0 {
		return nil, 0, 0
	}

	start := time.Now()
	jobs := make(chan propagateJob, wp.workers*2)
	results := make(chan propagateResult, wp.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < wp.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				result := propagateSingle(job)
				select {
				case results <- result:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for _, set := range sets {
			select {
			case jobs <- propagateJob{set: set, targetTime: targetTime}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	states := make([]SatelliteState, 0, len(sets))
	var successCount, errorCount int
	for result := range results {
		if result.err != nil {
			errorCount++
			wp.logger.Warn("propagation failed",
				"norad_id", result.noradID,
				"error", result.err,
			)
			continue
		}
		successCount++
		states = append(states, result.state)
	}

	metrics.RecordPropagation(time.Since(start), successCount, errorCount)
	return states, successCount, errorCount
}

// propagateSingle builds the SGP4 model and propagates one satellite to the
// job's target time.
func propagateSingle(job propagateJob) propagateResult {
	prop, err := New(job.set)
	if err != nil {
		return propagateResult{noradID: job.set.NORADID, err: err}
	}

	minutes := job.targetTime.Sub(job.set.Epoch).Minutes()
	st, err := prop.PropagateMinutes(minutes)
	if err != nil {
		return propagateResult{noradID: job.set.NORADID, err: err}
	}

	return propagateResult{
		noradID: job.set.NORADID,
		state: SatelliteState{
			NORADID:  job.set.NORADID,
			Name:     job.set.Name,
			At:       job.targetTime,
			Position: st.Position,
			Velocity: st.Velocity,
		},
	}
}
