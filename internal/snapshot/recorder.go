// Package snapshot periodically records the whole constellation's state
// to persistent storage.
package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/storage"
	"github.com/satwatch/satwatch/internal/tle"
)

// Recorder propagates every satellite in the current dataset on a fixed
// interval and writes the resulting states as snapshots.
type Recorder struct {
	store    *tle.Store
	db       *storage.Store
	pool     *propagation.WorkerPool
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time

	// lastSynced tracks which dataset's identities have been upserted,
	// so the satellite catalog is written once per fetch rather than
	// once per tick.
	lastSynced time.Time
}

// NewRecorder creates a recorder. The db may be nil, in which case Start
// returns immediately.
func NewRecorder(store *tle.Store, db *storage.Store, pool *propagation.WorkerPool, interval time.Duration, logger *slog.Logger) *Recorder {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Recorder{
		store:    store,
		db:       db,
		pool:     pool,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Start runs the recording loop until the context is canceled.
func (r *Recorder) Start(ctx context.Context) {
	if r.db == nil {
		return
	}

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.recordOnce(ctx)
		}
	}
}

// recordOnce propagates the current dataset to now and persists the states.
func (r *Recorder) recordOnce(ctx context.Context) {
	ds := r.store.Get()
	if ds == nil {
		return
	}

	if err := r.syncIdentities(ctx, ds); err != nil {
		r.logger.Error("syncing satellite identities", "error", err)
		return
	}

	now := r.now().UTC()
	states, _, errCount := r.pool.PropagateBatch(ctx, ds.Satellites, now)
	if errCount > 0 {
		r.logger.Warn("some satellites failed to propagate", "errors", errCount)
	}

	var written int
	for _, st := range states {
		snap := storage.Snapshot{
			NORADID:  st.NORADID,
			TakenAt:  st.At,
			Position: st.Position,
			Velocity: st.Velocity,
		}
		if err := r.db.InsertSnapshot(ctx, snap); err != nil {
			r.logger.Error("writing snapshot", "norad_id", st.NORADID, "error", err)
			continue
		}
		written++
	}

	r.logger.Info("recorded constellation snapshot",
		"satellites", written,
		"taken_at", now.Format(time.RFC3339),
	)
}

// syncIdentities upserts every satellite in the dataset, once per fetch.
func (r *Recorder) syncIdentities(ctx context.Context, ds *tle.Dataset) error {
	if ds.FetchedAt.Equal(r.lastSynced) {
		return nil
	}
	for _, set := range ds.Satellites {
		if err := r.db.UpsertSatellite(ctx, set.NORADID, set.Name); err != nil {
			return err
		}
	}
	r.lastSynced = ds.FetchedAt
	return nil
}
