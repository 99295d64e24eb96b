package snapshot

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/satwatch/satwatch/internal/propagation"
	"github.com/satwatch/satwatch/internal/storage"
	"github.com/satwatch/satwatch/internal/tle"
)

const (
	issLine1 = "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927"
	issLine2 = "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func issDataset(t *testing.T) *tle.Dataset {
	t.Helper()
	epoch := time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC)
	sets := []tle.ElementSet{{
		NORADID: 25544,
		Name:    "ISS (ZARYA)",
		Epoch:   epoch,
		Line1:   issLine1,
		Line2:   issLine2,
	}}
	return tle.NewDataset("test", time.Now().UTC(), sets)
}

func TestRecorderStartWithoutDB(t *testing.T) {
	store := tle.NewStore()
	pool := propagation.NewWorkerPool(1, discardLogger())
	rec := NewRecorder(store, nil, pool, time.Millisecond, discardLogger())

	done := make(chan struct{})
	go func() {
		rec.Start(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start did not return immediately with nil db")
	}
}

func TestRecordOnceWritesSnapshots(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := tle.NewStore()
	store.Set(issDataset(t))

	mock.ExpectExec(`INSERT INTO satellites`).
		WithArgs(25544, "ISS (ZARYA)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO snapshots`).
		WithArgs(25544, sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	pool := propagation.NewWorkerPool(1, discardLogger())
	rec := NewRecorder(store, storage.NewWithDB(db), pool, time.Minute, discardLogger())
	rec.now = func() time.Time {
		return time.Date(2008, 9, 20, 13, 0, 0, 0, time.UTC)
	}
	rec.recordOnce(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordOnceSyncsIdentitiesOnce(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	store := tle.NewStore()
	store.Set(issDataset(t))

	// First pass upserts the identity, both passes write a snapshot.
	mock.ExpectExec(`INSERT INTO satellites`).
		WithArgs(25544, "ISS (ZARYA)").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO snapshots`).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(`INSERT INTO snapshots`).
		WillReturnResult(sqlmock.NewResult(2, 1))

	pool := propagation.NewWorkerPool(1, discardLogger())
	rec := NewRecorder(store, storage.NewWithDB(db), pool, time.Minute, discardLogger())
	rec.now = func() time.Time {
		return time.Date(2008, 9, 20, 13, 0, 0, 0, time.UTC)
	}
	rec.recordOnce(context.Background())
	rec.recordOnce(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func TestRecordOnceWithEmptyStore(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	pool := propagation.NewWorkerPool(1, discardLogger())
	rec := NewRecorder(tle.NewStore(), storage.NewWithDB(db), pool, time.Minute, discardLogger())
	rec.recordOnce(context.Background())

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unexpected database activity: %v", err)
	}
}
