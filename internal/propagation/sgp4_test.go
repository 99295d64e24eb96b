package propagation

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/satwatch/satwatch/internal/tle"
)

var discardLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

var issSet = tle.ElementSet{
	NORADID: 25544,
	Name:    "ISS (ZARYA)",
	Epoch:   time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC),
	Line1:   "1 25544U 98067A   08264.51782528 -.00002182  00000-0 -11606-4 0  2927",
	Line2:   "2 25544  51.6416 247.4627 0006703 130.5360 325.0288 15.72125391563537",
}

func TestNewFromElementSet(t *testing.T) {
	prop, err := New(issSet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prop.NORADID() != 25544 {
		t.Errorf("NORAD ID = %d, want 25544", prop.NORADID())
	}
	if !prop.Epoch().Equal(issSet.Epoch) {
		t.Errorf("epoch = %v, want %v", prop.Epoch(), issSet.Epoch)
	}
}

func TestNewRejectsMalformedLines(t *testing.T) {
	bad := issSet
	bad.Line1 = "1 25544U"
	if _, err := New(bad); err == nil {
		t.Fatal("expected error for truncated line 1, got nil")
	}

	bad = issSet
	bad.Line1, bad.Line2 = bad.Line2, bad.Line1
	if _, err := New(bad); err == nil {
		t.Fatal("expected error for swapped lines, got nil")
	}
}

func TestPropagateMinutesAtEpoch(t *testing.T) {
	prop, err := New(issSet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := prop.PropagateMinutes(0)
	if err != nil {
		t.Fatalf("propagate: %v", err)
	}

	mag := math.Sqrt(st.Position[0]*st.Position[0] + st.Position[1]*st.Position[1] + st.Position[2]*st.Position[2])
	if mag < 6500 || mag > 7100 {
		t.Errorf("position magnitude = %.1f km, want LEO range 6500-7100", mag)
	}

	speed := math.Sqrt(st.Velocity[0]*st.Velocity[0] + st.Velocity[1]*st.Velocity[1] + st.Velocity[2]*st.Velocity[2])
	if speed < 7.0 || speed > 8.0 {
		t.Errorf("speed = %.3f km/s, want orbital range 7-8", speed)
	}
}

func TestPropagateMinutesAcrossOrbit(t *testing.T) {
	prop, err := New(issSet)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Sample across a full ~92 minute orbit; every state must be sane.
	for m := 0.0; m <= 92.0; m += 10.0 {
		st, err := prop.PropagateMinutes(m)
		if err != nil {
			t.Fatalf("propagate at %v min: %v", m, err)
		}
		mag := math.Sqrt(st.Position[0]*st.Position[0] + st.Position[1]*st.Position[1] + st.Position[2]*st.Position[2])
		if mag < 6500 || mag > 7100 {
			t.Errorf("t=%v min: magnitude %.1f km out of LEO range", m, mag)
		}
	}
}

func TestWorkerPoolPropagateBatch(t *testing.T) {
	pool := NewWorkerPool(4, discardLogger)

	broken := issSet
	broken.Line1 = "1 99999U" // fails SGP4 construction

	states, success, errors := pool.PropagateBatch(
		context.Background(),
		[]tle.ElementSet{issSet, broken},
		issSet.Epoch.Add(30*time.Minute),
	)

	if success != 1 || errors != 1 {
		t.Fatalf("success=%d errors=%d, want 1/1", success, errors)
	}
	if len(states) != 1 {
		t.Fatalf("expected 1 state, got %d", len(states))
	}
	if states[0].NORADID != 25544 {
		t.Errorf("NORAD ID = %d, want 25544", states[0].NORADID)
	}
	if !states[0].At.Equal(issSet.Epoch.Add(30 * time.Minute)) {
		t.Errorf("state time = %v, want epoch+30m", states[0].At)
	}
}

func TestWorkerPoolEmptyBatch(t *testing.T) {
	pool := NewWorkerPool(2, discardLogger)
	states, success, errors := pool.PropagateBatch(context.Background(), nil, time.Now())
	if states != nil || success != 0 || errors != 0 {
		t.Errorf("empty batch should be a no-op, got %d states %d/%d", len(states), success, errors)
	}
}
