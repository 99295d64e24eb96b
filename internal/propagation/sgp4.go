package propagation

import (
	"fmt"
	"math"
	"strings"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/satwatch/satwatch/internal/tle"
)

// SGP4 library choice: github.com/joshuaferrara/go-satellite — pure Go, no
// CGO, inertial (TEME) output matching the propagator contract.
//
// The library's Propagate takes Satellite by value, so SGP4 error codes are
// not visible after the call. Failures (decayed orbits, numerical
// divergence) are detected by checking the output for NaN/Inf and
// unreasonable position magnitudes.

// SGP4Propagator propagates a single satellite's element set. Stateless per
// call; safe to invoke from concurrent prediction runs.
type SGP4Propagator struct {
	sat     satellite.Satellite
	epoch   time.Time
	noradID int
}

// New creates an SGP4 propagator from an element set. Returns an error if
// the element set cannot initialize the SGP4 model.
//
// Lines are pre-validated because go-satellite calls log.Fatal on malformed
// input, which would kill the process.
func New(set tle.ElementSet) (*SGP4Propagator, error) {
	if err := validateLines(set.Line1, set.Line2); err != nil {
		return nil, fmt.Errorf("invalid element set for NORAD %d: %w", set.NORADID, err)
	}

	sat := satellite.TLEToSat(set.Line1, set.Line2, satellite.GravityWGS84)
	if sat.Error != 0 {
		return nil, fmt.Errorf("sgp4 init failed for NORAD %d: code=%d %s", set.NORADID, sat.Error, sat.ErrorStr)
	}
	return &SGP4Propagator{sat: sat, epoch: set.Epoch, noradID: set.NORADID}, nil
}

func validateLines(line1, line2 string) error {
	line1 = strings.TrimRight(line1, " ")
	line2 = strings.TrimRight(line2, " ")

	if len(line1) != 69 {
		return fmt.Errorf("line1 length %d, expected 69", len(line1))
	}
	if len(line2) != 69 {
		return fmt.Errorf("line2 length %d, expected 69", len(line2))
	}
	if line1[0] != '1' {
		return fmt.Errorf("line1 must start with '1', got '%c'", line1[0])
	}
	if line2[0] != '2' {
		return fmt.Errorf("line2 must start with '2', got '%c'", line2[0])
	}
	return nil
}

// Epoch returns the element set's reference epoch.
func (p *SGP4Propagator) Epoch() time.Time {
	return p.epoch
}

// NORADID returns the satellite's catalog number.
func (p *SGP4Propagator) NORADID() int {
	return p.noradID
}

// PropagateMinutes computes the satellite's inertial state at the given
// offset in minutes from the element epoch. A failure is fatal to whichever
// run issued it; causes are opaque to callers.
func (p *SGP4Propagator) PropagateMinutes(minutesSinceEpoch float64) (State, error) {
	t := p.epoch.Add(time.Duration(minutesSinceEpoch * float64(time.Minute))).UTC()
	pos, vel := satellite.Propagate(p.sat, t.Year(), int(t.Month()), t.Day(), t.Hour(), t.Minute(), t.Second())

	if hasNaNOrInf(pos.X, pos.Y, pos.Z, vel.X, vel.Y, vel.Z) {
		return State{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: output is NaN/Inf", p.noradID)
	}

	// Position magnitude between ~6200 km (just inside LEO) and ~50000 km
	// (beyond GEO) — anything else means the model has diverged.
	mag := math.Sqrt(pos.X*pos.X + pos.Y*pos.Y + pos.Z*pos.Z)
	if mag < 6200.0 || mag > 50000.0 {
		return State{}, fmt.Errorf("sgp4 propagation failed for NORAD %d: unreasonable position magnitude %.1f km", p.noradID, mag)
	}

	return State{
		Position: [3]float64{pos.X, pos.Y, pos.Z},
		Velocity: [3]float64{vel.X, vel.Y, vel.Z},
	}, nil
}

func hasNaNOrInf(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return true
		}
	}
	return false
}
