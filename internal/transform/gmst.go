// Package transform provides the coordinate-frame math shared by the pass
// predictor and the position reporting endpoints: Greenwich Mean Sidereal
// Time, the inertial→Earth-fixed rotation, the Earth-fixed→topocentric
// horizon projection, and the Earth-fixed→geodetic conversion.
//
// All functions are pure and reentrant; positions are in kilometers.
package transform

import (
	"math"
	"time"
)

// j2000 is the J2000.0 reference epoch (January 1, 2000, 12:00:00 UTC).
var j2000 = time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)

// GMST computes Greenwich Mean Sidereal Time in radians, normalized to
// [0, 2π), from a UTC instant using the linear approximation anchored at
// J2000.0:
//
//	gmst_deg = 280.46061837 + 360.98564736629 × days_since_J2000
//
// The model omits precession and nutation; its error is negligible at the
// sampling cadences used for visibility prediction but it is not suitable
// for high-precision geodesy.
func GMST(t time.Time) float64 {
	days := t.UTC().Sub(j2000).Seconds() / 86400.0
	gmstDeg := 280.46061837 + 360.98564736629*days
	gmstDeg = math.Mod(gmstDeg, 360.0)
	if gmstDeg < 0 {
		gmstDeg += 360.0
	}
	return gmstDeg * math.Pi / 180.0
}
