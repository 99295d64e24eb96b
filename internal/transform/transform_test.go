package transform

import (
	"math"
	"testing"
	"time"
)

func TestGMSTAtJ2000(t *testing.T) {
	got := GMST(time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC))
	want := 280.46061837 * math.Pi / 180.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("GMST(J2000) = %.12f rad, want %.12f", got, want)
	}
}

func TestGMSTNormalized(t *testing.T) {
	times := []time.Time{
		time.Date(1990, 6, 15, 3, 4, 5, 0, time.UTC),
		time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC),
		time.Date(2008, 9, 20, 12, 25, 40, 0, time.UTC),
		time.Date(2025, 2, 14, 4, 19, 40, 0, time.UTC),
		time.Date(2080, 12, 31, 23, 59, 59, 0, time.UTC),
	}
	for _, tm := range times {
		got := GMST(tm)
		if got < 0 || got >= 2*math.Pi {
			t.Errorf("GMST(%v) = %f, outside [0, 2π)", tm, got)
		}
	}
}

func TestGMSTAdvancesWithEarthRotation(t *testing.T) {
	// One sidereal day is ~23h56m04s; over that span GMST should wrap back
	// to nearly the same angle.
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	t1 := t0.Add(23*time.Hour + 56*time.Minute + 4*time.Second)

	diff := math.Abs(GMST(t1) - GMST(t0))
	if diff > math.Pi {
		diff = 2*math.Pi - diff
	}
	if diff > 0.001 {
		t.Errorf("GMST drift over one sidereal day = %f rad, want ~0", diff)
	}
}

func TestECIToECEFIdentityAtZeroAngle(t *testing.T) {
	pos := [3]float64{6778.0, -1234.5, 987.6}
	got := ECIToECEF(pos, 0)
	for i := range pos {
		if math.Abs(got[i]-pos[i]) > 1e-12 {
			t.Errorf("component %d: got %f, want %f", i, got[i], pos[i])
		}
	}
}

func TestECIToECEFQuarterTurn(t *testing.T) {
	got := ECIToECEF([3]float64{1, 0, 0}, math.Pi/2)
	want := [3]float64{0, -1, 0}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Errorf("component %d: got %f, want %f", i, got[i], want[i])
		}
	}
}

func TestECIToECEFPreservesMagnitude(t *testing.T) {
	pos := [3]float64{6778.0, -1234.5, 987.6}
	rot := ECIToECEF(pos, 1.234)
	if math.Abs(Magnitude(rot)-Magnitude(pos)) > 1e-9 {
		t.Errorf("rotation changed magnitude: %f → %f", Magnitude(pos), Magnitude(rot))
	}
}

func TestNewObserverECEFMagnitude(t *testing.T) {
	// Equatorial observer sits at the semi-major axis.
	eq := NewObserver(0, 0)
	if mag := Magnitude(eq.ECEF()); math.Abs(mag-6378.137) > 1e-6 {
		t.Errorf("equatorial ECEF magnitude = %f km, want 6378.137", mag)
	}

	// Polar observer sits at the semi-minor axis (~6356.752 km).
	pole := NewObserver(90, 0)
	if mag := Magnitude(pole.ECEF()); math.Abs(mag-6356.7523142) > 1e-3 {
		t.Errorf("polar ECEF magnitude = %f km, want ~6356.752", mag)
	}
}

func TestLookAnglesOverhead(t *testing.T) {
	// At the equator the geodetic normal is radial, so scaling the observer's
	// ECEF vector outward puts the target exactly at zenith.
	obs := NewObserver(0, 0)
	e := obs.ECEF()
	mag := Magnitude(e)
	scale := (mag + 400.0) / mag
	target := [3]float64{e[0] * scale, e[1] * scale, e[2] * scale}

	look := LookAngles(obs, target)
	if math.Abs(look.ElevationDeg-90.0) > 0.01 {
		t.Errorf("overhead elevation = %f deg, want ~90", look.ElevationDeg)
	}
	if math.Abs(look.RangeKm-400.0) > 0.01 {
		t.Errorf("overhead range = %f km, want ~400", look.RangeKm)
	}
}

func TestLookAnglesAzimuth(t *testing.T) {
	// Observer at the equator, prime meridian: local East is +Y, local North
	// is +Z in ECEF.
	obs := NewObserver(0, 0)
	e := obs.ECEF()

	north := LookAngles(obs, [3]float64{e[0], e[1], e[2] + 100})
	if math.Abs(north.AzimuthDeg-0) > 0.01 && math.Abs(north.AzimuthDeg-360) > 0.01 {
		t.Errorf("due-north azimuth = %f deg, want ~0", north.AzimuthDeg)
	}

	east := LookAngles(obs, [3]float64{e[0], e[1] + 100, e[2]})
	if math.Abs(east.AzimuthDeg-90) > 0.01 {
		t.Errorf("due-east azimuth = %f deg, want ~90", east.AzimuthDeg)
	}
}

func TestLookAnglesBelowHorizon(t *testing.T) {
	// A target on the far side of the planet is far below the horizon.
	obs := NewObserver(0, 0)
	e := obs.ECEF()
	look := LookAngles(obs, [3]float64{-e[0], -e[1], -e[2]})
	if look.ElevationDeg >= 0 {
		t.Errorf("antipodal elevation = %f deg, want negative", look.ElevationDeg)
	}
}

func TestECEFToGeodeticRoundTrip(t *testing.T) {
	tests := []struct{ lat, lon float64 }{
		{0, 0},
		{40.7128, -74.0060},
		{-33.8688, 151.2093},
		{51.6416, 0},
		{-89.0, 45.0},
	}
	for _, tt := range tests {
		obs := NewObserver(tt.lat, tt.lon)
		lat, lon := ECEFToGeodetic(obs.ECEF())
		if math.Abs(lat-tt.lat) > 1e-3 {
			t.Errorf("lat round trip: got %f, want %f", lat, tt.lat)
		}
		if math.Abs(lon-tt.lon) > 1e-3 {
			t.Errorf("lon round trip: got %f, want %f", lon, tt.lon)
		}
	}
}

func TestECEFToGeodeticPole(t *testing.T) {
	b := 6378.137 * (1 - 1.0/298.257223563)
	lat, _ := ECEFToGeodetic([3]float64{0, 0, b})
	if math.Abs(lat-90.0) > 1e-6 {
		t.Errorf("polar latitude = %f, want 90", lat)
	}
}
