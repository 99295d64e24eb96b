package transform

import "math"

// WGS84 ellipsoid parameters (kilometers).
const (
	wgs84A  = 6378.137              // semi-major axis
	wgs84F  = 1.0 / 298.257223563   // flattening
	wgs84E2 = wgs84F * (2 - wgs84F) // first eccentricity squared
)

// Observer is a ground location with its Earth-fixed position precomputed
// once so it can be reused across every sample of a prediction scan.
// Altitude is taken as 0 on the ellipsoid.
type Observer struct {
	LatDeg, LonDeg float64
	latRad, lonRad float64
	ecef           [3]float64 // km
}

// NewObserver creates an Observer from geodetic latitude/longitude in degrees.
// Bounds checking is the caller's responsibility (validated at the API edge).
func NewObserver(latDeg, lonDeg float64) Observer {
	lat := latDeg * math.Pi / 180.0
	lon := lonDeg * math.Pi / 180.0

	sinLat, cosLat := math.Sincos(lat)
	sinLon, cosLon := math.Sincos(lon)

	// Radius of curvature in the prime vertical.
	n := wgs84A / math.Sqrt(1-wgs84E2*sinLat*sinLat)

	return Observer{
		LatDeg: latDeg,
		LonDeg: lonDeg,
		latRad: lat,
		lonRad: lon,
		ecef: [3]float64{
			n * cosLat * cosLon,
			n * cosLat * sinLon,
			n * (1 - wgs84E2) * sinLat,
		},
	}
}

// ECEF returns the observer's Earth-fixed position in kilometers.
func (o Observer) ECEF() [3]float64 {
	return o.ecef
}

// Look holds the topocentric look angles from an observer to a target.
type Look struct {
	ElevationDeg float64 // 0 = horizon, 90 = zenith
	AzimuthDeg   float64 // 0 = North, clockwise, [0, 360)
	RangeKm      float64
}

// LookAngles projects an Earth-fixed target position (km) into the
// observer's local East-North-Up frame and derives elevation, azimuth and
// range. The target coinciding with the observer (range 0) is an unchecked
// precondition; satellites never do.
func LookAngles(obs Observer, ecef [3]float64) Look {
	rx := ecef[0] - obs.ecef[0]
	ry := ecef[1] - obs.ecef[1]
	rz := ecef[2] - obs.ecef[2]

	sinLat, cosLat := math.Sincos(obs.latRad)
	sinLon, cosLon := math.Sincos(obs.lonRad)

	east := -sinLon*rx + cosLon*ry
	north := -sinLat*cosLon*rx - sinLat*sinLon*ry + cosLat*rz
	up := cosLat*cosLon*rx + cosLat*sinLon*ry + sinLat*rz

	rng := math.Sqrt(east*east + north*north + up*up)
	el := math.Asin(up / rng)
	az := math.Atan2(east, north)
	if az < 0 {
		az += 2 * math.Pi
	}

	return Look{
		ElevationDeg: el * 180.0 / math.Pi,
		AzimuthDeg:   az * 180.0 / math.Pi,
		RangeKm:      rng,
	}
}
