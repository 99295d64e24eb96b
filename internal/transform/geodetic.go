package transform

import "math"

// ECEFToGeodetic converts an Earth-fixed position (km) to geodetic latitude
// and longitude in degrees using the closed-form reduced-latitude
// (auxiliary-angle) formula, no iteration. Used for reporting sub-satellite
// coordinates; pass prediction never needs the satellite's own geodetic
// position.
func ECEFToGeodetic(ecef [3]float64) (latDeg, lonDeg float64) {
	x, y, z := ecef[0], ecef[1], ecef[2]

	b := wgs84A * (1 - wgs84F)
	ep2 := (wgs84A*wgs84A - b*b) / (b * b)

	p := math.Sqrt(x*x + y*y)
	theta := math.Atan2(wgs84A*z, b*p)
	sinTh, cosTh := math.Sincos(theta)

	lat := math.Atan2(z+ep2*b*sinTh*sinTh*sinTh, p-wgs84E2*wgs84A*cosTh*cosTh*cosTh)
	lon := math.Atan2(y, x)

	return lat * 180.0 / math.Pi, lon * 180.0 / math.Pi
}
