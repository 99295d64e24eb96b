package transform

import "math"

// ECIToECEF rotates an inertial-frame position vector (km) about the polar
// axis into the Earth-fixed frame, given the sidereal angle in radians.
//
//	x' = cosθ·x + sinθ·y
//	y' = −sinθ·x + cosθ·y
//	z' = z
//
// Velocity vectors are not rotated by this system: only speed magnitude,
// which is rotation-invariant, is ever reported.
func ECIToECEF(pos [3]float64, gmst float64) [3]float64 {
	sinT, cosT := math.Sincos(gmst)
	return [3]float64{
		cosT*pos[0] + sinT*pos[1],
		-sinT*pos[0] + cosT*pos[1],
		pos[2],
	}
}

// Magnitude returns the Euclidean norm of a 3-vector.
func Magnitude(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
