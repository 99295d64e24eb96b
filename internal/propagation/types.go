package propagation

import "time"

// State is a propagated position/velocity pair in the inertial frame,
// kilometers and kilometers per second.
type State struct {
	Position [3]float64
	Velocity [3]float64
}

// SatelliteState is one satellite's inertial state at a specific instant,
// as produced by a batch propagation.
type SatelliteState struct {
	NORADID  int
	Name     string
	At       time.Time
	Position [3]float64 // km
	Velocity [3]float64 // km/s
}
