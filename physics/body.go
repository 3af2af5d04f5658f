package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/frame-kinematics/geometry"
)

var inf = math.Inf(1)

// MassiveBody is a point mass known to an ephemeris.
type MassiveBody struct {
	Name string
	// GravitationalParameter is GM, in m³/s².
	GravitationalParameter float64
	// Rotation is nil for bodies whose orientation is not modelled.
	Rotation *Rotation
}

// Rotation describes the uniform rotation of a body about its pole.
type Rotation struct {
	// Pole is the rotation axis, in the coordinates of the ephemeris frame.
	Pole             r3.Vec
	AngularFrequency float64 // rad/s
	ReferenceAngle   float64 // rad, at ReferenceInstant
	ReferenceInstant geometry.Instant
}

// AngleAt returns the rotation angle of the body at t.
func (r Rotation) AngleAt(t geometry.Instant) float64 {
	return r.ReferenceAngle + r.AngularFrequency*t.Sub(r.ReferenceInstant).Seconds()
}
