package model

import "github.com/signalsfoundry/frame-kinematics/geometry"

// MotionSource indicates how a body's motion is determined.
type MotionSource int

const (
	MotionSourceStatic     MotionSource = iota
	MotionSourceCircular                // analytic circular orbit about a fixed point
	MotionSourceSpacetrack              // TLE-based orbit propagation
)

func (s MotionSource) String() string {
	switch s {
	case MotionSourceCircular:
		return "circular"
	case MotionSourceSpacetrack:
		return "spacetrack"
	default:
		return "static"
	}
}

// Motion represents a position in metres, in the inertial frame of the
// scenario.
type Motion struct {
	X float64
	Y float64
	Z float64
}

// RotationDefinition describes the uniform rotation of a body about its pole.
type RotationDefinition struct {
	Pole             Motion  // direction only
	AngularFrequency float64 // rad/s
	ReferenceAngle   float64 // rad, at the reference instant of the scenario
}

// CircularOrbit is an orbit of constant radius about a fixed centre, in the
// plane orthogonal to Normal.
type CircularOrbit struct {
	Centre      Motion
	Normal      Motion
	Radius      float64 // m
	Period      float64 // s
	PhaseAtZero float64 // rad, at Epoch
	Epoch       geometry.Instant
}

// BodyDefinition is a body of a scenario. Massive bodies have a positive
// gravitational parameter and take part in the ephemeris; probes are
// massless and only have their trajectories rendered.
type BodyDefinition struct {
	ID   string
	Name string

	GravitationalParameter float64 // m³/s²; zero for probes
	Rotation               *RotationDefinition

	MotionSource MotionSource
	Coordinates  Motion         // static position, or last sampled position
	Orbit        *CircularOrbit // MotionSourceCircular
	TLE1, TLE2   string         // MotionSourceSpacetrack
}

// IsMassive reports whether the body contributes to the gravitational field.
func (b *BodyDefinition) IsMassive() bool { return b.GravitationalParameter > 0 }
