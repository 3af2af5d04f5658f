// Package physics holds the kinematic state types (degrees of freedom, rigid
// motions), discrete trajectories, massive bodies and the ephemeris contract
// consumed by reference frames.
package physics

import (
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
)

// DegreesOfFreedom is the position and velocity of a point at one instant.
type DegreesOfFreedom[F geometry.Frame] struct {
	position geometry.Position[F]
	velocity geometry.Vector[F]
}

// NewDegreesOfFreedom returns the state (position, velocity).
func NewDegreesOfFreedom[F geometry.Frame](position geometry.Position[F], velocity geometry.Vector[F]) DegreesOfFreedom[F] {
	return DegreesOfFreedom[F]{position: position, velocity: velocity}
}

// AtRest returns the state of a point at position with zero velocity.
func AtRest[F geometry.Frame](position geometry.Position[F]) DegreesOfFreedom[F] {
	return DegreesOfFreedom[F]{position: position}
}

func (d DegreesOfFreedom[F]) Position() geometry.Position[F] { return d.position }
func (d DegreesOfFreedom[F]) Velocity() geometry.Vector[F]   { return d.velocity }

func (d DegreesOfFreedom[F]) String() string {
	return fmt.Sprintf("{q: %v, v: %v}", d.position, d.velocity)
}

// BarycentreOf returns the mass-weighted mean of the states.
func BarycentreOf[F geometry.Frame](states []DegreesOfFreedom[F], weights []float64) DegreesOfFreedom[F] {
	positions := make([]geometry.Position[F], len(states))
	velocities := make([]geometry.Vector[F], len(states))
	for i, s := range states {
		positions[i] = s.position
		velocities[i] = s.velocity
	}
	return DegreesOfFreedom[F]{
		position: geometry.Barycentre(positions, weights),
		velocity: geometry.WeightedMean(velocities, weights),
	}
}
