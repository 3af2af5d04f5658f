package physics

import (
	"github.com/signalsfoundry/frame-kinematics/geometry"
)

// RigidMotion is a rigid transformation from From to To together with its
// first time derivative, described by the angular velocity of To and the
// velocity of the origin of To, both as seen in From and expressed in From
// coordinates.
type RigidMotion[From, To geometry.Frame] struct {
	transformation      geometry.RigidTransformation[From, To]
	angularVelocityOfTo geometry.Vector[From]
	velocityOfToOrigin  geometry.Vector[From]
}

// NewRigidMotion returns the motion described by its parts.
func NewRigidMotion[From, To geometry.Frame](
	transformation geometry.RigidTransformation[From, To],
	angularVelocityOfToFrame geometry.Vector[From],
	velocityOfToFrameOrigin geometry.Vector[From],
) RigidMotion[From, To] {
	return RigidMotion[From, To]{
		transformation:      transformation,
		angularVelocityOfTo: angularVelocityOfToFrame,
		velocityOfToOrigin:  velocityOfToFrameOrigin,
	}
}

func (m RigidMotion[From, To]) RigidTransformation() geometry.RigidTransformation[From, To] {
	return m.transformation
}

func (m RigidMotion[From, To]) OrthogonalMap() geometry.OrthogonalMap[From, To] {
	return m.transformation.OrthogonalMap()
}

// AngularVelocityOfToFrame returns the angular velocity of To as seen in From,
// in From coordinates.
func (m RigidMotion[From, To]) AngularVelocityOfToFrame() geometry.Vector[From] {
	return m.angularVelocityOfTo
}

// AngularVelocityOfFromFrame returns the angular velocity of From as seen in
// To, in To coordinates.
func (m RigidMotion[From, To]) AngularVelocityOfFromFrame() geometry.Vector[To] {
	return m.OrthogonalMap().Apply(m.angularVelocityOfTo.Neg())
}

// VelocityOfToFrameOrigin returns the velocity of the origin of To as seen in
// From.
func (m RigidMotion[From, To]) VelocityOfToFrameOrigin() geometry.Vector[From] {
	return m.velocityOfToOrigin
}

// Apply maps a state of From to To:
//
//	q' = T(q)
//	v' = M(v - v₀ - ω × (q - T⁻¹(O)))
//
// where O is the origin of To.
func (m RigidMotion[From, To]) Apply(dof DegreesOfFreedom[From]) DegreesOfFreedom[To] {
	toOriginInFrom := m.transformation.Inverse().Apply(geometry.Origin[To]())
	r := dof.position.Sub(toOriginInFrom)
	relative := dof.velocity.
		Sub(m.velocityOfToOrigin).
		Sub(m.angularVelocityOfTo.Cross(r))
	return DegreesOfFreedom[To]{
		position: m.transformation.Apply(dof.position),
		velocity: m.OrthogonalMap().Apply(relative),
	}
}

// Inverse returns the motion from To to From.
func (m RigidMotion[From, To]) Inverse() RigidMotion[To, From] {
	fromOrigin := m.Apply(AtRest(geometry.Origin[From]()))
	return RigidMotion[To, From]{
		transformation:      m.transformation.Inverse(),
		angularVelocityOfTo: m.AngularVelocityOfFromFrame(),
		velocityOfToOrigin:  fromOrigin.velocity,
	}
}

// AcceleratedRigidMotion is a RigidMotion together with its second time
// derivative.
type AcceleratedRigidMotion[From, To geometry.Frame] struct {
	motion                  RigidMotion[From, To]
	angularAccelerationOfTo geometry.Vector[From]
	accelerationOfToOrigin  geometry.Vector[From]
}

// NewAcceleratedRigidMotion returns the motion with the given angular
// acceleration of To and acceleration of its origin, both as seen in From.
func NewAcceleratedRigidMotion[From, To geometry.Frame](
	motion RigidMotion[From, To],
	angularAccelerationOfToFrame geometry.Vector[From],
	accelerationOfToFrameOrigin geometry.Vector[From],
) AcceleratedRigidMotion[From, To] {
	return AcceleratedRigidMotion[From, To]{
		motion:                  motion,
		angularAccelerationOfTo: angularAccelerationOfToFrame,
		accelerationOfToOrigin:  accelerationOfToFrameOrigin,
	}
}

func (a AcceleratedRigidMotion[From, To]) RigidMotion() RigidMotion[From, To] { return a.motion }

func (a AcceleratedRigidMotion[From, To]) AngularAccelerationOfToFrame() geometry.Vector[From] {
	return a.angularAccelerationOfTo
}

func (a AcceleratedRigidMotion[From, To]) AccelerationOfToFrameOrigin() geometry.Vector[From] {
	return a.accelerationOfToOrigin
}
