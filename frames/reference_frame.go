// Package frames defines non-inertial reference frames attached to bodies or
// barycentres, the fictitious forces that appear in them, and the persisted
// descriptor from which a frame is reconstructed.
//
// The set of frames is closed: BarycentricRotating, BodyCentredBodyDirection,
// BodyCentredNonRotating and BodySurface are the only implementations of
// ReferenceFrame.
package frames

import (
	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// Variant enumerates the kinds of reference frames.
type Variant int

const (
	VariantUnknown Variant = iota
	VariantBarycentricRotating
	VariantBodyCentredBodyDirection
	VariantBodyCentredNonRotating
	VariantBodySurface
)

func (v Variant) String() string {
	switch v {
	case VariantBarycentricRotating:
		return "barycentric_rotating"
	case VariantBodyCentredBodyDirection:
		return "body_centred_body_direction"
	case VariantBodyCentredNonRotating:
		return "body_centred_non_rotating"
	case VariantBodySurface:
		return "body_surface"
	default:
		return "unknown"
	}
}

// ReferenceFrame is a frame T moving with respect to the inertial frame I of
// an ephemeris.
//
// ToThisFrameAtTime and FromThisFrameAtTime are mutual inverses.
// MotionOfThisFrame is the authoritative computation of the motion of T and
// its first two derivatives; the kinematics functions of this package call it
// exactly once per query. Queries outside [TMin, TMax] fail with the error of
// the ephemeris.
type ReferenceFrame[I, T geometry.Frame] interface {
	ToThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[I, T], error)
	FromThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[T, I], error)
	MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error)

	GravitationalAcceleration(t geometry.Instant, q geometry.Position[I]) (geometry.Vector[I], error)
	GravitationalPotential(t geometry.Instant, q geometry.Position[I]) (float64, error)

	TMin() geometry.Instant
	TMax() geometry.Instant

	// WriteToMessage sets the payload of d describing this frame and clears
	// the others.
	WriteToMessage(d *Descriptor)
	Variant() Variant

	sealed()
}

// ephemerisField implements the parts of ReferenceFrame that only depend on
// the ephemeris.
type ephemerisField[I geometry.Frame] struct {
	ephemeris physics.Ephemeris[I]
}

func (e ephemerisField[I]) GravitationalAcceleration(t geometry.Instant, q geometry.Position[I]) (geometry.Vector[I], error) {
	return e.ephemeris.GravitationalAccelerationOnMasslessBody(q, t)
}

func (e ephemerisField[I]) GravitationalPotential(t geometry.Instant, q geometry.Position[I]) (float64, error) {
	return e.ephemeris.GravitationalPotential(q, t)
}

func (e ephemerisField[I]) TMin() geometry.Instant { return e.ephemeris.TMin() }
func (e ephemerisField[I]) TMax() geometry.Instant { return e.ephemeris.TMax() }

func (ephemerisField[I]) sealed() {}

// fromThisFrame derives the motion from T to I by inverting the motion from I
// to T.
func fromThisFrame[I, T geometry.Frame](to physics.RigidMotion[I, T], err error) (physics.RigidMotion[T, I], error) {
	if err != nil {
		return physics.RigidMotion[T, I]{}, err
	}
	return to.Inverse(), nil
}

func clearDescriptor(d *Descriptor) {
	*d = Descriptor{}
}
