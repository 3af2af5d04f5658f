package frames

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// ErrDegenerateBasis is returned when the axes of a frame cannot be built,
// e.g. when the two bodies defining it coincide or move along the line
// joining them.
var ErrDegenerateBasis = errors.New("frames: degenerate frame basis")

// twoBodyState is the state and gravitational acceleration of the primary and
// secondary bodies of a rotating frame, in the inertial frame.
type twoBodyState[I geometry.Frame] struct {
	primary, secondary                         physics.DegreesOfFreedom[I]
	primaryAcceleration, secondaryAcceleration geometry.Vector[I]
}

func loadTwoBodyState[I geometry.Frame](
	ephemeris physics.Ephemeris[I],
	primary, secondary *physics.MassiveBody,
	t geometry.Instant,
	withAccelerations bool,
) (twoBodyState[I], error) {
	var s twoBodyState[I]
	var err error
	if s.primary, err = ephemeris.DegreesOfFreedomOf(primary, t); err != nil {
		return s, err
	}
	if s.secondary, err = ephemeris.DegreesOfFreedomOf(secondary, t); err != nil {
		return s, err
	}
	if !withAccelerations {
		return s, nil
	}
	if s.primaryAcceleration, err = ephemeris.GravitationalAccelerationOnMassiveBody(primary, t); err != nil {
		return s, err
	}
	if s.secondaryAcceleration, err = ephemeris.GravitationalAccelerationOnMassiveBody(secondary, t); err != nil {
		return s, err
	}
	return s, nil
}

// AxesFromDirections returns the orthonormal right-handed basis whose X axis
// is along x and whose Y axis is in the plane of x and y, on the same side as
// y.
func AxesFromDirections[F geometry.Frame](x, y geometry.Vector[F]) (ex, ey, ez geometry.Vector[F], err error) {
	ex = x.Unit()
	yPerp := y.OrthogonalizationAgainst(ex)
	if x.IsZero() || yPerp.Norm() <= 1e-12*y.Norm() || y.IsZero() {
		return ex, ey, ez, fmt.Errorf("x = %v, y = %v: %w", x, y, ErrDegenerateBasis)
	}
	ey = yPerp.Unit()
	ez = ex.Cross(ey)
	return ex, ey, ez, nil
}

// RotatingAngularKinematics returns the angular velocity and angular
// acceleration of the line joining two bodies, given their relative position,
// velocity and acceleration:
//
//	ω  = r × ṙ / |r|²
//	dω = (r × a - 2 (r · ṙ) ω) / |r|²
//
// The rotation of the orbital plane about that line is not included.
func RotatingAngularKinematics[F geometry.Frame](r, ṙ, a geometry.Vector[F]) (ω, dω geometry.Vector[F]) {
	r2 := r.Norm2()
	ω = r.Cross(ṙ).Scale(1 / r2)
	dω = r.Cross(a).Sub(ω.Scale(2 * r.Dot(ṙ))).Scale(1 / r2)
	return ω, dω
}

// rotatingMotion builds the motion of a frame with origin at origin, X axis
// from the primary to the secondary and Y axis on the side of ySide.
func rotatingMotion[I, T geometry.Frame](
	s twoBodyState[I],
	origin physics.DegreesOfFreedom[I],
	originAcceleration geometry.Vector[I],
	ySide geometry.Vector[I],
) (physics.AcceleratedRigidMotion[I, T], error) {
	r := s.secondary.Position().Sub(s.primary.Position())
	ṙ := s.secondary.Velocity().Sub(s.primary.Velocity())
	a := s.secondaryAcceleration.Sub(s.primaryAcceleration)

	ex, ey, ez, err := AxesFromDirections(r, ySide)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	ω, dω := RotatingAngularKinematics(r, ṙ, a)

	transformation := geometry.NewRigidTransformation(
		origin.Position(),
		geometry.Origin[T](),
		geometry.MapFromBasis[I, T](ex, ey, ez))
	motion := physics.NewRigidMotion(transformation, ω, origin.Velocity())
	return physics.NewAcceleratedRigidMotion(motion, dω, originAcceleration), nil
}

func checkTwoBodies(kind string, primary, secondary *physics.MassiveBody) error {
	if primary == nil || secondary == nil {
		return fmt.Errorf("frames: %s frame requires a primary and a secondary", kind)
	}
	if primary == secondary || primary.Name == secondary.Name {
		return fmt.Errorf("frames: %s frame requires distinct bodies, got %q twice", kind, primary.Name)
	}
	return nil
}
