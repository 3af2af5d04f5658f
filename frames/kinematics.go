package frames

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// ErrDegenerateFrenetFrame is returned when the velocity or the normal
// acceleration vanishes and the osculating frame is undefined.
var ErrDegenerateFrenetFrame = errors.New("frames: degenerate Frenet frame")

// Angles are dimensionless in SI; dividing by radian marks where angular
// quantities become linear ones.
const radian = 1.0

// AccelerationTerms is the decomposition of the geometric acceleration of a
// point in a non-inertial frame.
type AccelerationTerms[T geometry.Frame] struct {
	Gravitational geometry.Vector[T]
	Linear        geometry.Vector[T]
	Coriolis      geometry.Vector[T]
	Centrifugal   geometry.Vector[T]
	Euler         geometry.Vector[T]
}

// Sum returns the total geometric acceleration. The fictitious terms are
// summed before being added to gravity, which is usually the largest.
func (a AccelerationTerms[T]) Sum() geometry.Vector[T] {
	fictitious := a.Linear.Add(a.Coriolis).Add(a.Centrifugal).Add(a.Euler)
	return a.Gravitational.Add(fictitious)
}

// ComputeGeometricAccelerations evaluates the motion of the frame once and
// returns the five acceleration terms acting on a point with the given
// degrees of freedom in T.
func ComputeGeometricAccelerations[I, T geometry.Frame](
	f ReferenceFrame[I, T],
	t geometry.Instant,
	dof physics.DegreesOfFreedom[T],
) (AccelerationTerms[T], error) {
	motion, err := f.MotionOfThisFrame(t)
	if err != nil {
		return AccelerationTerms[T]{}, err
	}
	toThisFrame := motion.RigidMotion()
	fromThisFrame := toThisFrame.Inverse()
	rotate := toThisFrame.OrthogonalMap()

	// The angular velocity of T as seen in I, pushed to T. Using the angular
	// velocity of I as seen in T would flip the sign of every term below.
	Ω := rotate.Apply(toThisFrame.AngularVelocityOfToFrame())
	dΩ := rotate.Apply(motion.AngularAccelerationOfToFrame())
	r := dof.Position().Sub(geometry.Origin[T]())

	gravity, err := f.GravitationalAcceleration(t, fromThisFrame.RigidTransformation().Apply(dof.Position()))
	if err != nil {
		return AccelerationTerms[T]{}, err
	}

	return AccelerationTerms[T]{
		Gravitational: rotate.Apply(gravity),
		Linear:        rotate.Apply(motion.AccelerationOfToFrameOrigin()).Neg(),
		Coriolis:      Ω.Cross(dof.Velocity()).Scale(-2 / radian),
		Centrifugal:   Ω.Cross(Ω.Cross(r)).Scale(-1 / (radian * radian)),
		Euler:         dΩ.Cross(r).Scale(-1 / radian),
	}, nil
}

// GeometricAcceleration returns the acceleration of a free-falling point with
// the given degrees of freedom in T: gravity plus the linear, Coriolis,
// centrifugal and Euler fictitious accelerations.
func GeometricAcceleration[I, T geometry.Frame](
	f ReferenceFrame[I, T],
	t geometry.Instant,
	dof physics.DegreesOfFreedom[T],
) (geometry.Vector[T], error) {
	terms, err := ComputeGeometricAccelerations(f, t, dof)
	if err != nil {
		return geometry.Vector[T]{}, err
	}
	return terms.Sum(), nil
}

// RotationFreeGeometricAccelerationAtRest returns the acceleration of a point
// at rest at position in T, without the Euler term: gravity plus the linear
// and centrifugal accelerations.
func RotationFreeGeometricAccelerationAtRest[I, T geometry.Frame](
	f ReferenceFrame[I, T],
	t geometry.Instant,
	position geometry.Position[T],
) (geometry.Vector[T], error) {
	terms, err := ComputeGeometricAccelerations(f, t, physics.AtRest(position))
	if err != nil {
		return geometry.Vector[T]{}, err
	}
	if !terms.Coriolis.IsZero() {
		panic(fmt.Sprintf("frames: Coriolis acceleration %v on a point at rest", terms.Coriolis))
	}
	return terms.Gravitational.Add(terms.Linear.Add(terms.Centrifugal)), nil
}

// GeometricPotential returns the potential whose gradient gives the
// gravitational, linear and centrifugal accelerations at position. The
// Coriolis and Euler accelerations do not derive from a potential.
func GeometricPotential[I, T geometry.Frame](
	f ReferenceFrame[I, T],
	t geometry.Instant,
	position geometry.Position[T],
) (float64, error) {
	motion, err := f.MotionOfThisFrame(t)
	if err != nil {
		return 0, err
	}
	toThisFrame := motion.RigidMotion()
	fromThisFrame := toThisFrame.Inverse()
	rotate := toThisFrame.OrthogonalMap()

	Ω := rotate.Apply(toThisFrame.AngularVelocityOfToFrame())
	r := position.Sub(geometry.Origin[T]())

	gravitational, err := f.GravitationalPotential(t, fromThisFrame.RigidTransformation().Apply(position))
	if err != nil {
		return 0, err
	}
	linear := r.Dot(rotate.Apply(motion.AccelerationOfToFrameOrigin()))
	centrifugal := -0.5 * Ω.Cross(r).Scale(1/radian).Norm2()

	return gravitational + (linear + centrifugal), nil
}

// FrenetFrame returns the rotation from the osculating frame of a trajectory
// passing through dof to T: it maps the canonical axes to the tangent, the
// normal and the binormal, in that order.
func FrenetFrame[I, T geometry.Frame](
	f ReferenceFrame[I, T],
	t geometry.Instant,
	dof physics.DegreesOfFreedom[T],
) (geometry.OrthogonalMap[geometry.Frenet[T], T], error) {
	velocity := dof.Velocity()
	acceleration, err := GeometricAcceleration(f, t, dof)
	if err != nil {
		return geometry.OrthogonalMap[geometry.Frenet[T], T]{}, err
	}
	return OsculatingFrame(velocity, acceleration)
}

// OsculatingFrame builds the Frenet frame of a (velocity, acceleration) pair.
func OsculatingFrame[T geometry.Frame](velocity, acceleration geometry.Vector[T]) (geometry.OrthogonalMap[geometry.Frenet[T], T], error) {
	normalAcceleration := acceleration.OrthogonalizationAgainst(velocity)
	if velocity.IsZero() || normalAcceleration.IsZero() ||
		normalAcceleration.Norm() <= 1e-12*acceleration.Norm() {
		return geometry.OrthogonalMap[geometry.Frenet[T], T]{},
			fmt.Errorf("v = %v, a = %v: %w", velocity, acceleration, ErrDegenerateFrenetFrame)
	}
	tangent := velocity.Unit()
	normal := normalAcceleration.Unit()
	binormal := tangent.Cross(normal)
	return geometry.MapToBasis[geometry.Frenet[T], T](tangent, normal, binormal), nil
}
