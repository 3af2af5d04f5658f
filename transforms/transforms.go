// Package transforms renders trajectories through an intermediate, possibly
// rotating, frame: a trajectory in an inertial frame From is mapped into a
// frame Through attached to one or two bodies, then into an inertial frame To
// using the latest known state of those bodies in To.
//
// The trajectory rendered in To is not the trajectory of a body: its past
// changes every time the bodies defining Through move in To.
package transforms

import (
	"errors"
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/frames"
	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// ErrNonInertialFrame is returned by the factories when From or To is not an
// inertial frame.
var ErrNonInertialFrame = errors.New("transforms: From and To must be inertial frames")

const (
	stageFirst  = "first"
	stageSecond = "second"
)

// transform maps the state of a point at t from frame A to frame B.
type transform[A, B geometry.Frame] func(t geometry.Instant, dof physics.DegreesOfFreedom[A]) (physics.DegreesOfFreedom[B], error)

// Option configures a Transforms.
type Option func(*options)

type options struct {
	metrics *observability.KinematicsCollector
}

// WithMetrics records cache lookups and produced samples in c.
func WithMetrics(c *observability.KinematicsCollector) Option {
	return func(o *options) { o.metrics = c }
}

// Transforms is a pair of transformations From → Through → To with a cache of
// the results of the first one, keyed by instant. The cache assumes that the
// first transformation is never asked twice for the same instant with
// different degrees of freedom, i.e. that First is used to render a single
// trajectory.
//
// A Transforms is not safe for concurrent use.
type Transforms[From, Through, To geometry.Frame] struct {
	first  transform[From, Through]
	second transform[Through, To]

	cache   map[geometry.Instant]physics.DegreesOfFreedom[Through]
	metrics *observability.KinematicsCollector
}

func newTransforms[From, Through, To geometry.Frame](
	first transform[From, Through],
	second transform[Through, To],
	opts []Option,
) (*Transforms[From, Through, To], error) {
	if !geometry.IsInertial[From]() || !geometry.IsInertial[To]() {
		return nil, fmt.Errorf("%s → %s → %s: %w",
			geometry.FrameName[From](), geometry.FrameName[Through](), geometry.FrameName[To](), ErrNonInertialFrame)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &Transforms[From, Through, To]{
		first:   first,
		second:  second,
		cache:   make(map[geometry.Instant]physics.DegreesOfFreedom[Through]),
		metrics: o.metrics,
	}, nil
}

// BodyCentredNonRotating returns the transforms where Through has the axes of
// From and its origin at the body whose motion is given by fromCentre in From
// and by toCentre in To.
func BodyCentredNonRotating[From, Through, To geometry.Frame](
	fromCentre *physics.DiscreteTrajectory[From],
	toCentre *physics.DiscreteTrajectory[To],
	opts ...Option,
) (*Transforms[From, Through, To], error) {
	if fromCentre == nil || toCentre == nil {
		return nil, errors.New("transforms: body centred transforms require both centre trajectories")
	}
	first := func(t geometry.Instant, dof physics.DegreesOfFreedom[From]) (physics.DegreesOfFreedom[Through], error) {
		centre, err := fromCentre.EvaluateDegreesOfFreedom(t)
		if err != nil {
			return physics.DegreesOfFreedom[Through]{}, fmt.Errorf("centre in %s: %w", geometry.FrameName[From](), err)
		}
		motion := physics.NewRigidMotion(
			geometry.NewRigidTransformation(centre.Position(), geometry.Origin[Through](), geometry.IdentityMap[From, Through]()),
			geometry.Vector[From]{},
			centre.Velocity())
		return motion.Apply(dof), nil
	}
	second := func(_ geometry.Instant, dof physics.DegreesOfFreedom[Through]) (physics.DegreesOfFreedom[To], error) {
		centre, err := last(toCentre)
		if err != nil {
			return physics.DegreesOfFreedom[To]{}, err
		}
		motion := physics.NewRigidMotion(
			geometry.NewRigidTransformation(centre.Position(), geometry.Origin[Through](), geometry.IdentityMap[To, Through]()),
			geometry.Vector[To]{},
			centre.Velocity())
		return motion.Inverse().Apply(dof), nil
	}
	return newTransforms[From, Through, To](first, second, opts)
}

// BarycentricRotating returns the transforms where Through has its origin at
// the barycentre of primary and secondary, its X axis from the primary to the
// secondary, its Y axis in the plane of the barycentric velocities of the
// bodies, on the side of the velocity of the primary, and its Z axis
// completing a right-handed basis.
func BarycentricRotating[From, Through, To geometry.Frame](
	primary, secondary *physics.MassiveBody,
	fromPrimary *physics.DiscreteTrajectory[From],
	toPrimary *physics.DiscreteTrajectory[To],
	fromSecondary *physics.DiscreteTrajectory[From],
	toSecondary *physics.DiscreteTrajectory[To],
	opts ...Option,
) (*Transforms[From, Through, To], error) {
	if primary == nil || secondary == nil {
		return nil, errors.New("transforms: barycentric transforms require a primary and a secondary")
	}
	if fromPrimary == nil || toPrimary == nil || fromSecondary == nil || toSecondary == nil {
		return nil, errors.New("transforms: barycentric transforms require all four body trajectories")
	}
	weights := []float64{primary.GravitationalParameter, secondary.GravitationalParameter}
	if weights[0]+weights[1] <= 0 {
		return nil, fmt.Errorf("transforms: barycentre of %q and %q has no mass", primary.Name, secondary.Name)
	}

	first := func(t geometry.Instant, dof physics.DegreesOfFreedom[From]) (physics.DegreesOfFreedom[Through], error) {
		p, err := fromPrimary.EvaluateDegreesOfFreedom(t)
		if err != nil {
			return physics.DegreesOfFreedom[Through]{}, fmt.Errorf("%s in %s: %w", primary.Name, geometry.FrameName[From](), err)
		}
		s, err := fromSecondary.EvaluateDegreesOfFreedom(t)
		if err != nil {
			return physics.DegreesOfFreedom[Through]{}, fmt.Errorf("%s in %s: %w", secondary.Name, geometry.FrameName[From](), err)
		}
		motion, err := barycentricMotion[From, Through](p, s, weights)
		if err != nil {
			return physics.DegreesOfFreedom[Through]{}, err
		}
		return motion.Apply(dof), nil
	}
	second := func(_ geometry.Instant, dof physics.DegreesOfFreedom[Through]) (physics.DegreesOfFreedom[To], error) {
		p, err := last(toPrimary)
		if err != nil {
			return physics.DegreesOfFreedom[To]{}, fmt.Errorf("%s: %w", primary.Name, err)
		}
		s, err := last(toSecondary)
		if err != nil {
			return physics.DegreesOfFreedom[To]{}, fmt.Errorf("%s: %w", secondary.Name, err)
		}
		motion, err := barycentricMotion[To, Through](p, s, weights)
		if err != nil {
			return physics.DegreesOfFreedom[To]{}, err
		}
		return motion.Inverse().Apply(dof), nil
	}
	return newTransforms[From, Through, To](first, second, opts)
}

// barycentricMotion is the motion from F to the barycentric rotating frame B
// of the two bodies.
func barycentricMotion[F, B geometry.Frame](
	primary, secondary physics.DegreesOfFreedom[F],
	weights []float64,
) (physics.RigidMotion[F, B], error) {
	barycentre := physics.BarycentreOf([]physics.DegreesOfFreedom[F]{primary, secondary}, weights)
	r := secondary.Position().Sub(primary.Position())
	ṙ := secondary.Velocity().Sub(primary.Velocity())
	ex, ey, ez, err := frames.AxesFromDirections(r, primary.Velocity().Sub(barycentre.Velocity()))
	if err != nil {
		return physics.RigidMotion[F, B]{}, err
	}
	ω, _ := frames.RotatingAngularKinematics(r, ṙ, geometry.Vector[F]{})
	return physics.NewRigidMotion(
		geometry.NewRigidTransformation(barycentre.Position(), geometry.Origin[B](), geometry.MapFromBasis[F, B](ex, ey, ez)),
		ω,
		barycentre.Velocity()), nil
}

func last[F geometry.Frame](trajectory *physics.DiscreteTrajectory[F]) (physics.DegreesOfFreedom[F], error) {
	if trajectory.Empty() {
		return physics.DegreesOfFreedom[F]{}, fmt.Errorf("empty trajectory in %s: %w", geometry.FrameName[F](), physics.ErrOutsideValidity)
	}
	return trajectory.Back().DegreesOfFreedom, nil
}

// First returns an iterator over the samples of trajectory rendered in
// Through. Results are cached by instant: an instant already rendered by this
// Transforms is not recomputed.
func (x *Transforms[From, Through, To]) First(trajectory *physics.DiscreteTrajectory[From]) *TransformingIterator[From, Through] {
	return newTransformingIterator[From, Through](trajectory, x.cachedFirst, x.metrics, stageFirst)
}

// Second returns an iterator over the samples of trajectory rendered in To.
// It does not use the cache.
func (x *Transforms[From, Through, To]) Second(trajectory *physics.DiscreteTrajectory[Through]) *TransformingIterator[Through, To] {
	return newTransformingIterator[Through, To](trajectory, x.second, x.metrics, stageSecond)
}

// Cached returns the result of the first transformation at t, if it has been
// computed.
func (x *Transforms[From, Through, To]) Cached(t geometry.Instant) (physics.DegreesOfFreedom[Through], bool) {
	dof, ok := x.cache[t]
	return dof, ok
}

// CacheLen returns the number of cached instants.
func (x *Transforms[From, Through, To]) CacheLen() int { return len(x.cache) }

func (x *Transforms[From, Through, To]) cachedFirst(t geometry.Instant, dof physics.DegreesOfFreedom[From]) (physics.DegreesOfFreedom[Through], error) {
	if cached, ok := x.cache[t]; ok {
		x.metrics.ObserveCacheLookup(true)
		return cached, nil
	}
	x.metrics.ObserveCacheLookup(false)
	result, err := x.first(t, dof)
	if err != nil {
		return physics.DegreesOfFreedom[Through]{}, err
	}
	x.cache[t] = result
	x.metrics.SetCachedInstants(len(x.cache))
	return result, nil
}

// Drain consumes it and appends every sample it yields to dst.
func Drain[A, B geometry.Frame](it *TransformingIterator[A, B], dst *physics.DiscreteTrajectory[B]) error {
	for it.Next() {
		if err := dst.Append(it.Instant(), it.DegreesOfFreedom()); err != nil {
			return err
		}
	}
	return it.Err()
}
