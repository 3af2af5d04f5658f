package transforms

import (
	"fmt"
	"time"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// TransformingIterator walks a trajectory in frame A and yields its samples
// transformed to frame B, one per call to Next.
//
// The iterator is single pass and cannot be restarted. It covers the samples
// present in the source when it was created; samples appended afterwards are
// not visited. Iteration stops at the first failing transformation, whose
// error is reported by Err.
//
//	it := x.First(trajectory)
//	for it.Next() {
//		use(it.Instant(), it.DegreesOfFreedom())
//	}
//	if err := it.Err(); err != nil {
//		...
//	}
type TransformingIterator[A, B geometry.Frame] struct {
	source    *physics.DiscreteTrajectory[A]
	transform transform[A, B]
	metrics   *observability.KinematicsCollector
	stage     string

	next, end int
	busy      time.Duration // spent in transform

	t   geometry.Instant
	dof physics.DegreesOfFreedom[B]
	err error
}

func newTransformingIterator[A, B geometry.Frame](
	source *physics.DiscreteTrajectory[A],
	f transform[A, B],
	metrics *observability.KinematicsCollector,
	stage string,
) *TransformingIterator[A, B] {
	end := 0
	if source != nil {
		end = source.Len()
	}
	return &TransformingIterator[A, B]{
		source:    source,
		transform: f,
		metrics:   metrics,
		stage:     stage,
		end:       end,
	}
}

// Next advances to the next sample and reports whether there is one.
func (it *TransformingIterator[A, B]) Next() bool {
	if it.err != nil || it.next >= it.end {
		return false
	}
	sample := it.source.At(it.next)
	it.next++
	started := time.Now()
	dof, err := it.transform(sample.Time, sample.DegreesOfFreedom)
	it.busy += time.Since(started)
	if err != nil {
		it.err = fmt.Errorf("%s transform at t = %v: %w", it.stage, sample.Time, err)
		return false
	}
	it.t, it.dof = sample.Time, dof
	it.metrics.ObserveTransformedSample(it.stage)
	if it.next == it.end {
		it.metrics.ObserveTransformDuration(it.stage, it.busy)
	}
	return true
}

// Instant returns the time of the current sample.
func (it *TransformingIterator[A, B]) Instant() geometry.Instant { return it.t }

// DegreesOfFreedom returns the current sample, in B.
func (it *TransformingIterator[A, B]) DegreesOfFreedom() physics.DegreesOfFreedom[B] { return it.dof }

// Err returns the error that stopped the iteration, if any.
func (it *TransformingIterator[A, B]) Err() error { return it.err }
