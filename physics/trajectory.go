package physics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/signalsfoundry/frame-kinematics/geometry"
)

var (
	// ErrNonMonotonicTime is returned when a sample is appended at or before
	// the last instant of a trajectory.
	ErrNonMonotonicTime = errors.New("physics: sample time is not after the last sample")
	// ErrOutsideValidity is returned for queries outside the time span
	// covered by a trajectory or an ephemeris.
	ErrOutsideValidity = errors.New("physics: instant outside validity window")
)

// Sample is one timestamped state of a trajectory.
type Sample[F geometry.Frame] struct {
	Time             geometry.Instant
	DegreesOfFreedom DegreesOfFreedom[F]
}

// DiscreteTrajectory is an append-only, strictly time-ordered sequence of
// samples. It is not safe for concurrent mutation; readers must not run
// concurrently with Append.
type DiscreteTrajectory[F geometry.Frame] struct {
	samples []Sample[F]
}

// NewDiscreteTrajectory returns an empty trajectory.
func NewDiscreteTrajectory[F geometry.Frame]() *DiscreteTrajectory[F] {
	return &DiscreteTrajectory[F]{}
}

// Append adds a sample after the last one.
func (d *DiscreteTrajectory[F]) Append(t geometry.Instant, dof DegreesOfFreedom[F]) error {
	if n := len(d.samples); n > 0 && !t.After(d.samples[n-1].Time) {
		return fmt.Errorf("append at %v after %v: %w", t, d.samples[n-1].Time, ErrNonMonotonicTime)
	}
	d.samples = append(d.samples, Sample[F]{Time: t, DegreesOfFreedom: dof})
	return nil
}

// Len returns the number of samples.
func (d *DiscreteTrajectory[F]) Len() int { return len(d.samples) }

// Empty reports whether the trajectory has no samples.
func (d *DiscreteTrajectory[F]) Empty() bool { return len(d.samples) == 0 }

// At returns the i-th sample. It panics if i is out of range.
func (d *DiscreteTrajectory[F]) At(i int) Sample[F] { return d.samples[i] }

// Back returns the last sample. It panics on an empty trajectory.
func (d *DiscreteTrajectory[F]) Back() Sample[F] { return d.samples[len(d.samples)-1] }

// TMin returns the time of the first sample, or +∞ on an empty trajectory.
func (d *DiscreteTrajectory[F]) TMin() geometry.Instant {
	if d.Empty() {
		return geometry.Instant(inf)
	}
	return d.samples[0].Time
}

// TMax returns the time of the last sample, or -∞ on an empty trajectory.
func (d *DiscreteTrajectory[F]) TMax() geometry.Instant {
	if d.Empty() {
		return geometry.Instant(-inf)
	}
	return d.samples[len(d.samples)-1].Time
}

// Find returns the sample at exactly t, if any.
func (d *DiscreteTrajectory[F]) Find(t geometry.Instant) (Sample[F], bool) {
	i := d.lowerBound(t)
	if i < len(d.samples) && d.samples[i].Time == t {
		return d.samples[i], true
	}
	return Sample[F]{}, false
}

// EvaluateDegreesOfFreedom returns the state at t. Samples are returned
// exactly; between samples the state is a cubic Hermite interpolation of the
// neighbouring positions and velocities.
func (d *DiscreteTrajectory[F]) EvaluateDegreesOfFreedom(t geometry.Instant) (DegreesOfFreedom[F], error) {
	if d.Empty() || t.Before(d.TMin()) || t.After(d.TMax()) {
		return DegreesOfFreedom[F]{}, fmt.Errorf("evaluate at %v in [%v, %v]: %w", t, d.TMin(), d.TMax(), ErrOutsideValidity)
	}
	i := d.lowerBound(t)
	upper := d.samples[i]
	if upper.Time == t {
		return upper.DegreesOfFreedom, nil
	}
	return hermite(d.samples[i-1], upper, t), nil
}

// EvaluatePosition returns the position at t; see EvaluateDegreesOfFreedom.
func (d *DiscreteTrajectory[F]) EvaluatePosition(t geometry.Instant) (geometry.Position[F], error) {
	dof, err := d.EvaluateDegreesOfFreedom(t)
	if err != nil {
		return geometry.Position[F]{}, err
	}
	return dof.Position(), nil
}

func (d *DiscreteTrajectory[F]) lowerBound(t geometry.Instant) int {
	return sort.Search(len(d.samples), func(i int) bool { return !d.samples[i].Time.Before(t) })
}

func hermite[F geometry.Frame](lower, upper Sample[F], t geometry.Instant) DegreesOfFreedom[F] {
	h := upper.Time.Sub(lower.Time).Seconds()
	s := t.Sub(lower.Time).Seconds() / h
	s2, s3 := s*s, s*s*s

	p0 := lower.DegreesOfFreedom.position.Sub(geometry.Origin[F]())
	p1 := upper.DegreesOfFreedom.position.Sub(geometry.Origin[F]())
	v0 := lower.DegreesOfFreedom.velocity.Scale(h)
	v1 := upper.DegreesOfFreedom.velocity.Scale(h)

	q := p0.Scale(2*s3 - 3*s2 + 1).
		Add(v0.Scale(s3 - 2*s2 + s)).
		Add(p1.Scale(-2*s3 + 3*s2)).
		Add(v1.Scale(s3 - s2))
	v := p0.Scale(6*s2 - 6*s).
		Add(v0.Scale(3*s2 - 4*s + 1)).
		Add(p1.Scale(-6*s2 + 6*s)).
		Add(v1.Scale(3*s2 - 2*s)).
		Scale(1 / h)
	return DegreesOfFreedom[F]{position: geometry.Origin[F]().Add(q), velocity: v}
}
