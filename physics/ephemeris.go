package physics

import (
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/signalsfoundry/frame-kinematics/geometry"
)

// ErrUnknownBody is returned when an ephemeris is asked about a body it does
// not hold.
var ErrUnknownBody = errors.New("physics: unknown body")

// Ephemeris gives the motion of massive bodies and the gravitational field
// they create in the inertial frame F. Queries outside [TMin, TMax] fail with
// ErrOutsideValidity.
type Ephemeris[F geometry.Frame] interface {
	Body(name string) (*MassiveBody, error)
	Bodies() []*MassiveBody

	DegreesOfFreedomOf(body *MassiveBody, t geometry.Instant) (DegreesOfFreedom[F], error)

	// GravitationalAccelerationOnMassiveBody excludes the body's own field.
	GravitationalAccelerationOnMassiveBody(body *MassiveBody, t geometry.Instant) (geometry.Vector[F], error)
	// GravitationalAccelerationOnMasslessBody points toward the attracting
	// masses.
	GravitationalAccelerationOnMasslessBody(q geometry.Position[F], t geometry.Instant) (geometry.Vector[F], error)
	// GravitationalPotential is such that the acceleration is minus its
	// gradient.
	GravitationalPotential(q geometry.Position[F], t geometry.Instant) (float64, error)

	TMin() geometry.Instant
	TMax() geometry.Instant
}

// PointMassEphemeris is an Ephemeris of Newtonian point masses whose motion is
// read from discrete trajectories. Bodies are registered at setup; afterwards
// the ephemeris may be read concurrently as long as the trajectories are not
// appended to.
type PointMassEphemeris[F geometry.Frame] struct {
	mu           sync.RWMutex
	bodies       []*MassiveBody
	byName       map[string]*MassiveBody
	trajectories map[*MassiveBody]*DiscreteTrajectory[F]
}

// NewPointMassEphemeris returns an ephemeris with no bodies.
func NewPointMassEphemeris[F geometry.Frame]() *PointMassEphemeris[F] {
	return &PointMassEphemeris[F]{
		byName:       make(map[string]*MassiveBody),
		trajectories: make(map[*MassiveBody]*DiscreteTrajectory[F]),
	}
}

// AddBody registers a body and the trajectory describing its motion. It
// returns an error if a body with the same name already exists.
func (e *PointMassEphemeris[F]) AddBody(body *MassiveBody, trajectory *DiscreteTrajectory[F]) error {
	if body == nil || trajectory == nil {
		return fmt.Errorf("physics: AddBody requires a body and a trajectory")
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.byName[body.Name]; exists {
		return fmt.Errorf("body with name %q already exists", body.Name)
	}
	e.bodies = append(e.bodies, body)
	e.byName[body.Name] = body
	e.trajectories[body] = trajectory
	return nil
}

// Body returns the body with the given name.
func (e *PointMassEphemeris[F]) Body(name string) (*MassiveBody, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b, ok := e.byName[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownBody)
	}
	return b, nil
}

// Bodies returns the registered bodies in registration order.
func (e *PointMassEphemeris[F]) Bodies() []*MassiveBody {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]*MassiveBody, len(e.bodies))
	copy(out, e.bodies)
	return out
}

// TrajectoryOf returns the trajectory registered for body.
func (e *PointMassEphemeris[F]) TrajectoryOf(body *MassiveBody) (*DiscreteTrajectory[F], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	tr, ok := e.trajectories[body]
	if !ok {
		return nil, fmt.Errorf("%q: %w", bodyName(body), ErrUnknownBody)
	}
	return tr, nil
}

// TMin is the latest start of the body trajectories.
func (e *PointMassEphemeris[F]) TMin() geometry.Instant {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t := geometry.Instant(-inf)
	for _, tr := range e.trajectories {
		t = geometry.Instant(math.Max(float64(t), float64(tr.TMin())))
	}
	return t
}

// TMax is the earliest end of the body trajectories.
func (e *PointMassEphemeris[F]) TMax() geometry.Instant {
	e.mu.RLock()
	defer e.mu.RUnlock()
	t := geometry.Instant(inf)
	for _, tr := range e.trajectories {
		t = geometry.Instant(math.Min(float64(t), float64(tr.TMax())))
	}
	return t
}

func (e *PointMassEphemeris[F]) DegreesOfFreedomOf(body *MassiveBody, t geometry.Instant) (DegreesOfFreedom[F], error) {
	tr, err := e.TrajectoryOf(body)
	if err != nil {
		return DegreesOfFreedom[F]{}, err
	}
	dof, err := tr.EvaluateDegreesOfFreedom(t)
	if err != nil {
		return DegreesOfFreedom[F]{}, fmt.Errorf("state of %q: %w", body.Name, err)
	}
	return dof, nil
}

func (e *PointMassEphemeris[F]) GravitationalAccelerationOnMassiveBody(body *MassiveBody, t geometry.Instant) (geometry.Vector[F], error) {
	q, err := e.DegreesOfFreedomOf(body, t)
	if err != nil {
		return geometry.Vector[F]{}, err
	}
	return e.accelerationAt(q.Position(), t, body)
}

func (e *PointMassEphemeris[F]) GravitationalAccelerationOnMasslessBody(q geometry.Position[F], t geometry.Instant) (geometry.Vector[F], error) {
	return e.accelerationAt(q, t, nil)
}

func (e *PointMassEphemeris[F]) GravitationalPotential(q geometry.Position[F], t geometry.Instant) (float64, error) {
	potential := 0.0
	err := e.forEachSource(t, nil, func(body *MassiveBody, r geometry.Vector[F]) {
		potential -= body.GravitationalParameter / r.Norm()
	}, q)
	return potential, err
}

// accelerationAt sums μ r / |r|³ over the bodies other than exclude, with r
// the displacement from q to the body.
func (e *PointMassEphemeris[F]) accelerationAt(q geometry.Position[F], t geometry.Instant, exclude *MassiveBody) (geometry.Vector[F], error) {
	var acceleration geometry.Vector[F]
	err := e.forEachSource(t, exclude, func(body *MassiveBody, r geometry.Vector[F]) {
		n2 := r.Norm2()
		acceleration = acceleration.Add(r.Scale(body.GravitationalParameter / (n2 * math.Sqrt(n2))))
	}, q)
	return acceleration, err
}

func (e *PointMassEphemeris[F]) forEachSource(
	t geometry.Instant,
	exclude *MassiveBody,
	fn func(body *MassiveBody, r geometry.Vector[F]),
	q geometry.Position[F],
) error {
	if t.Before(e.TMin()) || t.After(e.TMax()) {
		return fmt.Errorf("field at %v: %w", t, ErrOutsideValidity)
	}
	for _, body := range e.Bodies() {
		if body == exclude {
			continue
		}
		tr, err := e.TrajectoryOf(body)
		if err != nil {
			return err
		}
		position, err := tr.EvaluatePosition(t)
		if err != nil {
			return fmt.Errorf("position of %q: %w", body.Name, err)
		}
		fn(body, position.Sub(q))
	}
	return nil
}

func bodyName(b *MassiveBody) string {
	if b == nil {
		return "<nil>"
	}
	return b.Name
}
