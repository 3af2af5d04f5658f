// Package motion samples the trajectories of scenario bodies from simple
// motion models.
package motion

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/model"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// ErrPropagationFailed is returned when SGP4 cannot produce a state, e.g.
// after orbital decay.
var ErrPropagationFailed = errors.New("motion: SGP4 propagation failed")

// MotionModel gives the state of a body in frame F at any instant.
type MotionModel[F geometry.Frame] interface {
	DegreesOfFreedomAt(t geometry.Instant) (physics.DegreesOfFreedom[F], error)
}

// StaticMotionModel keeps a body at rest.
type StaticMotionModel[F geometry.Frame] struct {
	Position geometry.Position[F]
}

func (m *StaticMotionModel[F]) DegreesOfFreedomAt(geometry.Instant) (physics.DegreesOfFreedom[F], error) {
	return physics.AtRest(m.Position), nil
}

// CircularMotionModel moves a body at constant speed on a circle.
type CircularMotionModel[F geometry.Frame] struct {
	centre geometry.Position[F]
	u, v   geometry.Vector[F] // orthonormal basis of the orbital plane
	radius float64
	n      float64 // rad/s
	phase  float64
	epoch  geometry.Instant
}

// NewCircularMotionModel returns the circular orbit described by o.
func NewCircularMotionModel[F geometry.Frame](o model.CircularOrbit) (*CircularMotionModel[F], error) {
	if o.Radius <= 0 || o.Period == 0 {
		return nil, fmt.Errorf("motion: circular orbit needs a positive radius and a nonzero period, got r = %v, T = %v", o.Radius, o.Period)
	}
	normal := geometry.VectorOf[F](coordinates(o.Normal))
	if normal.IsZero() {
		normal = geometry.NewVector[F](0, 0, 1)
	}
	normal = normal.Unit()
	u := geometry.NewVector[F](1, 0, 0).OrthogonalizationAgainst(normal)
	if u.Norm() < 1e-6 {
		u = geometry.NewVector[F](0, 1, 0).OrthogonalizationAgainst(normal)
	}
	u = u.Unit()
	return &CircularMotionModel[F]{
		centre: geometry.PositionOf[F](coordinates(o.Centre)),
		u:      u,
		v:      normal.Cross(u),
		radius: o.Radius,
		n:      2 * math.Pi / o.Period,
		phase:  o.PhaseAtZero,
		epoch:  o.Epoch,
	}, nil
}

func (m *CircularMotionModel[F]) DegreesOfFreedomAt(t geometry.Instant) (physics.DegreesOfFreedom[F], error) {
	θ := m.phase + m.n*t.Sub(m.epoch).Seconds()
	c, s := math.Cos(θ), math.Sin(θ)
	position := m.centre.Add(m.u.Scale(m.radius * c).Add(m.v.Scale(m.radius * s)))
	velocity := m.u.Scale(-m.radius * m.n * s).Add(m.v.Scale(m.radius * m.n * c))
	return physics.NewDegreesOfFreedom(position, velocity), nil
}

// OrbitalSGP4MotionModel uses a TLE and SGP4 to compute the state of a
// satellite. go-satellite works in kilometres in TEME; states are returned in
// metres, TEME being taken as F.
type OrbitalSGP4MotionModel[F geometry.Frame] struct {
	sat satellite.Satellite
}

// NewOrbitalModelFromTLE constructs an orbital model from TLE lines.
func NewOrbitalModelFromTLE[F geometry.Frame](line1, line2 string) (*OrbitalSGP4MotionModel[F], error) {
	if line1 == "" || line2 == "" {
		return nil, errors.New("motion: missing TLE line")
	}
	sat := satellite.TLEToSat(line1, line2, satellite.GravityWGS72)
	return &OrbitalSGP4MotionModel[F]{sat: sat}, nil
}

// DegreesOfFreedomAt propagates the satellite to t. SGP4 is evaluated at a
// whole second of UTC.
func (m *OrbitalSGP4MotionModel[F]) DegreesOfFreedomAt(t geometry.Instant) (physics.DegreesOfFreedom[F], error) {
	utc := t.Time().UTC().Round(time.Second)
	year, month, day := utc.Date()
	hour, min, sec := utc.Clock()

	posECI, velECI := satellite.Propagate(m.sat, year, int(month), day, hour, min, sec)
	if isNaN(posECI) || isNaN(velECI) {
		return physics.DegreesOfFreedom[F]{}, fmt.Errorf("at %s: %w", utc.Format(time.RFC3339), ErrPropagationFailed)
	}

	const kmToM = 1000.0
	return physics.NewDegreesOfFreedom(
		geometry.NewPosition[F](posECI.X*kmToM, posECI.Y*kmToM, posECI.Z*kmToM),
		geometry.NewVector[F](velECI.X*kmToM, velECI.Y*kmToM, velECI.Z*kmToM)), nil
}

// NewMotionModel chooses the motion model of a body from its definition.
func NewMotionModel[F geometry.Frame](b *model.BodyDefinition) (MotionModel[F], error) {
	switch b.MotionSource {
	case model.MotionSourceCircular:
		if b.Orbit == nil {
			return nil, fmt.Errorf("motion: body %q has circular motion but no orbit", b.ID)
		}
		m, err := NewCircularMotionModel[F](*b.Orbit)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.ID, err)
		}
		return m, nil
	case model.MotionSourceSpacetrack:
		m, err := NewOrbitalModelFromTLE[F](b.TLE1, b.TLE2)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", b.ID, err)
		}
		return m, nil
	default:
		return &StaticMotionModel[F]{Position: geometry.PositionOf[F](coordinates(b.Coordinates))}, nil
	}
}

// Sample appends the state of m at t to trajectory.
func Sample[F geometry.Frame](trajectory *physics.DiscreteTrajectory[F], m MotionModel[F], t geometry.Instant) (physics.DegreesOfFreedom[F], error) {
	dof, err := m.DegreesOfFreedomAt(t)
	if err != nil {
		return physics.DegreesOfFreedom[F]{}, err
	}
	if err := trajectory.Append(t, dof); err != nil {
		return physics.DegreesOfFreedom[F]{}, err
	}
	return dof, nil
}

func coordinates(m model.Motion) r3.Vec { return r3.Vec{X: m.X, Y: m.Y, Z: m.Z} }

func isNaN(v satellite.Vector3) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}
