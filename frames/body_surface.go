package frames

import (
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// BodySurface has its origin at the centre of a rotating body and axes fixed
// to the body: Z along the pole, X along the reference meridian.
type BodySurface[I, T geometry.Frame] struct {
	ephemerisField[I]
	centre *physics.MassiveBody

	pole      geometry.Vector[I]
	reference geometry.Vector[I] // X axis at rotation angle 0
}

// NewBodySurface returns the frame fixed to centre, which must have rotation
// parameters.
func NewBodySurface[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	centre *physics.MassiveBody,
) (*BodySurface[I, T], error) {
	if ephemeris == nil || centre == nil {
		return nil, fmt.Errorf("frames: body surface frame requires an ephemeris and a centre")
	}
	if centre.Rotation == nil {
		return nil, fmt.Errorf("frames: body %q has no rotation", centre.Name)
	}
	pole := geometry.VectorOf[I](centre.Rotation.Pole)
	if pole.IsZero() {
		return nil, fmt.Errorf("frames: body %q has a zero pole: %w", centre.Name, ErrDegenerateBasis)
	}
	pole = pole.Unit()
	// The reference meridian is the projection of the inertial X axis on the
	// equator, or of the Y axis if the pole is along X.
	reference := geometry.NewVector[I](1, 0, 0).OrthogonalizationAgainst(pole)
	if reference.Norm() < 1e-6 {
		reference = geometry.NewVector[I](0, 1, 0).OrthogonalizationAgainst(pole)
	}
	return &BodySurface[I, T]{
		ephemerisField: ephemerisField[I]{ephemeris: ephemeris},
		centre:         centre,
		pole:           pole,
		reference:      reference.Unit(),
	}, nil
}

// Centre returns the body to which the frame is attached.
func (f *BodySurface[I, T]) Centre() *physics.MassiveBody { return f.centre }

func (f *BodySurface[I, T]) ToThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[I, T], error) {
	centre, err := f.ephemeris.DegreesOfFreedomOf(f.centre, t)
	if err != nil {
		return physics.RigidMotion[I, T]{}, err
	}
	spin := geometry.RotationAboutAxis[I, I](f.centre.Rotation.AngleAt(t), f.pole)
	x := spin.Apply(f.reference)
	y := f.pole.Cross(x)
	transformation := geometry.NewRigidTransformation(
		centre.Position(),
		geometry.Origin[T](),
		geometry.MapFromBasis[I, T](x, y, f.pole))
	ω := f.pole.Scale(f.centre.Rotation.AngularFrequency)
	return physics.NewRigidMotion(transformation, ω, centre.Velocity()), nil
}

func (f *BodySurface[I, T]) FromThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[T, I], error) {
	return fromThisFrame(f.ToThisFrameAtTime(t))
}

func (f *BodySurface[I, T]) MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error) {
	motion, err := f.ToThisFrameAtTime(t)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	acceleration, err := f.ephemeris.GravitationalAccelerationOnMassiveBody(f.centre, t)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	// Uniform rotation: no angular acceleration.
	return physics.NewAcceleratedRigidMotion(motion, geometry.Vector[I]{}, acceleration), nil
}

func (f *BodySurface[I, T]) WriteToMessage(d *Descriptor) {
	clearDescriptor(d)
	d.BodySurface = &BodySurfacePayload{Centre: f.centre.Name}
}

func (f *BodySurface[I, T]) Variant() Variant { return VariantBodySurface }

func readBodySurface[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	p *BodySurfacePayload,
) (*BodySurface[I, T], error) {
	centre, err := ephemeris.Body(p.Centre)
	if err != nil {
		return nil, err
	}
	return NewBodySurface[I, T](ephemeris, centre)
}
