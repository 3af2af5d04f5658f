package frames

import (
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// BodyCentredNonRotating has its origin at the centre of a body and axes
// parallel to those of the inertial frame.
type BodyCentredNonRotating[I, T geometry.Frame] struct {
	ephemerisField[I]
	centre *physics.MassiveBody
}

// NewBodyCentredNonRotating returns the frame centred on centre.
func NewBodyCentredNonRotating[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	centre *physics.MassiveBody,
) (*BodyCentredNonRotating[I, T], error) {
	if ephemeris == nil || centre == nil {
		return nil, fmt.Errorf("frames: body-centred non-rotating frame requires an ephemeris and a centre")
	}
	return &BodyCentredNonRotating[I, T]{ephemerisField: ephemerisField[I]{ephemeris: ephemeris}, centre: centre}, nil
}

// Centre returns the body at the origin of the frame.
func (f *BodyCentredNonRotating[I, T]) Centre() *physics.MassiveBody { return f.centre }

func (f *BodyCentredNonRotating[I, T]) ToThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[I, T], error) {
	centre, err := f.ephemeris.DegreesOfFreedomOf(f.centre, t)
	if err != nil {
		return physics.RigidMotion[I, T]{}, err
	}
	transformation := geometry.NewRigidTransformation(
		centre.Position(),
		geometry.Origin[T](),
		geometry.IdentityMap[I, T]())
	return physics.NewRigidMotion(transformation, geometry.Vector[I]{}, centre.Velocity()), nil
}

func (f *BodyCentredNonRotating[I, T]) FromThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[T, I], error) {
	return fromThisFrame(f.ToThisFrameAtTime(t))
}

func (f *BodyCentredNonRotating[I, T]) MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error) {
	motion, err := f.ToThisFrameAtTime(t)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	acceleration, err := f.ephemeris.GravitationalAccelerationOnMassiveBody(f.centre, t)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	return physics.NewAcceleratedRigidMotion(motion, geometry.Vector[I]{}, acceleration), nil
}

func (f *BodyCentredNonRotating[I, T]) WriteToMessage(d *Descriptor) {
	clearDescriptor(d)
	d.BodyCentredNonRotating = &BodyCentredNonRotatingPayload{Centre: f.centre.Name}
}

func (f *BodyCentredNonRotating[I, T]) Variant() Variant { return VariantBodyCentredNonRotating }

func readBodyCentredNonRotating[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	p *BodyCentredNonRotatingPayload,
) (*BodyCentredNonRotating[I, T], error) {
	centre, err := ephemeris.Body(p.Centre)
	if err != nil {
		return nil, err
	}
	return NewBodyCentredNonRotating[I, T](ephemeris, centre)
}
