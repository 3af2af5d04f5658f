package frames

import (
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// BodyCentredBodyDirection has its origin at the centre of the primary. Its X
// axis points to the secondary, its Y axis is along the velocity of the
// secondary relative to the primary, and its Z axis completes a right-handed
// basis (along the angular velocity of the pair).
type BodyCentredBodyDirection[I, T geometry.Frame] struct {
	ephemerisField[I]
	primary, secondary *physics.MassiveBody
}

// NewBodyCentredBodyDirection returns the frame of primary pointing at
// secondary.
func NewBodyCentredBodyDirection[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	primary, secondary *physics.MassiveBody,
) (*BodyCentredBodyDirection[I, T], error) {
	if ephemeris == nil {
		return nil, fmt.Errorf("frames: body-centred body-direction frame requires an ephemeris")
	}
	if err := checkTwoBodies("body-centred body-direction", primary, secondary); err != nil {
		return nil, err
	}
	return &BodyCentredBodyDirection[I, T]{
		ephemerisField: ephemerisField[I]{ephemeris: ephemeris},
		primary:        primary,
		secondary:      secondary,
	}, nil
}

func (f *BodyCentredBodyDirection[I, T]) Primary() *physics.MassiveBody   { return f.primary }
func (f *BodyCentredBodyDirection[I, T]) Secondary() *physics.MassiveBody { return f.secondary }

func (f *BodyCentredBodyDirection[I, T]) ToThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[I, T], error) {
	s, err := loadTwoBodyState(f.ephemeris, f.primary, f.secondary, t, false)
	if err != nil {
		return physics.RigidMotion[I, T]{}, err
	}
	m, err := f.motion(s)
	return m.RigidMotion(), err
}

func (f *BodyCentredBodyDirection[I, T]) FromThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[T, I], error) {
	return fromThisFrame(f.ToThisFrameAtTime(t))
}

func (f *BodyCentredBodyDirection[I, T]) MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error) {
	s, err := loadTwoBodyState(f.ephemeris, f.primary, f.secondary, t, true)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	return f.motion(s)
}

func (f *BodyCentredBodyDirection[I, T]) motion(s twoBodyState[I]) (physics.AcceleratedRigidMotion[I, T], error) {
	ṙ := s.secondary.Velocity().Sub(s.primary.Velocity())
	return rotatingMotion[I, T](s, s.primary, s.primaryAcceleration, ṙ)
}

func (f *BodyCentredBodyDirection[I, T]) WriteToMessage(d *Descriptor) {
	clearDescriptor(d)
	d.BodyCentredBodyDirection = &BodyCentredBodyDirectionPayload{
		Primary:   f.primary.Name,
		Secondary: f.secondary.Name,
	}
}

func (f *BodyCentredBodyDirection[I, T]) Variant() Variant { return VariantBodyCentredBodyDirection }

func readBodyCentredBodyDirection[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	p *BodyCentredBodyDirectionPayload,
) (*BodyCentredBodyDirection[I, T], error) {
	primary, err := ephemeris.Body(p.Primary)
	if err != nil {
		return nil, err
	}
	secondary, err := ephemeris.Body(p.Secondary)
	if err != nil {
		return nil, err
	}
	return NewBodyCentredBodyDirection[I, T](ephemeris, primary, secondary)
}
