package frames

import (
	"fmt"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

// BarycentricRotating has its origin at the barycentre of two bodies. Its X
// axis points from the primary to the secondary, its Y axis is along the
// velocity of the secondary relative to the primary, and its Z axis completes
// a right-handed basis.
type BarycentricRotating[I, T geometry.Frame] struct {
	ephemerisField[I]
	primary, secondary *physics.MassiveBody
}

// NewBarycentricRotating returns the rotating frame of the pair.
func NewBarycentricRotating[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	primary, secondary *physics.MassiveBody,
) (*BarycentricRotating[I, T], error) {
	if ephemeris == nil {
		return nil, fmt.Errorf("frames: barycentric rotating frame requires an ephemeris")
	}
	if err := checkTwoBodies("barycentric rotating", primary, secondary); err != nil {
		return nil, err
	}
	if primary.GravitationalParameter+secondary.GravitationalParameter <= 0 {
		return nil, fmt.Errorf("frames: barycentre of %q and %q has no mass", primary.Name, secondary.Name)
	}
	return &BarycentricRotating[I, T]{
		ephemerisField: ephemerisField[I]{ephemeris: ephemeris},
		primary:        primary,
		secondary:      secondary,
	}, nil
}

func (f *BarycentricRotating[I, T]) Primary() *physics.MassiveBody   { return f.primary }
func (f *BarycentricRotating[I, T]) Secondary() *physics.MassiveBody { return f.secondary }

func (f *BarycentricRotating[I, T]) ToThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[I, T], error) {
	s, err := loadTwoBodyState(f.ephemeris, f.primary, f.secondary, t, false)
	if err != nil {
		return physics.RigidMotion[I, T]{}, err
	}
	m, err := f.motion(s)
	return m.RigidMotion(), err
}

func (f *BarycentricRotating[I, T]) FromThisFrameAtTime(t geometry.Instant) (physics.RigidMotion[T, I], error) {
	return fromThisFrame(f.ToThisFrameAtTime(t))
}

func (f *BarycentricRotating[I, T]) MotionOfThisFrame(t geometry.Instant) (physics.AcceleratedRigidMotion[I, T], error) {
	s, err := loadTwoBodyState(f.ephemeris, f.primary, f.secondary, t, true)
	if err != nil {
		return physics.AcceleratedRigidMotion[I, T]{}, err
	}
	return f.motion(s)
}

func (f *BarycentricRotating[I, T]) motion(s twoBodyState[I]) (physics.AcceleratedRigidMotion[I, T], error) {
	weights := []float64{f.primary.GravitationalParameter, f.secondary.GravitationalParameter}
	barycentre := physics.BarycentreOf([]physics.DegreesOfFreedom[I]{s.primary, s.secondary}, weights)
	acceleration := geometry.WeightedMean([]geometry.Vector[I]{s.primaryAcceleration, s.secondaryAcceleration}, weights)
	ṙ := s.secondary.Velocity().Sub(s.primary.Velocity())
	return rotatingMotion[I, T](s, barycentre, acceleration, ṙ)
}

func (f *BarycentricRotating[I, T]) WriteToMessage(d *Descriptor) {
	clearDescriptor(d)
	d.BarycentricRotating = &BarycentricRotatingPayload{
		Primary:   f.primary.Name,
		Secondary: f.secondary.Name,
	}
}

func (f *BarycentricRotating[I, T]) Variant() Variant { return VariantBarycentricRotating }

func readBarycentricRotating[I, T geometry.Frame](
	ephemeris physics.Ephemeris[I],
	p *BarycentricRotatingPayload,
) (*BarycentricRotating[I, T], error) {
	primary, err := ephemeris.Body(p.Primary)
	if err != nil {
		return nil, err
	}
	secondary, err := ephemeris.Body(p.Secondary)
	if err != nil {
		return nil, err
	}
	return NewBarycentricRotating[I, T](ephemeris, primary, secondary)
}
