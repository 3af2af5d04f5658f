package frames

import (
	"fmt"
	"math"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

type moving struct{}

func (moving) Name() string     { return "Moving" }
func (moving) IsInertial() bool { return false }

// keplerPair is an exact ephemeris of two point masses on Keplerian orbits
// about their barycentre, which drifts uniformly. The orbital plane is
// inclined so that no frame axis is trivially aligned with ICRS. With a zero
// eccentricity the orbits are circular and the separation is constant.
type keplerPair struct {
	primary, secondary *physics.MassiveBody
	separation         float64 // semi-major axis of the relative orbit
	eccentricity       float64
	inclination        float64
	drift              geometry.Vector[geometry.ICRS]
	tMin, tMax         geometry.Instant
}

func newKeplerPair() *keplerPair {
	return &keplerPair{
		primary: &physics.MassiveBody{
			Name:                   "Primary",
			GravitationalParameter: 3,
			Rotation: &physics.Rotation{
				Pole:             geometry.NewVector[geometry.ICRS](0, math.Sin(0.3), math.Cos(0.3)).Coordinates(),
				AngularFrequency: 0.4,
				ReferenceAngle:   0.2,
			},
		},
		secondary:   &physics.MassiveBody{Name: "Secondary", GravitationalParameter: 1},
		separation:  2,
		inclination: 0.5,
		drift:       geometry.NewVector[geometry.ICRS](0.3, -0.1, 0.05),
		tMin:        -100,
		tMax:        100,
	}
}

// newEccentricPair returns a pair whose separation and orbital angular
// velocity vary, so that rotating frames have a nonzero angular acceleration.
func newEccentricPair() *keplerPair {
	k := newKeplerPair()
	k.eccentricity = 0.3
	return k
}

func (k *keplerPair) mu() float64 {
	return k.primary.GravitationalParameter + k.secondary.GravitationalParameter
}

func (k *keplerPair) meanMotion() float64 {
	return math.Sqrt(k.mu() / (k.separation * k.separation * k.separation))
}

// eccentricAnomaly solves Kepler's equation E - e sin E = M.
func (k *keplerPair) eccentricAnomaly(m float64) float64 {
	e := k.eccentricity
	anomaly := m
	for i := 0; i < 50; i++ {
		step := (anomaly - e*math.Sin(anomaly) - m) / (1 - e*math.Cos(anomaly))
		anomaly -= step
		if math.Abs(step) < 1e-15 {
			break
		}
	}
	return anomaly
}

// relative returns the position, velocity and acceleration of the secondary
// with respect to the primary. The periapsis is at t = 0 on the X axis.
func (k *keplerPair) relative(t geometry.Instant) (r, v, a geometry.Vector[geometry.ICRS]) {
	n := k.meanMotion()
	e1 := geometry.NewVector[geometry.ICRS](1, 0, 0)
	e2 := geometry.NewVector[geometry.ICRS](0, math.Cos(k.inclination), math.Sin(k.inclination))
	d := k.separation
	b := d * math.Sqrt(1-k.eccentricity*k.eccentricity)

	anomaly := k.eccentricAnomaly(n * float64(t))
	c, s := math.Cos(anomaly), math.Sin(anomaly)
	rate := n / (1 - k.eccentricity*c)
	r = e1.Scale(d * (c - k.eccentricity)).Add(e2.Scale(b * s))
	v = e1.Scale(-d * s * rate).Add(e2.Scale(b * c * rate))
	a = r.Scale(-k.mu() / (r.Norm2() * r.Norm()))
	return r, v, a
}

func (k *keplerPair) share(body *physics.MassiveBody) (float64, error) {
	switch body {
	case k.primary:
		return -k.secondary.GravitationalParameter / k.mu(), nil
	case k.secondary:
		return k.primary.GravitationalParameter / k.mu(), nil
	}
	return 0, fmt.Errorf("%v: %w", body, physics.ErrUnknownBody)
}

func (k *keplerPair) check(t geometry.Instant) error {
	if t < k.tMin || t > k.tMax {
		return fmt.Errorf("t = %v: %w", t, physics.ErrOutsideValidity)
	}
	return nil
}

func (k *keplerPair) Body(name string) (*physics.MassiveBody, error) {
	for _, b := range k.Bodies() {
		if b.Name == name {
			return b, nil
		}
	}
	return nil, fmt.Errorf("%q: %w", name, physics.ErrUnknownBody)
}

func (k *keplerPair) Bodies() []*physics.MassiveBody {
	return []*physics.MassiveBody{k.primary, k.secondary}
}

func (k *keplerPair) DegreesOfFreedomOf(body *physics.MassiveBody, t geometry.Instant) (physics.DegreesOfFreedom[geometry.ICRS], error) {
	if err := k.check(t); err != nil {
		return physics.DegreesOfFreedom[geometry.ICRS]{}, err
	}
	f, err := k.share(body)
	if err != nil {
		return physics.DegreesOfFreedom[geometry.ICRS]{}, err
	}
	r, v, _ := k.relative(t)
	barycentre := geometry.Origin[geometry.ICRS]().Add(k.drift.Scale(float64(t)))
	return physics.NewDegreesOfFreedom(barycentre.Add(r.Scale(f)), k.drift.Add(v.Scale(f))), nil
}

func (k *keplerPair) GravitationalAccelerationOnMassiveBody(body *physics.MassiveBody, t geometry.Instant) (geometry.Vector[geometry.ICRS], error) {
	if err := k.check(t); err != nil {
		return geometry.Vector[geometry.ICRS]{}, err
	}
	f, err := k.share(body)
	if err != nil {
		return geometry.Vector[geometry.ICRS]{}, err
	}
	_, _, a := k.relative(t)
	return a.Scale(f), nil
}

func (k *keplerPair) GravitationalAccelerationOnMasslessBody(q geometry.Position[geometry.ICRS], t geometry.Instant) (geometry.Vector[geometry.ICRS], error) {
	var total geometry.Vector[geometry.ICRS]
	for _, b := range k.Bodies() {
		dof, err := k.DegreesOfFreedomOf(b, t)
		if err != nil {
			return geometry.Vector[geometry.ICRS]{}, err
		}
		r := dof.Position().Sub(q)
		total = total.Add(r.Scale(b.GravitationalParameter / (r.Norm2() * r.Norm())))
	}
	return total, nil
}

func (k *keplerPair) GravitationalPotential(q geometry.Position[geometry.ICRS], t geometry.Instant) (float64, error) {
	var total float64
	for _, b := range k.Bodies() {
		dof, err := k.DegreesOfFreedomOf(b, t)
		if err != nil {
			return 0, err
		}
		total -= b.GravitationalParameter / dof.Position().Sub(q).Norm()
	}
	return total, nil
}

func (k *keplerPair) TMin() geometry.Instant { return k.tMin }
func (k *keplerPair) TMax() geometry.Instant { return k.tMax }
