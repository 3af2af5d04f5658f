package main

import (
	"context"
	"fmt"
	"io"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/frame-kinematics/frames"
	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/logging"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/kb"
	"github.com/signalsfoundry/frame-kinematics/model"
	"github.com/signalsfoundry/frame-kinematics/motion"
	"github.com/signalsfoundry/frame-kinematics/physics"
	"github.com/signalsfoundry/frame-kinematics/scenario"
	"github.com/signalsfoundry/frame-kinematics/transforms"
)

// Navigation is the frame described by the scenario frame descriptor.
type Navigation struct{}

func (Navigation) Name() string     { return "Navigation" }
func (Navigation) IsInertial() bool { return false }

// Rendering is the intermediate frame of the transform pipeline.
type Rendering struct{}

func (Rendering) Name() string     { return "Rendering" }
func (Rendering) IsInertial() bool { return false }

type tracked struct {
	def        *model.BodyDefinition
	model      motion.MotionModel[geometry.ICRS]
	trajectory *physics.DiscreteTrajectory[geometry.ICRS]
	massive    *physics.MassiveBody
}

// simulation samples the motion of every body of a scenario into trajectories
// and exposes the massive ones as an ephemeris.
type simulation struct {
	store     *kb.KnowledgeBase
	bodies    []*tracked
	byID      map[string]*tracked
	ephemeris *physics.PointMassEphemeris[geometry.ICRS]
}

func newSimulation(store *kb.KnowledgeBase, sc *scenario.Scenario) (*simulation, error) {
	sim := &simulation{
		store:     store,
		byID:      make(map[string]*tracked),
		ephemeris: physics.NewPointMassEphemeris[geometry.ICRS](),
	}
	for _, def := range store.ListBodies() {
		m, err := motion.NewMotionModel[geometry.ICRS](def)
		if err != nil {
			return nil, err
		}
		b := &tracked{
			def:        def,
			model:      m,
			trajectory: physics.NewDiscreteTrajectory[geometry.ICRS](),
		}
		sim.bodies = append(sim.bodies, b)
		sim.byID[def.ID] = b
	}
	for _, def := range store.MassiveBodies() {
		b := sim.byID[def.ID]
		b.massive = massiveBody(def, sc.Epoch)
		if err := sim.ephemeris.AddBody(b.massive, b.trajectory); err != nil {
			return nil, err
		}
	}
	return sim, nil
}

func massiveBody(def *model.BodyDefinition, epoch geometry.Instant) *physics.MassiveBody {
	body := &physics.MassiveBody{
		Name:                   def.Name,
		GravitationalParameter: def.GravitationalParameter,
	}
	if r := def.Rotation; r != nil {
		body.Rotation = &physics.Rotation{
			Pole:             r3.Vec{X: r.Pole.X, Y: r.Pole.Y, Z: r.Pole.Z},
			AngularFrequency: r.AngularFrequency,
			ReferenceAngle:   r.ReferenceAngle,
			ReferenceInstant: epoch,
		}
	}
	return body
}

// sample is a timectrl.Listener appending the state of every body at t.
func (s *simulation) sample(_ context.Context, t geometry.Instant) error {
	for _, b := range s.bodies {
		dof, err := motion.Sample(b.trajectory, b.model, t)
		if err != nil {
			return fmt.Errorf("body %q: %w", b.def.ID, err)
		}
		c := dof.Position().Coordinates()
		if err := s.store.UpdateBodyPosition(b.def.ID, model.Motion{X: c.X, Y: c.Y, Z: c.Z}); err != nil {
			return err
		}
	}
	return nil
}

func (s *simulation) probes(ids []string) []*tracked {
	var out []*tracked
	for _, id := range ids {
		if b, ok := s.byID[id]; ok {
			out = append(out, b)
		}
	}
	return out
}

// reportKinematics prints, for every sample of every probe, the geometric
// acceleration in frame and its decomposition, the geometric potential and
// the tangent of the osculating frame.
func reportKinematics(
	ctx context.Context,
	out io.Writer,
	frame frames.ReferenceFrame[geometry.ICRS, Navigation],
	probes []*tracked,
) error {
	log := logging.FromContext(ctx)
	for _, p := range probes {
		for i := 0; i < p.trajectory.Len(); i++ {
			sample := p.trajectory.At(i)
			toFrame, err := frame.ToThisFrameAtTime(sample.Time)
			if err != nil {
				return fmt.Errorf("%s at t = %v: %w", p.def.ID, sample.Time, err)
			}
			dof := toFrame.Apply(sample.DegreesOfFreedom)

			terms, err := frames.ComputeGeometricAccelerations(frame, sample.Time, dof)
			if err != nil {
				return fmt.Errorf("%s at t = %v: %w", p.def.ID, sample.Time, err)
			}
			potential, err := frames.GeometricPotential(frame, sample.Time, dof.Position())
			if err != nil {
				return fmt.Errorf("%s at t = %v: %w", p.def.ID, sample.Time, err)
			}
			tangent := "-"
			if frenet, err := frames.OsculatingFrame(dof.Velocity(), terms.Sum()); err == nil {
				tangent = fmt.Sprintf("%.4f", frenet.Apply(geometry.NewVector[geometry.Frenet[Navigation]](1, 0, 0)).Coordinates())
			} else {
				log.Debug(ctx, "no osculating frame", logging.String("probe", p.def.ID), logging.Err(err))
			}

			fmt.Fprintf(out, "[%s] %-8s |a| = %9.4f m/s² grav=%9.4f lin=%.2e cor=%.2e cen=%.2e eul=%.2e V = %.6e J/kg T = %s\n",
				sample.Time.Time().Format("2006-01-02T15:04:05Z"),
				p.def.ID,
				terms.Sum().Norm(),
				terms.Gravitational.Norm(),
				terms.Linear.Norm(),
				terms.Coriolis.Norm(),
				terms.Centrifugal.Norm(),
				terms.Euler.Norm(),
				potential,
				tangent,
			)
		}
	}
	return nil
}

// renderPipeline runs every probe through the pipeline of the scenario and
// returns the number of samples rendered.
func renderPipeline(
	ctx context.Context,
	out io.Writer,
	sim *simulation,
	p *scenario.Pipeline,
	probes []*tracked,
	collector *observability.KinematicsCollector,
) (int, error) {
	log := logging.FromContext(ctx)

	rendered := 0
	for _, probe := range probes {
		// The cache of a pipeline is keyed by instant only, so each probe
		// needs its own.
		x, err := newPipeline(sim, p, collector)
		if err != nil {
			return rendered, err
		}
		through := physics.NewDiscreteTrajectory[Rendering]()
		if err := transforms.Drain(x.First(probe.trajectory), through); err != nil {
			return rendered, fmt.Errorf("%s: %w", probe.def.ID, err)
		}
		plotted := physics.NewDiscreteTrajectory[geometry.ICRS]()
		if err := transforms.Drain(x.Second(through), plotted); err != nil {
			return rendered, fmt.Errorf("%s: %w", probe.def.ID, err)
		}
		rendered += through.Len()

		back := through.Back()
		fmt.Fprintf(out, "%-8s in %s: %d samples, last q = %.1f m, v = %.3f m/s\n",
			probe.def.ID, p.Kind, through.Len(),
			back.DegreesOfFreedom.Position().Coordinates(),
			back.DegreesOfFreedom.Velocity().Coordinates())
		log.Debug(ctx, "rendered probe",
			logging.String("probe", probe.def.ID),
			logging.Int("samples", plotted.Len()),
			logging.Int("cached_instants", x.CacheLen()))
	}
	return rendered, nil
}

func newPipeline(
	sim *simulation,
	p *scenario.Pipeline,
	collector *observability.KinematicsCollector,
) (*transforms.Transforms[geometry.ICRS, Rendering, geometry.ICRS], error) {
	primary, ok := sim.byID[p.Primary]
	if !ok || primary.massive == nil {
		return nil, fmt.Errorf("pipeline body %q is not a massive body", p.Primary)
	}
	switch p.Kind {
	case scenario.PipelineBodyCentredNonRotating:
		return transforms.BodyCentredNonRotating[geometry.ICRS, Rendering, geometry.ICRS](
			primary.trajectory, primary.trajectory, transforms.WithMetrics(collector))
	case scenario.PipelineBarycentricRotating:
		secondary, ok := sim.byID[p.Secondary]
		if !ok || secondary.massive == nil {
			return nil, fmt.Errorf("pipeline body %q is not a massive body", p.Secondary)
		}
		return transforms.BarycentricRotating[geometry.ICRS, Rendering, geometry.ICRS](
			primary.massive, secondary.massive,
			primary.trajectory, primary.trajectory,
			secondary.trajectory, secondary.trajectory,
			transforms.WithMetrics(collector))
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q", p.Kind)
	}
}
