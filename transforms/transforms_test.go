package transforms

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

type from struct{}

func (from) Name() string     { return "From" }
func (from) IsInertial() bool { return true }

type through struct{}

func (through) Name() string     { return "Through" }
func (through) IsInertial() bool { return false }

type to struct{}

func (to) Name() string     { return "To" }
func (to) IsInertial() bool { return true }

const numberOfPoints = 20

// linearTrajectory samples i·position, i·velocity at the instants first,
// first+1, ..., numberOfPoints-1.
func linearTrajectory[F geometry.Frame](t *testing.T, first int, position, velocity r3.Vec) *physics.DiscreteTrajectory[F] {
	t.Helper()
	trajectory := physics.NewDiscreteTrajectory[F]()
	for i := first; i < numberOfPoints; i++ {
		dof := physics.NewDegreesOfFreedom(
			geometry.PositionOf[F](r3.Scale(float64(i), position)),
			geometry.VectorOf[F](r3.Scale(float64(i), velocity)))
		if err := trajectory.Append(geometry.Instant(i), dof); err != nil {
			t.Fatalf("Append(%d): %v", i, err)
		}
	}
	return trajectory
}

type fixture struct {
	body                       *physics.DiscreteTrajectory[from]
	body1From, body2From       *physics.DiscreteTrajectory[from]
	body1To, body2To           *physics.DiscreteTrajectory[to]
	body1Massive, body2Massive *physics.MassiveBody
}

func newFixture(t *testing.T, first int) fixture {
	return fixture{
		body:      linearTrajectory[from](t, first, r3.Vec{X: 10, Y: -20, Z: 30}, r3.Vec{X: 40, Y: -80, Z: 160}),
		body1From: linearTrajectory[from](t, first, r3.Vec{X: 1, Y: 2, Z: 3}, r3.Vec{X: 4, Y: 8, Z: 16}),
		body2From: linearTrajectory[from](t, first, r3.Vec{X: -1, Y: -2, Z: 3}, r3.Vec{X: 4, Y: 8, Z: -16}),
		body1To:   linearTrajectory[to](t, first, r3.Vec{X: 3, Y: 1, Z: 2}, r3.Vec{X: 16, Y: 8, Z: 4}),
		body2To:   linearTrajectory[to](t, first, r3.Vec{X: 3, Y: -1, Z: -2}, r3.Vec{X: -16, Y: 4, Z: 8}),

		body1Massive: &physics.MassiveBody{Name: "Body1", GravitationalParameter: 3},
		body2Massive: &physics.MassiveBody{Name: "Body2", GravitationalParameter: 1},
	}
}

func TestBodyCentredNonRotatingFirst(t *testing.T) {
	f := newFixture(t, 0)
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To)
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}

	i := 0
	for it := x.First(f.body); it.Next(); i++ {
		if it.Instant() != geometry.Instant(i) {
			t.Fatalf("sample %d at t = %v", i, it.Instant())
		}
		n := float64(i)
		wantPosition := geometry.NewPosition[through](9*n, -22*n, 27*n)
		wantVelocity := geometry.NewVector[through](36*n, -88*n, 144*n)
		dof := it.DegreesOfFreedom()
		if dof.Position() != wantPosition {
			t.Fatalf("position at %d = %v, want %v", i, dof.Position(), wantPosition)
		}
		if dof.Velocity() != wantVelocity {
			t.Fatalf("velocity at %d = %v, want %v", i, dof.Velocity(), wantVelocity)
		}
	}
	if i != numberOfPoints {
		t.Fatalf("yielded %d samples, want %d", i, numberOfPoints)
	}
}

func TestBodyCentredNonRotatingSecondUsesLastCentre(t *testing.T) {
	f := newFixture(t, 0)
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To)
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}
	rendered := physics.NewDiscreteTrajectory[through]()
	if err := Drain(x.First(f.body), rendered); err != nil {
		t.Fatalf("Drain first: %v", err)
	}
	final := physics.NewDiscreteTrajectory[to]()
	if err := Drain(x.Second(rendered), final); err != nil {
		t.Fatalf("Drain second: %v", err)
	}
	if final.Len() != numberOfPoints {
		t.Fatalf("second yielded %d samples, want %d", final.Len(), numberOfPoints)
	}

	centre := f.body1To.Back().DegreesOfFreedom
	for i := 0; i < final.Len(); i++ {
		n := float64(i)
		got := final.At(i).DegreesOfFreedom
		want := centre.Position().Add(geometry.NewVector[to](9*n, -22*n, 27*n))
		if d := got.Position().Sub(want).Norm(); d > 1e-12 {
			t.Fatalf("position at %d = %v, want %v", i, got.Position(), want)
		}
		wantVelocity := centre.Velocity().Add(geometry.NewVector[to](36*n, -88*n, 144*n))
		if d := got.Velocity().Sub(wantVelocity).Norm(); d > 1e-12 {
			t.Fatalf("velocity at %d = %v, want %v", i, got.Velocity(), wantVelocity)
		}
	}
}

func TestFirstCachesEveryInstant(t *testing.T) {
	f := newFixture(t, 0)
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewKinematicsCollector(reg)
	if err != nil {
		t.Fatalf("NewKinematicsCollector: %v", err)
	}
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To, WithMetrics(metrics))
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}

	emitted := map[geometry.Instant]physics.DegreesOfFreedom[through]{}
	it := x.First(f.body)
	for it.Next() {
		emitted[it.Instant()] = it.DegreesOfFreedom()
	}
	if err := it.Err(); err != nil {
		t.Fatalf("First: %v", err)
	}
	if x.CacheLen() != numberOfPoints {
		t.Fatalf("cache holds %d instants, want %d", x.CacheLen(), numberOfPoints)
	}
	for instant, dof := range emitted {
		cached, ok := x.Cached(instant)
		if !ok {
			t.Fatalf("instant %v not cached", instant)
		}
		if cached != dof {
			t.Fatalf("cached %v differs from emitted %v", cached, dof)
		}
	}
	if _, ok := x.Cached(0.5); ok {
		t.Fatalf("unexpected cache entry between samples")
	}

	// A second traversal is served from the cache.
	for it := x.First(f.body); it.Next(); {
	}
	if got := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")); got != numberOfPoints {
		t.Fatalf("cache misses = %v, want %d", got, numberOfPoints)
	}
	if got := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")); got != numberOfPoints {
		t.Fatalf("cache hits = %v, want %d", got, numberOfPoints)
	}
	if got := testutil.ToFloat64(metrics.TransformedSamples.WithLabelValues("first")); got != 2*numberOfPoints {
		t.Fatalf("transformed samples = %v, want %d", got, 2*numberOfPoints)
	}
	if got := testutil.ToFloat64(metrics.CachedInstants); got != numberOfPoints {
		t.Fatalf("cached instants gauge = %v, want %d", got, numberOfPoints)
	}
}

type row struct {
	T        float64
	Position r3.Vec
	Velocity r3.Vec
}

func render(t *testing.T, f fixture) []row {
	t.Helper()
	x, err := BarycentricRotating[from, through, to](
		f.body1Massive, f.body2Massive, f.body1From, f.body1To, f.body2From, f.body2To)
	if err != nil {
		t.Fatalf("BarycentricRotating: %v", err)
	}
	var rows []row
	it := x.First(f.body)
	for it.Next() {
		dof := it.DegreesOfFreedom()
		rows = append(rows, row{
			T:        float64(it.Instant()),
			Position: dof.Position().Coordinates(),
			Velocity: dof.Velocity().Coordinates(),
		})
	}
	if err := it.Err(); err != nil {
		t.Fatalf("First: %v", err)
	}
	return rows
}

func TestPipelineIsDeterministic(t *testing.T) {
	f := newFixture(t, 1)
	first := render(t, f)
	second := render(t, newFixture(t, 1))
	if len(first) != numberOfPoints-1 {
		t.Fatalf("rendered %d samples, want %d", len(first), numberOfPoints-1)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("rendering differs between runs (-first +second):\n%s", diff)
	}
}

func TestBarycentricRotatingAxes(t *testing.T) {
	f := newFixture(t, 1)
	x, err := BarycentricRotating[from, through, to](
		f.body1Massive, f.body2Massive, f.body1From, f.body1To, f.body2From, f.body2To)
	if err != nil {
		t.Fatalf("BarycentricRotating: %v", err)
	}
	bodies := physics.NewDiscreteTrajectory[from]()
	for i := 1; i < numberOfPoints; i++ {
		if err := bodies.Append(geometry.Instant(i), f.body2From.At(i-1).DegreesOfFreedom); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	for it := x.First(bodies); it.Next(); {
		// The secondary lies on the positive X axis, at 1/4 of the separation
		// from the barycentre.
		p := it.DegreesOfFreedom().Position().Coordinates()
		n := float64(it.Instant())
		separation := 2 * math.Sqrt(5) * n
		if math.Abs(p.X-0.75*separation) > 1e-12*separation || math.Abs(p.Y) > 1e-12*separation || math.Abs(p.Z) > 1e-12*separation {
			t.Fatalf("secondary at %v in Through, want (%v, 0, 0)", p, 0.75*separation)
		}
	}
}

// The Y axis of the barycentric frame points along the velocity of the
// primary with respect to the barycentre.
func TestBarycentricMotionYAxisFollowsPrimary(t *testing.T) {
	f := newFixture(t, 1)
	weights := []float64{f.body1Massive.GravitationalParameter, f.body2Massive.GravitationalParameter}
	for i := 0; i < f.body1From.Len(); i++ {
		p, s := f.body1From.At(i).DegreesOfFreedom, f.body2From.At(i).DegreesOfFreedom
		motion, err := barycentricMotion[from, through](p, s, weights)
		if err != nil {
			t.Fatalf("barycentricMotion: %v", err)
		}
		m := motion.OrthogonalMap()
		if d := m.Determinant(); math.Abs(d-1) > 1e-12 {
			t.Fatalf("determinant = %v, want 1", d)
		}
		barycentre := physics.BarycentreOf([]physics.DegreesOfFreedom[from]{p, s}, weights)
		relative := p.Velocity().Sub(barycentre.Velocity())
		v := m.Apply(relative).Coordinates()
		tol := 1e-12 * relative.Norm()
		if v.Y <= 0 || math.Abs(v.Z) > tol {
			t.Fatalf("primary velocity %v in Through, want along +Y", v)
		}
		if math.Abs(v.Y-relative.Norm()) > tol {
			t.Fatalf("primary speed %v in Through, want %v", v.Y, relative.Norm())
		}
	}
}

func TestBarycentricRotatingRoundTripAtLastInstant(t *testing.T) {
	f := newFixture(t, 1)
	// Use the same coordinates in To as in From: the composition of both
	// stages must then be the identity at the last instant.
	body1To := physics.NewDiscreteTrajectory[to]()
	body2To := physics.NewDiscreteTrajectory[to]()
	for i := 0; i < f.body1From.Len(); i++ {
		s1, s2 := f.body1From.At(i), f.body2From.At(i)
		_ = body1To.Append(s1.Time, physics.NewDegreesOfFreedom(
			geometry.PositionOf[to](s1.DegreesOfFreedom.Position().Coordinates()),
			geometry.VectorOf[to](s1.DegreesOfFreedom.Velocity().Coordinates())))
		_ = body2To.Append(s2.Time, physics.NewDegreesOfFreedom(
			geometry.PositionOf[to](s2.DegreesOfFreedom.Position().Coordinates()),
			geometry.VectorOf[to](s2.DegreesOfFreedom.Velocity().Coordinates())))
	}
	x, err := BarycentricRotating[from, through, to](
		f.body1Massive, f.body2Massive, f.body1From, body1To, f.body2From, body2To)
	if err != nil {
		t.Fatalf("BarycentricRotating: %v", err)
	}
	rendered := physics.NewDiscreteTrajectory[through]()
	if err := Drain(x.First(f.body), rendered); err != nil {
		t.Fatalf("Drain first: %v", err)
	}
	final := physics.NewDiscreteTrajectory[to]()
	if err := Drain(x.Second(rendered), final); err != nil {
		t.Fatalf("Drain second: %v", err)
	}

	got := final.Back().DegreesOfFreedom
	want := f.body.Back().DegreesOfFreedom
	scale := want.Position().Sub(geometry.Origin[from]()).Norm()
	if d := r3.Norm(r3.Sub(got.Position().Coordinates(), want.Position().Coordinates())); d > 1e-12*scale {
		t.Fatalf("position %v, want %v", got.Position(), want.Position())
	}
	if d := r3.Norm(r3.Sub(got.Velocity().Coordinates(), want.Velocity().Coordinates())); d > 1e-12*want.Velocity().Norm() {
		t.Fatalf("velocity %v, want %v", got.Velocity(), want.Velocity())
	}
}

func TestIteratorIsBoundedAtCreation(t *testing.T) {
	f := newFixture(t, 0)
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To)
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}
	source := physics.NewDiscreteTrajectory[from]()
	for i := 0; i < 3; i++ {
		_ = source.Append(geometry.Instant(i), f.body.At(i).DegreesOfFreedom)
	}
	it := x.First(source)
	_ = source.Append(3, f.body.At(3).DegreesOfFreedom)

	n := 0
	for it.Next() {
		n++
	}
	if n != 3 {
		t.Fatalf("visited %d samples, want the 3 present at creation", n)
	}
	if it.Next() {
		t.Fatalf("iterator restarted")
	}
}

func TestTransformDurationExcludesConsumerTime(t *testing.T) {
	f := newFixture(t, 0)
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewKinematicsCollector(reg)
	if err != nil {
		t.Fatalf("NewKinematicsCollector: %v", err)
	}
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To, WithMetrics(metrics))
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}
	source := physics.NewDiscreteTrajectory[from]()
	for i := 0; i < 3; i++ {
		_ = source.Append(geometry.Instant(i), f.body.At(i).DegreesOfFreedom)
	}

	const pause = 30 * time.Millisecond
	for it := x.First(source); it.Next(); {
		time.Sleep(pause)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, family := range families {
		if family.GetName() != "frames_transform_duration_seconds" {
			continue
		}
		h := family.GetMetric()[0].GetHistogram()
		if h.GetSampleCount() != 1 {
			t.Fatalf("observed %d durations, want 1 per traversal", h.GetSampleCount())
		}
		if h.GetSampleSum() >= pause.Seconds() {
			t.Fatalf("transform duration %vs includes the consumer's pauses", h.GetSampleSum())
		}
		return
	}
	t.Fatalf("no transform duration recorded")
}

func TestIteratorStopsOnError(t *testing.T) {
	f := newFixture(t, 0)
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, f.body1To)
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}
	source := physics.NewDiscreteTrajectory[from]()
	_ = source.Append(18, f.body.At(18).DegreesOfFreedom)
	_ = source.Append(25, f.body.At(19).DegreesOfFreedom)
	_ = source.Append(26, f.body.At(19).DegreesOfFreedom)

	it := x.First(source)
	if !it.Next() {
		t.Fatalf("first sample should be inside the centre trajectory: %v", it.Err())
	}
	if it.Next() {
		t.Fatalf("sample outside the centre trajectory should fail")
	}
	if !errors.Is(it.Err(), physics.ErrOutsideValidity) {
		t.Fatalf("err = %v, want ErrOutsideValidity", it.Err())
	}
	if it.Next() {
		t.Fatalf("iterator continued after an error")
	}
	if _, ok := x.Cached(25); ok {
		t.Fatalf("failed instant was cached")
	}
}

func TestSecondFailsOnEmptyToTrajectory(t *testing.T) {
	f := newFixture(t, 0)
	x, err := BodyCentredNonRotating[from, through, to](f.body1From, physics.NewDiscreteTrajectory[to]())
	if err != nil {
		t.Fatalf("BodyCentredNonRotating: %v", err)
	}
	rendered := physics.NewDiscreteTrajectory[through]()
	if err := Drain(x.First(f.body), rendered); err != nil {
		t.Fatalf("Drain first: %v", err)
	}
	it := x.Second(rendered)
	if it.Next() || !errors.Is(it.Err(), physics.ErrOutsideValidity) {
		t.Fatalf("err = %v, want ErrOutsideValidity", it.Err())
	}
}

func TestFactoriesRequireInertialEnds(t *testing.T) {
	f := newFixture(t, 0)
	rotatingFrom := physics.NewDiscreteTrajectory[through]()
	if _, err := BodyCentredNonRotating[through, from, to](rotatingFrom, f.body1To); !errors.Is(err, ErrNonInertialFrame) {
		t.Fatalf("err = %v, want ErrNonInertialFrame", err)
	}
	rotatingTo := physics.NewDiscreteTrajectory[through]()
	if _, err := BarycentricRotating[from, to, through](
		f.body1Massive, f.body2Massive, f.body1From, rotatingTo, f.body2From, rotatingTo); !errors.Is(err, ErrNonInertialFrame) {
		t.Fatalf("err = %v, want ErrNonInertialFrame", err)
	}
}
