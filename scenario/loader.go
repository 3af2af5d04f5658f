// Package scenario loads the bodies, frame descriptor and pipeline of a run
// from JSON.
package scenario

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/signalsfoundry/frame-kinematics/frames"
	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/kb"
	"github.com/signalsfoundry/frame-kinematics/model"
)

// PipelineKind selects the intermediate frame of a transform pipeline.
type PipelineKind string

const (
	PipelineBodyCentredNonRotating PipelineKind = "body_centred_non_rotating"
	PipelineBarycentricRotating    PipelineKind = "barycentric_rotating"
)

// Pipeline describes the transforms used to render the probes.
type Pipeline struct {
	Kind PipelineKind
	// Centre, or primary, and secondary are body IDs.
	Primary   string
	Secondary string
}

// Scenario is a summary of what was loaded from JSON.
type Scenario struct {
	Epoch geometry.Instant
	Tick  geometry.Duration
	Steps int

	BodyIDs  []string
	ProbeIDs []string

	// Frame describes the frame in which accelerations are reported. Bodies
	// are named by their Name, as in the ephemeris.
	Frame    frames.Descriptor
	Pipeline *Pipeline
}

// JSON shapes of the scenario file.
type scenarioJSON struct {
	Epoch       string            `json:"epoch"` // RFC 3339
	TickSeconds float64           `json:"tick_seconds"`
	Steps       int               `json:"steps"`
	Bodies      []bodyJSON        `json:"bodies"`
	Frame       frames.Descriptor `json:"frame"`
	Pipeline    *pipelineJSON     `json:"pipeline"`
}

type bodyJSON struct {
	ID                     string        `json:"id"`
	Name                   string        `json:"name"` // defaults to id
	GravitationalParameter float64       `json:"gravitational_parameter"`
	Rotation               *rotationJSON `json:"rotation"`
	Motion                 motionJSON    `json:"motion"`
}

type rotationJSON struct {
	Pole             positionJSON `json:"pole"`
	AngularFrequency float64      `json:"angular_frequency"`
	ReferenceAngle   float64      `json:"reference_angle"`
}

type motionJSON struct {
	Source   string        `json:"source"` // "static" | "circular" | "spacetrack"
	Position *positionJSON `json:"position"`
	Orbit    *orbitJSON    `json:"orbit"`
	TLE1     string        `json:"tle1"`
	TLE2     string        `json:"tle2"`
}

type orbitJSON struct {
	Centre      positionJSON `json:"centre"`
	Normal      positionJSON `json:"normal"`
	Radius      float64      `json:"radius"`
	Period      float64      `json:"period"`
	PhaseAtZero float64      `json:"phase"`
}

type pipelineJSON struct {
	Kind      string `json:"kind"`
	Centre    string `json:"centre"`
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type positionJSON struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func (p positionJSON) motion() model.Motion { return model.Motion{X: p.X, Y: p.Y, Z: p.Z} }

// LoadFile reads the scenario at path into store.
func LoadFile(store *kb.KnowledgeBase, path string) (*Scenario, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open scenario %q: %w", path, err)
	}
	defer f.Close()
	return Load(store, f)
}

// Load reads a JSON scenario from r, adds its bodies to store and returns a
// summary of what was loaded. The frame descriptor is decoded but not
// validated; reconstructing the frame does that.
func Load(store *kb.KnowledgeBase, r io.Reader) (*Scenario, error) {
	if store == nil {
		return nil, fmt.Errorf("scenario.Load: kb is nil")
	}

	var payload scenarioJSON
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("scenario.Load: decode failed: %w", err)
	}

	result := &Scenario{
		Tick:  geometry.Duration(payload.TickSeconds),
		Steps: payload.Steps,
		Frame: payload.Frame,
	}
	if payload.Epoch != "" {
		epoch, err := time.Parse(time.RFC3339, payload.Epoch)
		if err != nil {
			return nil, fmt.Errorf("scenario.Load: epoch: %w", err)
		}
		result.Epoch = geometry.FromTime(epoch)
	}
	if result.Tick <= 0 {
		result.Tick = 60
	}
	if result.Steps <= 0 {
		result.Steps = 1
	}

	for _, js := range payload.Bodies {
		b, err := bodyFromJSON(js, result.Epoch)
		if err != nil {
			return nil, fmt.Errorf("scenario.Load: %w", err)
		}
		if err := store.AddBody(b); err != nil {
			return nil, fmt.Errorf("scenario.Load: %w", err)
		}
		result.BodyIDs = append(result.BodyIDs, b.ID)
		if !b.IsMassive() {
			result.ProbeIDs = append(result.ProbeIDs, b.ID)
		}
	}

	if p := payload.Pipeline; p != nil {
		pipeline, err := pipelineFromJSON(*p, store)
		if err != nil {
			return nil, fmt.Errorf("scenario.Load: %w", err)
		}
		result.Pipeline = pipeline
	}
	return result, nil
}

func bodyFromJSON(js bodyJSON, epoch geometry.Instant) (*model.BodyDefinition, error) {
	if js.ID == "" {
		return nil, fmt.Errorf("body with empty id")
	}
	if js.GravitationalParameter < 0 {
		return nil, fmt.Errorf("body %q has a negative gravitational parameter", js.ID)
	}
	b := &model.BodyDefinition{
		ID:                     js.ID,
		Name:                   js.Name,
		GravitationalParameter: js.GravitationalParameter,
	}
	if b.Name == "" {
		b.Name = js.ID
	}
	if r := js.Rotation; r != nil {
		b.Rotation = &model.RotationDefinition{
			Pole:             r.Pole.motion(),
			AngularFrequency: r.AngularFrequency,
			ReferenceAngle:   r.ReferenceAngle,
		}
	}

	switch motionSourceFromString(js.Motion.Source) {
	case model.MotionSourceCircular:
		if js.Motion.Orbit == nil {
			return nil, fmt.Errorf("body %q: circular motion without orbit", js.ID)
		}
		o := js.Motion.Orbit
		b.MotionSource = model.MotionSourceCircular
		b.Orbit = &model.CircularOrbit{
			Centre:      o.Centre.motion(),
			Normal:      o.Normal.motion(),
			Radius:      o.Radius,
			Period:      o.Period,
			PhaseAtZero: o.PhaseAtZero,
			Epoch:       epoch,
		}
	case model.MotionSourceSpacetrack:
		if js.Motion.TLE1 == "" || js.Motion.TLE2 == "" {
			return nil, fmt.Errorf("body %q: spacetrack motion without TLE", js.ID)
		}
		b.MotionSource = model.MotionSourceSpacetrack
		b.TLE1, b.TLE2 = js.Motion.TLE1, js.Motion.TLE2
	default:
		b.MotionSource = model.MotionSourceStatic
		if js.Motion.Position != nil {
			b.Coordinates = js.Motion.Position.motion()
		}
	}
	return b, nil
}

func pipelineFromJSON(js pipelineJSON, store *kb.KnowledgeBase) (*Pipeline, error) {
	p := &Pipeline{Kind: PipelineKind(strings.ToLower(strings.TrimSpace(js.Kind)))}
	switch p.Kind {
	case PipelineBodyCentredNonRotating:
		p.Primary = js.Centre
		if p.Primary == "" {
			p.Primary = js.Primary
		}
	case PipelineBarycentricRotating:
		p.Primary, p.Secondary = js.Primary, js.Secondary
		if p.Secondary == "" {
			return nil, fmt.Errorf("barycentric pipeline without secondary")
		}
		if b := store.GetBody(p.Secondary); b == nil || !b.IsMassive() {
			return nil, fmt.Errorf("pipeline secondary %q is not a massive body", p.Secondary)
		}
	default:
		return nil, fmt.Errorf("unknown pipeline kind %q", js.Kind)
	}
	if b := store.GetBody(p.Primary); b == nil || !b.IsMassive() {
		return nil, fmt.Errorf("pipeline body %q is not a massive body", p.Primary)
	}
	return p, nil
}

// motionSourceFromString maps the JSON "source" string to a MotionSource.
// Unknown and empty values mean a static body.
func motionSourceFromString(s string) model.MotionSource {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "circular", "orbit":
		return model.MotionSourceCircular
	case "spacetrack", "tle", "sgp4":
		return model.MotionSourceSpacetrack
	default:
		return model.MotionSourceStatic
	}
}
