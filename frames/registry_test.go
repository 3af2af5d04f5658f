package frames

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/logging"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

func TestDescriptorRoundTripPreservesEveryVariant(t *testing.T) {
	k := newKeplerPair()
	for _, f := range allFrames(t, k) {
		t.Run(f.name, func(t *testing.T) {
			b, err := WriteToBytes(f.frame)
			require.NoError(t, err)

			read, err := ReadFromBytes[geometry.ICRS, moving](context.Background(), b, k)
			require.NoError(t, err)
			require.Equal(t, f.frame.Variant(), read.Variant())

			var want, got Descriptor
			f.frame.WriteToMessage(&want)
			read.WriteToMessage(&got)
			require.Equal(t, want, got)

			// The reconstructed frame moves exactly like the original.
			m1, err := f.frame.ToThisFrameAtTime(3)
			require.NoError(t, err)
			m2, err := read.ToThisFrameAtTime(3)
			require.NoError(t, err)
			p := geometry.NewPosition[geometry.ICRS](1, 2, 3)
			require.Equal(t, m1.RigidTransformation().Apply(p), m2.RigidTransformation().Apply(p))
		})
	}
}

func TestWriteToMessageClearsOtherPayloads(t *testing.T) {
	k := newKeplerPair()
	d := Descriptor{
		BarycentricRotating: &BarycentricRotatingPayload{Primary: "A", Secondary: "B"},
		BodySurface:         &BodySurfacePayload{Centre: "C"},
	}
	frames := allFrames(t, k)
	frames[2].frame.WriteToMessage(&d)
	require.Equal(t, []Variant{VariantBodyCentredNonRotating}, d.Variants())
	require.Equal(t, "Secondary", d.BodyCentredNonRotating.Centre)
}

func TestReadFromMessageRejectsMalformedDescriptors(t *testing.T) {
	k := newKeplerPair()
	reg := prometheus.NewRegistry()
	collector, err := observability.NewKinematicsCollector(reg)
	require.NoError(t, err)

	var logs bytes.Buffer
	ctx := logging.ContextWithLogger(context.Background(),
		logging.New(logging.Config{Format: "json", Output: &logs}))

	for name, d := range map[string]*Descriptor{
		"empty": {},
		"nil":   nil,
		"two payloads": {
			BodyCentredNonRotating: &BodyCentredNonRotatingPayload{Centre: "Primary"},
			BodySurface:            &BodySurfacePayload{Centre: "Primary"},
		},
	} {
		t.Run(name, func(t *testing.T) {
			f, err := ReadFromMessage[geometry.ICRS, moving](ctx, d, k, WithCollector(collector))
			require.ErrorIs(t, err, ErrMalformedDescriptor)
			require.Nil(t, f)
		})
	}
	require.Equal(t, 3.0, testutil.ToFloat64(collector.DescriptorDecodes.WithLabelValues("unknown", "malformed")))
	require.Contains(t, logs.String(), "rejecting reference frame descriptor")
}

func TestReadFromMessageUnknownBody(t *testing.T) {
	k := newKeplerPair()
	reg := prometheus.NewRegistry()
	collector, err := observability.NewKinematicsCollector(reg)
	require.NoError(t, err)

	d := &Descriptor{BodySurface: &BodySurfacePayload{Centre: "Nemesis"}}
	f, err := ReadFromMessage[geometry.ICRS, moving](context.Background(), d, k, WithCollector(collector))
	require.ErrorIs(t, err, physics.ErrUnknownBody)
	require.NotErrorIs(t, err, ErrMalformedDescriptor)
	require.Nil(t, f)
	require.Equal(t, 1.0, testutil.ToFloat64(collector.DescriptorDecodes.WithLabelValues("body_surface", "error")))
}

func TestReadFromMessageCountsSuccess(t *testing.T) {
	k := newKeplerPair()
	reg := prometheus.NewRegistry()
	collector, err := observability.NewKinematicsCollector(reg)
	require.NoError(t, err)

	d := &Descriptor{BarycentricRotating: &BarycentricRotatingPayload{Primary: "Primary", Secondary: "Secondary"}}
	f, err := ReadFromMessage[geometry.ICRS, moving](context.Background(), d, k, WithCollector(collector))
	require.NoError(t, err)
	require.IsType(t, &BarycentricRotating[geometry.ICRS, moving]{}, f)
	require.Equal(t, 1.0, testutil.ToFloat64(collector.DescriptorDecodes.WithLabelValues("barycentric_rotating", "ok")))
}

func TestUnmarshalSkipsUnknownFields(t *testing.T) {
	var b []byte
	b = protowire.AppendTag(b, 9, protowire.VarintType)
	b = protowire.AppendVarint(b, 42)
	nested := protowire.AppendTag(nil, 7, protowire.Fixed64Type)
	nested = protowire.AppendFixed64(nested, 1)
	nested = protowire.AppendTag(nested, fieldCentre, protowire.BytesType)
	nested = protowire.AppendString(nested, "Primary")
	b = protowire.AppendTag(b, fieldBodySurface, protowire.BytesType)
	b = protowire.AppendBytes(b, nested)
	b = protowire.AppendTag(b, 12, protowire.BytesType)
	b = protowire.AppendString(b, "ignored")

	var d Descriptor
	require.NoError(t, d.UnmarshalBinary(b))
	require.Equal(t, Descriptor{BodySurface: &BodySurfacePayload{Centre: "Primary"}}, d)
}

func TestUnmarshalRejectsTruncatedInput(t *testing.T) {
	d := Descriptor{BodyCentredBodyDirection: &BodyCentredBodyDirectionPayload{Primary: "Primary", Secondary: "Secondary"}}
	b, err := d.MarshalBinary()
	require.NoError(t, err)

	var got Descriptor
	require.Error(t, got.UnmarshalBinary(b[:len(b)-3]))

	_, err = ReadFromBytes[geometry.ICRS, moving](context.Background(), b[:len(b)-3], newKeplerPair())
	require.ErrorIs(t, err, ErrMalformedDescriptor)
}

func TestMalformedDescriptorSurvivesRoundTrip(t *testing.T) {
	d := Descriptor{
		BarycentricRotating:    &BarycentricRotatingPayload{},
		BodyCentredNonRotating: &BodyCentredNonRotatingPayload{Centre: "Primary"},
	}
	b, err := d.MarshalBinary()
	require.NoError(t, err)
	var got Descriptor
	require.NoError(t, got.UnmarshalBinary(b))
	require.Equal(t, d, got)
	require.Len(t, got.Variants(), 2)
}

func TestDescriptorJSON(t *testing.T) {
	var d Descriptor
	require.NoError(t, json.Unmarshal([]byte(`{"body_centred_body_direction":{"primary":"Primary","secondary":"Secondary"}}`), &d))
	require.Equal(t, []Variant{VariantBodyCentredBodyDirection}, d.Variants())

	f, err := ReadFromMessage[geometry.ICRS, moving](context.Background(), &d, newKeplerPair())
	require.NoError(t, err)
	require.Equal(t, "body_centred_body_direction", f.Variant().String())
}
