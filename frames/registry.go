package frames

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"

	"github.com/signalsfoundry/frame-kinematics/geometry"
	"github.com/signalsfoundry/frame-kinematics/internal/logging"
	"github.com/signalsfoundry/frame-kinematics/internal/observability"
	"github.com/signalsfoundry/frame-kinematics/physics"
)

const tracerName = "github.com/signalsfoundry/frame-kinematics/frames"

// ErrMalformedDescriptor is returned when a descriptor does not carry exactly
// one payload or cannot be decoded. It is not recoverable: the persisted
// state is corrupt.
var ErrMalformedDescriptor = errors.New("frames: malformed reference frame descriptor")

// ReadOption customises ReadFromMessage.
type ReadOption func(*readOptions)

type readOptions struct {
	collector *observability.KinematicsCollector
}

// WithCollector records descriptor decodes in c.
func WithCollector(c *observability.KinematicsCollector) ReadOption {
	return func(o *readOptions) { o.collector = c }
}

// ReadFromMessage reconstructs the frame described by d over the shared
// ephemeris. d must carry exactly one payload; otherwise the error wraps
// ErrMalformedDescriptor. Errors resolving the bodies named by the payload are
// returned as is.
func ReadFromMessage[I, T geometry.Frame](
	ctx context.Context,
	d *Descriptor,
	ephemeris physics.Ephemeris[I],
	opts ...ReadOption,
) (frame ReferenceFrame[I, T], err error) {
	var o readOptions
	for _, opt := range opts {
		opt(&o)
	}
	log := logging.FromContext(ctx)
	ctx, span := observability.StartSpan(ctx, tracerName, "frames.ReadFromMessage",
		attribute.String("frame.this", geometry.FrameName[T]()))
	defer func() { observability.EndSpan(span, err) }()

	variants := d.Variants()
	if len(variants) != 1 {
		err = fmt.Errorf("%d payloads set, want exactly 1: %w", len(variants), ErrMalformedDescriptor)
		log.Warn(ctx, "rejecting reference frame descriptor",
			logging.Int("payloads", len(variants)),
			logging.Any("variants", variants))
		o.collector.ObserveDescriptorDecode(VariantUnknown.String(), "malformed")
		return nil, err
	}
	variant := variants[0]
	span.SetAttributes(attribute.String("frame.variant", variant.String()))

	switch variant {
	case VariantBarycentricRotating:
		f, readErr := readBarycentricRotating[I, T](ephemeris, d.BarycentricRotating)
		frame, err = asFrame[I, T](f, readErr)
	case VariantBodyCentredBodyDirection:
		f, readErr := readBodyCentredBodyDirection[I, T](ephemeris, d.BodyCentredBodyDirection)
		frame, err = asFrame[I, T](f, readErr)
	case VariantBodyCentredNonRotating:
		f, readErr := readBodyCentredNonRotating[I, T](ephemeris, d.BodyCentredNonRotating)
		frame, err = asFrame[I, T](f, readErr)
	case VariantBodySurface:
		f, readErr := readBodySurface[I, T](ephemeris, d.BodySurface)
		frame, err = asFrame[I, T](f, readErr)
	}
	if err != nil {
		log.Warn(ctx, "cannot reconstruct reference frame",
			logging.String("variant", variant.String()),
			logging.Err(err))
		o.collector.ObserveDescriptorDecode(variant.String(), "error")
		return nil, err
	}
	o.collector.ObserveDescriptorDecode(variant.String(), "ok")
	log.Debug(ctx, "reconstructed reference frame", logging.String("variant", variant.String()))
	return frame, nil
}

// ReadFromBytes decodes a descriptor and reconstructs the frame it describes.
func ReadFromBytes[I, T geometry.Frame](
	ctx context.Context,
	b []byte,
	ephemeris physics.Ephemeris[I],
	opts ...ReadOption,
) (ReferenceFrame[I, T], error) {
	var d Descriptor
	if err := d.UnmarshalBinary(b); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedDescriptor, err)
	}
	return ReadFromMessage[I, T](ctx, &d, ephemeris, opts...)
}

// WriteToBytes encodes the descriptor of f.
func WriteToBytes[I, T geometry.Frame](f ReferenceFrame[I, T]) ([]byte, error) {
	var d Descriptor
	f.WriteToMessage(&d)
	return d.MarshalBinary()
}

// asFrame converts a concrete frame to the interface without turning a nil
// pointer into a non-nil interface.
func asFrame[I, T geometry.Frame, F interface {
	ReferenceFrame[I, T]
	comparable
}](f F, err error) (ReferenceFrame[I, T], error) {
	var zero F
	if err != nil || f == zero {
		return nil, err
	}
	return f, nil
}
