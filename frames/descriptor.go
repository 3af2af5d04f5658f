package frames

import (
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// Descriptor is the persisted form of a reference frame: a tagged union with
// one optional payload per variant. A well-formed descriptor has exactly one
// payload set.
//
// On the wire it is a protobuf message:
//
//	message ReferenceFrame {
//	  BarycentricRotatingReferenceFrame      barycentric_rotating        = 1;
//	  BodyCentredBodyDirectionReferenceFrame body_centred_body_direction = 2;
//	  BodyCentredNonRotatingReferenceFrame   body_centred_non_rotating   = 3;
//	  BodySurfaceReferenceFrame              body_surface                = 4;
//	}
//
// where the two-body payloads carry primary = 1 and secondary = 2, and the
// single-body payloads carry centre = 1, all body names.
type Descriptor struct {
	BarycentricRotating      *BarycentricRotatingPayload      `json:"barycentric_rotating,omitempty"`
	BodyCentredBodyDirection *BodyCentredBodyDirectionPayload `json:"body_centred_body_direction,omitempty"`
	BodyCentredNonRotating   *BodyCentredNonRotatingPayload   `json:"body_centred_non_rotating,omitempty"`
	BodySurface              *BodySurfacePayload              `json:"body_surface,omitempty"`
}

type BarycentricRotatingPayload struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type BodyCentredBodyDirectionPayload struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
}

type BodyCentredNonRotatingPayload struct {
	Centre string `json:"centre"`
}

type BodySurfacePayload struct {
	Centre string `json:"centre"`
}

const (
	fieldBarycentricRotating      protowire.Number = 1
	fieldBodyCentredBodyDirection protowire.Number = 2
	fieldBodyCentredNonRotating   protowire.Number = 3
	fieldBodySurface              protowire.Number = 4

	fieldPrimary   protowire.Number = 1
	fieldSecondary protowire.Number = 2
	fieldCentre    protowire.Number = 1
)

// Variants returns the variants whose payload is set, in field order.
func (d *Descriptor) Variants() []Variant {
	if d == nil {
		return nil
	}
	var out []Variant
	if d.BarycentricRotating != nil {
		out = append(out, VariantBarycentricRotating)
	}
	if d.BodyCentredBodyDirection != nil {
		out = append(out, VariantBodyCentredBodyDirection)
	}
	if d.BodyCentredNonRotating != nil {
		out = append(out, VariantBodyCentredNonRotating)
	}
	if d.BodySurface != nil {
		out = append(out, VariantBodySurface)
	}
	return out
}

// MarshalBinary encodes d in protobuf wire format. Every set payload is
// written, so malformed descriptors survive a round trip unchanged.
func (d *Descriptor) MarshalBinary() ([]byte, error) {
	var b []byte
	if p := d.BarycentricRotating; p != nil {
		b = appendMessage(b, fieldBarycentricRotating, appendPair(nil, p.Primary, p.Secondary))
	}
	if p := d.BodyCentredBodyDirection; p != nil {
		b = appendMessage(b, fieldBodyCentredBodyDirection, appendPair(nil, p.Primary, p.Secondary))
	}
	if p := d.BodyCentredNonRotating; p != nil {
		b = appendMessage(b, fieldBodyCentredNonRotating, appendString(nil, fieldCentre, p.Centre))
	}
	if p := d.BodySurface; p != nil {
		b = appendMessage(b, fieldBodySurface, appendString(nil, fieldCentre, p.Centre))
	}
	return b, nil
}

// UnmarshalBinary decodes d from protobuf wire format, replacing its
// contents. Unknown fields are skipped. Decoding does not check that exactly
// one payload is present; ReadFromMessage does.
func (d *Descriptor) UnmarshalBinary(b []byte) error {
	*d = Descriptor{}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("descriptor tag: %w", protowire.ParseError(n))
		}
		b = b[n:]
		if typ != protowire.BytesType || num < fieldBarycentricRotating || num > fieldBodySurface {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return fmt.Errorf("descriptor field %d: %w", num, protowire.ParseError(n))
			}
			b = b[n:]
			continue
		}
		payload, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return fmt.Errorf("descriptor field %d: %w", num, protowire.ParseError(n))
		}
		b = b[n:]

		strs, err := consumeStrings(payload)
		if err != nil {
			return fmt.Errorf("descriptor field %d: %w", num, err)
		}
		switch num {
		case fieldBarycentricRotating:
			d.BarycentricRotating = &BarycentricRotatingPayload{Primary: strs[fieldPrimary], Secondary: strs[fieldSecondary]}
		case fieldBodyCentredBodyDirection:
			d.BodyCentredBodyDirection = &BodyCentredBodyDirectionPayload{Primary: strs[fieldPrimary], Secondary: strs[fieldSecondary]}
		case fieldBodyCentredNonRotating:
			d.BodyCentredNonRotating = &BodyCentredNonRotatingPayload{Centre: strs[fieldCentre]}
		case fieldBodySurface:
			d.BodySurface = &BodySurfacePayload{Centre: strs[fieldCentre]}
		}
	}
	return nil
}

func appendMessage(b []byte, num protowire.Number, payload []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, payload)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendPair(b []byte, primary, secondary string) []byte {
	b = appendString(b, fieldPrimary, primary)
	return appendString(b, fieldSecondary, secondary)
}

// consumeStrings decodes a message made of string fields, keeping the last
// value of each field.
func consumeStrings(b []byte) (map[protowire.Number]string, error) {
	out := make(map[protowire.Number]string, 2)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n = protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, protowire.ParseError(n)
			}
			b = b[n:]
			continue
		}
		s, n := protowire.ConsumeString(b)
		if n < 0 {
			return nil, protowire.ParseError(n)
		}
		out[num] = s
		b = b[n:]
	}
	return out, nil
}
