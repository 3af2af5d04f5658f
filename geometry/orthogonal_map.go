package geometry

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// OrthogonalMap is a rotation taking coordinates in From to coordinates in
// To. Only proper rotations are constructed by this package.
type OrthogonalMap[From, To Frame] struct {
	// rows[i] is the i-th axis of To expressed in From.
	rows [3]r3.Vec
}

var canonicalBasis = [3]r3.Vec{{X: 1}, {Y: 1}, {Z: 1}}

// IdentityMap returns the map whose matrix is the identity; From and To share
// their axes.
func IdentityMap[From, To Frame]() OrthogonalMap[From, To] {
	return OrthogonalMap[From, To]{rows: canonicalBasis}
}

// MapFromBasis returns the map sending a vector of From to its components
// along x, y and z, which must be an orthonormal right-handed basis of From.
// The axes of To are x, y and z.
func MapFromBasis[From, To Frame](x, y, z Vector[From]) OrthogonalMap[From, To] {
	return OrthogonalMap[From, To]{rows: [3]r3.Vec{x.c, y.c, z.c}}
}

// MapToBasis returns the map sending the canonical axes of From to x, y and
// z, which must be an orthonormal right-handed basis of To.
func MapToBasis[From, To Frame](x, y, z Vector[To]) OrthogonalMap[From, To] {
	return OrthogonalMap[From, To]{rows: transpose([3]r3.Vec{x.c, y.c, z.c})}
}

// RotationAboutAxis returns the map that rotates vectors by angle radians
// about axis, counterclockwise when looking down the axis. The coordinates of
// the result are reinterpreted in To.
func RotationAboutAxis[From, To Frame](angle float64, axis Vector[From]) OrthogonalMap[From, To] {
	rot := r3.NewRotation(angle, axis.Unit().c)
	var columns [3]r3.Vec
	for i, e := range canonicalBasis {
		columns[i] = rot.Rotate(e)
	}
	return OrthogonalMap[From, To]{rows: transpose(columns)}
}

// Apply maps v to To.
func (m OrthogonalMap[From, To]) Apply(v Vector[From]) Vector[To] {
	return Vector[To]{c: r3.Vec{
		X: r3.Dot(m.rows[0], v.c),
		Y: r3.Dot(m.rows[1], v.c),
		Z: r3.Dot(m.rows[2], v.c),
	}}
}

// Inverse returns the inverse map, i.e., the transpose.
func (m OrthogonalMap[From, To]) Inverse() OrthogonalMap[To, From] {
	return OrthogonalMap[To, From]{rows: transpose(m.rows)}
}

// Determinant returns the determinant of the matrix of m, +1 for a proper
// rotation.
func (m OrthogonalMap[From, To]) Determinant() float64 {
	return r3.Dot(m.rows[0], r3.Cross(m.rows[1], m.rows[2]))
}

// ComposeMaps returns bc ∘ ab.
func ComposeMaps[A, B, C Frame](bc OrthogonalMap[B, C], ab OrthogonalMap[A, B]) OrthogonalMap[A, C] {
	var rows [3]r3.Vec
	for i, r := range bc.rows {
		rows[i] = r3.Add(r3.Add(
			r3.Scale(r.X, ab.rows[0]),
			r3.Scale(r.Y, ab.rows[1])),
			r3.Scale(r.Z, ab.rows[2]))
	}
	return OrthogonalMap[A, C]{rows: rows}
}

func transpose(m [3]r3.Vec) [3]r3.Vec {
	return [3]r3.Vec{
		{X: m[0].X, Y: m[1].X, Z: m[2].X},
		{X: m[0].Y, Y: m[1].Y, Z: m[2].Y},
		{X: m[0].Z, Y: m[1].Z, Z: m[2].Z},
	}
}
