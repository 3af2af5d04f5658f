package geometry

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Vector is a free vector (displacement, velocity, acceleration, angular
// velocity...) expressed in the coordinates of F. Quantities are in SI units;
// angles are in radians and therefore dimensionless.
type Vector[F Frame] struct {
	c r3.Vec
}

// NewVector returns the vector with the given coordinates in F.
func NewVector[F Frame](x, y, z float64) Vector[F] {
	return Vector[F]{c: r3.Vec{X: x, Y: y, Z: z}}
}

// VectorOf wraps raw coordinates as a vector of F.
func VectorOf[F Frame](c r3.Vec) Vector[F] {
	return Vector[F]{c: c}
}

// Coordinates returns the raw coordinates of v.
func (v Vector[F]) Coordinates() r3.Vec { return v.c }

func (v Vector[F]) Add(w Vector[F]) Vector[F] { return Vector[F]{c: r3.Add(v.c, w.c)} }
func (v Vector[F]) Sub(w Vector[F]) Vector[F] { return Vector[F]{c: r3.Sub(v.c, w.c)} }
func (v Vector[F]) Scale(f float64) Vector[F] { return Vector[F]{c: r3.Scale(f, v.c)} }
func (v Vector[F]) Neg() Vector[F]            { return Vector[F]{c: r3.Scale(-1, v.c)} }

// Dot returns the inner product of v and w.
func (v Vector[F]) Dot(w Vector[F]) float64 { return r3.Dot(v.c, w.c) }

// Cross returns v × w. For an angular velocity ω and a displacement r,
// ω.Cross(r) is the velocity of r in the rotating frame.
func (v Vector[F]) Cross(w Vector[F]) Vector[F] { return Vector[F]{c: r3.Cross(v.c, w.c)} }

func (v Vector[F]) Norm() float64  { return r3.Norm(v.c) }
func (v Vector[F]) Norm2() float64 { return r3.Norm2(v.c) }

// IsZero reports whether all coordinates of v are exactly zero.
func (v Vector[F]) IsZero() bool { return v.c == r3.Vec{} }

// Unit returns v / |v|. The zero vector has no direction and is returned
// unchanged.
func (v Vector[F]) Unit() Vector[F] {
	n := r3.Norm(v.c)
	if n == 0 {
		return v
	}
	return Vector[F]{c: r3.Scale(1/n, v.c)}
}

// OrthogonalizationAgainst returns the component of v orthogonal to w. If w
// is zero, v is returned unchanged.
func (v Vector[F]) OrthogonalizationAgainst(w Vector[F]) Vector[F] {
	u := w.Unit()
	return v.Sub(u.Scale(v.Dot(u)))
}

func (v Vector[F]) String() string {
	return fmt.Sprintf("{%g, %g, %g} in %s", v.c.X, v.c.Y, v.c.Z, FrameName[F]())
}

// Position is a point of the affine space of F. The difference of two
// positions is a Vector; positions cannot be added.
type Position[F Frame] struct {
	c r3.Vec
}

// NewPosition returns the point at the given coordinates relative to the
// origin of F.
func NewPosition[F Frame](x, y, z float64) Position[F] {
	return Position[F]{c: r3.Vec{X: x, Y: y, Z: z}}
}

// PositionOf wraps raw coordinates as a position of F.
func PositionOf[F Frame](c r3.Vec) Position[F] {
	return Position[F]{c: c}
}

// Origin returns the origin of F.
func Origin[F Frame]() Position[F] { return Position[F]{} }

// Coordinates returns the coordinates of p relative to the origin of F.
func (p Position[F]) Coordinates() r3.Vec { return p.c }

// Sub returns the displacement p - q.
func (p Position[F]) Sub(q Position[F]) Vector[F] { return Vector[F]{c: r3.Sub(p.c, q.c)} }

// Add returns p translated by v.
func (p Position[F]) Add(v Vector[F]) Position[F] { return Position[F]{c: r3.Add(p.c, v.c)} }

func (p Position[F]) String() string {
	return fmt.Sprintf("({%g, %g, %g} in %s)", p.c.X, p.c.Y, p.c.Z, FrameName[F]())
}

// Barycentre returns the weighted mean of the positions. It panics if the
// slices differ in length or the weights sum to zero.
func Barycentre[F Frame](positions []Position[F], weights []float64) Position[F] {
	if len(positions) != len(weights) {
		panic(fmt.Sprintf("geometry: %d positions for %d weights", len(positions), len(weights)))
	}
	var sum r3.Vec
	total := 0.0
	for i, p := range positions {
		sum = r3.Add(sum, r3.Scale(weights[i], p.c))
		total += weights[i]
	}
	if total == 0 {
		panic("geometry: barycentre of zero total weight")
	}
	return Position[F]{c: r3.Scale(1/total, sum)}
}

// WeightedMean returns the weighted mean of the vectors, with the same
// preconditions as Barycentre.
func WeightedMean[F Frame](vectors []Vector[F], weights []float64) Vector[F] {
	positions := make([]Position[F], len(vectors))
	for i, v := range vectors {
		positions[i] = Position[F]{c: v.c}
	}
	return Vector[F]{c: Barycentre(positions, weights).c}
}
