// Package geometry provides frame-tagged vectors, positions, orthogonal maps
// and rigid transformations. The frame of a quantity is a type parameter, so
// combining quantities expressed in different frames does not compile.
package geometry

// Frame tags a coordinate system. Implementations are zero-size structs used
// only as type parameters.
type Frame interface {
	Name() string
	IsInertial() bool
}

// ICRS is the inertial, barycentric frame in which ephemerides are usually
// expressed.
type ICRS struct{}

func (ICRS) Name() string     { return "ICRS" }
func (ICRS) IsInertial() bool { return true }

// Frenet is the osculating frame of a trajectory expressed in F: its axes are
// the tangent, the normal and the binormal.
type Frenet[F Frame] struct{}

func (Frenet[F]) Name() string     { return "Frenet(" + FrameName[F]() + ")" }
func (Frenet[F]) IsInertial() bool { return false }

// FrameName returns the name of the frame tag F.
func FrameName[F Frame]() string {
	var f F
	return f.Name()
}

// IsInertial reports whether the frame tag F denotes an inertial frame.
func IsInertial[F Frame]() bool {
	var f F
	return f.IsInertial()
}
