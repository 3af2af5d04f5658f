package geometry

// RigidTransformation is an affine isometry from the space of From to the
// space of To: it sends fromOrigin to toOrigin and acts on displacements by
// the orthogonal map.
type RigidTransformation[From, To Frame] struct {
	fromOrigin Position[From]
	toOrigin   Position[To]
	linear     OrthogonalMap[From, To]
}

// NewRigidTransformation returns the transformation sending fromOrigin to
// toOrigin with linear part m.
func NewRigidTransformation[From, To Frame](
	fromOrigin Position[From],
	toOrigin Position[To],
	m OrthogonalMap[From, To],
) RigidTransformation[From, To] {
	return RigidTransformation[From, To]{fromOrigin: fromOrigin, toOrigin: toOrigin, linear: m}
}

// Apply maps p to To.
func (t RigidTransformation[From, To]) Apply(p Position[From]) Position[To] {
	return t.toOrigin.Add(t.linear.Apply(p.Sub(t.fromOrigin)))
}

// Inverse returns the inverse transformation.
func (t RigidTransformation[From, To]) Inverse() RigidTransformation[To, From] {
	return RigidTransformation[To, From]{
		fromOrigin: t.toOrigin,
		toOrigin:   t.fromOrigin,
		linear:     t.linear.Inverse(),
	}
}

// OrthogonalMap returns the linear part of t.
func (t RigidTransformation[From, To]) OrthogonalMap() OrthogonalMap[From, To] {
	return t.linear
}

// ComposeTransformations returns bc ∘ ab.
func ComposeTransformations[A, B, C Frame](
	bc RigidTransformation[B, C],
	ab RigidTransformation[A, B],
) RigidTransformation[A, C] {
	return RigidTransformation[A, C]{
		fromOrigin: ab.fromOrigin,
		toOrigin:   bc.Apply(ab.toOrigin),
		linear:     ComposeMaps(bc.linear, ab.linear),
	}
}
