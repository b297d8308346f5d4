package curve

import (
	"encoding"

	"github.com/cronokirby/saferith"
)

// Curve represents a prime order group of points, together with its scalar field.
type Curve interface {
	// NewPoint returns the identity element.
	NewPoint() Point
	// NewBasePoint returns the canonical generator.
	NewBasePoint() Point
	// NewScalar returns the scalar 0.
	NewScalar() Scalar
	// Name identifies the curve, and is written into every session hash.
	Name() string
	// ScalarBits is the bit length of the group order.
	ScalarBits() int
	// SafeScalarBytes is the number of random bytes needed to sample a scalar
	// with negligible bias by reduction.
	SafeScalarBytes() int
	// Order returns the order of the group.
	Order() *saferith.Modulus
}

// Scalar is an element of the field of integers modulo the group order.
//
// Methods modify the receiver and return it, so that they can be chained.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Negate() Scalar
	Mul(Scalar) Scalar
	// Invert sets s = 1/s. The inverse of 0 is 0.
	Invert() Scalar
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	SetNat(*saferith.Nat) Scalar
	// Act returns s⋅P.
	Act(Point) Point
	// ActOnBase returns s⋅G.
	ActOnBase() Point
	// Clear overwrites the scalar with 0.
	Clear()
}

// Point is an element of the group.
//
// Unlike Scalar, arithmetic returns a fresh Point and leaves the receiver untouched.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Negate() Point
	Set(Point) Point
	Equal(Point) bool
	IsIdentity() bool
}

// FromName returns the Curve with the given name, or nil if it is unknown.
func FromName(name string) Curve {
	switch name {
	case Edwards25519{}.Name():
		return Edwards25519{}
	case Secp256k1{}.Name():
		return Secp256k1{}
	default:
		return nil
	}
}
