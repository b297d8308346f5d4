package curve

import (
	"bytes"
	"fmt"

	"filippo.io/edwards25519"
	"github.com/cronokirby/saferith"
)

var edwards25519OrderNat, _ = new(saferith.Nat).SetHex("1000000000000000000000000000000014DEF9DEA2F79CD65812631A5CF5D3ED")
var edwards25519Order = saferith.ModulusFromNat(edwards25519OrderNat)

// edwards25519OrderMinusOne is ℓ - 1, used to check membership in the prime order subgroup.
var edwards25519OrderMinusOne = func() *edwards25519.Scalar {
	one, _ := edwards25519.NewScalar().SetCanonicalBytes(append([]byte{1}, make([]byte, 31)...))
	return edwards25519.NewScalar().Negate(one)
}()

// Edwards25519 is the prime order subgroup of Curve25519 in twisted Edwards form.
//
// Points are encoded in the 32 byte compressed format of RFC 8032,
// scalars as 32 little-endian bytes.
type Edwards25519 struct{}

func (Edwards25519) NewPoint() Point {
	return &Edwards25519Point{value: edwards25519.NewIdentityPoint()}
}

func (Edwards25519) NewBasePoint() Point {
	return &Edwards25519Point{value: edwards25519.NewGeneratorPoint()}
}

func (Edwards25519) NewScalar() Scalar {
	return &Edwards25519Scalar{value: edwards25519.NewScalar()}
}

func (Edwards25519) Name() string {
	return "edwards25519"
}

func (Edwards25519) ScalarBits() int {
	return 253
}

// SafeScalarBytes is 64, since the order is only slightly above 2²⁵².
func (Edwards25519) SafeScalarBytes() int {
	return 64
}

func (Edwards25519) Order() *saferith.Modulus {
	return edwards25519Order
}

type Edwards25519Scalar struct {
	value *edwards25519.Scalar
}

func edwards25519CastScalar(generic Scalar) *Edwards25519Scalar {
	out, ok := generic.(*Edwards25519Scalar)
	if !ok {
		panic(fmt.Sprintf("failed to convert to edwards25519Scalar: %v", generic))
	}
	return out
}

func (*Edwards25519Scalar) Curve() Curve {
	return Edwards25519{}
}

func (s *Edwards25519Scalar) MarshalBinary() ([]byte, error) {
	return s.value.Bytes(), nil
}

func (s *Edwards25519Scalar) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("edwards25519 scalar: %w: length %d", ErrInvalidEncoding, len(data))
	}
	if s.value == nil {
		s.value = edwards25519.NewScalar()
	}
	if _, err := s.value.SetCanonicalBytes(data); err != nil {
		return fmt.Errorf("edwards25519 scalar: %w", ErrInvalidEncoding)
	}
	return nil
}

func (s *Edwards25519Scalar) Add(that Scalar) Scalar {
	other := edwards25519CastScalar(that)

	s.value.Add(s.value, other.value)
	return s
}

func (s *Edwards25519Scalar) Sub(that Scalar) Scalar {
	other := edwards25519CastScalar(that)

	s.value.Subtract(s.value, other.value)
	return s
}

func (s *Edwards25519Scalar) Mul(that Scalar) Scalar {
	other := edwards25519CastScalar(that)

	s.value.Multiply(s.value, other.value)
	return s
}

func (s *Edwards25519Scalar) Invert() Scalar {
	s.value.Invert(s.value)
	return s
}

func (s *Edwards25519Scalar) Negate() Scalar {
	s.value.Negate(s.value)
	return s
}

func (s *Edwards25519Scalar) Equal(that Scalar) bool {
	other := edwards25519CastScalar(that)

	return s.value.Equal(other.value) == 1
}

func (s *Edwards25519Scalar) IsZero() bool {
	return s.value.Equal(edwards25519.NewScalar()) == 1
}

func (s *Edwards25519Scalar) Set(that Scalar) Scalar {
	other := edwards25519CastScalar(that)

	s.value.Set(other.value)
	return s
}

func (s *Edwards25519Scalar) SetNat(x *saferith.Nat) Scalar {
	reduced := new(saferith.Nat).Mod(x, edwards25519Order)
	data := reduced.FillBytes(make([]byte, 32))
	// saferith is big-endian, edwards25519 little-endian
	for i, j := 0, len(data)-1; i < j; i, j = i+1, j-1 {
		data[i], data[j] = data[j], data[i]
	}
	if _, err := s.value.SetCanonicalBytes(data); err != nil {
		panic(fmt.Sprintf("edwards25519 scalar: reduced value rejected: %v", err))
	}
	return s
}

func (s *Edwards25519Scalar) Act(that Point) Point {
	other := edwards25519CastPoint(that)
	out := edwards25519.NewIdentityPoint().ScalarMult(s.value, other.value)
	return &Edwards25519Point{value: out}
}

func (s *Edwards25519Scalar) ActOnBase() Point {
	out := edwards25519.NewIdentityPoint().ScalarBaseMult(s.value)
	return &Edwards25519Point{value: out}
}

func (s *Edwards25519Scalar) Clear() {
	s.value.Set(edwards25519.NewScalar())
}

type Edwards25519Point struct {
	value *edwards25519.Point
}

func edwards25519CastPoint(generic Point) *Edwards25519Point {
	out, ok := generic.(*Edwards25519Point)
	if !ok {
		panic(fmt.Sprintf("failed to convert to edwards25519Point: %v", generic))
	}
	return out
}

func (*Edwards25519Point) Curve() Curve {
	return Edwards25519{}
}

func (p *Edwards25519Point) MarshalBinary() ([]byte, error) {
	return p.value.Bytes(), nil
}

// UnmarshalBinary accepts only canonical encodings of points in the prime order subgroup.
func (p *Edwards25519Point) UnmarshalBinary(data []byte) error {
	if len(data) != 32 {
		return fmt.Errorf("edwards25519 point: %w: length %d", ErrInvalidEncoding, len(data))
	}
	decoded, err := edwards25519.NewIdentityPoint().SetBytes(data)
	if err != nil {
		return fmt.Errorf("edwards25519 point: %w", ErrPointNotOnCurve)
	}
	if !bytes.Equal(decoded.Bytes(), data) {
		return fmt.Errorf("edwards25519 point: %w: non canonical", ErrInvalidEncoding)
	}
	// [ℓ]P = [ℓ-1]P + P
	check := edwards25519.NewIdentityPoint().ScalarMult(edwards25519OrderMinusOne, decoded)
	check.Add(check, decoded)
	if check.Equal(edwards25519.NewIdentityPoint()) != 1 {
		return fmt.Errorf("edwards25519 point: %w", ErrNotInSubgroup)
	}
	p.value = decoded
	return nil
}

func (p *Edwards25519Point) Add(that Point) Point {
	other := edwards25519CastPoint(that)

	out := edwards25519.NewIdentityPoint().Add(p.value, other.value)
	return &Edwards25519Point{value: out}
}

func (p *Edwards25519Point) Sub(that Point) Point {
	other := edwards25519CastPoint(that)

	out := edwards25519.NewIdentityPoint().Subtract(p.value, other.value)
	return &Edwards25519Point{value: out}
}

func (p *Edwards25519Point) Set(that Point) Point {
	other := edwards25519CastPoint(that)

	if p.value == nil {
		p.value = edwards25519.NewIdentityPoint()
	}
	p.value.Set(other.value)
	return p
}

func (p *Edwards25519Point) Negate() Point {
	out := edwards25519.NewIdentityPoint().Negate(p.value)
	return &Edwards25519Point{value: out}
}

func (p *Edwards25519Point) Equal(that Point) bool {
	other := edwards25519CastPoint(that)

	return p.value.Equal(other.value) == 1
}

func (p *Edwards25519Point) IsIdentity() bool {
	return p.value.Equal(edwards25519.NewIdentityPoint()) == 1
}
