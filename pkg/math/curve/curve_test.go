package curve_test

import (
	"crypto/rand"
	"errors"
	"encoding/hex"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/sample"
)

var groups = []curve.Curve{curve.Edwards25519{}, curve.Secp256k1{}}

func TestScalar_Arithmetic(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			a := sample.ScalarUnit(rand.Reader, group)
			b := sample.Scalar(rand.Reader, group)

			sum := group.NewScalar().Set(a).Add(b)
			assert.True(t, sum.Sub(b).Equal(a), "(a + b) - b != a")

			inv := group.NewScalar().Set(a).Invert()
			one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
			assert.True(t, inv.Mul(a).Equal(one), "a⁻¹⋅a != 1")

			neg := group.NewScalar().Set(a).Negate().Add(a)
			assert.True(t, neg.IsZero())

			// (a + b)⋅G = a⋅G + b⋅G
			lhs := group.NewScalar().Set(a).Add(b).ActOnBase()
			rhs := a.ActOnBase().Add(b.ActOnBase())
			assert.True(t, lhs.Equal(rhs))

			// a⋅(b⋅G) = (a⋅b)⋅G
			lhs = a.Act(b.ActOnBase())
			rhs = group.NewScalar().Set(a).Mul(b).ActOnBase()
			assert.True(t, lhs.Equal(rhs))
		})
	}
}

func TestScalar_SetNatReduces(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			order := group.Order().Nat()
			s := group.NewScalar().SetNat(order)
			assert.True(t, s.IsZero(), "order should reduce to 0")

			plusOne := new(saferith.Nat).Add(order, new(saferith.Nat).SetUint64(1), -1)
			one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
			assert.True(t, group.NewScalar().SetNat(plusOne).Equal(one))
		})
	}
}

func TestScalar_Clear(t *testing.T) {
	for _, group := range groups {
		s := sample.ScalarUnit(rand.Reader, group)
		s.Clear()
		assert.True(t, s.IsZero(), group.Name())
	}
}

func TestPoint_Identity(t *testing.T) {
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			O := group.NewPoint()
			assert.True(t, O.IsIdentity())
			G := group.NewBasePoint()
			assert.False(t, G.IsIdentity())
			assert.True(t, G.Add(O).Equal(G))
			assert.True(t, G.Sub(G).IsIdentity())
			assert.True(t, G.Add(G.Negate()).IsIdentity())
			assert.True(t, O.Negate().IsIdentity())

			data, err := O.MarshalBinary()
			require.NoError(t, err)
			decoded := group.NewBasePoint()
			require.NoError(t, decoded.UnmarshalBinary(data))
			assert.True(t, decoded.IsIdentity())
		})
	}
}

func TestMarshalCBOR(t *testing.T) {
	type wrapper struct {
		P curve.Point
		S curve.Scalar
	}
	for _, group := range groups {
		t.Run(group.Name(), func(t *testing.T) {
			s := sample.Scalar(rand.Reader, group)
			w := wrapper{P: s.ActOnBase(), S: s}
			data, err := cbor.Marshal(w)
			require.NoError(t, err)

			decoded := wrapper{P: group.NewPoint(), S: group.NewScalar()}
			require.NoError(t, cbor.Unmarshal(data, &decoded))
			assert.True(t, w.P.Equal(decoded.P))
			assert.True(t, w.S.Equal(decoded.S))
		})
	}
}

func TestDecode_WrongLength(t *testing.T) {
	for _, group := range groups {
		assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(make([]byte, 31)), curve.ErrInvalidEncoding)
		assert.ErrorIs(t, group.NewScalar().UnmarshalBinary(make([]byte, 33)), curve.ErrInvalidEncoding)
	}
}

func TestDecode_ScalarOverflow(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = 0xff
	}
	for _, group := range groups {
		assert.ErrorIs(t, group.NewScalar().UnmarshalBinary(data), curve.ErrInvalidEncoding, group.Name())
	}
}

func TestEdwards25519_DecodeErrors(t *testing.T) {
	group := curve.Edwards25519{}

	// y = -1, x = 0 has order 2
	torsion, _ := hex.DecodeString("ecffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f")
	assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(torsion), curve.ErrNotInSubgroup)

	// y = p is a non canonical encoding of y = 0
	nonCanonical, _ := hex.DecodeString("edffffffffffffffffffffffffffffffffffffffffffffffffffffffffffff7f")
	assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(nonCanonical), curve.ErrInvalidEncoding)

	// about half of all y coordinates have no matching x
	found := false
	for i := 2; i < 64 && !found; i++ {
		data := make([]byte, 32)
		data[0] = byte(i)
		found = errors.Is(group.NewPoint().UnmarshalBinary(data), curve.ErrPointNotOnCurve)
	}
	assert.True(t, found)

	// G + (0, -1) = (-x, -y) lies outside the prime order subgroup
	mixed, _ := hex.DecodeString("9599999999999999999999999999999999999999999999999999999999999999")
	assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(mixed), curve.ErrNotInSubgroup)

	base, _ := hex.DecodeString("5866666666666666666666666666666666666666666666666666666666666666")
	G := group.NewPoint()
	require.NoError(t, G.UnmarshalBinary(base))
	assert.True(t, G.Equal(group.NewBasePoint()))
}

func TestSecp256k1_DecodeErrors(t *testing.T) {
	group := curve.Secp256k1{}
	data, err := group.NewBasePoint().MarshalBinary()
	require.NoError(t, err)

	badPrefix := append([]byte{}, data...)
	badPrefix[0] = 4
	assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(badPrefix), curve.ErrInvalidEncoding)

	// x = 5 is not the abscissa of a point on secp256k1
	notOnCurve := make([]byte, 33)
	notOnCurve[0] = 2
	notOnCurve[32] = 5
	assert.ErrorIs(t, group.NewPoint().UnmarshalBinary(notOnCurve), curve.ErrPointNotOnCurve)
}

func TestFromName(t *testing.T) {
	for _, group := range groups {
		assert.Equal(t, group, curve.FromName(group.Name()))
	}
	assert.Nil(t, curve.FromName("p256"))
}
