package sign

import (
	"errors"

	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
)

// Signature represents the result of a Schnorr signature.
//
// This signature claims to satisfy:
//
//	z⋅G = R + H(R, Y, m)⋅Y
//
// for a public key Y.
type Signature struct {
	// R is the commitment point.
	R curve.Point
	// Z is the response scalar.
	Z curve.Scalar
}

// EmptySignature returns a Signature of the given group, ready to be unmarshalled into.
func EmptySignature(group curve.Curve) *Signature {
	return &Signature{
		R: group.NewPoint(),
		Z: group.NewScalar(),
	}
}

// Verify checks if a signature equation actually holds.
func (sig *Signature) Verify(public curve.Point, m []byte) bool {
	if sig == nil || sig.R == nil || sig.Z == nil || public == nil {
		return false
	}
	group := public.Curve()
	c := Challenge(group, sig.R, public, m)

	expected := c.Act(public).Add(sig.R)
	actual := sig.Z.ActOnBase()
	return expected.Equal(actual)
}

// MarshalBinary returns R || z.
func (sig *Signature) MarshalBinary() ([]byte, error) {
	R, err := sig.R.MarshalBinary()
	if err != nil {
		return nil, err
	}
	z, err := sig.Z.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return append(R, z...), nil
}

// UnmarshalBinary decodes R || z. The fields of sig must be set to the right group beforehand.
func (sig *Signature) UnmarshalBinary(data []byte) error {
	if sig.R == nil || sig.Z == nil {
		return errors.New("sign: UnmarshalBinary called on an empty signature")
	}
	zero, err := sig.Z.Curve().NewScalar().MarshalBinary()
	if err != nil {
		return err
	}
	split := len(data) - len(zero)
	if split <= 0 {
		return curve.ErrInvalidEncoding
	}
	if err = sig.R.UnmarshalBinary(data[:split]); err != nil {
		return err
	}
	return sig.Z.UnmarshalBinary(data[split:])
}
