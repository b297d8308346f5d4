package sign

import (
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// SignShare returns zᵢ = dᵢ + (eᵢ ρᵢ) + λᵢ sᵢ c.
func SignShare(d, e, rho, c, lambda, s curve.Scalar) curve.Scalar {
	group := d.Curve()
	z := group.NewScalar().Set(lambda).Mul(s).Mul(c)
	z.Add(d)
	z.Add(group.NewScalar().Set(rho).Mul(e))
	return z
}

// VerifyPartial checks zᵢ⋅G = Rᵢ + (c λᵢ)⋅Yᵢ, where Rᵢ = Dᵢ + ρᵢ⋅Eᵢ and Yᵢ is the verification share of the signer.
func VerifyPartial(z curve.Scalar, RShare curve.Point, c, lambda curve.Scalar, Y_i curve.Point) bool {
	if z == nil || RShare == nil || Y_i == nil {
		return false
	}
	group := z.Curve()
	expected := group.NewScalar().Set(c).Mul(lambda).Act(Y_i).Add(RShare)
	return z.ActOnBase().Equal(expected)
}

// Combine returns z = ∑ₗ zₗ over the given signers.
func Combine(group curve.Curve, signers party.IDSlice, z map[party.ID]curve.Scalar) curve.Scalar {
	sum := group.NewScalar()
	for _, l := range signers {
		sum.Add(z[l])
	}
	return sum
}
