package sign

import (
	"github.com/taurusgroup/multi-party-schnorr/internal/types"
	"github.com/taurusgroup/multi-party-schnorr/pkg/hash"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/sample"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// BindingFactors computes ρₗ = H(m, B, l) for every signer l, where B is the list of all
// nonce commitments (Dₗ, Eₗ), ordered by signer.
//
// h is the session hash, and is not modified.
// Computing H(m, B) once lets us clone the state for each l, instead of rehashing B.
func BindingFactors(h *hash.Hash, group curve.Curve, signers party.IDSlice, M []byte, D, E map[party.ID]curve.Point) map[party.ID]curve.Scalar {
	preHash := h.Clone()
	_ = preHash.WriteAny(&hash.BytesWithDomain{TheDomain: "Binding Factor", Bytes: []byte{}}, types.SigningMessage(M))
	for _, l := range signers {
		_ = preHash.WriteAny(l, D[l], E[l])
	}

	rho := make(map[party.ID]curve.Scalar, len(signers))
	for _, l := range signers {
		rhoHash := preHash.Clone()
		_ = rhoHash.WriteAny(l)
		rho[l] = sample.Scalar(rhoHash.Digest(), group)
	}
	return rho
}

// GroupCommitment returns R = ∑ₗ Dₗ + ρₗ⋅Eₗ, along with every term Rₗ = Dₗ + ρₗ⋅Eₗ.
func GroupCommitment(group curve.Curve, signers party.IDSlice, rho map[party.ID]curve.Scalar, D, E map[party.ID]curve.Point) (curve.Point, map[party.ID]curve.Point) {
	R := group.NewPoint()
	RShares := make(map[party.ID]curve.Point, len(signers))
	for _, l := range signers {
		RShares[l] = rho[l].Act(E[l]).Add(D[l])
		R = R.Add(RShares[l])
	}
	return R, RShares
}

// Challenge returns c = H(R, Y, m).
func Challenge(group curve.Curve, R, Y curve.Point, M []byte) curve.Scalar {
	h := hash.New(&hash.BytesWithDomain{TheDomain: "Challenge", Bytes: []byte{}})
	_ = h.WriteAny(R, Y, types.SigningMessage(M))
	return sample.Scalar(h.Digest(), group)
}
