package sign

import (
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// This round roughly corresponds with step 7 of Figure 3 in the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// The main difference is that instead of having a signing authority, every signer
// verifies and combines the partial signatures itself.
// Signers whose partial signature is invalid are excluded, and the remaining signers
// start a new attempt with fresh nonces, as long as they still meet the threshold.
type round3 struct {
	*round2

	// R is the group commitment, and the first part of the consortium signature
	R curve.Point
	// RShares is the fraction each participant contributes to the group commitment
	//
	// This corresponds to R_i = D_i + ρ_i E_i
	RShares map[party.ID]curve.Point
	// c is the challenge, computed as H(R, Y, m).
	c curve.Scalar
	// z contains the response from each participant
	//
	// z[i] corresponds to zᵢ in the Frost paper
	z map[party.ID]curve.Scalar
	// points contains the verification point each participant claims to sign with.
	points map[party.ID]curve.Point

	// Lambda contains all Lagrange coefficients of the parties participating in this session.
	// Lambda[l] = λₗ
	Lambda map[party.ID]curve.Scalar
}

type broadcast3 struct {
	round.ReliableBroadcastContent
	Attempt uint16
	// Z_i is the response scalar computed by the sender of this message.
	Z_i curve.Scalar
	// VerificationPoint is sᵢ⋅G, which must match the verification share from key generation.
	VerificationPoint curve.Point
}

// StoreBroadcastMessage implements round.BroadcastRound.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Attempt != r.attempt {
		return fmt.Errorf("sign: partial signature for attempt %d during attempt %d", body.Attempt, r.attempt)
	}
	if body.Z_i == nil || body.VerificationPoint == nil {
		return round.ErrNilFields
	}

	// Verification happens in Finalize, so that an invalid share leads to a new attempt
	// instead of an error.
	r.z[msg.From] = body.Z_i
	r.points[msg.From] = body.VerificationPoint
	return nil
}

// MarkFaulty implements round.FaultTolerantRound.
//
// Nothing is kept from an invalid broadcast, so the sender fails verification in Finalize
// like any signer with an invalid partial signature.
func (r *round3) MarkFaulty(from party.ID, _ error) error {
	delete(r.z, from)
	delete(r.points, from)
	return nil
}

// VerifyMessage implements round.Round.
func (round3) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round3) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
//
// 7.b "SA then verifies the validity of each response by checking
//
//	zᵢ⋅G = Rᵢ + (c λᵢ)⋅Yᵢ
//
// for each signing share zᵢ, i in S. If the equality does not hold, identify and report the
// misbehaving participant, and then abort. Otherwise, continue."
//
// Instead of aborting, we exclude the misbehaving participants and try again.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	signers := r.PartyIDs()

	failures := r.Pool.Failures(len(signers), func(i int) bool {
		l := signers[i]
		Y_l := r.YShares[l]
		if r.points[l] == nil || !r.points[l].Equal(Y_l) {
			return false
		}
		return VerifyPartial(r.z[l], r.RShares[l], r.c, r.Lambda[l], Y_l)
	})

	if len(failures) == 0 {
		// 7.c "Compute the group's response z = ∑ᵢ zᵢ"
		sig := &Signature{
			R: r.R,
			Z: Combine(group, signers, r.z),
		}
		if !sig.Verify(r.Y, r.M) {
			return r.AbortRound(ErrInvalidSignature), nil
		}
		return r.ResultRound(sig), nil
	}

	culprits := make(party.IDSlice, 0, len(failures))
	for _, i := range failures {
		culprits = append(culprits, signers[i])
	}
	if culprits.Contains(r.SelfID()) {
		return r.AbortRound(ErrPartialSignature, culprits...), nil
	}
	return r.retry(out, culprits)
}

// RoundNumber implements round.Content.
func (b broadcast3) RoundNumber() round.Number { return attemptRound(b.Attempt) + 1 }

// BroadcastContent implements round.BroadcastRound.
func (r *round3) BroadcastContent() round.BroadcastContent {
	return &broadcast3{
		Z_i:               r.Group().NewScalar(),
		VerificationPoint: r.Group().NewPoint(),
	}
}

// Number implements round.Round.
func (r *round3) Number() round.Number { return attemptRound(r.attempt) + 1 }
