package sign

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

// This round roughly corresponds with steps 3-6 of Figure 3 in the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// The main differences stem from the lack of a signature authority.
//
// This means that instead of receiving a bundle of all the commitments, instead
// each participant sends us their commitment directly.
//
// Then, instead of sending our scalar response to the authority, we broadcast it
// to everyone instead.
type round2 struct {
	*round1
	attempt uint16
	// d_i = dᵢ is the first nonce we've created.
	d_i curve.Scalar
	// e_i = eᵢ is the second nonce we've created.
	e_i curve.Scalar
	// D[i] = Dᵢ will contain all of the commitments created by each party, ourself included.
	D map[party.ID]curve.Point
	// E[i] = Eᵢ will contain all of the commitments created by each party, ourself included.
	E map[party.ID]curve.Point
	// faulty contains the signers whose commitment broadcast was invalid.
	faulty map[party.ID]bool
}

type broadcast2 struct {
	round.ReliableBroadcastContent
	Attempt uint16
	// D_i is the first commitment produced by the sender of this message.
	D_i curve.Point
	// E_i is the second commitment produced by the sender of this message.
	E_i curve.Point
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// "After receiving (m, B), each Pᵢ first validates the message m,
// and then checks Dₗ, Eₗ in Gˣ for each commitment in B, aborting if
// either check fails."
//
// We also refuse any pair of commitments we have seen before.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Attempt != r.attempt {
		return fmt.Errorf("sign: commitment for attempt %d during attempt %d", body.Attempt, r.attempt)
	}
	if body.D_i.IsIdentity() || body.E_i.IsIdentity() {
		return errors.New("sign: nonce commitment is the identity point")
	}
	if err := r.tracker.Use(body.D_i, body.E_i); err != nil {
		return err
	}

	r.D[msg.From] = body.D_i
	r.E[msg.From] = body.E_i
	return nil
}

// MarkFaulty implements round.FaultTolerantRound.
//
// A signer with an invalid commitment is excluded, and the others start a new attempt.
// A reused commitment still ends the session.
func (r *round2) MarkFaulty(from party.ID, err error) error {
	if errors.Is(err, ErrNonceReuse) {
		return err
	}
	delete(r.D, from)
	delete(r.E, from)
	r.faulty[from] = true
	return nil
}

// VerifyMessage implements round.Round.
func (round2) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round2) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	if len(r.faulty) > 0 {
		r.Clear()
		return r.retry(out, party.NewIDSlice(keys(r.faulty)))
	}

	group := r.Group()
	self := r.SelfID()
	signers := r.PartyIDs()

	// 4. "Each Pᵢ then computes the set of binding values ρₗ = H₁(l, m, B).
	// Each Pᵢ then derives the group commitment R = ∑ₗ Dₗ + ρₗ * Eₗ and
	// the challenge c = H₂(R, Y, m)."
	rho := BindingFactors(r.Hash(), group, signers, r.M, r.D, r.E)
	R, RShares := GroupCommitment(group, signers, rho, r.D, r.E)
	c := Challenge(group, R, r.Y, r.M)

	// Lambdas[i] = λᵢ, over the signers of this attempt
	Lambdas := polynomial.Lagrange(group, signers)

	// 5. "Each Pᵢ computes their response using their long-lived secret share sᵢ
	// by computing zᵢ = dᵢ + (eᵢ ρᵢ) + λᵢ sᵢ c, using S to determine
	// the ith lagrange coefficient λᵢ"
	z_i := SignShare(r.d_i, r.e_i, rho[self], c, Lambdas[self], r.s_i)

	// 6. "Each Pᵢ securely deletes ((dᵢ, Dᵢ), (eᵢ, Eᵢ)) from their local storage"
	r.Clear()

	// the nonces are gone, so this round cannot be finalized again
	if err := r.BroadcastMessage(out, &broadcast3{
		Attempt:           r.attempt,
		Z_i:               z_i,
		VerificationPoint: r.YShares[self],
	}); err != nil {
		z_i.Clear()
		return r.AbortRound(fmt.Errorf("sign: %w", err)), nil
	}

	return &round3{
		round2:  r,
		R:       R,
		RShares: RShares,
		c:       c,
		z:       map[party.ID]curve.Scalar{self: z_i},
		points:  map[party.ID]curve.Point{self: r.YShares[self]},
		Lambda:  Lambdas,
	}, nil
}

// retry excludes culprits, and starts a new attempt with fresh nonces among the remaining signers.
func (r *round2) retry(out chan<- *round.Message, culprits party.IDSlice) (round.Session, error) {
	if len(r.PartyIDs())-len(culprits) < r.Threshold() {
		return r.AbortRound(fmt.Errorf("sign: %w", protocol.ErrThresholdNotMet), culprits...), nil
	}
	r.Exclude(culprits...)
	return r.commitNonces(out, r.attempt+1)
}

// Clear implements round.Clearer.
func (r *round2) Clear() {
	if r.d_i != nil {
		r.d_i.Clear()
	}
	if r.e_i != nil {
		r.e_i.Clear()
	}
}

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return nil }

// RoundNumber implements round.Content.
func (b broadcast2) RoundNumber() round.Number { return attemptRound(b.Attempt) }

// BroadcastContent implements round.BroadcastRound.
func (r *round2) BroadcastContent() round.BroadcastContent {
	return &broadcast2{
		D_i: r.Group().NewPoint(),
		E_i: r.Group().NewPoint(),
	}
}

// Number implements round.Round.
func (r *round2) Number() round.Number { return attemptRound(r.attempt) }
