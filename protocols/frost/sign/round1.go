package sign

import (
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/sample"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// This round corresponds with steps 1-2 of Figure 3 in the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// Instead of a preprocessing stage, each signer samples its nonces when the session starts,
// and broadcasts their commitments to the other signers directly.
type round1 struct {
	*round.Helper
	rand    io.Reader
	tracker *NonceTracker

	// M is the message being signed.
	M []byte
	// Y is the public key we're signing for.
	Y curve.Point
	// YShares are verification shares for each participant's fraction of the secret key.
	//
	// YShares[i] = sᵢ⋅G
	YShares map[party.ID]curve.Point
	// s_i = sᵢ is our private secret share.
	s_i curve.Scalar
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	return r.commitNonces(out, 0)
}

// commitNonces starts a signing attempt among the signers still in the session.
//
// "Each Pᵢ generates fresh single-use nonces (dᵢ, eᵢ) ⟵$ ℤ/(q) × ℤ/(q),
// and derives the commitments (Dᵢ, Eᵢ) = (dᵢ⋅G, eᵢ⋅G)."
//
// Nonces are never carried over from a previous attempt.
func (r *round1) commitNonces(out chan<- *round.Message, attempt uint16) (round.Session, error) {
	group := r.Group()
	d_i, D_i := sample.ScalarPointPair(r.rand, group)
	e_i, E_i := sample.ScalarPointPair(r.rand, group)

	if err := r.tracker.Use(D_i, E_i); err != nil {
		d_i.Clear()
		e_i.Clear()
		return r.AbortRound(fmt.Errorf("sign: own nonces: %w", err)), nil
	}

	if err := r.BroadcastMessage(out, &broadcast2{
		Attempt: attempt,
		D_i:     D_i,
		E_i:     E_i,
	}); err != nil {
		d_i.Clear()
		e_i.Clear()
		return r, err
	}

	return &round2{
		round1:  r,
		attempt: attempt,
		d_i:     d_i,
		e_i:     e_i,
		D:       map[party.ID]curve.Point{r.SelfID(): D_i},
		E:       map[party.ID]curve.Point{r.SelfID(): E_i},
		faulty:  map[party.ID]bool{},
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }
