package keygen

import (
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/hash"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// round1 samples the participant's sharing polynomial, and deals one encrypted share to every peer.
type round1 struct {
	*round.Helper
	rand       io.Reader
	channelKey *channel.KeyPair
	directory  channel.Directory
}

// VerifyMessage implements round.Round.
//
// Since this is the start of the protocol, we aren't expecting to have received
// any messages yet, so we do nothing.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
//
// The participant samples a random polynomial fᵢ of degree t-1, broadcasts the Feldman commitment
// Φᵢ = (aᵢ₀⋅G, …, aᵢₜ₋₁⋅G), and sends fᵢ(j) to each peer j in an envelope only j can open.
// The digest of every envelope is broadcast with Φᵢ, so that the dealer cannot later claim
// to have sent something else.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()

	f_i := polynomial.NewPolynomial(group, r.Threshold()-1, nil, r.rand)
	defer f_i.Clear()
	Phi_i := polynomial.NewPolynomialExponent(f_i)

	others := r.OtherPartyIDs()
	envelopes := make(map[party.ID]*channel.Envelope, len(others))
	ephemerals := make(map[party.ID][]byte, len(others))
	digests := make(map[party.ID][]byte, len(others))
	for _, j := range others {
		share := f_i.Evaluate(j.Scalar(group))
		plaintext, err := share.MarshalBinary()
		share.Clear()
		if err != nil {
			return r, fmt.Errorf("keygen: marshal share: %w", err)
		}
		env, ephemeral, err := channel.Seal(r.rand, r.directory[j], r.SSID(), self, j, plaintext)
		zero(plaintext)
		if err != nil {
			clearEphemerals(ephemerals)
			return r, fmt.Errorf("keygen: seal share for %v: %w", j, err)
		}
		envelopes[j] = env
		ephemerals[j] = ephemeral
		digests[j] = envelopeDigest(r.Hash(), self, j, env)
	}

	if err := r.BroadcastMessage(out, &broadcast2{
		Phi_i:   Phi_i,
		Digests: digests,
	}); err != nil {
		clearEphemerals(ephemerals)
		return r, err
	}
	for _, j := range others {
		if err := r.SendMessage(out, &message2{Share: envelopes[j]}, j); err != nil {
			clearEphemerals(ephemerals)
			return r, err
		}
	}

	return &round2{
		round1:     r,
		Phi:        map[party.ID]*polynomial.Exponent{self: Phi_i},
		digests:    map[party.ID]map[party.ID][]byte{self: digests},
		sent:       envelopes,
		ephemerals: ephemerals,
		shares:     map[party.ID]curve.Scalar{self: f_i.Evaluate(self.Scalar(group))},
		received:   make(map[party.ID]*channel.Envelope, len(others)),
		complaints: make(map[party.ID]*Complaint),
		faulty:     make(map[party.ID]bool),
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }

// envelopeDigest binds an envelope to the session, its dealer and its receiver.
func envelopeDigest(h *hash.Hash, from, to party.ID, env *channel.Envelope) []byte {
	_ = h.WriteAny(from, to, env)
	return h.Sum()
}

func clearEphemerals(ephemerals map[party.ID][]byte) {
	for id, e := range ephemerals {
		zero(e)
		delete(ephemerals, id)
	}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
