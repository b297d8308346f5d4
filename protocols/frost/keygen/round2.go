package keygen

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/taurusgroup/multi-party-schnorr/internal/params"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

// round2 opens and verifies the shares dealt to this participant.
type round2 struct {
	*round1

	// Phi contains the Feldman commitment of every dealer.
	Phi map[party.ID]*polynomial.Exponent
	// digests[dealer][receiver] is the digest of the envelope dealer committed to sending to receiver.
	digests map[party.ID]map[party.ID][]byte

	// sent and ephemerals are the envelopes we dealt, along with the secrets needed to reveal them.
	sent       map[party.ID]*channel.Envelope
	ephemerals map[party.ID][]byte

	// shares[j] = fⱼ(self), for every share that was accepted.
	shares map[party.ID]curve.Scalar
	// received[j] is the envelope sent to us by j.
	received map[party.ID]*channel.Envelope
	// complaints[j] is our complaint against dealer j.
	complaints map[party.ID]*Complaint

	// faulty contains the parties whose broadcast was invalid in the current round.
	faulty map[party.ID]bool
	// excluded lists the parties removed from the session so far.
	excluded party.IDSlice
}

type broadcast2 struct {
	round.ReliableBroadcastContent
	// Phi_i is the commitment to the polynomial of the dealer.
	Phi_i *polynomial.Exponent
	// Digests maps every receiver to the digest of the envelope addressed to it.
	Digests map[party.ID][]byte
}

type message2 struct {
	// Share is fᵢ(j), encrypted for j.
	Share *channel.Envelope
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - verify the degree of the commitment.
// - check that there is exactly one digest for every other participant.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil || body.Phi_i == nil {
		return round.ErrInvalidContent
	}
	from := msg.From

	if body.Phi_i.Degree() != r.Threshold()-1 {
		return fmt.Errorf("keygen: commitment of %v has degree %d", from, body.Phi_i.Degree())
	}
	if len(body.Digests) != r.N()-1 {
		return fmt.Errorf("keygen: %v committed to %d envelopes", from, len(body.Digests))
	}
	for _, j := range r.PartyIDs() {
		if j == from {
			continue
		}
		if len(body.Digests[j]) != params.HashBytes {
			return fmt.Errorf("keygen: %v has no valid digest for %v", from, j)
		}
	}

	r.Phi[from] = body.Phi_i
	r.digests[from] = body.Digests
	return nil
}

// MarkFaulty implements round.FaultTolerantRound.
//
// The sender is excluded when the round is finalized, and its share is ignored.
// Later rounds record faulty senders the same way.
func (r *round2) MarkFaulty(from party.ID, _ error) error {
	r.faulty[from] = true
	return nil
}

// VerifyMessage implements round.Round.
func (r *round2) VerifyMessage(msg round.Message) error {
	if r.faulty[msg.From] {
		return nil
	}
	body, ok := msg.Content.(*message2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Share == nil {
		return round.ErrNilFields
	}
	return nil
}

// StoreMessage implements round.Round.
//
// A share that cannot be accepted is not an error of the session.
// Instead, a complaint against the dealer is recorded, to be broadcast in the next round.
func (r *round2) StoreMessage(msg round.Message) error {
	from := msg.From
	if r.faulty[from] {
		return nil
	}
	body := msg.Content.(*message2)
	r.received[from] = body.Share

	share, complaint := r.checkShare(from, body.Share)
	if complaint != nil {
		r.complaints[from] = complaint
		return nil
	}
	r.shares[from] = share
	return nil
}

// checkShare opens the envelope sent by dealer, and verifies the share against its commitment.
func (r *round2) checkShare(dealer party.ID, env *channel.Envelope) (curve.Scalar, *Complaint) {
	self := r.SelfID()
	complain := func(reason Reason, share []byte) *Complaint {
		return &Complaint{
			Accuser: self,
			Accused: dealer,
			Round:   2,
			Evidence: Evidence{
				Reason:   reason,
				Envelope: env,
				Share:    share,
			},
		}
	}

	if !bytes.Equal(envelopeDigest(r.Hash(), dealer, self, env), r.digests[dealer][self]) {
		return nil, complain(ReasonDigestMismatch, nil)
	}
	plaintext, err := channel.Open(r.channelKey, r.SSID(), dealer, self, env)
	if err != nil {
		return nil, complain(ReasonAuthenticationFailed, nil)
	}
	share := r.Group().NewScalar()
	if err = share.UnmarshalBinary(plaintext); err != nil {
		return nil, complain(ReasonInvalidEncoding, plaintext)
	}
	if !r.Phi[dealer].VerifyShare(self, share) {
		share.Clear()
		return nil, complain(ReasonShareVerificationFailed, plaintext)
	}
	zero(plaintext)
	return share, nil
}

// Finalize implements round.Round.
//
// Every participant broadcasts its complaints, even when there are none,
// so that everyone agrees on whether the justification round is needed.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	if abort := r.dropFaulty(); abort != nil {
		return abort, nil
	}

	alive := r.PartyIDs()
	complaints := make([]*Complaint, 0, len(r.complaints))
	for _, c := range r.complaints {
		if alive.Contains(c.Accused) {
			complaints = append(complaints, c)
		}
	}
	sort.Slice(complaints, func(i, j int) bool { return complaints[i].Accused < complaints[j].Accused })

	if err := r.BroadcastMessage(out, &broadcast3{Complaints: complaints}); err != nil {
		return r, err
	}

	all := make(map[party.ID][]*Complaint, r.N())
	if len(complaints) > 0 {
		all[r.SelfID()] = complaints
	}
	return &round3{
		round2:     r,
		complaints: all,
	}, nil
}

// dropFaulty excludes the parties recorded by MarkFaulty during the current round.
// It returns an Abort if fewer than threshold parties remain.
func (r *round2) dropFaulty() round.Session {
	if len(r.faulty) == 0 {
		return nil
	}
	culprits := party.NewIDSlice(keys(r.faulty))
	r.faulty = make(map[party.ID]bool)
	r.excluded = party.NewIDSlice(append(r.excluded.Copy(), culprits...))

	if len(r.PartyIDs())-len(culprits) < r.Threshold() {
		r.Clear()
		return r.AbortRound(fmt.Errorf("keygen: %w", protocol.ErrThresholdNotMet), r.excluded...)
	}
	r.Exclude(culprits...)
	return nil
}

// Clear implements round.Clearer.
func (r *round2) Clear() {
	for id, s := range r.shares {
		s.Clear()
		delete(r.shares, id)
	}
	clearEphemerals(r.ephemerals)
}

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// BroadcastContent implements round.BroadcastRound.
func (r *round2) BroadcastContent() round.BroadcastContent {
	return &broadcast2{
		Phi_i: polynomial.EmptyExponent(r.Group()),
	}
}

// RoundNumber implements round.Content.
func (message2) RoundNumber() round.Number { return 2 }

// MessageContent implements round.Round.
func (round2) MessageContent() round.Content { return &message2{} }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }
