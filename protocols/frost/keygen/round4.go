package keygen

import (
	"bytes"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

// round4 resolves complaints using the justifications of the accused dealers.
type round4 struct {
	*round3

	// justifications[accused][accuser] reveals the envelope accused sent to accuser.
	justifications map[party.ID]map[party.ID]*Justification
}

type broadcast4 struct {
	round.ReliableBroadcastContent
	Justifications []*Justification
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// Only justifications answering a complaint against the sender are accepted.
func (r *round4) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	from := msg.From

	stored := make(map[party.ID]*Justification, len(body.Justifications))
	for _, j := range body.Justifications {
		if err := j.validate(); err != nil {
			return err
		}
		if !r.accuses(j.Accuser, from) {
			return fmt.Errorf("%w: %v does not accuse %v", ErrInvalidJustification, j.Accuser, from)
		}
		if stored[j.Accuser] != nil {
			return fmt.Errorf("%w: %v answered %v twice", ErrInvalidJustification, from, j.Accuser)
		}
		stored[j.Accuser] = j
	}
	r.justifications[from] = stored
	return nil
}

// VerifyMessage implements round.Round.
func (round4) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round4) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
//
// For every complaint:
//   - an accused dealer that did not reveal a valid envelope is excluded;
//   - an accuser whose claim is refuted by the revealed envelope is excluded;
//   - for a digest mismatch that the revealed envelope confirms, the envelope was altered in transit,
//     so the accuser adopts the revealed share and nobody is excluded.
func (r *round4) Finalize(chan<- *round.Message) (round.Session, error) {
	if abort := r.dropFaulty(); abort != nil {
		return abort, nil
	}
	self := r.SelfID()
	alive := r.PartyIDs()
	excluded := make(map[party.ID]bool)

	for _, accuser := range alive {
		for _, c := range r.complaints[accuser] {
			if !alive.Contains(c.Accused) {
				continue
			}
			share, ok := r.verifyJustification(c.Accused, accuser, r.justifications[c.Accused][accuser])
			if !ok {
				excluded[c.Accused] = true
				continue
			}

			if c.Evidence.Reason != ReasonDigestMismatch {
				share.Clear()
				excluded[accuser] = true
				continue
			}

			committed := r.digests[c.Accused][accuser]
			if c.Evidence.Envelope == nil || bytes.Equal(envelopeDigest(r.Hash(), c.Accused, accuser, c.Evidence.Envelope), committed) {
				// the accuser received the envelope that was committed to
				share.Clear()
				excluded[accuser] = true
				continue
			}
			if accuser == self {
				r.shares[c.Accused] = share
			} else {
				share.Clear()
			}
		}
	}

	culprits := make(party.IDSlice, 0, len(excluded))
	for id := range excluded {
		culprits = append(culprits, id)
	}
	culprits.Sort()
	all := party.NewIDSlice(append(r.excluded.Copy(), culprits...))

	if excluded[self] {
		r.Clear()
		return r.AbortRound(ErrExcluded, all...), nil
	}
	if len(alive)-len(culprits) < r.Threshold() {
		r.Clear()
		return r.AbortRound(fmt.Errorf("keygen: %w", protocol.ErrThresholdNotMet), all...), nil
	}

	r.Exclude(culprits...)
	return r.output(all)
}

// accuses returns true if accuser broadcast a complaint against accused.
func (r *round4) accuses(accuser, accused party.ID) bool {
	for _, c := range r.complaints[accuser] {
		if c.Accused == accused {
			return true
		}
	}
	return false
}

// verifyJustification re-opens the envelope revealed by dealer for receiver, and returns the share it contains
// if the envelope is the one dealer committed to, and the share matches dealer's polynomial.
func (r *round4) verifyJustification(dealer, receiver party.ID, j *Justification) (curve.Scalar, bool) {
	if j == nil {
		return nil, false
	}
	if !bytes.Equal(envelopeDigest(r.Hash(), dealer, receiver, j.Envelope), r.digests[dealer][receiver]) {
		return nil, false
	}
	plaintext, err := channel.OpenWithEphemeral(j.Ephemeral, r.directory[receiver], r.SSID(), dealer, receiver, j.Envelope)
	if err != nil {
		return nil, false
	}
	defer zero(plaintext)

	share := r.Group().NewScalar()
	if err = share.UnmarshalBinary(plaintext); err != nil {
		return nil, false
	}
	if !r.Phi[dealer].VerifyShare(receiver, share) {
		share.Clear()
		return nil, false
	}
	return share, true
}

// RoundNumber implements round.Content.
func (broadcast4) RoundNumber() round.Number { return 4 }

// BroadcastContent implements round.BroadcastRound.
func (round4) BroadcastContent() round.BroadcastContent { return &broadcast4{} }

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }
