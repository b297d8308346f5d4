package keygen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// round3 collects the complaints of every participant.
type round3 struct {
	*round2

	// complaints[accuser] is the list of complaints broadcast by accuser.
	complaints map[party.ID][]*Complaint
}

type broadcast3 struct {
	round.ReliableBroadcastContent
	Complaints []*Complaint
}

// StoreBroadcastMessage implements round.BroadcastRound.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	from := msg.From

	accused := make(map[party.ID]bool, len(body.Complaints))
	for _, c := range body.Complaints {
		if err := c.validate(from, r.PartyIDs()); err != nil {
			return err
		}
		if accused[c.Accused] {
			return fmt.Errorf("%w: %v accuses %v twice", ErrInvalidComplaint, from, c.Accused)
		}
		accused[c.Accused] = true
	}
	if len(body.Complaints) > 0 {
		r.complaints[from] = body.Complaints
	}
	return nil
}

// VerifyMessage implements round.Round.
func (round3) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round3) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round.
//
// Without any complaint, the key is computed right away.
// Otherwise, every participant broadcasts the justifications for the complaints raised against it.
// Complaints raised by or against excluded parties are dropped.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	if abort := r.dropFaulty(); abort != nil {
		return abort, nil
	}
	alive := r.PartyIDs()
	for accuser, complaints := range r.complaints {
		kept := make([]*Complaint, 0, len(complaints))
		for _, c := range complaints {
			if alive.Contains(c.Accused) {
				kept = append(kept, c)
			}
		}
		if len(kept) == 0 || !alive.Contains(accuser) {
			delete(r.complaints, accuser)
			continue
		}
		r.complaints[accuser] = kept
	}

	if len(r.complaints) == 0 {
		return r.output(r.excluded)
	}

	self := r.SelfID()
	justifications := make([]*Justification, 0)
	own := make(map[party.ID]*Justification)
	for _, accuser := range r.PartyIDs() {
		for _, c := range r.complaints[accuser] {
			if c.Accused != self {
				continue
			}
			j := &Justification{
				Accuser:   accuser,
				Envelope:  r.sent[accuser],
				Ephemeral: append([]byte(nil), r.ephemerals[accuser]...),
			}
			justifications = append(justifications, j)
			own[accuser] = j
		}
	}

	if err := r.BroadcastMessage(out, &broadcast4{Justifications: justifications}); err != nil {
		return r, err
	}
	return &round4{
		round3:         r,
		justifications: map[party.ID]map[party.ID]*Justification{self: own},
	}, nil
}

// output computes the key material from the shares and commitments of the parties that were not excluded.
//
// - sᵢ = ∑ⱼ fⱼ(i)
// - Y = ∑ⱼ Φⱼ(0)
// - Yⱼ = ∑ₖ Φₖ(j), the verification share of every participant.
func (r *round3) output(excluded party.IDSlice) (round.Session, error) {
	group := r.Group()
	self := r.SelfID()
	alive := r.PartyIDs()

	privateShare := group.NewScalar()
	commitments := make(map[party.ID]*polynomial.Exponent, len(alive))
	exponents := make([]*polynomial.Exponent, 0, len(alive))
	for _, j := range alive {
		share, ok := r.shares[j]
		if !ok {
			privateShare.Clear()
			return r, fmt.Errorf("keygen: no share accepted from %v", j)
		}
		privateShare.Add(share)
		commitments[j] = r.Phi[j]
		exponents = append(exponents, r.Phi[j])
	}

	summed, err := polynomial.Sum(exponents)
	if err != nil {
		privateShare.Clear()
		return r, fmt.Errorf("keygen: %w", err)
	}

	points := r.Pool.Parallelize(len(alive), func(i int) interface{} {
		return summed.Evaluate(alive[i].Scalar(group))
	})
	verificationShares := make(map[party.ID]curve.Point, len(alive))
	for i, j := range alive {
		verificationShares[j] = points[i].(curve.Point)
	}

	if !privateShare.ActOnBase().Equal(verificationShares[self]) {
		privateShare.Clear()
		return r, errors.New("keygen: private share does not match its verification share")
	}

	r.Clear()
	return r.ResultRound(&Config{
		Group:              group,
		ID:                 self,
		Threshold:          r.Threshold(),
		SessionID:          r.SSID(),
		PrivateShare:       privateShare,
		PublicKey:          summed.Constant(),
		VerificationShares: verificationShares,
		Commitments:        commitments,
		Participants:       alive.Copy(),
		Excluded:           excluded,
	}), nil
}

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (round3) BroadcastContent() round.BroadcastContent { return &broadcast3{} }

// MessageContent implements round.Round.
func (round3) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }
