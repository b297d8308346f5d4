package protocol_test

import (
	"errors"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

// toy is a three round protocol computing the sum of the parties' values.
// Values above 100 make the protocol abort, naming their owner.

var errTooLarge = errors.New("value too large")

type toyRound1 struct {
	*round.Helper
	value uint32
	// lie makes the party send an inconsistent p2p value
	lie bool
}

type toyRound2 struct {
	*toyRound1
	values map[party.ID]uint32
}

type toyRound3 struct {
	*toyRound2
	sum uint32
}

type toyBroadcast2 struct {
	round.ReliableBroadcastContent
	Value uint32
}

type toyMessage2 struct {
	Value uint32
}

type toyBroadcast3 struct {
	round.ReliableBroadcastContent
	Sum uint32
}

func startToy(selfID party.ID, partyIDs []party.ID, value uint32, lie bool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		helper, err := round.NewSession(round.Info{
			ProtocolID:       "toy",
			FinalRoundNumber: 3,
			SelfID:           selfID,
			PartyIDs:         partyIDs,
			Threshold:        1,
			Group:            curve.Edwards25519{},
		}, sessionID, nil)
		if err != nil {
			return nil, err
		}
		return &toyRound1{Helper: helper, value: value, lie: lie}, nil
	}
}

func (r *toyRound1) VerifyMessage(round.Message) error { return nil }
func (r *toyRound1) StoreMessage(round.Message) error  { return nil }
func (r *toyRound1) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &toyBroadcast2{Value: r.value}); err != nil {
		return r, err
	}
	for _, j := range r.OtherPartyIDs() {
		v := r.value
		if r.lie {
			v++
		}
		if err := r.SendMessage(out, &toyMessage2{Value: v}, j); err != nil {
			return r, err
		}
	}
	return &toyRound2{
		toyRound1: r,
		values:    map[party.ID]uint32{r.SelfID(): r.value},
	}, nil
}
func (toyRound1) MessageContent() round.Content { return nil }
func (toyRound1) Number() round.Number          { return 1 }

func (r *toyRound2) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*toyBroadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	r.values[msg.From] = body.Value
	return nil
}
func (r *toyRound2) VerifyMessage(msg round.Message) error {
	body, ok := msg.Content.(*toyMessage2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Value != r.values[msg.From] {
		return errors.New("inconsistent value")
	}
	return nil
}
func (r *toyRound2) StoreMessage(round.Message) error { return nil }
func (r *toyRound2) Finalize(out chan<- *round.Message) (round.Session, error) {
	var (
		sum      uint32
		culprits []party.ID
	)
	for _, id := range r.PartyIDs() {
		if r.values[id] > 100 {
			culprits = append(culprits, id)
		}
		sum += r.values[id]
	}
	if len(culprits) > 0 {
		return r.AbortRound(errTooLarge, culprits...), nil
	}
	if err := r.BroadcastMessage(out, &toyBroadcast3{Sum: sum}); err != nil {
		return r, err
	}
	return &toyRound3{toyRound2: r, sum: sum}, nil
}
func (toyRound2) MessageContent() round.Content            { return &toyMessage2{} }
func (toyRound2) BroadcastContent() round.BroadcastContent { return &toyBroadcast2{} }
func (toyRound2) Number() round.Number                     { return 2 }

func (r *toyRound3) StoreBroadcastMessage(msg round.Message) error {
	body, ok := msg.Content.(*toyBroadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.Sum != r.sum {
		return errors.New("sum mismatch")
	}
	return nil
}
func (r *toyRound3) VerifyMessage(round.Message) error { return nil }
func (r *toyRound3) StoreMessage(round.Message) error  { return nil }
func (r *toyRound3) Finalize(chan<- *round.Message) (round.Session, error) {
	return r.ResultRound(r.sum), nil
}
func (toyRound3) MessageContent() round.Content            { return nil }
func (toyRound3) BroadcastContent() round.BroadcastContent { return &toyBroadcast3{} }
func (toyRound3) Number() round.Number                     { return 3 }

func (toyMessage2) RoundNumber() round.Number   { return 2 }
func (toyBroadcast2) RoundNumber() round.Number { return 2 }
func (toyBroadcast3) RoundNumber() round.Number { return 3 }
