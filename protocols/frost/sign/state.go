package sign

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Phase is the stage a signing session has reached.
type Phase uint8

const (
	PhaseInit Phase = iota + 1
	PhaseNonceCommit
	PhaseShareSign
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseNonceCommit:
		return "nonce commit"
	case PhaseShareSign:
		return "share sign"
	case PhaseComplete:
		return "complete"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown phase %d", uint8(p))
	}
}

// Commitment is the encoding of a nonce commitment pair (D, E).
type Commitment struct {
	D, E []byte
}

// State is the public part of a signing session, as seen by one signer.
type State struct {
	Phase   Phase
	Attempt uint16
	SSID    []byte
	// Signers are the parties taking part in the current attempt.
	Signers []party.ID
	// Commitments are the nonce commitments of the current attempt.
	Commitments map[party.ID]Commitment
	// Signature is set once the session is complete.
	Signature []byte
	Culprits  []party.ID
}

// Snapshot returns the public state of a session created by StartSign.
func Snapshot(s round.Session) (*State, error) {
	state := &State{
		SSID:        s.SSID(),
		Signers:     s.PartyIDs().Copy(),
		Commitments: map[party.ID]Commitment{},
	}

	var D, E map[party.ID]curve.Point
	switch r := s.(type) {
	case *round1:
		state.Phase = PhaseInit
	case *round2:
		state.Phase = PhaseNonceCommit
		state.Attempt = r.attempt
		D, E = r.D, r.E
	case *round3:
		state.Phase = PhaseShareSign
		state.Attempt = r.attempt
		D, E = r.D, r.E
	case *round.Output:
		sig, ok := r.Result.(*Signature)
		if !ok {
			return nil, errors.New("sign: session did not output a signature")
		}
		data, err := sig.MarshalBinary()
		if err != nil {
			return nil, err
		}
		state.Phase = PhaseComplete
		state.Signature = data
	case *round.Abort:
		state.Phase = PhaseAborted
		state.Culprits = party.NewIDSlice(r.Culprits)
	default:
		return nil, fmt.Errorf("sign: %T is not a signing session", s)
	}

	for id, D_i := range D {
		d, err := D_i.MarshalBinary()
		if err != nil {
			return nil, err
		}
		e, err := E[id].MarshalBinary()
		if err != nil {
			return nil, err
		}
		state.Commitments[id] = Commitment{D: d, E: e}
	}
	return state, nil
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *State) MarshalBinary() ([]byte, error) {
	type plain State
	return encoding.Marshal((*plain)(s))
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *State) UnmarshalBinary(data []byte) error {
	type plain State
	var p plain
	if err := encoding.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = State(p)
	return nil
}

func keys[V any](m map[party.ID]V) []party.ID {
	ids := make([]party.ID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}
