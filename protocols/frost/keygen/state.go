package keygen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Phase is the stage a key generation session has reached.
type Phase uint8

const (
	PhaseDeal Phase = iota + 1
	PhaseVerify
	PhaseComplain
	PhaseJustify
	PhaseComplete
	PhaseAborted
)

func (p Phase) String() string {
	switch p {
	case PhaseDeal:
		return "deal"
	case PhaseVerify:
		return "verify"
	case PhaseComplain:
		return "complain"
	case PhaseJustify:
		return "justify"
	case PhaseComplete:
		return "complete"
	case PhaseAborted:
		return "aborted"
	default:
		return fmt.Sprintf("unknown phase %d", uint8(p))
	}
}

// State is the public part of a key generation session, as seen by one participant.
// It contains no secret, and can be stored or shown to an auditor.
type State struct {
	Phase Phase
	SSID  []byte
	// Participants are the parties still in the session.
	Participants []party.ID
	// Commitments holds the encoded Feldman commitment of every dealer received so far.
	Commitments map[party.ID][]byte
	// Complaints are all complaints broadcast so far, ordered by accuser.
	Complaints []*Complaint
	Excluded   []party.ID
}

// Snapshot returns the public state of a session created by StartKeygen.
func Snapshot(s round.Session) (*State, error) {
	state := &State{
		SSID:         s.SSID(),
		Participants: s.PartyIDs().Copy(),
		Commitments:  map[party.ID][]byte{},
	}

	var (
		phi        map[party.ID]*polynomial.Exponent
		complaints map[party.ID][]*Complaint
	)
	switch r := s.(type) {
	case *round1:
		state.Phase = PhaseDeal
	case *round2:
		state.Phase = PhaseVerify
		phi = r.Phi
	case *round3:
		state.Phase = PhaseComplain
		phi, complaints = r.Phi, r.complaints
	case *round4:
		state.Phase = PhaseJustify
		phi, complaints = r.Phi, r.complaints
	case *round.Output:
		config, ok := r.Result.(*Config)
		if !ok {
			return nil, errors.New("keygen: session did not output a config")
		}
		state.Phase = PhaseComplete
		phi = config.Commitments
		state.Excluded = config.Excluded.Copy()
	case *round.Abort:
		state.Phase = PhaseAborted
		state.Excluded = party.NewIDSlice(r.Culprits)
	default:
		return nil, fmt.Errorf("keygen: %T is not a key generation session", s)
	}

	for id, p := range phi {
		data, err := p.MarshalBinary()
		if err != nil {
			return nil, err
		}
		state.Commitments[id] = data
	}
	for _, accuser := range party.NewIDSlice(keys(complaints)) {
		state.Complaints = append(state.Complaints, complaints[accuser]...)
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
