package protocol

import (
	"errors"
	"sort"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol/message"
)

// StartFunc is function that creates the first round of a protocol.
// It returns the first round initialized with the session information.
// If the creation fails (likely due to misconfiguration), and error is returned.
type StartFunc func(sessionID []byte) (round.Session, error)

// Step feeds all inbound messages for the current round of s, and returns the next session
// together with the messages it produced.
//
// Step performs no I/O and keeps no state of its own: the caller delivers every message of a round
// at once, and sends out the returned messages.
// The first round is started by calling Step with no messages.
//
// Messages for another session, another round, from unknown senders, duplicates, or an incomplete
// set of messages are rejected with ErrSessionState before any of them is stored, and s is returned unchanged.
// A message with invalid content yields an Error naming its sender; s may then hold part of the round
// and should be abandoned.
// When the protocol aborts, the *round.Abort session is returned along with an Error listing the culprits.
func Step(s round.Session, inbound []*Message) (round.Session, []*Message, error) {
	rs := newRoundState(s)

	// broadcast messages must be stored before p2p messages
	ordered := make([]*Message, len(inbound))
	copy(ordered, inbound)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i] != nil && ordered[i].Broadcast && (ordered[j] == nil || !ordered[j].Broadcast)
	})

	type key struct {
		from      party.ID
		broadcast bool
	}
	seen := make(map[key]bool, len(ordered))
	for _, msg := range ordered {
		if err := rs.validate(msg); err != nil {
			return s, nil, sessionStateError(err)
		}
		k := key{msg.From, msg.Broadcast}
		if seen[k] {
			return s, nil, sessionStateError(message.ErrDuplicate)
		}
		seen[k] = true
	}
	for _, id := range s.OtherPartyIDs() {
		if (rs.expectsBroadcast() && !seen[key{id, true}]) || (rs.expectsMessage() && !seen[key{id, false}]) {
			return s, nil, sessionStateError(message.ErrIncompleteRound)
		}
	}

	for _, msg := range ordered {
		if err := rs.store(msg); err != nil {
			return s, nil, err
		}
	}

	outbound, err := rs.advance()
	if err != nil {
		return s, nil, err
	}

	if abort, ok := rs.current.(*round.Abort); ok {
		return abort, outbound, Error{
			RoundNumber: s.Number(),
			Culprits:    abort.Culprits,
			Err:         abort.Err,
		}
	}
	return rs.current, outbound, nil
}

// Result returns the output of a finished session.
// It returns ErrNotFinished if s has not reached a terminal round.
func Result(s round.Session) (interface{}, error) {
	switch r := s.(type) {
	case *round.Output:
		return r.Result, nil
	case *round.Abort:
		err := r.Err
		if err == nil {
			err = errors.New("protocol: aborted")
		}
		return nil, Error{Culprits: r.Culprits, Err: err}
	default:
		return nil, ErrNotFinished
	}
}
