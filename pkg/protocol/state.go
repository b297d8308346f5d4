package protocol

import (
	"bytes"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol/message"
)

// roundState tracks which messages of the current round have been stored.
// A p2p message is held back until the broadcast message from the same sender has been stored,
// since rounds may depend on the broadcast content.
type roundState struct {
	current   round.Session
	broadcast map[party.ID]bool
	p2p       map[party.ID]bool
	pending   map[party.ID]*Message
}

func newRoundState(s round.Session) *roundState {
	return &roundState{
		current:   s,
		broadcast: map[party.ID]bool{},
		p2p:       map[party.ID]bool{},
		pending:   map[party.ID]*Message{},
	}
}

func (rs *roundState) broadcastContent() round.BroadcastContent {
	if b, ok := rs.current.(round.BroadcastRound); ok {
		return b.BroadcastContent()
	}
	return nil
}

func (rs *roundState) expectsBroadcast() bool { return rs.broadcastContent() != nil }

func (rs *roundState) expectsMessage() bool { return rs.current.MessageContent() != nil }

func (rs *roundState) finished() bool {
	switch rs.current.(type) {
	case *round.Output, *round.Abort:
		return true
	}
	return false
}

// validate checks the header of msg against the current round, without looking at its content.
// Returns message.ErrFutureRound when the message belongs to a later round of this session.
func (rs *roundState) validate(msg *Message) error {
	if msg == nil || len(msg.Data) == 0 {
		return message.ErrNilContent
	}
	if !bytes.Equal(rs.current.SSID(), msg.SSID) {
		return message.ErrWrongSSID
	}
	if msg.Protocol != rs.current.ProtocolID() {
		return message.ErrWrongProtocolID
	}
	if !msg.IsFor(rs.current.SelfID()) {
		return message.ErrWrongDestination
	}
	if rs.finished() {
		return message.ErrLastRound
	}
	if msg.RoundNumber == 0 || msg.RoundNumber > rs.current.FinalRoundNumber() {
		return message.ErrInvalidRoundNumber
	}
	if msg.RoundNumber < rs.current.Number() {
		return message.ErrInvalidRoundNumber
	}
	if !rs.current.OtherPartyIDs().Contains(msg.From) {
		return message.ErrUnknownSender
	}
	if msg.RoundNumber > rs.current.Number() {
		return message.ErrFutureRound
	}

	if msg.Broadcast {
		if !rs.expectsBroadcast() {
			return message.ErrInvalidContent
		}
		if rs.broadcast[msg.From] {
			return message.ErrDuplicate
		}
		return nil
	}

	if !rs.expectsMessage() {
		if rs.current.Number() == 1 {
			return message.ErrFirstRound
		}
		return message.ErrInvalidContent
	}
	if msg.To == 0 {
		return message.ErrInvalidTo
	}
	if rs.p2p[msg.From] || rs.pending[msg.From] != nil {
		return message.ErrDuplicate
	}
	return nil
}

// store decodes the content of a validated message and hands it to the round.
// Errors caused by the content are returned as Error with the sender as culprit.
func (rs *roundState) store(msg *Message) error {
	if msg.Broadcast {
		if err := rs.storeBroadcast(msg); err != nil {
			return err
		}
		rs.broadcast[msg.From] = true
		if pending := rs.pending[msg.From]; pending != nil {
			delete(rs.pending, msg.From)
			return rs.store(pending)
		}
		return nil
	}

	if rs.expectsBroadcast() && !rs.broadcast[msg.From] {
		rs.pending[msg.From] = msg
		return nil
	}

	content := rs.current.MessageContent()
	if err := encoding.Unmarshal(msg.Data, content); err != nil {
		return rs.culprit(msg.From, fmt.Errorf("%w: %w", message.ErrInvalidContent, err))
	}
	if content.RoundNumber() != msg.RoundNumber {
		return rs.culprit(msg.From, message.ErrInconsistentRound)
	}
	roundMsg := round.Message{
		From:    msg.From,
		To:      msg.To,
		Content: content,
	}
	if err := rs.current.VerifyMessage(roundMsg); err != nil {
		return rs.culprit(msg.From, err)
	}
	if err := rs.current.StoreMessage(roundMsg); err != nil {
		return rs.culprit(msg.From, err)
	}
	rs.p2p[msg.From] = true
	return nil
}

// storeBroadcast hands a broadcast to the round.
// If the round tolerates faulty senders, an invalid broadcast is reported to it instead of failing.
func (rs *roundState) storeBroadcast(msg *Message) error {
	b := rs.current.(round.BroadcastRound)
	err := decodeBroadcast(b, msg)
	if err == nil {
		return nil
	}
	if ft, ok := b.(round.FaultTolerantRound); ok {
		err = ft.MarkFaulty(msg.From, err)
	}
	if err != nil {
		return rs.culprit(msg.From, err)
	}
	return nil
}

func decodeBroadcast(b round.BroadcastRound, msg *Message) error {
	content := b.BroadcastContent()
	if err := encoding.Unmarshal(msg.Data, content); err != nil {
		return fmt.Errorf("%w: %w", message.ErrInvalidContent, err)
	}
	if content.RoundNumber() != msg.RoundNumber {
		return message.ErrInconsistentRound
	}
	return b.StoreBroadcastMessage(round.Message{
		From:      msg.From,
		Broadcast: true,
		Content:   content,
	})
}

// complete returns true when every expected message from the parties still in the session has been stored.
func (rs *roundState) complete() bool {
	for _, id := range rs.current.OtherPartyIDs() {
		if rs.expectsBroadcast() && !rs.broadcast[id] {
			return false
		}
		if rs.expectsMessage() && !rs.p2p[id] {
			return false
		}
	}
	return true
}

// advance finalizes the current round, and keeps finalizing while the next round expects no messages.
// The returned messages are ready to be delivered.
func (rs *roundState) advance() ([]*Message, error) {
	var outbound []*Message
	for !rs.finished() && rs.complete() {
		number := rs.current.Number()
		out := make(chan *round.Message, 2*rs.current.N()+2)
		next, err := rs.current.Finalize(out)
		close(out)
		if err != nil {
			return nil, Error{RoundNumber: number, Err: err}
		}

		for roundMsg := range out {
			msg, err := rs.wrap(next, roundMsg)
			if err != nil {
				return nil, Error{RoundNumber: number, Err: err}
			}
			outbound = append(outbound, msg)
		}

		*rs = *newRoundState(next)
	}
	return outbound, nil
}

func (rs *roundState) wrap(s round.Session, roundMsg *round.Message) (*Message, error) {
	data, err := encoding.Marshal(roundMsg.Content)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to marshal content: %w", err)
	}
	to := roundMsg.To
	if roundMsg.Broadcast {
		to = 0
	}
	return &Message{
		SSID:        s.SSID(),
		From:        roundMsg.From,
		To:          to,
		Protocol:    s.ProtocolID(),
		RoundNumber: roundMsg.Content.RoundNumber(),
		Data:        data,
		Broadcast:   roundMsg.Broadcast,
	}, nil
}

func (rs *roundState) culprit(id party.ID, err error) error {
	return Error{
		RoundNumber: rs.current.Number(),
		Culprits:    []party.ID{id},
		Err:         err,
	}
}

// clear wipes the secrets held by the current round.
func (rs *roundState) clear() {
	if c, ok := rs.current.(round.Clearer); ok {
		c.Clear()
	}
}
