package round

import (
	"errors"

	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Session represents the current execution of a round-based protocol.
// It embeds the current round, and provides additional information about the session.
type Session interface {
	// Round is the current round being executed.
	Round
	// Group returns the group used for this protocol execution.
	Group() curve.Curve
	// ProtocolID is an identifier for this protocol.
	ProtocolID() string
	// FinalRoundNumber is the number of rounds before the output round.
	FinalRoundNumber() Number
	// SSID the unique identifier for this protocol execution.
	SSID() []byte
	// SelfID is this party's ID.
	SelfID() party.ID
	// PartyIDs is a sorted slice of participating parties in this protocol.
	PartyIDs() party.IDSlice
	// OtherPartyIDs returns a sorted list of parties that does not contain SelfID.
	OtherPartyIDs() party.IDSlice
	// Threshold is the number of parties needed to reconstruct the secret, or to sign.
	Threshold() int
	// N returns the total number of parties participating in the protocol.
	N() int
}

// Round is a single state of a protocol, reacting to the messages of one round.
type Round interface {
	// VerifyMessage handles an incoming Message and validates its content against the rules of the protocol.
	// The content argument can be cast to the appropriate type for this round without error check.
	// In the first round, this function returns nil.
	// This function should not modify any saved state as it may be running concurrently.
	VerifyMessage(msg Message) error

	// StoreMessage should be called after VerifyMessage and should only store the appropriate fields from the
	// content.
	StoreMessage(msg Message) error

	// Finalize is called after all messages from the parties have been processed in the current round.
	// Messages for the next round are sent out through the out channel.
	// If a non-critical error occurs (like a failure to sample, hash, or send a message), the current round can be
	// returned so that the caller may try to finalize again.
	//
	// If the protocol should end, Finalize returns either a round.Output with the result,
	// or a round.Abort listing the culprits.
	Finalize(out chan<- *Message) (Session, error)

	// MessageContent returns an uninitialized message.Content for this round.
	//
	// The first round of a protocol, and rounds without point to point messages, should return nil.
	MessageContent() Content

	// Number returns the current round number.
	Number() Number
}

// BroadcastRound extends Round in that it expects a broadcast message before the p2p message.
// Due to the way Go struct inheritance works, it is necessary to implement both methods in a separate struct
// which itself only implements the Round interface, so that the round can be embedded in the next round.
type BroadcastRound interface {
	// StoreBroadcastMessage must be run before Round.VerifyMessage and Round.StoreMessage,
	// since those may depend on the content from the broadcast.
	// It changes the round's state to store the message after performing basic validation.
	StoreBroadcastMessage(msg Message) error

	// BroadcastContent returns an uninitialized message.Content for this round's broadcast message.
	//
	// The first round of a protocol, and rounds which do not expect a broadcast message should return nil.
	BroadcastContent() BroadcastContent

	// Round must be implemented by an inherited round which would otherwise implement the
	// remaining methods.
	Round
}

// FaultTolerantRound is a BroadcastRound which removes the sender of an invalid broadcast
// from the session, instead of failing.
// Every party receives the same broadcast content, so all honest parties make the same decision.
type FaultTolerantRound interface {
	// MarkFaulty is called instead of failing when the broadcast sent by from cannot be decoded,
	// or is rejected by StoreBroadcastMessage with err.
	// It returns a non nil error when err must still end the session.
	MarkFaulty(from party.ID, err error) error

	BroadcastRound
}

// Clearer is implemented by rounds holding secret material, which must be
// erased when the session is abandoned.
type Clearer interface {
	Clear()
}

var (
	ErrOutChanFull    = errors.New("round: out channel is full")
	ErrInvalidContent = errors.New("round: content is not the expected type")
	ErrNilFields      = errors.New("round: message contained empty fields")
)
