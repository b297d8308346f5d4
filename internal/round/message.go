package round

import (
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Content represents the message, either broadcast or P2P returned by a round
// during finalization.
type Content interface {
	RoundNumber() Number
}

// BroadcastContent wraps a Content, and indicates that it must be broadcast reliably.
type BroadcastContent interface {
	Content
	broadcast()
}

// ReliableBroadcastContent can be embedded in a struct to mark it as BroadcastContent.
type ReliableBroadcastContent struct{}

func (ReliableBroadcastContent) broadcast() {}

// Message is an outgoing or incoming message, before it is encoded for transport.
// To is 0 for broadcast messages.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}
