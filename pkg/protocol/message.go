package protocol

import (
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/hash"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

type Message struct {
	// SSID is a byte string which uniquely identifies the session this message belongs to.
	SSID []byte
	// From is the party.ID of the sender
	From party.ID
	// To is the intended recipient for this message.
	// If To == 0, then the message is intended for all parties.
	To party.ID
	// Protocol identifies the protocol this message belongs to
	Protocol string
	// RoundNumber is the index of the round this message belongs to
	RoundNumber round.Number
	// Data is the actual content consumed by the round.
	Data []byte
	// Broadcast indicates whether this message should be reliably broadcast to all participants.
	Broadcast bool
}

// String implements fmt.Stringer.
func (m Message) String() string {
	return fmt.Sprintf("message: round %d, from: %s, to %v, protocol: %s, broadcast: %t", m.RoundNumber, m.From, m.To, m.Protocol, m.Broadcast)
}

// IsFor returns true if the message is intended for the designated party.
func (m Message) IsFor(id party.ID) bool {
	if m.From == id {
		return false
	}
	return m.To == 0 || m.To == id
}

// Hash returns a 64 byte slice of the message content, including the headers.
// Can be used to produce a signature for the message.
func (m Message) Hash() []byte {
	var broadcast byte
	if m.Broadcast {
		broadcast = 1
	}
	h := hash.New(
		hash.BytesWithDomain{TheDomain: "SSID", Bytes: m.SSID},
		m.From,
		m.To,
		hash.BytesWithDomain{TheDomain: "Protocol", Bytes: []byte(m.Protocol)},
		m.RoundNumber,
		hash.BytesWithDomain{TheDomain: "Content", Bytes: m.Data},
		hash.BytesWithDomain{TheDomain: "Broadcast", Bytes: []byte{broadcast}},
	)
	return h.Sum()
}

type marshallableMessage struct {
	SSID        []byte
	From        party.ID
	To          party.ID
	Protocol    string
	RoundNumber round.Number
	Data        []byte
	Broadcast   bool
}

func (m *Message) toMarshallable() *marshallableMessage {
	return &marshallableMessage{
		SSID:        m.SSID,
		From:        m.From,
		To:          m.To,
		Protocol:    m.Protocol,
		RoundNumber: m.RoundNumber,
		Data:        m.Data,
		Broadcast:   m.Broadcast,
	}
}

// MarshalBinary returns a deterministic encoding of the message.
func (m *Message) MarshalBinary() ([]byte, error) {
	return encoding.Marshal(m.toMarshallable())
}

func (m *Message) UnmarshalBinary(data []byte) error {
	deserialized := m.toMarshallable()
	if err := encoding.Unmarshal(data, deserialized); err != nil {
		return err
	}
	m.SSID = deserialized.SSID
	m.From = deserialized.From
	m.To = deserialized.To
	m.Protocol = deserialized.Protocol
	m.RoundNumber = deserialized.RoundNumber
	m.Data = deserialized.Data
	m.Broadcast = deserialized.Broadcast
	return nil
}
