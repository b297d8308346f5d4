package protocol

import (
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol/message"
)

// queue holds messages received for rounds the handler has not reached yet.
type queue struct {
	messages []*Message
	size     int
}

func newQueue(size int) *queue {
	return &queue{
		messages: make([]*Message, 0, size),
		size:     size,
	}
}

func (q *queue) Store(msg *Message) error {
	for _, existingMsg := range q.messages {
		if existingMsg.From == msg.From && existingMsg.RoundNumber == msg.RoundNumber && existingMsg.Broadcast == msg.Broadcast {
			return message.ErrDuplicate
		}
	}
	if len(q.messages) >= q.size {
		return ErrQueueFull
	}

	q.messages = append(q.messages, msg)
	return nil
}

// Get removes and returns every message stored for the given round, broadcast messages first.
func (q *queue) Get(roundNumber round.Number) []*Message {
	broadcast := make([]*Message, 0, len(q.messages))
	p2p := make([]*Message, 0, len(q.messages))
	newMessages := make([]*Message, 0, q.size)
	for _, msg := range q.messages {
		switch {
		case msg.RoundNumber != roundNumber:
			newMessages = append(newMessages, msg)
		case msg.Broadcast:
			broadcast = append(broadcast, msg)
		default:
			p2p = append(p2p, msg)
		}
	}
	q.messages = newMessages
	return append(broadcast, p2p...)
}

// Prune drops messages for rounds before roundNumber.
func (q *queue) Prune(roundNumber round.Number) {
	kept := q.messages[:0]
	for _, msg := range q.messages {
		if msg.RoundNumber >= roundNumber {
			kept = append(kept, msg)
		}
	}
	q.messages = kept
}

func (q *queue) Len() int { return len(q.messages) }
