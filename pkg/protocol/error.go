package protocol

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

var (
	// ErrSessionState is returned when a message does not belong to the current state of the session:
	// a foreign session, a wrong round, an unknown sender, a duplicate, or a round that is not complete.
	// The precise reason is wrapped as a message.Error.
	ErrSessionState = errors.New("protocol: session state error")

	// ErrThresholdNotMet is returned when fewer than threshold parties remain after exclusions.
	ErrThresholdNotMet = errors.New("protocol: threshold not met")

	ErrNotFinished = errors.New("protocol: not finished")
	ErrStopped     = errors.New("protocol: stopped by user")
	ErrQueueFull   = errors.New("protocol: message queue is full")
)

// Error is a custom error for protocols which contains information about the responsible round in which it occurred,
// and the parties responsible.
type Error struct {
	// RoundNumber where the error occurred
	RoundNumber round.Number
	// Culprits is empty if the identity of the misbehaving parties cannot be known.
	Culprits []party.ID
	// Err is the underlying error
	Err error
}

func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("round %d: %s", e.RoundNumber, e.Err)
	}
	return fmt.Sprintf("round %d: culprits %v: %s", e.RoundNumber, e.Culprits, e.Err)
}

func (e Error) Unwrap() error {
	return e.Err
}

func sessionStateError(err error) error {
	return fmt.Errorf("%w: %w", ErrSessionState, err)
}
