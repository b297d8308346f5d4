package keygen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

var (
	// ErrExcluded is returned by a participant that was excluded during complaint resolution.
	ErrExcluded = errors.New("keygen: excluded from the session")

	ErrInvalidComplaint     = errors.New("keygen: invalid complaint")
	ErrInvalidJustification = errors.New("keygen: invalid justification")
)

// Reason explains why a share was rejected.
type Reason uint8

const (
	// ReasonDigestMismatch means the envelope received differs from the one the dealer committed to.
	ReasonDigestMismatch Reason = iota + 1
	// ReasonAuthenticationFailed means the envelope could not be decrypted.
	ReasonAuthenticationFailed
	// ReasonInvalidEncoding means the decrypted share is not a scalar.
	ReasonInvalidEncoding
	// ReasonShareVerificationFailed means the share does not match the dealer's commitments.
	ReasonShareVerificationFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonDigestMismatch:
		return "digest mismatch"
	case ReasonAuthenticationFailed:
		return "authentication failed"
	case ReasonInvalidEncoding:
		return "invalid encoding"
	case ReasonShareVerificationFailed:
		return "share verification failed"
	default:
		return fmt.Sprintf("unknown reason %d", uint8(r))
	}
}

func (r Reason) valid() bool {
	return r >= ReasonDigestMismatch && r <= ReasonShareVerificationFailed
}

// Evidence is published with a complaint, so that any observer can re-check it.
type Evidence struct {
	Reason Reason
	// Envelope is the envelope the accuser received.
	Envelope *channel.Envelope
	// Share is the decrypted share, when decryption succeeded.
	Share []byte
}

// Complaint is raised by Accuser when the share dealt by Accused could not be accepted.
type Complaint struct {
	Accuser  party.ID
	Accused  party.ID
	Round    round.Number
	Evidence Evidence
}

// Error implements error.
func (c *Complaint) Error() string {
	return fmt.Sprintf("keygen: party %v accuses %v in round %d: %v", c.Accuser, c.Accused, c.Round, c.Evidence.Reason)
}

// Justification answers a complaint, by revealing the ephemeral secret of the envelope sent to the accuser.
// Anyone can then open the envelope and check the share against the dealer's commitments.
type Justification struct {
	Accuser   party.ID
	Envelope  *channel.Envelope
	Ephemeral []byte
}

// validate checks that c was correctly formed by sender, among the given parties.
func (c *Complaint) validate(sender party.ID, parties party.IDSlice) error {
	if c == nil {
		return fmt.Errorf("%w: nil", ErrInvalidComplaint)
	}
	if c.Accuser != sender {
		return fmt.Errorf("%w: accuser %v is not the sender %v", ErrInvalidComplaint, c.Accuser, sender)
	}
	if c.Accused == sender || !parties.Contains(c.Accused) {
		return fmt.Errorf("%w: accused %v is not a peer", ErrInvalidComplaint, c.Accused)
	}
	if c.Round != 2 {
		return fmt.Errorf("%w: round %d", ErrInvalidComplaint, c.Round)
	}
	if !c.Evidence.Reason.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidComplaint, c.Evidence.Reason)
	}
	return nil
}

func (j *Justification) validate() error {
	if j == nil || j.Envelope == nil {
		return fmt.Errorf("%w: nil", ErrInvalidJustification)
	}
	if err := j.Envelope.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidJustification, err)
	}
	if len(j.Ephemeral) != channel.KeySize {
		return fmt.Errorf("%w: ephemeral secret length %d", ErrInvalidJustification, len(j.Ephemeral))
	}
	return nil
}
