// Package frost implements threshold Schnorr signatures.
//
// Key generation is a distributed key generation with Feldman commitments, where shares travel
// in authenticated envelopes and disputed shares are resolved publicly.
// Signing follows FROST, with binding factors and identifiable partial signatures.
package frost

import (
	"io"

	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
	"github.com/taurusgroup/multi-party-schnorr/protocols/frost/keygen"
	"github.com/taurusgroup/multi-party-schnorr/protocols/frost/sign"
)

type (
	Parameters   = keygen.Parameters
	Config       = keygen.Config
	Signature    = sign.Signature
	NonceTracker = sign.NonceTracker
)

// Keygen initiates the Frost key generation protocol.
//
// This protocol establishes a new threshold signature key among a set of participants.
// Later, a subset of these participants can create signatures for this public key,
// using the private shares created in this protocol.
//
// params.Participants is a complete set of parties that will hold a share of the secret key.
// Future signers must come from this set.
//
// params.Threshold is the number of participants that must cooperate to produce signatures.
// MinimumThreshold returns a safe default.
//
// This protocol corresponds to Figure 1 of the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// with the shares of each dealer sent through authenticated envelopes, and complaints
// answered by revealing the disputed envelope.
func Keygen(params Parameters, rand io.Reader, pl *pool.Pool) protocol.StartFunc {
	return keygen.StartKeygen(params, rand, pl)
}

// Sign initiates the protocol for producing a threshold signature, with Frost.
//
// config is the result of the key generation phase, for this participant.
//
// signers is the list of all participants generating a signature together, including
// this participant.
//
// This protocol merges Figures 2 and 3 from the Frost paper:
//
//	https://eprint.iacr.org/2020/852.pdf
//
// We merge the pre-processing and signing protocols into a single signing protocol
// which doesn't require any pre-processing.
//
// Another major difference is that there's no central "Signing Authority".
// Instead, each participant independently verifies and broadcasts items as necessary.
// Signers whose response does not verify are excluded, and the others try again.
func Sign(config *Config, signers []party.ID, message []byte, rand io.Reader, tracker *NonceTracker, pl *pool.Pool) protocol.StartFunc {
	return sign.StartSign(config, signers, message, rand, tracker, pl)
}

// NewNonceTracker returns a tracker to be shared by all signing sessions of a participant.
func NewNonceTracker() *NonceTracker {
	return sign.NewNonceTracker()
}

// MinimumThreshold returns the smallest threshold such that any two sets of signers intersect.
func MinimumThreshold(n int) int {
	return keygen.MinimumThreshold(n)
}
