package sign

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/internal/types"
	"github.com/taurusgroup/multi-party-schnorr/pkg/hash"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
	"github.com/taurusgroup/multi-party-schnorr/protocols/frost/keygen"
)

// Frost Sign with Threshold.
const protocolID = "frost/sign"

var (
	_ round.Round              = (*round1)(nil)
	_ round.FaultTolerantRound = (*round2)(nil)
	_ round.FaultTolerantRound = (*round3)(nil)
)

var (
	// ErrPartialSignature is returned when our own partial signature does not verify,
	// which means the key share in the config is wrong.
	ErrPartialSignature = errors.New("sign: invalid partial signature")
	// ErrInvalidSignature is returned when every partial signature verified, but their combination did not.
	ErrInvalidSignature = errors.New("sign: invalid signature")
)

// MaxAttempts returns the number of signing attempts a quorum of n signers can make,
// when each failed attempt excludes at least one signer.
func MaxAttempts(n, threshold int) int {
	return n - threshold + 1
}

// finalRound is the number of the last round of the last possible attempt.
func finalRound(n, threshold int) round.Number {
	return attemptRound(uint16(MaxAttempts(n, threshold)-1)) + 1
}

// attemptRound is the number of the round collecting nonce commitments for an attempt.
// Attempts are numbered from 0, and each one takes two rounds.
func attemptRound(attempt uint16) round.Number {
	return 2 + 2*round.Number(attempt)
}

// StartSign initiates the protocol for producing a threshold signature, with Frost.
//
// config is the result of the key generation phase, for this participant.
//
// signers is the list of all participants generating a signature together, including
// this participant. It must contain at least config.Threshold parties.
//
// message is signed as-is; callers who want to sign a digest should pass the digest.
//
// tracker records every nonce commitment this participant has seen, and should be shared
// between all signing sessions of the participant. A fresh tracker is used when it is nil.
func StartSign(config *keygen.Config, signers []party.ID, message []byte, rand io.Reader, tracker *NonceTracker, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if config == nil {
			return nil, errors.New("sign: no config given")
		}
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		if rand == nil {
			return nil, errors.New("sign: no source of randomness given")
		}

		sortedIDs := party.NewIDSlice(signers)
		if !sortedIDs.Valid() {
			return nil, errors.New("sign: invalid signers")
		}
		if !config.Participants.Contains(sortedIDs...) {
			return nil, errors.New("sign: signers must hold a share of the key")
		}
		if len(sortedIDs) < config.Threshold {
			return nil, fmt.Errorf("sign: %d signers cannot meet threshold %d", len(sortedIDs), config.Threshold)
		}

		publicKey, err := config.PublicKeyBytes()
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}
		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: finalRound(len(sortedIDs), config.Threshold),
			SelfID:           config.ID,
			PartyIDs:         sortedIDs,
			Threshold:        config.Threshold,
			Group:            config.Group,
		}
		helper, err := round.NewSession(info, sessionID, pl,
			&hash.BytesWithDomain{TheDomain: "Public Key", Bytes: publicKey},
			&hash.BytesWithDomain{TheDomain: "Keygen Session", Bytes: config.SessionID},
			types.SigningMessage(message),
		)
		if err != nil {
			return nil, fmt.Errorf("sign: %w", err)
		}

		if tracker == nil {
			tracker = NewNonceTracker()
		}
		return &round1{
			Helper:  helper,
			rand:    rand,
			tracker: tracker,
			M:       message,
			Y:       config.PublicKey,
			YShares: config.VerificationShares,
			s_i:     config.PrivateShare,
		}, nil
	}
}
