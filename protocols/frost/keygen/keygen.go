package keygen

import (
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/internal/params"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

const (
	// Frost KeyGen with Threshold, Feldman commitments and encrypted shares.
	protocolID = "frost/keygen"
	// This protocol has 4 concrete rounds, the last one only runs when complaints were raised.
	protocolRounds round.Number = 4
)

// These assert that our rounds implement the round.Round interface.
var (
	_ round.Round          = (*round1)(nil)
	_ round.BroadcastRound = (*round2)(nil)
	_ round.BroadcastRound = (*round3)(nil)
	_ round.BroadcastRound = (*round4)(nil)
)

// Parameters describes a key generation session, from the perspective of one participant.
type Parameters struct {
	// Group is the curve the key is generated over.
	Group curve.Curve
	// SelfID is the identifier of the local participant.
	SelfID party.ID
	// Participants is the complete set of parties that will hold a share of the secret key.
	Participants []party.ID
	// Threshold is the number of shares needed to reconstruct the secret,
	// and therefore the minimum number of signers.
	Threshold int
	// ChannelKey is the long-term channel key of SelfID.
	ChannelKey *channel.KeyPair
	// Directory contains the channel public key of every participant.
	Directory channel.Directory
}

// ValidThreshold returns an error if threshold t cannot be used with n participants.
func ValidThreshold(t, n int) error {
	if n < 1 || n > params.MaxParties {
		return fmt.Errorf("keygen: invalid number of participants %d", n)
	}
	if t < 1 || t > n {
		return fmt.Errorf("keygen: threshold %d is invalid for %d participants", t, n)
	}
	return nil
}

// MinimumThreshold returns the smallest threshold such that any two sets of signers intersect.
func MinimumThreshold(n int) int {
	return (n + 1) / 2
}

func (p Parameters) validate() error {
	if p.Group == nil {
		return errors.New("keygen: no group given")
	}
	if err := ValidThreshold(p.Threshold, len(p.Participants)); err != nil {
		return err
	}
	if p.ChannelKey == nil {
		return errors.New("keygen: no channel key given")
	}
	if err := p.Directory.Validate(p.Participants); err != nil {
		return fmt.Errorf("keygen: %w", err)
	}
	if !p.ChannelKey.Public().Equal(p.Directory[p.SelfID]) {
		return errors.New("keygen: channel key does not match the directory")
	}
	return nil
}

// StartKeygen returns a protocol.StartFunc for the key generation protocol.
//
// rand is the source of every secret sampled by this participant.
// pl is used to verify commitments in parallel, and may be nil.
func StartKeygen(params Parameters, rand io.Reader, pl *pool.Pool) protocol.StartFunc {
	return func(sessionID []byte) (round.Session, error) {
		if rand == nil {
			return nil, errors.New("keygen: no source of randomness given")
		}
		if err := params.validate(); err != nil {
			return nil, err
		}

		info := round.Info{
			ProtocolID:       protocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           params.SelfID,
			PartyIDs:         params.Participants,
			Threshold:        params.Threshold,
			Group:            params.Group,
		}
		helper, err := round.NewSession(info, sessionID, pl, params.Directory)
		if err != nil {
			return nil, fmt.Errorf("keygen: %w", err)
		}

		return &round1{
			Helper:     helper,
			rand:       rand,
			channelKey: params.ChannelKey,
			directory:  params.Directory,
		}, nil
	}
}
