package round

import (
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

type Info struct {
	// ProtocolID is an identifier for this protocol
	ProtocolID string
	// FinalRoundNumber is the number of rounds before the output round.
	FinalRoundNumber Number
	// SelfID is this party's ID.
	SelfID party.ID
	// PartyIDs is a sorted slice of participating parties in this protocol.
	PartyIDs []party.ID
	// Threshold is the number of parties required to reconstruct the secret.
	Threshold int
	// Group returns the group used for this protocol execution.
	Group curve.Curve
}
