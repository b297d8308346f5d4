package test

import (
	"io"

	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// PartyIDs returns a party.IDSlice (sorted) with IDs 1, ..., n.
func PartyIDs(n int) party.IDSlice {
	ids := make(party.IDSlice, n)
	for i := range ids {
		ids[i] = party.ID(i + 1)
	}
	return ids
}

// ChannelKeys generates a long-term channel key pair for every party, and the directory of their public keys.
func ChannelKeys(partyIDs []party.ID, rand io.Reader) (map[party.ID]*channel.KeyPair, channel.Directory) {
	keys := make(map[party.ID]*channel.KeyPair, len(partyIDs))
	directory := make(channel.Directory, len(partyIDs))
	for _, id := range partyIDs {
		kp, err := channel.GenerateKeyPair(rand)
		if err != nil {
			panic(err)
		}
		keys[id] = kp
		directory[id] = kp.Public()
	}
	return keys, directory
}
