package main

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/protocols/frost"
)

func TestNetwork_KeygenAndSign(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	ids := partyIDs(3)
	threshold := frost.MinimumThreshold(len(ids))
	rng := pool.NewLockedReader(rand.Reader)
	keys, directory, err := channelKeys(ids, rng)
	require.NoError(t, err)

	nodes := make(map[party.ID]*node, len(ids))
	for _, id := range ids {
		nodes[id] = &node{
			id:      id,
			key:     keys[id],
			tracker: frost.NewNonceTracker(),
			log:     zerolog.Nop(),
			pl:      pl,
			rand:    rng,
		}
	}

	configs := make(map[party.ID]*frost.Config, len(ids))
	var mtx sync.Mutex
	failed := each(ids, func(id party.ID, n *network) error {
		c, err := nodes[id].FrostKeygen(ids, threshold, directory, n)
		if err != nil {
			return err
		}
		mtx.Lock()
		configs[id] = c
		mtx.Unlock()
		return nil
	})
	require.False(t, failed)
	require.Len(t, configs, len(ids))

	signers := ids[:threshold]
	failed = each(signers, func(id party.ID, n *network) error {
		return nodes[id].FrostSign(configs[id], []byte("hello"), signers, n)
	})
	assert.False(t, failed)
}
