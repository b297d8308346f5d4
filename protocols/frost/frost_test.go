package frost

import (
	"crypto/rand"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/internal/test"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

type outcome struct {
	result interface{}
	err    error
}

// run executes one protocol among the given parties over an in-memory network.
func run(t *testing.T, parties party.IDSlice, sessionID []byte, start func(id party.ID) protocol.StartFunc) map[party.ID]outcome {
	network := test.NewNetwork(parties)
	handlers := make(map[party.ID]*protocol.Handler, len(parties))
	for _, id := range parties {
		h, err := protocol.NewHandler(start(id), sessionID, protocol.WithLogger(zerolog.Nop()))
		require.NoError(t, err)
		handlers[id] = h
	}

	var (
		wg       sync.WaitGroup
		mtx      sync.Mutex
		outcomes = make(map[party.ID]outcome, len(parties))
	)
	wg.Add(len(parties))
	for _, id := range parties {
		id := id
		go func() {
			defer wg.Done()
			h := handlers[id]
			test.HandlerLoop(id, h, network)
			result, err := h.Result()
			mtx.Lock()
			outcomes[id] = outcome{result, err}
			mtx.Unlock()
		}()
	}
	wg.Wait()
	return outcomes
}

func TestFrost(t *testing.T) {
	N := 5
	T := MinimumThreshold(N)
	message := []byte("test")
	group := curve.Edwards25519{}

	pl := pool.NewPool(0)
	defer pl.TearDown()

	partyIDs := test.PartyIDs(N)
	keys, directory := test.ChannelKeys(partyIDs, rand.Reader)

	keygenOutcomes := run(t, partyIDs, []byte("keygen"), func(id party.ID) protocol.StartFunc {
		return Keygen(Parameters{
			Group:        group,
			SelfID:       id,
			Participants: partyIDs,
			Threshold:    T,
			ChannelKey:   keys[id],
			Directory:    directory,
		}, rand.Reader, pl)
	})

	configs := make(map[party.ID]*Config, N)
	for _, id := range partyIDs {
		o := keygenOutcomes[id]
		require.NoError(t, o.err)
		require.IsType(t, &Config{}, o.result)
		configs[id] = o.result.(*Config)
		assert.True(t, configs[1].PublicKey.Equal(configs[id].PublicKey))
	}

	signers := party.IDSlice{1, 3, 4}
	trackers := map[party.ID]*NonceTracker{}
	for _, id := range signers {
		trackers[id] = NewNonceTracker()
	}
	signOutcomes := run(t, signers, []byte("sign"), func(id party.ID) protocol.StartFunc {
		return Sign(configs[id], signers, message, rand.Reader, trackers[id], pl)
	})

	for _, id := range signers {
		o := signOutcomes[id]
		require.NoError(t, o.err)
		require.IsType(t, &Signature{}, o.result)
		sig := o.result.(*Signature)
		assert.True(t, sig.Verify(configs[id].PublicKey, message))
		assert.Equal(t, len(signers), trackers[id].Len())
	}
}
