package main

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
	"github.com/taurusgroup/multi-party-schnorr/protocols/frost"
)

// node is the view of a single participant.
type node struct {
	id      party.ID
	key     *channel.KeyPair
	tracker *frost.NonceTracker
	log     zerolog.Logger
	metrics *protocol.Metrics
	pl      *pool.Pool
	rand    io.Reader
}

func (nd *node) run(start protocol.StartFunc, sessionID []byte, n *network) (interface{}, error) {
	h, err := protocol.NewHandler(start, sessionID,
		protocol.WithLogger(nd.log),
		protocol.WithMetrics(nd.metrics),
	)
	if err != nil {
		return nil, err
	}
	serve(nd.id, h, n)
	return h.Result()
}

func (nd *node) FrostKeygen(ids party.IDSlice, threshold int, directory channel.Directory, n *network) (*frost.Config, error) {
	r, err := nd.run(frost.Keygen(frost.Parameters{
		Group:        curve.Edwards25519{},
		SelfID:       nd.id,
		Participants: ids,
		Threshold:    threshold,
		ChannelKey:   nd.key,
		Directory:    directory,
	}, nd.rand, nd.pl), []byte("example keygen"), n)
	if err != nil {
		return nil, err
	}
	return r.(*frost.Config), nil
}

func (nd *node) FrostSign(c *frost.Config, m []byte, signers party.IDSlice, n *network) error {
	r, err := nd.run(frost.Sign(c, signers, m, nd.rand, nd.tracker, nd.pl), []byte("example sign"), n)
	if err != nil {
		return err
	}
	signature := r.(*frost.Signature)
	if !signature.Verify(c.PublicKey, m) {
		return errors.New("failed to verify frost signature")
	}
	data, err := signature.MarshalBinary()
	if err != nil {
		return err
	}
	nd.log.Info().Hex("signature", data).Msg("signed")
	return nil
}

func main() {
	log := zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	pl := pool.NewPool(0)
	defer pl.TearDown()

	registry := prometheus.NewRegistry()
	metrics, err := protocol.NewMetrics(registry)
	if err != nil {
		log.Fatal().Err(err).Msg("metrics")
	}

	ids := partyIDs(5)
	threshold := frost.MinimumThreshold(len(ids))
	signers := ids[:threshold]
	messageToSign := []byte("hello")

	// all nodes draw from the same entropy source
	rng := pool.NewLockedReader(rand.Reader)

	keys, directory, err := channelKeys(ids, rng)
	if err != nil {
		log.Fatal().Err(err).Msg("channel keys")
	}
	nodes := make(map[party.ID]*node, len(ids))
	for _, id := range ids {
		nodes[id] = &node{
			id:      id,
			key:     keys[id],
			tracker: frost.NewNonceTracker(),
			log:     log,
			metrics: metrics,
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
	if failed {
		os.Exit(1)
	}

	failed = each(signers, func(id party.ID, n *network) error {
		return nodes[id].FrostSign(configs[id], messageToSign, signers, n)
	})

	families, err := registry.Gather()
	if err == nil {
		for _, f := range families {
			for _, m := range f.GetMetric() {
				log.Debug().Str("metric", f.GetName()).Float64("value", m.GetCounter().GetValue()).Send()
			}
		}
	}
	if failed {
		os.Exit(1)
	}
}

// each runs f for every party over a fresh network, and reports whether any of them failed.
func each(ids party.IDSlice, f func(id party.ID, n *network) error) bool {
	net := newNetwork(ids)
	var (
		wg     sync.WaitGroup
		mtx    sync.Mutex
		failed bool
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id party.ID) {
			defer wg.Done()
			if err := f(id, net); err != nil {
				fmt.Fprintln(os.Stderr, id, err)
				mtx.Lock()
				failed = true
				mtx.Unlock()
			}
		}(id)
	}
	wg.Wait()
	return failed
}
