package keygen

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/internal/test"
	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/sample"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/pool"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

var sessionID = []byte("keygen test session")

func startAll(t *testing.T, group curve.Curve, n, threshold int, pl *pool.Pool) []round.Session {
	partyIDs := test.PartyIDs(n)
	keys, directory := test.ChannelKeys(partyIDs, rand.Reader)

	rounds := make([]round.Session, 0, n)
	for _, id := range partyIDs {
		r, err := StartKeygen(Parameters{
			Group:        group,
			SelfID:       id,
			Participants: partyIDs,
			Threshold:    threshold,
			ChannelKey:   keys[id],
			Directory:    directory,
		}, rand.Reader, pl)(sessionID)
		require.NoError(t, err, "round creation should not result in an error")
		rounds = append(rounds, r)
	}
	return rounds
}

func runAll(t *testing.T, rounds []round.Session, rule test.Rule) {
	for i := 0; i < int(protocolRounds)+1; i++ {
		err, done := test.Rounds(rounds, rule)
		require.NoError(t, err, "failed to process round")
		if done {
			return
		}
	}
	t.Fatal("protocol did not finish")
}

func byID(rounds []round.Session) map[party.ID]round.Session {
	m := make(map[party.ID]round.Session, len(rounds))
	for _, r := range rounds {
		m[r.SelfID()] = r
	}
	return m
}

// checkOutput verifies that the given parties all output the same key,
// and that their shares interpolate to its discrete logarithm.
func checkOutput(t *testing.T, rounds map[party.ID]round.Session, parties party.IDSlice, threshold int) []*Config {
	configs := make([]*Config, 0, len(parties))
	for _, id := range parties {
		output, ok := rounds[id].(*round.Output)
		require.True(t, ok, "party %v did not finish", id)
		config, ok := output.Result.(*Config)
		require.True(t, ok)
		require.Equal(t, id, config.ID)
		configs = append(configs, config)
	}

	group := configs[0].Group
	shares := make([]polynomial.Share, 0, len(configs))
	for _, config := range configs {
		assert.True(t, configs[0].PublicKey.Equal(config.PublicKey))
		assert.Equal(t, parties, config.Participants)
		assert.Equal(t, threshold, config.Threshold)
		assert.NoError(t, config.Validate())
		for _, j := range parties {
			assert.True(t, configs[0].VerificationShares[j].Equal(config.VerificationShares[j]))
		}
		shares = append(shares, polynomial.Share{Index: config.ID, Value: config.PrivateShare})
	}

	secret, err := polynomial.Reconstruct(group, shares[:threshold], threshold)
	require.NoError(t, err)
	assert.True(t, secret.ActOnBase().Equal(configs[0].PublicKey))
	return configs
}

func TestKeygen(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	cases := []struct {
		group     curve.Curve
		threshold int
		n         int
	}{
		{curve.Edwards25519{}, 1, 1},
		{curve.Edwards25519{}, 1, 3},
		{curve.Edwards25519{}, 2, 3},
		{curve.Edwards25519{}, 3, 5},
		{curve.Edwards25519{}, 5, 5},
		{curve.Secp256k1{}, 3, 5},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.group.Name(), func(t *testing.T) {
			rounds := startAll(t, tc.group, tc.n, tc.threshold, pl)
			runAll(t, rounds, nil)
			configs := checkOutput(t, byID(rounds), test.PartyIDs(tc.n), tc.threshold)
			for _, config := range configs {
				assert.Empty(t, config.Excluded)
				assert.Len(t, config.Commitments, tc.n)
			}
		})
	}
}

// badDealer deals a random share to victim, and commits to the envelope containing it.
type badDealer struct {
	dealer, victim party.ID
}

func (badDealer) ModifyBefore(round.Session) {}
func (badDealer) ModifyAfter(round.Session)  {}
func (b badDealer) ModifyContent(rNext round.Session, to party.ID, content round.Content) {
	r, ok := rNext.(*round2)
	if !ok || r.SelfID() != b.dealer {
		return
	}
	switch c := content.(type) {
	case *broadcast2:
		plaintext, err := sample.Scalar(rand.Reader, r.Group()).MarshalBinary()
		if err != nil {
			panic(err)
		}
		env, ephemeral, err := channel.Seal(rand.Reader, r.directory[b.victim], r.SSID(), b.dealer, b.victim, plaintext)
		if err != nil {
			panic(err)
		}
		r.sent[b.victim] = env
		r.ephemerals[b.victim] = ephemeral
		c.Digests[b.victim] = envelopeDigest(r.Hash(), b.dealer, b.victim, env)
	case *message2:
		if to == b.victim {
			c.Share = r.sent[b.victim]
		}
	}
}

func TestKeygen_BadDealer(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 5, 3, nil)
	runAll(t, rounds, badDealer{dealer: 2, victim: 3})

	parties := byID(rounds)
	abort, ok := parties[2].(*round.Abort)
	require.True(t, ok)
	assert.ErrorIs(t, abort.Err, ErrExcluded)
	assert.Equal(t, []party.ID{2}, abort.Culprits)

	configs := checkOutput(t, parties, party.IDSlice{1, 3, 4, 5}, 3)
	for _, config := range configs {
		assert.Equal(t, party.IDSlice{2}, config.Excluded)
		assert.NotContains(t, config.Commitments, party.ID(2))
	}
}

func TestKeygen_ThresholdNotMet(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 3, 3, nil)
	runAll(t, rounds, badDealer{dealer: 2, victim: 3})

	for _, r := range rounds {
		abort, ok := r.(*round.Abort)
		require.True(t, ok)
		assert.Equal(t, []party.ID{2}, abort.Culprits)
		if r.SelfID() == 2 {
			assert.ErrorIs(t, abort.Err, ErrExcluded)
		} else {
			assert.ErrorIs(t, abort.Err, protocol.ErrThresholdNotMet)
		}
	}
}

// wrongDegree makes dealer broadcast a commitment to a polynomial of degree threshold.
type wrongDegree struct {
	dealer party.ID
}

func (wrongDegree) ModifyBefore(round.Session) {}
func (wrongDegree) ModifyAfter(round.Session)  {}
func (w wrongDegree) ModifyContent(rNext round.Session, _ party.ID, content round.Content) {
	c, ok := content.(*broadcast2)
	if !ok || rNext.SelfID() != w.dealer {
		return
	}
	f := polynomial.NewPolynomial(rNext.Group(), rNext.Threshold(), nil, rand.Reader)
	c.Phi_i = polynomial.NewPolynomialExponent(f)
}

func TestKeygen_WrongDegreeCommitment(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 5, 3, nil)
	runAll(t, rounds, wrongDegree{dealer: 2})

	configs := checkOutput(t, byID(rounds), party.IDSlice{1, 3, 4, 5}, 3)
	for _, config := range configs {
		assert.Equal(t, party.IDSlice{2}, config.Excluded)
		assert.NotContains(t, config.Commitments, party.ID(2))
		assert.Len(t, config.Commitments, 4)
	}
}

func TestKeygen_WrongDegreeThresholdNotMet(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 3, 3, nil)
	runAll(t, rounds, wrongDegree{dealer: 2})

	for _, r := range byID(rounds) {
		if r.SelfID() == 2 {
			continue
		}
		abort, ok := r.(*round.Abort)
		require.True(t, ok, "party %v should abort", r.SelfID())
		assert.ErrorIs(t, abort.Err, protocol.ErrThresholdNotMet)
		assert.Equal(t, []party.ID{2}, abort.Culprits)
	}
}

// tamper flips a bit of the envelope from dealer to victim, without the dealer knowing.
type tamper struct {
	dealer, victim party.ID
}

func (tamper) ModifyBefore(round.Session) {}
func (tamper) ModifyAfter(round.Session)  {}
func (tm tamper) ModifyContent(rNext round.Session, to party.ID, content round.Content) {
	c, ok := content.(*message2)
	if !ok || rNext.SelfID() != tm.dealer || to != tm.victim {
		return
	}
	ciphertext := append([]byte{}, c.Share.Ciphertext...)
	ciphertext[0] ^= 1
	c.Share = &channel.Envelope{
		Ephemeral:  c.Share.Ephemeral,
		Nonce:      c.Share.Nonce,
		Ciphertext: ciphertext,
		Tag:        c.Share.Tag,
	}
}

func TestKeygen_TamperedInTransit(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 4, 2, nil)
	rule := tamper{dealer: 1, victim: 4}

	// deal, then verify
	for i := 0; i < 2; i++ {
		err, done := test.Rounds(rounds, rule)
		require.NoError(t, err)
		require.False(t, done)
	}

	victim := byID(rounds)[4]
	r3, ok := victim.(*round3)
	require.True(t, ok)
	require.Len(t, r3.complaints[4], 1)
	assert.Equal(t, ReasonDigestMismatch, r3.complaints[4][0].Evidence.Reason)

	state, err := Snapshot(victim)
	require.NoError(t, err)
	assert.Equal(t, PhaseComplain, state.Phase)
	require.Len(t, state.Complaints, 1)
	data, err := state.MarshalBinary()
	require.NoError(t, err)
	decoded := &State{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, state, decoded)

	runAll(t, rounds, rule)
	configs := checkOutput(t, byID(rounds), test.PartyIDs(4), 2)
	for _, config := range configs {
		assert.Empty(t, config.Excluded)
	}
}

// falseAccuser complains about a share that it accepted.
type falseAccuser struct {
	accuser, accused party.ID
}

func (f falseAccuser) ModifyBefore(r round.Session) {
	r2, ok := r.(*round2)
	if !ok || r2.SelfID() != f.accuser {
		return
	}
	r2.complaints[f.accused] = &Complaint{
		Accuser: f.accuser,
		Accused: f.accused,
		Round:   2,
		Evidence: Evidence{
			Reason:   ReasonShareVerificationFailed,
			Envelope: r2.received[f.accused],
		},
	}
}
func (falseAccuser) ModifyAfter(round.Session)                         {}
func (falseAccuser) ModifyContent(round.Session, party.ID, round.Content) {}

func TestKeygen_FalseComplaint(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 5, 3, nil)
	runAll(t, rounds, falseAccuser{accuser: 3, accused: 1})

	parties := byID(rounds)
	abort, ok := parties[3].(*round.Abort)
	require.True(t, ok)
	assert.ErrorIs(t, abort.Err, ErrExcluded)
	assert.Equal(t, []party.ID{3}, abort.Culprits)

	configs := checkOutput(t, parties, party.IDSlice{1, 2, 4, 5}, 3)
	for _, config := range configs {
		assert.Equal(t, party.IDSlice{3}, config.Excluded)
	}
}

func TestStartKeygen(t *testing.T) {
	group := curve.Edwards25519{}
	partyIDs := test.PartyIDs(3)
	keys, directory := test.ChannelKeys(partyIDs, rand.Reader)
	valid := Parameters{
		Group:        group,
		SelfID:       1,
		Participants: partyIDs,
		Threshold:    2,
		ChannelKey:   keys[1],
		Directory:    directory,
	}

	_, err := StartKeygen(valid, rand.Reader, nil)(sessionID)
	require.NoError(t, err)

	_, err = StartKeygen(valid, nil, nil)(sessionID)
	assert.Error(t, err, "missing randomness")

	_, err = StartKeygen(valid, rand.Reader, nil)(nil)
	assert.Error(t, err, "empty session ID")

	invalid := valid
	invalid.Threshold = 0
	_, err = StartKeygen(invalid, rand.Reader, nil)(sessionID)
	assert.Error(t, err, "threshold 0")

	invalid = valid
	invalid.Threshold = 4
	_, err = StartKeygen(invalid, rand.Reader, nil)(sessionID)
	assert.Error(t, err, "threshold above n")

	invalid = valid
	invalid.ChannelKey = keys[2]
	_, err = StartKeygen(invalid, rand.Reader, nil)(sessionID)
	assert.Error(t, err, "channel key of another party")

	invalid = valid
	invalid.SelfID = 4
	invalid.ChannelKey = keys[1]
	_, err = StartKeygen(invalid, rand.Reader, nil)(sessionID)
	assert.Error(t, err, "self not a participant")
}

func TestValidThreshold(t *testing.T) {
	assert.NoError(t, ValidThreshold(1, 1))
	assert.NoError(t, ValidThreshold(3, 5))
	assert.Error(t, ValidThreshold(0, 5))
	assert.Error(t, ValidThreshold(6, 5))
	assert.Error(t, ValidThreshold(1, 0))

	assert.Equal(t, 3, MinimumThreshold(5))
	assert.Equal(t, 3, MinimumThreshold(6))
	assert.Equal(t, 1, MinimumThreshold(1))
}

func TestComplaint_validate(t *testing.T) {
	parties := test.PartyIDs(3)
	valid := func() *Complaint {
		return &Complaint{Accuser: 1, Accused: 2, Round: 2, Evidence: Evidence{Reason: ReasonAuthenticationFailed}}
	}
	assert.NoError(t, valid().validate(1, parties))

	cases := map[string]func(c *Complaint){
		"wrong sender":   func(c *Complaint) { c.Accuser = 3 },
		"self":           func(c *Complaint) { c.Accused = 1 },
		"unknown":        func(c *Complaint) { c.Accused = 7 },
		"wrong round":    func(c *Complaint) { c.Round = 3 },
		"unknown reason": func(c *Complaint) { c.Evidence.Reason = 0 },
	}
	for name, modify := range cases {
		c := valid()
		modify(c)
		err := c.validate(1, parties)
		assert.True(t, errors.Is(err, ErrInvalidComplaint), name)
	}
	var nilComplaint *Complaint
	assert.ErrorIs(t, nilComplaint.validate(1, parties), ErrInvalidComplaint)
}

func TestConfig_MarshalBinary(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 3, 2, nil)
	runAll(t, rounds, nil)
	config := rounds[0].(*round.Output).Result.(*Config)

	data, err := config.MarshalBinary()
	require.NoError(t, err)
	decoded := EmptyConfig(group)
	require.NoError(t, decoded.UnmarshalBinary(data))

	assert.Equal(t, config.ID, decoded.ID)
	assert.Equal(t, config.Threshold, decoded.Threshold)
	assert.Equal(t, config.SessionID, decoded.SessionID)
	assert.Equal(t, config.Participants, decoded.Participants)
	assert.True(t, config.PrivateShare.Equal(decoded.PrivateShare))
	assert.True(t, config.PublicKey.Equal(decoded.PublicKey))
	for id, p := range config.VerificationShares {
		assert.True(t, p.Equal(decoded.VerificationShares[id]))
	}
	for id, phi := range config.Commitments {
		assert.True(t, phi.Equal(decoded.Commitments[id]))
	}

	again, err := decoded.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	config.Excluded = nil
	withNil, err := config.MarshalBinary()
	require.NoError(t, err)
	config.Excluded = party.IDSlice{}
	withEmpty, err := config.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, withNil)
	assert.Equal(t, withNil, withEmpty, "nil and empty exclusions must encode the same")

	assert.Error(t, EmptyConfig(curve.Secp256k1{}).UnmarshalBinary(data), "wrong group")
}

func TestSnapshot(t *testing.T) {
	group := curve.Edwards25519{}
	rounds := startAll(t, group, 3, 2, nil)

	state, err := Snapshot(rounds[0])
	require.NoError(t, err)
	assert.Equal(t, PhaseDeal, state.Phase)
	assert.Empty(t, state.Commitments)

	err, _ = test.Rounds(rounds, nil)
	require.NoError(t, err)
	state, err = Snapshot(rounds[0])
	require.NoError(t, err)
	assert.Equal(t, PhaseVerify, state.Phase)
	assert.Len(t, state.Commitments, 3)

	data, err := state.MarshalBinary()
	require.NoError(t, err)
	decoded := &State{}
	require.NoError(t, decoded.UnmarshalBinary(data))
	assert.Equal(t, state, decoded)

	runAll(t, rounds, nil)
	state, err = Snapshot(rounds[0])
	require.NoError(t, err)
	assert.Equal(t, PhaseComplete, state.Phase)
	assert.Len(t, state.Commitments, 3)
	assert.Empty(t, state.Complaints)
}
