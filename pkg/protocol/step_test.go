package protocol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/internal/test"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol/message"
)

var sessionID = []byte("toy session")

func startToySessions(t *testing.T, ids party.IDSlice, values map[party.ID]uint32, liar party.ID) (map[party.ID]round.Session, []*protocol.Message) {
	sessions := make(map[party.ID]round.Session, len(ids))
	var outbound []*protocol.Message
	for _, id := range ids {
		value, ok := values[id]
		if !ok {
			value = uint32(id)
		}
		s, err := startToy(id, ids, value, id == liar)(sessionID)
		require.NoError(t, err)
		next, out, err := protocol.Step(s, nil)
		require.NoError(t, err)
		sessions[id] = next
		outbound = append(outbound, out...)
	}
	return sessions, outbound
}

func inbox(id party.ID, messages []*protocol.Message) []*protocol.Message {
	var in []*protocol.Message
	for _, msg := range messages {
		if msg.IsFor(id) {
			in = append(in, msg)
		}
	}
	return in
}

func TestStep(t *testing.T) {
	ids := test.PartyIDs(4)
	sessions, outbound := startToySessions(t, ids, nil, 0)
	// one broadcast and three p2p messages per party
	require.Len(t, outbound, 4*4)

	for r := 2; r <= 3; r++ {
		var next []*protocol.Message
		for _, id := range ids {
			s, out, err := protocol.Step(sessions[id], inbox(id, outbound))
			require.NoError(t, err, "round %d party %d", r, id)
			sessions[id] = s
			next = append(next, out...)
		}
		outbound = next
	}
	assert.Empty(t, outbound)

	for _, id := range ids {
		result, err := protocol.Result(sessions[id])
		require.NoError(t, err)
		assert.Equal(t, uint32(1+2+3+4), result)
	}
}

func TestStep_SingleParty(t *testing.T) {
	ids := test.PartyIDs(1)
	sessions, outbound := startToySessions(t, ids, nil, 0)
	assert.Len(t, outbound, 2)
	result, err := protocol.Result(sessions[1])
	require.NoError(t, err)
	assert.Equal(t, uint32(1), result)
}

func TestStep_SessionState(t *testing.T) {
	ids := test.PartyIDs(3)

	modify := func(f func(in []*protocol.Message) []*protocol.Message) error {
		sessions, outbound := startToySessions(t, ids, nil, 0)
		s := sessions[1]
		next, out, err := protocol.Step(s, f(inbox(1, outbound)))
		if err != nil {
			assert.Equal(t, s, next, "session must be unchanged")
			assert.Nil(t, out)
		}
		return err
	}

	tests := []struct {
		name   string
		modify func(in []*protocol.Message) []*protocol.Message
		want   error
	}{
		{"incomplete", func(in []*protocol.Message) []*protocol.Message {
			return in[1:]
		}, message.ErrIncompleteRound},
		{"duplicate", func(in []*protocol.Message) []*protocol.Message {
			return append(in, in[0])
		}, message.ErrDuplicate},
		{"wrong ssid", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.SSID = []byte("other")
			in[0] = &m
			return in
		}, message.ErrWrongSSID},
		{"wrong protocol", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.Protocol = "other"
			in[0] = &m
			return in
		}, message.ErrWrongProtocolID},
		{"first round", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.RoundNumber = 1
			in[0] = &m
			return in
		}, message.ErrInvalidRoundNumber},
		{"beyond final round", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.RoundNumber = 4
			in[0] = &m
			return in
		}, message.ErrInvalidRoundNumber},
		{"future round", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.RoundNumber = 3
			in[0] = &m
			return in
		}, message.ErrFutureRound},
		{"unknown sender", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.From = 7
			in[0] = &m
			return in
		}, message.ErrUnknownSender},
		{"wrong destination", func(in []*protocol.Message) []*protocol.Message {
			for i, msg := range in {
				if !msg.Broadcast {
					m := *msg
					m.To = 3
					if m.From == 3 {
						m.To = 2
					}
					in[i] = &m
					break
				}
			}
			return in
		}, message.ErrWrongDestination},
		{"nil content", func(in []*protocol.Message) []*protocol.Message {
			m := *in[0]
			m.Data = nil
			in[0] = &m
			return in
		}, message.ErrNilContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := modify(tt.modify)
			require.Error(t, err)
			assert.ErrorIs(t, err, protocol.ErrSessionState)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestStep_InvalidContent(t *testing.T) {
	ids := test.PartyIDs(3)
	sessions, outbound := startToySessions(t, ids, nil, 0)
	in := inbox(1, outbound)
	for i, msg := range in {
		if msg.From == 2 && msg.Broadcast {
			m := *msg
			m.Data = []byte{0xff}
			in[i] = &m
		}
	}
	_, _, err := protocol.Step(sessions[1], in)
	require.Error(t, err)
	assert.NotErrorIs(t, err, protocol.ErrSessionState)
	var protocolErr protocol.Error
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, []party.ID{2}, protocolErr.Culprits)
	assert.Equal(t, round.Number(2), protocolErr.RoundNumber)
}

func TestStep_VerifyFailure(t *testing.T) {
	ids := test.PartyIDs(3)
	sessions, outbound := startToySessions(t, ids, nil, 3)
	_, _, err := protocol.Step(sessions[1], inbox(1, outbound))
	var protocolErr protocol.Error
	require.ErrorAs(t, err, &protocolErr)
	assert.Equal(t, []party.ID{3}, protocolErr.Culprits)
}

func TestStep_Abort(t *testing.T) {
	ids := test.PartyIDs(3)
	sessions, outbound := startToySessions(t, ids, map[party.ID]uint32{2: 200}, 0)
	for _, id := range ids {
		s, out, err := protocol.Step(sessions[id], inbox(id, outbound))
		require.Error(t, err)
		assert.Empty(t, out)
		assert.IsType(t, &round.Abort{}, s)

		var protocolErr protocol.Error
		require.ErrorAs(t, err, &protocolErr)
		assert.Equal(t, []party.ID{2}, protocolErr.Culprits)

		_, err = protocol.Result(s)
		assert.ErrorIs(t, err, errTooLarge)

		_, _, err = protocol.Step(s, inbox(id, outbound))
		assert.ErrorIs(t, err, message.ErrLastRound)
	}
}

func TestResult_NotFinished(t *testing.T) {
	ids := test.PartyIDs(2)
	sessions, _ := startToySessions(t, ids, nil, 0)
	_, err := protocol.Result(sessions[1])
	assert.ErrorIs(t, err, protocol.ErrNotFinished)
}

func TestMessage_MarshalBinary(t *testing.T) {
	ids := test.PartyIDs(2)
	_, outbound := startToySessions(t, ids, nil, 0)
	for _, msg := range outbound {
		data, err := msg.MarshalBinary()
		require.NoError(t, err)
		var decoded protocol.Message
		require.NoError(t, decoded.UnmarshalBinary(data))
		assert.Equal(t, *msg, decoded)
		assert.Equal(t, msg.Hash(), decoded.Hash())

		again, err := decoded.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, data, again)
	}
}
