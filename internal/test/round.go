package test

import (
	"errors"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"github.com/taurusgroup/multi-party-schnorr/internal/round"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"golang.org/x/sync/errgroup"
)

// Rule describes various hooks that can be applied to a protocol execution.
type Rule interface {
	// ModifyBefore modifies r before r.Finalize() is called.
	ModifyBefore(r round.Session)
	// ModifyAfter modifies rNext, which is the round returned by r.Finalize().
	ModifyAfter(rNext round.Session)
	// ModifyContent modifies content for the message that is delivered in rNext.
	ModifyContent(rNext round.Session, to party.ID, content round.Content)
}

// Finished returns true if r is an output or abort round.
func Finished(r round.Session) bool {
	switch r.(type) {
	case *round.Output, *round.Abort:
		return true
	}
	return false
}

// Rounds finalizes every unfinished round, and delivers the resulting messages to the parties which expect them.
// Every message content goes through a cbor encoding before it is delivered.
// Parties may finish at different times, and with different outcomes.
// The returned bool is true once every party has reached an output or abort round.
func Rounds(rounds []round.Session, rule Rule) (error, bool) {
	var (
		errGroup errgroup.Group
		N        = len(rounds)
		mtx      sync.Mutex
		messages = make([][]*round.Message, N)
	)

	for id := range rounds {
		idx := id
		r := rounds[idx]
		if Finished(r) {
			continue
		}
		errGroup.Go(func() error {
			out := make(chan *round.Message, 2*N+2)
			if rule != nil {
				rule.ModifyBefore(r)
			}
			rNew, err := r.Finalize(out)
			close(out)
			if err != nil {
				return err
			}
			if rule != nil {
				rule.ModifyAfter(rNew)
			}

			var sent []*round.Message
			for msg := range out {
				if rule != nil {
					rule.ModifyContent(rNew, msg.To, msg.Content)
				}
				sent = append(sent, msg)
			}

			mtx.Lock()
			defer mtx.Unlock()
			messages[idx] = sent
			rounds[idx] = rNew
			return nil
		})
	}
	if err := errGroup.Wait(); err != nil {
		return err, false
	}

	done := true
	for _, r := range rounds {
		if !Finished(r) {
			done = false
		}
	}
	if done {
		return nil, true
	}

	for _, sent := range messages {
		for _, msg := range sent {
			msgBytes, err := cbor.Marshal(msg.Content)
			if err != nil {
				return err, false
			}
			for _, r := range rounds {
				m := *msg
				r := r
				if Finished(r) || m.From == r.SelfID() || m.Content.RoundNumber() != r.Number() {
					continue
				}
				if !r.PartyIDs().Contains(m.From) {
					continue
				}
				if !m.Broadcast && m.To != 0 && m.To != r.SelfID() {
					continue
				}
				errGroup.Go(func() error {
					return deliver(r, m, msgBytes)
				})
			}
			if err = errGroup.Wait(); err != nil {
				return err, false
			}
		}
	}

	return nil, false
}

func deliver(r round.Session, m round.Message, msgBytes []byte) error {
	if m.Broadcast {
		b, ok := r.(round.BroadcastRound)
		if !ok {
			return errors.New("broadcast message but not broadcast round")
		}
		m.Content = b.BroadcastContent()
		err := cbor.Unmarshal(msgBytes, m.Content)
		if err == nil {
			err = b.StoreBroadcastMessage(m)
		}
		if ft, ok := b.(round.FaultTolerantRound); ok && err != nil {
			err = ft.MarkFaulty(m.From, err)
		}
		return err
	}

	m.Content = r.MessageContent()
	if m.Content == nil {
		return errors.New("message but round expects none")
	}
	if err := cbor.Unmarshal(msgBytes, m.Content); err != nil {
		return err
	}
	if err := r.VerifyMessage(m); err != nil {
		return err
	}
	return r.StoreMessage(m)
}
