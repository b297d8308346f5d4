package main

import (
	"io"
	"sync"

	"github.com/taurusgroup/multi-party-schnorr/pkg/channel"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"github.com/taurusgroup/multi-party-schnorr/pkg/protocol"
)

// network delivers every message to the in-process parties it is intended for.
// A real deployment replaces it with an authenticated transport providing reliable broadcast.
type network struct {
	mtx    sync.Mutex
	inbox  map[party.ID]chan *protocol.Message
	closed chan *protocol.Message
	done   chan struct{}
}

func newNetwork(ids party.IDSlice) *network {
	closed := make(chan *protocol.Message)
	close(closed)
	n := &network{
		inbox:  make(map[party.ID]chan *protocol.Message, len(ids)),
		closed: closed,
		done:   make(chan struct{}),
	}
	for _, id := range ids {
		n.inbox[id] = make(chan *protocol.Message, 16*len(ids)*len(ids)+64)
	}
	return n
}

func (n *network) next(id party.ID) <-chan *protocol.Message {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if c, ok := n.inbox[id]; ok {
		return c
	}
	return n.closed
}

func (n *network) send(msg *protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	for id, c := range n.inbox {
		if msg.IsFor(id) {
			c <- msg
		}
	}
}

// leave removes id from the network, and returns a channel closed once every party has left.
func (n *network) leave(id party.ID) <-chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if c, ok := n.inbox[id]; ok {
		close(c)
		delete(n.inbox, id)
		if len(n.inbox) == 0 {
			close(n.done)
		}
	}
	return n.done
}

// serve relays messages between h and the network until the protocol is done.
func serve(id party.ID, h *protocol.Handler, n *network) {
	for {
		select {
		case msg, ok := <-h.Listen():
			if !ok {
				<-n.leave(id)
				return
			}
			go n.send(msg)
		case msg := <-n.next(id):
			_ = h.Accept(msg)
		}
	}
}

func partyIDs(n int) party.IDSlice {
	ids := make(party.IDSlice, n)
	for i := range ids {
		ids[i] = party.ID(i + 1)
	}
	return ids
}

// channelKeys generates the long-term channel key of every party, and the directory of their public keys.
func channelKeys(ids party.IDSlice, rand io.Reader) (map[party.ID]*channel.KeyPair, channel.Directory, error) {
	keys := make(map[party.ID]*channel.KeyPair, len(ids))
	directory := make(channel.Directory, len(ids))
	for _, id := range ids {
		kp, err := channel.GenerateKeyPair(rand)
		if err != nil {
			return nil, nil, err
		}
		keys[id] = kp
		directory[id] = kp.Public()
	}
	return keys, directory, nil
}
