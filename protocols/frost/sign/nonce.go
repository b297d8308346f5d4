package sign

import (
	"errors"
	"sync"

	"github.com/taurusgroup/multi-party-schnorr/pkg/hash"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
)

// ErrNonceReuse is returned when a nonce commitment pair is seen a second time.
var ErrNonceReuse = errors.New("sign: nonce commitment reused")

// NonceTracker remembers every nonce commitment pair (D, E), so that none is accepted twice.
//
// Two signatures with the same nonces reveal the key share of the signer,
// so a reused commitment always ends the session.
type NonceTracker struct {
	mtx  sync.Mutex
	seen map[string]struct{}
}

// NewNonceTracker returns an empty tracker.
func NewNonceTracker() *NonceTracker {
	return &NonceTracker{seen: make(map[string]struct{})}
}

// Use records the pair (D, E), and returns ErrNonceReuse if it was already recorded.
func (t *NonceTracker) Use(D, E curve.Point) error {
	h := hash.New()
	if err := h.WriteAny(D, E); err != nil {
		return err
	}
	key := string(h.Sum())

	t.mtx.Lock()
	defer t.mtx.Unlock()
	if _, ok := t.seen[key]; ok {
		return ErrNonceReuse
	}
	t.seen[key] = struct{}{}
	return nil
}

// Len returns the number of pairs recorded.
func (t *NonceTracker) Len() int {
	t.mtx.Lock()
	defer t.mtx.Unlock()
	return len(t.seen)
}
