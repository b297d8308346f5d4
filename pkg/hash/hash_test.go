package hash

import (
	"crypto/rand"
	"io"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/sample"
)

func TestHash_WriteAny(t *testing.T) {
	testFunc := func(vs ...interface{}) error {
		h := New()
		for _, v := range vs {
			if err := h.WriteAny(v); err != nil {
				return err
			}
		}
		return nil
	}
	n := new(saferith.Nat).SetUint64(35)

	assert.NoError(t, testFunc(n))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, curve.Edwards25519{})))
	assert.NoError(t, testFunc(sample.Scalar(rand.Reader, curve.Secp256k1{}).ActOnBase()))
	assert.NoError(t, testFunc([]byte{1, 4, 6}))
	assert.NoError(t, testFunc(&BytesWithDomain{"test", []byte{}}))
	assert.Error(t, testFunc([]byte(nil)))
	assert.Panics(t, func() { _ = testFunc(42) })
}

func TestHash_WriteAny_Collision(t *testing.T) {
	sum := func(vs ...interface{}) []byte {
		h := New()
		require.NoError(t, h.WriteAny(vs...))
		return h.Sum()
	}

	// moving bytes between two consecutive items changes the digest
	h1 := sum([]byte("ab"), []byte("c"))
	h2 := sum([]byte("a"), []byte("bc"))
	assert.NotEqual(t, h1, h2)

	// the same bytes under different domains differ
	h3 := sum(&BytesWithDomain{"x", []byte("ab")})
	h4 := sum(&BytesWithDomain{"xa", []byte("b")})
	assert.NotEqual(t, h3, h4)
}

func TestHash_Clone(t *testing.T) {
	h := New(&BytesWithDomain{"prefix", []byte("data")})
	cloned := h.Clone()
	assert.Equal(t, h.Sum(), cloned.Sum())

	forked := h.Fork([]byte("more"))
	assert.NotEqual(t, h.Sum(), forked.Sum())

	out := make([]byte, 100)
	_, err := io.ReadFull(h.Digest(), out)
	require.NoError(t, err)
	assert.Equal(t, h.Sum(), out[:DigestLengthBytes])
}
