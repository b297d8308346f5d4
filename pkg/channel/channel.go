// Package channel provides the authenticated encryption used to send secret
// shares between two parties over an untrusted network.
//
// Keys are derived with X25519 and HKDF-SHA256 (salt: the session identifier,
// info: sender ‖ receiver), and messages are sealed with ChaCha20-Poly1305 under
// the associated data session identifier ‖ sender ‖ receiver.
package channel

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the length of X25519 secret and public keys.
	KeySize = curve25519.ScalarSize
	// NonceSize is the length of the AEAD nonce.
	NonceSize = chacha20poly1305.NonceSize
	// TagSize is the length of the AEAD authentication tag.
	TagSize = chacha20poly1305.Overhead
)

var (
	// ErrAuthenticationFailed is returned when a ciphertext does not open under the derived key.
	ErrAuthenticationFailed = errors.New("channel: authentication failed")
	// ErrInvalidKey is returned for malformed or low order X25519 public keys.
	ErrInvalidKey = errors.New("channel: invalid public key")
	// ErrCleared is returned when a Channel is used after Clear.
	ErrCleared = errors.New("channel: key was erased")
)

// Channel holds the key for one direction of a pair of parties.
// The AEAD state is created for each call, so that Clear erases the only copy of the key.
type Channel struct {
	key []byte
	ad  []byte
}

// Derive computes the directional channel from sender to receiver, given one side's
// X25519 secret and the other side's public key.
func Derive(secret []byte, peer PublicKey, sessionID []byte, sender, receiver party.ID) (*Channel, error) {
	if err := peer.Validate(); err != nil {
		return nil, err
	}
	if len(secret) != KeySize {
		return nil, fmt.Errorf("channel: secret key has length %d", len(secret))
	}
	shared, err := curve25519.X25519(secret, peer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	defer zero(shared)

	info := append(sender.Bytes(), receiver.Bytes()...)
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err = io.ReadFull(hkdf.New(sha256.New, shared, sessionID, info), key); err != nil {
		return nil, fmt.Errorf("channel: hkdf: %w", err)
	}
	// the ids have a fixed length, so the concatenation is unambiguous
	ad := make([]byte, 0, len(sessionID)+len(info))
	ad = append(append(ad, sessionID...), info...)
	return &Channel{key: key, ad: ad}, nil
}

// Encrypt seals plaintext under a fresh random nonce.
func (c *Channel) Encrypt(rand io.Reader, plaintext []byte) (nonce, ciphertext, tag []byte, err error) {
	if c.key == nil {
		return nil, nil, nil, ErrCleared
	}
	nonce = make([]byte, NonceSize)
	if _, err = io.ReadFull(rand, nonce); err != nil {
		return nil, nil, nil, fmt.Errorf("channel: sample nonce: %w", err)
	}
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("channel: %w", err)
	}
	sealed := aead.Seal(nil, nonce, plaintext, c.ad)
	split := len(sealed) - TagSize
	return nonce, sealed[:split], sealed[split:], nil
}

// Decrypt opens a ciphertext produced by Encrypt, or returns ErrAuthenticationFailed.
func (c *Channel) Decrypt(nonce, ciphertext, tag []byte) ([]byte, error) {
	if c.key == nil {
		return nil, ErrCleared
	}
	if len(nonce) != NonceSize || len(tag) != TagSize {
		return nil, ErrAuthenticationFailed
	}
	sealed := make([]byte, 0, len(ciphertext)+TagSize)
	sealed = append(append(sealed, ciphertext...), tag...)
	aead, err := chacha20poly1305.New(c.key)
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	plaintext, err := aead.Open(nil, nonce, sealed, c.ad)
	if err != nil {
		return nil, ErrAuthenticationFailed
	}
	return plaintext, nil
}

// Clear erases the derived key. The Channel must not be used afterwards.
func (c *Channel) Clear() {
	zero(c.key)
	c.key = nil
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
