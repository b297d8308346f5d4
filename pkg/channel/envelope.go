package channel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"golang.org/x/crypto/curve25519"
)

// Envelope is a message sealed for a single receiver under a fresh ephemeral key.
//
// The sender keeps the ephemeral secret, so that it can later prove to
// everyone what the envelope contained, without involving the receiver's key.
type Envelope struct {
	Ephemeral  PublicKey
	Nonce      []byte
	Ciphertext []byte
	Tag        []byte
}

// Seal encrypts plaintext from sender to receiver.
// It returns the envelope and the ephemeral secret used to derive its key.
func Seal(rand io.Reader, receiverKey PublicKey, sessionID []byte, sender, receiver party.ID, plaintext []byte) (*Envelope, []byte, error) {
	ephemeral, err := GenerateKeyPair(rand)
	if err != nil {
		return nil, nil, err
	}
	c, err := Derive(ephemeral.secret, receiverKey, sessionID, sender, receiver)
	if err != nil {
		ephemeral.Clear()
		return nil, nil, err
	}
	defer c.Clear()

	nonce, ciphertext, tag, err := c.Encrypt(rand, plaintext)
	if err != nil {
		ephemeral.Clear()
		return nil, nil, err
	}
	return &Envelope{
		Ephemeral:  ephemeral.public,
		Nonce:      nonce,
		Ciphertext: ciphertext,
		Tag:        tag,
	}, ephemeral.secret, nil
}

// Open decrypts an envelope addressed to the owner of self.
func Open(self *KeyPair, sessionID []byte, sender, receiver party.ID, env *Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	c, err := Derive(self.secret, env.Ephemeral, sessionID, sender, receiver)
	if err != nil {
		return nil, err
	}
	defer c.Clear()
	return c.Decrypt(env.Nonce, env.Ciphertext, env.Tag)
}

// OpenWithEphemeral decrypts an envelope using the revealed ephemeral secret
// and the receiver's public key.
func OpenWithEphemeral(ephemeralSecret []byte, receiverKey PublicKey, sessionID []byte, sender, receiver party.ID, env *Envelope) ([]byte, error) {
	if err := env.Validate(); err != nil {
		return nil, err
	}
	if len(ephemeralSecret) != KeySize {
		return nil, fmt.Errorf("%w: ephemeral secret has length %d", ErrInvalidKey, len(ephemeralSecret))
	}
	public, err := curve25519.X25519(ephemeralSecret, curve25519.Basepoint)
	if err != nil || !bytes.Equal(public, env.Ephemeral) {
		return nil, fmt.Errorf("%w: ephemeral secret does not match envelope", ErrInvalidKey)
	}
	c, err := Derive(ephemeralSecret, receiverKey, sessionID, sender, receiver)
	if err != nil {
		return nil, err
	}
	defer c.Clear()
	return c.Decrypt(env.Nonce, env.Ciphertext, env.Tag)
}

// Validate checks the lengths of the envelope's fixed size fields.
func (e *Envelope) Validate() error {
	if e == nil {
		return fmt.Errorf("%w: nil envelope", ErrAuthenticationFailed)
	}
	if err := e.Ephemeral.Validate(); err != nil {
		return err
	}
	if len(e.Nonce) != NonceSize || len(e.Tag) != TagSize {
		return ErrAuthenticationFailed
	}
	return nil
}

// WriteTo implements io.WriterTo, so that envelopes can be committed to.
func (e *Envelope) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, field := range [][]byte{e.Ephemeral, e.Nonce, e.Ciphertext, e.Tag} {
		if err := binary.Write(w, binary.BigEndian, uint32(len(field))); err != nil {
			return total, err
		}
		n, err := w.Write(field)
		total += 4 + int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*Envelope) Domain() string {
	return "Channel Envelope"
}
