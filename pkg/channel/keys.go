package channel

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"

	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
	"golang.org/x/crypto/curve25519"
)

// PublicKey is an X25519 public key.
type PublicKey []byte

// Validate checks the length of the key, and that it is not the all zero point.
func (pk PublicKey) Validate() error {
	if len(pk) != KeySize {
		return fmt.Errorf("%w: length %d", ErrInvalidKey, len(pk))
	}
	var acc byte
	for _, b := range pk {
		acc |= b
	}
	if acc == 0 {
		return ErrInvalidKey
	}
	return nil
}

// Equal reports whether pk and other are the same key.
func (pk PublicKey) Equal(other PublicKey) bool {
	return bytes.Equal(pk, other)
}

// KeyPair is a party's long-term channel key.
type KeyPair struct {
	secret []byte
	public PublicKey
}

// GenerateKeyPair samples a new X25519 key pair from rand.
func GenerateKeyPair(rand io.Reader) (*KeyPair, error) {
	secret := make([]byte, KeySize)
	if _, err := io.ReadFull(rand, secret); err != nil {
		return nil, fmt.Errorf("channel: sample key: %w", err)
	}
	public, err := curve25519.X25519(secret, curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("channel: %w", err)
	}
	return &KeyPair{secret: secret, public: public}, nil
}

// Public returns the public half of the key pair.
func (k *KeyPair) Public() PublicKey {
	return k.public
}

// Clear erases the secret key.
func (k *KeyPair) Clear() {
	zero(k.secret)
}

// Directory maps every participant to its long-term channel public key.
type Directory map[party.ID]PublicKey

// Validate checks that every id has a well formed key.
func (d Directory) Validate(ids []party.ID) error {
	for _, id := range ids {
		pk, ok := d[id]
		if !ok {
			return fmt.Errorf("channel: no public key for party %v", id)
		}
		if err := pk.Validate(); err != nil {
			return fmt.Errorf("channel: party %v: %w", id, err)
		}
	}
	return nil
}

// WriteTo implements io.WriterTo, writing the keys in increasing order of party.
func (d Directory) WriteTo(w io.Writer) (int64, error) {
	ids := make(party.IDSlice, 0, len(d))
	for id := range d {
		ids = append(ids, id)
	}
	sort.Sort(ids)

	if err := binary.Write(w, binary.BigEndian, uint32(len(ids))); err != nil {
		return 0, err
	}
	total := int64(4)
	for _, id := range ids {
		n, err := id.WriteTo(w)
		total += n
		if err != nil {
			return total, err
		}
		m, err := w.Write(d[id])
		total += int64(m)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (Directory) Domain() string {
	return "Channel Directory"
}
