package hash

import (
	"bytes"
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/multi-party-schnorr/internal/params"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/zeebo/blake3"
)

// DigestLengthBytes is the length of the output of Sum.
const DigestLengthBytes = params.HashBytes

// Hash is the transcript hash used for session identifiers, binding factors and challenges.
//
// Internally, this is a wrapper around blake3.Hasher, whose extendable output
// also lets us derive scalars with negligible bias.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash struct where the internal hash function is initialized with "FROST-BLAKE3".
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	_, _ = hash.h.WriteString("FROST-BLAKE3")
	for _, d := range initialData {
		_ = hash.WriteAny(d)
	}
	return hash
}

// Digest returns a reader for the current string of the hash state.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - curve.Scalar
//   - curve.Point
//   - hash.WriterToWithDomain
//   - encoding.BinaryMarshaler
//
// Every item is written as a length prefixed domain followed by the length
// prefixed data, so that no two sequences of items share an encoding.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			if t == nil {
				return errors.New("hash.WriteAny: nil []byte")
			}
			toBeWritten = &BytesWithDomain{"[]byte", t}
		case *saferith.Nat:
			if t == nil {
				return errors.New("hash.WriteAny: nil *saferith.Nat")
			}
			toBeWritten = &BytesWithDomain{"saferith.Nat", t.Bytes()}
		case curve.Scalar:
			b, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Scalar", b}
		case curve.Point:
			b, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Point", b}
		case WriterToWithDomain:
			toBeWritten = t
		case encoding.BinaryMarshaler:
			b, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.WriteAny: %w", err)
			}
			toBeWritten = &BytesWithDomain{"BinaryMarshaler", b}
		default:
			panic(fmt.Sprintf("hash.WriteAny: invalid type provided as input: %T", t))
		}

		if err := hash.writeFramed(toBeWritten); err != nil {
			return err
		}
	}
	return nil
}

func (hash *Hash) writeFramed(data WriterToWithDomain) error {
	var body bytes.Buffer
	if _, err := data.WriteTo(&body); err != nil {
		return fmt.Errorf("hash.WriteAny: %s: %w", data.Domain(), err)
	}
	domain := data.Domain()
	var lengths [12]byte
	binary.BigEndian.PutUint32(lengths[:4], uint32(len(domain)))
	binary.BigEndian.PutUint64(lengths[4:], uint64(body.Len()))

	_, _ = hash.h.Write(lengths[:4])
	_, _ = hash.h.WriteString(domain)
	_, _ = hash.h.Write(lengths[4:])
	_, _ = hash.h.Write(body.Bytes())
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// Fork clones this hash, and then writes some data.
func (hash *Hash) Fork(data ...interface{}) *Hash {
	newHash := hash.Clone()
	_ = newHash.WriteAny(data...)
	return newHash
}
