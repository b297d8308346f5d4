package party

import (
	"encoding/binary"
	"io"
	"strconv"

	"github.com/cronokirby/saferith"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
)

// ByteSize is the number of bytes required to store an ID.
const ByteSize = 2

// ID represents the identifier of a particular party.
//
// The ID doubles as the point at which the party's share is evaluated,
// so 0 is reserved: evaluating there would reveal the secret.
type ID uint16

// Scalar converts this ID into a scalar.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(uint64(id)))
}

// Bytes returns the big-endian encoding of the ID, of length ByteSize.
func (id ID) Bytes() []byte {
	var out [ByteSize]byte
	binary.BigEndian.PutUint16(out[:], uint16(id))
	return out[:]
}

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// WriteTo implements io.WriterTo.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ID) Domain() string {
	return "ID"
}
