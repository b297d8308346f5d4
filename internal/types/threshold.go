package types

import (
	"encoding/binary"
	"io"
)

// ThresholdWrapper wraps a uint32 and enables writing with domain.
//
// The value is the number of shares needed to reconstruct, which is also
// the minimum number of signers.
type ThresholdWrapper uint32

// WriteTo implements io.WriterTo interface.
func (t ThresholdWrapper) WriteTo(w io.Writer) (int64, error) {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(t))
	n, err := w.Write(buf[:])
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ThresholdWrapper) Domain() string { return "Threshold" }
