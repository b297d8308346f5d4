// Package encoding fixes the cbor options used for every message and state
// snapshot, so that encodings are byte-for-byte reproducible.
package encoding

import (
	"github.com/fxamacker/cbor/v2"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic(err)
	}
	if decMode, err = (cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthForbidden,
	}).DecMode(); err != nil {
		panic(err)
	}
}

// Marshal returns the deterministic cbor encoding of v.
func Marshal(v interface{}) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes data into v.
//
// Values holding curve points or scalars must be initialized with the right
// group beforehand, so that the decoder can call their UnmarshalBinary method.
func Unmarshal(data []byte, v interface{}) error {
	return decMode.Unmarshal(data, v)
}
