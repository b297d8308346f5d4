package types

import (
	"io"
)

// SigningMessage wraps the raw bytes a signature is produced over.
//
// The message is hashed as-is; callers that want to sign a digest pass the digest.
type SigningMessage []byte

// WriteTo implements io.WriterTo interface.
func (m SigningMessage) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(m)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (m SigningMessage) Domain() string {
	if len(m) == 0 {
		return "Empty Signing Message"
	}
	return "Signing Message"
}
