package polynomial

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

var (
	// ErrInsufficientShares is returned when fewer shares than the threshold are given.
	ErrInsufficientShares = errors.New("polynomial: insufficient shares")
	// ErrDuplicateIndex is returned when two shares are evaluations at the same index.
	ErrDuplicateIndex = errors.New("polynomial: duplicate share index")
	// ErrReservedIndex is returned for a share at index 0, which would be the secret itself.
	ErrReservedIndex = errors.New("polynomial: share index 0 is reserved")
)

// Share is the evaluation f(Index) of a sharing polynomial.
type Share struct {
	Index party.ID
	Value curve.Scalar
}

// Reconstruct interpolates the shares at 0, returning the shared secret.
//
// Every share is used, so any subset of at least threshold consistent shares
// yields the same secret.
func Reconstruct(group curve.Curve, shares []Share, threshold int) (curve.Scalar, error) {
	indices := make(party.IDSlice, 0, len(shares))
	seen := make(map[party.ID]bool, len(shares))
	for _, share := range shares {
		if share.Index == 0 {
			return nil, ErrReservedIndex
		}
		if seen[share.Index] {
			return nil, fmt.Errorf("%w: %v", ErrDuplicateIndex, share.Index)
		}
		seen[share.Index] = true
		indices = append(indices, share.Index)
	}
	if threshold < 1 || len(indices) < threshold {
		return nil, fmt.Errorf("%w: got %d, need %d", ErrInsufficientShares, len(indices), threshold)
	}

	lambdas := Lagrange(group, indices)
	secret := group.NewScalar()
	for _, share := range shares {
		secret.Add(group.NewScalar().Set(lambdas[share.Index]).Mul(share.Value))
	}
	return secret, nil
}
