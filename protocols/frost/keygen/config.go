package keygen

import (
	"errors"
	"fmt"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/polynomial"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Config contains all the information produced after key generation, from the perspective
// of a single participant.
type Config struct {
	Group curve.Curve
	// ID is the identifier for this participant.
	ID party.ID
	// Threshold is the number of shares needed to sign.
	Threshold int
	// SessionID identifies the key generation session which produced this key.
	SessionID []byte
	// PrivateShare is the fraction of the secret key owned by this participant.
	PrivateShare curve.Scalar
	// PublicKey is the shared public key for this consortium of signers.
	//
	// This key can be used to verify signatures produced by the consortium.
	PublicKey curve.Point
	// VerificationShares is a map between parties and a commitment to their private share.
	//
	// This will later be used to verify the integrity of the signing protocol.
	VerificationShares map[party.ID]curve.Point
	// Commitments are the Feldman commitments of every dealer whose polynomial contributed to the key.
	Commitments map[party.ID]*polynomial.Exponent
	// Participants is the set of parties holding a share.
	Participants party.IDSlice
	// Excluded lists the parties that were removed during complaint resolution.
	Excluded party.IDSlice
}

// EmptyConfig returns a Config of the given group, ready to be unmarshalled into.
func EmptyConfig(group curve.Curve) *Config {
	return &Config{Group: group}
}

// configData is the byte level representation of a Config.
type configData struct {
	Group              string
	ID                 party.ID
	Threshold          int
	SessionID          []byte
	PrivateShare       []byte
	PublicKey          []byte
	VerificationShares map[party.ID][]byte
	Commitments        map[party.ID][]byte
	Participants       []party.ID
	Excluded           []party.ID
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *Config) MarshalBinary() ([]byte, error) {
	privateShare, err := c.PrivateShare.MarshalBinary()
	if err != nil {
		return nil, err
	}
	defer zero(privateShare)
	publicKey, err := c.PublicKey.MarshalBinary()
	if err != nil {
		return nil, err
	}
	verificationShares := make(map[party.ID][]byte, len(c.VerificationShares))
	for id, p := range c.VerificationShares {
		if verificationShares[id], err = p.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	commitments := make(map[party.ID][]byte, len(c.Commitments))
	for id, phi := range c.Commitments {
		if commitments[id], err = phi.MarshalBinary(); err != nil {
			return nil, err
		}
	}
	// nil and empty id slices encode the same way
	return encoding.Marshal(&configData{
		Group:              c.Group.Name(),
		ID:                 c.ID,
		Threshold:          c.Threshold,
		SessionID:          c.SessionID,
		PrivateShare:       privateShare,
		PublicKey:          publicKey,
		VerificationShares: verificationShares,
		Commitments:        commitments,
		Participants:       party.NewIDSlice(c.Participants),
		Excluded:           party.NewIDSlice(c.Excluded),
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
//
// When c.Group is set, the encoded group must match it.
func (c *Config) UnmarshalBinary(data []byte) error {
	var d configData
	if err := encoding.Unmarshal(data, &d); err != nil {
		return err
	}
	defer zero(d.PrivateShare)

	group := curve.FromName(d.Group)
	if group == nil {
		return fmt.Errorf("keygen: unknown group %q", d.Group)
	}
	if c.Group != nil && c.Group.Name() != group.Name() {
		return fmt.Errorf("keygen: config is for group %s, not %s", group.Name(), c.Group.Name())
	}

	privateShare := group.NewScalar()
	if err := privateShare.UnmarshalBinary(d.PrivateShare); err != nil {
		return err
	}
	publicKey := group.NewPoint()
	if err := publicKey.UnmarshalBinary(d.PublicKey); err != nil {
		return err
	}
	verificationShares := make(map[party.ID]curve.Point, len(d.VerificationShares))
	for id, b := range d.VerificationShares {
		p := group.NewPoint()
		if err := p.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("keygen: verification share of %v: %w", id, err)
		}
		verificationShares[id] = p
	}
	commitments := make(map[party.ID]*polynomial.Exponent, len(d.Commitments))
	for id, b := range d.Commitments {
		phi := polynomial.EmptyExponent(group)
		if err := phi.UnmarshalBinary(b); err != nil {
			return fmt.Errorf("keygen: commitment of %v: %w", id, err)
		}
		commitments[id] = phi
	}

	*c = Config{
		Group:              group,
		ID:                 d.ID,
		Threshold:          d.Threshold,
		SessionID:          d.SessionID,
		PrivateShare:       privateShare,
		PublicKey:          publicKey,
		VerificationShares: verificationShares,
		Commitments:        commitments,
		Participants:       party.NewIDSlice(d.Participants),
		Excluded:           party.NewIDSlice(d.Excluded),
	}
	return c.Validate()
}

// Validate checks the internal consistency of the key material.
func (c *Config) Validate() error {
	if c.Group == nil || c.PrivateShare == nil || c.PublicKey == nil {
		return errors.New("keygen: config has nil fields")
	}
	if !c.Participants.Valid() || !c.Participants.Contains(c.ID) {
		return errors.New("keygen: config participants are invalid")
	}
	if err := ValidThreshold(c.Threshold, len(c.Participants)); err != nil {
		return err
	}
	for _, j := range c.Participants {
		if c.VerificationShares[j] == nil {
			return fmt.Errorf("keygen: no verification share for %v", j)
		}
	}
	if !c.PrivateShare.ActOnBase().Equal(c.VerificationShares[c.ID]) {
		return errors.New("keygen: private share does not match its verification share")
	}
	return nil
}

// PublicKeyBytes returns the encoding of the group public key.
func (c *Config) PublicKeyBytes() ([]byte, error) {
	return c.PublicKey.MarshalBinary()
}

// Clear overwrites the private share.
func (c *Config) Clear() {
	if c.PrivateShare != nil {
		c.PrivateShare.Clear()
	}
}
