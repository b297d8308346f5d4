package polynomial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/taurusgroup/multi-party-schnorr/internal/encoding"
	"github.com/taurusgroup/multi-party-schnorr/pkg/math/curve"
	"github.com/taurusgroup/multi-party-schnorr/pkg/party"
)

// Exponent represent a polynomial F(X) whose coefficients belong to a group 𝔾.
//
// It is the Feldman commitment to a Polynomial: Cₖ = aₖ⋅G.
type Exponent struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewPolynomialExponent generates an Exponent polynomial F(X) = [secret + a₁•X + … + aₜ•Xᵗ]•G,
// with coefficients in 𝔾, and degree t.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		group:        polynomial.group,
		coefficients: make([]curve.Point, len(polynomial.coefficients)),
	}

	for i, c := range polynomial.coefficients {
		p.coefficients[i] = c.ActOnBase()
	}

	return p
}

// Evaluate returns F(x) = [f(x)]•G.
func (p *Exponent) Evaluate(x curve.Scalar) curve.Point {
	result := p.group.NewPoint()

	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// Bₙ₋₁ = [x]Bₙ  + Aₙ₋₁
		result = x.Act(result).Add(p.coefficients[i])
	}
	return result
}

// VerifyShare checks that share is the evaluation at index of the polynomial
// committed to by p, i.e. share⋅G = ∑ₖ Cₖ⋅indexᵏ.
func (p *Exponent) VerifyShare(index party.ID, share curve.Scalar) bool {
	if index == 0 || share == nil {
		return false
	}
	return share.ActOnBase().Equal(p.Evaluate(index.Scalar(p.group)))
}

// Degree returns the degree t of the polynomial.
func (p *Exponent) Degree() int {
	return len(p.coefficients) - 1
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("q is not the same length as p")
	}

	for i := 0; i < len(p.coefficients); i++ {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}

	return nil
}

// Sum creates a new Polynomial in the Exponent, by summing a slice of existing ones.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	if len(polynomials) == 0 {
		return nil, errors.New("polynomial.Sum: no polynomials given")
	}

	// Create the new polynomial by copying the first one given
	summed := polynomials[0].Copy()

	// we assume all polynomials have the same degree as the first
	for j := 1; j < len(polynomials); j++ {
		if err := summed.add(polynomials[j]); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// Copy returns a deep copy of p.
func (p *Exponent) Copy() *Exponent {
	q := &Exponent{
		group:        p.group,
		coefficients: make([]curve.Point, len(p.coefficients)),
	}
	for i := 0; i < len(p.coefficients); i++ {
		q.coefficients[i] = p.group.NewPoint().Set(p.coefficients[i])
	}
	return q
}

// Equal returns true if p and other have the same coefficients.
func (p *Exponent) Equal(other *Exponent) bool {
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := 0; i < len(p.coefficients); i++ {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient of the polynomial 'in the exponent'.
func (p *Exponent) Constant() curve.Point {
	return p.group.NewPoint().Set(p.coefficients[0])
}

// Coefficients returns the commitments C₀, …, Cₜ.
func (p *Exponent) Coefficients() []curve.Point {
	return p.coefficients
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	if err := binary.Write(w, binary.BigEndian, uint32(len(p.coefficients))); err != nil {
		return 0, err
	}
	total := int64(4)

	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return total, err
		}
		n, err := w.Write(data)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*Exponent) Domain() string {
	return "Exponent"
}

// EmptyExponent returns an Exponent of the given group, ready to be unmarshalled into.
func EmptyExponent(group curve.Curve) *Exponent {
	return &Exponent{group: group}
}

// MarshalBinary encodes the coefficients as a list of point encodings.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	coefficients := make([][]byte, len(p.coefficients))
	for i, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		coefficients[i] = data
	}
	return encoding.Marshal(coefficients)
}

// UnmarshalBinary decodes the coefficients, which must all be valid points of the group.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	if p.group == nil {
		return errors.New("polynomial.Exponent: UnmarshalBinary called without setting a group")
	}
	var coefficients [][]byte
	if err := encoding.Unmarshal(data, &coefficients); err != nil {
		return err
	}
	if len(coefficients) == 0 {
		return errors.New("polynomial.Exponent: no coefficients")
	}
	p.coefficients = make([]curve.Point, len(coefficients))
	for i, c := range coefficients {
		p.coefficients[i] = p.group.NewPoint()
		if err := p.coefficients[i].UnmarshalBinary(c); err != nil {
			return fmt.Errorf("polynomial.Exponent: coefficient %d: %w", i, err)
		}
	}
	return nil
}
