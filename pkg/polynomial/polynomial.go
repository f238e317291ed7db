// Package polynomial implements the scalar and point-coefficient
// polynomials used by the RSS protocol's hierarchical Shamir sharing and
// Feldman commitments, plus Lagrange coefficient recovery over raw integer
// party indices.
package polynomial

import (
	"fmt"
	"io"

	"github.com/torusresearch/rss-client/pkg/curve"
)

// Polynomial is a scalar-coefficient polynomial f(x) = c0 + c1*x + ... + ct*x^t,
// used to generate a co-dealer's contribution to a share.
type Polynomial struct {
	Coefficients []curve.Scalar
}

// Generate samples a random degree-t polynomial with the given constant
// term. Passing a nil constant draws a random constant term too.
func Generate(rand io.Reader, c curve.Curve, degree int, constant curve.Scalar) (*Polynomial, error) {
	coeffs := make([]curve.Scalar, degree+1)
	if constant != nil {
		coeffs[0] = constant
	} else {
		s, err := c.RandomScalar(rand)
		if err != nil {
			return nil, fmt.Errorf("polynomial: failed to sample constant term: %w", err)
		}
		coeffs[0] = s
	}
	for i := 1; i <= degree; i++ {
		s, err := c.RandomScalar(rand)
		if err != nil {
			return nil, fmt.Errorf("polynomial: failed to sample coefficient %d: %w", i, err)
		}
		coeffs[i] = s
	}
	return &Polynomial{Coefficients: coeffs}, nil
}

// Degree returns the polynomial's degree.
func (p *Polynomial) Degree() int {
	return len(p.Coefficients) - 1
}

// Constant returns the polynomial's constant term, i.e. f(0).
func (p *Polynomial) Constant() curve.Scalar {
	return p.Coefficients[0]
}

// Eval evaluates the polynomial at x via Horner's method.
func (p *Polynomial) Eval(x curve.Scalar) curve.Scalar {
	result := p.Coefficients[len(p.Coefficients)-1]
	for i := len(p.Coefficients) - 2; i >= 0; i-- {
		result = result.Mul(x).Add(p.Coefficients[i])
	}
	return result
}

// Exponent is a point-coefficient polynomial: the Feldman commitment vector
// Phi = <c0*G, c1*G, ..., ct*G> that lets any evaluator verify a received
// share without learning the polynomial itself.
type Exponent struct {
	Coefficients []curve.Point
}

// NewExponent commits to a Polynomial by multiplying each coefficient by the
// curve's generator.
func NewExponent(p *Polynomial) *Exponent {
	coeffs := make([]curve.Point, len(p.Coefficients))
	for i, c := range p.Coefficients {
		coeffs[i] = c.ActOnBase()
	}
	return &Exponent{Coefficients: coeffs}
}

// Degree returns the commitment vector's degree.
func (e *Exponent) Degree() int {
	return len(e.Coefficients) - 1
}

// Constant returns the aggregate public commitment, i.e. f(0)*G.
func (e *Exponent) Constant() curve.Point {
	return e.Coefficients[0]
}

// Eval evaluates the committed polynomial in the exponent at x, i.e.
// computes f(x)*G without knowing f.
func (e *Exponent) Eval(x curve.Scalar) curve.Point {
	result := e.Coefficients[len(e.Coefficients)-1]
	for i := len(e.Coefficients) - 2; i >= 0; i-- {
		result = x.Act(result).Add(e.Coefficients[i])
	}
	return result
}

// Sum aggregates commitment vectors from multiple co-dealers into a single
// vector, coefficient-wise. All inputs must share the same degree.
func Sum(exponents []*Exponent) (*Exponent, error) {
	if len(exponents) == 0 {
		return nil, fmt.Errorf("polynomial: cannot sum zero commitment vectors")
	}
	degree := exponents[0].Degree()
	for _, e := range exponents {
		if e.Degree() != degree {
			return nil, fmt.Errorf("polynomial: commitment vectors have mismatched degree %d and %d", degree, e.Degree())
		}
	}
	out := make([]curve.Point, degree+1)
	copy(out, exponents[0].Coefficients)
	for _, e := range exponents[1:] {
		for i, c := range e.Coefficients {
			out[i] = out[i].Add(c)
		}
	}
	return &Exponent{Coefficients: out}, nil
}

// Equal reports whether two commitment vectors are coefficient-wise equal.
func (e *Exponent) Equal(other *Exponent) bool {
	if e.Degree() != other.Degree() {
		return false
	}
	for i, c := range e.Coefficients {
		if !c.Equal(other.Coefficients[i]) {
			return false
		}
	}
	return true
}
