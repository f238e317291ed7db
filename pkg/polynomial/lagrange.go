package polynomial

import (
	"fmt"

	"github.com/torusresearch/rss-client/pkg/curve"
)

// LagrangeCoefficient computes l_myIndex(target), the Lagrange basis
// polynomial for myIndex evaluated at target, over the interpolation
// domain given by indices.
//
// This follows the raw-integer-index contract: callers pass party indices
// directly rather than going through a party-ID-keyed abstraction, since
// the RSS protocol identifies servers and factor keys by plain integers.
//
//	l_j(x) = prod_{m != j} (x - x_m) / (x_j - x_m)
func LagrangeCoefficient(c curve.Curve, indices []int, myIndex int, target int) (curve.Scalar, error) {
	found := false
	for _, idx := range indices {
		if idx == myIndex {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("polynomial: myIndex %d not present in interpolation domain", myIndex)
	}

	xTarget := c.ScalarFromInt(int64(target))
	xJ := c.ScalarFromInt(int64(myIndex))

	num := c.ScalarFromInt(1)
	den := c.ScalarFromInt(1)

	for _, idx := range indices {
		if idx == myIndex {
			continue
		}
		xM := c.ScalarFromInt(int64(idx))

		// num *= (target - x_m)
		num = num.Mul(xTarget.Sub(xM))

		// den *= (x_j - x_m)
		diff := xJ.Sub(xM)
		if diff.IsZero() {
			return nil, fmt.Errorf("polynomial: zero denominator, duplicate index %d in interpolation domain", idx)
		}
		den = den.Mul(diff)
	}

	return num.Mul(den.Invert()), nil
}

// DotProduct computes the sum of coefficients[i] * values[i], the
// inner-product form used to recover a secret from a set of Lagrange
// coefficients and the corresponding shares.
func DotProduct(coefficients []curve.Scalar, values []curve.Scalar) (curve.Scalar, error) {
	if len(coefficients) != len(values) {
		return nil, fmt.Errorf("polynomial: length mismatch, %d coefficients and %d values", len(coefficients), len(values))
	}
	if len(coefficients) == 0 {
		return nil, fmt.Errorf("polynomial: cannot compute dot product of empty slices")
	}
	sum := coefficients[0].Mul(values[0])
	for i := 1; i < len(coefficients); i++ {
		sum = sum.Add(coefficients[i].Mul(values[i]))
	}
	return sum, nil
}
