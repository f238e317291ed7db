package polynomial_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/polynomial"
)

func TestEvalMatchesExponentEval(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	p, err := polynomial.Generate(rand.Reader, c, 2, secret)
	require.NoError(t, err)
	require.True(t, p.Constant().Equal(secret))

	exp := polynomial.NewExponent(p)
	require.True(t, exp.Constant().Equal(secret.ActOnBase()))

	x := c.ScalarFromInt(7)
	require.True(t, p.Eval(x).ActOnBase().Equal(exp.Eval(x)))
}

func TestSumAggregatesCoefficientwise(t *testing.T) {
	c := curve.Secp256k1{}
	p1, err := polynomial.Generate(rand.Reader, c, 1, nil)
	require.NoError(t, err)
	p2, err := polynomial.Generate(rand.Reader, c, 1, nil)
	require.NoError(t, err)

	sum, err := polynomial.Sum([]*polynomial.Exponent{polynomial.NewExponent(p1), polynomial.NewExponent(p2)})
	require.NoError(t, err)

	wantConstant := p1.Constant().Add(p2.Constant()).ActOnBase()
	require.True(t, sum.Constant().Equal(wantConstant))
}

func TestLagrangeRecoversSecret(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	p, err := polynomial.Generate(rand.Reader, c, 2, secret)
	require.NoError(t, err)

	indices := []int{1, 2, 3}
	shares := make([]curve.Scalar, len(indices))
	for i, idx := range indices {
		shares[i] = p.Eval(c.ScalarFromInt(int64(idx)))
	}

	coeffs := make([]curve.Scalar, len(indices))
	for i, idx := range indices {
		coeff, err := polynomial.LagrangeCoefficient(c, indices, idx, 0)
		require.NoError(t, err)
		coeffs[i] = coeff
	}

	recovered, err := polynomial.DotProduct(coeffs, shares)
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}

func TestLagrangeRejectsUnknownIndex(t *testing.T) {
	c := curve.Secp256k1{}
	_, err := polynomial.LagrangeCoefficient(c, []int{1, 2, 3}, 4, 0)
	require.Error(t, err)
}

func TestDotProductRejectsLengthMismatch(t *testing.T) {
	c := curve.Secp256k1{}
	_, err := polynomial.DotProduct([]curve.Scalar{c.ScalarFromInt(1)}, nil)
	require.Error(t, err)
}
