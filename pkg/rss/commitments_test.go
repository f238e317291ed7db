package rss

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/polynomial"
)

func randomScalar(t *testing.T, c curve.Curve) curve.Scalar {
	t.Helper()
	s, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)
	return s
}

func rowFromPolys(master, server *polynomial.Polynomial) RSSRound1ResponseData {
	return RSSRound1ResponseData{
		MasterPolyCommits: hexPointSlice(polynomial.NewExponent(master).Coefficients),
		ServerPolyCommits: hexPointSlice(polynomial.NewExponent(server).Coefficients),
	}
}

func TestAggregateCommitmentsSumsCoefficientwise(t *testing.T) {
	c := curve.Secp256k1{}

	m1, err := polynomial.Generate(rand.Reader, c, 1, nil)
	require.NoError(t, err)
	s1, err := polynomial.Generate(rand.Reader, c, 2, m1.Eval(c.ScalarFromInt(1)))
	require.NoError(t, err)
	m2, err := polynomial.Generate(rand.Reader, c, 1, nil)
	require.NoError(t, err)
	s2, err := polynomial.Generate(rand.Reader, c, 2, m2.Eval(c.ScalarFromInt(1)))
	require.NoError(t, err)

	rows := []RSSRound1ResponseData{rowFromPolys(m1, s1), rowFromPolys(m2, s2)}

	agg, err := aggregateCommitments(c, rows, 2, 3)
	require.NoError(t, err)

	wantConstant := m1.Constant().Add(m2.Constant())
	require.True(t, agg.Master.Constant().Equal(wantConstant.ActOnBase()))
}

func TestAggregateCommitmentsRejectsShapeMismatch(t *testing.T) {
	c := curve.Secp256k1{}
	m1, err := polynomial.Generate(rand.Reader, c, 1, nil)
	require.NoError(t, err)
	s1, err := polynomial.Generate(rand.Reader, c, 2, m1.Eval(c.ScalarFromInt(1)))
	require.NoError(t, err)

	row := rowFromPolys(m1, s1)
	row.ServerPolyCommits = row.ServerPolyCommits[:2] // wrong length, want 3

	_, err = aggregateCommitments(c, []RSSRound1ResponseData{row}, 2, 3)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCommitShape))
}

func TestVerifyTSSPubKeyAcceptsConsistentAggregate(t *testing.T) {
	c := curve.Secp256k1{}
	target := 2

	dkgNewPriv := randomScalar(t, c)
	mc0 := randomScalar(t, c)

	eta1, err := polynomial.LagrangeCoefficient(c, []int{1, target}, 1, 0)
	require.NoError(t, err)
	eta2, err := polynomial.LagrangeCoefficient(c, []int{1, target}, target, 0)
	require.NoError(t, err)

	tssSecret := eta1.Mul(dkgNewPriv).Add(eta2.Mul(mc0))

	agg := &aggregatedCommitments{Master: &polynomial.Exponent{Coefficients: []curve.Point{mc0.ActOnBase(), randomScalar(t, c).ActOnBase()}}}

	err = verifyTSSPubKey(c, agg, dkgNewPriv.ActOnBase(), tssSecret.ActOnBase(), target)
	require.NoError(t, err)
}

func TestVerifyTSSPubKeyRejectsMismatch(t *testing.T) {
	c := curve.Secp256k1{}
	target := 2

	dkgNewPriv := randomScalar(t, c)
	mc0 := randomScalar(t, c)
	wrongTssPubKey := randomScalar(t, c).ActOnBase()

	agg := &aggregatedCommitments{Master: &polynomial.Exponent{Coefficients: []curve.Point{mc0.ActOnBase(), randomScalar(t, c).ActOnBase()}}}

	err := verifyTSSPubKey(c, agg, dkgNewPriv.ActOnBase(), wrongTssPubKey, target)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCommitConsistency))
}

func TestVerifyMasterServerLinkAcceptsConsistentLink(t *testing.T) {
	c := curve.Secp256k1{}
	mc0 := randomScalar(t, c)
	mc1 := randomScalar(t, c)
	sc0 := mc0.Add(mc1)

	agg := &aggregatedCommitments{
		Master: &polynomial.Exponent{Coefficients: []curve.Point{mc0.ActOnBase(), mc1.ActOnBase()}},
		Server: &polynomial.Exponent{Coefficients: []curve.Point{sc0.ActOnBase(), randomScalar(t, c).ActOnBase()}},
	}

	require.NoError(t, verifyMasterServerLink(agg))
}

func TestVerifyMasterServerLinkRejectsBrokenLink(t *testing.T) {
	c := curve.Secp256k1{}
	mc0 := randomScalar(t, c)
	mc1 := randomScalar(t, c)
	wrongSc0 := randomScalar(t, c)

	agg := &aggregatedCommitments{
		Master: &polynomial.Exponent{Coefficients: []curve.Point{mc0.ActOnBase(), mc1.ActOnBase()}},
		Server: &polynomial.Exponent{Coefficients: []curve.Point{wrongSc0.ActOnBase(), randomScalar(t, c).ActOnBase()}},
	}

	err := verifyMasterServerLink(agg)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrCommitConsistency))
}
