package curve_test

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/torusresearch/rss-client/pkg/curve"
)

func testCurve(t *testing.T, c curve.Curve) {
	t.Helper()

	a, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)
	b, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	sum := a.Add(b)
	require.False(t, sum.IsZero())

	// (a+b)*G == a*G + b*G
	lhs := sum.ActOnBase()
	rhs := a.ActOnBase().Add(b.ActOnBase())
	require.True(t, lhs.Equal(rhs))

	// a * a^-1 == 1
	inv := a.Invert()
	one := a.Mul(inv)
	require.True(t, one.Equal(c.ScalarFromInt(1)))

	// identity is neutral for addition
	id := c.Identity()
	require.True(t, id.IsIdentity())
	g := c.Generator()
	require.True(t, g.Add(id).Equal(g))
}

func TestSecp256k1(t *testing.T) {
	testCurve(t, curve.Secp256k1{})
}

func TestEd25519(t *testing.T) {
	testCurve(t, curve.Ed25519{})
}

func TestByName(t *testing.T) {
	c, err := curve.ByName("secp256k1")
	require.NoError(t, err)
	require.Equal(t, "secp256k1", c.Name())

	_, err = curve.ByName("bn254")
	require.Error(t, err)
}

func TestHexPointRoundTrip(t *testing.T) {
	c := curve.Secp256k1{}
	s, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)
	p := s.ActOnBase()

	hp := curve.EncodeHexPoint(p)
	require.NotNil(t, hp.X)

	decoded, err := curve.DecodeHexPoint(c, hp)
	require.NoError(t, err)
	require.True(t, p.Equal(decoded))
}

func TestHexPointIdentity(t *testing.T) {
	c := curve.Secp256k1{}
	hp := curve.EncodeHexPoint(c.Identity())
	require.Nil(t, hp.X)
	require.Nil(t, hp.Y)

	decoded, err := curve.DecodeHexPoint(c, hp)
	require.NoError(t, err)
	require.True(t, decoded.IsIdentity())
}
