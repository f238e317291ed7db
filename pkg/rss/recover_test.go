package rss

import (
	"crypto/rand"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/ecies"
	"github.com/torusresearch/rss-client/pkg/polynomial"
)

// buildRecoveryScenario constructs a master polynomial with constant term
// secret, a linked server polynomial, and factor-encrypts the user share
// (index 99) and every server share (indices 1..n) to factorPub.
func buildRecoveryScenario(t *testing.T, c curve.Curve, secret curve.Scalar, n, threshold int) (factorPriv curve.Scalar, userEnc *ecies.EncryptedMessage, serverEncs []*ecies.EncryptedMessage) {
	t.Helper()
	secp := curve.Secp256k1{}

	master, err := polynomial.Generate(rand.Reader, c, 1, secret)
	require.NoError(t, err)
	server, err := polynomial.Generate(rand.Reader, c, threshold-1, master.Eval(c.ScalarFromInt(1)))
	require.NoError(t, err)

	factorPriv, err = secp.RandomScalar(rand.Reader)
	require.NoError(t, err)
	factorPub := factorPriv.ActOnBase()

	userShare := master.Eval(c.ScalarFromInt(UserShareIndex))
	userEnc, err = ecies.Encrypt(factorPub.Bytes(), userShare.Bytes())
	require.NoError(t, err)

	serverEncs = make([]*ecies.EncryptedMessage, n)
	for j := 0; j < n; j++ {
		share := server.Eval(c.ScalarFromInt(int64(j + 1)))
		enc, err := ecies.Encrypt(factorPub.Bytes(), share.Bytes())
		require.NoError(t, err)
		serverEncs[j] = enc
	}
	return factorPriv, userEnc, serverEncs
}

func TestRecoverReconstructsSecret(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	factorPriv, userEnc, serverEncs := buildRecoveryScenario(t, c, secret, 5, 3)

	recovered, err := Recover(c, RecoverOptions{
		FactorKey:       curve.EncodeHexScalar(factorPriv),
		UserEnc:         *userEnc,
		ServerEncs:      serverEncs,
		SelectedServers: []int{1, 2, 3},
	})
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}

func TestRecoverUsesOnlySelectedServers(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	factorPriv, userEnc, serverEncs := buildRecoveryScenario(t, c, secret, 5, 3)
	// Simulate a sparse response: only servers 2, 3, 5 actually answered;
	// SelectedServers names exactly that set.
	serverEncs[0] = nil
	serverEncs[3] = nil

	recovered, err := Recover(c, RecoverOptions{
		FactorKey:       curve.EncodeHexScalar(factorPriv),
		UserEnc:         *userEnc,
		ServerEncs:      serverEncs,
		SelectedServers: []int{2, 3, 5},
	})
	require.NoError(t, err)
	require.True(t, recovered.Equal(secret))
}

func TestRecoverRejectsWrongFactorKey(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	_, userEnc, serverEncs := buildRecoveryScenario(t, c, secret, 5, 3)

	secp := curve.Secp256k1{}
	wrongKey, err := secp.RandomScalar(rand.Reader)
	require.NoError(t, err)

	_, err = Recover(c, RecoverOptions{
		FactorKey:       curve.EncodeHexScalar(wrongKey),
		UserEnc:         *userEnc,
		ServerEncs:      serverEncs,
		SelectedServers: []int{1, 2, 3},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrDecrypt))
}

func TestRecoverRejectsOutOfRangeServerIndex(t *testing.T) {
	c := curve.Secp256k1{}
	secret, err := c.RandomScalar(rand.Reader)
	require.NoError(t, err)

	factorPriv, userEnc, serverEncs := buildRecoveryScenario(t, c, secret, 5, 3)

	_, err = Recover(c, RecoverOptions{
		FactorKey:       curve.EncodeHexScalar(factorPriv),
		UserEnc:         *userEnc,
		ServerEncs:      serverEncs,
		SelectedServers: []int{1, 2, 6},
	})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrInputInvariant))
}
