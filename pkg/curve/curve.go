// Package curve provides a uniform Scalar/Point abstraction over the two
// elliptic curve groups used by the RSS protocol: secp256k1 and ed25519.
package curve

import (
	"fmt"
	"io"
)

// Curve is a named elliptic curve group together with its scalar field.
//
// Implementations are stateless; all arithmetic lives on Scalar and Point.
type Curve interface {
	// Name identifies the curve, e.g. "secp256k1" or "ed25519".
	Name() string

	// NewScalar returns the additive identity (zero) scalar.
	NewScalar() Scalar

	// RandomScalar draws a uniformly random non-zero scalar from rand.
	RandomScalar(rand io.Reader) (Scalar, error)

	// ScalarFromInt embeds a small integer into the scalar field. Used for
	// fixed indices such as the user-share index 99 in spec's hierarchical
	// sharing scheme.
	ScalarFromInt(v int64) Scalar

	// Generator returns the group's canonical base point.
	Generator() Point

	// Identity returns the group identity element (point at infinity).
	Identity() Point

	// ScalarBits is the bit length of the scalar field order.
	ScalarBits() int

	// DecodeScalar parses a fixed-width big-endian scalar encoding.
	DecodeScalar(data []byte) (Scalar, error)

	// DecodePoint parses a curve-specific compressed point encoding.
	DecodePoint(data []byte) (Point, error)
}

// Scalar is an element of a curve's scalar field.
//
// All operations return a new Scalar and never mutate the receiver.
type Scalar interface {
	Add(other Scalar) Scalar
	Sub(other Scalar) Scalar
	Mul(other Scalar) Scalar
	Invert() Scalar
	Negate() Scalar
	IsZero() bool
	Equal(other Scalar) bool

	// Bytes returns the fixed-width big-endian encoding of the scalar.
	Bytes() []byte

	// ActOnBase returns scalar*G, with G the curve's generator.
	ActOnBase() Point

	// Act returns scalar*P.
	Act(p Point) Point
}

// Point is an element of a curve's group.
type Point interface {
	Add(other Point) Point
	Negate() Point
	Equal(other Point) bool
	IsIdentity() bool

	// Bytes returns the curve's compressed point encoding.
	Bytes() []byte

	// Coordinates returns the affine (x, y) coordinates of the point, for
	// the hex wire encoding used by spec's HTTP contract. The identity
	// element has no affine coordinates; callers should check IsIdentity
	// first.
	Coordinates() (x, y []byte)
}

// ByName resolves one of the two curves this module supports.
func ByName(name string) (Curve, error) {
	switch name {
	case "secp256k1":
		return Secp256k1{}, nil
	case "ed25519":
		return Ed25519{}, nil
	default:
		return nil, fmt.Errorf("curve: unknown curve %q", name)
	}
}
