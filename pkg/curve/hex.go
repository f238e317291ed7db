package curve

import (
	"encoding/hex"
	"fmt"
)

// hexWidth is the zero-padded width, in hex characters, of a coordinate or
// scalar on the wire. Both supported curves fit in 32 bytes.
const hexWidth = 64

// HexPoint is the wire representation of a Point: two zero-padded hex
// strings, or {null, null} for the group identity.
type HexPoint struct {
	X *string `json:"x"`
	Y *string `json:"y"`
}

// EncodeHexPoint converts a Point to its wire representation.
func EncodeHexPoint(p Point) HexPoint {
	if p.IsIdentity() {
		return HexPoint{}
	}
	x, y := p.Coordinates()
	hx := padHex(x)
	hy := padHex(y)
	return HexPoint{X: &hx, Y: &hy}
}

// DecodeHexPoint reconstructs a Point from its wire representation.
func DecodeHexPoint(c Curve, hp HexPoint) (Point, error) {
	if hp.X == nil || hp.Y == nil {
		return c.Identity(), nil
	}
	switch c.Name() {
	case "secp256k1":
		xb, err := hex.DecodeString(*hp.X)
		if err != nil {
			return nil, fmt.Errorf("curve: invalid hex x coordinate: %w", err)
		}
		yb, err := hex.DecodeString(*hp.Y)
		if err != nil {
			return nil, fmt.Errorf("curve: invalid hex y coordinate: %w", err)
		}
		odd := len(yb) > 0 && yb[len(yb)-1]&1 == 1
		format := byte(0x02)
		if odd {
			format = 0x03
		}
		data := append([]byte{format}, xb...)
		return c.DecodePoint(data)
	case "ed25519":
		xb, err := hex.DecodeString(*hp.X)
		if err != nil {
			return nil, fmt.Errorf("curve: invalid hex ed25519 point: %w", err)
		}
		return c.DecodePoint(xb)
	default:
		return nil, fmt.Errorf("curve: unsupported curve %q for hex decoding", c.Name())
	}
}

// EncodeHexScalar hex-encodes a scalar, zero-padded to hexWidth characters.
func EncodeHexScalar(s Scalar) string {
	return padHex(s.Bytes())
}

// DecodeHexScalar parses a zero-padded hex scalar.
func DecodeHexScalar(c Curve, s string) (Scalar, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("curve: invalid hex scalar: %w", err)
	}
	return c.DecodeScalar(data)
}

func padHex(b []byte) string {
	s := hex.EncodeToString(b)
	if len(s) >= hexWidth {
		return s
	}
	return fmt.Sprintf("%0*s", hexWidth, s)
}
