package curve

import (
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// Secp256k1 is the Curve implementation backing both the TSS curve (when
// configured) and the ECIES layer, which always uses secp256k1 regardless
// of the active TSS curve.
type Secp256k1 struct{}

func (Secp256k1) Name() string { return "secp256k1" }

func (Secp256k1) NewScalar() Scalar {
	return &secp256k1Scalar{}
}

func (Secp256k1) RandomScalar(rand io.Reader) (Scalar, error) {
	buf := make([]byte, 32)
	for {
		if _, err := io.ReadFull(rand, buf); err != nil {
			return nil, fmt.Errorf("curve: failed to read randomness: %w", err)
		}
		var s secp256k1.ModNScalar
		overflow := s.SetByteSlice(buf)
		if overflow || s.IsZero() {
			continue
		}
		return &secp256k1Scalar{value: s}, nil
	}
}

func (Secp256k1) ScalarFromInt(v int64) Scalar {
	var s secp256k1.ModNScalar
	if v < 0 {
		s.SetInt(uint32(-v))
		s.Negate()
	} else {
		s.SetInt(uint32(v))
	}
	return &secp256k1Scalar{value: s}
}

func (Secp256k1) Generator() Point {
	one := new(secp256k1.ModNScalar).SetInt(1)
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(one, &p)
	p.ToAffine()
	return &secp256k1Point{value: p}
}

func (Secp256k1) Identity() Point {
	return &secp256k1Point{infinity: true}
}

func (Secp256k1) ScalarBits() int { return 256 }

func (Secp256k1) DecodeScalar(data []byte) (Scalar, error) {
	if len(data) != 32 {
		return nil, fmt.Errorf("curve: secp256k1 scalar must be 32 bytes, got %d", len(data))
	}
	var s secp256k1.ModNScalar
	if overflow := s.SetByteSlice(data); overflow {
		return nil, fmt.Errorf("curve: secp256k1 scalar out of range")
	}
	return &secp256k1Scalar{value: s}, nil
}

func (Secp256k1) DecodePoint(data []byte) (Point, error) {
	if len(data) != 33 {
		return nil, fmt.Errorf("curve: secp256k1 compressed point must be 33 bytes, got %d", len(data))
	}
	var x secp256k1.FieldVal
	if overflow := x.SetByteSlice(data[1:]); overflow {
		return nil, fmt.Errorf("curve: secp256k1 point x coordinate out of range")
	}
	var y secp256k1.FieldVal
	wantOdd := data[0] == secp256k1.PubKeyFormatCompressedOdd
	if !secp256k1.DecompressY(&x, wantOdd, &y) {
		return nil, fmt.Errorf("curve: secp256k1 point not on curve")
	}
	y.Normalize()
	var p secp256k1.JacobianPoint
	p.X.Set(&x)
	p.Y.Set(&y)
	p.Z.SetInt(1)
	return &secp256k1Point{value: p}, nil
}

type secp256k1Scalar struct {
	value secp256k1.ModNScalar
}

func asSecp256k1Scalar(s Scalar) *secp256k1Scalar {
	out, ok := s.(*secp256k1Scalar)
	if !ok {
		panic("curve: mixed scalar types from different curves")
	}
	return out
}

func (s *secp256k1Scalar) Add(other Scalar) Scalar {
	o := asSecp256k1Scalar(other)
	v := s.value
	v.Add(&o.value)
	return &secp256k1Scalar{value: v}
}

func (s *secp256k1Scalar) Sub(other Scalar) Scalar {
	return s.Add(other.Negate())
}

func (s *secp256k1Scalar) Mul(other Scalar) Scalar {
	o := asSecp256k1Scalar(other)
	v := s.value
	v.Mul(&o.value)
	return &secp256k1Scalar{value: v}
}

func (s *secp256k1Scalar) Invert() Scalar {
	v := s.value
	v.InverseNonConst()
	return &secp256k1Scalar{value: v}
}

func (s *secp256k1Scalar) Negate() Scalar {
	v := s.value
	v.Negate()
	return &secp256k1Scalar{value: v}
}

func (s *secp256k1Scalar) IsZero() bool {
	return s.value.IsZero()
}

func (s *secp256k1Scalar) Equal(other Scalar) bool {
	o := asSecp256k1Scalar(other)
	return s.value.Equals(&o.value)
}

func (s *secp256k1Scalar) Bytes() []byte {
	data := s.value.Bytes()
	return data[:]
}

func (s *secp256k1Scalar) ActOnBase() Point {
	var p secp256k1.JacobianPoint
	secp256k1.ScalarBaseMultNonConst(&s.value, &p)
	p.ToAffine()
	return &secp256k1Point{value: p}
}

func (s *secp256k1Scalar) Act(point Point) Point {
	o := asSecp256k1Point(point)
	if o.infinity {
		return &secp256k1Point{infinity: true}
	}
	var p secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&s.value, &o.value, &p)
	p.ToAffine()
	return &secp256k1Point{value: p}
}

type secp256k1Point struct {
	value    secp256k1.JacobianPoint
	infinity bool
}

func asSecp256k1Point(p Point) *secp256k1Point {
	out, ok := p.(*secp256k1Point)
	if !ok {
		panic("curve: mixed point types from different curves")
	}
	return out
}

func (p *secp256k1Point) Add(other Point) Point {
	o := asSecp256k1Point(other)
	if p.infinity {
		return o
	}
	if o.infinity {
		return p
	}
	var sum secp256k1.JacobianPoint
	secp256k1.AddNonConst(&p.value, &o.value, &sum)
	sum.ToAffine()
	return &secp256k1Point{value: sum}
}

func (p *secp256k1Point) Negate() Point {
	if p.infinity {
		return p
	}
	v := p.value
	v.Y.Negate(1)
	v.Y.Normalize()
	return &secp256k1Point{value: v}
}

func (p *secp256k1Point) Equal(other Point) bool {
	o := asSecp256k1Point(other)
	if p.infinity || o.infinity {
		return p.infinity == o.infinity
	}
	a, b := p.value, o.value
	a.ToAffine()
	b.ToAffine()
	return a.X.Equals(&b.X) && a.Y.Equals(&b.Y)
}

func (p *secp256k1Point) IsIdentity() bool {
	return p.infinity
}

func (p *secp256k1Point) Bytes() []byte {
	if p.infinity {
		return []byte{0x00}
	}
	v := p.value
	v.ToAffine()
	out := make([]byte, 33)
	if v.Y.IsOdd() {
		out[0] = secp256k1.PubKeyFormatCompressedOdd
	} else {
		out[0] = secp256k1.PubKeyFormatCompressedEven
	}
	x := v.X.Bytes()
	copy(out[1:], x[:])
	return out
}

func (p *secp256k1Point) Coordinates() (x, y []byte) {
	if p.infinity {
		return nil, nil
	}
	v := p.value
	v.ToAffine()
	xb := v.X.Bytes()
	yb := v.Y.Bytes()
	return xb[:], yb[:]
}
