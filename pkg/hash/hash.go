// Package hash provides domain-separated hashing, grounded on the
// teacher's pkg/hash SHAKE wrapper, for the bookkeeping the in-process
// mock server needs to key stored per-label state without colliding
// across unrelated uses of the same label string.
package hash

import (
	"encoding/hex"
	"io"

	"golang.org/x/crypto/sha3"
)

// Digest hashes data under domain, returning a 32-byte digest hex-encoded.
// Distinct domains always produce distinct digests for the same data, so
// callers can safely reuse a single underlying namespace (e.g. a label
// string) for multiple unrelated lookups.
func Digest(domain string, data ...[]byte) string {
	h := sha3.NewCShake128(nil, []byte(domain))
	for _, d := range data {
		_, _ = h.Write(d)
	}
	out := make([]byte, 32)
	_, _ = io.ReadFull(h, out)
	return hex.EncodeToString(out)
}
