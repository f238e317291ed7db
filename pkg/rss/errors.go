package rss

import "errors"

// Sentinel errors matching the abstract error taxonomy: callers should use
// errors.Is against these, while the wrapping fmt.Errorf calls at each site
// attach the concrete diagnostic detail.
var (
	// ErrInputInvariant covers caller-supplied inconsistent lengths, bad
	// indices, or an unknown key type.
	ErrInputInvariant = errors.New("rss: input invariant violated")

	// ErrCommitShape covers a server returning commitment vectors of the
	// wrong length.
	ErrCommitShape = errors.New("rss: commitment vector has wrong shape")

	// ErrCommitConsistency covers aggregated commitments violating one of
	// the algebraic identities binding them to the known TSS public key.
	ErrCommitConsistency = errors.New("rss: aggregated commitments are inconsistent")

	// ErrShareConsistency covers the decrypted user-share sum failing the
	// g*u == m0+99*m1 check.
	ErrShareConsistency = errors.New("rss: user share fails consistency check")

	// ErrDecrypt covers an ECIES MAC or parse failure on a ciphertext the
	// client must read.
	ErrDecrypt = errors.New("rss: decryption failed")

	// ErrAvailability covers fewer than T usable server responses in
	// Round 2.
	ErrAvailability = errors.New("rss: insufficient server responses")

	// ErrTransport covers an opaque error from the HTTP layer.
	ErrTransport = errors.New("rss: transport error")
)
