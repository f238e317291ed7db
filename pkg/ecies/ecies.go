// Package ecies implements the hybrid encryption scheme used to protect
// shares in transit: ECDH key agreement over secp256k1, a concat KDF
// splitting the shared secret into an AES key and an HMAC key, AES-CTR
// encryption and an HMAC-SHA256 tag over the IV and ciphertext.
//
// This always uses secp256k1, even when the active TSS curve is Ed25519 —
// the RSS protocol's encryption layer is curve-independent of the signing
// curve by design.
package ecies

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
)

// ErrMacVerificationFailed is returned by Decrypt when the HMAC tag does
// not match the ciphertext, meaning the message was tampered with or
// encrypted under a different key.
var ErrMacVerificationFailed = errors.New("ecies: mac verification failed")

const (
	aesKeyLen = 32
	macKeyLen = 32
)

// EncryptedMessage is the wire representation of an ECIES-encrypted
// message: every field is hex-encoded.
type EncryptedMessage struct {
	Ciphertext       string `json:"ciphertext"`
	EphemeralPublicKey string `json:"ephemPublicKey"`
	IV               string `json:"iv"`
	MAC              string `json:"mac"`
}

// Encrypt encrypts plaintext to the recipient's secp256k1 public key
// (33-byte compressed encoding).
func Encrypt(recipientPubKey []byte, plaintext []byte) (*EncryptedMessage, error) {
	pub, err := secp256k1.ParsePubKey(recipientPubKey)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid recipient public key: %w", err)
	}

	ephemeralPriv, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("ecies: failed to generate ephemeral key: %w", err)
	}

	sharedSecret := ecdh(ephemeralPriv, pub)
	aesKey, macKey := concatKDF(sharedSecret)

	iv := make([]byte, aes.BlockSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("ecies: failed to generate iv: %w", err)
	}

	ciphertext, err := aesCTR(aesKey, iv, plaintext)
	if err != nil {
		return nil, err
	}

	mac := computeMAC(macKey, iv, ciphertext)

	return &EncryptedMessage{
		Ciphertext:         hex.EncodeToString(ciphertext),
		EphemeralPublicKey: hex.EncodeToString(ephemeralPriv.PubKey().SerializeCompressed()),
		IV:                 hex.EncodeToString(iv),
		MAC:                hex.EncodeToString(mac),
	}, nil
}

// Decrypt decrypts msg using the recipient's secp256k1 private key (32
// bytes, big-endian).
func Decrypt(recipientPrivKey []byte, msg *EncryptedMessage) ([]byte, error) {
	priv := secp256k1.PrivKeyFromBytes(recipientPrivKey)

	ephemPub, err := hex.DecodeString(msg.EphemeralPublicKey)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid ephemeral public key hex: %w", err)
	}
	pub, err := secp256k1.ParsePubKey(ephemPub)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid ephemeral public key: %w", err)
	}

	ciphertext, err := hex.DecodeString(msg.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid ciphertext hex: %w", err)
	}
	iv, err := hex.DecodeString(msg.IV)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid iv hex: %w", err)
	}
	wantMAC, err := hex.DecodeString(msg.MAC)
	if err != nil {
		return nil, fmt.Errorf("ecies: invalid mac hex: %w", err)
	}

	sharedSecret := ecdh(priv, pub)
	aesKey, macKey := concatKDF(sharedSecret)

	gotMAC := computeMAC(macKey, iv, ciphertext)
	if !hmac.Equal(gotMAC, wantMAC) {
		return nil, ErrMacVerificationFailed
	}

	return aesCTR(aesKey, iv, ciphertext)
}

func ecdh(priv *secp256k1.PrivateKey, pub *secp256k1.PublicKey) []byte {
	var point secp256k1.JacobianPoint
	pub.AsJacobian(&point)

	var scalar secp256k1.ModNScalar
	scalar.SetByteSlice(priv.Serialize())

	var shared secp256k1.JacobianPoint
	secp256k1.ScalarMultNonConst(&scalar, &point, &shared)
	shared.ToAffine()

	x := shared.X.Bytes()
	return x[:]
}

// concatKDF implements the NIST SP 800-56A concatenation KDF: derive
// aesKeyLen+macKeyLen bytes from the shared secret by hashing
// SHA256(counter || secret) for successive counters and concatenating.
func concatKDF(sharedSecret []byte) (aesKey, macKey []byte) {
	need := aesKeyLen + macKeyLen
	var out []byte
	for counter := uint32(1); len(out) < need; counter++ {
		var ctrBytes [4]byte
		binary.BigEndian.PutUint32(ctrBytes[:], counter)
		h := sha256.New()
		h.Write(ctrBytes[:])
		h.Write(sharedSecret)
		out = append(out, h.Sum(nil)...)
	}
	return out[:aesKeyLen], out[aesKeyLen:need]
}

func aesCTR(key, iv, input []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("ecies: failed to create aes cipher: %w", err)
	}
	stream := cipher.NewCTR(block, iv)
	out := make([]byte, len(input))
	stream.XORKeyStream(out, input)
	return out, nil
}

func computeMAC(macKey, iv, ciphertext []byte) []byte {
	h := hmac.New(sha256.New, macKey)
	h.Write(iv)
	h.Write(ciphertext)
	return h.Sum(nil)
}
