// Package signing provides the Ed25519 signing and verification primitives
// shared by the release server and the client updater: a SigningKey held by
// the server, a VerifyingKey configured into the client, and the
// X-Signature wire encoding that binds them.
package signing

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// SignatureSize is the fixed length in bytes of an Ed25519 signature.
const SignatureSize = ed25519.SignatureSize

// VerifyingKeySize is the fixed length in bytes of an Ed25519 public key.
const VerifyingKeySize = ed25519.PublicKeySize

// VerifyingKey is the 32-byte Ed25519 public key the client uses to verify
// signed server responses. It is hex-encoded on the wire and in config
// files.
type VerifyingKey struct {
	raw ed25519.PublicKey
}

// NewVerifyingKey validates and wraps raw Ed25519 public key bytes.
func NewVerifyingKey(raw []byte) (VerifyingKey, error) {
	if len(raw) != VerifyingKeySize {
		return VerifyingKey{}, fmt.Errorf("signing: invalid verifying key size: expected %d bytes, got %d", VerifyingKeySize, len(raw))
	}
	cp := make([]byte, VerifyingKeySize)
	copy(cp, raw)
	return VerifyingKey{raw: cp}, nil
}

// ParseVerifyingKey decodes a hex-encoded verifying key.
func ParseVerifyingKey(hexStr string) (VerifyingKey, error) {
	raw, err := hex.DecodeString(hexStr)
	if err != nil {
		return VerifyingKey{}, fmt.Errorf("signing: invalid hex verifying key: %w", err)
	}
	return NewVerifyingKey(raw)
}

// Bytes returns the raw 32-byte public key.
func (k VerifyingKey) Bytes() []byte {
	return k.raw
}

// String renders the verifying key as hex.
func (k VerifyingKey) String() string {
	return hex.EncodeToString(k.raw)
}

// MarshalText implements encoding.TextMarshaler.
func (k VerifyingKey) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *VerifyingKey) UnmarshalText(text []byte) error {
	parsed, err := ParseVerifyingKey(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Verify checks an Ed25519 signature over message using this verifying key.
// signature must be exactly SignatureSize bytes.
func (k VerifyingKey) Verify(message, signature []byte) bool {
	if len(signature) != SignatureSize {
		return false
	}
	return ed25519.Verify(k.raw, message, signature)
}

// SigningKey is the server's Ed25519 keypair, used to sign every metadata
// response body.
type SigningKey struct {
	private ed25519.PrivateKey
	public  ed25519.PublicKey
}

// GenerateSigningKey creates a fresh random Ed25519 keypair.
func GenerateSigningKey() (SigningKey, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return SigningKey{}, fmt.Errorf("signing: failed to generate keypair: %w", err)
	}
	return SigningKey{private: priv, public: pub}, nil
}

// SigningKeyFromPrivate reconstructs a SigningKey from a raw 64-byte Ed25519
// private key (which embeds the public key in its last 32 bytes).
func SigningKeyFromPrivate(raw []byte) (SigningKey, error) {
	if len(raw) != ed25519.PrivateKeySize {
		return SigningKey{}, fmt.Errorf("signing: invalid private key size: expected %d bytes, got %d", ed25519.PrivateKeySize, len(raw))
	}
	priv := make(ed25519.PrivateKey, ed25519.PrivateKeySize)
	copy(priv, raw)
	pub := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(pub, priv[32:])
	return SigningKey{private: priv, public: pub}, nil
}

// Sign produces a 64-byte Ed25519 signature over message.
func (k SigningKey) Sign(message []byte) []byte {
	return ed25519.Sign(k.private, message)
}

// VerifyingKey returns the public half of this keypair, for advertising to
// clients out-of-band.
func (k SigningKey) VerifyingKey() VerifyingKey {
	return VerifyingKey{raw: k.public}
}

// PrivateHex returns the hex encoding of the raw 64-byte private key, for
// persistence to disk.
func (k SigningKey) PrivateHex() string {
	return hex.EncodeToString(k.private)
}
