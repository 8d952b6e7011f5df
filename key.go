package registry

import (
	"encoding/hex"
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	// PublicKeySize is the length of an x-only secp256k1 public key.
	PublicKeySize = 32
	// SignatureSize is the length of a serialized Schnorr signature.
	SignatureSize = 64
)

// PublicKey is a 32-byte x-only secp256k1 public key, the participant
// identity used throughout the registry.
type PublicKey [PublicKeySize]byte

// ParsePublicKeyHex decodes a hex-encoded x-only public key, rejecting
// anything that isn't a valid curve point.
func ParsePublicKeyHex(s string) (PublicKey, error) {
	var pk PublicKey
	if len(s) != PublicKeySize*2 {
		return pk, errKind(KindMalformedInput, "public key must be %d hex chars, got %d", PublicKeySize*2, len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return pk, errKind(KindMalformedInput, "invalid public key hex: %v", err)
	}
	if _, err := schnorr.ParsePubKey(b); err != nil {
		return pk, errKind(KindMalformedInput, "public key is not a valid curve point: %v", err)
	}
	copy(pk[:], b)
	return pk, nil
}

// Hex returns the lowercase hex encoding of the key.
func (pk PublicKey) Hex() string { return hex.EncodeToString(pk[:]) }

func (pk PublicKey) String() string { return pk.Hex() }

// MarshalText implements encoding.TextMarshaler so PublicKey can be used
// directly as a JSON object key.
func (pk PublicKey) MarshalText() ([]byte, error) { return []byte(pk.Hex()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (pk *PublicKey) UnmarshalText(text []byte) error {
	parsed, err := ParsePublicKeyHex(string(text))
	if err != nil {
		return err
	}
	*pk = parsed
	return nil
}

// SecretKey wraps a secp256k1 private key used to sign operations.
type SecretKey struct {
	priv *btcec.PrivateKey
}

// ParseSecretKeyHex decodes a 32-byte hex-encoded secret key.
func ParseSecretKeyHex(s string) (SecretKey, error) {
	if len(s) != 64 {
		return SecretKey{}, errKind(KindMalformedInput, "secret key must be 64 hex chars, got %d", len(s))
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return SecretKey{}, errKind(KindMalformedInput, "invalid secret key hex: %v", err)
	}
	priv := btcec.PrivKeyFromBytes(b)
	return SecretKey{priv: priv}, nil
}

// Public derives the x-only public key for sk.
func (sk SecretKey) Public() PublicKey {
	var pk PublicKey
	copy(pk[:], schnorr.SerializePubKey(sk.priv.PubKey()))
	return pk
}

// Sign produces a Schnorr signature over digest.
func (sk SecretKey) Sign(digest [32]byte) ([SignatureSize]byte, error) {
	var out [SignatureSize]byte
	sig, err := schnorr.Sign(sk.priv, digest[:])
	if err != nil {
		return out, fmt.Errorf("sign: %w", err)
	}
	copy(out[:], sig.Serialize())
	return out, nil
}

// Verify checks that sig is a valid Schnorr signature by pk over digest.
func Verify(pk PublicKey, digest [32]byte, sig [SignatureSize]byte) error {
	parsed, err := schnorr.ParsePubKey(pk[:])
	if err != nil {
		return errKind(KindMalformedInput, "invalid public key: %v", err)
	}
	s, err := schnorr.ParseSignature(sig[:])
	if err != nil {
		return errKind(KindInvalidSignature, "malformed signature: %v", err)
	}
	if !s.Verify(digest[:], parsed) {
		return errKind(KindInvalidSignature, "signature verification failed")
	}
	return nil
}
