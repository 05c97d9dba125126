package keys

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"filippo.io/edwards25519"
	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"golang.org/x/crypto/ripemd160"
)

// Algorithm names a public-key scheme.
type Algorithm string

const (
	Secp256k1  Algorithm = "secp256k1"
	Ed25519    Algorithm = "ed25519"
	Dilithium3 Algorithm = "dilithium3"
)

// ErrInvalidKey reports key bytes that do not encode a valid public key.
var ErrInvalidKey = errors.New("keys: invalid public key")

// PubKey is the public-key capability consumed by tickets: a byte
// serialization and a validity predicate. Tickets never validate keys
// themselves; configuration code checks IsValid before accepting a key.
type PubKey interface {
	Algorithm() Algorithm
	Bytes() []byte
	IsValid() bool
	// Hash160 is RIPEMD160(SHA256(Bytes())), the short key identifier shown
	// in operator status output.
	Hash160() []byte
}

type pubKey struct {
	alg Algorithm
	b   []byte
}

// NewPubKey wraps raw key bytes without validating them.
func NewPubKey(alg Algorithm, b []byte) PubKey {
	return &pubKey{alg: alg, b: append([]byte(nil), b...)}
}

// ParsePubKey wraps raw key bytes and rejects keys that are not valid for alg.
func ParsePubKey(alg Algorithm, b []byte) (PubKey, error) {
	if err := CheckAlgorithm(alg); err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	k := NewPubKey(alg, b)
	if !k.IsValid() {
		return nil, fmt.Errorf("%w: %s key of %d bytes", ErrInvalidKey, alg, len(b))
	}
	return k, nil
}

// ParsePubKeyHex is ParsePubKey for hex input. A leading "0x" is accepted.
func ParsePubKeyHex(alg Algorithm, s string) (PubKey, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	if s == "" {
		return nil, fmt.Errorf("%w: empty key", ErrInvalidKey)
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return ParsePubKey(alg, b)
}

func CheckAlgorithm(alg Algorithm) error {
	switch alg {
	case Secp256k1, Ed25519, Dilithium3:
		return nil
	default:
		return fmt.Errorf("keys: unsupported algorithm %q", alg)
	}
}

func (k *pubKey) Algorithm() Algorithm { return k.alg }

func (k *pubKey) Bytes() []byte { return append([]byte(nil), k.b...) }

func (k *pubKey) Hash160() []byte { return Hash160(k.b) }

func (k *pubKey) String() string { return hex.EncodeToString(k.b) }

func (k *pubKey) IsValid() bool {
	switch k.alg {
	case Secp256k1:
		// Compressed (33) or uncompressed (65) SEC encoding of a curve point.
		if len(k.b) != secp256k1.PubKeyBytesLenCompressed && len(k.b) != secp256k1.PubKeyBytesLenUncompressed {
			return false
		}
		_, err := secp256k1.ParsePubKey(k.b)
		return err == nil
	case Ed25519:
		if len(k.b) != 32 {
			return false
		}
		_, err := new(edwards25519.Point).SetBytes(k.b)
		return err == nil
	case Dilithium3:
		if len(k.b) != mode3.PublicKeySize {
			return false
		}
		var pk mode3.PublicKey
		return pk.UnmarshalBinary(k.b) == nil
	default:
		return false
	}
}

// Hash160 returns RIPEMD160(SHA256(b)).
func Hash160(b []byte) []byte {
	s := sha256.Sum256(b)
	h := ripemd160.New()
	_, _ = h.Write(s[:])
	return h.Sum(nil)
}
