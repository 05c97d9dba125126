package keys

import (
	"crypto/ed25519"
	"crypto/sha256"
	"crypto/sha512"
	"errors"
	"fmt"
	"io"

	"github.com/cloudflare/circl/sign/dilithium/mode3"
	"golang.org/x/crypto/sha3"
)

// Digest hashes message with one of sha256, sha512 or sha3-256.
func Digest(hashAlg string, message []byte) ([]byte, error) {
	switch hashAlg {
	case "sha256":
		s := sha256.Sum256(message)
		return s[:], nil
	case "sha512":
		s := sha512.Sum512(message)
		return s[:], nil
	case "sha3-256":
		s := sha3.Sum256(message)
		return s[:], nil
	default:
		return nil, fmt.Errorf("unsupported hash algorithm: %q", hashAlg)
	}
}

// Signer signs pre-hashed messages.
type Signer interface {
	PublicKey() PubKey
	Sign(digest []byte) ([]byte, error)
}

type ed25519Signer struct {
	priv ed25519.PrivateKey
}

// NewEd25519Signer returns a Signer for an Ed25519 seed.
func NewEd25519Signer(seed []byte) (Signer, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", ed25519.SeedSize)
	}
	return &ed25519Signer{priv: ed25519.NewKeyFromSeed(seed)}, nil
}

func (s *ed25519Signer) PublicKey() PubKey {
	return NewPubKey(Ed25519, s.priv.Public().(ed25519.PublicKey))
}

func (s *ed25519Signer) Sign(digest []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, digest), nil
}

type dilithium3Signer struct {
	pub  *mode3.PublicKey
	priv *mode3.PrivateKey
}

// NewDilithium3Signer wraps a Dilithium3 keypair.
func NewDilithium3Signer(pub *mode3.PublicKey, priv *mode3.PrivateKey) (Signer, error) {
	if pub == nil || priv == nil {
		return nil, errors.New("missing dilithium3 key")
	}
	return &dilithium3Signer{pub: pub, priv: priv}, nil
}

// GenerateDilithium3Signer creates a fresh Dilithium3 keypair.
func GenerateDilithium3Signer(rand io.Reader) (Signer, error) {
	pub, priv, err := mode3.GenerateKey(rand)
	if err != nil {
		return nil, err
	}
	return NewDilithium3Signer(pub, priv)
}

func (s *dilithium3Signer) PublicKey() PubKey {
	b, _ := s.pub.MarshalBinary()
	return NewPubKey(Dilithium3, b)
}

func (s *dilithium3Signer) Sign(digest []byte) ([]byte, error) {
	sig := make([]byte, mode3.SignatureSize)
	mode3.SignTo(s.priv, digest, sig)
	return sig, nil
}

// Verify checks sig over digest for an Ed25519 or Dilithium3 key.
func Verify(pub PubKey, digest, sig []byte) bool {
	if pub == nil || !pub.IsValid() {
		return false
	}
	switch pub.Algorithm() {
	case Ed25519:
		return ed25519.Verify(ed25519.PublicKey(pub.Bytes()), digest, sig)
	case Dilithium3:
		var pk mode3.PublicKey
		if err := pk.UnmarshalBinary(pub.Bytes()); err != nil {
			return false
		}
		return mode3.Verify(&pk, digest, sig)
	default:
		return false
	}
}
