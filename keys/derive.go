package keys

import (
	"crypto/ed25519"
	"fmt"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/zeebo/blake3"
)

// SeedSize is the length of every root and role seed.
const SeedSize = ed25519.SeedSize

const roleContext = "xdao.co/support 2024 role seed v1"

// DeriveRoleSeed deterministically derives a role-specific seed from a root seed.
func DeriveRoleSeed(rootSeed []byte, role string) ([]byte, error) {
	if len(rootSeed) != SeedSize {
		return nil, fmt.Errorf("root seed must be %d bytes", SeedSize)
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	material := make([]byte, 0, len(rootSeed)+1+len(role))
	material = append(material, rootSeed...)
	material = append(material, 0)
	material = append(material, role...)
	out := make([]byte, SeedSize)
	blake3.DeriveKey(roleContext, material, out)
	return out, nil
}

// PubKeyFromSeed returns the public key a seed yields under alg.
// Dilithium3 keys are not seed-derived and are rejected here.
func PubKeyFromSeed(seed []byte, alg Algorithm) (PubKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes", SeedSize)
	}
	switch alg {
	case Ed25519:
		pub := ed25519.NewKeyFromSeed(seed).Public().(ed25519.PublicKey)
		return NewPubKey(Ed25519, pub), nil
	case Secp256k1:
		priv := secp256k1.PrivKeyFromBytes(seed)
		return NewPubKey(Secp256k1, priv.PubKey().SerializeCompressed()), nil
	default:
		return nil, fmt.Errorf("keys: cannot derive %s key from seed", alg)
	}
}
