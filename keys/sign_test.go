package keys

import (
	"crypto/rand"
	"testing"
)

func TestEd25519SignVerify(t *testing.T) {
	seed := make([]byte, SeedSize)
	for i := range seed {
		seed[i] = 0x42
	}
	s, err := NewEd25519Signer(seed)
	if err != nil {
		t.Fatalf("NewEd25519Signer: %v", err)
	}
	d, err := Digest("sha256", []byte("ticket"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	sig, err := s.Sign(d)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(s.PublicKey(), d, sig) {
		t.Fatalf("expected signature to verify")
	}
	d[0] ^= 1
	if Verify(s.PublicKey(), d, sig) {
		t.Fatalf("expected tampered digest to fail")
	}
}

func TestDilithium3SignVerify(t *testing.T) {
	s, err := GenerateDilithium3Signer(rand.Reader)
	if err != nil {
		t.Fatalf("GenerateDilithium3Signer: %v", err)
	}
	if !s.PublicKey().IsValid() {
		t.Fatalf("expected generated key to be valid")
	}
	d, err := Digest("sha3-256", []byte("ticket"))
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	sig, err := s.Sign(d)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(s.PublicKey(), d, sig) {
		t.Fatalf("expected signature to verify")
	}
	sig[0] ^= 1
	if Verify(s.PublicKey(), d, sig) {
		t.Fatalf("expected tampered signature to fail")
	}
}

func TestDigestAlgorithms(t *testing.T) {
	for alg, n := range map[string]int{"sha256": 32, "sha512": 64, "sha3-256": 32} {
		d, err := Digest(alg, []byte("x"))
		if err != nil {
			t.Fatalf("%s: %v", alg, err)
		}
		if len(d) != n {
			t.Fatalf("%s: expected %d bytes, got %d", alg, n, len(d))
		}
	}
	if _, err := Digest("md5", nil); err == nil {
		t.Fatalf("expected unsupported hash to fail")
	}
}

func TestVerifyRejectsSecp256k1(t *testing.T) {
	k, _ := ParsePubKeyHex(Secp256k1, generatorHex)
	if Verify(k, make([]byte, 32), make([]byte, 64)) {
		t.Fatalf("secp256k1 keys are identity-only")
	}
}
