package keys

import (
	"bytes"
	"testing"
)

func TestKeyStoreRootAndRoles(t *testing.T) {
	ks, err := OpenKeyStore(t.TempDir())
	if err != nil {
		t.Fatalf("OpenKeyStore: %v", err)
	}
	root := bytes.Repeat([]byte{7}, SeedSize)
	if _, err := ks.InitRoot("operator", root, false); err != nil {
		t.Fatalf("InitRoot: %v", err)
	}
	if _, err := ks.InitRoot("operator", root, false); err == nil {
		t.Fatalf("expected InitRoot without overwrite to refuse an existing seed")
	}
	for _, role := range []string{"worker", "support"} {
		if _, err := ks.DeriveRole("operator", role, false); err != nil {
			t.Fatalf("DeriveRole %s: %v", role, err)
		}
	}

	got, err := ks.Seed("operator", "")
	if err != nil {
		t.Fatalf("Seed: %v", err)
	}
	if !bytes.Equal(got, root) {
		t.Fatalf("root seed mismatch")
	}
	want, _ := DeriveRoleSeed(root, "worker")
	got, err = ks.LoadSeed("", "", "operator", "worker")
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("role seed mismatch")
	}

	pk, err := ks.PublicKey("operator", "worker", Secp256k1)
	if err != nil {
		t.Fatalf("PublicKey: %v", err)
	}
	if !pk.IsValid() {
		t.Fatalf("derived secp256k1 key should be valid")
	}

	entries, err := ks.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Identifier != "operator" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if r := entries[0].Roles; len(r) != 2 || r[0] != "support" || r[1] != "worker" {
		t.Fatalf("unexpected roles: %v", r)
	}
}

func TestKeyStoreErrors(t *testing.T) {
	ks, _ := OpenKeyStore(t.TempDir())
	if _, err := ks.DeriveRole("missing", "worker", false); err == nil {
		t.Fatalf("expected missing root to fail")
	}
	if _, err := ks.InitRoot("bad/name", make([]byte, SeedSize), false); err == nil {
		t.Fatalf("expected invalid identifier to fail")
	}
	if _, err := ks.LoadSeed("", "", "", ""); err == nil {
		t.Fatalf("expected no signer error")
	}
	if entries, err := ks.List(); err != nil || len(entries) != 0 {
		t.Fatalf("expected empty list, got %v %v", entries, err)
	}
}
