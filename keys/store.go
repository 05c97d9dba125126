package keys

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// KeyStore keeps operator seeds on the local filesystem.
//
// Layout: <Directory>/<identifier>/root.seed and
// <Directory>/<identifier>/roles/<role>.seed, each holding hex.
// Role seeds are derived from the root seed with DeriveRoleSeed, so a
// support operator can keep one root and derive "worker" and "support"
// identities from it.
type KeyStore struct {
	Directory string
}

// KeyEntry lists one identifier and the roles derived under it.
type KeyEntry struct {
	Identifier string
	Roles      []string
}

func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".xdao", "support", "keys"), nil
}

// OpenKeyStore returns a KeyStore rooted at directory, or at
// DefaultDirectory when directory is empty. Nothing is created until a
// seed is written.
func OpenKeyStore(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		if directory, err = DefaultDirectory(); err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(identifier string) string {
	return filepath.Join(ks.Directory, identifier, "root.seed")
}

func (ks *KeyStore) rolePath(identifier, role string) string {
	return filepath.Join(ks.Directory, identifier, "roles", role+".seed")
}

func checkName(kind, s string) error {
	if s == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	for _, c := range s {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in %s", c, kind)
	}
	return nil
}

func CheckIdentifier(identifier string) error { return checkName("identifier", identifier) }

func CheckRole(role string) error { return checkName("role", role) }

func ParseSeedHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	if len(b) != SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", SeedSize, len(b))
	}
	return b, nil
}

func writeSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return f.Close()
}

func readSeed(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(b))
}

// InitRoot stores seed as the root of identifier and returns the file path.
func (ks *KeyStore) InitRoot(identifier string, seed []byte, overwrite bool) (string, error) {
	if err := CheckIdentifier(identifier); err != nil {
		return "", err
	}
	path := ks.rootPath(identifier)
	return path, writeSeed(path, seed, overwrite)
}

// DeriveRole derives and stores the role seed for identifier.
func (ks *KeyStore) DeriveRole(identifier, role string, overwrite bool) (string, error) {
	if err := CheckIdentifier(identifier); err != nil {
		return "", err
	}
	if err := CheckRole(role); err != nil {
		return "", err
	}
	root, err := readSeed(ks.rootPath(identifier))
	if err != nil {
		return "", err
	}
	seed, err := DeriveRoleSeed(root, role)
	if err != nil {
		return "", err
	}
	path := ks.rolePath(identifier, role)
	return path, writeSeed(path, seed, overwrite)
}

// Seed loads the root seed (role == "") or a derived role seed.
func (ks *KeyStore) Seed(identifier, role string) ([]byte, error) {
	if err := CheckIdentifier(identifier); err != nil {
		return nil, err
	}
	if role == "" {
		return readSeed(ks.rootPath(identifier))
	}
	if err := CheckRole(role); err != nil {
		return nil, err
	}
	return readSeed(ks.rolePath(identifier, role))
}

// PublicKey returns the alg public key of a stored seed.
func (ks *KeyStore) PublicKey(identifier, role string, alg Algorithm) (PubKey, error) {
	seed, err := ks.Seed(identifier, role)
	if err != nil {
		return nil, err
	}
	return PubKeyFromSeed(seed, alg)
}

// LoadSeed resolves a seed from, in order: a hex literal, a key file, or a
// stored identifier/role.
func (ks *KeyStore) LoadSeed(seedHex, keyFile, identifier, role string) ([]byte, error) {
	switch {
	case seedHex != "":
		return ParseSeedHex(seedHex)
	case keyFile != "":
		return readSeed(keyFile)
	case identifier != "":
		return ks.Seed(identifier, role)
	}
	return nil, errors.New("no signer provided")
}

func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var ids []string
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)

	var out []KeyEntry
	for _, id := range ids {
		var roles []string
		if roleEntries, err := os.ReadDir(filepath.Join(ks.Directory, id, "roles")); err == nil {
			for _, r := range roleEntries {
				if !r.IsDir() && strings.HasSuffix(r.Name(), ".seed") {
					roles = append(roles, strings.TrimSuffix(r.Name(), ".seed"))
				}
			}
			sort.Strings(roles)
		}
		out = append(out, KeyEntry{Identifier: id, Roles: roles})
	}
	return out, nil
}
