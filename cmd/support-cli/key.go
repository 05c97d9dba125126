package main

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"xdao.co/support/attest"
	"xdao.co/support/keys"
)

func bindKeyDir(fs *pflag.FlagSet) *string {
	return fs.String("key-dir", "", "key directory (default ~/.xdao/support/keys)")
}

func cmdKey(args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: support-cli key <init|derive|list|export> [flags]")
		return 2
	}
	switch args[0] {
	case "init":
		return cmdKeyInit(args[1:], out, errOut)
	case "derive":
		return cmdKeyDerive(args[1:], out, errOut)
	case "list":
		return cmdKeyList(args[1:], out, errOut)
	case "export":
		return cmdKeyExport(args[1:], out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown key command: %s\n", args[0])
		return 2
	}
}

func cmdKeyInit(args []string, out, errOut io.Writer) int {
	fs := newFlagSet("key init", errOut)
	dir := bindKeyDir(fs)
	name := fs.String("name", "", "identifier")
	seedHex := fs.String("seed-hex", "", "root seed (64 hex chars); random when empty")
	force := fs.Bool("force", false, "overwrite an existing root seed")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(errOut, "usage: support-cli key init --name <name> [--seed-hex <64hex>] [--force]")
		return 2
	}
	var seed []byte
	if *seedHex != "" {
		var err error
		if seed, err = keys.ParseSeedHex(*seedHex); err != nil {
			fmt.Fprintf(errOut, "seed: %v\n", err)
			return 1
		}
	} else {
		seed = make([]byte, keys.SeedSize)
		if _, err := rand.Read(seed); err != nil {
			fmt.Fprintf(errOut, "seed: %v\n", err)
			return 1
		}
	}
	ks, err := keys.OpenKeyStore(*dir)
	if err != nil {
		fmt.Fprintf(errOut, "key store: %v\n", err)
		return 1
	}
	path, err := ks.InitRoot(*name, seed, *force)
	if err != nil {
		fmt.Fprintf(errOut, "key init: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, path)
	return 0
}

func cmdKeyDerive(args []string, out, errOut io.Writer) int {
	fs := newFlagSet("key derive", errOut)
	dir := bindKeyDir(fs)
	from := fs.String("from", "", "identifier holding the root seed")
	role := fs.String("role", "", "role name, e.g. worker or support")
	force := fs.Bool("force", false, "overwrite an existing role seed")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *from == "" || *role == "" {
		fmt.Fprintln(errOut, "usage: support-cli key derive --from <name> --role <role> [--force]")
		return 2
	}
	ks, err := keys.OpenKeyStore(*dir)
	if err != nil {
		fmt.Fprintf(errOut, "key store: %v\n", err)
		return 1
	}
	path, err := ks.DeriveRole(*from, *role, *force)
	if err != nil {
		fmt.Fprintf(errOut, "key derive: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, path)
	return 0
}

func cmdKeyList(args []string, out, errOut io.Writer) int {
	fs := newFlagSet("key list", errOut)
	dir := bindKeyDir(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	ks, err := keys.OpenKeyStore(*dir)
	if err != nil {
		fmt.Fprintf(errOut, "key store: %v\n", err)
		return 1
	}
	entries, err := ks.List()
	if err != nil {
		fmt.Fprintf(errOut, "key list: %v\n", err)
		return 1
	}
	for _, e := range entries {
		if len(e.Roles) == 0 {
			fmt.Fprintln(out, e.Identifier)
			continue
		}
		fmt.Fprintf(out, "%s\t%s\n", e.Identifier, strings.Join(e.Roles, ","))
	}
	return 0
}

func cmdKeyExport(args []string, out, errOut io.Writer) int {
	fs := newFlagSet("key export", errOut)
	dir := bindKeyDir(fs)
	name := fs.String("name", "", "identifier")
	role := fs.String("role", "", "derived role (empty for the root seed)")
	alg := fs.String("alg", string(keys.Secp256k1), "public key algorithm (secp256k1, ed25519)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(errOut, "usage: support-cli key export --name <name> [--role <role>] [--alg secp256k1|ed25519]")
		return 2
	}
	ks, err := keys.OpenKeyStore(*dir)
	if err != nil {
		fmt.Fprintf(errOut, "key store: %v\n", err)
		return 1
	}
	pub, err := ks.PublicKey(*name, *role, keys.Algorithm(*alg))
	if err != nil {
		fmt.Fprintf(errOut, "key export: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, hex.EncodeToString(pub.Bytes()))
	return 0
}

func cmdAttest(args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(errOut, "usage: support-cli attest <sign|verify> [flags]")
		return 2
	}
	switch args[0] {
	case "sign":
		return cmdAttestSign(args[1:], in, out, errOut)
	case "verify":
		return cmdAttestVerify(args[1:], in, out, errOut)
	default:
		fmt.Fprintf(errOut, "unknown attest command: %s\n", args[0])
		return 2
	}
}

func cmdAttestSign(args []string, in io.Reader, out, errOut io.Writer) int {
	fs := newFlagSet("attest sign", errOut)
	dir := bindKeyDir(fs)
	seedHex := fs.String("seed-hex", "", "Ed25519 seed (64 hex chars)")
	keyFile := fs.String("key-file", "", "path to a seed file")
	signer := fs.String("signer", "", "identifier in the key directory")
	signerRole := fs.String("signer-role", "", "derived role of --signer")
	hashAlg := fs.String("hash", "sha256", "digest algorithm (sha256, sha512, sha3-256)")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: support-cli attest sign (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) <ticket-hex|->")
		return 2
	}
	r, err := parseTicketArg(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "invalid ticket: %v\n", err)
		return 1
	}
	ks, err := keys.OpenKeyStore(*dir)
	if err != nil {
		fmt.Fprintf(errOut, "key store: %v\n", err)
		return 1
	}
	seed, err := ks.LoadSeed(*seedHex, *keyFile, *signer, *signerRole)
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 2
	}
	s, err := keys.NewEd25519Signer(seed)
	if err != nil {
		fmt.Fprintf(errOut, "signer: %v\n", err)
		return 1
	}
	env, err := attest.Sign(r, s, *hashAlg)
	if err != nil {
		fmt.Fprintf(errOut, "attest sign: %v\n", err)
		return 1
	}
	b, err := env.Marshal()
	if err != nil {
		fmt.Fprintf(errOut, "attest sign: %v\n", err)
		return 1
	}
	_, _ = out.Write(b)
	return 0
}

func cmdAttestVerify(args []string, in io.Reader, out, errOut io.Writer) int {
	fs := newFlagSet("attest verify", errOut)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: support-cli attest verify <envelope-file|->")
		return 2
	}
	var (
		b   []byte
		err error
	)
	if fs.Arg(0) == "-" {
		b, err = io.ReadAll(in)
	} else {
		b, err = os.ReadFile(fs.Arg(0))
	}
	if err != nil {
		fmt.Fprintf(errOut, "read envelope: %v\n", err)
		return 1
	}
	env, err := attest.Unmarshal(b)
	if err != nil {
		fmt.Fprintf(errOut, "%v\n", err)
		return 1
	}
	r, err := env.Verify()
	if err != nil {
		fmt.Fprintf(errOut, "FAIL: %v\n", err)
		return 1
	}
	fmt.Fprintf(out, "OK %s %s %s\n", env.SignatureAlg, hex.EncodeToString(env.PublicKey), r.Hash())
	return 0
}
