package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"xdao.co/support/ticket"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, in io.Reader, out, errOut io.Writer) int {
	if len(args) == 0 {
		printUsage(errOut)
		return 2
	}
	cmds := map[string]func([]string, io.Reader, io.Writer, io.Writer) int{
		"mine":            cmdMine,
		"verify":          cmdVerify,
		"value":           cmdValue,
		"hash":            cmdHash,
		"cid":             cmdCID,
		"info":            cmdInfo,
		"set-status":      cmdSetStatus,
		"set-worker-key":  cmdSetWorkerKey,
		"set-support-key": cmdSetSupportKey,
		"create":          cmdCreate,
		"list":            cmdList,
		"submit":          cmdSubmit,
		"get":             cmdGet,
		"export":          cmdExport,
		"import":          cmdImport,
		"key":             cmdKey,
		"attest":          cmdAttest,
	}
	switch args[0] {
	case "help", "-h", "--help":
		printUsage(out)
		return 0
	}
	fn, ok := cmds[args[0]]
	if !ok {
		fmt.Fprintf(errOut, "unknown command: %s\n\n", args[0])
		printUsage(errOut)
		return 2
	}
	return fn(args[1:], in, out, errOut)
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "support-cli: support ticket tool")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Offline:")
	fmt.Fprintln(w, "  support-cli mine --supported-hash <s> --worker-key <hex> --support-key <hex> [--difficulty n] [--timestamp t] [--workers n] [--rounds n] [--json]")
	fmt.Fprintln(w, "  support-cli verify [--difficulty n] <ticket-hex|->")
	fmt.Fprintln(w, "  support-cli value <ticket-hex|->")
	fmt.Fprintln(w, "  support-cli hash [--display] <ticket-hex|->")
	fmt.Fprintln(w, "  support-cli cid <ticket-hex|->")
	fmt.Fprintln(w, "  support-cli key init --name <name> [--seed-hex <64hex>] [--force]")
	fmt.Fprintln(w, "  support-cli key derive --from <name> --role <role> [--force]")
	fmt.Fprintln(w, "  support-cli key list")
	fmt.Fprintln(w, "  support-cli key export --name <name> [--role <role>] [--alg secp256k1|ed25519]")
	fmt.Fprintln(w, "  support-cli attest sign (--seed-hex <64hex> | --signer <name> [--signer-role <role>] | --key-file <path>) [--hash sha256|sha512|sha3-256] <ticket-hex|->")
	fmt.Fprintln(w, "  support-cli attest verify <envelope-file|->")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Daemon (--addr host:port, default 127.0.0.1:7778):")
	fmt.Fprintln(w, "  support-cli info | set-status <active|inactive> | set-worker-key <hex> | set-support-key <hex>")
	fmt.Fprintln(w, "  support-cli create <supported-hash>")
	fmt.Fprintln(w, "  support-cli list [--json]")
	fmt.Fprintln(w, "  support-cli submit <ticket-hex|->")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Stores (--backend, default grpc; see backend flags in each command's --help):")
	fmt.Fprintln(w, "  support-cli get <cid>")
	fmt.Fprintln(w, "  support-cli export --out <file.tar> <cid>...")
	fmt.Fprintln(w, "  support-cli import <file.tar>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - tickets are printed and read as hex of the canonical encoding; '-' reads stdin")
	fmt.Fprintln(w, "  - keys live under ~/.xdao/support/keys/<name> (0600 seed files)")
	fmt.Fprintln(w, "  - attest sign writes the CBOR envelope to stdout")
}

func newFlagSet(name string, errOut io.Writer) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(errOut)
	return fs
}

// readArg returns arg, or stdin when arg is "-".
func readArg(arg string, in io.Reader) (string, error) {
	if arg != "-" {
		return arg, nil
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func parseTicketArg(arg string, in io.Reader) (*ticket.Ref, error) {
	s, err := readArg(arg, in)
	if err != nil {
		return nil, err
	}
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("ticket is not hex: %w", err)
	}
	return ticket.DecodeRef(b, 0)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
