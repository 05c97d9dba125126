package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"xdao.co/support/cidutil"
	"xdao.co/support/keys"
	"xdao.co/support/miner"
	"xdao.co/support/ticket"
)

func cmdMine(args []string, _ io.Reader, out, errOut io.Writer) int {
	fs := newFlagSet("mine", errOut)
	supported := fs.String("supported-hash", "", "supported hash")
	workerHex := fs.String("worker-key", "", "worker public key (hex)")
	supportHex := fs.String("support-key", "", "supporter public key (hex)")
	alg := fs.String("key-alg", string(keys.Secp256k1), "public key algorithm")
	difficulty := fs.Int("difficulty", 1, "required leading zero digest bytes")
	timestamp := fs.Uint32("timestamp", 0, "ticket timestamp (0 = now)")
	start := fs.Uint32("nonce-start", 0, "first nonce to try")
	workers := fs.Int("workers", 0, "search workers (0 = NumCPU)")
	rounds := fs.Int("rounds", 1, "timestamp refresh rounds (ignored with --timestamp)")
	asJSON := fs.Bool("json", false, "print the ticket listing as JSON")
	verbose := fs.BoolP("verbose", "v", false, "log search progress")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *supported == "" || *workerHex == "" || *supportHex == "" {
		fmt.Fprintln(errOut, "usage: support-cli mine --supported-hash <s> --worker-key <hex> --support-key <hex> [flags]")
		return 2
	}
	wk, err := keys.ParsePubKeyHex(keys.Algorithm(*alg), *workerHex)
	if err != nil {
		fmt.Fprintf(errOut, "worker key: %v\n", err)
		return 1
	}
	sk, err := keys.ParsePubKeyHex(keys.Algorithm(*alg), *supportHex)
	if err != nil {
		fmt.Fprintf(errOut, "support key: %v\n", err)
		return 1
	}

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(errOut, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	t := ticket.New(*supported, wk.Bytes(), sk.Bytes(), *timestamp, 0)
	opts := miner.Options{Workers: *workers, Start: *start, Logger: logger}
	var res *miner.Result
	if *timestamp != 0 {
		res, err = miner.Search(ctx, t, *difficulty, opts)
	} else {
		res, err = miner.SearchFresh(ctx, t, *difficulty, opts, miner.Refresh{MaxRounds: *rounds})
	}
	if err != nil {
		fmt.Fprintf(errOut, "mine: %v\n", err)
		return 1
	}

	r := res.Ticket
	if *asJSON {
		err := writeJSON(out, struct {
			ticket.View
			Ticket   string `json:"ticket"`
			CID      string `json:"cid"`
			Attempts uint64 `json:"attempts"`
			Elapsed  string `json:"elapsed"`
		}{r.View(), hex.EncodeToString(r.Serialize()), cidutil.TicketCID(r).String(), res.Attempts, res.Elapsed.Round(time.Millisecond).String()})
		if err != nil {
			fmt.Fprintf(errOut, "mine: %v\n", err)
			return 1
		}
		return 0
	}
	fmt.Fprintln(out, hex.EncodeToString(r.Serialize()))
	fmt.Fprintf(errOut, "nonce=%d zeros=%d value=%d attempts=%d elapsed=%s\n",
		r.Nonce(), r.LeadingZeroBytes(), r.Value(), res.Attempts, res.Elapsed.Round(time.Millisecond))
	return 0
}

func cmdVerify(args []string, in io.Reader, out, errOut io.Writer) int {
	fs := newFlagSet("verify", errOut)
	difficulty := fs.Int("difficulty", 1, "required leading zero digest bytes")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(errOut, "usage: support-cli verify [--difficulty n] <ticket-hex|->")
		return 2
	}
	r, err := parseTicketArg(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "invalid ticket: %v\n", err)
		return 1
	}
	if !r.VerifyPoW(*difficulty) {
		fmt.Fprintf(errOut, "FAIL: %d leading zero bytes, need %d\n", r.LeadingZeroBytes(), *difficulty)
		return 1
	}
	fmt.Fprintln(out, "OK")
	return 0
}

func oneTicket(name string, args []string, in io.Reader, errOut io.Writer) (*ticket.Ref, bool, int) {
	fs := newFlagSet(name, errOut)
	display := fs.Bool("display", false, "print the digest byte-reversed (block explorer order)")
	if err := fs.Parse(args); err != nil {
		return nil, false, 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: support-cli %s <ticket-hex|->\n", name)
		return nil, false, 2
	}
	r, err := parseTicketArg(fs.Arg(0), in)
	if err != nil {
		fmt.Fprintf(errOut, "invalid ticket: %v\n", err)
		return nil, false, 1
	}
	return r, *display, 0
}

func cmdValue(args []string, in io.Reader, out, errOut io.Writer) int {
	r, _, code := oneTicket("value", args, in, errOut)
	if r == nil {
		return code
	}
	fmt.Fprintln(out, r.Value())
	return 0
}

func cmdHash(args []string, in io.Reader, out, errOut io.Writer) int {
	r, display, code := oneTicket("hash", args, in, errOut)
	if r == nil {
		return code
	}
	if display {
		fmt.Fprintln(out, r.Hash().ReverseHex())
		return 0
	}
	fmt.Fprintln(out, r.Hash())
	return 0
}

func cmdCID(args []string, in io.Reader, out, errOut io.Writer) int {
	r, _, code := oneTicket("cid", args, in, errOut)
	if r == nil {
		return code
	}
	fmt.Fprintln(out, cidutil.TicketCID(r))
	return 0
}
