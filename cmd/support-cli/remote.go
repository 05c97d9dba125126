package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/ipfs/go-cid"
	"github.com/spf13/pflag"

	"xdao.co/support/cidutil"
	"xdao.co/support/rpc"
	"xdao.co/support/store"
	"xdao.co/support/store/bundle"
	_ "xdao.co/support/store/localfs"
	"xdao.co/support/store/registry"
)

const defaultAddr = "127.0.0.1:7778"

type remoteFlags struct {
	addr    *string
	timeout *time.Duration
}

func bindRemote(fs *pflag.FlagSet) remoteFlags {
	return remoteFlags{
		addr:    fs.String("addr", defaultAddr, "daemon address host:port"),
		timeout: fs.Duration("timeout", 5*time.Minute, "call timeout"),
	}
}

func (rf remoteFlags) dial() (*rpc.Client, context.Context, context.CancelFunc, error) {
	c, err := rpc.Dial(*rf.addr, rpc.DialOptions{})
	if err != nil {
		return nil, nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), *rf.timeout)
	return c, ctx, func() { cancel(); _ = c.Close() }, nil
}

// remote runs fn against a dialed daemon, parsing want positional args.
func remote(name, usage string, want int, args []string, errOut io.Writer,
	extra func(*pflag.FlagSet), fn func(context.Context, *rpc.Client, []string) error) int {
	fs := newFlagSet(name, errOut)
	rf := bindRemote(fs)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() != want {
		fmt.Fprintf(errOut, "usage: support-cli %s\n", usage)
		return 2
	}
	c, ctx, done, err := rf.dial()
	if err != nil {
		fmt.Fprintf(errOut, "dial: %v\n", err)
		return 1
	}
	defer done()
	if err := fn(ctx, c, fs.Args()); err != nil {
		fmt.Fprintf(errOut, "%s: %v\n", name, err)
		return 1
	}
	return 0
}

func cmdInfo(args []string, _ io.Reader, out, errOut io.Writer) int {
	return remote("info", "info [--addr host:port]", 0, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, _ []string) error {
			info, err := c.Info(ctx)
			if err != nil {
				return err
			}
			return writeJSON(out, info)
		})
}

func cmdSetStatus(args []string, _ io.Reader, out, errOut io.Writer) int {
	return remote("set-status", "set-status <active|inactive>", 1, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, a []string) error {
			if err := c.SetStatus(ctx, a[0]); err != nil {
				return err
			}
			fmt.Fprintln(out, "OK")
			return nil
		})
}

func cmdSetWorkerKey(args []string, _ io.Reader, out, errOut io.Writer) int {
	return remote("set-worker-key", "set-worker-key <hex>", 1, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, a []string) error {
			if err := c.SetWorkerPubKey(ctx, a[0]); err != nil {
				return err
			}
			fmt.Fprintln(out, "OK")
			return nil
		})
}

func cmdSetSupportKey(args []string, _ io.Reader, out, errOut io.Writer) int {
	return remote("set-support-key", "set-support-key <hex>", 1, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, a []string) error {
			if err := c.SetSupportPubKey(ctx, a[0]); err != nil {
				return err
			}
			fmt.Fprintln(out, "OK")
			return nil
		})
}

func cmdCreate(args []string, _ io.Reader, out, errOut io.Writer) int {
	return remote("create", "create <supported-hash>", 1, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, a []string) error {
			r, err := c.Create(ctx, a[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out, hex.EncodeToString(r.Serialize()))
			fmt.Fprintf(errOut, "cid=%s value=%d\n", cidutil.TicketCID(r), r.Value())
			return nil
		})
}

func cmdList(args []string, _ io.Reader, out, errOut io.Writer) int {
	var asJSON *bool
	return remote("list", "list [--json]", 0, args, errOut,
		func(fs *pflag.FlagSet) { asJSON = fs.Bool("json", false, "print JSON") },
		func(ctx context.Context, c *rpc.Client, _ []string) error {
			views, err := c.List(ctx)
			if err != nil {
				return err
			}
			if *asJSON {
				return writeJSON(out, views)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "VALUE\tHASH\tTIMESTAMP\tNONCE")
			for _, v := range views {
				fmt.Fprintf(tw, "%d\t%s\t%d\t%d\n", v.Value, v.Hash, v.Timestamp, v.Nonce)
			}
			return tw.Flush()
		})
}

func cmdSubmit(args []string, in io.Reader, out, errOut io.Writer) int {
	return remote("submit", "submit <ticket-hex|->", 1, args, errOut, nil,
		func(ctx context.Context, c *rpc.Client, a []string) error {
			r, err := parseTicketArg(a[0], in)
			if err != nil {
				return err
			}
			id, err := c.Submit(ctx, r)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, id)
			return nil
		})
}

// openStore parses backend flags and opens the selected store. The grpc
// backend defaults to the local daemon address.
func openStore(name string, args []string, errOut io.Writer, extra func(*pflag.FlagSet)) (store.Store, func() error, []string, int) {
	fs := newFlagSet(name, errOut)
	backend := fs.String("backend", "grpc", "store backend ("+strings.Join(registry.Names(registry.UsageCLI), ", ")+")")
	flags := registry.RegisterFlags(fs, registry.UsageCLI)
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil {
		return nil, nil, nil, 2
	}
	if f := fs.Lookup("grpc-target"); f != nil && !f.Changed {
		_ = fs.Set("grpc-target", defaultAddr)
	}
	st, closeFn, err := flags.Open(*backend)
	if err != nil {
		fmt.Fprintf(errOut, "open backend: %v\n", err)
		return nil, nil, nil, 1
	}
	if closeFn == nil {
		closeFn = func() error { return nil }
	}
	return st, closeFn, fs.Args(), 0
}

func cmdGet(args []string, _ io.Reader, out, errOut io.Writer) int {
	st, closeFn, rest, code := openStore("get", args, errOut, nil)
	if st == nil {
		return code
	}
	defer closeFn()
	if len(rest) != 1 {
		fmt.Fprintln(errOut, "usage: support-cli get [--backend b] <cid>")
		return 2
	}
	id, err := cid.Parse(rest[0])
	if err != nil {
		fmt.Fprintf(errOut, "invalid cid: %v\n", err)
		return 1
	}
	r, err := st.Get(id)
	if err != nil {
		if store.IsNotFound(err) {
			fmt.Fprintf(errOut, "not found: %s\n", id)
			return 1
		}
		fmt.Fprintf(errOut, "get: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, hex.EncodeToString(r.Serialize()))
	return 0
}

func cmdExport(args []string, _ io.Reader, out, errOut io.Writer) int {
	var (
		outPath *string
		noIndex *bool
	)
	st, closeFn, rest, code := openStore("export", args, errOut, func(fs *pflag.FlagSet) {
		outPath = fs.String("out", "", "output tar path ('-' for stdout)")
		noIndex = fs.Bool("no-index", false, "omit index.json")
	})
	if st == nil {
		return code
	}
	defer closeFn()
	if *outPath == "" || len(rest) == 0 {
		fmt.Fprintln(errOut, "usage: support-cli export --out <file.tar> <cid>...")
		return 2
	}
	ids := make([]cid.Cid, 0, len(rest))
	for _, s := range rest {
		id, err := cid.Parse(s)
		if err != nil {
			fmt.Fprintf(errOut, "invalid cid %q: %v\n", s, err)
			return 1
		}
		ids = append(ids, id)
	}

	w := out
	if *outPath != "-" {
		f, err := os.Create(*outPath)
		if err != nil {
			fmt.Fprintf(errOut, "export: %v\n", err)
			return 1
		}
		defer f.Close()
		w = f
	}
	if err := bundle.Export(w, st, ids, !*noIndex); err != nil {
		fmt.Fprintf(errOut, "export: %v\n", err)
		return 1
	}
	return 0
}

func cmdImport(args []string, in io.Reader, out, errOut io.Writer) int {
	st, closeFn, rest, code := openStore("import", args, errOut, nil)
	if st == nil {
		return code
	}
	defer closeFn()
	if len(rest) != 1 {
		fmt.Fprintln(errOut, "usage: support-cli import <file.tar|->")
		return 2
	}
	r := in
	if rest[0] != "-" {
		f, err := os.Open(rest[0])
		if err != nil {
			fmt.Fprintf(errOut, "import: %v\n", err)
			return 1
		}
		defer f.Close()
		r = f
	}
	ids, err := bundle.Import(r, st)
	for _, id := range ids {
		fmt.Fprintln(out, id)
	}
	if err != nil {
		fmt.Fprintf(errOut, "import: %v\n", err)
		return 1
	}
	return 0
}
