package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"google.golang.org/grpc"

	"xdao.co/support/config"
	"xdao.co/support/keys"
	"xdao.co/support/operator"
	"xdao.co/support/pool"
	"xdao.co/support/pool/pebbleindex"
	"xdao.co/support/rpc"
	"xdao.co/support/store/registry"

	_ "xdao.co/support/store/localfs"
	_ "xdao.co/support/store/memstore"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	fs := pflag.NewFlagSet("supportd", pflag.ContinueOnError)
	fs.SetOutput(errOut)
	cfgPath := fs.String("config", "", "config file (default $"+config.EnvVar+")")
	listen := fs.String("listen", "", "listen address (overrides rpc.listen)")
	preferred := fs.String("backend", "", "storage backend name or id that receives writes first")
	listBackends := fs.Bool("list-backends", false, "list supported backends and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				fmt.Fprintln(out, b.Name)
				continue
			}
			fmt.Fprintf(out, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 2
	}
	if *listen != "" {
		cfg.RPC.Listen = *listen
	}
	log := cfg.Log.NewLogger(errOut)

	op, err := newOperator(cfg.Operator, log)
	if err != nil {
		log.Error("operator config", "err", err)
		return 2
	}

	st, closeStore, err := cfg.Storage.Open(registry.UsageDaemon, *preferred)
	if err != nil {
		log.Error("open storage", "err", err)
		return 2
	}
	defer func() {
		if err := closeStore(); err != nil {
			log.Warn("close storage", "err", err)
		}
	}()

	opts := pool.Options{MinDifficulty: cfg.Pool.MinDifficulty, Archive: st, Logger: log}
	if cfg.Pool.DBPath != "" {
		idx, err := pebbleindex.Open(cfg.Pool.DBPath)
		if err != nil {
			log.Error("open pool index", "path", cfg.Pool.DBPath, "err", err)
			return 1
		}
		defer idx.Close()
		opts.Index = idx
	}
	p, err := pool.Load(opts)
	if err != nil {
		log.Error("load pool", "err", err)
		return 1
	}

	lis, err := net.Listen("tcp", cfg.RPC.Listen)
	if err != nil {
		log.Error("listen", "addr", cfg.RPC.Listen, "err", err)
		return 1
	}

	s := grpc.NewServer()
	rpc.RegisterSupportServer(s, &rpc.Server{
		Operator: op,
		Pool:     p,
		Store:    st,
		Mining: rpc.Mining{
			Difficulty: cfg.Mining.Difficulty,
			Workers:    cfg.Mining.Workers,
			MaxRounds:  cfg.Mining.MaxRounds,
		},
		Logger: log,
	})

	go func() {
		<-ctx.Done()
		log.Info("shutting down")
		s.GracefulStop()
	}()

	log.Info("supportd listening",
		"addr", lis.Addr().String(),
		"status", op.Status(),
		"pool", p.Len(),
		"min_difficulty", p.MinDifficulty())
	if err := s.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		log.Error("serve", "err", err)
		return 1
	}
	return 0
}

func newOperator(c config.OperatorConfig, log *slog.Logger) (*operator.State, error) {
	op := operator.New(keys.Algorithm(c.KeyAlgorithm), log)
	if c.WorkerPubKey != "" {
		if err := op.SetWorkerPubKey(c.WorkerPubKey); err != nil {
			return nil, fmt.Errorf("worker_pubkey: %w", err)
		}
	}
	if c.SupportPubKey != "" {
		if err := op.SetSupportPubKey(c.SupportPubKey); err != nil {
			return nil, fmt.Errorf("support_pubkey: %w", err)
		}
	}
	if !op.SetStatus(c.Status) {
		return nil, fmt.Errorf("status: unknown value %q", c.Status)
	}
	return op, nil
}
