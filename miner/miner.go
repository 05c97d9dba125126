// Package miner searches the nonce space for a ticket that meets a
// proof-of-work difficulty.
//
// The search partitions its nonce range into disjoint contiguous subranges,
// one per worker. Each worker mutates a private copy of the ticket; the first
// worker to find a satisfying nonce finalizes its copy and the others stop at
// their next attempt.
package miner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"xdao.co/support/ticket"
)

// NonceSpace is the number of distinct nonce values.
const NonceSpace = uint64(1) << 32

// ErrExhausted reports that no nonce in the searched range met the difficulty.
var ErrExhausted = errors.New("miner: nonce space exhausted")

// checkEvery bounds how many attempts a worker makes between context checks.
const checkEvery = 1024

type Options struct {
	// Workers is the number of concurrent searchers. Zero means runtime.NumCPU().
	Workers int

	// Start is the first nonce tried.
	Start uint32

	// Limit is the number of nonces to try from Start. Zero means every
	// remaining nonce up to 2^32-1.
	Limit uint64

	Logger *slog.Logger
}

// Result is a successful search.
type Result struct {
	Ticket   *ticket.Ref
	Attempts uint64
	Elapsed  time.Duration
}

type span struct {
	lo, hi uint64 // [lo, hi)
}

func (o Options) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.NumCPU()
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

func (o Options) bounds() (lo, hi uint64) {
	lo = uint64(o.Start)
	hi = NonceSpace
	if o.Limit > 0 && o.Limit < hi-lo {
		hi = lo + o.Limit
	}
	return lo, hi
}

// partition splits [lo, hi) into at most n non-empty contiguous spans.
func partition(lo, hi uint64, n int) []span {
	if hi <= lo || n <= 0 {
		return nil
	}
	total := hi - lo
	if uint64(n) > total {
		n = int(total)
	}
	size := total / uint64(n)
	rem := total % uint64(n)
	out := make([]span, 0, n)
	next := lo
	for i := 0; i < n; i++ {
		w := size
		if uint64(i) < rem {
			w++
		}
		out = append(out, span{lo: next, hi: next + w})
		next += w
	}
	return out
}

// Search looks for a nonce such that the ticket digest has at least difficulty
// leading zero bytes. Only the nonce of t is varied; t itself is not modified.
//
// It returns ErrExhausted when the range holds no solution (or the difficulty
// exceeds the digest size) and ctx.Err() when the caller cancels.
func Search(ctx context.Context, t *ticket.Ticket, difficulty int, opts Options) (*Result, error) {
	log := opts.logger()
	lo, hi := opts.bounds()
	if difficulty > ticket.DigestSize || hi <= lo {
		return nil, ErrExhausted
	}

	spans := partition(lo, hi, opts.workers())
	start := time.Now()

	searchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(searchCtx)

	var (
		attempts atomic.Uint64
		found    atomic.Bool
		once     sync.Once
		winner   *ticket.Ref
	)

	for _, sp := range spans {
		sp := sp
		local := t.Clone()
		g.Go(func() error {
			var n uint64
			defer func() { attempts.Add(n) }()
			for nonce := sp.lo; nonce < sp.hi; nonce++ {
				if found.Load() {
					return nil
				}
				if n%checkEvery == 0 && gctx.Err() != nil {
					return nil
				}
				n++
				local.SetNonce(uint32(nonce))
				if !local.VerifyPoW(difficulty) {
					continue
				}
				ref, err := local.Finalize(difficulty)
				if err != nil {
					return err
				}
				once.Do(func() {
					winner = ref
					found.Store(true)
					cancel()
				})
				return nil
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	elapsed := time.Since(start)
	total := attempts.Load()

	if winner != nil {
		log.Debug("support ticket mined",
			"difficulty", difficulty,
			"nonce", winner.Nonce(),
			"hash", winner.Hash().String(),
			"value", winner.Value(),
			"attempts", total,
			"workers", len(spans),
			"elapsed", elapsed)
		return &Result{Ticket: winner, Attempts: total, Elapsed: elapsed}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	log.Debug("nonce range exhausted",
		"difficulty", difficulty,
		"start", lo,
		"end", hi,
		"attempts", total,
		"elapsed", elapsed)
	return nil, fmt.Errorf("%w (difficulty %d, nonces [%d,%d))", ErrExhausted, difficulty, lo, hi)
}
