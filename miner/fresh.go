package miner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"xdao.co/support/ticket"
)

// Refresh configures SearchFresh.
type Refresh struct {
	// MaxRounds bounds the number of timestamp refreshes. Zero means one round.
	MaxRounds int

	// Now supplies the timestamp for each round. Nil means time.Now.
	Now func() time.Time
}

// SearchFresh runs Search, stamping the ticket with the current time before
// each round and retrying with a new timestamp when a round exhausts its nonce
// range. Every round uses a strictly greater timestamp than the last so the
// digest sequence never repeats.
func SearchFresh(ctx context.Context, t *ticket.Ticket, difficulty int, opts Options, rf Refresh) (*Result, error) {
	if difficulty > ticket.DigestSize {
		return nil, ErrExhausted
	}
	rounds := rf.MaxRounds
	if rounds <= 0 {
		rounds = 1
	}
	now := rf.Now
	if now == nil {
		now = time.Now
	}

	work := t.Clone()
	var (
		prev     uint32
		attempts uint64
	)
	start := time.Now()
	for round := 0; round < rounds; round++ {
		ts := uint32(now().Unix())
		if round > 0 && ts <= prev {
			ts = prev + 1
		}
		prev = ts
		work.Timestamp = ts

		res, err := Search(ctx, work, difficulty, opts)
		if err == nil {
			res.Attempts += attempts
			res.Elapsed = time.Since(start)
			return res, nil
		}
		if !errors.Is(err, ErrExhausted) {
			return nil, err
		}
		opts.logger().Info("nonce range exhausted, refreshing timestamp",
			"round", round+1,
			"of", rounds,
			"timestamp", ts)
		attempts += rangeLen(opts)
	}
	return nil, fmt.Errorf("%w after %d timestamp rounds", ErrExhausted, rounds)
}

func rangeLen(o Options) uint64 {
	lo, hi := o.bounds()
	if hi <= lo {
		return 0
	}
	return hi - lo
}
