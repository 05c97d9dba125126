// Package operator holds a node's support settings: whether it takes part
// in support and which keys go into the tickets it creates.
package operator

import (
	"encoding/hex"
	"errors"
	"log/slog"
	"sync"
	"time"

	"xdao.co/support/keys"
	"xdao.co/support/ticket"
)

type Status string

const (
	Active   Status = "active"
	Inactive Status = "inactive"
)

var (
	ErrInvalidKey = keys.ErrInvalidKey
	ErrInactive   = errors.New("operator: support is inactive")
	ErrKeysUnset  = errors.New("operator: worker or support key not set")
)

// Info is the externally visible summary. Keys are reported as hex
// Hash160 identifiers, empty when unset.
type Info struct {
	Status        Status `json:"status"`
	WorkerPubKey  string `json:"workerpubkey"`
	SupportPubKey string `json:"supportpubkey"`
}

// State is safe for concurrent use.
type State struct {
	alg keys.Algorithm
	log *slog.Logger

	mu      sync.RWMutex
	status  Status
	worker  keys.PubKey
	support keys.PubKey
}

// New returns an inactive State whose keys are parsed as alg.
func New(alg keys.Algorithm, logger *slog.Logger) *State {
	if alg == "" {
		alg = keys.Secp256k1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &State{alg: alg, log: logger, status: Inactive}
}

func (s *State) Algorithm() keys.Algorithm { return s.alg }

func (s *State) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// SetStatus accepts only "active" and "inactive". Any other value leaves
// the status unchanged and returns false.
func (s *State) SetStatus(v string) bool {
	st := Status(v)
	if st != Active && st != Inactive {
		s.log.Warn("ignoring unknown support status", "status", v)
		return false
	}
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
	return true
}

func (s *State) SetWorkerPubKey(h string) error {
	k, err := keys.ParsePubKeyHex(s.alg, h)
	if err != nil {
		s.log.Warn("invalid worker public key", "err", err)
		return err
	}
	s.mu.Lock()
	s.worker = k
	s.mu.Unlock()
	s.log.Info("worker public key loaded", "hash160", hex.EncodeToString(k.Hash160()))
	return nil
}

func (s *State) SetSupportPubKey(h string) error {
	k, err := keys.ParsePubKeyHex(s.alg, h)
	if err != nil {
		s.log.Warn("invalid support public key", "err", err)
		return err
	}
	s.mu.Lock()
	s.support = k
	s.mu.Unlock()
	s.log.Info("support public key loaded", "hash160", hex.EncodeToString(k.Hash160()))
	return nil
}

// Keys returns the current worker and support keys; either may be nil.
func (s *State) Keys() (worker, support keys.PubKey) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.worker, s.support
}

func (s *State) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Info{Status: s.status, WorkerPubKey: keyID(s.worker), SupportPubKey: keyID(s.support)}
}

func keyID(k keys.PubKey) string {
	if k == nil {
		return ""
	}
	return hex.EncodeToString(k.Hash160())
}

// NewTicket returns a building ticket for supportedHash carrying the
// operator's keys, stamped with now and nonce 0.
func (s *State) NewTicket(supportedHash string, now time.Time) (*ticket.Ticket, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.status != Active {
		return nil, ErrInactive
	}
	if s.worker == nil || s.support == nil {
		return nil, ErrKeysUnset
	}
	return ticket.New(supportedHash, s.worker.Bytes(), s.support.Bytes(), uint32(now.Unix()), 0), nil
}
