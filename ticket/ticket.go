package ticket

// Ticket is a support ticket in the building state.
//
// The three identity fields are byte strings held in Go strings so that a
// Ticket is comparable and copying it never aliases mutable memory. Fields are
// encoded and hashed in declaration order.
type Ticket struct {
	SupportedHash string
	WorkerPubKey  string
	SupportPubKey string
	Timestamp     uint32
	Nonce         uint32
}

// New returns a building ticket with the given fields.
func New(supportedHash string, workerPubKey, supportPubKey []byte, timestamp, nonce uint32) *Ticket {
	return &Ticket{
		SupportedHash: supportedHash,
		WorkerPubKey:  string(workerPubKey),
		SupportPubKey: string(supportPubKey),
		Timestamp:     timestamp,
		Nonce:         nonce,
	}
}

// SetNull clears the identity fields and the nonce. Timestamp is kept.
func (t *Ticket) SetNull() {
	t.SupportedHash = ""
	t.WorkerPubKey = ""
	t.SupportPubKey = ""
	t.Nonce = 0
}

// IsNull reports whether the ticket has no supported hash.
func (t *Ticket) IsNull() bool {
	return t.SupportedHash == ""
}

// SetNonce replaces the nonce of a ticket that is still being built.
func (t *Ticket) SetNonce(nonce uint32) {
	t.Nonce = nonce
}

// Hash returns the ticket digest.
func (t *Ticket) Hash() Digest {
	return sum(t)
}

// VerifyPoW reports whether the digest has at least difficulty leading zero bytes.
func (t *Ticket) VerifyPoW(difficulty int) bool {
	return t.Hash().Meets(difficulty)
}

// Value returns the reward weight of the ticket's proof of work.
func (t *Ticket) Value() uint32 {
	return t.Hash().Value()
}

// Clone returns an independent copy.
func (t *Ticket) Clone() *Ticket {
	c := *t
	return &c
}

// Finalize verifies the proof of work at difficulty and returns a shared,
// read-only handle. The receiver is left untouched and may be discarded.
func (t *Ticket) Finalize(difficulty int) (*Ref, error) {
	d := t.Hash()
	if !d.Meets(difficulty) {
		return nil, newError(KindState, "TICKET-STATE-001", "proof of work below required difficulty")
	}
	return &Ref{t: *t, digest: d}, nil
}
