package ticket

// Ref is a finalized ticket: a read-only handle that may be shared across
// goroutines. It holds its own copy of the fields and the digest computed at
// finalization.
type Ref struct {
	t      Ticket
	digest Digest
}

// DecodeRef deserializes b and finalizes it at difficulty.
func DecodeRef(b []byte, difficulty int) (*Ref, error) {
	t, err := Deserialize(b)
	if err != nil {
		return nil, err
	}
	return t.Finalize(difficulty)
}

// Ticket returns a copy of the ticket fields.
func (r *Ref) Ticket() Ticket { return r.t }

// Clone returns a new building ticket with the same fields.
func (r *Ref) Clone() *Ticket {
	c := r.t
	return &c
}

func (r *Ref) SupportedHash() string { return r.t.SupportedHash }
func (r *Ref) WorkerPubKey() []byte  { return []byte(r.t.WorkerPubKey) }
func (r *Ref) SupportPubKey() []byte { return []byte(r.t.SupportPubKey) }
func (r *Ref) Timestamp() uint32     { return r.t.Timestamp }
func (r *Ref) Nonce() uint32         { return r.t.Nonce }
func (r *Ref) IsNull() bool          { return r.t.SupportedHash == "" }
func (r *Ref) Hash() Digest          { return r.digest }
func (r *Ref) LeadingZeroBytes() int { return r.digest.LeadingZeroBytes() }
func (r *Ref) Value() uint32         { return r.digest.Value() }
func (r *Ref) Serialize() []byte     { return r.t.Serialize() }
func (r *Ref) VerifyPoW(d int) bool  { return r.digest.Meets(d) }
func (r *Ref) MarshalBinary() ([]byte, error) {
	return r.t.Serialize(), nil
}
