// Package ticket implements the support ticket value object.
//
// A ticket binds the identifier of a supported object (usually a transaction
// id) to a worker key and a supporter key, stamped with a timestamp and a
// proof-of-work nonce. Three pure operations carry all of the semantics:
//
//   - Hash: double SHA-256 over the fixed-order wire encoding of the five fields.
//   - VerifyPoW: the digest has at least N leading zero bytes.
//   - Value: the triangular number of four times the leading zero byte count.
//
// These outputs are part of the wire contract between independent miners and
// verifiers and must stay bit-exact across versions.
//
// Lifecycle:
//
// A *Ticket is a building value: its nonce may be changed by the single owner
// running a proof-of-work search. Finalize checks the proof of work and returns
// a *Ref, a read-only handle that can be shared freely between goroutines.
// There is no way back from a Ref to a mutable ticket other than Clone, which
// produces an independent copy.
package ticket
