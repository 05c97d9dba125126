package ticket

import (
	"crypto/sha256"
	"encoding/hex"
)

// DigestSize is the size of a ticket digest in bytes.
const DigestSize = sha256.Size

// Digest is the 256-bit identity hash of a ticket.
type Digest [DigestSize]byte

// sum computes SHA256(SHA256(encoding)).
func sum(t *Ticket) Digest {
	var scratch [128]byte
	enc := t.appendEncoding(scratch[:0])
	first := sha256.Sum256(enc)
	return Digest(sha256.Sum256(first[:]))
}

// LeadingZeroBytes counts zero bytes from the start of the digest, stopping at
// the first non-zero byte.
func (d Digest) LeadingZeroBytes() int {
	n := 0
	for _, b := range d {
		if b != 0 {
			break
		}
		n++
	}
	return n
}

// Meets reports whether the digest has at least difficulty leading zero bytes.
// Byte granularity is part of the verification contract.
func (d Digest) Meets(difficulty int) bool {
	return d.LeadingZeroBytes() >= difficulty
}

// Value maps the leading zero byte count to the ticket's reward weight.
//
// The count is multiplied by four (not eight) before taking the triangular
// number. Reward consumers depend on this exact curve.
func (d Digest) Value() uint32 {
	return valueFor(d.LeadingZeroBytes())
}

func valueFor(zeroBytes int) uint32 {
	bZeros := uint32(zeroBytes) * 4
	if bZeros == 0 {
		return 0
	}
	return bZeros * (bZeros + 1) / 2
}

// String returns the digest bytes as lowercase hex, first byte first.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// ReverseHex returns the digest as hex with the byte order reversed, the display
// convention for 256-bit hashes in Bitcoin-derived tooling.
func (d Digest) ReverseHex() string {
	var r Digest
	for i := range d {
		r[DigestSize-1-i] = d[i]
	}
	return hex.EncodeToString(r[:])
}

// ParseDigest parses the String form of a digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, wrapError(KindDecode, "TICKET-DEC-101", "invalid digest hex", err)
	}
	if len(b) != DigestSize {
		return d, newError(KindDecode, "TICKET-DEC-102", "invalid digest length")
	}
	copy(d[:], b)
	return d, nil
}
