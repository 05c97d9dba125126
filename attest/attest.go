// Package attest wraps a finalized ticket in a signed envelope so a
// ticket's origin can be checked independently of its proof of work.
//
// The signed message is hashAlg(ticket digest). Envelopes travel as CBOR
// in core deterministic encoding, so one envelope has exactly one byte
// form.
package attest

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"xdao.co/support/keys"
	"xdao.co/support/ticket"
)

const Version = 1

var (
	ErrBadSignature = errors.New("attest: signature does not verify")
	ErrVersion      = errors.New("attest: unsupported envelope version")
)

type Envelope struct {
	Version      int    `cbor:"1,keyasint"`
	Ticket       []byte `cbor:"2,keyasint"`
	HashAlg      string `cbor:"3,keyasint"`
	SignatureAlg string `cbor:"4,keyasint"`
	PublicKey    []byte `cbor:"5,keyasint"`
	Signature    []byte `cbor:"6,keyasint"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("attest: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyEnforcedAPF,
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic("attest: CBOR decoder initialization failed: " + err.Error())
	}
}

// Sign produces an envelope for r. hashAlg is one of sha256, sha512 or
// sha3-256.
func Sign(r *ticket.Ref, signer keys.Signer, hashAlg string) (*Envelope, error) {
	if r == nil || signer == nil {
		return nil, errors.New("attest: missing ticket or signer")
	}
	d := r.Hash()
	msg, err := keys.Digest(hashAlg, d[:])
	if err != nil {
		return nil, err
	}
	sig, err := signer.Sign(msg)
	if err != nil {
		return nil, fmt.Errorf("attest: sign: %w", err)
	}
	pub := signer.PublicKey()
	return &Envelope{
		Version:      Version,
		Ticket:       r.Serialize(),
		HashAlg:      hashAlg,
		SignatureAlg: string(pub.Algorithm()),
		PublicKey:    pub.Bytes(),
		Signature:    sig,
	}, nil
}

// Verify decodes the enclosed ticket and checks the signature. The ticket
// is returned finalized at difficulty 0.
func (e *Envelope) Verify() (*ticket.Ref, error) {
	if e.Version != Version {
		return nil, fmt.Errorf("%w: %d", ErrVersion, e.Version)
	}
	r, err := ticket.DecodeRef(e.Ticket, 0)
	if err != nil {
		return nil, err
	}
	alg := keys.Algorithm(e.SignatureAlg)
	pub, err := keys.ParsePubKey(alg, e.PublicKey)
	if err != nil {
		return nil, err
	}
	d := r.Hash()
	msg, err := keys.Digest(e.HashAlg, d[:])
	if err != nil {
		return nil, err
	}
	if !keys.Verify(pub, msg, e.Signature) {
		return nil, ErrBadSignature
	}
	return r, nil
}

func (e *Envelope) Marshal() ([]byte, error) {
	return encMode.Marshal(e)
}

func Unmarshal(b []byte) (*Envelope, error) {
	var e Envelope
	if err := decMode.Unmarshal(b, &e); err != nil {
		return nil, fmt.Errorf("attest: decode envelope: %w", err)
	}
	return &e, nil
}
