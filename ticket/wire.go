package ticket

import (
	"encoding/binary"
)

// MaxFieldSize bounds the declared length of a byte-string field on decode.
const MaxFieldSize = 0x02000000

// MaxEncodedSize is the largest encoding Deserialize can accept: three
// maximal fields with 5-byte length prefixes, then timestamp and nonce.
const MaxEncodedSize = 3*(5+MaxFieldSize) + 8

// Wire layout, in order:
//
//	compactsize(len) || SupportedHash
//	compactsize(len) || WorkerPubKey
//	compactsize(len) || SupportPubKey
//	uint32 LE Timestamp
//	uint32 LE Nonce
func (t *Ticket) appendEncoding(dst []byte) []byte {
	dst = appendString(dst, t.SupportedHash)
	dst = appendString(dst, t.WorkerPubKey)
	dst = appendString(dst, t.SupportPubKey)
	dst = binary.LittleEndian.AppendUint32(dst, t.Timestamp)
	dst = binary.LittleEndian.AppendUint32(dst, t.Nonce)
	return dst
}

// EncodedLen returns the length of the wire encoding.
func (t *Ticket) EncodedLen() int {
	return compactSizeLen(uint64(len(t.SupportedHash))) + len(t.SupportedHash) +
		compactSizeLen(uint64(len(t.WorkerPubKey))) + len(t.WorkerPubKey) +
		compactSizeLen(uint64(len(t.SupportPubKey))) + len(t.SupportPubKey) +
		8
}

// Serialize returns the wire encoding of the ticket.
func (t *Ticket) Serialize() []byte {
	return t.appendEncoding(make([]byte, 0, t.EncodedLen()))
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (t *Ticket) MarshalBinary() ([]byte, error) {
	return t.Serialize(), nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. On error the
// receiver is left unchanged.
func (t *Ticket) UnmarshalBinary(b []byte) error {
	out, err := Deserialize(b)
	if err != nil {
		return err
	}
	*t = *out
	return nil
}

// Deserialize decodes a ticket from its wire encoding. Truncated input,
// non-canonical lengths and trailing bytes are rejected.
func Deserialize(b []byte) (*Ticket, error) {
	d := decoder{buf: b}
	var t Ticket
	var err error
	if t.SupportedHash, err = d.string("supported hash"); err != nil {
		return nil, err
	}
	if t.WorkerPubKey, err = d.string("worker pubkey"); err != nil {
		return nil, err
	}
	if t.SupportPubKey, err = d.string("support pubkey"); err != nil {
		return nil, err
	}
	if t.Timestamp, err = d.uint32("timestamp"); err != nil {
		return nil, err
	}
	if t.Nonce, err = d.uint32("nonce"); err != nil {
		return nil, err
	}
	if len(d.buf) != 0 {
		return nil, newError(KindDecode, "TICKET-DEC-006", "trailing bytes after ticket")
	}
	return &t, nil
}

func appendString(dst []byte, s string) []byte {
	dst = appendCompactSize(dst, uint64(len(s)))
	return append(dst, s...)
}

func appendCompactSize(dst []byte, n uint64) []byte {
	switch {
	case n < 0xfd:
		return append(dst, byte(n))
	case n <= 0xffff:
		dst = append(dst, 0xfd)
		return binary.LittleEndian.AppendUint16(dst, uint16(n))
	case n <= 0xffffffff:
		dst = append(dst, 0xfe)
		return binary.LittleEndian.AppendUint32(dst, uint32(n))
	default:
		dst = append(dst, 0xff)
		return binary.LittleEndian.AppendUint64(dst, n)
	}
}

func compactSizeLen(n uint64) int {
	switch {
	case n < 0xfd:
		return 1
	case n <= 0xffff:
		return 3
	case n <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

type decoder struct {
	buf []byte
}

func (d *decoder) compactSize(field string) (uint64, error) {
	if len(d.buf) < 1 {
		return 0, newError(KindDecode, "TICKET-DEC-001", "truncated length of "+field)
	}
	tag := d.buf[0]
	var n, floor uint64
	var width int
	switch tag {
	case 0xfd:
		width, floor = 2, 0xfd
	case 0xfe:
		width, floor = 4, 0x10000
	case 0xff:
		width, floor = 8, 0x100000000
	default:
		d.buf = d.buf[1:]
		return uint64(tag), nil
	}
	if len(d.buf) < 1+width {
		return 0, newError(KindDecode, "TICKET-DEC-001", "truncated length of "+field)
	}
	switch width {
	case 2:
		n = uint64(binary.LittleEndian.Uint16(d.buf[1:]))
	case 4:
		n = uint64(binary.LittleEndian.Uint32(d.buf[1:]))
	case 8:
		n = binary.LittleEndian.Uint64(d.buf[1:])
	}
	if n < floor {
		return 0, newError(KindDecode, "TICKET-DEC-002", "non-canonical length of "+field)
	}
	d.buf = d.buf[1+width:]
	return n, nil
}

func (d *decoder) string(field string) (string, error) {
	n, err := d.compactSize(field)
	if err != nil {
		return "", err
	}
	if n > MaxFieldSize {
		return "", newError(KindDecode, "TICKET-DEC-003", field+" exceeds maximum size")
	}
	if uint64(len(d.buf)) < n {
		return "", newError(KindDecode, "TICKET-DEC-004", "truncated "+field)
	}
	s := string(d.buf[:n])
	d.buf = d.buf[n:]
	return s, nil
}

func (d *decoder) uint32(field string) (uint32, error) {
	if len(d.buf) < 4 {
		return 0, newError(KindDecode, "TICKET-DEC-005", "truncated "+field)
	}
	v := binary.LittleEndian.Uint32(d.buf)
	d.buf = d.buf[4:]
	return v, nil
}
