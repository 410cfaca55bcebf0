// Package canon implements the canonical byte encoding used throughout
// knot: the same encoding both feeds the content hash and serializes the
// persistence file and sync wire records, so that hashes and bytes on
// disk are reproducible across processes and platforms.
//
// The scheme is deliberately simple: every value that wants to be hashed
// or persisted implements Encodable (EncodeCanonical), writing fixed-width little-endian
// integers, length-prefixed strings, count-prefixed sequences, and a
// one-byte tag ahead of each sum-type variant. There is no self-describing
// schema; a decoder must know what it's decoding, the same way git's own
// object bodies are typed only by the caller's expectations.
package canon

import (
	"encoding/binary"
	"fmt"
)

// Encodable is implemented by every value that can be canonically encoded.
type Encodable interface {
	EncodeCanonical(e *Encoder)
}

// Encoder accumulates canonically-encoded bytes.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an empty Encoder.
func NewEncoder() *Encoder {
	return &Encoder{}
}

// Bytes returns the accumulated canonical encoding.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Uint64 writes n as 8 little-endian bytes.
func (e *Encoder) Uint64(n uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], n)
	e.buf = append(e.buf, tmp[:]...)
}

// Int64 writes n as 8 little-endian bytes.
func (e *Encoder) Int64(n int64) {
	e.Uint64(uint64(n))
}

// Byte writes a single tag or flag byte.
func (e *Encoder) Byte(b byte) {
	e.buf = append(e.buf, b)
}

// RawBytes writes a length-prefixed raw byte string.
func (e *Encoder) RawBytes(b []byte) {
	e.Uint64(uint64(len(b)))
	e.buf = append(e.buf, b...)
}

// String writes a length-prefixed UTF-8 string.
func (e *Encoder) String(s string) {
	e.RawBytes([]byte(s))
}

// Sub encodes a nested Encodable value inline (no extra length prefix;
// callers that need one should wrap the nested bytes with RawBytes).
func (e *Encoder) Sub(v Encodable) {
	v.EncodeCanonical(e)
}

// Encode returns the canonical encoding of v.
func Encode(v Encodable) []byte {
	e := NewEncoder()
	v.EncodeCanonical(e)
	return e.Bytes()
}

// Decoder reads values out of a canonical byte encoding in the same order
// an Encoder wrote them.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder over b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

var errTruncated = fmt.Errorf("canon: truncated input")

func (d *Decoder) need(n int) error {
	if d.pos+n > len(d.buf) {
		return errTruncated
	}
	return nil
}

// Uint64 reads 8 little-endian bytes.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.need(8); err != nil {
		return 0, err
	}
	n := binary.LittleEndian.Uint64(d.buf[d.pos : d.pos+8])
	d.pos += 8
	return n, nil
}

// Int64 reads 8 little-endian bytes as a signed integer.
func (d *Decoder) Int64() (int64, error) {
	n, err := d.Uint64()
	return int64(n), err
}

// Byte reads a single byte.
func (d *Decoder) Byte() (byte, error) {
	if err := d.need(1); err != nil {
		return 0, err
	}
	b := d.buf[d.pos]
	d.pos++
	return b, nil
}

// RawBytes reads a length-prefixed raw byte string.
func (d *Decoder) RawBytes() ([]byte, error) {
	n, err := d.Uint64()
	if err != nil {
		return nil, err
	}
	if err := d.need(int(n)); err != nil {
		return nil, err
	}
	b := d.buf[d.pos : d.pos+int(n)]
	d.pos += int(n)
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String reads a length-prefixed UTF-8 string.
func (d *Decoder) String() (string, error) {
	b, err := d.RawBytes()
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Done reports whether every byte has been consumed.
func (d *Decoder) Done() bool {
	return d.pos == len(d.buf)
}
