package canon

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/blake2b"

	"github.com/knotvcs/knot/internal/vcserr"
)

// Id is a 64-character lowercase-hex digest identifying an object by its
// canonically-encoded content. It is value-typed: two Ids compare equal
// iff the underlying digests are equal.
type Id string

// idLen is the fixed width of an Id in hex characters: 32 raw bytes
// (a 256-bit BLAKE2b digest) encoded two hex characters per byte.
const idLen = 64

// NewId validates and wraps a hex string into an Id. It rejects anything
// but lowercase hex: uppercase or mixed-case digests are well-formed hex
// to encoding/hex but are not the canonical form this project's Ids are
// always produced in (Hash always lower-cases via hex.EncodeToString),
// so accepting them would let two different strings compare unequal as
// Go values while naming the same object.
func NewId(s string) (Id, error) {
	if len(s) != idLen {
		return "", fmt.Errorf("%w: id must be %d hex characters, got %d", vcserr.ErrInvalidId, idLen, len(s))
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("%w: id must be lowercase hex, got %q", vcserr.ErrInvalidId, s)
		}
	}
	if _, err := hex.DecodeString(s); err != nil {
		return "", fmt.Errorf("%w: %v", vcserr.ErrInvalidId, err)
	}
	return Id(s), nil
}

// Hash canonically encodes v and returns the Id of the result.
func Hash(v Encodable) Id {
	sum := blake2b.Sum256(Encode(v))
	return Id(hex.EncodeToString(sum[:]))
}

// Short returns the first 7 characters of the Id, or the whole Id if
// shorter (mirrors git's abbreviated-hash convention).
func (id Id) Short() string {
	if len(id) < 7 {
		return string(id)
	}
	return string(id)[:7]
}

// EncodeCanonical writes the Id as a length-prefixed string so it can be
// embedded as a field of a larger Encodable (e.g. a parent id list).
func (id Id) EncodeCanonical(e *Encoder) {
	e.String(string(id))
}
