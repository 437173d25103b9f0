package signature

import (
	"crypto/sha1"
	"fmt"
	"math/big"
	"strings"
)

// Element is one member of the heterogeneous message folded by
// HashMessage (§4.8, §9). The STARK signature endpoint accepts decimal
// field elements, hex field elements, and raw byte blobs (request
// bodies, nonces) interchangeably, so Element keeps their encodings
// distinct until toFieldElement resolves them.
type Element struct {
	kind elementKind
	s    string
	b    []byte
}

type elementKind int

const (
	kindDecimal elementKind = iota
	kindHex
	kindBytes
)

// DecimalElement wraps a base-10 integer string.
func DecimalElement(s string) Element { return Element{kind: kindDecimal, s: s} }

// HexElement wraps a hex integer string, with or without a 0x prefix.
func HexElement(s string) Element { return Element{kind: kindHex, s: s} }

// BytesElement wraps a raw byte blob. Per §4.8 it is folded to a field
// element via its SHA-1 digest — preserved bit-exactly from the
// original service even though SHA-1 is not collision-resistant,
// because changing it would invalidate every signature issued so far.
func BytesElement(b []byte) Element { return Element{kind: kindBytes, b: b} }

func (e Element) toFieldElement() (*big.Int, error) {
	switch e.kind {
	case kindDecimal:
		n, ok := new(big.Int).SetString(e.s, 10)
		if !ok {
			return nil, fmt.Errorf("signature: %q is not a decimal integer", e.s)
		}
		return mod(n), nil
	case kindHex:
		s := strings.TrimPrefix(strings.TrimPrefix(e.s, "0x"), "0X")
		n, ok := new(big.Int).SetString(s, 16)
		if !ok {
			return nil, fmt.Errorf("signature: %q is not a hex integer", e.s)
		}
		return mod(n), nil
	case kindBytes:
		digest := sha1.Sum(e.b)
		return mod(new(big.Int).SetBytes(digest[:])), nil
	default:
		return nil, fmt.Errorf("signature: unknown element kind")
	}
}

// HashMessage folds elements into a single field element with a
// right-to-left Pedersen chain starting at acc = 0:
//
//	h = pedersen(e[0], pedersen(e[1], ... pedersen(e[n-1], 0)))
//
// matching the original service's
// functools.reduce(lambda x, y: pedersen_hash(y, x), reversed(elements), 0).
func HashMessage(elements ...Element) (*big.Int, error) {
	acc := big.NewInt(0)
	for i := len(elements) - 1; i >= 0; i-- {
		fe, err := elements[i].toFieldElement()
		if err != nil {
			return nil, err
		}
		acc = pedersenHash(fe, acc)
	}
	return acc, nil
}
