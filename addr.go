package ofs

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/blake3"
)

// AddrLen is the length of a store address in bytes.
const AddrLen = 32

// Addr is a 32-byte store address. Container roots and object values sit
// at fresh addresses minted by the store; field records sit at addresses
// derived from (parent, key).
type Addr [AddrLen]byte

func (a Addr) String() string {
	return hex.EncodeToString(a[:])
}

// Short returns an abbreviated form for log and error messages.
func (a Addr) Short() string {
	return hex.EncodeToString(a[:6])
}

func (a Addr) IsZero() bool {
	return a == Addr{}
}

// ParseAddr decodes the hex form produced by Addr.String.
func ParseAddr(s string) (Addr, error) {
	var a Addr
	if hex.DecodedLen(len(s)) != AddrLen {
		return a, fmt.Errorf("invalid address length: %q", s)
	}
	_, err := hex.Decode(a[:], []byte(s))
	if err != nil {
		return a, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return a, nil
}

// Domain separation tags for address derivation. Plain fields and object
// fields under the same parent and key must land at different addresses.
const (
	addrDomainField       = 0x01
	addrDomainObjectField = 0x02
)

// deriveAddr computes the child address for a field record. The key's
// length is hashed before its bytes so that (key, tag) pairs cannot be
// shifted into each other.
func deriveAddr(parent Addr, domain byte, keyTag string, keyRaw []byte) Addr {
	h := blake3.New()
	h.Write([]byte{domain})
	h.Write(parent[:])
	var lenbuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenbuf[:], uint64(len(keyRaw)))
	h.Write(lenbuf[:n])
	h.Write(keyRaw)
	h.Write([]byte(keyTag))
	var a Addr
	h.Digest().Read(a[:])
	return a
}

// FieldAddr returns the address a plain field with the given key occupies
// under parent, whether or not such a field currently exists.
func FieldAddr(parent Addr, key any) Addr {
	tag, raw := canonicalKey(key)
	return deriveAddr(parent, addrDomainField, tag, raw)
}

// ObjectFieldAddr is FieldAddr for object-valued fields, which use a
// separate derivation domain.
func ObjectFieldAddr(parent Addr, key any) Addr {
	tag, raw := canonicalKey(key)
	return deriveAddr(parent, addrDomainObjectField, tag, raw)
}
