package abi

import (
	"math/big"
)

// Token values are plain Go values whose shape must match the declared Type:
//
//	uintN/intN            *big.Int (int/int64/uint64 accepted on encode)
//	bool                  bool
//	cell                  *cell.Cell
//	address               *address.Address
//	bytes/fixedbytesN     []byte
//	string                string
//	T[] / T[N]            []any
//	tuple                 map[string]any keyed by component name
//	map(K,V)              []MapEntry
//	optional(T)           nil or the wrapped value
//	time                  uint64 (unix milliseconds)
//	expire                uint32 (unix seconds)
//	pubkey                []byte (32 bytes) or nil
//
// A mismatched shape is ErrTypeMismatch; values are never coerced beyond the
// integer conversions above.

// MapEntry is a single key/value pair of a map token. Encode order follows
// slice order, so callers control the serialized layout deterministically.
type MapEntry struct {
	Key   any
	Value any
}

// Headers carries the protocol-mandated external message header fields.
// PublicKey is nil when the header is a placeholder (unsigned message path).
type Headers struct {
	Time      uint64
	Expire    uint32
	PublicKey []byte
}

// Header field names a contract may declare, in the only schema supported.
const (
	HeaderTime   = "time"
	HeaderExpire = "expire"
	HeaderPubkey = "pubkey"
)

func toBigInt(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case *big.Int:
		return x, true
	case big.Int:
		return new(big.Int).Set(&x), true
	case int:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	}
	return nil, false
}

// fitsWidth reports whether v is representable in the declared width.
func fitsWidth(v *big.Int, bits uint, signed bool) bool {
	if signed {
		// Two's-complement range check: -2^(n-1) <= v < 2^(n-1).
		if v.Sign() < 0 {
			bound := new(big.Int).Lsh(big.NewInt(1), bits-1)
			return new(big.Int).Neg(v).Cmp(bound) <= 0
		}
		return v.BitLen() < int(bits)
	}
	return v.Sign() >= 0 && v.BitLen() <= int(bits)
}
