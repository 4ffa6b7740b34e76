package abi

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/consensys/gnark-crypto/ecc/stark-curve/fp"
)

// MaxShortStringLen is the longest Cairo short string that fits in a felt.
const MaxShortStringLen = 31

// Felt is an element of the Starknet base field.
type Felt struct {
	e fp.Element
}

// FeltFromUint64 returns v as a felt.
func FeltFromUint64(v uint64) Felt {
	var f Felt
	f.e.SetUint64(v)
	return f
}

// FeltFromBigInt returns v as a felt. v must lie in [0, p).
func FeltFromBigInt(v *big.Int) (Felt, error) {
	if v.Sign() < 0 || v.Cmp(fp.Modulus()) >= 0 {
		return Felt{}, fmt.Errorf("%w: %s is not a field element", ErrSchema, v)
	}
	var f Felt
	f.e.SetBigInt(v)
	return f, nil
}

// FeltFromShortString encodes s as a Cairo short string: up to 31 ASCII bytes
// read as a big-endian integer.
func FeltFromShortString(s string) (Felt, error) {
	if len(s) > MaxShortStringLen {
		return Felt{}, fmt.Errorf("short string %q is longer than %d bytes", s, MaxShortStringLen)
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return Felt{}, fmt.Errorf("short string %q is not ASCII", s)
		}
	}
	return FeltFromBigInt(new(big.Int).SetBytes([]byte(s)))
}

// ParseFelt parses a 0x-prefixed hexadecimal or a decimal felt.
func ParseFelt(s string) (Felt, error) {
	v, ok := new(big.Int), false
	if hex, found := strings.CutPrefix(s, "0x"); found {
		_, ok = v.SetString(hex, 16)
	} else {
		_, ok = v.SetString(s, 10)
	}
	if !ok {
		return Felt{}, fmt.Errorf("%w: invalid felt %q", ErrSchema, s)
	}
	return FeltFromBigInt(v)
}

// BigInt returns the canonical integer value of f.
func (f Felt) BigInt() *big.Int {
	return f.e.BigInt(new(big.Int))
}

// IsZero reports whether f is zero.
func (f Felt) IsZero() bool {
	return f.e.IsZero()
}

// Equal reports whether f and g are the same element.
func (f Felt) Equal(g Felt) bool {
	return f.e.Equal(&g.e)
}

// Hex renders f as 0x followed by lowercase hex digits without leading zeros.
func (f Felt) Hex() string {
	return "0x" + f.BigInt().Text(16)
}

func (f Felt) String() string {
	return f.Hex()
}
