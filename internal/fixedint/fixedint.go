// Package fixedint provides checked 256-bit arithmetic for the engine. No
// floating point is used anywhere in the matching core; every price and
// amount is an exact 256-bit unsigned integer, and the one derived signed
// quantity (spread) is an exact 256-bit signed integer.
package fixedint

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
)

// ErrOverflow is returned by the checked arithmetic helpers when an
// operation would wrap around the 256-bit range. Callers in the matching
// core treat this as an Internal error (spec.md §7): it should never
// trigger for well-formed venue sizes, and its appearance indicates a bug
// or a corrupted order rather than a recoverable condition.
var ErrOverflow = errors.New("fixedint: 256-bit overflow")

// Uint256 is an exact, unsigned 256-bit integer used for Price and Amount.
// Zero value is the integer zero.
type Uint256 struct {
	v uint256.Int
}

// Zero reports whether the value is the integer zero.
func (u Uint256) Zero() bool { return u.v.IsZero() }

// Cmp compares u to other: -1, 0, 1 for less, equal, greater.
func (u Uint256) Cmp(other Uint256) int { return u.v.Cmp(&other.v) }

func (u Uint256) Lt(other Uint256) bool { return u.v.Lt(&other.v) }
func (u Uint256) Gt(other Uint256) bool { return u.v.Gt(&other.v) }
func (u Uint256) Eq(other Uint256) bool { return u.v.Eq(&other.v) }

// Min returns the smaller of u and other.
func Min(a, b Uint256) Uint256 {
	if a.Lt(b) {
		return a
	}
	return b
}

// CheckedAdd returns u+other, or ErrOverflow if the sum does not fit in 256
// bits.
func (u Uint256) CheckedAdd(other Uint256) (Uint256, error) {
	var out uint256.Int
	_, overflow := out.AddOverflow(&u.v, &other.v)
	if overflow {
		return Uint256{}, ErrOverflow
	}
	return Uint256{v: out}, nil
}

// CheckedSub returns u-other, or ErrOverflow if other > u (the result would
// underflow below zero, since Uint256 is unsigned).
func (u Uint256) CheckedSub(other Uint256) (Uint256, error) {
	var out uint256.Int
	_, underflow := out.SubOverflow(&u.v, &other.v)
	if underflow {
		return Uint256{}, ErrOverflow
	}
	return Uint256{v: out}, nil
}

// UintFromUint64 constructs a Uint256 from a native uint64. Convenient for
// tests and for venue-supplied constants; never used for amounts or prices
// parsed off the wire (those go through UintFromDecimalString so overflow and
// malformed input are reported uniformly).
func UintFromUint64(v uint64) Uint256 {
	var out Uint256
	out.v.SetUint64(v)
	return out
}

// UintFromDecimalString parses the canonical wire encoding: a base-10
// string with no sign, no fractional part, and no leading '0x'.
func UintFromDecimalString(s string) (Uint256, error) {
	var out Uint256
	if err := out.v.SetFromDecimal(s); err != nil {
		return Uint256{}, fmt.Errorf("fixedint: invalid decimal %q: %w", s, err)
	}
	return out, nil
}

// Dec renders the canonical wire encoding.
func (u Uint256) Dec() string { return u.v.Dec() }

func (u Uint256) String() string { return u.Dec() }

// MarshalJSON encodes as a JSON string of the decimal digits — the
// canonical 256-bit wire encoding (spec.md §6): JSON numbers lose precision
// above 2^53 and are never used for Price/Amount.
func (u Uint256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + u.Dec() + `"`), nil
}

func (u *Uint256) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSONString(data)
	if err != nil {
		return err
	}
	v, err := UintFromDecimalString(s)
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// signedLowerBound and signedUpperBound bracket a 256-bit two's-complement
// signed integer: valid values are in [-2^255, 2^255-1].
var (
	signedLowerBound = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
	signedUpperBound = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
)

// Int256 is an exact, signed 256-bit integer. It exists for exactly one
// field in the system: Book.spread (spec.md §3, invariant 6). There is no
// signed 256-bit integer type anywhere in the retrieval pack — uint256.Int
// is unsigned only — so this is built on math/big.Int with the range
// checked at every construction; it has no arithmetic methods of its own.
// See DESIGN.md for why this is the
// one place the core reaches into the standard library instead of a
// pack-sourced dependency.
type Int256 struct {
	v big.Int
}

// Int256FromUint256 computes a signed value from two unsigned operands,
// a - b, without the unsigned type's underflow restriction.
func Int256FromUint256(a, b Uint256) (Int256, error) {
	diff := new(big.Int).Sub(a.v.ToBig(), b.v.ToBig())
	return int256FromBig(diff)
}

func int256FromBig(v *big.Int) (Int256, error) {
	if v.Cmp(signedLowerBound) < 0 || v.Cmp(signedUpperBound) > 0 {
		return Int256{}, ErrOverflow
	}
	var out Int256
	out.v.Set(v)
	return out, nil
}

func (i Int256) Sign() int { return i.v.Sign() }

func (i Int256) Dec() string { return i.v.String() }

func (i Int256) String() string { return i.Dec() }

func (i Int256) MarshalJSON() ([]byte, error) {
	return []byte(`"` + i.Dec() + `"`), nil
}

func (i *Int256) UnmarshalJSON(data []byte) error {
	s, err := unquoteJSONString(data)
	if err != nil {
		return err
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return fmt.Errorf("fixedint: invalid signed decimal %q", s)
	}
	parsed, err := int256FromBig(v)
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func unquoteJSONString(data []byte) (string, error) {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return "", fmt.Errorf("fixedint: expected JSON string, got %q", data)
	}
	return string(data[1 : len(data)-1]), nil
}
