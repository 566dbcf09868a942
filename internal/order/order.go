// Package order defines the engine's core value types: Address, OrderId,
// Side, and Order itself. fenrir's internal/common/order.go is the model
// (a plain immutable-ish struct carrying a UUID, side, price, quantities
// and timestamps); this generalizes it to 256-bit exact prices/amounts, a
// go-ethereum Address/Hash identity, and the amount_left/admission
// invariants spec.md §3 requires.
package order

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"ome/internal/fixedint"
)

// Address is a 20-byte opaque identifier (trader or market address).
type Address = common.Address

// OrderId is a 32-byte digest, unique across every book in the registry.
type OrderId = common.Hash

// Side is Bid or Ask. There is no "market order" concept in this engine —
// spec.md's core is exclusively limit orders.
type Side uint8

const (
	Bid Side = iota
	Ask
)

func (s Side) String() string {
	switch s {
	case Bid:
		return "Bid"
	case Ask:
		return "Ask"
	default:
		return "Unknown"
	}
}

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Bid {
		return Ask
	}
	return Bid
}

// ParseSide accepts the two wire spellings from spec.md §6.
func ParseSide(s string) (Side, error) {
	switch s {
	case "Bid":
		return Bid, nil
	case "Ask":
		return Ask, nil
	default:
		return 0, fmt.Errorf("order: invalid side %q", s)
	}
}

// SignedData is the opaque 65-byte EIP-712-style signature the OME accepts
// but never cryptographically verifies (spec.md §4.2).
type SignedData [65]byte

// Order is the engine's core value object. It is immutable except for
// AmountLeft, which only ever decreases (spec.md §3, invariant: "order
// identity is immutable after admission").
type Order struct {
	ID         OrderId
	Trader     Address
	Market     Address
	Side       Side
	Price      fixedint.Uint256
	Amount     fixedint.Uint256 // original
	AmountLeft fixedint.Uint256 // remaining
	Expiration int64            // absolute, unix seconds
	Created    int64            // assigned at admission
	SignedData SignedData
}

// Expired reports whether the order's expiration has passed as of "now"
// (spec.md §4.2 step 3: "If resting.expiration <= now").
func (o *Order) Expired(now int64) bool {
	return o.Expiration <= now
}

// Fill decrements AmountLeft by qty using checked subtraction. Both makers
// and takers are filled through this single path so "amount_left decreases
// monotonically" (spec.md §3) cannot be violated by a stray direct
// assignment elsewhere in the matching loop.
func (o *Order) Fill(qty fixedint.Uint256) error {
	next, err := o.AmountLeft.CheckedSub(qty)
	if err != nil {
		return fmt.Errorf("order: fill %s exceeds remaining %s on order %s: %w",
			qty.Dec(), o.AmountLeft.Dec(), o.ID.Hex(), err)
	}
	o.AmountLeft = next
	return nil
}

// Resting reports whether the order still has quantity left to match or
// rest with.
func (o *Order) Resting() bool { return !o.AmountLeft.Zero() }

// DeriveID computes the order's 32-byte digest (spec.md §3: "OrderId:
// 32-byte digest") from its admission fields plus a caller-supplied nonce,
// so two orders with otherwise-identical fields admitted in the same
// second still receive distinct ids. Grounded in go-ethereum's
// crypto.Keccak256Hash, already a transitive dependency via common.Address
// (see SPEC_FULL.md §9 "Digest-based OrderId").
func DeriveID(trader, market Address, side Side, price, amount fixedint.Uint256, expiration, created int64, nonce uint64) OrderId {
	var nonceBytes [8]byte
	for i := 0; i < 8; i++ {
		nonceBytes[i] = byte(nonce >> (8 * (7 - i)))
	}
	return crypto.Keccak256Hash(
		trader.Bytes(),
		market.Bytes(),
		[]byte{byte(side)},
		[]byte(price.Dec()),
		[]byte(amount.Dec()),
		int64Bytes(expiration),
		int64Bytes(created),
		nonceBytes[:],
	)
}

func int64Bytes(v int64) []byte {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * (7 - i)))
	}
	return b[:]
}
