// Package pricelevel implements the FIFO queue of resting orders at a
// single price (spec.md §4.1). fenrir indexes orders at a price via a
// slice-backed heap (internal/book/buy_book.go, sell_book.go) ordered by
// price then arrival time; price ordering across levels is now the Book's
// job (it owns an ordered map of levels), so a level itself only needs
// strict admission-order FIFO with O(1) append/pop-head and O(1)
// remove-by-id. container/list plus an id→element index gives exactly
// that — the standard library's only FIFO-with-interior-removal
// primitive, used here because no pack library provides one (see
// DESIGN.md).
package pricelevel

import (
	"container/list"

	"ome/internal/fixedint"
	"ome/internal/order"
)

// PriceLevel is a FIFO queue of orders sharing one (side, price). Iteration
// order is head-to-tail = oldest-to-newest (spec.md §4.1).
type PriceLevel struct {
	Price fixedint.Uint256
	Side  order.Side

	orders *list.List
	index  map[order.OrderId]*list.Element
}

// New creates an empty level at the given price and side.
func New(price fixedint.Uint256, side order.Side) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Side:   side,
		orders: list.New(),
		index:  make(map[order.OrderId]*list.Element),
	}
}

// Len returns the number of resting orders in the level.
func (pl *PriceLevel) Len() int { return pl.orders.Len() }

// Empty reports whether the level has no resting orders — the condition
// under which the Book must remove the level entirely (spec.md §3: "no
// empty level is ever observable between operations").
func (pl *PriceLevel) Empty() bool { return pl.orders.Len() == 0 }

// Append adds an order to the tail in O(1) (spec.md §4.1).
func (pl *PriceLevel) Append(o *order.Order) {
	el := pl.orders.PushBack(o)
	pl.index[o.ID] = el
}

// PeekHead returns the oldest order without removing it, or nil if empty.
func (pl *PriceLevel) PeekHead() *order.Order {
	front := pl.orders.Front()
	if front == nil {
		return nil
	}
	return front.Value.(*order.Order)
}

// PopHead removes and returns the oldest order, or nil if empty.
func (pl *PriceLevel) PopHead() *order.Order {
	front := pl.orders.Front()
	if front == nil {
		return nil
	}
	o := front.Value.(*order.Order)
	pl.orders.Remove(front)
	delete(pl.index, o.ID)
	return o
}

// Get returns a resting order by id without removing it.
func (pl *PriceLevel) Get(id order.OrderId) (*order.Order, bool) {
	el, ok := pl.index[id]
	if !ok {
		return nil, false
	}
	return el.Value.(*order.Order), true
}

// Remove excises a specific order anywhere in the queue in O(1), given the
// level's own id index — spec.md §4.1's "remove by id must be O(log n) or
// O(1) amortized."
func (pl *PriceLevel) Remove(id order.OrderId) (*order.Order, bool) {
	el, ok := pl.index[id]
	if !ok {
		return nil, false
	}
	o := el.Value.(*order.Order)
	pl.orders.Remove(el)
	delete(pl.index, id)
	return o, true
}

// Orders returns the resting orders head-to-tail (oldest first). Used for
// snapshots, the Book's expiry sweep, and tests — the matching loop works
// head-at-a-time via PeekHead/PopHead/Remove.
func (pl *PriceLevel) Orders() []*order.Order {
	out := make([]*order.Order, 0, pl.orders.Len())
	for el := pl.orders.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.(*order.Order))
	}
	return out
}
