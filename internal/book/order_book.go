// Package book implements a single market's order book: two price-ordered
// sides of FIFO price levels, matched at admission time under price-time
// priority (spec.md §4). The teacher's Product/ProductBook/Book trio modeled
// one process hosting many float-priced books in a single map; that
// multi-market concern now belongs to internal/registry, so a Book here is
// exactly one market's state, built on exact 256-bit arithmetic instead of
// float64 (see DESIGN.md for why Product was dropped rather than adapted).
package book

import (
	"fmt"

	"github.com/tidwall/btree"

	"ome/internal/fixedint"
	"ome/internal/internalerr"
	"ome/internal/order"
	"ome/internal/pricelevel"
)

// Classification reports what Submit did with an incoming order, the three
// outcomes spec.md §4.2 names.
type Classification int

const (
	Add Classification = iota
	PartialMatch
	FullMatch
)

func (c Classification) String() string {
	switch c {
	case Add:
		return "Add"
	case PartialMatch:
		return "PartialMatch"
	case FullMatch:
		return "FullMatch"
	default:
		return "Unknown"
	}
}

// MatchEvent is one maker/taker fill produced by a single Submit call. Maker
// and Taker are value copies — snapshots, not live references — so the
// ExecutionSink can serialize them long after the Book has moved on to
// further mutation. Maker is copied just before this fill is applied to it
// (its AmountLeft still includes Amount); Taker is copied just after.
type MatchEvent struct {
	Maker  order.Order
	Taker  order.Order
	Price  fixedint.Uint256
	Amount fixedint.Uint256
}

// OptionalPrice is a price that may be absent (an empty side has no best).
type OptionalPrice struct {
	Price   fixedint.Uint256
	Present bool
}

// Book is one market's resting order state. Every mutating method assumes
// the caller (internal/registry) holds the per-market exclusive lock; Book
// itself does no locking — "two submit operations against the same book
// never interleave" is a Registry-level guarantee, not the book's own.
type Book struct {
	Market order.Address

	bids *btree.BTreeG[*pricelevel.PriceLevel]
	asks *btree.BTreeG[*pricelevel.PriceLevel]

	// index maps a resting order id directly to the level holding it, so
	// Cancel and GetOrder never scan a side to find their order.
	index map[order.OrderId]*pricelevel.PriceLevel

	ltp      fixedint.Uint256
	bidDepth int
	askDepth int
	bestBid  OptionalPrice
	bestAsk  OptionalPrice
}

// New constructs an empty book for the given market.
func New(market order.Address) *Book {
	return &Book{
		Market: market,
		bids:   btree.NewBTreeG[*pricelevel.PriceLevel](bidLess),
		asks:   btree.NewBTreeG[*pricelevel.PriceLevel](askLess),
		index:  make(map[order.OrderId]*pricelevel.PriceLevel),
	}
}

func (b *Book) sideTree(s order.Side) *btree.BTreeG[*pricelevel.PriceLevel] {
	if s == order.Bid {
		return b.bids
	}
	return b.asks
}

func (b *Book) levelKey(price fixedint.Uint256, s order.Side) *pricelevel.PriceLevel {
	return &pricelevel.PriceLevel{Price: price, Side: s}
}

func (b *Book) recomputeBest(s order.Side) {
	tree := b.sideTree(s)
	top, ok := tree.Min()
	opt := OptionalPrice{}
	if ok {
		opt = OptionalPrice{Price: top.Price, Present: true}
	}
	if s == order.Bid {
		b.bestBid = opt
	} else {
		b.bestAsk = opt
	}
}

func (b *Book) adjustDepth(s order.Side, delta int) {
	if s == order.Bid {
		b.bidDepth += delta
	} else {
		b.askDepth += delta
	}
}

// validateAdmission runs spec.md §4.2's pre-mutation checks, in order, so a
// rejected order leaves the book byte-for-byte unchanged.
func (b *Book) validateAdmission(o *order.Order, now int64) error {
	if o.Market != b.Market {
		return internalerr.Wrap(internalerr.KindInvalidOrder,
			fmt.Sprintf("order market %s does not match book market %s", o.Market.Hex(), b.Market.Hex()), nil)
	}
	if o.Price.Zero() {
		return internalerr.New(internalerr.KindInvalidOrder, "price must be greater than zero")
	}
	if o.Amount.Zero() {
		return internalerr.New(internalerr.KindInvalidOrder, "amount must be greater than zero")
	}
	if o.Expiration <= now {
		return internalerr.New(internalerr.KindInvalidOrder, "expiration must be in the future")
	}
	if o.Side != order.Bid && o.Side != order.Ask {
		return internalerr.New(internalerr.KindInvalidOrder, "side must be Bid or Ask")
	}
	if _, exists := b.index[o.ID]; exists {
		return internalerr.New(internalerr.KindDuplicateOrder, "order id already resting")
	}
	return nil
}

// crosses reports whether an aggressor on side s at price p crosses a
// resting level at restingPrice on the opposite side.
func crosses(s order.Side, p, restingPrice fixedint.Uint256) bool {
	if s == order.Bid {
		return p.Cmp(restingPrice) >= 0
	}
	return p.Cmp(restingPrice) <= 0
}

// Submit admits o into the book, matching it against the opposite side under
// price-time priority before resting any remainder (spec.md §4.2). o must
// already carry its final ID, Created and AmountLeft (= Amount) — assigning
// those is the control plane's job, not the book's, so Book stays a pure,
// network-free data structure (SPEC_FULL.md §4.3).
func (b *Book) Submit(o *order.Order, now int64) (Classification, []MatchEvent, error) {
	if err := b.validateAdmission(o, now); err != nil {
		return 0, nil, err
	}

	opposite := o.Side.Opposite()
	oppositeTree := b.sideTree(opposite)
	var events []MatchEvent

	for o.Resting() {
		level, ok := oppositeTree.Min()
		if !ok {
			break
		}
		if !crosses(o.Side, o.Price, level.Price) {
			break
		}
		resting := level.PeekHead()
		if resting == nil {
			oppositeTree.Delete(level)
			continue
		}
		if resting.Expired(now) {
			level.PopHead()
			delete(b.index, resting.ID)
			b.adjustDepth(opposite, -1)
			if level.Empty() {
				oppositeTree.Delete(level)
			}
			b.recomputeBest(opposite)
			continue
		}

		fill := fixedint.Min(o.AmountLeft, resting.AmountLeft)
		makerSnapshot := *resting
		if err := resting.Fill(fill); err != nil {
			return 0, nil, internalerr.Wrap(internalerr.KindInternal, "maker fill overflow", err)
		}
		if err := o.Fill(fill); err != nil {
			return 0, nil, internalerr.Wrap(internalerr.KindInternal, "taker fill overflow", err)
		}
		b.ltp = resting.Price
		events = append(events, MatchEvent{
			Maker:  makerSnapshot,
			Taker:  *o,
			Price:  resting.Price,
			Amount: fill,
		})

		if !resting.Resting() {
			level.PopHead()
			delete(b.index, resting.ID)
			b.adjustDepth(opposite, -1)
			if level.Empty() {
				oppositeTree.Delete(level)
			}
			b.recomputeBest(opposite)
		}
	}

	if o.Resting() {
		mySide := b.sideTree(o.Side)
		key := b.levelKey(o.Price, o.Side)
		level, ok := mySide.GetMut(key)
		if !ok {
			level = pricelevel.New(o.Price, o.Side)
			mySide.Set(level)
		}
		level.Append(o)
		b.index[o.ID] = level
		b.adjustDepth(o.Side, 1)
		b.recomputeBest(o.Side)
	}

	switch {
	case !o.Resting() && len(events) > 0:
		return FullMatch, events, nil
	case len(events) > 0:
		return PartialMatch, events, nil
	default:
		return Add, events, nil
	}
}

// Cancel removes a resting order by id (spec.md §4.3).
func (b *Book) Cancel(id order.OrderId) error {
	level, ok := b.index[id]
	if !ok {
		return internalerr.New(internalerr.KindNotFound, "order not found")
	}
	removed, ok := level.Remove(id)
	if !ok {
		return internalerr.Wrap(internalerr.KindInternal, "index referenced an order absent from its level", nil)
	}
	delete(b.index, id)
	b.adjustDepth(removed.Side, -1)
	if level.Empty() {
		b.sideTree(removed.Side).Delete(level)
	}
	b.recomputeBest(removed.Side)
	return nil
}

// GetOrder returns a copy of a resting order by id.
func (b *Book) GetOrder(id order.OrderId) (order.Order, error) {
	level, ok := b.index[id]
	if !ok {
		return order.Order{}, internalerr.New(internalerr.KindNotFound, "order not found")
	}
	o, ok := level.Get(id)
	if !ok {
		return order.Order{}, internalerr.Wrap(internalerr.KindInternal, "index referenced an order absent from its level", nil)
	}
	return *o, nil
}

// ReapExpired sweeps every resting order on both sides and removes the
// expired ones. Submit's own inline check already guarantees an expired
// order can never be matched against, so this is purely off-path
// housekeeping a Registry loop can call periodically to bound memory from
// orders that expire without ever being touched again.
func (b *Book) ReapExpired(now int64) int {
	return b.reapSide(b.bids, order.Bid, now) + b.reapSide(b.asks, order.Ask, now)
}

func (b *Book) reapSide(tree *btree.BTreeG[*pricelevel.PriceLevel], s order.Side, now int64) int {
	reaped := 0
	var empties []*pricelevel.PriceLevel
	tree.Scan(func(level *pricelevel.PriceLevel) bool {
		for _, o := range level.Orders() {
			if o.Expired(now) {
				level.Remove(o.ID)
				delete(b.index, o.ID)
				b.adjustDepth(s, -1)
				reaped++
			}
		}
		if level.Empty() {
			empties = append(empties, level)
		}
		return true
	})
	for _, level := range empties {
		tree.Delete(level)
	}
	if reaped > 0 {
		b.recomputeBest(s)
	}
	return reaped
}
