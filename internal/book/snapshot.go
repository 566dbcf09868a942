package book

import (
	"github.com/tidwall/btree"

	"ome/internal/fixedint"
	"ome/internal/order"
	"ome/internal/pricelevel"
)

// LevelSnapshot is a read-only copy of one price level's resting orders,
// oldest first.
type LevelSnapshot struct {
	Price  fixedint.Uint256
	Orders []order.Order
}

// Snapshot is a read-only copy of a book's entire visible state (spec.md
// §4.5's book_snapshot query). Bids are price-descending, Asks
// price-ascending — each side's natural crossing order.
type Snapshot struct {
	Market   order.Address
	Bids     []LevelSnapshot
	Asks     []LevelSnapshot
	LTP      fixedint.Uint256
	BestBid  OptionalPrice
	BestAsk  OptionalPrice
	BidDepth int
	AskDepth int
	// Crossed is always false for a book at rest: Submit never returns
	// with a resting order still crossable (spec.md §3, invariant 4).
	Crossed bool
	// Spread is BestAsk - BestBid. Present only when both sides are
	// non-empty.
	Spread        fixedint.Int256
	SpreadPresent bool
}

// Snapshot copies out the book's full visible state under whatever lock the
// caller (internal/registry) is holding for the read.
func (b *Book) Snapshot() Snapshot {
	snap := Snapshot{
		Market:   b.Market,
		LTP:      b.ltp,
		BestBid:  b.bestBid,
		BestAsk:  b.bestAsk,
		BidDepth: b.bidDepth,
		AskDepth: b.askDepth,
	}
	snap.Bids = levelSnapshots(b.bids)
	snap.Asks = levelSnapshots(b.asks)
	if b.bestBid.Present && b.bestAsk.Present {
		spread, err := fixedint.Int256FromUint256(b.bestAsk.Price, b.bestBid.Price)
		if err == nil {
			snap.Spread = spread
			snap.SpreadPresent = true
		}
	}
	return snap
}

func levelSnapshots(tree *btree.BTreeG[*pricelevel.PriceLevel]) []LevelSnapshot {
	out := make([]LevelSnapshot, 0, tree.Len())
	tree.Scan(func(level *pricelevel.PriceLevel) bool {
		resting := level.Orders()
		orders := make([]order.Order, 0, len(resting))
		for _, o := range resting {
			orders = append(orders, *o)
		}
		out = append(out, LevelSnapshot{Price: level.Price, Orders: orders})
		return true
	})
	return out
}
