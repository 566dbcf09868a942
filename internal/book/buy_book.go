package book

import "ome/internal/pricelevel"

// bidLess orders the bid side highest price first: the teacher's
// BuyBook.Less used "a.price > b.price" for the same reason (the highest bid
// is the first candidate a sell aggressor should cross). Time priority
// within a price is the PriceLevel's job (its FIFO list) now, not the
// tree's — a tree node here is one whole price level, not one order.
func bidLess(a, b *pricelevel.PriceLevel) bool {
	return a.Price.Gt(b.Price)
}
