package book

import "ome/internal/pricelevel"

// askLess orders the ask side lowest price first: the teacher's
// SellBook.Less used "a.price < b.price" for the same reason (the lowest ask
// is the first candidate a buy aggressor should cross).
func askLess(a, b *pricelevel.PriceLevel) bool {
	return a.Price.Lt(b.Price)
}
