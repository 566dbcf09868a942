// Package registry owns the map of markets → books and the locking
// discipline around them (spec.md §4.5/§5). fenrir's net.Server held a
// "clientSessions map[string]ClientSession" behind a single
// clientSessionsLock with atomic add/delete helper methods
// (internal/net/server.go); this generalizes that exact pattern one level
// up, from client sessions to markets, and adds per-book locking so two
// submits against different markets never block each other.
package registry

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"ome/internal/book"
	"ome/internal/internalerr"
	"ome/internal/order"
)

// entry pairs a book with the exclusive lock guarding its mutation. A
// sync.RWMutex lets concurrent book_snapshot/get_order reads proceed while
// still serializing writers against each other and against readers, the
// "with_book for shared read, with_book_mut for exclusive mutation" split
// spec.md §4.5 calls for.
type entry struct {
	mu sync.RWMutex
	bk *book.Book
}

// Registry is the process-wide map of market address to its book. Creating
// and destroying markets is guarded by a single lock (topLevel); once a
// market exists, further contention is scoped to that market's own entry
// lock, never the registry's.
type Registry struct {
	topLevel sync.RWMutex
	markets  map[order.Address]*entry
}

// New constructs an empty registry.
func New() *Registry {
	return &Registry{markets: make(map[order.Address]*entry)}
}

// CreateMarket registers a new, empty book for the given market address. It
// fails with AlreadyExists if the market is already registered (spec.md
// §4.5).
func (r *Registry) CreateMarket(market order.Address) error {
	r.topLevel.Lock()
	defer r.topLevel.Unlock()

	if _, exists := r.markets[market]; exists {
		return internalerr.New(internalerr.KindAlreadyExists, "market already registered")
	}
	r.markets[market] = &entry{bk: book.New(market)}
	log.Info().Str("market", market.Hex()).Msg("market created")
	return nil
}

// DestroyMarket removes a market's book entirely. It fails with NotFound if
// the market was never registered.
func (r *Registry) DestroyMarket(market order.Address) error {
	r.topLevel.Lock()
	defer r.topLevel.Unlock()

	if _, exists := r.markets[market]; !exists {
		return internalerr.New(internalerr.KindNotFound, "market not registered")
	}
	delete(r.markets, market)
	log.Info().Str("market", market.Hex()).Msg("market destroyed")
	return nil
}

// ListMarkets returns every registered market address, in no particular
// order.
func (r *Registry) ListMarkets() []order.Address {
	r.topLevel.RLock()
	defer r.topLevel.RUnlock()

	out := make([]order.Address, 0, len(r.markets))
	for addr := range r.markets {
		out = append(out, addr)
	}
	return out
}

func (r *Registry) lookup(market order.Address) (*entry, error) {
	r.topLevel.RLock()
	defer r.topLevel.RUnlock()

	e, ok := r.markets[market]
	if !ok {
		return nil, internalerr.New(internalerr.KindNotFound, "market not registered")
	}
	return e, nil
}

// WithBookMut runs fn with exclusive access to market's book. Returns
// NotFound if the market isn't registered.
func (r *Registry) WithBookMut(market order.Address, fn func(*book.Book) error) error {
	e, err := r.lookup(market)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.bk)
}

// WithBook runs fn with shared (read-only by convention) access to market's
// book. Multiple readers may proceed concurrently; they block only behind a
// writer.
func (r *Registry) WithBook(market order.Address, fn func(*book.Book) error) error {
	e, err := r.lookup(market)
	if err != nil {
		return err
	}
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.bk)
}

// Reconcile sweeps every registered book's expired resting orders (spec.md
// §4.6's reconciliation endpoint). It takes each book's exclusive lock in
// turn, so it never blocks the whole registry at once, only one market at a
// time. Returns the number of expired orders reaped across all markets.
func (r *Registry) Reconcile(ctx context.Context, now int64) (int, error) {
	total := 0
	for _, market := range r.ListMarkets() {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		err := r.WithBookMut(market, func(bk *book.Book) error {
			total += bk.ReapExpired(now)
			return nil
		})
		if err != nil {
			// A market destroyed mid-sweep is not a reconciliation
			// failure; skip it and continue with the rest.
			log.Warn().Str("market", market.Hex()).Err(err).Msg("skipping market during reconcile")
			continue
		}
	}
	return total, nil
}
