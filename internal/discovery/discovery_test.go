package discovery

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ome/internal/book"
	"ome/internal/order"
	"ome/internal/registry"
)

type fixedClock int64

func (f fixedClock) Now() int64 { return int64(f) }

func TestSeedCreatesMarketsAndReplaysOrders(t *testing.T) {
	marketHex := (order.Address{0x01}).Hex()

	mux := http.NewServeMux()
	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"markets":["%s"]}`, marketHex)
	})
	mux.HandleFunc("/book/"+marketHex, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `[
			{"user":"0x0000000000000000000000000000000000000002","target_tracer":"`+marketHex+`","side":"Bid","price":"100","amount":"5","expiration":5000,"created":2},
			{"user":"0x0000000000000000000000000000000000000003","target_tracer":"`+marketHex+`","side":"Bid","price":"100","amount":"5","expiration":5000,"created":1}
		]`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := New(Config{
		KnownMarketsURL: srv.URL + "/markets",
		ExternalBookURL: srv.URL + "/book",
		HTTPTimeout:     time.Second,
	}, fixedClock(0))

	reg := registry.New()
	require.NoError(t, d.Seed(context.Background(), reg))

	assert.ElementsMatch(t, []order.Address{{0x01}}, reg.ListMarkets())

	var snap book.Snapshot
	require.NoError(t, reg.WithBook(order.Address{0x01}, func(bk *book.Book) error {
		snap = bk.Snapshot()
		return nil
	}))
	require.Len(t, snap.Bids, 1, "both resting orders share price 100, so they collapse into one level")
	assert.Equal(t, 2, snap.BidDepth)
	// created=1 admitted before created=2, so it must be head of the level.
	assert.Equal(t, order.Address{0x03}, snap.Bids[0].Orders[0].Trader)
	assert.Equal(t, order.Address{0x02}, snap.Bids[0].Orders[1].Trader)
}

func TestSeedSkipsUnreachableMarketBook(t *testing.T) {
	marketHex := (order.Address{0x09}).Hex()

	mux := http.NewServeMux()
	mux.HandleFunc("/markets", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"markets":["%s"]}`, marketHex)
	})
	mux.HandleFunc("/book/"+marketHex, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	d := New(Config{
		KnownMarketsURL: srv.URL + "/markets",
		ExternalBookURL: srv.URL + "/book",
		HTTPTimeout:     time.Second,
	}, fixedClock(0))

	reg := registry.New()
	require.NoError(t, d.Seed(context.Background(), reg))
	assert.ElementsMatch(t, []order.Address{{0x09}}, reg.ListMarkets(), "market is still created even if its book can't be fetched")
}
