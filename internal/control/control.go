// Package control implements the Submission API (spec.md §6) as a set of
// gin handlers. Grounded on DimaJoyti's auth handler style (a thin
// *xHandlers struct holding service dependencies, one method per route,
// c.ShouldBindJSON + c.JSON(status, gin.H{...}) throughout) — fenrir's own
// transport (internal/net/server.go) is a raw binary TCP protocol the spec
// replaces outright, so gin is adopted wholesale instead of adapted.
package control

import (
	"context"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"ome/internal/book"
	"ome/internal/internalerr"
	"ome/internal/obsv"
	"ome/internal/order"
	"ome/internal/registry"
	"ome/internal/sink"
	"ome/internal/wire"
)

// Clock supplies "now" for admission validation and cancellation
// timestamps.
type Clock interface{ Now() int64 }

// IDAllocator derives fresh order ids at admission time. A real *uint64
// counter would race across concurrent requests; nonce generation is left
// to the caller (order.DeriveID already folds in every other admission
// field, so a monotonic per-process counter is enough to guarantee
// uniqueness without a central allocator service).
type IDAllocator interface{ Next() uint64 }

// Handlers wires the Registry and ExecutionSink into gin routes.
type Handlers struct {
	reg   *registry.Registry
	snk   *sink.Sink
	clock Clock
	ids   IDAllocator
	metr  *obsv.Metrics
}

// New constructs the route handlers.
func New(reg *registry.Registry, snk *sink.Sink, clock Clock, ids IDAllocator, metr *obsv.Metrics) *Handlers {
	return &Handlers{reg: reg, snk: snk, clock: clock, ids: ids, metr: metr}
}

// Router builds the full gin engine: the Submission API plus the ambient
// /healthz, /metrics and /book/reconcile endpoints (SPEC_FULL.md §4.8).
func (h *Handlers) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	r.GET("/healthz", h.healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/book", h.listMarkets)
	r.POST("/book", h.createMarket)
	r.POST("/book/reconcile", h.reconcile)
	r.GET("/book/:market", h.getSnapshot)
	r.POST("/book/:market/order", h.submitOrder)
	r.GET("/book/:market/order", h.listOrders)
	r.GET("/book/:market/order/:order_id", h.getOrder)
	r.DELETE("/book/:market/order/:order_id", h.cancelOrder)

	return r
}

// requestLogger tags every request with a correlation id (so a request that
// touches the registry, the sink, and a log line can be tied back together)
// and logs the outcome once the handler returns.
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		reqID := uuid.New().String()
		c.Set(requestIDKey, reqID)
		c.Writer.Header().Set("X-Request-Id", reqID)

		c.Next()

		log.Info().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("request handled")
	}
}

const requestIDKey = "request_id"

func (h *Handlers) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func writeErr(c *gin.Context, err error) {
	kind := internalerr.KindOf(err)
	log.Error().Err(err).Str("kind", kind.String()).Msg("request failed")
	c.JSON(kind.HTTPStatus(), gin.H{"error": err.Error(), "kind": kind.String()})
}

func parseMarket(c *gin.Context) (order.Address, bool) {
	raw := c.Param("market")
	if !isHexAddress(raw) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid market address"})
		return order.Address{}, false
	}
	return common.HexToAddress(raw), true
}

func isHexAddress(s string) bool {
	if len(s) != 42 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return false
	}
	for _, c := range s[2:] {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')) {
			return false
		}
	}
	return true
}

func (h *Handlers) listMarkets(c *gin.Context) {
	markets := h.reg.ListMarkets()
	out := make([]string, 0, len(markets))
	for _, m := range markets {
		out = append(out, m.Hex())
	}
	c.JSON(http.StatusOK, gin.H{"markets": out})
}

type createMarketRequest struct {
	Market order.Address `json:"market"`
}

func (h *Handlers) createMarket(c *gin.Context) {
	var req createMarketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErr(c, internalerr.Wrap(internalerr.KindInvalidOrder, "malformed request body", err))
		return
	}
	if err := h.reg.CreateMarket(req.Market); err != nil {
		writeErr(c, err)
		return
	}
	h.metr.MarketsCreated.Inc()
	c.JSON(http.StatusOK, gin.H{"market": req.Market.Hex()})
}

func (h *Handlers) getSnapshot(c *gin.Context) {
	market, ok := parseMarket(c)
	if !ok {
		return
	}
	var snap book.Snapshot
	err := h.reg.WithBook(market, func(bk *book.Book) error {
		snap = bk.Snapshot()
		return nil
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.FromSnapshot(snap))
}

func (h *Handlers) submitOrder(c *gin.Context) {
	market, ok := parseMarket(c)
	if !ok {
		return
	}
	var dto wire.OrderDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		writeErr(c, internalerr.Wrap(internalerr.KindInvalidOrder, "malformed order body", err))
		return
	}
	side, err := order.ParseSide(dto.Side)
	if err != nil {
		writeErr(c, internalerr.Wrap(internalerr.KindInvalidOrder, "invalid side", err))
		return
	}

	now := h.clock.Now()
	o := dto.ToOrder(side)
	o.Market = market
	o.Created = now
	o.AmountLeft = o.Amount
	o.ID = order.DeriveID(o.Trader, o.Market, o.Side, o.Price, o.Amount, o.Expiration, o.Created, h.ids.Next())

	var class book.Classification
	var events []book.MatchEvent
	err = h.reg.WithBookMut(market, func(bk *book.Book) error {
		var submitErr error
		class, events, submitErr = bk.Submit(&o, now)
		if submitErr != nil {
			return submitErr
		}
		// Enqueue while the book's lock is still held, so batches from one
		// book reach the sink in the order the book produced them.
		if len(events) > 0 {
			batch := sink.Batch{Market: market}
			for _, ev := range events {
				batch.Makers = append(batch.Makers, ev.Maker)
				batch.Takers = append(batch.Takers, ev.Taker)
			}
			if err := h.snk.Enqueue(c.Request.Context(), batch); err != nil {
				log.Error().Err(err).Msg("failed to enqueue match batch: request cancelled before sink accepted it")
			}
		}
		return nil
	})
	if err != nil {
		writeErr(c, err)
		return
	}

	h.metr.OrdersSubmitted.Inc()
	switch class {
	case book.PartialMatch, book.FullMatch:
		h.metr.OrdersMatched.Inc()
	}

	c.JSON(http.StatusOK, gin.H{
		"classification": class.String(),
		"order":          wire.FromOrder(o),
	})
}

func (h *Handlers) getOrder(c *gin.Context) {
	market, ok := parseMarket(c)
	if !ok {
		return
	}
	orderID := common.HexToHash(c.Param("order_id"))

	var o order.Order
	err := h.reg.WithBook(market, func(bk *book.Book) error {
		var getErr error
		o, getErr = bk.GetOrder(orderID)
		return getErr
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, wire.FromOrder(o))
}

func (h *Handlers) listOrders(c *gin.Context) {
	market, ok := parseMarket(c)
	if !ok {
		return
	}
	var snap book.Snapshot
	err := h.reg.WithBook(market, func(bk *book.Book) error {
		snap = bk.Snapshot()
		return nil
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	var out []wire.OrderDTO
	for _, lvl := range snap.Bids {
		for _, o := range lvl.Orders {
			out = append(out, wire.FromOrder(o))
		}
	}
	for _, lvl := range snap.Asks {
		for _, o := range lvl.Orders {
			out = append(out, wire.FromOrder(o))
		}
	}
	c.JSON(http.StatusOK, gin.H{"orders": out})
}

func (h *Handlers) cancelOrder(c *gin.Context) {
	market, ok := parseMarket(c)
	if !ok {
		return
	}
	orderID := common.HexToHash(c.Param("order_id"))

	now := h.clock.Now()
	err := h.reg.WithBookMut(market, func(bk *book.Book) error {
		return bk.Cancel(orderID)
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	h.metr.OrdersCancelled.Inc()
	c.JSON(http.StatusOK, gin.H{"cancelled": now})
}

// reconcile triggers the registry-wide expired-order sweep on demand
// (spec.md §4.5/§6).
func (h *Handlers) reconcile(c *gin.Context) {
	reaped, err := h.reg.Reconcile(context.Background(), h.clock.Now())
	if err != nil {
		writeErr(c, internalerr.Wrap(internalerr.KindInternal, "reconcile failed", err))
		return
	}
	if reaped > 0 {
		h.metr.ReconcileReaped.Add(float64(reaped))
	}
	c.JSON(http.StatusOK, gin.H{"reaped": reaped})
}
