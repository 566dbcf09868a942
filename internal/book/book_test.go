package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ome/internal/fixedint"
	"ome/internal/internalerr"
	"ome/internal/order"
)

var market = order.Address{0xAA}

func mkOrder(idByte byte, side order.Side, price, amount uint64, expiration int64) *order.Order {
	var id order.OrderId
	id[31] = idByte
	amt := fixedint.UintFromUint64(amount)
	return &order.Order{
		ID:         id,
		Trader:     order.Address{idByte},
		Market:     market,
		Side:       side,
		Price:      fixedint.UintFromUint64(price),
		Amount:     amt,
		AmountLeft: amt,
		Expiration: expiration,
		Created:    0,
	}
}

func TestSubmitRestsWhenNoCross(t *testing.T) {
	b := New(market)
	class, events, err := b.Submit(mkOrder(1, order.Bid, 100, 10, 1000), 0)
	require.NoError(t, err)
	assert.Equal(t, Add, class)
	assert.Empty(t, events)

	snap := b.Snapshot()
	require.Len(t, snap.Bids, 1)
	assert.Equal(t, 1, snap.BidDepth)
	assert.True(t, snap.BestBid.Present)
	assert.True(t, snap.BestBid.Price.Eq(fixedint.UintFromUint64(100)))
	assert.False(t, snap.BestAsk.Present)
	assert.False(t, snap.Crossed)
}

func TestSubmitFullMatchSingleMaker(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Ask, 100, 10, 1000), 0)
	require.NoError(t, err)

	class, events, err := b.Submit(mkOrder(2, order.Bid, 100, 10, 1000), 0)
	require.NoError(t, err)
	assert.Equal(t, FullMatch, class)
	require.Len(t, events, 1)
	assert.True(t, events[0].Amount.Eq(fixedint.UintFromUint64(10)))
	assert.True(t, events[0].Price.Eq(fixedint.UintFromUint64(100)), "fill at maker's price")

	snap := b.Snapshot()
	assert.Empty(t, snap.Asks)
	assert.Empty(t, snap.Bids)
	assert.True(t, snap.LTP.Eq(fixedint.UintFromUint64(100)))
}

func TestSubmitPartialMatchLeavesRemainderResting(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Ask, 100, 4, 1000), 0)
	require.NoError(t, err)

	class, events, err := b.Submit(mkOrder(2, order.Bid, 100, 10, 1000), 0)
	require.NoError(t, err)
	assert.Equal(t, PartialMatch, class)
	require.Len(t, events, 1)
	assert.True(t, events[0].Amount.Eq(fixedint.UintFromUint64(4)))

	snap := b.Snapshot()
	assert.Empty(t, snap.Asks)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Orders[0].AmountLeft.Eq(fixedint.UintFromUint64(6)))
}

func TestPriceTimePriorityAcrossMakers(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Ask, 100, 5, 1000), 0) // first at 100
	require.NoError(t, err)
	_, _, err = b.Submit(mkOrder(2, order.Ask, 99, 5, 1000), 0) // better price, later
	require.NoError(t, err)
	_, _, err = b.Submit(mkOrder(3, order.Ask, 99, 5, 1000), 0) // same price, later still
	require.NoError(t, err)

	_, events, err := b.Submit(mkOrder(4, order.Bid, 100, 12, 1000), 0)
	require.NoError(t, err)
	require.Len(t, events, 3)
	// best price first (99 before 100), then FIFO within the 99 level.
	assert.Equal(t, byte(2), events[0].Maker.ID[31])
	assert.Equal(t, byte(3), events[1].Maker.ID[31])
	assert.Equal(t, byte(1), events[2].Maker.ID[31])
}

func TestSubmitRejectsWrongMarket(t *testing.T) {
	b := New(market)
	o := mkOrder(1, order.Bid, 100, 10, 1000)
	o.Market = order.Address{0xFF}
	_, _, err := b.Submit(o, 0)
	require.Error(t, err)
	assert.Equal(t, internalerr.KindInvalidOrder, internalerr.KindOf(err))
}

func TestSubmitRejectsZeroPriceOrAmount(t *testing.T) {
	b := New(market)
	zp := mkOrder(1, order.Bid, 0, 10, 1000)
	_, _, err := b.Submit(zp, 0)
	assert.Equal(t, internalerr.KindInvalidOrder, internalerr.KindOf(err))

	za := mkOrder(2, order.Bid, 100, 0, 1000)
	_, _, err = b.Submit(za, 0)
	assert.Equal(t, internalerr.KindInvalidOrder, internalerr.KindOf(err))
}

func TestSubmitRejectsAlreadyExpired(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Bid, 100, 10, 500), 1000)
	assert.Equal(t, internalerr.KindInvalidOrder, internalerr.KindOf(err))
}

func TestSubmitRejectsDuplicateID(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Bid, 100, 10, 1000), 0)
	require.NoError(t, err)
	_, _, err = b.Submit(mkOrder(1, order.Bid, 101, 5, 1000), 0)
	assert.Equal(t, internalerr.KindDuplicateOrder, internalerr.KindOf(err))
}

func TestExpiredRestingOrderIsSkippedNotMatched(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Ask, 100, 10, 500), 0)
	require.NoError(t, err)

	class, events, err := b.Submit(mkOrder(2, order.Bid, 100, 10, 2000), 600)
	require.NoError(t, err)
	assert.Equal(t, Add, class)
	assert.Empty(t, events, "expired maker must never be matched against")

	snap := b.Snapshot()
	assert.Empty(t, snap.Asks, "expired level is reaped on touch")
	require.Len(t, snap.Bids, 1)
}

func TestCancelRemovesRestingOrder(t *testing.T) {
	b := New(market)
	o := mkOrder(1, order.Bid, 100, 10, 1000)
	_, _, err := b.Submit(o, 0)
	require.NoError(t, err)

	require.NoError(t, b.Cancel(o.ID))
	snap := b.Snapshot()
	assert.Empty(t, snap.Bids)
	assert.Equal(t, 0, snap.BidDepth)
	assert.False(t, snap.BestBid.Present)
}

func TestCancelUnknownIDFails(t *testing.T) {
	b := New(market)
	var id order.OrderId
	id[0] = 0x42
	err := b.Cancel(id)
	assert.Equal(t, internalerr.KindNotFound, internalerr.KindOf(err))
}

func TestGetOrderReturnsCopy(t *testing.T) {
	b := New(market)
	o := mkOrder(1, order.Bid, 100, 10, 1000)
	_, _, err := b.Submit(o, 0)
	require.NoError(t, err)

	got, err := b.GetOrder(o.ID)
	require.NoError(t, err)
	assert.True(t, got.AmountLeft.Eq(fixedint.UintFromUint64(10)))

	got.AmountLeft = fixedint.UintFromUint64(1)
	again, err := b.GetOrder(o.ID)
	require.NoError(t, err)
	assert.True(t, again.AmountLeft.Eq(fixedint.UintFromUint64(10)), "mutating the returned order must not touch the book")
}

func TestReapExpiredSweepsBothSides(t *testing.T) {
	b := New(market)
	_, _, err := b.Submit(mkOrder(1, order.Bid, 100, 10, 500), 0)
	require.NoError(t, err)
	_, _, err = b.Submit(mkOrder(2, order.Ask, 200, 10, 500), 0)
	require.NoError(t, err)
	_, _, err = b.Submit(mkOrder(3, order.Bid, 90, 10, 5000), 0)
	require.NoError(t, err)

	reaped := b.ReapExpired(600)
	assert.Equal(t, 2, reaped)

	snap := b.Snapshot()
	assert.Empty(t, snap.Asks)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Eq(fixedint.UintFromUint64(90)))
}

func TestSpreadPresentOnlyWhenBothSidesNonEmpty(t *testing.T) {
	b := New(market)
	snap := b.Snapshot()
	assert.False(t, snap.SpreadPresent)

	_, _, err := b.Submit(mkOrder(1, order.Bid, 95, 10, 1000), 0)
	require.NoError(t, err)
	snap = b.Snapshot()
	assert.False(t, snap.SpreadPresent)

	_, _, err = b.Submit(mkOrder(2, order.Ask, 105, 10, 1000), 0)
	require.NoError(t, err)
	snap = b.Snapshot()
	require.True(t, snap.SpreadPresent)
	assert.Equal(t, "10", snap.Spread.Dec())
	assert.False(t, snap.Crossed)
}
