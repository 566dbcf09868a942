package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ome/internal/book"
	"ome/internal/fixedint"
	"ome/internal/order"
)

func TestOrderDTODecodesCanonicalFields(t *testing.T) {
	body := `{"user":"0x0000000000000000000000000000000000000001","target_tracer":"0x0000000000000000000000000000000000000002","side":"Bid","price":"100","amount":"10","expiration":1000}`
	var dto OrderDTO
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, order.Address{1}, dto.User)
	assert.Equal(t, order.Address{2}, dto.Market)
}

func TestOrderDTODecodesAliasFields(t *testing.T) {
	body := `{"address":"0x0000000000000000000000000000000000000001","market":"0x0000000000000000000000000000000000000002","side":"Ask","price":"100","amount":"10","expiration":1000}`
	var dto OrderDTO
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, order.Address{1}, dto.User)
	assert.Equal(t, order.Address{2}, dto.Market)
}

func TestOrderDTOCanonicalFieldWinsOverAlias(t *testing.T) {
	body := `{"user":"0x0000000000000000000000000000000000000003","address":"0x0000000000000000000000000000000000000001","target_tracer":"0x0000000000000000000000000000000000000004","market":"0x0000000000000000000000000000000000000002","side":"Ask","price":"100","amount":"10","expiration":1000}`
	var dto OrderDTO
	require.NoError(t, json.Unmarshal([]byte(body), &dto))
	assert.Equal(t, order.Address{3}, dto.User)
	assert.Equal(t, order.Address{4}, dto.Market)
}

func TestOrderRoundTrip(t *testing.T) {
	o := order.Order{
		Trader:     order.Address{9},
		Market:     order.Address{8},
		Side:       order.Bid,
		Price:      fixedint.UintFromUint64(100),
		Amount:     fixedint.UintFromUint64(10),
		AmountLeft: fixedint.UintFromUint64(5),
		Expiration: 1000,
		Created:    500,
	}
	dto := FromOrder(o)
	data, err := json.Marshal(dto)
	require.NoError(t, err)

	var decoded OrderDTO
	require.NoError(t, json.Unmarshal(data, &decoded))
	side, err := order.ParseSide(decoded.Side)
	require.NoError(t, err)
	back := decoded.ToOrder(side)
	assert.Equal(t, o.Trader, back.Trader)
	assert.Equal(t, o.Market, back.Market)
	assert.True(t, o.Price.Eq(back.Price))
	assert.True(t, o.AmountLeft.Eq(back.AmountLeft))
}

func TestFromSnapshotOmitsAbsentBestPrices(t *testing.T) {
	snap := book.Snapshot{Market: order.Address{1}}
	dto := FromSnapshot(snap)
	assert.Nil(t, dto.BestBid)
	assert.Nil(t, dto.BestAsk)
	assert.Nil(t, dto.Spread)
	assert.False(t, dto.Crossed)
}
