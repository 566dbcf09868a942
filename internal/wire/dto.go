// Package wire holds the JSON wire types shared by the control plane
// (encoding responses) and discovery (decoding seed data from the external
// book source) — spec.md §6. Field names follow spec.md's Open Question (a)
// decision: `user`/`target_tracer` are canonical and always emitted;
// `address`/`market` are accepted as decode-only aliases (see DESIGN.md).
package wire

import (
	"encoding/json"

	"ome/internal/book"
	"ome/internal/fixedint"
	"ome/internal/order"
)

// OrderDTO is the wire shape of an Order in every request and response body
// that carries one.
type OrderDTO struct {
	ID         order.OrderId    `json:"id,omitempty"`
	User       order.Address    `json:"user"`
	Market     order.Address    `json:"target_tracer"`
	Side       string           `json:"side"`
	Price      fixedint.Uint256 `json:"price"`
	Amount     fixedint.Uint256 `json:"amount"`
	AmountLeft fixedint.Uint256 `json:"amount_left,omitempty"`
	Expiration int64            `json:"expiration"`
	Created    int64            `json:"created,omitempty"`
	SignedData string           `json:"signed_data,omitempty"`
}

// UnmarshalJSON accepts both spellings of Order's two address fields
// (spec.md §6's Open Question (a)): `user`/`target_tracer` are tried first,
// falling back to `address`/`market` only when the canonical field is
// absent.
func (o *OrderDTO) UnmarshalJSON(data []byte) error {
	type alias OrderDTO
	aux := struct {
		Address *order.Address `json:"address"`
		Market2 *order.Address `json:"market"`
		*alias
	}{alias: (*alias)(o)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	var zero order.Address
	if aux.Address != nil && o.User == zero {
		o.User = *aux.Address
	}
	if aux.Market2 != nil && o.Market == zero {
		o.Market = *aux.Market2
	}
	return nil
}

// ToOrder converts a decoded DTO into a core Order. Side must already have
// been validated by the caller (order.ParseSide).
func (o OrderDTO) ToOrder(side order.Side) order.Order {
	var signed order.SignedData
	copy(signed[:], decodeHexSignature(o.SignedData))
	return order.Order{
		ID:         o.ID,
		Trader:     o.User,
		Market:     o.Market,
		Side:       side,
		Price:      o.Price,
		Amount:     o.Amount,
		AmountLeft: o.AmountLeft,
		Expiration: o.Expiration,
		Created:    o.Created,
		SignedData: signed,
	}
}

// FromOrder builds the canonical wire representation of a core Order.
func FromOrder(o order.Order) OrderDTO {
	return OrderDTO{
		ID:         o.ID,
		User:       o.Trader,
		Market:     o.Market,
		Side:       o.Side.String(),
		Price:      o.Price,
		Amount:     o.Amount,
		AmountLeft: o.AmountLeft,
		Expiration: o.Expiration,
		Created:    o.Created,
		SignedData: encodeHexSignature(o.SignedData),
	}
}

func decodeHexSignature(s string) []byte {
	if len(s) < 2 || s[0] != '0' || (s[1] != 'x' && s[1] != 'X') {
		return nil
	}
	out := make([]byte, 0, (len(s)-2)/2)
	for i := 2; i+1 < len(s); i += 2 {
		out = append(out, hexByte(s[i], s[i+1]))
	}
	return out
}

func hexByte(hi, lo byte) byte {
	return hexNibble(hi)<<4 | hexNibble(lo)
}

func hexNibble(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10
	default:
		return 0
	}
}

func encodeHexSignature(sig order.SignedData) string {
	const hexDigits = "0123456789abcdef"
	out := make([]byte, 2+len(sig)*2)
	out[0], out[1] = '0', 'x'
	for i, b := range sig {
		out[2+i*2] = hexDigits[b>>4]
		out[2+i*2+1] = hexDigits[b&0x0f]
	}
	return string(out)
}

// LevelSnapshotDTO is the wire shape of one price level in a book snapshot.
type LevelSnapshotDTO struct {
	Price  fixedint.Uint256 `json:"price"`
	Orders []OrderDTO       `json:"orders"`
}

// SnapshotDTO is the wire shape of `GET /book/{market}` (spec.md §3/§6).
type SnapshotDTO struct {
	Market  order.Address      `json:"target_tracer"`
	Bids    []LevelSnapshotDTO `json:"bids"`
	Asks    []LevelSnapshotDTO `json:"asks"`
	LTP     fixedint.Uint256   `json:"ltp"`
	BestBid *fixedint.Uint256  `json:"best_bid"`
	BestAsk *fixedint.Uint256  `json:"best_ask"`
	Depth   [2]int             `json:"depth"` // [bidDepth, askDepth]
	Crossed bool               `json:"crossed"`
	Spread  *fixedint.Int256   `json:"spread,omitempty"`
}

// FromSnapshot converts a book.Snapshot into its wire representation.
func FromSnapshot(s book.Snapshot) SnapshotDTO {
	dto := SnapshotDTO{
		Market:  s.Market,
		LTP:     s.LTP,
		Depth:   [2]int{s.BidDepth, s.AskDepth},
		Crossed: s.Crossed,
	}
	dto.Bids = levelDTOs(s.Bids)
	dto.Asks = levelDTOs(s.Asks)
	if s.BestBid.Present {
		p := s.BestBid.Price
		dto.BestBid = &p
	}
	if s.BestAsk.Present {
		p := s.BestAsk.Price
		dto.BestAsk = &p
	}
	if s.SpreadPresent {
		sp := s.Spread
		dto.Spread = &sp
	}
	return dto
}

func levelDTOs(levels []book.LevelSnapshot) []LevelSnapshotDTO {
	out := make([]LevelSnapshotDTO, 0, len(levels))
	for _, lvl := range levels {
		orders := make([]OrderDTO, 0, len(lvl.Orders))
		for _, o := range lvl.Orders {
			orders = append(orders, FromOrder(o))
		}
		out = append(out, LevelSnapshotDTO{Price: lvl.Price, Orders: orders})
	}
	return out
}
