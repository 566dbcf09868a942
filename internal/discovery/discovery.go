// Package discovery implements the OME's inbound market discovery: at
// startup, fetch the known markets list and each market's resting orders
// from the operator's external book source, then seed a fresh Registry with
// them (spec.md §4.8/§6: "the seeded book must satisfy all §3 invariants
// after ingestion"). fenrir has no analogous "pull state from an upstream
// on boot" step; this is grounded instead on PxPatel-Distributed-Matching-Engine's
// startup-seed pattern and built in fenrir's plain http.Client + zerolog
// idiom.
package discovery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"ome/internal/book"
	"ome/internal/order"
	"ome/internal/registry"
	"ome/internal/wire"
)

// Config points at the operator-provided discovery endpoints (spec.md §6).
type Config struct {
	KnownMarketsURL string
	ExternalBookURL string
	HTTPTimeout     time.Duration
}

// Clock supplies "now" for admission validation while seeding, so tests can
// use a fixed instant instead of the wall clock.
type Clock interface{ Now() int64 }

// Discoverer seeds a Registry from an external authoritative source.
type Discoverer struct {
	cfg    Config
	client *http.Client
	clock  Clock
}

// New constructs a Discoverer.
func New(cfg Config, clock Clock) *Discoverer {
	return &Discoverer{cfg: cfg, client: &http.Client{Timeout: cfg.HTTPTimeout}, clock: clock}
}

type knownMarketsResponse struct {
	Markets []order.Address `json:"markets"`
}

// Seed fetches the known markets list, then each market's resting orders,
// and replays them into reg in admission (created) order so price-time
// priority within a level is preserved exactly as it was upstream. A
// per-market failure is logged and skipped rather than aborting the whole
// startup — a single unreachable upstream book should not prevent the OME
// from serving the markets it could reach.
func (d *Discoverer) Seed(ctx context.Context, reg *registry.Registry) error {
	markets, err := d.fetchKnownMarkets(ctx)
	if err != nil {
		return fmt.Errorf("discovery: fetch known markets: %w", err)
	}

	for _, market := range markets {
		if err := reg.CreateMarket(market); err != nil {
			log.Warn().Str("market", market.Hex()).Err(err).Msg("market already exists, skipping creation")
		}

		orders, err := d.fetchExternalBook(ctx, market)
		if err != nil {
			log.Error().Str("market", market.Hex()).Err(err).Msg("failed to fetch external book, seeding with empty book")
			continue
		}

		sort.Slice(orders, func(i, j int) bool { return orders[i].Created < orders[j].Created })

		seeded := 0
		for i, dto := range orders {
			side, err := order.ParseSide(dto.Side)
			if err != nil {
				log.Warn().Str("market", market.Hex()).Str("side", dto.Side).Msg("skipping seed order with invalid side")
				continue
			}
			o := dto.ToOrder(side)
			if o.AmountLeft.Zero() {
				o.AmountLeft = o.Amount
			}
			if o.ID == (order.OrderId{}) {
				o.ID = order.DeriveID(o.Trader, o.Market, o.Side, o.Price, o.Amount, o.Expiration, o.Created, uint64(i))
			}

			now := d.clock.Now()
			err = reg.WithBookMut(market, func(bk *book.Book) error {
				_, _, submitErr := bk.Submit(&o, now)
				return submitErr
			})
			if err != nil {
				log.Warn().Str("market", market.Hex()).Str("order", o.ID.Hex()).Err(err).Msg("skipping seed order")
				continue
			}
			seeded++
		}
		log.Info().Str("market", market.Hex()).Int("seeded", seeded).Msg("market seeded from external book")
	}
	return nil
}

func (d *Discoverer) fetchKnownMarkets(ctx context.Context) ([]order.Address, error) {
	var out knownMarketsResponse
	if err := d.getJSON(ctx, d.cfg.KnownMarketsURL, &out); err != nil {
		return nil, err
	}
	return out.Markets, nil
}

func (d *Discoverer) fetchExternalBook(ctx context.Context, market order.Address) ([]wire.OrderDTO, error) {
	url := fmt.Sprintf("%s/%s", d.cfg.ExternalBookURL, market.Hex())
	var out []wire.OrderDTO
	if err := d.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Discoverer) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := d.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("discovery: %s returned status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
