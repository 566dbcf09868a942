// Package sink implements the ExecutionSink: the single consumer that
// forwards matched order pairs to the external Executioner over HTTP
// (spec.md §4.7). fenrir's net.Server ran its own worker pool under a
// tomb.Tomb to fan work in; this inverts that shape to fan a single stream
// of batches out to one HTTP endpoint, but keeps the same
// tomb-supervised-goroutine-plus-buffered-channel structure
// (internal/worker.go, internal/net/server.go).
package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"

	"ome/internal/order"
	"ome/internal/wire"
)

// Batch is one submit's worth of matched pairs, sent to the Executioner in
// a single HTTP request (spec.md §4.7: "matched pairs are sent as one
// batch per submit, never per individual fill").
type Batch struct {
	Market order.Address `json:"target_tracer"`
	Makers []order.Order `json:"makers"`
	Takers []order.Order `json:"takers"`
}

// MarshalJSON encodes each maker and taker in the canonical order wire shape
// (wire.OrderDTO), the same field names the control plane emits.
func (b Batch) MarshalJSON() ([]byte, error) {
	out := struct {
		Market order.Address   `json:"target_tracer"`
		Makers []wire.OrderDTO `json:"makers"`
		Takers []wire.OrderDTO `json:"takers"`
	}{Market: b.Market}
	for _, o := range b.Makers {
		out.Makers = append(out.Makers, wire.FromOrder(o))
	}
	for _, o := range b.Takers {
		out.Takers = append(out.Takers, wire.FromOrder(o))
	}
	return json.Marshal(out)
}

// Config controls the sink's HTTP client and retry behavior.
type Config struct {
	ExecutionerURL  string
	QueueSize       int
	RequestTimeout  time.Duration
	MaxElapsedRetry time.Duration
}

// Sink queues batches and forwards them to the Executioner from a single
// consumer goroutine, so two concurrent Submit calls never race each other's
// HTTP requests out of order.
type Sink struct {
	cfg    Config
	client *http.Client
	queue  chan Batch
}

// New constructs a Sink. Call Run to start its consumer goroutine under a
// tomb.Tomb.
func New(cfg Config) *Sink {
	return &Sink{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		queue:  make(chan Batch, cfg.QueueSize),
	}
}

// Enqueue blocks until the batch is accepted onto the queue or the context
// is cancelled — the backpressure spec.md §5 requires: "submit blocks the
// calling request rather than dropping a match or exceeding the queue."
func (s *Sink) Enqueue(ctx context.Context, batch Batch) error {
	if len(batch.Makers) == 0 && len(batch.Takers) == 0 {
		return nil
	}
	select {
	case s.queue <- batch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains the queue until t dies, POSTing each batch to the Executioner
// with bounded exponential backoff on transient failures. It never returns
// until the tomb is dying, matching fenrir's WorkerPool.Setup shape
// (internal/worker.go).
func (s *Sink) Run(t *tomb.Tomb) error {
	log.Info().Str("url", s.cfg.ExecutionerURL).Msg("execution sink consumer starting")
	for {
		select {
		case <-t.Dying():
			return nil
		case batch := <-s.queue:
			if err := s.send(t.Context(nil), batch); err != nil {
				log.Error().
					Err(err).
					Str("market", batch.Market.Hex()).
					Msg("dropping batch: executioner rejected it or retries were exhausted")
			}
		}
	}
}

// send POSTs a single batch, retrying transient failures (network errors,
// timeouts, 5xx) with bounded exponential backoff. A 4xx response is
// treated as permanent — the Executioner has rejected the batch outright,
// and retrying it would never succeed — so it is logged and dropped rather
// than retried (spec.md §4.7).
func (s *Sink) send(ctx context.Context, batch Batch) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return fmt.Errorf("sink: marshal batch: %w", err)
	}

	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = s.cfg.MaxElapsedRetry
	boCtx := backoff.WithContext(policy, ctx)

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.ExecutionerURL+"/submit", bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			return err // transient: network error, retry
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return nil
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return backoff.Permanent(fmt.Errorf("sink: executioner rejected batch: status %d", resp.StatusCode))
		default:
			return fmt.Errorf("sink: executioner error: status %d", resp.StatusCode)
		}
	}

	return backoff.Retry(operation, boCtx)
}
