// Command ome runs the order matching engine: an HTTP control plane over a
// registry of per-market books, a startup market-discovery seed, and a
// background execution sink that forwards matched pairs to the
// Executioner. Wiring follows fenrir's cmd/main.go shape (signal.NotifyContext
// plus a single long-running server goroutine) generalized to the OME's
// several supervised services (internal/supervisor).
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"

	"ome/internal/clock"
	"ome/internal/config"
	"ome/internal/control"
	"ome/internal/discovery"
	"ome/internal/logging"
	"ome/internal/obsv"
	"ome/internal/registry"
	"ome/internal/sink"
	"ome/internal/supervisor"
)

// nonceAllocator hands out monotonically increasing nonces for
// order.DeriveID so two admissions in the same process never collide even
// if every other admission field happens to match.
type nonceAllocator struct{ n atomic.Uint64 }

func (a *nonceAllocator) Next() uint64 { return a.n.Add(1) }

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	sys := clock.System{}
	reg := registry.New()
	metr := obsv.New(prometheus.DefaultRegisterer)

	snk := sink.New(sink.Config{
		ExecutionerURL:  cfg.ExecutionerAddr,
		QueueSize:       cfg.SinkQueueSize,
		RequestTimeout:  cfg.SinkRequestTimeout,
		MaxElapsedRetry: cfg.SinkMaxElapsedRetry,
	})

	sup, supCtx := supervisor.New(ctx)
	sup.Go("execution-sink", func() error {
		return snk.Run(sup.Tomb())
	})

	if cfg.KnownMarketsURL != "" {
		disc := discovery.New(discovery.Config{
			KnownMarketsURL: cfg.KnownMarketsURL,
			ExternalBookURL: cfg.ExternalBookURL,
			HTTPTimeout:     cfg.DiscoveryHTTPTimeout,
		}, sys)
		seedCtx, cancel := context.WithTimeout(ctx, cfg.DiscoveryHTTPTimeout*5)
		if err := disc.Seed(seedCtx, reg); err != nil {
			log.Error().Err(err).Msg("market discovery failed at startup, continuing with an empty registry")
		}
		cancel()
	}

	handlers := control.New(reg, snk, sys, &nonceAllocator{}, metr)
	httpSrv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler: handlers.Router(),
	}
	sup.GoHTTP("control-plane", httpSrv, 10*time.Second)

	sup.Go("reconcile-loop", func() error {
		ticker := time.NewTicker(time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-supCtx.Done():
				return nil
			case <-ticker.C:
				reaped, err := reg.Reconcile(supCtx, sys.Now())
				if err != nil {
					log.Warn().Err(err).Msg("periodic reconcile failed")
					continue
				}
				if reaped > 0 {
					metr.ReconcileReaped.Add(float64(reaped))
				}
			}
		}
	})

	log.Info().Int("port", cfg.Port).Msg("ome listening")
	if err := sup.Wait(); err != nil {
		log.Error().Err(err).Msg("ome exited with error")
		os.Exit(1)
	}
}
