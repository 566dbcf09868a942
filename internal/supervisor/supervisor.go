// Package supervisor generalizes fenrir's internal/worker.go WorkerPool —
// a single tomb.Tomb supervising a fixed set of goroutines that all die
// together — from "a pool of identical connection workers" to "the OME's
// fixed set of long-running services" (the execution sink consumer, the
// HTTP control plane, a periodic reconciliation loop). One dying goroutine
// still takes the whole tomb down with it, the same fail-together
// discipline fenrir's pool already had.
package supervisor

import (
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Supervisor runs a fixed set of named goroutines under one tomb.Tomb and
// shuts all of them down together when the parent context is cancelled or
// any one of them returns an error.
type Supervisor struct {
	t *tomb.Tomb
}

// New starts a supervisor bound to ctx's lifetime; cancelling ctx begins an
// orderly shutdown of everything launched through Go.
func New(ctx context.Context) (*Supervisor, context.Context) {
	t, tctx := tomb.WithContext(ctx)
	return &Supervisor{t: t}, tctx
}

// Go launches a named goroutine under the supervisor. If fn returns an
// error, the whole supervisor begins dying, taking every other goroutine
// launched through Go down with it.
func (s *Supervisor) Go(name string, fn func() error) {
	s.t.Go(func() error {
		log.Info().Str("service", name).Msg("starting")
		err := fn()
		if err != nil {
			log.Error().Str("service", name).Err(err).Msg("service exited with error")
		} else {
			log.Info().Str("service", name).Msg("service stopped")
		}
		return err
	})
}

// GoHTTP runs srv until the supervisor dies, then gracefully shuts it down
// within shutdownTimeout. ListenAndServe's own http.ErrServerClosed return
// is swallowed — a graceful shutdown is not a service failure.
func (s *Supervisor) GoHTTP(name string, srv *http.Server, shutdownTimeout time.Duration) {
	s.Go(name, func() error {
		errCh := make(chan error, 1)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
				return
			}
			errCh <- nil
		}()

		select {
		case <-s.t.Dying():
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := srv.Shutdown(ctx); err != nil {
				return err
			}
			return <-errCh
		case err := <-errCh:
			return err
		}
	})
}

// Tomb exposes the underlying tomb.Tomb for services that are already
// written against that interface (e.g. sink.Sink.Run), so they can be
// supervised without an adapter shim.
func (s *Supervisor) Tomb() *tomb.Tomb { return s.t }

// Wait blocks until every goroutine has returned, returning the first
// non-nil error any of them produced.
func (s *Supervisor) Wait() error {
	return s.t.Wait()
}

// Kill begins shutdown immediately, as if one of the supervised goroutines
// had returned err.
func (s *Supervisor) Kill(err error) {
	s.t.Kill(err)
}
