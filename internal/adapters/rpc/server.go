// Package rpc exposes the settlement node over JSON-RPC 2.0: one POST
// endpoint for every market and NFT method, plus health and metrics.
package rpc

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/market"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/domains/token"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/metrics"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/platform/ratelimiter"
	"github.com/nearvndev/nft-marketplace-tutorial/internal/runtime"
)

type Server struct {
	addr    string
	market  *market.Service
	nft     *token.Service
	rt      *runtime.Runtime
	limiter *ratelimiter.MapLimiter
	settle  *metrics.Settlement
	log     *slog.Logger
}

func NewServer(
	addr string,
	mkt *market.Service,
	nft *token.Service,
	rt *runtime.Runtime,
	limiter *ratelimiter.MapLimiter,
	settle *metrics.Settlement,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		addr:    addr,
		market:  mkt,
		nft:     nft,
		rt:      rt,
		limiter: limiter,
		settle:  settle,
		log:     log,
	}
}

// Handler builds the HTTP mux. Exposed separately so tests can drive the
// server without a listener.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/rpc", s.handleRPC)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if s.settle != nil {
		mux.Handle("/metrics", promhttp.HandlerFor(s.settle.Registry(), promhttp.HandlerOpts{}))
	}
	return mux
}

// ListenAndServe runs the HTTP server until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("rpc server listening", "addr", s.addr)

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// invoke runs fn as one serialized ledger invocation and waits for its
// result. State-changing methods go through here so no two of them ever
// interleave; views read the stores directly.
func (s *Server) invoke(ctx context.Context, fn func() (any, error)) (any, error) {
	type outcome struct {
		value any
		err   error
	}
	ch := make(chan outcome, 1)
	s.rt.Invoke(func() {
		value, err := fn()
		ch <- outcome{value: value, err: err}
	})
	select {
	case out := <-ch:
		return out.value, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
