package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"storefront.app/pkg/logger"
	"storefront.app/pkg/metrics"
	"storefront.app/pkg/middleware"
)

func metricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID(), middleware.Logging(), middleware.Recovery())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry(), promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// serveMetrics exposes the client metrics on addr until the returned stop
// func is called.
func serveMetrics(ctx context.Context, addr string) (stop func()) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           metricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "metrics server stopped", logger.Fields{"addr": addr, "error": err.Error()})
		}
	}()
	logger.Info(ctx, "serving metrics", logger.Fields{"addr": addr})

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}
}
