package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"servicedeck/pkg/log"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const shutdownTimeout = 5 * time.Second

// NewHandler exposes the registry in the Prometheus text format.
func NewHandler(gatherer prometheus.Gatherer) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	return e
}

// Serve runs a metrics listener on addr until ctx is cancelled. An empty addr disables it.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer) {
	if addr == "" {
		return
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           NewHandler(gatherer),
		ReadHeaderTimeout: shutdownTimeout,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Starting metrics listener")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Str("addr", addr).Msg("Metrics listener failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("Metrics listener shutdown failed")
		}
	}()
}
