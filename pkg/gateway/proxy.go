package gateway

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"servicedeck/pkg/metrics"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
)

const (
	failureTimeout     = "timeout"
	failureUnreachable = "unreachable"
	maxIdleConns       = 64
	idleConnTimeout    = 90 * time.Second
)

// newTransport builds the upstream transport. timeout bounds dialing and the wait for response
// headers; response bodies stream without a deadline.
func newTransport(timeout time.Duration) *http.Transport {
	return &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ResponseHeaderTimeout: timeout,
		MaxIdleConns:          maxIdleConns,
		MaxIdleConnsPerHost:   maxIdleConns,
		IdleConnTimeout:       idleConnTimeout,
	}
}

// routeHandler forwards requests for one route. The prefix is stripped and the Host header set to the
// upstream's before echo's proxy takes over. Failed forwards are never retried.
func routeHandler(route Route, transport http.RoundTripper, upstream *metrics.Upstream, logger zerolog.Logger) echo.HandlerFunc {
	target := &middleware.ProxyTarget{Name: route.Name, URL: route.Upstream}

	proxy := middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer:     middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{target}),
		Transport:    transport,
		RetryCount:   0,
		ErrorHandler: upstreamErrorHandler(route, upstream, logger),
	})(echo.NotFoundHandler)

	return func(c echo.Context) error {
		req := c.Request()
		req.URL.Path = route.Strip(req.URL.Path)
		if req.URL.RawPath != "" {
			req.URL.RawPath = route.Strip(req.URL.RawPath)
		}
		req.Host = route.Upstream.Host

		return proxy(c)
	}
}

func upstreamErrorHandler(route Route, upstream *metrics.Upstream, logger zerolog.Logger) func(echo.Context, error) error {
	return func(c echo.Context, err error) error {
		var he *echo.HTTPError
		if errors.As(err, &he) && he.Code < http.StatusInternalServerError {
			// client went away; nothing to report upstream-wise
			return err
		}

		status, kind := classifyUpstreamError(err)
		upstream.Failed(route.Name, kind)

		logger.Warn().
			Err(err).
			Str("route", route.Name).
			Str("upstream", route.Upstream.String()).
			Str("kind", kind).
			Msg("Upstream request failed")

		return c.JSON(status, map[string]string{
			"error": "upstream " + route.Name + " " + kind,
		})
	}
}

func classifyUpstreamError(err error) (int, string) {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return http.StatusGatewayTimeout, failureTimeout
	}
	return http.StatusBadGateway, failureUnreachable
}
