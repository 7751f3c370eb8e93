package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace      = "servicedeck"
	unmatchedRoute = "unmatched"
)

// HTTP records served requests for one process.
type HTTP struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTP registers request collectors under the given subsystem ("gateway", "infosvc", ...).
func NewHTTP(reg prometheus.Registerer, subsystem string) *HTTP {
	m := &HTTP{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests served",
			},
			[]string{"route", "method", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware counts every request by matched route pattern and final status.
func (m *HTTP) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil && !c.Response().Committed {
				status = http.StatusInternalServerError
				var he *echo.HTTPError
				if errors.As(err, &he) {
					status = he.Code
				}
			}

			route := c.Path()
			if route == "" {
				route = unmatchedRoute
			}

			m.requests.WithLabelValues(route, c.Request().Method, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Upstream counts gateway forwarding failures.
type Upstream struct {
	failures *prometheus.CounterVec
}

func NewUpstream(reg prometheus.Registerer) *Upstream {
	u := &Upstream{
		failures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "gateway",
				Name:      "upstream_failures_total",
				Help:      "Requests that could not be forwarded to an upstream",
			},
			[]string{"route", "kind"},
		),
	}
	reg.MustRegister(u.failures)
	return u
}

// Failed records a failure of the given kind ("timeout", "unreachable") for a route.
func (u *Upstream) Failed(route, kind string) {
	u.failures.WithLabelValues(route, kind).Inc()
}

// Checks counts dashboard health and info requests by outcome.
type Checks struct {
	outcomes *prometheus.CounterVec
}

func NewChecks(reg prometheus.Registerer) *Checks {
	c := &Checks{
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dashboard",
				Name:      "requests_total",
				Help:      "Dashboard requests to services by kind and outcome",
			},
			[]string{"service", "kind", "outcome"},
		),
	}
	reg.MustRegister(c.outcomes)
	return c
}

// Observe records one request outcome; kind is "health" or "info".
func (c *Checks) Observe(service, kind, outcome string) {
	c.outcomes.WithLabelValues(service, kind, outcome).Inc()
}
