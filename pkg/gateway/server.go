package gateway

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicedeck/pkg/config"
	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

// Server is the gateway: API prefixes are proxied, everything else is the single-page app.
type Server struct {
	routes                  *RouteTable
	staticDir               string
	upstreamTimeout         time.Duration
	gracefulShutdownTimeout time.Duration
	logger                  zerolog.Logger
	echo                    *echo.Echo
}

func NewServer(cfg config.Gateway, reg prometheus.Registerer) (*Server, error) {
	routes, err := NewRouteTable(cfg.Routes)
	if err != nil {
		return nil, err
	}

	s := &Server{
		routes:                  routes,
		staticDir:               cfg.StaticDir,
		upstreamTimeout:         cfg.UpstreamTimeout,
		gracefulShutdownTimeout: cfg.ShutdownTimeout,
		logger:                  log.With("gateway"),
		echo:                    echo.New(),
	}
	if s.upstreamTimeout <= 0 {
		s.upstreamTimeout = config.DefaultUpstreamTimeout
	}
	if s.gracefulShutdownTimeout <= 0 {
		s.gracefulShutdownTimeout = config.DefaultShutdownTimeout
	}

	s.setupRoutes(metrics.NewHTTP(reg, "gateway"), metrics.NewUpstream(reg))
	return s, nil
}

// Handler exposes the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Routes returns the active routing table.
func (s *Server) Routes() *RouteTable {
	return s.routes
}

// Start serves on addr until SIGINT or SIGTERM.
func (s *Server) Start(addr string) error {
	go func() {
		s.logger.Info().Str("addr", addr).Str("static_dir", s.staticDir).Msg("Starting gateway")
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	s.logger.Info().Msg("Shutting down gateway...")

	ctx, cancel := context.WithTimeout(context.Background(), s.gracefulShutdownTimeout)
	defer cancel()

	return s.echo.Shutdown(ctx)
}

func (s *Server) isRoutedPath(c echo.Context) bool {
	_, ok := s.routes.Match(c.Request().URL.Path)
	return ok
}

func (s *Server) setupRoutes(httpMetrics *metrics.HTTP, upstream *metrics.Upstream) {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	// upstream responses keep their own request id
	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Skipper:   s.isRoutedPath,
		Generator: uuid.NewString,
	}))
	s.echo.Use(log.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(httpMetrics.Middleware())
	spa := newSite(s.staticDir)
	s.echo.Use(spa.middleware(s.routes))
	s.echo.RouteNotFound("/*", spa.entryHandler)

	transport := newTransport(s.upstreamTimeout)
	for _, route := range s.routes.Routes() {
		handler := routeHandler(route, transport, upstream, s.logger)
		s.echo.Any(route.Prefix, handler)
		s.echo.Any(route.Prefix+"/*", handler)

		s.logger.Info().
			Str("route", route.Name).
			Str("prefix", route.Prefix).
			Str("upstream", route.Upstream.String()).
			Msg("Registered route")
	}
}
