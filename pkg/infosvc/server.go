package infosvc

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultServiceName     = "nodejs-service"
	defaultLanguage        = "Go"
	defaultShutdownTimeout = 10 * time.Second
)

// Options configures a Server. Zero values fall back to production defaults.
type Options struct {
	ServiceName     string
	Language        string
	ShutdownTimeout time.Duration
	Sampler         Sampler
	Connections     *ConnectionSimulator
	Clock           func() time.Time
	Registerer      prometheus.Registerer
}

// Server is a backend info service exposing /health and /info.
type Server struct {
	serviceName     string
	language        string
	shutdownTimeout time.Duration
	sampler         Sampler
	connections     *ConnectionSimulator
	clock           func() time.Time
	startTime       time.Time
	echo            *echo.Echo
}

func NewServer(opts Options) *Server {
	if opts.ServiceName == "" {
		opts.ServiceName = defaultServiceName
	}
	if opts.Language == "" {
		opts.Language = defaultLanguage
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultShutdownTimeout
	}
	if opts.Sampler == nil {
		opts.Sampler = NewRuntimeSampler()
	}
	if opts.Connections == nil {
		opts.Connections = NewConnectionSimulator(nil)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.NewRegistry()
	}

	s := &Server{
		serviceName:     opts.ServiceName,
		language:        opts.Language,
		shutdownTimeout: opts.ShutdownTimeout,
		sampler:         opts.Sampler,
		connections:     opts.Connections,
		clock:           opts.Clock,
		startTime:       opts.Clock(),
		echo:            echo.New(),
	}
	s.setupRoutes(metrics.NewHTTP(opts.Registerer, "infosvc"))
	return s
}

// Handler exposes the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Start(addr string) error {
	go func() {
		log.Info().
			Str("addr", addr).
			Str("service", s.serviceName).
			Str("language", s.language).
			Msg("Starting info service")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down info service...")

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Info service stopped")
	return nil
}

func (s *Server) setupRoutes(httpMetrics *metrics.HTTP) {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.echo.Use(log.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.CORS())
	s.echo.Use(httpMetrics.Middleware())

	s.echo.GET("/health", s.healthHandler)
	s.echo.GET("/info", s.infoHandler)
}
