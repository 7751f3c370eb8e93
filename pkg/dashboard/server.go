package dashboard

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	defaultShutdownTimeout = 10 * time.Second
	wsWriteTimeout         = 5 * time.Second
)

var stateUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return strings.EqualFold(strings.TrimSpace(r.Host), strings.TrimSpace(u.Host))
	},
}

// Server exposes a Dashboard over HTTP and pushes state changes over a websocket.
type Server struct {
	dashboard       *Dashboard
	poller          *Poller
	shutdownTimeout time.Duration
	echo            *echo.Echo

	closing   chan struct{}
	closeOnce sync.Once
}

// NewServer wires the HTTP API. refreshInterval enables periodic refreshes after the initial one.
func NewServer(d *Dashboard, reg prometheus.Registerer, refreshInterval time.Duration) *Server {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		dashboard:       d,
		poller:          NewPoller(d, refreshInterval),
		shutdownTimeout: defaultShutdownTimeout,
		echo:            echo.New(),
		closing:         make(chan struct{}),
	}
	s.setupRoutes(metrics.NewHTTP(reg, "dashboard"))
	return s
}

// Handler exposes the routed echo instance.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start runs an initial refresh, serves on addr until SIGINT or SIGTERM, then shuts down.
func (s *Server) Start(addr string) error {
	go func() {
		log.Info().Str("addr", addr).Int("services", len(s.dashboard.services)).Msg("Starting dashboard")

		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server startup failed")
		}
	}()

	s.poller.Start()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	return s.Shutdown()
}

func (s *Server) Shutdown() error {
	log.Info().Msg("Shutting down dashboard...")
	s.closeOnce.Do(func() { close(s.closing) })
	s.poller.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
		return err
	}

	log.Info().Msg("Dashboard stopped")
	return nil
}

func (s *Server) setupRoutes(httpMetrics *metrics.HTTP) {
	s.echo.HideBanner = true
	s.echo.HidePort = true

	s.echo.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	s.echo.Use(log.RequestLogger())
	s.echo.Use(middleware.Recover())
	s.echo.Use(httpMetrics.Middleware())

	s.echo.GET("/api/state", s.stateHandler)
	s.echo.POST("/api/refresh", s.refreshHandler)
	s.echo.POST("/api/services/:id/info", s.infoHandler)
	s.echo.GET("/ws", s.wsHandler)
}

func (s *Server) stateHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) refreshHandler(c echo.Context) error {
	// A client going away must not leave the refresh half done.
	ctx := context.WithoutCancel(c.Request().Context())
	if err := s.dashboard.Refresh(ctx); err != nil {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, s.dashboard.Snapshot())
}

func (s *Server) infoHandler(c echo.Context) error {
	ctx := context.WithoutCancel(c.Request().Context())
	resp, err := s.dashboard.RequestInfo(ctx, c.Param("id"))
	if err != nil {
		return c.JSON(statusFor(err), map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, ErrServiceNotHealthy), errors.Is(err, ErrRefreshInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) wsHandler(c echo.Context) error {
	conn, err := stateUpgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade has already written the error response.
		return nil
	}
	s.serveConnection(conn)
	return nil
}

func (s *Server) serveConnection(conn *websocket.Conn) {
	defer conn.Close()

	updates, unsubscribe := s.dashboard.Subscribe()
	defer unsubscribe()

	if err := writeView(conn, s.dashboard.Snapshot()); err != nil {
		return
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-updates:
			if err := writeView(conn, s.dashboard.Snapshot()); err != nil {
				return
			}
		case <-done:
			return
		case <-s.closing:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(wsWriteTimeout))
			return
		}
	}
}

func writeView(conn *websocket.Conn, view View) error {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteJSON(view)
}
