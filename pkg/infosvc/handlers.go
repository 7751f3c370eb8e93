package infosvc

import (
	"net/http"
	"os"
	"runtime"
	"time"

	"servicedeck/pkg/models"

	"github.com/labstack/echo/v4"
)

const healthyStatus = "healthy"

// healthHandler handles GET /health. It has no failure path: a live process is healthy.
func (s *Server) healthHandler(ctx echo.Context) error {
	now := s.clock()
	sample := s.sampler.Sample()

	return ctx.JSON(http.StatusOK, models.HealthReport{
		Status:    healthyStatus,
		Service:   s.serviceName,
		Timestamp: now.UTC(),
		Uptime:    FormatUptime(s.uptimeSeconds(now)),
		MemoryUsage: models.MemoryUsage{
			RSS:       FormatMegabytes(sample.RSS),
			HeapUsed:  FormatMegabytes(sample.HeapUsed),
			HeapTotal: FormatMegabytes(sample.HeapTotal),
		},
	})
}

// infoHandler handles GET /info. Every call draws a new simulated connection count.
func (s *Server) infoHandler(ctx echo.Context) error {
	now := s.clock()
	sample := s.sampler.Sample()

	return ctx.JSON(http.StatusOK, models.InfoReport{
		Service:   s.serviceName,
		Language:  s.language,
		Timestamp: now.UTC(),
		SessionInfo: models.SessionInfo{
			ActiveConnections: s.connections.Next(),
			Uptime:            FormatUptime(s.uptimeSeconds(now)),
			MemoryUsage:       FormatMegabytes(sample.RSS),
		},
		RuntimeVersion: runtime.Version(),
		ServerStats: models.ServerStats{
			Platform: runtime.GOOS,
			Arch:     runtime.GOARCH,
			PID:      os.Getpid(),
			CPUUsage: sample.CPU,
		},
	})
}

func (s *Server) uptimeSeconds(now time.Time) int64 {
	return int64(now.Sub(s.startTime) / time.Second)
}
