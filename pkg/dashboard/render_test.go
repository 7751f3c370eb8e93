package dashboard

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"servicedeck/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderTable(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	view := View{
		GeneratedAt: now,
		Services: []ServiceView{
			{
				Descriptor: svc("nodejs"),
				Status: models.ServiceStatus{
					Status:      models.StatusHealthy,
					Data:        json.RawMessage(`{"status":"healthy","uptime":"1h 2m 5s"}`),
					LastChecked: now.Add(-2 * time.Minute),
				},
				Display: DisplayLabel(models.StatusHealthy),
			},
			{
				Descriptor: svc("java"),
				Status: models.ServiceStatus{
					Status:      models.StatusUnhealthy,
					Error:       "Health check failed: HTTP 503: Service Unavailable",
					LastChecked: now.Add(-2 * time.Minute),
				},
				Display: DisplayLabel(models.StatusUnhealthy),
			},
			{
				Descriptor: models.ServiceDescriptor{ID: "go", Name: "Go Service", Description: "System information"},
				Status:     models.ServiceStatus{Status: models.StatusUnknown},
				Display:    DisplayLabel(models.StatusUnknown),
			},
		},
	}

	var out bytes.Buffer
	Render(&out, view)
	text := out.String()

	assert.Contains(t, text, "Healthy")
	assert.Contains(t, text, "up 1h 2m 5s")
	assert.Contains(t, text, "Unavailable")
	assert.Contains(t, text, "HTTP 503: Service Unavailable")
	assert.Contains(t, text, "2 minutes ago")
	assert.Contains(t, text, "Unknown")
	assert.Contains(t, text, neverChecked)
	assert.Contains(t, text, "System information")
	assert.Contains(t, strings.ToLower(text), "1 unhealthy")
}

func TestDisplayLabel(t *testing.T) {
	assert.Equal(t, "Checking...", DisplayLabel(models.StatusChecking))
	assert.Equal(t, "Healthy", DisplayLabel(models.StatusHealthy))
	assert.Equal(t, "Unavailable", DisplayLabel(models.StatusUnhealthy))
	assert.Equal(t, "Unknown", DisplayLabel(models.StatusUnknown))
	assert.Equal(t, "Unknown", DisplayLabel(""))
}

func TestRenderResponse(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RenderResponse(&out, models.ServiceResponse{Data: json.RawMessage(`{"service":"nodejs-service"}`)}))
	assert.Equal(t, "{\n  \"service\": \"nodejs-service\"\n}\n", out.String())

	out.Reset()
	require.NoError(t, RenderResponse(&out, models.ServiceResponse{Error: "Service info request failed: HTTP 500: Internal Server Error"}))
	assert.Equal(t, "Service info request failed: HTTP 500: Internal Server Error", strings.TrimSpace(out.String()))
}
