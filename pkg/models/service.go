package models

import (
	"encoding/json"
	"time"
)

// DefaultHealthEndpoint is used when a descriptor leaves HealthEndpoint empty.
const DefaultHealthEndpoint = "/health"

// ServiceDescriptor names a backend and the gateway prefix it is reached through.
type ServiceDescriptor struct {
	ID             string `json:"id" yaml:"id"`
	Name           string `json:"name" yaml:"name"`
	Description    string `json:"description" yaml:"description"`
	BaseURL        string `json:"baseUrl" yaml:"base_url"`
	HealthEndpoint string `json:"healthEndpoint" yaml:"health_endpoint"`
}

// HealthPath returns the health endpoint, falling back to DefaultHealthEndpoint.
func (d ServiceDescriptor) HealthPath() string {
	if d.HealthEndpoint == "" {
		return DefaultHealthEndpoint
	}
	return d.HealthEndpoint
}

// Status is the dashboard-side health state of one service.
type Status string

const (
	StatusUnknown   Status = "unknown"
	StatusChecking  Status = "checking"
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

// ServiceStatus is the latest health outcome for one service.
type ServiceStatus struct {
	Status      Status          `json:"status"`
	Data        json.RawMessage `json:"data"`
	Error       string          `json:"error,omitempty"`
	LastChecked time.Time       `json:"lastChecked,omitzero"`
}

// ServiceResponse is the latest on-demand info outcome for one service.
type ServiceResponse struct {
	Data      json.RawMessage `json:"data"`
	Error     string          `json:"error,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}
