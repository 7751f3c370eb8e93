package models

import "time"

// HealthReport is the /health payload of a backend info service.
type HealthReport struct {
	Status      string      `json:"status"`
	Service     string      `json:"service"`
	Timestamp   time.Time   `json:"timestamp"`
	Uptime      string      `json:"uptime"`
	MemoryUsage MemoryUsage `json:"memoryUsage"`
}

// MemoryUsage holds memory figures formatted as "<int>MB".
type MemoryUsage struct {
	RSS       string `json:"rss"`
	HeapUsed  string `json:"heapUsed"`
	HeapTotal string `json:"heapTotal"`
}

// InfoReport is the /info payload of a backend info service.
type InfoReport struct {
	Service        string      `json:"service"`
	Language       string      `json:"language"`
	Timestamp      time.Time   `json:"timestamp"`
	SessionInfo    SessionInfo `json:"sessionInfo"`
	RuntimeVersion string      `json:"runtimeVersion"`
	ServerStats    ServerStats `json:"serverStats"`
}

// SessionInfo carries the simulated session figures.
type SessionInfo struct {
	ActiveConnections int    `json:"activeConnections"`
	Uptime            string `json:"uptime"`
	MemoryUsage       string `json:"memoryUsage"`
}

// ServerStats describes the serving process.
type ServerStats struct {
	Platform string   `json:"platform"`
	Arch     string   `json:"arch"`
	PID      int      `json:"pid"`
	CPUUsage CPUUsage `json:"cpuUsage"`
}

// CPUUsage is consumed process CPU time in microseconds.
type CPUUsage struct {
	User   int64 `json:"user"`
	System int64 `json:"system"`
}
