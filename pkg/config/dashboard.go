package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyGatewayURL   = "gateway"
	KeyServicesFile = "services"
	KeyTimeout      = "timeout"
	KeyRetryMax     = "retry-max"
	KeyRefresh      = "refresh-interval"

	DefaultDashboardPort = 3000
	DefaultGatewayURL    = "http://localhost"
	DefaultTimeout       = 5 * time.Second
)

// Dashboard is the resolved configuration of the dashboard client.
type Dashboard struct {
	Port        int
	GatewayURL  string
	Services    string
	Timeout     time.Duration
	RetryMax    int
	Refresh     time.Duration
	MetricsAddr string
	Logging     Logging
}

func LoadDashboard(v *viper.Viper) (Dashboard, error) {
	v.SetDefault(KeyPort, DefaultDashboardPort)
	v.SetDefault(KeyGatewayURL, DefaultGatewayURL)
	v.SetDefault(KeyTimeout, DefaultTimeout)

	if err := ReadFile(v); err != nil {
		return Dashboard{}, err
	}

	cfg := Dashboard{
		Port:        v.GetInt(KeyPort),
		GatewayURL:  strings.TrimRight(v.GetString(KeyGatewayURL), "/"),
		Services:    v.GetString(KeyServicesFile),
		Timeout:     v.GetDuration(KeyTimeout),
		RetryMax:    v.GetInt(KeyRetryMax),
		Refresh:     v.GetDuration(KeyRefresh),
		MetricsAddr: v.GetString(KeyMetricsAddr),
		Logging:     loadLogging(v),
	}

	if err := validatePort(cfg.Port); err != nil {
		return Dashboard{}, err
	}
	if u, err := url.Parse(cfg.GatewayURL); err != nil || u.Host == "" {
		return Dashboard{}, fmt.Errorf("%w: gateway %q", ErrInvalidUpstream, cfg.GatewayURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RetryMax < 0 {
		cfg.RetryMax = 0
	}
	if cfg.Refresh < 0 {
		cfg.Refresh = 0
	}
	return cfg, nil
}
