package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	KeyStaticDir       = "static-dir"
	KeyUpstreamTimeout = "upstream-timeout"
	KeyShutdownTimeout = "shutdown-timeout"
	keyRoutes          = "routes"

	DefaultGatewayPort     = 80
	DefaultUpstreamTimeout = 30 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	apiPrefix              = "/api/"
)

var (
	ErrNoRoutes        = errors.New("gateway needs at least one route")
	ErrInvalidUpstream = errors.New("upstream must be an absolute http:// or https:// URL")
)

// Route maps a path prefix to an upstream origin.
type Route struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Prefix   string `mapstructure:"prefix" yaml:"prefix"`
	Upstream string `mapstructure:"upstream" yaml:"upstream"`
}

// Gateway is the resolved configuration of the gateway process.
type Gateway struct {
	Port            int
	StaticDir       string
	Routes          []Route
	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
	MetricsAddr     string
	Logging         Logging
}

// DefaultRoutes is the routing table of the reference deployment.
func DefaultRoutes() []Route {
	return []Route{
		{Name: "go", Prefix: "/api/go", Upstream: "http://go-service:8081"},
		{Name: "python", Prefix: "/api/python", Upstream: "http://python-service:8082"},
		{Name: "nodejs", Prefix: "/api/nodejs", Upstream: "http://nodejs-service:8083"},
		{Name: "java", Prefix: "/api/java", Upstream: "http://java-service:8084"},
	}
}

// LoadGateway resolves the gateway configuration. Routes come from the config file; without one the
// default table is used.
func LoadGateway(v *viper.Viper) (Gateway, error) {
	v.SetDefault(KeyPort, DefaultGatewayPort)
	v.SetDefault(KeyUpstreamTimeout, DefaultUpstreamTimeout)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)

	if err := ReadFile(v); err != nil {
		return Gateway{}, err
	}

	var routes []Route
	if err := v.UnmarshalKey(keyRoutes, &routes); err != nil {
		return Gateway{}, fmt.Errorf("parse routes: %w", err)
	}
	if len(routes) == 0 {
		routes = DefaultRoutes()
	}

	cfg := Gateway{
		Port:            v.GetInt(KeyPort),
		StaticDir:       v.GetString(KeyStaticDir),
		Routes:          routes,
		UpstreamTimeout: v.GetDuration(KeyUpstreamTimeout),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		Logging:         loadLogging(v),
	}
	if err := cfg.normalize(); err != nil {
		return Gateway{}, err
	}
	return cfg, nil
}

func (g *Gateway) normalize() error {
	if err := validatePort(g.Port); err != nil {
		return err
	}
	if g.UpstreamTimeout <= 0 {
		g.UpstreamTimeout = DefaultUpstreamTimeout
	}
	if g.ShutdownTimeout <= 0 {
		g.ShutdownTimeout = DefaultShutdownTimeout
	}
	if len(g.Routes) == 0 {
		return ErrNoRoutes
	}

	for i := range g.Routes {
		route := &g.Routes[i]
		route.Name = strings.TrimSpace(route.Name)
		if route.Name == "" {
			return fmt.Errorf("route %d is missing a name", i)
		}
		if route.Prefix == "" {
			route.Prefix = apiPrefix + route.Name
		}
		route.Prefix = "/" + strings.Trim(route.Prefix, "/")

		route.Upstream = strings.TrimSpace(route.Upstream)
		u, err := url.Parse(route.Upstream)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("route %s: %w: %q", route.Name, ErrInvalidUpstream, route.Upstream)
		}
	}
	return nil
}
