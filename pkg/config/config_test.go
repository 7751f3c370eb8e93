package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type GatewayConfigTestSuite struct {
	suite.Suite
	dir string
}

func (s *GatewayConfigTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
}

func (s *GatewayConfigTestSuite) writeFile(name, content string) string {
	path := filepath.Join(s.dir, name)
	s.Require().NoError(os.WriteFile(path, []byte(content), 0o600))
	return path
}

func (s *GatewayConfigTestSuite) TestDefaults() {
	cfg, err := LoadGateway(New())
	s.Require().NoError(err)

	s.Equal(DefaultGatewayPort, cfg.Port)
	s.Equal(DefaultUpstreamTimeout, cfg.UpstreamTimeout)
	s.Equal(DefaultShutdownTimeout, cfg.ShutdownTimeout)
	s.Equal(DefaultRoutes(), cfg.Routes)
}

func (s *GatewayConfigTestSuite) TestPortFromEnvironment() {
	s.T().Setenv("PORT", "8080")

	cfg, err := LoadGateway(New())
	s.Require().NoError(err)
	s.Equal(8080, cfg.Port)
}

func (s *GatewayConfigTestSuite) TestRoutesFromFile() {
	path := s.writeFile("gateway.yaml", `
upstream-timeout: 2s
routes:
  - name: nodejs
    upstream: http://127.0.0.1:8083
  - name: docs
    prefix: /api/docs/
    upstream: https://docs.internal
`)
	v := New()
	v.Set(KeyConfigFile, path)

	cfg, err := LoadGateway(v)
	s.Require().NoError(err)
	s.Equal(2*time.Second, cfg.UpstreamTimeout)
	s.Require().Len(cfg.Routes, 2)
	s.Equal(Route{Name: "nodejs", Prefix: "/api/nodejs", Upstream: "http://127.0.0.1:8083"}, cfg.Routes[0])
	s.Equal("/api/docs", cfg.Routes[1].Prefix)
}

func (s *GatewayConfigTestSuite) TestRejectsInvalidUpstream() {
	path := s.writeFile("gateway.yaml", `
routes:
  - name: go
    upstream: go-service:8081
`)
	v := New()
	v.Set(KeyConfigFile, path)

	_, err := LoadGateway(v)
	s.ErrorIs(err, ErrInvalidUpstream)
}

func (s *GatewayConfigTestSuite) TestRejectsInvalidPort() {
	v := New()
	v.Set(KeyPort, 70000)

	_, err := LoadGateway(v)
	s.ErrorIs(err, ErrInvalidPort)
}

func (s *GatewayConfigTestSuite) TestMissingConfigFile() {
	v := New()
	v.Set(KeyConfigFile, filepath.Join(s.dir, "absent.yaml"))

	_, err := LoadGateway(v)
	s.Error(err)
}

func TestGatewayConfigSuite(t *testing.T) {
	suite.Run(t, new(GatewayConfigTestSuite))
}

func TestLoadInfoServiceDefaults(t *testing.T) {
	cfg, err := LoadInfoService(New())
	require.NoError(t, err)
	assert.Equal(t, DefaultInfoServicePort, cfg.Port)
	assert.Equal(t, DefaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestLoadDashboard(t *testing.T) {
	v := New()
	v.Set(KeyGatewayURL, "http://gateway.local/")
	v.Set(KeyRetryMax, -3)
	v.Set(KeyRefresh, "30s")

	cfg, err := LoadDashboard(v)
	require.NoError(t, err)
	assert.Equal(t, "http://gateway.local", cfg.GatewayURL)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, DefaultDashboardPort, cfg.Port)
	assert.Zero(t, cfg.RetryMax)
	assert.Equal(t, 30*time.Second, cfg.Refresh)
}

func TestLoadDashboardRejectsRelativeGateway(t *testing.T) {
	v := New()
	v.Set(KeyGatewayURL, "gateway")

	_, err := LoadDashboard(v)
	assert.ErrorIs(t, err, ErrInvalidUpstream)
}
