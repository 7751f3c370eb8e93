package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"servicedeck/pkg/config"
	"servicedeck/pkg/metrics"
	"servicedeck/pkg/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// fakeProber returns canned outcomes. A non-nil gate blocks calls until it is closed.
type fakeProber struct {
	mu        sync.Mutex
	health    map[string]Outcome
	info      map[string]Outcome
	gate      chan struct{}
	started   chan string
	infoCalls int
}

func newFakeProber() *fakeProber {
	return &fakeProber{
		health:  make(map[string]Outcome),
		info:    make(map[string]Outcome),
		started: make(chan string, 64),
	}
}

func (f *fakeProber) wait(id string) {
	f.started <- id
	f.mu.Lock()
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
}

func (f *fakeProber) CheckHealth(_ context.Context, svc models.ServiceDescriptor) Outcome {
	f.wait(svc.ID)
	f.mu.Lock()
	defer f.mu.Unlock()
	if o, ok := f.health[svc.ID]; ok {
		return o
	}
	return Outcome{Kind: OutcomeSuccess, StatusCode: http.StatusOK, Payload: json.RawMessage(`{"status":"healthy","uptime":"5s"}`)}
}

func (f *fakeProber) GetServiceInfo(_ context.Context, svc models.ServiceDescriptor) Outcome {
	f.wait(svc.ID)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.infoCalls++
	if o, ok := f.info[svc.ID]; ok {
		return o
	}
	return Outcome{Kind: OutcomeSuccess, StatusCode: http.StatusOK, Payload: json.RawMessage(`{"service":"` + svc.ID + `"}`)}
}

func (f *fakeProber) block() {
	f.mu.Lock()
	f.gate = make(chan struct{})
	f.mu.Unlock()
}

func (f *fakeProber) release() {
	f.mu.Lock()
	if f.gate != nil {
		close(f.gate)
		f.gate = nil
	}
	f.mu.Unlock()
}

func (f *fakeProber) drainStarted() {
	for {
		select {
		case <-f.started:
		default:
			return
		}
	}
}

type DashboardTestSuite struct {
	suite.Suite
	prober    *fakeProber
	registry  *prometheus.Registry
	checks    *metrics.Checks
	now       time.Time
	dashboard *Dashboard
}

func (s *DashboardTestSuite) SetupTest() {
	s.prober = newFakeProber()
	s.registry = prometheus.NewRegistry()
	s.checks = metrics.NewChecks(s.registry)
	s.now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	d, err := New(config.DefaultDescriptors(), s.prober,
		WithMetrics(s.checks),
		WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
	s.dashboard = d
}

func (s *DashboardTestSuite) TearDownTest() {
	s.prober.release()
}

func (s *DashboardTestSuite) status(id string) models.ServiceStatus {
	st, ok := s.dashboard.Status(id)
	s.Require().True(ok)
	return st
}

// requests reads one series of the dashboard request counter from the registry.
func (s *DashboardTestSuite) requests(service, kind, outcome string) float64 {
	want := map[string]string{"service": service, "kind": kind, "outcome": outcome}

	families, err := s.registry.Gather()
	s.Require().NoError(err)
	for _, family := range families {
		if family.GetName() != "servicedeck_dashboard_requests_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			matched := 0
			for _, label := range metric.GetLabel() {
				if want[label.GetName()] == label.GetValue() {
					matched++
				}
			}
			if matched == len(want) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func (s *DashboardTestSuite) TestInitialStateIsUnknown() {
	view := s.dashboard.Snapshot()

	s.False(view.Refreshing)
	s.Require().Len(view.Services, 4)
	for i, id := range []string{"go", "python", "nodejs", "java"} {
		sv := view.Services[i]
		s.Equal(id, sv.Descriptor.ID)
		s.Equal(models.StatusUnknown, sv.Status.Status)
		s.Equal("Unknown", sv.Display)
		s.False(sv.InfoEnabled)
		s.Nil(sv.Response)
	}
}

func (s *DashboardTestSuite) TestRefreshRecordsOutcomes() {
	s.prober.health["java"] = Outcome{Kind: OutcomeHTTPError, StatusCode: 503, StatusText: "Service Unavailable"}

	s.Require().NoError(s.dashboard.Refresh(context.Background()))

	nodejs := s.status("nodejs")
	s.Equal(models.StatusHealthy, nodejs.Status)
	s.JSONEq(`{"status":"healthy","uptime":"5s"}`, string(nodejs.Data))
	s.Empty(nodejs.Error)
	s.True(nodejs.LastChecked.Equal(s.now))

	java := s.status("java")
	s.Equal(models.StatusUnhealthy, java.Status)
	s.Nil(java.Data)
	s.Contains(java.Error, "Health check failed")
	s.Contains(java.Error, "503")
	s.True(java.LastChecked.Equal(s.now))

	s.Equal([]string{"java"}, s.dashboard.Snapshot().Unhealthy())
	s.Equal(1.0, s.requests("java", "health", "http_error"))
	s.Equal(1.0, s.requests("go", "health", "success"))
}

func (s *DashboardTestSuite) TestRecoveryClearsError() {
	s.prober.health["go"] = Outcome{Kind: OutcomeTimeout, Timeout: 5 * time.Second}
	s.Require().NoError(s.dashboard.Refresh(context.Background()))
	s.Equal("Health check failed: request timed out after 5s", s.status("go").Error)

	delete(s.prober.health, "go")
	s.Require().NoError(s.dashboard.Refresh(context.Background()))

	st := s.status("go")
	s.Equal(models.StatusHealthy, st.Status)
	s.Empty(st.Error)
	s.NotNil(st.Data)
}

func (s *DashboardTestSuite) TestRefreshShowsCheckingAndRejectsOverlap() {
	s.prober.block()

	done := make(chan error, 1)
	go func() { done <- s.dashboard.Refresh(context.Background()) }()
	for range 4 {
		<-s.prober.started
	}

	view := s.dashboard.Snapshot()
	s.True(view.Refreshing)
	for _, sv := range view.Services {
		s.Equal(models.StatusChecking, sv.Status.Status)
		s.Equal("Checking...", sv.Display)
		s.False(sv.InfoEnabled)
	}

	s.ErrorIs(s.dashboard.Refresh(context.Background()), ErrRefreshInProgress)

	s.prober.release()
	s.Require().NoError(<-done)
	s.False(s.dashboard.Snapshot().Refreshing)
	s.Equal(models.StatusHealthy, s.status("python").Status)
}

func (s *DashboardTestSuite) TestInfoRequiresHealthyService() {
	_, err := s.dashboard.RequestInfo(context.Background(), "nodejs")
	s.ErrorIs(err, ErrServiceNotHealthy)

	s.prober.health["nodejs"] = Outcome{Kind: OutcomeHTTPError, StatusCode: 502, StatusText: "Bad Gateway"}
	s.Require().NoError(s.dashboard.Refresh(context.Background()))

	_, err = s.dashboard.RequestInfo(context.Background(), "nodejs")
	s.ErrorIs(err, ErrServiceNotHealthy)
	s.Zero(s.prober.infoCalls)

	_, ok := s.dashboard.Response("nodejs")
	s.False(ok)
}

func (s *DashboardTestSuite) TestInfoUnknownService() {
	_, err := s.dashboard.RequestInfo(context.Background(), "rust")
	s.ErrorIs(err, ErrUnknownService)
}

func (s *DashboardTestSuite) TestInfoRecordsResponse() {
	s.Require().NoError(s.dashboard.Refresh(context.Background()))

	resp, err := s.dashboard.RequestInfo(context.Background(), "nodejs")
	s.Require().NoError(err)
	s.JSONEq(`{"service":"nodejs"}`, string(resp.Data))
	s.Empty(resp.Error)
	s.True(resp.Timestamp.Equal(s.now))

	stored, ok := s.dashboard.Response("nodejs")
	s.True(ok)
	s.Equal(resp, stored)

	s.prober.info["nodejs"] = Outcome{Kind: OutcomeHTTPError, StatusCode: 500, StatusText: "Internal Server Error"}
	resp, err = s.dashboard.RequestInfo(context.Background(), "nodejs")
	s.Require().NoError(err)
	s.Nil(resp.Data)
	s.Equal("Service info request failed: HTTP 500: Internal Server Error", resp.Error)

	stored, _ = s.dashboard.Response("nodejs")
	s.Equal(resp.Error, stored.Error)
	s.Equal(1.0, s.requests("nodejs", "info", "http_error"))
}

func (s *DashboardTestSuite) TestInfoLoadingIsPerService() {
	s.Require().NoError(s.dashboard.Refresh(context.Background()))
	s.prober.drainStarted()
	s.prober.block()

	done := make(chan error, 2)
	go func() {
		_, err := s.dashboard.RequestInfo(context.Background(), "go")
		done <- err
	}()
	s.Equal("go", <-s.prober.started)

	view := s.dashboard.Snapshot()
	for _, sv := range view.Services {
		if sv.Descriptor.ID == "go" {
			s.True(sv.RequestLoading)
			s.False(sv.InfoEnabled)
		} else {
			s.False(sv.RequestLoading)
			s.True(sv.InfoEnabled)
		}
	}

	// A second request for the same service overlaps; the flag stays set until both finish.
	go func() {
		_, err := s.dashboard.RequestInfo(context.Background(), "go")
		done <- err
	}()
	s.Equal("go", <-s.prober.started)
	s.True(s.dashboard.Snapshot().Services[0].RequestLoading)

	s.prober.release()
	s.Require().NoError(<-done)
	s.Require().NoError(<-done)
	for _, sv := range s.dashboard.Snapshot().Services {
		s.False(sv.RequestLoading)
	}
	resp, ok := s.dashboard.Response("go")
	s.True(ok)
	s.JSONEq(`{"service":"go"}`, string(resp.Data))
}

func (s *DashboardTestSuite) TestStatusAndResponseAreIndependent() {
	s.Require().NoError(s.dashboard.Refresh(context.Background()))
	resp, err := s.dashboard.RequestInfo(context.Background(), "java")
	s.Require().NoError(err)

	s.prober.health["java"] = Outcome{Kind: OutcomeHTTPError, StatusCode: 503, StatusText: "Service Unavailable"}
	s.Require().NoError(s.dashboard.Refresh(context.Background()))

	stored, ok := s.dashboard.Response("java")
	s.True(ok)
	s.Equal(resp, stored)
	s.Equal(models.StatusUnhealthy, s.status("java").Status)

	sv := s.dashboard.Snapshot().Services[3]
	s.Equal("Unavailable", sv.Display)
	s.Require().NotNil(sv.Response)
	s.Equal(resp, *sv.Response)
}

func (s *DashboardTestSuite) TestSubscribeIsNotified() {
	updates, unsubscribe := s.dashboard.Subscribe()

	s.Require().NoError(s.dashboard.Refresh(context.Background()))
	select {
	case <-updates:
	case <-time.After(time.Second):
		s.Fail("no notification after refresh")
	}

	unsubscribe()
	unsubscribe()
	s.Require().NoError(s.dashboard.Refresh(context.Background()))
	select {
	case <-updates:
		// A signal buffered before unsubscribe may still be pending.
	default:
	}
}

func TestDashboardSuite(t *testing.T) {
	suite.Run(t, new(DashboardTestSuite))
}

func TestNewRejectsDuplicateIDs(t *testing.T) {
	services := []models.ServiceDescriptor{svc("go"), svc("go")}
	_, err := New(services, newFakeProber())
	require.ErrorIs(t, err, config.ErrDuplicateServiceID)
}

// The real client against a gateway that never answers within the deadline.
func TestRefreshTimeoutThroughClient(t *testing.T) {
	hang := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer hang.Close()

	d, err := New([]models.ServiceDescriptor{svc("nodejs")}, NewClient(hang.URL, 50*time.Millisecond, 0))
	require.NoError(t, err)
	require.NoError(t, d.Refresh(context.Background()))

	st, _ := d.Status("nodejs")
	require.Equal(t, models.StatusUnhealthy, st.Status)
	require.Equal(t, "Health check failed: request timed out after 50ms", st.Error)
	require.Nil(t, st.Data)
}
