package dashboard

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"servicedeck/pkg/config"
	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"
	"servicedeck/pkg/models"

	"golang.org/x/sync/errgroup"
)

var (
	ErrUnknownService    = errors.New("unknown service")
	ErrServiceNotHealthy = errors.New("service is not healthy")
	ErrRefreshInProgress = errors.New("refresh already in progress")
)

// Prober issues health and info requests for one service.
type Prober interface {
	CheckHealth(ctx context.Context, svc models.ServiceDescriptor) Outcome
	GetServiceInfo(ctx context.Context, svc models.ServiceDescriptor) Outcome
}

// Option configures a Dashboard.
type Option func(*Dashboard)

// WithMetrics records every request outcome.
func WithMetrics(checks *metrics.Checks) Option {
	return func(d *Dashboard) {
		d.checks = checks
	}
}

// WithClock replaces time.Now for lastChecked and response timestamps.
func WithClock(now func() time.Time) Option {
	return func(d *Dashboard) {
		d.now = now
	}
}

// Dashboard holds the per-service view state. Health statuses and info responses are kept in
// separate maps and never overwrite each other.
type Dashboard struct {
	services []models.ServiceDescriptor
	index    map[string]int
	prober   Prober
	checks   *metrics.Checks
	now      func() time.Time

	mu             sync.RWMutex
	refreshing     bool
	statuses       map[string]models.ServiceStatus
	responses      map[string]models.ServiceResponse
	requestLoading map[string]int

	subsMu      sync.Mutex
	nextSub     int
	subscribers map[int]chan struct{}
}

// New creates a dashboard for the given descriptors; every service starts as unknown.
func New(services []models.ServiceDescriptor, prober Prober, opts ...Option) (*Dashboard, error) {
	if err := config.ValidateDescriptors(services); err != nil {
		return nil, err
	}

	d := &Dashboard{
		services:       append([]models.ServiceDescriptor(nil), services...),
		index:          make(map[string]int, len(services)),
		prober:         prober,
		now:            time.Now,
		statuses:       make(map[string]models.ServiceStatus, len(services)),
		responses:      make(map[string]models.ServiceResponse),
		requestLoading: make(map[string]int, len(services)),
		subscribers:    make(map[int]chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}

	for i, svc := range d.services {
		d.index[svc.ID] = i
		d.statuses[svc.ID] = models.ServiceStatus{Status: models.StatusUnknown}
	}
	return d, nil
}

// Refresh checks every service concurrently. All services show as checking until their own
// result arrives.
func (d *Dashboard) Refresh(ctx context.Context) error {
	d.mu.Lock()
	if d.refreshing {
		d.mu.Unlock()
		return ErrRefreshInProgress
	}
	d.refreshing = true
	for _, svc := range d.services {
		prev := d.statuses[svc.ID]
		d.statuses[svc.ID] = models.ServiceStatus{Status: models.StatusChecking, LastChecked: prev.LastChecked}
	}
	d.mu.Unlock()
	d.notify()

	log.Debug().Int("services", len(d.services)).Msg("Refreshing service health")

	var g errgroup.Group
	for _, svc := range d.services {
		g.Go(func() error {
			d.checkService(ctx, svc)
			return nil
		})
	}
	_ = g.Wait()

	d.mu.Lock()
	d.refreshing = false
	d.mu.Unlock()
	d.notify()
	return nil
}

func (d *Dashboard) checkService(ctx context.Context, svc models.ServiceDescriptor) {
	outcome := d.prober.CheckHealth(ctx, svc)
	d.observe(svc.ID, "health", outcome)

	status := models.ServiceStatus{LastChecked: d.now().UTC()}
	if outcome.OK() {
		status.Status = models.StatusHealthy
		status.Data = outcome.Payload
	} else {
		status.Status = models.StatusUnhealthy
		status.Error = outcome.Message(HealthCheckFailed)
		log.Warn().Str("service", svc.ID).Str("error", status.Error).Msg("Service unhealthy")
	}

	d.mu.Lock()
	d.statuses[svc.ID] = status
	d.mu.Unlock()
	d.notify()
}

// RequestInfo fetches /info for a healthy service and records the response. Only that service's
// loading flag is set while the request runs. Overlapping requests for one service are allowed; the
// last one to complete wins.
func (d *Dashboard) RequestInfo(ctx context.Context, id string) (models.ServiceResponse, error) {
	d.mu.Lock()
	idx, ok := d.index[id]
	if !ok {
		d.mu.Unlock()
		return models.ServiceResponse{}, fmt.Errorf("%w: %s", ErrUnknownService, id)
	}
	if d.statuses[id].Status != models.StatusHealthy {
		d.mu.Unlock()
		return models.ServiceResponse{}, fmt.Errorf("%w: %s", ErrServiceNotHealthy, id)
	}
	d.requestLoading[id]++
	svc := d.services[idx]
	d.mu.Unlock()
	d.notify()

	outcome := d.prober.GetServiceInfo(ctx, svc)
	d.observe(id, "info", outcome)

	resp := models.ServiceResponse{Timestamp: d.now().UTC()}
	if outcome.OK() {
		resp.Data = outcome.Payload
	} else {
		resp.Error = outcome.Message(InfoRequestFailed)
		log.Warn().Str("service", id).Str("error", resp.Error).Msg("Service info request failed")
	}

	d.mu.Lock()
	d.responses[id] = resp
	d.requestLoading[id]--
	d.mu.Unlock()
	d.notify()
	return resp, nil
}

// Status returns the current status of one service.
func (d *Dashboard) Status(id string) (models.ServiceStatus, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	st, ok := d.statuses[id]
	return st, ok
}

// Response returns the last recorded info response of one service.
func (d *Dashboard) Response(id string) (models.ServiceResponse, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	resp, ok := d.responses[id]
	return resp, ok
}

// Subscribe returns a channel that receives a signal after state changes. Signals coalesce; the
// returned function unsubscribes.
func (d *Dashboard) Subscribe() (<-chan struct{}, func()) {
	ch := make(chan struct{}, 1)

	d.subsMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subscribers[id] = ch
	d.subsMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			d.subsMu.Lock()
			delete(d.subscribers, id)
			d.subsMu.Unlock()
		})
	}
}

func (d *Dashboard) notify() {
	d.subsMu.Lock()
	defer d.subsMu.Unlock()
	for _, ch := range d.subscribers {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (d *Dashboard) observe(id, kind string, outcome Outcome) {
	if d.checks == nil {
		return
	}
	d.checks.Observe(id, kind, outcome.Kind.String())
}
