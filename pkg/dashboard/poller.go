package dashboard

import (
	"context"
	"errors"
	"sync"
	"time"

	"servicedeck/pkg/log"
)

// Poller refreshes a dashboard once on start and then, when interval is positive, on every tick.
type Poller struct {
	dashboard *Dashboard
	interval  time.Duration
	stopCh    chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
}

func NewPoller(d *Dashboard, interval time.Duration) *Poller {
	return &Poller{
		dashboard: d,
		interval:  interval,
		stopCh:    make(chan struct{}),
	}
}

// Start runs the initial refresh and the periodic loop in the background.
func (p *Poller) Start() {
	p.wg.Add(1)
	go p.loop()

	log.Info().
		Int("services", len(p.dashboard.services)).
		Dur("interval", p.interval).
		Msg("Dashboard poller started")
}

// Stop waits for an in-progress refresh to finish. Safe to call more than once.
func (p *Poller) Stop() {
	p.stopOnce.Do(func() {
		close(p.stopCh)
		p.wg.Wait()
		log.Info().Msg("Dashboard poller stopped")
	})
}

func (p *Poller) loop() {
	defer p.wg.Done()

	p.refresh()
	if p.interval <= 0 {
		return
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.refresh()
		}
	}
}

func (p *Poller) refresh() {
	err := p.dashboard.Refresh(context.Background())
	if errors.Is(err, ErrRefreshInProgress) {
		log.Debug().Msg("Refresh already running, skipping tick")
		return
	}
	if err != nil {
		log.Warn().Err(err).Msg("Refresh failed")
	}
}
