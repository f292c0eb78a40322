// Package job provides background jobs.
package job

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"youtube-analytics/internal/domain"
)

// Prober is the part of the store handle the probe drives.
// Implemented by service.StoreHandle.
type Prober interface {
	State() domain.StoreState
	Probe(ctx context.Context) error
}

// ProbeConfig holds store probe configuration.
type ProbeConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// StoreProbe periodically retries a degraded store so it returns to
// Connected without a restart. Each instance probes its own handle.
type StoreProbe struct {
	store    Prober
	interval time.Duration
	timeout  time.Duration
	logger   *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewStoreProbe creates a new StoreProbe.
func NewStoreProbe(store Prober, cfg ProbeConfig, logger *zap.Logger) *StoreProbe {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &StoreProbe{
		store:    store,
		interval: cfg.Interval,
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

// Start begins the background probe loop.
func (p *StoreProbe) Start() {
	p.ctx, p.cancel = context.WithCancel(context.Background())

	p.logger.Info("starting store probe", zap.Duration("interval", p.interval))

	p.wg.Add(1)
	go p.run()
}

// Stop stops the loop and waits for an in-flight probe to finish.
func (p *StoreProbe) Stop() {
	if p.cancel == nil {
		return
	}
	p.logger.Info("stopping store probe")
	p.cancel()
	p.wg.Wait()
	p.cancel = nil
	p.logger.Info("store probe stopped")
}

func (p *StoreProbe) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.probeOnce()
		}
	}
}

func (p *StoreProbe) probeOnce() {
	if p.store.State() != domain.StoreDegraded {
		return
	}

	ctx, cancel := context.WithTimeout(p.ctx, p.timeout)
	defer cancel()

	if err := p.store.Probe(ctx); err != nil {
		p.logger.Debug("store still degraded", zap.Error(err))
		return
	}

	p.logger.Info("store probe restored connection")
}
