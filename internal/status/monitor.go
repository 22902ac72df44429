// Package status polls the upstream engine's status endpoint and keeps
// the current up/down banner state. The poll is independent of the
// event cache: a down engine still serves whatever the cache holds.
package status

import (
	"context"
	"sync"
	"time"

	"github.com/kurator-news/kurator/internal/common"
)

// Probe checks the engine once. A nil error means the engine is up.
type Probe func(ctx context.Context) error

// Snapshot is the banner state at a point in time.
type Snapshot struct {
	Up        bool      `json:"up"`
	CheckedAt time.Time `json:"checked_at"`
	Error     string    `json:"error,omitempty"`
}

// Monitor runs the probe on a fixed interval.
type Monitor struct {
	probe    Probe
	interval time.Duration
	logger   *common.Logger

	mu   sync.Mutex
	snap Snapshot

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor. The engine is assumed up until the
// first probe completes, so a slow startup never flashes the banner.
func NewMonitor(probe Probe, interval time.Duration, logger *common.Logger) *Monitor {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	if interval <= 0 {
		interval = common.FreshnessStatus
	}
	return &Monitor{
		probe:    probe,
		interval: interval,
		logger:   logger,
		snap:     Snapshot{Up: true},
	}
}

// Start begins polling. The first probe runs immediately.
func (m *Monitor) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.done = make(chan struct{})

	go func() {
		defer close(m.done)
		m.check(ctx)

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.check(ctx)
			}
		}
	}()
}

// Stop halts polling and waits for the poll goroutine to exit.
func (m *Monitor) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	<-m.done
}

// Current returns the latest banner state.
func (m *Monitor) Current() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

// check runs one probe and records the outcome.
func (m *Monitor) check(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, m.interval)
	defer cancel()

	err := m.probe(probeCtx)
	if ctx.Err() != nil {
		return
	}

	m.mu.Lock()
	wasUp := m.snap.Up
	m.snap = Snapshot{Up: err == nil, CheckedAt: time.Now()}
	if err != nil {
		m.snap.Error = err.Error()
	}
	m.mu.Unlock()

	if err != nil && wasUp {
		m.logger.Warn().Err(err).Msg("engine status probe failed")
	} else if err == nil && !wasUp {
		m.logger.Info().Msg("engine status recovered")
	}
}
