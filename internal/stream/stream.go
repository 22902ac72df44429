// Package stream maintains the long-lived connection to the engine's
// live event stream and folds incoming deltas into the event cache.
package stream

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/kurator-news/kurator/internal/cache"
	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/models"
)

// ConnState is the connection lifecycle state.
type ConnState string

const (
	StateDisconnected ConnState = "disconnected"
	StateConnecting   ConnState = "connecting"
	StateConnected    ConnState = "connected"
)

// DialFunc opens the upstream NDJSON stream. The caller closes the body.
type DialFunc func(ctx context.Context) (io.ReadCloser, error)

// maxFrameBytes bounds a single stream frame.
const maxFrameBytes = 256 * 1024

// Merger owns the stream connection. Frames are applied to the cache in
// arrival order; malformed frames are logged and skipped without
// terminating the connection. Connection failures reconnect with capped
// exponential backoff, reset on the next successful open.
type Merger struct {
	cache    *cache.EventCache
	dial     DialFunc
	notifier *Notifier
	logger   *common.Logger

	mu       sync.Mutex
	state    ConnState
	attempts int
	backoff  *backoff.ExponentialBackOff
	cancel   context.CancelFunc
	retry    *time.Timer
	gen      int
}

// NewMerger creates a stream merger. initialBackoff and maxBackoff
// bound the reconnect schedule.
func NewMerger(c *cache.EventCache, dial DialFunc, notifier *Notifier, initialBackoff, maxBackoff time.Duration, logger *common.Logger) *Merger {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Merger{
		cache:    c,
		dial:     dial,
		notifier: notifier,
		logger:   logger,
		state:    StateDisconnected,
		backoff:  newBackoff(initialBackoff, maxBackoff),
	}
}

// newBackoff builds the reconnect schedule: initial, doubling, capped,
// no jitter so the delay sequence is reproducible.
func newBackoff(initial, max time.Duration) *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.Multiplier = 2
	b.MaxInterval = max
	b.RandomizationFactor = 0
	b.MaxElapsedTime = 0
	b.Reset()
	return b
}

// Connect opens the stream. Safe to call when already connected (no-op)
// and cancels any reconnect pending from a previous failure.
func (m *Merger) Connect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateDisconnected {
		return
	}
	m.startLocked()
}

// startLocked begins a connection attempt. Caller holds m.mu.
func (m *Merger) startLocked() {
	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.state = StateConnecting
	m.gen++

	go m.run(ctx, m.gen)
}

// run dials, consumes frames until the connection drops, then schedules
// a reconnect. gen guards against a stale goroutine mutating state after
// a manual disconnect/reconnect superseded it.
func (m *Merger) run(ctx context.Context, gen int) {
	body, err := m.dial(ctx)
	if err != nil {
		m.logger.Warn().Err(err).Msg("stream connect failed")
		m.scheduleReconnect(gen)
		return
	}
	defer body.Close()

	m.mu.Lock()
	if gen != m.gen {
		m.mu.Unlock()
		return
	}
	m.state = StateConnected
	m.attempts = 0
	m.backoff.Reset()
	m.mu.Unlock()
	m.logger.Info().Msg("event stream connected")

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		m.handleFrame(line)
	}

	if ctx.Err() != nil {
		// Manual disconnect closed the context; no reconnect.
		return
	}
	if err := scanner.Err(); err != nil {
		m.logger.Warn().Err(err).Msg("event stream read error")
	} else {
		m.logger.Warn().Msg("event stream closed by upstream")
	}
	m.scheduleReconnect(gen)
}

// handleFrame decodes and applies one NDJSON frame. Frame errors skip
// the frame only; the connection stays open.
func (m *Merger) handleFrame(line []byte) {
	var delta models.StreamDelta
	if err := json.Unmarshal(line, &delta); err != nil {
		m.logger.Warn().Err(fmt.Errorf("malformed stream frame: %w", err)).Msg("skipping frame")
		return
	}
	if err := delta.Validate(); err != nil {
		m.logger.Warn().Err(err).Msg("skipping frame")
		return
	}
	if delta.Type == models.FrameConnected {
		return
	}

	// Upstream HTML-escapes editorial text on the stream path only.
	delta.Title = html.UnescapeString(delta.Title)
	if delta.Lead != nil {
		lead := html.UnescapeString(*delta.Lead)
		delta.Lead = &lead
	}

	applied := m.cache.MergeDelta(&delta)
	m.logger.Debug().
		Str("id", delta.ID).
		Str("type", delta.Type).
		Int("entries", applied).
		Msg("stream delta merged")

	if m.notifier != nil {
		m.notifier.Notify(Notification{EventID: delta.ID, Title: delta.Title, Kind: delta.Type})
	}
}

// scheduleReconnect arms the retry timer with the next backoff delay.
func (m *Merger) scheduleReconnect(gen int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if gen != m.gen || m.state == StateDisconnected {
		return
	}

	m.state = StateDisconnected
	m.attempts++
	delay := m.backoff.NextBackOff()
	m.logger.Info().
		Int("attempt", m.attempts).
		Str("delay", delay.String()).
		Msg("scheduling stream reconnect")

	m.retry = time.AfterFunc(delay, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen || m.state != StateDisconnected {
			return
		}
		m.startLocked()
	})
}

// Disconnect closes the connection and cancels any pending reconnect.
func (m *Merger) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = StateDisconnected
}

// Reconnect tears down any current connection and dials again
// immediately, resetting the backoff schedule.
func (m *Merger) Reconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.retry != nil {
		m.retry.Stop()
		m.retry = nil
	}
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	m.gen++
	m.state = StateDisconnected
	m.attempts = 0
	m.backoff.Reset()
	m.startLocked()
}

// State returns the current connection state.
func (m *Merger) State() ConnState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}
