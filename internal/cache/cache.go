// Package cache holds the shared event pool: TTL-bound query results,
// the in-flight fetch set, and the new-event highlight set. All three
// live behind one owner so their state transitions stay atomic.
package cache

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/models"
)

// Loader performs the actual network retrieval and response validation
// for one cache key. It is injected by the feed layer and may block;
// the cache never calls it while holding its lock.
type Loader func(ctx context.Context) ([]models.Event, error)

// Result is what a caller gets back from Get: the best currently
// available data plus loading/error state for the key.
type Result struct {
	Events    []models.Event
	FetchedAt time.Time
	Loading   bool
	Err       error
}

// entry is one cached query result.
type entry struct {
	events    []models.Event
	fetchedAt time.Time
}

// EventCache is the process-wide event pool. Keys are canonical query
// descriptors (see MakeKey). At most one fetch is in flight per key at
// any instant, and a failed refetch leaves previous data servable
// (stale-while-error). Thread-safe with a single sync.Mutex so the
// decision to fetch and the in-flight marking are one transition.
type EventCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	entries    map[string]entry
	errs       map[string]error
	inflight   map[string]struct{}
	highlights map[string]struct{}
	logger     *common.Logger
}

// New creates an EventCache with the given entry TTL.
func New(ttl time.Duration, logger *common.Logger) *EventCache {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &EventCache{
		ttl:        ttl,
		entries:    make(map[string]entry),
		errs:       make(map[string]error),
		inflight:   make(map[string]struct{}),
		highlights: make(map[string]struct{}),
		logger:     logger,
	}
}

// MakeKey builds the canonical cache key for a query. Parameters appear
// in sorted order with an archive suffix, so logically identical queries
// always coalesce onto one key.
func MakeKey(limit int, lang, category string, archive bool) string {
	return fmt.Sprintf("category=%s&lang=%s&limit=%d|archive:%t", category, lang, limit, archive)
}

// Get returns the best currently available data for key. A fresh entry
// is returned as-is. Otherwise, if no fetch is in flight for key, one is
// started with loader; concurrent callers observe the same single fetch.
// The loader runs detached from ctx's cancellation so a short-lived
// caller cannot kill the fetch it triggered. The cache performs no
// background scheduling; callers decide when to poll Get again.
func (c *EventCache) Get(ctx context.Context, key string, loader Loader) Result {
	c.mu.Lock()

	e, ok := c.entries[key]
	if ok && common.IsFresh(e.fetchedAt, c.ttl) {
		res := Result{Events: snapshot(e.events), FetchedAt: e.fetchedAt, Err: c.errs[key]}
		c.mu.Unlock()
		return res
	}

	if _, busy := c.inflight[key]; busy {
		res := Result{Events: snapshot(e.events), FetchedAt: e.fetchedAt, Loading: true, Err: c.errs[key]}
		c.mu.Unlock()
		return res
	}

	// Mark in-flight in the same critical section as the decision to
	// fetch, so rapid repeated calls coalesce onto this one loader run.
	c.inflight[key] = struct{}{}
	res := Result{Events: snapshot(e.events), FetchedAt: e.fetchedAt, Loading: true, Err: c.errs[key]}
	c.mu.Unlock()

	// The loader must outlive the caller: Get is non-blocking, so an HTTP
	// request context is already being cancelled by the time the fetch
	// completes. Values (correlation IDs) are kept, cancellation is not.
	go c.runLoader(context.WithoutCancel(ctx), key, loader)

	return res
}

// runLoader invokes the loader outside the lock and commits its outcome.
func (c *EventCache) runLoader(ctx context.Context, key string, loader Loader) {
	events, err := loader(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	defer delete(c.inflight, key)

	if err != nil {
		// Stale-while-error: previous data, if any, remains visible.
		c.errs[key] = err
		c.logger.Warn().Str("key", key).Err(err).Msg("event fetch failed, serving stale data")
		return
	}

	c.entries[key] = entry{events: events, fetchedAt: time.Now()}
	delete(c.errs, key)
	c.logger.Debug().Str("key", key).Int("events", len(events)).Msg("cache entry refreshed")
}

// Peek returns the current entry for key without triggering a fetch.
func (c *EventCache) Peek(key string) Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := c.entries[key]
	_, busy := c.inflight[key]
	return Result{Events: snapshot(e.events), FetchedAt: e.fetchedAt, Loading: busy, Err: c.errs[key]}
}

// Put stores a ready-made entry for key, replacing any previous one,
// bypassing the loader path. Production reads go through Get; Put exists
// for callers that already hold the data, such as tests seeding state.
func (c *EventCache) Put(key string, events []models.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry{events: snapshot(events), fetchedAt: time.Now()}
	delete(c.errs, key)
}

// MergeDelta folds a live stream delta into every cache entry that
// already contains the event. Events are never inserted into entries
// they were not part of: the stream orders by recency while queries
// order by trending score, and blind insertion would create rows that
// vanish on the next full refetch. Returns the number of entries the
// delta was applied to.
func (c *EventCache) MergeDelta(delta *models.StreamDelta) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	applied := 0
	for key, e := range c.entries {
		for i := range e.events {
			if e.events[i].ID != delta.ID {
				continue
			}
			events := snapshot(e.events)
			events[i] = delta.ApplyTo(events[i])
			c.entries[key] = entry{events: events, fetchedAt: e.fetchedAt}
			applied++
			break
		}
	}

	if delta.Type == models.FrameNew {
		c.highlights[delta.ID] = struct{}{}
	}

	return applied
}

// Highlights returns the IDs flagged as newly arrived since the last
// acknowledgment, sorted for deterministic output.
func (c *EventCache) Highlights() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	ids := make([]string, 0, len(c.highlights))
	for id := range c.highlights {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Acknowledge removes the given IDs from the highlight set. There is no
// automatic expiry; only explicit acknowledgment clears a highlight.
func (c *EventCache) Acknowledge(ids ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range ids {
		delete(c.highlights, id)
	}
}

// snapshot returns a copy of an event slice so callers never alias the
// cache's backing array.
func snapshot(events []models.Event) []models.Event {
	if events == nil {
		return nil
	}
	out := make([]models.Event, len(events))
	copy(out, events)
	return out
}
