package cache

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kurator-news/kurator/internal/models"
)

func testEvents(ids ...string) []models.Event {
	out := make([]models.Event, len(ids))
	for i, id := range ids {
		out[i] = models.Event{ID: id, Title: "title-" + id, FreshnessLevel: models.FreshnessRecent}
	}
	return out
}

// waitFor polls until cond is true or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached before deadline")
}

func TestMakeKey(t *testing.T) {
	key := MakeKey(60, "pl", "Sport", false)
	expected := "category=Sport&lang=pl&limit=60|archive:false"
	if key != expected {
		t.Errorf("expected key %q, got %q", expected, key)
	}

	// Logically identical queries must produce identical keys.
	if MakeKey(60, "pl", "Sport", false) != key {
		t.Error("identical queries produced divergent keys")
	}
	if MakeKey(60, "pl", "Sport", true) == key {
		t.Error("archive flag must change the key")
	}
}

func TestGet_FreshHit(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a", "b"))

	calls := int32(0)
	res := c.Get(context.Background(), "k", func(ctx context.Context) ([]models.Event, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("should not be called")
	})

	if res.Loading {
		t.Error("fresh entry should not be loading")
	}
	if len(res.Events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(res.Events))
	}
	time.Sleep(20 * time.Millisecond)
	if atomic.LoadInt32(&calls) != 0 {
		t.Error("loader must not run for a fresh entry")
	}
}

func TestGet_Coalescing(t *testing.T) {
	c := New(5*time.Second, nil)

	calls := int32(0)
	release := make(chan struct{})
	loader := func(ctx context.Context) ([]models.Event, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testEvents("a"), nil
	}

	// N calls before the loader resolves trigger it exactly once.
	for i := 0; i < 10; i++ {
		res := c.Get(context.Background(), "k", loader)
		if !res.Loading {
			t.Errorf("call %d: expected loading state", i)
		}
	}
	close(release)

	waitFor(t, func() bool { return len(c.Peek("k").Events) == 1 })

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected exactly 1 loader call, got %d", n)
	}
}

func TestGet_CoalescingConcurrent(t *testing.T) {
	c := New(5*time.Second, nil)

	calls := int32(0)
	release := make(chan struct{})
	loader := func(ctx context.Context) ([]models.Event, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return testEvents("a"), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Get(context.Background(), "k", loader)
		}()
	}
	wg.Wait()
	close(release)

	waitFor(t, func() bool { return len(c.Peek("k").Events) == 1 })

	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("expected exactly 1 loader call under concurrency, got %d", n)
	}
}

func TestGet_LoaderSurvivesCallerCancel(t *testing.T) {
	c := New(5*time.Second, nil)

	// Simulates an HTTP handler: Get returns immediately and net/http
	// cancels the request context right after. The fetch, which honors
	// its context the way a real HTTP client does, must still complete.
	ctx, cancel := context.WithCancel(context.Background())
	c.Get(ctx, "k", func(ctx context.Context) ([]models.Event, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(20 * time.Millisecond):
			return testEvents("a", "b"), nil
		}
	})
	cancel()

	waitFor(t, func() bool { return len(c.Peek("k").Events) == 2 })

	if err := c.Peek("k").Err; err != nil {
		t.Errorf("fetch must not inherit the caller's cancellation, got %v", err)
	}
}

func TestGet_StaleWhileError(t *testing.T) {
	c := New(20*time.Millisecond, nil)
	c.Put("k", testEvents("a", "b"))

	// Let the entry expire, then fail the refetch.
	time.Sleep(30 * time.Millisecond)

	fetchErr := errors.New("engine unreachable")
	c.Get(context.Background(), "k", func(ctx context.Context) ([]models.Event, error) {
		return nil, fetchErr
	})

	waitFor(t, func() bool { return c.Peek("k").Err != nil })

	res := c.Peek("k")
	if len(res.Events) != 2 {
		t.Errorf("stale events must remain servable, got %d", len(res.Events))
	}
	if !errors.Is(res.Err, fetchErr) {
		t.Errorf("expected stored fetch error, got %v", res.Err)
	}
}

func TestGet_ErrorClearedOnSuccess(t *testing.T) {
	c := New(10*time.Millisecond, nil)

	c.Get(context.Background(), "k", func(ctx context.Context) ([]models.Event, error) {
		return nil, errors.New("boom")
	})
	waitFor(t, func() bool { return c.Peek("k").Err != nil })

	c.Get(context.Background(), "k", func(ctx context.Context) ([]models.Event, error) {
		return testEvents("a"), nil
	})
	waitFor(t, func() bool { return len(c.Peek("k").Events) == 1 })

	if err := c.Peek("k").Err; err != nil {
		t.Errorf("error must be cleared on successful refetch, got %v", err)
	}
}

func TestGet_RefetchAfterInFlightClears(t *testing.T) {
	c := New(5*time.Millisecond, nil)

	calls := int32(0)
	loader := func(ctx context.Context) ([]models.Event, error) {
		atomic.AddInt32(&calls, 1)
		return testEvents("a"), nil
	}

	c.Get(context.Background(), "k", loader)
	waitFor(t, func() bool { return len(c.Peek("k").Events) == 1 })

	// After expiry, a new Get starts a second fetch.
	time.Sleep(10 * time.Millisecond)
	c.Get(context.Background(), "k", loader)
	waitFor(t, func() bool { return atomic.LoadInt32(&calls) == 2 })
}

func TestMergeDelta_ReplacesInPlace(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a", "b", "c"))

	lead := "updated lead"
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	delta := &models.StreamDelta{
		ID:        "b",
		Title:     "updated title",
		Lead:      &lead,
		Type:      models.FrameUpdated,
		Timestamp: when,
	}

	if applied := c.MergeDelta(delta); applied != 1 {
		t.Fatalf("expected delta applied to 1 entry, got %d", applied)
	}

	events := c.Peek("k").Events
	if events[1].Title != "updated title" || events[1].Lead != "updated lead" {
		t.Errorf("delta fields not merged: %+v", events[1])
	}
	if !events[1].UpdatedAt.Equal(when) {
		t.Errorf("UpdatedAt not refreshed: %v", events[1].UpdatedAt)
	}
	// Position and neighbors untouched.
	if events[0].ID != "a" || events[2].ID != "c" {
		t.Error("merge must not reorder the entry")
	}
}

func TestMergeDelta_Idempotent(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a", "b"))

	lead := "new lead"
	sources := 9
	when := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	delta := &models.StreamDelta{
		ID:          "a",
		Title:       "t2",
		Lead:        &lead,
		SourceCount: &sources,
		Type:        models.FrameUpdated,
		Timestamp:   when,
	}

	c.MergeDelta(delta)
	once := c.Peek("k").Events
	c.MergeDelta(delta)
	twice := c.Peek("k").Events

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("applying the same frame twice changed state:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestMergeDelta_NoGhostRows(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("with", testEvents("a", "x"))
	c.Put("without", testEvents("a", "b"))

	delta := &models.StreamDelta{
		ID:        "x",
		Title:     "breaking",
		Type:      models.FrameNew,
		Timestamp: time.Now(),
	}
	c.MergeDelta(delta)

	for _, e := range c.Peek("without").Events {
		if e.ID == "x" {
			t.Fatal("delta must never be inserted into an entry it was absent from")
		}
	}

	// But the entry that already contained it was updated.
	events := c.Peek("with").Events
	if events[1].Title != "breaking" {
		t.Errorf("delta not applied to containing entry: %+v", events[1])
	}
}

func TestHighlights_Lifecycle(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a"))

	// "new" frames flag the ID even when no entry contains it yet.
	c.MergeDelta(&models.StreamDelta{ID: "n1", Title: "t", Type: models.FrameNew, Timestamp: time.Now()})
	c.MergeDelta(&models.StreamDelta{ID: "a", Title: "t", Type: models.FrameNew, Timestamp: time.Now()})
	// "updated" frames do not highlight.
	c.MergeDelta(&models.StreamDelta{ID: "a", Title: "t", Type: models.FrameUpdated, Timestamp: time.Now()})

	got := c.Highlights()
	want := []string{"a", "n1"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected highlights %v, got %v", want, got)
	}

	// No automatic expiry: still present until acknowledged.
	c.Acknowledge("a")
	got = c.Highlights()
	if !reflect.DeepEqual(got, []string{"n1"}) {
		t.Errorf("expected [n1] after partial acknowledge, got %v", got)
	}

	c.Acknowledge("n1")
	if len(c.Highlights()) != 0 {
		t.Error("expected empty highlight set after full acknowledge")
	}
}

func TestResultSnapshotIsolation(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a"))

	res := c.Peek("k")
	res.Events[0].Title = "mutated by caller"

	if c.Peek("k").Events[0].Title == "mutated by caller" {
		t.Error("caller mutation leaked into the cache")
	}
}

// --- Stress tests (devils-advocate) ---

// TestStress_MergeDuringGets verifies merge operations and reads do not
// race while a loader is in flight.
func TestStress_MergeDuringGets(t *testing.T) {
	c := New(5*time.Second, nil)
	c.Put("k", testEvents("a", "b", "c"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.MergeDelta(&models.StreamDelta{ID: "b", Title: "t", Type: models.FrameUpdated, Timestamp: time.Now()})
		}()
		go func() {
			defer wg.Done()
			c.Peek("k")
		}()
	}
	wg.Wait()
	// If we get here without a race condition panic, the test passes
}
