// Package feed composes the event cache and the engine client into the
// query surface the rest of the service reads from: primary lists,
// translation fallback filtering, and archive unions.
package feed

import (
	"context"

	"github.com/kurator-news/kurator/internal/cache"
	"github.com/kurator-news/kurator/internal/client"
	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/models"
)

// Query describes one event list request.
type Query struct {
	Limit    int
	Lang     string
	Category string
	Archive  bool
}

// Service resolves queries against the cache, fetching from the engine
// on miss. All fetches go through the cache so they coalesce per key.
type Service struct {
	cache        *cache.EventCache
	engine       *client.EngineClient
	defaultLang  string
	archiveLimit int
	logger       *common.Logger
}

// NewService creates a feed service.
func NewService(c *cache.EventCache, engine *client.EngineClient, defaultLang string, archiveLimit int, logger *common.Logger) *Service {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Service{
		cache:        c,
		engine:       engine,
		defaultLang:  defaultLang,
		archiveLimit: archiveLimit,
		logger:       logger,
	}
}

// Events returns the best available event set for a query. For
// non-default languages the result is filtered against the
// default-language list to drop untranslated fallback copies; with
// Archive set, the historical pool is unioned in behind the primary.
func (s *Service) Events(ctx context.Context, q Query) cache.Result {
	primaryKey := cache.MakeKey(q.Limit, q.Lang, q.Category, false)
	primary := s.cache.Get(ctx, primaryKey, func(ctx context.Context) ([]models.Event, error) {
		return s.engine.ListEvents(ctx, q.Limit, q.Lang, q.Category)
	})

	events := primary.Events

	if q.Lang != s.defaultLang {
		baseKey := cache.MakeKey(q.Limit, s.defaultLang, q.Category, false)
		baseline := s.cache.Get(ctx, baseKey, func(ctx context.Context) ([]models.Event, error) {
			return s.engine.ListEvents(ctx, q.Limit, s.defaultLang, q.Category)
		})
		events = FilterUntranslated(events, baseline)
		primary.Loading = primary.Loading || baseline.Loading
	}

	if q.Archive {
		archiveKey := cache.MakeKey(s.archiveLimit, q.Lang, "", true)
		archive := s.cache.Get(ctx, archiveKey, func(ctx context.Context) ([]models.Event, error) {
			return s.engine.ArchiveEvents(ctx, s.archiveLimit, q.Lang)
		})
		events = MergeArchive(events, archive.Events)
		primary.Loading = primary.Loading || archive.Loading
	}

	primary.Events = events
	return primary
}

// FilterUntranslated drops localized events whose lead is byte-for-byte
// identical to the default-language lead for the same ID. Identical text
// means the translation has not landed yet and the upstream is still
// serving fallback copy. When the baseline fetch failed or has not
// arrived, everything passes through unfiltered rather than hiding
// events behind a missing comparison set.
func FilterUntranslated(localized []models.Event, baseline cache.Result) []models.Event {
	if baseline.Err != nil || len(baseline.Events) == 0 {
		return localized
	}

	baseLead := make(map[string]string, len(baseline.Events))
	for _, e := range baseline.Events {
		baseLead[e.ID] = e.Lead
	}

	out := make([]models.Event, 0, len(localized))
	for _, e := range localized {
		if lead, ok := baseLead[e.ID]; ok && lead == e.Lead {
			continue
		}
		out = append(out, e)
	}
	return out
}

// MergeArchive unions the historical pool into the primary list with
// ID-based de-duplication. The primary wins on collision and keeps its
// ordering; archive-only events follow in archive order.
func MergeArchive(primary, archive []models.Event) []models.Event {
	seen := make(map[string]struct{}, len(primary))
	out := make([]models.Event, 0, len(primary)+len(archive))
	for _, e := range primary {
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	for _, e := range archive {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}
		out = append(out, e)
	}
	return out
}
