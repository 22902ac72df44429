// Package rank implements the allocation engine: a pure mapping from an
// event set plus user filters and favorites to disjoint presentation
// buckets. Allocate never mutates its input and is deterministic for a
// given input, with ties broken by event ID.
package rank

import (
	"sort"
	"strings"
	"time"

	"github.com/jinzhu/copier"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/models"
)

// Fixed allocation sizes.
const (
	featuredCount    = 3
	maxTopicGroups   = 4
	topicGroupSize   = 2 // related events per anchor
	maxHeroSections  = 8
	heroReserve      = 16
	latestCount      = 6
	maxOlympicEvents = 4
)

// olympicPatterns match seasonal sport events by title, keywords, or
// hashtags (diacritic-folded substring match).
var olympicPatterns = []string{
	"olimpi",   // olimpiada, olimpijski
	"igrzysk",  // igrzyska
	"medal",
	"paraolimpi",
}

// Options carries the user context and tuning constants for one
// allocation run. Now is injected so computations are reproducible.
type Options struct {
	CategoryFilter     string
	CountryFilter      []string
	FavoriteCategories []string
	FavoriteCountries  []string

	FavoriteSourceBoost int
	FavoriteScoreFactor float64
	FeaturedSourceFloor int

	SeasonalStart time.Time
	SeasonalEnd   time.Time
	Now           time.Time
}

// TopicGroup is an anchor event with similar same-category events.
type TopicGroup struct {
	Anchor  models.Event   `json:"anchor"`
	Related []models.Event `json:"related"`
}

// HeroSection is a paired two-event presentation slot.
type HeroSection struct {
	Primary   models.Event `json:"primary"`
	Secondary models.Event `json:"secondary"`
}

// CategoryGroup is one carousel shelf.
type CategoryGroup struct {
	Category string         `json:"category"`
	Events   []models.Event `json:"events"`
}

// Buckets is the full allocation output. Featured, HeroSections,
// TopicGroups, and Carousel are pairwise disjoint by ID; Latest may
// intentionally overlap with any of them; Olympic events are removed
// from the pool before everything else.
type Buckets struct {
	Featured     []models.Event  `json:"featured"`
	HeroSections []HeroSection   `json:"hero_sections"`
	TopicGroups  []TopicGroup    `json:"topic_groups"`
	Carousel     []CategoryGroup `json:"carousel"`
	Latest       []models.Event  `json:"latest"`
	Olympic      []models.Event  `json:"olympic"`
}

// scored pairs a canonical event with its boosted ranking values. The
// boost lives only here, never on the event record itself.
type scored struct {
	ev      models.Event
	score   float64
	sources int
	used    bool
}

// Allocate computes the presentation buckets for an event set.
func Allocate(events []models.Event, opts Options) Buckets {
	var b Buckets

	pool := filterPool(events, opts)
	pool, b.Olympic = extractSeasonal(pool, opts)
	ranked := boostAndRank(pool, opts)

	// Freshness split: main sections build from fresh events only.
	var fresh, old []*scored
	for i := range ranked {
		if ranked[i].ev.FreshnessLevel.IsFresh() {
			fresh = append(fresh, &ranked[i])
		} else {
			old = append(old, &ranked[i])
		}
	}

	b.Latest = pickLatest(fresh)
	b.Featured = pickFeatured(fresh, opts)

	remaining := unused(fresh)
	reserve := heroReserve
	if len(remaining) < reserve {
		reserve = len(remaining)
	}
	groupBudget := len(remaining) - reserve

	b.TopicGroups = buildTopicGroups(remaining, groupBudget)
	b.HeroSections = buildHeroSections(unused(fresh), old)
	b.Carousel = buildCarousel(append(unused(fresh), unused(old)...), opts)

	return b
}

// filterPool applies the category and country filters.
func filterPool(events []models.Event, opts Options) []models.Event {
	out := make([]models.Event, 0, len(events))
	for _, e := range events {
		if opts.CategoryFilter != "" && e.Category != opts.CategoryFilter {
			continue
		}
		if len(opts.CountryFilter) > 0 && !e.MentionsCountry(opts.CountryFilter) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// extractSeasonal pulls up to four olympic events out of the pool when
// the Sport category is active inside the seasonal window.
func extractSeasonal(pool []models.Event, opts Options) (remaining, olympic []models.Event) {
	if opts.CategoryFilter != "Sport" || !inWindow(opts.Now, opts.SeasonalStart, opts.SeasonalEnd) {
		return pool, nil
	}

	remaining = make([]models.Event, 0, len(pool))
	for _, e := range pool {
		if len(olympic) < maxOlympicEvents && matchesOlympic(&e) {
			olympic = append(olympic, e)
			continue
		}
		remaining = append(remaining, e)
	}
	return remaining, olympic
}

func inWindow(now, start, end time.Time) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !now.Before(start) && now.Before(end)
}

// matchesOlympic checks title, SEO keywords, and hashtags against the
// fixed seasonal pattern set.
func matchesOlympic(e *models.Event) bool {
	haystacks := append([]string{e.Title}, e.Metadata.SEOKeywords...)
	haystacks = append(haystacks, e.Metadata.Hashtags...)
	for _, h := range haystacks {
		folded := common.FoldText(h)
		for _, p := range olympicPatterns {
			if strings.Contains(folded, p) {
				return true
			}
		}
	}
	return false
}

// boostAndRank applies the favorite boost to deep copies of the events
// and sorts descending by boosted trending score. The canonical records
// stay untouched; ties break by ID ascending so the ordering is
// reproducible across runs.
func boostAndRank(pool []models.Event, opts Options) []scored {
	ranked := make([]scored, len(pool))
	for i, e := range pool {
		s := scored{ev: e, score: e.TrendingScore, sources: e.SourceCount}
		if e.IsFavorite(opts.FavoriteCategories, opts.FavoriteCountries) {
			// Boost a copy, never the stored record. copier deep-copies
			// the metadata slices so nothing can alias back.
			var boosted models.Event
			if err := copier.CopyWithOption(&boosted, &e, copier.Option{DeepCopy: true}); err == nil {
				boosted.SourceCount += opts.FavoriteSourceBoost
				boosted.TrendingScore *= opts.FavoriteScoreFactor
				s.score = boosted.TrendingScore
				s.sources = boosted.SourceCount
			}
		}
		ranked[i] = s
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].ev.ID < ranked[j].ev.ID
	})
	return ranked
}

// pickLatest selects the six most recently updated fresh events. The
// latest list is independent of the other buckets' consumption, so the
// same event may appear here and in a main section.
func pickLatest(fresh []*scored) []models.Event {
	byUpdated := make([]*scored, len(fresh))
	copy(byUpdated, fresh)
	sort.Slice(byUpdated, func(i, j int) bool {
		a, b := byUpdated[i].ev, byUpdated[j].ev
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.After(b.UpdatedAt)
		}
		return a.ID < b.ID
	})

	n := latestCount
	if len(byUpdated) < n {
		n = len(byUpdated)
	}
	out := make([]models.Event, n)
	for i := 0; i < n; i++ {
		out[i] = byUpdated[i].ev
	}
	return out
}

// pickFeatured selects exactly three fresh events, best-effort: events
// at or above the source floor first (in ranked order), then the
// next-highest source counts to fill.
func pickFeatured(fresh []*scored, opts Options) []models.Event {
	var out []models.Event

	for _, s := range fresh {
		if len(out) == featuredCount {
			break
		}
		if s.sources >= opts.FeaturedSourceFloor {
			s.used = true
			out = append(out, s.ev)
		}
	}

	if len(out) < featuredCount {
		// Fill with the highest remaining source counts.
		rest := unused(fresh)
		sort.Slice(rest, func(i, j int) bool {
			if rest[i].sources != rest[j].sources {
				return rest[i].sources > rest[j].sources
			}
			return rest[i].ev.ID < rest[j].ev.ID
		})
		for _, s := range rest {
			if len(out) == featuredCount {
				break
			}
			s.used = true
			out = append(out, s.ev)
		}
	}
	return out
}

// buildTopicGroups walks the fresh pool in ranked order forming groups
// of an anchor plus up to two same-category events sharing a mentioned
// person or country. budget caps how many events groups may consume so
// the hero reservation stays intact.
func buildTopicGroups(pool []*scored, budget int) []TopicGroup {
	var groups []TopicGroup

	for _, anchor := range pool {
		if len(groups) == maxTopicGroups || budget < 2 {
			break
		}
		if anchor.used {
			continue
		}

		var related []*scored
		for _, cand := range pool {
			if len(related) == topicGroupSize {
				break
			}
			if cand.used || cand == anchor || cand.ev.Category != anchor.ev.Category {
				continue
			}
			if sharesPersonOrCountry(&anchor.ev, &cand.ev) {
				related = append(related, cand)
			}
		}
		if len(related) == 0 {
			continue // anchors with zero matches are skipped, not consumed
		}
		if 1+len(related) > budget {
			related = related[:budget-1]
		}

		anchor.used = true
		g := TopicGroup{Anchor: anchor.ev}
		for _, r := range related {
			r.used = true
			g.Related = append(g.Related, r.ev)
		}
		groups = append(groups, g)
		budget -= 1 + len(g.Related)
	}
	return groups
}

// sharesPersonOrCountry reports whether two events mention at least one
// common person or country (folded comparison).
func sharesPersonOrCountry(a, b *models.Event) bool {
	return sharesItem(a.Metadata.MentionedPeople, b.Metadata.MentionedPeople) ||
		sharesItem(a.Metadata.MentionedCountries, b.Metadata.MentionedCountries)
}

func sharesItem(a, b []string) bool {
	if len(a) == 0 || len(b) == 0 {
		return false
	}
	folded := make(map[string]struct{}, len(a))
	for _, s := range a {
		folded[common.FoldText(s)] = struct{}{}
	}
	for _, s := range b {
		if _, ok := folded[common.FoldText(s)]; ok {
			return true
		}
	}
	return false
}

// buildHeroSections pairs consecutive events from the remaining fresh
// pool, preferring a partner covered by a shared source outlet. OLD
// events join the candidate list only once fewer than two fresh
// candidates remain; pairing stops when fewer than two candidates
// remain at all.
func buildHeroSections(fresh, old []*scored) []HeroSection {
	var sections []HeroSection

	candidates := fresh
	if len(candidates) < 2 {
		candidates = append(candidates, old...)
	}

	for len(sections) < maxHeroSections {
		primary := firstUnused(candidates)
		if primary == nil {
			if candidates = topUp(candidates, old); firstUnused(candidates) == nil {
				break
			}
			continue
		}
		primary.used = true

		secondary := pickPartner(candidates, primary)
		if secondary == nil {
			candidates = topUp(candidates, old)
			secondary = pickPartner(candidates, primary)
		}
		if secondary == nil {
			// Fewer than 2 candidates remain: the odd one out goes back
			// to the carousel.
			primary.used = false
			break
		}
		secondary.used = true
		sections = append(sections, HeroSection{Primary: primary.ev, Secondary: secondary.ev})

		if countUnused(candidates) < 2 {
			candidates = topUp(candidates, old)
		}
	}
	return sections
}

// pickPartner prefers the next unused candidate sharing a source outlet
// with primary, falling back to the next unused candidate.
func pickPartner(candidates []*scored, primary *scored) *scored {
	for _, c := range candidates {
		if !c.used && sharesItem(c.ev.Metadata.Sources, primary.ev.Metadata.Sources) {
			return c
		}
	}
	return firstUnused(candidates)
}

// topUp appends any OLD events not yet in candidates.
func topUp(candidates, old []*scored) []*scored {
	present := make(map[*scored]struct{}, len(candidates))
	for _, c := range candidates {
		present[c] = struct{}{}
	}
	for _, o := range old {
		if _, ok := present[o]; !ok {
			candidates = append(candidates, o)
		}
	}
	return candidates
}

// buildCarousel groups every unconsumed event by category. Favorite
// categories come first, then the canonical order, unknown categories
// last; ties break alphabetically.
func buildCarousel(leftover []*scored, opts Options) []CategoryGroup {
	byCategory := make(map[string][]models.Event)
	var order []string
	for _, s := range leftover {
		cat := s.ev.Category
		if cat == "" {
			cat = models.CategoryOther
		}
		if _, seen := byCategory[cat]; !seen {
			order = append(order, cat)
		}
		byCategory[cat] = append(byCategory[cat], s.ev)
	}

	favorite := make(map[string]bool, len(opts.FavoriteCategories))
	for _, c := range opts.FavoriteCategories {
		favorite[c] = true
	}

	sort.Slice(order, func(i, j int) bool {
		a, b := order[i], order[j]
		if favorite[a] != favorite[b] {
			return favorite[a]
		}
		ra, rb := models.CategoryRank(a), models.CategoryRank(b)
		if ra != rb {
			return ra < rb
		}
		return a < b
	})

	groups := make([]CategoryGroup, 0, len(order))
	for _, cat := range order {
		groups = append(groups, CategoryGroup{Category: cat, Events: byCategory[cat]})
	}
	return groups
}

// unused returns the not-yet-consumed entries of a pool, in order.
func unused(pool []*scored) []*scored {
	out := make([]*scored, 0, len(pool))
	for _, s := range pool {
		if !s.used {
			out = append(out, s)
		}
	}
	return out
}

func firstUnused(pool []*scored) *scored {
	for _, s := range pool {
		if !s.used {
			return s
		}
	}
	return nil
}

func countUnused(pool []*scored) int {
	n := 0
	for _, s := range pool {
		if !s.used {
			n++
		}
	}
	return n
}
