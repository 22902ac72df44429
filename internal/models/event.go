// Package models defines data structures for Kurator
package models

import (
	"time"

	"github.com/kurator-news/kurator/internal/common"
)

// FreshnessLevel is the ordinal recency classification supplied by the
// upstream engine. It is never computed locally.
type FreshnessLevel string

const (
	FreshnessBreaking FreshnessLevel = "BREAKING"
	FreshnessHot      FreshnessLevel = "HOT"
	FreshnessRecent   FreshnessLevel = "RECENT"
	FreshnessAging    FreshnessLevel = "AGING"
	FreshnessOld      FreshnessLevel = "OLD"
)

// freshnessRank orders levels from most to least recent.
var freshnessRank = map[FreshnessLevel]int{
	FreshnessBreaking: 0,
	FreshnessHot:      1,
	FreshnessRecent:   2,
	FreshnessAging:    3,
	FreshnessOld:      4,
}

// Rank returns the ordinal position of the level (BREAKING=0 .. OLD=4).
// Unknown values rank with OLD.
func (f FreshnessLevel) Rank() int {
	if r, ok := freshnessRank[f]; ok {
		return r
	}
	return freshnessRank[FreshnessOld]
}

// IsFresh reports whether the level is anything other than OLD.
// The allocation engine builds its main sections from fresh events only.
func (f FreshnessLevel) IsFresh() bool {
	return f.Rank() < freshnessRank[FreshnessOld]
}

// CategoryOther is the fallback category for events that fit nothing else.
const CategoryOther = "Inne"

// CanonicalCategories is the fixed presentation order for category groups.
// Unknown categories sort after these, CategoryOther last.
var CanonicalCategories = []string{
	"Polityka",
	"Świat",
	"Gospodarka",
	"Sport",
	"Kultura",
	"Nauka",
	"Technologia",
	"Zdrowie",
	CategoryOther,
}

// CategoryRank returns the position of a category in the canonical order,
// or len(CanonicalCategories) for unknown categories.
func CategoryRank(category string) int {
	for i, c := range CanonicalCategories {
		if c == category {
			return i
		}
	}
	return len(CanonicalCategories)
}

// Location is a place mentioned by an event, with optional coordinates.
type Location struct {
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// Metadata carries the derived editorial attributes of an event.
type Metadata struct {
	Locations          []Location `json:"locations,omitempty"`
	Sources            []string   `json:"sources,omitempty"`
	MentionedPeople    []string   `json:"mentioned_people,omitempty"`
	MentionedCountries []string   `json:"mentioned_countries,omitempty"`
	HeadlineVariants   []string   `json:"headline_variants,omitempty"`
	KeyPoints          []string   `json:"key_points,omitempty"`
	SEOKeywords        []string   `json:"seo_keywords,omitempty"`
	Hashtags           []string   `json:"hashtags,omitempty"`
}

// Event is a deduplicated aggregate representing one real-world news story.
// ID is stable across refetches and unique within any pool snapshot.
// Events are immutable except through the cache merge operation, which
// replaces whole records.
type Event struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Lead     string `json:"lead"`
	Summary  string `json:"summary"`
	Category string `json:"category"`
	ImageURL string `json:"image_url,omitempty"`

	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
	LastContentUpdate         time.Time `json:"last_content_update"`
	LastSummarizationComplete time.Time `json:"last_summarization_complete"`

	TrendingScore  float64        `json:"trending_score"`
	FreshnessLevel FreshnessLevel `json:"freshness_level"`
	SourceCount    int            `json:"source_count"`
	ArticleCount   int            `json:"article_count"`
	ViewCount      int            `json:"view_count"`

	Metadata Metadata `json:"metadata"`
}

// MentionsCountry reports whether the event mentions any of the given
// countries, comparing case- and diacritic-insensitively.
func (e *Event) MentionsCountry(countries []string) bool {
	if len(countries) == 0 {
		return false
	}
	for _, want := range countries {
		for _, have := range e.Metadata.MentionedCountries {
			if common.TextEqualFold(want, have) {
				return true
			}
		}
	}
	return false
}

// IsFavorite reports whether the event matches the user's favorite
// categories or favorite countries.
func (e *Event) IsFavorite(favoriteCategories, favoriteCountries []string) bool {
	for _, c := range favoriteCategories {
		if c == e.Category {
			return true
		}
	}
	return e.MentionsCountry(favoriteCountries)
}
