package models

import "time"

// ArchiveEvent is the looser shape returned by the historical archive
// endpoint. Optional fields are frequently absent, and the archive carries
// no freshness classification of its own.
type ArchiveEvent struct {
	ID                 string     `json:"id"`
	Title              string     `json:"title"`
	Lead               string     `json:"lead,omitempty"`
	Summary            string     `json:"summary,omitempty"`
	Category           string     `json:"category,omitempty"`
	ImageURL           string     `json:"image_url,omitempty"`
	CreatedAt          *time.Time `json:"created_at,omitempty"`
	UpdatedAt          *time.Time `json:"updated_at,omitempty"`
	TrendingScore      *float64   `json:"trending_score,omitempty"`
	SourceCount        *int       `json:"source_count,omitempty"`
	ArticleCount       *int       `json:"article_count,omitempty"`
	ViewCount          *int       `json:"view_count,omitempty"`
	MentionedPeople    []string   `json:"mentioned_people,omitempty"`
	MentionedCountries []string   `json:"mentioned_countries,omitempty"`
}

// ToEvent maps an archive record onto the canonical Event shape.
// Missing optional fields become empty/zero defaults, and archive
// records are unconditionally classified OLD.
func (a *ArchiveEvent) ToEvent() Event {
	e := Event{
		ID:             a.ID,
		Title:          a.Title,
		Lead:           a.Lead,
		Summary:        a.Summary,
		Category:       a.Category,
		ImageURL:       a.ImageURL,
		FreshnessLevel: FreshnessOld,
		Metadata: Metadata{
			MentionedPeople:    a.MentionedPeople,
			MentionedCountries: a.MentionedCountries,
		},
	}
	if a.Category == "" {
		e.Category = CategoryOther
	}
	if a.CreatedAt != nil {
		e.CreatedAt = *a.CreatedAt
	}
	if a.UpdatedAt != nil {
		e.UpdatedAt = *a.UpdatedAt
	}
	if a.TrendingScore != nil {
		e.TrendingScore = *a.TrendingScore
	}
	if a.SourceCount != nil {
		e.SourceCount = *a.SourceCount
	}
	if a.ArticleCount != nil {
		e.ArticleCount = *a.ArticleCount
	}
	if a.ViewCount != nil {
		e.ViewCount = *a.ViewCount
	}
	return e
}
