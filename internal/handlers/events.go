package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/config"
	"github.com/kurator-news/kurator/internal/feed"
	"github.com/kurator-news/kurator/internal/rank"
)

// EventsHandler serves the curated event buckets for a query.
type EventsHandler struct {
	logger  *common.Logger
	feed    *feed.Service
	cfg     *config.Config
	nowFunc func() time.Time
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(logger *common.Logger, svc *feed.Service, cfg *config.Config) *EventsHandler {
	return &EventsHandler{logger: logger, feed: svc, cfg: cfg, nowFunc: time.Now}
}

// eventsResponse is the /api/events payload.
type eventsResponse struct {
	Buckets   rank.Buckets `json:"buckets"`
	Loading   bool         `json:"loading"`
	FetchedAt time.Time    `json:"fetched_at"`
	Error     string       `json:"error,omitempty"`
}

// ServeHTTP handles GET /api/events.
//
// Query parameters: limit, lang, category, archive, countries,
// fav_categories, fav_countries (list parameters comma-separated).
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	q := h.parseQuery(r)
	res := h.feed.Events(r.Context(), q)

	seasonalStart, seasonalEnd := h.cfg.Ranking.SeasonalWindow()
	opts := rank.Options{
		CategoryFilter:      q.Category,
		CountryFilter:       splitList(r.URL.Query().Get("countries")),
		FavoriteCategories:  splitList(r.URL.Query().Get("fav_categories")),
		FavoriteCountries:   splitList(r.URL.Query().Get("fav_countries")),
		FavoriteSourceBoost: h.cfg.Ranking.FavoriteSourceBoost,
		FavoriteScoreFactor: h.cfg.Ranking.FavoriteScoreFactor,
		FeaturedSourceFloor: h.cfg.Ranking.FeaturedSourceFloor,
		SeasonalStart:       seasonalStart,
		SeasonalEnd:         seasonalEnd,
		Now:                 h.nowFunc(),
	}

	resp := eventsResponse{
		Buckets:   rank.Allocate(res.Events, opts),
		Loading:   res.Loading,
		FetchedAt: res.FetchedAt,
	}
	if res.Err != nil {
		resp.Error = res.Err.Error()
	}

	WriteJSON(w, http.StatusOK, resp)
}

// parseQuery maps request parameters onto a feed query, applying
// configured defaults.
func (h *EventsHandler) parseQuery(r *http.Request) feed.Query {
	params := r.URL.Query()

	limit := h.cfg.Cache.DefaultLimit
	if raw := params.Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	lang := params.Get("lang")
	if lang == "" {
		lang = h.cfg.Upstream.DefaultLang
	}

	return feed.Query{
		Limit:    limit,
		Lang:     lang,
		Category: params.Get("category"),
		Archive:  params.Get("archive") == "true",
	}
}

// splitList parses a comma-separated query parameter.
func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
