package handlers

import (
	"net/http"

	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/config"
	"github.com/kurator-news/kurator/internal/feed"
	"github.com/kurator-news/kurator/internal/graph"
)

// graphEventCap bounds the set handed to the O(n²) graph builder.
const graphEventCap = 200

// GraphHandler serves the relationship graph for a filtered event set.
type GraphHandler struct {
	logger *common.Logger
	feed   *feed.Service
	cfg    *config.Config
}

// NewGraphHandler creates a new graph handler.
func NewGraphHandler(logger *common.Logger, svc *feed.Service, cfg *config.Config) *GraphHandler {
	return &GraphHandler{logger: logger, feed: svc, cfg: cfg}
}

// ServeHTTP handles GET /api/events/graph.
//
// Query parameters: limit, lang, category, archive as for /api/events,
// plus dims (comma-separated subset of people,countries,sources,category).
func (h *GraphHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	params := r.URL.Query()
	q := feed.Query{
		Limit:    h.cfg.Cache.DefaultLimit,
		Lang:     params.Get("lang"),
		Category: params.Get("category"),
		Archive:  params.Get("archive") == "true",
	}
	if q.Lang == "" {
		q.Lang = h.cfg.Upstream.DefaultLang
	}

	res := h.feed.Events(r.Context(), q)

	events := res.Events
	if len(events) > graphEventCap {
		events = events[:graphEventCap]
	}

	opts := graph.DefaultOptions()
	if dims := splitList(params.Get("dims")); len(dims) > 0 {
		enabled := make(map[graph.Dimension]float64, len(dims))
		for _, d := range dims {
			if base, ok := opts.Strengths[graph.Dimension(d)]; ok {
				enabled[graph.Dimension(d)] = base
			}
		}
		opts.Strengths = enabled
	}

	WriteJSON(w, http.StatusOK, graph.Build(events, opts))
}
