// Package graph derives a node/edge relationship graph from shared
// attributes across an event set, for the exploratory visualization.
//
// Building is O(n²) over the input set by design. Callers must cap the
// set (≤200 events) before building; the package does not paginate.
package graph

import (
	"github.com/kurator-news/kurator/internal/common"
	"github.com/kurator-news/kurator/internal/models"
)

// Dimension is one connection type between events.
type Dimension string

const (
	DimPeople    Dimension = "people"
	DimCountries Dimension = "countries"
	DimSources   Dimension = "sources"
	DimCategory  Dimension = "category"
)

// sharedCap bounds the shared-item multiplier on edge strength.
const sharedCap = 3

// Options controls node sizing and which dimensions produce edges.
// Strengths maps each enabled dimension to its base edge strength;
// absent dimensions produce no edges.
type Options struct {
	MinSize      float64
	MaxSize      float64
	ScoreCeiling float64
	Strengths    map[Dimension]float64
}

// DefaultOptions returns the visualization defaults.
func DefaultOptions() Options {
	return Options{
		MinSize:      8,
		MaxSize:      40,
		ScoreCeiling: 100,
		Strengths: map[Dimension]float64{
			DimPeople:    3,
			DimCountries: 2,
			DimSources:   1.5,
			DimCategory:  1,
		},
	}
}

// Node is one event in the graph, sized by trending score.
type Node struct {
	ID       string  `json:"id"`
	Label    string  `json:"label"`
	Category string  `json:"category"`
	Size     float64 `json:"size"`
}

// Edge connects two events along one dimension. A pair may carry
// multiple parallel edges, one per dimension they share items in.
type Edge struct {
	Source    string    `json:"source"`
	Target    string    `json:"target"`
	Dimension Dimension `json:"dimension"`
	Shared    int       `json:"shared"`
	Strength  float64   `json:"strength"`
}

// Graph is the full visualization payload.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Build constructs the graph for an event set. Input order determines
// node order and edge enumeration order, so output is deterministic.
func Build(events []models.Event, opts Options) Graph {
	g := Graph{Nodes: make([]Node, 0, len(events))}

	for _, e := range events {
		g.Nodes = append(g.Nodes, Node{
			ID:       e.ID,
			Label:    e.Title,
			Category: e.Category,
			Size:     nodeSize(e.TrendingScore, opts),
		})
	}

	for i := 0; i < len(events); i++ {
		for j := i + 1; j < len(events); j++ {
			g.Edges = append(g.Edges, pairEdges(&events[i], &events[j], opts)...)
		}
	}
	return g
}

// nodeSize linearly scales a trending score into [MinSize, MaxSize],
// clamped at the configured score ceiling.
func nodeSize(score float64, opts Options) float64 {
	if opts.ScoreCeiling <= 0 {
		return opts.MinSize
	}
	if score < 0 {
		score = 0
	}
	if score > opts.ScoreCeiling {
		score = opts.ScoreCeiling
	}
	return opts.MinSize + (opts.MaxSize-opts.MinSize)*(score/opts.ScoreCeiling)
}

// pairEdges returns one edge per enabled dimension the pair shares
// items along. Strength = base × min(shared, 3).
func pairEdges(a, b *models.Event, opts Options) []Edge {
	var edges []Edge

	add := func(dim Dimension, shared int) {
		base, enabled := opts.Strengths[dim]
		if !enabled || shared == 0 {
			return
		}
		mult := shared
		if mult > sharedCap {
			mult = sharedCap
		}
		edges = append(edges, Edge{
			Source:    a.ID,
			Target:    b.ID,
			Dimension: dim,
			Shared:    shared,
			Strength:  base * float64(mult),
		})
	}

	add(DimPeople, sharedCount(a.Metadata.MentionedPeople, b.Metadata.MentionedPeople))
	add(DimCountries, sharedCount(a.Metadata.MentionedCountries, b.Metadata.MentionedCountries))
	add(DimSources, sharedCount(a.Metadata.Sources, b.Metadata.Sources))
	if a.Category != "" && a.Category == b.Category {
		add(DimCategory, 1)
	}
	return edges
}

// sharedCount counts distinct items present in both lists, folded.
func sharedCount(a, b []string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	folded := make(map[string]struct{}, len(a))
	for _, s := range a {
		folded[common.FoldText(s)] = struct{}{}
	}
	n := 0
	seen := make(map[string]struct{}, len(b))
	for _, s := range b {
		f := common.FoldText(s)
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		if _, ok := folded[f]; ok {
			n++
		}
	}
	return n
}
