package graph

import (
	"reflect"
	"testing"

	"github.com/kurator-news/kurator/internal/models"
)

func graphEvent(id, category string, score float64) models.Event {
	return models.Event{ID: id, Title: "title-" + id, Category: category, TrendingScore: score}
}

func TestNodeSize(t *testing.T) {
	opts := DefaultOptions()

	tests := []struct {
		name  string
		score float64
		want  float64
	}{
		{"zero score", 0, 8},
		{"midpoint", 50, 24},
		{"at ceiling", 100, 40},
		{"above ceiling clamps", 250, 40},
		{"negative clamps to floor", -10, 8},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := nodeSize(tc.score, opts); got != tc.want {
				t.Errorf("nodeSize(%v) = %v, want %v", tc.score, got, tc.want)
			}
		})
	}
}

func TestBuild_NodesFollowInputOrder(t *testing.T) {
	events := []models.Event{
		graphEvent("b", "Sport", 100),
		graphEvent("a", "Polityka", 0),
	}

	g := Build(events, DefaultOptions())

	if len(g.Nodes) != 2 || g.Nodes[0].ID != "b" || g.Nodes[1].ID != "a" {
		t.Fatalf("nodes = %+v", g.Nodes)
	}
	if g.Nodes[0].Size != 40 || g.Nodes[1].Size != 8 {
		t.Errorf("sizes = %v, %v", g.Nodes[0].Size, g.Nodes[1].Size)
	}
	if g.Nodes[0].Label != "title-b" {
		t.Errorf("label = %q", g.Nodes[0].Label)
	}
}

func TestBuild_ParallelEdgesPerDimension(t *testing.T) {
	a := graphEvent("a", "Polityka", 10)
	a.Metadata = models.Metadata{
		MentionedPeople:    []string{"Jan Kowalski", "Adam Nowak"},
		MentionedCountries: []string{"Polska"},
		Sources:            []string{"PAP"},
	}
	b := graphEvent("b", "Polityka", 20)
	b.Metadata = models.Metadata{
		MentionedPeople:    []string{"jan kowalski"}, // folded match
		MentionedCountries: []string{"Niemcy"},
		Sources:            []string{"PAP", "Onet"},
	}

	g := Build([]models.Event{a, b}, DefaultOptions())

	want := []Edge{
		{Source: "a", Target: "b", Dimension: DimPeople, Shared: 1, Strength: 3},
		{Source: "a", Target: "b", Dimension: DimSources, Shared: 1, Strength: 1.5},
		{Source: "a", Target: "b", Dimension: DimCategory, Shared: 1, Strength: 1},
	}
	if !reflect.DeepEqual(g.Edges, want) {
		t.Errorf("edges = %+v, want %+v", g.Edges, want)
	}
}

func TestBuild_SharedMultiplierCapped(t *testing.T) {
	people := []string{"A B", "C D", "E F", "G H", "I J"}
	a := graphEvent("a", "", 0)
	a.Metadata.MentionedPeople = people
	b := graphEvent("b", "", 0)
	b.Metadata.MentionedPeople = people

	g := Build([]models.Event{a, b}, DefaultOptions())

	if len(g.Edges) != 1 {
		t.Fatalf("edges = %+v", g.Edges)
	}
	e := g.Edges[0]
	if e.Shared != 5 {
		t.Errorf("shared = %d, want 5", e.Shared)
	}
	// Strength multiplier caps at 3 even though 5 items are shared.
	if e.Strength != 9 {
		t.Errorf("strength = %v, want 9", e.Strength)
	}
}

func TestBuild_DisabledDimensionProducesNoEdges(t *testing.T) {
	a := graphEvent("a", "Sport", 0)
	b := graphEvent("b", "Sport", 0)
	a.Metadata.MentionedCountries = []string{"Polska"}
	b.Metadata.MentionedCountries = []string{"Polska"}

	opts := DefaultOptions()
	opts.Strengths = map[Dimension]float64{DimPeople: 3}

	g := Build([]models.Event{a, b}, opts)
	if len(g.Edges) != 0 {
		t.Errorf("disabled dimensions still produced edges: %+v", g.Edges)
	}
}

func TestBuild_EmptyCategoryNeverConnects(t *testing.T) {
	a := graphEvent("a", "", 0)
	b := graphEvent("b", "", 0)

	g := Build([]models.Event{a, b}, DefaultOptions())
	if len(g.Edges) != 0 {
		t.Errorf("empty categories must not form category edges: %+v", g.Edges)
	}
}

func TestBuild_DuplicateSharedItemsCountOnce(t *testing.T) {
	a := graphEvent("a", "", 0)
	a.Metadata.Sources = []string{"PAP"}
	b := graphEvent("b", "", 0)
	b.Metadata.Sources = []string{"PAP", "pap", "PAP "}

	g := Build([]models.Event{a, b}, DefaultOptions())

	if len(g.Edges) != 1 || g.Edges[0].Shared != 1 {
		t.Errorf("folded duplicates must count once: %+v", g.Edges)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	var events []models.Event
	for i := 0; i < 12; i++ {
		e := graphEvent(string(rune('a'+i)), "Polityka", float64(i*10))
		e.Metadata.MentionedPeople = []string{"Jan Kowalski"}
		events = append(events, e)
	}

	first := Build(events, DefaultOptions())
	second := Build(events, DefaultOptions())
	if !reflect.DeepEqual(first, second) {
		t.Error("identical inputs produced different graphs")
	}
	// n*(n-1)/2 pairs, two edges each (people + category).
	if want := 12 * 11; len(first.Edges) != want {
		t.Errorf("edge count = %d, want %d", len(first.Edges), want)
	}
}
