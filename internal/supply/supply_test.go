package supply

import (
	"testing"

	"stratalpha/internal/testutil"
)

func mustGraph(t *testing.T, edges []Edge, extra ...string) *Graph {
	t.Helper()
	g, err := NewGraph(edges, extra...)
	testutil.AssertNoError(t, err)
	return g
}

func TestNewGraphValidation(t *testing.T) {
	t.Run("duplicate_edge_rejected", func(t *testing.T) {
		_, err := NewGraph([]Edge{
			{Supplier: "A", Customer: "B", Weight: 1},
			{Supplier: "A", Customer: "B", Weight: 2},
		})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("reverse_edge_allowed", func(t *testing.T) {
		g := mustGraph(t, []Edge{
			{Supplier: "A", Customer: "B", Weight: 1},
			{Supplier: "B", Customer: "A", Weight: 2},
		})
		if g.Order() != 2 {
			t.Errorf("expected 2 nodes, got %d", g.Order())
		}
	})

	t.Run("non_positive_weight", func(t *testing.T) {
		_, err := NewGraph([]Edge{{Supplier: "A", Customer: "B", Weight: 0}})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("self_loop", func(t *testing.T) {
		_, err := NewGraph([]Edge{{Supplier: "A", Customer: "A", Weight: 1}})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("empty_endpoint", func(t *testing.T) {
		_, err := NewGraph([]Edge{{Supplier: "A", Customer: "", Weight: 1}})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}

func TestCentralityPathWithShortcut(t *testing.T) {
	t.Run("expensive_direct_edge_routes_through_middle", func(t *testing.T) {
		// A->B->C costs 2, direct A->C costs 3, so the shortest A-to-C
		// path runs through B. B mediates exactly one of the two ordered
		// pairs not involving it: betweenness 1/((3-1)(3-2)) = 0.5.
		g := mustGraph(t, []Edge{
			{Supplier: "A", Customer: "B", Weight: 1},
			{Supplier: "B", Customer: "C", Weight: 1},
			{Supplier: "A", Customer: "C", Weight: 3},
		})

		metrics := Centrality(g)
		testutil.AssertInDelta(t, 0.5, metrics["B"].Betweenness, 1e-12)
		if metrics["B"].Betweenness <= 0 {
			t.Fatal("B must have strictly positive betweenness")
		}
		testutil.AssertInDelta(t, 0, metrics["A"].Betweenness, 1e-12)
		testutil.AssertInDelta(t, 0, metrics["C"].Betweenness, 1e-12)
	})

	t.Run("cheap_direct_edge_bypasses_middle", func(t *testing.T) {
		// With equal weights the direct A->C edge (distance 1) beats
		// A->B->C (distance 2), so nothing routes through B.
		g := mustGraph(t, []Edge{
			{Supplier: "A", Customer: "B", Weight: 1},
			{Supplier: "B", Customer: "C", Weight: 1},
			{Supplier: "A", Customer: "C", Weight: 1},
		})

		metrics := Centrality(g)
		testutil.AssertInDelta(t, 0, metrics["B"].Betweenness, 1e-12)
	})
}

func TestCentralitySplitsOverEqualPaths(t *testing.T) {
	// Diamond: A->B->D and A->C->D with equal weights. The A-to-D pair
	// has two shortest paths, so B and C each mediate half of it:
	// 0.5 / ((4-1)(4-2)) = 1/12.
	g := mustGraph(t, []Edge{
		{Supplier: "A", Customer: "B", Weight: 1},
		{Supplier: "A", Customer: "C", Weight: 1},
		{Supplier: "B", Customer: "D", Weight: 1},
		{Supplier: "C", Customer: "D", Weight: 1},
	})

	metrics := Centrality(g)
	testutil.AssertInDelta(t, 1.0/12.0, metrics["B"].Betweenness, 1e-12)
	testutil.AssertInDelta(t, 1.0/12.0, metrics["C"].Betweenness, 1e-12)
}

func TestCentralityHandlesCycles(t *testing.T) {
	// Feedback loop; must terminate and score each node as the sole
	// mediator of one ordered pair.
	g := mustGraph(t, []Edge{
		{Supplier: "A", Customer: "B", Weight: 1},
		{Supplier: "B", Customer: "C", Weight: 1},
		{Supplier: "C", Customer: "A", Weight: 1},
	})

	metrics := Centrality(g)
	for _, node := range g.Nodes() {
		testutil.AssertInDelta(t, 0.5, metrics[node].Betweenness, 1e-12)
	}
}

func TestCentralityDegreesAndIsolatedNode(t *testing.T) {
	g := mustGraph(t, []Edge{
		{Supplier: "A", Customer: "B", Weight: 2},
		{Supplier: "A", Customer: "C", Weight: 1},
		{Supplier: "B", Customer: "C", Weight: 1},
	}, "LONER")

	metrics := Centrality(g)

	a := metrics["A"]
	if a.OutDegree != 2 || a.InDegree != 0 || a.Degree != 2 {
		t.Errorf("unexpected degrees for A: %+v", a)
	}
	c := metrics["C"]
	if c.InDegree != 2 || c.OutDegree != 0 {
		t.Errorf("unexpected degrees for C: %+v", c)
	}

	loner := metrics["LONER"]
	if loner.Betweenness != 0 || loner.Degree != 0 {
		t.Errorf("isolated node must score zero everywhere: %+v", loner)
	}
}

func TestAnalyzeChokepointRanking(t *testing.T) {
	g := mustGraph(t, []Edge{
		{Supplier: "A", Customer: "B", Weight: 1},
		{Supplier: "B", Customer: "C", Weight: 1},
		{Supplier: "A", Customer: "C", Weight: 3},
	}, "LONER")

	geo := map[string]float64{"B": 0.8, "A": 0.2}

	metrics, ranked, err := Analyze(g, geo, Options{})
	testutil.AssertNoError(t, err)

	if len(metrics) != 4 || len(ranked) != 4 {
		t.Fatalf("expected 4 nodes in metrics and ranking, got %d/%d", len(metrics), len(ranked))
	}

	// B combines the only positive betweenness with the highest geo score.
	if ranked[0].Node != "B" {
		t.Errorf("expected B as top chokepoint, got %s", ranked[0].Node)
	}
	testutil.AssertInDelta(t, 0.7*0.5+0.3*0.8, ranked[0].CompositeScore, 1e-12)

	// The isolated node must never outrank a connected one with any score.
	for i, c := range ranked {
		if c.Node == "LONER" && i < len(ranked)-1 {
			for _, later := range ranked[i+1:] {
				if later.CompositeScore > 0 {
					t.Errorf("isolated node ranked above %s", later.Node)
				}
			}
		}
	}

	t.Run("top_k", func(t *testing.T) {
		_, top, err := Analyze(g, geo, Options{TopK: 2})
		testutil.AssertNoError(t, err)
		if len(top) != 2 {
			t.Fatalf("expected 2 chokepoints, got %d", len(top))
		}
	})

	t.Run("min_score", func(t *testing.T) {
		_, above, err := Analyze(g, geo, Options{MinScore: 0.3})
		testutil.AssertNoError(t, err)
		for _, c := range above {
			if c.CompositeScore < 0.3 {
				t.Errorf("chokepoint %s below threshold: %g", c.Node, c.CompositeScore)
			}
		}
	})
}

func TestAnalyzeValidation(t *testing.T) {
	g := mustGraph(t, []Edge{{Supplier: "A", Customer: "B", Weight: 1}})

	t.Run("bad_geo_weight", func(t *testing.T) {
		_, _, err := Analyze(g, map[string]float64{"A": 1.5}, Options{})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("empty_graph", func(t *testing.T) {
		empty, err := NewGraph(nil)
		testutil.AssertNoError(t, err)
		_, _, err = Analyze(empty, nil, Options{})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})

	t.Run("negative_composite_weight", func(t *testing.T) {
		_, _, err := Analyze(g, nil, Options{BetweennessWeight: -1, GeoWeight: 0.5})
		testutil.AssertAppError(t, err, "VALIDATION_ERROR")
	})
}
