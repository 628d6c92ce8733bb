// Package supply implements the supply-chain network analyzer: a directed
// weighted graph built from supplier relationships, betweenness and degree
// centrality, and chokepoint ranking. The analyzer holds no state between
// calls; a Graph is built fresh per analysis.
package supply

import (
	"fmt"

	apperrors "stratalpha/internal/errors"
)

// Edge is one supplier -> customer relationship with a positive weight
// (relationship strength; treated as a distance for shortest paths).
type Edge struct {
	Supplier string  `json:"supplier"`
	Customer string  `json:"customer"`
	Weight   float64 `json:"weight"`
}

type neighbor struct {
	node   int
	weight float64
}

// Graph is a directed weighted relationship graph. Nodes are company
// identifiers; at most one edge may exist per ordered (supplier, customer)
// pair.
type Graph struct {
	names []string
	index map[string]int
	out   [][]neighbor
	in    []int // in-degree counts
}

// NewGraph builds a graph from edge triples. Duplicate ordered pairs are
// rejected as a configuration error rather than silently overwritten or
// merged, so no relationship data is lost unnoticed. Extra nodes may be
// listed to include companies with no relationships; they score zero on
// every centrality metric.
func NewGraph(edges []Edge, extraNodes ...string) (*Graph, error) {
	g := &Graph{index: make(map[string]int)}

	seen := make(map[[2]string]bool, len(edges))
	for _, e := range edges {
		if e.Supplier == "" || e.Customer == "" {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				"edge endpoints must be non-empty")
		}
		if e.Supplier == e.Customer {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("self-loop on %q", e.Supplier))
		}
		if e.Weight <= 0 {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("edge %s->%s has non-positive weight %g", e.Supplier, e.Customer, e.Weight))
		}
		pair := [2]string{e.Supplier, e.Customer}
		if seen[pair] {
			return nil, apperrors.WithMessage(apperrors.ErrValidation,
				fmt.Sprintf("duplicate edge %s->%s", e.Supplier, e.Customer))
		}
		seen[pair] = true

		s := g.node(e.Supplier)
		c := g.node(e.Customer)
		g.out[s] = append(g.out[s], neighbor{node: c, weight: e.Weight})
		g.in[c]++
	}

	for _, n := range extraNodes {
		if n == "" {
			return nil, apperrors.WithMessage(apperrors.ErrValidation, "node name must be non-empty")
		}
		g.node(n)
	}

	return g, nil
}

// node returns the index for a name, adding it on first sight.
func (g *Graph) node(name string) int {
	if i, ok := g.index[name]; ok {
		return i
	}
	i := len(g.names)
	g.index[name] = i
	g.names = append(g.names, name)
	g.out = append(g.out, nil)
	g.in = append(g.in, 0)
	return i
}

// Order returns the number of nodes.
func (g *Graph) Order() int { return len(g.names) }

// Size returns the number of edges.
func (g *Graph) Size() int {
	n := 0
	for _, adj := range g.out {
		n += len(adj)
	}
	return n
}

// Nodes returns node names in insertion order.
func (g *Graph) Nodes() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}
