package supply

import (
	"sort"

	apperrors "stratalpha/internal/errors"
)

// Default composite weights for chokepoint ranking.
const (
	DefaultBetweennessWeight = 0.7
	DefaultGeoWeight         = 0.3
)

// Options controls chokepoint ranking. Zero weights fall back to the
// defaults. TopK limits the result length when positive; MinScore drops
// nodes below the threshold. Both may be combined.
type Options struct {
	BetweennessWeight float64 `json:"betweenness_weight"`
	GeoWeight         float64 `json:"geo_weight"`
	TopK              int     `json:"top_k"`
	MinScore          float64 `json:"min_score"`
}

// Chokepoint is a node ranked by its structural criticality.
type Chokepoint struct {
	Node             string  `json:"node"`
	Betweenness      float64 `json:"betweenness"`
	GeoConcentration float64 `json:"geo_concentration"`
	CompositeScore   float64 `json:"composite_score"`
}

// Analyze computes centrality metrics for the graph and ranks chokepoints
// by the composite of betweenness and an externally supplied
// geographic-concentration score per node (0 when absent). Results are
// ordered descending by composite score, node name breaking ties so the
// ranking is deterministic.
func Analyze(g *Graph, geoWeights map[string]float64, opts Options) (CentralityMetrics, []Chokepoint, error) {
	if g == nil || g.Order() == 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation, "graph has no nodes")
	}
	for node, w := range geoWeights {
		if w < 0 || w > 1 {
			return nil, nil, apperrors.WithMessage(apperrors.ErrValidation,
				"geo concentration for "+node+" must be in [0,1]")
		}
	}

	bw, gw := opts.BetweennessWeight, opts.GeoWeight
	if bw == 0 && gw == 0 {
		bw, gw = DefaultBetweennessWeight, DefaultGeoWeight
	}
	if bw < 0 || gw < 0 {
		return nil, nil, apperrors.WithMessage(apperrors.ErrValidation,
			"composite weights must be non-negative")
	}

	metrics := Centrality(g)

	ranked := make([]Chokepoint, 0, len(metrics))
	for _, node := range g.Nodes() {
		m := metrics[node]
		geo := geoWeights[node]
		ranked = append(ranked, Chokepoint{
			Node:             node,
			Betweenness:      m.Betweenness,
			GeoConcentration: geo,
			CompositeScore:   bw*m.Betweenness + gw*geo,
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].CompositeScore != ranked[j].CompositeScore {
			return ranked[i].CompositeScore > ranked[j].CompositeScore
		}
		return ranked[i].Node < ranked[j].Node
	})

	if opts.MinScore > 0 {
		cut := len(ranked)
		for i, c := range ranked {
			if c.CompositeScore < opts.MinScore {
				cut = i
				break
			}
		}
		ranked = ranked[:cut]
	}
	if opts.TopK > 0 && len(ranked) > opts.TopK {
		ranked = ranked[:opts.TopK]
	}

	return metrics, ranked, nil
}
