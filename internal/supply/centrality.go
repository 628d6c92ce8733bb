package supply

import (
	"container/heap"
	"math"
)

// NodeMetrics holds the per-node graph scores.
type NodeMetrics struct {
	Betweenness float64 `json:"betweenness"`
	Degree      int     `json:"degree"`
	InDegree    int     `json:"in_degree"`
	OutDegree   int     `json:"out_degree"`
}

// CentralityMetrics maps node name to its scores.
type CentralityMetrics map[string]NodeMetrics

// Centrality computes betweenness centrality (Brandes' algorithm, Dijkstra
// variant with edge weights as distances) plus in/out degree counts for
// every node. Betweenness is normalized by (n-1)(n-2), the number of
// ordered source/target pairs excluding the node itself, so scores are
// comparable across graphs. Isolated nodes score zero; cycles terminate
// naturally because shortest paths never revisit a settled node.
func Centrality(g *Graph) CentralityMetrics {
	n := g.Order()
	betweenness := make([]float64, n)

	for s := 0; s < n; s++ {
		brandesAccumulate(g, s, betweenness)
	}

	// Directed normalization.
	if n > 2 {
		scale := 1.0 / float64((n-1)*(n-2))
		for i := range betweenness {
			betweenness[i] *= scale
		}
	}

	metrics := make(CentralityMetrics, n)
	for i, name := range g.names {
		metrics[name] = NodeMetrics{
			Betweenness: betweenness[i],
			Degree:      g.in[i] + len(g.out[i]),
			InDegree:    g.in[i],
			OutDegree:   len(g.out[i]),
		}
	}
	return metrics
}

// brandesAccumulate runs one single-source pass of Brandes' algorithm from
// s and adds its pair-dependency contributions into betweenness.
func brandesAccumulate(g *Graph, s int, betweenness []float64) {
	n := g.Order()

	dist := make([]float64, n)
	sigma := make([]float64, n) // number of shortest paths from s
	delta := make([]float64, n) // dependency accumulation
	preds := make([][]int, n)
	for i := range dist {
		dist[i] = math.Inf(1)
	}
	dist[s] = 0
	sigma[s] = 1

	// Settled order; popped in non-decreasing distance.
	order := make([]int, 0, n)
	settled := make([]bool, n)

	pq := &nodeHeap{{node: s, dist: 0}}
	for pq.Len() > 0 {
		item := heap.Pop(pq).(nodeItem)
		v := item.node
		if settled[v] {
			continue
		}
		settled[v] = true
		order = append(order, v)

		for _, e := range g.out[v] {
			alt := dist[v] + e.weight
			switch {
			case alt < dist[e.node]:
				dist[e.node] = alt
				sigma[e.node] = sigma[v]
				preds[e.node] = append(preds[e.node][:0], v)
				heap.Push(pq, nodeItem{node: e.node, dist: alt})
			case alt == dist[e.node]:
				sigma[e.node] += sigma[v]
				preds[e.node] = append(preds[e.node], v)
			}
		}
	}

	// Back-propagation of dependencies in reverse settled order.
	for i := len(order) - 1; i >= 0; i-- {
		w := order[i]
		for _, v := range preds[w] {
			delta[v] += sigma[v] / sigma[w] * (1 + delta[w])
		}
		if w != s {
			betweenness[w] += delta[w]
		}
	}
}

type nodeItem struct {
	node int
	dist float64
}

type nodeHeap []nodeItem

func (h nodeHeap) Len() int            { return len(h) }
func (h nodeHeap) Less(i, j int) bool  { return h[i].dist < h[j].dist }
func (h nodeHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *nodeHeap) Push(x interface{}) { *h = append(*h, x.(nodeItem)) }
func (h *nodeHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
