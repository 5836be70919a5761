package nav

import (
	"container/heap"
	"math"
)

// CostTable holds single-source shortest-path costs from one node to every
// other node, +Inf for unreachable. Built with Dijkstra and used only to
// compare travel times between agents; no parents are tracked because no
// route is ever reconstructed from it.
type CostTable struct {
	Source NodeID
	Costs  []float64
}

// BuildCostTable relaxes outward from source with a priority queue. Heap
// entries whose cost no longer matches the best-known distance are skipped
// on pop, not reprocessed.
func BuildCostTable(g *Graph, source NodeID, iterCap int) (*CostTable, bool) {
	if g.Empty() || !g.ValidNode(source) {
		return nil, false
	}
	costs := make([]float64, len(g.Nodes))
	for i := range costs {
		costs[i] = math.Inf(1)
	}
	costs[source] = 0

	open := &graphQueue{}
	heap.Init(open)
	heap.Push(open, &graphPQItem{node: source, g: 0, f: 0})

	for iter := 0; open.Len() > 0 && iter < iterCap; iter++ {
		cur := heap.Pop(open).(*graphPQItem)
		if cur.g > costs[cur.node] {
			continue // stale entry
		}
		for _, eid := range g.Adj[cur.node] {
			e := &g.DirEdges[eid]
			next := cur.g + e.Cost
			if next < costs[e.To] {
				costs[e.To] = next
				heap.Push(open, &graphPQItem{node: e.To, g: next, f: next})
			}
		}
	}
	return &CostTable{Source: source, Costs: costs}, true
}

// Cost returns the shortest-path cost to a node in tile units, +Inf when
// the node is unreachable or out of range.
func (t *CostTable) Cost(id NodeID) float64 {
	if t == nil || id < 0 || int(id) >= len(t.Costs) {
		return math.Inf(1)
	}
	return t.Costs[id]
}
