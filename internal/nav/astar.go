package nav

import (
	"container/heap"
	"math"
)

type graphPQItem struct {
	node  NodeID
	g, f  float64
	seq   int
	index int
}

type graphQueue []*graphPQItem

func (q graphQueue) Len() int { return len(q) }
func (q graphQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].seq < q[j].seq
}
func (q graphQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index = i
	q[j].index = j
}
func (q *graphQueue) Push(x any) {
	n := x.(*graphPQItem)
	n.index = len(*q)
	*q = append(*q, n)
}
func (q *graphQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}

// FindNodePath runs A* over graph nodes with a Euclidean heuristic in tile
// units (edge costs are tile counts, never below the straight-line tile
// distance, so the heuristic stays admissible). Stale heap entries are
// expected and skipped on pop.
func FindNodePath(g *Graph, start, goal NodeID, iterCap int) ([]NodeID, bool) {
	if g.Empty() || !g.ValidNode(start) || !g.ValidNode(goal) {
		return nil, false
	}
	if start == goal {
		return []NodeID{start}, true
	}

	h := func(id NodeID) float64 {
		a, b := &g.Nodes[id], &g.Nodes[goal]
		return math.Hypot(a.X-b.X, a.Y-b.Y) / g.TileSize
	}

	gScore := make(map[NodeID]float64, 64)
	parent := make(map[NodeID]NodeID, 64)
	closed := make(map[NodeID]struct{}, 64)

	seq := 0
	open := &graphQueue{}
	heap.Init(open)
	heap.Push(open, &graphPQItem{node: start, g: 0, f: h(start)})
	gScore[start] = 0

	for iter := 0; open.Len() > 0 && iter < iterCap; iter++ {
		cur := heap.Pop(open).(*graphPQItem)
		if _, seen := closed[cur.node]; seen {
			continue
		}
		closed[cur.node] = struct{}{}
		if cur.node == goal {
			return reconstructNodes(parent, start, goal), true
		}
		for _, eid := range g.Adj[cur.node] {
			e := &g.DirEdges[eid]
			if _, seen := closed[e.To]; seen {
				continue
			}
			tg := cur.g + e.Cost
			if prev, ok := gScore[e.To]; ok && tg >= prev {
				continue
			}
			gScore[e.To] = tg
			parent[e.To] = cur.node
			seq++
			heap.Push(open, &graphPQItem{node: e.To, g: tg, f: tg + h(e.To), seq: seq})
		}
	}
	return nil, false
}

func reconstructNodes(parent map[NodeID]NodeID, start, goal NodeID) []NodeID {
	path := []NodeID{goal}
	for cur := goal; cur != start; {
		cur = parent[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
