package nav

import (
	"math/rand"

	"github.com/chasedown/server/internal/data"
)

// Edge scoring weights shared by route projection and traffic edge picks:
// continuing the current heading dominates, longer corridors get a nudge.
const (
	forwardWeight   = 3.0
	edgeLengthBonus = 0.05
)

// Cardinalize reduces a direction vector to its dominant cardinal axis.
// A zero vector stays zero (callers then score by corridor length alone).
func Cardinalize(dx, dy float64) (int, int) {
	ax, ay := dx, dy
	if ax < 0 {
		ax = -ax
	}
	if ay < 0 {
		ay = -ay
	}
	if ax == 0 && ay == 0 {
		return 0, 0
	}
	if ax >= ay {
		if dx >= 0 {
			return 1, 0
		}
		return -1, 0
	}
	if dy >= 0 {
		return 0, 1
	}
	return 0, -1
}

// PickOutEdge chooses the best outgoing edge from a node given the current
// cardinal heading: prefer continuing forward, mildly prefer longer
// corridors, and never turn back to prev unless it is the only option.
// rng, when non-nil, adds a small jitter so traffic at the same node does
// not all pick identically.
func PickOutEdge(g *Graph, from, prev NodeID, fx, fy int, rng *rand.Rand) (EdgeID, bool) {
	if g.Empty() || !g.ValidNode(from) {
		return 0, false
	}
	best := EdgeID(-1)
	bestScore := 0.0
	fallback := EdgeID(-1) // the U-turn edge, used only when nothing else exists
	for _, eid := range g.Adj[from] {
		e := &g.DirEdges[eid]
		if e.To == prev && prev != NoNode {
			fallback = eid
			continue
		}
		score := forwardWeight*float64(e.DirX*fx+e.DirY*fy) + edgeLengthBonus*e.Cost
		if rng != nil {
			score += rng.Float64() * 0.25
		}
		if best < 0 || score > bestScore {
			best = eid
			bestScore = score
		}
	}
	if best >= 0 {
		return best, true
	}
	if fallback >= 0 {
		return fallback, true // true dead end
	}
	return 0, false
}

// PredictRoute projects a plausible future node sequence for an agent at a
// world position moving in the given direction: snap to the nearest node,
// then greedily follow the graph, updating the forward direction to each
// chosen edge so the projection curves with the road. Stops early at nodes
// with no outgoing edges.
func PredictRoute(g *Graph, m *data.TileMap, x, y, dirX, dirY float64, horizon, snapRadius int) ([]NodeID, bool) {
	start, ok := g.NearestNode(m, x, y, snapRadius)
	if !ok {
		return nil, false
	}
	fx, fy := Cardinalize(dirX, dirY)

	route := []NodeID{start}
	prev := NoNode
	cur := start
	for len(route) < horizon {
		eid, ok := PickOutEdge(g, cur, prev, fx, fy, nil)
		if !ok {
			break
		}
		e := &g.DirEdges[eid]
		route = append(route, e.To)
		fx, fy = e.DirX, e.DirY
		prev = cur
		cur = e.To
	}
	return route, true
}
