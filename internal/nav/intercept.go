package nav

import (
	"math"

	"github.com/chasedown/server/internal/data"
)

// InterceptParams tunes interception scoring. All values come from config;
// nothing here is baked into the algorithm.
type InterceptParams struct {
	IterCap      int     // Dijkstra cap for the pursuer cost table
	SnapRadius   int     // tile radius when snapping the pursuer
	SkipNodes    int     // leading route nodes ignored ("intercept right here" guard)
	MinTargetETA float64 // seconds; closer targets are not worth cutting off
	LateFactor   float64 // multiplier on the pursuer arriving after the target
	MinSpeed     float64 // tiles/second floor so a parked target has a finite ETA
}

// PickInterceptNode selects the node on the target's projected route where
// the two estimated arrival times are closest, biased toward the pursuer
// arriving slightly early. Speeds are world units per second. Returns
// false when no route node is reachable or every candidate is too close.
func PickInterceptNode(g *Graph, m *data.TileMap, pursuerX, pursuerY float64,
	route []NodeID, targetSpeed, pursuerSpeed float64, p InterceptParams) (NodeID, bool) {

	if g.Empty() || len(route) == 0 {
		return NoNode, false
	}
	src, ok := g.NearestNode(m, pursuerX, pursuerY, p.SnapRadius)
	if !ok {
		return NoNode, false
	}
	table, ok := BuildCostTable(g, src, p.IterCap)
	if !ok {
		return NoNode, false
	}

	ts := g.TileSize
	tSpd := targetSpeed / ts
	pSpd := pursuerSpeed / ts
	if tSpd < p.MinSpeed {
		tSpd = p.MinSpeed
	}
	if pSpd < p.MinSpeed {
		pSpd = p.MinSpeed
	}

	best := NoNode
	bestScore := math.Inf(1)
	cum := 0.0
	for i := 1; i < len(route); i++ {
		cum += hopCost(g, route[i-1], route[i])
		if i < p.SkipNodes {
			continue
		}
		targetETA := cum / tSpd
		if targetETA < p.MinTargetETA {
			continue
		}
		pc := table.Cost(route[i])
		if math.IsInf(pc, 1) {
			continue
		}
		pursuerETA := pc / pSpd
		diff := pursuerETA - targetETA
		score := -diff
		if diff > 0 {
			score = diff * p.LateFactor // arriving late costs double
		}
		if score < bestScore {
			bestScore = score
			best = route[i]
		}
	}
	return best, best != NoNode
}

// hopCost is the directed edge cost between consecutive route nodes, or
// the straight-line tile distance when the projection skipped an edge.
func hopCost(g *Graph, u, v NodeID) float64 {
	if eid, ok := g.EdgeBetween(u, v); ok {
		return g.DirEdges[eid].Cost
	}
	a, b := &g.Nodes[u], &g.Nodes[v]
	return math.Hypot(a.X-b.X, a.Y-b.Y) / g.TileSize
}

// Chokepoint is a roadblock placement: a world position on a road corridor
// plus the corridor's cardinal travel direction (roadblocks are laid
// perpendicular to it).
type Chokepoint struct {
	X    float64
	Y    float64
	DirX int
	DirY int
	Edge EdgeID
}

// PickChokepoint predicts the target's route and selects the most
// strategic bridge edge within [minAhead, maxAhead] tiles of travel: the
// one whose removal would sever the road network, highest bridgeScore
// first. Falls back to any corridor in the window when no bridge exists
// there.
func PickChokepoint(g *Graph, m *data.TileMap, x, y, dirX, dirY float64,
	minAhead, maxAhead, horizon, snapRadius int) (Chokepoint, bool) {

	route, ok := PredictRoute(g, m, x, y, dirX, dirY, horizon, snapRadius)
	if !ok || len(route) < 2 {
		return Chokepoint{}, false
	}

	best := EdgeID(-1)
	bestScore := -1.0
	fallback := EdgeID(-1)
	cum := 0.0
	for i := 1; i < len(route); i++ {
		eid, ok := g.EdgeBetween(route[i-1], route[i])
		if !ok {
			break
		}
		e := &g.DirEdges[eid]
		cum += e.Cost
		if cum < float64(minAhead) {
			continue
		}
		if cum > float64(maxAhead) {
			break
		}
		if fallback < 0 {
			fallback = eid
		}
		ue := &g.UndirEdges[e.Undirected]
		if ue.IsBridge && ue.BridgeScore > bestScore {
			best = eid
			bestScore = ue.BridgeScore
		}
	}
	if best < 0 {
		best = fallback
	}
	if best < 0 {
		return Chokepoint{}, false
	}

	e := &g.DirEdges[best]
	mid := e.Tiles[len(e.Tiles)/2]
	wx, wy := m.TileToWorld(mid[0], mid[1])
	return Chokepoint{X: wx, Y: wy, DirX: e.DirX, DirY: e.DirY, Edge: best}, true
}
