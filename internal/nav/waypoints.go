package nav

// Waypoint is a world-space point with its lane offset already applied.
// Waypoints are produced on demand and live only inside the consuming
// agent's navigation cache.
type Waypoint struct {
	X float64
	Y float64
}

// Interior tiles of corridors at least this long are thinned to every
// other tile; endpoints are never dropped.
const decimateMinTiles = 6

// laneOffset spreads agents sharing a corridor onto parallel tracks:
// lane index laneBias mod lanes (non-negative), centered on the corridor.
func laneOffset(laneBias, lanes int, laneWidth float64) float64 {
	if lanes < 1 {
		lanes = 1
	}
	idx := ((laneBias % lanes) + lanes) % lanes
	return (float64(idx) - float64(lanes-1)/2) * laneWidth
}

// EdgeWaypoints converts one directed edge's tile walk into world
// waypoints, offset perpendicular to the travel direction by the agent's
// lane. skipFirst drops the leading node tile (used for seam dedupe and
// for agents already standing at the edge start).
func EdgeWaypoints(g *Graph, eid EdgeID, laneBias int, laneWidth float64, skipFirst bool) []Waypoint {
	if g == nil || eid < 0 || int(eid) >= len(g.DirEdges) {
		return nil
	}
	e := &g.DirEdges[eid]
	off := laneOffset(laneBias, e.Lanes, laneWidth)
	// Perpendicular of the cardinal travel direction.
	px := float64(-e.DirY) * off
	py := float64(e.DirX) * off

	half := g.TileSize / 2
	out := make([]Waypoint, 0, len(e.Tiles))
	last := len(e.Tiles) - 1
	for i, t := range e.Tiles {
		if i == 0 && skipFirst {
			continue
		}
		// Thin long straight runs for smoothness; first and last tiles
		// always survive.
		if i != 0 && i != last && last+1 >= decimateMinTiles && i%2 == 1 {
			continue
		}
		wx := (float64(t[0]) * g.TileSize) + half + px
		wy := (float64(t[1]) * g.TileSize) + half + py
		out = append(out, Waypoint{X: wx, Y: wy})
	}
	return out
}

// PathWaypoints converts a node path into dense waypoints by chaining its
// edges, emitting each shared node tile once. dropFirst removes the very
// first point when the agent already stands at the path start. Returns
// false when consecutive path nodes have no connecting directed edge.
func PathWaypoints(g *Graph, path []NodeID, laneBias int, laneWidth float64, dropFirst bool) ([]Waypoint, bool) {
	if g.Empty() || len(path) == 0 {
		return nil, false
	}
	if len(path) == 1 {
		n := &g.Nodes[path[0]]
		if dropFirst {
			return []Waypoint{}, true
		}
		return []Waypoint{{X: n.X, Y: n.Y}}, true
	}

	var out []Waypoint
	for i := 1; i < len(path); i++ {
		eid, ok := g.EdgeBetween(path[i-1], path[i])
		if !ok {
			return nil, false
		}
		// The first edge contributes its start tile; later edges start
		// at the node the previous edge already emitted.
		skip := i > 1 || dropFirst
		out = append(out, EdgeWaypoints(g, eid, laneBias, laneWidth, skip)...)
	}
	return out, true
}
