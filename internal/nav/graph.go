package nav

import (
	"github.com/chasedown/server/internal/data"
)

// NodeID indexes Graph.Nodes. Agents hold ids, never pointers, so per-agent
// caches cannot outlive or alias graph internals.
type NodeID int32

// EdgeID indexes Graph.DirEdges.
type EdgeID int32

// NoNode marks an unmapped tile in the tile→node index.
const NoNode NodeID = -1

// Cardinal walk directions: E, W, S, N. Edge walks and one-way codes both
// use this order.
var cardinals = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}

// Node is a routable point on the road network: an intersection, a turn,
// or a dead end. Immutable once the graph is built.
type Node struct {
	ID NodeID
	TX int
	TY int
	X  float64 // world-space tile center
	Y  float64
}

// DirectedEdge is a straight corridor walked tile-by-tile from one node to
// another, traversable in exactly one direction. Tiles includes both
// endpoint node tiles.
type DirectedEdge struct {
	ID         EdgeID
	From       NodeID
	To         NodeID
	Tiles      [][2]int
	Cost       float64 // tiles traversed, minimum 1
	DirX       int     // unit cardinal
	DirY       int
	Lanes      int // 1..4, max lane metadata seen along the walk
	Undirected int32
}

// UndirectedEdge collapses all directed edges between one unordered node
// pair. Connectivity and bridge analysis run on these, decoupled from
// direction counts.
type UndirectedEdge struct {
	ID          int32
	U           NodeID // U < V except for self-loops
	V           NodeID
	Cost        float64 // minimum directed cost between the pair
	IsBridge    bool
	BridgeScore float64
	DirEdges    []EdgeID
}

// BuildConfig carries the graph-build tunables.
type BuildConfig struct {
	RoadClass       byte // tile class treated as road
	BridgeNodeLimit int  // skip the bridge pass above this node count
}

// Graph is the routable view of a tile map. Built once, then read-only;
// agents reference its contents by integer id only.
type Graph struct {
	RoadClass  byte
	TileSize   float64
	Nodes      []Node
	DirEdges   []DirectedEdge
	UndirEdges []UndirectedEdge
	Adj        [][]EdgeID // outgoing directed edges per node

	width      int
	height     int
	tileToNode []NodeID // nearest node per road tile, NoNode elsewhere
	tileDist   []uint16 // BFS hop distance to that node
}

// Empty reports whether the graph has no routable nodes. All queries on an
// empty graph return "no result"; callers fall back to grid search.
func (g *Graph) Empty() bool { return g == nil || len(g.Nodes) == 0 }

func (g *Graph) tileIndex(tx, ty int) int { return tx*g.height + ty }

func (g *Graph) inBounds(tx, ty int) bool {
	return tx >= 0 && ty >= 0 && tx < g.width && ty < g.height
}

// NodeAtTile returns the nearest node for a road tile, per the BFS index.
func (g *Graph) NodeAtTile(tx, ty int) (NodeID, bool) {
	if g.Empty() || !g.inBounds(tx, ty) {
		return NoNode, false
	}
	id := g.tileToNode[g.tileIndex(tx, ty)]
	return id, id != NoNode
}

// NodeDistAtTile returns the BFS hop distance from a road tile to its
// nearest node. The mapping breaks distance ties by discovery order, so
// this is approximate, not exact geometric nearest.
func (g *Graph) NodeDistAtTile(tx, ty int) (int, bool) {
	if g.Empty() || !g.inBounds(tx, ty) {
		return 0, false
	}
	if g.tileToNode[g.tileIndex(tx, ty)] == NoNode {
		return 0, false
	}
	return int(g.tileDist[g.tileIndex(tx, ty)]), true
}

// ValidNode reports whether id is inside [0, len(Nodes)).
func (g *Graph) ValidNode(id NodeID) bool {
	return g != nil && id >= 0 && int(id) < len(g.Nodes)
}

// EdgeBetween returns the directed edge from u to v, if one exists.
func (g *Graph) EdgeBetween(u, v NodeID) (EdgeID, bool) {
	if !g.ValidNode(u) || !g.ValidNode(v) {
		return 0, false
	}
	for _, eid := range g.Adj[u] {
		if g.DirEdges[eid].To == v {
			return eid, true
		}
	}
	return 0, false
}

// BuildGraph extracts the routable graph from a tile map. A map with zero
// road tiles yields an empty graph, not an error.
func BuildGraph(m *data.TileMap, cfg BuildConfig) *Graph {
	g := &Graph{
		RoadClass: cfg.RoadClass,
		TileSize:  m.TileSize(),
		width:     int(m.Width()),
		height:    int(m.Height()),
	}

	isRoad := func(tx, ty int) bool {
		return m.InBounds(tx, ty) && m.ClassAt(tx, ty) == cfg.RoadClass
	}

	// Pass 1: classify node tiles. A road tile is a node when its open
	// 4-neighbor degree != 2, or the two openings do not run straight
	// through the tile (a turn).
	nodeAt := make([]NodeID, g.width*g.height)
	for i := range nodeAt {
		nodeAt[i] = NoNode
	}
	for tx := 0; tx < g.width; tx++ {
		for ty := 0; ty < g.height; ty++ {
			if !isRoad(tx, ty) {
				continue
			}
			var open [4]bool
			degree := 0
			for d, c := range cardinals {
				if isRoad(tx+c[0], ty+c[1]) {
					open[d] = true
					degree++
				}
			}
			straight := degree == 2 && ((open[0] && open[1]) || (open[2] && open[3]))
			if degree == 2 && straight {
				continue
			}
			id := NodeID(len(g.Nodes))
			wx, wy := m.TileToWorld(tx, ty)
			g.Nodes = append(g.Nodes, Node{ID: id, TX: tx, TY: ty, X: wx, Y: wy})
			nodeAt[g.tileIndex(tx, ty)] = id
		}
	}
	if len(g.Nodes) == 0 {
		return g
	}

	// Pass 2: walk straight corridors out of every node. Interior tiles
	// are degree-2 straight-throughs, so each walk holds one cardinal
	// direction until it reaches another node tile.
	g.Adj = make([][]EdgeID, len(g.Nodes))
	undirIndex := make(map[[2]NodeID]int32)
	for ni := range g.Nodes {
		n := &g.Nodes[ni]
		for _, c := range cardinals {
			dx, dy := c[0], c[1]
			if !isRoad(n.TX+dx, n.TY+dy) {
				continue
			}
			tiles := [][2]int{{n.TX, n.TY}}
			cx, cy := n.TX+dx, n.TY+dy
			var to NodeID = NoNode
			for isRoad(cx, cy) {
				tiles = append(tiles, [2]int{cx, cy})
				if id := nodeAt[g.tileIndex(cx, cy)]; id != NoNode {
					to = id
					break
				}
				cx += dx
				cy += dy
			}
			if to == NoNode {
				continue
			}
			// One-way gating: every tile on the walk must permit the
			// walk's direction.
			allowed := true
			lanes := 1
			for _, t := range tiles {
				if !m.OneWayAt(t[0], t[1]).Allows(dx, dy) {
					allowed = false
					break
				}
				if lc := m.LaneCountAt(t[0], t[1]); lc > lanes {
					lanes = lc
				}
			}
			if !allowed {
				continue
			}
			if lanes > 4 {
				lanes = 4
			}
			cost := float64(len(tiles) - 1)
			if cost < 1 {
				cost = 1
			}
			eid := EdgeID(len(g.DirEdges))
			g.DirEdges = append(g.DirEdges, DirectedEdge{
				ID: eid, From: n.ID, To: to, Tiles: tiles,
				Cost: cost, DirX: dx, DirY: dy, Lanes: lanes,
			})
			g.Adj[n.ID] = append(g.Adj[n.ID], eid)

			// Undirected dedupe: one edge per unordered pair, cost is
			// the cheapest directed cost, all directed ids aggregated.
			u, v := n.ID, to
			if u > v {
				u, v = v, u
			}
			key := [2]NodeID{u, v}
			ui, ok := undirIndex[key]
			if !ok {
				ui = int32(len(g.UndirEdges))
				undirIndex[key] = ui
				g.UndirEdges = append(g.UndirEdges, UndirectedEdge{
					ID: ui, U: u, V: v, Cost: cost,
				})
			}
			ue := &g.UndirEdges[ui]
			if cost < ue.Cost {
				ue.Cost = cost
			}
			ue.DirEdges = append(ue.DirEdges, eid)
			g.DirEdges[eid].Undirected = ui
		}
	}

	// Pass 3: bridge flags. Skipped (all false) above the safety limit;
	// an oversize graph is degraded, never an error.
	if cfg.BridgeNodeLimit <= 0 || len(g.Nodes) <= cfg.BridgeNodeLimit {
		g.markBridges()
	}

	// Pass 4: tile→nearest-node index via multi-source BFS from every
	// node tile. First writer wins on distance ties.
	g.indexTiles(isRoad)

	return g
}

// markBridges runs Tarjan's low-link bridge detection on the undirected
// graph. Iterative with an explicit frame stack: recursion depth would be
// corridor-count bound, and large maps blow the call stack.
func (g *Graph) markBridges() {
	type half struct {
		edge int32
		to   NodeID
	}
	adj := make([][]half, len(g.Nodes))
	for i := range g.UndirEdges {
		ue := &g.UndirEdges[i]
		if ue.U == ue.V {
			continue // self-loop corridor, never a bridge
		}
		adj[ue.U] = append(adj[ue.U], half{edge: ue.ID, to: ue.V})
		adj[ue.V] = append(adj[ue.V], half{edge: ue.ID, to: ue.U})
	}

	disc := make([]int32, len(g.Nodes))
	low := make([]int32, len(g.Nodes))
	for i := range disc {
		disc[i] = -1
	}

	type frame struct {
		node    NodeID
		viaEdge int32 // undirected edge used to enter node, -1 at roots
		next    int   // adjacency cursor
	}
	var timer int32
	stack := make([]frame, 0, 64)

	for root := NodeID(0); int(root) < len(g.Nodes); root++ {
		if disc[root] != -1 {
			continue
		}
		disc[root] = timer
		low[root] = timer
		timer++
		stack = append(stack, frame{node: root, viaEdge: -1})

		for len(stack) > 0 {
			f := &stack[len(stack)-1]
			if f.next < len(adj[f.node]) {
				h := adj[f.node][f.next]
				f.next++
				if h.edge == f.viaEdge {
					continue // don't walk back along the entry edge
				}
				if disc[h.to] != -1 {
					if disc[h.to] < low[f.node] {
						low[f.node] = disc[h.to]
					}
					continue
				}
				disc[h.to] = timer
				low[h.to] = timer
				timer++
				stack = append(stack, frame{node: h.to, viaEdge: h.edge})
				continue
			}
			// Frame exhausted: propagate low-link to the parent and
			// test the entry edge for bridge-ness.
			stack = stack[:len(stack)-1]
			if len(stack) == 0 {
				continue
			}
			p := &stack[len(stack)-1]
			if low[f.node] < low[p.node] {
				low[p.node] = low[f.node]
			}
			if low[f.node] > disc[p.node] {
				ue := &g.UndirEdges[f.viaEdge]
				ue.IsBridge = true
				ue.BridgeScore = ue.Cost
			}
		}
	}
}

// indexTiles labels every road tile reachable from a node tile with its
// nearest node id and hop distance, by flooding from all nodes at once.
func (g *Graph) indexTiles(isRoad func(tx, ty int) bool) {
	g.tileToNode = make([]NodeID, g.width*g.height)
	g.tileDist = make([]uint16, g.width*g.height)
	for i := range g.tileToNode {
		g.tileToNode[i] = NoNode
	}

	type cell struct{ tx, ty int }
	queue := make([]cell, 0, len(g.Nodes))
	for i := range g.Nodes {
		n := &g.Nodes[i]
		idx := g.tileIndex(n.TX, n.TY)
		if g.tileToNode[idx] != NoNode {
			continue
		}
		g.tileToNode[idx] = n.ID
		queue = append(queue, cell{n.TX, n.TY})
	}

	for head := 0; head < len(queue); head++ {
		c := queue[head]
		idx := g.tileIndex(c.tx, c.ty)
		id := g.tileToNode[idx]
		dist := g.tileDist[idx]
		for _, d := range cardinals {
			nx, ny := c.tx+d[0], c.ty+d[1]
			if !isRoad(nx, ny) {
				continue
			}
			nidx := g.tileIndex(nx, ny)
			if g.tileToNode[nidx] != NoNode {
				continue
			}
			g.tileToNode[nidx] = id
			g.tileDist[nidx] = dist + 1
			queue = append(queue, cell{nx, ny})
		}
	}
}

// NearestNode snaps a world position to a graph node: the position's tile
// if it is indexed, otherwise the first indexed road tile found on
// expanding Chebyshev rings up to maxRadiusTiles.
func (g *Graph) NearestNode(m *data.TileMap, x, y float64, maxRadiusTiles int) (NodeID, bool) {
	if g.Empty() {
		return NoNode, false
	}
	tx, ty := m.WorldToTile(x, y)
	if id, ok := g.NodeAtTile(tx, ty); ok {
		return id, true
	}
	for r := 1; r <= maxRadiusTiles; r++ {
		for dy := -r; dy <= r; dy++ {
			for dx := -r; dx <= r; dx++ {
				if maxAbs(dx, dy) != r {
					continue // ring perimeter only
				}
				if id, ok := g.NodeAtTile(tx+dx, ty+dy); ok {
					return id, true
				}
			}
		}
	}
	return NoNode, false
}

func maxAbs(a, b int) int {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	if b > a {
		return b
	}
	return a
}
