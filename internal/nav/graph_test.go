package nav

import (
	"testing"

	"github.com/chasedown/server/internal/data"
)

var testBuildCfg = BuildConfig{RoadClass: data.ClassRoad, BridgeNodeLimit: 20000}

func buildTestGraph(rows []string) (*data.TileMap, *Graph) {
	m := data.FromStrings(rows, 32)
	return m, BuildGraph(m, testBuildCfg)
}

func nodeAtTile(t *testing.T, g *Graph, tx, ty int) NodeID {
	t.Helper()
	for i := range g.Nodes {
		if g.Nodes[i].TX == tx && g.Nodes[i].TY == ty {
			return g.Nodes[i].ID
		}
	}
	t.Fatalf("no node at tile (%d,%d)", tx, ty)
	return NoNode
}

func TestBuildGraph_StraightCorridor(t *testing.T) {
	_, g := buildTestGraph([]string{"rrrrrrrrrr"})
	if len(g.Nodes) != 2 {
		t.Fatalf("corridor endpoints: got %d nodes, want 2", len(g.Nodes))
	}
	if len(g.DirEdges) != 2 {
		t.Fatalf("two travel directions: got %d directed edges, want 2", len(g.DirEdges))
	}
	if len(g.UndirEdges) != 1 {
		t.Fatalf("one corridor: got %d undirected edges, want 1", len(g.UndirEdges))
	}
	e := g.DirEdges[0]
	if e.Cost != 9 {
		t.Fatalf("10-tile corridor cost: got %.0f, want 9", e.Cost)
	}
	if len(e.Tiles) != 10 {
		t.Fatalf("edge tiles should include both endpoints: got %d, want 10", len(e.Tiles))
	}
	if !g.UndirEdges[0].IsBridge {
		t.Fatal("a lone corridor is the only connection, should be a bridge")
	}

	// Every road tile maps to a node in the BFS index.
	for tx := 0; tx < 10; tx++ {
		if _, ok := g.NodeAtTile(tx, 0); !ok {
			t.Fatalf("tile (%d,0) not indexed", tx)
		}
	}
	if d, ok := g.NodeDistAtTile(5, 0); !ok || d > 5 {
		t.Fatalf("mid-corridor hop distance: got %d ok=%v", d, ok)
	}
}

func TestBuildGraph_PlusIntersection(t *testing.T) {
	_, g := buildTestGraph([]string{
		".r.",
		"rrr",
		".r.",
	})
	if len(g.Nodes) != 5 {
		t.Fatalf("center plus 4 arm tips: got %d nodes, want 5", len(g.Nodes))
	}
	if len(g.DirEdges) != 8 {
		t.Fatalf("4 arms, both directions: got %d directed edges, want 8", len(g.DirEdges))
	}
	if len(g.UndirEdges) != 4 {
		t.Fatalf("got %d undirected edges, want 4", len(g.UndirEdges))
	}
	for _, ue := range g.UndirEdges {
		if !ue.IsBridge {
			t.Fatal("every arm of a tree is a bridge")
		}
	}
	center := nodeAtTile(t, g, 1, 1)
	if len(g.Adj[center]) != 4 {
		t.Fatalf("center out-degree: got %d, want 4", len(g.Adj[center]))
	}
}

func TestBuildGraph_OneWayGating(t *testing.T) {
	_, g := buildTestGraph([]string{"r>>r"})
	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(g.Nodes))
	}
	if len(g.DirEdges) != 1 {
		t.Fatalf("westbound walk is gated out: got %d directed edges, want 1", len(g.DirEdges))
	}
	west := nodeAtTile(t, g, 0, 0)
	east := nodeAtTile(t, g, 3, 0)
	if _, ok := g.EdgeBetween(west, east); !ok {
		t.Fatal("eastbound edge should exist")
	}
	if _, ok := g.EdgeBetween(east, west); ok {
		t.Fatal("westbound edge should be gated by the one-way tiles")
	}
	if len(g.UndirEdges) != 1 || len(g.UndirEdges[0].DirEdges) != 1 {
		t.Fatal("undirected edge should aggregate exactly one directed edge")
	}
}

func TestBuildGraph_TurnIsNode(t *testing.T) {
	_, g := buildTestGraph([]string{
		"rrr",
		"..r",
	})
	// Endpoints at (0,0) and (2,1), plus the L corner at (2,0).
	if len(g.Nodes) != 3 {
		t.Fatalf("got %d nodes, want 3 (two ends and a corner)", len(g.Nodes))
	}
	nodeAtTile(t, g, 2, 0)
}

func TestBuildGraph_RingHasNoBridges(t *testing.T) {
	_, g := buildTestGraph([]string{
		"rrr",
		"r.r",
		"rrr",
	})
	if len(g.Nodes) != 4 {
		t.Fatalf("got %d nodes, want 4 corners", len(g.Nodes))
	}
	if len(g.UndirEdges) != 4 {
		t.Fatalf("got %d undirected edges, want 4", len(g.UndirEdges))
	}
	for _, ue := range g.UndirEdges {
		if ue.IsBridge {
			t.Fatal("cycle edges must not be flagged as bridges")
		}
	}
}

func TestBuildGraph_ConnectorIsBridge(t *testing.T) {
	_, g := buildTestGraph([]string{
		"rrr...rrr",
		"r.r...r.r",
		"rrrrrrrrr",
	})
	left := nodeAtTile(t, g, 2, 2)
	right := nodeAtTile(t, g, 6, 2)
	var connector *UndirectedEdge
	bridges := 0
	for i := range g.UndirEdges {
		ue := &g.UndirEdges[i]
		if ue.IsBridge {
			bridges++
		}
		if (ue.U == left && ue.V == right) || (ue.U == right && ue.V == left) {
			connector = ue
		}
	}
	if connector == nil {
		t.Fatal("no corridor between the two blocks")
	}
	if !connector.IsBridge {
		t.Fatal("the only corridor joining two blocks must be a bridge")
	}
	if connector.BridgeScore != connector.Cost {
		t.Fatalf("bridge score should equal corridor cost: got %.0f want %.0f",
			connector.BridgeScore, connector.Cost)
	}
	if bridges != 1 {
		t.Fatalf("ring edges are not bridges: got %d bridge flags, want 1", bridges)
	}
}

func TestBuildGraph_BridgePassSkippedAboveLimit(t *testing.T) {
	m := data.FromStrings([]string{
		"rrr...rrr",
		"r.r...r.r",
		"rrrrrrrrr",
	}, 32)
	g := BuildGraph(m, BuildConfig{RoadClass: data.ClassRoad, BridgeNodeLimit: 1})
	for _, ue := range g.UndirEdges {
		if ue.IsBridge {
			t.Fatal("bridge pass should be skipped above the node limit")
		}
	}
}

func TestBuildGraph_LaneMetadata(t *testing.T) {
	_, g := buildTestGraph([]string{"r33r"})
	if len(g.DirEdges) == 0 {
		t.Fatal("expected edges")
	}
	for _, e := range g.DirEdges {
		if e.Lanes != 3 {
			t.Fatalf("edge lanes: got %d, want max lane count seen on the walk (3)", e.Lanes)
		}
	}
}

func TestBuildGraph_EmptyMap(t *testing.T) {
	m, g := buildTestGraph([]string{
		"...",
		"...",
	})
	if !g.Empty() {
		t.Fatal("roadless map should yield an empty graph")
	}
	if _, ok := g.NodeAtTile(1, 1); ok {
		t.Fatal("no tiles should be indexed")
	}
	if _, ok := g.NearestNode(m, 48, 48, 5); ok {
		t.Fatal("NearestNode on an empty graph should fail")
	}
}

func TestNearestNode_Snapping(t *testing.T) {
	m, g := buildTestGraph([]string{
		"rrrrrrrr",
		"........",
		"........",
		"........",
	})
	// On-road position snaps directly through the tile index.
	x, y := m.TileToWorld(3, 0)
	if _, ok := g.NearestNode(m, x, y, 0); !ok {
		t.Fatal("on-road position should snap without ring search")
	}
	// Off-road position three tiles south needs the ring search.
	x, y = m.TileToWorld(3, 3)
	if _, ok := g.NearestNode(m, x, y, 1); ok {
		t.Fatal("radius 1 cannot reach a road 3 tiles away")
	}
	if _, ok := g.NearestNode(m, x, y, 4); !ok {
		t.Fatal("radius 4 should reach the road row")
	}
}
