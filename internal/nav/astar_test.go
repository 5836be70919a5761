package nav

import (
	"testing"
)

func TestFindNodePath_ThroughIntersection(t *testing.T) {
	_, g := buildTestGraph([]string{
		".r.",
		"rrr",
		".r.",
	})
	west := nodeAtTile(t, g, 0, 1)
	east := nodeAtTile(t, g, 2, 1)
	center := nodeAtTile(t, g, 1, 1)

	path, ok := FindNodePath(g, west, east, 1000)
	if !ok {
		t.Fatal("expected a path")
	}
	if len(path) != 3 || path[0] != west || path[1] != center || path[2] != east {
		t.Fatalf("path %v, want [west center east]", path)
	}
}

func TestFindNodePath_Trivial(t *testing.T) {
	_, g := buildTestGraph([]string{"rrrr"})
	n := nodeAtTile(t, g, 0, 0)
	path, ok := FindNodePath(g, n, n, 1000)
	if !ok || len(path) != 1 || path[0] != n {
		t.Fatalf("start==goal: got %v ok=%v", path, ok)
	}
}

func TestFindNodePath_InvalidNodes(t *testing.T) {
	_, g := buildTestGraph([]string{"rrrr"})
	if _, ok := FindNodePath(g, NoNode, 0, 1000); ok {
		t.Fatal("invalid start should fail")
	}
	if _, ok := FindNodePath(g, 0, NodeID(99), 1000); ok {
		t.Fatal("out-of-range goal should fail")
	}
}

func TestFindNodePath_MatchesDijkstraCost(t *testing.T) {
	_, g := buildTestGraph([]string{
		"rrrrr",
		"r...r",
		"rrrrr",
	})
	a := nodeAtTile(t, g, 0, 0)
	b := nodeAtTile(t, g, 4, 2)

	path, ok := FindNodePath(g, a, b, 1000)
	if !ok {
		t.Fatal("expected a path around the block")
	}
	sum := 0.0
	for i := 1; i < len(path); i++ {
		eid, ok := g.EdgeBetween(path[i-1], path[i])
		if !ok {
			t.Fatalf("path hop %v -> %v has no edge", path[i-1], path[i])
		}
		sum += g.DirEdges[eid].Cost
	}

	table, ok := BuildCostTable(g, a, 1000)
	if !ok {
		t.Fatal("cost table build failed")
	}
	if sum != table.Cost(b) {
		t.Fatalf("A* path cost %.0f disagrees with Dijkstra %.0f", sum, table.Cost(b))
	}
}

func TestFindNodePath_Disconnected(t *testing.T) {
	_, g := buildTestGraph([]string{
		"rrr.rrr",
	})
	a := nodeAtTile(t, g, 0, 0)
	b := nodeAtTile(t, g, 6, 0)
	if _, ok := FindNodePath(g, a, b, 1000); ok {
		t.Fatal("disconnected components should have no path")
	}
}

func TestFindNodePath_IterCap(t *testing.T) {
	_, g := buildTestGraph([]string{"rrrrrrrrrr"})
	a := nodeAtTile(t, g, 0, 0)
	b := nodeAtTile(t, g, 9, 0)
	if _, ok := FindNodePath(g, a, b, 1); ok {
		t.Fatal("cap of 1 pops only the start, should read as no path")
	}
}
