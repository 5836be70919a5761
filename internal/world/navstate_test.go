package world

import (
	"testing"
	"time"

	"github.com/chasedown/server/internal/nav"
)

func TestNavState_NeedsRepath(t *testing.T) {
	var ns NavState
	goal := NodeGoal(3)
	if !ns.NeedsRepath(goal) {
		t.Fatal("an empty plan always needs a repath")
	}

	ns.SetPlan(goal, []nav.Waypoint{{X: 10}, {X: 20}}, time.Second)
	if ns.NeedsRepath(goal) {
		t.Fatal("fresh plan for the same goal should hold")
	}
	if !ns.NeedsRepath(NodeGoal(4)) {
		t.Fatal("changed node goal must force a repath")
	}
	if !ns.NeedsRepath(TileGoal(3, 0)) {
		t.Fatal("switching to a grid goal must force a repath")
	}

	ns.RepathCooldown = 0
	if !ns.NeedsRepath(goal) {
		t.Fatal("cooldown expiry must force a repath")
	}

	ns.SetPlan(goal, []nav.Waypoint{{X: 10}}, time.Second)
	ns.Index = 1
	if !ns.NeedsRepath(goal) {
		t.Fatal("exhausted waypoints must force a repath")
	}
}

func TestNavState_CurrentAdvances(t *testing.T) {
	var ns NavState
	ns.SetPlan(NodeGoal(0), []nav.Waypoint{{X: 10, Y: 0}, {X: 50, Y: 0}}, time.Second)

	wp, ok := ns.Current(0, 0, 5)
	if !ok || wp.X != 10 {
		t.Fatalf("got %v ok=%v, want first waypoint", wp, ok)
	}
	// Standing within reach of the first waypoint skips to the second.
	wp, ok = ns.Current(9, 0, 5)
	if !ok || wp.X != 50 {
		t.Fatalf("got %v ok=%v, want second waypoint", wp, ok)
	}
	// Within reach of the last: plan exhausted.
	if _, ok := ns.Current(49, 0, 5); ok {
		t.Fatal("exhausted plan should return false")
	}

	ns.Invalidate()
	if _, ok := ns.Current(0, 0, 5); ok {
		t.Fatal("invalidated plan should return false")
	}
}

func TestTrafficNavState_Current(t *testing.T) {
	var ts TrafficNavState
	ts.Waypoints = []nav.Waypoint{{X: 10, Y: 0}, {X: 20, Y: 0}}

	wp, ok := ts.Current(0, 0, 2)
	if !ok || wp.X != 10 {
		t.Fatalf("got %v ok=%v", wp, ok)
	}
	wp, ok = ts.Current(10, 0, 2)
	if !ok || wp.X != 20 {
		t.Fatalf("reaching the first waypoint should advance: got %v ok=%v", wp, ok)
	}
	if _, ok := ts.Current(20, 0, 2); ok {
		t.Fatal("reaching the last waypoint exhausts the plan")
	}
	if ts.Index != 2 {
		t.Fatalf("index should advance past consumed waypoints, got %d", ts.Index)
	}
}
