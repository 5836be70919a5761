package world

import (
	"time"

	"github.com/chasedown/server/internal/nav"
)

// GoalKey identifies what a unit is currently navigating toward: a graph
// node or, in grid fallback, a tile. A changed key forces a replan.
type GoalKey struct {
	Node nav.NodeID
	TX   int
	TY   int
	Grid bool // true when the goal is a raw tile, not a node
}

func NodeGoal(id nav.NodeID) GoalKey { return GoalKey{Node: id} }
func TileGoal(tx, ty int) GoalKey    { return GoalKey{Node: nav.NoNode, TX: tx, TY: ty, Grid: true} }

// NavState is a unit's cached navigation plan. Owned exclusively by the
// unit and mutated only during its own update step; never shared even when
// units chase the same goal.
type NavState struct {
	Waypoints      []nav.Waypoint
	Index          int
	RepathCooldown time.Duration
	Goal           GoalKey
	Valid          bool
}

// NeedsRepath reports whether the cached plan must be rebuilt for the
// given goal: cooldown expiry, goal change, exhausted waypoints, or an
// index pointing past the list (stale cache corrected here, never by
// out-of-bounds access).
func (ns *NavState) NeedsRepath(goal GoalKey) bool {
	if !ns.Valid || ns.RepathCooldown <= 0 {
		return true
	}
	if goal != ns.Goal {
		return true
	}
	return ns.Index >= len(ns.Waypoints)
}

// SetPlan installs a fresh waypoint list for a goal.
func (ns *NavState) SetPlan(goal GoalKey, wps []nav.Waypoint, cooldown time.Duration) {
	ns.Waypoints = wps
	ns.Index = 0
	ns.RepathCooldown = cooldown
	ns.Goal = goal
	ns.Valid = len(wps) > 0
}

// Invalidate discards the cached plan; the next update replans. This is
// the only form of "cancellation" the subsystem has.
func (ns *NavState) Invalidate() {
	ns.Waypoints = nil
	ns.Index = 0
	ns.Valid = false
}

// Current returns the active waypoint, advancing past any within reach of
// the agent position. False when the plan is exhausted or invalid.
func (ns *NavState) Current(x, y, reach float64) (nav.Waypoint, bool) {
	if !ns.Valid {
		return nav.Waypoint{}, false
	}
	for ns.Index < len(ns.Waypoints) {
		wp := ns.Waypoints[ns.Index]
		dx := wp.X - x
		dy := wp.Y - y
		if dx*dx+dy*dy > reach*reach {
			return wp, true
		}
		ns.Index++
	}
	return nav.Waypoint{}, false
}

// TrafficNavState is the ambient-traffic variant: it never plans more than
// one edge ahead, and tracks displacement to detect being stuck without
// oscillating between replans.
type TrafficNavState struct {
	CurrentEdge nav.EdgeID
	HasEdge     bool
	Waypoints   []nav.Waypoint
	Index       int
	PrevNode    nav.NodeID
	LaneBias    int
	StuckFor    time.Duration
	LastX       float64
	LastY       float64
}

// Current returns the active waypoint like NavState.Current.
func (ts *TrafficNavState) Current(x, y, reach float64) (nav.Waypoint, bool) {
	for ts.Index < len(ts.Waypoints) {
		wp := ts.Waypoints[ts.Index]
		dx := wp.X - x
		dy := wp.Y - y
		if dx*dx+dy*dy > reach*reach {
			return wp, true
		}
		ts.Index++
	}
	return nav.Waypoint{}, false
}
