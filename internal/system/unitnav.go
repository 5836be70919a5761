package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chasedown/server/internal/config"
	coresys "github.com/chasedown/server/internal/core/system"
	"github.com/chasedown/server/internal/nav"
	"github.com/chasedown/server/internal/world"
)

// UnitNavSystem plans and follows paths for pursuit and patrol units.
// Planning prefers the road graph, falls back to grid A* when the goal is
// off-network, and finally to a direct line so units never freeze.
// Phase 2 (Update).
type UnitNavSystem struct {
	world *world.State
	cfg   *config.Config
	log   *zap.Logger
}

func NewUnitNavSystem(ws *world.State, cfg *config.Config, log *zap.Logger) *UnitNavSystem {
	return &UnitNavSystem{world: ws, cfg: cfg, log: log}
}

func (s *UnitNavSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *UnitNavSystem) Update(dt time.Duration) {
	s.world.Units(func(u *world.UnitInfo) {
		s.tickUnit(u, dt)
	})
}

func (s *UnitNavSystem) tickUnit(u *world.UnitInfo, dt time.Duration) {
	m := s.world.Map

	// Without an assignment the unit drifts back to its spawn post.
	goalX, goalY := u.GoalX, u.GoalY
	if !u.HasGoal {
		goalX, goalY = u.SpawnX, u.SpawnY
	}

	if u.Nav.RepathCooldown > 0 {
		u.Nav.RepathCooldown -= dt
	}

	goal := s.goalKey(goalX, goalY, u.Mode)
	if u.Nav.NeedsRepath(goal) {
		s.replan(u, goal, goalX, goalY)
	}

	reach := m.TileSize() / 2
	wp, ok := u.Nav.Current(u.X, u.Y, reach)
	if !ok {
		return
	}
	s.step(u, wp, dt)
}

// goalKey normalizes a world goal to a graph node when one is nearby, so
// plans survive small goal jitter without replanning every tick.
func (s *UnitNavSystem) goalKey(goalX, goalY float64, mode nav.Mode) world.GoalKey {
	g := s.world.EnsureGraph()
	if !g.Empty() {
		if node, ok := g.NearestNode(s.world.Map, goalX, goalY, s.cfg.Nav.SnapRadius); ok {
			return world.NodeGoal(node)
		}
	}
	tx, ty, ok := nav.SnapToPassableTile(s.world.Map, goalX, goalY, mode, s.cfg.Nav.SnapRadius)
	if !ok {
		tx, ty = s.world.Map.WorldToTile(goalX, goalY)
	}
	return world.TileGoal(tx, ty)
}

func (s *UnitNavSystem) replan(u *world.UnitInfo, goal world.GoalKey, goalX, goalY float64) {
	cooldown := s.repathCooldown()

	if wps, ok := s.planGraph(u, goal, goalX, goalY); ok {
		u.Nav.SetPlan(goal, wps, cooldown)
		return
	}
	if wps, ok := s.planGrid(u, goalX, goalY); ok {
		u.Nav.SetPlan(goal, wps, cooldown)
		return
	}
	// Last resort: walk the straight line and let collision sort it out.
	u.Nav.SetPlan(goal, []nav.Waypoint{{X: goalX, Y: goalY}}, cooldown)
}

// planGraph routes along the road network and appends the exact goal
// position so units leave the network at the end.
func (s *UnitNavSystem) planGraph(u *world.UnitInfo, goal world.GoalKey, goalX, goalY float64) ([]nav.Waypoint, bool) {
	if goal.Grid || u.Mode != nav.ModeCar {
		return nil, false
	}
	g := s.world.EnsureGraph()
	if g.Empty() {
		return nil, false
	}
	start, ok := g.NearestNode(s.world.Map, u.X, u.Y, s.cfg.Nav.SnapRadius)
	if !ok {
		return nil, false
	}
	path, ok := nav.FindNodePath(g, start, goal.Node, s.cfg.Nav.GraphIterCap)
	if !ok {
		return nil, false
	}
	wps, ok := nav.PathWaypoints(g, path, u.LaneBias, s.cfg.Nav.LaneWidth, true)
	if !ok {
		return nil, false
	}
	return append(wps, nav.Waypoint{X: goalX, Y: goalY}), true
}

func (s *UnitNavSystem) planGrid(u *world.UnitInfo, goalX, goalY float64) ([]nav.Waypoint, bool) {
	m := s.world.Map
	sx, sy, ok := nav.SnapToPassableTile(m, u.X, u.Y, u.Mode, s.cfg.Nav.SnapRadius)
	if !ok {
		return nil, false
	}
	gx, gy, ok := nav.SnapToPassableTile(m, goalX, goalY, u.Mode, s.cfg.Nav.SnapRadius)
	if !ok {
		return nil, false
	}
	tiles, ok := nav.FindGridPath(m, sx, sy, gx, gy, u.Mode, s.cfg.Nav.GridIterCap)
	if !ok {
		return nil, false
	}
	wps := make([]nav.Waypoint, 0, len(tiles))
	for i, t := range tiles {
		if i == 0 {
			continue // standing on it already
		}
		x, y := m.TileToWorld(t[0], t[1])
		wps = append(wps, nav.Waypoint{X: x, Y: y})
	}
	return wps, len(wps) > 0
}

func (s *UnitNavSystem) repathCooldown() time.Duration {
	min := s.cfg.Pursuit.RepathCooldownMin
	max := s.cfg.Pursuit.RepathCooldownMax
	if max <= min {
		return min
	}
	return min + time.Duration(s.world.Rng().Int63n(int64(max-min)))
}

// step advances the unit toward a waypoint at its speed.
func (s *UnitNavSystem) step(u *world.UnitInfo, wp nav.Waypoint, dt time.Duration) {
	dx := wp.X - u.X
	dy := wp.Y - u.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	move := u.Speed * dt.Seconds()
	if move > dist {
		move = dist
	}
	u.DirX = dx / dist
	u.DirY = dy / dist
	s.world.UpdateUnitPosition(u.ID, u.X+u.DirX*move, u.Y+u.DirY*move)
}
