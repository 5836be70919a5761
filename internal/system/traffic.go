package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chasedown/server/internal/config"
	coresys "github.com/chasedown/server/internal/core/system"
	"github.com/chasedown/server/internal/data"
	"github.com/chasedown/server/internal/nav"
	"github.com/chasedown/server/internal/scripting"
	"github.com/chasedown/server/internal/world"
)

// TrafficBudget sizes the ambient vehicle population for a map. The Lua
// traffic_density hook scales it by road area; config max_agents stays the
// hard ceiling and the value used when the hook is absent.
func TrafficBudget(m *data.TileMap, roadClass byte, engine *scripting.Engine, maxAgents int) int {
	roads := 0
	for tx := 0; tx < int(m.Width()); tx++ {
		for ty := 0; ty < int(m.Height()); ty++ {
			if m.ClassAt(tx, ty) == roadClass {
				roads++
			}
		}
	}
	budget := maxAgents
	if engine != nil {
		if d := engine.TrafficDensity(roads); d > 0 && d < budget {
			budget = d
		}
	}
	return budget
}

// TrafficSystem drives ambient vehicles. An agent holds exactly one edge
// of waypoints at a time and picks the next edge at intersections with a
// forward bias, so per-agent work stays constant regardless of map size.
// Phase 2 (Update).
type TrafficSystem struct {
	world *world.State
	cfg   *config.Config
	log   *zap.Logger
}

func NewTrafficSystem(ws *world.State, cfg *config.Config, log *zap.Logger) *TrafficSystem {
	return &TrafficSystem{world: ws, cfg: cfg, log: log}
}

func (s *TrafficSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *TrafficSystem) Update(dt time.Duration) {
	g := s.world.EnsureGraph()
	if g.Empty() {
		return
	}
	s.world.Traffic(func(t *world.TrafficInfo) {
		s.tickAgent(g, t, dt)
	})
}

func (s *TrafficSystem) tickAgent(g *nav.Graph, t *world.TrafficInfo, dt time.Duration) {
	m := s.world.Map

	// Stuck watchdog: if the agent barely moved over the whole window it
	// is wedged (roadblock, jam) and gets a fresh edge pick.
	t.Nav.StuckFor += dt
	if t.Nav.StuckFor >= s.cfg.Traffic.StuckTimeout {
		moved := math.Hypot(t.X-t.Nav.LastX, t.Y-t.Nav.LastY)
		t.Nav.StuckFor = 0
		t.Nav.LastX, t.Nav.LastY = t.X, t.Y
		if moved < s.cfg.Traffic.StuckThreshold {
			t.Nav.HasEdge = false
			t.Nav.Waypoints = nil
		}
	}

	if !t.Nav.HasEdge || t.Nav.Index >= len(t.Nav.Waypoints) {
		if !s.pickNextEdge(g, t) {
			return
		}
	}

	reach := m.TileSize() / 2
	wp, ok := t.Nav.Current(t.X, t.Y, reach)
	if !ok {
		return
	}

	// A roadblock dropped onto the current corridor invalidates the plan.
	wtx, wty := m.WorldToTile(wp.X, wp.Y)
	if m.SolidAt(wtx, wty) {
		t.Nav.HasEdge = false
		t.Nav.Waypoints = nil
		return
	}

	dx := wp.X - t.X
	dy := wp.Y - t.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	move := t.Speed * dt.Seconds()
	if move > dist {
		move = dist
	}
	s.world.UpdateTrafficPosition(t.ID, t.X+(dx/dist)*move, t.Y+(dy/dist)*move)
}

// pickNextEdge chooses the agent's next corridor. Continuations of the
// current heading are preferred and U-turns avoided unless the node is a
// dead end.
func (s *TrafficSystem) pickNextEdge(g *nav.Graph, t *world.TrafficInfo) bool {
	from := nav.NoNode
	prev := nav.NoNode
	fx, fy := 0, 0
	if t.Nav.HasEdge {
		e := &g.DirEdges[t.Nav.CurrentEdge]
		from = e.To
		prev = e.From
		fx, fy = e.DirX, e.DirY
	} else {
		var ok bool
		from, ok = g.NearestNode(s.world.Map, t.X, t.Y, s.cfg.Nav.SnapRadius)
		if !ok {
			return false
		}
		prev = t.Nav.PrevNode
	}

	eid, ok := nav.PickOutEdge(g, from, prev, fx, fy, s.world.Rng())
	if !ok {
		t.Nav.HasEdge = false
		return false
	}
	wps := nav.EdgeWaypoints(g, eid, t.Nav.LaneBias, s.cfg.Nav.LaneWidth, true)
	if len(wps) == 0 {
		t.Nav.HasEdge = false
		return false
	}
	t.Nav.CurrentEdge = eid
	t.Nav.HasEdge = true
	t.Nav.Waypoints = wps
	t.Nav.Index = 0
	t.Nav.PrevNode = from
	return true
}
