package system

import (
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/chasedown/server/internal/config"
	"github.com/chasedown/server/internal/core/event"
	coresys "github.com/chasedown/server/internal/core/system"
	"github.com/chasedown/server/internal/data"
	"github.com/chasedown/server/internal/nav"
	"github.com/chasedown/server/internal/scripting"
	"github.com/chasedown/server/internal/world"
)

// Director states.
const (
	StateDisengaged = "disengaged"
	StateChasing    = "chasing"
	StateSearching  = "searching"
)

// Floor speed in tiles/second used for interception ETAs so a parked
// target still yields finite estimates.
const minInterceptSpeed = 0.5

// Route nodes skipped at the head of an interception scan.
const interceptSkipNodes = 2

// PursuitSystem is the director: it owns the wanted level, the perception
// and escalation state machine, unit dispatch, and roadblock placement.
// Escalation tuning comes from Lua with Go fallbacks. Phase 2 (Update).
type PursuitSystem struct {
	world  *world.State
	cfg    *config.Config
	bus    *event.Bus
	engine *scripting.Engine
	units  *data.UnitTable
	spawns []data.SpawnEntry
	log    *zap.Logger

	state       string
	wanted      int
	lastSeenX   float64
	lastSeenY   float64
	unseenFor   time.Duration
	decayFor    time.Duration
	roadblockCD time.Duration
}

// NewPursuitSystem wires the director. engine may be nil; Lua tuning then
// falls back to the built-in policy table.
func NewPursuitSystem(ws *world.State, cfg *config.Config, bus *event.Bus,
	engine *scripting.Engine, units *data.UnitTable, spawns []data.SpawnEntry,
	log *zap.Logger) *PursuitSystem {
	return &PursuitSystem{
		world:  ws,
		cfg:    cfg,
		bus:    bus,
		engine: engine,
		units:  units,
		spawns: spawns,
		log:    log,
		state:  StateDisengaged,
	}
}

func (s *PursuitSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

// State returns the director's current state string.
func (s *PursuitSystem) State() string { return s.state }

// WantedLevel returns the current heat, 0..5.
func (s *PursuitSystem) WantedLevel() int { return s.wanted }

// SetWantedLevel sets the heat directly (crime events raise it, cheats and
// tests set it). Clamped to 0..5.
func (s *PursuitSystem) SetWantedLevel(level int) {
	if level < 0 {
		level = 0
	}
	if level > 5 {
		level = 5
	}
	if level == s.wanted {
		return
	}
	event.Emit(s.bus, event.WantedLevelChanged{Old: s.wanted, New: level})
	s.log.Info("wanted level changed", zap.Int("old", s.wanted), zap.Int("new", level))
	s.wanted = level
	if s.wanted > 0 && s.state == StateDisengaged {
		s.setState(StateChasing)
		tgt := &s.world.Target
		s.lastSeenX, s.lastSeenY = tgt.X, tgt.Y
		s.unseenFor = 0
		s.decayFor = 0
	}
}

func (s *PursuitSystem) setState(next string) {
	if next == s.state {
		return
	}
	event.Emit(s.bus, event.PursuitStateChanged{Old: s.state, New: next})
	s.log.Info("pursuit state changed", zap.String("old", s.state), zap.String("new", next))
	s.state = next
}

func (s *PursuitSystem) Update(dt time.Duration) {
	if s.roadblockCD > 0 {
		s.roadblockCD -= dt
	}

	if s.wanted == 0 {
		if s.state != StateDisengaged {
			s.setState(StateDisengaged)
		}
		s.standDown()
		return
	}

	tgt := &s.world.Target
	seen := s.targetSeen(tgt)
	if seen {
		s.lastSeenX, s.lastSeenY = tgt.X, tgt.Y
		s.unseenFor = 0
		s.decayFor = 0
		if s.state != StateChasing {
			s.setState(StateChasing)
		}
	} else {
		s.unseenFor += dt
		if s.state == StateChasing && s.unseenFor > s.cfg.Pursuit.GracePeriod {
			s.setState(StateSearching)
		}
		if s.state == StateSearching {
			s.decayFor += dt
			if s.decayFor >= s.decayInterval() {
				s.decayFor = 0
				s.SetWantedLevel(s.wanted - 1)
				if s.wanted == 0 {
					s.setState(StateDisengaged)
					s.standDown()
					return
				}
			}
		}
	}

	policy := scripting.DefaultPolicy(s.wanted)
	if s.engine != nil {
		policy = s.engine.GetPursuitPolicy(s.wanted)
	}

	s.balanceUnits(policy)
	s.assignGoals()

	if policy.Roadblocks && s.state == StateChasing && s.roadblockCD <= 0 {
		s.tryRoadblock(tgt)
	}
}

func (s *PursuitSystem) decayInterval() time.Duration {
	if s.engine != nil {
		return time.Duration(s.engine.HeatDecaySeconds(s.wanted)) * time.Second
	}
	return s.cfg.Pursuit.DecayInterval
}

// ---------- Perception ----------

// targetSeen reports whether any pursuit unit has the target in range with
// clear line of sight. Candidates come from the AOI grid; its cell size
// covers the largest sight range in the unit tables, so units outside the
// queried neighbourhood cannot be in range.
func (s *PursuitSystem) targetSeen(tgt *world.TargetInfo) bool {
	for _, id := range s.world.NearbyAgents(tgt.X, tgt.Y) {
		u := s.world.GetUnit(id)
		if u == nil || u.Role != "pursuit" {
			continue // traffic shares the index
		}
		dx := tgt.X - u.X
		dy := tgt.Y - u.Y
		if dx*dx+dy*dy > u.SightRange*u.SightRange {
			continue
		}
		if s.lineOfSight(u.X, u.Y, tgt.X, tgt.Y) {
			return true
		}
	}
	return false
}

// lineOfSight samples the segment at half-tile steps against solid tiles,
// endpoint included so the final approach is covered. Walls and dynamically
// blocked tiles both break sight.
func (s *PursuitSystem) lineOfSight(x0, y0, x1, y1 float64) bool {
	m := s.world.Map
	step := m.TileSize() / 2
	dist := math.Hypot(x1-x0, y1-y0)
	if dist < step {
		return true
	}
	n := int(dist/step) + 1
	for i := 1; i <= n; i++ {
		t := float64(i) / float64(n)
		tx, ty := m.WorldToTile(x0+(x1-x0)*t, y0+(y1-y0)*t)
		if m.SolidAt(tx, ty) {
			return false
		}
	}
	return true
}

// ---------- Dispatch ----------

// pursuitTemplate returns the first pursuit-role template, or nil.
func (s *PursuitSystem) pursuitTemplate() *data.UnitTemplate {
	return s.units.FirstByRole("pursuit")
}

// balanceUnits spawns or retires pursuit units until the active count
// matches the policy.
func (s *PursuitSystem) balanceUnits(policy scripting.PursuitPolicy) {
	var active []*world.UnitInfo
	s.world.Units(func(u *world.UnitInfo) {
		if u.Role == "pursuit" {
			active = append(active, u)
		}
	})

	for len(active) > policy.Units {
		// Retire the newest first; older units tend to be closer to the
		// action.
		worst := active[0]
		for _, u := range active[1:] {
			if u.ID > worst.ID {
				worst = u
			}
		}
		s.world.RemoveUnit(worst.ID)
		for i, u := range active {
			if u == worst {
				active = append(active[:i], active[i+1:]...)
				break
			}
		}
	}

	tpl := s.pursuitTemplate()
	if tpl == nil {
		return
	}
	for len(active) < policy.Units {
		x, y, ok := s.spawnPoint(tpl, policy.SpawnMode)
		if !ok {
			break
		}
		u := s.world.AddUnit(tpl, x, y)
		active = append(active, u)
		event.Emit(s.bus, event.UnitDispatched{UnitID: u.ID, SpawnMode: policy.SpawnMode})
		s.log.Info("unit dispatched",
			zap.Int32("unit", u.ID), zap.String("spawn_mode", policy.SpawnMode))
	}
}

// spawnPoint picks where a fresh unit enters the world. "ahead" drops it
// on the target's projected route; "behind" uses the depot spawn list and
// falls back to a point behind the target.
func (s *PursuitSystem) spawnPoint(tpl *data.UnitTemplate, mode string) (float64, float64, bool) {
	m := s.world.Map
	tgt := &s.world.Target

	if mode == "ahead" {
		g := s.world.EnsureGraph()
		if !g.Empty() {
			route, ok := nav.PredictRoute(g, m, tgt.X, tgt.Y, tgt.DirX, tgt.DirY,
				s.cfg.Nav.RouteHorizon, s.cfg.Nav.SnapRadius)
			if ok && len(route) > 1 {
				idx := len(route) - 1
				if idx > 3 {
					idx = 3
				}
				n := &g.Nodes[route[idx]]
				return n.X, n.Y, true
			}
		}
		// No usable route; fall through to depot spawning.
	}

	for _, sp := range s.spawns {
		if sp.UnitID != tpl.UnitID {
			continue
		}
		tx, ty := sp.TX, sp.TY
		if sp.RandomR > 0 {
			tx += s.world.Rng().Intn(2*sp.RandomR+1) - sp.RandomR
			ty += s.world.Rng().Intn(2*sp.RandomR+1) - sp.RandomR
		}
		if stx, sty, ok := nav.SnapToPassableTile(m, float64(tx)*m.TileSize(), float64(ty)*m.TileSize(), nav.ModeCar, s.cfg.Nav.SnapRadius); ok {
			x, y := m.TileToWorld(stx, sty)
			return x, y, true
		}
	}

	// Behind the target along its reverse heading.
	bx := tgt.X - tgt.DirX*8*m.TileSize()
	by := tgt.Y - tgt.DirY*8*m.TileSize()
	if tx, ty, ok := nav.SnapToPassableTile(m, bx, by, nav.ModeCar, s.cfg.Nav.SnapRadius); ok {
		x, y := m.TileToWorld(tx, ty)
		return x, y, true
	}
	return 0, 0, false
}

// ---------- Goal assignment ----------

// assignGoals points every pursuit unit at either an interception node on
// the target's projected route or the target itself; while searching,
// units converge on the last seen position.
func (s *PursuitSystem) assignGoals() {
	m := s.world.Map
	tgt := &s.world.Target

	if s.state == StateSearching {
		s.world.Units(func(u *world.UnitInfo) {
			if u.Role != "pursuit" {
				return
			}
			u.GoalX, u.GoalY = s.lastSeenX, s.lastSeenY
			u.HasGoal = true
		})
		return
	}

	g := s.world.EnsureGraph()
	var route []nav.NodeID
	if !g.Empty() {
		route, _ = nav.PredictRoute(g, m, tgt.X, tgt.Y, tgt.DirX, tgt.DirY,
			s.cfg.Nav.RouteHorizon, s.cfg.Nav.SnapRadius)
	}

	params := nav.InterceptParams{
		IterCap:      s.cfg.Nav.DijkstraIterCap,
		SnapRadius:   s.cfg.Nav.SnapRadius,
		SkipNodes:    interceptSkipNodes,
		MinTargetETA: s.cfg.Pursuit.MinTargetETA,
		LateFactor:   s.cfg.Pursuit.LateFactor,
		MinSpeed:     minInterceptSpeed,
	}

	s.world.Units(func(u *world.UnitInfo) {
		if u.Role != "pursuit" {
			return
		}
		if len(route) > 1 {
			if node, ok := nav.PickInterceptNode(g, m, u.X, u.Y, route,
				tgt.Speed, u.Speed, params); ok {
				n := &g.Nodes[node]
				u.GoalX, u.GoalY = n.X, n.Y
				u.HasGoal = true
				return
			}
		}
		// Direct chase when interception has nothing to offer.
		u.GoalX, u.GoalY = tgt.X, tgt.Y
		u.HasGoal = true
	})
}

// standDown clears assignments; units drift back to their spawns via the
// nav system's patrol fallback.
func (s *PursuitSystem) standDown() {
	s.world.Units(func(u *world.UnitInfo) {
		if u.Role != "pursuit" {
			return
		}
		if u.HasGoal {
			u.HasGoal = false
			u.Nav.Invalidate()
		}
	})
}

// ---------- Roadblocks ----------

func (s *PursuitSystem) tryRoadblock(tgt *world.TargetInfo) {
	g := s.world.EnsureGraph()
	if g.Empty() {
		return
	}
	cp, ok := nav.PickChokepoint(g, s.world.Map, tgt.X, tgt.Y, tgt.DirX, tgt.DirY,
		s.cfg.Pursuit.ChokeMinAhead, s.cfg.Pursuit.ChokeMaxAhead,
		s.cfg.Nav.RouteHorizon, s.cfg.Nav.SnapRadius)
	if !ok {
		return
	}
	lanes := g.DirEdges[cp.Edge].Lanes
	rb := s.world.PlaceRoadblock(cp, lanes, s.cfg.Pursuit.RoadblockLifetime)
	if len(rb.Tiles) == 0 {
		return
	}
	s.roadblockCD = s.cfg.Pursuit.RoadblockCooldown
	event.Emit(s.bus, event.RoadblockPlaced{X: cp.X, Y: cp.Y, Tiles: len(rb.Tiles)})
	s.log.Info("roadblock placed",
		zap.Float64("x", cp.X), zap.Float64("y", cp.Y), zap.Int("tiles", len(rb.Tiles)))
}
