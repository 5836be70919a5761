package world

import (
	"math/rand"
	"sync"
	"time"

	"github.com/chasedown/server/internal/data"
	"github.com/chasedown/server/internal/nav"
)

// TargetInfo is the chased vehicle: position, heading, and a speed
// estimate fed to the interception planner. Updated by the input layer,
// read by every pursuit system.
type TargetInfo struct {
	X     float64
	Y     float64
	DirX  float64
	DirY  float64
	Speed float64
}

// UnitInfo holds in-memory data for one pursuit or patrol unit.
// Accessed only from the game loop goroutine — no locks needed.
type UnitInfo struct {
	ID         int32
	UnitID     int32 // template id
	Name       string
	Role       string // "pursuit", "patrol", "traffic"
	Mode       nav.Mode
	Speed      float64
	SightRange float64

	X    float64
	Y    float64
	DirX float64
	DirY float64

	SpawnX float64
	SpawnY float64

	LaneBias int

	// Assignment written by the pursuit director, consumed by unit nav.
	GoalX   float64
	GoalY   float64
	HasGoal bool

	Nav NavState
}

// TrafficInfo holds one ambient traffic vehicle.
type TrafficInfo struct {
	ID    int32
	X     float64
	Y     float64
	Speed float64
	Nav   TrafficNavState
}

// Roadblock marks a set of dynamically blocked tiles across a corridor.
type Roadblock struct {
	X     float64
	Y     float64
	DirX  int
	DirY  int
	Tiles [][2]int
	TTL   time.Duration
}

// State is the authoritative in-memory world: the map, its cached road
// graph, the target, pursuit units, and ambient traffic. The graph slot is
// an explicit one-time-build memo owned here — no ambient global state.
type State struct {
	Map *data.TileMap

	buildCfg  nav.BuildConfig
	graphOnce sync.Once
	graph     *nav.Graph

	Target TargetInfo

	units   map[int32]*UnitInfo
	traffic map[int32]*TrafficInfo
	aoi     *AOIGrid
	nextID  int32

	Roadblocks []*Roadblock

	rng *rand.Rand
}

func NewState(m *data.TileMap, buildCfg nav.BuildConfig, seed int64) *State {
	return &State{
		Map:      m,
		buildCfg: buildCfg,
		units:    make(map[int32]*UnitInfo),
		traffic:  make(map[int32]*TrafficInfo),
		aoi:      NewAOIGrid(),
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// EnsureGraph lazily builds the road graph on first access and returns the
// same instance forever after. Multiple agents may request the graph on
// the same tick; the once-guard keeps the build single. The result may be
// empty (roadless map) — callers must treat that as "graph unavailable".
func (s *State) EnsureGraph() *nav.Graph {
	s.graphOnce.Do(func() {
		s.graph = nav.BuildGraph(s.Map, s.buildCfg)
	})
	return s.graph
}

// Rng exposes the world's seeded RNG so systems stay reproducible under a
// fixed seed.
func (s *State) Rng() *rand.Rand { return s.rng }

// ---------- Units ----------

// AddUnit registers a unit built from a template at a world position.
func (s *State) AddUnit(tpl *data.UnitTemplate, x, y float64) *UnitInfo {
	s.nextID++
	mode := nav.ModeCar
	if tpl.Mode == "ped" {
		mode = nav.ModePed
	}
	u := &UnitInfo{
		ID:         s.nextID,
		UnitID:     tpl.UnitID,
		Name:       tpl.Name,
		Role:       tpl.Role,
		Mode:       mode,
		Speed:      tpl.Speed,
		SightRange: tpl.SightRange,
		X:          x,
		Y:          y,
		SpawnX:     x,
		SpawnY:     y,
		LaneBias:   int(s.nextID), // distinct lanes for units sharing a corridor
	}
	s.units[u.ID] = u
	s.aoi.Add(u.ID, x, y)
	return u
}

// RemoveUnit deletes a unit and frees its AOI slot.
func (s *State) RemoveUnit(id int32) {
	u, ok := s.units[id]
	if !ok {
		return
	}
	s.aoi.Remove(id, u.X, u.Y)
	delete(s.units, id)
}

// GetUnit returns a unit by id, or nil.
func (s *State) GetUnit(id int32) *UnitInfo { return s.units[id] }

// UnitCount returns the number of live units.
func (s *State) UnitCount() int { return len(s.units) }

// Units iterates all units in unspecified order.
func (s *State) Units(fn func(*UnitInfo)) {
	for _, u := range s.units {
		fn(u)
	}
}

// UpdateUnitPosition moves a unit and keeps the AOI grid in sync.
func (s *State) UpdateUnitPosition(id int32, x, y float64) {
	u := s.units[id]
	if u == nil {
		return
	}
	oldX, oldY := u.X, u.Y
	u.X = x
	u.Y = y
	s.aoi.Move(id, oldX, oldY, x, y)
}

// ---------- Traffic ----------

// AddTraffic registers an ambient traffic vehicle.
func (s *State) AddTraffic(x, y, speed float64) *TrafficInfo {
	s.nextID++
	t := &TrafficInfo{ID: s.nextID, X: x, Y: y, Speed: speed}
	t.Nav.LaneBias = int(s.nextID)
	t.Nav.LastX = x
	t.Nav.LastY = y
	s.traffic[t.ID] = t
	s.aoi.Add(t.ID, x, y)
	return t
}

// RemoveTraffic deletes a traffic vehicle.
func (s *State) RemoveTraffic(id int32) {
	t, ok := s.traffic[id]
	if !ok {
		return
	}
	s.aoi.Remove(id, t.X, t.Y)
	delete(s.traffic, id)
}

// TrafficCount returns the number of live traffic vehicles.
func (s *State) TrafficCount() int { return len(s.traffic) }

// Traffic iterates all traffic vehicles.
func (s *State) Traffic(fn func(*TrafficInfo)) {
	for _, t := range s.traffic {
		fn(t)
	}
}

// UpdateTrafficPosition moves a traffic vehicle and its AOI slot.
func (s *State) UpdateTrafficPosition(id int32, x, y float64) {
	t := s.traffic[id]
	if t == nil {
		return
	}
	oldX, oldY := t.X, t.Y
	t.X = x
	t.Y = y
	s.aoi.Move(id, oldX, oldY, x, y)
}

// NearbyAgents returns agent ids (units and traffic) around a position,
// cell-filtered; callers do exact range checks.
func (s *State) NearbyAgents(x, y float64) []int32 {
	return s.aoi.GetNearby(x, y)
}

// ---------- Roadblocks ----------

// PlaceRoadblock blocks the tiles spanning a corridor perpendicular to the
// given direction and records the block for expiry. The dynamic block bit
// diverts grid searches and traffic immediately.
func (s *State) PlaceRoadblock(cp nav.Chokepoint, halfSpan int, ttl time.Duration) *Roadblock {
	ctx, cty := s.Map.WorldToTile(cp.X, cp.Y)
	// Perpendicular of the corridor's travel direction.
	px, py := -cp.DirY, cp.DirX
	rb := &Roadblock{X: cp.X, Y: cp.Y, DirX: cp.DirX, DirY: cp.DirY, TTL: ttl}
	for i := -halfSpan; i <= halfSpan; i++ {
		tx, ty := ctx+px*i, cty+py*i
		if s.Map.SolidAt(tx, ty) {
			continue
		}
		s.Map.SetBlocked(tx, ty, true)
		rb.Tiles = append(rb.Tiles, [2]int{tx, ty})
	}
	s.Roadblocks = append(s.Roadblocks, rb)
	return rb
}

// ExpireRoadblocks decrements roadblock lifetimes and unblocks the tiles
// of any that lapsed.
func (s *State) ExpireRoadblocks(dt time.Duration) {
	kept := s.Roadblocks[:0]
	for _, rb := range s.Roadblocks {
		rb.TTL -= dt
		if rb.TTL > 0 {
			kept = append(kept, rb)
			continue
		}
		for _, t := range rb.Tiles {
			s.Map.SetBlocked(t[0], t[1], false)
		}
	}
	s.Roadblocks = kept
}
