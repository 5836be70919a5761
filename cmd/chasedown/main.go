package main

import (
	"fmt"
	"math"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chasedown/server/internal/config"
	"github.com/chasedown/server/internal/core/event"
	coresys "github.com/chasedown/server/internal/core/system"
	"github.com/chasedown/server/internal/data"
	"github.com/chasedown/server/internal/nav"
	"github.com/chasedown/server/internal/scripting"
	"github.com/chasedown/server/internal/system"
	"github.com/chasedown/server/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m           Chasedown  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m      pursuit simulation server            \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", serverName)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("CHASEDOWN_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Load static data
	printSection("data")

	mapTable, err := data.LoadMaps(cfg.Data.MapList, cfg.Data.TileDir)
	if err != nil {
		return fmt.Errorf("load maps: %w", err)
	}
	printStat("maps", mapTable.Count())

	tileMap := mapTable.Get(cfg.Server.MapID)
	if tileMap == nil {
		return fmt.Errorf("map %d not found in %s", cfg.Server.MapID, cfg.Data.MapList)
	}

	unitTable, err := data.LoadUnitTable(cfg.Data.UnitList)
	if err != nil {
		return fmt.Errorf("load unit table: %w", err)
	}
	printStat("unit templates", unitTable.Count())

	spawns, err := data.LoadSpawns(cfg.Data.SpawnList)
	if err != nil {
		return fmt.Errorf("load spawn list: %w", err)
	}
	printStat("spawn entries", len(spawns))

	// 4. Lua scripting engine
	luaEngine, err := scripting.NewEngine(cfg.Data.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("lua scripts loaded")

	// 5. World state and road graph
	ws := world.NewState(tileMap, nav.BuildConfig{
		RoadClass:       cfg.Nav.RoadClass,
		BridgeNodeLimit: cfg.Nav.BridgeNodeLimit,
	}, time.Now().UnixNano())

	g := ws.EnsureGraph()
	printStat("graph nodes", len(g.Nodes))
	printStat("graph edges", len(g.UndirEdges))
	bridges := 0
	for i := range g.UndirEdges {
		if g.UndirEdges[i].IsBridge {
			bridges++
		}
	}
	printStat("bridge edges", bridges)

	// 6. Seed patrol units and ambient traffic from the spawn list
	trafficBudget := system.TrafficBudget(tileMap, cfg.Nav.RoadClass, luaEngine, cfg.Traffic.MaxAgents)
	patrols, vehicles := seedSpawns(ws, unitTable, spawns, cfg, trafficBudget)
	printStat("traffic budget", trafficBudget)
	printStat("patrol units", patrols)
	printStat("traffic agents", vehicles)
	fmt.Println()

	// 7. Systems
	bus := event.NewBus()
	runner := coresys.NewRunner()
	pursuitSys := system.NewPursuitSystem(ws, cfg, bus, luaEngine, unitTable, spawns, log)
	runner.Register(newTargetDriver(ws, cfg))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(pursuitSys)
	runner.Register(system.NewUnitNavSystem(ws, cfg, log))
	runner.Register(system.NewTrafficSystem(ws, cfg, log))
	runner.Register(system.NewUpkeepSystem(ws))

	event.Subscribe(bus, func(ev event.RoadblockPlaced) {
		log.Info("roadblock event", zap.Float64("x", ev.X), zap.Float64("y", ev.Y), zap.Int("tiles", ev.Tiles))
	})

	// Demo heat so the director has something to do out of the box.
	pursuitSys.SetWantedLevel(3)

	// 8. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	printSection("ready")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(cfg.Server.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			log.Info("server stopped")
			return nil
		}
	}
}

// seedSpawns places patrol units and traffic vehicles from the spawn list.
// Pursuit-role entries are skipped; the director spawns those on demand.
// trafficBudget caps the vehicle count (see TrafficBudget).
func seedSpawns(ws *world.State, units *data.UnitTable, spawns []data.SpawnEntry, cfg *config.Config, trafficBudget int) (int, int) {
	m := ws.Map
	patrols, vehicles := 0, 0
	for _, sp := range spawns {
		tpl := units.Get(sp.UnitID)
		if tpl == nil || tpl.Role == "pursuit" {
			continue
		}
		count := sp.Count
		if count < 1 {
			count = 1
		}
		for i := 0; i < count; i++ {
			tx, ty := sp.TX, sp.TY
			if sp.RandomR > 0 {
				tx += ws.Rng().Intn(2*sp.RandomR+1) - sp.RandomR
				ty += ws.Rng().Intn(2*sp.RandomR+1) - sp.RandomR
			}
			mode := nav.ModeCar
			if tpl.Mode == "ped" {
				mode = nav.ModePed
			}
			stx, sty, ok := nav.SnapToPassableTile(m,
				float64(tx)*m.TileSize(), float64(ty)*m.TileSize(), mode, cfg.Nav.SnapRadius)
			if !ok {
				continue
			}
			x, y := m.TileToWorld(stx, sty)
			switch tpl.Role {
			case "traffic":
				if ws.TrafficCount() >= trafficBudget {
					continue
				}
				ws.AddTraffic(x, y, tpl.Speed)
				vehicles++
			default:
				ws.AddUnit(tpl, x, y)
				patrols++
			}
		}
	}
	return patrols, vehicles
}

// targetDriver moves the demo target along the road network like a fleeing
// driver: one edge at a time with a forward bias. A real deployment feeds
// world.State.Target from player telemetry instead. Phase 0 (Input).
type targetDriver struct {
	world *world.State
	cfg   *config.Config
	nav   world.TrafficNavState
	init  bool
	speed float64
}

func newTargetDriver(ws *world.State, cfg *config.Config) *targetDriver {
	return &targetDriver{world: ws, cfg: cfg, speed: 90}
}

func (d *targetDriver) Phase() coresys.Phase { return coresys.PhaseInput }

func (d *targetDriver) Update(dt time.Duration) {
	g := d.world.EnsureGraph()
	if g.Empty() {
		return
	}
	m := d.world.Map
	tgt := &d.world.Target

	if !d.init {
		n := &g.Nodes[0]
		tgt.X, tgt.Y = n.X, n.Y
		d.nav.PrevNode = nav.NoNode
		d.init = true
	}

	if !d.nav.HasEdge || d.nav.Index >= len(d.nav.Waypoints) {
		from := nav.NoNode
		prev := nav.NoNode
		fx, fy := 0, 0
		if d.nav.HasEdge {
			e := &g.DirEdges[d.nav.CurrentEdge]
			from, prev = e.To, e.From
			fx, fy = e.DirX, e.DirY
		} else {
			var ok bool
			from, ok = g.NearestNode(m, tgt.X, tgt.Y, d.cfg.Nav.SnapRadius)
			if !ok {
				return
			}
		}
		eid, ok := nav.PickOutEdge(g, from, prev, fx, fy, d.world.Rng())
		if !ok {
			return
		}
		d.nav.CurrentEdge = eid
		d.nav.HasEdge = true
		d.nav.Waypoints = nav.EdgeWaypoints(g, eid, 0, 0, true)
		d.nav.Index = 0
		d.nav.PrevNode = from
	}

	wp, ok := d.nav.Current(tgt.X, tgt.Y, m.TileSize()/2)
	if !ok {
		return
	}
	dx := wp.X - tgt.X
	dy := wp.Y - tgt.Y
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return
	}
	move := d.speed * dt.Seconds()
	if move > dist {
		move = dist
	}
	tgt.DirX = dx / dist
	tgt.DirY = dy / dist
	tgt.Speed = d.speed
	tgt.X += tgt.DirX * move
	tgt.Y += tgt.DirY * move
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
