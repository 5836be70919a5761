package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Nav     NavConfig     `toml:"nav"`
	Pursuit PursuitConfig `toml:"pursuit"`
	Traffic TrafficConfig `toml:"traffic"`
	Logging LoggingConfig `toml:"logging"`
}

type ServerConfig struct {
	Name     string        `toml:"name"`
	TickRate time.Duration `toml:"tick_rate"`
	MapID    int16         `toml:"map_id"` // map the simulation boots into
}

type DataConfig struct {
	MapList    string `toml:"map_list"`    // YAML map metadata
	TileDir    string `toml:"tile_dir"`    // per-map CSV tile files
	UnitList   string `toml:"unit_list"`   // YAML unit/vehicle templates
	SpawnList  string `toml:"spawn_list"`  // YAML traffic/patrol spawns
	ScriptsDir string `toml:"scripts_dir"` // Lua policy scripts
}

// NavConfig holds every tunable the navigation core reads. Nothing here is
// hard-coded inside the algorithms; tests construct their own values.
type NavConfig struct {
	RoadClass       byte    `toml:"road_class"`        // tile class treated as road
	GridIterCap     int     `toml:"grid_iter_cap"`     // grid A* iteration cap
	GraphIterCap    int     `toml:"graph_iter_cap"`    // graph A* iteration cap
	DijkstraIterCap int     `toml:"dijkstra_iter_cap"` // cost table iteration cap
	BridgeNodeLimit int     `toml:"bridge_node_limit"` // skip bridge pass above this
	LaneWidth       float64 `toml:"lane_width"`        // world units between lanes
	SnapRadius      int     `toml:"snap_radius"`       // tile radius for snapping
	RouteHorizon    int     `toml:"route_horizon"`     // projected route length in nodes
}

type PursuitConfig struct {
	GracePeriod       time.Duration `toml:"grace_period"`       // unseen time before decay starts
	DecayInterval     time.Duration `toml:"decay_interval"`     // wanted level decrement period
	RoadblockCooldown time.Duration `toml:"roadblock_cooldown"` // min gap between roadblocks
	RoadblockLifetime time.Duration `toml:"roadblock_lifetime"` // blocked-tile duration
	LateFactor        float64       `toml:"late_factor"`        // intercept lateness penalty
	MinTargetETA      float64       `toml:"min_target_eta"`     // seconds; closer targets not worth intercepting
	ChokeMinAhead     int           `toml:"choke_min_ahead"`    // tiles-ahead window for roadblocks
	ChokeMaxAhead     int           `toml:"choke_max_ahead"`
	RepathCooldownMin time.Duration `toml:"repath_cooldown_min"` // per-unit replan bounds
	RepathCooldownMax time.Duration `toml:"repath_cooldown_max"`
}

type TrafficConfig struct {
	MaxAgents      int           `toml:"max_agents"`
	StuckTimeout   time.Duration `toml:"stuck_timeout"`   // displacement-below-threshold window
	StuckThreshold float64       `toml:"stuck_threshold"` // world units of movement per window
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := Defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "Chasedown",
			TickRate: 16 * time.Millisecond, // 60 Hz
			MapID:    1,
		},
		Data: DataConfig{
			MapList:    "data/map_list.yaml",
			TileDir:    "data/maps",
			UnitList:   "data/unit_list.yaml",
			SpawnList:  "data/spawn_list.yaml",
			ScriptsDir: "scripts",
		},
		Nav: NavConfig{
			RoadClass:       1,
			GridIterCap:     4096,
			GraphIterCap:    2048,
			DijkstraIterCap: 8192,
			BridgeNodeLimit: 4096,
			LaneWidth:       10,
			SnapRadius:      6,
			RouteHorizon:    8,
		},
		Pursuit: PursuitConfig{
			GracePeriod:       8 * time.Second,
			DecayInterval:     5 * time.Second,
			RoadblockCooldown: 20 * time.Second,
			RoadblockLifetime: 12 * time.Second,
			LateFactor:        2.0,
			MinTargetETA:      0.75,
			ChokeMinAhead:     6,
			ChokeMaxAhead:     28,
			RepathCooldownMin: 300 * time.Millisecond,
			RepathCooldownMax: 700 * time.Millisecond,
		},
		Traffic: TrafficConfig{
			MaxAgents:      48,
			StuckTimeout:   2 * time.Second,
			StuckThreshold: 2.0,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
