package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Server.TickRate != 16*time.Millisecond {
		t.Fatalf("tick rate: got %v", cfg.Server.TickRate)
	}
	if cfg.Nav.RoadClass != 1 {
		t.Fatalf("road class: got %d", cfg.Nav.RoadClass)
	}
	if cfg.Nav.LaneWidth != 10 {
		t.Fatalf("lane width: got %v", cfg.Nav.LaneWidth)
	}
	if cfg.Pursuit.LateFactor != 2.0 {
		t.Fatalf("late factor: got %v", cfg.Pursuit.LateFactor)
	}
	if cfg.Pursuit.ChokeMinAhead >= cfg.Pursuit.ChokeMaxAhead {
		t.Fatal("chokepoint window must be non-empty")
	}
	if cfg.Traffic.MaxAgents <= 0 {
		t.Fatal("traffic cap must be positive")
	}
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	body := `
[server]
name = "TestBox"
map_id = 3

[nav]
lane_width = 12.5

[pursuit]
grace_period = 2_000_000_000

[logging]
format = "json"
`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Name != "TestBox" || cfg.Server.MapID != 3 {
		t.Fatalf("server section: %+v", cfg.Server)
	}
	if cfg.Nav.LaneWidth != 12.5 {
		t.Fatalf("lane width override: got %v", cfg.Nav.LaneWidth)
	}
	if cfg.Pursuit.GracePeriod != 2*time.Second {
		t.Fatalf("duration decode: got %v", cfg.Pursuit.GracePeriod)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("logging format: got %q", cfg.Logging.Format)
	}
	// Untouched fields keep their defaults.
	if cfg.Server.TickRate != 16*time.Millisecond {
		t.Fatalf("tick rate should keep its default, got %v", cfg.Server.TickRate)
	}
	if cfg.Nav.SnapRadius != 6 {
		t.Fatalf("snap radius should keep its default, got %d", cfg.Nav.SnapRadius)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.toml")); err == nil {
		t.Fatal("missing config file should error")
	}
}

func TestLoad_BadToml(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte("[server\nname="), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("malformed TOML should error")
	}
}
