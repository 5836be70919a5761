package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"go.uber.org/zap"
)

func writeScript(t *testing.T, dir, sub, name, body string) {
	t.Helper()
	p := filepath.Join(dir, sub)
	if err := os.MkdirAll(p, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(p, name), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestEngine_PursuitPolicyFromLua(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "pursuit", "pursuit.lua", `
function pursuit_policy(level)
    return { units = level * 2, spawn_mode = "ahead", roadblocks = level >= 3 }
end
function heat_decay_seconds(level)
    return 7
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p := e.GetPursuitPolicy(2)
	if p.Units != 4 || p.SpawnMode != "ahead" || p.Roadblocks {
		t.Fatalf("level 2 policy: %+v", p)
	}
	p = e.GetPursuitPolicy(3)
	if !p.Roadblocks {
		t.Fatalf("level 3 should allow roadblocks: %+v", p)
	}
	if got := e.HeatDecaySeconds(2); got != 7 {
		t.Fatalf("heat decay: got %d, want 7", got)
	}
}

func TestEngine_PolicySanitization(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "pursuit", "pursuit.lua", `
function pursuit_policy(level)
    return { units = -3, spawn_mode = "sideways" }
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	p := e.GetPursuitPolicy(1)
	if p.Units != 0 {
		t.Fatalf("negative unit counts must clamp to 0, got %d", p.Units)
	}
	if p.SpawnMode != "behind" {
		t.Fatalf("unknown spawn mode must fall back to behind, got %q", p.SpawnMode)
	}
}

func TestEngine_FallbacksWithoutScripts(t *testing.T) {
	e, err := NewEngine(t.TempDir(), zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if p := e.GetPursuitPolicy(3); p != DefaultPolicy(3) {
		t.Fatalf("missing pursuit_policy should use the built-in table, got %+v", p)
	}
	if got := e.HeatDecaySeconds(1); got != 5 {
		t.Fatalf("missing heat_decay_seconds should default to 5, got %d", got)
	}
	if got := e.TrafficDensity(100); got != 0 {
		t.Fatalf("missing traffic_density should yield 0, got %d", got)
	}
}

func TestEngine_TrafficDensity(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "traffic", "traffic.lua", `
function traffic_density(road_tiles)
    return math.floor(road_tiles / 10)
end
`)
	e, err := NewEngine(dir, zap.NewNop())
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()

	if got := e.TrafficDensity(95); got != 9 {
		t.Fatalf("got %d, want 9", got)
	}
}

func TestEngine_BrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "pursuit", "broken.lua", `function pursuit_policy(`)
	if _, err := NewEngine(dir, zap.NewNop()); err == nil {
		t.Fatal("a syntax error should fail engine construction")
	}
}

func TestDefaultPolicy_Table(t *testing.T) {
	if p := DefaultPolicy(0); p.Units != 0 || p.Roadblocks {
		t.Fatalf("level 0: %+v", p)
	}
	if p := DefaultPolicy(2); p.Units != 2 || p.SpawnMode != "behind" {
		t.Fatalf("level 2: %+v", p)
	}
	if p := DefaultPolicy(3); p.SpawnMode != "ahead" || p.Roadblocks {
		t.Fatalf("level 3: %+v", p)
	}
	if p := DefaultPolicy(5); p.Units != 8 || !p.Roadblocks {
		t.Fatalf("level 5: %+v", p)
	}
	if p := DefaultPolicy(99); p != DefaultPolicy(5) {
		t.Fatal("levels clamp to 5")
	}
}
