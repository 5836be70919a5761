package data

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFromStrings_Classes(t *testing.T) {
	m := FromStrings([]string{
		".r#",
		"s.r",
	}, 32)
	if m.ClassAt(0, 0) != ClassGround {
		t.Fatal("expected ground at (0,0)")
	}
	if m.ClassAt(1, 0) != ClassRoad {
		t.Fatal("expected road at (1,0)")
	}
	if m.ClassAt(2, 0) != ClassWall {
		t.Fatal("expected wall at (2,0)")
	}
	if m.ClassAt(0, 1) != ClassSidewalk {
		t.Fatal("expected sidewalk at (0,1)")
	}
	if !m.SolidAt(2, 0) {
		t.Fatal("wall should be solid")
	}
	if m.SolidAt(1, 0) {
		t.Fatal("road should not be solid")
	}
}

func TestTileAt_OutOfBoundsIsWall(t *testing.T) {
	m := FromStrings([]string{"rr"}, 32)
	if !m.SolidAt(-1, 0) || !m.SolidAt(0, -1) || !m.SolidAt(2, 0) || !m.SolidAt(0, 1) {
		t.Fatal("out-of-bounds tiles should read as solid walls")
	}
}

func TestOneWay_Allows(t *testing.T) {
	cases := []struct {
		code   OneWay
		dx, dy int
		want   bool
	}{
		{OneWayNone, 1, 0, true},
		{OneWayNone, 0, -1, true},
		{OneWayE, 1, 0, true},
		{OneWayE, -1, 0, false},
		{OneWayW, -1, 0, true},
		{OneWayW, 0, 1, false},
		{OneWayS, 0, 1, true},
		{OneWayS, 0, -1, false},
		{OneWayN, 0, -1, true},
		{OneWayN, 1, 0, false},
	}
	for _, c := range cases {
		if got := c.code.Allows(c.dx, c.dy); got != c.want {
			t.Fatalf("code %d dir (%d,%d): got %v want %v", c.code, c.dx, c.dy, got, c.want)
		}
	}
}

func TestFromStrings_OneWayAndLanes(t *testing.T) {
	m := FromStrings([]string{">3<"}, 32)
	if m.OneWayAt(0, 0) != OneWayE {
		t.Fatal("'>' should encode east one-way")
	}
	if m.OneWayAt(2, 0) != OneWayW {
		t.Fatal("'<' should encode west one-way")
	}
	if m.LaneCountAt(1, 0) != 3 {
		t.Fatalf("'3' should encode 3 lanes, got %d", m.LaneCountAt(1, 0))
	}
	if m.LaneCountAt(0, 0) != 1 {
		t.Fatal("plain road should default to 1 lane")
	}
}

func TestSetBlocked_TogglesSolid(t *testing.T) {
	m := FromStrings([]string{"rrr"}, 32)
	if m.SolidAt(1, 0) {
		t.Fatal("road should start passable")
	}
	m.SetBlocked(1, 0, true)
	if !m.SolidAt(1, 0) {
		t.Fatal("blocked road should be solid")
	}
	if m.ClassAt(1, 0) != ClassRoad {
		t.Fatal("blocking must not change the surface class")
	}
	m.SetBlocked(1, 0, false)
	if m.SolidAt(1, 0) {
		t.Fatal("unblocked road should be passable again")
	}
}

func TestWorldTileRoundTrip(t *testing.T) {
	m := FromStrings([]string{"rrrr", "rrrr"}, 32)
	x, y := m.TileToWorld(2, 1)
	if x != 80 || y != 48 {
		t.Fatalf("tile center: got (%.0f,%.0f) want (80,48)", x, y)
	}
	tx, ty := m.WorldToTile(x, y)
	if tx != 2 || ty != 1 {
		t.Fatalf("round trip: got (%d,%d) want (2,1)", tx, ty)
	}
	// Negative world space maps below tile 0.
	tx, ty = m.WorldToTile(-1, -1)
	if tx != -1 || ty != -1 {
		t.Fatalf("negative coords: got (%d,%d) want (-1,-1)", tx, ty)
	}
	// An exact negative tile boundary belongs to the tile it starts.
	tx, ty = m.WorldToTile(-32, -64)
	if tx != -1 || ty != -2 {
		t.Fatalf("negative boundary: got (%d,%d) want (-1,-2)", tx, ty)
	}
	if tx, _ = m.WorldToTile(32, 0); tx != 1 {
		t.Fatalf("positive boundary: got tile %d want 1", tx)
	}
}

func TestAabbHitsSolid(t *testing.T) {
	m := FromStrings([]string{
		"rr#",
		"rrr",
	}, 32)
	if m.AabbHitsSolid(0, 0, 60, 60) {
		t.Fatal("box over road tiles should not hit solid")
	}
	if !m.AabbHitsSolid(60, 0, 90, 30) {
		t.Fatal("box overlapping the wall tile should hit solid")
	}
}

func TestLoadMaps(t *testing.T) {
	dir := t.TempDir()
	yamlPath := filepath.Join(dir, "map_list.yaml")
	mapList := `maps:
  - map_id: 7
    name: test
    width: 3
    height: 2
    tile_size: 32
  - map_id: 8
    name: missing-tiles
    width: 3
    height: 2
`
	if err := os.WriteFile(yamlPath, []byte(mapList), 0o644); err != nil {
		t.Fatal(err)
	}
	// Rows are Y lines; class road = 1, wall = 3.
	tiles := "# test map\n1,1,3\n0,1,1\n"
	if err := os.WriteFile(filepath.Join(dir, "7.txt"), []byte(tiles), 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := LoadMaps(yamlPath, dir)
	if err != nil {
		t.Fatal(err)
	}
	if table.Count() != 1 {
		t.Fatalf("expected 1 loaded map (map 8 has no tile file), got %d", table.Count())
	}
	m := table.Get(7)
	if m == nil {
		t.Fatal("map 7 should be loaded")
	}
	if m.ClassAt(2, 0) != ClassWall {
		t.Fatal("expected wall at (2,0)")
	}
	if m.ClassAt(1, 1) != ClassRoad {
		t.Fatal("expected road at (1,1)")
	}
	if m.ClassAt(0, 1) != ClassGround {
		t.Fatal("expected ground at (0,1)")
	}
}

func TestLoadUnitTableAndSpawns(t *testing.T) {
	dir := t.TempDir()
	unitPath := filepath.Join(dir, "unit_list.yaml")
	units := `units:
  - unit_id: 1
    name: cruiser
    role: pursuit
    mode: car
    speed: 110
    sight_range: 280
    hp: 100
  - unit_id: 2
    name: sedan
    role: traffic
`
	if err := os.WriteFile(unitPath, []byte(units), 0o644); err != nil {
		t.Fatal(err)
	}
	table, err := LoadUnitTable(unitPath)
	if err != nil {
		t.Fatal(err)
	}
	if table.Count() != 2 {
		t.Fatalf("expected 2 templates, got %d", table.Count())
	}
	cruiser := table.Get(1)
	if cruiser == nil || cruiser.Speed != 110 {
		t.Fatal("cruiser template not loaded")
	}
	sedan := table.Get(2)
	if sedan.Speed != 60 || sedan.Mode != "car" {
		t.Fatal("defaults should fill missing speed and mode")
	}
	if table.FirstByRole("pursuit") != cruiser {
		t.Fatal("FirstByRole should find the cruiser")
	}
	if table.FirstByRole("patrol") != nil {
		t.Fatal("FirstByRole should return nil for an absent role")
	}

	spawnPath := filepath.Join(dir, "spawn_list.yaml")
	spawnYaml := `spawns:
  - unit_id: 2
    map_id: 1
    tx: 4
    ty: 5
    count: 3
`
	if err := os.WriteFile(spawnPath, []byte(spawnYaml), 0o644); err != nil {
		t.Fatal(err)
	}
	spawns, err := LoadSpawns(spawnPath)
	if err != nil {
		t.Fatal(err)
	}
	if len(spawns) != 1 || spawns[0].Count != 3 || spawns[0].TX != 4 {
		t.Fatalf("spawn entry mismatch: %+v", spawns)
	}
}
